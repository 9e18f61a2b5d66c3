package translation

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"github.com/go-pdf/fpdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"golang.org/x/text/encoding/charmap"
)

// Page layout in points on US Letter. The first baseline sits 700pt above
// the bottom edge.
const (
	marginLeft   = 50
	firstLine    = 92
	linePitch    = 15
	linesPerPage = 40
	fontSize     = 12
	textWidth    = 512
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// Renderer lays text out as a paginated PDF.
type Renderer struct {
	font []byte
}

// NewRenderer creates a renderer. With an empty fontPath the built-in
// Helvetica is used, which only covers Windows-1252 text; Render rejects
// anything else with ErrUnsupportedText.
func NewRenderer(fontPath string) (*Renderer, error) {
	if fontPath == "" {
		return &Renderer{}, nil
	}
	font, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("read font: %w", err)
	}
	return &Renderer{font: font}, nil
}

// Render returns the PDF and its page count. Lines longer than the printable
// width wrap; a new page starts every 40 lines.
func (r *Renderer) Render(text string) ([]byte, int, error) {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(false, 0)

	if r.font != nil {
		doc.AddUTF8FontFromBytes("body", "", r.font)
		doc.SetFont("body", "", fontSize)
	} else {
		doc.SetFont("Helvetica", "", fontSize)
	}
	if err := doc.Error(); err != nil {
		return nil, 0, fmt.Errorf("load font: %w", err)
	}

	var (
		lines []string
		err   error
	)
	if r.font != nil {
		lines = layoutUTF8(doc, text)
	} else if lines, err = layoutCore(doc, text); err != nil {
		return nil, 0, err
	}

	for i, line := range lines {
		if i%linesPerPage == 0 {
			doc.AddPage()
		}
		doc.Text(marginLeft, firstLine+float64(i%linesPerPage)*linePitch, line)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("render pdf: %w", err)
	}

	pages, err := api.PageCount(bytes.NewReader(buf.Bytes()), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("validate pdf: %w", err)
	}
	if want := pageCount(len(lines)); pages != want {
		return nil, 0, fmt.Errorf("validate pdf: %d pages, want %d", pages, want)
	}

	return buf.Bytes(), pages, nil
}

// layoutUTF8 wraps text set in an embedded UTF-8 font.
func layoutUTF8(doc *fpdf.Fpdf, text string) []string {
	var lines []string
	for _, para := range lineBreak.Split(text, -1) {
		wrapped := doc.SplitText(para, textWidth)
		if len(wrapped) == 0 {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, wrapped...)
	}
	return lines
}

// layoutCore encodes text to Windows-1252 for the core fonts and wraps the
// single-byte result. Lines are returned already encoded for doc.Text.
func layoutCore(doc *fpdf.Fpdf, text string) ([]string, error) {
	enc := charmap.Windows1252.NewEncoder()

	var lines []string
	for _, para := range lineBreak.Split(text, -1) {
		encoded, err := enc.Bytes([]byte(para))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedText, err)
		}
		wrapped := doc.SplitLines(encoded, textWidth)
		if len(wrapped) == 0 {
			lines = append(lines, "")
			continue
		}
		for _, w := range wrapped {
			lines = append(lines, string(w))
		}
	}
	return lines, nil
}

func pageCount(lines int) int {
	return max(1, (lines+linesPerPage-1)/linesPerPage)
}
