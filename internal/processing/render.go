package processing

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	docimage "github.com/JaimeStill/document-context/pkg/image"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/JaimeStill/strongbox/internal/extract"
)

const sourcePDF = "source.pdf"

var decodable = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/bmp":  true,
	"image/tiff": true,
	"image/webp": true,
}

// Decodable reports whether images of mimeType decode natively.
func Decodable(mimeType string) bool {
	return decodable[extract.MediaType(mimeType)]
}

// Fit scales src so its longer side is at most limit pixels and flattens it
// onto white. Images already within limit keep their size.
func Fit(src image.Image, limit int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > limit || h > limit {
		if w >= h {
			h = max(1, h*limit/w)
			w = limit
		} else {
			w = max(1, w*limit/h)
			h = limit
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}

// EncodeJPEG encodes img at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Previewer renders the first page of a PDF.
type Previewer interface {
	FirstPage(ctx context.Context, pdf []byte) (image.Image, error)
}

type imageMagick struct {
	image   config.ImageConfig
	tempDir string
}

// NewPreviewer returns a Previewer that rasterizes through ImageMagick.
func NewPreviewer(cfg *Config) Previewer {
	return &imageMagick{
		image: config.ImageConfig{
			Format:  "png",
			DPI:     cfg.DPI,
			Options: map[string]any{"background": "white"},
		},
		tempDir: cfg.TempDir,
	}
}

func (m *imageMagick) FirstPage(ctx context.Context, data []byte) (image.Image, error) {
	dir, err := os.MkdirTemp(m.tempDir, "strongbox-preview-*")
	if err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %w", ErrRender, err)
	}
	defer os.RemoveAll(dir)

	pdfPath := filepath.Join(dir, sourcePDF)
	if err := os.WriteFile(pdfPath, data, 0600); err != nil {
		return nil, fmt.Errorf("%w: write temp pdf: %w", ErrRender, err)
	}

	pdfDoc, err := document.OpenPDF(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf: %w", ErrRender, err)
	}
	defer pdfDoc.Close()

	page, err := pdfDoc.ExtractPage(1)
	if err != nil {
		return nil, fmt.Errorf("%w: extract page: %w", ErrRender, err)
	}

	renderer, err := docimage.NewImageMagickRenderer(m.image)
	if err != nil {
		return nil, fmt.Errorf("%w: create renderer: %w", ErrRender, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := page.ToImage(renderer, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: render page: %w", ErrRender, err)
	}

	img, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("%w: decode page: %w", ErrRender, err)
	}
	return img, nil
}
