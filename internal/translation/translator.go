// Package translation translates extracted document text through an external
// provider and lays the result out as a new PDF.
package translation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Result is a translated document.
type Result struct {
	Text  string
	PDF   []byte
	Pages int
}

// Translator splits text into segments, translates them in order and
// renders the concatenated output.
type Translator struct {
	client      Client
	renderer    *Renderer
	segmentSize int
	logger      *slog.Logger
}

// New creates a Translator. A nil client disables translation: every call
// fails with ErrTranslation.
func New(cfg *Config, client Client, logger *slog.Logger) (*Translator, error) {
	renderer, err := NewRenderer(cfg.FontPath)
	if err != nil {
		return nil, err
	}
	return &Translator{
		client:      client,
		renderer:    renderer,
		segmentSize: cfg.SegmentSize,
		logger:      logger.With("system", "translation"),
	}, nil
}

// Translate translates text segment by segment. Any failing segment aborts
// the whole call; nothing is retried.
func (t *Translator) Translate(ctx context.Context, text, from, to string) (string, error) {
	if t.client == nil {
		return "", fmt.Errorf("%w: provider not configured", ErrTranslation)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %w", ErrTranslation, ErrEmptyText)
	}

	src, dst := MapLanguage(from), MapLanguage(to)
	segments := Segments(text, t.segmentSize)

	var out strings.Builder
	for i, seg := range segments {
		if err := ctx.Err(); err != nil {
			return "", fmt.Errorf("%w: %w", ErrTranslation, err)
		}

		translated, err := t.client.Translate(ctx, seg, src, dst)
		if err != nil {
			return "", fmt.Errorf("%w: segment %d of %d: %w", ErrTranslation, i+1, len(segments), err)
		}
		out.WriteString(translated)
	}

	t.logger.Debug("text translated", "from", src, "to", dst, "segments", len(segments))
	return out.String(), nil
}

// Document translates text and renders the result as a PDF.
func (t *Translator) Document(ctx context.Context, text, from, to string) (*Result, error) {
	translated, err := t.Translate(ctx, text, from, to)
	if err != nil {
		return nil, err
	}

	data, pages, err := t.renderer.Render(translated)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranslation, err)
	}

	return &Result{Text: translated, PDF: data, Pages: pages}, nil
}
