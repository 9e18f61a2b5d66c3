package translation

import "errors"

var (
	// ErrTranslation indicates any failure of the translation pipeline.
	ErrTranslation = errors.New("translation failed")
	// ErrUpstream indicates the translation provider rejected a request.
	ErrUpstream = errors.New("translation provider error")
	// ErrEmptyText indicates there is nothing to translate.
	ErrEmptyText = errors.New("no text to translate")
	// ErrUnsupportedText indicates the output has characters the configured
	// font cannot draw.
	ErrUnsupportedText = errors.New("text not representable in the built-in font")
)
