package processing

import "errors"

var (
	ErrRender      = errors.New("rendition failed")
	ErrUnsupported = errors.New("no renderer for content type")
)
