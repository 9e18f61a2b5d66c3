package blobs

import (
	"bytes"
	_ "embed"
	"io"
)

var (
	//go:embed assets/file-web.png
	webPlaceholder []byte
	//go:embed assets/file-thumb.png
	thumbPlaceholder []byte
)

func placeholder(kind Kind) *Rendition {
	data := webPlaceholder
	if kind == Thumb {
		data = thumbPlaceholder
	}
	return &Rendition{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: "image/png",
		Placeholder: true,
	}
}
