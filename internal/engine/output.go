package engine

import "strings"

// Output mimetypes produced by runners.
const (
	MimeHTML     = "text/html"
	MimePlain    = "text/plain"
	MimeMarkdown = "text/markdown"
	MimePNG      = "image/png"
	MimeError    = "application/vnd.marimo+error"
)

// Output is the displayed result of one cell. Image data is a data URL.
type Output struct {
	Mimetype string `json:"mimetype"`
	Data     string `json:"data"`
}

// IsError reports whether the cell raised.
func (o Output) IsError() bool {
	return o.Mimetype == MimeError
}

// IsImage reports whether the output is an image.
func (o Output) IsImage() bool {
	return strings.HasPrefix(o.Mimetype, "image")
}

// IsPlain reports whether the output is plain text.
func (o Output) IsPlain() bool {
	return strings.HasPrefix(o.Mimetype, MimePlain)
}

// Source is one cell sent to a Runner.
type Source struct {
	Code string `json:"code"`
}
