package quarto

import (
	"fmt"
	"io"

	"github.com/alnah/go-qmarimo/internal/engine"
)

// Fragment types understood by the Quarto filter.
const (
	TypeHTML       = "html"
	TypeFigure     = "figure"
	TypePara       = "para"
	TypeBlockquote = "blockquote"
)

// Island is a built cell that can render itself. *engine.Stub implements it.
type Island interface {
	Code() string
	Output() engine.Output
	Render(opts engine.RenderOptions) string
}

// RenderInfo describes how a cell was rendered.
type RenderInfo struct {
	DisplayCode bool   `json:"display_code"`
	Reactive    bool   `json:"reactive"`
	Code        string `json:"code"`
}

// Fragment is one rendered cell. RenderInfo is absent for cells that were
// excluded before rendering.
type Fragment struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	*RenderInfo
}

// Render turns a built cell into a Fragment. Cell options override global
// options. With mimeSensitive set, images, plain text and errors become
// native Pandoc elements instead of islands. Errors of non-native cells are
// reported on warn when the warning option is set.
func Render(global Options, cell Island, cellOpts Options, mimeSensitive bool, warn io.Writer) Fragment {
	opts := Merge(global, cellOpts)
	if !opts.Bool("include") || cell == nil {
		return Fragment{Type: TypeHTML, Value: ""}
	}
	if warn == nil {
		warn = io.Discard
	}

	out := cell.Output()
	info := &RenderInfo{
		DisplayCode: opts.Bool("echo"),
		Reactive:    opts.Bool("eval") && !mimeSensitive,
		Code:        cell.Code(),
	}

	if opts.Bool("output") && mimeSensitive {
		switch {
		case out.IsImage():
			return Fragment{Type: TypeFigure, Value: out.Data, RenderInfo: info}
		case out.IsPlain():
			return Fragment{Type: TypePara, Value: out.Data, RenderInfo: info}
		case out.IsError():
			if opts.Bool("error") {
				return Fragment{Type: TypeBlockquote, Value: out.Data, RenderInfo: info}
			}
			return Fragment{Type: TypePara, Value: "", RenderInfo: info}
		}
	} else if out.IsError() {
		if opts.Bool("warning") {
			_, _ = fmt.Fprintln(warn, "Error", out.Data)
		}
		if !opts.Bool("error") {
			return Fragment{Type: TypeHTML, Value: ""}
		}
	}

	return Fragment{
		Type: TypeHTML,
		Value: cell.Render(engine.RenderOptions{
			DisplayCode:   info.DisplayCode,
			DisplayOutput: opts.Bool("output"),
			Reactive:      info.Reactive,
		}),
		RenderInfo: info,
	}
}
