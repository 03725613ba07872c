package quarto_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/alnah/go-qmarimo/internal/engine"
	"github.com/alnah/go-qmarimo/internal/quarto"
)

// fakeIsland records the options it was rendered with.
type fakeIsland struct {
	code   string
	output engine.Output
	last   *engine.RenderOptions
}

func (f *fakeIsland) Code() string          { return f.code }
func (f *fakeIsland) Output() engine.Output { return f.output }
func (f *fakeIsland) Render(opts engine.RenderOptions) string {
	f.last = &opts
	return "<island>"
}

// ---------------------------------------------------------------------------
// TestRender - Fragment selection
// ---------------------------------------------------------------------------

func TestRender(t *testing.T) {
	t.Parallel()

	png := engine.Output{Mimetype: engine.MimePNG, Data: "data:image/png;base64,AA"}
	plain := engine.Output{Mimetype: engine.MimePlain, Data: "42"}
	html := engine.Output{Mimetype: engine.MimeHTML, Data: "<b>x</b>"}
	fail := engine.Output{Mimetype: engine.MimeError, Data: "NameError: y"}

	tests := []struct {
		name      string
		output    engine.Output
		cellOpts  quarto.Options
		mime      bool
		wantType  string
		wantValue string
		wantInfo  bool
		wantWarn  string
	}{
		{name: "excluded", output: plain, cellOpts: quarto.Options{"include": false}, wantType: "html", wantValue: ""},
		{name: "island by default", output: html, wantType: "html", wantValue: "<island>", wantInfo: true},
		{name: "mime image", output: png, mime: true, wantType: "figure", wantValue: png.Data, wantInfo: true},
		{name: "mime plain", output: plain, mime: true, wantType: "para", wantValue: "42", wantInfo: true},
		{name: "mime html falls back to island", output: html, mime: true, wantType: "html", wantValue: "<island>", wantInfo: true},
		{name: "mime error", output: fail, mime: true, wantType: "blockquote", wantValue: fail.Data, wantInfo: true},
		{name: "mime error suppressed", output: fail, mime: true, cellOpts: quarto.Options{"error": false}, wantType: "para", wantValue: "", wantInfo: true},
		{name: "mime without output renders island", output: png, mime: true, cellOpts: quarto.Options{"output": false}, wantType: "html", wantValue: "<island>", wantInfo: true},
		{name: "error warned", output: fail, wantType: "html", wantValue: "<island>", wantInfo: true, wantWarn: "Error NameError: y\n"},
		{name: "error hidden", output: fail, cellOpts: quarto.Options{"error": false, "warning": false}, wantType: "html", wantValue: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			island := &fakeIsland{code: "x", output: tt.output}
			var warn bytes.Buffer
			got := quarto.Render(quarto.DefaultOptions(), island, tt.cellOpts, tt.mime, &warn)

			if got.Type != tt.wantType || got.Value != tt.wantValue {
				t.Errorf("got {%s %q}, want {%s %q}", got.Type, got.Value, tt.wantType, tt.wantValue)
			}
			if (got.RenderInfo != nil) != tt.wantInfo {
				t.Errorf("RenderInfo = %+v, want present=%v", got.RenderInfo, tt.wantInfo)
			}
			if warn.String() != tt.wantWarn {
				t.Errorf("warn = %q, want %q", warn.String(), tt.wantWarn)
			}
		})
	}
}

func TestRender_IslandOptions(t *testing.T) {
	t.Parallel()

	island := &fakeIsland{code: "x", output: engine.Output{Mimetype: engine.MimeHTML, Data: "<i>"}}
	global := quarto.Merge(quarto.DefaultOptions(), quarto.Options{"echo": true})
	got := quarto.Render(global, island, quarto.Options{"eval": false}, false, nil)

	want := engine.RenderOptions{DisplayCode: true, DisplayOutput: true, Reactive: false}
	if island.last == nil || *island.last != want {
		t.Errorf("render options = %+v, want %+v", island.last, want)
	}
	if !got.DisplayCode || got.Reactive || got.Code != "x" {
		t.Errorf("RenderInfo = %+v", got.RenderInfo)
	}
}

func TestRender_MimeSensitiveIsNotReactive(t *testing.T) {
	t.Parallel()

	island := &fakeIsland{code: "x", output: engine.Output{Mimetype: engine.MimeHTML, Data: "<i>"}}
	got := quarto.Render(quarto.DefaultOptions(), island, nil, true, nil)
	if got.Reactive {
		t.Error("mime-sensitive render must not be reactive")
	}
}

// ---------------------------------------------------------------------------
// TestFragment_JSON - Wire format
// ---------------------------------------------------------------------------

func TestFragment_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		frag quarto.Fragment
		want string
	}{
		{
			name: "bare",
			frag: quarto.Fragment{Type: "html", Value: ""},
			want: `{"type":"html","value":""}`,
		},
		{
			name: "with render info",
			frag: quarto.Fragment{Type: "para", Value: "1", RenderInfo: &quarto.RenderInfo{DisplayCode: true, Reactive: false, Code: "1"}},
			want: `{"type":"para","value":"1","display_code":true,"reactive":false,"code":"1"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := json.Marshal(tt.frag)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if strings.TrimSpace(string(got)) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}
