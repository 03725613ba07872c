package yamlutil_test

// Notes:
// - MarshalDocument error branch is not tested: yaml.Marshal only fails on
//   unmarshalable types (channels, funcs) that never reach this package.
// - TestInputSizeLimit mutates MaxInputSize and therefore does not run in
//   parallel.

import (
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-qmarimo/internal/yamlutil"
)

type serverSection struct {
	Addr  string `yaml:"addr"`
	Debug bool   `yaml:"debug"`
}

// ---------------------------------------------------------------------------
// TestUnmarshal - Lenient decoding into structs
// ---------------------------------------------------------------------------

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		dest    any
		wantErr error
		want    serverSection
	}{
		{
			name: "known fields",
			data: []byte("addr: localhost:6000\ndebug: true"),
			dest: &serverSection{},
			want: serverSection{Addr: "localhost:6000", Debug: true},
		},
		{
			name: "unknown fields ignored",
			data: []byte("addr: :7000\nextra: 1"),
			dest: &serverSection{},
			want: serverSection{Addr: ":7000"},
		},
		{name: "nil data", data: nil, dest: &serverSection{}, wantErr: yamlutil.ErrNilData},
		{name: "nil destination", data: []byte("addr: x"), dest: nil, wantErr: yamlutil.ErrNilDestination},
		{name: "syntax error", data: []byte("addr: [unclosed"), dest: &serverSection{}, wantErr: errors.New("yamlutil:")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := yamlutil.Unmarshal(tt.data, tt.dest)
			if tt.wantErr != nil {
				assertErr(t, err, tt.wantErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := *tt.dest.(*serverSection)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestUnmarshalStrict - Unknown fields are rejected
// ---------------------------------------------------------------------------

func TestUnmarshalStrict(t *testing.T) {
	t.Parallel()

	var s serverSection
	if err := yamlutil.UnmarshalStrict([]byte("addr: x\nport: 1"), &s); err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
	if err := yamlutil.UnmarshalStrict([]byte("addr: x"), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Addr != "x" {
		t.Errorf("Addr = %q, want %q", s.Addr, "x")
	}
}

// ---------------------------------------------------------------------------
// TestMapping - Front matter style documents
// ---------------------------------------------------------------------------

func TestMapping(t *testing.T) {
	t.Parallel()

	t.Run("mapping", func(t *testing.T) {
		t.Parallel()

		m, err := yamlutil.Mapping([]byte("title: Report\nformat: html\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m["title"] != "Report" {
			t.Errorf("title = %v, want Report", m["title"])
		}
		if m["format"] != "html" {
			t.Errorf("format = %v, want html", m["format"])
		}
	})

	t.Run("blank input is empty map", func(t *testing.T) {
		t.Parallel()

		m, err := yamlutil.Mapping([]byte("  \n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m == nil || len(m) != 0 {
			t.Errorf("got %v, want empty map", m)
		}
	})

	t.Run("sequence is rejected", func(t *testing.T) {
		t.Parallel()

		_, err := yamlutil.Mapping([]byte("- a\n- b\n"))
		if !errors.Is(err, yamlutil.ErrNotMapping) {
			t.Errorf("err = %v, want ErrNotMapping", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestScalar - Inline option values
// ---------------------------------------------------------------------------

func TestScalar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want any
	}{
		{in: "false", want: false},
		{in: "true", want: true},
		{in: `"quoted text"`, want: "quoted text"},
		{in: "fig-plot", want: "fig-plot"},
		{in: "", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := yamlutil.Scalar(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Scalar(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestMarshalDocument - Indented sequences for front matter
// ---------------------------------------------------------------------------

func TestMarshalDocument(t *testing.T) {
	t.Parallel()

	doc := struct {
		Format  string   `yaml:"format"`
		Filters []string `yaml:"filters"`
	}{Format: "html", Filters: []string{"marimo/quarto"}}

	got, err := yamlutil.MarshalDocument(doc)
	if err != nil {
		t.Fatalf("MarshalDocument() error = %v", err)
	}
	if !strings.Contains(string(got), "filters:\n  - marimo/quarto") {
		t.Errorf("sequence not indented:\n%s", got)
	}

	back, err := yamlutil.Mapping(got)
	if err != nil {
		t.Fatalf("Mapping() error = %v", err)
	}
	if back["format"] != "html" {
		t.Errorf("format = %v, want html", back["format"])
	}
}

// ---------------------------------------------------------------------------
// TestInputSizeLimit - MaxInputSize enforcement
// ---------------------------------------------------------------------------

func TestInputSizeLimit(t *testing.T) {
	originalMax := yamlutil.MaxInputSize
	t.Cleanup(func() { yamlutil.MaxInputSize = originalMax })

	yamlutil.MaxInputSize = 50
	data := make([]byte, 100)
	copy(data, "addr: x")

	err := yamlutil.UnmarshalStrict(data, &serverSection{})
	if !errors.Is(err, yamlutil.ErrInputTooLarge) {
		t.Fatalf("err = %v, want ErrInputTooLarge", err)
	}
	if !strings.Contains(err.Error(), "100 bytes") || !strings.Contains(err.Error(), "max 50") {
		t.Errorf("error should mention sizes, got: %v", err)
	}
}

func assertErr(t *testing.T, err, want error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", want)
	}
	if errors.Is(err, want) {
		return
	}
	if !strings.Contains(err.Error(), want.Error()) {
		t.Fatalf("error = %q, want containing %q", err, want)
	}
}
