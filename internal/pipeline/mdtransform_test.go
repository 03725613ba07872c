package pipeline

import (
	"context"
	"testing"
)

// ---------------------------------------------------------------------------
// TestCellPreprocessor - Line endings and highlight markers
// ---------------------------------------------------------------------------

func TestCellPreprocessor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "crlf", in: "a\r\nb\rc", want: "a\nb\nc"},
		{name: "highlight", in: "==x== and ==y==", want: MarkStartPlaceholder + "x" + MarkEndPlaceholder + " and " + MarkStartPlaceholder + "y" + MarkEndPlaceholder},
		{name: "untouched", in: "plain", want: "plain"},
	}

	p := &CellPreprocessor{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := p.PreprocessMarkdown(context.Background(), tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCellPreprocessor_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := &CellPreprocessor{}
	if got := p.PreprocessMarkdown(ctx, "a\r\n"); got != "a\r\n" {
		t.Errorf("canceled preprocess modified content: %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestFenceLine - Placeholder encoding
// ---------------------------------------------------------------------------

func TestFenceLine(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 7, 123} {
		got, ok := parseFenceLine(fenceLine(n))
		if !ok || got != n {
			t.Errorf("parseFenceLine(fenceLine(%d)) = %d, %v", n, got, ok)
		}
	}
	if _, ok := parseFenceLine("plain text"); ok {
		t.Error("plain text parsed as placeholder")
	}
}
