package pipeline

// Notes:
// - Fence discovery relies on goldmark's block parser; the nested-fence
//   cases below pin the behavior that only top-level fences become cells.

import (
	"reflect"
	"testing"
)

// ---------------------------------------------------------------------------
// TestClassify - Markdown runs and marimo code cells
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		md   string
		want []Block
	}{
		{
			name: "markdown and code",
			md:   "# Intro\n\nText\n\n```{marimo}\nx = 1\n```\n\nMore\n",
			want: []Block{
				{Kind: BlockMarkdown, Text: "# Intro\n\nText"},
				{Kind: BlockCode, Text: "x = 1"},
				{Kind: BlockMarkdown, Text: "More"},
			},
		},
		{
			name: "other languages stay markdown",
			md:   "Intro\n\n```python\nprint(1)\n```\n\nAfter",
			want: []Block{
				{Kind: BlockMarkdown, Text: "Intro\n\n```python\nprint(1)\n```\n\nAfter"},
			},
		},
		{
			name: "marimo fence inside another fence",
			md:   "````markdown\n```{marimo}\nx\n```\n````",
			want: []Block{
				{Kind: BlockMarkdown, Text: "````markdown\n```{marimo}\nx\n```\n````"},
			},
		},
		{
			name: "marimo fence inside list item",
			md:   "- item\n\n  ```{marimo}\n  x\n  ```",
			want: []Block{
				{Kind: BlockMarkdown, Text: "- item\n\n  ```{marimo}\n  x\n  ```"},
			},
		},
		{
			name: "fence attributes",
			md:   "```{marimo disabled=\"true\"}\nx\n```",
			want: []Block{
				{Kind: BlockCode, Text: "x", Attrs: map[string]string{"disabled": "true"}},
			},
		},
		{
			name: "class syntax",
			md:   "```{.marimo}\nimport marimo as mo\n```",
			want: []Block{
				{Kind: BlockCode, Text: "import marimo as mo"},
			},
		},
		{
			name: "hyphenated class is not marimo",
			md:   "```{marimo-foo}\nx = 1\n```",
			want: []Block{
				{Kind: BlockMarkdown, Text: "```{marimo-foo}\nx = 1\n```"},
			},
		},
		{
			name: "longer class name is not marimo",
			md:   "```{.marimoish}\nx = 1\n```",
			want: []Block{
				{Kind: BlockMarkdown, Text: "```{.marimoish}\nx = 1\n```"},
			},
		},
		{
			name: "blank runs between cells dropped",
			md:   "```{marimo}\na\n```\n\n\n```{marimo}\nb\n```\n",
			want: []Block{
				{Kind: BlockCode, Text: "a"},
				{Kind: BlockCode, Text: "b"},
			},
		},
		{
			name: "empty cell",
			md:   "```{marimo}\n```",
			want: []Block{
				{Kind: BlockCode, Text: ""},
			},
		},
		{
			name: "blank lines inside code preserved",
			md:   "```{marimo}\na = 1\n\n\nb = 2\n```",
			want: []Block{
				{Kind: BlockCode, Text: "a = 1\n\n\nb = 2"},
			},
		},
		{
			name: "fence interrupts paragraph",
			md:   "Intro\n```{marimo}\nx\n```",
			want: []Block{
				{Kind: BlockMarkdown, Text: "Intro"},
				{Kind: BlockCode, Text: "x"},
			},
		},
		{
			name: "unterminated fence runs to end",
			md:   "```{marimo}\nx = 1\ny = 2",
			want: []Block{
				{Kind: BlockCode, Text: "x = 1\ny = 2"},
			},
		},
		{
			name: "lone front matter remnant dropped",
			md:   "---\n\n```{marimo}\nx\n```",
			want: []Block{
				{Kind: BlockCode, Text: "x"},
			},
		},
		{
			name: "thematic breaks around prose are not front matter",
			md:   "---\n\nAn intro paragraph.\n\n---\n\nBody text.\n",
			want: []Block{
				{Kind: BlockMarkdown, Text: "---\n\nAn intro paragraph.\n\n---\n\nBody text."},
			},
		},
		{
			name: "CRLF line endings",
			md:   "A\r\n\r\n```{marimo}\r\nx\r\n```\r\n",
			want: []Block{
				{Kind: BlockMarkdown, Text: "A"},
				{Kind: BlockCode, Text: "x"},
			},
		},
		{
			name: "empty document",
			md:   "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doc, err := Classify(tt.md)
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if !reflect.DeepEqual(doc.Blocks, tt.want) {
				t.Errorf("Blocks mismatch\ngot:  %#v\nwant: %#v", doc.Blocks, tt.want)
			}
		})
	}
}

func TestClassify_FrontMatter(t *testing.T) {
	t.Parallel()

	doc, err := Classify("---\ntitle: Report\nmarimo-version: 0.9.14\n---\n\n# Body\n")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if doc.Meta["title"] != "Report" {
		t.Errorf("Meta[title] = %v, want Report", doc.Meta["title"])
	}
	if len(doc.Blocks) != 1 || doc.Blocks[0].Text != "# Body" {
		t.Errorf("Blocks = %#v", doc.Blocks)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	t.Parallel()

	md := "# A\n\n```{marimo}\nx\n```\n\n```js\ny\n```\n"
	first, err := Classify(md)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := Classify(md)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %#v vs %#v", i, first, again)
		}
	}
}

// ---------------------------------------------------------------------------
// TestBlockKindString - Kind names
// ---------------------------------------------------------------------------

func TestBlockKindString(t *testing.T) {
	t.Parallel()

	if BlockMarkdown.String() != "markdown" || BlockCode.String() != "code" {
		t.Errorf("unexpected names %q %q", BlockMarkdown, BlockCode)
	}
}

// ---------------------------------------------------------------------------
// TestParseAttrs - Fence head attributes
// ---------------------------------------------------------------------------

func TestParseAttrs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want map[string]string
	}{
		{in: "", want: nil},
		{in: ` disabled="true"`, want: map[string]string{"disabled": "true"}},
		{in: ` a="1" b='2'`, want: map[string]string{"a": "1", "b": "2"}},
		{in: ` echo=""`, want: map[string]string{"echo": ""}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := parseAttrs(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseAttrs(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
