package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alnah/go-qmarimo/internal/yamlutil"
)

// ErrFrontMatter indicates the document's YAML front matter is invalid.
var ErrFrontMatter = errors.New("invalid front matter")

// SplitFrontMatter separates a leading YAML block delimited by "---" and a
// closing "---" or "..." line from the document body. Without a closing
// delimiter, or when the enclosed block is not a YAML mapping, the whole
// input is body and meta is nil: a leading "---" is then a thematic break.
func SplitFrontMatter(md string) (meta map[string]any, body string, err error) {
	md = normalizeLineEndings(md)
	lines := strings.Split(md, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != "---" {
		return nil, md, nil
	}

	for i := 1; i < len(lines); i++ {
		delim := strings.TrimRight(lines[i], " \t")
		if delim != "---" && delim != "..." {
			continue
		}
		meta, err := yamlutil.Mapping([]byte(strings.Join(lines[1:i], "\n")))
		if errors.Is(err, yamlutil.ErrInputTooLarge) {
			return nil, "", fmt.Errorf("%w: %v", ErrFrontMatter, err)
		}
		if err != nil {
			return nil, md, nil
		}
		return meta, strings.Join(lines[i+1:], "\n"), nil
	}
	return nil, md, nil
}
