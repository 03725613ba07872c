package quarto

import (
	"errors"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/alnah/go-qmarimo/internal/yamlutil"
)

// ErrInvalidOption indicates a "#|" option value that is not valid YAML.
var ErrInvalidOption = errors.New("invalid cell option")

// Options holds Quarto execution options keyed by name.
type Options map[string]any

// optionLine matches a "#| key: value" cell option.
var optionLine = regexp.MustCompile(`^\s*#\|\s*(.*?)\s*:\s*(.*?)\s*$`)

// DefaultOptions returns the Quarto execution defaults, plus marimo's
// editor option.
// See https://quarto.org/docs/computations/execution-options.html
func DefaultOptions() Options {
	return Options{
		"eval":    true,
		"echo":    false,
		"output":  true,
		"warning": true,
		"error":   true,
		"include": true,
		"editor":  false,
	}
}

// Merge returns a new Options with later layers overriding earlier ones.
func Merge(layers ...Options) Options {
	out := Options{}
	for _, l := range layers {
		maps.Copy(out, l)
	}
	return out
}

// Bool reports the truthiness of an option. Missing keys are false.
func (o Options) Bool(key string) bool {
	switch v := o[key].(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case uint64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// ExtractOptions reads the leading "#| key: value" lines of a cell. Blank
// lines among them are skipped. It returns the options and the code after
// the last option line.
func ExtractOptions(code string) (Options, string, error) {
	opts := Options{}
	lines := strings.Split(code, "\n")

	rest := len(lines)
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		m := optionLine.FindStringSubmatch(line)
		if m == nil {
			rest = i
			break
		}
		v, err := yamlutil.Scalar(m[2])
		if err != nil {
			return nil, "", fmt.Errorf("%w: %s: %v", ErrInvalidOption, m[1], err)
		}
		opts[m[1]] = v
	}
	return opts, strings.Join(lines[rest:], "\n"), nil
}

// appKeys renames front matter keys to marimo.App arguments.
var appKeys = map[string]string{
	"title":         "app_title",
	"marimo-layout": "layout_file",
}

// AppOptions converts document front matter into document-level options.
// Known keys are renamed for marimo.App, marimo-version is dropped, and
// everything else passes through. Entries of an execute: map are lifted to
// the top level.
func AppOptions(meta map[string]any) Options {
	out := Options{}
	for k, v := range meta {
		if renamed, ok := appKeys[k]; ok {
			out[renamed] = v
			continue
		}
		out[k] = v
	}
	delete(out, "marimo-version")

	if exec, ok := meta["execute"].(map[string]any); ok {
		maps.Copy(out, exec)
	}
	return out
}
