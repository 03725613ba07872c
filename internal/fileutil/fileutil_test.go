package fileutil_test

// Notes:
// - The WriteString and Close error branches in WriteTempFile are not tested:
//   triggering disk write failures is platform-specific.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alnah/go-qmarimo/internal/fileutil"
)

// ---------------------------------------------------------------------------
// TestValidateExtension - Extension validation
// ---------------------------------------------------------------------------

func TestValidateExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extension string
		wantErr   error
	}{
		{name: "python", extension: "py"},
		{name: "markdown", extension: "md"},
		{name: "empty", extension: "", wantErr: fileutil.ErrExtensionEmpty},
		{name: "forward slash", extension: "../etc/passwd", wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "backslash", extension: "..\\x", wantErr: fileutil.ErrExtensionPathTraversal},
		{name: "null byte", extension: "py\x00exe", wantErr: fileutil.ErrExtensionPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := fileutil.ValidateExtension(tt.extension)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateExtension(%q) = %v, want %v", tt.extension, err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestWriteTempFile - Temp file lifecycle
// ---------------------------------------------------------------------------

func TestWriteTempFile(t *testing.T) {
	t.Parallel()

	path, cleanup, err := fileutil.WriteTempFile("print('hi')\n", "py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(path, ".py") {
		t.Errorf("path %q should end with .py", path)
	}
	if !strings.HasPrefix(filepath.Base(path), "qmarimo-") {
		t.Errorf("path %q should start with qmarimo-", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading temp file: %v", err)
	}
	if string(data) != "print('hi')\n" {
		t.Errorf("content = %q", data)
	}

	cleanup()
	if fileutil.FileExists(path) {
		t.Error("file should be removed after cleanup")
	}
}

func TestWriteTempFile_InvalidExtension(t *testing.T) {
	t.Parallel()

	_, _, err := fileutil.WriteTempFile("x", "a/b")
	if !errors.Is(err, fileutil.ErrExtensionPathTraversal) {
		t.Errorf("err = %v, want ErrExtensionPathTraversal", err)
	}
}

// ---------------------------------------------------------------------------
// TestReadSource - Existence and extension checks
// ---------------------------------------------------------------------------

func TestReadSource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	nb := filepath.Join(dir, "notebook.py")
	if err := os.WriteFile(nb, []byte("import marimo\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Run("reads matching extension", func(t *testing.T) {
		t.Parallel()

		data, err := fileutil.ReadSource(nb, ".py")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != "import marimo\n" {
			t.Errorf("data = %q", data)
		}
	})

	t.Run("no extension filter", func(t *testing.T) {
		t.Parallel()

		if _, err := fileutil.ReadSource(nb); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := fileutil.ReadSource(filepath.Join(dir, "missing.py"), ".py")
		if !errors.Is(err, fileutil.ErrFileNotFound) {
			t.Errorf("err = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("directory is not a file", func(t *testing.T) {
		t.Parallel()

		_, err := fileutil.ReadSource(dir)
		if !errors.Is(err, fileutil.ErrFileNotFound) {
			t.Errorf("err = %v, want ErrFileNotFound", err)
		}
	})

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()

		_, err := fileutil.ReadSource(nb, ".md", ".qmd")
		if !errors.Is(err, fileutil.ErrUnsupportedExtension) {
			t.Errorf("err = %v, want ErrUnsupportedExtension", err)
		}
	})
}

// ---------------------------------------------------------------------------
// TestIsFilePath - Name vs path detection
// ---------------------------------------------------------------------------

func TestIsFilePath(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"render":               false,
		"./qmarimo.yaml":       true,
		"/etc/qmarimo/x.yaml":  true,
		"C:\\configs\\x.yaml":  true,
		"my-config":            false,
	}
	for in, want := range tests {
		if got := fileutil.IsFilePath(in); got != want {
			t.Errorf("IsFilePath(%q) = %v, want %v", in, got, want)
		}
	}
}
