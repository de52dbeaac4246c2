package preprocessor

import (
	"os"
	"path/filepath"
)

// FSResolver resolves `#include` directives against the local filesystem:
// a quoted include (`"foo.h"`) is first tried relative to the including
// file's directory, then against SearchPaths in order; an angled include
// (`<foo.h>`) skips the including-file-relative lookup (spec.md §4.3's
// "search path supplied by the driver" applies to both forms the same
// way once the quoted-relative attempt fails).
type FSResolver struct {
	SearchPaths []string
}

func (r FSResolver) Resolve(path string, angled bool, fromFile string) (resolvedPath, contents string, err error) {
	if !angled && fromFile != "" {
		candidate := filepath.Join(filepath.Dir(fromFile), path)
		if data, err := os.ReadFile(candidate); err == nil {
			return candidate, string(data), nil
		}
	}
	for _, dir := range r.SearchPaths {
		candidate := filepath.Join(dir, path)
		data, err := os.ReadFile(candidate)
		if err == nil {
			return candidate, string(data), nil
		}
	}
	return "", "", &os.PathError{Op: "include", Path: path, Err: os.ErrNotExist}
}
