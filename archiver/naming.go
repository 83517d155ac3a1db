package archiver

import (
	"errors"
	"fmt"
	"path/filepath"
	"unicode/utf8"

	"github.com/pevans/newsdocs/fsutil"
	"github.com/pevans/newsdocs/paper"
)

const (
	collisionSuffix = "-new"
	maxNameTries    = 1000

	// maxNameBytes is the usual NAME_MAX of Linux and macOS file systems.
	maxNameBytes = 255
	// suffixRoom is how many collision suffixes a trimmed base still fits.
	suffixRoom = 10
)

var ErrNoFreeName = errors.New("no free file name")

// UniqueName returns a .docx file name derived from base that does not
// exist in dir yet: base, base-new, base-new-new and so on. Long bases are
// trimmed on a rune boundary so that a few suffixes still fit in a file
// name; it gives up once the next candidate would be too long.
func UniqueName(dir, base string) (string, error) {
	name := trimBytes(base, maxNameBytes-len(paper.DocExt)-suffixRoom*len(collisionSuffix))
	for range maxNameTries {
		if len(name)+len(paper.DocExt) > maxNameBytes {
			break
		}

		exists, err := fsutil.Exists(filepath.Join(dir, name+paper.DocExt))
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", name+paper.DocExt, err)
		}
		if !exists {
			return name + paper.DocExt, nil
		}
		name += collisionSuffix
	}
	return "", fmt.Errorf("%w for %s", ErrNoFreeName, base)
}

func trimBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
