// ABOUTME: Locates the default member table in a directory
// ABOUTME: Matches candidate file names case-insensitively in priority order
package table

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

const tablePattern = "*.{[cC][sS][vV],[xX][lL][sS][xX]}"

// Discover returns the first file in dir whose name matches one of
// candidates, ignoring case. Candidates are tried in order.
func Discover(dir string, candidates []string) (string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), tablePattern)
	if err != nil {
		return "", fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	for _, candidate := range candidates {
		for _, m := range matches {
			if strings.EqualFold(path.Base(m), candidate) {
				return filepath.Join(dir, filepath.FromSlash(m)), nil
			}
		}
	}

	return "", fmt.Errorf("%w in %s (looked for %s)", ErrNotFound, dir, strings.Join(candidates, ", "))
}
