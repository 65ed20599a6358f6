package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/JonMunkholm/emrexport/internal/core"
)

// FileInfo describes a workbook in the output directory.
type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// List returns the workbooks in the output directory, newest first.
// A missing directory yields an empty list.
func (w *Workbook) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, fmt.Errorf("%w: list %s: %w", core.ErrExport, w.dir, err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !FileNameRegex.MatchString(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	// The timestamp in the name sorts lexically.
	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })

	return files, nil
}

// Path resolves a workbook name to its path in the output directory.
// Names that do not look like a workbook are rejected, which keeps
// lookups inside the directory.
func (w *Workbook) Path(name string) (string, error) {
	if !FileNameRegex.MatchString(name) {
		return "", fmt.Errorf("%w: invalid workbook name %q", core.ErrExport, name)
	}
	path := filepath.Join(w.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s: %w", core.ErrExport, name, err)
	}
	return path, nil
}
