package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	Format  Format
}

// Discovery finds tabular files below a base path
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindTabularFiles finds CSV and workbook files in dir, oldest first.
// Office lock files (~$name.xlsx) are skipped.
func (d *Discovery) FindTabularFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		format, err := DetectFormat(entry.Name())
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Format:  format,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})

	return files, nil
}

// FindFilesByPattern finds files matching a glob pattern
func (d *Discovery) FindFilesByPattern(dir string, pattern string) ([]FileInfo, error) {
	searchPattern := filepath.Join(d.resolve(dir), pattern)

	matches, err := filepath.Glob(searchPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
	}

	var files []FileInfo
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil || info.IsDir() {
			continue
		}
		format, _ := DetectFormat(match)
		files = append(files, FileInfo{
			Path:    match,
			Name:    filepath.Base(match),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Format:  format,
		})
	}

	return files, nil
}

// Expand returns path itself for a file, the tabular files inside it for a
// directory, or the tabular files matching it when its last element is a
// glob pattern such as data/*.xlsx
func (d *Discovery) Expand(path string) ([]FileInfo, error) {
	if base := filepath.Base(path); strings.ContainsAny(base, "*?[") {
		matches, err := d.FindFilesByPattern(filepath.Dir(path), base)
		if err != nil {
			return nil, err
		}
		var tabular []FileInfo
		for _, m := range matches {
			if m.Format != "" && !strings.HasPrefix(m.Name, "~$") {
				tabular = append(tabular, m)
			}
		}
		if len(tabular) == 0 {
			return nil, fmt.Errorf("no tabular files match %s", path)
		}
		return tabular, nil
	}

	full := d.resolve(path)
	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", full, err)
	}
	if info.IsDir() {
		return d.FindTabularFiles(full)
	}
	format, _ := DetectFormat(full)
	return []FileInfo{{
		Path:    full,
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Format:  format,
	}}, nil
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) || d.basePath == "" {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}
