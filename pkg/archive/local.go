// Package archive locates daily stock exports in the archive directory tree:
// <root>/<yyyy-MM-dd>/<portal>/...
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DateLayout is the name format of daily directories.
const DateLayout = "2006-01-02"

var (
	ErrRootNotFound = errors.New("archive root not found")
	ErrNoDateDir    = errors.New("no yyyy-MM-dd directory in archive root")
	ErrNotDirectory = errors.New("not a directory")
)

// PortalDir is a portal sub-directory of a daily directory.
type PortalDir struct {
	// Name is the directory name as found on disk.
	Name string
	Path string
	// Portal is the matching key from the settings file.
	Portal string
}

// Local reads an archive on the local filesystem.
type Local struct {
	root string
}

// NewLocal creates an archive reader rooted at root.
func NewLocal(root string) *Local {
	return &Local{root: root}
}

// Root returns the archive root directory.
func (l *Local) Root() string {
	return l.root
}

// Latest returns the most recent daily directory under the root.
func (l *Local) Latest() (string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrRootNotFound, l.root)
		}
		return "", fmt.Errorf("failed to read archive root: %w", err)
	}

	var latest time.Time
	var name string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		day, err := time.Parse(DateLayout, entry.Name())
		if err != nil {
			continue
		}
		if name == "" || day.After(latest) {
			latest, name = day, entry.Name()
		}
	}

	if name == "" {
		return "", fmt.Errorf("%w: %s", ErrNoDateDir, l.root)
	}
	return filepath.Join(l.root, name), nil
}

// PortalDirs lists the sub-directories of base whose lower-cased name is a
// key of targets, ordered case-insensitively. targets maps lower-cased names
// to settings keys.
func PortalDirs(base string, targets map[string]string) ([]PortalDir, error) {
	info, err := os.Stat(base)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", base, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, base)
	}

	entries, err := os.ReadDir(base)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", base, err)
	}

	var dirs []PortalDir
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		key, ok := targets[strings.ToLower(entry.Name())]
		if !ok {
			continue
		}
		dirs = append(dirs, PortalDir{
			Name:   entry.Name(),
			Path:   filepath.Join(base, entry.Name()),
			Portal: key,
		})
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		return strings.ToLower(dirs[i].Name) < strings.ToLower(dirs[j].Name)
	})
	return dirs, nil
}
