// Package paths locates client and server datafiles (items.otb, items.xml,
// the dat and spr archives) in the conventional places and opens them.
package paths

import (
	"io"
	"os"
	"path/filepath"

	"github.com/golang/glog"
)

// getPossiblePathDirs returns the directories Find searches, in order.
func getPossiblePathDirs() []string {
	dirs := []string{".", "datafiles"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".itemedit"))
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe), filepath.Join(filepath.Dir(exe), "datafiles"))
	}
	return dirs
}

func getPossiblePaths(fileName string) []string {
	dirs := getPossiblePathDirs()
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		out = append(out, filepath.Join(d, fileName))
	}
	return out
}

// Find locates the passed datafile shortname and returns an absolute or
// relative path to find the datafile at. It returns an empty string when no
// candidate exists.
//
// For example, for "items.otb" it may return "datafiles/items.otb".
func Find(fileName string) string {
	for _, path := range getPossiblePaths(fileName) {
		if f, err := os.Open(path); err == nil {
			f.Close()
			glog.V(1).Infof("paths.Find(%q)=%s", fileName, path)
			return path
		}
	}
	return ""
}

// Open locates the passed file in the same locations that Find would look,
// and opens it. If Find returns an empty string, an error is returned.
func Open(fileName string) (interface {
	io.ReadCloser
	io.Seeker
}, error) {
	path := Find(fileName)
	if path == "" {
		return nil, &os.PathError{Op: "open", Path: fileName, Err: os.ErrNotExist}
	}
	return os.Open(path)
}

// NoFindOpen opens the passed path as given, without searching.
func NoFindOpen(fileName string) (interface {
	io.ReadCloser
	io.Seeker
}, error) {
	return os.Open(fileName)
}
