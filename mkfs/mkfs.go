// Package mkfs provides filesystem artefacts for build projects. All paths
// are interpreted relative to the project directory.
package mkfs

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/jsmfsb/distmk/mkore"
)

// Artefact is a filesystem artefact addressed by a path within its project.
type Artefact interface {
	mkore.RemovableArtefact
	Path() string
}

func Stat(a Artefact, in *mkore.Project) (fs.FileInfo, error) {
	p, err := in.AbsPath(a.Path())
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

func Exists(a Artefact, in *mkore.Project) (bool, error) {
	_, err := Stat(a, in)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Directory is an artefact that represents a set of filesystem entries.
type Directory interface {
	Artefact
	List(in *mkore.Project) ([]string, error)

	ls(string, func(string, fs.DirEntry) error) error
}

func rmDirIfEmpty(path string) error {
	if ok, err := isDirEmpty(path); err != nil {
		return err
	} else if !ok {
		return nil
	}
	return os.Remove(path)
}

func isDirEmpty(path string) (bool, error) {
	dir, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer dir.Close()
	if _, err = dir.ReadDir(1); errors.Is(err, io.EOF) {
		return true, nil
	}
	return false, err
}
