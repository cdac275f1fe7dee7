package mkfs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/jsmfsb/distmk/mkore"
)

type File string

var _ Artefact = File("")

func (f File) Path() string { return string(f) }

func (f File) Name(in *mkore.Project) string {
	n, _ := in.RelPath(f.Path())
	return n
}

func (f File) StateAt(in *mkore.Project) time.Time {
	ap, err := in.AbsPath(f.Path())
	if err != nil {
		return time.Time{}
	}
	st, err := os.Stat(ap)
	if err != nil || st.IsDir() {
		return time.Time{}
	}
	return st.ModTime()
}

func (f File) Exists(in *mkore.Project) (bool, error) { return Exists(f, in) }

func (f File) Remove(in *mkore.Project) error {
	ap, err := in.AbsPath(f.Path())
	if err != nil {
		return err
	}
	return os.Remove(ap)
}

func (f File) Ext() string { return filepath.Ext(f.Path()) }

// WithExt replaces f's filename extension with ext. An empty ext strips the
// extension.
func (f File) WithExt(ext string) File {
	path := f.Path()
	if ext == "" {
		ext = filepath.Ext(path)
		if ext == "" {
			return f
		}
		return File(path[:len(path)-len(ext)])
	}
	if ext[0] != '.' {
		ext = "." + ext
	}
	fExt := filepath.Ext(path)
	if fExt == "" {
		return File(path + ext)
	}
	return File(path[:len(path)-len(fExt)] + ext)
}
