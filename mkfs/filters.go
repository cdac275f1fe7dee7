package mkfs

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Filter selects directory entries, e.g. when listing a [Directory].
type Filter interface {
	Ok(path string, entry fs.DirEntry) (bool, error)
}

type IsDir bool

func (d IsDir) Ok(_ string, e fs.DirEntry) (bool, error) {
	return e.IsDir() == bool(d), nil
}

// NameMatch filters entries by [filepath.Match]ing their base name.
type NameMatch string

func (p NameMatch) Ok(_ string, e fs.DirEntry) (bool, error) {
	return filepath.Match(string(p), e.Name())
}

type MaxPathLen int

func (fp MaxPathLen) Ok(p string, _ fs.DirEntry) (bool, error) {
	parts := strings.Split(p, string(filepath.Separator))
	return len(parts) <= int(fp), nil
}

// All passes entries that pass every element filter.
type All []Filter

func (fs All) Ok(p string, e fs.DirEntry) (bool, error) {
	for _, f := range fs {
		if ok, err := f.Ok(p, e); err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}
