package mkfs

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/jsmfsb/distmk/mkore"
)

// DirTree is the set of entries in the hierarchy below Dir that pass Filter.
type DirTree struct {
	Dir    string
	Filter Filter
}

var _ Directory = DirTree{}

// DirFiles lists the files below dir with base names matching match. pathMax,
// when positive, limits the depth of the listed paths.
func DirFiles(dir, match string, pathMax int) DirTree {
	res := DirTree{Dir: dir}
	if match == "" {
		res.Filter = IsDir(false)
	} else {
		res.Filter = All{IsDir(false), NameMatch(match)}
	}
	if pathMax > 0 {
		switch es := res.Filter.(type) {
		case All:
			res.Filter = append(es, MaxPathLen(pathMax))
		default:
			res.Filter = All{es, MaxPathLen(pathMax)}
		}
	}
	return res
}

func (d DirTree) Path() string { return d.Dir }

func (d DirTree) Name(in *mkore.Project) string {
	n, _ := in.RelPath(d.Dir)
	return n
}

func (d DirTree) List(in *mkore.Project) (ls []string, err error) {
	root, err := in.AbsPath(d.Path())
	if err != nil {
		return nil, err
	}
	err = d.ls(root, func(p string, _ fs.DirEntry) error {
		ls = append(ls, filepath.Join(d.Dir, p))
		return nil
	})
	return
}

func (d DirTree) StateAt(in *mkore.Project) (t time.Time) {
	root, err := in.AbsPath(d.Dir)
	if err != nil {
		return time.Time{}
	}
	err = d.ls(root, func(_ string, e fs.DirEntry) error {
		if info, err := e.Info(); err != nil {
			return err
		} else if mt := info.ModTime(); mt.After(t) {
			t = mt
		}
		return nil
	})
	if err != nil {
		return time.Time{}
	}
	return t
}

func (d DirTree) Exists(in *mkore.Project) (bool, error) {
	return DirList{Dir: d.Dir}.Exists(in)
}

// Remove removes all matching entries below Dir and then all directories the
// removals left empty, deepest first.
func (d DirTree) Remove(in *mkore.Project) error {
	root, err := in.AbsPath(d.Path())
	if err != nil {
		return err
	}
	var dirs []string
	err = d.ls(root, func(p string, e fs.DirEntry) error {
		ap := filepath.Join(root, p)
		if e.IsDir() {
			dirs = append(dirs, ap)
			return nil
		}
		return os.Remove(ap)
	})
	if err != nil {
		return err
	}
	slices.SortFunc(dirs, func(a, b string) int { return len(b) - len(a) })
	for _, dir := range dirs {
		if err := rmDirIfEmpty(dir); err != nil {
			return err
		}
	}
	return rmDirIfEmpty(root)
}

func (d DirTree) ls(root string, do func(string, fs.DirEntry) error) error {
	return filepath.WalkDir(root, func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		path, err = filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		if ok, err := d.ok(path, e); err != nil {
			return err
		} else if ok {
			if err := do(path, e); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d DirTree) ok(p string, e fs.DirEntry) (bool, error) {
	if d.Filter != nil {
		return d.Filter.Ok(p, e)
	}
	return true, nil
}
