package mkfs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/jsmfsb/distmk/mkore"
)

// DirList is the set of entries directly inside Dir that pass Filter. It does
// not descend into subdirectories, see [DirTree] for that.
type DirList struct {
	Dir    string
	Filter Filter
}

var _ Directory = DirList{}

func (d DirList) Path() string { return d.Dir }

func (d DirList) Name(in *mkore.Project) string {
	n, _ := in.RelPath(d.Dir)
	return n
}

func (d DirList) List(in *mkore.Project) (ls []string, err error) {
	prjDir, err := in.AbsPath(d.Path())
	if err != nil {
		return nil, err
	}
	err = d.ls(prjDir, func(_ string, e fs.DirEntry) error {
		ls = append(ls, filepath.Join(d.Dir, e.Name()))
		return nil
	})
	return
}

// Goals creates a goal in prj for each entry of d, [File] goals for files and
// [DirList] goals for directories.
func (d DirList) Goals(in *mkore.Project) (gs []*mkore.Goal, err error) {
	prjDir, err := in.AbsPath(d.Path())
	if err != nil {
		return nil, err
	}
	err = d.ls(prjDir, func(_ string, e fs.DirEntry) error {
		p := filepath.Join(d.Dir, e.Name())
		var g *mkore.Goal
		if e.IsDir() {
			g, err = in.Goal(DirList{Dir: p, Filter: d.Filter})
		} else {
			g, err = in.Goal(File(p))
		}
		if err != nil {
			return err
		}
		gs = append(gs, g)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return gs, nil
}

func (d DirList) StateAt(in *mkore.Project) (t time.Time) {
	prjDir, err := in.AbsPath(d.Path())
	if err != nil {
		return time.Time{}
	}
	err = d.ls(prjDir, func(_ string, e fs.DirEntry) error {
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

func (d DirList) Exists(in *mkore.Project) (bool, error) {
	ap, err := in.AbsPath(d.Path())
	if err != nil {
		return false, err
	}
	st, err := os.Stat(ap)
	switch {
	case err == nil:
		if !st.IsDir() {
			return true, fmt.Errorf("%s is no directory", d.Path())
		}
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	}
	return false, err
}

// Remove removes all entries of d and, if that leaves Dir empty, Dir itself.
func (d DirList) Remove(in *mkore.Project) error {
	prjDir, err := in.AbsPath(d.Path())
	if err != nil {
		return err
	}
	err = d.ls(prjDir, func(_ string, e fs.DirEntry) error {
		p := filepath.Join(prjDir, e.Name())
		if e.IsDir() {
			return os.RemoveAll(p)
		}
		return os.Remove(p)
	})
	if err != nil {
		return err
	}
	return rmDirIfEmpty(prjDir)
}

func (d DirList) ls(prjDir string, do func(p string, e fs.DirEntry) error) error {
	rdir, err := os.ReadDir(prjDir)
	if err != nil {
		return err
	}
	for _, entry := range rdir {
		if d.Filter != nil {
			if ok, err := d.Filter.Ok(entry.Name(), entry); err != nil {
				return err
			} else if !ok {
				continue
			}
		}
		if err := do(entry.Name(), entry); err != nil {
			return err
		}
	}
	return nil
}
