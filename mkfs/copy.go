package mkfs

import (
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jsmfsb/distmk/mkore"
)

// Copy [mkore.Operation] copies its [Artefact] premises within the OS's
// filesystem to each of its results. Multiple file premises copied to a file
// result are concatenated.
type Copy struct {
	// MkDirMode, when not 0, makes Copy create missing target directories.
	MkDirMode fs.FileMode
}

var _ mkore.Operation = Copy{}

func (Copy) Describe(*mkore.Action, *mkore.Env) string { return "FS copy" }

func (cp Copy) Do(tr *mkore.Trace, a *mkore.Action, _ *mkore.Env) error {
	var prems []Artefact
	for _, pre := range a.Premises() {
		switch fsa := pre.Artefact.(type) {
		case mkore.Abstract:
			// do nothing
		case Artefact:
			prems = append(prems, fsa)
		default:
			return fmt.Errorf("FS copy: illegal premise artefact type %T", pre)
		}
	}
	for _, res := range a.Results() {
		switch res := res.Artefact.(type) {
		case File:
			return cp.toFile(tr, a.Project(), res, prems)
		case Directory:
			return cp.toDir(tr, a.Project(), res, prems)
		case mkore.Abstract:
			// do nothing
		default:
			return fmt.Errorf("FS copy: illegal result artefact type %T", res)
		}
	}
	return nil
}

func (cp Copy) toFile(tr *mkore.Trace, prj *mkore.Project, dst File, srcs []Artefact) error {
	dstPath, err := prj.AbsPath(dst.Path())
	if err != nil {
		return err
	}
	if err := cp.provideDir(filepath.Dir(dstPath)); err != nil {
		return err
	}
	if len(srcs) == 1 {
		src, err := prj.AbsPath(srcs[0].Path())
		if err != nil {
			return err
		}
		st, err := os.Stat(src)
		if err != nil {
			return err
		}
		return cp.copyFile(tr, dstPath, src, st)
	}
	w, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("FS copy to %s: %w", dst.Path(), err)
	}
	defer w.Close()
	for _, src := range srcs {
		srcPath, err := prj.AbsPath(src.Path())
		if err != nil {
			return err
		}
		if srcPath == dstPath {
			tr.Warn("FS copy: `source` to itself, skipping",
				`source`, src.Path(),
			)
			continue
		}
		tr.Debug("FS copy: append `src` -> `dst`", `src`, srcPath, `dst`, dstPath)
		r, err := os.Open(srcPath)
		if err != nil {
			return fmt.Errorf("FS copy to %s: %w", dst.Path(), err)
		}
		_, err = io.Copy(w, r)
		if e := r.Close(); e != nil {
			if err == nil {
				return e
			}
			return errors.Join(err, e)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (cp Copy) toDir(tr *mkore.Trace, prj *mkore.Project, dst Directory, srcs []Artefact) error {
	dstPath, err := prj.AbsPath(dst.Path())
	if err != nil {
		return err
	}
	if err := cp.provideDir(dstPath); err != nil {
		return err
	}
	for _, src := range srcs {
		srcPath, err := prj.AbsPath(src.Path())
		if err != nil {
			return err
		}
		switch src := src.(type) {
		case File:
			st, err := os.Stat(srcPath)
			if err != nil {
				return err
			}
			bnm := filepath.Base(src.Path())
			err = cp.copyFile(tr, filepath.Join(dstPath, bnm), srcPath, st)
			if err != nil {
				return err
			}
		case Directory:
			err = src.ls(srcPath, func(p string, e fs.DirEntry) error {
				return cp.copyEntry(tr,
					filepath.Join(dstPath, p),
					filepath.Join(srcPath, p),
				)
			})
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("FS copy: illegal source artefact type %T", src)
		}
	}
	return nil
}

func (cp Copy) copyEntry(tr *mkore.Trace, dst, src string) error {
	sstat, err := os.Stat(src)
	if err != nil {
		return err
	}
	if !sstat.IsDir() {
		return cp.copyFile(tr, dst, src, sstat)
	}
	tr.Debug("FS copy: mkdir `src` -> `dst`", `src`, src, `dst`, dst)
	return os.MkdirAll(dst, sstat.Mode().Perm())
}

func (cp Copy) copyFile(tr *mkore.Trace, dst, src string, sstat fs.FileInfo) error {
	if src == dst {
		return nil
	}
	tr.Debug("FS copy: `src` -> `dst`", `src`, src, `dst`, dst)
	if err := cp.provideDir(filepath.Dir(dst)); err != nil {
		return err
	}
	w, err := os.OpenFile(dst,
		os.O_CREATE|os.O_TRUNC|os.O_WRONLY,
		sstat.Mode().Perm(),
	)
	if err != nil {
		return err
	}
	defer w.Close()
	r, err := os.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}

func (cp Copy) provideDir(path string) error {
	if cp.MkDirMode == 0 {
		return nil
	}
	return os.MkdirAll(path, cp.MkDirMode)
}

func (cp Copy) WriteHash(h hash.Hash, a *mkore.Action, _ *mkore.Env) (bool, error) {
	for _, pre := range a.Premises() {
		fmt.Fprintln(h, pre.Name())
	}
	for _, res := range a.Results() {
		fmt.Fprintln(h, res.Name())
	}
	return true, nil
}
