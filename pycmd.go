package distmk

import (
	"errors"
	"fmt"
	"hash"
	"os/exec"
	"strings"

	"github.com/jsmfsb/distmk/mkfs"
	"github.com/jsmfsb/distmk/mkore"
)

// PyTool locates the Python interpreter that runs the packaging toolchain
// modules. With an empty PyExe the PATH is searched for python3, then python.
type PyTool struct {
	PyExe string
}

func (t *PyTool) pyExe() (string, error) {
	if t.PyExe != "" {
		return t.PyExe, nil
	}
	if exe, err := exec.LookPath("python3"); err == nil {
		return exe, nil
	}
	return exec.LookPath("python")
}

func (t *PyTool) describe(base string, a *Action) string {
	if a == nil || len(a.Results()) == 0 {
		return "Py " + base
	}
	s := fmt.Sprintf("Py %s %s", base, a.Result(0).Name())
	if len(a.Results()) > 1 {
		s += "…"
	}
	return s
}

// premisePaths returns the project-relative paths of the action's tangible
// premises. Directory premises expand to the files they currently list, so
// e.g. a dist/ goal contributes the built artifact names, not the directory.
func premisePaths(a *Action) ([]string, error) {
	prems, err := Goals(a.Premises(), true, Tangible, AType[mkfs.Artefact])
	if err != nil {
		return nil, err
	}
	prj := a.Project()
	var paths []string
	for _, p := range prems {
		if dir, ok := p.Artefact.(mkfs.Directory); ok {
			ls, err := dir.List(prj)
			if err != nil {
				return nil, err
			}
			for _, l := range ls {
				path, err := prj.RelPath(l)
				if err != nil {
					return nil, err
				}
				paths = append(paths, path)
			}
			continue
		}
		path, err := prj.RelPath(p.Artefact.(mkfs.Artefact).Path())
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// PyBuild runs 'python -m build' in the project directory. The results of its
// action are the distribution artifacts written to OutDir.
type PyBuild struct {
	PyTool
	SDist, Wheel bool // build only the sdist resp. only the wheel
	OutDir       string
	Isolation    bool
}

var _ mkore.Operation = (*PyBuild)(nil)

func (pb *PyBuild) Describe(a *Action, _ *Env) string {
	return pb.describe("build", a)
}

func (pb *PyBuild) cmd(a *Action) (*CmdOp, error) {
	exe, err := pb.pyExe()
	if err != nil {
		return nil, err
	}
	op := &CmdOp{
		CWD:  a.Project().Dir,
		Exe:  exe,
		Args: []string{"-m", "build"},
		Desc: pb.Describe(a, nil),
	}
	if pb.SDist {
		op.Args = append(op.Args, "--sdist")
	}
	if pb.Wheel {
		op.Args = append(op.Args, "--wheel")
	}
	if pb.OutDir != "" {
		op.Args = append(op.Args, "--outdir", pb.OutDir)
	}
	if !pb.Isolation {
		op.Args = append(op.Args, "--no-isolation")
	}
	return op, nil
}

func (pb *PyBuild) Do(tr *Trace, a *Action, env *Env) error {
	op, err := pb.cmd(a)
	if err != nil {
		return err
	}
	return op.Do(tr, a, env)
}

func (pb *PyBuild) WriteHash(h hash.Hash, a *Action, _ *Env) (bool, error) {
	op, err := pb.cmd(a)
	if err != nil {
		return false, err
	}
	return op.WriteHash(h, a, nil)
}

// PipInstall runs 'python -m pip install' on the tangible premise artifacts
// of its action, e.g. the distribution files built by [PyBuild].
type PipInstall struct {
	PyTool
	Upgrade bool
	// Extra packages or requirement specs installed along the premises.
	Args []string
}

var _ mkore.Operation = (*PipInstall)(nil)

func (pi *PipInstall) Describe(a *Action, _ *Env) string {
	return pi.describe("pip install", a)
}

func (pi *PipInstall) cmd(a *Action) (*CmdOp, error) {
	paths, err := premisePaths(a)
	if err != nil {
		return nil, fmt.Errorf("pip install premises: %w", err)
	}
	if len(paths)+len(pi.Args) == 0 {
		return nil, errors.New("pip install without targets")
	}
	exe, err := pi.pyExe()
	if err != nil {
		return nil, err
	}
	op := &CmdOp{
		CWD:  a.Project().Dir,
		Exe:  exe,
		Args: []string{"-m", "pip", "install"},
		Desc: pi.Describe(a, nil),
	}
	if pi.Upgrade {
		op.Args = append(op.Args, "--upgrade")
	}
	op.Args = append(op.Args, paths...)
	op.Args = append(op.Args, pi.Args...)
	return op, nil
}

func (pi *PipInstall) Do(tr *Trace, a *Action, env *Env) error {
	op, err := pi.cmd(a)
	if err != nil {
		return err
	}
	return op.Do(tr, a, env)
}

func (pi *PipInstall) WriteHash(h hash.Hash, a *Action, _ *Env) (bool, error) {
	op, err := pi.cmd(a)
	if err != nil {
		return false, err
	}
	return op.WriteHash(h, a, nil)
}

// Pytest runs 'python -m pytest' on Dirs, or in the project directory when
// Dirs is empty.
type Pytest struct {
	PyTool
	Dirs []string
	Args []string
}

var _ mkore.Operation = (*Pytest)(nil)

func (pt *Pytest) Describe(*Action, *Env) string {
	return "Py pytest " + strings.Join(pt.Dirs, " ")
}

func (pt *Pytest) cmd(a *Action) (*CmdOp, error) {
	exe, err := pt.pyExe()
	if err != nil {
		return nil, err
	}
	op := &CmdOp{
		CWD:  a.Project().Dir,
		Exe:  exe,
		Args: []string{"-m", "pytest"},
		Desc: pt.Describe(a, nil),
	}
	op.Args = append(op.Args, pt.Args...)
	op.Args = append(op.Args, pt.Dirs...)
	return op, nil
}

func (pt *Pytest) Do(tr *Trace, a *Action, env *Env) error {
	op, err := pt.cmd(a)
	if err != nil {
		return err
	}
	return op.Do(tr, a, env)
}

func (pt *Pytest) WriteHash(hash.Hash, *Action, *Env) (bool, error) {
	return false, nil
}

// Black runs the 'python -m black' code formatter on Dirs.
type Black struct {
	PyTool
	Dirs  []string
	Check bool
}

var _ mkore.Operation = (*Black)(nil)

func (b *Black) Describe(*Action, *Env) string {
	return "Py black " + strings.Join(b.Dirs, " ")
}

func (b *Black) cmd(a *Action) (*CmdOp, error) {
	if len(b.Dirs) == 0 {
		return nil, errors.New("black without dirs")
	}
	exe, err := b.pyExe()
	if err != nil {
		return nil, err
	}
	op := &CmdOp{
		CWD:  a.Project().Dir,
		Exe:  exe,
		Args: []string{"-m", "black"},
		Desc: b.Describe(a, nil),
	}
	if b.Check {
		op.Args = append(op.Args, "--check")
	}
	op.Args = append(op.Args, b.Dirs...)
	return op, nil
}

func (b *Black) Do(tr *Trace, a *Action, env *Env) error {
	op, err := b.cmd(a)
	if err != nil {
		return err
	}
	return op.Do(tr, a, env)
}

func (b *Black) WriteHash(hash.Hash, *Action, *Env) (bool, error) {
	return false, nil
}

// Twine runs 'python -m twine upload' on the tangible premise artifacts of
// its action.
type Twine struct {
	PyTool
	Repository   string
	SkipExisting bool
}

var _ mkore.Operation = (*Twine)(nil)

func (tw *Twine) Describe(a *Action, _ *Env) string {
	return tw.describe("twine upload", a)
}

func (tw *Twine) cmd(a *Action) (*CmdOp, error) {
	paths, err := premisePaths(a)
	if err != nil {
		return nil, fmt.Errorf("twine upload premises: %w", err)
	}
	if len(paths) == 0 {
		return nil, errors.New("twine upload without artifacts")
	}
	exe, err := tw.pyExe()
	if err != nil {
		return nil, err
	}
	op := &CmdOp{
		CWD:  a.Project().Dir,
		Exe:  exe,
		Args: []string{"-m", "twine", "upload"},
		Desc: tw.Describe(a, nil),
	}
	if tw.Repository != "" {
		op.Args = append(op.Args, "--repository", tw.Repository)
	}
	if tw.SkipExisting {
		op.Args = append(op.Args, "--skip-existing")
	}
	op.Args = append(op.Args, paths...)
	return op, nil
}

func (tw *Twine) Do(tr *Trace, a *Action, env *Env) error {
	op, err := tw.cmd(a)
	if err != nil {
		return err
	}
	return op.Do(tr, a, env)
}

func (tw *Twine) WriteHash(hash.Hash, *Action, *Env) (bool, error) {
	return false, nil
}

// TodoGrep greps Files for Marker, line-numbered. Finding no marker makes
// grep exit non-zero, so the action usually ignores errors.
type TodoGrep struct {
	GrepExe string
	Marker  string
	Files   []string
}

var _ mkore.Operation = (*TodoGrep)(nil)

func (tg *TodoGrep) Describe(*Action, *Env) string {
	return "grep " + tg.marker()
}

func (tg *TodoGrep) marker() string {
	if tg.Marker == "" {
		return "TODO"
	}
	return tg.Marker
}

func (tg *TodoGrep) cmd(a *Action) (*CmdOp, error) {
	if len(tg.Files) == 0 {
		return nil, errors.New("grep without files")
	}
	exe := tg.GrepExe
	if exe == "" {
		var err error
		if exe, err = exec.LookPath("grep"); err != nil {
			return nil, err
		}
	}
	op := &CmdOp{
		CWD:  a.Project().Dir,
		Exe:  exe,
		Args: []string{"-n", tg.marker()},
		Desc: tg.Describe(a, nil),
	}
	op.Args = append(op.Args, tg.Files...)
	return op, nil
}

func (tg *TodoGrep) Do(tr *Trace, a *Action, env *Env) error {
	op, err := tg.cmd(a)
	if err != nil {
		return err
	}
	return op.Do(tr, a, env)
}

func (tg *TodoGrep) WriteHash(hash.Hash, *Action, *Env) (bool, error) {
	return false, nil
}

// EditCmd launches the user's editor on Files. The editor comes from Editor
// or, when empty, the EDITOR tag of the build's env.
type EditCmd struct {
	Editor string
	Files  []string
}

var _ mkore.Operation = (*EditCmd)(nil)

func (ec *EditCmd) Describe(*Action, *Env) string {
	return "edit " + strings.Join(ec.Files, " ")
}

func (ec *EditCmd) cmd(a *Action, env *Env) (*CmdOp, error) {
	exe := ec.Editor
	if exe == "" {
		exe, _ = env.Tag("EDITOR")
	}
	if exe == "" {
		return nil, errors.New("no editor, set EDITOR")
	}
	op := &CmdOp{
		CWD:  a.Project().Dir,
		Exe:  exe,
		Args: ec.Files,
		Desc: ec.Describe(a, nil),
	}
	return op, nil
}

func (ec *EditCmd) Do(tr *Trace, a *Action, env *Env) error {
	op, err := ec.cmd(a, env)
	if err != nil {
		return err
	}
	return op.Do(tr, a, env)
}

func (ec *EditCmd) WriteHash(hash.Hash, *Action, *Env) (bool, error) {
	return false, nil
}
