package distmk

import (
	"fmt"
	"hash"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jsmfsb/distmk/mkore"
)

// CmdOp runs one external command. A non-zero exit status is returned as the
// operation's error and thereby aborts the build.
type CmdOp struct {
	CWD             string
	Exe             string
	Args            []string
	InFile, OutFile string
	Desc            string
}

var _ mkore.Operation = (*CmdOp)(nil)

func (op *CmdOp) Describe(a *Action, _ *Env) string {
	if op.Desc == "" {
		path := filepath.Base(op.Exe)
		op.Desc = fmt.Sprintf("%s$%s%v", path, op.Exe, op.Args)
	}
	return op.Desc
}

func (op *CmdOp) Do(tr *Trace, a *Action, env *Env) error {
	xenv, err := env.ExecEnv()
	if err != nil {
		tr.Warn("`action` env: `error`", `action`, a.String(), `error`, err.Error())
	}
	cmd := exec.CommandContext(tr.Ctx(), op.Exe, op.Args...)
	cmd.Dir = op.CWD
	cmd.Env = xenv
	if op.InFile != "" {
		if r, err := os.Open(op.InFile); err != nil {
			return err
		} else {
			defer r.Close()
			cmd.Stdin = r
		}
	} else {
		cmd.Stdin = env.In
	}
	if op.OutFile != "" {
		if w, err := os.Create(op.OutFile); err != nil {
			return err
		} else {
			defer w.Close()
			cmd.Stdout = w
		}
	} else {
		cmd.Stdout = env.Out
	}
	cmd.Stderr = env.Err
	tr.Debug("exec `cmd` in `dir`", `cmd`, cmd.String(), `dir`, cmd.Dir)
	err = cmd.Run()
	if err != nil {
		tr.Warn("failed `cmd` in `dir` with `error`",
			`cmd`, cmd.String(),
			`dir`, cmd.Dir,
			`error`, err.Error(),
		)
	}
	return err
}

// TODO include environment values
func (op *CmdOp) WriteHash(h hash.Hash, a *Action, _ *Env) (bool, error) {
	fmt.Fprintln(h, op.CWD)
	fmt.Fprintln(h, op.Exe)
	for _, arg := range op.Args {
		fmt.Fprintln(h, arg)
	}
	fmt.Fprintln(h, op.InFile)
	fmt.Fprintln(h, op.OutFile)
	return true, nil
}

// PipeOp connects the commands of its elements with OS pipes, first to last.
type PipeOp []CmdOp

var _ mkore.Operation = PipeOp{}

func (po PipeOp) Describe(a *Action, env *Env) string {
	if len(po) == 0 {
		return "empty pipe"
	}
	var sb strings.Builder
	sb.WriteString(po[0].Describe(a, env))
	for i := range po[1:] {
		sb.WriteByte('|')
		sb.WriteString(po[i+1].Describe(a, env))
	}
	return sb.String()
}

func (po PipeOp) Do(tr *Trace, a *Action, env *Env) error {
	if len(po) == 0 {
		return nil
	}
	var (
		cmds      = make([]*exec.Cmd, len(po))
		pipes     = make([]piperw, len(po)-1)
		xenv, err = env.ExecEnv()
	)
	if err != nil {
		tr.Warn("`action` env: `error`", `action`, a.String(), `error`, err.Error())
	}
	for i := 0; i < len(po); i++ {
		cop := &po[i]
		cmd := exec.CommandContext(tr.Ctx(), cop.Exe, cop.Args...)
		cmd.Dir = cop.CWD
		cmd.Env = xenv
		if i == 0 {
			cmd.Stdin = env.In
		} else {
			r, w := io.Pipe()
			cmds[i-1].Stdout = w
			cmd.Stdin = r
			pipes[i-1] = piperw{r, w}
		}
		if i+1 == len(po) {
			cmd.Stdout = env.Out
		}
		cmd.Stderr = env.Err
		cmds[i] = cmd
	}
	for i, cmd := range cmds {
		if err := cmd.Start(); err != nil {
			for k := 0; k < i; k++ {
				cmds[k].Process.Kill()
			}
			return err
		}
	}
	for i, cmd := range cmds {
		if err := cmd.Wait(); err != nil {
			for k := i + 1; k < len(cmds); k++ {
				cmds[k].Process.Kill()
			}
			return err
		}
		if i < len(pipes) {
			pipes[i].w.Close()
		}
	}
	return nil
}

type piperw struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (po PipeOp) WriteHash(h hash.Hash, a *Action, env *Env) (bool, error) {
	for i := range po {
		ok, err := po[i].WriteHash(h, a, env)
		if !ok || err != nil {
			return false, err
		}
	}
	return true, nil
}
