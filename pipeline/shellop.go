package pipeline

import (
	"fmt"
	"hash"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/jsmfsb/distmk/mkore"
)

// ShellOp runs the shell commands of one pipeline target. The commands are
// parsed once at construction; Do runs them statement by statement with -e
// semantics, so the first failing command aborts the target.
type ShellOp struct {
	Target string
	Env    map[string]string

	// DryRun only logs the commands instead of running them.
	DryRun bool

	script string
	stmts  []*syntax.Stmt
}

var _ mkore.Operation = (*ShellOp)(nil)

func NewShellOp(target string, cmds []string, env map[string]string) (*ShellOp, error) {
	op := &ShellOp{
		Target: target,
		Env:    env,
		script: strings.Join(cmds, "\n"),
	}
	parser := syntax.NewParser()
	file, err := parser.Parse(strings.NewReader(op.script), target)
	if err != nil {
		return nil, eris.Wrapf(err, "target %s", target)
	}
	op.stmts = file.Stmts
	return op, nil
}

func (op *ShellOp) Describe(*mkore.Action, *mkore.Env) string {
	return "sh:" + op.Target
}

func (op *ShellOp) Do(tr *mkore.Trace, a *mkore.Action, env *mkore.Env) error {
	if len(op.Env) > 0 {
		env = env.Sub()
		env.SetTagsMap(op.Env)
	}
	xenv, err := env.ExecEnv()
	if err != nil {
		tr.Warn("`target` env: `error`", `target`, op.Target, `error`, err.Error())
	}
	runner, err := interp.New(
		interp.Dir(a.Project().Dir),
		interp.Env(expand.ListEnviron(xenv...)),
		interp.StdIO(env.In, env.Out, env.Err),
		interp.Params("-e"),
	)
	if err != nil {
		return eris.Wrap(err, "failed to initialize runner")
	}

	ctx := tr.Ctx()
	printer := syntax.NewPrinter(syntax.Minify(true))
	var strBuffer strings.Builder
	for _, stm := range op.stmts {
		strBuffer.Reset()
		printer.Print(&strBuffer, stm)
		log(ctx).Info().
			Str("target", op.Target).
			Bool("command", true).
			Msg(strBuffer.String())
		tr.Info("run `cmd`", `cmd`, strBuffer.String())

		if op.DryRun {
			continue
		}
		if err := runner.Run(ctx, stm); err != nil {
			return err
		}
		if runner.Exited() {
			return nil
		}
	}
	return nil
}

func (op *ShellOp) WriteHash(h hash.Hash, _ *mkore.Action, _ *mkore.Env) (bool, error) {
	fmt.Fprintln(h, op.Target)
	fmt.Fprintln(h, op.script)
	keys := make([]string, 0, len(op.Env))
	for k := range op.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s\n", k, op.Env[k])
	}
	return true, nil
}
