package pipeline

import (
	"github.com/rotisserie/eris"

	"github.com/jsmfsb/distmk/mkore"
)

// CompileOpts tune [Pipeline.Compile].
type CompileOpts struct {
	// DryRun makes every target log its commands without running them.
	DryRun bool
}

// Compile turns the pipeline into a goal/action graph rooted in dir. Every
// target becomes an abstract goal; its deps become the premises of the
// target's action, in declaration order, so that all deps complete before the
// target's commands run.
func (p *Pipeline) Compile(dir string, opts CompileOpts) (*mkore.Project, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	prj := mkore.NewProject(dir)
	goals := make(map[string]*mkore.Goal, len(p.Targets))
	for name := range p.Targets {
		g, err := prj.Goal(mkore.Abstract(name))
		if err != nil {
			return nil, eris.Wrapf(err, "target %s", name)
		}
		goals[name] = g
	}
	for name, tgt := range p.Targets {
		prems := make([]*mkore.Goal, 0, len(tgt.Deps))
		for _, dep := range tgt.Deps {
			prems = append(prems, goals[dep])
		}
		var op mkore.Operation
		if len(tgt.Cmds) > 0 {
			sop, err := NewShellOp(name, tgt.Cmds, tgt.Env)
			if err != nil {
				return nil, err
			}
			sop.DryRun = opts.DryRun
			op = sop
		} else if len(prems) == 0 {
			return nil, eris.Errorf("target %s has neither deps nor cmds", name)
		}
		if _, err := prj.NewAction(prems, []*mkore.Goal{goals[name]}, op); err != nil {
			return nil, eris.Wrapf(err, "target %s", name)
		}
	}
	return prj, nil
}
