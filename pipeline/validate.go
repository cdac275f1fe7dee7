package pipeline

import (
	"slices"

	"github.com/rotisserie/eris"
)

// Validate checks the target graph: every dep must name a target, deps must
// not repeat and the dependency graph must be acyclic.
func (p *Pipeline) Validate() error {
	if len(p.Targets) == 0 {
		return eris.New("pipeline without targets")
	}
	for name, tgt := range p.Targets {
		seen := make(map[string]bool, len(tgt.Deps))
		for _, dep := range tgt.Deps {
			if _, ok := p.Targets[dep]; !ok {
				return eris.Errorf("target %s: unknown dep %s", name, dep)
			}
			if seen[dep] {
				return eris.Errorf("target %s: duplicate dep %s", name, dep)
			}
			seen[dep] = true
		}
	}
	state := make(map[string]int, len(p.Targets)) // 0 new, 1 on path, 2 done
	names := make([]string, 0, len(p.Targets))
	for n := range p.Targets {
		names = append(names, n)
	}
	slices.Sort(names)
	for _, n := range names {
		if err := p.cycleCheck(n, state); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) cycleCheck(name string, state map[string]int) error {
	switch state[name] {
	case 1:
		return eris.Errorf("dependency cycle through target %s", name)
	case 2:
		return nil
	}
	state[name] = 1
	for _, dep := range p.Targets[name].Deps {
		if err := p.cycleCheck(dep, state); err != nil {
			return err
		}
	}
	state[name] = 2
	return nil
}
