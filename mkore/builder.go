package mkore

import (
	"errors"
	"fmt"
	"time"
)

// Builder walks a project's goal graph depth first and runs the actions of
// every goal that is not up-to-date. Premise goals are always completed
// before the actions that depend on them run.
type Builder struct {
	updater
}

func NewBuilder(tr *Trace, env *Env) (*Builder, error) {
	if tr == nil {
		return nil, errors.New("no trace for new builder")
	}
	return &Builder{
		updater: updater{
			trace: tr,
			env:   env,
		},
	}, nil
}

// Project builds all leafs in prj.
func (bd *Builder) Project(prj *Project) error {
	bd.bid = prj.LockBuild()
	defer prj.Unlock()
	if bd.env == nil {
		bd.env = DefaultEnv(bd.trace)
	}
	return bd.buildPrj(bd.trace, prj)
}

// Goals builds the given goals in order.
func (bd *Builder) Goals(gs ...*Goal) error {
	if len(gs) == 0 {
		return nil
	}
	var (
		prj      *Project
		prjStart time.Time
	)
	defer func() {
		if prj != nil {
			bd.trace.doneProject(prj, "building", time.Since(prjStart))
			prj.Unlock()
		}
	}()
	for _, g := range gs {
		if p := g.Project(); p != prj {
			if prj != nil {
				bd.trace.doneProject(prj, "building", time.Since(prjStart))
				prj.Unlock()
			}
			prj = p
			bd.trace.startProject(prj, "building")
			prjStart = time.Now()
			if bd.env == nil {
				bd.env = DefaultEnv(bd.trace)
			}
			bd.bid = prj.LockBuild()
		}
		if err := bd.buildGoal(bd.trace, g); err != nil {
			return err
		}
	}
	return nil
}

// NamedGoals builds the goals with the given names in prj.
func (bd *Builder) NamedGoals(prj *Project, names ...string) error {
	var gs []*Goal
	for _, n := range names {
		g := prj.FindGoal(n)
		if g == nil {
			return fmt.Errorf("no goal named '%s' in project '%s'", n, prj)
		}
		gs = append(gs, g)
	}
	return bd.Goals(gs...)
}

func (bd *Builder) buildPrj(tr *Trace, prj *Project) error {
	start := time.Now()
	tr = tr.pushProject(prj)
	tr.startProject(prj, "building")
	for _, leaf := range prj.Leafs() {
		if err := bd.buildGoal(tr, leaf); err != nil {
			return err
		}
	}
	tr.doneProject(prj, "building", time.Since(start))
	return nil
}

func (bd *Builder) buildGoal(tr *Trace, g *Goal) error {
	if g.LockBuild() == 0 {
		return nil
	}
	defer g.Unlock()

	tr = tr.pushGoal(g)
	tr.checkGoal(g)
	if len(g.ResultOf()) == 0 {
		return nil
	}
	for _, act := range g.ResultOf() {
		for _, pre := range act.Premises() {
			if err := bd.buildGoal(tr, pre); err != nil {
				return err
			}
		}
	}

	_, err := bd.updateGoal(tr, g)
	return err
}
