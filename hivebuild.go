package distmk

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/jsmfsb/distmk/hive"
	"github.com/jsmfsb/distmk/mkore"
)

// HiveBuilder builds goals with a pool of parallel workers. Every goal
// reachable from the requested goals becomes a [hive.Step]; a goal's actions
// run once all of its premise goals are done. Unlike the sequential
// [mkore.Builder] it does not skip up-to-date goals, it relies on
// [mkore.Action.Run] running every action at most once per build.
type HiveBuilder struct {
	Jobs int
	Log  zerolog.Logger

	// StepDone, when set, is called after each finished goal with the number
	// of finished goals and the total step count.
	StepDone func(goal string, done, total int)

	tr  *Trace
	env *Env
}

func NewHiveBuilder(tr *Trace, env *Env, jobs int) *HiveBuilder {
	if tr == nil {
		tr = mkore.NewTrace(context.Background(), DefaultTracer())
	}
	return &HiveBuilder{Jobs: jobs, Log: zerolog.Nop(), tr: tr, env: env}
}

// NamedGoals builds the goals with the given names in prj.
func (hb *HiveBuilder) NamedGoals(prj *Project, names ...string) error {
	var gs []*Goal
	for _, n := range names {
		g := prj.FindGoal(n)
		if g == nil {
			return fmt.Errorf("no goal named '%s' in project '%s'", n, prj)
		}
		gs = append(gs, g)
	}
	return hb.Goals(gs...)
}

// Goals builds the given goals, which must all belong to one project.
func (hb *HiveBuilder) Goals(gs ...*Goal) error {
	if len(gs) == 0 {
		return nil
	}
	prj := gs[0].Project()
	for _, g := range gs[1:] {
		if g.Project() != prj {
			return errors.New("hive builder cannot span projects")
		}
	}
	prj.LockBuild()
	defer prj.Unlock()
	if hb.env == nil {
		hb.env = mkore.DefaultEnv(hb.tr)
	}
	hb.tr.StartProject(prj, "building")
	start := time.Now()
	defer func() { hb.tr.DoneProject(prj, "building", time.Since(start)) }()

	steps := make(map[*Goal]*hive.Step)
	var finished atomic.Int32
	var stepOf func(g *Goal) *hive.Step
	stepOf = func(g *Goal) *hive.Step {
		if s := steps[g]; s != nil {
			return s
		}
		s := hive.NewStep(g.Name())
		s.Build = hb.buildFunc(g, &finished, steps)
		steps[g] = s
		// Ordered goals complete their actions' premises in declaration
		// order, like the sequential builder does. Chaining the premise
		// steps keeps that guarantee under parallel workers; UpdUnordered
		// opts a goal out of it.
		for _, act := range g.ResultOf() {
			var prev *hive.Step
			for _, pre := range act.Premises() {
				ps := stepOf(pre)
				s.DependOn(ps)
				if prev != nil && g.UpdateMode.Ordered() {
					ps.DependOn(prev)
				}
				prev = ps
			}
		}
		return s
	}
	root := hive.NewStep("")
	for _, g := range gs {
		root.DependOn(stepOf(g))
	}

	hv := hive.NewHive(hb.Jobs)
	defer hv.Close()
	sd := hive.NewScheduler(hv)
	sd.Log = hb.Log
	_, err := sd.Update(root)
	return err
}

// buildFunc runs all actions of g. The steps map is complete before the
// scheduler starts, so its length is the total step count.
func (hb *HiveBuilder) buildFunc(
	g *Goal, finished *atomic.Int32, steps map[*Goal]*hive.Step,
) func(*hive.Step, hive.BuildHint) (bool, error) {
	return func(_ *hive.Step, _ hive.BuildHint) (bool, error) {
		for _, act := range g.ResultOf() {
			if _, err := act.Run(hb.tr, hb.env); err != nil {
				return false, err
			}
		}
		if hb.StepDone != nil {
			hb.StepDone(g.Name(), int(finished.Add(1)), len(steps))
		}
		return true, nil
	}
}
