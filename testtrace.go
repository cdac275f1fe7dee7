package distmk

import (
	"testing"
	"time"

	"github.com/jsmfsb/distmk/mkore"
)

// TestTracer logs all build events to a testing.T.
type TestTracer struct{ T *testing.T }

var _ mkore.Tracer = TestTracer{}

func (tr TestTracer) Debug(t *Trace, msg string, args ...any) {
	tr.T.Logf("distmk-DEBUG: "+msg, args...)
}

func (tr TestTracer) Info(t *Trace, msg string, args ...any) {
	tr.T.Logf("distmk-INFO: "+msg, args...)
}

func (tr TestTracer) Warn(t *Trace, msg string, args ...any) {
	tr.T.Logf("distmk-WARN: "+msg, args...)
}

func (tr TestTracer) StartProject(t *Trace, p *Project, activity string) {
	tr.T.Logf("distmk-StartProject: %s %s", p, activity)
}

func (tr TestTracer) DoneProject(t *Trace, p *Project, activity string, dt time.Duration) {
	tr.T.Logf("distmk-DoneProject: %s %s %s", p, activity, dt)
}

func (tr TestTracer) RunAction(_ *Trace, a *Action) {
	tr.T.Logf("distmk-RunAction: %s", a)
}

func (tr TestTracer) RunImplicitAction(_ *Trace, a *Action) {
	tr.T.Logf("distmk-RunImplicitAction: %s", a)
}

func (tr TestTracer) ScheduleResTimeZero(t *Trace, a *Action, res *Goal) {
	tr.T.Logf("distmk-ScheduleResTimeZero: %s:> %s", a, res)
}

func (tr TestTracer) ScheduleNotPremises(t *Trace, a *Action, res *Goal) {
	tr.T.Logf("distmk-ScheduleNotPremises: %s:> %s", a, res)
}

func (tr TestTracer) SchedulePreTimeZero(t *Trace, a *Action, res, pre *Goal) {
	tr.T.Logf("distmk-SchedulePreTimeZero: %s: %s > %s", a, pre, res)
}

func (tr TestTracer) ScheduleOutdated(t *Trace, a *Action, res, pre *Goal) {
	tr.T.Logf("distmk-ScheduleOutdated: %s: %s > %s", a, pre, res)
}

func (tr TestTracer) CheckGoal(t *Trace, g *Goal) {
	tr.T.Logf("distmk-CheckGoal: %s", g)
}

func (tr TestTracer) GoalUpToDate(t *Trace, g *Goal) {
	tr.T.Logf("distmk-GoalUpToDate: %s", g)
}

func (tr TestTracer) GoalNeedsActions(t *Trace, g *Goal, n int) {
	tr.T.Logf("distmk-GoalNeedsActions: %s %d", g, n)
}

func (tr TestTracer) RemoveArtefact(t *Trace, g *Goal) {
	tr.T.Logf("distmk-RemoveArtefact: %s", g)
}
