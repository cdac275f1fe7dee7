package mkore

import (
	"context"
	"errors"
	"hash"
	"slices"
	"testing"
	"time"

	"git.fractalqb.de/fractalqb/testerr"
)

// recTracer records the cleanup events and logs everything else to t.
type recTracer struct {
	t       *testing.T
	removed []string
}

func (tr *recTracer) Debug(_ *Trace, msg string, _ ...any) { tr.t.Log("DEBUG", msg) }
func (tr *recTracer) Info(_ *Trace, msg string, _ ...any)  { tr.t.Log("INFO", msg) }
func (tr *recTracer) Warn(_ *Trace, msg string, _ ...any)  { tr.t.Log("WARN", msg) }

func (tr *recTracer) StartProject(_ *Trace, p *Project, activity string) {
	tr.t.Logf("start %s %s", activity, p)
}

func (tr *recTracer) DoneProject(_ *Trace, p *Project, activity string, _ time.Duration) {
	tr.t.Logf("done %s %s", activity, p)
}

func (tr *recTracer) RunAction(_ *Trace, a *Action)         { tr.t.Log("run", a) }
func (tr *recTracer) RunImplicitAction(_ *Trace, a *Action) { tr.t.Log("run", a) }

func (tr *recTracer) ScheduleResTimeZero(*Trace, *Action, *Goal)     {}
func (tr *recTracer) ScheduleNotPremises(*Trace, *Action, *Goal)     {}
func (tr *recTracer) SchedulePreTimeZero(*Trace, *Action, *Goal, *Goal) {
}
func (tr *recTracer) ScheduleOutdated(*Trace, *Action, *Goal, *Goal) {}

func (tr *recTracer) CheckGoal(*Trace, *Goal)            {}
func (tr *recTracer) GoalUpToDate(*Trace, *Goal)         {}
func (tr *recTracer) GoalNeedsActions(*Trace, *Goal, int) {}

func (tr *recTracer) RemoveArtefact(_ *Trace, g *Goal) {
	tr.removed = append(tr.removed, g.Name())
}

// recOp appends its name to a shared log when run.
type recOp struct {
	name string
	log  *[]string
	fail error
}

func (op recOp) Describe(*Action, *Env) string { return op.name }

func (op recOp) Do(*Trace, *Action, *Env) error {
	*op.log = append(*op.log, op.name)
	return op.fail
}

func (op recOp) WriteHash(hash.Hash, *Action, *Env) (bool, error) { return false, nil }

func newTestTrace(t *testing.T) (*Trace, *recTracer) {
	rt := &recTracer{t: t}
	return NewTrace(context.Background(), rt), rt
}

func abstractGoal(t *testing.T, prj *Project, name string) *Goal {
	t.Helper()
	return testerr.Shall1(prj.Goal(Abstract(name))).BeNil(t)
}

// The install target depends on build, the force target runs install and then
// test. Abstract goals are never up-to-date, so every build runs all of them,
// in dependency order.
func TestBuilder_dependencyOrder(t *testing.T) {
	var log []string
	prj := NewProject(t.Name())
	build := abstractGoal(t, prj, "build")
	install := abstractGoal(t, prj, "install")
	test := abstractGoal(t, prj, "test")
	force := abstractGoal(t, prj, "force")
	testerr.Shall1(prj.NewAction(nil, []*Goal{build},
		recOp{name: "build", log: &log},
	)).BeNil(t)
	testerr.Shall1(prj.NewAction([]*Goal{build}, []*Goal{install},
		recOp{name: "install", log: &log},
	)).BeNil(t)
	testerr.Shall1(prj.NewAction(nil, []*Goal{test},
		recOp{name: "test", log: &log},
	)).BeNil(t)
	testerr.Shall1(prj.NewAction([]*Goal{install, test}, []*Goal{force}, nil)).
		BeNil(t)

	tr, _ := newTestTrace(t)
	bd := testerr.Shall1(NewBuilder(tr, DefaultEnv(tr))).BeNil(t)
	testerr.Shall(bd.NamedGoals(prj, "force")).BeNil(t)
	want := []string{"build", "install", "test"}
	if !slices.Equal(log, want) {
		t.Errorf("ops ran as %v, want %v", log, want)
	}
}

func TestBuilder_runsActionOncePerBuild(t *testing.T) {
	var log []string
	prj := NewProject(t.Name())
	build := abstractGoal(t, prj, "build")
	install := abstractGoal(t, prj, "install")
	publish := abstractGoal(t, prj, "publish")
	testerr.Shall1(prj.NewAction(nil, []*Goal{build},
		recOp{name: "build", log: &log},
	)).BeNil(t)
	testerr.Shall1(prj.NewAction([]*Goal{build}, []*Goal{install},
		recOp{name: "install", log: &log},
	)).BeNil(t)
	testerr.Shall1(prj.NewAction([]*Goal{build}, []*Goal{publish},
		recOp{name: "publish", log: &log},
	)).BeNil(t)

	tr, _ := newTestTrace(t)
	bd := testerr.Shall1(NewBuilder(tr, DefaultEnv(tr))).BeNil(t)
	testerr.Shall(bd.NamedGoals(prj, "install", "publish")).BeNil(t)
	want := []string{"build", "install", "publish"}
	if !slices.Equal(log, want) {
		t.Errorf("ops ran as %v, want %v", log, want)
	}

	log = nil
	testerr.Shall(bd.NamedGoals(prj, "publish")).BeNil(t)
	want = []string{"build", "publish"}
	if !slices.Equal(log, want) {
		t.Errorf("2nd build ran ops as %v, want %v", log, want)
	}
}

func TestBuilder_abortsOnError(t *testing.T) {
	var log []string
	boom := errors.New("exit status 1")
	prj := NewProject(t.Name())
	build := abstractGoal(t, prj, "build")
	install := abstractGoal(t, prj, "install")
	test := abstractGoal(t, prj, "test")
	force := abstractGoal(t, prj, "force")
	testerr.Shall1(prj.NewAction(nil, []*Goal{build},
		recOp{name: "build", log: &log},
	)).BeNil(t)
	testerr.Shall1(prj.NewAction([]*Goal{build}, []*Goal{install},
		recOp{name: "install", log: &log, fail: boom},
	)).BeNil(t)
	testerr.Shall1(prj.NewAction(nil, []*Goal{test},
		recOp{name: "test", log: &log},
	)).BeNil(t)
	testerr.Shall1(prj.NewAction([]*Goal{install, test}, []*Goal{force}, nil)).
		BeNil(t)

	tr, _ := newTestTrace(t)
	bd := testerr.Shall1(NewBuilder(tr, DefaultEnv(tr))).BeNil(t)
	if err := bd.NamedGoals(prj, "force"); !errors.Is(err, boom) {
		t.Fatalf("build did not fail with op error, got %v", err)
	}
	want := []string{"build", "install"}
	if !slices.Equal(log, want) {
		t.Errorf("ops ran as %v, want %v", log, want)
	}
}

func TestBuilder_ignoreError(t *testing.T) {
	var log []string
	prj := NewProject(t.Name())
	todo := abstractGoal(t, prj, "todo")
	act := testerr.Shall1(prj.NewAction(nil, []*Goal{todo},
		recOp{name: "todo", log: &log, fail: errors.New("exit status 1")},
	)).BeNil(t)
	act.IgnoreError = true

	tr, _ := newTestTrace(t)
	bd := testerr.Shall1(NewBuilder(tr, DefaultEnv(tr))).BeNil(t)
	testerr.Shall(bd.Project(prj)).BeNil(t)
	if !slices.Equal(log, []string{"todo"}) {
		t.Errorf("ops ran as %v", log)
	}
}

func TestBuilder_unknownGoal(t *testing.T) {
	prj := NewProject(t.Name())
	abstractGoal(t, prj, "build")
	tr, _ := newTestTrace(t)
	bd := testerr.Shall1(NewBuilder(tr, DefaultEnv(tr))).BeNil(t)
	testerr.Shall(bd.NamedGoals(prj, "deploy")).
		Check(t, testerr.Msg(
			"no goal named 'deploy' in project 'TestBuilder_unknownGoal'",
		))
}

type memArtefact struct {
	name   string
	exists bool
}

func (a *memArtefact) Name(*Project) string          { return a.name }
func (a *memArtefact) StateAt(*Project) time.Time    { return time.Time{} }
func (a *memArtefact) Exists(*Project) (bool, error) { return a.exists, nil }

func (a *memArtefact) Remove(*Project) error {
	a.exists = false
	return nil
}

func TestClean(t *testing.T) {
	prj := NewProject(t.Name())
	src := &memArtefact{name: "src", exists: true}
	out := &memArtefact{name: "out", exists: true}
	srcGoal := testerr.Shall1(prj.Goal(src)).BeNil(t)
	outGoal := testerr.Shall1(prj.Goal(out)).BeNil(t)
	testerr.Shall1(prj.NewAction([]*Goal{srcGoal}, []*Goal{outGoal}, nil)).
		BeNil(t)
	outGoal.SetRemovable(true)

	tr, rt := newTestTrace(t)
	testerr.Shall(Clean(prj, true, tr)).BeNil(t)
	if !out.exists {
		t.Error("dry run removed artefact")
	}
	testerr.Shall(Clean(prj, false, tr)).BeNil(t)
	if out.exists {
		t.Error("artefact not removed")
	}
	if !src.exists {
		t.Error("root artefact removed")
	}
	if !slices.Equal(rt.removed, []string{"out", "out"}) {
		t.Errorf("removals traced as %v", rt.removed)
	}
}
