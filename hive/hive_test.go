package hive

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

type runRec struct {
	sync.Mutex
	order []string
}

func (r *runRec) build(s *Step, _ BuildHint) (bool, error) {
	r.Lock()
	defer r.Unlock()
	r.order = append(r.order, s.Name)
	return true, nil
}

func (r *runRec) ran() []string {
	r.Lock()
	defer r.Unlock()
	return slices.Clone(r.order)
}

func (r *runRec) index(name string) int {
	return slices.Index(r.ran(), name)
}

// build -> install, test and FORCE on top of install and test
func forceNet(rec *runRec) *Step {
	build := NewStep("build")
	build.Build = rec.build
	install := NewStep("install").DependOn(build)
	install.Build = rec.build
	tst := NewStep("test")
	tst.Build = rec.build
	force := NewStep("FORCE").DependOn(install, tst)
	force.Build = rec.build
	return force
}

func TestScheduler_runOrder(t *testing.T) {
	hive := NewHive(2)
	defer hive.Close()
	var rec runRec
	force := forceNet(&rec)

	changed := testerr.Shall1(NewScheduler(hive).Update(force)).BeNil(t)
	if !changed {
		t.Error("root did not change")
	}
	ran := rec.ran()
	if len(ran) != 4 {
		t.Fatalf("ran %d steps %v, want 4", len(ran), ran)
	}
	if rec.index("build") > rec.index("install") {
		t.Error("install ran before build")
	}
	if rec.index("FORCE") != 3 {
		t.Errorf("FORCE was not last: %v", ran)
	}
}

func TestScheduler_errorStopsDispatch(t *testing.T) {
	hive := NewHive(1)
	defer hive.Close()
	var rec runRec
	boom := errors.New("boom")
	build := NewStep("build")
	build.Build = func(*Step, BuildHint) (bool, error) { return false, boom }
	install := NewStep("install").DependOn(build)
	install.Build = rec.build

	_, err := NewScheduler(hive).Update(install)
	if err == nil {
		t.Fatal("error of build step was dropped")
	}
	if !strings.Contains(err.Error(), "step build") {
		t.Errorf("unexpected error %s", err)
	}
	if len(rec.ran()) != 0 {
		t.Errorf("dependant steps still ran: %v", rec.ran())
	}
}

func TestScheduler_skipsUnchangedDependants(t *testing.T) {
	hive := NewHive(1)
	defer hive.Close()
	var rec runRec
	leaf := NewStep("leaf")
	leaf.Build = func(s *Step, h BuildHint) (bool, error) {
		_, err := rec.build(s, h)
		return false, err
	}
	mid := NewStep("mid").DependOn(leaf)
	mid.Build = rec.build
	root := NewStep("root").DependOn(mid)
	root.Build = rec.build

	testerr.Shall1(NewScheduler(hive).Update(root)).BeNil(t)
	ran := rec.ran()
	if slices.Contains(ran, "mid") {
		t.Errorf("mid ran without a changed dependency: %v", ran)
	}
	if !slices.Contains(ran, "root") {
		t.Errorf("root must always run: %v", ran)
	}
}

func TestScheduler_upToDateOverride(t *testing.T) {
	hive := NewHive(1)
	defer hive.Close()
	var rec runRec
	leaf := NewStep("leaf")
	leaf.Build = func(s *Step, h BuildHint) (bool, error) {
		_, err := rec.build(s, h)
		return false, err
	}
	mid := NewStep("mid").DependOn(leaf)
	mid.UpToDate = func(*Step) (BuildHint, error) { return Build, nil }
	mid.Build = rec.build
	root := NewStep("root").DependOn(mid)
	root.Build = rec.build

	testerr.Shall1(NewScheduler(hive).Update(root)).BeNil(t)
	if !slices.Contains(rec.ran(), "mid") {
		t.Errorf("outdated mid was skipped: %v", rec.ran())
	}
}

func TestStep_DependOn(t *testing.T) {
	a, b := NewStep("a"), NewStep("b")
	b.DependOn(a, a)
	if len(b.prereqs) != 1 {
		t.Errorf("duplicate dependency recorded: %d", len(b.prereqs))
	}
	if !b.DependsOn(a) {
		t.Error("b does not depend on a")
	}
	if n := b.ForEach(func(*Step) {}); n != 2 {
		t.Errorf("ForEach visits %d steps, want 2", n)
	}
	if n := a.AllPrereqs(func(*Step) {}); n != 1 {
		t.Errorf("AllPrereqs of a visits %d steps, want 1", n)
	}
}
