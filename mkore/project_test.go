package mkore

import (
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

func TestProject_Goal_dedup(t *testing.T) {
	prj := NewProject(t.Name())
	g1 := testerr.Shall1(prj.Goal(Abstract("build"))).BeNil(t)
	g2 := testerr.Shall1(prj.Goal(Abstract("build"))).BeNil(t)
	if g1 != g2 {
		t.Error("same artefact name yields distinct goals")
	}
	testerr.Shall1(prj.Goal(Abstract(""))).
		Check(t, testerr.Msg(
			"unnamed artefact mkore.Abstract in project TestProject_Goal_dedup",
		))
}

func TestProject_NewAction(t *testing.T) {
	prj := NewProject(t.Name())
	g := testerr.Shall1(prj.Goal(Abstract("build"))).BeNil(t)

	testerr.Shall1(prj.NewAction([]*Goal{g}, nil, nil)).
		Check(t, testerr.Msg("creating action implicit action without result"))

	other := NewProject("other")
	og := testerr.Shall1(other.Goal(Abstract("foreign"))).BeNil(t)
	testerr.Shall1(prj.NewAction([]*Goal{og}, []*Goal{g}, nil)).
		Check(t, testerr.Msg(
			"goal [foreign]Abstract not in project TestProject_NewAction",
		))
}

func TestProject_LeafsAndRoots(t *testing.T) {
	prj := NewProject(t.Name())
	build := testerr.Shall1(prj.Goal(Abstract("build"))).BeNil(t)
	install := testerr.Shall1(prj.Goal(Abstract("install"))).BeNil(t)
	src := testerr.Shall1(prj.Goal(Abstract("src"))).BeNil(t)
	testerr.Shall1(prj.NewAction([]*Goal{src}, []*Goal{build}, nil)).BeNil(t)
	testerr.Shall1(prj.NewAction([]*Goal{build}, []*Goal{install}, nil)).BeNil(t)

	ls := prj.Leafs()
	if len(ls) != 1 || ls[0] != install {
		t.Errorf("unexpected leafs %v", ls)
	}
	rs := prj.Roots()
	if len(rs) != 1 || rs[0] != src {
		t.Errorf("unexpected roots %v", rs)
	}
}
