package distmk

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
	"github.com/jsmfsb/distmk/mkfs"
	"github.com/jsmfsb/distmk/mkore"
)

func TestGoals(t *testing.T) {
	prj := mkore.NewProject(t.Name())
	g1 := testerr.Should1(prj.Goal(mkore.Abstract("."))).BeNil(t)
	g2 := testerr.Should1(prj.Goal(mkfs.File("F"))).BeNil(t)
	gs := []*Goal{g1, g2}

	t.Run("not exclusive", func(t *testing.T) {
		res := testerr.Shall1(Goals(gs, false, Tangible, AType[mkfs.File])).BeNil(t)
		if l := len(res); l != 1 {
			t.Fatalf("filter yields %d goals", l)
		}
		if res[0] != g2 {
			t.Fatalf("filtered wrong goal: %s", res[0])
		}
	})

	t.Run("exclusive good", func(t *testing.T) {
		res := testerr.Shall1(Goals(gs, true, Tangible, AType[mkfs.File])).BeNil(t)
		if l := len(res); l != 1 {
			t.Fatalf("filter yields %d goals", l)
		}
		if res[0] != g2 {
			t.Fatalf("filtered wrong goal: %s", res[0])
		}
	})

	t.Run("exclusive fail", func(t *testing.T) {
		testerr.Shall1(Goals(gs, true, Tangible, AType[mkfs.DirTree])).
			Check(t, testerr.Msg("illegal goal 1: F"))
	})
}

func Test_buildProject(t *testing.T) {
	dir := t.TempDir()
	testerr.Shall(os.MkdirAll(filepath.Join(dir, "doc"), 0o755)).BeNil(t)
	testerr.Shall(os.WriteFile(
		filepath.Join(dir, "doc/foo.txt"),
		[]byte("foo\n"),
		0o644,
	)).BeNil(t)

	prj := NewProject(dir)
	testerr.Shall(Edit(prj, func(prj ProjectEd) {
		prj.Goal(mkfs.File("doc/foo.cp")).
			By(mkfs.Copy{}, prj.Goal(mkfs.File("doc/foo.txt")))
	})).BeNil(t)
	build := NewBuilder(
		mkore.NewTrace(context.Background(), TestTracer{t}),
		nil,
	)
	testerr.Shall(build.Project(prj)).BeNil(t)
	testerr.Shall1(os.Stat(filepath.Join(dir, "doc/foo.cp"))).BeNil(t)
}

func TestEdit_recoversPanic(t *testing.T) {
	prj := NewProject(t.Name())
	testerr.Shall(Edit(prj, func(prj ProjectEd) {
		prj.Goal(mkore.Abstract(""))
	})).Check(t, testerr.Msg(
		"unnamed artefact mkore.Abstract in project TestEdit_recoversPanic",
	))
}
