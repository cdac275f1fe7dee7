package mkfs

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"git.fractalqb.de/fractalqb/testerr"
	"github.com/jsmfsb/distmk/mkore"
)

type nopTracer struct{ t *testing.T }

func (tr nopTracer) Debug(_ *mkore.Trace, msg string, _ ...any) { tr.t.Log(msg) }
func (tr nopTracer) Info(_ *mkore.Trace, msg string, _ ...any)  { tr.t.Log(msg) }
func (tr nopTracer) Warn(_ *mkore.Trace, msg string, _ ...any)  { tr.t.Log(msg) }

func (nopTracer) StartProject(*mkore.Trace, *mkore.Project, string)               {}
func (nopTracer) DoneProject(*mkore.Trace, *mkore.Project, string, time.Duration) {}
func (nopTracer) RunAction(*mkore.Trace, *mkore.Action)                           {}
func (nopTracer) RunImplicitAction(*mkore.Trace, *mkore.Action)                   {}
func (nopTracer) ScheduleResTimeZero(*mkore.Trace, *mkore.Action, *mkore.Goal)    {}
func (nopTracer) ScheduleNotPremises(*mkore.Trace, *mkore.Action, *mkore.Goal)    {}
func (nopTracer) SchedulePreTimeZero(*mkore.Trace, *mkore.Action, *mkore.Goal, *mkore.Goal) {
}
func (nopTracer) ScheduleOutdated(*mkore.Trace, *mkore.Action, *mkore.Goal, *mkore.Goal) {}
func (nopTracer) CheckGoal(*mkore.Trace, *mkore.Goal)                                    {}
func (nopTracer) GoalUpToDate(*mkore.Trace, *mkore.Goal)                                 {}
func (nopTracer) GoalNeedsActions(*mkore.Trace, *mkore.Goal, int)                        {}
func (nopTracer) RemoveArtefact(*mkore.Trace, *mkore.Goal)                               {}

func mkTestFiles(t *testing.T, dir string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(dir, f)
		testerr.Shall(os.MkdirAll(filepath.Dir(p), 0o755)).BeNil(t)
		testerr.Shall(os.WriteFile(p, []byte(f+"\n"), 0o644)).BeNil(t)
	}
}

func TestFile_WithExt(t *testing.T) {
	f := File("dist/jsmfsb-1.1.1.whl")
	if g := f.WithExt("zip"); g != "dist/jsmfsb-1.1.1.zip" {
		t.Errorf("WithExt(zip): %s", g)
	}
	if g := f.WithExt(""); g != "dist/jsmfsb-1.1.1" {
		t.Errorf("WithExt(): %s", g)
	}
	if g := File("README").WithExt("md"); g != "README.md" {
		t.Errorf("WithExt(md): %s", g)
	}
}

func TestDirList_List(t *testing.T) {
	dir := t.TempDir()
	mkTestFiles(t, dir, "a.txt", "b.log", "sub/c.txt")
	prj := mkore.NewProject(dir)
	d := DirList{Dir: ".", Filter: NameMatch("*.txt")}
	ls := testerr.Shall1(d.List(prj)).BeNil(t)
	if !slices.Equal(ls, []string{"a.txt"}) {
		t.Errorf("unexpected ls %v", ls)
	}
}

func TestDirTree_List(t *testing.T) {
	dir := t.TempDir()
	mkTestFiles(t, dir, "a.txt", "b.log", "sub/c.txt")
	prj := mkore.NewProject(dir)
	d := DirTree{Dir: ".", Filter: All{IsDir(false), NameMatch("*.txt")}}
	ls := testerr.Shall1(d.List(prj)).BeNil(t)
	slices.Sort(ls)
	want := []string{"a.txt", filepath.Join("sub", "c.txt")}
	if !slices.Equal(ls, want) {
		t.Errorf("unexpected ls %v, want %v", ls, want)
	}
}

func TestDirTree_StateAt(t *testing.T) {
	dir := t.TempDir()
	mkTestFiles(t, dir, "a.txt", "sub/c.txt")
	prj := mkore.NewProject(dir)
	d := DirTree{Dir: ".", Filter: IsDir(false)}
	var want time.Time
	for _, f := range []string{"a.txt", "sub/c.txt"} {
		st := testerr.Shall1(os.Stat(filepath.Join(dir, f))).BeNil(t)
		if mt := st.ModTime(); mt.After(want) {
			want = mt
		}
	}
	if at := d.StateAt(prj); !at.Equal(want) {
		t.Errorf("unexpected mod time %s, want %s", at, want)
	}
}

func TestDirTree_Remove(t *testing.T) {
	dir := t.TempDir()
	mkTestFiles(t, dir, "dist/jsmfsb-1.1.1.tar.gz", "dist/sub/x")
	prj := mkore.NewProject(dir)
	d := DirTree{Dir: "dist"}
	testerr.Shall(d.Remove(prj)).BeNil(t)
	if _, err := os.Stat(filepath.Join(dir, "dist")); !os.IsNotExist(err) {
		t.Errorf("dist dir still there: %v", err)
	}
}

func TestCopy_buildsFileFromPremise(t *testing.T) {
	dir := t.TempDir()
	mkTestFiles(t, dir, "doc/foo.txt")
	prj := mkore.NewProject(dir)
	src := testerr.Shall1(prj.Goal(File("doc/foo.txt"))).BeNil(t)
	dst := testerr.Shall1(prj.Goal(File("out/foo.cp"))).BeNil(t)
	testerr.Shall1(prj.NewAction(
		[]*mkore.Goal{src},
		[]*mkore.Goal{dst},
		Copy{MkDirMode: 0o755},
	)).BeNil(t)

	tr := mkore.NewTrace(context.Background(), nopTracer{t})
	bd := testerr.Shall1(mkore.NewBuilder(tr, mkore.DefaultEnv(tr))).BeNil(t)
	testerr.Shall(bd.Project(prj)).BeNil(t)
	data := testerr.Shall1(os.ReadFile(filepath.Join(dir, "out/foo.cp"))).BeNil(t)
	if string(data) != "doc/foo.txt\n" {
		t.Errorf("unexpected copy content %q", data)
	}
}
