package distmk

import (
	"strings"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
	"github.com/jsmfsb/distmk/mkfs"
)

func TestDiagrammer_WriteDot(t *testing.T) {
	prj := NewProject(t.Name())
	testerr.Shall(Edit(prj, func(prj ProjectEd) {
		build := prj.AbstractGoal("build").
			By(&PyBuild{OutDir: "dist"}, prj.Goal(mkfs.DirTree{Dir: "src"}))
		install := prj.AbstractGoal("install").
			By(&PipInstall{}, build)
		test := prj.AbstractGoal("test").By(&Pytest{})
		prj.AbstractGoal("FORCE").ImpliedBy(install, test)
	})).BeNil(t)

	var sb strings.Builder
	var dia Diagrammer
	testerr.Shall(dia.WriteDot(&sb, prj)).BeNil(t)
	dot := sb.String()
	if !strings.HasPrefix(dot, "digraph \"TestDiagrammer_WriteDot\" {") {
		t.Errorf("missing digraph header:\n%s", dot)
	}
	for _, label := range []string{"build", "install", "test", "FORCE"} {
		if !strings.Contains(dot, "label=\""+label+"\"") {
			t.Errorf("missing goal label %s", label)
		}
	}
	if !strings.HasSuffix(strings.TrimSpace(dot), "}") {
		t.Error("dot output not closed")
	}
}
