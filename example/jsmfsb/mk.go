// This is an example distmk project that drives the packaging of the jsmfsb
// Python distribution: build the sdist and wheel, install, test, format,
// publish.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jsmfsb/distmk"
	"github.com/jsmfsb/distmk/dist"
	"github.com/jsmfsb/distmk/mkfs"
	"github.com/jsmfsb/distmk/mkore"
)

var (
	// Operation: python -m build --sdist --wheel
	pyBuild = distmk.PyBuild{SDist: true, Wheel: true}

	// Operation: python -m pytest tests
	pyTest = distmk.Pytest{Dirs: []string{"tests"}}

	// Operation: python -m black on all Python sources
	pyFormat = distmk.Black{Dirs: []string{"src/jsmfsb", "tests", "demos"}}

	tracer = &distmk.WriteTracer{W: os.Stderr, Log: mkore.TraceWarn}

	clean, dryrun bool
	writeDot      bool
	jobs          int
)

func flags() {
	flag.BoolVar(&writeDot, "dot", writeDot, "Write graphviz file to stdout and exit")
	flag.BoolVar(&clean, "clean", clean, "Remove the built distribution files")
	flag.BoolVar(&dryrun, "n", dryrun, "Dryrun")
	flag.IntVar(&jobs, "j", 1, "Number of parallel workers")
	fTrace := flag.String("trace", "", "Set trace level")
	flag.Parse()

	if err := tracer.ParseLogFlag(*fTrace); err != nil {
		log.Fatal(err)
	}
}

func main() {
	flags()

	d, err := dist.New("jsmfsb", "1.1.1")
	if err != nil {
		log.Fatal(err)
	}

	// The project in current working dir
	prj := distmk.NewProject("")

	err = distmk.Edit(prj, func(prj distmk.ProjectEd) {
		srcs := prj.Goal(mkfs.DirTree{
			Dir:    "src/jsmfsb",
			Filter: mkfs.NameMatch("*.py"),
		})
		pyProject := prj.Goal(mkfs.File("pyproject.toml"))

		goalBuild := prj.Goal(mkfs.DirList{ // dist files of this version
			Dir:    "dist",
			Filter: mkfs.NameMatch(d.Glob()),
		}).
			By(&pyBuild, srcs, pyProject).
			SetRemovable(true) // Clean is allowed to remove these

		goalInstall := prj.AbstractGoal("install").
			By(&distmk.PipInstall{Upgrade: true}, goalBuild)

		goalTest := prj.AbstractGoal("test").By(&pyTest)

		prj.AbstractGoal("publish").
			By(&distmk.Twine{SkipExisting: true}, goalBuild)

		prj.AbstractGoal("format").By(&pyFormat)

		prj.AbstractGoal("edit").By(&distmk.EditCmd{
			Files: []string{"pyproject.toml", "src/jsmfsb/sim.py"},
		})

		todo := prj.AbstractGoal("todo").By(&distmk.TodoGrep{
			Files: []string{"pyproject.toml", "src/jsmfsb/*.py", "tests/*.py"},
		})
		// grep exits non-zero when no marker is left
		todo.Goal().ResultOf()[0].IgnoreError = true

		prj.AbstractGoal("FORCE").ImpliedBy(goalInstall, goalTest)
	})
	if err != nil {
		log.Fatal("editing project:", err)
	}
	tr := mkore.NewTrace(context.Background(), tracer)

	if clean {
		if err := distmk.Clean(prj, dryrun, tr); err != nil {
			log.Fatal(err)
		}
		return
	}

	if writeDot {
		dia := distmk.Diagrammer{RankDir: "LR"}
		if err := dia.WriteDot(os.Stdout, prj); err != nil {
			slog.Error(err.Error())
			os.Exit(1)
		}
		return
	}

	if jobs > 1 {
		build := distmk.NewHiveBuilder(tr, nil, jobs)
		if err := build.NamedGoals(prj, targets()...); err != nil {
			slog.Error(err.Error())
		}
		return
	}
	build := distmk.NewBuilder(tr, nil)
	if flag.NArg() == 0 {
		if err := build.Project(prj); err != nil {
			slog.Error(err.Error())
		}
	} else {
		if err := build.NamedGoals(prj, flag.Args()...); err != nil {
			slog.Error(err.Error())
		}
	}
}

func targets() []string {
	if flag.NArg() == 0 {
		return []string{"FORCE"}
	}
	return flag.Args()
}
