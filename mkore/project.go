package mkore

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

type BuildID = uint64

// A Project holds the goals and actions that make up one build graph. The
// project directory is the reference point for all relative artefact paths.
type Project struct {
	Dir string

	sync.Mutex

	goals     map[string]*Goal
	actions   []*Action
	lastBuild BuildID
}

func NewProject(dir string) *Project {
	if dir == "" {
		dir, _ = os.Getwd()
	}
	return &Project{
		Dir:   dir,
		goals: make(map[string]*Goal),
	}
}

// Goal returns the project's goal for artefact atf, creating it on first use.
// Goals are identified by their artefact name within the project.
func (prj *Project) Goal(atf Artefact) (*Goal, error) {
	if atf == nil {
		atf = Abstract(fmt.Sprintf("artefact-%d", len(prj.goals)))
	}
	name := atf.Name(prj)
	if name == "" {
		return nil, fmt.Errorf("unnamed artefact %T in project %s", atf, prj)
	}
	if g := prj.goals[name]; g != nil {
		return g, nil
	}
	g := &Goal{Artefact: atf, prj: prj}
	prj.goals[name] = g
	return g, nil
}

func (prj *Project) FindGoal(name string) *Goal { return prj.goals[name] }

// Goals appends all goals of the project to addTo, sorted by name.
func (prj *Project) Goals(addTo []*Goal) []*Goal {
	if len(prj.goals) == 0 {
		return addTo
	}
	names := make([]string, 0, len(prj.goals))
	for n := range prj.goals {
		names = append(names, n)
	}
	slices.Sort(names)
	addTo = slices.Grow(addTo, len(names))
	for _, n := range names {
		addTo = append(addTo, prj.goals[n])
	}
	return addTo
}

func (prj *Project) Actions() []*Action { return prj.actions }

// Leafs returns the goals no other goal depends on, i.e. the top-level
// targets of the project.
func (prj *Project) Leafs() (ls []*Goal) {
	for _, g := range prj.Goals(nil) {
		if len(g.premiseOf) == 0 {
			ls = append(ls, g)
		}
	}
	return ls
}

// Roots returns the goals that are no result of any action.
func (prj *Project) Roots() (rs []*Goal) {
	for _, g := range prj.Goals(nil) {
		if len(g.resultOf) == 0 {
			rs = append(rs, g)
		}
	}
	return rs
}

// NewAction creates a new [Action] in project prj. There must be at least one
// result. All premises and results must belong to prj.
func (prj *Project) NewAction(premises, results []*Goal, op Operation) (*Action, error) {
	if len(results) == 0 {
		var desc string
		if op == nil {
			desc = "implicit action"
		} else {
			desc = op.Describe(nil, nil)
		}
		return nil, fmt.Errorf("creating action %s without result", desc)
	}
	if err := prj.checkGoals(premises); err != nil {
		return nil, err
	}
	if err := prj.checkGoals(results); err != nil {
		return nil, err
	}
	a := &Action{
		Op:       op,
		prj:      prj,
		premises: premises,
		results:  results,
	}
	for _, p := range premises {
		p.premiseOf = append(p.premiseOf, a)
	}
	for _, r := range results {
		r.resultOf = append(r.resultOf, a)
	}
	if err := updateConsistency(results); err != nil {
		return nil, err
	}
	prj.actions = append(prj.actions, a)
	return a, nil
}

func (prj *Project) checkGoals(gs []*Goal) error {
	for _, g := range gs {
		if g.Project() != prj {
			return fmt.Errorf("goal %s not in project %s", g, prj)
		}
	}
	return nil
}

func updateConsistency(results []*Goal) error {
	for _, g := range results {
		for _, act := range g.resultOf {
			for _, res := range act.results {
				if err := g.UpdateConsistency(res); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// LockBuild locks the project and starts a new build, returning its ID.
func (prj *Project) LockBuild() BuildID {
	prj.Lock()
	prj.lastBuild++
	return prj.lastBuild
}

// Build returns the ID of the current or, between builds, the last build.
func (prj *Project) Build() BuildID { return prj.lastBuild }

func (prj *Project) Name() string { return filepath.Base(prj.absDir()) }

func (prj *Project) String() string { return prj.Name() }

// AbsPath resolves p relative to the project directory.
func (prj *Project) AbsPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	return filepath.Abs(filepath.Join(prj.Dir, p))
}

// RelPath makes p relative to the project directory if possible.
func (prj *Project) RelPath(p string) (string, error) {
	if !filepath.IsAbs(p) {
		return filepath.Clean(p), nil
	}
	dir, err := filepath.Abs(prj.Dir)
	if err != nil {
		return "", err
	}
	rp, err := filepath.Rel(dir, p)
	if err != nil {
		return "", err
	}
	return rp, nil
}

func (prj *Project) absDir() string {
	dir := prj.Dir
	if dir == "" || dir == "." || strings.HasSuffix(dir, string(filepath.Separator)+".") {
		if tmp, err := filepath.Abs(dir); err == nil {
			dir = tmp
		}
	}
	return dir
}
