package hive

// BuildHint tells a step's Build function why it runs.
type BuildHint int

const (
	Build BuildHint = iota + 1
	RootNode
	DepChanged
)

func (h BuildHint) String() string {
	switch h {
	case Build:
		return "Build"
	case RootNode:
		return "RootNode"
	case DepChanged:
		return "DepChanged"
	}
	return "None"
}

// When to build a step:
//
// Dependencies \ UpToDate
// |           | is nil | hint: none | hint: build |
// |-----------+--------+------------+-------------|
// | len == 0  | build  | –          | build       |
// | changed   | build  | build      | build       |
// | no change | –      | –          | build       |
//
//	changed:   dependency was built and has changed in this run
//	no change: otherwise
type Step struct {
	Name string

	// UpToDate, when set, decides whether the step has to build. A zero hint
	// means up-to-date.
	UpToDate func(s *Step) (BuildHint, error)

	// Build does the step's work and reports whether its outcome changed.
	Build func(s *Step, hint BuildHint) (changed bool, err error)

	tgts, prereqs []*Step
	changed       bool // dual-use: during a run it marks a changed dependency

	heapos   int
	depCount int
}

func NewStep(name string) *Step {
	return &Step{Name: name, heapos: -1}
}

func (s *Step) Description() string {
	if s.Name == "" {
		return "<anonymous step>"
	}
	return s.Name
}

// ForEach visits s and every step reachable over prerequisite and target
// links.
func (s *Step) ForEach(do func(s *Step)) (n int) {
	seen := map[*Step]bool{s: true}
	todo := []*Step{s}
	for len(todo) > 0 {
		next := todo[0]
		todo = todo[1:]
		do(next)
		n++
		for _, d := range next.prereqs {
			if !seen[d] {
				seen[d] = true
				todo = append(todo, d)
			}
		}
		for _, t := range next.tgts {
			if !seen[t] {
				seen[t] = true
				todo = append(todo, t)
			}
		}
	}
	return n
}

// AllPrereqs visits s and its transitive prerequisites.
func (s *Step) AllPrereqs(do func(s *Step)) (n int) {
	seen := map[*Step]bool{s: true}
	todo := []*Step{s}
	for len(todo) > 0 {
		next := todo[0]
		todo = todo[1:]
		do(next)
		n++
		for _, d := range next.prereqs {
			if !seen[d] {
				seen[d] = true
				todo = append(todo, d)
			}
		}
	}
	return n
}

func (s *Step) DependsOn(t *Step) bool {
	for _, d := range s.prereqs {
		if d == t {
			return true
		}
	}
	return false
}

func (s *Step) DependOn(ds ...*Step) *Step {
	for _, d := range ds {
		if !s.DependsOn(d) {
			s.prereqs = append(s.prereqs, d)
			d.tgts = append(d.tgts, s)
		}
	}
	return s
}

func (s *Step) Changed() bool { return s.changed }
