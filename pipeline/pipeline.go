// Package pipeline loads declarative YAML build pipelines and compiles them
// to [mkore.Project] goal/action graphs. A pipeline names a Python
// distribution and its targets; each target may depend on other targets and
// runs a sequence of shell commands.
package pipeline

import (
	"slices"
)

// Pipeline is the top level of a pipeline file.
type Pipeline struct {
	// Dist and Version identify the Python distribution the pipeline builds.
	// They feed the builtin ${dist}, ${version}, ${sdist} and ${wheel}
	// variables.
	Dist    string `yaml:"dist"`
	Version string `yaml:"version"`

	// Vars are expanded in target commands and env values.
	Vars map[string]string `yaml:"vars"`

	Targets map[string]*Target `yaml:"targets"`
}

// Target is one named goal of a [Pipeline].
type Target struct {
	Desc string `yaml:"desc"`

	// Deps are completed in declaration order before the target's own
	// commands run.
	Deps []string `yaml:"deps"`

	Env  map[string]string `yaml:"env"`
	Cmds []string          `yaml:"cmds"`

	// Hidden targets are not listed, they can still be run by name.
	Hidden bool `yaml:"hidden"`
}

// List returns the names of all non-hidden targets, sorted.
func (p *Pipeline) List() []string {
	var names []string
	for n, t := range p.Targets {
		if !t.Hidden {
			names = append(names, n)
		}
	}
	slices.Sort(names)
	return names
}
