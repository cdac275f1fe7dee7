package pipeline

import (
	"os"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/syntax"

	"github.com/jsmfsb/distmk/dist"
)

// DefaultFile is the pipeline filename looked up in a project directory.
const DefaultFile = "distmk.yaml"

// Load reads and parses the pipeline file at path, expands all variables and
// validates the target graph and command syntax.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to read pipeline %s", path)
	}
	return Parse(data)
}

// Parse is [Load] on in-memory pipeline data.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "failed to parse pipeline")
	}
	if err := p.expandVars(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := p.checkCmds(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Distribution returns the validated distribution identity of the pipeline.
func (p *Pipeline) Distribution() (dist.Dist, error) {
	if p.Dist == "" {
		return dist.Dist{}, eris.New("pipeline without dist name")
	}
	d, err := dist.New(p.Dist, p.Version)
	if err != nil {
		return dist.Dist{}, eris.Wrap(err, "pipeline dist")
	}
	return d, nil
}

func (p *Pipeline) expandVars() error {
	vars := make(map[string]string, len(p.Vars)+4)
	if p.Dist != "" {
		d, err := p.Distribution()
		if err != nil {
			return err
		}
		vars["dist"] = d.Name
		vars["version"] = d.Version
		vars["sdist"] = d.SDist()
		vars["wheel"] = d.Wheel()
	}
	var expErr error
	// Only the braced ${name} form is a pipeline variable. Bare $NAME is
	// left alone for the shell.
	expand := func(s string) string {
		var sb strings.Builder
		for {
			i := strings.Index(s, "${")
			if i < 0 {
				break
			}
			j := strings.IndexByte(s[i:], '}')
			if j < 0 {
				break
			}
			name := s[i+2 : i+j]
			v, ok := vars[name]
			if !ok {
				if expErr == nil {
					expErr = eris.Errorf("undefined variable ${%s}", name)
				}
				v = ""
			}
			sb.WriteString(s[:i])
			sb.WriteString(v)
			s = s[i+j+1:]
		}
		sb.WriteString(s)
		return sb.String()
	}
	names := make([]string, 0, len(p.Vars))
	for n, v := range p.Vars {
		if _, ok := vars[n]; ok {
			return eris.Errorf("var %s shadows a builtin variable", n)
		}
		vars[n] = v
		names = append(names, n)
	}
	// One level of expansion within vars, e.g. artifacts: dist/${sdist}.
	// Expanding in sorted name order keeps var-in-var references
	// deterministic: a var sees earlier names already expanded.
	slices.Sort(names)
	for _, n := range names {
		vars[n] = expand(vars[n])
		if expErr != nil {
			return eris.Wrapf(expErr, "var %s", n)
		}
	}
	for name, tgt := range p.Targets {
		for i, cmd := range tgt.Cmds {
			tgt.Cmds[i] = expand(cmd)
			if expErr != nil {
				return eris.Wrapf(expErr, "target %s cmd %d", name, i+1)
			}
		}
		for k, v := range tgt.Env {
			tgt.Env[k] = expand(v)
			if expErr != nil {
				return eris.Wrapf(expErr, "target %s env %s", name, k)
			}
		}
	}
	return nil
}

// checkCmds parses every command so that shell syntax errors surface at load
// time, not in the middle of a build.
func (p *Pipeline) checkCmds() error {
	parser := syntax.NewParser()
	for name, tgt := range p.Targets {
		for i, cmd := range tgt.Cmds {
			_, err := parser.Parse(strings.NewReader(cmd), name)
			if err != nil {
				return eris.Wrapf(err, "target %s cmd %d", name, i+1)
			}
		}
	}
	return nil
}
