// Package dist derives the artifact names of a Python distribution from a
// single name/version pair, so that building, installing and publishing all
// refer to the same files.
package dist

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Dist identifies one version of a Python distribution.
type Dist struct {
	Name    string
	Version string
}

var nameRegexp = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9._-]*[A-Za-z0-9])?$`)

// New validates name and version. Versions must parse as semantic versions.
func New(name, version string) (Dist, error) {
	if !nameRegexp.MatchString(name) {
		return Dist{}, fmt.Errorf("illegal distribution name '%s'", name)
	}
	if _, err := semver.NewVersion(version); err != nil {
		return Dist{}, fmt.Errorf("distribution version '%s': %w", version, err)
	}
	return Dist{Name: name, Version: version}, nil
}

func (d Dist) String() string { return d.Name + " " + d.Version }

// Norm returns the normalized distribution name: lowercase with runs of dots,
// hyphens and underscores collapsed to a single separator.
func (d Dist) Norm(sep byte) string {
	var sb strings.Builder
	pend := false
	for _, r := range strings.ToLower(d.Name) {
		switch r {
		case '.', '-', '_':
			pend = true
		default:
			if pend && sb.Len() > 0 {
				sb.WriteByte(sep)
			}
			pend = false
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// SDist returns the source distribution filename, e.g. "jsmfsb-1.1.1.tar.gz".
func (d Dist) SDist() string {
	return fmt.Sprintf("%s-%s.tar.gz", d.Norm('_'), d.Version)
}

// Wheel returns the filename of the pure-Python wheel, e.g.
// "jsmfsb-1.1.1-py3-none-any.whl".
func (d Dist) Wheel() string {
	return fmt.Sprintf("%s-%s-py3-none-any.whl", d.Norm('_'), d.Version)
}

// Glob returns a pattern matching all artifacts of this distribution version,
// e.g. "jsmfsb-1.1.1*".
func (d Dist) Glob() string {
	return fmt.Sprintf("%s-%s*", d.Norm('_'), d.Version)
}
