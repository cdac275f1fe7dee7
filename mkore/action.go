package mkore

import (
	"fmt"
	"hash"
	"sync"
)

// An Action is something you can do in your [Project] to achieve at least one
// [Goal]. The actual implementation of the action is an [Operation]. An
// action without an operation is an "implicit" action: if all its premises
// are given, all results of the action are implicitly given.
type Action struct {
	Op Operation

	// IgnoreError makes a failing operation not abort the build.
	IgnoreError bool

	prj      *Project
	premises []*Goal
	results  []*Goal

	mu       sync.Mutex
	lastBID  BuildID
	lockedBy uintptr
}

func (a *Action) Project() *Project { return a.prj }

func (a *Action) Premises() []*Goal     { return a.premises }
func (a *Action) Premise(i int) *Goal   { return a.premises[i] }
func (a *Action) Results() []*Goal      { return a.results }
func (a *Action) Result(i int) *Goal    { return a.results[i] }

// LastBuild returns the ID of the build that last ran the action.
func (a *Action) LastBuild() BuildID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastBID
}

// Run runs the action's operation once per build. It returns the build ID
// that ran the action before, so callers can detect actions that were already
// run within the current or even a younger build.
func (a *Action) Run(tr *Trace, env *Env) (BuildID, error) {
	bid := tr.Build()
	a.mu.Lock()
	prev := a.lastBID
	if prev >= bid {
		a.mu.Unlock()
		return prev, nil
	}
	a.lastBID = bid
	a.mu.Unlock()

	tr = tr.pushAction(a)
	if a.Op == nil {
		tr.runImplicitAction(a)
		return prev, nil
	}
	tr.runAction(a)
	if env == nil {
		env = DefaultEnv(tr)
	}
	err := a.Op.Do(tr, a, env)
	if err != nil && a.IgnoreError {
		tr.Warn("ignoring `error` of `action`",
			`error`, err.Error(),
			`action`, a.String(),
		)
		err = nil
	}
	return prev, err
}

func (a *Action) String() string {
	switch {
	case a == nil:
		return "<nil:Action>"
	case a.Op == nil:
		return "implicit:" + a.Project().Name()
	}
	return a.Op.Describe(a, nil)
}

// WriteHash writes a state hash of the action's operation to h. It returns
// false if the operation cannot be hashed.
func (a *Action) WriteHash(h hash.Hash, env *Env) (bool, error) {
	if a.Op == nil {
		fmt.Fprintln(h, "implicit")
		for _, p := range a.premises {
			fmt.Fprintln(h, p.Name())
		}
		return true, nil
	}
	return a.Op.WriteHash(h, a, env)
}

func (a *Action) tryLock(gid uintptr) uintptr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lockedBy == 0 || a.lockedBy == gid {
		a.lockedBy = gid
		return gid
	}
	return a.lockedBy
}

func (a *Action) unlock() {
	a.mu.Lock()
	a.lockedBy = 0
	a.mu.Unlock()
}

// An Operation implements the work done by an [Action].
type Operation interface {
	// The hints are optional.
	Describe(actionHint *Action, envHint *Env) string
	Do(tr *Trace, a *Action, env *Env) error
	WriteHash(h hash.Hash, a *Action, env *Env) (bool, error)
}
