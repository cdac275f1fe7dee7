package mkore

import (
	"fmt"
	"math"
	"reflect"
	"sync"
	"time"

	"github.com/bits-and-blooms/bitset"
)

// Artefact represents the tangible outcome of a [Goal] being reached. A
// special case is the [Abstract] artefact that only provides a name.
type Artefact interface {
	// Name returns the name of the artefact. It must be unique in the project.
	Name(in *Project) string

	// StateAt returns the time at which the artefact reached its current
	// state. If this cannot be provided, the zero Time is returned.
	StateAt(in *Project) time.Time
}

// RemovableArtefact is implemented by artefacts that [Clean] may remove.
type RemovableArtefact interface {
	Artefact
	Exists(in *Project) (bool, error)
	Remove(in *Project) error
}

type Abstract string

var _ Artefact = Abstract("")

func (a Abstract) Name(*Project) string { return string(a) }

func (a Abstract) StateAt(*Project) time.Time { return time.Time{} }

type UpdateMode uint

const (
	// All actions must be run to reach the goal.
	UpdAllActions UpdateMode = 0

	// All actions with changed state must be run to reach the goal.
	UpdSomeActions UpdateMode = 1

	// Only one of the actions with changed state has to be run to reach the
	// goal.
	UpdAnyAction UpdateMode = 2

	// Only one action must have changed state. Then the goal is reached by
	// running that action.
	UpdOneAction UpdateMode = 3

	// An unordered update mode allows actions of the current goal to be run
	// in any order or even concurrently. Otherwise the actions must be run
	// one after the other in the specified order.
	UpdUnordered UpdateMode = 4

	updActions UpdateMode = 3
)

func (m UpdateMode) Actions() UpdateMode { return m & updActions }
func (m UpdateMode) Ordered() bool       { return (m & UpdUnordered) == 0 }

// A Goal is something you want to achieve in your [Project]. Each goal is
// associated with an [Artefact] – generally something tangible that is
// considered available and up-to-date when the goal is achieved. Abstract
// goals do not deliver tangible results.
//
// Goals are achieved by actions ([Action]). A goal can be the result of
// several actions at the same time; the goal's [UpdateMode] then decides
// whether and how the actions contribute. On the other hand a goal can be the
// premise of one or more actions. Such dependent actions must not run before
// the goal is reached.
type Goal struct {
	UpdateMode UpdateMode
	Artefact   Artefact

	prj       *Project
	resultOf  []*Action
	premiseOf []*Action
	removable bool

	sync.Mutex
	lastBID BuildID
}

func (g *Goal) Project() *Project { return g.prj }

func (g *Goal) Name() string { return g.Artefact.Name(g.Project()) }

// ResultOf returns the actions that result in this goal.
func (g *Goal) ResultOf() []*Action { return g.resultOf }

// PreAction returns [Goal.ResultOf]()[i].
func (g *Goal) PreAction(i int) *Action { return g.resultOf[i] }

// PremiseOf returns the actions that depend on g.
func (g *Goal) PremiseOf() []*Action { return g.premiseOf }

// PostAction returns [Goal.PremiseOf]()[i].
func (g *Goal) PostAction(i int) *Action { return g.premiseOf[i] }

func (g *Goal) IsAbstract() bool {
	_, ok := g.Artefact.(Abstract)
	return ok
}

// Removable tells if [Clean] is allowed to remove the goal's artefact.
func (g *Goal) Removable() bool     { return g.removable }
func (g *Goal) SetRemovable(r bool) { g.removable = r }

// UpdateConsistency requires involved to share an action with g.
func (g *Goal) UpdateConsistency(involved *Goal) error {
	if involved == g {
		return nil
	}
	switch len(g.resultOf) {
	case 0:
		return nil
	case 1:
		if len(involved.resultOf) <= 1 {
			return nil
		}
	}
	// Keep this conservative until partially built "involved" goals track
	// which of their actions already ran.
	return fmt.Errorf("update conflict of goal %s with involved goal %s",
		g,
		involved,
	)
}

func (g *Goal) String() string {
	tn := reflect.Indirect(reflect.ValueOf(g.Artefact)).Type().Name()
	return fmt.Sprintf("[%s]%s", g.Name(), tn)
}

// CheckPreTimes checks whether g needs updating according to the timestamps
// of the premises of all its actions. It returns the indices of the actions
// that have to run.
func (g *Goal) CheckPreTimes(tr *Trace) (chgs []int) {
	gaTS := g.Artefact.StateAt(g.Project())
	for actIdx, act := range g.resultOf {
		switch {
		case gaTS.IsZero():
			tr.scheduleResTimeZero(act, g)
			chgs = append(chgs, actIdx)
			continue
		case len(act.premises) == 0:
			tr.scheduleNotPremises(act, g)
			chgs = append(chgs, actIdx)
			continue
		}
	PREMISES:
		for _, pre := range act.premises {
			preTS := pre.Artefact.StateAt(g.Project())
			switch {
			case preTS.IsZero():
				tr.schedulePreTimeZero(act, g, pre)
				chgs = append(chgs, actIdx)
				break PREMISES
			case gaTS.Before(preTS):
				tr.scheduleOutdated(act, g, pre)
				chgs = append(chgs, actIdx)
				break PREMISES
			}
		}
	}
	return chgs
}

// LockBuild locks g once for the current build of g's project. If g was
// already locked for that build, 0 is returned.
func (g *Goal) LockBuild() BuildID {
	g.Mutex.Lock()
	if plb := g.Project().lastBuild; g.lastBID < plb {
		g.lastBID = plb
		return plb
	}
	g.Mutex.Unlock()
	return 0
}

// LockPreActions locks all actions that result in g. Competing goals with a
// larger gid back off and retry so that concurrent builders cannot deadlock.
func (g *Goal) LockPreActions(gid uintptr) {
	todo := len(g.resultOf)
	locked := bitset.New(uint(todo))

	var (
		i  uint = math.MaxUint
		ok bool
	)
	for todo > 0 {
		if i, ok = locked.NextClear(i + 1); !ok {
			if i, ok = locked.NextClear(0); !ok {
				panic("no next action to lock but todo > 0")
			}
		}
		blockGID := g.resultOf[i].tryLock(gid)
		if blockGID > gid { // lost the race, restart
			for j, ok := locked.NextSet(0); ok; j, ok = locked.NextSet(j + 1) {
				g.resultOf[j].unlock()
			}
			locked.ClearAll()
			todo = len(g.resultOf)
			// keep out of the winner's way for a moment
			time.Sleep(time.Millisecond)
		} else {
			locked.Set(i)
			todo--
		}
	}
}

func (g *Goal) UnlockPreActions() {
	for _, act := range g.resultOf {
		act.unlock()
	}
}
