// Package hive runs build steps concurrently with a fixed-size worker pool.
// Steps form a dependency graph; a step is handed to a worker once all of its
// prerequisites are done. Scheduling is driven by a heap keyed on the number
// of unfinished prerequisites.
package hive

import (
	"container/heap"
	"sync"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

type stepHeap []*Step

func (h stepHeap) Len() int { return len(h) }

func (h stepHeap) Less(i, j int) bool { return h[i].depCount < h[j].depCount }

func (h stepHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapos = i
	h[j].heapos = j
}

func (h *stepHeap) Push(x any) {
	s := x.(*Step)
	s.heapos = len(*h)
	*h = append(*h, s)
}

func (h *stepHeap) Pop() any {
	old := *h
	n := len(old) - 1
	s := old[n]
	old[n] = nil
	s.heapos = -1
	*h = old[:n]
	return s
}

// A Scheduler runs the steps of one dependency graph at a time over a [Hive].
type Scheduler struct {
	Log zerolog.Logger

	hive *Hive

	// heap, pending and err are guarded by heapChg.L
	heap    stepHeap
	heapChg sync.Cond
	pending int
	err     error
}

func NewScheduler(hive *Hive) *Scheduler {
	s := &Scheduler{Log: zerolog.Nop(), hive: hive}
	s.heapChg.L = new(sync.Mutex)
	return s
}

// Update builds root and everything root transitively depends on. It returns
// whether root's outcome changed and the first error of any step. On error no
// further steps are dispatched; steps already running finish first.
func (sd *Scheduler) Update(root *Step) (changed bool, err error) {
	root.AllPrereqs(func(s *Step) {
		s.changed = false
		s.depCount = len(s.prereqs)
		sd.heap = append(sd.heap, s)
	})
	for i, s := range sd.heap {
		s.heapos = i
	}
	heap.Init(&sd.heap)
	sd.err = nil
	sd.pending = 0

	resp := make(chan result)
	go func() {
		for res := range resp {
			sd.stepDone(res.step, res.changed, res.err)
		}
	}()

	sd.heapChg.L.Lock()
	for {
		for len(sd.heap) > 0 && sd.heap[0].depCount > 0 {
			sd.heapChg.Wait()
		}
		if len(sd.heap) == 0 {
			if sd.pending == 0 {
				break
			}
			sd.heapChg.Wait()
			continue
		}
		next := heap.Pop(&sd.heap).(*Step)
		sd.pending++
		sd.heapChg.L.Unlock()
		hint := DepChanged
		switch {
		case next == root:
			hint = RootNode
		case len(next.prereqs) == 0:
			hint = Build
		}
		sd.Log.Debug().Str("step", next.Description()).Msg("schedule")
		sd.hive.sched <- job{sd: sd, step: next, hint: hint, resp: resp}
		sd.heapChg.L.Lock()
	}
	sd.heapChg.L.Unlock()
	close(resp)
	return root.changed, sd.err
}

// stepDone accounts a finished step and releases its dependants in the heap.
// On error the heap is drained so that no further step gets dispatched.
func (sd *Scheduler) stepDone(s *Step, changed bool, err error) {
	sd.heapChg.L.Lock()
	defer sd.heapChg.L.Unlock()
	sd.pending--
	if err != nil {
		if sd.err == nil {
			sd.err = eris.Wrapf(err, "step %s", s.Description())
		}
		sd.Log.Error().Err(err).Str("step", s.Description()).Msg("failed")
		for _, h := range sd.heap {
			h.heapos = -1
		}
		sd.heap = sd.heap[:0]
		sd.heapChg.Broadcast()
		return
	}
	s.changed = changed
	for _, tgt := range s.tgts {
		if tgt.heapos < 0 {
			continue
		}
		tgt.depCount--
		if changed {
			tgt.changed = true
		}
		heap.Fix(&sd.heap, tgt.heapos)
	}
	sd.heapChg.Broadcast()
}

type job struct {
	sd   *Scheduler
	step *Step
	hint BuildHint
	resp chan<- result
}

type result struct {
	step    *Step
	changed bool
	err     error
}

// A Hive is a pool of worker goroutines shared by schedulers.
type Hive struct {
	sched chan job
	size  atomic.Int32
}

// NewHive starts size workers. Size values below 1 start one worker.
func NewHive(size int) *Hive {
	if size < 1 {
		size = 1
	}
	h := &Hive{sched: make(chan job)}
	h.size.Store(int32(size))
	for i := 0; i < size; i++ {
		go h.bee(i)
	}
	return h
}

// Close stops all workers once their current jobs are done.
func (h *Hive) Close() { close(h.sched) }

func (h *Hive) Size() int { return int(h.size.Load()) }

func (h *Hive) bee(id int) {
	defer h.size.Add(-1)
	for jb := range h.sched {
		jb.resp <- h.work(id, jb)
	}
}

func (h *Hive) work(id int, jb job) result {
	s := jb.step
	log := jb.sd.Log.With().Int("bee", id).Str("step", s.Description()).Logger()
	hint := jb.hint
	switch {
	case s.UpToDate != nil:
		uHint, err := s.UpToDate(s)
		if err != nil {
			return result{step: s, err: err}
		}
		if uHint == 0 && !s.changed {
			log.Debug().Msg("up to date")
			return result{step: s}
		}
		if uHint > hint {
			hint = uHint
		}
	case len(s.prereqs) > 0 && !s.changed && hint != RootNode:
		log.Debug().Msg("no dependency changed")
		return result{step: s}
	}
	if s.Build == nil {
		return result{step: s, changed: s.changed}
	}
	log.Info().Stringer("hint", hint).Msg("build")
	changed, err := s.Build(s, hint)
	return result{step: s, changed: changed, err: err}
}
