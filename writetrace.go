package distmk

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"git.fractalqb.de/fractalqb/sllm/v3"
	"github.com/jsmfsb/distmk/mkore"
)

// WriteTracer writes build events as sllm-formatted lines to W.
type WriteTracer struct {
	W   io.Writer
	Log mkore.TraceLog
}

func DefaultTracer() mkore.Tracer {
	return &WriteTracer{W: os.Stderr, Log: mkore.TraceWarn}
}

func (tr *WriteTracer) ParseLogFlag(f string) error {
	switch f {
	case "":
		return nil
	case "off":
		tr.Log = 0
	case "warn", "w":
		tr.Log = mkore.TraceWarn
	case "info", "i":
		tr.Log = mkore.TraceWarn | mkore.TraceInfo
	case "debug", "d":
		tr.Log = mkore.TraceWarn | mkore.TraceInfo | mkore.TraceDebug
	default:
		return fmt.Errorf("write tracer: illegal log flag '%s'", f)
	}
	return nil
}

func (tr WriteTracer) Debug(t *Trace, msg string, args ...any) {
	if tr.Log&mkore.TraceDebug == 0 {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\tdebug: ", t.Build(), t.TopTag())
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr WriteTracer) Info(t *Trace, msg string, args ...any) {
	if tr.Log&(mkore.TraceInfo|mkore.TraceDebug) == 0 {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\tinfo: ", t.Build(), t.TopTag())
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr WriteTracer) Warn(t *Trace, msg string, args ...any) {
	if tr.Log&(mkore.TraceWarn|mkore.TraceInfo|mkore.TraceDebug) == 0 {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\twarn: ", t.Build(), t.TopTag())
	sllm.Fprint(tr.W, msg, sllmArgs(args).append)
	fmt.Fprintln(tr.W)
}

func (tr WriteTracer) StartProject(t *Trace, p *Project, activity string) {
	fmt.Fprintf(tr.W, "%d@%s\t>> %s project '%s' in %s\n",
		t.Build(),
		t.TopTag(),
		activity,
		p,
		p.Dir,
	)
}

func (tr WriteTracer) DoneProject(t *Trace, p *Project, activity string, dt time.Duration) {
	fmt.Fprintf(tr.W, "%d@%s\t<< %s project '%s' took %s\n",
		t.Build(),
		t.TopTag(),
		activity,
		p,
		dt,
	)
}

func (tr WriteTracer) logGoals() bool {
	return tr.Log&(mkore.TraceWarn|mkore.TraceInfo|mkore.TraceDebug) != 0
}

func (tr WriteTracer) logActions() bool {
	return tr.Log&(mkore.TraceInfo|mkore.TraceDebug) != 0
}

func (tr WriteTracer) RunAction(t *Trace, a *Action) {
	if tr.logActions() {
		fmt.Fprintf(tr.W, "%d@%s\t- run (%s)\n", t.Build(), t.TopTag(), a)
	}
}

func (tr WriteTracer) RunImplicitAction(t *Trace, _ *Action) {
	if tr.Log&mkore.TraceDebug != 0 {
		fmt.Fprintf(tr.W, "%d@%s\t- implicit action\n", t.Build(), t.TopTag())
	}
}

func (tr WriteTracer) ScheduleResTimeZero(t *Trace, a *Action, res *Goal) {
	if !tr.logActions() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t+ (%s) due: result [%s] has no state time\n",
		t.Build(),
		t.TopTag(),
		a,
		res,
	)
}

func (tr WriteTracer) ScheduleNotPremises(t *Trace, a *Action, res *Goal) {
	if !tr.logActions() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t+ (%s) due: no premise for result [%s]\n",
		t.Build(),
		t.TopTag(),
		a,
		res,
	)
}

func (tr WriteTracer) SchedulePreTimeZero(t *Trace, a *Action, res, pre *Goal) {
	if !tr.logActions() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t+ (%s) due: premise [%s] of [%s] has no state time\n",
		t.Build(),
		t.TopTag(),
		a,
		pre,
		res,
	)
}

func (tr WriteTracer) ScheduleOutdated(t *Trace, a *Action, res, pre *Goal) {
	if !tr.logActions() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t+ (%s) due: premise [%s] newer than [%s]\n",
		t.Build(),
		t.TopTag(),
		a,
		pre,
		res,
	)
}

func (tr WriteTracer) CheckGoal(t *Trace, g *Goal) {
	if !tr.logGoals() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t? [%s] %s\n",
		t.Build(),
		t.TopTag(),
		g,
		t.Path(),
	)
}

func (tr WriteTracer) GoalUpToDate(t *Trace, g *Goal) {
	if !tr.logGoals() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t. [%s] is up-to-date\n",
		t.Build(),
		t.TopTag(),
		g,
	)
}

func (tr WriteTracer) GoalNeedsActions(t *Trace, g *Goal, n int) {
	if !tr.logGoals() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t! [%s] needs %d actions\n",
		t.Build(),
		t.TopTag(),
		g,
		n,
	)
}

func (tr WriteTracer) RemoveArtefact(t *Trace, g *Goal) {
	if !tr.logGoals() {
		return
	}
	fmt.Fprintf(tr.W, "%d@%s\t! remove artefact [%s]\n",
		t.Build(),
		t.TopTag(),
		g,
	)
}

type sllmArgs []any

func (as sllmArgs) append(buf []byte, _ int, n string) ([]byte, error) {
	for len(as) > 0 {
		switch k := as[0].(type) {
		case string:
			if len(as) == 1 {
				return buf, fmt.Errorf("no value for key '%s'", n)
			}
			if k == n {
				return sllm.AppendArg(buf, as[1]), nil
			}
			as = as[2:]
		case slog.Attr:
			if k.Key == n {
				return sllm.AppendArg(buf, k.Value), nil
			}
			as = as[1:]
		default:
			return buf, fmt.Errorf("illegal key type %T", k)
		}
	}
	return buf, fmt.Errorf("no key '%s", n)
}
