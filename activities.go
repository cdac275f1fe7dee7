package distmk

import (
	"context"

	"github.com/jsmfsb/distmk/mkore"
)

func NewBuilder(tr *Trace, env *Env) *mkore.Builder {
	if tr == nil {
		tr = mkore.NewTrace(context.Background(), DefaultTracer())
	}
	res, _ := mkore.NewBuilder(tr, env)
	return res
}

func Clean(prj *Project, dryrun bool, tr *Trace) error {
	if tr == nil {
		tr = mkore.NewTrace(context.Background(), DefaultTracer())
	}
	return mkore.Clean(prj, dryrun, tr)
}
