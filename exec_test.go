package distmk

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/jsmfsb/distmk/mkore"
)

func TestPipe(t *testing.T) {
	pipe := PipeOp{
		CmdOp{Exe: "tr", Args: []string{"0123456789", "9876543210"}},
		CmdOp{Exe: "sort"},
	}
	var out strings.Builder
	env := mkore.Env{
		In:  strings.NewReader("1234\n4711\n"),
		Out: &out,
		Err: os.Stderr,
	}
	tr := mkore.NewTrace(context.Background(), TestTracer{t})
	err := pipe.Do(tr, nil, &env)
	if err != nil {
		t.Error(err)
	}
	if s := out.String(); s != "5288\n8765\n" {
		t.Errorf("bad output '%s'", s)
	}
}

func TestPipe_empty(t *testing.T) {
	var out strings.Builder
	env := mkore.Env{In: strings.NewReader(""), Out: &out, Err: os.Stderr}
	tr := mkore.NewTrace(context.Background(), TestTracer{t})
	if err := (PipeOp{}).Do(tr, nil, &env); err != nil {
		t.Errorf("empty pipe: %s", err)
	}
}

func TestCmdOp_exitStatus(t *testing.T) {
	op := &CmdOp{Exe: "false"}
	var out strings.Builder
	env := mkore.Env{In: strings.NewReader(""), Out: &out, Err: os.Stderr}
	tr := mkore.NewTrace(context.Background(), TestTracer{t})
	if err := op.Do(tr, nil, &env); err == nil {
		t.Error("non-zero exit status not reported")
	}
}
