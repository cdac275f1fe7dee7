// Command distmk runs the targets of a distmk.yaml build pipeline. Without
// arguments it lists the pipeline's targets.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jsmfsb/distmk"
	"github.com/jsmfsb/distmk/mkore"
	"github.com/jsmfsb/distmk/pipeline"
)

var (
	dryRun  bool
	verbose bool
	jobs    int
	chdir   string
	dotFile string
	traceTo string
)

var rootCmd = &cobra.Command{
	Use:   "distmk [flags] [target...]",
	Short: "Run targets of a distmk.yaml build pipeline",
	Long: `distmk searches the next distmk.yaml file, starting in the working
directory and walking up, and runs the given targets with their dependencies.
Without targets it lists what the pipeline offers.`,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&dryRun, "dry", "n", false,
		"only print the commands, don't execute anything")
	flags.BoolVarP(&verbose, "verbose", "v", false,
		"log debug details of the build")
	flags.IntVarP(&jobs, "jobs", "j", 1,
		"number of targets to run in parallel")
	flags.StringVarP(&chdir, "dir", "C", "",
		"change to directory before searching the pipeline")
	flags.StringVar(&dotFile, "dot", "",
		"write the target graph as Graphviz dot to file and exit")
	flags.StringVar(&traceTo, "trace", "",
		"build trace verbosity: off, warn, info or debug")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", eris.ToString(err, verbose))
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if chdir != "" {
		if err := os.Chdir(chdir); err != nil {
			return eris.Wrap(err, "failed to change directory")
		}
	}
	pipePath, err := findPipeline()
	if err != nil {
		return err
	}
	p, err := pipeline.Load(pipePath)
	if err != nil {
		return err
	}
	if len(args) == 0 && dotFile == "" {
		listTargets(p)
		return nil
	}
	prj, err := p.Compile(filepath.Dir(pipePath), pipeline.CompileOpts{
		DryRun: dryRun,
	})
	if err != nil {
		return err
	}
	if dotFile != "" {
		return writeDot(prj)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger()
	if !verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}
	ctx := pipeline.WithLogger(context.Background(), &logger)

	tracer := &distmk.WriteTracer{W: os.Stderr, Log: mkore.TraceWarn}
	if err := tracer.ParseLogFlag(traceTo); err != nil {
		return err
	}
	tr := mkore.NewTrace(ctx, tracer)
	env := mkore.DefaultEnv(tr)

	if jobs > 1 {
		hb := distmk.NewHiveBuilder(tr, env, jobs)
		hb.Log = logger
		if !dryRun {
			var bar *progressbar.ProgressBar
			hb.StepDone = func(goal string, done, total int) {
				if bar == nil {
					bar = progressbar.NewOptions(total,
						progressbar.OptionSetDescription("targets"),
						progressbar.OptionSetWriter(os.Stderr),
						progressbar.OptionShowCount(),
						progressbar.OptionOnCompletion(func() {
							fmt.Fprintln(os.Stderr)
						}),
					)
				}
				_ = bar.Set(done)
			}
		}
		return hb.NamedGoals(prj, args...)
	}
	return distmk.NewBuilder(tr, env).NamedGoals(prj, args...)
}

// findPipeline searches the next pipeline file from the working directory
// upwards and returns its path relative to the working directory.
func findPipeline() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", eris.Wrap(err, "failed to retrieve the working directory")
	}
	dir := wd
	for {
		path := filepath.Join(dir, pipeline.DefaultFile)
		_, err := os.Stat(path)
		if err == nil {
			if rel, err := filepath.Rel(wd, path); err == nil {
				return rel, nil
			}
			return path, nil
		}
		if !eris.Is(err, os.ErrNotExist) {
			return "", eris.Wrapf(err, "failed to check %s", path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", eris.Errorf("no %s file found", pipeline.DefaultFile)
		}
		dir = parent
	}
}

func listTargets(p *pipeline.Pipeline) {
	fmt.Println("Available targets:")
	names := p.List()
	maxNameLen := 0
	for _, name := range names {
		if len(name) > maxNameLen {
			maxNameLen = len(name)
		}
	}
	lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+1)
	for _, name := range names {
		fmt.Printf(lineFmt, name+":", p.Targets[name].Desc)
	}
}

func writeDot(prj *mkore.Project) error {
	f, err := os.Create(dotFile)
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", dotFile)
	}
	defer f.Close()
	dia := distmk.Diagrammer{RankDir: "LR"}
	if err := dia.WriteDot(f, prj); err != nil {
		return eris.Wrap(err, "failed to write target graph")
	}
	return nil
}
