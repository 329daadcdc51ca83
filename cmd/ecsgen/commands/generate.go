package commands

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"martianoff/ecsgen/internal/diag"
	"martianoff/ecsgen/internal/logger"
	"martianoff/ecsgen/internal/output"
	"martianoff/ecsgen/internal/source"
	"martianoff/ecsgen/internal/vcs"
)

var (
	generateFlags   sourceFlags
	generateDryRun  bool
	generateChanged bool
	noTrampolines   bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [packages...]",
	Short: "Generate code for marked declarations",
	Long: `Generate loads the given package patterns (default ./...), finds every
declaration marked for generation and writes one file per declaration next
to it, plus one registration file per package.

Examples:
  ecsgen generate ./...
  ecsgen generate --changed
  ecsgen generate --manifest game.yaml --dry-run`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateFlags.manifest, "manifest", "", "Read declarations from a YAML manifest instead of Go packages")
	generateCmd.Flags().IntVar(&generateFlags.workers, "workers", 0, "Concurrent emitters (default: generate.workers)")
	generateCmd.Flags().BoolVarP(&generateDryRun, "dry-run", "n", false, "Show what would be written without writing")
	generateCmd.Flags().BoolVar(&generateChanged, "changed", false, "Only regenerate packages with uncommitted changes")
	generateCmd.Flags().BoolVar(&noTrampolines, "no-trampolines", false, "Do not emit script trampolines")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if noTrampolines {
		cfg.Generate.Trampolines = false
	}
	s, err := openSession(ctx, generateFlags, args)
	if err != nil {
		return err
	}

	reporter := &diag.WriterReporter{W: cmd.ErrOrStderr()}
	r := s.runner(generateFlags, &output.DirSink{DryRun: generateDryRun}, reporter)

	if generateChanged {
		repo, err := vcs.Open(s.dir)
		if err != nil {
			return err
		}
		dirs, err := repo.ChangedDirs(cfg.Generate.Suffix)
		if err != nil {
			return err
		}
		if len(dirs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No changed packages.")
			return nil
		}
		changed := make(map[string]bool, len(dirs))
		for _, d := range dirs {
			changed[d] = true
		}
		r.Filter = func(d *source.Declaration) bool { return changed[d.Dir()] }
		logger.Logger.Infow("restricting to changed packages", "dirs", len(dirs))
	}

	res, err := r.Run(ctx)
	if err != nil {
		return err
	}
	verb := "Generated"
	if generateDryRun {
		verb = "Would generate"
	}
	for _, u := range res.Units {
		logger.Logger.Infow("unit", "path", s.rel(u.Path()), "tag", u.Tag)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %d files.\n", verb, len(res.Units))
	if n := len(res.Diagnostics); n > 0 {
		return errors.Newf("generation reported %d diagnostics", n)
	}
	return nil
}
