package commands

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"martianoff/ecsgen/internal/diag"
	"martianoff/ecsgen/internal/output"
)

var checkFlags sourceFlags

var checkCmd = &cobra.Command{
	Use:   "check [packages...]",
	Short: "Fail when generated files are missing or stale",
	Long: `Check generates in memory and compares the result with the files on
disk. It exits non-zero when a generated file is missing, differs, or is no
longer produced by any declaration.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkFlags.manifest, "manifest", "", "Read declarations from a YAML manifest instead of Go packages")
	checkCmd.Flags().IntVar(&checkFlags.workers, "workers", 0, "Concurrent emitters (default: generate.workers)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, checkFlags, args)
	if err != nil {
		return err
	}
	reporter := &diag.WriterReporter{W: cmd.ErrOrStderr()}
	res, err := s.runner(checkFlags, nil, reporter).Run(ctx)
	if err != nil {
		return err
	}
	drift, err := output.Compare(res.Units, cfg.Generate.Suffix)
	if err != nil {
		return err
	}
	for _, d := range drift {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", d.Kind, s.rel(d.Path))
	}
	switch {
	case len(drift) > 0:
		return errors.Newf("%d generated files are out of date; run ecsgen generate", len(drift))
	case len(res.Diagnostics) > 0:
		return errors.Newf("generation reported %d diagnostics", len(res.Diagnostics))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d generated files are up to date.\n", len(res.Units))
	return nil
}
