package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"martianoff/ecsgen/internal/output"
)

var cleanDryRun bool

var cleanCmd = &cobra.Command{
	Use:   "clean [dir]",
	Short: "Remove generated files",
	Long: `Clean removes every file under dir (default: the working directory) that
ends in the generated suffix and starts with a generated-code header.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveDir()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			root = args[0]
		}
		removed, err := output.Clean(root, cfg.Generate.Suffix, cleanDryRun)
		if err != nil {
			return err
		}
		verb := "Removed"
		if cleanDryRun {
			verb = "Would remove"
		}
		for _, p := range removed {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %d files.\n", verb, len(removed))
		return nil
	},
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanDryRun, "dry-run", "n", false, "List files without removing them")
}
