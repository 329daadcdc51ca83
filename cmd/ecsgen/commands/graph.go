package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"martianoff/ecsgen/internal/diag"
	"martianoff/ecsgen/internal/graphexport"
	"martianoff/ecsgen/internal/vcs"
)

var (
	graphFlags sourceFlags
	graphClean bool
	graphURI   string
)

var graphCmd = &cobra.Command{
	Use:   "graph [packages...]",
	Short: "Export the capability graph to Neo4j",
	Long: `Graph runs generation in memory and loads packages, capabilities with
their operation tables, scripts, authoring adapters and components into Neo4j.
Connection settings come from the [graph] section of ecsgen.toml or
ECSGEN_GRAPH_* environment variables.`,
	RunE: runGraph,
}

func init() {
	graphCmd.Flags().StringVar(&graphFlags.manifest, "manifest", "", "Read declarations from a YAML manifest instead of Go packages")
	graphCmd.Flags().BoolVar(&graphClean, "clean", false, "Delete previously exported nodes first")
	graphCmd.Flags().StringVar(&graphURI, "uri", "", "Neo4j URI (default: graph.uri)")
}

func runGraph(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, err := openSession(ctx, graphFlags, args)
	if err != nil {
		return err
	}
	reporter := &diag.WriterReporter{W: cmd.ErrOrStderr()}
	res, err := s.runner(graphFlags, nil, reporter).Run(ctx)
	if err != nil {
		return err
	}

	revision := ""
	if repo, err := vcs.Open(s.dir); err == nil {
		revision = repo.Head()
	}
	g := graphexport.Build(res.Units, revision)

	uri := cfg.Graph.URI
	if graphURI != "" {
		uri = graphURI
	}
	exec, err := graphexport.Connect(ctx, uri, cfg.Graph.User, cfg.Graph.Password, cfg.Graph.Database)
	if err != nil {
		return err
	}
	defer exec.Close(ctx)

	loader := &graphexport.Loader{Exec: exec, Batch: cfg.Graph.Batch}
	if graphClean {
		if err := loader.Clean(ctx); err != nil {
			return err
		}
	}
	if err := loader.Load(ctx, g); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d capabilities, %d scripts and %d components to %s.\n",
		len(g.Capabilities), len(g.Scripts), len(g.Components), uri)
	return nil
}
