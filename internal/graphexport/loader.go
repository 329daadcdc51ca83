package graphexport

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"martianoff/ecsgen/internal/logger"
)

// Executor runs one Cypher statement.
type Executor interface {
	Run(ctx context.Context, cypher string, params map[string]any) error
}

// Neo4jExecutor runs statements through a driver.
type Neo4jExecutor struct {
	driver   neo4j.DriverWithContext
	database string
}

// Connect creates a driver and verifies connectivity.
func Connect(ctx context.Context, uri, user, password, database string) (*Neo4jExecutor, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.Wrapf(err, "connecting to %s", uri)
	}
	return &Neo4jExecutor{driver: driver, database: database}, nil
}

// Run implements Executor.
func (e *Neo4jExecutor) Run(ctx context.Context, cypher string, params map[string]any) error {
	_, err := neo4j.ExecuteQuery(ctx, e.driver, cypher, params, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(e.database))
	return err
}

// Close releases the driver.
func (e *Neo4jExecutor) Close(ctx context.Context) error {
	return e.driver.Close(ctx)
}

// Loader writes a Graph with batched UNWIND statements.
type Loader struct {
	Exec Executor
	// Batch bounds rows per statement; zero sends each label in one batch.
	Batch int
}

var indexes = []string{
	"CREATE INDEX ecs_pkg_key IF NOT EXISTS FOR (n:EcsPackage) ON (n.key)",
	"CREATE INDEX ecs_cap_key IF NOT EXISTS FOR (n:EcsCapability) ON (n.key)",
	"CREATE INDEX ecs_op_key IF NOT EXISTS FOR (n:EcsOperation) ON (n.key)",
	"CREATE INDEX ecs_script_key IF NOT EXISTS FOR (n:EcsScript) ON (n.key)",
	"CREATE INDEX ecs_authoring_key IF NOT EXISTS FOR (n:EcsAuthoring) ON (n.key)",
	"CREATE INDEX ecs_component_key IF NOT EXISTS FOR (n:EcsComponent) ON (n.key)",
}

const (
	cypherPackages = `UNWIND $batch AS row
MERGE (n:EcsPackage {key: row.key})
SET n.path = row.path, n.name = row.name`

	cypherCapabilities = `UNWIND $batch AS row
MERGE (n:EcsCapability {key: row.key})
SET n.name = row.name, n.package = row.pkg, n.file = row.file, n.line = row.line,
    n.op_count = row.op_count, n.revision = row.revision
WITH n, row
MATCH (p:EcsPackage {key: row.pkg})
MERGE (n)-[:IN_PACKAGE]->(p)`

	cypherOperations = `UNWIND $batch AS row
MERGE (o:EcsOperation {key: row.key})
SET o.id = row.id, o.kind = row.kind, o.name = row.name,
    o.declarer = row.declarer, o.qualified = row.qualified
WITH o, row
MATCH (c:EcsCapability {key: row.cap})
MERGE (c)-[:HAS_OP]->(o)`

	cypherScripts = `UNWIND $batch AS row
MERGE (n:EcsScript {key: row.key})
SET n.name = row.name, n.package = row.pkg, n.file = row.file, n.line = row.line,
    n.cap_count = row.cap_count, n.revision = row.revision
WITH n, row
MATCH (p:EcsPackage {key: row.pkg})
MERGE (n)-[:IN_PACKAGE]->(p)`

	cypherAuthorings = `UNWIND $batch AS row
MERGE (n:EcsAuthoring {key: row.key})
SET n.name = row.name, n.package = row.pkg, n.file = row.file, n.line = row.line,
    n.script = row.script, n.revision = row.revision
WITH n, row
MATCH (p:EcsPackage {key: row.pkg})
MERGE (n)-[:IN_PACKAGE]->(p)`

	cypherComponents = `UNWIND $batch AS row
MERGE (n:EcsComponent {key: row.key})
SET n.name = row.name, n.package = row.pkg, n.file = row.file, n.line = row.line,
    n.kind = row.kind, n.revision = row.revision
WITH n, row
MATCH (p:EcsPackage {key: row.pkg})
MERGE (n)-[:IN_PACKAGE]->(p)`

	cypherExtends = `UNWIND $batch AS row
MATCH (a:EcsCapability {key: row.from})
MERGE (b:EcsCapability {key: row.to})
MERGE (a)-[:EXTENDS]->(b)`

	cypherProvides = `UNWIND $batch AS row
MATCH (s:EcsScript {key: row.from})
MERGE (c:EcsCapability {key: row.to})
MERGE (s)-[:PROVIDES]->(c)`

	cypherAuthors = `UNWIND $batch AS row
MATCH (a:EcsAuthoring {key: row.from})
MERGE (s:EcsScript {key: row.to})
MERGE (a)-[:AUTHORS]->(s)`
)

// Clean removes every node this package creates.
func (l *Loader) Clean(ctx context.Context) error {
	logger.Logger.Info("Cleaning existing capability graph...")
	for _, label := range []string{"EcsOperation", "EcsCapability", "EcsScript", "EcsAuthoring", "EcsComponent", "EcsPackage"} {
		if err := l.Exec.Run(ctx, "MATCH (n:"+label+") DETACH DELETE n", nil); err != nil {
			return errors.Wrapf(err, "cleaning %s", label)
		}
	}
	return nil
}

// Load creates indexes and upserts every row of g. Nodes load before the
// edges that reference them.
func (l *Loader) Load(ctx context.Context, g *Graph) error {
	for _, q := range indexes {
		if err := l.Exec.Run(ctx, q, nil); err != nil {
			return errors.Wrap(err, "creating indexes")
		}
	}
	steps := []struct {
		name   string
		cypher string
		rows   []Row
	}{
		{"packages", cypherPackages, g.Packages},
		{"capabilities", cypherCapabilities, g.Capabilities},
		{"operations", cypherOperations, g.Operations},
		{"scripts", cypherScripts, g.Scripts},
		{"authorings", cypherAuthorings, g.Authorings},
		{"components", cypherComponents, g.Components},
		{"extends", cypherExtends, g.Extends},
		{"provides", cypherProvides, g.Provides},
		{"authors", cypherAuthors, g.Authors},
	}
	for _, s := range steps {
		if len(s.rows) == 0 {
			continue
		}
		logger.Logger.Infof("Loading %d %s...", len(s.rows), s.name)
		for _, batch := range batches(s.rows, l.Batch) {
			if err := l.Exec.Run(ctx, s.cypher, map[string]any{"batch": batch}); err != nil {
				return errors.Wrapf(err, "loading %s", s.name)
			}
		}
	}
	return nil
}

func batches(rows []Row, size int) [][]Row {
	if size <= 0 || len(rows) <= size {
		return [][]Row{rows}
	}
	var out [][]Row
	for start := 0; start < len(rows); start += size {
		out = append(out, rows[start:min(start+size, len(rows))])
	}
	return out
}
