// Package graphexport loads the capability graph of a generation run into
// Neo4j: packages, capabilities with their operation tables, scripts,
// authoring adapters and components.
package graphexport

import (
	"sort"
	"strconv"

	"martianoff/ecsgen/internal/generator"
	"martianoff/ecsgen/internal/ir"
	"martianoff/ecsgen/internal/source"
)

// Row is one UNWIND batch element.
type Row = map[string]any

// Graph holds the rows of every node and edge label, each sorted by key.
type Graph struct {
	Packages     []Row
	Capabilities []Row
	Operations   []Row
	Scripts      []Row
	Authorings   []Row
	Components   []Row
	// Extends links a capability to each capability it builds on.
	Extends []Row
	// Provides links a script to each capability it implements.
	Provides []Row
	// Authors links an authoring adapter to its script.
	Authors []Row
}

func key(pkg source.Package, name string) string {
	return pkg.Path + "." + name
}

// Build converts generated units into graph rows.
func Build(units []*generator.Unit, revision string) *Graph {
	g := &Graph{}
	pkgs := make(map[string]source.Package)
	for _, u := range units {
		if u.Node == nil {
			continue
		}
		pkg, name := u.Node.Identity()
		pkgs[pkg.Path] = pkg
		base := Row{
			"key": key(pkg, name), "name": name, "pkg": pkg.Path,
			"file": u.Decl.Location.File, "line": u.Decl.Location.Line,
			"revision": revision,
		}
		switch n := u.Node.(type) {
		case *ir.Interface:
			base["op_count"] = n.OpCount
			g.Capabilities = append(g.Capabilities, base)
			for _, b := range n.Bases {
				g.Extends = append(g.Extends, Row{"from": base["key"], "to": b.FullName()})
			}
			for _, op := range n.Operations() {
				owner := op.Owner()
				g.Operations = append(g.Operations, Row{
					"key":       base["key"].(string) + "#" + strconv.Itoa(op.ID),
					"cap":       base["key"],
					"id":        op.ID,
					"kind":      op.Kind.String(),
					"name":      op.Name(),
					"declarer":  owner.Capability.FullName(),
					"qualified": owner.Qualified,
				})
			}
		case *ir.Script:
			base["cap_count"] = len(n.Capabilities)
			g.Scripts = append(g.Scripts, base)
			for _, c := range n.Capabilities {
				g.Provides = append(g.Provides, Row{"from": base["key"], "to": c.FullName()})
			}
		case *ir.Authoring:
			base["script"] = n.Script.FullName()
			g.Authorings = append(g.Authorings, base)
			g.Authors = append(g.Authors, Row{"from": base["key"], "to": n.Script.FullName()})
		case *ir.Component:
			base["kind"] = n.Kind.String()
			g.Components = append(g.Components, base)
		}
	}
	for _, p := range pkgs {
		g.Packages = append(g.Packages, Row{"key": p.Path, "path": p.Path, "name": p.Name})
	}
	for _, rows := range [][]Row{g.Packages, g.Capabilities, g.Operations, g.Scripts, g.Authorings, g.Components} {
		sortBy(rows, "key")
	}
	for _, rows := range [][]Row{g.Extends, g.Provides, g.Authors} {
		sortEdges(rows)
	}
	return g
}

func sortBy(rows []Row, field string) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i][field].(string) < rows[j][field].(string)
	})
}

func sortEdges(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a["from"] != b["from"] {
			return a["from"].(string) < b["from"].(string)
		}
		return a["to"].(string) < b["to"].(string)
	})
}
