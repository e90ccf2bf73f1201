package module

import "fmt"

// Graph is the package-level import dependency graph over a set of
// modules, keyed by package identifier.
type Graph struct {
	edges map[string][]string
	known map[string]bool
}

// BuildGraph constructs the dependency graph for modules. Imports that
// reference a package not present in modules are kept as edges but are
// not considered "known" — useful for distinguishing an internal cycle
// from a reference to an external/library package.
func BuildGraph(modules []Module) *Graph {
	g := &Graph{edges: map[string][]string{}, known: map[string]bool{}}
	for _, m := range modules {
		g.known[m.Package] = true
	}
	for _, m := range modules {
		g.edges[m.Package] = append(g.edges[m.Package], m.Imports...)
	}
	return g
}

// Cycle is a closed import chain: pkg[0] imports pkg[1] ... imports pkg[0].
type Cycle struct {
	Packages []string
}

func (c Cycle) String() string {
	s := ""
	for i, p := range c.Packages {
		if i > 0 {
			s += " -> "
		}
		s += p
	}
	return s + " -> " + c.Packages[0]
}

// FindCycles returns every distinct import cycle among known packages in
// g, using a standard DFS with a recursion-stack color marking.
func (g *Graph) FindCycles() []Cycle {
	const (
		white = iota
		gray
		black
	)
	color := map[string]int{}
	var stack []string
	var cycles []Cycle

	var visit func(pkg string)
	visit = func(pkg string) {
		color[pkg] = gray
		stack = append(stack, pkg)

		for _, dep := range g.edges[pkg] {
			if !g.known[dep] {
				continue
			}
			switch color[dep] {
			case white:
				visit(dep)
			case gray:
				cycles = append(cycles, extractCycle(stack, dep))
			}
		}

		stack = stack[:len(stack)-1]
		color[pkg] = black
	}

	for pkg := range g.known {
		if color[pkg] == white {
			visit(pkg)
		}
	}
	return cycles
}

func extractCycle(stack []string, target string) Cycle {
	for i, p := range stack {
		if p == target {
			return Cycle{Packages: append([]string(nil), stack[i:]...)}
		}
	}
	return Cycle{Packages: []string{target}}
}

// UndefinedImports reports imports in modules that reference no known
// package in the graph — used by the semantic pass alongside rule-level
// undefined-reference checks.
func (g *Graph) UndefinedImports(modules []Module) map[string][]string {
	undefined := map[string][]string{}
	for _, m := range modules {
		for _, imp := range m.Imports {
			if !g.known[imp] {
				undefined[m.Package] = append(undefined[m.Package], imp)
			}
		}
	}
	return undefined
}

// Validate is a convenience wrapper returning an error describing the
// first cycle found, or nil.
func (g *Graph) Validate() error {
	if cycles := g.FindCycles(); len(cycles) > 0 {
		return fmt.Errorf("import cycle detected: %s", cycles[0])
	}
	return nil
}
