package graph

// EdgeDescription is one possible transition for visualisation.
type EdgeDescription struct {
	From        string
	To          string
	Conditional bool
}

// Description is a static view of the graph wiring.
type Description struct {
	Entry string
	Nodes []string
	Edges []EdgeDescription
}

// Describe returns the nodes in registration order and every declared transition.
func (g *Graph) Describe() Description {
	d := Description{
		Entry: g.entry,
		Nodes: append([]string(nil), g.order...),
	}
	for _, from := range g.order {
		e, ok := g.edges[from]
		if !ok {
			continue
		}
		for _, to := range e.targets {
			d.Edges = append(d.Edges, EdgeDescription{From: from, To: to, Conditional: e.router != nil})
		}
	}
	return d
}
