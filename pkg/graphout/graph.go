// Package graphout builds and renders the bean dependency graph of a
// processed deployment: beans and interceptors as nodes, injection and
// interception relations as edges. The graph serializes to a node-link
// JSON document and renders to Graphviz DOT and SVG.
package graphout

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is
	// empty. All nodes must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with
	// the same ID already exists. Node IDs must be unique.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From
	// node does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To
	// node does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrGraphHasCycle is returned by [Graph.CheckAcyclic] when the
	// injection relation contains a cycle. Cycles are detected using
	// depth-first search with white/gray/black coloring.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// NodeKind distinguishes the bean kinds shown in the graph.
type NodeKind int

const (
	// NodeKindBean is a managed class bean.
	NodeKindBean NodeKind = iota
	// NodeKindProducer is a producer method or field bean.
	NodeKindProducer
	// NodeKindInterceptor is an interceptor bean.
	NodeKindInterceptor
)

// EdgeKind distinguishes the relations shown in the graph.
type EdgeKind int

const (
	// EdgeKindInjects connects a bean to a bean it injects.
	EdgeKindInjects EdgeKind = iota
	// EdgeKindIntercepts connects an interceptor to a bean it applies to.
	EdgeKindIntercepts
	// EdgeKindProduces connects a declaring bean to its producer bean.
	EdgeKindProduces
)

// Metadata stores arbitrary key-value pairs attached to nodes.
type Metadata map[string]any

// Node represents a bean or interceptor in the dependency graph.
//
// The zero value is not usable - ID must be set before adding to a Graph.
type Node struct {
	ID    string   // Qualified class name
	Kind  NodeKind // Bean kind for styling
	Scope string   // Scope annotation local name
	Meta  Metadata // Arbitrary key-value metadata (never nil after AddNode)
}

// Edge represents a directed relation between two nodes.
type Edge struct {
	From string
	To   string
	Kind EdgeKind
}

// Graph is a directed graph of beans and their relations. Only the
// injection relation is required to be acyclic; interception and
// production edges are excluded from cycle checking.
//
// The zero value is not usable - use New. Graph is not safe for
// concurrent mutation without external synchronization.
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	outgoing map[string][]string // nodeID -> injection children IDs
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]string),
	}
}

// AddNode adds a node to the graph. Returns ErrInvalidNodeID if the
// node ID is empty, or ErrDuplicateNodeID if a node with the same ID
// already exists. The node's Meta field is initialized to an empty map
// if nil.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	g.nodes[n.ID] = &n
	return nil
}

// AddEdge adds a directed edge. Both endpoints must already exist.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	g.edges = append(g.edges, e)
	if e.Kind == EdgeKindInjects {
		g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	}
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by ID for deterministic output.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *Node) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// CheckAcyclic verifies that the injection relation contains no cycle.
func (g *Graph) CheckAcyclic() error {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[string]int, len(g.nodes))

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, next := range g.outgoing[id] {
			switch color[next] {
			case gray:
				return false
			case white:
				if !visit(next) {
					return false
				}
			}
		}
		color[id] = black
		return true
	}

	for _, n := range g.Nodes() {
		if color[n.ID] == white && !visit(n.ID) {
			return ErrGraphHasCycle
		}
	}
	return nil
}
