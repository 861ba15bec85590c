package graphout

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestAddNodeErrors(t *testing.T) {
	g := New()

	if err := g.AddNode(Node{}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty) error = %v, want %v", err, ErrInvalidNodeID)
	}
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode(a) error = %v", err)
	}
	if err := g.AddNode(Node{ID: "a"}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(a) again error = %v, want %v", err, ErrDuplicateNodeID)
	}
}

func TestAddEdgeErrors(t *testing.T) {
	g := New()
	if err := g.AddNode(Node{ID: "a"}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	if err := g.AddEdge(Edge{From: "x", To: "a"}); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(x->a) error = %v, want %v", err, ErrUnknownSourceNode)
	}
	if err := g.AddEdge(Edge{From: "a", To: "x"}); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(a->x) error = %v, want %v", err, ErrUnknownTargetNode)
	}
}

func TestNodesSorted(t *testing.T) {
	g := New()
	for _, id := range []string{"c", "a", "b"} {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s) error = %v", id, err)
		}
	}

	var got []string
	for _, n := range g.Nodes() {
		got = append(got, n.ID)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Nodes() order = %v, want %v", got, want)
		}
	}
}

func TestCheckAcyclic(t *testing.T) {
	g := New()
	for _, id := range []string{"a", "b", "c"} {
		if err := g.AddNode(Node{ID: id}); err != nil {
			t.Fatalf("AddNode() error = %v", err)
		}
	}
	mustEdge := func(from, to string, kind EdgeKind) {
		t.Helper()
		if err := g.AddEdge(Edge{From: from, To: to, Kind: kind}); err != nil {
			t.Fatalf("AddEdge(%s->%s) error = %v", from, to, err)
		}
	}

	mustEdge("a", "b", EdgeKindInjects)
	mustEdge("b", "c", EdgeKindInjects)
	if err := g.CheckAcyclic(); err != nil {
		t.Fatalf("CheckAcyclic() error = %v, want nil", err)
	}

	// Interception edges do not participate in cycle checking.
	mustEdge("c", "a", EdgeKindIntercepts)
	if err := g.CheckAcyclic(); err != nil {
		t.Fatalf("CheckAcyclic() after interception edge error = %v, want nil", err)
	}

	mustEdge("c", "a", EdgeKindInjects)
	if err := g.CheckAcyclic(); !errors.Is(err, ErrGraphHasCycle) {
		t.Errorf("CheckAcyclic() error = %v, want %v", err, ErrGraphHasCycle)
	}
}

func fixtureGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	nodes := []Node{
		{ID: "org.acme.OrderService", Kind: NodeKindBean, Scope: "ApplicationScoped"},
		{ID: "org.acme.OrderRepository", Kind: NodeKindBean, Scope: "ApplicationScoped"},
		{ID: "org.acme.LoggedInterceptor", Kind: NodeKindInterceptor, Scope: "Dependent", Meta: Metadata{"priority": 100}},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s) error = %v", n.ID, err)
		}
	}
	edges := []Edge{
		{From: "org.acme.OrderService", To: "org.acme.OrderRepository", Kind: EdgeKindInjects},
		{From: "org.acme.LoggedInterceptor", To: "org.acme.OrderService", Kind: EdgeKindIntercepts},
	}
	for _, e := range edges {
		if err := g.AddEdge(e); err != nil {
			t.Fatalf("AddEdge() error = %v", err)
		}
	}
	return g
}

func TestRoundTrip(t *testing.T) {
	g := fixtureGraph(t)

	data, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := Read(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.NodeCount() != g.NodeCount() {
		t.Errorf("NodeCount() = %d, want %d", got.NodeCount(), g.NodeCount())
	}
	if len(got.Edges()) != len(g.Edges()) {
		t.Errorf("len(Edges()) = %d, want %d", len(got.Edges()), len(g.Edges()))
	}

	n, ok := got.Node("org.acme.LoggedInterceptor")
	if !ok {
		t.Fatalf("Node(org.acme.LoggedInterceptor) not found after round trip")
	}
	if n.Kind != NodeKindInterceptor {
		t.Errorf("Kind = %v, want %v", n.Kind, NodeKindInterceptor)
	}
	if n.Scope != "Dependent" {
		t.Errorf("Scope = %q, want Dependent", n.Scope)
	}
}

func TestReadMalformed(t *testing.T) {
	if _, err := Read(strings.NewReader("{not json")); err == nil {
		t.Errorf("Read() error = nil, want decode error")
	}
	// Edges referencing unknown nodes are rejected.
	doc := `{"nodes":[{"id":"a","kind":"bean"}],"edges":[{"from":"a","to":"x","kind":"injects"}]}`
	if _, err := Read(strings.NewReader(doc)); err == nil {
		t.Errorf("Read() error = nil, want unknown target error")
	}
}

func TestToDOT(t *testing.T) {
	g := fixtureGraph(t)
	dot := ToDOT(g, DotOptions{})

	for _, want := range []string{
		"digraph beans {",
		`"org.acme.OrderService" -> "org.acme.OrderRepository";`,
		`"org.acme.LoggedInterceptor" -> "org.acme.OrderService" [style=dashed];`,
		"fillcolor=lightgrey",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() missing %q in:\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	g := fixtureGraph(t)
	dot := ToDOT(g, DotOptions{Detailed: true})

	if !strings.Contains(dot, "scope: ApplicationScoped") {
		t.Errorf("ToDOT(Detailed) missing scope label in:\n%s", dot)
	}
	if !strings.Contains(dot, "priority: 100") {
		t.Errorf("ToDOT(Detailed) missing priority label in:\n%s", dot)
	}
}
