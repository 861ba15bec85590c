package graphout

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/loomproc/loom/pkg/errors"
)

// Document is the canonical node-link serialization of a bean graph.
// Used for API responses, storage and caching.
//
// The format is human-readable and round-trip safe: build, export and
// re-import produce the same graph.
type Document struct {
	Nodes []NodeRecord `json:"nodes" bson:"nodes"`
	Edges []EdgeRecord `json:"edges" bson:"edges"`
}

// NodeRecord is the wire form of a node.
type NodeRecord struct {
	ID    string         `json:"id" bson:"id"`
	Kind  string         `json:"kind" bson:"kind"`
	Scope string         `json:"scope,omitempty" bson:"scope,omitempty"`
	Meta  map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// EdgeRecord is the wire form of an edge.
type EdgeRecord struct {
	From string `json:"from" bson:"from"`
	To   string `json:"to" bson:"to"`
	Kind string `json:"kind" bson:"kind"`
}

func (k NodeKind) String() string {
	switch k {
	case NodeKindProducer:
		return "producer"
	case NodeKindInterceptor:
		return "interceptor"
	default:
		return "bean"
	}
}

func (k EdgeKind) String() string {
	switch k {
	case EdgeKindIntercepts:
		return "intercepts"
	case EdgeKindProduces:
		return "produces"
	default:
		return "injects"
	}
}

func nodeKindFrom(s string) NodeKind {
	switch s {
	case "producer":
		return NodeKindProducer
	case "interceptor":
		return NodeKindInterceptor
	default:
		return NodeKindBean
	}
}

func edgeKindFrom(s string) EdgeKind {
	switch s {
	case "intercepts":
		return EdgeKindIntercepts
	case "produces":
		return EdgeKindProduces
	default:
		return EdgeKindInjects
	}
}

// Marshal converts a graph to JSON bytes.
// Nodes are sorted by ID for deterministic output.
func Marshal(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes a graph to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// Write writes a graph as JSON to an io.Writer.
// Use Marshal for in-memory serialization or WriteFile for files.
func Write(g *Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// ReadFile reads a JSON file and returns the decoded graph.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return readGraphFrom(f)
}

// Read decodes a JSON graph from an io.Reader.
// Use ReadFile for files or pass bytes.NewReader for in-memory data.
func Read(r io.Reader) (*Graph, error) {
	return readGraphFrom(r)
}

func writeGraphTo(g *Graph, w io.Writer) error {
	doc := ToDocument(g)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode graph")
	}
	return nil
}

func readGraphFrom(r io.Reader) (*Graph, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	return FromDocument(doc)
}

// ToDocument converts a graph to its serialization format.
func ToDocument(g *Graph) Document {
	doc := Document{
		Nodes: make([]NodeRecord, 0, g.NodeCount()),
		Edges: make([]EdgeRecord, 0, len(g.edges)),
	}
	for _, n := range g.Nodes() {
		rec := NodeRecord{ID: n.ID, Kind: n.Kind.String(), Scope: n.Scope}
		if len(n.Meta) > 0 {
			rec.Meta = n.Meta
		}
		doc.Nodes = append(doc.Nodes, rec)
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeRecord{From: e.From, To: e.To, Kind: e.Kind.String()})
	}
	return doc
}

// FromDocument rebuilds a graph from its serialization format.
func FromDocument(doc Document) (*Graph, error) {
	g := New()
	for _, rec := range doc.Nodes {
		err := g.AddNode(Node{
			ID:    rec.ID,
			Kind:  nodeKindFrom(rec.Kind),
			Scope: rec.Scope,
			Meta:  rec.Meta,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "node %q", rec.ID)
		}
	}
	for _, rec := range doc.Edges {
		err := g.AddEdge(Edge{From: rec.From, To: rec.To, Kind: edgeKindFrom(rec.Kind)})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "edge %q -> %q", rec.From, rec.To)
		}
	}
	return g, nil
}
