package graphout

import (
	"github.com/loomproc/loom/pkg/index"
	"github.com/loomproc/loom/pkg/processor"
)

// FromDeployment builds the bean dependency graph of a processed
// deployment. Every bean becomes a node; edges are added for resolved
// injection points, interceptor applications and producer declarations.
// Injection points are assumed resolvable, which deployment validation
// guarantees.
func FromDeployment(d *processor.Deployment) (*Graph, error) {
	g := New()

	for _, b := range d.Beans() {
		kind := NodeKindBean
		switch b.Kind() {
		case processor.BeanKindProducerMethod, processor.BeanKindProducerField:
			kind = NodeKindProducer
		case processor.BeanKindInterceptor:
			kind = NodeKindInterceptor
		}
		node := Node{
			ID:    string(b.TargetClass()),
			Kind:  kind,
			Scope: b.Scope().Local(),
		}
		if p := b.Priority(); p != 0 {
			node.Meta = Metadata{"priority": p}
		}
		// Producer beans for a class that is also indexed as a managed
		// bean would collide; the first registration wins.
		if err := g.AddNode(node); err == ErrDuplicateNodeID {
			continue
		} else if err != nil {
			return nil, err
		}
	}

	for _, b := range d.Beans() {
		if err := addInjectionEdges(g, d, b); err != nil {
			return nil, err
		}
		if err := addProducerEdge(g, b); err != nil {
			return nil, err
		}
	}
	if err := addInterceptionEdges(g, d); err != nil {
		return nil, err
	}

	return g, nil
}

func addInjectionEdges(g *Graph, d *processor.Deployment, b *processor.BeanInfo) error {
	for _, ip := range b.InjectionPoints() {
		if ip.RequiredType.Kind != index.TypeKindClass {
			continue
		}
		for _, dep := range d.ResolveBeans(ip.RequiredType.Name, ip.Qualifiers) {
			err := g.AddEdge(Edge{
				From: string(b.TargetClass()),
				To:   string(dep.TargetClass()),
				Kind: EdgeKindInjects,
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func addProducerEdge(g *Graph, b *processor.BeanInfo) error {
	var declaring index.DotName
	switch t := b.Target().(type) {
	case *index.MethodInfo:
		declaring = t.DeclaringClass
	case *index.FieldInfo:
		declaring = t.DeclaringClass
	default:
		return nil
	}
	if _, ok := g.Node(string(declaring)); !ok {
		return nil
	}
	return g.AddEdge(Edge{
		From: string(declaring),
		To:   string(b.TargetClass()),
		Kind: EdgeKindProduces,
	})
}

func addInterceptionEdges(g *Graph, d *processor.Deployment) error {
	store := d.Store()
	for _, b := range d.Beans() {
		if b.IsInterceptor() {
			continue
		}
		cls, ok := b.Target().(*index.ClassInfo)
		if !ok {
			continue
		}
		bindings := store.BindingsOf(cls)
		if len(bindings) == 0 {
			continue
		}

		seen := map[string]bool{}
		for _, kind := range processor.Kinds {
			for _, i := range d.ResolveInterceptors(kind, bindings) {
				id := string(i.TargetClass())
				if seen[id] {
					continue
				}
				seen[id] = true
				err := g.AddEdge(Edge{
					From: id,
					To:   string(b.TargetClass()),
					Kind: EdgeKindIntercepts,
				})
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}
