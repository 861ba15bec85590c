// Package annotations resolves effective annotations for program elements.
//
// The store combines annotations declared in the class-metadata index with
// registered transformations (add/remove overlays), so downstream passes
// always ask the store instead of reading declared annotations directly.
// Resolution results are memoized per element; the store is safe for
// concurrent read use after construction.
package annotations

import (
	"sort"
	"sync"

	"github.com/loomproc/loom/pkg/index"
)

// Transformer mutates the effective annotation set of a single target
// kind. Transformers run during resolution in priority order (highest
// first); ties break on registration order so results stay deterministic.
type Transformer interface {
	// AppliesTo returns the target kind this transformer handles.
	AppliesTo() index.TargetKind
	// Priority orders transformer application, highest first.
	Priority() int
	// Transform inspects and rewrites the working annotation set.
	Transform(ctx TransformContext)
}

// TransformContext is the mutable working state handed to a Transformer.
type TransformContext interface {
	// Target returns the element being resolved.
	Target() index.AnnotationTarget
	// Annotations returns the current working set.
	Annotations() []index.AnnotationInstance
	// Add appends an annotation to the working set.
	Add(a index.AnnotationInstance)
	// Remove drops all annotations matching the predicate.
	Remove(match func(index.AnnotationInstance) bool)
}

// Store resolves effective annotations per program element.
type Store struct {
	idx          *index.Index
	transformers map[index.TargetKind][]Transformer

	mu       sync.RWMutex
	resolved map[index.AnnotationTarget][]index.AnnotationInstance
}

// NewStore creates a store over the given index with optional
// transformers. The transformer slice is copied and sorted by priority
// once at construction.
func NewStore(idx *index.Index, transformers ...Transformer) *Store {
	byKind := make(map[index.TargetKind][]Transformer)
	for _, t := range transformers {
		byKind[t.AppliesTo()] = append(byKind[t.AppliesTo()], t)
	}
	for _, ts := range byKind {
		sort.SliceStable(ts, func(i, j int) bool { return ts[i].Priority() > ts[j].Priority() })
	}
	return &Store{
		idx:          idx,
		transformers: byKind,
		resolved:     make(map[index.AnnotationTarget][]index.AnnotationInstance),
	}
}

// Index returns the underlying class-metadata index.
func (s *Store) Index() *index.Index { return s.idx }

// AnnotationsFor returns the effective annotations of the target. The
// returned slice is owned by the store and must not be modified.
func (s *Store) AnnotationsFor(target index.AnnotationTarget) []index.AnnotationInstance {
	s.mu.RLock()
	cached, ok := s.resolved[target]
	s.mu.RUnlock()
	if ok {
		return cached
	}

	result := s.resolve(target)

	s.mu.Lock()
	s.resolved[target] = result
	s.mu.Unlock()
	return result
}

// HasAnnotation reports whether the target effectively carries an
// annotation with the given name.
func (s *Store) HasAnnotation(target index.AnnotationTarget, name index.DotName) bool {
	for _, a := range s.AnnotationsFor(target) {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Annotation returns the effective annotation instance with the given
// name on the target.
func (s *Store) Annotation(target index.AnnotationTarget, name index.DotName) (index.AnnotationInstance, bool) {
	for _, a := range s.AnnotationsFor(target) {
		if a.Name == name {
			return a, true
		}
	}
	return index.AnnotationInstance{}, false
}

func (s *Store) resolve(target index.AnnotationTarget) []index.AnnotationInstance {
	working := append([]index.AnnotationInstance(nil), declared(target)...)

	ts := s.transformers[target.Kind()]
	if len(ts) == 0 {
		return working
	}

	ctx := &transformContext{target: target, annotations: working}
	for _, t := range ts {
		t.Transform(ctx)
	}
	return ctx.annotations
}

// declared returns the annotations written directly on the element.
func declared(target index.AnnotationTarget) []index.AnnotationInstance {
	switch t := target.(type) {
	case *index.ClassInfo:
		return t.Annotations
	case *index.MethodInfo:
		return t.Annotations
	case *index.FieldInfo:
		return t.Annotations
	case index.MethodParameter:
		if t.Position >= 0 && t.Position < len(t.Method.ParameterAnnotations) {
			return t.Method.ParameterAnnotations[t.Position]
		}
	}
	return nil
}

type transformContext struct {
	target      index.AnnotationTarget
	annotations []index.AnnotationInstance
}

func (c *transformContext) Target() index.AnnotationTarget { return c.target }

func (c *transformContext) Annotations() []index.AnnotationInstance { return c.annotations }

func (c *transformContext) Add(a index.AnnotationInstance) {
	c.annotations = append(c.annotations, a)
}

func (c *transformContext) Remove(match func(index.AnnotationInstance) bool) {
	kept := c.annotations[:0]
	for _, a := range c.annotations {
		if !match(a) {
			kept = append(kept, a)
		}
	}
	c.annotations = kept
}

// TransformerFunc adapts a function to the Transformer interface with a
// fixed kind and priority.
type TransformerFunc struct {
	Kind index.TargetKind
	Prio int
	Fn   func(ctx TransformContext)
}

// AppliesTo implements Transformer.
func (t TransformerFunc) AppliesTo() index.TargetKind { return t.Kind }

// Priority implements Transformer.
func (t TransformerFunc) Priority() int { return t.Prio }

// Transform implements Transformer.
func (t TransformerFunc) Transform(ctx TransformContext) { t.Fn(ctx) }
