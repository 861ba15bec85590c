// Package index provides the class-metadata index the deployment
// processor operates on.
//
// The index is a reflection-like view over an application's classes:
// declared methods, fields, hierarchy links and annotations, resolvable
// by qualified name without loading any class. It is read from a JSON
// archive produced by a bytecode indexer and is immutable once built.
//
// # Core Types
//
//   - [Index]: name-keyed lookup over [ClassInfo] entries
//   - [ClassInfo], [MethodInfo], [FieldInfo]: program elements
//   - [AnnotationInstance], [AnnotationTarget]: annotation occurrences
//   - [DotName], [Type]: qualified names and type descriptors
//
// # Reading an archive
//
//	idx, err := index.ReadIndexFile("app.idx.json")
//	if err != nil {
//	    return err
//	}
//	cls, ok := idx.ClassByName("org.acme.ChargeInterceptor")
package index

import (
	"sort"
)

// Index is a lookup table over class metadata keyed by qualified name.
// An Index is immutable after construction and safe for concurrent
// read-only use.
type Index struct {
	classes map[DotName]*ClassInfo
	// subclasses maps a class name to its known direct subclasses,
	// computed once at build time.
	subclasses map[DotName][]DotName
}

// Build creates an Index from the given classes. Later entries win when
// two classes share a name, matching last-archive-wins semantics for
// overlapping build inputs.
func Build(classes []*ClassInfo) *Index {
	idx := &Index{
		classes:    make(map[DotName]*ClassInfo, len(classes)),
		subclasses: make(map[DotName][]DotName),
	}
	for _, c := range classes {
		idx.classes[c.Name] = c
	}
	for _, c := range idx.classes {
		if !c.SuperName.IsEmpty() && c.SuperName != ObjectName {
			idx.subclasses[c.SuperName] = append(idx.subclasses[c.SuperName], c.Name)
		}
	}
	for _, subs := range idx.subclasses {
		sort.Slice(subs, func(i, j int) bool { return subs[i] < subs[j] })
	}
	return idx
}

// ClassByName returns the class with the given qualified name.
func (idx *Index) ClassByName(name DotName) (*ClassInfo, bool) {
	c, ok := idx.classes[name]
	return c, ok
}

// Classes returns all indexed classes sorted by qualified name. The
// sorted order keeps deployment scans deterministic across runs.
func (idx *Index) Classes() []*ClassInfo {
	out := make([]*ClassInfo, 0, len(idx.classes))
	for _, c := range idx.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ClassCount returns the number of indexed classes.
func (idx *Index) ClassCount() int { return len(idx.classes) }

// KnownDirectSubclasses returns the names of indexed classes whose direct
// superclass is the given name, sorted.
func (idx *Index) KnownDirectSubclasses(name DotName) []DotName {
	return idx.subclasses[name]
}

// SuperChain returns the superclass chain of the named class, starting
// with the class itself and ending with the last indexed ancestor below
// java.lang.Object. Ancestors missing from the index terminate the walk.
func (idx *Index) SuperChain(name DotName) []*ClassInfo {
	var chain []*ClassInfo
	for !name.IsEmpty() && name != ObjectName {
		c, ok := idx.classes[name]
		if !ok {
			break
		}
		chain = append(chain, c)
		name = c.SuperName
	}
	return chain
}

// AnnotatedClasses returns all classes directly declaring the given
// annotation, sorted by qualified name.
func (idx *Index) AnnotatedClasses(annotation DotName) []*ClassInfo {
	var out []*ClassInfo
	for _, c := range idx.Classes() {
		if c.HasDeclaredAnnotation(annotation) {
			out = append(out, c)
		}
	}
	return out
}
