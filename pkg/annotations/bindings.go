package annotations

import (
	"sort"

	"github.com/loomproc/loom/pkg/index"
)

// IsBinding reports whether the named annotation type is an interceptor
// binding: its declaring class carries @InterceptorBinding. Annotation
// types missing from the index are never bindings.
func (s *Store) IsBinding(name index.DotName) bool {
	cls, ok := s.idx.ClassByName(name)
	if !ok {
		return false
	}
	return s.HasAnnotation(cls, index.InterceptorBindingName)
}

// BindingsOf returns the effective interceptor bindings of the target:
// every effective annotation that is a binding type, expanded with
// transitive bindings declared on the binding types themselves. The
// result is sorted by annotation name and deduplicated.
func (s *Store) BindingsOf(target index.AnnotationTarget) []index.AnnotationInstance {
	seen := make(map[index.DotName]bool)
	var out []index.AnnotationInstance

	var collect func(annotations []index.AnnotationInstance)
	collect = func(annotations []index.AnnotationInstance) {
		for _, a := range annotations {
			if seen[a.Name] || !s.IsBinding(a.Name) {
				continue
			}
			seen[a.Name] = true
			out = append(out, a)

			// A binding type may itself declare further bindings; those
			// apply transitively.
			if cls, ok := s.idx.ClassByName(a.Name); ok {
				collect(s.AnnotationsFor(cls))
			}
		}
	}
	collect(s.AnnotationsFor(target))

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BindingNames returns just the qualified names of BindingsOf, sorted.
func (s *Store) BindingNames(target index.AnnotationTarget) []index.DotName {
	bindings := s.BindingsOf(target)
	names := make([]index.DotName, len(bindings))
	for i, b := range bindings {
		names[i] = b.Name
	}
	return names
}
