package processor

import (
	"fmt"
	"sort"

	"github.com/loomproc/loom/pkg/annotations"
	"github.com/loomproc/loom/pkg/index"
)

// BeanKind distinguishes how a bean was declared.
type BeanKind int

const (
	// BeanKindClass is a managed bean declared by a class.
	BeanKindClass BeanKind = iota
	// BeanKindProducerMethod is a bean declared by a producer method.
	BeanKindProducerMethod
	// BeanKindProducerField is a bean declared by a producer field.
	BeanKindProducerField
	// BeanKindInterceptor is an interceptor declaration. Interceptors are
	// beans with dependent scope.
	BeanKindInterceptor
)

// String returns the lowercase kind name.
func (k BeanKind) String() string {
	switch k {
	case BeanKindClass:
		return "class"
	case BeanKindProducerMethod:
		return "producer-method"
	case BeanKindProducerField:
		return "producer-field"
	case BeanKindInterceptor:
		return "interceptor"
	default:
		return "unknown"
	}
}

// InjectionPoint is a single dependency of a bean: an injected field or
// an initializer/constructor parameter.
type InjectionPoint struct {
	// Target is the injected element, for diagnostics.
	Target index.AnnotationTarget
	// RequiredType is the type to resolve.
	RequiredType index.Type
	// Qualifiers restricts candidate beans. Empty means @Default.
	Qualifiers []index.AnnotationInstance
}

// BeanInfo is the deployment model of a single discovered bean. A
// BeanInfo is built once during deployment processing and never mutated
// afterwards.
type BeanInfo struct {
	kind        BeanKind
	target      index.AnnotationTarget
	targetClass index.DotName
	scope       index.DotName
	types       []index.DotName
	qualifiers  []index.AnnotationInstance
	injection   []InjectionPoint
	priority    int
}

// Kind returns how the bean was declared.
func (b *BeanInfo) Kind() BeanKind { return b.kind }

// Target returns the declaring program element.
func (b *BeanInfo) Target() index.AnnotationTarget { return b.target }

// TargetClass returns the qualified name of the bean class. For producer
// beans this is the produced type's class.
func (b *BeanInfo) TargetClass() index.DotName { return b.targetClass }

// Scope returns the resolved scope annotation name.
func (b *BeanInfo) Scope() index.DotName { return b.scope }

// Types returns the set of bean types, sorted. The returned slice is a
// copy.
func (b *BeanInfo) Types() []index.DotName {
	return append([]index.DotName(nil), b.types...)
}

// HasType reports whether the given type is among the bean types.
func (b *BeanInfo) HasType(name index.DotName) bool {
	for _, t := range b.types {
		if t == name {
			return true
		}
	}
	return false
}

// Qualifiers returns the bean's qualifier annotations. The returned
// slice is a copy.
func (b *BeanInfo) Qualifiers() []index.AnnotationInstance {
	return append([]index.AnnotationInstance(nil), b.qualifiers...)
}

// InjectionPoints returns the bean's dependencies. The returned slice is
// a copy.
func (b *BeanInfo) InjectionPoints() []InjectionPoint {
	return append([]InjectionPoint(nil), b.injection...)
}

// Priority returns the bean's declared priority, or 0.
func (b *BeanInfo) Priority() int { return b.priority }

// IsInterceptor reports whether this bean is an interceptor declaration.
func (b *BeanInfo) IsInterceptor() bool { return b.kind == BeanKindInterceptor }

// String implements fmt.Stringer.
func (b *BeanInfo) String() string {
	return fmt.Sprintf("%s bean [types=%v, target=%s]", b.kind, b.types, b.target)
}

// newClassBean builds a managed bean from a class declaration. The bean
// types are the class itself, every indexed superclass below
// java.lang.Object, all directly implemented interfaces along that
// chain, and java.lang.Object.
func newClassBean(store *annotations.Store, cls *index.ClassInfo) *BeanInfo {
	b := &BeanInfo{
		kind:        BeanKindClass,
		target:      cls,
		targetClass: cls.Name,
		scope:       resolveScope(store, cls),
		types:       beanTypes(store.Index(), cls),
		qualifiers:  resolveQualifiers(store, cls),
		priority:    resolvePriority(store, cls),
	}
	b.injection = collectInjectionPoints(store, cls)
	return b
}

// newProducerMethodBean builds a bean from a producer method.
func newProducerMethodBean(store *annotations.Store, declaring *BeanInfo, m *index.MethodInfo) *BeanInfo {
	return &BeanInfo{
		kind:        BeanKindProducerMethod,
		target:      m,
		targetClass: m.ReturnType.Name,
		scope:       resolveScope(store, m),
		types:       producedTypes(store.Index(), m.ReturnType),
		qualifiers:  resolveQualifiers(store, m),
		priority:    declaring.priority,
	}
}

// newProducerFieldBean builds a bean from a producer field.
func newProducerFieldBean(store *annotations.Store, declaring *BeanInfo, f *index.FieldInfo) *BeanInfo {
	return &BeanInfo{
		kind:        BeanKindProducerField,
		target:      f,
		targetClass: f.Type.Name,
		scope:       resolveScope(store, f),
		types:       producedTypes(store.Index(), f.Type),
		qualifiers:  resolveQualifiers(store, f),
		priority:    declaring.priority,
	}
}

// resolveScope picks the first declared built-in scope, defaulting to
// dependent.
func resolveScope(store *annotations.Store, target index.AnnotationTarget) index.DotName {
	for _, scope := range index.BuiltinScopes {
		if store.HasAnnotation(target, scope) {
			return scope
		}
	}
	return index.DependentName
}

// resolveQualifiers collects effective qualifier annotations: every
// effective annotation whose type is marked @Qualifier in the index.
func resolveQualifiers(store *annotations.Store, target index.AnnotationTarget) []index.AnnotationInstance {
	var out []index.AnnotationInstance
	for _, a := range store.AnnotationsFor(target) {
		cls, ok := store.Index().ClassByName(a.Name)
		if !ok {
			continue
		}
		if store.HasAnnotation(cls, index.QualifierName) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// resolvePriority reads the @Priority value, or 0 when absent.
func resolvePriority(store *annotations.Store, target index.AnnotationTarget) int {
	a, ok := store.Annotation(target, index.PriorityName)
	if !ok {
		return 0
	}
	v, ok := a.IntValue("value")
	if !ok {
		return 0
	}
	return v
}

// beanTypes computes the bean type closure of a class.
func beanTypes(idx *index.Index, cls *index.ClassInfo) []index.DotName {
	seen := map[index.DotName]bool{index.ObjectName: true}
	types := []index.DotName{index.ObjectName}
	for _, c := range idx.SuperChain(cls.Name) {
		if !seen[c.Name] {
			seen[c.Name] = true
			types = append(types, c.Name)
		}
		for _, i := range c.Interfaces {
			if !seen[i] {
				seen[i] = true
				types = append(types, i)
			}
		}
	}
	// The class itself is part of the closure even when the index is
	// missing its record.
	if !seen[cls.Name] {
		types = append(types, cls.Name)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// producedTypes computes the bean types of a produced type: the type
// itself plus its indexed superclasses and interfaces.
func producedTypes(idx *index.Index, t index.Type) []index.DotName {
	if t.Kind != index.TypeKindClass {
		return []index.DotName{t.Name}
	}
	if cls, ok := idx.ClassByName(t.Name); ok {
		return beanTypes(idx, cls)
	}
	return []index.DotName{t.Name, index.ObjectName}
}

// collectInjectionPoints gathers @Inject fields and initializer
// parameters across the class hierarchy.
func collectInjectionPoints(store *annotations.Store, cls *index.ClassInfo) []InjectionPoint {
	var out []InjectionPoint
	for _, c := range store.Index().SuperChain(cls.Name) {
		for _, f := range c.Fields {
			if f.Flags.IsStatic() || !store.HasAnnotation(f, index.InjectName) {
				continue
			}
			out = append(out, InjectionPoint{
				Target:       f,
				RequiredType: f.Type,
				Qualifiers:   resolveQualifiers(store, f),
			})
		}
		for _, m := range c.Methods {
			if m.Flags.IsStatic() || !store.HasAnnotation(m, index.InjectName) {
				continue
			}
			for i, p := range m.Parameters {
				out = append(out, InjectionPoint{
					Target:       index.MethodParameter{Method: m, Position: i},
					RequiredType: p,
				})
			}
		}
	}
	return out
}
