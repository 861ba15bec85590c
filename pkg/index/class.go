package index

import (
	"fmt"
	"strings"
)

// Flags holds Java access and property flags for classes, methods and
// fields, using the standard modifier bit values.
type Flags uint32

// Modifier bits. Only the ones the processor inspects are named.
const (
	FlagPublic     Flags = 0x0001
	FlagPrivate    Flags = 0x0002
	FlagProtected  Flags = 0x0004
	FlagStatic     Flags = 0x0008
	FlagFinal      Flags = 0x0010
	FlagInterface  Flags = 0x0200
	FlagAbstract   Flags = 0x0400
	FlagSynthetic  Flags = 0x1000
	FlagAnnotation Flags = 0x2000
)

// IsStatic reports whether the static bit is set.
func (f Flags) IsStatic() bool { return f&FlagStatic != 0 }

// IsAbstract reports whether the abstract bit is set.
func (f Flags) IsAbstract() bool { return f&FlagAbstract != 0 }

// IsInterface reports whether the class is an interface.
func (f Flags) IsInterface() bool { return f&FlagInterface != 0 }

// IsSynthetic reports whether the element was generated by the compiler.
func (f Flags) IsSynthetic() bool { return f&FlagSynthetic != 0 }

// IsAnnotation reports whether the class is an annotation type.
func (f Flags) IsAnnotation() bool { return f&FlagAnnotation != 0 }

// ClassInfo is the indexed metadata of a single class: its hierarchy
// links, declared members and declared annotations. Instances are built
// once when an index archive is read and never mutated afterwards.
type ClassInfo struct {
	// Name is the qualified class name.
	Name DotName
	// SuperName is the qualified name of the direct superclass. Empty
	// only for java.lang.Object itself.
	SuperName DotName
	// Interfaces lists the directly implemented interfaces.
	Interfaces []DotName
	// Flags holds the class access flags.
	Flags Flags
	// Methods lists the declared methods, in declaration order.
	Methods []*MethodInfo
	// Fields lists the declared fields, in declaration order.
	Fields []*FieldInfo
	// Annotations lists the annotations declared directly on the class.
	Annotations []AnnotationInstance
}

// Kind implements AnnotationTarget.
func (c *ClassInfo) Kind() TargetKind { return TargetClass }

// String implements AnnotationTarget.
func (c *ClassInfo) String() string { return string(c.Name) }

// HasDeclaredAnnotation reports whether the class directly declares an
// annotation with the given name. Inherited and transformed annotations
// are resolved by the annotation store, not here.
func (c *ClassInfo) HasDeclaredAnnotation(name DotName) bool {
	return hasAnnotation(c.Annotations, name)
}

// DeclaredAnnotation returns the directly declared instance with the
// given name.
func (c *ClassInfo) DeclaredAnnotation(name DotName) (AnnotationInstance, bool) {
	return findAnnotation(c.Annotations, name)
}

// MethodInfo is the indexed metadata of a single method declaration.
type MethodInfo struct {
	// Name is the method name.
	Name string
	// DeclaringClass is the qualified name of the class declaring the
	// method.
	DeclaringClass DotName
	// Flags holds the method access flags.
	Flags Flags
	// Parameters lists the parameter types, in order.
	Parameters []Type
	// ReturnType is the declared return type.
	ReturnType Type
	// Annotations lists annotations declared directly on the method.
	Annotations []AnnotationInstance
	// ParameterAnnotations holds per-parameter annotation lists, indexed
	// by parameter position. May be shorter than Parameters when trailing
	// parameters carry no annotations.
	ParameterAnnotations [][]AnnotationInstance
}

// Kind implements AnnotationTarget.
func (m *MethodInfo) Kind() TargetKind { return TargetMethod }

// String implements AnnotationTarget. The rendering mirrors a Java
// signature so diagnostics read naturally:
//
//	void org.acme.ChargeInterceptor#aroundInvoke(jakarta.interceptor.InvocationContext)
func (m *MethodInfo) String() string {
	params := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s %s#%s(%s)", m.ReturnType, m.DeclaringClass, m.Name, strings.Join(params, ", "))
}

// HasDeclaredAnnotation reports whether the method directly declares an
// annotation with the given name.
func (m *MethodInfo) HasDeclaredAnnotation(name DotName) bool {
	return hasAnnotation(m.Annotations, name)
}

// DeclaredAnnotation returns the directly declared instance with the
// given name.
func (m *MethodInfo) DeclaredAnnotation(name DotName) (AnnotationInstance, bool) {
	return findAnnotation(m.Annotations, name)
}

// ParameterHasAnnotation reports whether the parameter at position pos
// declares an annotation with the given name.
func (m *MethodInfo) ParameterHasAnnotation(pos int, name DotName) bool {
	if pos < 0 || pos >= len(m.ParameterAnnotations) {
		return false
	}
	return hasAnnotation(m.ParameterAnnotations[pos], name)
}

// IsConstructor reports whether the method is a constructor declaration.
func (m *MethodInfo) IsConstructor() bool { return m.Name == "<init>" }

// FieldInfo is the indexed metadata of a single field declaration.
type FieldInfo struct {
	// Name is the field name.
	Name string
	// DeclaringClass is the qualified name of the class declaring the
	// field.
	DeclaringClass DotName
	// Flags holds the field access flags.
	Flags Flags
	// Type is the declared field type.
	Type Type
	// Annotations lists annotations declared directly on the field.
	Annotations []AnnotationInstance
}

// Kind implements AnnotationTarget.
func (f *FieldInfo) Kind() TargetKind { return TargetField }

// String implements AnnotationTarget.
func (f *FieldInfo) String() string {
	return fmt.Sprintf("%s %s#%s", f.Type, f.DeclaringClass, f.Name)
}

// HasDeclaredAnnotation reports whether the field directly declares an
// annotation with the given name.
func (f *FieldInfo) HasDeclaredAnnotation(name DotName) bool {
	return hasAnnotation(f.Annotations, name)
}

// DeclaredAnnotation returns the directly declared instance with the
// given name.
func (f *FieldInfo) DeclaredAnnotation(name DotName) (AnnotationInstance, bool) {
	return findAnnotation(f.Annotations, name)
}
