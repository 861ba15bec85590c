package index

import "fmt"

// TargetKind identifies the kind of program element an annotation is
// attached to.
type TargetKind int

const (
	// TargetClass is a class declaration.
	TargetClass TargetKind = iota
	// TargetMethod is a method declaration.
	TargetMethod
	// TargetField is a field declaration.
	TargetField
	// TargetParameter is a single method parameter.
	TargetParameter
)

// String returns the lowercase kind name.
func (k TargetKind) String() string {
	switch k {
	case TargetClass:
		return "class"
	case TargetMethod:
		return "method"
	case TargetField:
		return "field"
	case TargetParameter:
		return "parameter"
	default:
		return "unknown"
	}
}

// AnnotationTarget is a program element annotations can be attached to.
// It is implemented by *ClassInfo, *MethodInfo, *FieldInfo and
// MethodParameter.
type AnnotationTarget interface {
	// Kind returns the kind of the target element.
	Kind() TargetKind
	// String returns a diagnostic description of the element, suitable
	// for inclusion in error messages.
	String() string
}

// AnnotationInstance is a single annotation occurrence on a program
// element, with its member values as read from the index.
type AnnotationInstance struct {
	// Name is the qualified name of the annotation type.
	Name DotName
	// Values holds the annotation members by name. Values are the JSON
	// scalar types plus nested []any for array members. Never nil after
	// deserialization; may be empty.
	Values map[string]any
}

// Value returns the named member value, or nil if absent.
func (a AnnotationInstance) Value(name string) any {
	if a.Values == nil {
		return nil
	}
	return a.Values[name]
}

// IntValue returns the named member as an int. JSON numbers deserialize
// as float64, so both representations are accepted. Returns ok=false if
// the member is absent or not numeric.
func (a AnnotationInstance) IntValue(name string) (int, bool) {
	switch v := a.Value(name).(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// StringValue returns the named member as a string, or ok=false if the
// member is absent or not a string.
func (a AnnotationInstance) StringValue(name string) (string, bool) {
	v, ok := a.Value(name).(string)
	return v, ok
}

// MethodParameter identifies a single parameter of a method as an
// annotation target.
type MethodParameter struct {
	Method   *MethodInfo
	Position int
}

// Kind implements AnnotationTarget.
func (p MethodParameter) Kind() TargetKind { return TargetParameter }

// String implements AnnotationTarget.
func (p MethodParameter) String() string {
	return fmt.Sprintf("parameter %d of %s", p.Position, p.Method)
}

// hasAnnotation reports whether the declared list contains name.
func hasAnnotation(declared []AnnotationInstance, name DotName) bool {
	for _, a := range declared {
		if a.Name == name {
			return true
		}
	}
	return false
}

// findAnnotation returns the declared instance with the given name.
func findAnnotation(declared []AnnotationInstance, name DotName) (AnnotationInstance, bool) {
	for _, a := range declared {
		if a.Name == name {
			return a, true
		}
	}
	return AnnotationInstance{}, false
}
