package index

import "strings"

// TypeKind distinguishes the shapes of type descriptors found in method
// and field signatures.
type TypeKind int

const (
	// TypeKindClass is a reference type identified by a qualified name.
	TypeKindClass TypeKind = iota
	// TypeKindPrimitive is one of the primitive types ("int", "boolean", ...).
	TypeKindPrimitive
	// TypeKindVoid is the void return type.
	TypeKindVoid
	// TypeKindArray is an array of a component type.
	TypeKindArray
)

// String returns the lowercase kind name used in the wire format.
func (k TypeKind) String() string {
	switch k {
	case TypeKindClass:
		return "class"
	case TypeKindPrimitive:
		return "primitive"
	case TypeKindVoid:
		return "void"
	case TypeKindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Type is a resolved type descriptor. The zero value is not usable - use
// the constructor functions.
type Type struct {
	Kind TypeKind
	// Name is the qualified class name for class types, or the primitive
	// keyword for primitive types. Empty for void.
	Name DotName
	// Dimensions is the array depth for array types, 0 otherwise. The
	// component type of an array is given by Kind/Name of the element.
	Dimensions int
}

// VoidType returns the void type descriptor.
func VoidType() Type { return Type{Kind: TypeKindVoid} }

// ClassType returns a reference type descriptor for the given name.
func ClassType(name DotName) Type { return Type{Kind: TypeKindClass, Name: name} }

// PrimitiveType returns a primitive type descriptor ("int", "long", ...).
func PrimitiveType(keyword string) Type {
	return Type{Kind: TypeKindPrimitive, Name: DotName(keyword)}
}

// ArrayType returns an array descriptor of the given element type and depth.
func ArrayType(element DotName, dimensions int) Type {
	return Type{Kind: TypeKindArray, Name: element, Dimensions: dimensions}
}

// IsVoid reports whether the descriptor is the void type.
func (t Type) IsVoid() bool { return t.Kind == TypeKindVoid }

// String renders the descriptor in Java source form, e.g.
// "jakarta.interceptor.InvocationContext", "int" or "byte[][]".
func (t Type) String() string {
	switch t.Kind {
	case TypeKindVoid:
		return "void"
	case TypeKindArray:
		return string(t.Name) + strings.Repeat("[]", t.Dimensions)
	default:
		return string(t.Name)
	}
}
