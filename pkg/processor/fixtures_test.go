package processor

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/loomproc/loom/pkg/annotations"
	"github.com/loomproc/loom/pkg/index"
)

// Shared builders for deployment fixtures. Class names follow the
// org.acme convention so diagnostics in failure output read naturally.

func quietLogger() *log.Logger { return log.New(io.Discard) }

func ann(name index.DotName) index.AnnotationInstance {
	return index.AnnotationInstance{Name: name}
}

// bindingClass declares an annotation type meta-annotated as an
// interceptor binding, optionally carrying further meta-annotations.
func bindingClass(name index.DotName, meta ...index.DotName) *index.ClassInfo {
	anns := []index.AnnotationInstance{ann(index.InterceptorBindingName)}
	for _, m := range meta {
		anns = append(anns, ann(m))
	}
	return &index.ClassInfo{
		Name:        name,
		SuperName:   index.ObjectName,
		Flags:       index.FlagAnnotation | index.FlagInterface | index.FlagAbstract,
		Annotations: anns,
	}
}

func qualifierClass(name index.DotName) *index.ClassInfo {
	return &index.ClassInfo{
		Name:        name,
		SuperName:   index.ObjectName,
		Flags:       index.FlagAnnotation | index.FlagInterface | index.FlagAbstract,
		Annotations: []index.AnnotationInstance{ann(index.QualifierName)},
	}
}

// callbackMethod declares an interceptor method with a valid signature
// for the given marker annotation.
func callbackMethod(declaring index.DotName, name string, marker index.DotName) *index.MethodInfo {
	return &index.MethodInfo{
		Name:           name,
		DeclaringClass: declaring,
		Parameters:     []index.Type{index.ClassType(index.InvocationContextName)},
		ReturnType:     index.ClassType(index.ObjectName),
		Annotations:    []index.AnnotationInstance{ann(marker)},
	}
}

func interceptorClass(name index.DotName, bindings []index.DotName, methods ...*index.MethodInfo) *index.ClassInfo {
	anns := []index.AnnotationInstance{ann(index.InterceptorName)}
	for _, b := range bindings {
		anns = append(anns, ann(b))
	}
	return &index.ClassInfo{
		Name:        name,
		SuperName:   index.ObjectName,
		Flags:       index.FlagPublic,
		Methods:     methods,
		Annotations: anns,
	}
}

func newStore(classes ...*index.ClassInfo) *annotations.Store {
	return annotations.NewStore(index.Build(classes))
}

func newDeployment(classes ...*index.ClassInfo) *Deployment {
	return NewDeployment(newStore(classes...), quietLogger())
}

func methodNames(methods []*index.MethodInfo) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = string(m.DeclaringClass) + "#" + m.Name
	}
	return out
}
