package annotations

import (
	"testing"

	"github.com/loomproc/loom/pkg/index"
)

func annotation(name index.DotName) index.AnnotationInstance {
	return index.AnnotationInstance{Name: name, Values: map[string]any{}}
}

func TestAnnotationsForDeclared(t *testing.T) {
	cls := &index.ClassInfo{
		Name:        "org.acme.Foo",
		SuperName:   index.ObjectName,
		Annotations: []index.AnnotationInstance{annotation(index.InterceptorName)},
	}
	store := NewStore(index.Build([]*index.ClassInfo{cls}))

	if !store.HasAnnotation(cls, index.InterceptorName) {
		t.Error("HasAnnotation() = false for declared annotation")
	}
	if store.HasAnnotation(cls, index.ProducesName) {
		t.Error("HasAnnotation() = true for absent annotation")
	}
}

func TestTransformerAdd(t *testing.T) {
	cls := &index.ClassInfo{Name: "org.acme.Foo", SuperName: index.ObjectName}
	store := NewStore(index.Build([]*index.ClassInfo{cls}), TransformerFunc{
		Kind: index.TargetClass,
		Fn: func(ctx TransformContext) {
			ctx.Add(annotation(index.InterceptorName))
		},
	})

	if !store.HasAnnotation(cls, index.InterceptorName) {
		t.Error("transformer-added annotation not visible")
	}
	// Declared annotations stay untouched.
	if cls.HasDeclaredAnnotation(index.InterceptorName) {
		t.Error("transformer mutated the declared annotation list")
	}
}

func TestTransformerRemove(t *testing.T) {
	m := &index.MethodInfo{
		Name:           "produce",
		DeclaringClass: "org.acme.Foo",
		ReturnType:     index.ClassType("org.acme.Widget"),
		Annotations:    []index.AnnotationInstance{annotation(index.ProducesName)},
	}
	store := NewStore(index.Build(nil), TransformerFunc{
		Kind: index.TargetMethod,
		Fn: func(ctx TransformContext) {
			ctx.Remove(func(a index.AnnotationInstance) bool {
				return a.Name == index.ProducesName
			})
		},
	})

	if store.HasAnnotation(m, index.ProducesName) {
		t.Error("removed annotation still visible")
	}
}

func TestTransformerPriorityOrder(t *testing.T) {
	cls := &index.ClassInfo{Name: "org.acme.Foo", SuperName: index.ObjectName}
	var order []string
	store := NewStore(index.Build([]*index.ClassInfo{cls}),
		TransformerFunc{Kind: index.TargetClass, Prio: 1, Fn: func(TransformContext) { order = append(order, "low") }},
		TransformerFunc{Kind: index.TargetClass, Prio: 10, Fn: func(TransformContext) { order = append(order, "high") }},
	)

	store.AnnotationsFor(cls)
	if len(order) != 2 || order[0] != "high" || order[1] != "low" {
		t.Errorf("transformer order = %v, want [high low]", order)
	}
}

func TestResolutionMemoized(t *testing.T) {
	cls := &index.ClassInfo{Name: "org.acme.Foo", SuperName: index.ObjectName}
	calls := 0
	store := NewStore(index.Build([]*index.ClassInfo{cls}), TransformerFunc{
		Kind: index.TargetClass,
		Fn:   func(TransformContext) { calls++ },
	})

	store.AnnotationsFor(cls)
	store.AnnotationsFor(cls)
	if calls != 1 {
		t.Errorf("transformer ran %d times, want 1 (memoized)", calls)
	}
}

func TestParameterAnnotations(t *testing.T) {
	m := &index.MethodInfo{
		Name:           "dispose",
		DeclaringClass: "org.acme.Foo",
		Parameters:     []index.Type{index.ClassType("org.acme.Widget")},
		ReturnType:     index.VoidType(),
		ParameterAnnotations: [][]index.AnnotationInstance{
			{annotation(index.DisposesName)},
		},
	}
	store := NewStore(index.Build(nil))

	param := index.MethodParameter{Method: m, Position: 0}
	if !store.HasAnnotation(param, index.DisposesName) {
		t.Error("HasAnnotation() = false for parameter annotation")
	}
	missing := index.MethodParameter{Method: m, Position: 5}
	if store.HasAnnotation(missing, index.DisposesName) {
		t.Error("HasAnnotation() = true for out-of-range parameter")
	}
}

func bindingType(name index.DotName, meta ...index.DotName) *index.ClassInfo {
	annotations := []index.AnnotationInstance{annotation(index.InterceptorBindingName)}
	for _, m := range meta {
		annotations = append(annotations, annotation(m))
	}
	return &index.ClassInfo{
		Name:        name,
		SuperName:   index.ObjectName,
		Flags:       index.FlagAnnotation,
		Annotations: annotations,
	}
}

func TestBindingsOf(t *testing.T) {
	charged := bindingType("org.acme.Charged")
	idx := index.Build([]*index.ClassInfo{charged})
	store := NewStore(idx)

	cls := &index.ClassInfo{
		Name:      "org.acme.ChargeInterceptor",
		SuperName: index.ObjectName,
		Annotations: []index.AnnotationInstance{
			annotation(index.InterceptorName),
			annotation("org.acme.Charged"),
		},
	}

	bindings := store.BindingsOf(cls)
	if len(bindings) != 1 || bindings[0].Name != "org.acme.Charged" {
		t.Errorf("BindingsOf() = %v, want [org.acme.Charged]", bindings)
	}
}

func TestBindingsOfTransitive(t *testing.T) {
	// audited is a binding that itself carries the charged binding.
	charged := bindingType("org.acme.Charged")
	audited := bindingType("org.acme.Audited", "org.acme.Charged")
	store := NewStore(index.Build([]*index.ClassInfo{charged, audited}))

	cls := &index.ClassInfo{
		Name:        "org.acme.AuditInterceptor",
		SuperName:   index.ObjectName,
		Annotations: []index.AnnotationInstance{annotation("org.acme.Audited")},
	}

	names := store.BindingNames(cls)
	want := []index.DotName{"org.acme.Audited", "org.acme.Charged"}
	if len(names) != len(want) {
		t.Fatalf("BindingNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("BindingNames()[%d] = %v, want %v", i, names[i], want[i])
		}
	}
}

func TestNonBindingAnnotationIgnored(t *testing.T) {
	store := NewStore(index.Build(nil))

	cls := &index.ClassInfo{
		Name:        "org.acme.Foo",
		SuperName:   index.ObjectName,
		Annotations: []index.AnnotationInstance{annotation("org.acme.NotIndexed")},
	}

	if got := store.BindingsOf(cls); len(got) != 0 {
		t.Errorf("BindingsOf() = %v, want empty for non-binding annotation", got)
	}
}
