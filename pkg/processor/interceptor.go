package processor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/loomproc/loom/pkg/annotations"
	"github.com/loomproc/loom/pkg/errors"
	"github.com/loomproc/loom/pkg/index"
)

// InterceptorInfo is the deployment model of a single interceptor
// declaration: its binding set and the callback methods collected from
// the full superclass chain of the interceptor class.
//
// Construction is a single pass over the hierarchy; the published method
// lists are immutable afterwards and safe for concurrent read-only use
// by validation and code-generation passes.
type InterceptorInfo struct {
	BeanInfo

	bindings         []index.AnnotationInstance
	aroundInvokes    []*index.MethodInfo
	aroundConstructs []*index.MethodInfo
	postConstructs   []*index.MethodInfo
	preDestroys      []*index.MethodInfo
}

// NewInterceptorInfo builds the interceptor model for the given target
// class. It walks the inheritance chain from the concrete class up to,
// but excluding, java.lang.Object and collects at most one method per
// callback kind per hierarchy level.
//
// A fatal definition error is returned when an interceptor element is
// marked as a producer or disposer, or when a class level declares more
// than one method of a kind. A fatal signature error is returned for a
// recognized callback method with the wrong parameter or return type.
// An interceptor declaring no callback of any kind is legal and only
// logged as a warning.
func NewInterceptorInfo(store *annotations.Store, target *index.ClassInfo,
	bindings []index.AnnotationInstance, priority int, logger *log.Logger) (*InterceptorInfo, error) {

	info := &InterceptorInfo{
		BeanInfo: BeanInfo{
			kind:        BeanKindInterceptor,
			target:      target,
			targetClass: target.Name,
			scope:       index.DependentName,
			types:       beanTypes(store.Index(), target),
			priority:    priority,
		},
		bindings: append([]index.AnnotationInstance(nil), bindings...),
	}
	info.injection = collectInjectionPoints(store, target)

	// allMethods accumulates every method seen while walking towards the
	// root; it drives override suppression, so methods closer to the
	// concrete class shadow ancestors.
	var allMethods []*index.MethodInfo

	lists := map[CallbackKind]*[]*index.MethodInfo{
		AroundInvoke:    &info.aroundInvokes,
		AroundConstruct: &info.aroundConstructs,
		PostConstruct:   &info.postConstructs,
		PreDestroy:      &info.preDestroys,
	}

	cls := target
	for cls != nil {
		// Only one interceptor method of a given kind may be declared on
		// a given class level.
		found := map[CallbackKind]int{}

		for _, m := range cls.Methods {
			if m.Flags.IsStatic() {
				continue
			}
			if store.HasAnnotation(m, index.ProducesName) || isDisposer(store, m) {
				return nil, errors.New(errors.ErrCodeDefinition,
					"an interceptor method cannot be marked @Produces or @Disposes - %s in class: %s", m, cls.Name)
			}
			for _, kind := range ClassifyCallback(store, m) {
				if err := addInterceptorMethod(allMethods, lists[kind], m); err != nil {
					return nil, err
				}
				if found[kind]++; found[kind] > 1 {
					return nil, errors.New(errors.ErrCodeDefinition,
						"multiple %s interceptor methods declared on class: %s", kind, cls.Name)
				}
			}
			allMethods = append(allMethods, m)
		}

		for _, f := range cls.Fields {
			if store.HasAnnotation(f, index.ProducesName) {
				return nil, errors.New(errors.ErrCodeDefinition,
					"an interceptor field cannot be marked @Produces - %s in class: %s", f, cls.Name)
			}
		}

		cls = superclassOf(store.Index(), cls)
	}

	// Methods defined by superclasses are invoked before the interceptor
	// class's own method, most general superclass first.
	reverse(info.aroundInvokes)
	reverse(info.aroundConstructs)
	reverse(info.postConstructs)
	reverse(info.preDestroys)

	if len(info.aroundInvokes) == 0 && len(info.aroundConstructs) == 0 &&
		len(info.postConstructs) == 0 && len(info.preDestroys) == 0 {
		logger.Warn("interceptor declares no around-invoke method nor a lifecycle callback",
			"interceptor", info.String())
	}

	return info, nil
}

// superclassOf resolves the next hierarchy level, stopping before
// java.lang.Object and at classes missing from the index.
func superclassOf(idx *index.Index, cls *index.ClassInfo) *index.ClassInfo {
	super := cls.SuperName
	if super.IsEmpty() || super == index.ObjectName {
		return nil
	}
	next, ok := idx.ClassByName(super)
	if !ok {
		return nil
	}
	return next
}

// isDisposer reports whether the method is a disposer: marked @Disposes
// on the method itself or on any of its parameters.
func isDisposer(store *annotations.Store, m *index.MethodInfo) bool {
	if store.HasAnnotation(m, index.DisposesName) {
		return true
	}
	for i := range m.Parameters {
		if store.HasAnnotation(index.MethodParameter{Method: m, Position: i}, index.DisposesName) {
			return true
		}
	}
	return false
}

// addInterceptorMethod validates the callback signature and appends the
// method unless an override closer to the concrete class already
// contributed the same slot.
func addInterceptorMethod(allMethods []*index.MethodInfo, methods *[]*index.MethodInfo, m *index.MethodInfo) error {
	if err := validateSignature(m); err != nil {
		return err
	}
	if !isOverridden(allMethods, m) {
		*methods = append(*methods, m)
	}
	return nil
}

// isOverridden reports whether a method with the same name and a single
// invocation-context parameter was already seen closer to the concrete
// class. Both invocation-context variants count as the same slot.
func isOverridden(allMethods []*index.MethodInfo, m *index.MethodInfo) bool {
	for _, seen := range allMethods {
		if seen.Name == m.Name && len(seen.Parameters) == 1 &&
			index.IsInvocationContext(seen.Parameters[0].Name) {
			return true
		}
	}
	return false
}

// validateSignature enforces the callback method contract: exactly one
// parameter of an invocation-context type and a return type of void or
// java.lang.Object.
func validateSignature(m *index.MethodInfo) error {
	if len(m.Parameters) != 1 || !index.IsInvocationContext(m.Parameters[0].Name) {
		return errors.New(errors.ErrCodeSignature,
			"an interceptor method must accept exactly one parameter of type %s: %s declared on %s",
			index.InvocationContextName, m, m.DeclaringClass)
	}
	if !m.ReturnType.IsVoid() && m.ReturnType.Name != index.ObjectName {
		return errors.New(errors.ErrCodeSignature,
			"the return type of an interceptor method must be %s or void: %s declared on %s",
			index.ObjectName, m, m.DeclaringClass)
	}
	return nil
}

func reverse(methods []*index.MethodInfo) {
	for i, j := 0, len(methods)-1; i < j; i, j = i+1, j-1 {
		methods[i], methods[j] = methods[j], methods[i]
	}
}

// Bindings returns the interceptor's binding annotations. The returned
// slice is a copy.
func (i *InterceptorInfo) Bindings() []index.AnnotationInstance {
	return append([]index.AnnotationInstance(nil), i.bindings...)
}

// BindingNames returns the qualified names of the bindings.
func (i *InterceptorInfo) BindingNames() []index.DotName {
	names := make([]index.DotName, len(i.bindings))
	for j, b := range i.bindings {
		names[j] = b.Name
	}
	return names
}

// AroundInvokes returns all around-invoke methods found in the hierarchy
// of the interceptor class.
//
// The returned list is sorted. The method declared on the most general
// superclass is first. The method declared on the interceptor class is
// last.
func (i *InterceptorInfo) AroundInvokes() []*index.MethodInfo {
	return append([]*index.MethodInfo(nil), i.aroundInvokes...)
}

// AroundConstructs returns all around-construct methods found in the
// hierarchy of the interceptor class, ordered like [InterceptorInfo.AroundInvokes].
func (i *InterceptorInfo) AroundConstructs() []*index.MethodInfo {
	return append([]*index.MethodInfo(nil), i.aroundConstructs...)
}

// PostConstructs returns all post-construct methods found in the
// hierarchy of the interceptor class, ordered like [InterceptorInfo.AroundInvokes].
func (i *InterceptorInfo) PostConstructs() []*index.MethodInfo {
	return append([]*index.MethodInfo(nil), i.postConstructs...)
}

// PreDestroys returns all pre-destroy methods found in the hierarchy of
// the interceptor class, ordered like [InterceptorInfo.AroundInvokes].
func (i *InterceptorInfo) PreDestroys() []*index.MethodInfo {
	return append([]*index.MethodInfo(nil), i.preDestroys...)
}

// AroundInvoke returns the most specific around-invoke method.
//
// Deprecated: Use AroundInvokes instead.
func (i *InterceptorInfo) AroundInvoke() (*index.MethodInfo, bool) {
	return last(i.aroundInvokes)
}

// AroundConstruct returns the most specific around-construct method.
//
// Deprecated: Use AroundConstructs instead.
func (i *InterceptorInfo) AroundConstruct() (*index.MethodInfo, bool) {
	return last(i.aroundConstructs)
}

// PostConstruct returns the most specific post-construct method.
//
// Deprecated: Use PostConstructs instead.
func (i *InterceptorInfo) PostConstruct() (*index.MethodInfo, bool) {
	return last(i.postConstructs)
}

// PreDestroy returns the most specific pre-destroy method.
//
// Deprecated: Use PreDestroys instead.
func (i *InterceptorInfo) PreDestroy() (*index.MethodInfo, bool) {
	return last(i.preDestroys)
}

func last(methods []*index.MethodInfo) (*index.MethodInfo, bool) {
	if len(methods) == 0 {
		return nil, false
	}
	return methods[len(methods)-1], true
}

// Intercepts reports whether the interceptor declares at least one
// method of the given callback kind.
func (i *InterceptorInfo) Intercepts(kind CallbackKind) bool {
	switch kind {
	case AroundInvoke:
		return len(i.aroundInvokes) > 0
	case AroundConstruct:
		return len(i.aroundConstructs) > 0
	case PostConstruct:
		return len(i.postConstructs) > 0
	case PreDestroy:
		return len(i.preDestroys) > 0
	default:
		return false
	}
}

// MethodsOf returns the ordered callback methods of the given kind. The
// returned slice is a copy.
func (i *InterceptorInfo) MethodsOf(kind CallbackKind) []*index.MethodInfo {
	switch kind {
	case AroundInvoke:
		return i.AroundInvokes()
	case AroundConstruct:
		return i.AroundConstructs()
	case PostConstruct:
		return i.PostConstructs()
	case PreDestroy:
		return i.PreDestroys()
	default:
		return nil
	}
}

// Compare orders interceptors by their target class's qualified name.
// The ordering is total and stable, keeping processing and output order
// deterministic across tool runs. Suitable for slices.SortFunc.
func (i *InterceptorInfo) Compare(other *InterceptorInfo) int {
	return strings.Compare(string(i.targetClass), string(other.targetClass))
}

// IsInterceptor reports true; it shadows the embedded BeanInfo method
// for clarity at call sites holding an *InterceptorInfo.
func (i *InterceptorInfo) IsInterceptor() bool { return true }

// String implements fmt.Stringer.
func (i *InterceptorInfo) String() string {
	names := make([]string, len(i.bindings))
	for j, b := range i.bindings {
		names[j] = string(b.Name)
	}
	return fmt.Sprintf("interceptor bean [bindings=[%s], target=%s]", strings.Join(names, ", "), i.targetClass)
}
