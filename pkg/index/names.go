package index

// Well-known names recognized by the deployment processor. The processor
// classifies program elements by these names rather than by loading the
// referenced classes, so the index alone is sufficient for a full
// deployment pass.
const (
	// ObjectName is the universal root type. Hierarchy walks stop before it
	// and callback methods may declare it as their return type.
	ObjectName DotName = "java.lang.Object"

	// InterceptorName marks a class as an interceptor declaration.
	InterceptorName DotName = "jakarta.interceptor.Interceptor"

	// InterceptorBindingName marks an annotation type as an interceptor
	// binding. Any annotation whose declaring type carries it correlates
	// interceptors with target beans.
	InterceptorBindingName DotName = "jakarta.interceptor.InterceptorBinding"

	// Callback marker annotations, one per callback kind.
	AroundInvokeName    DotName = "jakarta.interceptor.AroundInvoke"
	AroundConstructName DotName = "jakarta.interceptor.AroundConstruct"
	PostConstructName   DotName = "jakarta.annotation.PostConstruct"
	PreDestroyName      DotName = "jakarta.annotation.PreDestroy"

	// InvocationContextName is the standard invocation context type: the
	// single parameter every callback method must accept.
	InvocationContextName DotName = "jakarta.interceptor.InvocationContext"

	// ArcInvocationContextName is the container's extended invocation
	// context. Accepted everywhere the standard one is.
	ArcInvocationContextName DotName = "io.loom.arc.ArcInvocationContext"

	// Producer and disposer markers. Fatal on interceptor elements.
	ProducesName DotName = "jakarta.enterprise.inject.Produces"
	DisposesName DotName = "jakarta.enterprise.inject.Disposes"

	// InjectName marks injected fields and initializer/constructor
	// injection points.
	InjectName DotName = "jakarta.inject.Inject"

	// PriorityName carries the interceptor enablement priority.
	PriorityName DotName = "jakarta.annotation.Priority"

	// Built-in scope annotations.
	DependentName         DotName = "jakarta.enterprise.context.Dependent"
	SingletonName         DotName = "jakarta.inject.Singleton"
	ApplicationScopedName DotName = "jakarta.enterprise.context.ApplicationScoped"
	RequestScopedName     DotName = "jakarta.enterprise.context.RequestScoped"
	SessionScopedName     DotName = "jakarta.enterprise.context.SessionScoped"
	StereotypeName        DotName = "jakarta.enterprise.inject.Stereotype"
	QualifierName         DotName = "jakarta.inject.Qualifier"
	DefaultQualifier      DotName = "jakarta.enterprise.inject.Default"
	AnyQualifier          DotName = "jakarta.enterprise.inject.Any"
	NamedQualifierName    DotName = "jakarta.inject.Named"
)

// IsInvocationContext reports whether name is one of the two recognized
// invocation-context types.
func IsInvocationContext(name DotName) bool {
	return name == InvocationContextName || name == ArcInvocationContextName
}

// BuiltinScopes lists the scope annotations the processor recognizes
// without consulting the index.
var BuiltinScopes = []DotName{
	DependentName,
	SingletonName,
	ApplicationScopedName,
	RequestScopedName,
	SessionScopedName,
}
