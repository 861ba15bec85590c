package processor

import (
	"github.com/loomproc/loom/pkg/annotations"
	"github.com/loomproc/loom/pkg/index"
)

// CallbackKind identifies the four interception callback kinds an
// interceptor method can implement.
type CallbackKind int

const (
	// AroundInvoke wraps business method invocations.
	AroundInvoke CallbackKind = iota
	// AroundConstruct wraps target instance construction.
	AroundConstruct
	// PostConstruct runs after the target instance is constructed.
	PostConstruct
	// PreDestroy runs before the target instance is destroyed.
	PreDestroy
)

// Kinds lists all callback kinds in classification order.
var Kinds = []CallbackKind{AroundInvoke, AroundConstruct, PostConstruct, PreDestroy}

// String returns the callback kind's annotation-style name.
func (k CallbackKind) String() string {
	switch k {
	case AroundInvoke:
		return "around-invoke"
	case AroundConstruct:
		return "around-construct"
	case PostConstruct:
		return "post-construct"
	case PreDestroy:
		return "pre-destroy"
	default:
		return "unknown"
	}
}

// MarkerName returns the annotation name that marks methods of this kind.
func (k CallbackKind) MarkerName() index.DotName {
	switch k {
	case AroundInvoke:
		return index.AroundInvokeName
	case AroundConstruct:
		return index.AroundConstructName
	case PostConstruct:
		return index.PostConstructName
	case PreDestroy:
		return index.PreDestroyName
	default:
		return ""
	}
}

// ClassifyCallback returns the callback kinds the method is marked with,
// in Kinds order. Most methods yield zero or one kind; a method carrying
// several markers is returned under each of them, and the per-level
// cardinality rule is enforced separately per kind.
func ClassifyCallback(store *annotations.Store, m *index.MethodInfo) []CallbackKind {
	var out []CallbackKind
	for _, k := range Kinds {
		if store.HasAnnotation(m, k.MarkerName()) {
			out = append(out, k)
		}
	}
	return out
}
