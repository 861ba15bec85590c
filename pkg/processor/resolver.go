package processor

import (
	"slices"

	"github.com/loomproc/loom/pkg/index"
)

// ResolveBeans returns all beans assignable to the required type whose
// qualifiers cover the required set. An empty required set matches any
// bean. Results keep the deployment's class-name ordering.
func (d *Deployment) ResolveBeans(required index.DotName, qualifiers []index.AnnotationInstance) []*BeanInfo {
	var out []*BeanInfo
	for _, b := range d.beans {
		if !b.HasType(required) {
			continue
		}
		if !qualifiersSatisfied(b.qualifiers, qualifiers) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// ResolveInterceptors returns the interceptor chain for a callback kind
// and a set of binding annotations: every enabled interceptor that
// declares the kind and whose bindings are all present in the given
// set. The chain is ordered by ascending priority, ties broken by
// target class name, which is the order interceptors are invoked in.
func (d *Deployment) ResolveInterceptors(kind CallbackKind, bindings []index.AnnotationInstance) []*InterceptorInfo {
	var out []*InterceptorInfo
	for _, i := range d.interceptors {
		if !i.Intercepts(kind) {
			continue
		}
		if !bindingsSatisfied(i.bindings, bindings) {
			continue
		}
		out = append(out, i)
	}
	slices.SortStableFunc(out, func(a, b *InterceptorInfo) int {
		if a.priority != b.priority {
			return a.priority - b.priority
		}
		return a.Compare(b)
	})
	return out
}

// bindingsSatisfied reports whether every declared interceptor binding
// occurs in the binding set of the intercepted target.
func bindingsSatisfied(declared, present []index.AnnotationInstance) bool {
	for _, db := range declared {
		found := false
		for _, pb := range present {
			if pb.Name == db.Name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// qualifiersSatisfied reports whether the bean's qualifiers cover the
// required ones. @Any on the requirement side matches every bean, and a
// requirement of @Default is implied by beans declaring no qualifiers.
func qualifiersSatisfied(declared, required []index.AnnotationInstance) bool {
	for _, rq := range required {
		if rq.Name == index.AnyQualifier {
			continue
		}
		if rq.Name == index.DefaultQualifier && len(declared) == 0 {
			continue
		}
		found := false
		for _, dq := range declared {
			if dq.Name == rq.Name {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
