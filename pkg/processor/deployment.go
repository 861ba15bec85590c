// Package processor builds and validates the bean/interceptor deployment
// model from a class-metadata index.
//
// Processing is a single deployment-time pass: classes are scanned once,
// interceptor and bean models are built, and the resulting graph is
// validated. All failures are fatal and abort the pass immediately; the
// only non-fatal condition is a logged warning. Results are immutable
// after [Deployment.Init] and safe for concurrent read-only use.
package processor

import (
	"fmt"
	"slices"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/loomproc/loom/pkg/annotations"
	"github.com/loomproc/loom/pkg/errors"
	"github.com/loomproc/loom/pkg/index"
)

// Deployment is the result of one deployment-processing pass over an
// index: the discovered beans and interceptors plus collected warnings.
type Deployment struct {
	store  *annotations.Store
	logger *log.Logger

	beans        []*BeanInfo
	interceptors []*InterceptorInfo
	warnings     []string

	initialized bool
}

// NewDeployment creates an empty deployment over the given annotation
// store. Call Init to run the processing pass. A nil logger falls back
// to the default logger.
func NewDeployment(store *annotations.Store, logger *log.Logger) *Deployment {
	if logger == nil {
		logger = log.Default()
	}
	return &Deployment{store: store, logger: logger}
}

// Store returns the deployment's annotation store.
func (d *Deployment) Store() *annotations.Store { return d.store }

// Init runs the single deployment-processing pass: interceptor
// discovery, bean discovery, producer/disposer linking and validation.
// The first definition, signature or deployment error aborts the pass.
// Init must be called exactly once.
func (d *Deployment) Init() error {
	if d.initialized {
		return errors.New(errors.ErrCodeInternal, "deployment already initialized")
	}
	d.initialized = true

	if err := d.discoverInterceptors(); err != nil {
		return err
	}
	if err := d.discoverBeans(); err != nil {
		return err
	}
	if err := d.validate(); err != nil {
		return err
	}

	slices.SortFunc(d.interceptors, func(a, b *InterceptorInfo) int { return a.Compare(b) })
	sort.Slice(d.beans, func(i, j int) bool { return d.beans[i].targetClass < d.beans[j].targetClass })
	return nil
}

// Beans returns all discovered beans, including interceptor beans,
// sorted by target class name. The returned slice is a copy.
func (d *Deployment) Beans() []*BeanInfo {
	return append([]*BeanInfo(nil), d.beans...)
}

// Interceptors returns all discovered interceptors sorted by target
// class name. The returned slice is a copy.
func (d *Deployment) Interceptors() []*InterceptorInfo {
	return append([]*InterceptorInfo(nil), d.interceptors...)
}

// Warnings returns the non-fatal findings of the pass.
func (d *Deployment) Warnings() []string {
	return append([]string(nil), d.warnings...)
}

func (d *Deployment) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	d.warnings = append(d.warnings, msg)
	d.logger.Warn(msg)
}

func (d *Deployment) discoverInterceptors() error {
	for _, cls := range d.store.Index().Classes() {
		if cls.Flags.IsAnnotation() || cls.Flags.IsInterface() || cls.Flags.IsSynthetic() {
			continue
		}
		if !d.store.HasAnnotation(cls, index.InterceptorName) {
			continue
		}

		bindings := d.store.BindingsOf(cls)
		if len(bindings) == 0 {
			return errors.New(errors.ErrCodeDefinition,
				"interceptor has no bindings: %s", cls.Name)
		}

		info, err := NewInterceptorInfo(d.store, cls, bindings, resolvePriority(d.store, cls), d.logger)
		if err != nil {
			return err
		}
		d.interceptors = append(d.interceptors, info)
		d.beans = append(d.beans, &info.BeanInfo)
	}
	return nil
}

func (d *Deployment) discoverBeans() error {
	for _, cls := range d.store.Index().Classes() {
		if cls.Flags.IsAnnotation() || cls.Flags.IsInterface() ||
			cls.Flags.IsAbstract() || cls.Flags.IsSynthetic() {
			continue
		}
		// Interceptors were already registered as dependent beans.
		if d.store.HasAnnotation(cls, index.InterceptorName) {
			continue
		}
		if !d.hasBeanDefiningAnnotation(cls) {
			continue
		}

		bean := newClassBean(d.store, cls)
		d.beans = append(d.beans, bean)

		if err := d.discoverProducers(bean, cls); err != nil {
			return err
		}
	}
	return nil
}

// hasBeanDefiningAnnotation reports whether the class effectively
// declares a built-in scope or an @Inject member.
func (d *Deployment) hasBeanDefiningAnnotation(cls *index.ClassInfo) bool {
	for _, scope := range index.BuiltinScopes {
		if d.store.HasAnnotation(cls, scope) {
			return true
		}
	}
	for _, f := range cls.Fields {
		if d.store.HasAnnotation(f, index.InjectName) {
			return true
		}
	}
	for _, m := range cls.Methods {
		if d.store.HasAnnotation(m, index.InjectName) {
			return true
		}
	}
	return false
}

func (d *Deployment) discoverProducers(declaring *BeanInfo, cls *index.ClassInfo) error {
	for _, m := range cls.Methods {
		if !d.store.HasAnnotation(m, index.ProducesName) {
			continue
		}
		if m.ReturnType.IsVoid() {
			return errors.New(errors.ErrCodeDefinition,
				"a producer method must not return void: %s", m)
		}
		d.beans = append(d.beans, newProducerMethodBean(d.store, declaring, m))
	}
	for _, f := range cls.Fields {
		if d.store.HasAnnotation(f, index.ProducesName) {
			d.beans = append(d.beans, newProducerFieldBean(d.store, declaring, f))
		}
	}
	return nil
}

func (d *Deployment) validate() error {
	if err := d.validateDisposers(); err != nil {
		return err
	}
	if err := d.validateInjection(); err != nil {
		return err
	}
	d.checkUnboundBindings()
	return nil
}

// validateDisposers checks that every disposer method has a matching
// producer declared by the same class.
func (d *Deployment) validateDisposers() error {
	for _, cls := range d.store.Index().Classes() {
		for _, m := range cls.Methods {
			if !isDisposer(d.store, m) {
				continue
			}
			disposed, ok := d.disposedType(m)
			if !ok {
				return errors.New(errors.ErrCodeDefinition,
					"a disposer method must declare a disposed parameter: %s", m)
			}
			if !d.classDeclaresProducerOf(cls, disposed) {
				return errors.New(errors.ErrCodeDefinition,
					"no producer method declared for disposer: %s", m)
			}
		}
	}
	return nil
}

// disposedType returns the type of the parameter annotated @Disposes,
// falling back to the first parameter when the marker sits on the
// method itself.
func (d *Deployment) disposedType(m *index.MethodInfo) (index.DotName, bool) {
	for i, p := range m.Parameters {
		if d.store.HasAnnotation(index.MethodParameter{Method: m, Position: i}, index.DisposesName) {
			return p.Name, true
		}
	}
	if len(m.Parameters) > 0 {
		return m.Parameters[0].Name, true
	}
	return "", false
}

func (d *Deployment) classDeclaresProducerOf(cls *index.ClassInfo, produced index.DotName) bool {
	for _, m := range cls.Methods {
		if d.store.HasAnnotation(m, index.ProducesName) && m.ReturnType.Name == produced {
			return true
		}
	}
	for _, f := range cls.Fields {
		if d.store.HasAnnotation(f, index.ProducesName) && f.Type.Name == produced {
			return true
		}
	}
	return false
}

// validateInjection resolves every injection point against the bean set.
// Unsatisfied and ambiguous dependencies are fatal deployment errors.
func (d *Deployment) validateInjection() error {
	for _, b := range d.beans {
		for _, ip := range b.injection {
			if ip.RequiredType.Kind != index.TypeKindClass {
				continue
			}
			matches := d.ResolveBeans(ip.RequiredType.Name, ip.Qualifiers)
			if len(matches) == 0 {
				return errors.New(errors.ErrCodeDeployment,
					"unsatisfied dependency for type %s at injection point %s", ip.RequiredType.Name, ip.Target)
			}
			if len(matches) > 1 {
				return errors.New(errors.ErrCodeDeployment,
					"ambiguous dependency for type %s at injection point %s: %d matching beans",
					ip.RequiredType.Name, ip.Target, len(matches))
			}
		}
	}
	return nil
}

// checkUnboundBindings warns about binding annotations on beans that no
// enabled interceptor is bound to.
func (d *Deployment) checkUnboundBindings() {
	for _, b := range d.beans {
		if b.IsInterceptor() {
			continue
		}
		cls, ok := b.target.(*index.ClassInfo)
		if !ok {
			continue
		}
		for _, binding := range d.store.BindingsOf(cls) {
			if !d.anyInterceptorBinds(binding.Name) {
				d.warn("binding %s on %s matches no interceptor", binding.Name, b.targetClass)
			}
		}
	}
}

func (d *Deployment) anyInterceptorBinds(binding index.DotName) bool {
	for _, i := range d.interceptors {
		for _, ib := range i.bindings {
			if ib.Name == binding {
				return true
			}
		}
	}
	return false
}
