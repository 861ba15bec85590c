package graphout

import (
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/loomproc/loom/pkg/annotations"
	"github.com/loomproc/loom/pkg/index"
	"github.com/loomproc/loom/pkg/processor"
)

func fixtureDeployment(t *testing.T) *processor.Deployment {
	t.Helper()

	binding := &index.ClassInfo{
		Name:      "org.acme.Logged",
		SuperName: index.ObjectName,
		Flags:     index.FlagAnnotation | index.FlagInterface | index.FlagAbstract,
		Annotations: []index.AnnotationInstance{
			{Name: index.InterceptorBindingName},
		},
	}
	interceptor := &index.ClassInfo{
		Name:      "org.acme.LoggedInterceptor",
		SuperName: index.ObjectName,
		Annotations: []index.AnnotationInstance{
			{Name: index.InterceptorName},
			{Name: "org.acme.Logged"},
		},
		Methods: []*index.MethodInfo{{
			Name:           "intercept",
			DeclaringClass: "org.acme.LoggedInterceptor",
			Parameters:     []index.Type{index.ClassType(index.InvocationContextName)},
			ReturnType:     index.ClassType(index.ObjectName),
			Annotations:    []index.AnnotationInstance{{Name: index.AroundInvokeName}},
		}},
	}
	repository := &index.ClassInfo{
		Name:      "org.acme.OrderRepository",
		SuperName: index.ObjectName,
		Annotations: []index.AnnotationInstance{
			{Name: index.ApplicationScopedName},
		},
	}
	service := &index.ClassInfo{
		Name:      "org.acme.OrderService",
		SuperName: index.ObjectName,
		Annotations: []index.AnnotationInstance{
			{Name: index.ApplicationScopedName},
			{Name: "org.acme.Logged"},
		},
		Fields: []*index.FieldInfo{{
			Name:           "repo",
			DeclaringClass: "org.acme.OrderService",
			Type:           index.ClassType("org.acme.OrderRepository"),
			Annotations:    []index.AnnotationInstance{{Name: index.InjectName}},
		}},
	}

	store := annotations.NewStore(index.Build([]*index.ClassInfo{binding, interceptor, repository, service}))
	d := processor.NewDeployment(store, log.New(io.Discard))
	if err := d.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	return d
}

func TestFromDeployment(t *testing.T) {
	g, err := FromDeployment(fixtureDeployment(t))
	if err != nil {
		t.Fatalf("FromDeployment() error = %v", err)
	}

	if got := g.NodeCount(); got != 3 {
		t.Errorf("NodeCount() = %d, want 3", got)
	}

	n, ok := g.Node("org.acme.LoggedInterceptor")
	if !ok {
		t.Fatalf("Node(org.acme.LoggedInterceptor) not found")
	}
	if n.Kind != NodeKindInterceptor {
		t.Errorf("Kind = %v, want %v", n.Kind, NodeKindInterceptor)
	}

	var injects, intercepts int
	for _, e := range g.Edges() {
		switch e.Kind {
		case EdgeKindInjects:
			injects++
			if e.From != "org.acme.OrderService" || e.To != "org.acme.OrderRepository" {
				t.Errorf("injection edge = %s -> %s, want OrderService -> OrderRepository", e.From, e.To)
			}
		case EdgeKindIntercepts:
			intercepts++
			if e.From != "org.acme.LoggedInterceptor" || e.To != "org.acme.OrderService" {
				t.Errorf("interception edge = %s -> %s, want LoggedInterceptor -> OrderService", e.From, e.To)
			}
		}
	}
	if injects != 1 || intercepts != 1 {
		t.Errorf("edge counts = (%d injects, %d intercepts), want (1, 1)", injects, intercepts)
	}

	if err := g.CheckAcyclic(); err != nil {
		t.Errorf("CheckAcyclic() error = %v, want nil", err)
	}
}
