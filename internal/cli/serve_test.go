package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/loomproc/loom/pkg/cache"
	"github.com/loomproc/loom/pkg/index"
	"github.com/loomproc/loom/pkg/pipeline"
	"github.com/loomproc/loom/pkg/report"
)

func writeFixtureArchive(t *testing.T) string {
	t.Helper()

	classes := []*index.ClassInfo{
		{
			Name:      "org.acme.Logged",
			SuperName: index.ObjectName,
			Flags:     index.FlagAnnotation | index.FlagInterface | index.FlagAbstract,
			Annotations: []index.AnnotationInstance{
				{Name: index.InterceptorBindingName},
			},
		},
		{
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
		},
		{
			Name:      "org.acme.OrderService",
			SuperName: index.ObjectName,
			Annotations: []index.AnnotationInstance{
				{Name: index.ApplicationScopedName},
				{Name: "org.acme.Logged"},
			},
		},
	}

	path := filepath.Join(t.TempDir(), "app.idx.json")
	if err := index.WriteIndexFile(index.Build(classes), path); err != nil {
		t.Fatalf("WriteIndexFile() error = %v", err)
	}
	return path
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := report.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	api := &apiServer{
		runner: pipeline.NewRunner(cache.NewMemoryCache(), nil, log.New(io.Discard)),
		store:  store,
		logger: log.New(io.Discard),
	}
	srv := httptest.NewServer(api.routes())
	t.Cleanup(srv.Close)
	return srv
}

func postProcess(t *testing.T, srv *httptest.Server, body processRequest) processResponse {
	t.Helper()

	payload, _ := json.Marshal(body)
	resp, err := http.Post(srv.URL+"/api/process", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /api/process error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST /api/process status = %d, body %s", resp.StatusCode, raw)
	}

	var out processResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestServeHealth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestServeProcess(t *testing.T) {
	srv := newTestServer(t)
	archive := writeFixtureArchive(t)

	out := postProcess(t, srv, processRequest{Path: archive})

	if out.Report == nil || out.Report.ID == "" {
		t.Fatal("process response has no report")
	}
	if got := len(out.Report.Beans); got != 2 {
		t.Errorf("len(Report.Beans) = %d, want 2", got)
	}
	if got := len(out.Report.Interceptors); got != 1 {
		t.Errorf("len(Report.Interceptors) = %d, want 1", got)
	}
	if got := len(out.Graph.Nodes); got != 2 {
		t.Errorf("len(Graph.Nodes) = %d, want 2", got)
	}
}

func TestServeProcessMissingPath(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/process", "application/json", bytes.NewReader([]byte(`{}`)))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestServeProcessMissingArchive(t *testing.T) {
	srv := newTestServer(t)

	payload := []byte(`{"path": "/does/not/exist.idx.json"}`)
	resp, err := http.Post(srv.URL+"/api/process", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServeReportLifecycle(t *testing.T) {
	srv := newTestServer(t)
	archive := writeFixtureArchive(t)

	created := postProcess(t, srv, processRequest{Path: archive})

	resp, err := http.Get(srv.URL + "/api/reports")
	if err != nil {
		t.Fatal(err)
	}
	var reports []*report.Report
	if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if len(reports) != 1 {
		t.Fatalf("len(reports) = %d, want 1", len(reports))
	}

	resp, err = http.Get(srv.URL + "/api/reports/" + created.Report.ID)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET report status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/reports/"+created.Report.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("DELETE report status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	resp, err = http.Get(srv.URL + "/api/reports/" + created.Report.ID)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET deleted report status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestServeListReportsInvalidLimit(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/reports?limit=zero")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
