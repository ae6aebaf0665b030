package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/metalpromo/coin-design/internal/config"
	"github.com/metalpromo/coin-design/internal/crm"
	"github.com/metalpromo/coin-design/internal/imagegen"
	"github.com/metalpromo/coin-design/internal/store"
)

type stubGenerator struct {
	err   error
	calls int
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) Generate(ctx context.Context, req *imagegen.Request) (*imagegen.Result, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return &imagegen.Result{B64JSON: "aW1n"}, nil
}

func newTestServer(t *testing.T, gen imagegen.Generator, crmClient *crm.Client) (*Server, store.Store) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	t.Setenv("COIN_DESIGN_API_KEY", "")
	t.Setenv("COIN_DESIGN_DISABLE_AUTH", "true")
	t.Setenv("COIN_DESIGN_CORS_ORIGINS", "")

	st, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := &config.Config{}
	cfg.Generation.Concurrency = 2

	s, err := NewServer(cfg, st, gen, crmClient)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s, st
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		payload = bytes.NewBuffer(b)
	} else {
		payload = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHandleListTemplates(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	w := doJSON(t, s, http.MethodGet, "/api/templates", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var out []templateView
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 5 {
		t.Fatalf("templates: got %d, want 5", len(out))
	}
	if out[0].ID != "heritage-symbolism" {
		t.Fatalf("first template: got %q", out[0].ID)
	}
}

func TestHandleGetTemplate_NotFound(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	w := doJSON(t, s, http.MethodGet, "/api/templates/does-not-exist", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", w.Code)
	}

	var out map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["kind"] != "not_found" {
		t.Fatalf("kind: got %q", out["kind"])
	}
}

func TestHandleCompile(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	w := doJSON(t, s, http.MethodPost, "/api/compile", compileRequest{
		TemplateID: "Heritage & Symbolism",
		Theme:      "Founding of the city",
		Location:   "Kyoto",
		Files: []fileInput{
			{Name: "logo.png", Usage: "exact"},
			{Name: "sketch.png", Usage: "inspiration"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var out struct {
		TemplateID string `json:"template_id"`
		Text       string `json:"text"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.TemplateID != "heritage-symbolism" {
		t.Fatalf("template_id: got %q", out.TemplateID)
	}
	for _, want := range []string{"Kyoto", "logo.png", "sketch.png"} {
		if !bytes.Contains([]byte(out.Text), []byte(want)) {
			t.Fatalf("text missing %q:\n%s", want, out.Text)
		}
	}
}

func TestHandleCompile_ErrorKinds(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	cases := []struct {
		name       string
		req        compileRequest
		wantStatus int
		wantKind   string
	}{
		{
			name:       "unknown template",
			req:        compileRequest{TemplateID: "does-not-exist", Theme: "x"},
			wantStatus: http.StatusNotFound,
			wantKind:   "not_found",
		},
		{
			name:       "missing theme",
			req:        compileRequest{TemplateID: "heritage-symbolism"},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "missing_theme",
		},
		{
			name:       "missing files",
			req:        compileRequest{TemplateID: "military-commemorative", Theme: "x"},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "missing_files",
		},
		{
			name: "ambiguous usage",
			req: compileRequest{
				TemplateID: "heritage-symbolism",
				Theme:      "x",
				Files:      []fileInput{{Name: "a.png"}},
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantKind:   "ambiguous_usage",
		},
	}

	for _, tc := range cases {
		w := doJSON(t, s, http.MethodPost, "/api/compile", tc.req)
		if w.Code != tc.wantStatus {
			t.Fatalf("%s: status got %d want %d, body %s", tc.name, w.Code, tc.wantStatus, w.Body.String())
		}
		var out map[string]string
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s: unmarshal: %v", tc.name, err)
		}
		if out["kind"] != tc.wantKind {
			t.Fatalf("%s: kind got %q want %q", tc.name, out["kind"], tc.wantKind)
		}
	}
}

func TestHandleCompile_IgnoredFileDropped(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	w := doJSON(t, s, http.MethodPost, "/api/compile", compileRequest{
		TemplateID: "heritage-symbolism",
		Theme:      "Founding of the city",
		Files:      []fileInput{{Name: "noise.png", Usage: "Ignore"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	if bytes.Contains(w.Body.Bytes(), []byte("noise.png")) {
		t.Fatalf("ignored file leaked into output: %s", w.Body.String())
	}
}

func TestHandleCompile_BadUsage(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	w := doJSON(t, s, http.MethodPost, "/api/compile", compileRequest{
		TemplateID: "heritage-symbolism",
		Theme:      "x",
		Files:      []fileInput{{Name: "a.png", Usage: "verbatim"}},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d", w.Code)
	}
}

func TestHandleGenerate_SingleStyle(t *testing.T) {
	gen := &stubGenerator{}
	s, st := newTestServer(t, gen, nil)

	w := doJSON(t, s, http.MethodPost, "/api/generate", generateRequest{
		compileRequest: compileRequest{
			TemplateID: "heritage-symbolism",
			Theme:      "Founding of the city",
		},
		OrderID: "o1",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var out designView
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.Success || out.ImageB64 != "aW1n" {
		t.Fatalf("design: got %+v", out)
	}
	if gen.calls != 1 {
		t.Fatalf("generator calls: got %d", gen.calls)
	}

	saved, err := st.ListDesigns(context.Background(), store.DesignFilter{OrderID: "o1"})
	if err != nil {
		t.Fatalf("ListDesigns: %v", err)
	}
	if len(saved) != 1 || saved[0].ID != out.DesignID {
		t.Fatalf("persisted designs: got %+v", saved)
	}
}

func TestHandleGenerate_AllStyles(t *testing.T) {
	gen := &stubGenerator{}
	s, st := newTestServer(t, gen, nil)

	w := doJSON(t, s, http.MethodPost, "/api/generate", generateRequest{
		compileRequest: compileRequest{
			Theme: "Founding of the city",
			Files: []fileInput{{Name: "logo.png", Usage: "exact"}},
		},
		OrderID:   "o1",
		AllStyles: true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var out struct {
		OrderID    string       `json:"order_id"`
		Variations []designView `json:"variations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out.Variations) != 5 {
		t.Fatalf("variations: got %d, want 5", len(out.Variations))
	}

	saved, err := st.ListDesigns(context.Background(), store.DesignFilter{OrderID: "o1", Limit: 10})
	if err != nil {
		t.Fatalf("ListDesigns: %v", err)
	}
	if len(saved) != 5 {
		t.Fatalf("persisted designs: got %d, want 5", len(saved))
	}
}

func TestHandleGenerate_BackendError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("backend down")}
	s, _ := newTestServer(t, gen, nil)

	w := doJSON(t, s, http.MethodPost, "/api/generate", generateRequest{
		compileRequest: compileRequest{
			TemplateID: "heritage-symbolism",
			Theme:      "x",
		},
	})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
}

func TestHandleGenerate_NoGenerator(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	w := doJSON(t, s, http.MethodPost, "/api/generate", generateRequest{
		compileRequest: compileRequest{TemplateID: "heritage-symbolism", Theme: "x"},
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got %d", w.Code)
	}
}

func TestHandleGetOrder_FromCache(t *testing.T) {
	s, st := newTestServer(t, nil, nil)

	if err := st.SaveOrder(context.Background(), &store.OrderRecord{
		ID:    "o1",
		Notes: "eagle coin",
	}); err != nil {
		t.Fatalf("SaveOrder: %v", err)
	}

	w := doJSON(t, s, http.MethodGet, "/api/orders/o1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var out orderView
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Notes != "eagle coin" || !out.Cached {
		t.Fatalf("order: got %+v", out)
	}
}

func TestHandleGetOrder_Missing(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	w := doJSON(t, s, http.MethodGet, "/api/orders/absent", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", w.Code)
	}
}

func TestHandleGetOrder_FromCRM(t *testing.T) {
	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	}))
	defer tokenSrv.Close()

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"Note_Title": "Form(WEBHOOK) FIELD VALUES", "Note_Content": "first_name: Dana\nchallenge_notes: eagle coin\n"},
		}})
	}))
	defer apiSrv.Close()

	crmClient := crm.New(crm.Options{
		BaseURL:      apiSrv.URL,
		TokenURL:     tokenSrv.URL,
		ClientID:     "cid",
		ClientSecret: "secret",
		RefreshToken: "rt",
	})
	s, st := newTestServer(t, nil, crmClient)

	w := doJSON(t, s, http.MethodGet, "/api/orders/o1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var out orderView
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.FirstName != "Dana" || out.Cached {
		t.Fatalf("order: got %+v", out)
	}

	cached, err := st.GetOrder(context.Background(), "o1")
	if err != nil {
		t.Fatalf("GetOrder: fetched order should be cached: %v", err)
	}
	if cached.Notes != "eagle coin" {
		t.Fatalf("cached notes: got %q", cached.Notes)
	}
}

func TestHandleListOrderDesigns(t *testing.T) {
	s, st := newTestServer(t, nil, nil)
	ctx := context.Background()

	for _, id := range []string{"d1", "d2"} {
		if err := st.SaveDesign(ctx, &store.DesignRecord{
			ID: id, OrderID: "o1", TemplateID: "heritage-symbolism",
			Theme: "t", Prompt: "p", Success: true,
		}); err != nil {
			t.Fatalf("SaveDesign: %v", err)
		}
	}

	w := doJSON(t, s, http.MethodGet, "/api/orders/o1/designs", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var out []designView
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("designs: got %d, want 2", len(out))
	}
}

func TestHandleGetDesign_Missing(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	w := doJSON(t, s, http.MethodGet, "/api/designs/absent", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil, nil)

	w := doJSON(t, s, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
}
