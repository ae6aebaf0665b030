package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/metalpromo/coin-design/internal/config"
	"github.com/metalpromo/coin-design/internal/crm"
	"github.com/metalpromo/coin-design/internal/store"
)

func newFakeCRM(t *testing.T, noteContent string) *crm.Client {
	t.Helper()

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	}))
	t.Cleanup(tokenSrv.Close)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []map[string]any{
			{"Note_Title": "Form(WEBHOOK) FIELD VALUES", "Note_Content": noteContent},
		}})
	}))
	t.Cleanup(apiSrv.Close)

	return crm.New(crm.Options{
		BaseURL:      apiSrv.URL,
		TokenURL:     tokenSrv.URL,
		ClientID:     "cid",
		ClientSecret: "secret",
		RefreshToken: "rt",
	})
}

func TestOrderCmd_FetchAndCache(t *testing.T) {
	restore := saveCLIGlobals(t)
	t.Cleanup(restore)

	client := newFakeCRM(t, "first_name: Dana\nlast_name: Smith\nchallenge_notes: eagle over mountains\n")
	crmFromConfig = func(*config.Config) (*crm.Client, error) { return client, nil }
	st := newCLITestStore(t)

	out, err := executeCLI(t, "order", "o1")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Dana Smith") {
		t.Fatalf("output missing customer:\n%s", out)
	}
	if !strings.Contains(out, "eagle over mountains") {
		t.Fatalf("output missing notes:\n%s", out)
	}

	cached, err := st.GetOrder(context.Background(), "o1")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if cached.FirstName != "Dana" {
		t.Fatalf("cached order: got %+v", cached)
	}
}

func TestOrderCmd_CredentialsMissing(t *testing.T) {
	restore := saveCLIGlobals(t)
	t.Cleanup(restore)

	t.Setenv("ZOHO_CLIENT_ID", "")
	t.Setenv("ZOHO_CLIENT_SECRET", "")
	t.Setenv("ZOHO_REFRESH_TOKEN", "")

	_, err := executeCLI(t, "order", "o1")
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("error: got %v", err)
	}
}

func TestOrderDesignsCmd(t *testing.T) {
	restore := saveCLIGlobals(t)
	t.Cleanup(restore)

	st := newCLITestStore(t)
	ctx := context.Background()
	if err := st.SaveDesign(ctx, &store.DesignRecord{
		ID: "d1", OrderID: "o1", TemplateID: "heritage-symbolism",
		Theme: "t", Prompt: "p", Success: true, CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("SaveDesign: %v", err)
	}

	out, err := executeCLI(t, "order", "designs", "o1")
	if err != nil {
		t.Fatalf("execute: %v\n%s", err, out)
	}
	if !strings.Contains(out, "d1") || !strings.Contains(out, "heritage-symbolism") {
		t.Fatalf("output:\n%s", out)
	}
}
