package coordination

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(t *testing.T) (*httptest.Server, *Engine) {
	t.Helper()
	engine := New(DefaultConfig(), nil, nil)
	srv := NewServer(DefaultConfig(), engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/health", srv.handleHealth)
	mux.HandleFunc("/api/v1/agents", srv.withAuth(srv.handleAgents))
	mux.HandleFunc("/api/v1/agents/", srv.withAuth(srv.handleAgentByID))
	mux.HandleFunc("/api/v1/work", srv.withAuth(srv.handleWork))
	mux.HandleFunc("/api/v1/work/claim", srv.withAuth(srv.handleClaimWork))
	mux.HandleFunc("/api/v1/work/", srv.withAuth(srv.handleWorkByID))
	mux.HandleFunc("/api/v1/coordinate", srv.withAuth(srv.handleCoordinate))
	mux.HandleFunc("/api/v1/status", srv.withAuth(srv.handleStatus))

	ts := httptest.NewServer(srv.corsMiddleware(mux))
	t.Cleanup(ts.Close)
	return ts, engine
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeAPIResponse(t *testing.T, resp *http.Response, out interface{}) APIResponse {
	t.Helper()
	defer resp.Body.Close()
	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out != nil && apiResp.Data != nil {
		raw, err := json.Marshal(apiResp.Data)
		if err != nil {
			t.Fatalf("remarshal data: %v", err)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
	}
	return apiResp
}

func TestServer_HealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestServer_RegisterAgentEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/v1/agents", RegisterRequest{Spec: AgentSpec{ID: "a1", Role: "worker"}})
	var state AgentState
	api := decodeAPIResponse(t, resp, &state)
	if !api.Success {
		t.Fatalf("expected success, got %+v", api)
	}
	if state.Status != AgentStatusActive {
		t.Errorf("expected Active, got %s", state.Status)
	}
}

func TestServer_RegisterAgentConflict(t *testing.T) {
	ts, _ := newTestServer(t)
	_ = postJSON(t, ts.URL+"/api/v1/agents", RegisterRequest{Spec: AgentSpec{ID: "a1"}})
	resp := postJSON(t, ts.URL+"/api/v1/agents", RegisterRequest{Spec: AgentSpec{ID: "a1"}})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestServer_CreateAndClaimWork(t *testing.T) {
	ts, _ := newTestServer(t)
	_ = postJSON(t, ts.URL+"/api/v1/agents", RegisterRequest{Spec: AgentSpec{ID: "a1", Specializations: []string{"build"}}})

	var item WorkItem
	resp := postJSON(t, ts.URL+"/api/v1/work", CreateWorkRequest{WorkType: "build", Priority: 5, Requirements: []string{"build"}})
	decodeAPIResponse(t, resp, &item)
	if item.ID == "" {
		t.Fatal("expected work item id")
	}

	var claimResp WorkClaimResponse
	resp = postJSON(t, ts.URL+"/api/v1/work/claim", WorkClaimRequest{AgentID: "a1"})
	decodeAPIResponse(t, resp, &claimResp)
	if !claimResp.Claimed || claimResp.Item == nil || claimResp.Item.ID != item.ID {
		t.Fatalf("expected claim of %s, got %+v", item.ID, claimResp)
	}
}

func TestServer_StatusEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	_ = postJSON(t, ts.URL+"/api/v1/agents", RegisterRequest{Spec: AgentSpec{ID: "a1"}})

	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	var state StateResponse
	decodeAPIResponse(t, resp, &state)
	if len(state.Agents) != 1 {
		t.Errorf("expected 1 agent, got %d", len(state.Agents))
	}
}

func TestServer_CoordinateEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/v1/coordinate", CoordinateRequest{Pattern: PatternAtomic, Participants: []string{"a1"}})
	var result CoordinateResult
	api := decodeAPIResponse(t, resp, &result)
	if !api.Success {
		t.Fatalf("expected success, got %+v", api)
	}
	if result.Epoch == 0 {
		t.Error("expected non-zero epoch")
	}
}

func TestServer_WithAuthRejectsMissingToken(t *testing.T) {
	engine := New(DefaultConfig(), nil, nil)
	cfg := DefaultConfig()
	cfg.Auth = &AuthConfig{RequireAuth: true, Tokens: []string{"secret"}}
	srv := NewServer(cfg, engine)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/status", srv.withAuth(srv.handleStatus))
	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestServer_StartStop(t *testing.T) {
	engine := New(DefaultConfig(), nil, nil)
	cfg := DefaultConfig()
	cfg.ListenAddr = "127.0.0.1:0"
	srv := NewServer(cfg, engine)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Errorf("unexpected error from Start: %v", err)
	}
}
