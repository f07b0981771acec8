package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/assistant"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/audit"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/crm"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/db"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/dispatch"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/learning"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/memory"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/oracle"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/oracle/oracletest"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/tools"
)

type testServer struct {
	router *gin.Engine
	oracle *oracletest.Scripted
	opts   Opts
}

func setupTestRouter(t *testing.T, responses ...oracletest.Response) *testServer {
	t.Helper()
	gdb, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	d, err := dispatch.New(tools.Default(), crm.NewServices(gdb))
	if err != nil {
		t.Fatalf("dispatch.New: %v", err)
	}
	mem, err := memory.New(memory.Opts{DB: gdb})
	if err != nil {
		t.Fatal(err)
	}
	log, err := audit.New(audit.Opts{DB: gdb})
	if err != nil {
		t.Fatal(err)
	}
	store := learning.NewStore(gdb)
	scripted := oracletest.NewScripted(responses...)
	orch, err := assistant.New(assistant.Opts{
		DB:         gdb,
		Oracle:     scripted,
		Dispatcher: d,
		Memory:     mem,
		Audit:      log,
		Learning:   store,
	})
	if err != nil {
		t.Fatalf("assistant.New: %v", err)
	}
	opts := Opts{DB: gdb, Assistant: orch, Memory: mem, Audit: log, Learning: store}
	router, err := NewRouter(opts)
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	return &testServer{router: router, oracle: scripted, opts: opts}
}

func (s *testServer) do(t *testing.T, method, path, user string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNewRouter_RequiresCollaborators(t *testing.T) {
	_, err := NewRouter(Opts{})
	if err == nil || !strings.Contains(err.Error(), "db is required") {
		t.Fatalf("err = %v", err)
	}
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), Opts{})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
}

// ---------------------------------------------------------------------------
// Routes
// ---------------------------------------------------------------------------

func TestHealthAndMetrics(t *testing.T) {
	s := setupTestRouter(t)
	if w := s.do(t, http.MethodGet, "/healthz", "", nil); w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}
	w := s.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("metrics = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}

func TestAPI_RequiresUser(t *testing.T) {
	s := setupTestRouter(t)
	w := s.do(t, http.MethodGet, "/api/ai/tools", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestTools(t *testing.T) {
	s := setupTestRouter(t)
	w := s.do(t, http.MethodGet, "/api/ai/tools", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Version string             `json:"version"`
		Tools   []tools.Descriptor `json:"tools"`
	}
	decode(t, w, &body)
	if body.Version != tools.CatalogVersion {
		t.Errorf("version = %q", body.Version)
	}
	if len(body.Tools) != len(tools.Default().Names()) {
		t.Errorf("tools = %d", len(body.Tools))
	}
}

func TestQuery_BadBody(t *testing.T) {
	s := setupTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/ai/query", strings.NewReader("{"))
	req.Header.Set(UserHeader, "alice")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestQueryConfirmFlow(t *testing.T) {
	s := setupTestRouter(t,
		oracletest.Call(oracle.ToolCall{Name: "send_campaign", Arguments: `{"campaign_id":1}`}),
	)
	if err := s.opts.DB.Create(&models.Campaign{ID: 1, OwnerID: "alice", Name: "Launch"}).Error; err != nil {
		t.Fatal(err)
	}

	w := s.do(t, http.MethodPost, "/api/ai/query", "alice", map[string]string{"query": "send the launch campaign", "session_id": "s-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("query status = %d: %s", w.Code, w.Body.String())
	}
	var q assistant.QueryResponse
	decode(t, w, &q)
	if !q.ConfirmationRequired || q.PendingAction == nil {
		t.Fatalf("expected confirmation, got %+v", q)
	}

	w = s.do(t, http.MethodGet, "/api/ai/pending?session_id=s-1", "alice", nil)
	var pending struct {
		Count int `json:"count"`
	}
	decode(t, w, &pending)
	if pending.Count != 1 {
		t.Errorf("pending count = %d", pending.Count)
	}

	// Another user cannot confirm alice's ticket.
	body := map[string]interface{}{"function_name": "send_campaign", "arguments": q.PendingAction.Arguments, "session_id": "s-1"}
	if w := s.do(t, http.MethodPost, "/api/ai/confirm", "bob", body); w.Code != http.StatusConflict {
		t.Errorf("bob confirm status = %d, want 409", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/ai/confirm", "alice", body)
	if w.Code != http.StatusOK {
		t.Fatalf("confirm status = %d: %s", w.Code, w.Body.String())
	}
	var a assistant.ActionResponse
	decode(t, w, &a)
	if a.Error != "" || a.FunctionCalled != "send_campaign" {
		t.Fatalf("confirm = %+v", a)
	}

	var campaign models.Campaign
	if err := s.opts.DB.First(&campaign, 1).Error; err != nil {
		t.Fatal(err)
	}
	if campaign.SentAt == nil {
		t.Error("campaign not sent after confirmation")
	}

	w = s.do(t, http.MethodGet, "/api/ai/audit?session_id=s-1", "alice", nil)
	var entries struct {
		Count   int                 `json:"count"`
		Entries []models.AuditEntry `json:"entries"`
	}
	decode(t, w, &entries)
	if entries.Count != 2 || !entries.Entries[0].WasConfirmed {
		t.Errorf("audit = %+v", entries)
	}

	w = s.do(t, http.MethodGet, "/api/ai/sessions/s-1/history", "alice", nil)
	var history struct {
		Turns []models.ConversationTurn `json:"turns"`
	}
	decode(t, w, &history)
	if len(history.Turns) != 3 {
		t.Errorf("history turns = %d, want 3", len(history.Turns))
	}
}

func TestCancel(t *testing.T) {
	s := setupTestRouter(t,
		oracletest.Call(oracle.ToolCall{Name: "send_quote", Arguments: `{"quote_id":5}`}),
	)
	s.do(t, http.MethodPost, "/api/ai/query", "alice", map[string]string{"query": "send quote 5", "session_id": "s-2"})

	body := map[string]interface{}{"function_name": "send_quote", "arguments": map[string]int{"quote_id": 5}, "session_id": "s-2"}
	w := s.do(t, http.MethodPost, "/api/ai/cancel", "alice", body)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d: %s", w.Code, w.Body.String())
	}
	var a assistant.ActionResponse
	decode(t, w, &a)
	if !strings.HasPrefix(a.Response, "Cancelled") {
		t.Errorf("response = %q", a.Response)
	}
}

func TestPreferences(t *testing.T) {
	s := setupTestRouter(t)
	w := s.do(t, http.MethodPut, "/api/ai/preferences", "alice", map[string]string{"communication_style": "formal"})
	if w.Code != http.StatusOK {
		t.Fatalf("put status = %d: %s", w.Code, w.Body.String())
	}
	w = s.do(t, http.MethodGet, "/api/ai/preferences", "alice", nil)
	var prefs models.UserPreference
	decode(t, w, &prefs)
	if prefs.CommunicationStyle != "formal" {
		t.Errorf("style = %q", prefs.CommunicationStyle)
	}

	w = s.do(t, http.MethodPut, "/api/ai/preferences", "alice", map[string]string{"communication_style": "shouty"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid style status = %d, want 400", w.Code)
	}
}

func TestAudit_BadLimit(t *testing.T) {
	s := setupTestRouter(t)
	if w := s.do(t, http.MethodGet, "/api/ai/audit?limit=ten", "alice", nil); w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
