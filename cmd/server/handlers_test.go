package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	setu "github.com/dharmasetu/setu"
	"github.com/dharmasetu/setu/audit"
	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/store"
)

// fakeEngine is a canned-response Engine for handler tests. auditFn,
// when set, overrides the canned audit report.
type fakeEngine struct {
	askResp   *setu.AskResponse
	askErr    error
	draftResp *setu.DraftResponse
	draftErr  error
	report    audit.Report
	auditErr  error
	auditFn   func(path string) (audit.Report, error)
	lastAsk   setu.AskRequest
}

func (f *fakeEngine) Ask(ctx context.Context, req setu.AskRequest) (*setu.AskResponse, error) {
	f.lastAsk = req
	return f.askResp, f.askErr
}

func (f *fakeEngine) Draft(ctx context.Context, req setu.DraftRequest) (*setu.DraftResponse, error) {
	return f.draftResp, f.draftErr
}

func (f *fakeEngine) Audit(text, filename string) audit.Report {
	return f.report
}

func (f *fakeEngine) AuditFile(path string) (audit.Report, error) {
	if f.auditFn != nil {
		return f.auditFn(path)
	}
	return f.report, f.auditErr
}

func (f *fakeEngine) Health() setu.Health {
	return setu.Health{Status: "healthy", GraphLoaded: true, GraphNodes: 10, GraphEdges: 12}
}

func (f *fakeEngine) Graph() *kg.Graph    { return kg.New() }
func (f *fakeEngine) Store() *store.Store { return nil }
func (f *fakeEngine) Close() error        { return nil }

func TestHandleAsk(t *testing.T) {
	fake := &fakeEngine{askResp: &setu.AskResponse{Answer: "## Answer"}}
	h := newHandler(fake)

	body := `{"query": "what is the punishment for murder"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.handleAsk(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp setu.AskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "## Answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if !fake.lastAsk.IncludeGraphData {
		t.Error("graph data should default to included")
	}
}

func TestHandleAskGraphDataOptOut(t *testing.T) {
	fake := &fakeEngine{askResp: &setu.AskResponse{Answer: "x"}}
	h := newHandler(fake)

	body := `{"query": "what is theft", "include_graph_data": false}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.handleAsk(rec, req)

	if fake.lastAsk.IncludeGraphData {
		t.Error("explicit false must disable graph data")
	}
}

func TestHandleAskValidation(t *testing.T) {
	h := newHandler(&fakeEngine{})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing query", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.handleAsk(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandleAskShortQuery(t *testing.T) {
	fake := &fakeEngine{askErr: setu.ErrQueryTooShort}
	h := newHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query": "hm"}`))
	rec := httptest.NewRecorder()
	h.handleAsk(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for short query", rec.Code)
	}
}

func TestHandleAskInternalErrorHidesDetail(t *testing.T) {
	fake := &fakeEngine{askErr: context.DeadlineExceeded}
	h := newHandler(fake)

	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"query": "what is theft"}`))
	rec := httptest.NewRecorder()
	h.handleAsk(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "deadline") {
		t.Errorf("internal error detail leaked: %s", rec.Body.String())
	}
}

func TestHandleDraft(t *testing.T) {
	fake := &fakeEngine{draftResp: &setu.DraftResponse{Answer: "IN THE HON'BLE COURT"}}
	h := newHandler(fake)

	body := `{"facts": "the accused stabbed the victim"}`
	req := httptest.NewRequest(http.MethodPost, "/draft", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.handleDraft(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "IN THE HON'BLE COURT") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHandleDraftMissingFacts(t *testing.T) {
	h := newHandler(&fakeEngine{})
	req := httptest.NewRequest(http.MethodPost, "/draft", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.handleDraft(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAuditConcurrentUploads(t *testing.T) {
	var mu sync.Mutex
	paths := make(map[string]bool)
	fake := &fakeEngine{auditFn: func(path string) (audit.Report, error) {
		mu.Lock()
		paths[path] = true
		mu.Unlock()
		data, err := os.ReadFile(path)
		if err != nil {
			return audit.Report{}, err
		}
		return audit.Report{Findings: []audit.Finding{{Citation: string(data)}}}, nil
	}}
	h := newHandler(fake)

	upload := func(content string) *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		part, err := mw.CreateFormFile("file", "contract.pdf")
		if err != nil {
			t.Error(err)
			return nil
		}
		io.WriteString(part, content)
		mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/audit", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		h.handleAudit(rec, req)
		return rec
	}

	// Two simultaneous uploads with the same client filename must each
	// audit their own bytes, not each other's.
	contents := []string{"Section 302 IPC draft A", "Section 420 IPC draft B"}
	recs := make([]*httptest.ResponseRecorder, len(contents))
	var wg sync.WaitGroup
	for i := range contents {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			recs[i] = upload(contents[i])
		}(i)
	}
	wg.Wait()

	for i, rec := range recs {
		if rec.Code != http.StatusOK {
			t.Fatalf("upload %d: status = %d, body %s", i, rec.Code, rec.Body.String())
		}
		var report audit.Report
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatal(err)
		}
		if report.Filename != "contract.pdf" {
			t.Errorf("upload %d: filename = %q", i, report.Filename)
		}
		if len(report.Findings) != 1 || report.Findings[0].Citation != contents[i] {
			t.Errorf("upload %d audited %+v, want its own content %q",
				i, report.Findings, contents[i])
		}
	}
	if len(paths) != 2 {
		t.Errorf("uploads shared a temp path: %v", paths)
	}
}

func TestHandleAuditJSONPathMissingFile(t *testing.T) {
	h := newHandler(&fakeEngine{})
	req := httptest.NewRequest(http.MethodPost, "/audit", strings.NewReader(`{"path": "/nonexistent/doc.pdf"}`))
	rec := httptest.NewRecorder()
	h.handleAudit(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := newHandler(&fakeEngine{})
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health setu.Health
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if !health.GraphLoaded || health.GraphNodes != 10 {
		t.Errorf("health = %+v", health)
	}
}

func TestAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	protected := authMiddleware("secret", next)

	req := httptest.NewRequest(http.MethodPost, "/ask", nil)
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/ask", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	protected.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health should bypass auth: status = %d", rec.Code)
	}
}
