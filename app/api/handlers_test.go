package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/guideops/activity-comb/app/activity"
	"github.com/guideops/activity-comb/app/store"
	"github.com/guideops/activity-comb/app/tasks"
)

type stubScheduler struct {
	enqueued []tasks.TaskInterface
	err      error
}

func (s *stubScheduler) Start() {}
func (s *stubScheduler) Stop()  {}
func (s *stubScheduler) EnqueueTask(task tasks.TaskInterface) error {
	if s.err != nil {
		return s.err
	}
	s.enqueued = append(s.enqueued, task)
	return nil
}

const testAccessKey = "test-key"

func setupTestServer(t *testing.T, records []activity.Record) (*gin.Engine, *stubScheduler) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "activities.json")
	jsonStore := store.NewJSONStore(path)
	if records != nil {
		if err := jsonStore.Commit(records); err != nil {
			t.Fatalf("Failed to seed store: %v", err)
		}
	}

	policy := activity.DefaultPolicy()
	runner := tasks.NewRunner(jsonStore, activity.NewReconciler(policy), nil)
	scheduler := &stubScheduler{}
	sheet := store.NewSheetAdapter(policy)
	handler := NewHandler(runner, scheduler, nil, sheet, filepath.Join(t.TempDir(), "mirror.xlsx"))

	return NewServer(handler, testAccessKey), scheduler
}

func doRequest(server *gin.Engine, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestGetActivities(t *testing.T) {
	server, _ := setupTestServer(t, []activity.Record{
		{ActivityNumber: "0001", Title: "Sunset Yoga", Category: "yoga", Status: activity.StatusActive, Weekdays: []string{"Mon"}},
		{ActivityNumber: "0002", Title: "Night Market", Category: "market", Status: activity.StatusActive, FlexibleTime: true},
		{ActivityNumber: "0003", Title: "Morning Yoga", Category: "yoga", Status: activity.StatusDraft},
	})

	cases := []struct {
		name      string
		target    string
		wantCount int
	}{
		{"no filter", "/activities", 3},
		{"by category", "/activities?category=yoga", 2},
		{"by status", "/activities?status=draft", 1},
		{"by weekday", "/activities?weekday=mon", 1},
		{"flexible only", "/activities?flexible=yes", 1},
		{"text query", "/activities?q=market", 1},
		{"no match", "/activities?q=cooking", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doRequest(server, "GET", tc.target, nil)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			var body struct {
				Count int `json:"count"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to parse response: %v", err)
			}
			if body.Count != tc.wantCount {
				t.Errorf("Expected %d activities, got %d", tc.wantCount, body.Count)
			}
		})
	}
}

func TestGetActivity(t *testing.T) {
	server, _ := setupTestServer(t, []activity.Record{
		{ActivityNumber: "0001", Title: "Sunset Yoga", Category: "yoga", Status: activity.StatusActive},
	})

	w := doRequest(server, "GET", "/activities/0001", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var record activity.Record
	if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if record.Title != "Sunset Yoga" {
		t.Errorf("Expected Sunset Yoga, got %q", record.Title)
	}

	w = doRequest(server, "GET", "/activities/9999", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown id, got %d", w.Code)
	}
}

func TestGetHealth(t *testing.T) {
	server, _ := setupTestServer(t, []activity.Record{
		{ActivityNumber: "0001", Title: "Sunset Yoga", Category: "yoga", Status: activity.StatusActive},
	})

	w := doRequest(server, "GET", "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["activities"] != float64(1) {
		t.Errorf("Expected 1 activity in health payload, got %v", body["activities"])
	}
}

func TestGetStats(t *testing.T) {
	server, _ := setupTestServer(t, []activity.Record{
		{ActivityNumber: "0001", Title: "A", Category: "yoga", Status: activity.StatusActive},
		{ActivityNumber: "0002", Title: "B", Category: "yoga", Status: activity.StatusDraft, FlexibleTime: true},
	})

	w := doRequest(server, "GET", "/stats", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	var body struct {
		Total      int            `json:"total"`
		ByStatus   map[string]int `json:"by_status"`
		ByCategory map[string]int `json:"by_category"`
		Flexible   int            `json:"flexible"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body.Total != 2 || body.ByCategory["yoga"] != 2 || body.Flexible != 1 {
		t.Errorf("Unexpected stats: %+v", body)
	}
	if body.ByStatus["active"] != 1 || body.ByStatus["draft"] != 1 {
		t.Errorf("Unexpected status breakdown: %v", body.ByStatus)
	}
}

func TestAuthMiddleware(t *testing.T) {
	server, _ := setupTestServer(t, nil)

	w := doRequest(server, "POST", "/api/reconcile", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without a key, got %d", w.Code)
	}

	w = doRequest(server, "POST", "/api/reconcile", map[string]string{"X-API-Key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with a wrong key, got %d", w.Code)
	}

	w = doRequest(server, "POST", "/api/reconcile", map[string]string{"X-API-Key": testAccessKey})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with the right key, got %d", w.Code)
	}

	w = doRequest(server, "POST", "/api/reconcile", map[string]string{"Authorization": "Bearer " + testAccessKey})
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with a bearer token, got %d", w.Code)
	}
}

func TestAuthDisabledWithoutKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activities.json")
	runner := tasks.NewRunner(store.NewJSONStore(path), activity.NewReconciler(activity.DefaultPolicy()), nil)
	handler := NewHandler(runner, &stubScheduler{}, nil, store.NewSheetAdapter(activity.DefaultPolicy()), "")
	server := NewServer(handler, "")

	w := doRequest(server, "POST", "/api/reconcile", map[string]string{"X-API-Key": "anything"})
	if w.Code != http.StatusForbidden {
		t.Errorf("Expected 403 when no key is configured, got %d", w.Code)
	}
}

func TestReconcileEndpoint(t *testing.T) {
	server, _ := setupTestServer(t, []activity.Record{
		{ActivityNumber: "0001", Title: "Sunset Yoga", Category: "yoga", Time: "08:00-09:00"},
		{ActivityNumber: "0002", Title: "Sunset Yoga", Category: "yoga", Time: "08:00-09:00"},
	})

	w := doRequest(server, "POST", "/api/reconcile", map[string]string{"X-API-Key": testAccessKey})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var report activity.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("Failed to parse report: %v", err)
	}
	if report.DuplicatesRemoved != 1 {
		t.Errorf("Expected 1 duplicate removed, got %d", report.DuplicatesRemoved)
	}
}

func TestExportEndpointQueuesTask(t *testing.T) {
	server, scheduler := setupTestServer(t, nil)

	w := doRequest(server, "POST", "/api/export", map[string]string{"X-API-Key": testAccessKey})
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d", w.Code)
	}
	if len(scheduler.enqueued) != 1 {
		t.Errorf("Expected 1 queued task, got %d", len(scheduler.enqueued))
	}
}

func TestListRunsWithoutAuditTrail(t *testing.T) {
	server, _ := setupTestServer(t, nil)

	w := doRequest(server, "GET", "/api/runs", map[string]string{"X-API-Key": testAccessKey})
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when the audit trail is disabled, got %d", w.Code)
	}
}
