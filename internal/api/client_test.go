package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func tokenSource(tok string) TokenSource {
	return func() (string, bool) { return tok, tok != "" }
}

func TestListJobsSendsBearerAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Fatalf("unexpected Authorization header %q", got)
		}
		if r.URL.Path != "/api/v1/jobs" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("status_filter") != "rendering" || q.Get("page") != "2" || q.Get("page_size") != "10" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jobs": []any{}, "total": 0, "page": 2, "page_size": 10,
		})
	}))
	defer server.Close()

	client := NewClient(tokenSource("tok-1"), WithBaseURL(server.URL))
	list, err := client.ListJobs(context.Background(), ListJobsParams{Status: StatusRendering, Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if list.Page != 2 || list.PageSize != 10 {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestUnauthenticatedRequestOmitsAuthorizationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Fatal("Authorization header must be absent without a token")
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jobs": []any{}, "total": 0, "page": 1, "page_size": 20})
	}))
	defer server.Close()

	client := NewClient(nil, WithBaseURL(server.URL))
	if _, err := client.ListJobs(context.Background(), ListJobsParams{}); err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
}

func TestCreateJobSendsNullTemplateID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		raw, ok := body["template_id"]
		if !ok {
			t.Fatal("expected template_id key present")
		}
		if string(raw) != "null" {
			t.Fatalf("expected template_id null, got %s", raw)
		}
		_ = json.NewEncoder(w).Encode(sampleJobJSON("job-1", "queued"))
	}))
	defer server.Close()

	client := NewClient(tokenSource("tok"), WithBaseURL(server.URL))
	job, err := client.CreateJob(context.Background(), CreateJobParams{Prompt: "Make a 30s demo"})
	if err != nil {
		t.Fatalf("CreateJob: %v", err)
	}
	if job.ID != "job-1" || job.Status != StatusQueued {
		t.Fatalf("unexpected job %+v", job)
	}
}

func TestCreateJobQuotaMessageIsVerbatim(t *testing.T) {
	const message = "월간 생성 한도를 초과했습니다."
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"detail": map[string]any{"message": message}})
	}))
	defer server.Close()

	client := NewClient(tokenSource("tok"), WithBaseURL(server.URL))
	_, err := client.CreateJob(context.Background(), CreateJobParams{Prompt: "anything"})

	var quotaErr *QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("expected QuotaError, got %T: %v", err, err)
	}
	if quotaErr.Message != message {
		t.Fatalf("expected verbatim message %q, got %q", message, quotaErr.Message)
	}
}

func TestUpdateJobOmitsAbsentFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if _, ok := body["srt"]; ok {
			t.Fatal("srt must be omitted entirely, not null")
		}
		if _, ok := body["metadata_json"]; ok {
			t.Fatal("metadata_json must be omitted entirely")
		}
		if string(body["script"]) != `"new"` {
			t.Fatalf("unexpected script %s", body["script"])
		}
		_ = json.NewEncoder(w).Encode(sampleJobJSON("job-1", "done"))
	}))
	defer server.Close()

	script := "new"
	client := NewClient(tokenSource("tok"), WithBaseURL(server.URL))
	if _, err := client.UpdateJob(context.Background(), "job-1", JobUpdate{Script: &script}); err != nil {
		t.Fatalf("UpdateJob: %v", err)
	}
}

func TestUpdateJobNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"detail": map[string]any{"message": "Job not found"}})
	}))
	defer server.Close()

	script := "x"
	client := NewClient(tokenSource("tok"), WithBaseURL(server.URL))
	_, err := client.UpdateJob(context.Background(), "gone", JobUpdate{Script: &script})

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %T: %v", err, err)
	}
	if notFound.ID != "gone" {
		t.Fatalf("unexpected id %q", notFound.ID)
	}
}

func TestGenericErrorCarriesEnvelopeMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "invalid credentials"}})
	}))
	defer server.Close()

	client := NewClient(nil, WithBaseURL(server.URL))
	_, err := client.Login(context.Background(), "a@b.c", "nope")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "invalid credentials" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestTimeoutIsDistinctFromConnectivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(nil,
		WithBaseURL(server.URL),
		WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
	)
	_, err := client.GetJob(context.Background(), "job-1")

	var timeoutErr *TimeoutError
	if !errors.As(err, &timeoutErr) {
		t.Fatalf("expected TimeoutError, got %T: %v", err, err)
	}
}

func TestConnectivityFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(nil, WithBaseURL(server.URL))
	_, err := client.GetJob(context.Background(), "job-1")

	var connErr *ConnectivityError
	if !errors.As(err, &connErr) {
		t.Fatalf("expected ConnectivityError, got %T: %v", err, err)
	}
}

// sampleJobJSON builds a minimal wire-shape job response.
func sampleJobJSON(id, status string) map[string]any {
	now := time.Now().UTC().Format(time.RFC3339)
	return map[string]any{
		"id":                  id,
		"user_id":             "user-1",
		"template_id":         nil,
		"prompt":              "Make a 30s demo",
		"status":              status,
		"script":              nil,
		"srt":                 nil,
		"metadata_json":       nil,
		"video_url":           nil,
		"thumbnail_url":       nil,
		"youtube_video_id":    nil,
		"error_message":       nil,
		"retry_count":         0,
		"duration_seconds":    nil,
		"render_time_seconds": nil,
		"created_at":          now,
		"updated_at":          now,
	}
}
