package api

import (
	"encoding/json"
	"testing"
	"time"
)

func TestJobWireMappingPreservesEveryField(t *testing.T) {
	raw := []byte(`{
		"id": "job-9",
		"user_id": "user-3",
		"template_id": "tmpl-1",
		"prompt": "Make a 30s demo",
		"status": "done",
		"script": "scene one",
		"srt": "1\n00:00:00,000 --> 00:00:02,000\nhello",
		"metadata_json": {"title": "Demo", "description": "A demo", "tags": ["first", "second", "third"]},
		"video_url": "https://cdn.example.com/v/job-9.mp4",
		"thumbnail_url": "https://cdn.example.com/t/job-9.jpg",
		"youtube_video_id": "dQw4w9WgXcQ",
		"error_message": null,
		"retry_count": 2,
		"duration_seconds": 30.5,
		"render_time_seconds": 81.2,
		"created_at": "2026-03-01T10:00:00Z",
		"updated_at": "2026-03-01T10:05:00Z"
	}`)

	var record jobRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	job := record.toDomain()

	if job.ID != "job-9" || job.UserID != "user-3" {
		t.Fatalf("identity lost: %+v", job)
	}
	if job.TemplateID == nil || *job.TemplateID != "tmpl-1" {
		t.Fatal("template id lost")
	}
	if job.Prompt != "Make a 30s demo" || job.Status != StatusDone {
		t.Fatalf("prompt/status lost: %+v", job)
	}
	if job.Script == nil || *job.Script != "scene one" {
		t.Fatal("script lost")
	}
	if job.SRT == nil || *job.SRT == "" {
		t.Fatal("srt lost")
	}
	if job.Metadata == nil || job.Metadata.Title != "Demo" || job.Metadata.Description != "A demo" {
		t.Fatalf("metadata lost: %+v", job.Metadata)
	}
	wantTags := []string{"first", "second", "third"}
	if len(job.Metadata.Tags) != len(wantTags) {
		t.Fatalf("tag count mismatch: %v", job.Metadata.Tags)
	}
	for i, tag := range wantTags {
		if job.Metadata.Tags[i] != tag {
			t.Fatalf("tag order not preserved: %v", job.Metadata.Tags)
		}
	}
	if job.VideoURL == nil || job.ThumbnailURL == nil || job.YouTubeVideoID == nil {
		t.Fatal("media fields lost")
	}
	if job.ErrorMessage != nil {
		t.Fatal("error message should be nil")
	}
	if job.RetryCount != 2 {
		t.Fatalf("retry count lost: %d", job.RetryCount)
	}
	if job.DurationSeconds == nil || *job.DurationSeconds != 30.5 {
		t.Fatal("duration lost")
	}
	if job.RenderTimeSeconds == nil || *job.RenderTimeSeconds != 81.2 {
		t.Fatal("render time lost")
	}
	if !job.CreatedAt.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("created_at lost: %v", job.CreatedAt)
	}
	if !job.UpdatedAt.Equal(time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)) {
		t.Fatalf("updated_at lost: %v", job.UpdatedAt)
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status     Status
		inProgress bool
		terminal   bool
	}{
		{StatusQueued, true, false},
		{StatusGenerating, true, false},
		{StatusRendering, true, false},
		{StatusUploading, true, false},
		{StatusDone, false, true},
		{StatusFailed, false, true},
	}

	for _, tc := range cases {
		if tc.status.InProgress() != tc.inProgress {
			t.Fatalf("%s: InProgress()=%v", tc.status, tc.status.InProgress())
		}
		if tc.status.Terminal() != tc.terminal {
			t.Fatalf("%s: Terminal()=%v", tc.status, tc.status.Terminal())
		}
	}
}

func TestJobUpdateMarshalOmitsNilFields(t *testing.T) {
	script := "only the script"
	raw, err := json.Marshal(JobUpdate{Script: &script})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected exactly one key, got %v", keys)
	}
	if _, ok := keys["script"]; !ok {
		t.Fatalf("expected script key, got %v", keys)
	}
}

func TestUserWireMapping(t *testing.T) {
	raw := []byte(`{
		"id": "user-3",
		"email": "maker@example.com",
		"plan": "pro",
		"oauth_provider": "email",
		"is_active": true,
		"email_verified": true,
		"last_login_at": "2026-02-28T09:00:00Z",
		"onboarding_completed": false,
		"created_at": "2026-01-01T00:00:00Z",
		"updated_at": "2026-02-28T09:00:00Z"
	}`)

	var record userRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	user := record.toDomain()

	if user.ID != "user-3" || user.Email != "maker@example.com" || user.Plan != "pro" {
		t.Fatalf("identity lost: %+v", user)
	}
	if user.OAuthProvider != "email" || !user.IsActive || !user.EmailVerified {
		t.Fatalf("flags lost: %+v", user)
	}
	if user.LastLoginAt == nil || !user.LastLoginAt.Equal(time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)) {
		t.Fatal("last login lost")
	}
	if user.OnboardingCompleted {
		t.Fatal("onboarding flag lost")
	}
}
