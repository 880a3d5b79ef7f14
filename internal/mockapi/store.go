package mockapi

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrJobNotFound is returned when a job id resolves to nothing.
	ErrJobNotFound = errors.New("job not found")
	// ErrQuotaExceeded is returned when an account hits its monthly
	// creation limit.
	ErrQuotaExceeded = errors.New("monthly generation quota exceeded")
	// ErrNotEditable is returned for updates against a job still moving
	// through the pipeline.
	ErrNotEditable = errors.New("job is not editable while processing")
)

// Pipeline stages in order. done and failed are terminal.
const (
	stageQueued     = "queued"
	stageGenerating = "generating"
	stageRendering  = "rendering"
	stageUploading  = "uploading"
	stageDone       = "done"
	stageFailed     = "failed"
)

// Metadata is the editable publishing metadata blob.
type Metadata struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Job is a generation task owned by the mock pipeline.
type Job struct {
	ID                uuid.UUID
	UserID            uuid.UUID
	TemplateID        *string
	Prompt            string
	Status            string
	Script            *string
	SRT               *string
	Metadata          *Metadata
	VideoURL          *string
	ThumbnailURL      *string
	YouTubeVideoID    *string
	ErrorMessage      *string
	RetryCount        int
	DurationSeconds   *float64
	RenderTimeSeconds *float64
	CreatedAt         time.Time
	UpdatedAt         time.Time

	stageChangedAt time.Time
}

// JobPatch carries an update's fields; nil means leave alone.
type JobPatch struct {
	Script   *string
	SRT      *string
	Metadata *Metadata
}

// JobStore holds every job in memory and enforces the per-user monthly
// creation quota.
type JobStore struct {
	mu       sync.RWMutex
	jobs     map[uuid.UUID]*Job
	created  map[uuid.UUID]int
	quota    int
}

// NewJobStore creates a JobStore allowing monthlyQuota creations per user.
func NewJobStore(monthlyQuota int) *JobStore {
	return &JobStore{
		jobs:    make(map[uuid.UUID]*Job),
		created: make(map[uuid.UUID]int),
		quota:   monthlyQuota,
	}
}

// Create queues a new job for userID.
func (s *JobStore) Create(userID uuid.UUID, prompt string, templateID *string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.quota > 0 && s.created[userID] >= s.quota {
		return Job{}, ErrQuotaExceeded
	}

	now := time.Now().UTC()
	job := &Job{
		ID:             uuid.New(),
		UserID:         userID,
		TemplateID:     templateID,
		Prompt:         prompt,
		Status:         stageQueued,
		CreatedAt:      now,
		UpdatedAt:      now,
		stageChangedAt: now,
	}
	s.jobs[job.ID] = job
	s.created[userID]++
	return *job, nil
}

// Get returns a copy of the job.
func (s *JobStore) Get(id uuid.UUID) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// ListByUser returns one page of the user's jobs, most recent first, plus
// the filtered total.
func (s *JobStore) ListByUser(userID uuid.UUID, statusFilter string, page, pageSize int) ([]Job, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	s.mu.RLock()
	matched := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.UserID != userID {
			continue
		}
		if statusFilter != "" && job.Status != statusFilter {
			continue
		}
		matched = append(matched, *job)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (page - 1) * pageSize
	if start >= total {
		return []Job{}, total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total
}

// Apply patches an editable job. Jobs still moving through the pipeline
// reject edits.
func (s *JobStore) Apply(id uuid.UUID, patch JobPatch) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrJobNotFound
	}
	if !isTerminal(job.Status) {
		return Job{}, ErrNotEditable
	}

	if patch.Script != nil {
		job.Script = patch.Script
	}
	if patch.SRT != nil {
		job.SRT = patch.SRT
	}
	if patch.Metadata != nil {
		job.Metadata = patch.Metadata
	}
	job.UpdatedAt = time.Now().UTC()
	return *job, nil
}

// Advance moves every job whose current stage has lasted at least
// stageDuration to its next stage. Prompts containing "fail" fail during
// generation, exercising the client's failure path.
func (s *JobStore) Advance(now time.Time, stageDuration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if isTerminal(job.Status) {
			continue
		}
		if now.Sub(job.stageChangedAt) < stageDuration {
			continue
		}

		switch job.Status {
		case stageQueued:
			job.Status = stageGenerating
		case stageGenerating:
			if strings.Contains(strings.ToLower(job.Prompt), "fail") {
				job.Status = stageFailed
				message := "generation failed: unable to produce a script for this prompt"
				job.ErrorMessage = &message
			} else {
				script := "Generated script for: " + job.Prompt
				job.Script = &script
				job.Status = stageRendering
			}
		case stageRendering:
			srt := "1\n00:00:00,000 --> 00:00:03,000\n" + job.Prompt
			job.SRT = &srt
			job.Status = stageUploading
		case stageUploading:
			job.Status = stageDone
			videoURL := "https://cdn.contentpilot.local/videos/" + job.ID.String() + ".mp4"
			thumbnailURL := "https://cdn.contentpilot.local/thumbs/" + job.ID.String() + ".jpg"
			videoID := strings.ReplaceAll(job.ID.String(), "-", "")[:11]
			duration := 30.0
			renderTime := now.Sub(job.CreatedAt).Seconds()
			job.VideoURL = &videoURL
			job.ThumbnailURL = &thumbnailURL
			job.YouTubeVideoID = &videoID
			job.DurationSeconds = &duration
			job.RenderTimeSeconds = &renderTime
		}
		job.UpdatedAt = now
		job.stageChangedAt = now
	}
}

func isTerminal(status string) bool {
	return status == stageDone || status == stageFailed
}
