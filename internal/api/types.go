package api

import "time"

// Status is a job's position in the generation pipeline. Transitions are
// strictly one-directional and observed, never driven, by the client.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusGenerating Status = "generating"
	StatusRendering  Status = "rendering"
	StatusUploading  Status = "uploading"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition can occur.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// InProgress reports whether the job is still moving through the pipeline.
func (s Status) InProgress() bool {
	switch s {
	case StatusQueued, StatusGenerating, StatusRendering, StatusUploading:
		return true
	}
	return false
}

// JobMetadata is the editable publishing metadata attached to a job.
type JobMetadata struct {
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Job mirrors a server-owned long-running generation task.
type Job struct {
	ID                string
	UserID            string
	TemplateID        *string
	Prompt            string
	Status            Status
	Script            *string
	SRT               *string
	Metadata          *JobMetadata
	VideoURL          *string
	ThumbnailURL      *string
	YouTubeVideoID    *string
	ErrorMessage      *string
	RetryCount        int
	DurationSeconds   *float64
	RenderTimeSeconds *float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Editable reports whether the client may still change script, subtitles or
// metadata. This is a UI hint; the server enforces the real rule.
func (j Job) Editable() bool {
	return !j.Status.InProgress()
}

// JobList is one page of the server-ordered job collection.
type JobList struct {
	Jobs     []Job
	Total    int
	Page     int
	PageSize int
}

// ListJobsParams selects a page of the job collection. A zero Status means
// no filter; zero Page and PageSize fall back to the first page of twenty
// via WithDefaults.
type ListJobsParams struct {
	Status   Status
	Page     int
	PageSize int
}

func (p ListJobsParams) WithDefaults() ListJobsParams {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	return p
}

// CreateJobParams starts a new generation job. The prompt is assumed to have
// passed caller-side length validation already.
type CreateJobParams struct {
	Prompt     string
	TemplateID *string
}

// JobUpdate carries the editable fields of a PATCH. A nil field is omitted
// from the request body entirely; omission, not null, tells the backend to
// leave the field alone.
type JobUpdate struct {
	Script   *string      `json:"script,omitempty"`
	SRT      *string      `json:"srt,omitempty"`
	Metadata *JobMetadata `json:"metadata_json,omitempty"`
}

// IsZero reports whether the update would touch nothing.
func (u JobUpdate) IsZero() bool {
	return u.Script == nil && u.SRT == nil && u.Metadata == nil
}

// Template is a read-only view of a reusable brand template.
type Template struct {
	ID              string
	UserID          *string
	Name            string
	Description     *string
	IsSystemDefault bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
