package api

import (
	"time"

	"contentpilot/internal/session"
)

// Wire records mirror the backend's snake_case JSON exactly. Mapping to the
// domain shape is 1:1; no field is dropped in either direction.

type jobRecord struct {
	ID                string       `json:"id"`
	UserID            string       `json:"user_id"`
	TemplateID        *string      `json:"template_id"`
	Prompt            string       `json:"prompt"`
	Status            Status       `json:"status"`
	Script            *string      `json:"script"`
	SRT               *string      `json:"srt"`
	MetadataJSON      *JobMetadata `json:"metadata_json"`
	VideoURL          *string      `json:"video_url"`
	ThumbnailURL      *string      `json:"thumbnail_url"`
	YouTubeVideoID    *string      `json:"youtube_video_id"`
	ErrorMessage      *string      `json:"error_message"`
	RetryCount        int          `json:"retry_count"`
	DurationSeconds   *float64     `json:"duration_seconds"`
	RenderTimeSeconds *float64     `json:"render_time_seconds"`
	CreatedAt         time.Time    `json:"created_at"`
	UpdatedAt         time.Time    `json:"updated_at"`
}

func (r jobRecord) toDomain() Job {
	return Job{
		ID:                r.ID,
		UserID:            r.UserID,
		TemplateID:        r.TemplateID,
		Prompt:            r.Prompt,
		Status:            r.Status,
		Script:            r.Script,
		SRT:               r.SRT,
		Metadata:          r.MetadataJSON,
		VideoURL:          r.VideoURL,
		ThumbnailURL:      r.ThumbnailURL,
		YouTubeVideoID:    r.YouTubeVideoID,
		ErrorMessage:      r.ErrorMessage,
		RetryCount:        r.RetryCount,
		DurationSeconds:   r.DurationSeconds,
		RenderTimeSeconds: r.RenderTimeSeconds,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type jobListRecord struct {
	Jobs     []jobRecord `json:"jobs"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func (r jobListRecord) toDomain() JobList {
	jobs := make([]Job, 0, len(r.Jobs))
	for _, job := range r.Jobs {
		jobs = append(jobs, job.toDomain())
	}
	return JobList{Jobs: jobs, Total: r.Total, Page: r.Page, PageSize: r.PageSize}
}

type userRecord struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	Plan                string     `json:"plan"`
	OAuthProvider       string     `json:"oauth_provider"`
	IsActive            bool       `json:"is_active"`
	EmailVerified       bool       `json:"email_verified"`
	LastLoginAt         *time.Time `json:"last_login_at"`
	OnboardingCompleted bool       `json:"onboarding_completed"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (r userRecord) toDomain() session.User {
	return session.User{
		ID:                  r.ID,
		Email:               r.Email,
		Plan:                r.Plan,
		OAuthProvider:       r.OAuthProvider,
		IsActive:            r.IsActive,
		EmailVerified:       r.EmailVerified,
		LastLoginAt:         r.LastLoginAt,
		OnboardingCompleted: r.OnboardingCompleted,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

type templateRecord struct {
	ID              string    `json:"id"`
	UserID          *string   `json:"user_id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	IsSystemDefault bool      `json:"is_system_default"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r templateRecord) toDomain() Template {
	return Template{
		ID:              r.ID,
		UserID:          r.UserID,
		Name:            r.Name,
		Description:     r.Description,
		IsSystemDefault: r.IsSystemDefault,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type templateListRecord struct {
	Templates []templateRecord `json:"templates"`
	Total     int              `json:"total"`
}

type authRecord struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	User        userRecord `json:"user"`
}

type onboardingRecord struct {
	OnboardingCompleted bool       `json:"onboarding_completed"`
	User                userRecord `json:"user"`
}
