package mockapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler serves the HTTP surface of the mock backend.
type Handler struct {
	auth      *AuthService
	store     *JobStore
	templates []Template
	logger    *slog.Logger
}

// NewHandler creates a Handler over the given services.
func NewHandler(auth *AuthService, store *JobStore, logger *slog.Logger) *Handler {
	return &Handler{
		auth:      auth,
		store:     store,
		templates: SystemTemplates(),
		logger:    logger,
	}
}

type userPayload struct {
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

type jobPayload struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	TemplateID        *string    `json:"template_id"`
	Prompt            string     `json:"prompt"`
	Status            string     `json:"status"`
	Script            *string    `json:"script"`
	SRT               *string    `json:"srt"`
	MetadataJSON      *Metadata  `json:"metadata_json"`
	VideoURL          *string    `json:"video_url"`
	ThumbnailURL      *string    `json:"thumbnail_url"`
	YouTubeVideoID    *string    `json:"youtube_video_id"`
	ErrorMessage      *string    `json:"error_message"`
	RetryCount        int        `json:"retry_count"`
	DurationSeconds   *float64   `json:"duration_seconds"`
	RenderTimeSeconds *float64   `json:"render_time_seconds"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type jobListPayload struct {
	Jobs     []jobPayload `json:"jobs"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type templatePayload struct {
	ID              string    `json:"id"`
	UserID          *string   `json:"user_id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description"`
	IsSystemDefault bool      `json:"is_system_default"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type authPayload struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        userPayload `json:"user"`
}

type onboardingPayload struct {
	OnboardingCompleted bool        `json:"onboarding_completed"`
	User                userPayload `json:"user"`
}

func toUserPayload(u User) userPayload {
	return userPayload{
		ID:                  u.ID.String(),
		Email:               u.Email,
		Plan:                u.Plan,
		OAuthProvider:       u.OAuthProvider,
		IsActive:            u.IsActive,
		EmailVerified:       u.EmailVerified,
		LastLoginAt:         u.LastLoginAt,
		OnboardingCompleted: u.OnboardingCompleted,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func toJobPayload(j Job) jobPayload {
	return jobPayload{
		ID:                j.ID.String(),
		UserID:            j.UserID.String(),
		TemplateID:        j.TemplateID,
		Prompt:            j.Prompt,
		Status:            j.Status,
		Script:            j.Script,
		SRT:               j.SRT,
		MetadataJSON:      j.Metadata,
		VideoURL:          j.VideoURL,
		ThumbnailURL:      j.ThumbnailURL,
		YouTubeVideoID:    j.YouTubeVideoID,
		ErrorMessage:      j.ErrorMessage,
		RetryCount:        j.RetryCount,
		DurationSeconds:   j.DurationSeconds,
		RenderTimeSeconds: j.RenderTimeSeconds,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup handles POST /api/v1/auth/signup.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.auth.Signup(req.Email, req.Password)
	switch {
	case errors.Is(err, ErrEmailTaken):
		writeAuthError(w, http.StatusConflict, "email already registered")
		return
	case err != nil:
		writeAuthError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	writeJSON(w, http.StatusCreated, authPayload{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserPayload(user),
	})
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		writeAuthError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	writeJSON(w, http.StatusOK, authPayload{
		AccessToken: token,
		TokenType:   "bearer",
		User:        toUserPayload(user),
	})
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so there
// is nothing to revoke; the endpoint exists so sign-out flows have a
// server call to make.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /api/v1/users/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		writeDetailError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, toUserPayload(user))
}

type onboardingRequest struct {
	OnboardingCompleted bool `json:"onboarding_completed"`
}

// SetOnboarding handles PUT /api/v1/users/me/onboarding.
func (h *Handler) SetOnboarding(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		writeDetailError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req onboardingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetailError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.auth.SetOnboarding(user.ID, req.OnboardingCompleted)
	if err != nil {
		writeDetailError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	writeJSON(w, http.StatusOK, onboardingPayload{
		OnboardingCompleted: updated.OnboardingCompleted,
		User:                toUserPayload(updated),
	})
}

// ListTemplates handles GET /api/v1/templates.
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	payload := make([]templatePayload, 0, len(h.templates))
	for _, t := range h.templates {
		payload = append(payload, templatePayload{
			ID:              t.ID,
			UserID:          t.UserID,
			Name:            t.Name,
			Description:     t.Description,
			IsSystemDefault: t.IsSystemDefault,
			CreatedAt:       t.CreatedAt,
			UpdatedAt:       t.UpdatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": payload})
}

// ListJobs handles GET /api/v1/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		writeDetailError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	query := r.URL.Query()
	page := parseIntOr(query.Get("page"), 1)
	pageSize := parseIntOr(query.Get("page_size"), 20)
	statusFilter := query.Get("status_filter")

	jobs, total := h.store.ListByUser(user.ID, statusFilter, page, pageSize)

	payload := jobListPayload{
		Jobs:     make([]jobPayload, 0, len(jobs)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}
	for _, job := range jobs {
		payload.Jobs = append(payload.Jobs, toJobPayload(job))
	}
	writeJSON(w, http.StatusOK, payload)
}

// GetJob handles GET /api/v1/jobs/{jobID}.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		writeDetailError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeDetailError(w, http.StatusNotFound, "Job not found")
		return
	}

	job, found := h.store.Get(id)
	if !found || job.UserID != user.ID {
		writeDetailError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, toJobPayload(job))
}

type createJobRequest struct {
	Prompt     string  `json:"prompt"`
	TemplateID *string `json:"template_id"`
}

// CreateJob handles POST /api/v1/jobs.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		writeDetailError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req createJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetailError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if len(prompt) < 3 {
		writeDetailError(w, http.StatusUnprocessableEntity, "prompt must be at least 3 characters")
		return
	}

	job, err := h.store.Create(user.ID, prompt, req.TemplateID)
	if errors.Is(err, ErrQuotaExceeded) {
		writeDetailError(w, http.StatusTooManyRequests, "monthly generation quota exceeded")
		return
	}
	if err != nil {
		h.logger.Error("create job", "error", err)
		writeDetailError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.Info("job created", "job_id", job.ID, "user_id", user.ID)
	writeJSON(w, http.StatusCreated, toJobPayload(job))
}

type updateJobRequest struct {
	Script       *string   `json:"script"`
	SRT          *string   `json:"srt"`
	MetadataJSON *Metadata `json:"metadata_json"`
}

// UpdateJob handles PATCH /api/v1/jobs/{jobID}.
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		writeDetailError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "jobID"))
	if err != nil {
		writeDetailError(w, http.StatusNotFound, "Job not found")
		return
	}
	if job, found := h.store.Get(id); !found || job.UserID != user.ID {
		writeDetailError(w, http.StatusNotFound, "Job not found")
		return
	}

	var req updateJobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDetailError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := h.store.Apply(id, JobPatch{
		Script:   req.Script,
		SRT:      req.SRT,
		Metadata: req.MetadataJSON,
	})
	switch {
	case errors.Is(err, ErrJobNotFound):
		writeDetailError(w, http.StatusNotFound, "Job not found")
		return
	case errors.Is(err, ErrNotEditable):
		writeDetailError(w, http.StatusConflict, "job is not editable while processing")
		return
	case err != nil:
		h.logger.Error("update job", "error", err)
		writeDetailError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, toJobPayload(job))
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseIntOr(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeDetailError writes the {"detail":{"message":...}} envelope used by
// job and user endpoints.
func writeDetailError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"detail": map[string]string{"message": message},
	})
}

// writeAuthError writes the {"error":{"message":...}} envelope used by
// auth endpoints.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{"message": message},
	})
}
