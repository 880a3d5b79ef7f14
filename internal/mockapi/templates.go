package mockapi

import "time"

// Template is a reusable brand preset. The mock serves a fixed set of
// system defaults; template authoring is not part of the pipeline contract.
type Template struct {
	ID              string
	UserID          *string
	Name            string
	Description     *string
	IsSystemDefault bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SystemTemplates returns the built-in template set.
func SystemTemplates() []Template {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	describe := func(s string) *string { return &s }

	return []Template{
		{
			ID:              "tmpl-shorts-bold",
			Name:            "Bold Shorts",
			Description:     describe("High-contrast captions for short-form video"),
			IsSystemDefault: true,
			CreatedAt:       created,
			UpdatedAt:       created,
		},
		{
			ID:              "tmpl-clean-minimal",
			Name:            "Clean Minimal",
			Description:     describe("Plain white background with centered subtitles"),
			IsSystemDefault: true,
			CreatedAt:       created,
			UpdatedAt:       created,
		},
		{
			ID:              "tmpl-retro-vhs",
			Name:            "Retro VHS",
			Description:     describe("Grainy overlay and mono-spaced captions"),
			IsSystemDefault: true,
			CreatedAt:       created,
			UpdatedAt:       created,
		},
	}
}
