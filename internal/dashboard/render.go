// Package dashboard renders read-only views of session and job data for the
// terminal. It never mutates anything; it only formats what the session
// store and the reconciliation engine hand it.
package dashboard

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"contentpilot/internal/api"
	"contentpilot/internal/session"
)

const promptPreviewWidth = 48

// JobTable renders one page of the job collection in server order.
func JobTable(w io.Writer, list api.JobList) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Status", "Prompt", "Retries", "Updated"})

	for _, job := range list.Jobs {
		t.AppendRow(table.Row{
			job.ID,
			statusLabel(job.Status),
			text.Trim(strings.ReplaceAll(job.Prompt, "\n", " "), promptPreviewWidth),
			job.RetryCount,
			job.UpdatedAt.Local().Format(time.DateTime),
		})
	}

	t.AppendFooter(table.Row{"", "", "", "total", list.Total})
	t.Render()
	fmt.Fprintf(w, "page %d, %d per page\n", list.Page, list.PageSize)
}

// JobCard renders the full detail of a single job.
func JobCard(w io.Writer, job api.Job) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendRow(table.Row{"ID", job.ID})
	t.AppendRow(table.Row{"Status", statusLabel(job.Status)})
	t.AppendRow(table.Row{"Prompt", job.Prompt})
	if job.TemplateID != nil {
		t.AppendRow(table.Row{"Template", *job.TemplateID})
	}
	if job.Metadata != nil {
		t.AppendRow(table.Row{"Title", job.Metadata.Title})
		if len(job.Metadata.Tags) > 0 {
			t.AppendRow(table.Row{"Tags", strings.Join(job.Metadata.Tags, ", ")})
		}
	}
	if job.Script != nil {
		t.AppendRow(table.Row{"Script", text.Trim(*job.Script, 200)})
	}
	if job.VideoURL != nil {
		t.AppendRow(table.Row{"Video", *job.VideoURL})
	}
	if job.YouTubeVideoID != nil {
		t.AppendRow(table.Row{"YouTube", *job.YouTubeVideoID})
	}
	if job.ErrorMessage != nil {
		t.AppendRow(table.Row{"Error", *job.ErrorMessage})
	}
	if job.DurationSeconds != nil {
		t.AppendRow(table.Row{"Duration", fmt.Sprintf("%.1fs", *job.DurationSeconds)})
	}
	if job.RenderTimeSeconds != nil {
		t.AppendRow(table.Row{"Render time", fmt.Sprintf("%.1fs", *job.RenderTimeSeconds)})
	}
	t.AppendRow(table.Row{"Created", job.CreatedAt.Local().Format(time.DateTime)})
	t.AppendRow(table.Row{"Updated", job.UpdatedAt.Local().Format(time.DateTime)})

	t.Render()
}

// UserCard renders the signed-in account.
func UserCard(w io.Writer, user session.User) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendRow(table.Row{"Email", user.Email})
	t.AppendRow(table.Row{"Plan", user.Plan})
	t.AppendRow(table.Row{"Provider", user.OAuthProvider})
	t.AppendRow(table.Row{"Verified", user.EmailVerified})
	t.AppendRow(table.Row{"Onboarded", user.OnboardingCompleted})
	if user.LastLoginAt != nil {
		t.AppendRow(table.Row{"Last login", user.LastLoginAt.Local().Format(time.DateTime)})
	}

	t.Render()
}

// TemplateTable renders the available templates.
func TemplateTable(w io.Writer, templates []api.Template) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Description", "System"})

	for _, tpl := range templates {
		description := ""
		if tpl.Description != nil {
			description = text.Trim(*tpl.Description, promptPreviewWidth)
		}
		t.AppendRow(table.Row{tpl.ID, tpl.Name, description, tpl.IsSystemDefault})
	}

	t.Render()
}

func statusLabel(status api.Status) string {
	switch status {
	case api.StatusDone:
		return text.FgGreen.Sprint(status)
	case api.StatusFailed:
		return text.FgRed.Sprint(status)
	default:
		return text.FgYellow.Sprint(status)
	}
}
