package main

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"contentpilot/internal/api"
	"contentpilot/internal/dashboard"
	"contentpilot/internal/jobs"
)

const (
	promptMinLength = 3
	promptMaxLength = 2000
)

func validatePrompt(prompt string) error {
	length := utf8.RuneCountInString(strings.TrimSpace(prompt))
	if length < promptMinLength {
		return fmt.Errorf("prompt must be at least %d characters", promptMinLength)
	}
	if length > promptMaxLength {
		return fmt.Errorf("prompt must be at most %d characters", promptMaxLength)
	}
	return nil
}

func newJobsListCommand(a **app) *cobra.Command {
	var (
		status   string
		page     int
		pageSize int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your generation jobs",
		RunE: func(c *cobra.Command, args []string) error {
			if err := (*a).requireAuth(); err != nil {
				return err
			}
			list, err := (*a).client.ListJobs(c.Context(), api.ListJobsParams{
				Status:   api.Status(status),
				Page:     page,
				PageSize: pageSize,
			})
			if err != nil {
				return err
			}
			dashboard.JobTable(os.Stdout, list)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "filter by status (queued, generating, rendering, uploading, done, failed)")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "jobs per page")
	return cmd
}

func newJobsGetCommand(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <job-id>",
		Short: "Show one job",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := (*a).requireAuth(); err != nil {
				return err
			}
			job, err := (*a).client.GetJob(c.Context(), args[0])
			if err != nil {
				return err
			}
			dashboard.JobCard(os.Stdout, job)
			return nil
		},
	}
}

func newJobsWatchCommand(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [job-id]",
		Short: "Follow jobs as the pipeline advances them",
		Long: "With a job id, polls that job until it reaches a terminal state.\n" +
			"Without one, polls the job list until interrupted.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := (*a).requireAuth(); err != nil {
				return err
			}
			if len(args) == 1 {
				return watchJob(c, *a, args[0])
			}
			return watchList(c, *a)
		},
	}
}

func watchJob(c *cobra.Command, a *app, id string) error {
	ctx := c.Context()
	done := make(chan struct{})
	var once sync.Once

	stop := a.engine.WatchJob(ctx, id, func(res jobs.Result[api.Job]) {
		switch {
		case res.IsError:
			fmt.Fprintln(os.Stderr, "poll failed:", res.Err)
		case res.IsLoading:
			fmt.Println("fetching job...")
		default:
			dashboard.JobCard(os.Stdout, res.Data)
			if res.Data.Status.Terminal() {
				once.Do(func() { close(done) })
			}
		}
	})
	defer stop()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func watchList(c *cobra.Command, a *app) error {
	ctx := c.Context()

	stop := a.engine.WatchList(ctx, api.ListJobsParams{}, func(res jobs.Result[api.JobList]) {
		switch {
		case res.IsError:
			fmt.Fprintln(os.Stderr, "poll failed:", res.Err)
		case res.IsLoading:
			fmt.Println("fetching jobs...")
		default:
			dashboard.JobTable(os.Stdout, res.Data)
		}
	})
	defer stop()

	<-ctx.Done()
	return nil
}

func newJobsCreateCommand(a **app) *cobra.Command {
	var (
		prompt     string
		templateID string
		follow     bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Queue a new generation job",
		RunE: func(c *cobra.Command, args []string) error {
			if err := (*a).requireAuth(); err != nil {
				return err
			}
			if err := validatePrompt(prompt); err != nil {
				return err
			}

			params := api.CreateJobParams{Prompt: strings.TrimSpace(prompt)}
			if templateID != "" {
				params.TemplateID = &templateID
			}

			job, err := (*a).engine.CreateJob(c.Context(), params)
			if err != nil {
				return err
			}
			dashboard.JobCard(os.Stdout, job)

			if follow {
				return watchJob(c, *a, job.ID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "what the video should be about")
	cmd.Flags().StringVar(&templateID, "template", "", "template id to apply")
	cmd.Flags().BoolVar(&follow, "follow", false, "keep polling the job until it finishes")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func newJobsUpdateCommand(a **app) *cobra.Command {
	var (
		script      string
		srt         string
		title       string
		description string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "update <job-id>",
		Short: "Edit a finished job's script, subtitles, or metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			if err := (*a).requireAuth(); err != nil {
				return err
			}

			// Only flags the user actually set go on the wire; the rest
			// of the job stays untouched.
			var update api.JobUpdate
			flags := c.Flags()
			if flags.Changed("script") {
				update.Script = &script
			}
			if flags.Changed("srt") {
				update.SRT = &srt
			}
			if flags.Changed("title") || flags.Changed("description") || flags.Changed("tags") {
				update.Metadata = &api.JobMetadata{
					Title:       title,
					Description: description,
					Tags:        tags,
				}
			}
			if update.IsZero() {
				return fmt.Errorf("nothing to update; set at least one of --script, --srt, --title, --description, --tags")
			}

			job, err := (*a).engine.UpdateJob(c.Context(), args[0], update)
			if err != nil {
				return err
			}
			dashboard.JobCard(os.Stdout, job)
			return nil
		},
	}

	cmd.Flags().StringVar(&script, "script", "", "replacement script text")
	cmd.Flags().StringVar(&srt, "srt", "", "replacement subtitle text")
	cmd.Flags().StringVar(&title, "title", "", "publish title")
	cmd.Flags().StringVar(&description, "description", "", "publish description")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "publish tags")
	return cmd
}
