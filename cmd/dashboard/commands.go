package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"contentpilot/internal/dashboard"
)

func newLoginCommand(a **app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := (*a).client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := (*a).session.SetAuth(result.User, result.AccessToken); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}
			fmt.Printf("signed in as %s\n", result.User.Email)
			dashboard.UserCard(os.Stdout, result.User)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newSignupCommand(a **app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := (*a).client.Signup(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if err := (*a).session.SetAuth(result.User, result.AccessToken); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}
			fmt.Printf("account created for %s\n", result.User.Email)
			dashboard.UserCard(os.Stdout, result.User)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The server call is best effort; local credentials are
			// cleared either way.
			if err := (*a).client.Logout(cmd.Context()); err != nil {
				(*a).logger.Warn("server logout failed", "error", err)
			}
			if err := (*a).session.ClearAuth(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Println("signed out")
			return nil
		},
	}
}

func newWhoamiCommand(a **app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := (*a).requireAuth(); err != nil {
				return err
			}
			user, err := (*a).client.Me(cmd.Context())
			if err != nil {
				return err
			}
			(*a).session.SetUser(user)
			dashboard.UserCard(os.Stdout, user)
			return nil
		},
	}
}

func newOnboardingCommand(a **app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onboarding",
		Short: "Manage onboarding state",
	}

	set := func(completed bool) func(*cobra.Command, []string) error {
		return func(c *cobra.Command, args []string) error {
			if err := (*a).requireAuth(); err != nil {
				return err
			}
			user, err := (*a).client.SetOnboardingStatus(c.Context(), completed)
			if err != nil {
				return err
			}
			(*a).session.UpdateOnboardingStatus(user.OnboardingCompleted)
			dashboard.UserCard(os.Stdout, user)
			return nil
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "done",
			Short: "Mark onboarding as completed",
			RunE:  set(true),
		},
		&cobra.Command{
			Use:   "reset",
			Short: "Mark onboarding as not completed",
			RunE:  set(false),
		},
	)
	return cmd
}

func newTemplatesCommand(a **app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Work with video templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available templates",
		RunE: func(c *cobra.Command, args []string) error {
			if err := (*a).requireAuth(); err != nil {
				return err
			}
			templates, err := (*a).client.ListTemplates(c.Context())
			if err != nil {
				return err
			}
			dashboard.TemplateTable(os.Stdout, templates)
			return nil
		},
	})
	return cmd
}

func newJobsCommand(a **app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and manage generation jobs",
	}

	cmd.AddCommand(
		newJobsListCommand(a),
		newJobsGetCommand(a),
		newJobsWatchCommand(a),
		newJobsCreateCommand(a),
		newJobsUpdateCommand(a),
	)
	return cmd
}
