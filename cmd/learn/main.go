package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/aussiebroadwan/learn/internal/learn/app"
	"github.com/aussiebroadwan/learn/internal/learn/domain"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:           "learn",
		Short:         "Learn platform server",
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(envFile)
		},
	}
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional file of environment variables")

	cmd.AddCommand(newServeCommand(&envFile))
	cmd.AddCommand(newMigrateCommand(&envFile))
	cmd.AddCommand(newCoursesCommand(&envFile))
	return cmd
}

func newServeCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(*envFile)
		},
	}
}

func serve(envFile string) error {
	application, err := app.New(app.LoadConfig(envFile))
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run()
}

func newMigrateCommand(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig(*envFile)
			if err := cfg.Validate(); err != nil {
				return err
			}

			db, err := app.OpenStore(commandContext(cmd), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.ApplyMigrations(); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", cfg.DBDriver)
			return nil
		},
	}
}

func newCoursesCommand(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "courses",
		Short: "Course catalog operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the course catalog, seeding it when empty",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.LoadConfig(*envFile)
			courses, err := app.NewCourseStore(cfg, app.NewLogger(cfg)).ListCourses(commandContext(cmd))
			if err != nil {
				return err
			}
			return printCourses(cmd.OutOrStdout(), courses)
		},
	})
	return cmd
}

func printCourses(w io.Writer, courses []domain.Course) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODULE\tLEVEL\tMINUTES\tTITLE")
	for _, c := range courses {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", c.ModuleID, c.Level, c.EstimatedTimeMinutes, c.Title)
	}
	return tw.Flush()
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
