package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"meetingd/internal/bootstrap"
	catalogdto "meetingd/internal/modules/catalog/dto"
	sessiondto "meetingd/internal/modules/session/dto"
	"meetingd/internal/platform/config"
	"meetingd/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	dataDir    string
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "meetingd",
		Short:         "Meeting session timing engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", ".", "directory holding the database, agendas and alert sinks")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (defaults to meetingd.yaml in the data dir)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newSessionCmd(opts))
	root.AddCommand(newSectionsCmd(opts))
	root.AddCommand(newAlertsCmd(opts))
	root.AddCommand(newCleanupCmd(opts))
	return root
}

func loadApp(ctx context.Context, opts *rootOptions) (*bootstrap.App, error) {
	cfg, err := config.Load(opts.configPath, opts.dataDir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(ctx, cfg, logger)
}

// withApp builds the app for one command and releases it afterwards.
func withApp(opts *rootOptions, run func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		app, err := loadApp(ctx, opts)
		if err != nil {
			return err
		}
		defer func() { _ = app.Close(context.WithoutCancel(ctx)) }()
		return run(ctx, app, cmd.OutOrStdout(), args)
	}
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func required(flags map[string]string) error {
	for name, value := range flags {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("--%s is required", name)
		}
	}
	return nil
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the session HTTP API and run the stale session janitor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gin.SetMode(gin.ReleaseMode)
			app, err := loadApp(ctx, opts)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close(context.Background()) }()

			go runJanitor(ctx, app)

			server := &http.Server{
				Addr:              app.Config.HTTP.Addr,
				Handler:           app.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				app.Logger.WithField("addr", server.Addr).Info("meetingd listening")
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			app.Logger.Info("meetingd shutting down")
			return server.Shutdown(shutdownCtx)
		},
	}
}

// runJanitor abandons stale sessions on every cleanup interval until ctx ends.
func runJanitor(ctx context.Context, app *bootstrap.App) {
	interval := app.Config.Cleanup.Interval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			out, err := app.SessionCLI.Cleanup(ctx, app.Config.Cleanup.StaleAfter)
			if err != nil {
				app.Logger.WithError(err).Error("stale session cleanup failed")
				continue
			}
			if len(out.Abandoned) > 0 || len(out.Failed) > 0 {
				app.Logger.WithFields(logrus.Fields{
					"abandoned": len(out.Abandoned),
					"failed":    len(out.Failed),
				}).Info("stale session cleanup")
			}
		}
	}
}

func newSessionCmd(opts *rootOptions) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Meeting session lifecycle"}

	var org, team, meetingType, facilitator string
	start := &cobra.Command{
		Use:   "start --org <id> --team <id> --facilitator <id>",
		Short: "Start a session or resume the active one",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			if err := required(map[string]string{"org": org, "team": team, "facilitator": facilitator}); err != nil {
				return err
			}
			res, err := app.SessionCLI.Start(ctx, sessiondto.StartInput{
				OrganizationID: org,
				TeamID:         team,
				MeetingType:    meetingType,
				FacilitatorID:  facilitator,
			})
			if err != nil {
				return err
			}
			verb := "started"
			if res.Resumed {
				verb = "resumed"
			}
			_, _ = fmt.Fprintf(out, "session %s: %s team=%s type=%s at=%s\n", verb, res.Session.ID, res.Session.TeamID, res.Session.MeetingType, res.Session.StartTime.Format(time.RFC3339))
			return nil
		}),
	}
	start.Flags().StringVar(&org, "org", "", "organization id")
	start.Flags().StringVar(&team, "team", "", "team id")
	start.Flags().StringVar(&meetingType, "type", "weekly", "meeting type")
	start.Flags().StringVar(&facilitator, "facilitator", "", "facilitator user id")

	var pauseActor, reason string
	pause := &cobra.Command{
		Use:   "pause <session-id>",
		Short: "Pause a running session",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			res, err := app.SessionCLI.Pause(ctx, args[0], pauseActor, reason)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "session paused: %s event=%s active=%ds\n", res.Session.ID, res.PauseEventID, res.Session.ActiveSeconds)
			return nil
		}),
	}
	pause.Flags().StringVar(&pauseActor, "actor", "", "user pausing the meeting")
	pause.Flags().StringVar(&reason, "reason", "", "why the meeting is paused")

	var resumeActor string
	resume := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume a paused session",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			res, err := app.SessionCLI.Resume(ctx, args[0], resumeActor)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "session resumed: %s paused=%ds total_paused=%ds\n", res.Session.ID, res.PauseDurationSeconds, res.Session.TotalPausedSeconds)
			return nil
		}),
	}
	resume.Flags().StringVar(&resumeActor, "actor", "", "user resuming the meeting")

	var endActor, conclusionPath string
	end := &cobra.Command{
		Use:   "end <session-id>",
		Short: "End a session, optionally writing its snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conclusion, err := readConclusion(conclusionPath)
			if err != nil {
				return err
			}
			return withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
				res, err := app.SessionCLI.End(ctx, args[0], endActor, conclusion)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(out, "session ended: %s duration=%ds", res.Session.ID, res.FinalDurationSeconds)
				if res.SnapshotID != "" {
					_, _ = fmt.Fprintf(out, " snapshot=%s location=%s", res.SnapshotID, res.SnapshotLocation)
				}
				_, _ = fmt.Fprintln(out)
				if res.ConclusionError != "" {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", res.ConclusionError)
				}
				return nil
			})(cmd, args)
		},
	}
	end.Flags().StringVar(&endActor, "actor", "", "user ending the meeting")
	end.Flags().StringVar(&conclusionPath, "conclusion", "", "JSON file with ratings, todos, issues and headlines")

	status := &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show timing, pace and pause history",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			res, err := app.SessionCLI.Status(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}

	var activeTeam, activeType string
	active := &cobra.Command{
		Use:   "active --team <id>",
		Short: "Show the active session of a team",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			if err := required(map[string]string{"team": activeTeam}); err != nil {
				return err
			}
			res, err := app.SessionCLI.Active(ctx, activeTeam, activeType)
			if err != nil {
				return err
			}
			return printJSON(out, res)
		}),
	}
	active.Flags().StringVar(&activeTeam, "team", "", "team id")
	active.Flags().StringVar(&activeType, "type", "weekly", "meeting type")

	session.AddCommand(start, pause, resume, end, status, active, newSectionCmd(opts))
	return session
}

func readConclusion(path string) (*sessiondto.ConclusionInput, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read conclusion: %w", err)
	}
	var conclusion sessiondto.ConclusionInput
	if err := json.Unmarshal(raw, &conclusion); err != nil {
		return nil, fmt.Errorf("--conclusion must be valid JSON: %w", err)
	}
	return &conclusion, nil
}

func newSectionCmd(opts *rootOptions) *cobra.Command {
	section := &cobra.Command{Use: "section", Short: "Agenda section timing"}

	section.AddCommand(&cobra.Command{
		Use:   "start <session-id> <section>",
		Short: "Start timing a section, ending the current one",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			res, err := app.SessionCLI.StartSection(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "section started: %s (%s) allocated=%ds\n", res.SectionID, res.SectionName, res.AllocatedSeconds)
			return nil
		}),
	})
	section.AddCommand(&cobra.Command{
		Use:   "end <session-id> <section>",
		Short: "Stop timing a section",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			res, err := app.SessionCLI.EndSection(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "section ended: %s actual=%ds overrun=%ds\n", res.SectionID, res.ActualSeconds, res.OverrunSeconds)
			return nil
		}),
	})
	return section
}

type sectionsFile struct {
	Sections []struct {
		ID              string `yaml:"id"`
		Name            string `yaml:"name"`
		DurationMinutes int    `yaml:"duration_minutes"`
	} `yaml:"sections"`
}

func newSectionsCmd(opts *rootOptions) *cobra.Command {
	sections := &cobra.Command{Use: "sections", Short: "Agenda configuration"}

	var org, team, meetingType string
	show := &cobra.Command{
		Use:   "show --org <id>",
		Short: "Show the agenda resolved for a team",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			res, err := app.CatalogCLI.Show(ctx, org, team, meetingType)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "source=%s\n", res.Source)
			for _, s := range res.Sections {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%dmin\n", s.ID, s.Name, s.DurationMinutes)
			}
			return nil
		}),
	}

	var file string
	set := &cobra.Command{
		Use:   "set --org <id> --file <sections.yaml>",
		Short: "Store an agenda for an organization or team",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			if err := required(map[string]string{"file": file}); err != nil {
				return err
			}
			raw, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read sections file: %w", err)
			}
			var parsed sectionsFile
			if err := yaml.Unmarshal(raw, &parsed); err != nil {
				return fmt.Errorf("parse sections file: %w", err)
			}
			input := catalogdto.SaveSectionsInput{OrganizationID: org, TeamID: team, MeetingType: meetingType}
			for _, s := range parsed.Sections {
				input.Sections = append(input.Sections, catalogdto.Section{ID: s.ID, Name: s.Name, DurationMinutes: s.DurationMinutes})
			}
			res, err := app.CatalogCLI.Set(ctx, input)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "saved %d sections to %s\n", len(res.Sections), res.Path)
			return nil
		}),
	}
	set.Flags().StringVar(&file, "file", "", "YAML file with a sections list")

	for _, c := range []*cobra.Command{show, set} {
		c.Flags().StringVar(&org, "org", "", "organization id")
		c.Flags().StringVar(&team, "team", "", "team id (empty for the organization default)")
		c.Flags().StringVar(&meetingType, "type", "weekly", "meeting type")
	}
	sections.AddCommand(show, set)
	return sections
}

func newAlertsCmd(opts *rootOptions) *cobra.Command {
	alerts := &cobra.Command{Use: "alerts", Short: "Alert sink operations"}

	alerts.AddCommand(&cobra.Command{
		Use:   "sinks",
		Short: "List configured alert sinks",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			sinks, err := app.AlertCLI.Sinks(ctx)
			if err != nil {
				return err
			}
			if len(sinks) == 0 {
				_, _ = fmt.Fprintln(out, "no alert sinks configured")
				return nil
			}
			for _, s := range sinks {
				_, _ = fmt.Fprintf(out, "%s@%s enabled=%t min_severity=%s binary=%s\n", s.Name, s.Version, s.Enabled, s.MinSeverity, s.Binary)
			}
			return nil
		}),
	})

	alerts.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Validate sink checksums and lifecycle",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			results, err := app.AlertCLI.Doctor(ctx)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				_, _ = fmt.Fprintln(out, "no alert sinks configured")
				return nil
			}
			for _, r := range results {
				_, _ = fmt.Fprintf(out, "%s checksum=%t binary=%t lifecycle=%t", r.Name, r.ChecksumValid, r.BinaryReachable, r.LifecycleOK)
				if r.Error != "" {
					_, _ = fmt.Fprintf(out, " error=%q", r.Error)
				}
				_, _ = fmt.Fprintln(out)
			}
			return nil
		}),
	})

	var testOrg, severity string
	test := &cobra.Command{
		Use:   "test --org <id>",
		Short: "Send a synthetic alert through every sink",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			if err := required(map[string]string{"org": testOrg}); err != nil {
				return err
			}
			res, err := app.AlertCLI.Test(ctx, testOrg, severity)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "alert %s severity=%s throttled=%t\n", res.AlertID, res.Severity, res.Throttled)
			for _, d := range res.Deliveries {
				_, _ = fmt.Fprintf(out, "  %s delivered=%t", d.Sink, d.Delivered)
				if d.Error != "" {
					_, _ = fmt.Fprintf(out, " error=%q", d.Error)
				}
				_, _ = fmt.Fprintln(out)
			}
			return nil
		}),
	}
	test.Flags().StringVar(&testOrg, "org", "", "organization id")
	test.Flags().StringVar(&severity, "severity", "error", "alert severity: info|warning|error|critical")

	var recentOrg string
	var limit int
	recent := &cobra.Command{
		Use:   "recent",
		Short: "List recently recorded alerts",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			records, err := app.AlertCLI.Recent(ctx, recentOrg, limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				_, _ = fmt.Fprintln(out, "no alerts recorded")
				return nil
			}
			for _, r := range records {
				_, _ = fmt.Fprintf(out, "%s\t%s\t%s\t%s\tdelivered=%d throttled=%t\t%s\n", r.OccurredAt.Format(time.RFC3339), r.Severity, r.ErrorType, r.SessionID, r.Delivered, r.Throttled, r.Message)
			}
			return nil
		}),
	}
	recent.Flags().StringVar(&recentOrg, "org", "", "organization id (empty for all)")
	recent.Flags().IntVar(&limit, "limit", 20, "maximum number of alerts")

	alerts.AddCommand(test, recent)
	return alerts
}

func newCleanupCmd(opts *rootOptions) *cobra.Command {
	var staleAfter time.Duration
	cleanup := &cobra.Command{
		Use:   "cleanup",
		Short: "Abandon sessions that were never ended",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(ctx context.Context, app *bootstrap.App, out io.Writer, args []string) error {
			after := staleAfter
			if after <= 0 {
				after = app.Config.Cleanup.StaleAfter
			}
			res, err := app.SessionCLI.Cleanup(ctx, after)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "abandoned %d sessions\n", len(res.Abandoned))
			for _, id := range res.Abandoned {
				_, _ = fmt.Fprintf(out, "  %s\n", id)
			}
			for _, id := range res.Failed {
				_, _ = fmt.Fprintf(out, "  failed: %s\n", id)
			}
			return nil
		}),
	}
	cleanup.Flags().DurationVar(&staleAfter, "stale-after", 0, "age after which an active session is abandoned (defaults to config)")
	return cleanup
}
