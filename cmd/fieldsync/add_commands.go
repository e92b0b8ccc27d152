package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fieldsync/internal/config"
	"fieldsync/internal/daemonctl"
	"fieldsync/internal/exif"
	"fieldsync/internal/queue"
	"fieldsync/internal/remote"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Capture a new action into the offline queue",
	}

	addCmd.AddCommand(newAddPhotoCommand(ctx))
	addCmd.AddCommand(newAddReportCommand(ctx))
	addCmd.AddCommand(newAddAttendanceCommand(ctx))
	addCmd.AddCommand(newAddSiteVisitCommand(ctx))

	return addCmd
}

func newAddPhotoCommand(ctx *commandContext) *cobra.Command {
	var siteID string
	var notes string

	cmd := &cobra.Command{
		Use:   "photo <path>",
		Short: "Queue a photo upload with EXIF capture metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read photo: %w", err)
			}

			meta := exif.Extract(data)
			payload := remote.PhotoPayload{
				Path:      path,
				Timestamp: meta.TimestampISO(),
				Latitude:  meta.Latitude,
				Longitude: meta.Longitude,
				SiteID:    siteID,
				Notes:     notes,
			}

			return enqueueAction(cmd, ctx, queue.KindPhotoUpload, payload, func(out *cobra.Command, action string) {
				fmt.Fprintf(out.OutOrStdout(), "Queued photo upload %s\n", action)
				fmt.Fprintf(out.OutOrStdout(), "  Captured: %s\n", meta.TimestampISO())
				if meta.HasCoordinates() {
					fmt.Fprintf(out.OutOrStdout(), "  Position: %.6f, %.6f\n", *meta.Latitude, *meta.Longitude)
				} else {
					fmt.Fprintln(out.OutOrStdout(), "  Position: not available")
				}
			})
		},
	}

	cmd.Flags().StringVar(&siteID, "site", "", "Site identifier for the photo")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	return cmd
}

type reportPayload struct {
	SiteID  string `json:"site_id"`
	Date    string `json:"date"`
	Summary string `json:"summary,omitempty"`
}

func newAddReportCommand(ctx *commandContext) *cobra.Command {
	var siteID string
	var date string
	var summary string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Queue a daily report submission",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(siteID) == "" {
				return errors.New("--site is required")
			}
			if strings.TrimSpace(date) == "" {
				date = time.Now().Format("2006-01-02")
			}
			payload := reportPayload{SiteID: siteID, Date: date, Summary: summary}
			return enqueueAction(cmd, ctx, queue.KindDailyReport, payload, func(out *cobra.Command, action string) {
				fmt.Fprintf(out.OutOrStdout(), "Queued daily report %s for %s\n", action, date)
			})
		},
	}

	cmd.Flags().StringVar(&siteID, "site", "", "Site identifier for the report")
	cmd.Flags().StringVar(&date, "date", "", "Report date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().StringVar(&summary, "summary", "", "Report summary text")
	return cmd
}

type attendancePayload struct {
	SiteID   string `json:"site_id"`
	WorkerID string `json:"worker_id"`
	Date     string `json:"date"`
}

func newAddAttendanceCommand(ctx *commandContext) *cobra.Command {
	var siteID string
	var workerID string
	var date string

	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Queue an attendance record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(siteID) == "" || strings.TrimSpace(workerID) == "" {
				return errors.New("--site and --worker are required")
			}
			if strings.TrimSpace(date) == "" {
				date = time.Now().Format("2006-01-02")
			}
			payload := attendancePayload{SiteID: siteID, WorkerID: workerID, Date: date}
			return enqueueAction(cmd, ctx, queue.KindAttendance, payload, func(out *cobra.Command, action string) {
				fmt.Fprintf(out.OutOrStdout(), "Queued attendance %s for worker %s\n", action, workerID)
			})
		},
	}

	cmd.Flags().StringVar(&siteID, "site", "", "Site identifier")
	cmd.Flags().StringVar(&workerID, "worker", "", "Worker identifier")
	cmd.Flags().StringVar(&date, "date", "", "Attendance date (YYYY-MM-DD, defaults to today)")
	return cmd
}

type siteVisitPayload struct {
	SiteID    string `json:"site_id"`
	VisitedAt string `json:"visited_at"`
	Notes     string `json:"notes,omitempty"`
}

func newAddSiteVisitCommand(ctx *commandContext) *cobra.Command {
	var siteID string
	var notes string

	cmd := &cobra.Command{
		Use:   "site-visit",
		Short: "Queue a site visit record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(siteID) == "" {
				return errors.New("--site is required")
			}
			payload := siteVisitPayload{
				SiteID:    siteID,
				VisitedAt: time.Now().Format(time.RFC3339),
				Notes:     notes,
			}
			return enqueueAction(cmd, ctx, queue.KindSiteVisit, payload, func(out *cobra.Command, action string) {
				fmt.Fprintf(out.OutOrStdout(), "Queued site visit %s for %s\n", action, siteID)
			})
		},
	}

	cmd.Flags().StringVar(&siteID, "site", "", "Site identifier")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")
	return cmd
}

func enqueueAction(cmd *cobra.Command, ctx *commandContext, kind queue.Kind, payload any, report func(*cobra.Command, string)) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	return ctx.withSession(cmd.Context(), func(session daemonctl.Session) error {
		action, err := session.Access.Enqueue(cmd.Context(), kind, raw)
		if err != nil {
			return err
		}
		report(cmd, action.ID)
		return nil
	})
}
