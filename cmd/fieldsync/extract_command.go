package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fieldsync/internal/config"
	"fieldsync/internal/exif"
)

func newExtractCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:         "extract <path>",
		Short:       "Print EXIF capture metadata for a photo",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
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
			if asJSON {
				payload := map[string]any{"timestamp": meta.TimestampISO()}
				if meta.HasCoordinates() {
					payload["latitude"] = *meta.Latitude
					payload["longitude"] = *meta.Longitude
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Timestamp: %s\n", meta.TimestampISO())
			if meta.HasCoordinates() {
				fmt.Fprintf(out, "Latitude:  %.6f\n", *meta.Latitude)
				fmt.Fprintf(out, "Longitude: %.6f\n", *meta.Longitude)
			} else {
				fmt.Fprintln(out, "Coordinates: not available")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of text")
	return cmd
}
