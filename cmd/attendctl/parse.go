package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"attendance-backend/internal/attendance"
	"attendance-backend/internal/correction"
)

func newParseCmd(loc func() (*time.Location, error)) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "parse <time>",
		Short: `Resolve a 12-hour time such as "9:30 AM" onto a date`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loc()
			if err != nil {
				return err
			}
			anchor := time.Now().In(l)
			if date != "" {
				anchor, err = time.ParseInLocation(attendance.DateLayout, date, l)
				if err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			t, err := correction.ParseTime(args[0], anchor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", t.Format(time.RFC3339), correction.FormatTime(t))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "anchor date YYYY-MM-DD (default today)")
	return cmd
}
