package main

import (
	"errors"
	"time"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"attendance-backend/internal/platform/config"
)

// check で提出不可だった場合。終了コード 1
var errNotSubmittable = errors.New("correction is not submittable")

func newRootCmd() *cobra.Command {
	var tz string
	root := &cobra.Command{
		Use:           "attendctl",
		Short:         "Validate attendance corrections offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&tz, "tz", config.DefaultTimezone, "business time zone (IANA name)")

	loc := func() (*time.Location, error) { return time.LoadLocation(tz) }
	root.AddCommand(newParseCmd(loc))
	root.AddCommand(newCheckCmd(loc))
	return root
}
