package commands

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatih/color"
	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/app"
	"tableflip.dev/diary/pkg/printers"
	"tableflip.dev/diary/pkg/report"
	"tableflip.dev/diary/pkg/window"
)

func addReport(topLevel *cobra.Command) {
	var month string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Display the monthly report: moods, tags, chapters and time of day",
		Long: `Report summarizes the diaries of one month.

Examples:
  diary report
  diary report --month 2025-03`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			on := time.Now()
			if month != "" {
				m, err := window.ParseMonth(month, time.Local)
				if err != nil {
					return output.HandleError(err)
				}
				on = m
			}

			a, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			uid := a.Session.UID()
			if uid == "" {
				return output.HandleError(app.ErrNoUser)
			}
			result, err := report.Monthly(cmd.Context(), a.Docs, uid, on)
			if err != nil {
				return output.HandleError(err)
			}

			if output.JSON {
				b, err := json.Marshal(result)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(color.Output, string(b))
				return nil
			}
			pp := printers.PrettyPrint{}
			pp.Report(result)
			if result.Total > 0 {
				pp.Moods(on, result.Calendar)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month to report on as YYYY-MM (default this month)")
	base.AddOutputArg(cmd, output)
	topLevel.AddCommand(cmd)
}
