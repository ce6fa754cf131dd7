// Package options defines shared flag helpers for CLI commands.
package options

import (
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/window"
)

// WindowOptions select a calendar window of a chapter.
type WindowOptions struct {
	DateString string
	Chapter    string
	Watch      bool
}

func AddWindowArgs(cmd *cobra.Command, o *WindowOptions) {
	cmd.Flags().StringVar(&o.DateString, "date", "",
		`A date inside the window, example: --date="2025-03-10". Defaults to today.`)
	cmd.Flags().StringVarP(&o.Chapter, "chapter", "c", "",
		"Chapter identifier.")
}

func AddWatchArg(cmd *cobra.Command, o *WindowOptions) {
	cmd.Flags().BoolVarP(&o.Watch, "watch", "w", false,
		"Keep the view open and print it again whenever it changes.")
}

// GetDate returns the selected date, or now.
func (o *WindowOptions) GetDate() (time.Time, error) {
	if o.DateString == "" {
		return time.Now(), nil
	}
	return window.ParseDay(o.DateString, time.Local)
}
