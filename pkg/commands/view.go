package commands

import (
	"fmt"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/commands/options"
	"tableflip.dev/diary/pkg/runner/log"
	"tableflip.dev/diary/pkg/window"
)

func addDay(topLevel *cobra.Command) {
	addWindow(topLevel, window.Day, "Show the latest diary written on a day.", `
diary day --chapter travel
diary day --chapter travel --date 2025-03-10 --watch
`)
}

func addWeek(topLevel *cobra.Command) {
	addWindow(topLevel, window.Week, "Show the week calendar, marking days with a picture.", `
diary week --chapter travel
diary week --chapter travel --date 2025-03-10
`)
}

func addMonth(topLevel *cobra.Command) {
	addWindow(topLevel, window.Month, "Show the month calendar, marking days with a picture.", `
diary month --chapter travel
diary month --chapter travel --date 2025-03-01 --watch
`)
}

func addWindow(topLevel *cobra.Command, kind window.Kind, short, example string) {
	wo := &options.WindowOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:     kind.String(),
		Short:   base.Wrap80(short),
		Example: example,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if wo.Chapter == "" {
				return output.HandleError(fmt.Errorf("--chapter is required"))
			}
			on, err := wo.GetDate()
			if err != nil {
				return output.HandleError(err)
			}
			a, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			s := log.Log{
				App:     a,
				Kind:    kind,
				On:      on,
				Chapter: wo.Chapter,
				Watch:   wo.Watch,
				ShowID:  io.ShowID,
				JSON:    output.JSON,
			}
			err = s.Do(cmd.Context())
			return output.HandleError(err)
		},
	}

	options.AddWindowArgs(cmd, wo)
	registerChapterCompletion(cmd)
	options.AddWatchArg(cmd, wo)
	options.AddShowIDArgs(cmd, io)
	base.AddOutputArg(cmd, output)

	topLevel.AddCommand(cmd)
}
