package commands

import (
	"github.com/spf13/cobra"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
)

var (
	output  = &base.OutputOptions{}
	verbose bool
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "diary",
		Short: base.Wrap80("A picture diary on the command line, with live day, week and month views."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr.")

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addDay(topLevel)
	addWeek(topLevel)
	addMonth(topLevel)
	addShow(topLevel)
	addAdd(topLevel)
	addChapters(topLevel)
	addExplore(topLevel)
	addReport(topLevel)
	addMCP(topLevel)
	addBlobs(topLevel)
	addVersion(topLevel)
	addUpgrade(topLevel)
	addCompletions(topLevel)
}
