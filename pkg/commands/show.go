package commands

import (
	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/commands/options"
	"tableflip.dev/diary/pkg/runner/get"
)

func addShow(topLevel *cobra.Command) {
	wo := &options.WindowOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "show",
		Short: base.Wrap80("Show one diary with its comments. An AI comment is requested for diaries that have none yet."),
		Example: `
diary show --id 0c4a3e6e-91f7-4d0c-b0e7-3f0a1c2d9e8b
diary show --chapter travel --date 2025-03-10
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := wo.GetDate()
			if err != nil {
				return output.HandleError(err)
			}
			a, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			s := get.Get{
				App:     a,
				ID:      io.ID,
				On:      on,
				Chapter: wo.Chapter,
				ShowID:  io.ShowID,
				JSON:    output.JSON,
			}
			err = s.Do(cmd.Context())
			return output.HandleError(err)
		},
	}

	options.AddIDArgs(cmd, io)
	options.AddShowIDArgs(cmd, io)
	options.AddWindowArgs(cmd, wo)
	registerChapterCompletion(cmd)
	base.AddOutputArg(cmd, output)

	topLevel.AddCommand(cmd)
}
