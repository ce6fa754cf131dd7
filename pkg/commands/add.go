package commands

import (
	"errors"
	"strings"

	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/app"
	"tableflip.dev/diary/pkg/commands/options"
	"tableflip.dev/diary/pkg/runner/add"
)

func addAdd(topLevel *cobra.Command) {
	ao := &options.AddOptions{}
	wo := &options.WindowOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "add [text]",
		Short: base.Wrap80("Write a diary, optionally with a picture."),
		Example: `
diary add --chapter travel --emotion joy --image beach.jpg the sea was warm today
diary add --chapter travel --date 2025-03-10 -t rain -t walk a wet walk
`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires the diary text")
			}
			ao.Message = strings.Join(args, " ")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if wo.Chapter == "" {
				return output.HandleError(errors.New("--chapter is required"))
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

			s := add.Add{
				App: a,
				Options: app.AddOptions{
					Chapter: wo.Chapter,
					On:      on,
					Content: ao.Message,
					Emotion: ao.Emotion,
					Tags:    ao.Tags,
					Image:   ao.Image,
				},
				ShowID: io.ShowID,
				JSON:   output.JSON,
			}
			err = s.Do(cmd.Context())
			return output.HandleError(err)
		},
	}

	options.AddDiaryArgs(cmd, ao)
	options.AddWindowArgs(cmd, wo)
	registerChapterCompletion(cmd)
	options.AddShowIDArgs(cmd, io)
	base.AddOutputArg(cmd, output)

	topLevel.AddCommand(cmd)
}
