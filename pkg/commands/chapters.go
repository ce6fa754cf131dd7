package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/app"
	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/printers"
)

func addChapters(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "chapters",
		Aliases: []string{"chapter"},
		Short:   base.Wrap80("List the chapters diaries are written in."),
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			uid := a.Session.UID()
			if uid == "" {
				return output.HandleError(app.ErrNoUser)
			}
			chapters, err := diary.ListChapters(cmd.Context(), a.Docs, uid)
			if err != nil {
				return output.HandleError(err)
			}
			if output.JSON {
				b, err := json.Marshal(chapters)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(color.Output, string(b))
				return nil
			}
			pp := printers.PrettyPrint{}
			pp.Chapters(chapters)
			return nil
		},
	}
	base.AddOutputArg(cmd, output)

	cmd.AddCommand(newChaptersCreateCmd())
	topLevel.AddCommand(cmd)
}

func newChaptersCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create a chapter",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open()
			if err != nil {
				return output.HandleError(err)
			}
			defer a.Close()

			uid := a.Session.UID()
			if uid == "" {
				return output.HandleError(app.ErrNoUser)
			}
			c, err := diary.AddChapter(cmd.Context(), a.Docs, uid, strings.Join(args, " "))
			if err != nil {
				return output.HandleError(err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created chapter %q (%s)\n", c.Name, c.ID)
			return nil
		},
	}
}
