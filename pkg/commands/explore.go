package commands

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	base "github.com/n3wscott/cli-base/pkg/commands/options"
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/app"
	"tableflip.dev/diary/pkg/commands/options"
	"tableflip.dev/diary/pkg/explore"
	"tableflip.dev/diary/pkg/printers"
)

func addExplore(topLevel *cobra.Command) {
	eo := &options.ExploreOptions{}
	io := &options.IDOptions{}

	cmd := &cobra.Command{
		Use:   "explore",
		Short: base.Wrap80("Page through diaries by creation time, filtered by emotion, chapter, tag, like or bookmark."),
		Example: `
diary explore
diary explore --emotion joy,love --tag beach --limit 10
diary explore --after 1741597200000.0c4a3e6e-91f7-4d0c-b0e7-3f0a1c2d9e8b
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			req, err := eo.Request()
			if err != nil {
				return output.HandleError(err)
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
			p := explore.New(a.Docs, a.Resolver, explore.WithLogger(a.Log))
			page, err := p.Page(cmd.Context(), uid, req)
			if err != nil {
				return output.HandleError(err)
			}

			if output.JSON {
				b, err := json.Marshal(map[string]any{
					"items":   page.Items,
					"next":    explore.Token(page.Next),
					"scanned": page.Scanned,
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(color.Output, string(b))
				return nil
			}
			pp := printers.PrettyPrint{ShowID: io.ShowID}
			pp.TitleWithCount("Explore", len(page.Items))
			pp.Feed(page)
			return nil
		},
	}

	options.AddExploreArgs(cmd, eo)
	registerChapterCompletion(cmd)
	options.AddShowIDArgs(cmd, io)
	base.AddOutputArg(cmd, output)

	topLevel.AddCommand(cmd)
}
