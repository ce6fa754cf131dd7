package commands

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/diary"
)

func addCompletions(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generates bash completion scripts",
		Long: `To load completion run

. <(diary completion)

To configure your bash shell to load completions for each session add to your bashrc

# ~/.bashrc or ~/.profile
. <(diary completion)
`,
		Run: func(cmd *cobra.Command, args []string) {
			_ = topLevel.GenBashCompletion(os.Stdout)
		},
	}

	topLevel.AddCommand(cmd)
}

func chapterCompletions(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	a, err := open()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	defer a.Close()

	chapters, err := diary.ListChapters(context.Background(), a.Docs, a.Session.UID())
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	ids := make([]string, 0, len(chapters))
	for _, c := range chapters {
		if strings.HasPrefix(c.ID, toComplete) {
			ids = append(ids, c.ID+"\t"+c.Name)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}

func registerChapterCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("chapter", chapterCompletions)
}
