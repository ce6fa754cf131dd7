package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	goversion "go.hein.dev/go-version"
)

// Set at link time with -ldflags "-X tableflip.dev/diary/pkg/commands.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func addVersion(topLevel *cobra.Command) {
	shortened := false
	format := "json"
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Get diary version.",
		Example: `
diary version
diary version --short
`,
		Run: func(_ *cobra.Command, _ []string) {
			resp := goversion.FuncWithOutput(shortened, Version, Commit, Date, format)
			fmt.Print(resp)
		},
	}

	cmd.Flags().BoolVarP(&shortened, "short", "s", false, "Print just the version number.")
	cmd.Flags().StringVarP(&format, "output", "o", "json", "Output format. One of 'yaml' or 'json'.")

	topLevel.AddCommand(cmd)
}
