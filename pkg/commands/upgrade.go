package commands

import (
	"bytes"
	"fmt"
	"os/exec"

	"github.com/spf13/cobra"
)

func addUpgrade(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade diary cli.",
		Example: `
diary upgrade
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			ex := exec.Command("go", "install", "tableflip.dev/diary/cmd/diary@latest")
			var out bytes.Buffer
			ex.Stdout = &out
			if err := ex.Run(); err != nil {
				return output.HandleError(err)
			}
			fmt.Printf("%s\n", ex.String())
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
