package options

import (
	"github.com/spf13/cobra"
)

// AddOptions
type AddOptions struct {
	Message string
	Emotion string
	Tags    []string
	Image   string
}

func AddDiaryArgs(cmd *cobra.Command, o *AddOptions) {
	cmd.Flags().StringVarP(&o.Emotion, "emotion", "e", "",
		"How the day felt, for example joy, calm or sad.")
	cmd.Flags().StringSliceVarP(&o.Tags, "tag", "t", nil,
		"Tag the diary. Repeat or separate with commas.")
	cmd.Flags().StringVar(&o.Image, "image", "",
		"Picture file to attach.")
}
