package options

import (
	"github.com/spf13/cobra"

	"tableflip.dev/diary/pkg/explore"
)

// ExploreOptions
type ExploreOptions struct {
	Emotions   []string
	Chapters   []string
	Tags       []string
	Liked      bool
	Bookmarked bool
	Sort       string
	PageSize   int
	After      string
}

func AddExploreArgs(cmd *cobra.Command, o *ExploreOptions) {
	cmd.Flags().StringSliceVar(&o.Emotions, "emotion", nil,
		"Only diaries with one of these emotions.")
	cmd.Flags().StringSliceVar(&o.Chapters, "chapter", nil,
		"Only diaries in one of these chapters.")
	cmd.Flags().StringSliceVar(&o.Tags, "tag", nil,
		"Only diaries with any of these tags.")
	cmd.Flags().BoolVar(&o.Liked, "liked", false,
		"Only liked diaries.")
	cmd.Flags().BoolVar(&o.Bookmarked, "bookmarked", false,
		"Only bookmarked diaries.")
	cmd.Flags().StringVar(&o.Sort, "sort", "newest",
		"Sort order, newest or oldest.")
	cmd.Flags().IntVarP(&o.PageSize, "limit", "n", explore.DefaultPageSize,
		"Diaries per page.")
	cmd.Flags().StringVar(&o.After, "after", "",
		"Continue after the cursor printed with the previous page.")
}

// Request builds the explore request.
func (o *ExploreOptions) Request() (explore.Request, error) {
	sort, err := explore.ParseSort(o.Sort)
	if err != nil {
		return explore.Request{}, err
	}
	after, err := explore.ParseToken(o.After)
	if err != nil {
		return explore.Request{}, err
	}
	return explore.Request{
		Filter: explore.Filter{
			Emotions:   o.Emotions,
			Chapters:   o.Chapters,
			Tags:       o.Tags,
			Liked:      o.Liked,
			Bookmarked: o.Bookmarked,
		},
		Sort:     sort,
		PageSize: o.PageSize,
		After:    after,
	}, nil
}
