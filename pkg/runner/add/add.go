package add

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/diary/pkg/app"
	"tableflip.dev/diary/pkg/printers"
)

// Add writes a diary and prints it.
type Add struct {
	App     *app.App
	Options app.AddOptions
	ShowID  bool
	JSON    bool
	Out     io.Writer
}

func (n *Add) Do(ctx context.Context) error {
	if n.App == nil {
		return errors.New("can not add, no diary")
	}
	if n.Out == nil {
		n.Out = color.Output
	}

	d, err := n.App.AddDiary(ctx, n.Options)
	if err != nil {
		return err
	}

	if n.JSON {
		b, err := json.Marshal(d)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(n.Out, string(b))
		return err
	}

	pp := printers.PrettyPrint{ShowID: n.ShowID, Out: n.Out}
	pp.Title(fmt.Sprintf("Added to %s", n.Options.Chapter))
	pp.Diary(d)
	return nil
}
