package get

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/diary/pkg/app"
	"tableflip.dev/diary/pkg/printers"
	"tableflip.dev/diary/pkg/view"
	"tableflip.dev/diary/pkg/window"
)

// Get shows one diary with its detail fields, by id or by date and chapter.
// Diaries without an AI comment get one requested before Do returns.
type Get struct {
	App     *app.App
	ID      string
	On      time.Time
	Chapter string
	ShowID  bool
	JSON    bool
	Out     io.Writer
}

const settle = 10 * time.Second

func (n *Get) Do(ctx context.Context) error {
	if n.App == nil {
		return errors.New("can not get, no diary")
	}
	if n.ID == "" && n.Chapter == "" {
		return errors.New("either an id or a chapter is required")
	}
	if n.Out == nil {
		n.Out = color.Output
	}

	d := view.NewDetail(n.App.Deps(), n.App.Generator, n.App.ViewOptions(window.Day, true)...)
	defer d.Dispose()

	if n.ID != "" {
		d.ActivateDocument(n.ID)
	} else {
		d.ActivateDate(n.On, n.Chapter)
	}

	wctx, cancel := context.WithTimeout(ctx, settle)
	defer cancel()
	s := d.Await(wctx)
	// Let a requested comment land before the view is disposed.
	defer d.Wait()

	if n.JSON {
		b, err := json.Marshal(s)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(n.Out, string(b))
		return err
	}

	pp := printers.PrettyPrint{ShowID: n.ShowID, Out: n.Out}
	if s.Loading {
		pp.Loading()
		return nil
	}
	pp.Diary(s.Payload)
	return nil
}
