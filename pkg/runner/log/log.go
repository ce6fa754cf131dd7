package log

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/diary/pkg/app"
	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/printers"
	"tableflip.dev/diary/pkg/view"
	"tableflip.dev/diary/pkg/window"
)

// Log prints the day, week or month view of a chapter, once or every time it
// changes.
type Log struct {
	App     *app.App
	Kind    window.Kind
	On      time.Time
	Chapter string
	Watch   bool
	ShowID  bool
	JSON    bool
	// Settle bounds the wait for data when not watching.
	Settle time.Duration
	Out    io.Writer
}

const defaultSettle = 10 * time.Second

func (n *Log) Do(ctx context.Context) error {
	if n.App == nil {
		return errors.New("can not show, no diary")
	}
	if n.Out == nil {
		n.Out = color.Output
	}
	pp := &printers.PrettyPrint{ShowID: n.ShowID, Out: n.Out}
	target := view.At(n.Kind, n.On, n.Chapter)
	deps := n.App.Deps()
	opts := n.App.ViewOptions(n.Kind, false)

	switch n.Kind {
	case window.Day:
		return show(ctx, n, view.NewDay(deps, opts...), target, func(s view.State[*diary.Diary]) {
			pp.Title(fmt.Sprintf("%s · %s", target.Window.Start.Format("Monday, January 2, 2006"), n.Chapter))
			if s.Loading {
				pp.Loading()
				return
			}
			pp.Diary(s.Payload)
		})
	case window.Week, window.Month:
		var c *view.Controller[[]diary.Cell]
		if n.Kind == window.Month {
			c = view.NewMonth(deps, opts...)
		} else {
			c = view.NewWeek(deps, opts...)
		}
		return show(ctx, n, c, target, func(s view.State[[]diary.Cell]) {
			if s.Loading {
				pp.Loading()
			}
			pp.Cells(target.Window, s.Payload)
		})
	}
	return fmt.Errorf("unknown view %s", n.Kind)
}

func show[T any](ctx context.Context, n *Log, c *view.Controller[T], target view.Target, render func(view.State[T])) error {
	defer c.Dispose()
	c.Activate(target)

	emit := func(s view.State[T]) error {
		if n.JSON {
			b, err := json.Marshal(s)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(n.Out, string(b))
			return err
		}
		render(s)
		return nil
	}

	if !n.Watch {
		settle := n.Settle
		if settle <= 0 {
			settle = defaultSettle
		}
		wctx, cancel := context.WithTimeout(ctx, settle)
		defer cancel()
		return emit(c.Await(wctx))
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-c.Updates():
			if !ok {
				return nil
			}
			if s.Loading {
				continue
			}
			if err := emit(s); err != nil {
				return err
			}
		}
	}
}
