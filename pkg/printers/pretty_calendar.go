package printers

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/glyph"
	"tableflip.dev/diary/pkg/report"
	"tableflip.dev/diary/pkg/window"
)

const width = len("11 12 13 14 15 16 17") // an example week

// Cells prints a week or month grid. Days with a picture are bold, days of
// adjacent months are faint.
func (pp *PrettyPrint) Cells(w window.Window, cells []diary.Cell) {
	out := pp.out()
	pp.header(w)

	l0 := color.New(color.Faint, color.Italic)
	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiWhite)

	today := window.DayKey(time.Now())
	pictures := 0
	for i, c := range cells {
		printer := l1
		switch {
		case !c.CurrentMonth:
			printer = l0
		case c.ImageURL != "":
			printer = l2
			pictures++
		}
		if c.ID == today {
			printer = color.New(color.Bold, color.Underline)
		}
		_, _ = printer.Fprintf(out, "%2d ", c.Day)
		if i%7 == 6 {
			_, _ = fmt.Fprint(out, "\n")
		}
	}
	_, _ = fmt.Fprint(out, "\n")

	if pp.ShowID {
		for _, c := range cells {
			if c.ImageURL != "" {
				_, _ = l1.Fprintf(out, "%s  %s\n", c.ID, c.ImageURL)
			}
		}
	}
	_, _ = color.New(color.Faint).Fprintf(out, "%d of %d days with a picture\n\n", pictures, len(cells))
}

// Moods prints the mood calendar of a monthly report, one mark per day.
func (pp *PrettyPrint) Moods(month time.Time, calendar map[int]report.Mood) {
	out := pp.out()
	first := window.StartOfMonth(month)
	pp.header(window.Of(window.Month, first))

	l1 := color.New(color.Faint, color.FgWhite)
	l2 := color.New(color.Bold, color.FgHiWhite)

	d := first.Weekday()
	// Pad out the start of the month.
	_, _ = fmt.Fprint(out, strings.Repeat("   ", int(d)))

	for i := 1; i <= window.DaysIn(first); i++ {
		if m, ok := calendar[i]; ok && m != "" {
			_, _ = l2.Fprintf(out, " %s ", glyph.Of(m).Key)
		} else {
			_, _ = l1.Fprintf(out, "%2d ", i)
		}
		d++
		if d > time.Saturday {
			d = time.Sunday
			_, _ = fmt.Fprint(out, "\n")
		}
	}
	_, _ = fmt.Fprint(out, "\n\n")
}

func (pp *PrettyPrint) header(w window.Window) {
	out := pp.out()
	tf := color.New(color.FgWhite, color.Italic)

	title := w.Anchor.Month().String()
	if w.Kind == window.Week {
		title = fmt.Sprintf("%s – %s", w.Start.Format("Jan 2"), window.AddDays(w.End, -1).Format("Jan 2"))
	} else {
		title = fmt.Sprintf("%s %d", title, w.Anchor.Year())
	}
	mid := (width - len(title)) / 2
	if mid < 0 {
		mid = 0
	}
	_, _ = tf.Fprintf(out, "%s%s\n", strings.Repeat(" ", mid), title)

	wd := color.New(color.Faint)
	for d := time.Sunday; d <= time.Saturday; d++ {
		_, _ = wd.Fprintf(out, "%2s ", d.String()[0:2])
	}
	_, _ = fmt.Fprint(out, "\n")
}
