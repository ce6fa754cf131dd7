package printers

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/explore"
	"tableflip.dev/diary/pkg/glyph"
	"tableflip.dev/diary/pkg/report"
)

type PrettyPrint struct {
	ShowID bool
	// Out defaults to color.Output.
	Out io.Writer
}

var (
	spacing = strings.Repeat(" ", len("0c4a3e6e-91f7-4d0c-b0e7-3f0a1c2d9e8b  "))
)

func (pp *PrettyPrint) out() io.Writer {
	if pp.Out == nil {
		return color.Output
	}
	return pp.Out
}

func (pp *PrettyPrint) NewLine() {
	_, _ = fmt.Fprintln(pp.out())
}

func (pp *PrettyPrint) Title(title string) {
	t := color.New(color.Bold, color.Underline)
	_, _ = t.Fprintln(pp.out(), title)
}

func (pp *PrettyPrint) TitleWithCount(title string, count int) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(pp.out(), title)
	_, _ = c.Fprintf(pp.out(), " - %d", count)

	switch count {
	case 1:
		_, _ = c.Fprintln(pp.out(), " diary")
	default:
		_, _ = c.Fprintln(pp.out(), " diaries")
	}
}

// Loading prints the placeholder shown while a view waits for data.
func (pp *PrettyPrint) Loading() {
	f := color.New(color.Faint, color.Italic)
	_, _ = f.Fprint(pp.out(), " loading...\n\n")
}

// Diary prints one diary in full. A nil diary prints " none".
func (pp *PrettyPrint) Diary(d *diary.Diary) {
	w := pp.out()
	if d == nil {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(w, " none\n\n")
		return
	}

	y := color.New(color.FgHiYellow, color.Italic, color.Faint)
	h := color.New(color.Bold)
	i := color.New(color.Italic)
	f := color.New(color.Faint)

	if pp.ShowID {
		_, _ = y.Fprintln(w, d.ID)
	}
	_, _ = h.Fprintf(w, "%s", d.Date.Local().Format("Mon, 02 Jan 2006"))
	if d.Emotion != "" {
		_, _ = f.Fprintf(w, "  %s %s", glyph.ForEmotion(d.Emotion), d.Emotion)
	}
	if d.Liked {
		_, _ = f.Fprint(w, "  ♥")
	}
	if d.Bookmarked {
		_, _ = f.Fprint(w, "  ⚑")
	}
	_, _ = fmt.Fprintln(w)

	_, _ = fmt.Fprintln(w, d.Content)
	if len(d.Tags) > 0 {
		_, _ = f.Fprintf(w, "#%s\n", strings.Join(d.Tags, " #"))
	}
	if d.ImageURL != "" {
		_, _ = f.Fprintf(w, "image: %s\n", d.ImageURL)
	}
	if d.AIComment != "" {
		_, _ = i.Fprintf(w, "\n> %s\n", d.AIComment)
	}
	if d.UserComment != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", d.UserComment)
	}
	_, _ = fmt.Fprintln(w)
}

// Feed prints an explore page as a table.
func (pp *PrettyPrint) Feed(page explore.Page) {
	w := pp.out()
	if len(page.Items) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(w, " none\n\n")
		return
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	if pp.ShowID {
		tbl.AddRow("ID", "DATE", "EMOTION", "CONTENT")
	} else {
		tbl.AddRow("DATE", "EMOTION", "CONTENT")
	}
	for _, d := range page.Items {
		content := strings.Join(strings.Fields(d.Content), " ")
		date := d.Date.Local().Format("2006-01-02")
		if pp.ShowID {
			tbl.AddRow(d.ID, date, d.Emotion, content)
		} else {
			tbl.AddRow(date, d.Emotion, content)
		}
	}
	_, _ = fmt.Fprintln(w, tbl)

	f := color.New(color.Faint)
	if page.Next != nil {
		_, _ = f.Fprintf(w, "more: --after %s\n", explore.Token(page.Next))
	}
	_, _ = f.Fprintf(w, "scanned %d in %d queries\n\n", page.Scanned, page.Queries)
}

// Chapters prints the chapter list.
func (pp *PrettyPrint) Chapters(chapters []diary.Chapter) {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.AddRow("ID", "NAME")
	for _, c := range chapters {
		tbl.AddRow(c.ID, c.Name)
	}
	_, _ = fmt.Fprintln(pp.out(), tbl)
}

// Report prints a monthly report.
func (pp *PrettyPrint) Report(r report.Result) {
	w := pp.out()
	pp.TitleWithCount("Report · "+r.Month, r.Total)
	if r.Total == 0 {
		_, _ = fmt.Fprintln(w, "  No diaries written this month.")
		_, _ = fmt.Fprintln(w)
		return
	}

	f := color.New(color.Faint)
	_, _ = f.Fprintf(w, "%d days written, %d tags, mostly %s\n\n", r.Days, r.Tags, r.TopMood)

	tbl := uitable.New()
	tbl.Separator = "  "
	for _, m := range r.Moods {
		tbl.AddRow(glyph.Of(m.Mood).String()+" "+string(m.Mood), m.Count, fmt.Sprintf("%d%%", m.Percent), strings.Repeat("▇", m.Percent/5))
	}
	_, _ = fmt.Fprintln(w, tbl)

	section := func(title string, rows []report.NameCount) {
		if len(rows) == 0 {
			return
		}
		_, _ = fmt.Fprintln(w)
		pp.Title(title)
		tbl := uitable.New()
		tbl.Separator = "  "
		for _, row := range rows {
			tbl.AddRow(row.Name, row.Count)
		}
		_, _ = fmt.Fprintln(w, tbl)
	}
	section("Tags", r.TopTags)
	section("Chapters", r.TopChapters)

	_, _ = fmt.Fprintln(w)
	pp.Title("Time of day")
	tbl = uitable.New()
	tbl.Separator = "  "
	for _, t := range r.Times {
		tbl.AddRow(string(t.Bucket), t.Count)
	}
	_, _ = fmt.Fprintln(w, tbl)
	_, _ = fmt.Fprintln(w)
}
