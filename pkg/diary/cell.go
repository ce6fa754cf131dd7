package diary

import (
	"encoding/json"

	"tableflip.dev/diary/pkg/window"
)

// Cell is one position of a week or month calendar grid. An empty ImageURL
// encodes as a JSON null.
type Cell struct {
	// ID is the day key of the cell.
	ID           string
	Day          int
	ImageURL     string
	CurrentMonth bool
}

type cellJSON struct {
	ID           string  `json:"id"`
	Day          int     `json:"day"`
	ImageURL     *string `json:"imageUrl"`
	CurrentMonth bool    `json:"currentMonth"`
}

func (c Cell) MarshalJSON() ([]byte, error) {
	out := cellJSON{ID: c.ID, Day: c.Day, CurrentMonth: c.CurrentMonth}
	if c.ImageURL != "" {
		out.ImageURL = &c.ImageURL
	}
	return json.Marshal(out)
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	var in cellJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*c = Cell{ID: in.ID, Day: in.Day, CurrentMonth: in.CurrentMonth}
	if in.ImageURL != nil {
		c.ImageURL = *in.ImageURL
	}
	return nil
}

// Skeleton returns the cells of w with no images. Week cells count as
// current when they share the month of the date the week was opened from.
func Skeleton(w window.Window) []Cell {
	days := w.Days()
	cells := make([]Cell, 0, len(days))
	for _, d := range days {
		cells = append(cells, Cell{
			ID:           window.DayKey(d),
			Day:          d.Day(),
			CurrentMonth: w.InAnchorMonth(d),
		})
	}
	return cells
}

// ImageRefs maps day keys to the blob reference of the diaries written that
// day. Diaries are expected in ascending date order; the last one of a day
// wins.
func ImageRefs(diaries []*Diary) map[string]string {
	out := make(map[string]string, len(diaries))
	for _, d := range diaries {
		if d == nil || d.ImageURL == "" || d.Date.IsZero() {
			continue
		}
		out[window.DayKey(d.Date)] = d.ImageURL
	}
	return out
}

// Fill returns a copy of skeleton with image URLs taken from urls by cell id.
// Cells without an entry keep an empty URL.
func Fill(skeleton []Cell, urls map[string]string) []Cell {
	out := make([]Cell, len(skeleton))
	copy(out, skeleton)
	for i := range out {
		out[i].ImageURL = urls[out[i].ID]
	}
	return out
}
