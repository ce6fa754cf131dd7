package diary

// Equal reports whether two diaries render the same in the day view:
// content, image, emotion, tags (order sensitive) and the date to the
// millisecond.
func Equal(a, b *Diary) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.Content == b.Content &&
		a.ImageURL == b.ImageURL &&
		a.Emotion == b.Emotion &&
		tagsEqual(a.Tags, b.Tags) &&
		a.Date.UnixMilli() == b.Date.UnixMilli()
}

// DetailEqual extends Equal with the fields only the detail view shows, so
// likes, bookmarks and comments written elsewhere still re-render it.
func DetailEqual(a, b *Diary) bool {
	if !Equal(a, b) {
		return false
	}
	if a == nil {
		return true
	}
	return a.ID == b.ID &&
		a.AIComment == b.AIComment &&
		a.UserComment == b.UserComment &&
		a.Liked == b.Liked &&
		a.Bookmarked == b.Bookmarked
}

// CellsEqual compares calendar grids element-wise. A nil grid only equals
// another nil grid.
func CellsEqual(a, b []Cell) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func tagsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
