// Package report aggregates a month of diaries into mood, time-of-day, tag
// and chapter statistics.
package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/docs"
	"tableflip.dev/diary/pkg/window"
)

// Mood is a normalized emotion.
type Mood string

const (
	Joy         Mood = "joy"
	Love        Mood = "love"
	Calm        Mood = "calm"
	Sad         Mood = "sad"
	Anger       Mood = "anger"
	Fear        Mood = "fear"
	Confused    Mood = "confused"
	Neutral     Mood = "neutral"
	Overwhelmed Mood = "overwhelmed"
)

// Moods lists every mood in display order.
var Moods = []Mood{Joy, Love, Calm, Sad, Anger, Fear, Confused, Neutral, Overwhelmed}

// moodMarkers maps the labels and emoji an emotion may be stored with.
var moodMarkers = map[Mood][]string{
	Joy:         {"joy", "기쁨", "😁"},
	Love:        {"love", "사랑", "😍"},
	Calm:        {"calm", "평온", "😌"},
	Sad:         {"sad", "슬픔", "😢"},
	Anger:       {"anger", "분노", "😡"},
	Fear:        {"fear", "두려움", "😨"},
	Confused:    {"confused", "혼란", "😕"},
	Neutral:     {"neutral", "무감정", "😶"},
	Overwhelmed: {"overwhelmed", "벅참", "🤯"},
}

// NormalizeMood maps a stored emotion to a Mood. Unknown emotions count as
// calm.
func NormalizeMood(raw string) Mood {
	s := strings.ToLower(raw)
	for _, m := range Moods {
		for _, marker := range moodMarkers[m] {
			if strings.Contains(s, marker) {
				return m
			}
		}
	}
	return Calm
}

// TimeBucket is a part of the day.
type TimeBucket string

const (
	Morning   TimeBucket = "morning"
	Afternoon TimeBucket = "afternoon"
	Evening   TimeBucket = "evening"
	Night     TimeBucket = "night"
)

// TimeBuckets lists every bucket in display order.
var TimeBuckets = []TimeBucket{Morning, Afternoon, Evening, Night}

// BucketOf returns the part of the day t falls in.
func BucketOf(t time.Time) TimeBucket {
	switch h := t.Hour(); {
	case h >= 5 && h < 12:
		return Morning
	case h >= 12 && h < 17:
		return Afternoon
	case h >= 17 && h < 22:
		return Evening
	default:
		return Night
	}
}

// MoodCount is one row of the mood distribution.
type MoodCount struct {
	Mood    Mood `json:"mood"`
	Count   int  `json:"count"`
	Percent int  `json:"percent"`
}

// TimeCount is one row of the time-of-day distribution.
type TimeCount struct {
	Bucket TimeBucket `json:"bucket"`
	Count  int        `json:"count"`
}

// NameCount is a ranked name, used for tags and chapters.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Result is a monthly report.
type Result struct {
	Month string `json:"month"`
	Total int    `json:"total"`
	// Moods holds moods that occurred, most frequent first.
	Moods    []MoodCount  `json:"moods"`
	TopMood  Mood         `json:"topMood,omitempty"`
	Calendar map[int]Mood `json:"calendar"`
	Times    []TimeCount  `json:"times"`
	TopTags  []NameCount  `json:"topTags"`
	// TopChapters names chapters; diaries without a known chapter count as
	// "Unfiled".
	TopChapters []NameCount `json:"topChapters"`
	Days        int         `json:"days"`
	Tags        int         `json:"tags"`
}

const topN = 5

// Monthly builds the report for the month containing month.
func Monthly(ctx context.Context, svc docs.Service, uid string, month time.Time) (Result, error) {
	start := window.StartOfMonth(month)
	end := time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, start.Location())

	result, err := svc.Get(ctx, docs.Query{
		Collection: docs.UserCollection(uid, diary.Diaries),
		Filters: []docs.Filter{
			docs.Where(diary.FieldDate, docs.OpGTE, docs.TimestampOf(start)),
			docs.Where(diary.FieldDate, docs.OpLT, docs.TimestampOf(end)),
		},
		OrderBy: diary.FieldDate,
	})
	if err != nil {
		return Result{}, fmt.Errorf("report: diaries: %w", err)
	}
	chapters, err := diary.ListChapters(ctx, svc, uid)
	if err != nil {
		return Result{}, fmt.Errorf("report: %w", err)
	}
	names := make(map[string]string, len(chapters))
	for _, c := range chapters {
		names[c.ID] = c.Name
	}
	return Build(window.MonthKey(start), diary.DecodeAll(result), names), nil
}

// Build aggregates diaries, which are expected to belong to one month in
// ascending date order. chapterNames maps chapter ids to names.
func Build(month string, diaries []*diary.Diary, chapterNames map[string]string) Result {
	r := Result{Month: month, Calendar: make(map[int]Mood)}

	moods := make(map[Mood]int)
	times := make(map[TimeBucket]int)
	tags := make(map[string]int)
	chapters := make(map[string]int)
	days := make(map[string]struct{})

	for _, d := range diaries {
		if d == nil || d.Date.IsZero() {
			continue
		}
		r.Total++
		m := NormalizeMood(d.Emotion)
		moods[m]++
		r.Calendar[d.Date.Day()] = m
		times[BucketOf(d.Date)]++
		days[window.DayKey(d.Date)] = struct{}{}
		for _, t := range d.Tags {
			tags[t]++
		}
		name, ok := chapterNames[d.ChapterID]
		if !ok || name == "" {
			name = "Unfiled"
		}
		chapters[name]++
	}

	for _, m := range Moods {
		if n := moods[m]; n > 0 {
			r.Moods = append(r.Moods, MoodCount{Mood: m, Count: n, Percent: percent(n, r.Total)})
		}
	}
	sort.SliceStable(r.Moods, func(i, j int) bool { return r.Moods[i].Count > r.Moods[j].Count })
	if len(r.Moods) > 0 {
		r.TopMood = r.Moods[0].Mood
	}

	for _, b := range TimeBuckets {
		r.Times = append(r.Times, TimeCount{Bucket: b, Count: times[b]})
	}
	r.TopTags = rank(tags)
	r.TopChapters = rank(chapters)
	r.Days = len(days)
	r.Tags = len(tags)
	return r
}

func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return (n*100 + total/2) / total
}

func rank(counts map[string]int) []NameCount {
	out := make([]NameCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, NameCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
