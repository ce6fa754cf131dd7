package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/diary/pkg/diary"
	"tableflip.dev/diary/pkg/docs"
)

func at(day, hour int) time.Time {
	return time.Date(2025, time.March, day, hour, 0, 0, 0, time.Local)
}

func TestNormalizeMood(t *testing.T) {
	assert.Equal(t, Joy, NormalizeMood("😁 기쁨"))
	assert.Equal(t, Sad, NormalizeMood("Sad"))
	assert.Equal(t, Overwhelmed, NormalizeMood("🤯"))
	assert.Equal(t, Calm, NormalizeMood(""))
	assert.Equal(t, Calm, NormalizeMood("something else"))
}

func TestBucketOf(t *testing.T) {
	assert.Equal(t, Night, BucketOf(at(1, 4)))
	assert.Equal(t, Morning, BucketOf(at(1, 5)))
	assert.Equal(t, Afternoon, BucketOf(at(1, 12)))
	assert.Equal(t, Evening, BucketOf(at(1, 21)))
	assert.Equal(t, Night, BucketOf(at(1, 22)))
}

func TestBuild(t *testing.T) {
	r := Build("2025-03", []*diary.Diary{
		{Date: at(1, 8), Emotion: "joy", Tags: []string{"walk", "park"}, ChapterID: "c1"},
		{Date: at(1, 20), Emotion: "sad", Tags: []string{"walk"}, ChapterID: "c1"},
		{Date: at(3, 13), Emotion: "joy", ChapterID: "gone"},
		{Emotion: "joy"},
	}, map[string]string{"c1": "Daily"})

	assert.Equal(t, 3, r.Total)
	assert.Equal(t, 2, r.Days)
	assert.Equal(t, 2, r.Tags)
	assert.Equal(t, Joy, r.TopMood)
	assert.Equal(t, []MoodCount{{Mood: Joy, Count: 2, Percent: 67}, {Mood: Sad, Count: 1, Percent: 33}}, r.Moods)
	assert.Equal(t, map[int]Mood{1: Sad, 3: Joy}, r.Calendar)
	assert.Equal(t, []TimeCount{{Morning, 1}, {Afternoon, 1}, {Evening, 1}, {Night, 0}}, r.Times)
	assert.Equal(t, []NameCount{{"walk", 2}, {"park", 1}}, r.TopTags)
	assert.Equal(t, []NameCount{{"Daily", 2}, {"Unfiled", 1}}, r.TopChapters)
}

func TestMonthly(t *testing.T) {
	ctx := context.Background()
	mem := docs.NewMemory()
	defer mem.Close()

	_, err := mem.Put(ctx, docs.UserCollection("u", diary.Chapters), docs.Document{ID: "c1", Data: map[string]any{"name": "Travel"}})
	require.NoError(t, err)
	for _, d := range []*diary.Diary{
		{ChapterID: "c1", Emotion: "love", Date: at(2, 9)},
		{ChapterID: "c1", Emotion: "love", Date: at(31, 23)},
		{ChapterID: "c1", Emotion: "fear", Date: time.Date(2025, time.April, 1, 0, 0, 0, 0, time.Local)},
	} {
		_, err := mem.Put(ctx, docs.UserCollection("u", diary.Diaries), docs.Document{Data: d.Fields()})
		require.NoError(t, err)
	}

	r, err := Monthly(ctx, mem, "u", at(15, 0))
	require.NoError(t, err)
	assert.Equal(t, "2025-03", r.Month)
	assert.Equal(t, 2, r.Total)
	assert.Equal(t, Love, r.TopMood)
	assert.Equal(t, []NameCount{{"Travel", 2}}, r.TopChapters)
}
