// Package glyph maps moods to the marks used when printing diaries.
package glyph

import "tableflip.dev/diary/pkg/report"

// Glyph is how a mood is drawn. Key is one column wide and unique across
// moods, Symbol is used inline.
type Glyph struct {
	Key     string
	Symbol  string
	Meaning report.Mood
}

func DefaultGlyphs() []Glyph {
	return []Glyph{
		{Key: "J", Symbol: "☀", Meaning: report.Joy},
		{Key: "L", Symbol: "❥", Meaning: report.Love},
		{Key: "C", Symbol: "≈", Meaning: report.Calm},
		{Key: "S", Symbol: "☂", Meaning: report.Sad},
		{Key: "A", Symbol: "✷", Meaning: report.Anger},
		{Key: "F", Symbol: "!", Meaning: report.Fear},
		{Key: "?", Symbol: "?", Meaning: report.Confused},
		{Key: "N", Symbol: "·", Meaning: report.Neutral},
		{Key: "O", Symbol: "≋", Meaning: report.Overwhelmed},
	}
}

// Of returns the glyph of m. Unknown moods draw as neutral.
func Of(m report.Mood) Glyph {
	var neutral Glyph
	for _, g := range DefaultGlyphs() {
		if g.Meaning == m {
			return g
		}
		if g.Meaning == report.Neutral {
			neutral = g
		}
	}
	return neutral
}

// ForEmotion normalizes a stored emotion and returns its glyph.
func ForEmotion(emotion string) Glyph {
	return Of(report.NormalizeMood(emotion))
}

func (g Glyph) String() string {
	return g.Symbol
}
