// Package diary holds the diary document model shared by the views: the
// decoded diary entry, calendar cells, chapters and the change detector that
// decides whether a redelivered snapshot is worth a re-render.
package diary

import (
	"context"
	"fmt"
	"sort"
	"time"

	"tableflip.dev/diary/pkg/docs"
)

// Document field names.
const (
	FieldChapterID   = "chapterId"
	FieldDate        = "diaryDate"
	FieldContent     = "content"
	FieldEmotion     = "emotion"
	FieldImageURL    = "imageUrl"
	FieldTags        = "tags"
	FieldAIComment   = "aiComment"
	FieldAICommentAt = "aiCommentAt"
	FieldUserComment = "userComment"
	FieldLiked       = "isLiked"
	FieldBookmarked  = "isBookmarked"
	FieldCreatedAt   = "createdAt"
)

// Collection names under users/<uid>/.
const (
	Diaries  = "diaries"
	Chapters = "chapters"
)

// Diary is one diary entry as the views see it. ImageURL holds the stored
// blob reference until a view resolves it to a fetchable URL; "" means no
// image.
type Diary struct {
	ID          string    `json:"id"`
	ChapterID   string    `json:"chapterId,omitempty"`
	Content     string    `json:"content,omitempty"`
	Emotion     string    `json:"emotion,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	Date        time.Time `json:"diaryDate"`
	Tags        []string  `json:"tags,omitempty"`
	AIComment   string    `json:"aiComment,omitempty"`
	UserComment string    `json:"userComment,omitempty"`
	Liked       bool      `json:"isLiked,omitempty"`
	Bookmarked  bool      `json:"isBookmarked,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Decode reads a diary out of a document. Missing or mistyped fields decode
// to their zero values.
func Decode(doc docs.Document) *Diary {
	d := &Diary{
		ID:          doc.ID,
		ChapterID:   str(doc.Get(FieldChapterID)),
		Content:     str(doc.Get(FieldContent)),
		Emotion:     str(doc.Get(FieldEmotion)),
		ImageURL:    str(doc.Get(FieldImageURL)),
		Tags:        strs(doc.Get(FieldTags)),
		AIComment:   str(doc.Get(FieldAIComment)),
		UserComment: str(doc.Get(FieldUserComment)),
		Liked:       doc.Get(FieldLiked) == true,
		Bookmarked:  doc.Get(FieldBookmarked) == true,
	}
	if t, ok := docs.ToTime(doc.Get(FieldDate)); ok {
		d.Date = t
	}
	if t, ok := docs.ToTime(doc.Get(FieldCreatedAt)); ok {
		d.CreatedAt = t
	}
	return d
}

// DecodeAll decodes every document, preserving order.
func DecodeAll(in []docs.Document) []*Diary {
	out := make([]*Diary, 0, len(in))
	for _, doc := range in {
		out = append(out, Decode(doc))
	}
	return out
}

// Fields encodes d for storage. Dates are stored as server timestamps.
func (d *Diary) Fields() map[string]any {
	f := map[string]any{
		FieldChapterID:  d.ChapterID,
		FieldContent:    d.Content,
		FieldEmotion:    d.Emotion,
		FieldDate:       docs.TimestampOf(d.Date),
		FieldLiked:      d.Liked,
		FieldBookmarked: d.Bookmarked,
	}
	if d.ImageURL != "" {
		f[FieldImageURL] = d.ImageURL
	}
	if len(d.Tags) > 0 {
		f[FieldTags] = append([]string(nil), d.Tags...)
	}
	if d.AIComment != "" {
		f[FieldAIComment] = d.AIComment
	}
	if d.UserComment != "" {
		f[FieldUserComment] = d.UserComment
	}
	created := d.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	f[FieldCreatedAt] = docs.TimestampOf(created)
	return f
}

// Clone returns a deep copy of d.
func (d *Diary) Clone() *Diary {
	if d == nil {
		return nil
	}
	c := *d
	c.Tags = append([]string(nil), d.Tags...)
	return &c
}

func (d *Diary) String() string {
	return fmt.Sprintf("%s [%s] %s", d.Date.Format("2006-01-02"), d.Emotion, d.Content)
}

// Chapter partitions diaries.
type Chapter struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Order int    `json:"order,omitempty"`
}

// DecodeChapter reads a chapter out of a document.
func DecodeChapter(doc docs.Document) Chapter {
	c := Chapter{ID: doc.ID, Name: str(doc.Get("name"))}
	switch n := doc.Get("order").(type) {
	case float64:
		c.Order = int(n)
	case int:
		c.Order = n
	}
	return c
}

// ListChapters returns the chapters of uid in display order.
func ListChapters(ctx context.Context, svc docs.Service, uid string) ([]Chapter, error) {
	result, err := svc.Get(ctx, docs.Query{Collection: docs.UserCollection(uid, Chapters)})
	if err != nil {
		return nil, fmt.Errorf("diary: chapters: %w", err)
	}
	out := make([]Chapter, 0, len(result))
	for _, doc := range result {
		out = append(out, DecodeChapter(doc))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Order != out[j].Order {
			return out[i].Order < out[j].Order
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// AddChapter creates a chapter after the existing ones.
func AddChapter(ctx context.Context, svc docs.Service, uid, name string) (Chapter, error) {
	existing, err := ListChapters(ctx, svc, uid)
	if err != nil {
		return Chapter{}, err
	}
	order := 0
	for _, c := range existing {
		if c.Order >= order {
			order = c.Order + 1
		}
	}
	doc, err := svc.Put(ctx, docs.UserCollection(uid, Chapters), docs.Document{
		Data: map[string]any{"name": name, "order": order},
	})
	if err != nil {
		return Chapter{}, fmt.Errorf("diary: add chapter: %w", err)
	}
	return Chapter{ID: doc.ID, Name: name, Order: order}, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func strs(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
