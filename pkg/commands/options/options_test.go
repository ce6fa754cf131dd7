package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableflip.dev/diary/pkg/explore"
	"tableflip.dev/diary/pkg/window"
)

func TestWindowOptionsGetDate(t *testing.T) {
	o := &WindowOptions{}
	now, err := o.GetDate()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now, time.Minute)

	o.DateString = "2025-03-10"
	d, err := o.GetDate()
	require.NoError(t, err)
	assert.Equal(t, "2025-03-10", window.DayKey(d))

	o.DateString = "3/10"
	_, err = o.GetDate()
	assert.Error(t, err)
}

func TestExploreOptionsRequest(t *testing.T) {
	o := &ExploreOptions{Emotions: []string{"joy"}, Sort: "oldest", PageSize: 5}
	req, err := o.Request()
	require.NoError(t, err)
	assert.Equal(t, explore.Oldest, req.Sort)
	assert.Equal(t, []string{"joy"}, req.Filter.Emotions)
	assert.Equal(t, 5, req.PageSize)
	assert.Nil(t, req.After)

	o.After = "1000.d1"
	req, err = o.Request()
	require.NoError(t, err)
	require.NotNil(t, req.After)
	assert.Equal(t, "d1", req.After.ID)

	o.Sort = "random"
	_, err = o.Request()
	assert.Error(t, err)
}
