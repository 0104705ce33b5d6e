package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourismhub/api/models"
)

func TestEncodeEventMaps(t *testing.T) {
	ev := &models.AnalyticsEvent{
		EventID:  "e1",
		Filters:  map[string]any{"price": []int{10, 50}},
		Metadata: map[string]any{"user_role": "tourist"},
	}

	filters, metadata, err := encodeEventMaps(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":[10,50]}`, filters)
	assert.JSONEq(t, `{"user_role":"tourist"}`, metadata)
}

func TestEncodeEventMaps_NilMapsBecomeEmptyObjects(t *testing.T) {
	filters, metadata, err := encodeEventMaps(&models.AnalyticsEvent{})
	require.NoError(t, err)
	assert.Equal(t, "{}", filters)
	assert.Equal(t, "{}", metadata)
}

func TestEncodeEventMaps_Unencodable(t *testing.T) {
	_, _, err := encodeEventMaps(&models.AnalyticsEvent{
		EventID: "e2",
		Filters: map[string]any{"bad": make(chan int)},
	})
	assert.Error(t, err)
}

func TestNullableInt64(t *testing.T) {
	assert.Nil(t, nullableInt64(nil))

	n := 7
	got := nullableInt64(&n)
	require.NotNil(t, got)
	assert.Equal(t, int64(7), *got)
}
