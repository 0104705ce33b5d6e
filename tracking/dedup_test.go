package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupSlots_LastValueOnly(t *testing.T) {
	var d dedupSlots

	assert.True(t, d.markIfNew(categorySearch, "A"))
	assert.False(t, d.markIfNew(categorySearch, "A"))
	assert.True(t, d.markIfNew(categorySearch, "B"))
	assert.True(t, d.markIfNew(categorySearch, "A"), "A after B is not a repeat")
}

func TestDedupSlots_CategoriesIndependent(t *testing.T) {
	var d dedupSlots

	assert.True(t, d.markIfNew(categoryPageView, "/x"))
	assert.True(t, d.markIfNew(categoryFilter, "/x"))
	assert.True(t, d.markIfNew(categorySearch, "/x"))
	assert.True(t, d.markIfNew(categoryContent, "/x"))
	assert.False(t, d.markIfNew(categoryPageView, "/x"))
}

func TestDedupSlots_EmptyKeyIsAKey(t *testing.T) {
	var d dedupSlots

	assert.True(t, d.markIfNew(categoryPageView, ""))
	assert.False(t, d.markIfNew(categoryPageView, ""))
}

func TestDedupSlots_Reset(t *testing.T) {
	var d dedupSlots

	d.markIfNew(categorySearch, "A")
	d.reset()
	assert.True(t, d.markIfNew(categorySearch, "A"))
}

func TestDedupKey(t *testing.T) {
	assert.Equal(t, "destinations|lake|3|/search", dedupKey("destinations", "lake", "3", "/search"))
	assert.Equal(t, "search", categorySearch.String())
}
