package panel

import (
	"testing"

	"github.com/liliang-cn/webchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionStore(t *testing.T) {
	store := NewSelectionStore()
	_, ok := store.Current()
	assert.False(t, ok)

	var seen []*domain.Selection
	store.Subscribe(func(sel *domain.Selection) { seen = append(seen, sel) })

	a := domain.Selection{WebsiteID: domain.NumberID(1), VectorDBID: domain.StringID("aaa"), URL: "https://a.example"}
	b := domain.Selection{WebsiteID: domain.NumberID(2), VectorDBID: domain.StringID("bbb"), URL: "https://b.example"}

	store.Set(a)
	store.Set(b)
	cur, ok := store.Current()
	require.True(t, ok)
	assert.Equal(t, b, cur)

	assert.False(t, store.ClearIf(domain.StringID("aaa")), "not the current site")
	_, ok = store.Current()
	assert.True(t, ok)

	assert.True(t, store.ClearIf(domain.StringID("bbb")))
	_, ok = store.Current()
	assert.False(t, ok)

	require.Len(t, seen, 3)
	assert.Equal(t, "https://a.example", seen[0].URL)
	assert.Equal(t, "https://b.example", seen[1].URL)
	assert.Nil(t, seen[2])
}
