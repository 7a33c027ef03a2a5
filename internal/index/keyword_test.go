package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordSearch(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()

	docs := []Document{
		{SourceID: "a", SourceTable: "event", Category: "event", Content: "Sunset ceremony on the cliff"},
		{SourceID: "b", SourceTable: "venue", Category: "venue", Content: "Cliffside chapel, capacity 120"},
		{SourceID: "c", SourceTable: "issue", Category: "issue", Content: "Late catering delivery"},
	}
	for _, d := range docs {
		_, err := ix.Upsert(ctx, d)
		require.NoError(t, err)
	}

	hits, err := ix.KeywordSearch(ctx, "CLIFF", Filter{}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = ix.KeywordSearch(ctx, "cliff", Filter{SourceTable: "venue"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].SourceID)

	hits, err = ix.KeywordSearch(ctx, "", Filter{}, 10)
	require.NoError(t, err)
	assert.Nil(t, hits)
}
