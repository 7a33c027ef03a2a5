package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	ix, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { ix.Close() })
	return ix
}

func TestUpsertAndDedup(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()

	doc := Document{
		SourceID:    "evt-1",
		SourceTable: "event",
		Category:    "event",
		Content:     "Sunset ceremony at the cliff chapel",
		Embedding:   []float32{1, 0, 0},
		Metadata:    map[string]string{"title": "Sunset ceremony"},
	}

	stored, err := ix.Upsert(ctx, doc)
	require.NoError(t, err)
	assert.True(t, stored)

	// Same content: skipped, so embedding work can be avoided upstream.
	stored, err = ix.Upsert(ctx, doc)
	require.NoError(t, err)
	assert.False(t, stored)

	// Changed content: written again.
	doc.Content = "Sunset ceremony moved to the beach lawn"
	doc.ContentHash = ""
	stored, err = ix.Upsert(ctx, doc)
	require.NoError(t, err)
	assert.True(t, stored)

	stats, err := ix.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}

func TestUpsertRequiresSourceID(t *testing.T) {
	ix := openTestIndex(t)
	_, err := ix.Upsert(context.Background(), Document{Content: "x"})
	assert.Error(t, err)
}

func TestQueryRanksBySimilarity(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()

	docs := []Document{
		{SourceID: "a", SourceTable: "event", Category: "event", Content: "a", Embedding: []float32{1, 0, 0}},
		{SourceID: "b", SourceTable: "event", Category: "event", Content: "b", Embedding: []float32{0.9, 0.1, 0}},
		{SourceID: "c", SourceTable: "venue", Category: "venue", Content: "c", Embedding: []float32{0, 1, 0}},
	}
	for _, d := range docs {
		_, err := ix.Upsert(ctx, d)
		require.NoError(t, err)
	}

	hits, err := ix.Query(ctx, []float32{1, 0, 0}, Filter{}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].SourceID)
	assert.Equal(t, "b", hits[1].SourceID)
	assert.Greater(t, hits[0].Similarity, hits[1].Similarity)
}

func TestQueryMetadataFilter(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()

	for _, d := range []Document{
		{SourceID: "a", SourceTable: "event", Category: "event", Content: "a", Embedding: []float32{1, 0}},
		{SourceID: "b", SourceTable: "venue", Category: "venue", Content: "b", Embedding: []float32{1, 0}},
	} {
		_, err := ix.Upsert(ctx, d)
		require.NoError(t, err)
	}

	hits, err := ix.Query(ctx, []float32{1, 0}, Filter{SourceTable: "venue"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "b", hits[0].SourceID)

	hits, err = ix.Query(ctx, []float32{1, 0}, Filter{Category: "event"}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "a", hits[0].SourceID)
}

func TestQuerySkipsDocsWithoutEmbedding(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()

	_, err := ix.Upsert(ctx, Document{SourceID: "no-vec", SourceTable: "event", Category: "event", Content: "x"})
	require.NoError(t, err)

	hits, err := ix.Query(ctx, []float32{1, 0}, Filter{}, 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestAllAndDelete(t *testing.T) {
	ix := openTestIndex(t)
	ctx := context.Background()

	for _, id := range []string{"one", "two", "three"} {
		_, err := ix.Upsert(ctx, Document{SourceID: id, SourceTable: "event", Category: "event", Content: id})
		require.NoError(t, err)
	}

	var seen []string
	require.NoError(t, ix.All(ctx, func(d Document) error {
		seen = append(seen, d.SourceID)
		return nil
	}))
	assert.Equal(t, []string{"one", "two", "three"}, seen)

	require.NoError(t, ix.Delete(ctx, "two"))
	stats, err := ix.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, map[string]int{"event": 2}, stats.ByTable)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
