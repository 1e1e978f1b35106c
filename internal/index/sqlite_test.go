package index

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oneboxhq/onebox/pkg/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func doc(id, account string, category models.Category, date time.Time) *models.Document {
	return &models.Document{
		MessageID: id,
		AccountID: account,
		Category:  category,
		Subject:   "subject " + id,
		FromAddr:  "sender@example.com",
		Date:      date,
		BodyText:  "body " + id,
	}
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.EnsureSchema(context.Background()))
}

func TestUpsertAndExists(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "m1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Upsert(ctx, doc("m1", "a@example.com", models.CategorySpam, time.Now())))

	exists, err = store.Exists(ctx, "m1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUpsertOverwritesSameMessageID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.Upsert(ctx, doc("m1", "a@example.com", models.CategoryUncategorized, now)))
	require.NoError(t, store.Upsert(ctx, doc("m1", "a@example.com", models.CategoryInterested, now)))

	docs, err := store.Search(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.CategoryInterested, docs[0].Category)
}

func TestSearchByCategory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Upsert(ctx, doc(fmt.Sprintf("int-%d", i), "a@example.com", models.CategoryInterested, base.Add(time.Duration(i)*time.Hour))))
	}
	for i := 0; i < 2; i++ {
		require.NoError(t, store.Upsert(ctx, doc(fmt.Sprintf("not-%d", i), "a@example.com", models.CategoryNotInterested, base.Add(time.Duration(10+i)*time.Hour))))
	}

	docs, err := store.Search(ctx, Query{Category: models.CategoryInterested})
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for _, d := range docs {
		assert.Equal(t, models.CategoryInterested, d.Category)
	}
	// Newest first
	assert.Equal(t, "int-2", docs[0].MessageID)
	assert.Equal(t, "int-1", docs[1].MessageID)
	assert.Equal(t, "int-0", docs[2].MessageID)
}

func TestSearchByAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, store.Upsert(ctx, doc("m1", "a@example.com", models.CategorySpam, now)))
	require.NoError(t, store.Upsert(ctx, doc("m2", "b@example.com", models.CategorySpam, now)))

	docs, err := store.Search(ctx, Query{AccountID: "b@example.com"})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "m2", docs[0].MessageID)
}

func TestSearchFullText(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	d1 := doc("m1", "a@example.com", models.CategoryUncategorized, now)
	d1.Subject = "Quarterly pricing update"
	d2 := doc("m2", "a@example.com", models.CategoryUncategorized, now)
	d2.BodyText = "the pricing document is attached"
	d3 := doc("m3", "a@example.com", models.CategoryUncategorized, now)
	d3.Subject = "Lunch plans"
	d3.BodyText = "see you at noon"
	require.NoError(t, store.Upsert(ctx, d1))
	require.NoError(t, store.Upsert(ctx, d2))
	require.NoError(t, store.Upsert(ctx, d3))

	docs, err := store.Search(ctx, Query{Text: "pricing"})
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestSearchCombinedFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	d1 := doc("m1", "a@example.com", models.CategoryInterested, now)
	d1.BodyText = "demo request"
	d2 := doc("m2", "b@example.com", models.CategoryInterested, now)
	d2.BodyText = "demo request"
	d3 := doc("m3", "a@example.com", models.CategorySpam, now)
	d3.BodyText = "demo request"
	require.NoError(t, store.Upsert(ctx, d1))
	require.NoError(t, store.Upsert(ctx, d2))
	require.NoError(t, store.Upsert(ctx, d3))

	docs, err := store.Search(ctx, Query{Text: "demo", AccountID: "a@example.com", Category: models.CategoryInterested})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "m1", docs[0].MessageID)
}

func TestSearchCapsAt100(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		require.NoError(t, store.Upsert(ctx, doc(fmt.Sprintf("m-%d", i), "a@example.com", models.CategoryUncategorized, base.Add(time.Duration(i)*time.Minute))))
	}

	docs, err := store.Search(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, docs, 100)
	// Newest first means the most recent document leads
	assert.Equal(t, "m-119", docs[0].MessageID)
}

func TestSearchEmptyIndex(t *testing.T) {
	store := newTestStore(t)

	docs, err := store.Search(context.Background(), Query{Text: "anything"})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
