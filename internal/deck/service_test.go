package deck

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashdeckhq/flashdeck/internal/apierrors"
	"github.com/flashdeckhq/flashdeck/internal/cache"
	"github.com/flashdeckhq/flashdeck/internal/models"
)

// mapCache is an in-process Cache for tests. Values round-trip through
// JSON like the redis implementation does.
type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}}
}

func (m *mapCache) Get(_ context.Context, key string, dest any) error {
	raw, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mapCache) Set(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func seedDeck(t *testing.T, c *mapCache, d models.Deck) {
	t.Helper()
	require.NoError(t, c.Set(context.Background(), cache.DeckKey(d.ID), &d))
}

func TestGetServesFromCache(t *testing.T) {
	c := newMapCache()
	owner := uuid.New()
	d := models.Deck{ID: uuid.New(), UserID: owner, Name: "Spanish", IsPublic: true, CardCount: 7}
	seedDeck(t, c, d)

	// db is nil: any query would panic, so a result proves the cache hit.
	svc := NewService(nil, c)

	got, err := svc.Get(context.Background(), uuid.New(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, 7, got.CardCount)
}

func TestGetCachedPrivateDeckStillDenied(t *testing.T) {
	c := newMapCache()
	d := models.Deck{ID: uuid.New(), UserID: uuid.New(), Name: "Notes", IsPublic: false}
	seedDeck(t, c, d)

	svc := NewService(nil, c)

	_, err := svc.Get(context.Background(), uuid.New(), d.ID)
	var denied *apierrors.AccessDeniedError
	require.ErrorAs(t, err, &denied)
}

func TestInvalidateDropsCacheEntry(t *testing.T) {
	c := newMapCache()
	d := models.Deck{ID: uuid.New(), UserID: uuid.New(), Name: "Stale", IsPublic: true, CardCount: 3}
	seedDeck(t, c, d)

	svc := NewService(nil, c)
	svc.Invalidate(context.Background(), d.ID)

	var out models.Deck
	err := c.Get(context.Background(), cache.DeckKey(d.ID), &out)
	assert.ErrorIs(t, err, cache.ErrMiss)
}

func TestInvalidateMissingKeyIsQuiet(t *testing.T) {
	svc := NewService(nil, newMapCache())
	assert.NotPanics(t, func() {
		svc.Invalidate(context.Background(), uuid.New())
	})
}
