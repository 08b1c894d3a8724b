package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookswap/internal/domain/exchange"
	"bookswap/internal/realtime"
)

const cacheUser = int64(7)

func req(id string, requesterID, ownerID int64, status exchange.Status) exchange.Request {
	return exchange.Request{
		ID:          id,
		BookID:      1,
		RequesterID: requesterID,
		OwnerID:     ownerID,
		Status:      status,
		CreatedAt:   time.Now(),
	}
}

func reqEvent(t *testing.T, action realtime.Action, r exchange.Request) realtime.Event {
	t.Helper()
	evt, err := realtime.NewEvent(realtime.ResourceRequests, action, cacheUser, r)
	require.NoError(t, err)
	return evt
}

func TestRequestsCache_EventBeforeResponseLandsOnSameState(t *testing.T) {
	// Same write seen twice: once from the feed, once from the REST
	// response. Either order must leave exactly one entry.
	r := req("req-1", cacheUser, 2, exchange.StatusPending)

	eventFirst := NewRequestsCache(cacheUser)
	eventFirst.Apply(reqEvent(t, realtime.ActionInsert, r))
	eventFirst.ApplyLocal(&r)
	assert.Len(t, eventFirst.Sent(), 1)

	responseFirst := NewRequestsCache(cacheUser)
	responseFirst.ApplyLocal(&r)
	responseFirst.Apply(reqEvent(t, realtime.ActionInsert, r))
	assert.Len(t, responseFirst.Sent(), 1)
}

func TestRequestsCache_UpdateUpsertsWhenUnseen(t *testing.T) {
	cache := NewRequestsCache(cacheUser)

	// An update for a request the cache never loaded still lands, so a
	// client that subscribed before fetching misses nothing.
	resolved := req("req-1", cacheUser, 2, exchange.StatusAccepted)
	cache.Apply(reqEvent(t, realtime.ActionUpdate, resolved))

	got, ok := cache.Get("req-1")
	require.True(t, ok)
	assert.Equal(t, exchange.StatusAccepted, got.Status)
}

func TestRequestsCache_ReplayIsIdempotent(t *testing.T) {
	cache := NewRequestsCache(cacheUser)
	evt := reqEvent(t, realtime.ActionInsert, req("req-1", cacheUser, 2, exchange.StatusPending))

	cache.Apply(evt)
	cache.Apply(evt)
	cache.Apply(evt)

	assert.Len(t, cache.Sent(), 1)
}

func TestRequestsCache_StatusTransitionPatchesInPlace(t *testing.T) {
	cache := NewRequestsCache(cacheUser)

	pending := req("req-1", cacheUser, 2, exchange.StatusPending)
	cache.Apply(reqEvent(t, realtime.ActionInsert, pending))

	resolved := pending
	resolved.Status = exchange.StatusRejected
	resolved.ResponseMessage = "sorry, promised to someone else"
	cache.Apply(reqEvent(t, realtime.ActionUpdate, resolved))

	sent := cache.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, exchange.StatusRejected, sent[0].Status)
	assert.Equal(t, "sorry, promised to someone else", sent[0].ResponseMessage)
	assert.Empty(t, cache.Pending())
}

func TestRequestsCache_PartitionsByRole(t *testing.T) {
	cache := NewRequestsCache(cacheUser)
	cache.Load(&exchange.ListMineResponse{
		Sent:     []exchange.Request{req("sent-1", cacheUser, 2, exchange.StatusPending)},
		Received: []exchange.Request{req("recv-1", 3, cacheUser, exchange.StatusPending)},
	})

	sent := cache.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "sent-1", sent[0].ID)

	received := cache.Received()
	require.Len(t, received, 1)
	assert.Equal(t, "recv-1", received[0].ID)

	assert.Len(t, cache.Pending(), 2)
}

func TestRequestsCache_NewestFirst(t *testing.T) {
	cache := NewRequestsCache(cacheUser)

	older := req("older", cacheUser, 2, exchange.StatusPending)
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := req("newer", cacheUser, 2, exchange.StatusPending)

	cache.Apply(reqEvent(t, realtime.ActionInsert, older))
	cache.Apply(reqEvent(t, realtime.ActionInsert, newer))

	sent := cache.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "newer", sent[0].ID)
}

func TestRequestsCache_IgnoresOtherUsersEvents(t *testing.T) {
	cache := NewRequestsCache(cacheUser)

	foreign := req("req-1", 2, 3, exchange.StatusPending)
	evt, err := realtime.NewEvent(realtime.ResourceRequests, realtime.ActionInsert, 2, foreign)
	require.NoError(t, err)
	cache.Apply(evt)

	assert.Empty(t, cache.Sent())
	assert.Empty(t, cache.Received())
}

func TestRequestsCache_LoadSnapshotWins(t *testing.T) {
	cache := NewRequestsCache(cacheUser)

	stale := req("req-1", cacheUser, 2, exchange.StatusPending)
	cache.Apply(reqEvent(t, realtime.ActionInsert, stale))

	fresh := stale
	fresh.Status = exchange.StatusAccepted
	cache.Load(&exchange.ListMineResponse{Sent: []exchange.Request{fresh}})

	got, ok := cache.Get("req-1")
	require.True(t, ok)
	assert.Equal(t, exchange.StatusAccepted, got.Status)
}
