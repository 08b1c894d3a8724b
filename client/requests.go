package client

import (
	"encoding/json"
	"sort"
	"sync"

	"bookswap/internal/domain/exchange"
	"bookswap/internal/realtime"
)

// RequestsCache mirrors one user's swap requests, patched in place by change
// events instead of refetched per event. Inserts and updates both upsert by
// id: the feed's event can arrive before the REST response for the same
// write, and either order has to land on the same state.
type RequestsCache struct {
	userID int64

	mu    sync.Mutex
	byID  map[string]exchange.Request
	watch chan struct{}
}

// NewRequestsCache builds an empty cache for the given user's requests.
func NewRequestsCache(userID int64) *RequestsCache {
	return &RequestsCache{
		userID: userID,
		byID:   make(map[string]exchange.Request),
		watch:  make(chan struct{}, 1),
	}
}

// Load replaces the cache with a fetched snapshot. The fetch wins over
// anything applied locally in the meantime.
func (c *RequestsCache) Load(resp *exchange.ListMineResponse) {
	c.mu.Lock()
	c.byID = make(map[string]exchange.Request, len(resp.Sent)+len(resp.Received))
	for _, r := range resp.Sent {
		c.byID[r.ID] = r
	}
	for _, r := range resp.Received {
		c.byID[r.ID] = r
	}
	c.mu.Unlock()
	c.notifyWatch()
}

// ApplyLocal records a request this client just created or resolved, without
// waiting for the feed to echo it back.
func (c *RequestsCache) ApplyLocal(req *exchange.Request) {
	if req == nil {
		return
	}
	c.mu.Lock()
	c.byID[req.ID] = *req
	c.mu.Unlock()
	c.notifyWatch()
}

// Apply folds one change-feed event into the cache. Replaying an event is a
// no-op; an update for a request the cache never saw inserts it.
func (c *RequestsCache) Apply(evt realtime.Event) {
	if evt.Resource != realtime.ResourceRequests {
		return
	}
	if evt.UserID != 0 && evt.UserID != c.userID {
		return
	}
	var req exchange.Request
	if err := json.Unmarshal(evt.Payload, &req); err != nil || req.ID == "" {
		return
	}

	c.mu.Lock()
	switch evt.Action {
	case realtime.ActionInsert, realtime.ActionUpdate:
		c.byID[req.ID] = req
	case realtime.ActionDelete:
		delete(c.byID, req.ID)
	}
	c.mu.Unlock()
	c.notifyWatch()
}

// Get returns one cached request.
func (c *RequestsCache) Get(id string) (exchange.Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	req, ok := c.byID[id]
	return req, ok
}

// Sent returns the requests this user made, newest first.
func (c *RequestsCache) Sent() []exchange.Request {
	return c.collect(func(r exchange.Request) bool { return r.RequesterID == c.userID })
}

// Received returns the requests against this user's books, newest first.
func (c *RequestsCache) Received() []exchange.Request {
	return c.collect(func(r exchange.Request) bool { return r.OwnerID == c.userID })
}

// Pending returns every open request in the cache, newest first.
func (c *RequestsCache) Pending() []exchange.Request {
	return c.collect(func(r exchange.Request) bool { return r.Status == exchange.StatusPending })
}

// Watch returns a channel that receives a coalesced signal whenever the cache
// changes. One receiver per cache.
func (c *RequestsCache) Watch() <-chan struct{} {
	return c.watch
}

func (c *RequestsCache) collect(keep func(exchange.Request) bool) []exchange.Request {
	c.mu.Lock()
	out := make([]exchange.Request, 0, len(c.byID))
	for _, r := range c.byID {
		if keep(r) {
			out = append(out, r)
		}
	}
	c.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (c *RequestsCache) notifyWatch() {
	select {
	case c.watch <- struct{}{}:
	default:
	}
}
