package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"bookswap/internal/domain/notification"
	"bookswap/internal/realtime"
)

// NotificationAPI is the slice of the REST client the inbox writes through.
type NotificationAPI interface {
	MarkNotificationRead(ctx context.Context, id int64) error
	MarkAllNotificationsRead(ctx context.Context) (int64, error)
}

// Inbox mirrors one user's notification list. The unread badge is always
// derived by counting, never stored, so it cannot drift from the list no
// matter how events, fetches and optimistic writes interleave.
//
// Writes are optimistic: MarkRead flips the local entry first, confirms with
// the server, and on failure restores the exact pre-call entry. If the change
// feed rewrote the entry in the meantime the feed's state stands; the
// per-entry revision counters carry that "in the meantime" check.
type Inbox struct {
	remote NotificationAPI

	mu      sync.Mutex
	entries []notification.Notification // newest first
	revs    map[int64]uint64
	watch   chan struct{}
}

// NewInbox builds an empty inbox that confirms writes through remote.
func NewInbox(remote NotificationAPI) *Inbox {
	return &Inbox{
		remote: remote,
		revs:   make(map[int64]uint64),
		watch:  make(chan struct{}, 1),
	}
}

// ReplaceAll swaps in a fetched page. The fetch wins over any optimistic
// local state; pending rollbacks against replaced entries are abandoned.
func (x *Inbox) ReplaceAll(fetched []notification.Notification) {
	x.mu.Lock()
	x.entries = append([]notification.Notification(nil), fetched...)
	revs := make(map[int64]uint64, len(fetched))
	for _, n := range fetched {
		revs[n.ID] = x.revs[n.ID] + 1
	}
	x.revs = revs
	x.mu.Unlock()
	x.notifyWatch()
}

// Apply folds one change-feed event into the list. Applying the same event
// twice lands on the same state, and an insert for an id that is already
// present replaces it instead of duplicating it, so replays and
// event-before-response orderings are harmless.
func (x *Inbox) Apply(evt realtime.Event) {
	if evt.Resource != realtime.ResourceNotifications {
		return
	}
	var n notification.Notification
	if err := json.Unmarshal(evt.Payload, &n); err != nil || n.ID == 0 {
		return
	}

	x.mu.Lock()
	switch evt.Action {
	case realtime.ActionInsert:
		if i := x.index(n.ID); i >= 0 {
			x.entries[i] = n
		} else {
			x.entries = append([]notification.Notification{n}, x.entries...)
		}
		x.revs[n.ID]++
	case realtime.ActionUpdate:
		// Updates for entries we never loaded are dropped; the next fetch
		// carries them.
		if i := x.index(n.ID); i >= 0 {
			x.entries[i] = n
			x.revs[n.ID]++
		}
	case realtime.ActionDelete:
		if i := x.index(n.ID); i >= 0 {
			x.entries = append(x.entries[:i], x.entries[i+1:]...)
			delete(x.revs, n.ID)
		}
	}
	x.mu.Unlock()
	x.notifyWatch()
}

// List returns a copy of the inbox, newest first.
func (x *Inbox) List() []notification.Notification {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]notification.Notification(nil), x.entries...)
}

// UnreadCount counts the unread entries. Computed on every call.
func (x *Inbox) UnreadCount() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	count := 0
	for i := range x.entries {
		if !x.entries[i].IsRead {
			count++
		}
	}
	return count
}

// MarkRead flips one notification optimistically, then confirms with the
// server. Marking an entry that is already read locally is a no-op with no
// server call, so the operation is idempotent from the UI's point of view.
func (x *Inbox) MarkRead(ctx context.Context, id int64) error {
	x.mu.Lock()
	i := x.index(id)
	if i < 0 {
		x.mu.Unlock()
		// Not cached here; let the server decide and the feed reconcile.
		return x.remote.MarkNotificationRead(ctx, id)
	}
	if x.entries[i].IsRead {
		x.mu.Unlock()
		return nil
	}

	prev := x.entries[i]
	now := time.Now()
	x.entries[i].IsRead = true
	x.entries[i].ReadAt = &now
	x.revs[id]++
	flipRev := x.revs[id]
	x.mu.Unlock()
	x.notifyWatch()

	if err := x.remote.MarkNotificationRead(ctx, id); err != nil {
		x.rollback(map[int64]undoEntry{id: {prev: prev, rev: flipRev}})
		return err
	}
	return nil
}

// MarkAllRead flips the whole unread set optimistically with the same
// per-entry rollback contract as MarkRead.
func (x *Inbox) MarkAllRead(ctx context.Context) error {
	x.mu.Lock()
	undos := make(map[int64]undoEntry)
	now := time.Now()
	for i := range x.entries {
		if x.entries[i].IsRead {
			continue
		}
		id := x.entries[i].ID
		prev := x.entries[i]
		x.entries[i].IsRead = true
		x.entries[i].ReadAt = &now
		x.revs[id]++
		undos[id] = undoEntry{prev: prev, rev: x.revs[id]}
	}
	x.mu.Unlock()

	if len(undos) == 0 {
		return nil
	}
	x.notifyWatch()

	if _, err := x.remote.MarkAllNotificationsRead(ctx); err != nil {
		x.rollback(undos)
		return err
	}
	return nil
}

// Watch returns a channel that receives a coalesced signal whenever the inbox
// changes. One receiver per inbox.
func (x *Inbox) Watch() <-chan struct{} {
	return x.watch
}

type undoEntry struct {
	prev notification.Notification
	rev  uint64
}

// rollback restores the exact pre-flip entries, but only where the revision
// still matches the flip: an entry the feed has rewritten since carries newer
// truth and is left alone.
func (x *Inbox) rollback(undos map[int64]undoEntry) {
	x.mu.Lock()
	for id, u := range undos {
		i := x.index(id)
		if i < 0 || x.revs[id] != u.rev {
			continue
		}
		x.entries[i] = u.prev
		x.revs[id]++
	}
	x.mu.Unlock()
	x.notifyWatch()
}

// index returns the position of id in entries, or -1. Inboxes are one
// page of UI state; a linear scan is fine.
func (x *Inbox) index(id int64) int {
	for i := range x.entries {
		if x.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (x *Inbox) notifyWatch() {
	select {
	case x.watch <- struct{}{}:
	default:
	}
}
