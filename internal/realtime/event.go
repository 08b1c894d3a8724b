package realtime

import (
	"crypto/rand"
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

// Resource names a collection the change feed announces patches for.
type Resource string

const (
	ResourceRequests      Resource = "exchange_requests"
	ResourceNotifications Resource = "notifications"
	ResourceMessages      Resource = "messages"
)

// ParseResource maps a wire string onto a known resource.
func ParseResource(s string) (Resource, bool) {
	switch Resource(s) {
	case ResourceRequests, ResourceNotifications, ResourceMessages:
		return Resource(s), true
	}
	return "", false
}

// Action tells a client how to apply an event's payload to its cached copy of
// the resource collection.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event is one change-feed entry, addressed to a single user. Payload carries
// the full JSON representation of the affected record so clients can patch
// their caches in place instead of refetching lists.
type Event struct {
	ID        string          `json:"id"`
	Resource  Resource        `json:"resource"`
	Action    Action          `json:"action"`
	UserID    int64           `json:"user_id"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent serializes payload and stamps the event with a ULID, which keeps
// event IDs unique and roughly sortable across nodes.
func NewEvent(resource Resource, action Action, userID int64, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	now := time.Now()
	id := ulid.MustNew(ulid.Timestamp(now), ulid.Monotonic(rand.Reader, 0))

	return Event{
		ID:        id.String(),
		Resource:  resource,
		Action:    action,
		UserID:    userID,
		Payload:   raw,
		Timestamp: now.UTC(),
	}, nil
}
