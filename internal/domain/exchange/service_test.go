package exchange

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	_ "modernc.org/sqlite"

	"bookswap/internal/domain/auth"
	"bookswap/internal/domain/catalog"
	"bookswap/internal/domain/notification"
	"bookswap/internal/realtime"
)

// eventRecorder collects everything published on the bus. The in-process bus
// dispatches synchronously, so assertions can run right after the call.
type eventRecorder struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (r *eventRecorder) record(evt realtime.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *eventRecorder) byResource(res realtime.Resource) []realtime.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []realtime.Event
	for _, evt := range r.events {
		if evt.Resource == res {
			out = append(out, evt)
		}
	}
	return out
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type testEnv struct {
	db      *gorm.DB
	service *Service
	notifs  *notification.Service
	events  *eventRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{DriverName: "sqlite", DSN: ":memory:"}),
		&gorm.Config{},
	)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&auth.User{}, &catalog.Book{}, &Request{}, &notification.Notification{},
	))

	bus := realtime.NewInProcBus()
	rec := &eventRecorder{}
	_, err = bus.Subscribe(rec.record)
	require.NoError(t, err)

	notifs := notification.NewService(notification.NewRepository(db), bus)
	service := NewService(
		db,
		NewRepository(db),
		catalog.NewRepository(db),
		auth.NewUserRepository(db),
		notifs,
		bus,
	)

	return &testEnv{db: db, service: service, notifs: notifs, events: rec}
}

func (e *testEnv) createUser(t *testing.T, name string) *auth.User {
	t.Helper()
	u := &auth.User{Email: name + "@example.com", PasswordHash: "x", DisplayName: name}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) createBook(t *testing.T, ownerID int64, title string, status catalog.Status) *catalog.Book {
	t.Helper()
	b := &catalog.Book{
		OwnerID:   ownerID,
		Title:     title,
		Author:    "Author",
		Condition: catalog.ConditionGood,
		Status:    status,
	}
	require.NoError(t, e.db.Create(b).Error)
	return b
}

func (e *testEnv) notificationsFor(t *testing.T, userID int64) []notification.Notification {
	t.Helper()
	var out []notification.Notification
	require.NoError(t, e.db.Where("user_id = ?", userID).Order("id").Find(&out).Error)
	return out
}

func TestCreate_PendingRequestNotifiesOwner(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")
	requester := env.createUser(t, "alex")
	book := env.createBook(t, owner.ID, "1984", catalog.StatusAvailable)

	req, err := env.service.Create(context.Background(), requester.ID, CreateRequestRequest{
		BookID:  book.ID,
		Message: "interested",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, StatusPending, req.Status)
	assert.Equal(t, owner.ID, req.OwnerID)
	assert.Equal(t, "interested", req.Message)

	// Exactly one notification, addressed to the owner.
	ownerNotifs := env.notificationsFor(t, owner.ID)
	require.Len(t, ownerNotifs, 1)
	assert.Equal(t, notification.TypeBookRequest, ownerNotifs[0].Type)
	assert.Contains(t, ownerNotifs[0].Body, "alex")
	assert.Contains(t, ownerNotifs[0].Body, "1984")
	assert.False(t, ownerNotifs[0].IsRead)
	assert.Empty(t, env.notificationsFor(t, requester.ID))

	// Both parties hear about the request; only the owner gets the
	// notification event.
	reqEvents := env.events.byResource(realtime.ResourceRequests)
	require.Len(t, reqEvents, 2)
	seen := map[int64]bool{}
	for _, evt := range reqEvents {
		assert.Equal(t, realtime.ActionInsert, evt.Action)
		seen[evt.UserID] = true
	}
	assert.True(t, seen[owner.ID])
	assert.True(t, seen[requester.ID])

	notifEvents := env.events.byResource(realtime.ResourceNotifications)
	require.Len(t, notifEvents, 1)
	assert.Equal(t, realtime.ActionInsert, notifEvents[0].Action)
	assert.Equal(t, owner.ID, notifEvents[0].UserID)
}

func TestCreate_OwnBookRejected(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")
	book := env.createBook(t, owner.ID, "Dune", catalog.StatusAvailable)

	_, err := env.service.Create(context.Background(), owner.ID, CreateRequestRequest{BookID: book.ID})
	assert.ErrorIs(t, err, ErrOwnBook)

	var count int64
	env.db.Model(&Request{}).Count(&count)
	assert.Zero(t, count)
	assert.Empty(t, env.events.byResource(realtime.ResourceRequests))
}

func TestCreate_BookMissingOrUnavailable(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")
	requester := env.createUser(t, "alex")
	reserved := env.createBook(t, owner.ID, "Dune", catalog.StatusReserved)

	_, err := env.service.Create(context.Background(), requester.ID, CreateRequestRequest{BookID: 9999})
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = env.service.Create(context.Background(), requester.ID, CreateRequestRequest{BookID: reserved.ID})
	assert.ErrorIs(t, err, ErrBookUnavailable)
}

func TestCreate_SecondPendingRequestRejected(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")
	requester := env.createUser(t, "alex")
	book := env.createBook(t, owner.ID, "1984", catalog.StatusAvailable)

	_, err := env.service.Create(context.Background(), requester.ID, CreateRequestRequest{BookID: book.ID})
	require.NoError(t, err)

	_, err = env.service.Create(context.Background(), requester.ID, CreateRequestRequest{BookID: book.ID})
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	// One request row, one notification: the duplicate left no trace.
	var count int64
	env.db.Model(&Request{}).Count(&count)
	assert.EqualValues(t, 1, count)
	assert.Len(t, env.notificationsFor(t, owner.ID), 1)

	// Another user may still request the same book.
	other := env.createUser(t, "kim")
	_, err = env.service.Create(context.Background(), other.ID, CreateRequestRequest{BookID: book.ID})
	assert.NoError(t, err)
}

func TestCreate_DuplicateRaceCaughtByIndex(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")
	requester := env.createUser(t, "alex")
	book := env.createBook(t, owner.ID, "1984", catalog.StatusAvailable)

	// Insert directly, bypassing the service pre-check, to prove the partial
	// index itself rejects a second pending row for the same (book, requester).
	repo := NewRepository(env.db)
	first := &Request{ID: "req-1", BookID: book.ID, RequesterID: requester.ID, OwnerID: owner.ID, Status: StatusPending}
	require.NoError(t, repo.Create(context.Background(), nil, first))

	second := &Request{ID: "req-2", BookID: book.ID, RequesterID: requester.ID, OwnerID: owner.ID, Status: StatusPending}
	err := repo.Create(context.Background(), nil, second)
	assert.ErrorIs(t, err, ErrDuplicateRequest)

	// A resolved row does not block a new pending one.
	resolved := &Request{ID: "req-3", BookID: book.ID, RequesterID: requester.ID, OwnerID: owner.ID, Status: StatusRejected}
	require.NoError(t, repo.Create(context.Background(), nil, resolved))
}

func TestRespond_AcceptReservesBookAndNotifiesRequester(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")
	requester := env.createUser(t, "alex")
	book := env.createBook(t, owner.ID, "1984", catalog.StatusAvailable)

	req, err := env.service.Create(context.Background(), requester.ID, CreateRequestRequest{BookID: book.ID, Message: "interested"})
	require.NoError(t, err)
	env.events.reset()

	resolved, err := env.service.Respond(context.Background(), owner.ID, req.ID, RespondRequest{
		Decision: "accepted",
		Message:  "sure",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusAccepted, resolved.Status)
	assert.Equal(t, "sure", resolved.ResponseMessage)
	require.NotNil(t, resolved.RespondedAt)

	// The decision is durable, not just echoed.
	stored, err := NewRepository(env.db).GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, stored.Status)

	// Accepting takes the book off the market.
	var b catalog.Book
	require.NoError(t, env.db.First(&b, book.ID).Error)
	assert.Equal(t, catalog.StatusReserved, b.Status)

	// Requester got exactly one accepted notification carrying the reply.
	notifs := env.notificationsFor(t, requester.ID)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.TypeRequestAccepted, notifs[0].Type)
	assert.Contains(t, notifs[0].Body, "sure")

	reqEvents := env.events.byResource(realtime.ResourceRequests)
	require.Len(t, reqEvents, 2)
	for _, evt := range reqEvents {
		assert.Equal(t, realtime.ActionUpdate, evt.Action)
		var payload Request
		require.NoError(t, json.Unmarshal(evt.Payload, &payload))
		assert.Equal(t, StatusAccepted, payload.Status)
		assert.Equal(t, "sure", payload.ResponseMessage)
	}

	notifEvents := env.events.byResource(realtime.ResourceNotifications)
	require.Len(t, notifEvents, 1)
	assert.Equal(t, requester.ID, notifEvents[0].UserID)
}

func TestRespond_RejectLeavesBookAvailable(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")
	requester := env.createUser(t, "alex")
	book := env.createBook(t, owner.ID, "1984", catalog.StatusAvailable)

	req, err := env.service.Create(context.Background(), requester.ID, CreateRequestRequest{BookID: book.ID})
	require.NoError(t, err)

	resolved, err := env.service.Respond(context.Background(), owner.ID, req.ID, RespondRequest{Decision: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, resolved.Status)

	var b catalog.Book
	require.NoError(t, env.db.First(&b, book.ID).Error)
	assert.Equal(t, catalog.StatusAvailable, b.Status)

	notifs := env.notificationsFor(t, requester.ID)
	require.Len(t, notifs, 1)
	assert.Equal(t, notification.TypeRequestRejected, notifs[0].Type)
}

func TestRespond_OnlyOwnerAndOnlyOnce(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")
	requester := env.createUser(t, "alex")
	stranger := env.createUser(t, "kim")
	book := env.createBook(t, owner.ID, "1984", catalog.StatusAvailable)

	req, err := env.service.Create(context.Background(), requester.ID, CreateRequestRequest{BookID: book.ID})
	require.NoError(t, err)

	_, err = env.service.Respond(context.Background(), stranger.ID, req.ID, RespondRequest{Decision: "accepted"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.service.Respond(context.Background(), requester.ID, req.ID, RespondRequest{Decision: "accepted"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.service.Respond(context.Background(), owner.ID, req.ID, RespondRequest{Decision: "maybe"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.service.Respond(context.Background(), owner.ID, req.ID, RespondRequest{Decision: "accepted"})
	require.NoError(t, err)

	// The second answer fails and the first decision stands.
	_, err = env.service.Respond(context.Background(), owner.ID, req.ID, RespondRequest{Decision: "rejected"})
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	stored, err := NewRepository(env.db).GetByID(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, stored.Status)

	// The double answer produced no extra notification.
	assert.Len(t, env.notificationsFor(t, requester.ID), 1)
}

func TestRespond_UnknownRequest(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")

	_, err := env.service.Respond(context.Background(), owner.ID, "no-such-id", RespondRequest{Decision: "accepted"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreate_AllowedAgainAfterRejection(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")
	requester := env.createUser(t, "alex")
	book := env.createBook(t, owner.ID, "1984", catalog.StatusAvailable)

	first, err := env.service.Create(context.Background(), requester.ID, CreateRequestRequest{BookID: book.ID})
	require.NoError(t, err)
	_, err = env.service.Respond(context.Background(), owner.ID, first.ID, RespondRequest{Decision: "rejected"})
	require.NoError(t, err)

	second, err := env.service.Create(context.Background(), requester.ID, CreateRequestRequest{BookID: book.ID})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	var count int64
	env.db.Model(&Request{}).Where("requester_id = ?", requester.ID).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestListMine_PartitionsByRole(t *testing.T) {
	env := newTestEnv(t)
	maria := env.createUser(t, "maria")
	alex := env.createUser(t, "alex")
	kim := env.createUser(t, "kim")

	mariasBook := env.createBook(t, maria.ID, "1984", catalog.StatusAvailable)
	kimsBook := env.createBook(t, kim.ID, "Dune", catalog.StatusAvailable)

	sent, err := env.service.Create(context.Background(), maria.ID, CreateRequestRequest{BookID: kimsBook.ID})
	require.NoError(t, err)
	received, err := env.service.Create(context.Background(), alex.ID, CreateRequestRequest{BookID: mariasBook.ID})
	require.NoError(t, err)

	mine, err := env.service.ListMine(context.Background(), maria.ID)
	require.NoError(t, err)
	require.Len(t, mine.Sent, 1)
	require.Len(t, mine.Received, 1)
	assert.Equal(t, sent.ID, mine.Sent[0].ID)
	assert.Equal(t, received.ID, mine.Received[0].ID)

	// Kim never asked for anything.
	kims, err := env.service.ListMine(context.Background(), kim.ID)
	require.NoError(t, err)
	assert.Empty(t, kims.Sent)
	require.Len(t, kims.Received, 1)
}

func TestGet_ParticipantsOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.createUser(t, "maria")
	requester := env.createUser(t, "alex")
	stranger := env.createUser(t, "kim")
	book := env.createBook(t, owner.ID, "1984", catalog.StatusAvailable)

	req, err := env.service.Create(context.Background(), requester.ID, CreateRequestRequest{BookID: book.ID})
	require.NoError(t, err)

	_, err = env.service.Get(context.Background(), owner.ID, req.ID)
	assert.NoError(t, err)
	_, err = env.service.Get(context.Background(), requester.ID, req.ID)
	assert.NoError(t, err)
	_, err = env.service.Get(context.Background(), stranger.ID, req.ID)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.service.Get(context.Background(), owner.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
