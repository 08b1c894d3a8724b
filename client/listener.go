package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"bookswap/internal/realtime"
)

// Handlers maps a resource to the function that folds its events into local
// state. The subscription only asks the server for resources that have a
// handler.
type Handlers map[realtime.Resource]func(realtime.Event)

// Listener dials a server's change feed.
type Listener struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer
}

// NewListener points at the same base URL as New; the scheme is swapped for
// the websocket dial.
func NewListener(baseURL, token string) *Listener {
	return &Listener{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dialer:  websocket.DefaultDialer,
	}
}

// Subscribe dials the feed and starts dispatching events to their handlers on
// a single goroutine, in the order the server delivered them. Cancelling ctx
// closes the subscription.
func (l *Listener) Subscribe(ctx context.Context, handlers Handlers) (*Subscription, error) {
	if len(handlers) == 0 {
		return nil, errors.New("no handlers registered")
	}

	resources := make([]string, 0, len(handlers))
	for r := range handlers {
		resources = append(resources, string(r))
	}
	sort.Strings(resources)

	u, err := url.Parse(l.baseURL + "/ws/events")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	q := u.Query()
	q.Set("token", l.token)
	q.Set("resources", strings.Join(resources, ","))
	u.RawQuery = q.Encode()

	conn, resp, err := l.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: feed dial rejected", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("%w: dialing feed: %v", ErrTransient, err)
	}

	sub := &Subscription{
		conn:    conn,
		done:    make(chan struct{}),
		closing: make(chan struct{}),
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()
	go sub.readLoop(handlers)

	return sub, nil
}

// Subscription is one live feed connection. Close is the single release path:
// consumers call it on teardown, the context watcher calls it on cancel, and
// the read loop's error exit still runs the same cleanup, never twice.
type Subscription struct {
	conn    *websocket.Conn
	done    chan struct{}
	closing chan struct{}
	once    sync.Once

	mu  sync.Mutex
	err error
}

func (s *Subscription) readLoop(handlers Handlers) {
	defer func() {
		s.conn.Close()
		close(s.done)
	}()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.closing:
				// Consumer-initiated teardown, not a transport failure.
			default:
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
			}
			return
		}

		var evt realtime.Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			continue
		}
		// Control frames like pongs decode to an empty resource and fall
		// through here.
		if h, ok := handlers[evt.Resource]; ok && h != nil {
			h(evt)
		}
	}
}

// Close tears the subscription down. It is idempotent and returns once the
// read loop has exited, so no handler runs after Close returns.
func (s *Subscription) Close() error {
	s.once.Do(func() {
		close(s.closing)
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		_ = s.conn.Close()
	})
	<-s.done
	return nil
}

// Done closes when the subscription has fully stopped, whether by Close or by
// a transport failure.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the feed stopped: nil while running and after a clean
// Close, the transport error otherwise.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
