package board

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/gorilla/websocket"
)

// a fake board channel hub. every received message is broadcast to all
// connected clients, the sender included, which is what the real
// backend does.
type wsTestHub struct {
	server *httptest.Server

	mutex sync.Mutex
	conns map[*websocket.Conn]chan []byte
}

func newWsTestHub(t *testing.T) *wsTestHub {
	hub := &wsTestHub{
		conns: map[*websocket.Conn]chan []byte{},
	}
	upgrader := websocket.Upgrader{}
	hub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		out := make(chan []byte, 32)
		hub.mutex.Lock()
		hub.conns[conn] = out
		hub.mutex.Unlock()
		defer func() {
			hub.mutex.Lock()
			delete(hub.conns, conn)
			hub.mutex.Unlock()
			conn.Close()
		}()

		writeDone := make(chan struct{})
		go func() {
			defer close(writeDone)
			for messageBytes := range out {
				if err := conn.WriteMessage(websocket.TextMessage, messageBytes); err != nil {
					return
				}
			}
		}()

		for {
			messageType, messageBytes, err := conn.ReadMessage()
			if err != nil {
				close(out)
				<-writeDone
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			hub.mutex.Lock()
			for _, connOut := range hub.conns {
				select {
				case connOut <- messageBytes:
				default:
				}
			}
			hub.mutex.Unlock()
		}
	}))
	t.Cleanup(hub.server.Close)
	return hub
}

func (self *wsTestHub) wsUrl() string {
	return "ws" + strings.TrimPrefix(self.server.URL, "http") + "/"
}

func newTestClient(t *testing.T, apiUrl string, wsUrl string) *BoardClient {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	settings := DefaultBoardClientSettings()
	settings.TransportSettings = fastTransportSettings()
	client := NewBoardClient(ctx, apiUrl, wsUrl, settings)
	t.Cleanup(client.Close)
	return client
}

func waitOpen(t *testing.T, client *BoardClient) {
	states := make(chan TransportState, 8)
	unsub := client.Transport().AddStateCallback(func(state TransportState) {
		states <- state
	})
	defer unsub()
	if client.Transport().State() == TransportOpen {
		return
	}
	waitState(t, states, TransportOpen)
}

// end to end: an edit on one client becomes visible on another through
// the invalidation broadcast and a refetch
func TestClientCrossClientInvalidation(t *testing.T) {
	boardId := NewId()

	var mutex sync.Mutex
	columns := []*Column{
		{ColumnId: NewId(), BoardId: boardId, Title: "todo"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /boards/{boardId}/columns/", func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		defer mutex.Unlock()
		writeJson(w, columns)
	})
	mux.HandleFunc("POST /boards/{boardId}/columns/", func(w http.ResponseWriter, r *http.Request) {
		var column Column
		json.NewDecoder(r.Body).Decode(&column)
		mutex.Lock()
		columns = append(columns, &column)
		mutex.Unlock()
		writeJson(w, &column)
	})
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	hub := newWsTestHub(t)

	client1 := newTestClient(t, backend.URL+"/", hub.wsUrl())
	client2 := newTestClient(t, backend.URL+"/", hub.wsUrl())

	mutations1 := client1.OpenBoard(boardId)
	client2.OpenBoard(boardId)
	waitOpen(t, client1)
	waitOpen(t, client2)

	notify := make(chan struct{}, 32)
	sub := client2.SubscribeColumns(boardId, func() {
		notify <- struct{}{}
	})
	defer sub.Unsubscribe()
	waitForNotify(t, notify)

	seen, ok := client2.Columns(boardId)
	assert.Equal(t, ok, true)
	assert.Equal(t, len(seen), 1)

	added := &Column{ColumnId: NewId(), BoardId: boardId, Title: "done"}
	_, err := mutations1.AddColumn(added)
	assert.Equal(t, err, nil)

	// client2 refetches on the broadcast invalidation
	deadline := time.Now().Add(5 * time.Second)
	for {
		seen, _ = client2.Columns(boardId)
		if len(seen) == 2 {
			break
		}
		if deadline.Before(time.Now()) {
			t.Fatal("timeout waiting for cross client update")
		}
		waitForNotify(t, notify)
	}
	assert.Equal(t, seen[1].ColumnId, added.ColumnId)
}

// end to end: a magnet drop on a full task is rejected locally with no
// network call and no cache change
func TestClientMagnetRejectionNoNetwork(t *testing.T) {
	boardId := NewId()
	columnId := NewId()
	ticketId := NewId()

	fullTask := &Task{
		TicketId: ticketId,
		ColumnId: columnId,
		Title:    "full",
		Users: []*UserRef{
			{UserId: NewId(), Name: "a"},
			{UserId: NewId(), Name: "b"},
			{UserId: NewId(), Name: "c"},
		},
		Scopes: []*SimpleScope{},
	}

	backend := newTestBackend(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /columns/{columnId}/tickets", func(w http.ResponseWriter, r *http.Request) {
			writeJson(w, []*Task{fullTask})
		})
		mux.HandleFunc("POST /tickets/{ticketId}/users/", func(w http.ResponseWriter, r *http.Request) {
			t.Error("rejected placement issued a mutation")
		})
	})
	hub := newWsTestHub(t)

	client := newTestClient(t, backend.apiUrl(), hub.wsUrl())
	client.OpenBoard(boardId)

	notify := make(chan struct{}, 8)
	sub := client.SubscribeTaskList(columnId, func() {
		notify <- struct{}{}
	})
	defer sub.Unsubscribe()
	waitForNotify(t, notify)
	getCount := backend.requestCount.Load()

	decision, err := client.MoveUserMagnet(NewId(), PoolContainer(), TaskContainer(ticketId))
	assert.Equal(t, err, nil)
	assert.Equal(t, decision, PlacementRejected)

	// no request was made and the cache is unchanged
	assert.Equal(t, backend.requestCount.Load(), getCount)
	tasks, ok := client.TaskList(columnId)
	assert.Equal(t, ok, true)
	assert.Equal(t, len(tasks[0].Users), 3)
}

func TestClientMagnetNoopOnOwnContainer(t *testing.T) {
	boardId := NewId()
	columnId := NewId()
	ticketId := NewId()
	userId := NewId()

	task := &Task{
		TicketId: ticketId,
		ColumnId: columnId,
		Title:    "task",
		Users: []*UserRef{
			{UserId: userId, Name: "a"},
		},
		Scopes: []*SimpleScope{},
	}

	backend := newTestBackend(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /columns/{columnId}/tickets", func(w http.ResponseWriter, r *http.Request) {
			writeJson(w, []*Task{task})
		})
	})
	hub := newWsTestHub(t)

	client := newTestClient(t, backend.apiUrl(), hub.wsUrl())
	client.OpenBoard(boardId)

	notify := make(chan struct{}, 8)
	sub := client.SubscribeTaskList(columnId, func() {
		notify <- struct{}{}
	})
	defer sub.Unsubscribe()
	waitForNotify(t, notify)
	requestCount := backend.requestCount.Load()

	decision, err := client.MoveUserMagnet(userId, TaskContainer(ticketId), TaskContainer(ticketId))
	assert.Equal(t, err, nil)
	assert.Equal(t, decision, PlacementNoop)
	assert.Equal(t, backend.requestCount.Load(), requestCount)
}

func TestClientReadOnlyBoard(t *testing.T) {
	boardId := NewId()

	backend := newTestBackend(t, func(mux *http.ServeMux) {})
	hub := newWsTestHub(t)

	client := newTestClient(t, backend.apiUrl(), hub.wsUrl())
	client.EnterReadOnly(boardId)
	mutations := client.OpenBoard(boardId)

	_, err := mutations.AddScope("scope")
	assert.Equal(t, err, ErrReadOnly)
	assert.Equal(t, backend.requestCount.Load(), int64(0))
}

// end to end: two clients reorder the same task list. the last write
// to reach the backend wins and both clients converge to it after the
// broadcast driven refetch. the two orderings are never merged.
func TestClientConcurrentReorderLastWriteWins(t *testing.T) {
	boardId := NewId()
	columnId := NewId()

	a := &Task{TicketId: NewId(), ColumnId: columnId, Title: "a"}
	b := &Task{TicketId: NewId(), ColumnId: columnId, Title: "b"}
	c := &Task{TicketId: NewId(), ColumnId: columnId, Title: "c"}

	var mutex sync.Mutex
	order := []*Task{a, b, c}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /columns/{columnId}/tickets", func(w http.ResponseWriter, r *http.Request) {
		mutex.Lock()
		defer mutex.Unlock()
		writeJson(w, order)
	})
	mux.HandleFunc("PUT /columns/{columnId}/tickets", func(w http.ResponseWriter, r *http.Request) {
		var submitted []*Task
		json.NewDecoder(r.Body).Decode(&submitted)
		mutex.Lock()
		order = submitted
		mutex.Unlock()
		writeJson(w, submitted)
	})
	backend := httptest.NewServer(mux)
	t.Cleanup(backend.Close)

	hub := newWsTestHub(t)

	client1 := newTestClient(t, backend.URL+"/", hub.wsUrl())
	client2 := newTestClient(t, backend.URL+"/", hub.wsUrl())

	mutations1 := client1.OpenBoard(boardId)
	mutations2 := client2.OpenBoard(boardId)
	waitOpen(t, client1)
	waitOpen(t, client2)

	subscribe := func(client *BoardClient) chan struct{} {
		notify := make(chan struct{}, 32)
		sub := client.SubscribeTaskList(columnId, func() {
			select {
			case notify <- struct{}{}:
			default:
			}
		})
		t.Cleanup(sub.Unsubscribe)
		return notify
	}
	notify1 := subscribe(client1)
	notify2 := subscribe(client2)
	waitForNotify(t, notify1)
	waitForNotify(t, notify2)

	waitOrder := func(client *BoardClient, notify chan struct{}, want []*Task) {
		deadline := time.Now().Add(5 * time.Second)
		for {
			seen, ok := client.TaskList(columnId)
			if ok && len(seen) == len(want) {
				converged := true
				for i, task := range want {
					if seen[i].TicketId != task.TicketId {
						converged = false
						break
					}
				}
				if converged {
					return
				}
			}
			if deadline.Before(time.Now()) {
				t.Fatal("timeout waiting for task list convergence")
			}
			waitForNotify(t, notify)
		}
	}

	// client1 writes first and client2 follows it
	_, err := mutations1.UpdateTaskList(columnId, []*Task{b, a, c})
	assert.Equal(t, err, nil)
	waitOrder(client2, notify2, []*Task{b, a, c})

	// client2 writes last. its order is authoritative for everyone.
	_, err = mutations2.UpdateTaskList(columnId, []*Task{c, b, a})
	assert.Equal(t, err, nil)
	waitOrder(client1, notify1, []*Task{c, b, a})
	waitOrder(client2, notify2, []*Task{c, b, a})

	mutex.Lock()
	assert.Equal(t, len(order), 3)
	assert.Equal(t, order[0].TicketId, c.TicketId)
	mutex.Unlock()
}

func TestClientOpenBoardIdempotent(t *testing.T) {
	boardId := NewId()

	backend := newTestBackend(t, func(mux *http.ServeMux) {})
	hub := newWsTestHub(t)

	client := newTestClient(t, backend.apiUrl(), hub.wsUrl())
	mutations := client.OpenBoard(boardId)
	assert.Equal(t, client.OpenBoard(boardId) == mutations, true)
	assert.Equal(t, client.Mutations() == mutations, true)
}
