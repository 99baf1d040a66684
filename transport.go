package board

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/golang/glog"
)

type TransportState int

const (
	TransportDisconnected TransportState = 0
	TransportConnecting   TransportState = 1
	TransportOpen         TransportState = 2
)

func (self TransportState) String() string {
	switch self {
	case TransportConnecting:
		return "connecting"
	case TransportOpen:
		return "open"
	default:
		return "disconnected"
	}
}

// the wire message. every client that edited the board tells the
// others which tags it touched, and discards its own echoes.
type InvalidationMessage struct {
	ClientId Id    `json:"clientId"`
	Tags     []Tag `json:"tags"`
}

type InvalidateFunction func(tags []Tag)
type ResyncFunction func()
type ConnectionFailureFunction func(consecutiveFailures int)
type TransportStateFunction func(state TransportState)

type BoardTransportSettings struct {
	// fixed delay between connect attempts. there is no backoff,
	// the board backend is expected nearby and cheap to probe.
	ReconnectTimeout time.Duration
	// consecutive connect failures before listeners are told the
	// connection is down. a single failure is absorbed silently.
	FailureNotifyCount int
	HandshakeTimeout   time.Duration
	WriteTimeout       time.Duration
	PingTimeout        time.Duration
	PongTimeout        time.Duration
}

func DefaultBoardTransportSettings() *BoardTransportSettings {
	return &BoardTransportSettings{
		ReconnectTimeout:   5 * time.Second,
		FailureNotifyCount: 2,
		HandshakeTimeout:   10 * time.Second,
		WriteTimeout:       5 * time.Second,
		PingTimeout:        15 * time.Second,
		PongTimeout:        30 * time.Second,
	}
}

// BoardTransport maintains one websocket per joined board and
// broadcasts tag invalidations between clients.
//
// The connection is supervised: a dropped socket reconnects on a fixed
// interval, and the first open after a drop triggers a full resync so
// that invalidations missed while offline are not lost.
type BoardTransport struct {
	ctx    context.Context
	cancel context.CancelFunc

	wsUrl    string
	clientId Id

	settings *BoardTransportSettings
	log      LogFunction

	mutex               sync.Mutex
	boardId             Id
	hasBoard            bool
	boardCancel         context.CancelFunc
	state               TransportState
	conn                *websocket.Conn
	consecutiveFailures int

	invalidateCallbacks        *CallbackList[InvalidateFunction]
	resyncCallbacks            *CallbackList[ResyncFunction]
	connectionFailureCallbacks *CallbackList[ConnectionFailureFunction]
	stateCallbacks             *CallbackList[TransportStateFunction]
}

func NewBoardTransportWithDefaults(ctx context.Context, wsUrl string, clientId Id) *BoardTransport {
	return NewBoardTransport(ctx, wsUrl, clientId, DefaultBoardTransportSettings())
}

func NewBoardTransport(ctx context.Context, wsUrl string, clientId Id, settings *BoardTransportSettings) *BoardTransport {
	cancelCtx, cancel := context.WithCancel(ctx)

	return &BoardTransport{
		ctx:                        cancelCtx,
		cancel:                     cancel,
		wsUrl:                      wsUrl,
		clientId:                   clientId,
		settings:                   settings,
		log:                        LogFn("t"),
		state:                      TransportDisconnected,
		invalidateCallbacks:        NewCallbackList[InvalidateFunction](),
		resyncCallbacks:            NewCallbackList[ResyncFunction](),
		connectionFailureCallbacks: NewCallbackList[ConnectionFailureFunction](),
		stateCallbacks:             NewCallbackList[TransportStateFunction](),
	}
}

func (self *BoardTransport) ClientId() Id {
	return self.clientId
}

func (self *BoardTransport) AddInvalidateCallback(invalidateCallback InvalidateFunction) func() {
	callbackId := self.invalidateCallbacks.Add(invalidateCallback)
	return func() {
		self.invalidateCallbacks.Remove(callbackId)
	}
}

// called on the first open after a dropped connection.
// listeners refetch everything since invalidations may have been missed.
func (self *BoardTransport) AddResyncCallback(resyncCallback ResyncFunction) func() {
	callbackId := self.resyncCallbacks.Add(resyncCallback)
	return func() {
		self.resyncCallbacks.Remove(callbackId)
	}
}

func (self *BoardTransport) AddConnectionFailureCallback(connectionFailureCallback ConnectionFailureFunction) func() {
	callbackId := self.connectionFailureCallbacks.Add(connectionFailureCallback)
	return func() {
		self.connectionFailureCallbacks.Remove(callbackId)
	}
}

func (self *BoardTransport) AddStateCallback(stateCallback TransportStateFunction) func() {
	callbackId := self.stateCallbacks.Add(stateCallback)
	return func() {
		self.stateCallbacks.Remove(callbackId)
	}
}

func (self *BoardTransport) State() TransportState {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return self.state
}

// ConnectToBoard attaches the transport to one board.
// Joining the already joined board is a no-op. Joining a different
// board tears down the previous connection first.
func (self *BoardTransport) ConnectToBoard(boardId Id) {
	var boardCtx context.Context

	connect := func() bool {
		self.mutex.Lock()
		defer self.mutex.Unlock()

		if self.hasBoard && self.boardId == boardId {
			return false
		}
		if self.boardCancel != nil {
			self.boardCancel()
		}
		self.boardId = boardId
		self.hasBoard = true
		self.consecutiveFailures = 0

		var boardCancel context.CancelFunc
		boardCtx, boardCancel = context.WithCancel(self.ctx)
		self.boardCancel = boardCancel
		return true
	}()
	if !connect {
		self.log("already joined %s", boardId)
		return
	}

	go self.run(boardCtx, boardId)
}

func (self *BoardTransport) Disconnect() {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	if self.boardCancel != nil {
		self.boardCancel()
		self.boardCancel = nil
	}
	self.hasBoard = false
}

func (self *BoardTransport) Close() {
	self.cancel()
}

func (self *BoardTransport) run(ctx context.Context, boardId Id) {
	defer self.setState(TransportDisconnected)

	log := SubLogFn(self.log, boardId.String())

	// the first open connects fresh and does not resync
	resyncNeeded := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		self.setState(TransportConnecting)

		dialer := &websocket.Dialer{
			HandshakeTimeout: self.settings.HandshakeTimeout,
		}
		conn, _, err := dialer.DialContext(ctx, self.boardUrl(boardId), nil)
		if err != nil {
			self.connectFailed(boardId, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(self.settings.ReconnectTimeout):
			}
			continue
		}

		self.setOpen(conn)
		log("open")

		if resyncNeeded {
			for _, resyncCallback := range self.resyncCallbacks.Get() {
				HandleError(func() {
					resyncCallback()
				})
			}
		}
		resyncNeeded = true

		self.readLoop(ctx, conn, log)

		self.setClosed(conn)
		conn.Close()
		glog.Infof("[t]connection to %s dropped\n", boardId)

		select {
		case <-ctx.Done():
			return
		case <-time.After(self.settings.ReconnectTimeout):
		}
	}
}

func (self *BoardTransport) boardUrl(boardId Id) string {
	return self.wsUrl + boardId.String()
}

func (self *BoardTransport) readLoop(ctx context.Context, conn *websocket.Conn, log LogFunction) {
	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()

	conn.SetReadDeadline(time.Now().Add(self.settings.PongTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(self.settings.PongTimeout))
		return nil
	})

	go func() {
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-time.After(self.settings.PingTimeout):
			}
			conn.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var message InvalidationMessage
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			log("drop malformed message: %s", err)
			continue
		}

		if message.ClientId == self.clientId {
			// our own broadcast echoed back
			log("discard self message")
			continue
		}

		log("invalidate from %s: %v", message.ClientId, message.Tags)
		for _, invalidateCallback := range self.invalidateCallbacks.Get() {
			HandleError(func() {
				invalidateCallback(message.Tags)
			})
		}
	}
}

// SendInvalidation broadcasts the tags touched by a local mutation.
// A closed connection drops the message. The peers recover via full
// resync on their next reconnect, so lost broadcasts are not fatal.
func (self *BoardTransport) SendInvalidation(tags []Tag) error {
	conn, state := func() (*websocket.Conn, TransportState) {
		self.mutex.Lock()
		defer self.mutex.Unlock()
		return self.conn, self.state
	}()

	if state != TransportOpen || conn == nil {
		self.log("drop invalidation, not open")
		return nil
	}

	message := &InvalidationMessage{
		ClientId: self.clientId,
		Tags:     tags,
	}
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, messageBytes)
}

func (self *BoardTransport) connectFailed(boardId Id, err error) {
	consecutiveFailures := func() int {
		self.mutex.Lock()
		defer self.mutex.Unlock()
		self.state = TransportDisconnected
		self.consecutiveFailures += 1
		return self.consecutiveFailures
	}()

	glog.Infof("[t]connect %s failed (%d): %s\n", boardId, consecutiveFailures, err)
	self.notifyState(TransportDisconnected)

	if consecutiveFailures == self.settings.FailureNotifyCount {
		for _, connectionFailureCallback := range self.connectionFailureCallbacks.Get() {
			HandleError(func() {
				connectionFailureCallback(consecutiveFailures)
			})
		}
	}
}

func (self *BoardTransport) setOpen(conn *websocket.Conn) {
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()
		self.conn = conn
		self.state = TransportOpen
		self.consecutiveFailures = 0
	}()
	self.notifyState(TransportOpen)
}

func (self *BoardTransport) setClosed(conn *websocket.Conn) {
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()
		if self.conn == conn {
			self.conn = nil
		}
		self.state = TransportDisconnected
	}()
	self.notifyState(TransportDisconnected)
}

func (self *BoardTransport) setState(state TransportState) {
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()
		self.state = state
	}()
	self.notifyState(state)
}

func (self *BoardTransport) notifyState(state TransportState) {
	for _, stateCallback := range self.stateCallbacks.Get() {
		HandleError(func() {
			stateCallback(state)
		})
	}
}
