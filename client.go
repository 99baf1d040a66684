package board

import (
	"context"
	"slices"
	"sync"
)

type Notification struct {
	Text string
}

type NotificationFunction func(notification *Notification)

type BoardClientSettings struct {
	TransportSettings *BoardTransportSettings
}

func DefaultBoardClientSettings() *BoardClientSettings {
	return &BoardClientSettings{
		TransportSettings: DefaultBoardTransportSettings(),
	}
}

// BoardClient is the top level object, one per process.
// It owns the cache, the rest api, the invalidation transport and the
// per-board credential store, and hands out a MutationEngine per
// opened board.
type BoardClient struct {
	ctx    context.Context
	cancel context.CancelFunc

	clientId Id

	auth      *AuthStore
	cache     *CacheStore
	api       *BoardApi
	transport *BoardTransport

	notifyLog LogFunction
	magnetLog LogFunction

	notificationCallbacks *CallbackList[NotificationFunction]

	mutex     sync.Mutex
	mutations *MutationEngine
	unsubs    []func()
}

func NewBoardClientWithDefaults(ctx context.Context, apiUrl string, wsUrl string) *BoardClient {
	return NewBoardClient(ctx, apiUrl, wsUrl, DefaultBoardClientSettings())
}

func NewBoardClient(ctx context.Context, apiUrl string, wsUrl string, settings *BoardClientSettings) *BoardClient {
	cancelCtx, cancel := context.WithCancel(ctx)

	clientId := NewId()
	auth := NewAuthStore()

	client := &BoardClient{
		ctx:                   cancelCtx,
		cancel:                cancel,
		clientId:              clientId,
		auth:                  auth,
		cache:                 NewCacheStore(cancelCtx),
		api:                   NewBoardApiWithContext(cancelCtx, apiUrl, auth),
		transport:             NewBoardTransport(cancelCtx, wsUrl, clientId, settings.TransportSettings),
		notifyLog:             LogFn("n"),
		magnetLog:             LogFn("p"),
		notificationCallbacks: NewCallbackList[NotificationFunction](),
	}

	client.unsubs = append(client.unsubs, client.transport.AddInvalidateCallback(func(tags []Tag) {
		client.cache.InvalidateTags(tags)
	}))
	client.unsubs = append(client.unsubs, client.transport.AddResyncCallback(func() {
		// anything could have changed while offline
		client.cache.InvalidateAll()
	}))
	client.unsubs = append(client.unsubs, client.transport.AddConnectionFailureCallback(func(consecutiveFailures int) {
		client.Notify("Connection error, live updates from other clients may not work")
	}))

	return client
}

func (self *BoardClient) ClientId() Id {
	return self.clientId
}

func (self *BoardClient) Auth() *AuthStore {
	return self.auth
}

func (self *BoardClient) Cache() *CacheStore {
	return self.cache
}

func (self *BoardClient) Api() *BoardApi {
	return self.api
}

func (self *BoardClient) Transport() *BoardTransport {
	return self.transport
}

func (self *BoardClient) AddNotificationCallback(notificationCallback NotificationFunction) func() {
	callbackId := self.notificationCallbacks.Add(notificationCallback)
	return func() {
		self.notificationCallbacks.Remove(callbackId)
	}
}

func (self *BoardClient) Notify(text string) {
	self.notifyLog("%s", text)
	notification := &Notification{
		Text: text,
	}
	for _, notificationCallback := range self.notificationCallbacks.Get() {
		HandleError(func() {
			notificationCallback(notification)
		})
	}
}

// OpenBoard joins the board: requests get the board's credential,
// the invalidation channel connects, and the returned engine runs
// mutations against it. Opening the same board again returns the
// current engine.
func (self *BoardClient) OpenBoard(boardId Id) *MutationEngine {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if self.mutations != nil && self.mutations.BoardId() == boardId {
		return self.mutations
	}
	if self.mutations != nil {
		// switching boards drops every cached query of the old board
		self.cache.Reset()
	}

	self.api.SetBoard(boardId)
	self.mutations = NewMutationEngine(self.ctx, self.api, self.cache, self.transport, self.auth, boardId)
	self.transport.ConnectToBoard(boardId)
	return self.mutations
}

// the engine for the currently open board, or nil
func (self *BoardClient) Mutations() *MutationEngine {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	return self.mutations
}

func (self *BoardClient) Login(boardId Id, password string) (bool, error) {
	result, err := self.api.LoginSync(&LoginArgs{
		BoardId:  boardId,
		Password: password,
	})
	if err != nil {
		return false, err
	}
	return result.Success, nil
}

// join without a password. mutations fail locally with ErrReadOnly.
func (self *BoardClient) EnterReadOnly(boardId Id) {
	self.auth.SetReadOnly(boardId)
}

func (self *BoardClient) Close() {
	self.mutex.Lock()
	for _, unsub := range self.unsubs {
		unsub()
	}
	self.unsubs = nil
	self.mutex.Unlock()

	self.transport.Close()
	self.api.Close()
	self.cancel()
}

// typed subscriptions. each keeps the query entry live and refetching
// on invalidation until Unsubscribe.

func (self *BoardClient) SubscribeBoard(boardId Id, notify func()) *Subscription {
	sub, _ := self.cache.Subscribe(GetBoardQuery, boardId, boardId.String(), notify)
	return sub
}

func (self *BoardClient) SubscribeColumns(boardId Id, notify func()) *Subscription {
	sub, _ := self.cache.Subscribe(GetColumnsQuery, boardId, boardId.String(), notify)
	return sub
}

func (self *BoardClient) SubscribeTaskList(columnId Id, notify func()) *Subscription {
	sub, _ := self.cache.Subscribe(GetTaskListQuery, columnId, columnId.String(), notify)
	return sub
}

func (self *BoardClient) SubscribeUsers(boardId Id, notify func()) *Subscription {
	sub, _ := self.cache.Subscribe(GetUsersQuery, boardId, boardId.String(), notify)
	return sub
}

func (self *BoardClient) SubscribeSwimlaneColumns(columnId Id, notify func()) *Subscription {
	sub, _ := self.cache.Subscribe(GetSwimlaneColumnsQuery, columnId, columnId.String(), notify)
	return sub
}

func (self *BoardClient) SubscribeActions(columnId Id, notify func()) *Subscription {
	sub, _ := self.cache.Subscribe(GetActionsQuery, columnId, columnId.String(), notify)
	return sub
}

func (self *BoardClient) SubscribeScopes(boardId Id, notify func()) *Subscription {
	sub, _ := self.cache.Subscribe(GetScopesQuery, boardId, boardId.String(), notify)
	return sub
}

// typed synchronous reads of the current cache state

func (self *BoardClient) Board(boardId Id) (*Board, bool) {
	return SelectAs[*Board](self.cache, GetBoardQuery, boardId.String())
}

func (self *BoardClient) Columns(boardId Id) ([]*Column, bool) {
	return SelectAs[[]*Column](self.cache, GetColumnsQuery, boardId.String())
}

func (self *BoardClient) TaskList(columnId Id) ([]*Task, bool) {
	return SelectAs[[]*Task](self.cache, GetTaskListQuery, columnId.String())
}

func (self *BoardClient) Users(boardId Id) ([]*User, bool) {
	return SelectAs[[]*User](self.cache, GetUsersQuery, boardId.String())
}

func (self *BoardClient) SwimlaneColumns(columnId Id) ([]*SwimlaneColumn, bool) {
	return SelectAs[[]*SwimlaneColumn](self.cache, GetSwimlaneColumnsQuery, columnId.String())
}

func (self *BoardClient) Actions(columnId Id) ([]*Action, bool) {
	return SelectAs[[]*Action](self.cache, GetActionsQuery, columnId.String())
}

func (self *BoardClient) Scopes(boardId Id) ([]*Scope, bool) {
	return SelectAs[[]*Scope](self.cache, GetScopesQuery, boardId.String())
}

// drag operations. placement legality first, then the mutations.

// MoveTask moves a task between columns (or within one), submitting the
// final order of the affected column lists.
func (self *BoardClient) MoveTask(sourceColumnId Id, destColumnId Id, fromIndex int, toIndex int) error {
	mutations := self.Mutations()
	if mutations == nil {
		return ErrReadOnly
	}

	sourceList, ok := self.TaskList(sourceColumnId)
	if !ok {
		sourceList = []*Task{}
	}

	if sourceColumnId == destColumnId {
		nextList, err := ReorderWithinList(sourceList, fromIndex, toIndex)
		if err != nil {
			return err
		}
		_, err = mutations.UpdateTaskList(sourceColumnId, nextList)
		return err
	}

	destList, ok := self.TaskList(destColumnId)
	if !ok {
		destList = []*Task{}
	}
	nextSource, nextDest, err := MoveBetweenLists(sourceList, destList, fromIndex, toIndex)
	if err != nil {
		return err
	}
	if _, err := mutations.UpdateTaskList(destColumnId, nextDest); err != nil {
		return err
	}
	_, err = mutations.UpdateTaskList(sourceColumnId, nextSource)
	return err
}

// MoveUserMagnet reattaches a user magnet from one container to
// another. A rejected or noop decision issues no mutation.
func (self *BoardClient) MoveUserMagnet(userId Id, source ContainerKey, dest ContainerKey) (PlacementDecision, error) {
	mutations := self.Mutations()
	if mutations == nil {
		return PlacementRejected, ErrReadOnly
	}

	decision := PlacementAllowed
	switch dest.Kind {
	case ContainerTask:
		if task := self.findTask(dest.Id); task != nil {
			decision = CanAttachToTask(task, userId)
		}
	case ContainerAction:
		if action := self.findAction(dest.Id); action != nil {
			decision = CanAttachToAction(action, userId)
		}
	}
	if decision != PlacementAllowed {
		self.magnetLog("magnet %s -> %s %s", userId, dest, decision)
		return decision, nil
	}

	switch source.Kind {
	case ContainerTask:
		if _, err := mutations.DeleteUserFromTicket(source.Id, userId); err != nil {
			return PlacementAllowed, err
		}
	case ContainerAction:
		if _, err := mutations.DeleteUserFromAction(source.Id, userId); err != nil {
			return PlacementAllowed, err
		}
	}

	switch dest.Kind {
	case ContainerTask:
		if _, err := mutations.PostUserToTicket(dest.Id, userId); err != nil {
			return PlacementAllowed, err
		}
	case ContainerAction:
		if _, err := mutations.PostUserToAction(dest.Id, userId); err != nil {
			return PlacementAllowed, err
		}
	}

	return PlacementAllowed, nil
}

// MoveAction moves an action between action containers of one column,
// submitting the final order of the destination container.
func (self *BoardClient) MoveAction(columnId Id, source ActionListKey, dest ActionListKey, fromIndex int, toIndex int) error {
	mutations := self.Mutations()
	if mutations == nil {
		return ErrReadOnly
	}

	actions, ok := self.Actions(columnId)
	if !ok {
		actions = []*Action{}
	}

	containerActions := func(key ActionListKey) []*Action {
		filtered := []*Action{}
		for _, action := range actions {
			if action.SwimlaneColumnId == key.SwimlaneColumnId && action.TicketId == key.TicketId {
				filtered = append(filtered, action)
			}
		}
		return filtered
	}

	if source == dest {
		nextList, err := ReorderWithinList(containerActions(source), fromIndex, toIndex)
		if err != nil {
			return err
		}
		_, err = mutations.UpdateActionList(columnId, source.TicketId, source.SwimlaneColumnId, nextList)
		return err
	}

	sourceList := containerActions(source)
	destList := containerActions(dest)
	nextSource, nextDest, err := MoveBetweenLists(sourceList, destList, fromIndex, toIndex)
	if err != nil {
		return err
	}
	if _, err := mutations.UpdateActionList(columnId, dest.TicketId, dest.SwimlaneColumnId, nextDest); err != nil {
		return err
	}
	_, err = mutations.UpdateActionList(columnId, source.TicketId, source.SwimlaneColumnId, nextSource)
	return err
}

func (self *BoardClient) findTask(ticketId Id) *Task {
	for _, match := range self.cache.ResolveTags([]Tag{NewTagId(TagTicket, ticketId.String())}) {
		if match.Key.Endpoint != GetTaskListQuery {
			continue
		}
		tasks, ok := match.Result.([]*Task)
		if !ok {
			continue
		}
		i := slices.IndexFunc(tasks, func(task *Task) bool {
			return task.TicketId == ticketId
		})
		if 0 <= i {
			return tasks[i]
		}
	}
	return nil
}

func (self *BoardClient) findAction(actionId Id) *Action {
	for _, match := range self.cache.ResolveTags([]Tag{NewTagId(TagAction, actionId.String())}) {
		if match.Key.Endpoint != GetActionsQuery {
			continue
		}
		actions, ok := match.Result.([]*Action)
		if !ok {
			continue
		}
		i := slices.IndexFunc(actions, func(action *Action) bool {
			return action.ActionId == actionId
		})
		if 0 <= i {
			return actions[i]
		}
	}
	return nil
}
