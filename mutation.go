package board

import (
	"context"
	"slices"

	"github.com/golang/glog"
)

// query endpoint names. a query is addressed by (endpoint, args key).
const (
	GetBoardQuery           = "getBoard"
	GetColumnsQuery         = "getColumnsByBoardId"
	GetTaskListQuery        = "getTaskListByColumnId"
	GetUsersQuery           = "getUsersByBoardId"
	GetSwimlaneColumnsQuery = "getSwimlaneColumnsByColumnId"
	GetActionsQuery         = "getActionsByColumnId"
	GetScopesQuery          = "getScopes"
	GetBoardTemplatesQuery  = "getBoardTemplates"
)

// MutationEngine runs board edits end to end:
// optimistic cache patch, backend write, then tag invalidation both
// locally and to the peers over the transport.
//
// Mutations are synchronous. The caller owns retry policy.
type MutationEngine struct {
	ctx context.Context

	api       *BoardApi
	cache     *CacheStore
	transport *BoardTransport
	auth      *AuthStore

	boardId Id
}

func NewMutationEngine(ctx context.Context, api *BoardApi, cache *CacheStore, transport *BoardTransport, auth *AuthStore, boardId Id) *MutationEngine {
	engine := &MutationEngine{
		ctx:       ctx,
		api:       api,
		cache:     cache,
		transport: transport,
		auth:      auth,
		boardId:   boardId,
	}
	engine.registerQueries()
	return engine
}

func (self *MutationEngine) BoardId() Id {
	return self.boardId
}

func (self *MutationEngine) registerQueries() {
	self.cache.RegisterQuery(GetBoardQuery, &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return self.api.GetBoardSync(args.(Id))
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTag(TagBoards)}
		},
	})

	self.cache.RegisterQuery(GetColumnsQuery, &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return self.api.GetColumnsByBoardIdSync(args.(Id))
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTagId(TagColumns, TagIdList)}
		},
	})

	self.cache.RegisterQuery(GetTaskListQuery, &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return self.api.GetTaskListByColumnIdSync(args.(Id))
		},
		ProvidesTags: func(args any, result any) []Tag {
			columnId := args.(Id)
			tags := []Tag{NewTagId(TagColumns, columnId.String())}
			tasks, ok := result.([]*Task)
			if !ok {
				return tags
			}
			taggedUsers := map[Id]bool{}
			for _, task := range tasks {
				tags = append(tags, NewTagId(TagTicket, task.TicketId.String()))
				tags = append(tags, NewTagId(TagUsers, task.TicketId.String()))
				for _, user := range task.Users {
					if !taggedUsers[user.UserId] {
						tags = append(tags, NewTagId(TagUsers, user.UserId.String()))
						taggedUsers[user.UserId] = true
					}
				}
			}
			return tags
		},
	})

	self.cache.RegisterQuery(GetUsersQuery, &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return self.api.GetUsersByBoardIdSync(args.(Id))
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTagId(TagUsers, TagIdAllUsers)}
		},
	})

	self.cache.RegisterQuery(GetSwimlaneColumnsQuery, &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return self.api.GetSwimlaneColumnsByColumnIdSync(args.(Id))
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTagId(TagSwimlaneColumn, TagIdList)}
		},
	})

	self.cache.RegisterQuery(GetActionsQuery, &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return self.api.GetActionsByColumnIdSync(args.(Id))
		},
		ProvidesTags: func(args any, result any) []Tag {
			columnId := args.(Id)
			tags := []Tag{NewTagId(TagAction, columnId.String())}
			actions, ok := result.([]*Action)
			if !ok {
				return tags
			}
			taggedUsers := map[Id]bool{}
			for _, action := range actions {
				tags = append(tags, NewTagId(TagAction, action.ActionId.String()))
				tags = append(tags, NewTagId(TagUsers, action.ActionId.String()))
				for _, user := range action.Users {
					if !taggedUsers[user.UserId] {
						tags = append(tags, NewTagId(TagUsers, user.UserId.String()))
						taggedUsers[user.UserId] = true
					}
				}
			}
			return tags
		},
	})

	self.cache.RegisterQuery(GetScopesQuery, &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return self.api.GetScopesSync(args.(Id))
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{
				NewTagId(TagScopes, TagIdList),
				NewTagId(TagColumns, TagIdList),
				NewTagId(TagTicket, TagIdList),
			}
		},
	})

	self.cache.RegisterQuery(GetBoardTemplatesQuery, &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return self.api.GetBoardTemplatesSync()
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTag(TagBoardTemplate)}
		},
	})
}

// checkWrite is the local gate every board-scoped mutation passes
// before any request is sent
func (self *MutationEngine) checkWrite() error {
	if self.auth != nil && self.auth.IsReadOnly(self.boardId) {
		glog.Infof("[m]rejected mutation, read only board %s\n", self.boardId)
		return ErrReadOnly
	}
	return nil
}

// invalidate the tags both for the peers and locally
func (self *MutationEngine) invalidate(tags []Tag) {
	if err := self.transport.SendInvalidation(tags); err != nil {
		glog.Infof("[m]broadcast failed = %s\n", err)
	}
	self.cache.InvalidateTags(tags)
}

// invalidate the tags for the peers only. used when the local cache
// already holds the final value from an optimistic patch.
func (self *MutationEngine) invalidateRemote(tags []Tag) {
	if err := self.transport.SendInvalidation(tags); err != nil {
		glog.Infof("[m]broadcast failed = %s\n", err)
	}
}

// board mutations

func (self *MutationEngine) UpdateBoardTitle(title string) (*Board, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.UpdateBoardTitleSync(&UpdateBoardTitleArgs{
		BoardId: self.boardId,
		Title:   title,
	})
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTag(TagBoards)})
	return result, nil
}

func (self *MutationEngine) UpdateBoardPassword(oldPassword string, newPassword string, confirmPassword string) (*Board, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.UpdateBoardPasswordSync(&UpdateBoardPasswordArgs{
		BoardId:         self.boardId,
		OldPassword:     oldPassword,
		NewPassword:     newPassword,
		ConfirmPassword: confirmPassword,
	})
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTag(TagBoards)})
	return result, nil
}

func (self *MutationEngine) UpdateBoardColor(backgroundColor string) (*Board, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.UpdateBoardColorSync(&UpdateBoardColorArgs{
		BoardId:         self.boardId,
		BackgroundColor: backgroundColor,
	})
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTag(TagBoards)})
	return result, nil
}

func (self *MutationEngine) UpdateBoardNotes(notes string) (*Board, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.UpdateBoardNotesSync(&UpdateBoardNotesArgs{
		BoardId: self.boardId,
		Notes:   notes,
	})
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTag(TagBoards)})
	return result, nil
}

func (self *MutationEngine) UpdateTaskTemplate(template *TaskTemplate) (*Board, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.UpdateTaskTemplateSync(&UpdateTaskTemplateArgs{
		BoardId:  self.boardId,
		Template: template,
	})
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTag(TagBoards)})
	return result, nil
}

// column mutations

func (self *MutationEngine) AddColumn(column *Column) (*Column, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := []Tag{NewTagId(TagColumns, TagIdList)}
	self.cache.PatchByTags(GetColumnsQuery, tags, func(result any) any {
		columns := result.([]*Column)
		next := slices.Clone(columns)
		return append(next, column)
	}, nil)

	result, err := self.api.AddColumnSync(&AddColumnArgs{
		BoardId: self.boardId,
		Column:  column,
	})
	self.invalidate(tags)
	return result, err
}

func (self *MutationEngine) UpdateColumn(column *Column, ticketIds []Id) (*Column, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.UpdateColumnSync(&UpdateColumnArgs{
		Column:    column,
		TicketIds: ticketIds,
	})
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTag(TagColumns)})
	return result, nil
}

func (self *MutationEngine) UpdateColumnOrder(columns []*Column) ([]*Column, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := []Tag{NewTagId(TagColumns, TagIdList)}
	self.cache.PatchByTags(GetColumnsQuery, tags, func(result any) any {
		return slices.Clone(columns)
	}, nil)

	result, err := self.api.UpdateColumnOrderSync(&UpdateColumnOrderArgs{
		BoardId: self.boardId,
		Columns: columns,
	})
	self.invalidate(tags)
	return result, err
}

func (self *MutationEngine) DeleteColumn(columnId Id) (*Column, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.DeleteColumnSync(columnId)
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTagId(TagColumns, TagIdList)})
	return result, nil
}

// task mutations

func (self *MutationEngine) AddTask(columnId Id, task *Task) (*Task, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := []Tag{
		NewTagId(TagTicket, TagIdList),
		NewTagId(TagColumns, columnId.String()),
	}
	self.cache.Patch(GetTaskListQuery, columnId.String(), func(result any) any {
		tasks := result.([]*Task)
		added := *task
		added.ColumnId = columnId
		if added.Users == nil {
			added.Users = []*UserRef{}
		}
		if added.Scopes == nil {
			added.Scopes = []*SimpleScope{}
		}
		// new tasks go to the head of the list
		return append([]*Task{&added}, tasks...)
	})

	result, err := self.api.AddTaskSync(&AddTaskArgs{
		ColumnId: columnId,
		Task:     task,
	})
	self.invalidate(tags)
	return result, err
}

func (self *MutationEngine) UpdateTask(task *Task) (*Task, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.UpdateTaskSync(task)
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{
		NewTagId(TagTicket, task.TicketId.String()),
		NewTagId(TagTicket, TagIdList),
	})
	return result, nil
}

func (self *MutationEngine) DeleteTask(task *Task) (*Task, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.DeleteTaskSync(task.TicketId)
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{
		NewTagId(TagTicket, task.TicketId.String()),
		NewTagId(TagTicket, TagIdList),
	})
	return result, nil
}

// UpdateTaskList sets the authoritative task order of a column.
// Both in-column reorders and cross-column moves land here, the task
// list carries the final placement. The optimistic patch is undone if
// the write fails, since a wrong order is worse than a late one.
func (self *MutationEngine) UpdateTaskList(columnId Id, tasks []*Task) ([]*Task, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := []Tag{
		NewTagId(TagColumns, columnId.String()),
		NewTagId(TagTicket, TagIdList),
		NewTagId(TagScopes, TagIdList),
	}

	previous, hadPrevious := self.cache.Select(GetTaskListQuery, columnId.String())
	self.cache.Patch(GetTaskListQuery, columnId.String(), func(result any) any {
		placed := make([]*Task, len(tasks))
		for i, task := range tasks {
			moved := *task
			moved.ColumnId = columnId
			placed[i] = &moved
		}
		return placed
	})

	result, err := self.api.UpdateTaskListSync(&UpdateTaskListArgs{
		ColumnId: columnId,
		Tasks:    tasks,
	})
	if err != nil {
		if hadPrevious {
			self.cache.Patch(GetTaskListQuery, columnId.String(), func(result any) any {
				return previous
			})
		}
		self.cache.InvalidateTags(tags)
		return nil, err
	}

	self.invalidateRemote(tags)
	self.cache.InvalidateTags([]Tag{NewTagId(TagScopes, TagIdList)})
	return result, nil
}

// user mutations

func (self *MutationEngine) PostUserToBoard(name string) (*User, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.PostUserToBoardSync(&PostUserToBoardArgs{
		BoardId: self.boardId,
		Name:    name,
	})
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTagId(TagUsers, TagIdAllUsers)})
	return result, nil
}

func (self *MutationEngine) DeleteUser(userId Id) (*User, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.DeleteUserSync(userId)
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTag(TagUsers)})
	return result, nil
}

func userAttachTags(containerId Id, userId Id) []Tag {
	return []Tag{
		NewTagId(TagUsers, containerId.String()),
		NewTagId(TagUsers, userId.String()),
		NewTagId(TagUsers, TagIdAllUsers),
	}
}

// PostUserToTicket attaches a user magnet to a task.
// Legality (occupancy, duplicates) is checked by the caller with
// CanAttachToTask before the mutation runs.
func (self *MutationEngine) PostUserToTicket(ticketId Id, userId Id) (*User, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := userAttachTags(ticketId, userId)

	userName := ""
	self.cache.PatchByTags(GetUsersQuery, tags, func(result any) any {
		users := result.([]*User)
		next := slices.Clone(users)
		for i, user := range next {
			if user.UserId == userId {
				attached := *user
				attached.Tickets = append(slices.Clone(user.Tickets), ticketId)
				next[i] = &attached
				userName = user.Name
				break
			}
		}
		return next
	}, nil)

	self.cache.PatchByTags(GetTaskListQuery, tags, func(result any) any {
		tasks := result.([]*Task)
		next := slices.Clone(tasks)
		for i, task := range next {
			if task.TicketId == ticketId {
				attached := *task
				attached.Users = append(slices.Clone(task.Users), &UserRef{
					UserId: userId,
					Name:   userName,
				})
				next[i] = &attached
				break
			}
		}
		return next
	}, nil)

	result, err := self.api.PostUserToTicketSync(&UserAttachArgs{
		ContainerId: ticketId,
		UserId:      userId,
	})
	self.invalidate(tags)
	return result, err
}

func (self *MutationEngine) DeleteUserFromTicket(ticketId Id, userId Id) (*User, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := userAttachTags(ticketId, userId)

	self.cache.PatchByTags(GetUsersQuery, tags, func(result any) any {
		users := result.([]*User)
		next := slices.Clone(users)
		for i, user := range next {
			if user.UserId == userId {
				detached := *user
				detached.Tickets = slices.DeleteFunc(slices.Clone(user.Tickets), func(id Id) bool {
					return id == ticketId
				})
				next[i] = &detached
				break
			}
		}
		return next
	}, nil)

	self.cache.PatchByTags(GetTaskListQuery, tags, func(result any) any {
		tasks := result.([]*Task)
		next := slices.Clone(tasks)
		for i, task := range next {
			if task.TicketId == ticketId {
				detached := *task
				detached.Users = slices.DeleteFunc(slices.Clone(task.Users), func(user *UserRef) bool {
					return user.UserId == userId
				})
				next[i] = &detached
				break
			}
		}
		return next
	}, nil)

	result, err := self.api.DeleteUserFromTicketSync(&UserAttachArgs{
		ContainerId: ticketId,
		UserId:      userId,
	})
	self.invalidate(tags)
	return result, err
}

func (self *MutationEngine) PostUserToAction(actionId Id, userId Id) (*User, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := userAttachTags(actionId, userId)

	userName := ""
	self.cache.PatchByTags(GetUsersQuery, tags, func(result any) any {
		users := result.([]*User)
		next := slices.Clone(users)
		for i, user := range next {
			if user.UserId == userId {
				attached := *user
				attached.Actions = append(slices.Clone(user.Actions), actionId)
				next[i] = &attached
				userName = user.Name
				break
			}
		}
		return next
	}, nil)

	self.cache.PatchByTags(GetActionsQuery, tags, func(result any) any {
		actions := result.([]*Action)
		next := slices.Clone(actions)
		for i, action := range next {
			if action.ActionId == actionId {
				attached := *action
				attached.Users = append(slices.Clone(action.Users), &UserRef{
					UserId: userId,
					Name:   userName,
				})
				next[i] = &attached
				break
			}
		}
		return next
	}, nil)

	result, err := self.api.PostUserToActionSync(&UserAttachArgs{
		ContainerId: actionId,
		UserId:      userId,
	})
	self.invalidate(tags)
	return result, err
}

func (self *MutationEngine) DeleteUserFromAction(actionId Id, userId Id) (*User, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := userAttachTags(actionId, userId)

	self.cache.PatchByTags(GetUsersQuery, tags, func(result any) any {
		users := result.([]*User)
		next := slices.Clone(users)
		for i, user := range next {
			if user.UserId == userId {
				detached := *user
				detached.Actions = slices.DeleteFunc(slices.Clone(user.Actions), func(id Id) bool {
					return id == actionId
				})
				next[i] = &detached
				break
			}
		}
		return next
	}, nil)

	self.cache.PatchByTags(GetActionsQuery, tags, func(result any) any {
		actions := result.([]*Action)
		next := slices.Clone(actions)
		for i, action := range next {
			if action.ActionId == actionId {
				detached := *action
				detached.Users = slices.DeleteFunc(slices.Clone(action.Users), func(user *UserRef) bool {
					return user.UserId == userId
				})
				next[i] = &detached
				break
			}
		}
		return next
	}, nil)

	result, err := self.api.DeleteUserFromActionSync(&UserAttachArgs{
		ContainerId: actionId,
		UserId:      userId,
	})
	self.invalidate(tags)
	return result, err
}

// swimlane mutations

func (self *MutationEngine) UpdateSwimlaneColumn(swimlaneColumn *SwimlaneColumn) (*SwimlaneColumn, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.UpdateSwimlaneColumnSync(swimlaneColumn)
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTagId(TagSwimlaneColumn, TagIdList)})
	return result, nil
}

func (self *MutationEngine) PostAction(action *Action) (*Action, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := []Tag{NewTagId(TagAction, action.ColumnId.String())}
	self.cache.Patch(GetActionsQuery, action.ColumnId.String(), func(result any) any {
		actions := result.([]*Action)
		added := *action
		if added.Users == nil {
			added.Users = []*UserRef{}
		}
		return append(slices.Clone(actions), &added)
	})

	result, err := self.api.PostActionSync(action)
	self.invalidate(tags)
	return result, err
}

func (self *MutationEngine) UpdateAction(action *Action) (*Action, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.UpdateActionSync(action)
	if err != nil {
		return nil, err
	}
	columnId := action.ColumnId
	if result != nil {
		columnId = result.ColumnId
	}
	self.invalidate([]Tag{NewTagId(TagAction, columnId.String())})
	return result, nil
}

func (self *MutationEngine) DeleteAction(actionId Id) (*Action, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.DeleteActionSync(actionId)
	if err != nil {
		return nil, err
	}
	if result != nil {
		self.invalidate([]Tag{NewTagId(TagAction, result.ColumnId.String())})
	}
	return result, nil
}

// UpdateActionList sets the authoritative action order of one action
// container, addressed by (swimlane column, task). Actions moved in from
// other containers are reparented to the target swimlane column. Undone
// on failure like UpdateTaskList.
func (self *MutationEngine) UpdateActionList(columnId Id, ticketId Id, swimlaneColumnId Id, actions []*Action) ([]*Action, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := []Tag{NewTagId(TagAction, columnId.String())}

	previous, hadPrevious := self.cache.Select(GetActionsQuery, columnId.String())
	self.cache.Patch(GetActionsQuery, columnId.String(), func(result any) any {
		oldActions := result.([]*Action)

		next := []*Action{}
		for _, oldAction := range oldActions {
			moved := slices.ContainsFunc(actions, func(action *Action) bool {
				return action.ActionId == oldAction.ActionId
			})
			if !moved {
				next = append(next, oldAction)
			}
		}
		for _, action := range actions {
			placed := *action
			placed.SwimlaneColumnId = swimlaneColumnId
			next = append(next, &placed)
		}
		return next
	})

	result, err := self.api.UpdateActionListSync(&UpdateActionListArgs{
		SwimlaneColumnId: swimlaneColumnId,
		TicketId:         ticketId,
		Actions:          actions,
	})
	if err != nil {
		if hadPrevious {
			self.cache.Patch(GetActionsQuery, columnId.String(), func(result any) any {
				return previous
			})
		}
		self.cache.InvalidateTags(tags)
		return nil, err
	}

	self.invalidateRemote(tags)
	return result, nil
}

// scope mutations

func (self *MutationEngine) AddScope(title string) (*Scope, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.AddScopeSync(&AddScopeArgs{
		BoardId: self.boardId,
		Title:   title,
	})
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTag(TagScopes)})
	return result, nil
}

func (self *MutationEngine) DeleteScope(scopeId Id) (*Scope, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := []Tag{NewTagId(TagScopes, TagIdList)}
	self.cache.PatchByTags(GetScopesQuery, tags, func(result any) any {
		scopes := result.([]*Scope)
		return slices.DeleteFunc(slices.Clone(scopes), func(scope *Scope) bool {
			return scope.ScopeId == scopeId
		})
	}, nil)

	result, err := self.api.DeleteScopeSync(&DeleteScopeArgs{
		BoardId: self.boardId,
		ScopeId: scopeId,
	})
	self.invalidate(tags)
	return result, err
}

func (self *MutationEngine) SetDoneColumns(scopeId Id, columns []*Column) (*Scope, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := []Tag{NewTagId(TagScopes, TagIdList)}
	self.cache.PatchByTags(GetScopesQuery, tags, func(result any) any {
		scopes := result.([]*Scope)
		next := slices.Clone(scopes)
		for i, scope := range next {
			if scope.ScopeId == scopeId {
				updated := *scope
				updated.DoneColumns = columns
				next[i] = &updated
				break
			}
		}
		return next
	}, nil)

	columnIds := make([]Id, len(columns))
	for i, column := range columns {
		columnIds[i] = column.ColumnId
	}
	result, err := self.api.SetDoneColumnsSync(&SetDoneColumnsArgs{
		ScopeId:   scopeId,
		ColumnIds: columnIds,
	})
	// the optimistic value is already final. a local refetch here only
	// causes churn, so just tell the peers.
	self.invalidateRemote(tags)
	return result, err
}

func (self *MutationEngine) SetScopeForecast(scopeId Id) (*Scope, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.SetScopeForecastSync(scopeId)
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTag(TagScopes)})
	return result, nil
}

func (self *MutationEngine) SetScopeTitle(scopeId Id, title string) (*SuccessResult, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}
	result, err := self.api.SetScopeTitleSync(&SetScopeTitleArgs{
		ScopeId: scopeId,
		Title:   title,
	})
	if err != nil {
		return nil, err
	}
	self.invalidate([]Tag{NewTag(TagTicket), NewTag(TagScopes)})
	return result, nil
}

func (self *MutationEngine) AddTaskToScope(scope *SimpleScope, ticketId Id) (*SuccessResult, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := []Tag{NewTagId(TagTicket, ticketId.String())}
	self.cache.PatchByTags(GetTaskListQuery, tags, func(result any) any {
		tasks := result.([]*Task)
		next := slices.Clone(tasks)
		for i, task := range next {
			if task.TicketId == ticketId {
				scoped := *task
				scoped.Scopes = append(slices.Clone(task.Scopes), &SimpleScope{
					ScopeId: scope.ScopeId,
					Title:   scope.Title,
				})
				next[i] = &scoped
				break
			}
		}
		return next
	}, nil)

	result, err := self.api.AddTaskToScopeSync(&ScopeTicketArgs{
		ScopeId:  scope.ScopeId,
		TicketId: ticketId,
	})
	self.invalidate(append(tags, NewTag(TagScopes)))
	return result, err
}

func (self *MutationEngine) DeleteTaskFromScope(scope *SimpleScope, ticketId Id) (*SuccessResult, error) {
	if err := self.checkWrite(); err != nil {
		return nil, err
	}

	tags := []Tag{NewTagId(TagTicket, ticketId.String())}
	self.cache.PatchByTags(GetTaskListQuery, tags, func(result any) any {
		tasks := result.([]*Task)
		next := slices.Clone(tasks)
		for i, task := range next {
			if task.TicketId == ticketId {
				scoped := *task
				scoped.Scopes = slices.DeleteFunc(slices.Clone(task.Scopes), func(taskScope *SimpleScope) bool {
					return taskScope.ScopeId == scope.ScopeId
				})
				next[i] = &scoped
				break
			}
		}
		return next
	}, nil)

	result, err := self.api.DeleteTaskFromScopeSync(&ScopeTicketArgs{
		ScopeId:  scope.ScopeId,
		TicketId: ticketId,
	})
	self.invalidate(append(tags, NewTag(TagScopes)))
	return result, err
}
