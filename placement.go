package board

import (
	"fmt"
	"slices"
)

// hard caps on magnet occupancy
const MaxTaskMagnets = 3
const MaxActionMagnets = 2

// pure list and membership logic for drag placements. nothing here
// touches the cache: callers read current order with Select, run the
// placement, and feed the output into a mutation's optimistic patch.

// ReorderWithinList removes the element at fromIndex and reinserts it
// at toIndex. The result is always a permutation of the input.
func ReorderWithinList[T any](list []T, fromIndex int, toIndex int) ([]T, error) {
	if fromIndex < 0 || len(list) <= fromIndex {
		return nil, fmt.Errorf("from index out of range: %d", fromIndex)
	}
	if toIndex < 0 || len(list) <= toIndex {
		return nil, fmt.Errorf("to index out of range: %d", toIndex)
	}
	next := slices.Clone(list)
	if fromIndex == toIndex {
		return next, nil
	}
	moved := next[fromIndex]
	next = slices.Delete(next, fromIndex, fromIndex+1)
	next = slices.Insert(next, toIndex, moved)
	return next, nil
}

// MoveBetweenLists removes the element at fromIndex from source and
// inserts it into dest at toIndex.
func MoveBetweenLists[T any](source []T, dest []T, fromIndex int, toIndex int) ([]T, []T, error) {
	if fromIndex < 0 || len(source) <= fromIndex {
		return nil, nil, fmt.Errorf("from index out of range: %d", fromIndex)
	}
	if toIndex < 0 || len(dest) < toIndex {
		return nil, nil, fmt.Errorf("to index out of range: %d", toIndex)
	}
	moved := source[fromIndex]
	nextSource := slices.Clone(source)
	nextSource = slices.Delete(nextSource, fromIndex, fromIndex+1)
	nextDest := slices.Clone(dest)
	nextDest = slices.Insert(nextDest, toIndex, moved)
	return nextSource, nextDest, nil
}

type ContainerKind int

const (
	// the unattached magnet pool at the top of the board
	ContainerPool ContainerKind = iota
	ContainerTask
	ContainerAction
)

func (self ContainerKind) String() string {
	switch self {
	case ContainerTask:
		return "task"
	case ContainerAction:
		return "action"
	default:
		return "pool"
	}
}

// drop targets are heterogeneous, so a target is addressed by
// (kind, entity id). the pool has no id.
type ContainerKey struct {
	Kind ContainerKind
	Id   Id
}

func PoolContainer() ContainerKey {
	return ContainerKey{Kind: ContainerPool}
}

func TaskContainer(ticketId Id) ContainerKey {
	return ContainerKey{Kind: ContainerTask, Id: ticketId}
}

func ActionContainer(actionId Id) ContainerKey {
	return ContainerKey{Kind: ContainerAction, Id: actionId}
}

func (self ContainerKey) String() string {
	if self.Kind == ContainerPool {
		return "pool"
	}
	return fmt.Sprintf("%s/%s", self.Kind, self.Id)
}

// an action list is scoped to the intersection of a task and a
// swimlane column, so its address is a triple
type ActionListKey struct {
	SwimlaneColumnId Id
	TicketId         Id
	ColumnId         Id
}

func (self ActionListKey) String() string {
	return fmt.Sprintf("%s/%s/%s", self.SwimlaneColumnId, self.TicketId, self.ColumnId)
}

// the legality decision for a magnet placement. a rejected move must
// not issue any mutation.
type PlacementDecision int

const (
	PlacementAllowed PlacementDecision = iota
	// the magnet is already on the destination. nothing to do,
	// and not an error.
	PlacementNoop
	PlacementRejected
)

func (self PlacementDecision) String() string {
	switch self {
	case PlacementNoop:
		return "noop"
	case PlacementRejected:
		return "rejected"
	default:
		return "allowed"
	}
}

// ReattachMembership decides whether moving the user magnet to the
// destination container is legal. `destUsers` is the destination's
// current membership, ignored for the pool.
//
// A task holds at most MaxTaskMagnets distinct users, an action at most
// MaxActionMagnets. A magnet dropped on a container it is already on is
// a noop. The pool always accepts.
func ReattachMembership(userId Id, dest ContainerKey, destUsers []*UserRef) PlacementDecision {
	if dest.Kind == ContainerPool {
		return PlacementAllowed
	}

	attached := slices.ContainsFunc(destUsers, func(user *UserRef) bool {
		return user.UserId == userId
	})
	if attached {
		return PlacementNoop
	}

	var limit int
	switch dest.Kind {
	case ContainerTask:
		limit = MaxTaskMagnets
	case ContainerAction:
		limit = MaxActionMagnets
	}
	if limit <= len(destUsers) {
		return PlacementRejected
	}
	return PlacementAllowed
}

// CanAttachToTask decides a magnet drop on a task
func CanAttachToTask(task *Task, userId Id) PlacementDecision {
	return ReattachMembership(userId, TaskContainer(task.TicketId), task.Users)
}

// CanAttachToAction decides a magnet drop on an action
func CanAttachToAction(action *Action, userId Id) PlacementDecision {
	return ReattachMembership(userId, ActionContainer(action.ActionId), action.Users)
}
