package board

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func waitForNotify(t *testing.T, notify <-chan struct{}) {
	select {
	case <-notify:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for notify")
	}
}

func TestCacheSubscribeFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewCacheStore(ctx)

	var fetchCount atomic.Int64
	store.RegisterQuery("listThings", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			fetchCount.Add(1)
			return []string{"one", "two"}, nil
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTagId(TagTicket, TagIdList)}
		},
	})

	notify := make(chan struct{}, 8)
	sub, entry := store.Subscribe("listThings", nil, "k", func() {
		notify <- struct{}{}
	})
	defer sub.Unsubscribe()
	assert.Equal(t, entry.Key.Endpoint, "listThings")

	waitForNotify(t, notify)

	result, ok := store.Select("listThings", "k")
	assert.Equal(t, ok, true)
	assert.Equal(t, result, []string{"one", "two"})
	assert.Equal(t, fetchCount.Load(), int64(1))

	// a second subscriber reuses the entry without fetching again
	sub2, entry2 := store.Subscribe("listThings", nil, "k", nil)
	defer sub2.Unsubscribe()
	assert.Equal(t, entry2.RefCount, 2)
	assert.Equal(t, fetchCount.Load(), int64(1))

	typed, ok := SelectAs[[]string](store, "listThings", "k")
	assert.Equal(t, ok, true)
	assert.Equal(t, typed, []string{"one", "two"})
}

func TestCacheSelectNoSideEffects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewCacheStore(ctx)
	store.RegisterQuery("listThings", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			t.Fatal("select must not fetch")
			return nil, nil
		},
	})

	_, ok := store.Select("listThings", "k")
	assert.Equal(t, ok, false)
}

func TestCacheInvalidateTagsRefetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewCacheStore(ctx)

	var fetchCount atomic.Int64
	store.RegisterQuery("listThings", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return fmt.Sprintf("result %d", fetchCount.Add(1)), nil
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTagId(TagColumns, TagIdList)}
		},
	})

	notify := make(chan struct{}, 8)
	sub, _ := store.Subscribe("listThings", nil, "k", func() {
		notify <- struct{}{}
	})
	defer sub.Unsubscribe()
	waitForNotify(t, notify)
	assert.Equal(t, fetchCount.Load(), int64(1))

	store.InvalidateTags([]Tag{NewTagId(TagColumns, TagIdList)})
	waitForNotify(t, notify)
	assert.Equal(t, fetchCount.Load(), int64(2))

	// a tag nothing depends on is silently ignored
	store.InvalidateTags([]Tag{NewTagId(TagScopes, TagIdList)})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, fetchCount.Load(), int64(2))
}

func TestCacheTagMatching(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewCacheStore(ctx)

	ticketId := NewId()
	var fetchCount atomic.Int64
	store.RegisterQuery("listThings", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			fetchCount.Add(1)
			return "result", nil
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTagId(TagTicket, ticketId.String())}
		},
	})

	notify := make(chan struct{}, 8)
	sub, _ := store.Subscribe("listThings", nil, "k", func() {
		notify <- struct{}{}
	})
	defer sub.Unsubscribe()
	waitForNotify(t, notify)

	// a generic request matches an id-qualified provider
	matches := store.ResolveTags([]Tag{NewTag(TagTicket)})
	assert.Equal(t, len(matches), 1)

	// the exact id matches
	matches = store.ResolveTags([]Tag{NewTagId(TagTicket, ticketId.String())})
	assert.Equal(t, len(matches), 1)

	// a different id does not
	matches = store.ResolveTags([]Tag{NewTagId(TagTicket, NewId().String())})
	assert.Equal(t, len(matches), 0)

	// a different family does not
	matches = store.ResolveTags([]Tag{NewTag(TagUsers)})
	assert.Equal(t, len(matches), 0)

	// the full tag set matches everything live, for resync
	matches = store.ResolveTags(AllTags())
	assert.Equal(t, len(matches), 1)

	// a generic provider matches an id-qualified request of its family.
	// a remote edit broadcast as Users/<id> must reach the entry that
	// provides bare Users.
	store.RegisterQuery("listAllUsers", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return "users", nil
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTag(TagUsers)}
		},
	})
	usersNotify := make(chan struct{}, 8)
	usersSub, _ := store.Subscribe("listAllUsers", nil, "k", func() {
		usersNotify <- struct{}{}
	})
	defer usersSub.Unsubscribe()
	waitForNotify(t, usersNotify)

	matches = store.ResolveTags([]Tag{NewTagId(TagUsers, NewId().String())})
	assert.Equal(t, len(matches), 1)
	assert.Equal(t, matches[0].Key.Endpoint, "listAllUsers")

	// and a resync now matches both entries
	matches = store.ResolveTags(AllTags())
	assert.Equal(t, len(matches), 2)
}

func TestCacheResolveTagsSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewCacheStore(ctx)

	store.RegisterQuery("listThings", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return []string{"one"}, nil
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTag(TagTicket)}
		},
	})

	notify := make(chan struct{}, 8)
	sub, _ := store.Subscribe("listThings", nil, "k", func() {
		select {
		case notify <- struct{}{}:
		default:
		}
	})
	defer sub.Unsubscribe()
	waitForNotify(t, notify)

	// a match holds the result as of resolve time, not a live entry
	matches := store.ResolveTags([]Tag{NewTag(TagTicket)})
	assert.Equal(t, len(matches), 1)
	store.Patch("listThings", "k", func(result any) any {
		things := result.([]string)
		return append(append([]string{}, things...), "two")
	})
	assert.Equal(t, matches[0].Result, []string{"one"})

	// resolved results stay readable while refetch completions rewrite
	// the entry from another goroutine
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			store.InvalidateTags([]Tag{NewTag(TagTicket)})
		}
	}()
	for i := 0; i < 200; i++ {
		for _, match := range store.ResolveTags([]Tag{NewTag(TagTicket)}) {
			things, ok := match.Result.([]string)
			assert.Equal(t, ok, true)
			assert.Equal(t, things[0], "one")
		}
	}
	<-done
}

func TestCachePatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewCacheStore(ctx)

	store.RegisterQuery("listThings", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return []string{"one"}, nil
		},
		ProvidesTags: func(args any, result any) []Tag {
			things := result.([]string)
			tags := []Tag{}
			for _, thing := range things {
				tags = append(tags, NewTagId(TagTicket, thing))
			}
			return tags
		},
	})

	// patching an absent entry is a no-op
	patched := store.Patch("listThings", "k", func(result any) any {
		return result
	})
	assert.Equal(t, patched, false)

	notify := make(chan struct{}, 8)
	sub, _ := store.Subscribe("listThings", nil, "k", func() {
		notify <- struct{}{}
	})
	defer sub.Unsubscribe()
	waitForNotify(t, notify)

	patched = store.Patch("listThings", "k", func(result any) any {
		things := result.([]string)
		return append(append([]string{}, things...), "two")
	})
	assert.Equal(t, patched, true)
	// patch notifies subscribers
	waitForNotify(t, notify)

	result, ok := store.Select("listThings", "k")
	assert.Equal(t, ok, true)
	assert.Equal(t, result, []string{"one", "two"})

	// provided tags are recomputed from the patched result
	matches := store.ResolveTags([]Tag{NewTagId(TagTicket, "two")})
	assert.Equal(t, len(matches), 1)
}

func TestCachePatchByTags(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewCacheStore(ctx)

	store.RegisterQuery("listThings", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return args.(string), nil
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTagId(TagTicket, args.(string))}
		},
	})

	notify := make(chan struct{}, 8)
	subA, _ := store.Subscribe("listThings", "a", "a", func() {
		notify <- struct{}{}
	})
	defer subA.Unsubscribe()
	waitForNotify(t, notify)
	subB, _ := store.Subscribe("listThings", "b", "b", func() {
		notify <- struct{}{}
	})
	defer subB.Unsubscribe()
	waitForNotify(t, notify)

	patched := store.PatchByTags("listThings", []Tag{NewTagId(TagTicket, "a")}, func(result any) any {
		return "patched"
	}, nil)
	assert.Equal(t, patched, true)

	resultA, _ := store.Select("listThings", "a")
	assert.Equal(t, resultA, "patched")
	resultB, _ := store.Select("listThings", "b")
	assert.Equal(t, resultB, "b")

	// miss handler decides fallback behavior
	missed := false
	patched = store.PatchByTags("listThings", []Tag{NewTagId(TagTicket, "zzz")}, func(result any) any {
		return result
	}, func() {
		missed = true
	})
	assert.Equal(t, patched, false)
	assert.Equal(t, missed, true)
}

func TestCacheKeepsLastGoodResultOnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewCacheStore(ctx)

	var fetchCount atomic.Int64
	store.RegisterQuery("listThings", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			if fetchCount.Add(1) == 1 {
				return "good", nil
			}
			return nil, fmt.Errorf("backend down")
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTagId(TagColumns, TagIdList)}
		},
	})

	notify := make(chan struct{}, 8)
	sub, _ := store.Subscribe("listThings", nil, "k", func() {
		notify <- struct{}{}
	})
	defer sub.Unsubscribe()
	waitForNotify(t, notify)

	store.InvalidateTags([]Tag{NewTagId(TagColumns, TagIdList)})
	waitForNotify(t, notify)

	result, ok := store.Select("listThings", "k")
	assert.Equal(t, ok, true)
	assert.Equal(t, result, "good")
}

func TestCacheUnsubscribeKeepsEntry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewCacheStore(ctx)

	var fetchCount atomic.Int64
	store.RegisterQuery("listThings", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			fetchCount.Add(1)
			return "result", nil
		},
		ProvidesTags: func(args any, result any) []Tag {
			return []Tag{NewTagId(TagColumns, TagIdList)}
		},
	})

	notify := make(chan struct{}, 8)
	sub, _ := store.Subscribe("listThings", nil, "k", func() {
		notify <- struct{}{}
	})
	waitForNotify(t, notify)
	sub.Unsubscribe()
	// double unsubscribe is safe
	sub.Unsubscribe()

	// the entry stays readable after the last unsubscribe
	result, ok := store.Select("listThings", "k")
	assert.Equal(t, ok, true)
	assert.Equal(t, result, "result")

	// but an invalidation no longer refetches it
	store.InvalidateTags([]Tag{NewTagId(TagColumns, TagIdList)})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, fetchCount.Load(), int64(1))

	// the next subscribe sees the stale mark and refetches
	notify2 := make(chan struct{}, 8)
	sub2, _ := store.Subscribe("listThings", nil, "k", func() {
		notify2 <- struct{}{}
	})
	defer sub2.Unsubscribe()
	waitForNotify(t, notify2)
	assert.Equal(t, fetchCount.Load(), int64(2))
}

func TestCacheReset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewCacheStore(ctx)
	store.RegisterQuery("listThings", &QueryDef{
		Fetch: func(ctx context.Context, args any) (any, error) {
			return "result", nil
		},
	})

	notify := make(chan struct{}, 8)
	sub, _ := store.Subscribe("listThings", nil, "k", func() {
		notify <- struct{}{}
	})
	defer sub.Unsubscribe()
	waitForNotify(t, notify)

	store.Reset()
	_, ok := store.Select("listThings", "k")
	assert.Equal(t, ok, false)
}
