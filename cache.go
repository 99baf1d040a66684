package board

import (
	"context"
	"fmt"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/golang/glog"

	"golang.org/x/exp/maps"
)

// the cache holds the last result of every distinct query, keyed by
// (endpoint, args), and indexed by the tags each result provides.
// all writes go through Patch or fetch completion so that the tag
// bookkeeping stays correct. external callers never mutate a result
// in place: an updater produces a new value from the old one.

type QueryStatus int

const (
	QueryUninitialized QueryStatus = iota
	QueryPending
	QueryFulfilled
	QueryRejected
)

// comparable
type QueryKey struct {
	Endpoint string
	ArgsKey  string
}

func (self QueryKey) String() string {
	return fmt.Sprintf("%s(%s)", self.Endpoint, self.ArgsKey)
}

type QueryEntry struct {
	Key    QueryKey
	Args   any
	Result any
	Err    error
	Status QueryStatus
	// tags the current result provides
	ProvidedTags []Tag
	// active subscriber count. zero means the entry is an eviction
	// candidate, kept until the next same query replaces it.
	RefCount int

	// increments per fetch. a completion with a stale seq is dropped.
	fetchSeq uint64
	stale    bool
}

// the per-endpoint fetch and tag declaration.
// ProvidesTags is called with the args and the successful result.
type QueryDef struct {
	Fetch        func(ctx context.Context, args any) (any, error)
	ProvidesTags func(args any, result any) []Tag
}

type Subscription struct {
	store  *CacheStore
	key    QueryKey
	notify func()

	closed bool
}

// stop receiving change notifications and release the refcount
func (self *Subscription) Unsubscribe() {
	self.store.unsubscribe(self)
}

type CacheStore struct {
	ctx context.Context

	log LogFunction

	mutex       sync.Mutex
	queryDefs   map[string]*QueryDef
	entries     map[QueryKey]*QueryEntry
	subscribers map[QueryKey][]*Subscription

	// notified on every entry change
	changeMonitor *Monitor
}

func NewCacheStore(ctx context.Context) *CacheStore {
	return &CacheStore{
		ctx:           ctx,
		log:           LogFn("c"),
		queryDefs:     map[string]*QueryDef{},
		entries:       map[QueryKey]*QueryEntry{},
		subscribers:   map[QueryKey][]*Subscription{},
		changeMonitor: NewMonitor(),
	}
}

func (self *CacheStore) RegisterQuery(endpoint string, queryDef *QueryDef) {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	self.queryDefs[endpoint] = queryDef
}

func (self *CacheStore) ChangeMonitor() *Monitor {
	return self.changeMonitor
}

// returns the existing entry or creates one and starts an async fetch.
// the subscription keeps the entry live until Unsubscribe.
func (self *CacheStore) Subscribe(endpoint string, args any, argsKey string, notify func()) (*Subscription, *QueryEntry) {
	key := QueryKey{
		Endpoint: endpoint,
		ArgsKey:  argsKey,
	}

	self.mutex.Lock()
	entry, ok := self.entries[key]
	fetch := false
	if !ok {
		entry = &QueryEntry{
			Key:  key,
			Args: args,
		}
		self.entries[key] = entry
		fetch = true
	} else if entry.stale {
		fetch = true
	}
	entry.RefCount += 1
	sub := &Subscription{
		store:  self,
		key:    key,
		notify: notify,
	}
	self.subscribers[key] = append(self.subscribers[key], sub)
	self.mutex.Unlock()

	if fetch {
		self.Refetch(key)
	}
	return sub, entry
}

func (self *CacheStore) unsubscribe(sub *Subscription) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	if sub.closed {
		return
	}
	sub.closed = true

	subs := self.subscribers[sub.key]
	for i, s := range subs {
		if s == sub {
			self.subscribers[sub.key] = append(subs[0:i:i], subs[i+1:]...)
			break
		}
	}
	if entry, ok := self.entries[sub.key]; ok && 0 < entry.RefCount {
		entry.RefCount -= 1
	}
	// the entry is retained until the next same query or an explicit Reset
}

// synchronous read with no side effects. does not trigger a fetch.
func (self *CacheStore) Select(endpoint string, argsKey string) (any, bool) {
	self.mutex.Lock()
	defer self.mutex.Unlock()

	key := QueryKey{
		Endpoint: endpoint,
		ArgsKey:  argsKey,
	}
	entry, ok := self.entries[key]
	if !ok || entry.Result == nil {
		return nil, false
	}
	return entry.Result, true
}

// applies `updater` to the entry's current result, replacing it with the
// returned value. no-op if the entry is absent or has no result yet.
// the updater must return a new value, not mutate the old one.
func (self *CacheStore) Patch(endpoint string, argsKey string, updater func(result any) any) bool {
	key := QueryKey{
		Endpoint: endpoint,
		ArgsKey:  argsKey,
	}

	self.mutex.Lock()
	entry, ok := self.entries[key]
	if !ok || entry.Result == nil {
		self.mutex.Unlock()
		return false
	}
	previous := entry.Result
	entry.Result = updater(previous)
	if queryDef, ok := self.queryDefs[endpoint]; ok && queryDef.ProvidesTags != nil {
		entry.ProvidedTags = queryDef.ProvidesTags(entry.Args, entry.Result)
	}
	subs := append([]*Subscription{}, self.subscribers[key]...)
	self.mutex.Unlock()

	self.log("patch %s", key)
	self.notify(subs)
	return true
}

// patches every live entry for `endpoint` whose provided tags intersect
// `tags`. calls `onMiss` when no entry is found, if given.
func (self *CacheStore) PatchByTags(endpoint string, tags []Tag, updater func(result any) any, onMiss func()) bool {
	keys := []QueryKey{}
	for _, match := range self.ResolveTags(tags) {
		if match.Key.Endpoint == endpoint {
			keys = append(keys, match.Key)
		}
	}
	if len(keys) == 0 {
		if onMiss != nil {
			onMiss()
		}
		return false
	}
	patched := false
	for _, key := range keys {
		if self.Patch(endpoint, key.ArgsKey, updater) {
			patched = true
		}
	}
	return patched
}

// a point-in-time view of a matching entry. the result is the value at
// resolve time and is safe to read without the store mutex.
type TagMatch struct {
	Key    QueryKey
	Result any
}

// returns a snapshot of every live entry whose provided tags intersect
// `tags`. a generic provided tag matches any request of the same family.
// an id-qualified provided tag matches a generic request, or a request
// with exactly the same id.
func (self *CacheStore) ResolveTags(tags []Tag) []TagMatch {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	matches := []TagMatch{}
	for _, entry := range self.resolveTagsWithLock(tags) {
		matches = append(matches, TagMatch{
			Key:    entry.Key,
			Result: entry.Result,
		})
	}
	return matches
}

func (self *CacheStore) resolveTagsWithLock(tags []Tag) []*QueryEntry {
	genericTypes := mapset.NewThreadUnsafeSet[TagType]()
	qualified := mapset.NewThreadUnsafeSet[Tag]()
	qualifiedTypes := mapset.NewThreadUnsafeSet[TagType]()
	for _, tag := range tags {
		if tag.IsGeneric() {
			genericTypes.Add(tag.Type)
		} else {
			qualified.Add(tag)
			qualifiedTypes.Add(tag.Type)
		}
	}

	matches := []*QueryEntry{}
	for _, key := range maps.Keys(self.entries) {
		entry := self.entries[key]
		for _, provided := range entry.ProvidedTags {
			if genericTypes.Contains(provided.Type) ||
				qualified.Contains(provided) ||
				provided.IsGeneric() && qualifiedTypes.Contains(provided.Type) {
				matches = append(matches, entry)
				break
			}
		}
	}
	return matches
}

// marks every entry matching `tags` stale and refetches the ones with
// active subscribers. a tag that matches nothing is silently ignored.
func (self *CacheStore) InvalidateTags(tags []Tag) {
	self.mutex.Lock()
	refetchKeys := []QueryKey{}
	for _, entry := range self.resolveTagsWithLock(tags) {
		entry.stale = true
		if 0 < entry.RefCount {
			refetchKeys = append(refetchKeys, entry.Key)
		}
	}
	self.mutex.Unlock()

	for _, key := range refetchKeys {
		self.Refetch(key)
	}
}

// marks every entry stale unconditionally. used after a connectivity gap,
// when missed invalidations are unobservable.
func (self *CacheStore) InvalidateAll() {
	self.mutex.Lock()
	refetchKeys := []QueryKey{}
	for _, key := range maps.Keys(self.entries) {
		entry := self.entries[key]
		entry.stale = true
		if 0 < entry.RefCount {
			refetchKeys = append(refetchKeys, key)
		}
	}
	self.mutex.Unlock()

	glog.Infof("[c]invalidate all (%d queries)\n", len(refetchKeys))
	for _, key := range refetchKeys {
		self.Refetch(key)
	}
}

// drops every entry. subscriptions stay registered and see the next
// fulfillment after their entries are re-created.
func (self *CacheStore) Reset() {
	self.mutex.Lock()
	maps.Clear(self.entries)
	self.mutex.Unlock()
	self.changeMonitor.NotifyAll()
}

// starts an async fetch for the entry. a newer fetch started while one is
// in flight wins; the older completion is dropped.
func (self *CacheStore) Refetch(key QueryKey) {
	self.mutex.Lock()
	entry, ok := self.entries[key]
	if !ok {
		self.mutex.Unlock()
		return
	}
	queryDef, ok := self.queryDefs[key.Endpoint]
	if !ok || queryDef.Fetch == nil {
		self.mutex.Unlock()
		return
	}
	entry.Status = QueryPending
	entry.stale = false
	entry.fetchSeq += 1
	seq := entry.fetchSeq
	args := entry.Args
	self.mutex.Unlock()

	go HandleError(func() {
		result, err := queryDef.Fetch(self.ctx, args)
		self.complete(key, seq, result, err, queryDef)
	})
}

func (self *CacheStore) complete(key QueryKey, seq uint64, result any, err error, queryDef *QueryDef) {
	self.mutex.Lock()
	entry, ok := self.entries[key]
	if !ok || entry.fetchSeq != seq {
		// superseded or evicted
		self.mutex.Unlock()
		return
	}
	if err == nil {
		entry.Result = result
		entry.Err = nil
		entry.Status = QueryFulfilled
		if queryDef.ProvidesTags != nil {
			entry.ProvidedTags = queryDef.ProvidesTags(entry.Args, result)
		}
	} else {
		// keep the last good result
		entry.Err = err
		entry.Status = QueryRejected
	}
	subs := append([]*Subscription{}, self.subscribers[key]...)
	self.mutex.Unlock()

	if err != nil {
		glog.Infof("[c]fetch error %s = %s\n", key, err)
	} else {
		self.log("fetch %s", key)
	}
	self.notify(subs)
}

func (self *CacheStore) notify(subs []*Subscription) {
	for _, sub := range subs {
		if sub.notify != nil {
			HandleError(sub.notify)
		}
	}
	self.changeMonitor.NotifyAll()
}

// typed synchronous read. the zero value and false when absent or of a
// different type.
func SelectAs[R any](store *CacheStore, endpoint string, argsKey string) (R, bool) {
	var empty R
	result, ok := store.Select(endpoint, argsKey)
	if !ok {
		return empty, false
	}
	typed, ok := result.(R)
	if !ok {
		return empty, false
	}
	return typed, true
}
