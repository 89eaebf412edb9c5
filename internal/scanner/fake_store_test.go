package scanner

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dbsmedya/keyscope/internal/store"
)

// instrument tracks in-flight estimation calls across every fake node
// of a test run, so tests can assert the admission gate's ceiling.
type instrument struct {
	inflight    int32
	maxInflight int32
	delay       time.Duration
}

func (in *instrument) begin() {
	if in == nil {
		return
	}
	cur := atomic.AddInt32(&in.inflight, 1)
	for {
		max := atomic.LoadInt32(&in.maxInflight)
		if cur <= max || atomic.CompareAndSwapInt32(&in.maxInflight, max, cur) {
			break
		}
	}
	if in.delay > 0 {
		time.Sleep(in.delay)
	}
}

func (in *instrument) end() {
	if in == nil {
		return
	}
	atomic.AddInt32(&in.inflight, -1)
}

func (in *instrument) max() int32 {
	return atomic.LoadInt32(&in.maxInflight)
}

// fakeKey is one key's canned answers.
type fakeKey struct {
	kind     store.KeyType
	mem      int64
	memErr   error
	card     int64
	elems    []string // list elements / set members / zset members
	hashFlat []string // field, value, field, value...
	stream   []store.StreamEntry
}

// fakeStore is an in-memory store.Client with deterministic cursor
// semantics: keys are served in insertion order, the cursor is the
// next index, and 0 signals completion.
type fakeStore struct {
	mu    sync.Mutex
	order []string
	keys  map[string]*fakeKey

	pingErr      error
	scanErrQueue []error // consumed one per Scan call before any data
	scanCalls    int
	onScan       func(call int)

	samplingCalls map[string]int
	instr         *instrument
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		keys:          make(map[string]*fakeKey),
		samplingCalls: make(map[string]int),
	}
}

func (f *fakeStore) addString(key string, size int64) *fakeStore {
	f.order = append(f.order, key)
	f.keys[key] = &fakeKey{kind: store.TypeString, mem: size}
	return f
}

func (f *fakeStore) addKey(key string, k *fakeKey) *fakeStore {
	f.order = append(f.order, key)
	f.keys[key] = k
	return f
}

// addPhantom lists a key in the traversal without any backing value,
// mimicking deletion between discovery and estimation.
func (f *fakeStore) addPhantom(key string) *fakeStore {
	f.order = append(f.order, key)
	return f
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) DBSize(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.order)), nil
}

func (f *fakeStore) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scanCalls++
	if f.onScan != nil {
		f.onScan(f.scanCalls)
	}

	if len(f.scanErrQueue) > 0 {
		err := f.scanErrQueue[0]
		f.scanErrQueue = f.scanErrQueue[1:]
		return nil, cursor, err
	}

	start := int(cursor)
	if start >= len(f.order) {
		return nil, 0, nil
	}
	end := start + int(count)
	if end > len(f.order) {
		end = len(f.order)
	}

	keys := append([]string(nil), f.order[start:end]...)
	next := uint64(end)
	if end == len(f.order) {
		next = 0
	}
	return keys, next, nil
}

func (f *fakeStore) lookup(key string) *fakeKey {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keys[key]
}

func (f *fakeStore) Type(ctx context.Context, key string) (store.KeyType, error) {
	f.instr.begin()
	defer f.instr.end()

	k := f.lookup(key)
	if k == nil {
		return store.TypeNone, nil
	}
	return k.kind, nil
}

func (f *fakeStore) MemoryUsage(ctx context.Context, key string, samples int) (int64, error) {
	f.instr.begin()
	defer f.instr.end()

	k := f.lookup(key)
	if k == nil {
		return 0, store.ErrKeyMissing
	}
	if k.memErr != nil {
		return 0, k.memErr
	}
	return k.mem, nil
}

func (f *fakeStore) StrLen(ctx context.Context, key string) (int64, error) {
	f.instr.begin()
	defer f.instr.end()

	k := f.lookup(key)
	if k == nil {
		return 0, nil
	}
	return k.mem, nil
}

func (f *fakeStore) Cardinality(ctx context.Context, kind store.KeyType, key string) (int64, error) {
	f.instr.begin()
	defer f.instr.end()

	k := f.lookup(key)
	if k == nil {
		return 0, nil
	}
	return k.card, nil
}

func (f *fakeStore) countSample(key string) {
	f.mu.Lock()
	f.samplingCalls[key]++
	f.mu.Unlock()
}

func (f *fakeStore) ListRange(ctx context.Context, key string, n int64) ([]string, error) {
	f.instr.begin()
	defer f.instr.end()
	f.countSample(key)

	k := f.lookup(key)
	if k == nil {
		return nil, nil
	}
	return capped(k.elems, n), nil
}

func (f *fakeStore) HashSample(ctx context.Context, key string, n int64) ([]string, error) {
	f.instr.begin()
	defer f.instr.end()
	f.countSample(key)

	k := f.lookup(key)
	if k == nil {
		return nil, nil
	}
	return capped(k.hashFlat, 2*n), nil
}

func (f *fakeStore) SetSample(ctx context.Context, key string, n int64) ([]string, error) {
	f.instr.begin()
	defer f.instr.end()
	f.countSample(key)

	k := f.lookup(key)
	if k == nil {
		return nil, nil
	}
	return capped(k.elems, n), nil
}

func (f *fakeStore) ZSetSample(ctx context.Context, key string, n int64) ([]string, error) {
	f.instr.begin()
	defer f.instr.end()
	f.countSample(key)

	k := f.lookup(key)
	if k == nil {
		return nil, nil
	}
	return capped(k.elems, n), nil
}

func (f *fakeStore) StreamRange(ctx context.Context, key string, n int64) ([]store.StreamEntry, error) {
	f.instr.begin()
	defer f.instr.end()
	f.countSample(key)

	k := f.lookup(key)
	if k == nil {
		return nil, nil
	}
	if int64(len(k.stream)) > n {
		return k.stream[:n], nil
	}
	return k.stream, nil
}

func (f *fakeStore) ClusterSlots(ctx context.Context) ([]store.SlotRange, error) {
	return nil, nil
}

func (f *fakeStore) Close() error { return nil }

func capped(elems []string, n int64) []string {
	if int64(len(elems)) > n {
		return elems[:n]
	}
	return elems
}
