package handle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lherrors "github.com/wippyai/layout-host/errors"
)

type testObserver struct {
	events []Event
}

func (o *testObserver) OnHandleEvent(e Event) {
	o.events = append(o.events, e)
}

type paragraph struct {
	name string
}

func TestTable_Basic(t *testing.T) {
	table := New(DefaultCapacity)
	p := &paragraph{name: "p1"}

	h, err := table.Register(p)
	require.NoError(t, err)
	require.NotZero(t, h)

	v, err := table.Resolve(h)
	require.NoError(t, err)
	assert.Same(t, p, v)
	assert.True(t, table.IsLive(h))
	assert.Equal(t, 1, table.Len())

	require.NoError(t, table.Release(h))
	assert.False(t, table.IsLive(h))
	assert.Equal(t, 0, table.Len())

	_, err = table.Resolve(h)
	assert.ErrorIs(t, err, lherrors.ErrInvalidHandle)
}

func TestTable_ResolveRoundTrip(t *testing.T) {
	table := New(4)
	live := map[Handle]*paragraph{}

	// interleave registrations and releases, never releasing twice
	for i := 0; i < 200; i++ {
		p := &paragraph{}
		h, err := table.Register(p)
		require.NoError(t, err)
		live[h] = p

		if i%3 == 2 {
			for victim := range live {
				require.NoError(t, table.Release(victim))
				delete(live, victim)
				break
			}
		}
	}

	for h, p := range live {
		v, err := table.Resolve(h)
		require.NoError(t, err)
		assert.Same(t, p, v)
	}
	assert.Equal(t, len(live), table.Len())
}

func TestTable_FirstHandleIsOne(t *testing.T) {
	table := New(DefaultCapacity)
	h, err := table.Register("a")
	require.NoError(t, err)
	assert.Equal(t, Handle(1), h)
}

func TestTable_ReuseIsLIFO(t *testing.T) {
	table := New(DefaultCapacity)

	var hs []Handle
	for i := 0; i < 5; i++ {
		h, err := table.Register(i)
		require.NoError(t, err)
		hs = append(hs, h)
	}

	require.NoError(t, table.Release(hs[1]))
	require.NoError(t, table.Release(hs[3]))

	h, err := table.Register("x")
	require.NoError(t, err)
	assert.Equal(t, hs[3].Index(), h.Index(), "most recently released slot is reused first")

	h, err = table.Register("y")
	require.NoError(t, err)
	assert.Equal(t, hs[1].Index(), h.Index())
}

func TestTable_Growth(t *testing.T) {
	table := New(4)
	require.Equal(t, 4, table.Capacity())

	objs := make([]*paragraph, 10)
	hs := make([]Handle, 10)
	for i := range objs {
		objs[i] = &paragraph{}
		h, err := table.Register(objs[i])
		require.NoError(t, err)
		hs[i] = h
	}

	// 3 usable slots at 4, 7 at 8, 15 at 16
	assert.Equal(t, 16, table.Capacity())
	for i, h := range hs {
		v, err := table.Resolve(h)
		require.NoError(t, err)
		assert.Same(t, objs[i], v)
	}
}

func TestTable_GrowthDoublesExactlyWhenFull(t *testing.T) {
	table := New(4)
	for i := 0; i < 3; i++ {
		_, err := table.Register(i)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, table.Capacity())

	_, err := table.Register(3)
	require.NoError(t, err)
	assert.Equal(t, 8, table.Capacity())
}

// Registering P1..P20 at capacity 16, releasing P5 and P10, then registering
// two more must hand back exactly the freed slots without growing.
func TestTable_FreeListReusePrecedesGrowth(t *testing.T) {
	table := New(16)

	hs := make([]Handle, 21)
	for i := 1; i <= 20; i++ {
		h, err := table.Register(&paragraph{})
		require.NoError(t, err)
		hs[i] = h
	}
	capBefore := table.Capacity()
	require.Equal(t, 32, capBefore)

	require.NoError(t, table.Release(hs[5]))
	require.NoError(t, table.Release(hs[10]))

	a, err := table.Register(&paragraph{})
	require.NoError(t, err)
	b, err := table.Register(&paragraph{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []uint32{hs[5].Index(), hs[10].Index()}, []uint32{a.Index(), b.Index()})
	assert.Equal(t, capBefore, table.Capacity())
}

func TestTable_InvalidHandles(t *testing.T) {
	table := New(DefaultCapacity)
	h, err := table.Register("a")
	require.NoError(t, err)

	outOfRange := Handle(table.Capacity())
	indexZeroWithGen := makeHandle(0, 3)

	for _, bad := range []Handle{0, outOfRange, Handle(indexMask), indexZeroWithGen} {
		_, err := table.Resolve(bad)
		assert.ErrorIs(t, err, lherrors.ErrInvalidHandle, "resolve %v", bad)
		assert.ErrorIs(t, table.Release(bad), lherrors.ErrInvalidHandle, "release %v", bad)
		assert.False(t, table.IsLive(bad), "is live %v", bad)
	}

	// a never-registered slot inside capacity is free
	_, err = table.Resolve(h + 1)
	assert.ErrorIs(t, err, lherrors.ErrInvalidHandle)
}

func TestTable_DoubleRelease(t *testing.T) {
	table := New(DefaultCapacity)
	h, err := table.Register("a")
	require.NoError(t, err)

	require.NoError(t, table.Release(h))
	err = table.Release(h)
	assert.ErrorIs(t, err, lherrors.ErrDoubleRelease)
}

func TestTable_StaleGenerationRejected(t *testing.T) {
	table := New(DefaultCapacity)
	first := &paragraph{name: "first"}
	second := &paragraph{name: "second"}

	stale, err := table.Register(first)
	require.NoError(t, err)
	require.NoError(t, table.Release(stale))

	fresh, err := table.Register(second)
	require.NoError(t, err)
	require.Equal(t, stale.Index(), fresh.Index(), "slot is recycled")
	require.NotEqual(t, stale, fresh, "generation differs")

	_, err = table.Resolve(stale)
	assert.ErrorIs(t, err, lherrors.ErrInvalidHandle)
	assert.False(t, table.IsLive(stale))
	assert.ErrorIs(t, table.Release(stale), lherrors.ErrInvalidHandle)

	v, err := table.Resolve(fresh)
	require.NoError(t, err)
	assert.Same(t, second, v)
}

func TestTable_GenerationExhaustionRetiresSlot(t *testing.T) {
	table := New(DefaultCapacity)

	stale, err := table.Register(&paragraph{name: "first"})
	require.NoError(t, err)
	require.NoError(t, table.Release(stale))

	// LIFO reuse keeps landing on the same slot until its generations run out
	for i := 1; i <= maxGeneration; i++ {
		h, err := table.Register(&paragraph{name: "cycle"})
		require.NoError(t, err)
		require.Equal(t, stale.Index(), h.Index(), "cycle %d", i)
		require.Equal(t, uint8(i), h.Generation())
		require.NoError(t, table.Release(h))
	}
	assert.Equal(t, 1, table.Retired())

	victim := &paragraph{name: "victim"}
	h, err := table.Register(victim)
	require.NoError(t, err)
	assert.NotEqual(t, stale.Index(), h.Index(), "retired slot must not be reused")
	assert.NotEqual(t, stale, h)

	_, err = table.Resolve(stale)
	assert.ErrorIs(t, err, lherrors.ErrInvalidHandle)
	assert.False(t, table.IsLive(stale))
	assert.ErrorIs(t, table.Release(stale), lherrors.ErrDoubleRelease)

	v, err := table.Resolve(h)
	require.NoError(t, err)
	assert.Same(t, victim, v)
}

func TestTable_NilObject(t *testing.T) {
	table := New(DefaultCapacity)
	_, err := table.Register(nil)
	assert.ErrorIs(t, err, lherrors.ErrNilObject)
	assert.Equal(t, 0, table.Len())
}

func TestTable_Close(t *testing.T) {
	table := New(DefaultCapacity)
	h, err := table.Register("a")
	require.NoError(t, err)

	require.NoError(t, table.Close())
	require.NoError(t, table.Close())
	assert.True(t, table.Closed())
	assert.Equal(t, 0, table.Capacity())

	_, err = table.Register("b")
	assert.ErrorIs(t, err, lherrors.ErrAlreadyDisposed)
	_, err = table.Resolve(h)
	assert.ErrorIs(t, err, lherrors.ErrAlreadyDisposed)
	assert.ErrorIs(t, table.Release(h), lherrors.ErrAlreadyDisposed)
	assert.False(t, table.IsLive(h))
}

func TestTable_Observer(t *testing.T) {
	table := New(DefaultCapacity)
	obs := &testObserver{}
	table.Subscribe(obs)

	h, err := table.Register("a")
	require.NoError(t, err)
	require.Len(t, obs.events, 1)
	assert.Equal(t, EventRegistered, obs.events[0].Type)
	assert.Equal(t, h, obs.events[0].Handle)

	require.NoError(t, table.Release(h))
	require.Len(t, obs.events, 2)
	assert.Equal(t, EventReleased, obs.events[1].Type)
	assert.Equal(t, "a", obs.events[1].Value)

	table.Unsubscribe(obs)
	_, err = table.Register("b")
	require.NoError(t, err)
	assert.Len(t, obs.events, 2)
}

func TestTable_Each(t *testing.T) {
	table := New(DefaultCapacity)
	for _, v := range []string{"a", "b", "c"} {
		_, err := table.Register(v)
		require.NoError(t, err)
	}

	var seen []any
	table.Each(func(h Handle, v any) bool {
		seen = append(seen, v)
		return true
	})
	assert.ElementsMatch(t, []any{"a", "b", "c"}, seen)

	count := 0
	table.Each(func(Handle, any) bool {
		count++
		return false
	})
	assert.Equal(t, 1, count)
}

func TestTable_HandleEncoding(t *testing.T) {
	h := makeHandle(5, 2)
	assert.Equal(t, uint32(5), h.Index())
	assert.Equal(t, uint8(2), h.Generation())
	assert.Equal(t, "handle(5@2)", h.String())
}

func TestTable_Concurrent(t *testing.T) {
	table := New(DefaultCapacity)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			h, err := table.Register(id)
			if err != nil {
				t.Error(err)
				return
			}
			if v, err := table.Resolve(h); err != nil || v != id {
				t.Errorf("resolve %v: %v %v", h, v, err)
			}
			if err := table.Release(h); err != nil {
				t.Error(err)
			}
		}(i)
	}

	wg.Wait()
	assert.Equal(t, 0, table.Len())
}
