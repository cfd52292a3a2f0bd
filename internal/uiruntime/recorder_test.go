package uiruntime

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keybridge/internal/geometry"
	"github.com/dshills/keybridge/internal/input/key"
)

func TestRecorder_RecordsInOrder(t *testing.T) {
	r := NewRecorder()

	require.NoError(t, r.PushKeyEvent(key.CodeA, key.ActionDown, key.ModShift))
	require.NoError(t, r.PushTextInput("A"))
	require.NoError(t, r.PushInsets(geometry.InsetRect{Top: 30}))
	require.NoError(t, r.PushDensity(2.75))

	calls := r.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, []CallKind{CallKey, CallText, CallInsets, CallDensity},
		[]CallKind{calls[0].Kind, calls[1].Kind, calls[2].Kind, calls[3].Kind})
	assert.Equal(t, "key A Down Shift", calls[0].String())
	assert.Equal(t, "A", r.Text())

	ins, ok := r.LastInsets()
	require.True(t, ok)
	assert.Equal(t, 30, ins.Top)
	d, ok := r.LastDensity()
	require.True(t, ok)
	assert.InDelta(t, 2.75, d, 1e-9)

	r.Reset()
	assert.Empty(t, r.Calls())
	_, ok = r.LastDensity()
	assert.False(t, ok)
}

func TestRecorder_WantsTextInput(t *testing.T) {
	r := NewRecorder()

	want, err := r.WantsTextInput()
	require.NoError(t, err)
	assert.False(t, want)

	assert.True(t, r.ToggleWantsTextInput())
	want, _ = r.WantsTextInput()
	assert.True(t, want)

	r.SetQueryError(errors.New("no frame yet"))
	_, err = r.WantsTextInput()
	assert.Error(t, err)

	r.SetQueryError(nil)
	r.SetWantsTextInput(false)
	want, err = r.WantsTextInput()
	require.NoError(t, err)
	assert.False(t, want)
}

func TestRecorder_FailPushes(t *testing.T) {
	r := NewRecorder()
	boom := errors.New("runtime busy")

	r.FailPushes(CallText, boom)
	assert.ErrorIs(t, r.PushTextInput("x"), boom)
	assert.NoError(t, r.PushKeyEvent(key.CodeA, key.ActionUp, key.ModNone))

	r.FailPushes(CallText, nil)
	assert.NoError(t, r.PushTextInput("y"))
	assert.Equal(t, "y", r.Text())
}

func TestRecorder_OnPushAndConcurrency(t *testing.T) {
	r := NewRecorder()
	var mu sync.Mutex
	seen := 0
	r.OnPush(func(Call) {
		mu.Lock()
		seen++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for _i := 0; _i < 8; _i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _i := 0; _i < 50; _i++ {
				_ = r.PushTextInput("a")
				_, _ = r.WantsTextInput()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.Calls(), 400)
	mu.Lock()
	assert.Equal(t, 400, seen)
	mu.Unlock()
}
