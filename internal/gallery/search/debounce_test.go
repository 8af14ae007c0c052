package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type emitRecorder struct {
	mu     sync.Mutex
	values []string
}

func (r *emitRecorder) emit(v string) {
	r.mu.Lock()
	r.values = append(r.values, v)
	r.mu.Unlock()
}

func (r *emitRecorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.values...)
}

func TestDebouncerEmitsLastValueOnce(t *testing.T) {
	rec := &emitRecorder{}
	d := NewDebouncer(30*time.Millisecond, rec.emit)
	defer d.Stop()

	for _, v := range []string{"s", "su", "sun", "sunset"} {
		d.Push(v)
		time.Sleep(5 * time.Millisecond)
	}
	require.True(t, d.Pending())

	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, []string{"sunset"}, rec.get())
	require.False(t, d.Pending())
}

func TestDebouncerSeparatedInputsEmitEach(t *testing.T) {
	rec := &emitRecorder{}
	d := NewDebouncer(10*time.Millisecond, rec.emit)
	defer d.Stop()

	d.Push("cat")
	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
	d.Push("dog")
	require.Eventually(t, func() bool { return len(rec.get()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"cat", "dog"}, rec.get())
}

func TestDebouncerCancelDropsPending(t *testing.T) {
	rec := &emitRecorder{}
	d := NewDebouncer(20*time.Millisecond, rec.emit)
	defer d.Stop()

	d.Push("beach")
	d.Cancel()
	require.False(t, d.Pending())
	time.Sleep(60 * time.Millisecond)
	require.Empty(t, rec.get())

	d.Push("forest")
	require.Eventually(t, func() bool { return len(rec.get()) == 1 }, time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"forest"}, rec.get())
}

func TestDebouncerStopIgnoresLaterPushes(t *testing.T) {
	rec := &emitRecorder{}
	d := NewDebouncer(10*time.Millisecond, rec.emit)

	d.Push("a")
	d.Stop()
	d.Push("b")
	time.Sleep(50 * time.Millisecond)
	require.Empty(t, rec.get())
	require.False(t, d.Pending())
}
