package signalslot

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenRead(t *testing.T) {
	slot, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	got, err := slot.Read("marks-sync")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, slot.Write("marks-sync", []byte(`{"owner":"a"}`)))
	require.NoError(t, slot.Write("marks-sync", []byte(`{"owner":"b"}`)))

	got, err = slot.Read("marks-sync")
	require.NoError(t, err)
	assert.JSONEq(t, `{"owner":"b"}`, string(got))

	entries, err := os.ReadDir(slot.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestInvalidKeys(t *testing.T) {
	slot, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	for _, key := range []string{"", ".", "..", "a/b", `a\b`} {
		assert.Error(t, slot.Write(key, []byte("x")), "key %q", key)
		_, err := slot.OnExternalChange(key, func([]byte) {})
		assert.Error(t, err, "key %q", key)
	}
}

func TestOnExternalChangeSeesWritesFromAnotherSlot(t *testing.T) {
	dir := t.TempDir()
	reader, err := New(dir, nil)
	require.NoError(t, err)
	writer, err := New(dir, nil)
	require.NoError(t, err)

	var (
		mu  sync.Mutex
		got [][]byte
	)
	sub, err := reader.OnExternalChange("marks-sync", func(p []byte) {
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, writer.Write("other-key", []byte("ignored")))
	require.NoError(t, writer.Write("marks-sync", []byte(`{"owner":"u"}`)))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) > 0
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	for _, p := range got {
		assert.JSONEq(t, `{"owner":"u"}`, string(p))
	}
}

func TestCloseStopsNotifications(t *testing.T) {
	dir := t.TempDir()
	slot, err := New(dir, nil)
	require.NoError(t, err)

	calls := 0
	var mu sync.Mutex
	sub, err := slot.OnExternalChange("marks-sync", func([]byte) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())

	require.NoError(t, slot.Write("marks-sync", []byte("{}")))
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, calls)
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "slots")
	_, err := New(dir, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = New("", nil)
	assert.Error(t, err)
}
