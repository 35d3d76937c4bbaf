package input

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectLines(t *testing.T, lines <-chan string, n int) []string {
	t.Helper()
	var got []string
	timeout := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case l, ok := <-lines:
			if !ok {
				return got
			}
			got = append(got, l)
		case <-timeout:
			t.Fatalf("timed out after %d of %d lines", len(got), n)
		}
	}
	return got
}

func TestFileTailer_FromBeginning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("INFO: start\n\nERROR: boom\r\nplain\n"), 0o600))

	tailer := NewFileTailer(path, 10)
	tailer.SetFromBeginning(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines, _ := tailer.Start(ctx)
	assert.True(t, tailer.IsRunning())

	got := collectLines(t, lines, 3)
	assert.Equal(t, []string{"INFO: start", "ERROR: boom", "plain"}, got)

	require.NoError(t, tailer.Stop())
	assert.False(t, tailer.IsRunning())
	require.NoError(t, tailer.Stop())
}

func TestFileTailer_FollowsAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("INFO: old\n"), 0o600))

	tailer := NewFileTailer(path, 10)
	tailer.SetFromBeginning(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lines, _ := tailer.Start(ctx)
	defer tailer.Stop()

	assert.Equal(t, []string{"INFO: old"}, collectLines(t, lines, 1))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("ERROR: " + strings.Repeat("x", 10) + "\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, []string{"ERROR: xxxxxxxxxx"}, collectLines(t, lines, 1))
}

func TestFileTailer_SecondStartIsClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	tailer := NewFileTailer(path, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, _ = tailer.Start(ctx)
	defer tailer.Stop()

	lines, errs := tailer.Start(ctx)
	_, ok := <-lines
	assert.False(t, ok)
	_, ok = <-errs
	assert.False(t, ok)
}

func TestFileTailer_StopBeforeTailOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("INFO: never read\n"), 0o600))

	for i := 0; i < 20; i++ {
		tailer := NewFileTailer(path, 1)
		lines, _ := tailer.Start(context.Background())
		require.NoError(t, tailer.Stop())
		assert.False(t, tailer.IsRunning())

		select {
		case <-closed(lines):
		case <-time.After(5 * time.Second):
			t.Fatal("line channel not closed after Stop")
		}
	}
}

func closed(lines <-chan string) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for range lines {
		}
		close(done)
	}()
	return done
}

func TestTruncateLine(t *testing.T) {
	assert.Equal(t, "short", truncateLine("short", 10))
	assert.Equal(t, "abcde", truncateLine("abcdefgh", 5))

	// "é" is two bytes; a limit landing between them backs off to the rune start.
	s := "abcé"
	got := truncateLine(s, 4)
	assert.Equal(t, "abc", got)
	assert.True(t, utf8.ValidString(got))

	long := strings.Repeat("a", MaxLineLength-1) + "→tail"
	got = truncateLine(long, MaxLineLength)
	assert.Len(t, got, MaxLineLength-1)
	assert.True(t, utf8.ValidString(got))
}
