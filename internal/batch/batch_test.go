package batch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource(tb testing.TB, size int) *bytes.Reader {
	tb.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	return bytes.NewReader(data)
}

func TestProcessorProcess(t *testing.T) {
	t.Parallel()

	t.Run("copies every entry verbatim", func(t *testing.T) {
		t.Parallel()

		source := testSource(t, 4096)
		dest := t.TempDir()

		entries := make([]Entry, 64)
		for i := range entries {
			entries[i] = Entry{
				ID:    uint16(i),
				Name:  fmt.Sprintf("dir%d/file%d.bin", i%4, i),
				Start: uint32(i * 64),
				End:   uint32(i*64 + 64),
			}
		}

		proc := NewProcessor(source)
		failures := proc.Process(entries, NewFileSink(dest))
		require.Empty(t, failures)

		for _, e := range entries {
			got, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(e.Name)))
			require.NoError(t, err)

			want := make([]byte, 64)
			_, err = source.ReadAt(want, int64(e.Start))
			require.NoError(t, err)
			assert.Equal(t, want, got, e.Name)
		}
	})

	t.Run("zero-length entries produce empty files", func(t *testing.T) {
		t.Parallel()

		dest := t.TempDir()
		proc := NewProcessor(testSource(t, 16))
		failures := proc.Process([]Entry{{Name: "empty.bin", Start: 8, End: 8}}, NewFileSink(dest))
		require.Empty(t, failures)

		info, err := os.Stat(filepath.Join(dest, "empty.bin"))
		require.NoError(t, err)
		assert.Zero(t, info.Size())
	})

	t.Run("a failing entry does not stop its siblings", func(t *testing.T) {
		t.Parallel()

		source := testSource(t, 256)
		dest := t.TempDir()

		entries := []Entry{
			{ID: 0, Name: "good0.bin", Start: 0, End: 16},
			{ID: 1, Name: "beyond.bin", Start: 0, End: 1024}, // past the image
			{ID: 2, Name: "good2.bin", Start: 16, End: 32},
			{ID: 3, Name: "inverted.bin", Start: 32, End: 16}, // end < start
			{ID: 4, Name: "good4.bin", Start: 32, End: 48},
		}

		failures := NewProcessor(source).Process(entries, NewFileSink(dest))
		require.Len(t, failures, 2)

		failed := make(map[string]Failure, len(failures))
		for _, f := range failures {
			failed[f.Name] = f
			assert.ErrorIs(t, f.Err, ErrRangeBounds)
		}
		assert.Contains(t, failed, "beyond.bin")
		assert.Contains(t, failed, "inverted.bin")
		assert.Equal(t, uint16(1), failed["beyond.bin"].ID)

		for _, name := range []string{"good0.bin", "good2.bin", "good4.bin"} {
			_, err := os.Stat(filepath.Join(dest, name))
			assert.NoError(t, err, name)
		}
	})

	t.Run("failed entries leave nothing at the final path", func(t *testing.T) {
		t.Parallel()

		dest := t.TempDir()
		failures := NewProcessor(testSource(t, 16)).Process(
			[]Entry{{Name: "bad.bin", Start: 0, End: 64}}, NewFileSink(dest))
		require.Len(t, failures, 1)

		_, err := os.Stat(filepath.Join(dest, "bad.bin"))
		assert.True(t, os.IsNotExist(err))

		// No stray temp files either.
		dirEntries, err := os.ReadDir(dest)
		require.NoError(t, err)
		assert.Empty(t, dirEntries)
	})

	t.Run("unwritable parent is reported per entry", func(t *testing.T) {
		t.Parallel()

		dest := t.TempDir()
		// A regular file where a parent directory should be.
		require.NoError(t, os.WriteFile(filepath.Join(dest, "blocked"), []byte("x"), 0o644))

		entries := []Entry{
			{ID: 7, Name: "blocked/file.bin", Start: 0, End: 8},
			{ID: 8, Name: "fine.bin", Start: 0, End: 8},
		}
		failures := NewProcessor(testSource(t, 16)).Process(entries, NewFileSink(dest))
		require.Len(t, failures, 1)
		assert.Equal(t, "blocked/file.bin", failures[0].Name)

		_, err := os.Stat(filepath.Join(dest, "fine.bin"))
		assert.NoError(t, err)
	})

	t.Run("serial and fixed worker counts behave the same", func(t *testing.T) {
		t.Parallel()

		source := testSource(t, 1024)
		entries := make([]Entry, 16)
		for i := range entries {
			entries[i] = Entry{Name: fmt.Sprintf("f%d", i), Start: uint32(i * 8), End: uint32(i*8 + 8)}
		}

		for _, workers := range []int{-1, 1, 2, 32} {
			dest := t.TempDir()
			failures := NewProcessor(source, WithWorkers(workers)).Process(entries, NewFileSink(dest))
			assert.Empty(t, failures, "workers=%d", workers)

			names, err := os.ReadDir(dest)
			require.NoError(t, err)
			assert.Len(t, names, len(entries), "workers=%d", workers)
		}
	})
}

func TestFileSinkOverwrite(t *testing.T) {
	t.Parallel()

	source := testSource(t, 16)
	entry := Entry{Name: "f.bin", Start: 0, End: 4}

	t.Run("overwrites by default", func(t *testing.T) {
		t.Parallel()

		dest := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dest, "f.bin"), []byte("old"), 0o644))

		failures := NewProcessor(source).Process([]Entry{entry}, NewFileSink(dest))
		require.Empty(t, failures)

		got, err := os.ReadFile(filepath.Join(dest, "f.bin"))
		require.NoError(t, err)
		assert.Equal(t, []byte{0, 1, 2, 3}, got)
	})

	t.Run("skips existing files when disabled", func(t *testing.T) {
		t.Parallel()

		dest := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dest, "f.bin"), []byte("old"), 0o644))

		failures := NewProcessor(source).Process([]Entry{entry}, NewFileSink(dest, WithOverwrite(false)))
		require.Empty(t, failures)

		got, err := os.ReadFile(filepath.Join(dest, "f.bin"))
		require.NoError(t, err)
		assert.Equal(t, []byte("old"), got)
	})
}

func TestWorkerCount(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, NewProcessor(nil, WithWorkers(-1)).workerCount(100))
	assert.Equal(t, 1, NewProcessor(nil).workerCount(1))
	assert.Equal(t, 3, NewProcessor(nil, WithWorkers(8)).workerCount(3))
	assert.Equal(t, 8, NewProcessor(nil, WithWorkers(8)).workerCount(100))
	assert.GreaterOrEqual(t, NewProcessor(nil).workerCount(100), 1)
}
