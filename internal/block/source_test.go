package block

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, size int) (string, []byte) {
	t.Helper()
	data := make([]byte, size)
	rng := rand.New(rand.NewSource(42))
	rng.Read(data)

	path := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path, data
}

func TestResidentSourceRead(t *testing.T) {
	path, data := writeTestFile(t, 4096)

	src, err := LoadResident(path)
	require.NoError(t, err)
	defer src.Close()

	got, err := src.Read(Range{Index: 1, Offset: 1024, Length: 1024})
	require.NoError(t, err)
	require.Equal(t, data[1024:2048], got)
}

func TestResidentSourceBounds(t *testing.T) {
	src := NewResidentSource(make([]byte, 100))

	_, err := src.Read(Range{Offset: 50, Length: 51})
	require.Error(t, err)

	_, err = src.Read(Range{Offset: -1, Length: 10})
	require.Error(t, err)

	_, err = src.Read(Range{Offset: 0, Length: 0})
	require.Error(t, err)
}

func TestOnDemandSourceRead(t *testing.T) {
	path, data := writeTestFile(t, 4096)

	src, err := OpenOnDemand(path)
	require.NoError(t, err)
	defer src.Close()

	got, err := src.Read(Range{Index: 3, Offset: 3072, Length: 1024})
	require.NoError(t, err)
	require.Equal(t, data[3072:4096], got)
}

func TestOnDemandSourceBounds(t *testing.T) {
	path, _ := writeTestFile(t, 100)

	src, err := OpenOnDemand(path)
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Read(Range{Offset: 90, Length: 20})
	require.Error(t, err)
}

func TestSourcesAgree(t *testing.T) {
	path, _ := writeTestFile(t, 10_000)

	resident, err := LoadResident(path)
	require.NoError(t, err)
	defer resident.Close()

	onDemand, err := OpenOnDemand(path)
	require.NoError(t, err)
	defer onDemand.Close()

	plan, err := Plan(10_000, 1024)
	require.NoError(t, err)

	for _, r := range plan {
		a, err := resident.Read(r)
		require.NoError(t, err)
		b, err := onDemand.Read(r)
		require.NoError(t, err)
		require.True(t, bytes.Equal(a, b), "block %d differs between strategies", r.Index)
	}
}

func TestOnDemandConcurrentReads(t *testing.T) {
	path, data := writeTestFile(t, 64*1024)

	src, err := OpenOnDemand(path)
	require.NoError(t, err)
	defer src.Close()

	plan, err := Plan(int64(len(data)), 4096)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, len(plan))
	for _, r := range plan {
		wg.Add(1)
		go func(r Range) {
			defer wg.Done()
			got, err := src.Read(r)
			if err != nil {
				errs[r.Index] = err
				return
			}
			if !bytes.Equal(data[r.Offset:r.Offset+r.Length], got) {
				errs[r.Index] = os.ErrInvalid
			}
		}(r)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "block %d", i)
	}
}
