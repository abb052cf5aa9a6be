package block

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPlanCoversInputExactly(t *testing.T) {
	cases := []struct {
		name      string
		totalLen  int64
		blockSize int64
	}{
		{"single partial block", 100, 1024},
		{"exact single block", 1024, 1024},
		{"exact multiple", 4096, 1024},
		{"trailing partial", 4097, 1024},
		{"block size one", 17, 1},
		{"odd sizes", 999983, 4099},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			plan, err := Plan(tc.totalLen, tc.blockSize)
			require.NoError(t, err)

			var next int64
			for i, r := range plan {
				require.Equal(t, i, r.Index)
				require.Equal(t, next, r.Offset, "ranges must be contiguous")
				require.Positive(t, r.Length)
				require.LessOrEqual(t, r.Length, tc.blockSize)
				if i < len(plan)-1 {
					require.Equal(t, tc.blockSize, r.Length, "only the last range may be short")
				}
				next = r.Offset + r.Length
			}
			require.Equal(t, tc.totalLen, next, "ranges must cover the input exactly")
		})
	}
}

func TestPlanConcreteScenario(t *testing.T) {
	// 2560 bytes at block size 1024 splits into 1024, 1024, 512.
	plan, err := Plan(2560, 1024)
	require.NoError(t, err)
	require.Equal(t, []Range{
		{Index: 0, Offset: 0, Length: 1024},
		{Index: 1, Offset: 1024, Length: 1024},
		{Index: 2, Offset: 2048, Length: 512},
	}, plan)
}

func TestPlanEmptyInput(t *testing.T) {
	plan, err := Plan(0, 1024)
	require.NoError(t, err)
	require.Empty(t, plan)
}

func TestPlanInvalidBlockSize(t *testing.T) {
	_, err := Plan(100, 0)
	require.ErrorIs(t, err, ErrInvalidBlockSize)

	_, err = Plan(100, -1)
	require.ErrorIs(t, err, ErrInvalidBlockSize)
}

func TestPlanNegativeLength(t *testing.T) {
	_, err := Plan(-1, 1024)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrInvalidBlockSize))
}

func TestPlanOffsetsBeyond32Bits(t *testing.T) {
	// A 5 GiB input with 900 KiB blocks pushes offsets well past what a
	// 32-bit offset could address.
	const totalLen = int64(5) << 30
	const blockSize = int64(900) << 10

	plan, err := Plan(totalLen, blockSize)
	require.NoError(t, err)

	last := plan[len(plan)-1]
	require.Equal(t, totalLen, last.Offset+last.Length)
	require.Greater(t, last.Offset, int64(1)<<32)
}
