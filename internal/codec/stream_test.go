package codec

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/danmuck/simwire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamRecordsAndDiffs(t *testing.T) {
	testlog.Start(t)

	base := sampleTrack()
	next := base.clone()
	next.Offset = 1000

	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, &base))
	require.NoError(t, WriteDiff(&buf, &next, &base))

	src := bufio.NewReader(&buf)
	var got track
	require.NoError(t, ReadRecord(src, &got))
	assert.Equal(t, base, got)
	require.NoError(t, ReadDiff(src, &got))
	assert.Equal(t, next, got)

	assert.ErrorIs(t, ReadRecord(src, &got), io.EOF)
}

func TestStreamShortAndOversize(t *testing.T) {
	testlog.Start(t)

	var got track
	err := ReadRecord(bufio.NewReader(bytes.NewReader([]byte{10, 1, 2})), &got)
	assert.ErrorIs(t, err, ErrShortBuffer)

	huge := []byte{0xFF, 0xFF, 0xFF, 0x0F}
	err = ReadRecord(bufio.NewReader(bytes.NewReader(huge)), &got)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}
