package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/store/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestConsole_ReadWrite(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	c := New(strings.NewReader("abc"), &out)

	buf := make([]byte, 8)
	n, err := c.ReadAt(ctx, buf, 42)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(buf[:n]))

	n, err = c.ReadAt(ctx, buf, 0)
	require.NoError(t, err, "end of input is a zero count")
	assert.Zero(t, n)

	n, err = c.WriteAt(ctx, []byte("out"), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "out", out.String())
}

func TestConsole_NilStreams(t *testing.T) {
	ctx := context.Background()
	c := New(nil, nil)

	n, err := c.ReadAt(ctx, make([]byte, 4), 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = c.WriteAt(ctx, []byte("dropped"), 0)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
}

func TestConsole_WriteError(t *testing.T) {
	c := New(nil, failingWriter{})

	_, err := c.WriteAt(context.Background(), []byte("x"), 0)
	assert.Equal(t, errno.EIO, errno.Code(err))
}

func TestConsole_StatAndRefs(t *testing.T) {
	ctx := context.Background()
	c := New(nil, nil)

	st, err := c.Stat(ctx)
	require.NoError(t, err)
	assert.Equal(t, metadata.FileTypeCharDevice, st.Type)
	assert.Zero(t, st.Size)
	assert.False(t, c.Seekable())

	c.Acquire()
	c.Acquire()
	assert.Equal(t, 2, c.Refs())
	require.NoError(t, c.Release(ctx))
	require.NoError(t, c.Release(ctx))
	assert.Error(t, c.Release(ctx))
}
