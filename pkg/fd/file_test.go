package fd

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWhence(t *testing.T) {
	for name, want := range map[string]int{"SEEK_SET": SEEK_SET, "SEEK_CUR": SEEK_CUR, "SEEK_END": SEEK_END} {
		got, err := ParseWhence(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseWhence("SEEK_DATA")
	assert.Error(t, err)
}

func TestFile_SequentialReads(t *testing.T) {
	ctx := context.Background()
	f := NewFile(newMemVnode("hello world"), vfs.O_RDONLY, 0)

	buf := make([]byte, 5)
	n, err := f.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	buf = make([]byte, 6)
	n, err = f.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, " world", string(buf[:n]))
	assert.Equal(t, int64(11), f.Offset())

	n, err = f.Read(ctx, buf)
	require.NoError(t, err)
	assert.Zero(t, n, "end of file")
	assert.Equal(t, int64(11), f.Offset())
}

func TestFile_ShortReadAdvancesByTransferred(t *testing.T) {
	ctx := context.Background()
	f := NewFile(newMemVnode("abc"), vfs.O_RDONLY, 1)

	n, err := f.Read(ctx, make([]byte, 100))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(3), f.Offset())
}

func TestFile_WriteThenRead(t *testing.T) {
	ctx := context.Background()
	vn := newMemVnode("")
	f := NewFile(vn, vfs.O_RDWR, 0)

	n, err := f.Write(ctx, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, int64(5), f.Offset())

	pos, err := f.Seek(ctx, 0, SEEK_SET)
	require.NoError(t, err)
	assert.Zero(t, pos)

	buf := make([]byte, 5)
	n, err = f.Read(ctx, buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))
}

func TestFile_Seek(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		start   int64
		offset  int64
		whence  int
		want    int64
		wantErr errno.Errno
	}{
		{name: "set", start: 3, offset: 7, whence: SEEK_SET, want: 7},
		{name: "cur zero is idempotent", start: 4, offset: 0, whence: SEEK_CUR, want: 4},
		{name: "cur forward", start: 4, offset: 2, whence: SEEK_CUR, want: 6},
		{name: "cur backward", start: 4, offset: -4, whence: SEEK_CUR, want: 0},
		{name: "end", start: 0, offset: 0, whence: SEEK_END, want: 11},
		{name: "end minus one", start: 0, offset: -1, whence: SEEK_END, want: 10},
		{name: "past end", start: 0, offset: 5, whence: SEEK_END, want: 16},
		{name: "negative result", start: 2, offset: -3, whence: SEEK_CUR, wantErr: errno.EINVAL},
		{name: "negative set", start: 2, offset: -1, whence: SEEK_SET, wantErr: errno.EINVAL},
		{name: "overflow", start: 2, offset: math.MaxInt64, whence: SEEK_CUR, wantErr: errno.EINVAL},
		{name: "unknown whence", start: 2, offset: 0, whence: 7, wantErr: errno.EINVAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFile(newMemVnode("hello world"), vfs.O_RDONLY, tt.start)

			got, err := f.Seek(ctx, tt.offset, tt.whence)
			if tt.wantErr != 0 {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.start, f.Offset(), "failed seek must not move the offset")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, f.Offset())
		})
	}
}

func TestFile_SeekCurTwiceIsStable(t *testing.T) {
	ctx := context.Background()
	f := NewFile(newMemVnode("data"), vfs.O_RDONLY, 3)

	first, err := f.Seek(ctx, 0, SEEK_CUR)
	require.NoError(t, err)
	second, err := f.Seek(ctx, 0, SEEK_CUR)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFile_SeekNotSeekable(t *testing.T) {
	vn := newMemVnode("")
	vn.seekable = false
	f := NewFile(vn, vfs.O_RDONLY, 0)

	_, err := f.Seek(context.Background(), 0, SEEK_SET)
	assert.ErrorIs(t, err, errno.ESPIPE)
}

func TestFile_NoVnode(t *testing.T) {
	ctx := context.Background()
	f := NewFile(nil, vfs.O_RDWR, 0)

	_, err := f.Read(ctx, make([]byte, 1))
	assert.ErrorIs(t, err, errno.ENODEV)
	_, err = f.Write(ctx, []byte("x"))
	assert.ErrorIs(t, err, errno.ENODEV)
	_, err = f.Seek(ctx, 0, SEEK_SET)
	assert.ErrorIs(t, err, errno.ENODEV)
	assert.NoError(t, f.Release(ctx))
}

func TestFile_NoVnodeBeforeAccessMode(t *testing.T) {
	ctx := context.Background()

	ro := NewFile(nil, vfs.O_RDONLY, 0)
	_, err := ro.Write(ctx, []byte("x"))
	assert.ErrorIs(t, err, errno.ENODEV)

	wo := NewFile(nil, vfs.O_WRONLY, 0)
	_, err = wo.Read(ctx, make([]byte, 1))
	assert.ErrorIs(t, err, errno.ENODEV)
}

func TestFile_AccessMode(t *testing.T) {
	ctx := context.Background()

	ro := NewFile(newMemVnode("abc"), vfs.O_RDONLY, 0)
	_, err := ro.Write(ctx, []byte("x"))
	assert.ErrorIs(t, err, errno.EBADF)

	wo := NewFile(newMemVnode("abc"), vfs.O_WRONLY, 0)
	_, err = wo.Read(ctx, make([]byte, 1))
	assert.ErrorIs(t, err, errno.EBADF)
}

func TestFile_FailedIOKeepsOffset(t *testing.T) {
	ctx := context.Background()
	vn := newMemVnode("abcdef")
	f := NewFile(vn, vfs.O_RDWR, 2)

	vn.readErr = errno.EIO
	n, err := f.Read(ctx, make([]byte, 3))
	assert.ErrorIs(t, err, errno.EIO)
	assert.Zero(t, n)
	assert.Equal(t, int64(2), f.Offset())

	vn.writeErr = errno.ENOSPC
	n, err = f.Write(ctx, []byte("xyz"))
	assert.ErrorIs(t, err, errno.ENOSPC)
	assert.Zero(t, n)
	assert.Equal(t, int64(2), f.Offset())
}

func TestFile_Append(t *testing.T) {
	ctx := context.Background()
	vn := newMemVnode("base")

	a := NewFile(vn, vfs.O_WRONLY|vfs.O_APPEND, 0)
	b := NewFile(vn, vfs.O_WRONLY|vfs.O_APPEND, 0)

	_, err := a.Write(ctx, []byte("-a"))
	require.NoError(t, err)
	_, err = b.Write(ctx, []byte("-b"))
	require.NoError(t, err)

	assert.Equal(t, "base-a-b", vn.Contents())
	assert.Equal(t, int64(6), a.Offset())
	assert.Equal(t, int64(8), b.Offset())
}

func TestFile_ReleaseExactlyOnce(t *testing.T) {
	ctx := context.Background()
	vn := newMemVnode("")
	f := NewFile(vn, vfs.O_RDONLY, 0)

	f.Acquire()
	f.Acquire()
	assert.Equal(t, 3, f.Refs())

	require.NoError(t, f.Release(ctx))
	require.NoError(t, f.Release(ctx))
	assert.Zero(t, vn.Releases())

	require.NoError(t, f.Release(ctx))
	assert.Equal(t, 1, vn.Releases())

	assert.ErrorIs(t, f.Release(ctx), errno.EBADF)
	assert.Equal(t, 1, vn.Releases())
	assert.Panics(t, f.Acquire)
}

func TestFile_ConcurrentWritesShareOffset(t *testing.T) {
	ctx := context.Background()
	vn := newMemVnode("")
	f := NewFile(vn, vfs.O_WRONLY, 0)

	const writers = 16
	const perWriter = 50

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				_, err := f.Write(ctx, []byte("x"))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(writers*perWriter), f.Offset())
	assert.Len(t, vn.Contents(), writers*perWriter, "no write may land on another's offset")
}
