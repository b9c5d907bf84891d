package fd

import (
	"context"
	"sync"

	"github.com/marmos91/dittofd/pkg/store/metadata"
	"github.com/marmos91/dittofd/pkg/vfs"
)

// memVnode is an in-memory vnode that counts releases.
type memVnode struct {
	mu       sync.Mutex
	data     []byte
	seekable bool
	readErr  error
	writeErr error
	releases int
}

func newMemVnode(contents string) *memVnode {
	return &memVnode{data: []byte(contents), seekable: true}
}

func (v *memVnode) ReadAt(_ context.Context, p []byte, offset int64) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.readErr != nil {
		return 0, v.readErr
	}
	if offset >= int64(len(v.data)) {
		return 0, nil
	}
	return copy(p, v.data[offset:]), nil
}

func (v *memVnode) WriteAt(_ context.Context, p []byte, offset int64) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.writeErr != nil {
		return 0, v.writeErr
	}
	if end := offset + int64(len(p)); end > int64(len(v.data)) {
		grown := make([]byte, end)
		copy(grown, v.data)
		v.data = grown
	}
	return copy(v.data[offset:], p), nil
}

func (v *memVnode) Stat(context.Context) (vfs.Stat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return vfs.Stat{Size: int64(len(v.data)), Type: metadata.FileTypeRegular}, nil
}

func (v *memVnode) Seekable() bool { return v.seekable }

func (v *memVnode) Acquire() {}

func (v *memVnode) Release(context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.releases++
	return nil
}

func (v *memVnode) Releases() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.releases
}

func (v *memVnode) Contents() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return string(v.data)
}
