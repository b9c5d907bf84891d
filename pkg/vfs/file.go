package vfs

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// fileVnode is a regular file or directory backed by the stores.
type fileVnode struct {
	vfs       *VFS
	id        uuid.UUID
	path      string
	contentID metadata.ContentID
	ftype     metadata.FileType

	// refs is guarded by vfs.mu
	refs int

	// sizeMu serializes the size update that follows a content write
	sizeMu sync.Mutex
}

func (f *fileVnode) ReadAt(ctx context.Context, p []byte, offset int64) (int, error) {
	if f.ftype == metadata.FileTypeDirectory {
		return 0, errno.EISDIR
	}
	if offset < 0 {
		return 0, errno.EINVAL
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := f.vfs.content.ReadAt(ctx, f.contentID, p, offset)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return n, nil
	case errors.Is(err, content.ErrContentNotFound):
		// Never written: an empty file.
		return 0, nil
	default:
		return 0, mapError(err)
	}
}

func (f *fileVnode) WriteAt(ctx context.Context, p []byte, offset int64) (int, error) {
	if f.ftype == metadata.FileTypeDirectory {
		return 0, errno.EISDIR
	}
	if offset < 0 {
		return 0, errno.EINVAL
	}
	if len(p) == 0 {
		return 0, nil
	}
	end := offset + int64(len(p))
	if end < offset {
		return 0, errno.EFBIG
	}

	if err := f.vfs.content.WriteAt(ctx, f.contentID, p, offset); err != nil {
		return 0, mapError(err)
	}

	f.sizeMu.Lock()
	defer f.sizeMu.Unlock()

	file, err := f.vfs.meta.GetFile(ctx, f.id)
	if err != nil {
		return 0, mapError(err)
	}
	if uint64(end) > file.Size {
		if err := f.vfs.meta.SetSize(ctx, f.id, uint64(end)); err != nil {
			return 0, mapError(err)
		}
	}

	return len(p), nil
}

func (f *fileVnode) Stat(ctx context.Context) (Stat, error) {
	file, err := f.vfs.meta.GetFile(ctx, f.id)
	if err != nil {
		return Stat{}, mapError(err)
	}

	return Stat{
		Size: int64(file.Size),
		Type: file.Type,
		Mode: file.Mode,
	}, nil
}

func (f *fileVnode) Seekable() bool {
	return true
}

func (f *fileVnode) Acquire() {
	f.vfs.mu.Lock()
	defer f.vfs.mu.Unlock()
	f.refs++
}

// Release drops a reference and evicts the vnode from the active cache when
// it was the last one.
func (f *fileVnode) Release(ctx context.Context) error {
	f.vfs.mu.Lock()
	defer f.vfs.mu.Unlock()

	if f.refs <= 0 {
		logger.Error("vfs: release of unreferenced vnode %s", f.path)
		return errno.EINVAL
	}

	f.refs--
	if f.refs == 0 {
		delete(f.vfs.active, f.id)
		logger.Debug("vfs: last close of %s", f.path)
	}

	return nil
}
