package vfs

import (
	"context"
	"errors"

	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// mapError translates store errors into errno values.
//
// The result still matches the original error with errors.Is, so logs keep
// the underlying cause. Errors that already carry an errno pass through.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var code errno.Errno
	if errors.As(err, &code) {
		return err
	}

	switch {
	case errors.Is(err, metadata.ErrNotFound):
		code = errno.ENOENT
	case errors.Is(err, metadata.ErrExists):
		code = errno.EEXIST
	case errors.Is(err, metadata.ErrNotDirectory):
		code = errno.ENOTDIR
	case errors.Is(err, metadata.ErrInvalidArgument),
		errors.Is(err, content.ErrInvalidOffset):
		code = errno.EINVAL
	case errors.Is(err, content.ErrStorageFull):
		code = errno.ENOSPC
	case errors.Is(err, content.ErrTooLarge):
		code = errno.EFBIG
	case errors.Is(err, content.ErrReadOnly):
		code = errno.EROFS
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		code = errno.EINTR
	default:
		code = errno.EIO
	}

	return errno.Wrap(code, err)
}
