// Package vfs turns paths into vnodes over a metadata store (the namespace)
// and a content store (the bytes).
//
// Besides regular files and directories, the VFS resolves device names. A
// path of the form "name:" refers to the device registered under name with
// AddDevice, e.g. "con:" for the console.
package vfs

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// VFS resolves paths to vnodes.
//
// Active Vnode Cache:
// Opening a file that is already open returns the same vnode with one more
// reference, so every descriptor on a file observes the same size. The entry
// is evicted when its last reference is released.
//
// Thread Safety:
// Safe for concurrent use. mu guards the device table, the active vnode
// cache and the reference counts of cached file vnodes.
type VFS struct {
	meta    metadata.MetadataStore
	content content.ContentStore

	mu      sync.Mutex
	devices map[string]Vnode
	active  map[uuid.UUID]*fileVnode
}

// New creates a VFS over the given stores.
func New(meta metadata.MetadataStore, content content.ContentStore) *VFS {
	return &VFS{
		meta:    meta,
		content: content,
		devices: make(map[string]Vnode),
		active:  make(map[uuid.UUID]*fileVnode),
	}
}

// AddDevice registers dev under name, reachable as the path "name:".
//
// The VFS acquires a reference for each successful Open of the device. The
// registration itself holds no reference.
func (v *VFS) AddDevice(name string, dev Vnode) error {
	if name == "" || strings.ContainsAny(name, ":/") {
		return errno.EINVAL
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.devices[name]; exists {
		return errno.EEXIST
	}
	v.devices[name] = dev
	return nil
}

// Open resolves path and returns a vnode holding one reference for the caller.
//
// Parameters:
//   - ctx: Context for cancellation
//   - path: Device name ("con:") or file path; relative paths are anchored at "/"
//   - flags: O_* access mode and options
//   - mode: Permission bits for files created with O_CREAT
//
// Returns:
//   - Vnode: The opened object
//   - error: EINVAL for an empty path or bad access mode, ENODEV for an
//     unknown device, ENOENT, EEXIST (O_CREAT|O_EXCL), EISDIR (directory
//     opened for writing), ENOTDIR, or storage errors
func (v *VFS) Open(ctx context.Context, path string, flags int, mode uint32) (Vnode, error) {
	if path == "" || flags&O_ACCMODE == O_ACCMODE {
		return nil, errno.EINVAL
	}

	if name, rest, isDevice := strings.Cut(path, ":"); isDevice && !strings.Contains(name, "/") {
		return v.openDevice(name, rest)
	}

	// ===== Step 1: Resolve or create =====
	file, err := v.lookupOrCreate(ctx, metadata.CleanPath(path), flags, mode)
	if err != nil {
		return nil, err
	}

	// ===== Step 2: Type checks =====
	if file.Type == metadata.FileTypeDirectory && CanWrite(flags) {
		return nil, errno.EISDIR
	}

	// ===== Step 3: Truncate =====
	if flags&O_TRUNC != 0 && CanWrite(flags) && file.Type == metadata.FileTypeRegular && file.Size > 0 {
		if err := v.content.Truncate(ctx, file.ContentID, 0); err != nil {
			return nil, mapError(err)
		}
		if err := v.meta.SetSize(ctx, file.ID, 0); err != nil {
			return nil, mapError(err)
		}
	}

	logger.Debug("vfs: open %s flags=%#x", file.Path, flags)

	return v.activate(file), nil
}

// lookupOrCreate applies O_CREAT and O_EXCL semantics.
func (v *VFS) lookupOrCreate(ctx context.Context, path string, flags int, mode uint32) (*metadata.File, error) {
	file, err := v.meta.Lookup(ctx, path)
	if err == nil {
		if flags&O_CREAT != 0 && flags&O_EXCL != 0 {
			return nil, errno.EEXIST
		}
		return file, nil
	}
	if !errors.Is(err, metadata.ErrNotFound) || flags&O_CREAT == 0 {
		return nil, mapError(err)
	}

	file, err = v.meta.Create(ctx, path, &metadata.FileAttr{
		Type: metadata.FileTypeRegular,
		Mode: mode,
	})
	if errors.Is(err, metadata.ErrExists) && flags&O_EXCL == 0 {
		// Lost a creation race; open the winner's file.
		file, err = v.meta.Lookup(ctx, path)
	}
	if err != nil {
		return nil, mapError(err)
	}

	return file, nil
}

func (v *VFS) openDevice(name, rest string) (Vnode, error) {
	if rest != "" {
		return nil, errno.ENOTDIR
	}

	v.mu.Lock()
	dev, ok := v.devices[name]
	v.mu.Unlock()

	if !ok {
		return nil, errno.ENODEV
	}

	dev.Acquire()
	return dev, nil
}

// activate returns the cached vnode for file with one more reference, or
// caches a new one.
func (v *VFS) activate(file *metadata.File) *fileVnode {
	v.mu.Lock()
	defer v.mu.Unlock()

	if vn, ok := v.active[file.ID]; ok {
		vn.refs++
		return vn
	}

	vn := &fileVnode{
		vfs:       v,
		id:        file.ID,
		path:      file.Path,
		contentID: file.ContentID,
		ftype:     file.Type,
		refs:      1,
	}
	v.active[file.ID] = vn
	return vn
}

// ActiveVnodes returns the number of files currently open.
func (v *VFS) ActiveVnodes() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.active)
}
