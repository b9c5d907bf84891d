package s3

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// WriteAt writes data at the specified offset.
//
// S3 objects are immutable, so a write downloads the object,
// patches it in memory and uploads the result.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - id: Content identifier
//   - data: Data to write
//   - offset: Byte offset where writing begins
//
// Returns:
//   - error: Returns error if write fails or context is cancelled
func (s *S3ContentStore) WriteAt(ctx context.Context, id metadata.ContentID, data []byte, offset int64) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation("WriteAt", time.Since(start), err)
		if err == nil {
			s.metrics.RecordBytes("write", int64(len(data)))
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if offset < 0 {
		return fmt.Errorf("write %s at %d: %w", id, offset, content.ErrInvalidOffset)
	}
	requiredSize := offset + int64(len(data))
	if requiredSize < offset || uint64(requiredSize) > content.MaxBufferedSize {
		return fmt.Errorf("write %s at %d: %w", id, offset, content.ErrTooLarge)
	}

	// ========================================================================
	// Step 1: Load existing object
	// ========================================================================

	existing, err := s.readAll(ctx, id)
	if err != nil {
		return err
	}

	// ========================================================================
	// Step 2: Patch in memory, zero-filling any gap
	// ========================================================================

	if int64(len(existing)) < requiredSize {
		grown := make([]byte, requiredSize)
		copy(grown, existing)
		existing = grown
	}
	copy(existing[offset:], data)

	// ========================================================================
	// Step 3: Upload
	// ========================================================================

	return s.put(ctx, id, existing)
}

// Truncate changes the size of the content.
//
// For S3, this requires downloading the object, resizing it, and re-uploading.
func (s *S3ContentStore) Truncate(ctx context.Context, id metadata.ContentID, newSize uint64) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation("Truncate", time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if newSize > content.MaxBufferedSize {
		return fmt.Errorf("truncate %s to %d: %w", id, newSize, content.ErrTooLarge)
	}

	existing, err := s.readAll(ctx, id)
	if err != nil {
		return err
	}

	resized := make([]byte, newSize)
	copy(resized, existing)

	return s.put(ctx, id, resized)
}

// Delete removes the object. S3 deletes are idempotent.
func (s *S3ContentStore) Delete(ctx context.Context, id metadata.ContentID) (err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation("Delete", time.Since(start), err)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	return nil
}

// put uploads the full object body.
func (s *S3ContentStore) put(ctx context.Context, id metadata.ContentID, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.getObjectKey(id)),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to write object to S3: %w", err)
	}

	return nil
}
