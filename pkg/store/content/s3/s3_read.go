package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittofd/pkg/store/content"
	"github.com/marmos91/dittofd/pkg/store/metadata"
)

// getObjectKey returns the S3 key for a content ID.
func (s *S3ContentStore) getObjectKey(id metadata.ContentID) string {
	return s.keyPrefix + string(id)
}

// ReadAt reads data from the specified offset using an S3 range request.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - id: Content identifier
//   - p: Buffer to read into
//   - offset: Byte offset to start reading from
//
// Returns:
//   - n: Number of bytes read
//   - error: Returns error if content not found, read fails, or context is cancelled
//     Returns io.EOF if offset is at or beyond end of content
func (s *S3ContentStore) ReadAt(ctx context.Context, id metadata.ContentID, p []byte, offset int64) (n int, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveOperation("ReadAt", time.Since(start), err)
		if n > 0 {
			s.metrics.RecordBytes("read", int64(n))
		}
	}()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, fmt.Errorf("read %s at %d: %w", id, offset, content.ErrInvalidOffset)
	}

	if len(p) == 0 {
		return 0, nil
	}

	// S3 range is inclusive, so end = offset + len(p) - 1
	end := offset + int64(len(p)) - 1
	rangeStr := fmt.Sprintf("bytes=%d-%d", offset, end)

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
		Range:  aws.String(rangeStr),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}

		// S3 answers a range starting past the end with InvalidRange
		if strings.Contains(err.Error(), "InvalidRange") {
			return 0, io.EOF
		}

		return 0, fmt.Errorf("failed to read from S3: %w", err)
	}
	defer func() { _ = result.Body.Close() }()

	n, err = io.ReadFull(result.Body, p)
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		// Object is smaller than the requested range
		return n, io.EOF
	}

	return n, err
}

// readAll downloads the whole object. Missing objects read as empty.
func (s *S3ContentStore) readAll(ctx context.Context, id metadata.ContentID) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read existing content: %w", err)
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read existing content: %w", err)
	}

	return data, nil
}

// GetContentSize returns the size of the content in bytes.
//
// This performs a HEAD request to S3 to retrieve object metadata without
// downloading the content.
func (s *S3ContentStore) GetContentSize(ctx context.Context, id metadata.ContentID) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	result, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("content %s: %w", id, content.ErrContentNotFound)
		}
		return 0, fmt.Errorf("failed to head object: %w", err)
	}

	if result.ContentLength == nil {
		return 0, fmt.Errorf("content length not available for %s", id)
	}

	return uint64(*result.ContentLength), nil
}

// ContentExists checks if content with the given ID exists in S3.
func (s *S3ContentStore) ContentExists(ctx context.Context, id metadata.ContentID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getObjectKey(id)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// ListAllContent lists all objects under the key prefix.
func (s *S3ContentStore) ListAllContent(ctx context.Context) ([]metadata.ContentID, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var contentIDs []metadata.ContentID

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.keyPrefix),
	})

	for paginator.HasMorePages() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			key := strings.TrimPrefix(*obj.Key, s.keyPrefix)
			contentIDs = append(contentIDs, metadata.ContentID(key))
		}
	}

	return contentIDs, nil
}
