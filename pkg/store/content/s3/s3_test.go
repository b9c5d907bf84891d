package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittofd/pkg/store/content"
	contenttesting "github.com/marmos91/dittofd/pkg/store/content/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket implementing Client.
type fakeS3 struct {
	mu      sync.Mutex
	bucket  string
	objects map[string][]byte
}

func newFakeS3(bucket string) *fakeS3 {
	return &fakeS3{bucket: bucket, objects: make(map[string][]byte)}
}

func (f *fakeS3) HeadBucket(_ context.Context, in *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	if aws.ToString(in.Bucket) != f.bucket {
		return nil, &types.NotFound{}
	}
	return &s3.HeadBucketOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}

	body := data
	if in.Range != nil {
		var start, end int64
		if _, err := fmt.Sscanf(aws.ToString(in.Range), "bytes=%d-%d", &start, &end); err != nil {
			return nil, err
		}
		if start >= int64(len(data)) {
			return nil, errors.New("api error InvalidRange: The requested range is not satisfiable")
		}
		end = min(end, int64(len(data))-1)
		body = data[start : end+1]
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(append([]byte(nil), body...)))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, key := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
	}
	return out, nil
}

// countingMetrics records operation names.
type countingMetrics struct {
	mu    sync.Mutex
	ops   map[string]int
	bytes map[string]int64
}

func (m *countingMetrics) ObserveOperation(operation string, _ time.Duration, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops[operation]++
}

func (m *countingMetrics) RecordBytes(operation string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytes[operation] += n
}

func newTestStore(t *testing.T, metrics S3Metrics) *S3ContentStore {
	t.Helper()
	store, err := NewS3ContentStore(context.Background(), S3ContentStoreConfig{
		Client:    newFakeS3("bucket"),
		Bucket:    "bucket",
		KeyPrefix: "content/",
		Metrics:   metrics,
	})
	require.NoError(t, err)
	return store
}

// TestS3ContentStore runs the complete ContentStore test suite
// against the S3ContentStore implementation backed by a fake bucket.
func TestS3ContentStore(t *testing.T) {
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.ContentStore {
			return newTestStore(t, nil)
		},
	}

	suite.Run(t)
}

func TestNewS3ContentStore_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3ContentStore(ctx, S3ContentStoreConfig{Bucket: "bucket"})
	assert.Error(t, err)

	_, err = NewS3ContentStore(ctx, S3ContentStoreConfig{Client: newFakeS3("bucket")})
	assert.Error(t, err)

	_, err = NewS3ContentStore(ctx, S3ContentStoreConfig{Client: newFakeS3("bucket"), Bucket: "other"})
	assert.Error(t, err)
}

func TestS3ContentStore_KeyPrefixAndMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := &countingMetrics{ops: map[string]int{}, bytes: map[string]int64{}}
	store := newTestStore(t, metrics)

	require.NoError(t, store.WriteAt(ctx, "abc", []byte("hello"), 0))

	buf := make([]byte, 5)
	n, err := store.ReadAt(ctx, "abc", buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	fake := store.client.(*fakeS3)
	_, ok := fake.objects["content/abc"]
	assert.True(t, ok, "object must be stored under the key prefix")

	assert.Equal(t, 1, metrics.ops["WriteAt"])
	assert.Equal(t, 1, metrics.ops["ReadAt"])
	assert.Equal(t, int64(5), metrics.bytes["write"])
	assert.Equal(t, int64(5), metrics.bytes["read"])
}

func TestS3ContentStore_TooLarge(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, nil)

	err := store.WriteAt(ctx, "a", []byte("x"), 1<<62)
	assert.ErrorIs(t, err, content.ErrTooLarge)

	err = store.Truncate(ctx, "a", content.MaxBufferedSize+1)
	assert.ErrorIs(t, err, content.ErrTooLarge)
}
