//go:build integration

package s3_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittofd/pkg/config"
	"github.com/marmos91/dittofd/pkg/fd"
	"github.com/marmos91/dittofd/pkg/store/content"
	contenttesting "github.com/marmos91/dittofd/pkg/store/content/testing"
	"github.com/marmos91/dittofd/pkg/vfs"
)

const region = "us-east-1"

func localstackEndpoint() string {
	if endpoint := os.Getenv("LOCALSTACK_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "http://localhost:4566"
}

// setupTestBucket creates a bucket on Localstack and removes it, with every
// object in it, when the test ends.
func setupTestBucket(t *testing.T, bucketName string) {
	t.Helper()
	ctx := context.Background()

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(region),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	if err != nil {
		t.Fatalf("Failed to load AWS config: %v", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(localstackEndpoint())
		o.UsePathStyle = true
	})

	if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucketName)}); err != nil {
		t.Fatalf("Failed to create test bucket: %v", err)
	}

	t.Cleanup(func() {
		listResp, _ := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucketName)})
		if listResp != nil {
			for _, obj := range listResp.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucketName), Key: obj.Key})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucketName)})
	})
}

func s3Section(bucketName, prefix string) map[string]any {
	return map[string]any{
		"region":            region,
		"bucket":            bucketName,
		"key_prefix":        prefix,
		"endpoint":          localstackEndpoint(),
		"access_key_id":     "test",
		"secret_access_key": "test",
		"max_retries":       3,
	}
}

// TestS3ContentStore_Integration runs the content store suite against
// Localstack, building each store the way the daemon does.
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3ContentStore_Integration(t *testing.T) {
	bucketName := "dittofd-test-bucket"
	setupTestBucket(t, bucketName)

	testCounter := 0
	suite := &contenttesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.ContentStore {
			testCounter++
			store, err := config.CreateContentStore(context.Background(), &config.ContentConfig{
				Type: "s3",
				S3:   s3Section(bucketName, fmt.Sprintf("test-%d/", testCounter)),
			})
			if err != nil {
				t.Fatalf("Failed to create S3 content store for test %d: %v", testCounter, err)
			}
			return store
		},
	}

	suite.Run(t)
}

// TestKernel_S3Content drives descriptor operations through a kernel whose
// file bytes live in S3.
func TestKernel_S3Content(t *testing.T) {
	ctx := context.Background()
	bucketName := "dittofd-kernel-test"
	setupTestBucket(t, bucketName)

	cfg := config.GetDefaultConfig()
	cfg.Console.Input = "none"
	cfg.Console.Output = "none"
	cfg.Content.Type = "s3"
	cfg.Content.S3 = s3Section(bucketName, "kernel/")

	rt, err := config.BuildKernel(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("BuildKernel failed: %v", err)
	}
	defer func() { _ = rt.Close(ctx) }()

	proc, err := rt.Kernel.NewProcess(ctx)
	if err != nil {
		t.Fatalf("NewProcess failed: %v", err)
	}

	f, err := proc.Open(ctx, "/object.txt", vfs.O_RDWR|vfs.O_CREAT, 0644)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := proc.Write(ctx, f, []byte("stored remotely")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := proc.Lseek(ctx, f, 7, fd.SEEK_SET); err != nil {
		t.Fatalf("Lseek failed: %v", err)
	}

	buf := make([]byte, 32)
	n, err := proc.Read(ctx, f, buf)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(buf[:n]) != "remotely" {
		t.Errorf("Expected %q, got %q", "remotely", buf[:n])
	}
	if err := proc.Close(ctx, f); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}
