package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dittofd/internal/logger"
	"github.com/marmos91/dittofd/pkg/metrics"
	"github.com/marmos91/dittofd/pkg/store/content"
	contentFs "github.com/marmos91/dittofd/pkg/store/content/fs"
	contentMemory "github.com/marmos91/dittofd/pkg/store/content/memory"
	contentS3 "github.com/marmos91/dittofd/pkg/store/content/s3"
	"github.com/marmos91/dittofd/pkg/store/metadata"
	"github.com/marmos91/dittofd/pkg/store/metadata/badger"
	metadataMemory "github.com/marmos91/dittofd/pkg/store/metadata/memory"
	"github.com/mitchellh/mapstructure"
)

// CreateContentStore creates a content store based on configuration.
//
// This factory function uses the Type field to determine which store implementation
// to create, then decodes the type-specific configuration from the corresponding
// map and passes it to the store's constructor.
//
// Supported types:
//   - "memory": In-memory storage, lost on exit
//   - "filesystem": Uses pkg/store/content/fs (local filesystem storage)
//   - "s3": Uses pkg/store/content/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Content store configuration
//
// Returns:
//   - content.ContentStore: Initialized content store
//   - error: Configuration or initialization error
func CreateContentStore(ctx context.Context, cfg *ContentConfig) (content.ContentStore, error) {
	switch cfg.Type {
	case "memory":
		return createMemoryContentStore(ctx, cfg.Memory)
	case "filesystem":
		return createFilesystemContentStore(ctx, cfg.Filesystem)
	case "s3":
		return createS3ContentStore(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown content store type: %q", cfg.Type)
	}
}

// createMemoryContentStore creates an in-memory content store.
func createMemoryContentStore(ctx context.Context, options map[string]any) (content.ContentStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type MemoryContentStoreConfig struct {
		MaxSizeBytes uint64 `mapstructure:"max_size_bytes"`
	}

	var storeCfg MemoryContentStoreConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &storeCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to decode memory content store config: %w", err)
	}

	return contentMemory.NewMemoryContentStore(storeCfg.MaxSizeBytes), nil
}

// createFilesystemContentStore creates a filesystem-based content store.
func createFilesystemContentStore(ctx context.Context, options map[string]any) (content.ContentStore, error) {
	type FilesystemContentStoreConfig struct {
		Path string `mapstructure:"path"`
	}

	var storeCfg FilesystemContentStoreConfig
	if err := mapstructure.Decode(options, &storeCfg); err != nil {
		return nil, fmt.Errorf("failed to decode filesystem content store config: %w", err)
	}

	if storeCfg.Path == "" {
		return nil, fmt.Errorf("filesystem content store: path is required")
	}

	store, err := contentFs.NewFSContentStore(ctx, storeCfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create filesystem content store: %w", err)
	}

	logger.Info("Filesystem content store initialized: path=%s", storeCfg.Path)
	return store, nil
}

// S3Options holds the decoded content.s3 section.
type S3Options struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	KeyPrefix       string `mapstructure:"key_prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	MaxRetries      int    `mapstructure:"max_retries"`
}

// decodeS3Options decodes and checks the content.s3 section.
func decodeS3Options(options map[string]any) (S3Options, error) {
	var opts S3Options
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &opts,
	})
	if err != nil {
		return opts, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return opts, fmt.Errorf("failed to decode S3 content store config: %w", err)
	}

	if opts.Bucket == "" {
		return opts, fmt.Errorf("S3 content store: bucket is required")
	}
	if opts.Region == "" {
		return opts, fmt.Errorf("S3 content store: region is required")
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 10
	}
	return opts, nil
}

// newS3Client builds an S3 client from the decoded options.
func newS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var configOptions []func(*awsConfig.LoadOptions) error

	configOptions = append(configOptions, awsConfig.WithRegion(opts.Region))

	// Static credentials if provided, otherwise the default credential chain
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := opts.MaxRetries
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	cfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		// Custom endpoints (MinIO, Localstack) need path-style addressing
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return client, nil
}

// createS3ContentStore creates an S3-based content store.
func createS3ContentStore(ctx context.Context, options map[string]any) (content.ContentStore, error) {
	opts, err := decodeS3Options(options)
	if err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 1: Create S3 Client
	// ========================================================================

	client, err := newS3Client(ctx, opts)
	if err != nil {
		return nil, err
	}

	// ========================================================================
	// Step 2: Create S3 Content Store
	// ========================================================================

	store, err := contentS3.NewS3ContentStore(ctx, contentS3.S3ContentStoreConfig{
		Client:    client,
		Bucket:    opts.Bucket,
		KeyPrefix: opts.KeyPrefix,
		Metrics:   metrics.NewS3Metrics(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 content store: %w", err)
	}

	logger.Info("S3 content store initialized: bucket=%s, region=%s, prefix=%s",
		opts.Bucket, opts.Region, opts.KeyPrefix)

	return store, nil
}

// CreateMetadataStore creates a metadata store based on configuration.
//
// This factory function uses the Type field to determine which store implementation
// to create, then decodes the type-specific configuration from the corresponding
// map and passes it to the store's constructor.
//
// When metrics are enabled the store is wrapped so that every operation is
// timed and counted.
//
// Supported types:
//   - "memory": Uses pkg/store/metadata/memory (in-memory storage, ephemeral)
//   - "badger": Uses pkg/store/metadata/badger (BadgerDB storage, persistent)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Metadata store configuration
//
// Returns:
//   - metadata.MetadataStore: Initialized metadata store
//   - error: Configuration or initialization error
func CreateMetadataStore(ctx context.Context, cfg *MetadataConfig) (metadata.MetadataStore, error) {
	var (
		store metadata.MetadataStore
		err   error
	)

	switch cfg.Type {
	case "memory":
		store, err = createMemoryMetadataStore(ctx)
	case "badger":
		store, err = createBadgerMetadataStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown metadata store type: %q (supported: memory, badger)", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	return metadata.Instrument(store, metrics.NewMetadataMetrics(cfg.Type)), nil
}

// createMemoryMetadataStore creates an in-memory metadata store.
func createMemoryMetadataStore(ctx context.Context) (metadata.MetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return metadataMemory.NewMemoryMetadataStore(), nil
}

// createBadgerMetadataStore creates a BadgerDB-based persistent metadata store.
func createBadgerMetadataStore(ctx context.Context, options map[string]any) (metadata.MetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var storeCfg badger.BadgerMetadataStoreConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &storeCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(options); err != nil {
		return nil, fmt.Errorf("failed to decode badger metadata store options: %w", err)
	}

	if storeCfg.DBPath == "" && !storeCfg.InMemory {
		return nil, fmt.Errorf("badger metadata store: db_path is required")
	}

	store, err := badger.NewBadgerMetadataStore(ctx, storeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger metadata store: %w", err)
	}

	logger.Info("Badger metadata store initialized: path=%s, in_memory=%v", storeCfg.DBPath, storeCfg.InMemory)
	return store, nil
}
