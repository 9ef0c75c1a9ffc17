package manifest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Store loads and saves manifest documents by a caller-chosen key (a file
// name for FileStore, an object key for S3Store).
type Store interface {
	Load(ctx context.Context, key string) (Manifest, error)
	Save(ctx context.Context, key string, m Manifest) error
}

// FileStore loads and saves manifests as YAML files under a root directory.
type FileStore struct {
	root string
}

// NewFileStore returns a Store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{root: dir}
}

func (f *FileStore) Load(_ context.Context, key string) (Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(f.root, key))
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: load %s: %w", key, err)
	}
	return Parse(raw)
}

func (f *FileStore) Save(_ context.Context, key string, m Manifest) error {
	raw, err := Serialize(m)
	if err != nil {
		return err
	}
	path := filepath.Join(f.root, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("manifest: save %s: %w", key, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("manifest: save %s: %w", key, err)
	}
	return nil
}

// S3Config configures an S3-backed manifest Store. A deployment that keeps
// automation manifests in an object store (rather than on local disk) sets
// this up instead of FileStore; both satisfy the same Store interface.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string // non-empty for MinIO / S3-compatible endpoints
	Prefix       string
	UsePathStyle bool
	AccessKey    string
	SecretKey    string
}

// S3Store implements Store over AWS SDK Go v2, following the same
// object-store client construction idiom as internal/objectstore/s3.go:
// optional static credentials, optional custom endpoint and path-style
// addressing for MinIO-compatible deployments.
type S3Store struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Store builds an S3Store from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("manifest: s3 bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("manifest: load aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.BaseEndpoint = aws.String(cfg.Endpoint) })
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) { o.UsePathStyle = true })
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
		prefix: strings.TrimSuffix(cfg.Prefix, "/"),
	}, nil
}

func (s *S3Store) fullKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *S3Store) Load(ctx context.Context, key string) (Manifest, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.fullKey(key)),
	})
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: s3 get %s: %w", key, err)
	}
	defer out.Body.Close()
	raw, err := io.ReadAll(out.Body)
	if err != nil {
		return Manifest{}, fmt.Errorf("manifest: s3 read %s: %w", key, err)
	}
	return Parse(raw)
}

func (s *S3Store) Save(ctx context.Context, key string, m Manifest) error {
	raw, err := Serialize(m)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.fullKey(key)),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/yaml"),
	})
	if err != nil {
		return fmt.Errorf("manifest: s3 put %s: %w", key, err)
	}
	return nil
}
