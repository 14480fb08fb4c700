package draft

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/debemdeboas/draftkeep/internal/compression"
	"github.com/debemdeboas/draftkeep/internal/config"
)

// S3API is the subset of *s3.Client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store keeps the draft as a single object. Works with any S3-compatible
// endpoint (R2, MinIO) when Endpoint is set.
type S3Store struct {
	client     S3API
	bucket     string
	key        string
	compressor compression.Compressor
}

func NewS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing S3 client: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func NewS3Store(client S3API, bucket, key string, c compression.Compressor) *S3Store {
	return &S3Store{
		client:     client,
		bucket:     bucket,
		key:        key,
		compressor: c,
	}
}

func (s *S3Store) Put(ctx context.Context, r *Record) error {
	e, err := encode(r, s.compressor)
	if err != nil {
		return storageErr("put", "s3", err)
	}
	data, err := marshalEnvelope(e)
	if err != nil {
		return storageErr("put", "s3", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return storageErr("put", "s3", err)
	}

	draftLogger.Debug().Str("bucket", s.bucket).Str("key", s.key).Str("hash", e.Hash).Msg("Draft saved")
	return nil
}

func (s *S3Store) Get(ctx context.Context) (*Record, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if isNoSuchKey(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get", "s3", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, storageErr("get", "s3", fmt.Errorf("error reading draft object: %w", err))
	}

	e, err := unmarshalEnvelope(data)
	if err != nil {
		return nil, storageErr("get", "s3", err)
	}
	r, err := decode(e)
	if err != nil {
		return nil, storageErr("get", "s3", err)
	}
	return r, nil
}

func (s *S3Store) Remove(ctx context.Context) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil && !isNoSuchKey(err) {
		return storageErr("remove", "s3", err)
	}
	return nil
}

func (s *S3Store) Close() error {
	return nil
}

func isNoSuchKey(err error) bool {
	if err == nil {
		return false
	}

	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
