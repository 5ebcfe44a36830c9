package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"resume-match/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sirupsen/logrus"
)

// ObjectAPI is the subset of the S3 client used by S3 storage.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type S3 struct {
	client ObjectAPI
	bucket string
	prefix string
	log    logrus.FieldLogger
}

func NewS3(ctx context.Context, cfg config.StorageConfig, logger logrus.FieldLogger) (*S3, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region := strings.TrimSpace(cfg.S3Region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := strings.TrimSpace(cfg.S3Endpoint); ep != "" {
			o.BaseEndpoint = aws.String(ep)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return NewS3WithClient(client, cfg.S3Bucket, cfg.S3Prefix, logger), nil
}

func NewS3WithClient(client ObjectAPI, bucket, prefix string, logger logrus.FieldLogger) *S3 {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &S3{
		client: client,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(strings.TrimSpace(prefix), "/"),
		log:    logger,
	}
}

func (s *S3) key(ref string) string {
	if s.prefix == "" {
		return ref
	}
	return s.prefix + "/" + ref
}

func (s *S3) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}

	// PutObject needs a seekable body for checksums.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	for i := 1; i <= maxNameAttempts; i++ {
		ref := name
		if i > 1 {
			ref = variant(name, i)
		}
		exists, err := s.exists(ctx, ref)
		if err != nil {
			return "", err
		}
		if exists {
			continue
		}

		_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(s.key(ref)),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/pdf"),
		})
		if err != nil {
			return "", fmt.Errorf("put object: %w", err)
		}
		s.log.WithFields(logrus.Fields{"bucket": s.bucket, "key": s.key(ref)}).Debug("object stored")
		return ref, nil
	}
	return "", fmt.Errorf("no free name for %q", name)
}

func (s *S3) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	ref, err := cleanName(ref)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	return out.Body, nil
}

func (s *S3) exists(ctx context.Context, ref string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref)),
	})
	if err == nil {
		return true, nil
	}
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return false, nil
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return false, nil
	}
	return false, fmt.Errorf("head object: %w", err)
}
