package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/relabs-tech/gestion/core/logger"
)

// S3 is the implementation of the archive Driver for AWS S3
type S3 struct {
	client      *s3.Client
	uploader    *manager.Uploader
	bucket      string
	baseKeyName string
}

// NewS3 returns a new S3. Without an access id the default credential chain is used.
func NewS3(ctx context.Context, s3Config S3Configuration) (*S3, error) {
	if s3Config.AWSBucketName == "" {
		return nil, fmt.Errorf("AWSBucketName must not be empty")
	}

	options := []func(*config.LoadOptions) error{config.WithRegion(s3Config.AWSRegion)}
	if len(s3Config.AccessID) > 0 {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3Config.AccessID, s3Config.AccessKey, "")))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, options...)
	if err != nil {
		return nil, err
	}
	logger.Default().Debugln("archive on S3 enabled:", s3Config.AWSBucketName)
	client := s3.NewFromConfig(awsConfig)
	return &S3{
		client:      client,
		uploader:    manager.NewUploader(client),
		bucket:      s3Config.AWSBucketName,
		baseKeyName: s3Config.KeyPrefix,
	}, nil
}

// Put uploads data into the key object
func (s *S3) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.baseKeyName + key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", s.baseKeyName+key, err)
	}
	logger.FromContext(ctx).Debugln("archive: uploaded", s.baseKeyName+key)
	return nil
}

// Get downloads the key object
func (s *S3) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.baseKeyName + key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Delete deletes the key object
func (s *S3) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.baseKeyName + key),
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("could not delete", s.baseKeyName+key)
		return err
	}
	return nil
}

// List lists all keys with prefix. The returned keys do not carry the key prefix.
func (s *S3) List(ctx context.Context, prefix string) ([]string, error) {
	keys := []string{}
	var continuationToken *string
	for {
		resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.baseKeyName + prefix),
			ContinuationToken: continuationToken,
		})
		if err != nil {
			logger.FromContext(ctx).WithError(err).Errorln("could not list objects from", s.bucket)
			return nil, err
		}
		for _, item := range resp.Contents {
			keys = append(keys, strings.TrimPrefix(aws.ToString(item.Key), s.baseKeyName))
		}
		continuationToken = resp.NextContinuationToken
		if continuationToken == nil {
			break
		}
	}
	sort.Strings(keys)
	return keys, nil
}
