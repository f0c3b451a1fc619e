package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog/log"
)

// SpacesStorage keeps calendar documents in a DigitalOcean Spaces (S3) bucket.
type SpacesStorage struct {
	client s3iface.S3API
	bucket string
	prefix string
}

func NewSpacesStorage(endpoint, region, bucket, prefix, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return NewSpacesStorageWithClient(s3.New(sess), bucket, prefix), nil
}

func NewSpacesStorageWithClient(client s3iface.S3API, bucket, prefix string) *SpacesStorage {
	return &SpacesStorage{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (ss *SpacesStorage) key(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	if ss.prefix == "" {
		return clean, nil
	}
	return path.Join(ss.prefix, clean), nil
}

func (ss *SpacesStorage) Read(ctx context.Context, name string) ([]byte, error) {
	key, err := ss.key(name)
	if err != nil {
		return nil, err
	}
	out, err := ss.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ss.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to get %s from Spaces: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from Spaces: %w", key, err)
	}
	return data, nil
}

func (ss *SpacesStorage) List(ctx context.Context, dir string) ([]string, error) {
	key, err := ss.key(dir)
	if err != nil {
		return nil, err
	}
	prefix := key + "/"

	var names []string
	err = ss.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(ss.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, p := range page.CommonPrefixes {
			names = append(names, strings.TrimSuffix(strings.TrimPrefix(aws.StringValue(p.Prefix), prefix), "/"))
		}
		for _, o := range page.Contents {
			names = append(names, strings.TrimPrefix(aws.StringValue(o.Key), prefix))
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s in Spaces: %w", prefix, err)
	}
	return names, nil
}

func (ss *SpacesStorage) Write(ctx context.Context, name string, data []byte) error {
	key, err := ss.key(name)
	if err != nil {
		return err
	}
	_, err = ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to upload calendar to Spaces")
		return fmt.Errorf("failed to upload to Spaces: %w", err)
	}
	return nil
}

func isNoSuchKey(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
