package datablobstorage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

type s3Store struct {
	logger  zerolog.Logger
	bucket  string
	prefix  string
	session *session.Session
}

// NewS3Store returns a store over the objects of bucket under prefix.
func NewS3Store(logger zerolog.Logger, session *session.Session, bucket, prefix string) *s3Store {
	return &s3Store{
		bucket:  bucket,
		prefix:  normalizePrefix(prefix),
		session: session,
		logger:  logger,
	}
}

func (s *s3Store) List(ctx context.Context) ([]Resource, error) {
	var ret []Resource
	if err := s3.New(s.session).ListObjectsV2PagesWithContext(
		ctx,
		&s3.ListObjectsV2Input{
			Bucket:    aws.String(s.bucket),
			Prefix:    aws.String(s.prefix),
			Delimiter: aws.String("/"),
		},
		func(page *s3.ListObjectsV2Output, lastPage bool) bool {
			for _, obj := range page.Contents {
				key := strings.TrimPrefix(aws.StringValue(obj.Key), s.prefix)
				if key == "" {
					continue
				}
				ret = append(ret, &s3Resource{store: s, key: key})
			}
			return true
		},
	); err != nil {
		return nil, errors.Wrapf(err, "error listing s3://%s/%s", s.bucket, s.prefix)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Key() < ret[j].Key()
	})
	return ret, nil
}

func (s *s3Store) CreateFromReader(
	ctx context.Context, r io.Reader, key string,
) (Resource, error) {
	fileName := s.prefix + key
	s.logger.Debug().Str("file", fileName).Msgf("creating new file")
	if _, err := s3manager.NewUploader(s.session).UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(fileName),
		Body:   r,
	}); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("file", fileName).Msgf("s3 file creation complete")
	return &s3Resource{store: s, key: key}, nil
}

type s3Resource struct {
	store *s3Store
	key   string
}

func (r *s3Resource) Key() string {
	return r.key
}

func (r *s3Resource) URL() string {
	return fmt.Sprintf("s3://%s/%s%s", r.store.bucket, r.store.prefix, r.key)
}

func (r *s3Resource) Reader(ctx context.Context) (io.ReadCloser, error) {
	out, err := s3.New(r.store.session).GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.store.bucket),
		Key:    aws.String(r.store.prefix + r.key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// normalizePrefix makes a non-empty prefix end in a single "/".
func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
