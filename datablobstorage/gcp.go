package datablobstorage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

type gcpStore struct {
	logger zerolog.Logger
	bucket string
	prefix string
	client *storage.Client
}

// NewGCPStore returns a store over the objects of bucket under prefix.
func NewGCPStore(logger zerolog.Logger, client *storage.Client, bucket, prefix string) *gcpStore {
	return &gcpStore{
		bucket: bucket,
		prefix: normalizePrefix(prefix),
		client: client,
		logger: logger,
	}
}

func (s *gcpStore) List(ctx context.Context) ([]Resource, error) {
	var ret []Resource
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{
		Prefix:    s.prefix,
		Delimiter: "/",
	})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error listing gs://%s/%s", s.bucket, s.prefix)
		}
		// Prefix is only set on synthetic directory entries.
		if attrs.Prefix != "" {
			continue
		}
		key := strings.TrimPrefix(attrs.Name, s.prefix)
		if key == "" {
			continue
		}
		ret = append(ret, &gcpResource{store: s, key: key})
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Key() < ret[j].Key()
	})
	return ret, nil
}

func (s *gcpStore) CreateFromReader(
	ctx context.Context, r io.Reader, key string,
) (Resource, error) {
	fileName := s.prefix + key
	s.logger.Debug().Str("file", fileName).Msgf("creating new file")
	wc := s.client.Bucket(s.bucket).Object(fileName).NewWriter(ctx)
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return nil, err
	}
	if err := wc.Close(); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("file", fileName).Msgf("gcp file creation complete")
	return &gcpResource{
		store: s,
		key:   key,
	}, nil
}

type gcpResource struct {
	store *gcpStore
	key   string
}

func (r *gcpResource) Key() string {
	return r.key
}

func (r *gcpResource) URL() string {
	return fmt.Sprintf("gs://%s/%s%s", r.store.bucket, r.store.prefix, r.key)
}

func (r *gcpResource) Reader(ctx context.Context) (io.ReadCloser, error) {
	return r.store.client.Bucket(r.store.bucket).Object(r.store.prefix + r.key).NewReader(ctx)
}
