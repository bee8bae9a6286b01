package datablobstorage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

type localStore struct {
	logger   zerolog.Logger
	basePath string
}

func NewLocalStore(logger zerolog.Logger, basePath string) (*localStore, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &localStore{
		logger:   logger,
		basePath: basePath,
	}, nil
}

func (l *localStore) List(ctx context.Context) ([]Resource, error) {
	entries, err := os.ReadDir(l.basePath)
	if err != nil {
		return nil, errors.Wrapf(err, "error listing %s", l.basePath)
	}
	var ret []Resource
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		ret = append(ret, &localResource{key: e.Name(), path: filepath.Join(l.basePath, e.Name())})
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Key() < ret[j].Key()
	})
	return ret, nil
}

func (l *localStore) CreateFromReader(
	ctx context.Context, r io.Reader, key string,
) (Resource, error) {
	p := filepath.Join(l.basePath, key)
	logger := l.logger.With().Str("path", p).Logger()
	logger.Debug().Msgf("creating file")
	f, err := os.Create(p)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	logger.Debug().Msgf("wrote file")
	return &localResource{key: key, path: p}, nil
}

type localResource struct {
	key  string
	path string
}

func (l *localResource) Key() string {
	return l.key
}

func (l *localResource) URL() string {
	return l.path
}

func (l *localResource) Reader(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(l.path)
}
