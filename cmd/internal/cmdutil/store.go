package cmdutil

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/tablecmp/datablobstorage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

type storeConfig struct {
	dir       string
	s3Bucket  string
	gcpBucket string
	prefix    string
}

var storeConfigs = make(map[string]*storeConfig)

// RegisterStoreFlags registers the flags locating the store of the given
// role, e.g. --source-dir, --source-s3-bucket.
func RegisterStoreFlags(cmd *cobra.Command, role string, defaultDir string) {
	cfg := &storeConfig{dir: defaultDir}
	storeConfigs[role] = cfg
	cmd.PersistentFlags().StringVar(
		&cfg.dir,
		role+"-dir",
		cfg.dir,
		fmt.Sprintf("local directory of the %s files", role),
	)
	cmd.PersistentFlags().StringVar(
		&cfg.s3Bucket,
		role+"-s3-bucket",
		"",
		fmt.Sprintf("s3 bucket of the %s files; takes precedence over --%s-dir", role, role),
	)
	cmd.PersistentFlags().StringVar(
		&cfg.gcpBucket,
		role+"-gcp-bucket",
		"",
		fmt.Sprintf("gcp bucket of the %s files; takes precedence over --%s-dir", role, role),
	)
	cmd.PersistentFlags().StringVar(
		&cfg.prefix,
		role+"-prefix",
		"",
		fmt.Sprintf("key prefix of the %s files within a bucket", role),
	)
}

// LoadStore opens the store of the given role.
func LoadStore(ctx context.Context, logger zerolog.Logger, role string) (datablobstorage.Store, error) {
	cfg, ok := storeConfigs[role]
	if !ok {
		return nil, errors.AssertionFailedf("no store flags registered for %s", role)
	}
	logger = logger.With().Str("store", role).Logger()
	switch {
	case cfg.s3Bucket != "" && cfg.gcpBucket != "":
		return nil, errors.Newf("only one of --%s-s3-bucket and --%s-gcp-bucket may be set", role, role)
	case cfg.gcpBucket != "":
		creds, err := google.FindDefaultCredentials(ctx, storage.ScopeReadWrite)
		if err != nil {
			return nil, errors.Wrap(err, "error finding gcp credentials")
		}
		gcpClient, err := storage.NewClient(ctx, option.WithCredentials(creds))
		if err != nil {
			return nil, err
		}
		return datablobstorage.NewGCPStore(logger, gcpClient, cfg.gcpBucket, cfg.prefix), nil
	case cfg.s3Bucket != "":
		sess, err := session.NewSession()
		if err != nil {
			return nil, err
		}
		if _, err := sess.Config.Credentials.Get(); err != nil {
			return nil, errors.Wrap(err, "error finding s3 credentials")
		}
		return datablobstorage.NewS3Store(logger, sess, cfg.s3Bucket, cfg.prefix), nil
	case cfg.dir != "":
		return datablobstorage.NewLocalStore(logger, cfg.dir)
	}
	return nil, errors.Newf("%s files must be configured (--%s-dir, --%s-s3-bucket, --%s-gcp-bucket)", role, role, role, role)
}
