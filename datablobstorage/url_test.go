package datablobstorage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResourceURL(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		r        Resource
		expected string
	}{
		{
			desc:     "s3",
			r:        &s3Resource{key: "ghjk.csv", store: &s3Store{bucket: "nangs", prefix: normalizePrefix("/asdf/")}},
			expected: "s3://nangs/asdf/ghjk.csv",
		},
		{
			desc:     "s3 without prefix",
			r:        &s3Resource{key: "ghjk.csv", store: &s3Store{bucket: "nangs"}},
			expected: "s3://nangs/ghjk.csv",
		},
		{
			desc:     "gcp",
			r:        &gcpResource{key: "ghjk.csv", store: &gcpStore{bucket: "nangs", prefix: normalizePrefix("asdf")}},
			expected: "gs://nangs/asdf/ghjk.csv",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			require.Equal(t, tc.expected, tc.r.URL())
			require.Equal(t, "ghjk.csv", tc.r.Key())
		})
	}
}
