package cmdutil

import (
	"bytes"
	"encoding/csv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configFile string

func RegisterConfigFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"YAML file whose keys set any flag not given on the command line",
	)
}

// LoadConfig applies the config file, if any, to the flags of cmd which were
// not set explicitly. Keys are flag names.
func LoadConfig(cmd *cobra.Command) error {
	if configFile == "" {
		return nil
	}
	v := viper.New()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "error reading config file %s", configFile)
	}
	for _, key := range v.AllKeys() {
		f := cmd.Flags().Lookup(key)
		if f == nil {
			return errors.Newf("unknown key %q in config file %s", key, configFile)
		}
		if f.Changed {
			continue
		}
		val := v.GetString(key)
		if f.Value.Type() == "stringSlice" {
			var err error
			if val, err = joinSlice(v.GetStringSlice(key)); err != nil {
				return errors.Wrapf(err, "error reading %s from config file", key)
			}
		}
		if err := cmd.Flags().Set(key, val); err != nil {
			return errors.Wrapf(err, "error setting %s from config file", key)
		}
	}
	return nil
}

// joinSlice formats a list the way a slice flag parses its value.
func joinSlice(vals []string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(vals); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
