package config

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storacha/sizetracker/internal/failure"
)

func TestLoadFrom(t *testing.T) {
	t.Setenv("AWS_REGION", "us-west-2")

	t.Run("applies defaults", func(t *testing.T) {
		v := viper.New()
		v.Set("bucket_name", "bucket")
		v.Set("table_name", "sizes")

		cfg, err := LoadFrom(context.Background(), v)
		require.NoError(t, err)

		assert.Equal(t, "bucket", cfg.BucketName)
		assert.Equal(t, "sizes", cfg.TableName)
		assert.Equal(t, 60*time.Second, cfg.RecentWindow())
		assert.Equal(t, "plot.png", cfg.PlotObjectKey)
		assert.Equal(t, "synthetic-zero-point", cfg.EmptyWindowPolicy)
		assert.Equal(t, "MaxSizeIndex", cfg.MaxSizeIndexName)
		assert.Equal(t, ObjectStoreS3, cfg.ObjectStore)
		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, time.Duration(0), cfg.PlotIntervalDuration())
		assert.Equal(t, "us-west-2", cfg.AWSConfig.Region)
	})

	t.Run("reads plain environment variables", func(t *testing.T) {
		t.Setenv("BUCKET_NAME", "env-bucket")
		t.Setenv("DDB_TABLE_NAME", "env-table")
		t.Setenv("RECENT_WINDOW_SECONDS", "10")
		t.Setenv("EMPTY_WINDOW_POLICY", "fail")
		t.Setenv("MAX_SIZE_INDEX_NAME", "")

		cfg, err := LoadFrom(context.Background(), viper.New())
		require.NoError(t, err)

		assert.Equal(t, "env-bucket", cfg.BucketName)
		assert.Equal(t, "env-table", cfg.TableName)
		assert.Equal(t, 10*time.Second, cfg.RecentWindow())
		assert.Equal(t, "fail", cfg.EmptyWindowPolicy)
		assert.Empty(t, cfg.MaxSizeIndexName)
	})

	t.Run("prefixed environment variables win", func(t *testing.T) {
		t.Setenv("TABLE_NAME", "plain")
		t.Setenv("SIZETRACKER_TABLE_NAME", "prefixed")
		t.Setenv("BUCKET_NAME", "bucket")

		cfg, err := LoadFrom(context.Background(), viper.New())
		require.NoError(t, err)
		assert.Equal(t, "prefixed", cfg.TableName)
	})

	t.Run("invalid configurations", func(t *testing.T) {
		cases := map[string]map[string]any{
			"missing bucket":          {"table_name": "sizes"},
			"missing table":           {"bucket_name": "bucket"},
			"zero window":             {"bucket_name": "bucket", "table_name": "sizes", "recent_window_seconds": 0},
			"unknown policy":          {"bucket_name": "bucket", "table_name": "sizes", "empty_window_policy": "skip"},
			"unknown object store":    {"bucket_name": "bucket", "table_name": "sizes", "object_store": "gcs"},
			"minio without endpoint":  {"bucket_name": "bucket", "table_name": "sizes", "object_store": "minio"},
			"negative plot interval":  {"bucket_name": "bucket", "table_name": "sizes", "plot_interval": -1},
			"malformed endpoint":      {"bucket_name": "bucket", "table_name": "sizes", "aws_endpoint": "not a url"},
			"port out of range":       {"bucket_name": "bucket", "table_name": "sizes", "port": 70000},
			"empty plot key override": {"bucket_name": "bucket", "table_name": "sizes", "plot_object_key": ""},
			"admin without password":  {"bucket_name": "bucket", "table_name": "sizes", "admin_user": "admin"},
		}
		for name, values := range cases {
			t.Run(name, func(t *testing.T) {
				v := viper.New()
				for k, val := range values {
					v.Set(k, val)
				}

				_, err := LoadFrom(context.Background(), v)

				var cfgErr failure.ErrConfiguration
				require.ErrorAs(t, err, &cfgErr)
			})
		}
	})

	t.Run("minio backend", func(t *testing.T) {
		v := viper.New()
		v.Set("bucket_name", "bucket")
		v.Set("table_name", "sizes")
		v.Set("object_store", "minio")
		v.Set("minio_endpoint", "localhost:9000")
		v.Set("minio_access_key", "minioadmin")
		v.Set("minio_secret_key", "minioadmin")

		cfg, err := LoadFrom(context.Background(), v)
		require.NoError(t, err)
		assert.Equal(t, ObjectStoreMinio, cfg.ObjectStore)
		assert.False(t, cfg.MinioUseSSL)
	})
}
