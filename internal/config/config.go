package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/storacha/sizetracker/internal/failure"
)

const (
	ObjectStoreS3    = "s3"
	ObjectStoreMinio = "minio"
)

type Config struct {
	BucketName          string `mapstructure:"bucket_name" validate:"required"`
	TableName           string `mapstructure:"table_name" validate:"required"`
	RecentWindowSeconds int    `mapstructure:"recent_window_seconds" validate:"gt=0"`
	PlotObjectKey       string `mapstructure:"plot_object_key" validate:"required"`
	EmptyWindowPolicy   string `mapstructure:"empty_window_policy" validate:"oneof=fail synthetic-zero-point"`
	// MaxSizeIndexName is the size-ordered secondary index. Empty means the
	// historical max is computed by querying the whole partition.
	MaxSizeIndexName string `mapstructure:"max_size_index_name"`

	ObjectStore    string `mapstructure:"object_store" validate:"oneof=s3 minio"`
	AWSEndpoint    string `mapstructure:"aws_endpoint" validate:"omitempty,url"`
	MinioEndpoint  string `mapstructure:"minio_endpoint" validate:"required_if=ObjectStore minio"`
	MinioAccessKey string `mapstructure:"minio_access_key" validate:"required_if=ObjectStore minio"`
	MinioSecretKey string `mapstructure:"minio_secret_key" validate:"required_if=ObjectStore minio"`
	MinioUseSSL    bool   `mapstructure:"minio_use_ssl"`

	Port             int    `mapstructure:"port" validate:"gt=0,lte=65535"`
	MetricsAuthToken string `mapstructure:"metrics_auth_token"`
	AdminUser        string `mapstructure:"admin_user"`
	AdminPassword    string `mapstructure:"admin_password" validate:"required_with=AdminUser"`
	PlotInterval     int    `mapstructure:"plot_interval" validate:"gte=0"`

	AWSConfig aws.Config `mapstructure:"aws_config" validate:"-"`
}

func (c *Config) RecentWindow() time.Duration {
	return time.Duration(c.RecentWindowSeconds) * time.Second
}

func (c *Config) PlotIntervalDuration() time.Duration {
	return time.Duration(c.PlotInterval) * time.Second
}

var defaults = map[string]any{
	"recent_window_seconds": 60,
	"plot_object_key":       "plot.png",
	"empty_window_policy":   "synthetic-zero-point",
	"max_size_index_name":   "MaxSizeIndex",
	"object_store":          ObjectStoreS3,
	"port":                  8080,
	"plot_interval":         0,
}

// environment variable names accepted in addition to the prefixed ones
var envNames = map[string][]string{
	"bucket_name":           {"BUCKET_NAME"},
	"table_name":            {"TABLE_NAME", "DDB_TABLE_NAME"},
	"recent_window_seconds": {"RECENT_WINDOW_SECONDS"},
	"plot_object_key":       {"PLOT_OBJECT_KEY"},
	"empty_window_policy":   {"EMPTY_WINDOW_POLICY"},
	"max_size_index_name":   {"MAX_SIZE_INDEX_NAME"},
	"object_store":          {"OBJECT_STORE"},
	"aws_endpoint":          {"AWS_ENDPOINT_URL"},
	"minio_endpoint":        {"MINIO_ENDPOINT"},
	"minio_access_key":      {"MINIO_ACCESS_KEY"},
	"minio_secret_key":      {"MINIO_SECRET_KEY"},
	"minio_use_ssl":         {"MINIO_USE_SSL"},
	"metrics_auth_token":    {"METRICS_AUTH_TOKEN"},
	"admin_user":            {"ADMIN_USER"},
	"admin_password":        {"ADMIN_PASSWORD"},
	"plot_interval":         {"PLOT_INTERVAL"},
}

// Bind registers defaults and environment variable names on v. Environment
// variables with the SIZETRACKER_ prefix are picked up by AutomaticEnv.
func Bind(v *viper.Viper) error {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, names := range envNames {
		input := append([]string{key, "SIZETRACKER_" + strings.ToUpper(key)}, names...)
		if err := v.BindEnv(input...); err != nil {
			return fmt.Errorf("binding environment for %s: %w", key, err)
		}
	}
	// an explicitly empty MAX_SIZE_INDEX_NAME disables the index
	v.AllowEmptyEnv(true)
	return nil
}

// Load reads the configuration from the global viper instance.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, viper.GetViper())
}

func LoadFrom(ctx context.Context, v *viper.Viper) (*Config, error) {
	if err := Bind(v); err != nil {
		return nil, failure.NewConfigurationError("binding configuration", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, failure.NewConfigurationError("decoding configuration", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, failure.NewConfigurationError("loading AWS configuration", err)
	}
	cfg.AWSConfig = awsCfg

	return &cfg, nil
}

var validate = validator.New()

func (c *Config) validate() error {
	if err := validate.Struct(c); err != nil {
		return failure.NewConfigurationError("invalid configuration", err)
	}
	return nil
}
