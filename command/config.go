package command

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"

	"github.com/peak/s5transfer/storage"
	"github.com/peak/s5transfer/strutil"
	"github.com/peak/s5transfer/transfer"
)

const (
	envPrefix = "S5TRANSFER"

	backendS3    = "s3"
	backendMinio = "minio"
)

// Config holds the settings shared by every command. Values are read from
// the configuration file first, then from S5TRANSFER_* environment
// variables, then from the global flags.
type Config struct {
	Backend     string `yaml:"backend" envconfig:"BACKEND"`
	Endpoint    string `yaml:"endpoint_url" envconfig:"ENDPOINT_URL"`
	Region      string `yaml:"region" envconfig:"REGION"`
	NoVerifySSL bool   `yaml:"no_verify_ssl" envconfig:"NO_VERIFY_SSL"`
	RetryCount  int    `yaml:"retry_count" envconfig:"RETRY_COUNT"`

	NumWorkers         int    `yaml:"numworkers" envconfig:"NUMWORKERS"`
	PartSize           string `yaml:"part_size" envconfig:"PART_SIZE"`
	MultipartThreshold string `yaml:"multipart_threshold" envconfig:"MULTIPART_THRESHOLD"`
	UnknownLength      string `yaml:"unknown_length" envconfig:"UNKNOWN_LENGTH"`
	SkipChecksum       bool   `yaml:"skip_checksum" envconfig:"SKIP_CHECKSUM"`
	PreserveModTime    bool   `yaml:"preserve_mtime" envconfig:"PRESERVE_MTIME"`

	LogLevel     string `yaml:"log" envconfig:"LOG"`
	JSON         bool   `yaml:"json" envconfig:"JSON"`
	ShowProgress bool   `yaml:"show_progress" envconfig:"SHOW_PROGRESS"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Backend:            backendS3,
		RetryCount:         defaultRetryCount,
		NumWorkers:         transfer.DefaultConcurrency,
		PartSize:           "5MiB",
		MultipartThreshold: "16MiB",
		UnknownLength:      transfer.BufferInMemory.String(),
		LogLevel:           "info",
	}
}

// LoadConfig reads the configuration file at path, if path is not empty, and
// applies the environment on top of it.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.UnmarshalStrict(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config file %v: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyFlags overrides the configuration with the global flags which are
// set on the command line.
func (cfg *Config) applyFlags(c *cli.Context) {
	isSet := func(name string) bool {
		for _, ctx := range c.Lineage() {
			if ctx.IsSet(name) {
				return true
			}
		}
		return false
	}

	if isSet("backend") {
		cfg.Backend = c.Generic("backend").(*EnumValue).String()
	}
	if isSet("endpoint-url") {
		cfg.Endpoint = c.String("endpoint-url")
	}
	if isSet("region") {
		cfg.Region = c.String("region")
	}
	if isSet("no-verify-ssl") {
		cfg.NoVerifySSL = c.Bool("no-verify-ssl")
	}
	if isSet("retry-count") {
		cfg.RetryCount = c.Int("retry-count")
	}
	if isSet("numworkers") {
		cfg.NumWorkers = c.Int("numworkers")
	}
	if isSet("part-size") {
		cfg.PartSize = c.String("part-size")
	}
	if isSet("multipart-threshold") {
		cfg.MultipartThreshold = c.String("multipart-threshold")
	}
	if isSet("unknown-length") {
		cfg.UnknownLength = c.Generic("unknown-length").(*EnumValue).String()
	}
	if isSet("skip-checksum") {
		cfg.SkipChecksum = c.Bool("skip-checksum")
	}
	if isSet("preserve-mtime") {
		cfg.PreserveModTime = c.Bool("preserve-mtime")
	}
	if isSet("log") {
		cfg.LogLevel = c.Generic("log").(*EnumValue).String()
	}
	if isSet("json") {
		cfg.JSON = c.Bool("json")
	}
	if isSet("show-progress") {
		cfg.ShowProgress = c.Bool("show-progress")
	}
}

// Validate checks the values which are not checked while parsing.
func (cfg Config) Validate() error {
	if cfg.Backend != backendS3 && cfg.Backend != backendMinio {
		return fmt.Errorf("backend %q must be one of %v, %v", cfg.Backend, backendS3, backendMinio)
	}
	if cfg.RetryCount < 1 {
		return fmt.Errorf("retry count must be a positive value")
	}
	if cfg.NumWorkers < 1 {
		return fmt.Errorf("number of workers must be a positive value")
	}
	_, err := cfg.TransferOptions()
	return err
}

// TransferOptions converts the configuration into transfer manager options.
func (cfg Config) TransferOptions() (transfer.Options, error) {
	partSize, err := strutil.ParseBytes(cfg.PartSize)
	if err != nil {
		return transfer.Options{}, fmt.Errorf("part size: %w", err)
	}
	if partSize < 1 {
		return transfer.Options{}, fmt.Errorf("part size must be a positive value")
	}

	threshold, err := strutil.ParseBytes(cfg.MultipartThreshold)
	if err != nil {
		return transfer.Options{}, fmt.Errorf("multipart threshold: %w", err)
	}

	policy, err := transfer.ParseUnknownLengthPolicy(cfg.UnknownLength)
	if err != nil {
		return transfer.Options{}, err
	}

	return transfer.Options{
		Concurrency:        cfg.NumWorkers,
		MultipartThreshold: threshold,
		PartSize:           partSize,
		UnknownLength:      policy,
		SkipChecksum:       cfg.SkipChecksum,
		PreserveModTime:    cfg.PreserveModTime,
	}, nil
}

// StorageOptions converts the configuration into storage client options.
func (cfg Config) StorageOptions() storage.Options {
	return storage.Options{
		MaxRetries:  cfg.RetryCount,
		Endpoint:    cfg.Endpoint,
		Region:      cfg.Region,
		NoVerifySSL: cfg.NoVerifySSL,
	}
}

// NewStorage creates the storage client of the configured backend.
func (cfg Config) NewStorage() (storage.Storage, error) {
	switch cfg.Backend {
	case backendMinio:
		return storage.NewMinioStorage(cfg.StorageOptions())
	default:
		return storage.NewS3Storage(cfg.StorageOptions())
	}
}

// configFromContext loads the configuration of the running command.
func configFromContext(c *cli.Context) (Config, error) {
	var path string
	for _, ctx := range c.Lineage() {
		if ctx.IsSet("config") {
			path = ctx.String("config")
			break
		}
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return Config{}, err
	}
	cfg.applyFlags(c)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// newManager creates the transfer manager of a command.
func newManager(cfg Config) (*transfer.Manager, error) {
	client, err := cfg.NewStorage()
	if err != nil {
		return nil, err
	}

	opts, err := cfg.TransferOptions()
	if err != nil {
		return nil, err
	}
	return transfer.New(client, opts), nil
}
