// Package config loads and validates service configuration.
//
// Configuration is read from a YAML file named config/${ENVIRONMENT}.yaml
// relative to the working directory. Environment variable references in the
// file (${VAR}) are expanded before parsing, a .env file is honored when
// present, defaults are applied via struct tags and the result is validated.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"filedrop/internal/blob"
	"filedrop/internal/logger"
)

// Backend selector values for Storage.Backend.
const (
	BackendMinio = "minio"
	BackendLocal = "local"
)

// Config is the root configuration for the service.
type Config struct {
	Server  Server        `yaml:"server"`
	Logger  logger.Config `yaml:"logger"`
	Storage Storage       `yaml:"storage"`
	Mongo   Mongo         `yaml:"mongo"`
	Upload  Upload        `yaml:"upload"`
}

// Server configures the HTTP listener.
type Server struct {
	Host         string        `yaml:"host" default:"0.0.0.0"`
	Port         int           `yaml:"port" default:"5001" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"30s"`

	// BodyLimit caps the request body size accepted by the server.
	// Slightly above the upload limit so oversized uploads reach the
	// validator and get a typed rejection instead of a transport error.
	BodyLimit int `yaml:"body_limit" default:"16777216"`

	// CORSOrigin is the allowed origin for browser clients.
	CORSOrigin string `yaml:"cors_origin" default:"http://localhost:3000"`
}

// Address returns the listen address in the form "host:port".
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Storage selects and configures the blob backend.
type Storage struct {
	// Backend selects where file bytes are stored.
	Backend string `yaml:"backend" validate:"oneof=minio local" default:"minio"`

	Minio blob.MinioConfig `yaml:"minio"`
	Local blob.LocalConfig `yaml:"local"`
}

// Mongo configures the metadata database connection.
type Mongo struct {
	URI      string `yaml:"uri" validate:"required" default:"mongodb://localhost:27017"`
	Database string `yaml:"database" validate:"required" default:"filedrop"`
}

// Upload configures upload validation.
type Upload struct {
	// MaxFileSize is the maximum accepted file size in bytes. Default 10 MiB.
	MaxFileSize int64 `yaml:"max_file_size" default:"10485760" validate:"min=1"`
}

// Load reads, expands, defaults and validates the configuration for the
// current environment. ENVIRONMENT defaults to "local" when unset.
func Load() (Config, error) {
	var cfg Config

	_ = godotenv.Load()

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "local"
	}

	path := fmt.Sprintf("config/%s.yaml", env)
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errx.New(
			"failed to read config file",
			errx.WithDetails(errx.D{"path": path, "error": err}),
		)
	}

	data = []byte(os.ExpandEnv(string(data)))

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errx.New(
			"failed to parse config file",
			errx.WithDetails(errx.D{"path": path, "error": err}),
		)
	}

	if err := defaults.Set(&cfg); err != nil {
		return cfg, errx.Wrap(err)
	}

	if err := validate(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())

	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	var failed []string
	if errs, ok := err.(validator.ValidationErrors); ok { //nolint:errorlint
		for _, fe := range errs {
			tag := fe.Tag()
			if fe.Param() != "" {
				tag += "=" + fe.Param()
			}
			failed = append(failed, fmt.Sprintf("%s: %s", fe.Namespace(), tag))
		}
	}

	return errx.New(
		"invalid configuration: " + strings.Join(failed, ", "),
	)
}
