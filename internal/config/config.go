// Package config loads the formdoc YAML configuration shared by the CLI
// commands and the HTTP server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formdoc/internal/logging"
)

// Config is the root configuration document.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Log     logging.Config `yaml:"log"`
	Forms   FormsConfig    `yaml:"forms"`
	Storage StorageConfig  `yaml:"storage"`
	Render  RenderConfig   `yaml:"render"`
}

// ServerConfig configures `formdoc serve`.
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	Mode            string        `yaml:"mode" validate:"omitempty,oneof=debug release test"`
	ReadTimeout     time.Duration `yaml:"readTimeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" validate:"gte=0"`
}

// FormsConfig locates form definitions. The bundled samples are used when
// Dir is empty.
type FormsConfig struct {
	Dir string `yaml:"dir"`
	// OpenAPI optionally points at an OpenAPI document whose schema
	// components are converted into additional forms.
	OpenAPI    string   `yaml:"openapi"`
	Components []string `yaml:"components"`
}

// StorageConfig selects the submission sink.
type StorageConfig struct {
	Sink     string `yaml:"sink" validate:"omitempty,oneof=log badger"`
	Path     string `yaml:"path" validate:"required_if=Sink badger InMemory false"`
	InMemory bool   `yaml:"inMemory"`
}

// RenderConfig holds renderer defaults.
type RenderConfig struct {
	Format      string `yaml:"format" validate:"omitempty,oneof=html text"`
	Placeholder string `yaml:"placeholder"`
	Styles      bool   `yaml:"styles"`
}

// ErrInvalid matches configuration validation failures.
var ErrInvalid = errors.New("config: invalid configuration")

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ReadTimeout:     15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:     logging.Config{Level: "info", Format: "console"},
		Storage: StorageConfig{Sink: "log"},
		Render:  RenderConfig{Format: "html", Styles: true},
	}
}

// Load reads path over the defaults. A blank path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data, cfg)
}

// Parse decodes data over base and validates the result.
func Parse(data []byte, base Config) (Config, error) {
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: validate: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, ", "))
}
