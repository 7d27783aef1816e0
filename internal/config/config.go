// Package config handles configuration loading for the Sherpa target.
//
// Configuration is loaded from a JSON or YAML file with support for
// environment variable expansion (${VAR} syntax), so the security code can
// be injected at runtime. A bare $ is kept as written. Singer config files are JSON; both forms
// use the same keys.
//
// # Example Configuration
//
//	shop_id: "123"
//	security_code: ${SHERPA_SECURITY_CODE}
//	export_buyOrder_warehouse: WH1
//	base_url: https://sherpaservices-prd.sherpacloud.eu
//	timeout: 300
//
//	retry:
//	  max_attempts: 3
//	  initial_interval: 4s
//	  max_interval: 10s
//
//	circuit_breaker:
//	  enabled: true
//	  failure_threshold: 5
//	  open_timeout: 1m
//
// Durations accept Go syntax ("4s", "1m") or a number of seconds.
//
// See [Load] for loading configuration from a file.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the production Sherpa service
const DefaultBaseURL = "https://sherpaservices-prd.sherpacloud.eu"

// DefaultStreams are the Singer streams holding purchase orders
var DefaultStreams = []string{"BuyOrders", "purchase_orders"}

// Config is the root configuration structure
type Config struct {
	ShopID           Text     `yaml:"shop_id" json:"shop_id" validate:"required"`
	SecurityCode     Text     `yaml:"security_code" json:"security_code" validate:"required"`
	DefaultWarehouse Text     `yaml:"export_buyOrder_warehouse" json:"export_buyOrder_warehouse"`
	BaseURL          string   `yaml:"base_url" json:"base_url" validate:"required,url"`
	Timeout          Duration `yaml:"timeout" json:"timeout" validate:"gt=0"`

	BatchSize   int      `yaml:"batch_size" json:"batch_size" validate:"gte=1"`
	Streams     []string `yaml:"streams" json:"streams" validate:"min=1,dive,required"`
	StrictRetry bool     `yaml:"strict_retry" json:"strict_retry"`
	LogLevel    string   `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	Retry          RetryConfig          `yaml:"retry" json:"retry"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" json:"circuit_breaker"`
}

// RetryConfig holds the SOAP call retry schedule
type RetryConfig struct {
	MaxAttempts     int      `yaml:"max_attempts" json:"max_attempts" validate:"gte=1,lte=10"`
	InitialInterval Duration `yaml:"initial_interval" json:"initial_interval" validate:"gt=0"`
	MaxInterval     Duration `yaml:"max_interval" json:"max_interval" validate:"gtefield=InitialInterval"`
}

// CircuitBreakerConfig holds the optional circuit breaker settings
type CircuitBreakerConfig struct {
	Enabled          bool     `yaml:"enabled" json:"enabled"`
	FailureThreshold uint32   `yaml:"failure_threshold" json:"failure_threshold"`
	OpenTimeout      Duration `yaml:"open_timeout" json:"open_timeout"`
}

// Load reads configuration from a JSON or YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates configuration data
func Parse(data []byte) (*Config, error) {
	expanded := expandEnv(data)

	var cfg Config
	if isJSON(expanded) {
		if err := json.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv replaces ${VAR} references with the environment value. Secrets
// may contain $, so the unbraced form is not expanded.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(ref []byte) []byte {
		name := envRef.FindSubmatch(ref)[1]
		return []byte(os.Getenv(string(name)))
	})
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(300 * time.Second)
	}
	if c.BatchSize == 0 {
		c.BatchSize = 100
	}
	if len(c.Streams) == 0 {
		c.Streams = append([]string(nil), DefaultStreams...)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialInterval == 0 {
		c.Retry.InitialInterval = Duration(4 * time.Second)
	}
	if c.Retry.MaxInterval == 0 {
		c.Retry.MaxInterval = Duration(10 * time.Second)
	}
	if c.CircuitBreaker.FailureThreshold == 0 {
		c.CircuitBreaker.FailureThreshold = 5
	}
	if c.CircuitBreaker.OpenTimeout == 0 {
		c.CircuitBreaker.OpenTimeout = Duration(time.Minute)
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their config key
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func (c *Config) validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// fieldMessage turns a validation failure into "key problem"
func fieldMessage(fe validator.FieldError) string {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", key)
	case "url":
		return fmt.Sprintf("%s must be a valid URL, got '%v'", key, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got '%v'", key, fe.Param(), fe.Value())
	case "gt", "gte", "min":
		return fmt.Sprintf("%s must be at least %s", key, minimum(fe))
	case "lte":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	case "gtefield":
		return fmt.Sprintf("%s must not be less than %s", key, fe.Param())
	default:
		return fmt.Sprintf("%s failed '%s' validation", key, fe.Tag())
	}
}

func minimum(fe validator.FieldError) string {
	if fe.Tag() == "gt" {
		return "more than " + fe.Param()
	}
	return fe.Param()
}

func isJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Text is a string that also accepts a bare JSON number, since Singer
// configs often carry shop ids as numbers
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	if string(data) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", data)
	}
	*t = Text(n.String())
	return nil
}

func (t *Text) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", value.Line)
	}
	if value.Tag == "!!null" {
		return nil
	}
	*t = Text(strings.TrimSpace(value.Value))
	return nil
}

func (t Text) String() string {
	return string(t)
}

// Duration is a time.Duration written as Go syntax or a number of seconds
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return d.parse(s)
	}
	if string(data) == "null" {
		return nil
	}
	return d.parse(string(data))
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a duration", value.Line)
	}
	if value.Tag == "!!null" {
		return nil
	}
	if err := d.parse(value.Value); err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	return nil
}

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(parsed)
	return nil
}
