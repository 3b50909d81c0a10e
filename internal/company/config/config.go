// Package config loads the service configuration from a YAML file.
// Every key can be overridden by an environment variable of the same name.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/timeoverseer/overseer/internal/company/db"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the binaries look for the configuration file when
// CONFIG_PATH is not set.
const DefaultPath = "internal/company/config/config.yaml"

// Config struct for YAML configuration
type Config struct {
	GRPCPort      int      `yaml:"GRPC_PORT"`
	HTTPPort      int      `yaml:"HTTP_PORT"`
	DBHost        string   `yaml:"DB_HOST"`
	DBPort        int      `yaml:"DB_PORT"`
	DBUser        string   `yaml:"DB_USER"`
	DBPassword    string   `yaml:"DB_PASSWORD"`
	DBName        string   `yaml:"DB_NAME"`
	DBSSLMode     string   `yaml:"DB_SSLMODE"`
	DBSchema      string   `yaml:"DB_SCHEMA"`
	KafkaBrokers  []string `yaml:"KAFKA_BROKERS"`
	Topic         string   `yaml:"TOPIC"`
	ConsumerGroup string   `yaml:"CONSUMER_GROUP"`
	JWTSecret     string   `yaml:"JWT_SECRET"`
}

// Path returns CONFIG_PATH, or DefaultPath when it is unset.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the file at path, applies environment overrides and defaults,
// and validates the result.
func Load(path string) (*Config, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(file, os.LookupEnv)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML and applies overrides looked up with lookupEnv.
func Parse(data []byte, lookupEnv func(string) (string, bool)) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv overrides each field whose yaml key is set in the environment.
// Lists are comma separated.
func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	v := reflect.ValueOf(c).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("yaml")
		raw, ok := lookupEnv(key)
		if !ok {
			continue
		}
		field := v.Field(i)
		switch field.Kind() {
		case reflect.String:
			field.SetString(raw)
		case reflect.Int:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			field.SetInt(int64(n))
		case reflect.Slice:
			var items []string
			for _, item := range strings.Split(raw, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			field.Set(reflect.ValueOf(items))
		}
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.DBSSLMode == "" {
		c.DBSSLMode = "disable"
	}
	if c.DBSchema == "" {
		c.DBSchema = db.DefaultSchema
	}
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "overseer-eventlog"
	}
}

// Validate reports every missing or out of range setting at once.
func (c *Config) Validate() error {
	var errs []error
	for _, port := range []struct {
		key   string
		value int
	}{
		{"GRPC_PORT", c.GRPCPort},
		{"HTTP_PORT", c.HTTPPort},
		{"DB_PORT", c.DBPort},
	} {
		if port.value <= 0 || port.value > 65535 {
			errs = append(errs, fmt.Errorf("%s: invalid port %d", port.key, port.value))
		}
	}
	if c.GRPCPort == c.HTTPPort && c.GRPCPort != 0 {
		errs = append(errs, errors.New("GRPC_PORT and HTTP_PORT must differ"))
	}
	for _, required := range []struct {
		key   string
		value string
	}{
		{"DB_HOST", c.DBHost},
		{"DB_USER", c.DBUser},
		{"DB_NAME", c.DBName},
		{"TOPIC", c.Topic},
		{"JWT_SECRET", c.JWTSecret},
	} {
		if required.value == "" {
			errs = append(errs, fmt.Errorf("%s is required", required.key))
		}
	}
	if len(c.KafkaBrokers) == 0 {
		errs = append(errs, errors.New("KAFKA_BROKERS is required"))
	}
	return errors.Join(errs...)
}

// Database returns the repository connection settings.
func (c *Config) Database() *db.Config {
	return &db.Config{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSSLMode,
		Schema:   c.DBSchema,
	}
}

// DatabaseURL returns the Postgres URL golang-migrate expects.
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}
