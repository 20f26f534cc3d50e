// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/TFMV/DupeFinder/internal/matcher"
)

// DBCreds holds PostgreSQL connection settings. LoadTable is the staging
// table batch CSV uploads copy into.
type DBCreds struct {
	Host      string `yaml:"host"`
	Port      string `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Database  string `yaml:"database"`
	LoadTable string `yaml:"load_table"`
}

// ServerConfig holds the HTTP listen settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

// GeocoderConfig points at a Nominatim-compatible geocoding service used to
// backfill coordinates for listings that arrive without them. An empty
// BaseURL disables geocoding.
type GeocoderConfig struct {
	BaseURL        string `yaml:"base_url"`
	UserAgent      string `yaml:"user_agent"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Config is the application configuration loaded from YAML.
type Config struct {
	DBCreds  DBCreds        `yaml:"db_creds"`
	Server   ServerConfig   `yaml:"server"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Matching matcher.Config `yaml:"matching"`
}

// Load reads the configuration from configPath, falling back to the
// CONFIG_PATH environment variable and then to ./config.yaml. Matching
// policy sections left out of the file take the engine defaults.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = "config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{Matching: matcher.DefaultConfig()}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate fails fast on anything the server cannot start with.
func (c *Config) Validate() error {
	if c.DBCreds.Host == "" || c.DBCreds.Port == "" {
		return fmt.Errorf("db_creds.host and db_creds.port are required")
	}
	if c.DBCreds.Database == "" {
		return fmt.Errorf("db_creds.database is required")
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Geocoder.TimeoutSeconds <= 0 {
		c.Geocoder.TimeoutSeconds = 10
	}
	if err := c.Matching.Validate(); err != nil {
		return fmt.Errorf("matching config: %w", err)
	}
	return nil
}

// DatabaseURL assembles the pgx connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s",
		c.DBCreds.Username,
		c.DBCreds.Password,
		c.DBCreds.Host,
		c.DBCreds.Port,
		c.DBCreds.Database,
	)
}
