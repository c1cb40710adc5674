package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pevans/flyerfed/scraper"
	"gopkg.in/yaml.v3"
)

// SiteConfig describes the website that is scraped.
type SiteConfig struct {
	BaseURL   string `yaml:"base_url"`
	Category  string `yaml:"category"`
	UserAgent string `yaml:"user_agent"`
	Timeout   string `yaml:"timeout"`
}

// ScrapeConfig controls which flyers are kept and how shops are processed.
type ScrapeConfig struct {
	IncludeFuture *bool             `yaml:"include_future"`
	Concurrency   int               `yaml:"concurrency"`
	Selectors     scraper.Selectors `yaml:"selectors"`
}

// StorageConfig represents where runs are persisted.
type StorageConfig struct {
	Output  string `yaml:"output"`
	Archive struct {
		DSN string `yaml:"dsn"`
	} `yaml:"archive"`
}

// LogConfig controls the log destination.
type LogConfig struct {
	File  string `yaml:"file"`
	Debug bool   `yaml:"debug"`
}

// FileConfig represents the structure of ~/.flyerfed/config.yaml.
type FileConfig struct {
	Site    SiteConfig    `yaml:"site"`
	Scrape  ScrapeConfig  `yaml:"scrape"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// DefaultConfigPath returns ~/.flyerfed/config.yaml.
func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".flyerfed", "config.yaml"), nil
}

// LoadConfigFile loads configuration from path, or from
// ~/.flyerfed/config.yaml when path is empty. A missing default file returns
// nil (not an error); a missing explicit path is an error, as is a file that
// cannot be parsed.
func LoadConfigFile(path string) (*FileConfig, error) {
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}
