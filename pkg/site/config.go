package site

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"

	v "github.com/tsoniclang/tsumo/pkg/validator"
)

// Config is the site configuration file (tsumo.yaml).
type Config struct {
	Title        string         `yaml:"title"`
	BaseURL      string         `yaml:"baseURL"`
	LanguageCode string         `yaml:"languageCode,omitempty"`
	Params       map[string]any `yaml:"params,omitempty"`

	ContentDir string `yaml:"contentDir,omitempty"`
	LayoutDir  string `yaml:"layoutDir,omitempty"`
	DataDir    string `yaml:"dataDir,omitempty"`
	OutputDir  string `yaml:"outputDir,omitempty"`

	BuildDrafts bool `yaml:"buildDrafts,omitempty"`

	// DataSources maps a data key to a remote URL fetched into Site.Data.
	DataSources map[string]string `yaml:"dataSources,omitempty"`
}

func (c *Config) Validate() error {
	return v.All(
		v.NotEmpty(c.Title, "title"),
		v.NotEmpty(c.BaseURL, "baseURL"),
		v.HasNoActions(c.BaseURL, "baseURL"),
		v.MapDict(c.DataSources, func(key, src string) error {
			return v.All(
				v.NotEmpty(key, "dataSources key"),
				v.NotEmpty(src, fmt.Sprintf("dataSources[%q]", key)),
				v.HasNoActions(src, fmt.Sprintf("dataSources[%q]", key)),
				v.MatchesAllowed(urlScheme(src), []string{"http", "https"},
					fmt.Sprintf("dataSources[%q] scheme", key)),
			)
		}, "dataSources"),
	)
}

func urlScheme(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Scheme
}

// applyDefaults fills the conventional directory layout.
func (c *Config) applyDefaults() {
	if c.LanguageCode == "" {
		c.LanguageCode = "en"
	}
	if c.ContentDir == "" {
		c.ContentDir = "content"
	}
	if c.LayoutDir == "" {
		c.LayoutDir = "layouts"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.OutputDir == "" {
		c.OutputDir = "public"
	}
}

// LoadConfig reads, decodes, and validates a site configuration file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config file %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}
