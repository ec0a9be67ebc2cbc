package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"newsreader/internal/news"
	"newsreader/internal/rss"
)

// SourceConfig describes one RSS/Atom source: a primary URL, its declared
// fallback, any additional alternates tried in order, and optional static
// items used when every remote tier fails.
type SourceConfig struct {
	Name          string             `yaml:"name"`
	URL           string             `yaml:"url"`
	FallbackURL   string             `yaml:"fallback_url,omitempty"`
	AlternateURLs []string           `yaml:"alternate_urls,omitempty"`
	StaticItems   []StaticItemConfig `yaml:"static_items,omitempty"`
}

// StaticItemConfig is a hand-authored placeholder article shipped with a
// source's configuration.
type StaticItemConfig struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Content     string `yaml:"content,omitempty"`
	Link        string `yaml:"link"`
}

// FetchConfig holds the ingestion schedule and retry policy.
type FetchConfig struct {
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	IntervalMinutes   int    `yaml:"interval_minutes"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
	MaxRetries        int    `yaml:"max_retries"`
	ThirdPartyAPI     string `yaml:"third_party_api,omitempty"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config represents the complete application configuration.
type Config struct {
	Server  ServerConfig   `yaml:"server"`
	Fetch   FetchConfig    `yaml:"fetch"`
	Sources []SourceConfig `yaml:"sources"`
}

// PipelineSources converts the configured source list into the pipeline's
// shape.
func (c *Config) PipelineSources() []rss.Source {
	sources := make([]rss.Source, 0, len(c.Sources))
	for _, sc := range c.Sources {
		src := rss.Source{
			Name:          sc.Name,
			URL:           sc.URL,
			FallbackURL:   sc.FallbackURL,
			AlternateURLs: sc.AlternateURLs,
		}
		for _, item := range sc.StaticItems {
			src.StaticItems = append(src.StaticItems, news.NewsItem{
				ID:          item.ID,
				Title:       item.Title,
				Description: item.Description,
				Content:     item.Content,
				Link:        item.Link,
				Source:      sc.Name,
			})
		}
		sources = append(sources, src)
	}
	return sources
}

// DataDir returns the path to the newsreader data directory.
// Checks NEWSREADER_DATA_DIR first, then defaults to ~/.newsreader/.
func DataDir() (string, error) {
	if dataDir := os.Getenv("NEWSREADER_DATA_DIR"); dataDir != "" {
		return dataDir, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return filepath.Join(usr.HomeDir, ".newsreader"), nil
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	dir, err := DataDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns the default configuration with the built-in
// sources.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Fetch: FetchConfig{
			TimeoutSeconds:    15,
			IntervalMinutes:   30,
			RetryDelaySeconds: 60,
			MaxRetries:        3,
			ThirdPartyAPI:     rss.DefaultThirdPartyAPI,
		},
		Sources: []SourceConfig{
			{
				Name:        "虎嗅",
				URL:         "https://www.huxiu.com/rss/",
				FallbackURL: "https://rsshub.app/huxiu/article",
				AlternateURLs: []string{
					"https://feedx.net/rss/huxiu.xml",
					"https://rsshub.app/huxiu/article",
					"https://rsshub.app/huxiu/tag/103",
					"https://rsshub.app/huxiu/collection/38",
				},
				StaticItems: []StaticItemConfig{
					{
						ID:          "huxiu_fallback_1",
						Title:       "科技创新如何改变我们的生活",
						Description: "探讨最新科技趋势对日常生活的影响",
						Content:     "随着人工智能、区块链和物联网等技术的发展，我们的生活方式正在发生翻天覆地的变化...",
						Link:        "https://www.huxiu.com",
					},
					{
						ID:          "huxiu_fallback_2",
						Title:       "数字经济时代的商业变革",
						Description: "分析数字化转型对企业发展的重要性",
						Content:     "在数字经济时代，企业必须适应新的商业模式和运营方式...",
						Link:        "https://www.huxiu.com",
					},
				},
			},
			{
				Name:        "36氪",
				URL:         "https://36kr.com/feed",
				FallbackURL: "https://rsshub.app/36kr/news/latest",
				AlternateURLs: []string{
					"https://feedx.net/rss/36kr.xml",
					"https://rsshub.app/36kr/news/latest",
				},
			},
		},
	}
}
