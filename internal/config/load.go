package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the application configuration shared by the entry points
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Tracing   TracingConfig             `mapstructure:"tracing"`
	Browser   BrowserConfig             `mapstructure:"browser"`
	Search    SearchConfig              `mapstructure:"search"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"` // "stdout", "noop"
}

// SearchConfig holds per-call defaults
type SearchConfig struct {
	DefaultProvider string `mapstructure:"default_provider"`
	MaxResults      int    `mapstructure:"max_results"`
}

// LocalProviderURLs are the built-in site-specific search templates.
// "%s" marks where the encoded query is substituted.
var LocalProviderURLs = map[string]string{
	"local-google":     "https://www.google.com/search?q=%s",
	"local-bing":       "https://cn.bing.com/search?q=%s&ensearch=1",
	"local-baidu":      "https://www.baidu.com/s?wd=%s",
	"local-duckduckgo": "https://duckduckgo.com/?q=%s&t=h_",
}

// Load reads configuration from an optional YAML file, .env files and
// SEARCH_ prefixed environment variables.
func Load(cfgFile string) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.SetEnvPrefix("SEARCH")
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and env still apply
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Map keys double as provider ids
	for id, p := range cfg.Providers {
		if p.ID == "" {
			p.ID = id
			cfg.Providers[id] = p
		}
	}

	return &cfg, nil
}

// Provider returns the provider config registered under id, or a bare
// config carrying only the id when none is registered.
func (c *Config) Provider(id string) ProviderConfig {
	p, _ := c.LookupProvider(id)
	return p
}

// LookupProvider is Provider that also reports whether id is registered
func (c *Config) LookupProvider(id string) (ProviderConfig, bool) {
	if id == "" {
		id = c.Search.DefaultProvider
	}
	if p, ok := c.Providers[id]; ok {
		return p, true
	}
	return ProviderConfig{ID: id}, false
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 300)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "noop")

	b := DefaultBrowserConfig()
	v.SetDefault("browser.remote_url", b.RemoteURL)
	v.SetDefault("browser.headless", b.Headless)
	v.SetDefault("browser.window_width", b.WindowWidth)
	v.SetDefault("browser.window_height", b.WindowHeight)
	v.SetDefault("browser.block_ads", b.BlockAds)
	v.SetDefault("browser.load_timeout", b.LoadTimeout)

	v.SetDefault("search.default_provider", "default")
	v.SetDefault("search.max_results", 15)

	for id, tmpl := range LocalProviderURLs {
		v.SetDefault("providers."+id+".url", tmpl)
		v.SetDefault("providers."+id+".using_browser", false)
		v.SetDefault("providers."+id+".content_limit", -1)
	}
	v.SetDefault("providers.searxng.url", "http://localhost:8080")
	v.SetDefault("providers.tavily.url", "https://api.tavily.com")
	v.SetDefault("providers.exa.url", "https://api.exa.ai")
	// Registered so SEARCH_PROVIDERS_<ID>_API_KEY is picked up
	v.SetDefault("providers.tavily.api_key", "")
	v.SetDefault("providers.exa.api_key", "")
}
