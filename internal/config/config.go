package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ProxyConfig struct {
	Mode               string   `yaml:"mode"` // disabled|list|rotation
	List               []string `yaml:"list"`
	RotationURL        string   `yaml:"rotation_url"`
	RotationTTLSeconds int      `yaml:"rotation_ttl_seconds"`
	FailOpen           bool     `yaml:"fail_open"`
}

type Root struct {
	Env   string      `yaml:"env"`
	Proxy ProxyConfig `yaml:"proxy"`
	Local Config      `yaml:"local"`
	Dev   Config      `yaml:"dev"`
	Prod  Config      `yaml:"prod"`
}

type Config struct {
	Env string `yaml:"-"`

	Log struct {
		Level     string `yaml:"level"`
		Format    string `yaml:"format"`
		AddSource bool   `yaml:"add_source"`
		File      string `yaml:"file"`
	} `yaml:"log"`

	Blinkit struct {
		BaseURL string `yaml:"base_url"`
	} `yaml:"blinkit"`

	Inputs struct {
		LocationsFile  string `yaml:"locations_file"`
		CategoriesFile string `yaml:"categories_file"`
		SchemaFile     string `yaml:"schema_file"`
	} `yaml:"inputs"`

	Output struct {
		File string `yaml:"file"`
	} `yaml:"output"`

	Pagination struct {
		PageSize int `yaml:"page_size"`
		MaxPages int `yaml:"max_pages"`
	} `yaml:"pagination"`

	Scrape struct {
		DelaySeconds int `yaml:"delay_seconds"`
	} `yaml:"scrape"`

	HTTP struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
		Retries        int `yaml:"retries"`
	} `yaml:"http"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Host    string `yaml:"host"`
		Port    int    `yaml:"port"`
	} `yaml:"metrics"`

	Proxy ProxyConfig `yaml:"proxy"`
}

// Default is the configuration a run gets when no file is given.
func Default() *Config {
	_ = godotenv.Load()

	p := Config{Env: "local"}
	applyDefaults(&p)
	applyEnvOverrides(&p)
	return &p
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root Root
	if err := yaml.Unmarshal(b, &root); err != nil {
		return nil, err
	}

	env := strings.TrimSpace(strings.ToLower(root.Env))
	if v := os.Getenv("BLINKIT_ENV"); v != "" {
		env = strings.TrimSpace(strings.ToLower(v))
	}
	if env == "" {
		env = "local"
	}

	var p Config
	switch env {
	case "local":
		p = root.Local
	case "dev":
		p = root.Dev
	case "prod":
		p = root.Prod
	default:
		return nil, fmt.Errorf("unknown env=%q (expected local|dev|prod)", env)
	}
	p.Env = env

	if isProxyEmpty(p.Proxy) && !isProxyEmpty(root.Proxy) {
		p.Proxy = root.Proxy
	}

	applyDefaults(&p)
	applyEnvOverrides(&p)
	return &p, nil
}

func isProxyEmpty(px ProxyConfig) bool {
	return strings.TrimSpace(px.Mode) == "" && len(px.List) == 0 && strings.TrimSpace(px.RotationURL) == ""
}

func applyDefaults(p *Config) {
	if p.Blinkit.BaseURL == "" {
		p.Blinkit.BaseURL = "https://blinkit.com"
	}

	if p.Inputs.LocationsFile == "" {
		p.Inputs.LocationsFile = "./data/blinkit_locations.csv"
	}
	if p.Inputs.CategoriesFile == "" {
		p.Inputs.CategoriesFile = "./data/blinkit_categories.csv"
	}
	if p.Inputs.SchemaFile == "" {
		p.Inputs.SchemaFile = "./data/blinkit_schema.csv"
	}
	if p.Output.File == "" {
		p.Output.File = "./output/blinkit_products.csv"
	}
	if p.Log.File == "" {
		p.Log.File = "./output/scraper.log"
	}

	if p.Pagination.PageSize <= 0 {
		p.Pagination.PageSize = 24
	}
	if p.Pagination.MaxPages <= 0 {
		p.Pagination.MaxPages = 500
	}

	if p.Scrape.DelaySeconds <= 0 {
		p.Scrape.DelaySeconds = 1
	}

	if p.HTTP.TimeoutSeconds <= 0 {
		p.HTTP.TimeoutSeconds = 30
	}
	if p.HTTP.Retries < 0 {
		p.HTTP.Retries = 0
	}

	if p.Metrics.Host == "" {
		p.Metrics.Host = "0.0.0.0"
	}
	if p.Metrics.Port == 0 {
		p.Metrics.Port = 9090
	}

	if p.Log.Level == "" {
		if p.Env == "prod" {
			p.Log.Level = "info"
		} else {
			p.Log.Level = "debug"
		}
	}
	if p.Log.Format == "" {
		if p.Env == "prod" {
			p.Log.Format = "json"
		} else {
			p.Log.Format = "text"
		}
	}

	p.Proxy.Mode = strings.ToLower(strings.TrimSpace(p.Proxy.Mode))
	if p.Proxy.Mode == "" {
		p.Proxy.Mode = "disabled"
	}

	if len(p.Proxy.List) > 0 {
		clean := make([]string, 0, len(p.Proxy.List))
		for _, s := range p.Proxy.List {
			s = strings.TrimSpace(s)
			if s != "" {
				clean = append(clean, s)
			}
		}
		p.Proxy.List = clean
	}

	if p.Proxy.RotationTTLSeconds <= 0 {
		p.Proxy.RotationTTLSeconds = 10
	}
}

// applyEnvOverrides lets a deployment retarget paths and endpoints without
// editing the config file; a .env next to the binary works too.
func applyEnvOverrides(p *Config) {
	overrideString(&p.Blinkit.BaseURL, "BLINKIT_BASE_URL")
	overrideString(&p.Inputs.LocationsFile, "BLINKIT_LOCATIONS_FILE")
	overrideString(&p.Inputs.CategoriesFile, "BLINKIT_CATEGORIES_FILE")
	overrideString(&p.Inputs.SchemaFile, "BLINKIT_SCHEMA_FILE")
	overrideString(&p.Output.File, "BLINKIT_OUTPUT_FILE")
	overrideString(&p.Log.File, "BLINKIT_LOG_FILE")

	if v := os.Getenv("METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Metrics.Port = n
		}
	}
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
