package config

import (
	_ "embed"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Stock    Stock    `yaml:"stock"`
	Crawl    Crawl    `yaml:"crawl"`
	Analysis Analysis `yaml:"analysis"`
	Lexicon  Lexicon  `yaml:"lexicon"`
	Report   Report   `yaml:"report"`
	Schedule Schedule `yaml:"schedule"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Stock struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

type Crawl struct {
	BaseURL           string        `yaml:"base_url"`
	StartPage         int           `yaml:"start_page"`
	MaxPages          int           `yaml:"max_pages"`
	PageDelay         time.Duration `yaml:"page_delay"`
	ContentDelay      time.Duration `yaml:"content_delay"`
	Timeout           time.Duration `yaml:"timeout"`
	UserAgent         string        `yaml:"user_agent"`
	Referer           string        `yaml:"referer"`
	IncludeTitleInKey bool          `yaml:"include_title_in_key"`
}

type Analysis struct {
	BatchLimit int `yaml:"batch_limit"`
}

// Lexicon overrides the embedded keyword tables. Empty lists keep the defaults.
type Lexicon struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	Bullish  []string `yaml:"bullish"`
	Bearish  []string `yaml:"bearish"`
	Risk     []string `yaml:"risk"`
}

type Report struct {
	Timezone    string `yaml:"timezone"`
	GenerateDir string `yaml:"generate_dir"`
	ReadmePath  string `yaml:"readme_path"`
	ChartWidth  int    `yaml:"chart_width"`
	ChartHeight int    `yaml:"chart_height"`
}

type Schedule struct {
	PreMarket  string `yaml:"pre_market"`
	PostMarket string `yaml:"post_market"`
	Weekly     string `yaml:"weekly"`
	Monthly    string `yaml:"monthly"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for stockboard.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "stockboard")
}

// DataDir returns the XDG data directory for stockboard.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "stockboard")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/stockboard/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'stockboard init' to create a default config",
		xdgConfig,
	)
}

// Load reads a config YAML file, loads .env from the working directory
// and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Ignoring unreadable .env: %v", err)
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	SetLevel(cfg.Logging.Level)
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Stock: Stock{Code: "139480"},
		Crawl: Crawl{
			BaseURL:      "https://finance.naver.com",
			StartPage:    1,
			MaxPages:     10,
			PageDelay:    time.Second,
			ContentDelay: 500 * time.Millisecond,
			Timeout:      15 * time.Second,
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			Referer:      "https://finance.naver.com/",
		},
		Analysis: Analysis{BatchLimit: 100},
		Report: Report{
			Timezone:    "Asia/Seoul",
			GenerateDir: "generate",
			ReadmePath:  "README.md",
			ChartWidth:  1200,
			ChartHeight: 900,
		},
		Schedule: Schedule{
			PreMarket:  "0 8 * * 1-5",
			PostMarket: "0 18 * * 1-5",
			Weekly:     "0 22 * * 0",
			Monthly:    "0 9 1 * *",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays the deployment environment variables on the file settings.
func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("STOCK_CODE"); v != "" {
		c.Stock.Code = v
	}
	if v := getenv("CRAWLING_DELAY"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid CRAWLING_DELAY %q: %w", v, err)
		}
		c.Crawl.PageDelay = time.Duration(secs * float64(time.Second))
	}
	if v := getenv("MAX_PAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MAX_PAGES %q: %w", v, err)
		}
		c.Crawl.MaxPages = n
	}
	if v := getenv("USER_AGENT"); v != "" {
		c.Crawl.UserAgent = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := getenv("DATA_DIR"); v != "" {
		c.Output.DataDir = v
	}
	return nil
}

// Validate checks the settings that every command depends on.
func (c *Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Stock.Code) == "" {
		missing = append(missing, "stock.code")
	}
	if c.Crawl.BaseURL == "" {
		missing = append(missing, "crawl.base_url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	if c.Crawl.MaxPages < 0 {
		return fmt.Errorf("crawl.max_pages must not be negative, got %d", c.Crawl.MaxPages)
	}
	if c.Crawl.StartPage < 1 {
		return fmt.Errorf("crawl.start_page must be positive, got %d", c.Crawl.StartPage)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the report timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Report.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid report.timezone %q: %w", c.Report.Timezone, err)
	}
	return loc, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
