package config

import (
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BackendText   = "text"
	BackendSQLite = "sqlite"
)

type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
	Report   ReportConfig   `yaml:"report"`
}

type StorageConfig struct {
	Path       string `yaml:"path"`        // data directory
	File       string `yaml:"file"`        // text snapshot, relative to Path
	Backend    string `yaml:"backend"`     // "text" or "sqlite"
	SQLiteFile string `yaml:"sqlite_file"` // relative to Path
}

type SecurityConfig struct {
	AlertLog string `yaml:"alert_log"` // lockout journal, relative to Path
}

type ReportConfig struct {
	ExportDir string `yaml:"export_dir"`
}

func defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:       "tracker_data",
			File:       "data.dat",
			Backend:    BackendText,
			SQLiteFile: "tracker.db",
		},
		Security: SecurityConfig{
			AlertLog: "alerts.log",
		},
		Report: ReportConfig{
			ExportDir: "reports",
		},
	}
}

// Load reads configPath, or the first of configs/tracker.yaml and tracker.yaml
// when configPath is empty. Environment overrides are applied last.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if configPath == "" {
		for _, p := range []string{"configs/tracker.yaml", "tracker.yaml"} {
			data, err := os.ReadFile(p)
			if err == nil {
				if err := yaml.Unmarshal(data, cfg); err != nil {
					return cfg, err
				}
				break
			}
		}
		applyEnv(cfg)
		applyDefaults(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return cfg, err
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TRACKER_DATA_DIR"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("TRACKER_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("TRACKER_EXPORT_DIR"); v != "" {
		cfg.Report.ExportDir = v
	}
}

func applyDefaults(cfg *Config) {
	d := defaults()
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = d.Storage.Path
	}
	if cfg.Storage.File == "" {
		cfg.Storage.File = d.Storage.File
	}
	if cfg.Storage.SQLiteFile == "" {
		cfg.Storage.SQLiteFile = d.Storage.SQLiteFile
	}
	switch b := strings.ToLower(strings.TrimSpace(cfg.Storage.Backend)); b {
	case BackendText, BackendSQLite:
		cfg.Storage.Backend = b
	default:
		cfg.Storage.Backend = BackendText
	}
	if cfg.Security.AlertLog == "" {
		cfg.Security.AlertLog = d.Security.AlertLog
	}
	if cfg.Report.ExportDir == "" {
		cfg.Report.ExportDir = d.Report.ExportDir
	}
}

// DataFile is the text snapshot path.
func (c *Config) DataFile() string {
	return filepath.Join(c.Storage.Path, c.Storage.File)
}

func (c *Config) SQLitePath() string {
	return filepath.Join(c.Storage.Path, c.Storage.SQLiteFile)
}

func (c *Config) AlertLogPath() string {
	return filepath.Join(c.Storage.Path, c.Security.AlertLog)
}
