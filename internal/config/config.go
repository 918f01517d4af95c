package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for clinprep.
type FileConfig struct {
	Seed      *int64  `yaml:"seed"`
	Device    *string `yaml:"device"`
	BatchSize *int    `yaml:"batch_size"`
	NoCache   *bool   `yaml:"no_cache"`
	NoAudit   *bool   `yaml:"no_audit"`

	// Redact configures which columns are redacted and into which columns
	// the clean text is written.
	Redact *RedactConfig `yaml:"redact"`

	// Encoder sizes the reference encoder used by `clinprep embed`.
	Encoder *EncoderConfig `yaml:"encoder"`
}

// RedactConfig holds PHI redaction settings.
type RedactConfig struct {
	// Columns maps a source column to its redacted target column.
	Columns []ColumnConfig `yaml:"columns"`

	// Token replaces each marker. Defaults to @@PHI@@.
	Token *string `yaml:"token"`
}

// ColumnConfig pairs a source text column with its derived clean column.
type ColumnConfig struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

// EncoderConfig mirrors encoder.Config with optional fields.
type EncoderConfig struct {
	VocabSize *int     `yaml:"vocab_size"`
	Hidden    *int     `yaml:"hidden"`
	Layers    *int     `yaml:"layers"`
	MaxLen    *int     `yaml:"max_len"`
	Dropout   *float64 `yaml:"dropout"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a project-local config file in the given root.
// It supports .clinprep.yml/.yaml and clinprep.yml/.yaml.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".clinprep.yml", ".clinprep.yaml", "clinprep.yml", "clinprep.yaml"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "clinprep", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}

// Environment variables read by LoadEnv.
const (
	EnvSeed      = "CLINPREP_SEED"
	EnvDevice    = "CLINPREP_DEVICE"
	EnvBatchSize = "CLINPREP_BATCH_SIZE"
)

// LoadEnv reads a .env file from dir (if present) and returns the settings
// found in the environment. Variables already set in the process environment
// win over the .env file.
func LoadEnv(dir string) (FileConfig, error) {
	var cfg FileConfig
	p := filepath.Join(dir, ".env")
	if _, err := os.Stat(p); err == nil {
		if err := godotenv.Load(p); err != nil {
			return cfg, errors.Wrapf(err, "load %s", p)
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvSeed)); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return cfg, errors.Wrap(err, EnvSeed)
		}
		cfg.Seed = &n
	}
	if v := strings.TrimSpace(os.Getenv(EnvDevice)); v != "" {
		cfg.Device = &v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBatchSize)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, errors.Wrap(err, EnvBatchSize)
		}
		cfg.BatchSize = &n
	}
	return cfg, nil
}

// Merge overlays the set fields of higher onto lower and returns the result.
func Merge(lower, higher FileConfig) FileConfig {
	out := lower
	if higher.Seed != nil {
		out.Seed = higher.Seed
	}
	if higher.Device != nil {
		out.Device = higher.Device
	}
	if higher.BatchSize != nil {
		out.BatchSize = higher.BatchSize
	}
	if higher.NoCache != nil {
		out.NoCache = higher.NoCache
	}
	if higher.NoAudit != nil {
		out.NoAudit = higher.NoAudit
	}
	if higher.Redact != nil {
		out.Redact = higher.Redact
	}
	if higher.Encoder != nil {
		out.Encoder = higher.Encoder
	}
	return out
}

// Resolve loads global, local and environment config, lowest precedence
// first. Missing files are not an error.
func Resolve(root string) (FileConfig, error) {
	var cfg FileConfig
	if g, err := LoadGlobal(); err == nil {
		cfg = Merge(cfg, g)
	}
	if l, err := LoadLocal(root); err == nil {
		cfg = Merge(cfg, l)
	}
	env, err := LoadEnv(root)
	if err != nil {
		return cfg, err
	}
	return Merge(cfg, env), nil
}

// GetToken returns the configured replacement token or empty string.
func (rc RedactConfig) GetToken() string {
	if rc.Token == nil {
		return ""
	}
	return *rc.Token
}
