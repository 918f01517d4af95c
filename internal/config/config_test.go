package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func writeTemp(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return p
}

func TestLoadFile_Basic(t *testing.T) {
	dir := t.TempDir()
	body := `seed: 42
device: cuda:0
batch_size: 16
redact:
  token: "<phi>"
  columns:
    - source: Assessment
      target: assessment_clean
encoder:
  hidden: 32
  dropout: 0.2
`
	p := writeTemp(t, dir, "clinprep.yaml", body)
	cfg, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Seed == nil || *cfg.Seed != 42 {
		t.Fatalf("expected seed=42, got %#v", cfg.Seed)
	}
	if cfg.Device == nil || *cfg.Device != "cuda:0" {
		t.Fatalf("expected device=cuda:0, got %#v", cfg.Device)
	}
	if cfg.BatchSize == nil || *cfg.BatchSize != 16 {
		t.Fatalf("expected batch_size=16, got %#v", cfg.BatchSize)
	}
	if cfg.Redact == nil || cfg.Redact.GetToken() != "<phi>" || len(cfg.Redact.Columns) != 1 {
		t.Fatalf("unexpected redact config: %#v", cfg.Redact)
	}
	if cfg.Redact.Columns[0] != (ColumnConfig{Source: "Assessment", Target: "assessment_clean"}) {
		t.Fatalf("unexpected column mapping: %#v", cfg.Redact.Columns[0])
	}
	if cfg.Encoder == nil || cfg.Encoder.Hidden == nil || *cfg.Encoder.Hidden != 32 {
		t.Fatalf("expected encoder.hidden=32, got %#v", cfg.Encoder)
	}
	if cfg.Encoder.Layers != nil {
		t.Fatalf("expected unset encoder.layers, got %v", *cfg.Encoder.Layers)
	}
}

func TestLoadLocal_PrefersDotfile(t *testing.T) {
	dir := t.TempDir()
	// place both, expect the dotfile to be picked first by search order
	writeTemp(t, dir, "clinprep.yaml", "seed: 1\n")
	writeTemp(t, dir, ".clinprep.yaml", "seed: 7\n")
	cfg, err := LoadLocal(dir)
	if err != nil {
		t.Fatalf("LoadLocal: %v", err)
	}
	if cfg.Seed == nil || *cfg.Seed != 7 {
		t.Fatalf("expected seed=7 from .clinprep.yaml, got %#v", cfg.Seed)
	}
}

func TestLoadLocal_NoConfig(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadLocal(dir); err == nil {
		t.Fatal("expected error when no local config exists")
	}
}

func TestLoadGlobal_XDG_Config(t *testing.T) {
	dir := t.TempDir()
	cfgDir := filepath.Join(dir, "clinprep")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTemp(t, cfgDir, "config.yml", "batch_size: 9\n")
	t.Setenv("XDG_CONFIG_HOME", dir)
	cfg, err := LoadGlobal()
	if err != nil {
		t.Fatalf("LoadGlobal: %v", err)
	}
	if cfg.BatchSize == nil || *cfg.BatchSize != 9 {
		t.Fatalf("expected batch_size=9 from global config, got %#v", cfg.BatchSize)
	}
}

func TestLoadEnv_DotEnvAndProcessEnv(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, ".env", "CLINPREP_SEED=99\nCLINPREP_BATCH_SIZE=4\n")
	t.Setenv(EnvSeed, "")
	t.Setenv(EnvBatchSize, "")
	os.Unsetenv(EnvSeed)
	os.Unsetenv(EnvBatchSize)
	t.Setenv(EnvDevice, "cuda:1")

	cfg, err := LoadEnv(dir)
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if cfg.Seed == nil || *cfg.Seed != 99 {
		t.Fatalf("expected seed=99 from .env, got %#v", cfg.Seed)
	}
	if cfg.BatchSize == nil || *cfg.BatchSize != 4 {
		t.Fatalf("expected batch_size=4 from .env, got %#v", cfg.BatchSize)
	}
	if cfg.Device == nil || *cfg.Device != "cuda:1" {
		t.Fatalf("expected device from process env, got %#v", cfg.Device)
	}
}

func TestLoadEnv_BadSeed(t *testing.T) {
	t.Setenv(EnvSeed, "forty-two")
	_, err := LoadEnv(t.TempDir())
	if err == nil {
		t.Fatal("expected error for non-numeric seed")
	}
	if !strings.HasPrefix(err.Error(), EnvSeed+": ") {
		t.Fatalf("error should name the variable, got %q", err)
	}
	if !errors.Is(err, strconv.ErrSyntax) {
		t.Fatalf("error should wrap the parse failure, got %#v", err)
	}
}

func TestResolve_Precedence(t *testing.T) {
	global := t.TempDir()
	if err := os.MkdirAll(filepath.Join(global, "clinprep"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeTemp(t, filepath.Join(global, "clinprep"), "config.yml", "seed: 1\nbatch_size: 2\ndevice: cpu\n")
	t.Setenv("XDG_CONFIG_HOME", global)

	root := t.TempDir()
	writeTemp(t, root, ".clinprep.yml", "seed: 3\n")
	t.Setenv(EnvSeed, "")
	t.Setenv(EnvBatchSize, "")
	t.Setenv(EnvDevice, "cuda:0")

	cfg, err := Resolve(root)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if *cfg.Seed != 3 {
		t.Fatalf("local seed should override global, got %d", *cfg.Seed)
	}
	if *cfg.BatchSize != 2 {
		t.Fatalf("global batch_size should survive, got %d", *cfg.BatchSize)
	}
	if *cfg.Device != "cuda:0" {
		t.Fatalf("env device should win, got %s", *cfg.Device)
	}
}
