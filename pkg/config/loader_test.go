package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type nestedConfig struct {
	Model   string        `yaml:"model" env:"MODEL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

type testConfig struct {
	Host    string        `yaml:"host" env:"HOST"`
	Port    int           `yaml:"port" env:"PORT"`
	Debug   bool          `yaml:"debug" env:"DEBUG"`
	Origins []string      `yaml:"origins" env:"ORIGINS"`
	Ollama  *nestedConfig `yaml:"ollama"`
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
host: 127.0.0.1
port: 9090
debug: true
ollama:
  model: mistral
  timeout: 45s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	loader := NewLoader("TESTAPP")
	if err := loader.LoadFromFile(path, &cfg); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Host != "127.0.0.1" || cfg.Port != 9090 || !cfg.Debug {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Ollama == nil || cfg.Ollama.Model != "mistral" || cfg.Ollama.Timeout != 45*time.Second {
		t.Errorf("nested config not loaded: %+v", cfg.Ollama)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("host: from-file\nport: 8080\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TESTAPP_HOST", "from-env")
	t.Setenv("TESTAPP_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("TESTAPP_OLLAMA_TIMEOUT", "90s")

	var cfg testConfig
	loader := NewLoader("TESTAPP")
	if err := loader.Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Host != "from-env" {
		t.Errorf("env override failed, host = %q", cfg.Host)
	}
	if cfg.Port != 8080 {
		t.Errorf("file value lost, port = %d", cfg.Port)
	}
	if len(cfg.Origins) != 2 || cfg.Origins[1] != "http://b.test" {
		t.Errorf("slice env parse failed: %v", cfg.Origins)
	}
	if cfg.Ollama == nil || cfg.Ollama.Timeout != 90*time.Second {
		t.Errorf("nested env override failed: %+v", cfg.Ollama)
	}
}

func TestUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("x = 1"), 0644); err != nil {
		t.Fatal(err)
	}

	var cfg testConfig
	if err := NewLoader("").LoadFromFile(path, &cfg); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestValidateConfigPath(t *testing.T) {
	if err := ValidateConfigPath(""); err != nil {
		t.Errorf("empty path should be valid: %v", err)
	}
	if err := ValidateConfigPath("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
