package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Limit int    `yaml:"limit"`
}

func (s *sample) Validate() error {
	if s.Limit < 0 {
		return errors.New("limit must be non-negative")
	}
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "vault")
	p := writeFile(t, "name: ${SAMPLE_NAME}\nlimit: 3\n")

	var got sample
	if err := Load(p, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "vault" || got.Limit != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestLoad_Validates(t *testing.T) {
	p := writeFile(t, "limit: -1\n")
	var got sample
	if err := Load(p, &got); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	var got sample
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &got); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadOrDefault_MissingFileKeepsDefaults(t *testing.T) {
	got := sample{Name: "default", Limit: 5}
	if err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"), &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "default" || got.Limit != 5 {
		t.Errorf("defaults changed: %+v", got)
	}

	bad := sample{Limit: -1}
	if err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.yaml"), &bad); err == nil {
		t.Error("defaults should still be validated")
	}
}

func TestLoadOrDefault_OverridesFromFile(t *testing.T) {
	p := writeFile(t, "name: file\n")
	got := sample{Name: "default", Limit: 5}
	if err := LoadOrDefault(p, &got); err != nil {
		t.Fatal(err)
	}
	if got.Name != "file" || got.Limit != 5 {
		t.Errorf("got %+v", got)
	}
}
