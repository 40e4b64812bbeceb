package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Count int    `yaml:"count"`
}

func (s *sample) Validate() error {
	if s.Count < 0 {
		return errors.New("count must not be negative")
	}
	return nil
}

func write(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	s := sample{Count: 7}
	if err := Load(write(t, "name: ${SAMPLE_NAME}\n"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "from-env" || s.Count != 7 {
		t.Errorf("s = %+v", s)
	}
}

func TestLoad_Validates(t *testing.T) {
	var s sample
	if err := Load(write(t, "count: -1\n"), &s); err == nil {
		t.Error("expected validation error")
	}
}

func TestLoadOptional_MissingFile(t *testing.T) {
	s := sample{Name: "default"}
	if err := LoadOptional(filepath.Join(t.TempDir(), "absent.yaml"), &s); err != nil {
		t.Fatal(err)
	}
	if s.Name != "default" {
		t.Errorf("s = %+v", s)
	}
	if err := Load(filepath.Join(t.TempDir(), "absent.yaml"), &s); err == nil {
		t.Error("Load should fail on a missing file")
	}
}
