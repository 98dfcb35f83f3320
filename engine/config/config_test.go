package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	data := []byte("loader:\n  flip_y: true\n  image_workers: 2\nviewer:\n  animation: -1\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !cfg.Loader.FlipY || cfg.Loader.ImageWorkers != 2 {
		t.Errorf("expected file values, got %+v", cfg.Loader)
	}
	if cfg.Loader.MeshSetIndex != 2 || cfg.Loader.Scale != 1 {
		t.Errorf("expected defaults for unset fields, got %+v", cfg.Loader)
	}
	if cfg.Viewer.Animation != -1 || cfg.Viewer.Width != 1280 {
		t.Errorf("expected merged viewer section, got %+v", cfg.Viewer)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing explicit file")
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("loader: [not a map"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected a parse error")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	cfg := Default()
	cfg.Logging.Level = "debug"
	cfg.Viewer.VSync = false
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Logging.Level != "debug" || got.Viewer.VSync {
		t.Errorf("expected saved values, got %+v %+v", got.Logging, got.Viewer)
	}
}

func TestConfigDirHonoursXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only consulted on linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if dir := ConfigDir(); dir != filepath.Join("/tmp/xdg", "oxy-gltf") {
		t.Errorf("expected /tmp/xdg/oxy-gltf, got %q", dir)
	}
}
