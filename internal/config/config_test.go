package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	// Point the search path at an empty directory so no stray stitch.yaml
	// is picked up.
	wd, _ := os.Getwd()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Crop.MinBorderPaddingPts != 10 {
		t.Errorf("expected min border padding 10, got %f", cfg.Crop.MinBorderPaddingPts)
	}
	if cfg.Toc.HeadingKeyword != "appendix" {
		t.Errorf("expected heading keyword appendix, got %q", cfg.Toc.HeadingKeyword)
	}
	if len(cfg.Render.Primary) == 0 {
		t.Error("expected a primary renderer command")
	}
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "stitch.yaml")
	content := []byte("crop:\n  padding_pts: 2\ntoc:\n  heading_keyword: anhang\n")
	if err := os.WriteFile(cfgFile, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Crop.PaddingPts != 2 {
		t.Errorf("expected padding 2, got %f", cfg.Crop.PaddingPts)
	}
	if cfg.Toc.HeadingKeyword != "anhang" {
		t.Errorf("expected keyword anhang, got %q", cfg.Toc.HeadingKeyword)
	}
	// Untouched keys keep defaults.
	if cfg.Crop.MinBorderPaddingPts != 10 {
		t.Errorf("expected default min border padding, got %f", cfg.Crop.MinBorderPaddingPts)
	}
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "stitch.yaml")
	if err := os.WriteFile(cfgFile, []byte(":\n\t-badyaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(cfgFile); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestCropConfig_EffectivePadding(t *testing.T) {
	c := CropConfig{PaddingPts: 5, MinBorderPaddingPts: 10}
	if c.EffectivePadding() != 10 {
		t.Errorf("expected floor to apply, got %f", c.EffectivePadding())
	}
	c.PaddingPts = 25
	if c.EffectivePadding() != 25 {
		t.Errorf("expected explicit padding to win, got %f", c.EffectivePadding())
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stitch.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("written defaults should load: %v", err)
	}
	if cfg.Toc.HeadingKeyword != DefaultConfig().Toc.HeadingKeyword {
		t.Errorf("round-tripped config differs from defaults")
	}
}
