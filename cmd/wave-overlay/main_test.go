package main

import (
	"path/filepath"
	"testing"

	"github.com/petems/wave-overlay/internal/config"
	"github.com/spf13/cobra"
)

func TestFlagOverridesAreNotSaved(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	oldCfg, oldRecord, oldDevice := cfgFile, record, device
	t.Cleanup(func() { cfgFile, record, device = oldCfg, oldRecord, oldDevice })
	cfgFile = path

	cmd := &cobra.Command{}
	cmd.Flags().BoolVar(&record, "record", false, "")
	cmd.Flags().StringVar(&device, "device", "", "")
	if err := cmd.Flags().Set("record", "true"); err != nil {
		t.Fatal(err)
	}
	if err := cmd.Flags().Set("device", "Headphones"); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !cfg.Record.Enabled || cfg.Audio.Device != "Headphones" {
		t.Fatalf("expected overrides for this run, got %+v %+v", cfg.Record, cfg.Audio)
	}

	if err := config.SaveScaling(cfg.Path(), 0.2, 1.5); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	saved, err := config.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if saved.Record.Enabled {
		t.Error("--record was persisted")
	}
	if saved.Audio.Device != "" {
		t.Errorf("--device was persisted as %q", saved.Audio.Device)
	}
	if saved.Render.HorizontalScaling != 0.2 || saved.Render.VerticalScaling != 1.5 {
		t.Errorf("expected scaling 0.2/1.5, got %v/%v", saved.Render.HorizontalScaling, saved.Render.VerticalScaling)
	}
}
