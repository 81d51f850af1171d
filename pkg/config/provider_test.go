package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testYAML = `
observer:
  code: VOLA
  latitude: 48.14
  longitude: 11.58
  elevation: 520
reports:
  - testdata/rrlyr.txt
targets:
  - name: RR Lyr
    type: pulsation
    period: 0.56686
    harmonics: 5
    event: max
  - name: TrES-5 b
    type: transit
    ra: 305.222
    dec: 59.449
sampler:
  walkers: 32
  steps: 2000
  seed: 7
output:
  directory: results
archive:
  sqlite:
    path: runs.db
server:
  listen-addr: ":8090"
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(testYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestYAMLProviderLoadConfig(t *testing.T) {
	p := NewYAMLProvider(writeTestConfig(t))
	cfg, err := p.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Observer.Code != "VOLA" || cfg.Observer.Latitude != 48.14 {
		t.Errorf("observer = %+v", cfg.Observer)
	}
	if len(cfg.Reports) != 1 || cfg.Reports[0] != "testdata/rrlyr.txt" {
		t.Errorf("reports = %v", cfg.Reports)
	}
	if len(cfg.Targets) != 2 {
		t.Fatalf("parsed %d targets, expected 2", len(cfg.Targets))
	}

	puls := cfg.Targets[0]
	if puls.Type != "pulsation" || puls.Period != 0.56686 || puls.Harmonics != 5 || puls.Event != "max" {
		t.Errorf("pulsation target = %+v", puls)
	}

	transit := cfg.Targets[1]
	if !transit.HasCoords {
		t.Error("coordinate override should set HasCoords")
	}
	if transit.Event != "min" {
		t.Errorf("transit event default = %q, expected min", transit.Event)
	}
	if transit.Harmonics != 4 {
		t.Errorf("harmonics default = %d, expected 4", transit.Harmonics)
	}

	if cfg.Sampler.Walkers != 32 || cfg.Sampler.Steps != 2000 {
		t.Errorf("sampler = %+v", cfg.Sampler)
	}
	if cfg.Sampler.Stretch != 2.0 {
		t.Errorf("stretch default = %.1f, expected 2.0", cfg.Sampler.Stretch)
	}
	if cfg.Sampler.BurnIn != 500 {
		t.Errorf("burn-in default = %d, expected steps/4 = 500", cfg.Sampler.BurnIn)
	}

	if cfg.Output.Directory != "results" {
		t.Errorf("output dir = %q", cfg.Output.Directory)
	}
	if cfg.Archive.SQLite == nil || cfg.Archive.SQLite.Path != "runs.db" {
		t.Errorf("archive = %+v", cfg.Archive)
	}
	if cfg.Server == nil || cfg.Server.ListenAddr != ":8090" {
		t.Errorf("server = %+v", cfg.Server)
	}

	if !p.IsReadOnly() {
		t.Error("YAML provider should report read-only")
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	p := NewYAMLProvider("/nonexistent/config.yaml")
	if _, err := p.LoadConfig(); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSQLiteProviderRoundTrip(t *testing.T) {
	yp := NewYAMLProvider(writeTestConfig(t))
	want, err := yp.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}

	dbPath := filepath.Join(t.TempDir(), "config.db")
	sp, err := NewSQLiteProvider(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteProvider error: %v", err)
	}
	defer sp.Close()

	if err := sp.CreateSchema(); err != nil {
		t.Fatalf("CreateSchema error: %v", err)
	}
	if err := sp.Save(want); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	got, err := sp.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if got.Observer != want.Observer {
		t.Errorf("observer round trip: got %+v, want %+v", got.Observer, want.Observer)
	}
	if len(got.Targets) != len(want.Targets) {
		t.Fatalf("target count: got %d, want %d", len(got.Targets), len(want.Targets))
	}
	for i := range want.Targets {
		if got.Targets[i] != want.Targets[i] {
			t.Errorf("target %d: got %+v, want %+v", i, got.Targets[i], want.Targets[i])
		}
	}
	if got.Sampler != want.Sampler {
		t.Errorf("sampler round trip: got %+v, want %+v", got.Sampler, want.Sampler)
	}
	if got.Output.Directory != want.Output.Directory {
		t.Errorf("output dir: got %q, want %q", got.Output.Directory, want.Output.Directory)
	}
	if got.Archive.SQLite == nil || got.Archive.SQLite.Path != "runs.db" {
		t.Errorf("archive round trip: %+v", got.Archive)
	}
	if got.Server == nil || got.Server.ListenAddr != ":8090" {
		t.Errorf("server round trip: %+v", got.Server)
	}
	if sp.IsReadOnly() {
		t.Error("SQLite provider should not report read-only")
	}
}
