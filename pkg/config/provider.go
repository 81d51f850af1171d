package config

// Provider defines the interface for configuration data sources
type Provider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetObserver() (*ObserverData, error)
	GetTargets() ([]TargetData, error)
	GetSampler() (*SamplerData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Observer ObserverData `json:"observer"`
	Reports  []string     `json:"reports"`
	Targets  []TargetData `json:"targets"`
	Sampler  SamplerData  `json:"sampler,omitempty"`
	Output   OutputData   `json:"output,omitempty"`
	Archive  ArchiveData  `json:"archive,omitempty"`
	Server   *ServerData  `json:"server,omitempty"`
}

// ObserverData identifies the observer and the observing site used for
// airmass computation
type ObserverData struct {
	Code      string  `json:"code"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation float64 `json:"elevation,omitempty"`
}

// TargetData holds per-star analysis settings
type TargetData struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"` // transit or pulsation
	Period    float64 `json:"period,omitempty"`
	Epoch     float64 `json:"epoch,omitempty"`
	Harmonics int     `json:"harmonics,omitempty"`
	Event     string  `json:"event,omitempty"` // min or max
	RA        float64 `json:"ra,omitempty"`
	Dec       float64 `json:"dec,omitempty"`
	HasCoords bool    `json:"has_coords,omitempty"`
}

// SamplerData holds MCMC sampler settings
type SamplerData struct {
	Walkers int     `json:"walkers,omitempty"`
	Steps   int     `json:"steps,omitempty"`
	BurnIn  int     `json:"burn_in,omitempty"`
	Stretch float64 `json:"stretch,omitempty"`
	Seed    int64   `json:"seed,omitempty"`
}

// OutputData holds output locations
type OutputData struct {
	Directory string `json:"directory,omitempty"`
}

// ArchiveData holds the configuration for run archive backends
type ArchiveData struct {
	SQLite      *SQLiteArchiveData      `json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBArchiveData `json:"timescaledb,omitempty"`
}

type SQLiteArchiveData struct {
	Path string `json:"path"`
}

type TimescaleDBArchiveData struct {
	ConnectionString string `json:"connection_string"`
}

// ServerData holds the results REST server configuration
type ServerData struct {
	ListenAddr string `json:"listen_addr,omitempty"`
	Cert       string `json:"cert,omitempty"`
	Key        string `json:"key,omitempty"`
}

// ApplyDefaults fills unset sampler and output values with working defaults.
func (c *ConfigData) ApplyDefaults() {
	if c.Sampler.Walkers == 0 {
		c.Sampler.Walkers = 64
	}
	if c.Sampler.Steps == 0 {
		c.Sampler.Steps = 4000
	}
	if c.Sampler.BurnIn == 0 {
		c.Sampler.BurnIn = c.Sampler.Steps / 4
	}
	if c.Sampler.Stretch == 0 {
		c.Sampler.Stretch = 2.0
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "out"
	}
	for i := range c.Targets {
		t := &c.Targets[i]
		if t.Harmonics == 0 {
			t.Harmonics = 4
		}
		if t.Event == "" {
			t.Event = "min"
		}
		if t.RA != 0 || t.Dec != 0 {
			t.HasCoords = true
		}
	}
}
