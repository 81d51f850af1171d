package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements Provider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Observer ObserverYAML `yaml:"observer"`
		Reports  []string     `yaml:"reports"`
		Targets  []TargetYAML `yaml:"targets"`
		Sampler  SamplerYAML  `yaml:"sampler,omitempty"`
		Output   OutputYAML   `yaml:"output,omitempty"`
		Archive  ArchiveYAML  `yaml:"archive,omitempty"`
		Server   *ServerYAML  `yaml:"server,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Observer: ObserverData{
			Code:      yamlConfig.Observer.Code,
			Latitude:  yamlConfig.Observer.Latitude,
			Longitude: yamlConfig.Observer.Longitude,
			Elevation: yamlConfig.Observer.Elevation,
		},
		Reports: yamlConfig.Reports,
		Targets: make([]TargetData, len(yamlConfig.Targets)),
		Sampler: SamplerData{
			Walkers: yamlConfig.Sampler.Walkers,
			Steps:   yamlConfig.Sampler.Steps,
			BurnIn:  yamlConfig.Sampler.BurnIn,
			Stretch: yamlConfig.Sampler.Stretch,
			Seed:    yamlConfig.Sampler.Seed,
		},
		Output: OutputData{
			Directory: yamlConfig.Output.Directory,
		},
	}

	for i, target := range yamlConfig.Targets {
		config.Targets[i] = TargetData{
			Name:      target.Name,
			Type:      target.Type,
			Period:    target.Period,
			Epoch:     target.Epoch,
			Harmonics: target.Harmonics,
			Event:     target.Event,
			RA:        target.RA,
			Dec:       target.Dec,
		}
	}

	if yamlConfig.Archive.SQLite != nil {
		config.Archive.SQLite = &SQLiteArchiveData{
			Path: yamlConfig.Archive.SQLite.Path,
		}
	}
	if yamlConfig.Archive.TimescaleDB != nil {
		config.Archive.TimescaleDB = &TimescaleDBArchiveData{
			ConnectionString: yamlConfig.Archive.TimescaleDB.ConnectionString,
		}
	}
	if yamlConfig.Server != nil {
		config.Server = &ServerData{
			ListenAddr: yamlConfig.Server.ListenAddr,
			Cert:       yamlConfig.Server.Cert,
			Key:        yamlConfig.Server.Key,
		}
	}

	config.ApplyDefaults()
	y.config = config
	return config, nil
}

// GetObserver returns the observer configuration
func (y *YAMLProvider) GetObserver() (*ObserverData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Observer, nil
}

// GetTargets returns target configurations
func (y *YAMLProvider) GetTargets() ([]TargetData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Targets, nil
}

// GetSampler returns the sampler configuration
func (y *YAMLProvider) GetSampler() (*SamplerData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Sampler, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the on-disk format
type ObserverYAML struct {
	Code      string  `yaml:"code"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Elevation float64 `yaml:"elevation,omitempty"`
}

type TargetYAML struct {
	Name      string  `yaml:"name"`
	Type      string  `yaml:"type"`
	Period    float64 `yaml:"period,omitempty"`
	Epoch     float64 `yaml:"epoch,omitempty"`
	Harmonics int     `yaml:"harmonics,omitempty"`
	Event     string  `yaml:"event,omitempty"`
	RA        float64 `yaml:"ra,omitempty"`
	Dec       float64 `yaml:"dec,omitempty"`
}

type SamplerYAML struct {
	Walkers int     `yaml:"walkers,omitempty"`
	Steps   int     `yaml:"steps,omitempty"`
	BurnIn  int     `yaml:"burn-in,omitempty"`
	Stretch float64 `yaml:"stretch,omitempty"`
	Seed    int64   `yaml:"seed,omitempty"`
}

type OutputYAML struct {
	Directory string `yaml:"directory,omitempty"`
}

type ArchiveYAML struct {
	SQLite      *SQLiteArchiveYAML      `yaml:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBArchiveYAML `yaml:"timescaledb,omitempty"`
}

type SQLiteArchiveYAML struct {
	Path string `yaml:"path"`
}

type TimescaleDBArchiveYAML struct {
	ConnectionString string `yaml:"connection-string"`
}

type ServerYAML struct {
	ListenAddr string `yaml:"listen-addr,omitempty"`
	Cert       string `yaml:"cert,omitempty"`
	Key        string `yaml:"key,omitempty"`
}
