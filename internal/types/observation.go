// Package types holds the data model shared across the pipeline stages.
package types

import "time"

// Observation is a single photometric measurement parsed from an AAVSO
// report. It is never modified after parsing; corrections are carried on
// CorrectedObservation instead.
type Observation struct {
	StarName     string  // target designation as reported, e.g. "RR Lyr"
	JD           float64 // geocentric Julian Date of mid-exposure
	Magnitude    float64
	MagErr       float64 // 0 when the report carried "na"
	Band         string  // photometric filter, e.g. "V", "TG"
	FainterThan  bool    // magnitude was a "<" upper limit
	Transformed  bool
	MagType      string // STD, DIF or ABS
	CompStar     string
	CompMag      string
	CheckStar    string
	CheckMag     string
	Airmass      float64 // as reported; 0 when absent
	Group        string
	Chart        string
	Notes        string
	ObserverCode string
}

// CorrectedObservation is an Observation with derived time and airmass
// corrections applied.
type CorrectedObservation struct {
	Observation
	HJD     float64 // heliocentric Julian Date
	Airmass float64 // reported airmass if present, otherwise computed
}

// Star is a resolved target with catalog coordinates and constellation.
type Star struct {
	Name          string
	RADeg         float64
	DecDeg        float64
	Constellation string // IAU three-letter abbreviation, e.g. "Lyr"
}

// PosteriorSet holds MCMC output: draws indexed [chain][draw][param].
// Draws within a chain are exchangeable; ordering carries no meaning
// beyond chain/draw indexing.
type PosteriorSet struct {
	Params   []string      `msgpack:"params"`
	Chains   [][][]float64 `msgpack:"chains"`
	LogProb  [][]float64   `msgpack:"logprob"`
	Accepted int           `msgpack:"accepted"`
	Proposed int           `msgpack:"proposed"`
}

// NumDraws returns the total number of draws across all chains.
func (p *PosteriorSet) NumDraws() int {
	n := 0
	for _, c := range p.Chains {
		n += len(c)
	}
	return n
}

// Flatten returns all draws of one parameter pooled across chains.
func (p *PosteriorSet) Flatten(param int) []float64 {
	out := make([]float64, 0, p.NumDraws())
	for _, c := range p.Chains {
		for _, draw := range c {
			out = append(out, draw[param])
		}
	}
	return out
}

// ParamIndex returns the index of a named parameter, or -1.
func (p *PosteriorSet) ParamIndex(name string) int {
	for i, n := range p.Params {
		if n == name {
			return i
		}
	}
	return -1
}

// ReportRecord is the finalized per-event summary destined for BAV export.
// Created once per analysis run and never mutated after write.
type ReportRecord struct {
	RunID         string
	StarName      string
	Constellation string
	EventKind     string  // "min", "max" or "transit"
	EventHJD      float64 // time of extremum / mid-transit
	EventHJDErr   float64 // 1-sigma posterior uncertainty, days
	Amplitude     float64 // peak-to-peak amplitude or transit depth, mag
	AmplitudeErr  float64
	PeriodDays    float64
	PeriodErr     float64
	Band          string
	ObserverCode  string
	Points        int
	Method        string // sampling method tag for the report file
	GeneratedAt   time.Time
}
