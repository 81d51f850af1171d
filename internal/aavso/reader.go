// Package aavso parses AAVSO Extended Format observation reports.
//
// The format is a plain-text file with a block of #KEY=VALUE directives
// followed by delimited records of 15 fields:
//
//	#TYPE=EXTENDED
//	#OBSCODE=VOLA
//	#DELIM=,
//	#DATE=JD
//	SS CYG,2450702.1234,11.235,0.003,V,NO,STD,105,10.593,110,11.090,1.561,1,070613,
package aavso

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/avollmer/starpipe/internal/types"
)

const numFields = 15

// Report is one parsed AAVSO report file.
type Report struct {
	Type         string
	ObserverCode string
	Software     string
	Delim        string
	DateFormat   string // JD or HJD
	ObsType      string
	Observations []types.Observation
}

// ParseFile reads and parses an AAVSO Extended Format report from disk.
func ParseFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse parses an AAVSO Extended Format report. Observations are returned
// sorted by date. Records that cannot be parsed abort with an error naming
// the offending line.
func Parse(r io.Reader) (*Report, error) {
	rep := &Report{
		Delim:      ",",
		DateFormat: "JD",
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			rep.parseDirective(line)
			continue
		}

		obs, err := rep.parseRecord(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		rep.Observations = append(rep.Observations, obs)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if rep.Type != "" && !strings.EqualFold(rep.Type, "EXTENDED") {
		return nil, fmt.Errorf("unsupported report type %q", rep.Type)
	}

	sort.SliceStable(rep.Observations, func(i, j int) bool {
		return rep.Observations[i].JD < rep.Observations[j].JD
	})
	return rep, nil
}

// parseDirective handles one #KEY=VALUE header line. Comment lines without
// an equals sign (like the optional column header) are ignored.
func (rep *Report) parseDirective(line string) {
	body := strings.TrimPrefix(line, "#")
	key, value, ok := strings.Cut(body, "=")
	if !ok {
		return
	}
	value = strings.TrimSpace(value)

	switch strings.ToUpper(strings.TrimSpace(key)) {
	case "TYPE":
		rep.Type = strings.ToUpper(value)
	case "OBSCODE":
		rep.ObserverCode = strings.ToUpper(value)
	case "SOFTWARE":
		rep.Software = value
	case "DELIM":
		if strings.EqualFold(value, "tab") {
			rep.Delim = "\t"
		} else if value != "" {
			rep.Delim = value
		}
	case "DATE":
		rep.DateFormat = strings.ToUpper(value)
	case "OBSTYPE":
		rep.ObsType = strings.ToUpper(value)
	}
}

func (rep *Report) parseRecord(line string) (types.Observation, error) {
	var obs types.Observation

	fields := strings.Split(line, rep.Delim)
	if len(fields) != numFields {
		return obs, fmt.Errorf("record has %d fields, expected %d", len(fields), numFields)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	obs.StarName = fields[0]
	if obs.StarName == "" {
		return obs, fmt.Errorf("empty star name")
	}

	jd, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return obs, fmt.Errorf("bad date %q: %w", fields[1], err)
	}
	obs.JD = jd

	mag := fields[2]
	if strings.HasPrefix(mag, "<") {
		obs.FainterThan = true
		mag = strings.TrimPrefix(mag, "<")
	}
	obs.Magnitude, err = strconv.ParseFloat(mag, 64)
	if err != nil {
		return obs, fmt.Errorf("bad magnitude %q: %w", fields[2], err)
	}

	if !isNA(fields[3]) {
		obs.MagErr, err = strconv.ParseFloat(fields[3], 64)
		if err != nil {
			return obs, fmt.Errorf("bad magnitude error %q: %w", fields[3], err)
		}
	}

	obs.Band = fields[4]
	obs.Transformed = strings.EqualFold(fields[5], "YES")
	obs.MagType = strings.ToUpper(fields[6])
	obs.CompStar = naEmpty(fields[7])
	obs.CompMag = naEmpty(fields[8])
	obs.CheckStar = naEmpty(fields[9])
	obs.CheckMag = naEmpty(fields[10])

	if !isNA(fields[11]) {
		obs.Airmass, err = strconv.ParseFloat(fields[11], 64)
		if err != nil {
			return obs, fmt.Errorf("bad airmass %q: %w", fields[11], err)
		}
	}

	obs.Group = naEmpty(fields[12])
	obs.Chart = naEmpty(fields[13])
	obs.Notes = naEmpty(fields[14])
	obs.ObserverCode = rep.ObserverCode

	return obs, nil
}

func isNA(s string) bool {
	return s == "" || strings.EqualFold(s, "na")
}

func naEmpty(s string) string {
	if isNA(s) {
		return ""
	}
	return s
}
