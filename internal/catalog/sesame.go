// Package catalog resolves star designations to ICRS coordinates using the
// CDS Sesame name resolver, which fronts SIMBAD. The service is consumed
// as-is; only its ascii output mode is spoken here.
package catalog

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avollmer/starpipe/internal/types"
	"github.com/avollmer/starpipe/pkg/astro"
)

// DefaultBaseURL is the CDS Sesame endpoint, SIMBAD-only mode.
const DefaultBaseURL = "https://cds.unistra.fr/cgi-bin/nph-sesame"

// Resolver resolves a star designation to a catalog position.
type Resolver interface {
	Resolve(ctx context.Context, name string) (types.Star, error)
}

// SesameClient is a Resolver backed by the CDS Sesame HTTP service.
type SesameClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSesameClient returns a Sesame resolver against the CDS production
// endpoint.
func NewSesameClient() *SesameClient {
	return &SesameClient{
		BaseURL:    DefaultBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Resolve looks up a designation via Sesame's ascii output and returns the
// ICRS J2000 position in degrees. The constellation is derived from the
// GCVS designation itself, not from the service.
func (c *SesameClient) Resolve(ctx context.Context, name string) (types.Star, error) {
	star := types.Star{Name: name}

	// Sesame ascii mode: /-oI/S?name  with %J lines carrying J2000 degrees.
	u := fmt.Sprintf("%s/-oI/S?%s", strings.TrimRight(c.BaseURL, "/"), url.QueryEscape(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return star, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return star, fmt.Errorf("sesame lookup for %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return star, fmt.Errorf("sesame lookup for %q: status %s", name, resp.Status)
	}

	ra, dec, err := parseSesame(resp.Body)
	if err != nil {
		return star, fmt.Errorf("sesame lookup for %q: %w", name, err)
	}
	star.RADeg = ra
	star.DecDeg = dec

	if abbrev, _, err := astro.Constellation(name); err == nil {
		star.Constellation = abbrev
	}
	return star, nil
}

// parseSesame extracts the J2000 position from Sesame ascii output. The
// position line has the form "%J 279.23473479 +38.78368896 = ...".
func parseSesame(r io.Reader) (ra, dec float64, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "%EC") {
			// Error comment from the resolver, e.g. unknown name.
			return 0, 0, fmt.Errorf("resolver: %s", strings.TrimSpace(strings.TrimPrefix(line, "%EC")))
		}
		if !strings.HasPrefix(line, "%J ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		ra, err = strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad RA %q: %w", fields[1], err)
		}
		dec, err = strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("bad Dec %q: %w", fields[2], err)
		}
		return ra, dec, nil
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, err
	}
	return 0, 0, fmt.Errorf("no position in resolver response")
}

// StaticResolver serves positions pinned in the configuration, bypassing
// the network entirely.
type StaticResolver struct {
	RADeg, DecDeg float64
}

func (s StaticResolver) Resolve(_ context.Context, name string) (types.Star, error) {
	star := types.Star{Name: name, RADeg: s.RADeg, DecDeg: s.DecDeg}
	if abbrev, _, err := astro.Constellation(name); err == nil {
		star.Constellation = abbrev
	}
	return star, nil
}
