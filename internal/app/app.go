// Package app wires the pipeline stages together: report ingest, coordinate
// resolution, corrections, fitting, summaries, BAV output and archiving.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avollmer/starpipe/internal/aavso"
	"github.com/avollmer/starpipe/internal/archive"
	"github.com/avollmer/starpipe/internal/catalog"
	"github.com/avollmer/starpipe/internal/correct"
	"github.com/avollmer/starpipe/internal/fit"
	"github.com/avollmer/starpipe/internal/log"
	"github.com/avollmer/starpipe/internal/plot"
	"github.com/avollmer/starpipe/internal/summary"
	"github.com/avollmer/starpipe/internal/types"
	"github.com/avollmer/starpipe/pkg/bav"
	"github.com/avollmer/starpipe/pkg/config"
)

// Quality-filter settings. The AAVSO extended format has no field for
// these, so they are pipeline policy rather than per-report data.
const (
	maxAirmass     = 3.0
	sigmaClip      = 5.0
	sigmaClipWin   = 11
	synthGridN     = 400
	eventPostDraws = 2000
	rhatThreshold  = 1.05
)

const methodTag = "MCMC/stretch"

// RunOptions select what one invocation processes.
type RunOptions struct {
	// Star restricts the run to one configured target by name.
	Star string

	// Resample forces a fresh MCMC run even when a chain cache exists.
	Resample bool
}

// App represents the pipeline application.
type App struct {
	configProvider config.Provider
	resolver       catalog.Resolver
	logger         *zap.SugaredLogger
}

// New creates a new application instance.
func New(configProvider config.Provider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		resolver:       catalog.NewSesameClient(),
		logger:         logger,
	}
}

// SetResolver replaces the coordinate resolver. Used by tests and by
// deployments behind a Sesame mirror.
func (a *App) SetResolver(r catalog.Resolver) {
	a.resolver = r
}

// reportSet is the pooled observations for one star, split by the time
// base their report declared.
type reportSet struct {
	jd   []types.Observation // geocentric JD records
	hjd  []types.Observation // records already heliocentric
	band string
	code string
}

// Run executes the pipeline for all configured targets (or the one
// selected in opts) and blocks until done.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	cfg.ApplyDefaults()

	if len(cfg.Reports) == 0 {
		return fmt.Errorf("no report files configured")
	}
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("no targets configured")
	}

	sets, err := a.ingestReports(cfg.Reports)
	if err != nil {
		return err
	}

	store, err := openArchive(cfg.Archive)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	ran := 0
	for _, target := range cfg.Targets {
		if opts.Star != "" && !strings.EqualFold(opts.Star, target.Name) {
			continue
		}
		ran++

		set, ok := sets[normalizeStarName(target.Name)]
		if !ok {
			log.Warnf("target %s: no observations found in any report, skipping", target.Name)
			continue
		}

		if err := a.runTarget(ctx, cfg, target, set, store, opts.Resample); err != nil {
			return fmt.Errorf("target %s: %w", target.Name, err)
		}
	}

	if opts.Star != "" && ran == 0 {
		return fmt.Errorf("star %q is not a configured target", opts.Star)
	}

	log.Info("pipeline run complete")
	return nil
}

// ingestReports parses every configured report file and pools the
// observations per star.
func (a *App) ingestReports(paths []string) (map[string]*reportSet, error) {
	sets := make(map[string]*reportSet)
	for _, path := range paths {
		rep, err := aavso.ParseFile(path)
		if err != nil {
			return nil, fmt.Errorf("error parsing report: %w", err)
		}
		log.Infof("parsed %s: %d observations (observer %s, dates %s)",
			path, len(rep.Observations), rep.ObserverCode, rep.DateFormat)

		helio := strings.EqualFold(rep.DateFormat, "HJD")
		for _, o := range rep.Observations {
			key := normalizeStarName(o.StarName)
			set := sets[key]
			if set == nil {
				set = &reportSet{}
				sets[key] = set
			}
			if helio {
				set.hjd = append(set.hjd, o)
			} else {
				set.jd = append(set.jd, o)
			}
			if set.band == "" {
				set.band = o.Band
			}
			if set.code == "" {
				set.code = o.ObserverCode
			}
		}
	}
	return sets, nil
}

// runTarget runs the full analysis for one star and writes all of its
// output artifacts.
func (a *App) runTarget(ctx context.Context, cfg *config.ConfigData, tgt config.TargetData, set *reportSet, store archive.Store, resample bool) error {
	started := time.Now().UTC()
	a.logger.Infof("analyzing %s (%s model, %d+%d observations)",
		tgt.Name, tgt.Type, len(set.jd), len(set.hjd))

	star, err := a.resolveTarget(ctx, tgt)
	if err != nil {
		return err
	}
	a.logger.Infof("%s resolved to RA %.5f Dec %+.5f (%s)",
		star.Name, star.RADeg, star.DecDeg, star.Constellation)

	site := correct.Site{
		LatDeg: cfg.Observer.Latitude,
		LonDeg: cfg.Observer.Longitude,
	}
	corrected := correct.Apply(set.jd, star, site, false)
	corrected = append(corrected, correct.Apply(set.hjd, star, site, true)...)
	sort.Slice(corrected, func(i, j int) bool { return corrected[i].HJD < corrected[j].HJD })

	kept, droppedN := correct.Filter(corrected, correct.FilterOptions{
		MaxAirmass: maxAirmass,
		SigmaClip:  sigmaClip,
		ClipWindow: sigmaClipWin,
	})
	if len(kept) < 10 {
		return fmt.Errorf("only %d usable observations after filtering", len(kept))
	}
	a.logger.Infof("%s: %d observations kept, %d dropped", tgt.Name, len(kept), droppedN)

	outDir := filepath.Join(cfg.Output.Directory, starDirName(tgt.Name))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}

	if err := correct.WriteObservationsCSV(filepath.Join(outDir, "lc_obs.csv"), kept); err != nil {
		return err
	}

	model, err := buildModel(tgt, kept)
	if err != nil {
		return err
	}

	post, err := a.samplePosterior(ctx, model, kept, cfg.Sampler, outDir, tgt.Name, resample)
	if err != nil {
		return err
	}

	summaries := summary.Summarize(post)
	if ok, reason := summary.Converged(summaries, rhatThreshold); !ok {
		log.Warnf("%s: chains may not have converged: %s", tgt.Name, reason)
	}

	kind := eventKind(tgt)
	times, amps := fit.EventPosterior(model, post, kind, eventPostDraws)
	eventSum := summary.FromSamples("event_hjd", times)
	ampSum := summary.FromSamples("amplitude", amps)
	summaries = append(summaries, eventSum, ampSum)

	if err := summary.WriteUncertaintiesCSV(filepath.Join(outDir, "uncertainties.csv"), summaries); err != nil {
		return err
	}

	tMin, tMax := timeSpan(kept)
	if err := fit.WriteSynthCSV(filepath.Join(outDir, "lc_synth.csv"), model, post, tMin, tMax, synthGridN); err != nil {
		return err
	}

	rec := buildRecord(tgt, star, set, kept, post, eventSum, ampSum, kind)
	if err := bav.WriteMiniMaxFile(filepath.Join(outDir, "minimax.txt"), []types.ReportRecord{rec}); err != nil {
		return err
	}
	if err := bav.WriteReportFile(filepath.Join(outDir, "report.txt"), rec, summaries); err != nil {
		return err
	}

	if err := a.writePlots(outDir, tgt, model, post, kept, rec); err != nil {
		return err
	}

	if store != nil {
		run := archive.FromRecord(rec, model.Name(), outDir, started)
		if err := store.SaveRun(ctx, run); err != nil {
			return err
		}
		a.logger.Infof("%s: run %s archived", tgt.Name, rec.RunID)
	}

	a.logger.Infof("%s: event %s at HJD %.5f ± %.5f, amplitude %.3f mag",
		tgt.Name, rec.EventKind, rec.EventHJD, rec.EventHJDErr, rec.Amplitude)
	return nil
}

// resolveTarget returns the star coordinates, from the config override
// when pinned or from the catalog otherwise.
func (a *App) resolveTarget(ctx context.Context, tgt config.TargetData) (types.Star, error) {
	resolver := a.resolver
	if tgt.HasCoords {
		resolver = catalog.StaticResolver{RADeg: tgt.RA, DecDeg: tgt.Dec}
	}
	star, err := resolver.Resolve(ctx, tgt.Name)
	if err != nil {
		return types.Star{}, fmt.Errorf("error resolving coordinates: %w", err)
	}
	return star, nil
}

// samplePosterior returns the posterior set for the model, reusing the
// per-star chain cache unless a resample was requested.
func (a *App) samplePosterior(ctx context.Context, model fit.Model, obs []types.CorrectedObservation, s config.SamplerData, outDir, name string, resample bool) (*types.PosteriorSet, error) {
	cachePath := filepath.Join(outDir, starDirName(name)+"_chains.msgpack")
	wantParams := append(append([]string(nil), model.ParamNames()...), "log_jitter")

	if !resample {
		if cached, err := fit.LoadChains(cachePath); err == nil {
			if paramsMatch(cached.Params, wantParams) {
				a.logger.Infof("%s: using cached chains from %s", name, cachePath)
				return cached, nil
			}
			log.Warnf("%s: chain cache has stale parameters, resampling", name)
		}
	}

	post, err := fit.Run(ctx, model, obs, fit.Options{
		Walkers: s.Walkers,
		Steps:   s.Steps,
		BurnIn:  s.BurnIn,
		Stretch: s.Stretch,
		Seed:    s.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("sampling failed: %w", err)
	}
	a.logger.Infof("%s: sampled %d draws, acceptance %.2f",
		name, post.NumDraws(), mcmcAcceptance(post))

	if err := fit.SaveChains(cachePath, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (a *App) writePlots(outDir string, tgt config.TargetData, model fit.Model, post *types.PosteriorSet, obs []types.CorrectedObservation, rec types.ReportRecord) error {
	med := fit.MedianParams(model, post)

	tMin, tMax := timeSpan(obs)
	modelT := make([]float64, synthGridN)
	modelMag := make([]float64, synthGridN)
	for i := range modelT {
		t := tMin + (tMax-tMin)*float64(i)/float64(synthGridN-1)
		modelT[i] = t
		modelMag[i] = model.Eval(med, t)
	}

	title := fmt.Sprintf("%s (%s)", tgt.Name, rec.Band)
	for _, ext := range []string{"png", "pdf"} {
		path := filepath.Join(outDir, "lightcurve."+ext)
		if err := plot.LightCurve(path, title, obs, modelT, modelMag); err != nil {
			return fmt.Errorf("error plotting light curve: %w", err)
		}
	}

	if rec.PeriodDays <= 0 {
		return nil
	}
	epoch := tgt.Epoch
	if epoch == 0 {
		epoch = tMin
	}
	phaseMag := func(phase float64) float64 {
		return model.Eval(med, epoch+phase*rec.PeriodDays)
	}
	path := filepath.Join(outDir, "phased.png")
	if err := plot.Phased(path, title, obs, phaseMag, rec.PeriodDays, epoch); err != nil {
		return fmt.Errorf("error plotting phased curve: %w", err)
	}
	return nil
}

// buildModel constructs the configured model for one target.
func buildModel(tgt config.TargetData, obs []types.CorrectedObservation) (fit.Model, error) {
	switch strings.ToLower(tgt.Type) {
	case "transit":
		return fit.NewTransitModel(obs)
	case "pulsation":
		if tgt.Period <= 0 {
			return nil, fmt.Errorf("pulsation target needs a trial period")
		}
		epoch := tgt.Epoch
		if epoch == 0 {
			epoch, _ = timeSpan(obs)
		}
		return fit.NewPulsationModel(obs, tgt.Period, epoch, tgt.Harmonics)
	default:
		return nil, fmt.Errorf("unknown target type %q", tgt.Type)
	}
}

func buildRecord(tgt config.TargetData, star types.Star, set *reportSet, kept []types.CorrectedObservation, post *types.PosteriorSet, eventSum, ampSum summary.ParamSummary, kind string) types.ReportRecord {
	rec := types.ReportRecord{
		RunID:         uuid.New().String(),
		StarName:      tgt.Name,
		Constellation: star.Constellation,
		EventKind:     kind,
		EventHJD:      eventSum.Median,
		EventHJDErr:   eventSum.Std,
		Amplitude:     ampSum.Median,
		AmplitudeErr:  ampSum.Std,
		Band:          set.band,
		ObserverCode:  set.code,
		Points:        len(kept),
		Method:        methodTag,
		GeneratedAt:   time.Now().UTC(),
	}
	if i := post.ParamIndex("period"); i >= 0 {
		ps := summary.FromSamples("period", post.Flatten(i))
		rec.PeriodDays = ps.Median
		rec.PeriodErr = ps.Std
	}
	return rec
}

func eventKind(tgt config.TargetData) string {
	if strings.EqualFold(tgt.Type, "transit") {
		return "transit"
	}
	return tgt.Event
}

func openArchive(a config.ArchiveData) (archive.Store, error) {
	switch {
	case a.SQLite != nil:
		return archive.NewSQLiteStore(a.SQLite.Path)
	case a.TimescaleDB != nil:
		return archive.NewPostgresStore(a.TimescaleDB.ConnectionString)
	default:
		return nil, nil
	}
}

func normalizeStarName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// starDirName maps a star name to its output directory, e.g.
// "RR Lyr" -> "RR_LYR".
func starDirName(name string) string {
	return strings.ReplaceAll(normalizeStarName(name), " ", "_")
}

func paramsMatch(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func timeSpan(obs []types.CorrectedObservation) (tMin, tMax float64) {
	tMin, tMax = obs[0].HJD, obs[0].HJD
	for _, o := range obs[1:] {
		if o.HJD < tMin {
			tMin = o.HJD
		}
		if o.HJD > tMax {
			tMax = o.HJD
		}
	}
	return tMin, tMax
}

func mcmcAcceptance(set *types.PosteriorSet) float64 {
	if set.Proposed == 0 {
		return 0
	}
	return float64(set.Accepted) / float64(set.Proposed)
}
