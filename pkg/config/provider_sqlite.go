package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements Provider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from the SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	observer, err := s.GetObserver()
	if err != nil {
		return nil, fmt.Errorf("failed to load observer: %w", err)
	}
	config.Observer = *observer

	reports, err := s.getReports()
	if err != nil {
		return nil, fmt.Errorf("failed to load reports: %w", err)
	}
	config.Reports = reports

	targets, err := s.GetTargets()
	if err != nil {
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}
	config.Targets = targets

	sampler, err := s.GetSampler()
	if err != nil {
		return nil, fmt.Errorf("failed to load sampler config: %w", err)
	}
	config.Sampler = *sampler

	if err := s.loadOutputArchiveServer(config); err != nil {
		return nil, err
	}

	config.ApplyDefaults()
	return config, nil
}

// GetObserver returns the observer row from the database
func (s *SQLiteProvider) GetObserver() (*ObserverData, error) {
	query := `
		SELECT code, latitude, longitude, COALESCE(elevation, 0)
		FROM observer
		LIMIT 1
	`

	var o ObserverData
	err := s.db.QueryRow(query).Scan(&o.Code, &o.Latitude, &o.Longitude, &o.Elevation)
	if err == sql.ErrNoRows {
		return &ObserverData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query observer: %w", err)
	}
	return &o, nil
}

func (s *SQLiteProvider) getReports() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM reports ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		reports = append(reports, path)
	}
	return reports, rows.Err()
}

// GetTargets returns target configurations from the database
func (s *SQLiteProvider) GetTargets() ([]TargetData, error) {
	query := `
		SELECT name, type, COALESCE(period, 0), COALESCE(epoch, 0),
		       COALESCE(harmonics, 0), COALESCE(event, ''),
		       COALESCE(ra, 0), COALESCE(dec, 0)
		FROM targets
		ORDER BY name
	`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	var targets []TargetData
	for rows.Next() {
		var t TargetData
		err := rows.Scan(&t.Name, &t.Type, &t.Period, &t.Epoch,
			&t.Harmonics, &t.Event, &t.RA, &t.Dec)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// GetSampler returns the sampler row from the database
func (s *SQLiteProvider) GetSampler() (*SamplerData, error) {
	query := `
		SELECT COALESCE(walkers, 0), COALESCE(steps, 0), COALESCE(burn_in, 0),
		       COALESCE(stretch, 0), COALESCE(seed, 0)
		FROM sampler
		LIMIT 1
	`

	var sd SamplerData
	err := s.db.QueryRow(query).Scan(&sd.Walkers, &sd.Steps, &sd.BurnIn, &sd.Stretch, &sd.Seed)
	if err == sql.ErrNoRows {
		return &SamplerData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sampler: %w", err)
	}
	return &sd, nil
}

func (s *SQLiteProvider) loadOutputArchiveServer(config *ConfigData) error {
	var dir sql.NullString
	err := s.db.QueryRow(`SELECT directory FROM output LIMIT 1`).Scan(&dir)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to query output: %w", err)
	}
	if dir.Valid {
		config.Output.Directory = dir.String
	}

	var sqlitePath, connStr sql.NullString
	err = s.db.QueryRow(`SELECT sqlite_path, timescaledb_conn FROM archive LIMIT 1`).
		Scan(&sqlitePath, &connStr)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to query archive: %w", err)
	}
	if sqlitePath.Valid && sqlitePath.String != "" {
		config.Archive.SQLite = &SQLiteArchiveData{Path: sqlitePath.String}
	}
	if connStr.Valid && connStr.String != "" {
		config.Archive.TimescaleDB = &TimescaleDBArchiveData{ConnectionString: connStr.String}
	}

	var listen, cert, key sql.NullString
	err = s.db.QueryRow(`SELECT listen_addr, cert, key FROM server LIMIT 1`).
		Scan(&listen, &cert, &key)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to query server: %w", err)
	}
	if listen.Valid && listen.String != "" {
		config.Server = &ServerData{
			ListenAddr: listen.String,
			Cert:       cert.String,
			Key:        key.String,
		}
	}
	return nil
}

// IsReadOnly returns false: the SQLite backend can be edited in place
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	return s.db.Close()
}

// CreateSchema creates the configuration tables if they do not exist.
// Callers producing a fresh database run this before Save.
func (s *SQLiteProvider) CreateSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS observer (
		code TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		elevation REAL
	);
	CREATE TABLE IF NOT EXISTS reports (
		path TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS targets (
		name TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		period REAL,
		epoch REAL,
		harmonics INTEGER,
		event TEXT,
		ra REAL,
		dec REAL
	);
	CREATE TABLE IF NOT EXISTS sampler (
		walkers INTEGER,
		steps INTEGER,
		burn_in INTEGER,
		stretch REAL,
		seed INTEGER
	);
	CREATE TABLE IF NOT EXISTS output (
		directory TEXT
	);
	CREATE TABLE IF NOT EXISTS archive (
		sqlite_path TEXT,
		timescaledb_conn TEXT
	);
	CREATE TABLE IF NOT EXISTS server (
		listen_addr TEXT,
		cert TEXT,
		key TEXT
	);`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save writes a complete configuration into the database, replacing any
// existing rows.
func (s *SQLiteProvider) Save(config *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"observer", "reports", "targets", "sampler", "output", "archive", "server"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	_, err = tx.Exec(`INSERT INTO observer (code, latitude, longitude, elevation) VALUES (?, ?, ?, ?)`,
		config.Observer.Code, config.Observer.Latitude, config.Observer.Longitude, config.Observer.Elevation)
	if err != nil {
		return fmt.Errorf("failed to save observer: %w", err)
	}

	for _, path := range config.Reports {
		if _, err := tx.Exec(`INSERT INTO reports (path) VALUES (?)`, path); err != nil {
			return fmt.Errorf("failed to save report path: %w", err)
		}
	}

	for _, t := range config.Targets {
		_, err := tx.Exec(`INSERT INTO targets (name, type, period, epoch, harmonics, event, ra, dec)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.Name, t.Type, t.Period, t.Epoch, t.Harmonics, t.Event, t.RA, t.Dec)
		if err != nil {
			return fmt.Errorf("failed to save target %s: %w", t.Name, err)
		}
	}

	_, err = tx.Exec(`INSERT INTO sampler (walkers, steps, burn_in, stretch, seed) VALUES (?, ?, ?, ?, ?)`,
		config.Sampler.Walkers, config.Sampler.Steps, config.Sampler.BurnIn,
		config.Sampler.Stretch, config.Sampler.Seed)
	if err != nil {
		return fmt.Errorf("failed to save sampler: %w", err)
	}

	if _, err := tx.Exec(`INSERT INTO output (directory) VALUES (?)`, config.Output.Directory); err != nil {
		return fmt.Errorf("failed to save output: %w", err)
	}

	var sqlitePath, connStr string
	if config.Archive.SQLite != nil {
		sqlitePath = config.Archive.SQLite.Path
	}
	if config.Archive.TimescaleDB != nil {
		connStr = config.Archive.TimescaleDB.ConnectionString
	}
	if _, err := tx.Exec(`INSERT INTO archive (sqlite_path, timescaledb_conn) VALUES (?, ?)`, sqlitePath, connStr); err != nil {
		return fmt.Errorf("failed to save archive: %w", err)
	}

	if config.Server != nil {
		_, err := tx.Exec(`INSERT INTO server (listen_addr, cert, key) VALUES (?, ?, ?)`,
			config.Server.ListenAddr, config.Server.Cert, config.Server.Key)
		if err != nil {
			return fmt.Errorf("failed to save server: %w", err)
		}
	}

	return tx.Commit()
}
