package main

import (
	"database/sql"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/lib/pq"
)

// ArchivedRun mirrors one row of the runs table for export.
type ArchivedRun struct {
	ID            string
	StarName      string
	Constellation string
	ModelName     string
	EventKind     string
	EventHJD      float64
	EventHJDErr   float64
	Amplitude     float64
	AmplitudeErr  float64
	PeriodDays    float64
	PeriodErr     float64
	Band          string
	ObserverCode  string
	Points        int
	FinishedAt    time.Time
}

func main() {
	var connStr, outFile, star string
	var since string
	flag.StringVar(&connStr, "db", "", "PostgreSQL connection string (required)")
	flag.StringVar(&outFile, "output", "runs.csv", "Output CSV file")
	flag.StringVar(&star, "star", "", "Export only runs for this star")
	flag.StringVar(&since, "since", "", "Export only runs finished after this date (RFC3339)")
	flag.Parse()

	if connStr == "" {
		fmt.Fprintln(os.Stderr, "Error: -db connection string is required")
		flag.Usage()
		os.Exit(1)
	}

	var sinceTime time.Time
	if since != "" {
		var err error
		sinceTime, err = time.Parse(time.RFC3339, since)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -since: %v\n", err)
			os.Exit(1)
		}
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	runs, err := fetchRuns(db, star, sinceTime)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching runs: %v\n", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "No runs matched the given filters")
		os.Exit(1)
	}

	if err := writeCSV(outFile, runs); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d runs to %s\n", len(runs), outFile)
}

func fetchRuns(db *sql.DB, star string, since time.Time) ([]ArchivedRun, error) {
	query := `
		SELECT id, star_name, constellation, model_name, event_kind,
		       event_hjd, event_hjd_err, amplitude, amplitude_err,
		       period_days, period_err, band, observer_code, points,
		       finished_at
		FROM runs
		WHERE ($1 = '' OR star_name = $1)
		  AND ($2 OR finished_at > $3)
		ORDER BY finished_at`

	rows, err := db.Query(query, star, since.IsZero(), since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []ArchivedRun
	for rows.Next() {
		var r ArchivedRun
		err := rows.Scan(&r.ID, &r.StarName, &r.Constellation, &r.ModelName,
			&r.EventKind, &r.EventHJD, &r.EventHJDErr, &r.Amplitude,
			&r.AmplitudeErr, &r.PeriodDays, &r.PeriodErr, &r.Band,
			&r.ObserverCode, &r.Points, &r.FinishedAt)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func writeCSV(path string, runs []ArchivedRun) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"id", "star_name", "constellation", "model_name",
		"event_kind", "event_hjd", "event_hjd_err", "amplitude",
		"amplitude_err", "period_days", "period_err", "band",
		"observer_code", "points", "finished_at"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range runs {
		record := []string{
			r.ID, r.StarName, r.Constellation, r.ModelName, r.EventKind,
			strconv.FormatFloat(r.EventHJD, 'f', 5, 64),
			strconv.FormatFloat(r.EventHJDErr, 'f', 5, 64),
			strconv.FormatFloat(r.Amplitude, 'f', 3, 64),
			strconv.FormatFloat(r.AmplitudeErr, 'f', 3, 64),
			strconv.FormatFloat(r.PeriodDays, 'f', 6, 64),
			strconv.FormatFloat(r.PeriodErr, 'f', 6, 64),
			r.Band, r.ObserverCode,
			strconv.Itoa(r.Points),
			r.FinishedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
