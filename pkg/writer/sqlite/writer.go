// Package sqlite provides SQLite storage for deconvolution runs and their peaks
package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/DeconKey/pkg/config"
	"github.com/ChrisMcGann/DeconKey/pkg/core"
	"github.com/ChrisMcGann/DeconKey/pkg/peaks"
)

const (
	// Date format for RunTable and HeaderTable (ISO 8601)
	dateFormat = "2006-01-02T15:04:05Z07:00"
	// Schema version written to HeaderTable
	schemaVersion = 1
)

// Run is one picked deconvolution result
type Run struct {
	SpectrumID string
	Config     *config.EngineConfig
	Mass       *core.Spectrum
	Peaks      *peaks.Peaks
}

// Writer handles writing runs to SQLite database files
type Writer struct {
	db         *sql.DB
	outputPath string
	runStmt    *sql.Stmt
	peakStmt   *sql.Stmt
	chargeStmt *sql.Stmt
	runs       int
	newID      func() string
}

// NewWriter creates a new SQLite writer
func NewWriter(outputPath string) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		newID:      uuid.NewString,
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	return w, nil
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		SpectrumId TEXT,
		CreationDate TEXT,
		Config TEXT,
		MassBins DOUBLE,
		blobMass BLOB,
		blobIntensity BLOB
	);

	CREATE TABLE IF NOT EXISTS PeakTable (
		PeakId INTEGER PRIMARY KEY AUTOINCREMENT,
		RunId TEXT REFERENCES RunTable(RunId),
		Label TEXT,
		Mass DOUBLE,
		Height DOUBLE,
		Ignored BOOL,
		ErrorFWHM DOUBLE,
		FWHMLow DOUBLE,
		FWHMHigh DOUBLE,
		ErrorMean DOUBLE,
		Area DOUBLE,
		KendrickNumber DOUBLE,
		KendrickDefect DOUBLE,
		blobConvolved BLOB
	);

	CREATE TABLE IF NOT EXISTS ChargeTable (
		PeakId INTEGER REFERENCES PeakTable(PeakId),
		Charge INTEGER,
		MZ DOUBLE,
		Intensity DOUBLE
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT,
		LastModifiedDate TEXT,
		NoofRuns INTEGER
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// prepareStatements prepares SQL statements for repeated insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.runStmt, err = w.db.Prepare(`
		INSERT INTO RunTable (
			RunId, SpectrumId, CreationDate, Config, MassBins, blobMass, blobIntensity
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare run statement: %w", err)
	}

	w.peakStmt, err = w.db.Prepare(`
		INSERT INTO PeakTable (
			RunId, Label, Mass, Height, Ignored, ErrorFWHM, FWHMLow, FWHMHigh,
			ErrorMean, Area, KendrickNumber, KendrickDefect, blobConvolved
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare peak statement: %w", err)
	}

	w.chargeStmt, err = w.db.Prepare(`
		INSERT INTO ChargeTable (PeakId, Charge, MZ, Intensity) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare charge statement: %w", err)
	}

	return nil
}

// WriteRun writes a run with its peaks and charge tables in one transaction
// and returns the new run identifier
func (w *Writer) WriteRun(run Run) (string, error) {
	if run.Mass == nil || run.Peaks == nil {
		return "", fmt.Errorf("run %q has no picked peaks", run.SpectrumID)
	}

	// Serialized parameters, as exported for the solver
	var conf bytes.Buffer
	if run.Config != nil {
		if _, err := run.Config.WriteTo(&conf); err != nil {
			return "", fmt.Errorf("failed to serialize config: %w", err)
		}
	}

	tx, err := w.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runID := w.newID()
	_, err = tx.Stmt(w.runStmt).Exec(
		runID,                               // RunId
		run.SpectrumID,                      // SpectrumId
		time.Now().UTC().Format(dateFormat), // CreationDate
		conf.String(),                       // Config
		run.Peaks.MassBins,                  // MassBins
		EncodeFloat64(run.Mass.X),           // blobMass
		EncodeFloat64(run.Mass.Y),           // blobIntensity
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	peakStmt := tx.Stmt(w.peakStmt)
	chargeStmt := tx.Stmt(w.chargeStmt)
	for _, p := range run.Peaks.Items {
		var convolved []byte
		if p.Convolved != nil {
			convolved = EncodeFloat64(p.Convolved)
		}

		res, err := peakStmt.Exec(
			runID,             // RunId
			p.Label,           // Label
			p.Mass,            // Mass
			p.Height,          // Height
			p.Ignore,          // Ignored
			p.ErrorFWHM,       // ErrorFWHM
			p.IntervalFWHM[0], // FWHMLow
			p.IntervalFWHM[1], // FWHMHigh
			p.ErrorMean,       // ErrorMean
			p.Area,            // Area
			p.KendrickNum,     // KendrickNumber
			p.KendrickDefect,  // KendrickDefect
			convolved,         // blobConvolved
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert peak %s: %w", p.Label, err)
		}
		peakID, err := res.LastInsertId()
		if err != nil {
			return "", fmt.Errorf("failed to read peak id: %w", err)
		}

		for _, ci := range p.ChargeTable {
			if _, err := chargeStmt.Exec(peakID, ci.Charge, ci.MZ, ci.Intensity); err != nil {
				return "", fmt.Errorf("failed to insert charge %d of peak %s: %w", ci.Charge, p.Label, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	w.runs++
	return runID, nil
}

// EncodeFloat64 encodes values as a little-endian float64 blob
func EncodeFloat64(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// DecodeFloat64 decodes a blob written by EncodeFloat64
func DecodeFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	out := make([]float64, len(blob)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return out, nil
}

// Finalize writes the header table and closes the database
func (w *Writer) Finalize() error {
	now := time.Now().UTC().Format(dateFormat)
	_, err := w.db.Exec(`
		INSERT INTO HeaderTable (version, CreationDate, LastModifiedDate, NoofRuns)
		VALUES (?, ?, ?, ?)
	`, schemaVersion, now, now, w.runs)
	if err != nil {
		return fmt.Errorf("failed to insert header: %w", err)
	}

	// Close prepared statements
	for _, stmt := range []*sql.Stmt{w.runStmt, w.peakStmt, w.chargeStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
