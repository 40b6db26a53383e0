package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/talgya/nestshare/internal/config"
)

// OutputManager writes run output as CSV files under a single directory.
// A nil OutputManager is valid and discards everything, so callers can run
// with output disabled without branching.
type OutputManager struct {
	dir       string
	daysFile  *os.File
	nestsFile *os.File

	daysHeaderWritten  bool
	nestsHeaderWritten bool
}

// NewOutputManager creates the output directory and its CSV files. Returns
// nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "days.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating days.csv: %w", err)
	}
	om.daysFile = f

	f, err = os.Create(filepath.Join(dir, "nests.csv"))
	if err != nil {
		om.daysFile.Close()
		return nil, fmt.Errorf("creating nests.csv: %w", err)
	}
	om.nestsFile = f

	return om, nil
}

// WriteConfig saves the run's configuration as YAML, for provenance.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteDay appends one day summary to days.csv. The header is written on
// the first call only.
func (om *OutputManager) WriteDay(stats DayStats) error {
	if om == nil {
		return nil
	}

	records := []DayStats{stats}
	if !om.daysHeaderWritten {
		if err := gocsv.Marshal(records, om.daysFile); err != nil {
			return fmt.Errorf("writing day stats: %w", err)
		}
		om.daysHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.daysFile); err != nil {
		return fmt.Errorf("writing day stats: %w", err)
	}
	return nil
}

// WriteNests appends the day's nest records to nests.csv.
func (om *OutputManager) WriteNests(records []NestRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}

	if !om.nestsHeaderWritten {
		if err := gocsv.Marshal(records, om.nestsFile); err != nil {
			return fmt.Errorf("writing nest records: %w", err)
		}
		om.nestsHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.nestsFile); err != nil {
		return fmt.Errorf("writing nest records: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.daysFile != nil {
		if err := om.daysFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.nestsFile != nil {
		if err := om.nestsFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
