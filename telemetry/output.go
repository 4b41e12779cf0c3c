package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/penguin/config"
)

// csvFile appends records to a CSV file, writing the header once.
type csvFile struct {
	f             *os.File
	headerWritten bool
}

func createCSV(dir, name string) (*csvFile, error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvFile{f: f}, nil
}

func writeRecords[T any](c *csvFile, records []T) error {
	if !c.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, c.f); err != nil {
			return err
		}
		c.headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, c.f)
}

// OutputManager handles structured run output with CSV logging.
// It is safe for use by several arenas at once.
type OutputManager struct {
	dir string

	mu       sync.Mutex
	episodes *csvFile
	windows  *csvFile
	perf     *csvFile
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}
	var err error
	if om.episodes, err = createCSV(dir, "episodes.csv"); err != nil {
		return nil, err
	}
	if om.windows, err = createCSV(dir, "windows.csv"); err != nil {
		om.Close()
		return nil, err
	}
	if om.perf, err = createCSV(dir, "perf.csv"); err != nil {
		om.Close()
		return nil, err
	}
	return om, nil
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteEpisode appends an episode record to episodes.csv.
func (om *OutputManager) WriteEpisode(rec EpisodeRecord) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if err := writeRecords(om.episodes, []EpisodeRecord{rec}); err != nil {
		return fmt.Errorf("writing episode: %w", err)
	}
	return nil
}

// WriteWindow appends a window stats record to windows.csv.
func (om *OutputManager) WriteWindow(stats WindowStats) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if err := writeRecords(om.windows, []WindowStats{stats}); err != nil {
		return fmt.Errorf("writing window stats: %w", err)
	}
	return nil
}

// WritePerf appends a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, step int64) error {
	if om == nil {
		return nil
	}
	om.mu.Lock()
	defer om.mu.Unlock()
	if err := writeRecords(om.perf, []PerfStatsCSV{stats.ToCSV(step)}); err != nil {
		return fmt.Errorf("writing perf: %w", err)
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
	om.mu.Lock()
	defer om.mu.Unlock()

	var firstErr error
	for _, c := range []*csvFile{om.episodes, om.windows, om.perf} {
		if c == nil {
			continue
		}
		if err := c.f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
