package telemetry

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// TrajectoryRecord is one decision step: what the policy saw and what it chose.
type TrajectoryRecord struct {
	RunID       string    `json:"run_id"`
	Arena       int       `json:"arena"`
	Episode     int       `json:"episode"`
	Step        int       `json:"step"`
	Observation []float64 `json:"observation"`
	Action      []float64 `json:"action"`
	Reward      float64   `json:"reward"` // reward since the previous decision
	Done        bool      `json:"done,omitempty"`
	Reason      string    `json:"reason,omitempty"`
}

// TrajectoryWriter appends records as zstd-compressed JSON lines.
// It is safe for use by several arenas at once.
type TrajectoryWriter struct {
	mu  sync.Mutex
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

// NewTrajectoryWriter creates path (and its directory) for writing.
func NewTrajectoryWriter(path string) (*TrajectoryWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating trajectory directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trajectory file: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	return &TrajectoryWriter{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

// Write appends one record.
func (t *TrajectoryWriter) Write(rec TrajectoryRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		return os.ErrClosed
	}
	if _, err := t.w.Write(b); err != nil {
		return err
	}
	return t.w.WriteByte('\n')
}

// Close flushes buffered records and closes the file.
func (t *TrajectoryWriter) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.w == nil {
		return nil
	}
	var firstErr error
	if err := t.w.Flush(); err != nil {
		firstErr = err
	}
	if err := t.enc.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := t.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	t.w, t.enc, t.f = nil, nil, nil
	return firstErr
}

// ReadTrajectory decodes every record of a trajectory file, calling fn for each.
func ReadTrajectory(path string, fn func(TrajectoryRecord) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening trajectory: %w", err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating zstd decoder: %w", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		var rec TrajectoryRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			return fmt.Errorf("trajectory line %d: %w", line, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return sc.Err()
}
