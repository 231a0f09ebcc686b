package matrixio

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"

	"github.com/katalvlaran/nearcorr"
	"github.com/katalvlaran/nearcorr/matrix"
)

// CheckpointVersion is the current checkpoint schema.
const CheckpointVersion = 1

// ErrCheckpointVersion is returned when loading an unsupported schema.
var ErrCheckpointVersion = errors.New("matrixio: unsupported checkpoint version")

// Checkpoint is the JSON form of an exhausted run, enough to resume it.
type Checkpoint struct {
	Version       int         `json:"version"`
	Iteration     int         `json:"iteration"`
	MaxIterations int         `json:"max_iterations"`
	X             [][]float64 `json:"x"`
	DS            [][]float64 `json:"ds"`
}

// NewCheckpoint snapshots a fault.
func NewCheckpoint(fault *nearcorr.ExceededIterationsError) Checkpoint {
	return Checkpoint{
		Version:       CheckpointVersion,
		Iteration:     fault.Iteration,
		MaxIterations: fault.MaxIterations,
		X:             fault.X.RawRows(),
		DS:            fault.DS.RawRows(),
	}
}

// Fault rebuilds the fault so it can be passed to nearcorr.Resume.
func (c Checkpoint) Fault() (*nearcorr.ExceededIterationsError, error) {
	if c.Version != CheckpointVersion {
		return nil, fmt.Errorf("version %d: %w", c.Version, ErrCheckpointVersion)
	}
	x, err := matrix.NewDenseFromRows(c.X)
	if err != nil {
		return nil, fmt.Errorf("matrixio: checkpoint x: %w", err)
	}
	ds, err := matrix.NewDenseFromRows(c.DS)
	if err != nil {
		return nil, fmt.Errorf("matrixio: checkpoint ds: %w", err)
	}
	if err = matrix.ValidateBinarySameShape(x, ds); err != nil {
		return nil, fmt.Errorf("matrixio: checkpoint: %w", err)
	}

	return &nearcorr.ExceededIterationsError{
		MaxIterations: c.MaxIterations,
		Iteration:     c.Iteration,
		X:             x,
		DS:            ds,
	}, nil
}

// SaveCheckpoint writes the fault to path as JSON.
func SaveCheckpoint(path string, fault *nearcorr.ExceededIterationsError) error {
	data, err := json.MarshalIndent(NewCheckpoint(fault), "", "  ")
	if err != nil {
		return fmt.Errorf("matrixio: checkpoint: %w", err)
	}
	if err = os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("matrixio: %w", err)
	}

	return nil
}

// LoadCheckpoint reads a checkpoint written by SaveCheckpoint.
func LoadCheckpoint(path string) (*nearcorr.ExceededIterationsError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("matrixio: %w", err)
	}
	var c Checkpoint
	if err = json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("matrixio: checkpoint: %w", err)
	}

	return c.Fault()
}
