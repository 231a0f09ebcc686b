package main

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/katalvlaran/nearcorr"
	"github.com/katalvlaran/nearcorr/internal/matrixio"
	"github.com/katalvlaran/nearcorr/matrix"
)

// Estimators accepted by --estimator.
const (
	estimatorAuto     = "auto"
	estimatorPearson  = "pearson"
	estimatorPairwise = "pairwise"
)

var errUnknownEstimator = errors.New("unknown estimator")

type solveOpts struct {
	input      string
	samples    string
	estimator  string
	output     string
	resume     string
	checkpoint string

	tol           float64
	eigTol        float64
	maxIterations int
	weights       []float64
	solver        string
	partial       bool
}

func newSolveCommand(root *rootOpts, stdout io.Writer) *cobra.Command {
	opts := solveOpts{}

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Repair a matrix into the nearest correlation matrix",
		Long: `Read a symmetric matrix (--input), or an observation table whose pairwise
correlations are computed first (--samples), or a checkpoint of an exhausted
run (--resume), and write the nearest correlation matrix.

When the iteration budget runs out, --checkpoint saves the state needed to
continue and the command exits with status 2.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			flags := cmd.Flags()
			if flags.Changed("solver") {
				cfg.Solver = opts.solver
			}
			if flags.Changed("tol") {
				cfg.Tolerance = opts.tol
			}
			if flags.Changed("eig-tol") {
				cfg.EigenTolerance = opts.eigTol
			}
			if flags.Changed("max-iterations") {
				cfg.MaxIterations = opts.maxIterations
			}
			if flags.Changed("weights") {
				cfg.Weights = opts.weights
			}

			nopts, err := cfg.Options()
			if err != nil {
				return err
			}
			nopts = append(nopts, nearcorr.WithLogger(log.Logger))
			if opts.partial {
				nopts = append(nopts, nearcorr.WithMode(nearcorr.ModePartial))
			}

			return solve(opts, nopts, stdout)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", "", "Symmetric matrix file (.json, .yaml, .csv)")
	f.StringVar(&opts.samples, "samples", "", "Observation table (rows = samples); missing values as null, NA or empty")
	f.StringVar(&opts.estimator, "estimator", estimatorAuto,
		"Correlation estimator for --samples (auto, pearson, pairwise); auto uses pearson on complete tables")
	f.StringVar(&opts.resume, "resume", "", "Checkpoint file written by --checkpoint")
	f.StringVarP(&opts.output, "output", "o", "", "Result file (.json, .yaml, .csv); JSON on stdout when empty")
	f.StringVar(&opts.checkpoint, "checkpoint", "", "Write a resume checkpoint here when the budget is exhausted")
	f.Float64Var(&opts.tol, "tol", 0, "Convergence tolerance (0 = n * machine epsilon)")
	f.Float64Var(&opts.eigTol, "eig-tol", 0, "Eigenvalue tolerance, reserved for the partial mode")
	f.IntVar(&opts.maxIterations, "max-iterations", nearcorr.DefaultMaxIterations, "Iteration budget")
	f.Float64SliceVar(&opts.weights, "weights", nil, "Comma-separated positive weights, one per row")
	f.StringVar(&opts.solver, "solver", "", "Eigensolver (lapack, jacobi)")
	f.BoolVar(&opts.partial, "partial", false, "Use the partial eigendecomposition mode (not implemented)")
	cmd.MarkFlagsMutuallyExclusive("input", "samples", "resume")
	cmd.MarkFlagsOneRequired("input", "samples", "resume")

	return cmd
}

func solve(opts solveOpts, nopts []nearcorr.Option, stdout io.Writer) error {
	var (
		res *nearcorr.Result
		err error
	)
	if opts.resume != "" {
		fault, lerr := matrixio.LoadCheckpoint(opts.resume)
		if lerr != nil {
			return lerr
		}
		log.Info().
			Str("checkpoint", opts.resume).
			Int("previous_iterations", fault.Iteration).
			Msg("Resuming from checkpoint")
		res, err = nearcorr.Resume(fault, nopts...)
	} else {
		a, lerr := readInput(opts)
		if lerr != nil {
			return lerr
		}
		log.Info().
			Int("n", a.Rows()).
			Float64("tol", nearcorr.EffectiveTolerance(a.Rows(), nopts...).Convergence).
			Msg("Solving nearest correlation matrix")
		res, err = nearcorr.Nearest(a, nopts...)
	}

	var fault *nearcorr.ExceededIterationsError
	if errors.As(err, &fault) && opts.checkpoint != "" {
		if serr := matrixio.SaveCheckpoint(opts.checkpoint, fault); serr != nil {
			return errors.Join(err, serr)
		}
		log.Warn().
			Str("checkpoint", opts.checkpoint).
			Int("iterations", fault.Iteration).
			Msg("Checkpoint written; continue with --resume")
	}
	if err != nil {
		return err
	}

	log.Info().Int("iterations", res.Iterations).Msg("Converged")
	out := matrixio.Result{Iterations: res.Iterations, Rows: res.X.RawRows()}
	if opts.output == "" {
		return matrixio.EncodeResult(stdout, out, matrixio.FormatJSON)
	}

	return matrixio.WriteResult(opts.output, out)
}

// readInput loads the matrix to repair, estimating correlations first when
// given an observation table.
func readInput(opts solveOpts) (*matrix.Dense, error) {
	if opts.input != "" {
		return matrixio.ReadMatrix(opts.input)
	}

	obs, err := matrixio.ReadSamples(opts.samples)
	if err != nil {
		return nil, err
	}
	estimator := opts.estimator
	if estimator == estimatorAuto {
		estimator = estimatorPearson
		if hasMissing(obs) {
			estimator = estimatorPairwise
		}
	}

	var corr *matrix.Dense
	switch estimator {
	case estimatorPearson:
		corr, _, _, err = matrix.Correlation(obs)
	case estimatorPairwise:
		corr, err = matrix.PairwiseCorrelation(obs)
	default:
		return nil, fmt.Errorf("--estimator %q: %w", opts.estimator, errUnknownEstimator)
	}
	if err != nil {
		return nil, fmt.Errorf("samples %s: %w", opts.samples, err)
	}
	log.Debug().
		Str("estimator", estimator).
		Int("observations", obs.Rows()).
		Int("variables", obs.Cols()).
		Msg("Correlation estimated")

	return corr, nil
}

// hasMissing reports whether any observation is NaN.
func hasMissing(obs *matrix.Dense) bool {
	missing := false
	obs.Do(func(_, _ int, v float64) bool {
		missing = math.IsNaN(v)
		return !missing
	})

	return missing
}
