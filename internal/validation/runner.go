package validation

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Runner drives the parse-calculate-compare sequence over many fixture
// workbooks concurrently. Each fixture is independent and side-effect
// free, so the pool needs no ordering beyond the input slice.
type Runner struct {
	parser    *Parser
	validator *Validator
	workers   int
	logger    *zap.Logger
}

// NewRunner creates a new fixture runner with a bounded worker pool
func NewRunner(parser *Parser, validator *Validator, workers int, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		parser:    parser,
		validator: validator,
		workers:   workers,
		logger:    logger,
	}
}

// FixtureOutcome pairs a fixture path with either its validation result
// or the structural error that stopped it. Duration covers that fixture
// alone, not the batch.
type FixtureOutcome struct {
	Path     string
	Result   *ValidationResult
	Err      error
	Duration time.Duration
}

// Run validates every fixture and returns outcomes in input order.
// Structural failures (ParseError, calculation aborts) are captured per
// fixture; one broken workbook never stops the batch.
func (r *Runner) Run(paths []string, mode Mode) []FixtureOutcome {
	outcomes := make([]FixtureOutcome, len(paths))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				outcomes[i] = r.runOne(paths[i], mode)
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return outcomes
}

func (r *Runner) runOne(path string, mode Mode) FixtureOutcome {
	started := time.Now()

	data, err := r.parser.ParseWorkbook(path)
	if err != nil {
		r.logger.Warn("Fixture parse failed", zap.String("path", path), zap.Error(err))
		return FixtureOutcome{Path: path, Err: err, Duration: time.Since(started)}
	}

	result, err := r.validator.Validate(data, mode)
	if err != nil {
		r.logger.Warn("Fixture validation aborted", zap.String("path", path), zap.Error(err))
		return FixtureOutcome{Path: path, Err: err, Duration: time.Since(started)}
	}

	return FixtureOutcome{Path: path, Result: result, Duration: time.Since(started)}
}
