package application

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alphascore/alphascore/internal/application/cache"
	"github.com/alphascore/alphascore/internal/domain"
)

const defaultBatchWorkers = 8

// BatchItem pairs one bundle's scoring outcome with its position in the
// submitted batch. A failed item carries Err and a nil Result; the rest of
// the batch is unaffected.
type BatchItem struct {
	Index  int                     `json:"index"`
	Symbol string                  `json:"symbol"`
	Result *domain.CompositeResult `json:"result,omitempty"`
	Err    error                   `json:"-"`
}

// Pipeline runs the scoring engine over batches of signal bundles with
// bounded concurrency, optional result memoization, and JSONL artifacts.
type Pipeline struct {
	engine  *Engine
	cache   *cache.ResultCache
	workers int
	outDir  string
}

// PipelineOption configures optional pipeline behavior.
type PipelineOption func(*Pipeline)

// WithWorkers bounds the number of bundles scored concurrently.
func WithWorkers(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithCache memoizes results keyed by bundle content, evaluation instant,
// and calibration version.
func WithCache(c *cache.ResultCache) PipelineOption {
	return func(p *Pipeline) { p.cache = c }
}

// WithOutputDir sets the directory WriteJSONL saves score artifacts to.
func WithOutputDir(dir string) PipelineOption {
	return func(p *Pipeline) {
		if dir != "" {
			p.outDir = dir
		}
	}
}

// NewPipeline wraps an engine for batch use.
func NewPipeline(engine *Engine, opts ...PipelineOption) (*Pipeline, error) {
	if engine == nil {
		return nil, fmt.Errorf("pipeline requires an engine")
	}

	p := &Pipeline{
		engine:  engine,
		workers: defaultBatchWorkers,
		outDir:  filepath.Join("out", "scores"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ScoreBatch scores every bundle against the same evaluation instant and
// returns items in submission order. Per-bundle failures are recorded on
// their item; only batch-level problems (empty input, canceled context)
// surface as an error.
func (p *Pipeline) ScoreBatch(ctx context.Context, bundles []domain.RawSignalBundle, asOf time.Time) ([]BatchItem, error) {
	if len(bundles) == 0 {
		return nil, fmt.Errorf("batch contains no bundles")
	}

	log.Info().Int("bundles", len(bundles)).Int("workers", p.workers).
		Time("as_of", asOf).Msg("Starting batch scoring")

	items := make([]BatchItem, len(bundles))
	semaphore := make(chan struct{}, p.workers)

	var wg sync.WaitGroup
	for i := range bundles {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				items[idx] = BatchItem{Index: idx, Symbol: bundles[idx].Symbol, Err: ctx.Err()}
				return
			}

			result, err := p.ScoreOne(ctx, &bundles[idx], asOf)
			items[idx] = BatchItem{Index: idx, Symbol: bundles[idx].Symbol, Result: result, Err: err}
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("batch scoring interrupted: %w", err)
	}

	scored, failed := 0, 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			log.Warn().Str("symbol", item.Symbol).Err(item.Err).Msg("Bundle scoring failed")
			continue
		}
		scored++
	}

	log.Info().Int("scored", scored).Int("failed", failed).Msg("Batch scoring completed")
	return items, nil
}

// ScoreOne consults the memoization cache before invoking the engine. The
// calibration version participates in the key so a benchmark table reload
// never serves stale scores.
func (p *Pipeline) ScoreOne(ctx context.Context, bundle *domain.RawSignalBundle, asOf time.Time) (*domain.CompositeResult, error) {
	if p.cache == nil {
		return p.engine.Score(ctx, bundle, asOf)
	}

	key, err := cache.Key(bundle, asOf, p.engine.Table().Version())
	if err != nil {
		return nil, fmt.Errorf("failed to build cache key: %w", err)
	}

	if cached, ok := p.cache.Get(key); ok {
		return cached, nil
	}

	result, err := p.engine.Score(ctx, bundle, asOf)
	if err != nil {
		return nil, err
	}

	p.cache.Set(key, result)
	return result, nil
}

// WriteJSONL saves successfully scored items to latest_scores.jsonl plus a
// timestamped copy named after the evaluation instant. Failed items are
// skipped; the caller still has them for reporting.
func (p *Pipeline) WriteJSONL(items []BatchItem, asOf time.Time) (string, error) {
	if err := os.MkdirAll(p.outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	latestFile := filepath.Join(p.outDir, "latest_scores.jsonl")
	stampedFile := filepath.Join(p.outDir, fmt.Sprintf("scores_%s.jsonl", asOf.UTC().Format("20060102_150405")))

	written := 0
	for _, path := range []string{latestFile, stampedFile} {
		n, err := writeItems(path, items)
		if err != nil {
			return "", err
		}
		written = n
	}

	log.Info().Str("file", latestFile).Int("scores", written).Msg("Saved scores to JSONL")
	return latestFile, nil
}

func writeItems(path string, items []BatchItem) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	written := 0
	for _, item := range items {
		if item.Err != nil || item.Result == nil {
			continue
		}

		data, err := json.Marshal(item.Result)
		if err != nil {
			return written, fmt.Errorf("failed to marshal result for %s: %w", item.Symbol, err)
		}

		if _, err := file.Write(data); err != nil {
			return written, fmt.Errorf("failed to write result: %w", err)
		}
		if _, err := file.WriteString("\n"); err != nil {
			return written, fmt.Errorf("failed to write newline: %w", err)
		}
		written++
	}

	return written, nil
}
