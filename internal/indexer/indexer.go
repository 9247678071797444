package indexer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Foundup/Foundups-Agent-sub010/internal/chunker"
	"github.com/Foundup/Foundups-Agent-sub010/internal/config"
	"github.com/Foundup/Foundups-Agent-sub010/internal/embedder"
	"github.com/Foundup/Foundups-Agent-sub010/internal/telemetry"
	"github.com/Foundup/Foundups-Agent-sub010/internal/vecstore"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

var (
	// ErrIndexRunning means another process holds the index lock.
	ErrIndexRunning = errors.New("another indexing run is in progress")
	// ErrNoRoots means neither the job nor the config names anything to index.
	ErrNoRoots = errors.New("no corpus roots configured")
)

// maxFileBytes skips blobs that slipped past the extension filter. The
// corpus is source text, not artifacts.
const maxFileBytes = 2 << 20

// Indexer coordinates the indexing pipeline: discover -> classify -> chunk ->
// embed -> replace.
type Indexer struct {
	store   vecstore.Store
	embed   embedder.Embedder
	chunker *chunker.Chunker
	cfg     config.CorpusConfig
	logger  *zap.Logger
}

// New creates an Indexer over the given store and embedding provider.
func New(store vecstore.Store, embed embedder.Embedder, cfg config.CorpusConfig, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		store:   store,
		embed:   embed,
		chunker: chunker.New(cfg.ChunkLines),
		cfg:     cfg,
		logger:  logger,
	}
}

// Job describes one indexing run.
type Job struct {
	// Roots overrides the configured corpus roots when non-empty.
	Roots []string
	// ForceType classifies every discovered file as this type instead of
	// applying the extension rules. Skill discovery is unaffected.
	ForceType types.DocType
}

// Statistics summarizes a completed run.
type Statistics struct {
	FilesIndexed     int      `json:"files_indexed"`
	FilesSkipped     int      `json:"files_skipped"`
	FilesFailed      int      `json:"files_failed"`
	PointsUpserted   int      `json:"points_upserted"`
	SkillsDiscovered int      `json:"skills_discovered"`
	ElapsedMS        int64    `json:"elapsed_ms"`
	Errors           []string `json:"errors,omitempty"`

	Duration time.Duration `json:"-"`
}

// target is one discovered file bound to its collection.
type target struct {
	absPath string
	relPath string
	docType types.DocType
}

// Run executes one indexing run under the process-wide file lock. Per-file
// failures are recorded in the statistics and do not abort the run; the
// error return covers lock contention, discovery failures, and cancellation.
func (idx *Indexer) Run(ctx context.Context, job Job) (*Statistics, error) {
	lock := flock.New(idx.cfg.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire index lock %s: %w", idx.cfg.LockPath, err)
	}
	if !locked {
		return nil, ErrIndexRunning
	}
	defer func() { _ = lock.Unlock() }()

	roots := job.Roots
	if len(roots) == 0 {
		roots = idx.cfg.Roots
	}
	if len(roots) == 0 && idx.cfg.SkillsRoot == "" && len(idx.cfg.ProtocolRoots) == 0 {
		return nil, ErrNoRoots
	}

	start := time.Now()
	stats := &Statistics{}

	targets, err := idx.discover(roots, job.ForceType)
	if err != nil {
		telemetry.IndexRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	var skills []SkillDoc
	if idx.cfg.SkillsRoot != "" {
		skills, err = DiscoverSkills(idx.cfg.SkillsRoot)
		if err != nil {
			// Skill discovery failing must not sink the code corpus.
			idx.logger.Warn("Skill discovery failed", zap.String("root", idx.cfg.SkillsRoot), zap.Error(err))
			stats.Errors = append(stats.Errors, fmt.Sprintf("skills: %v", err))
		}
	}

	var progress runProgress
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.workers())

	for _, t := range targets {
		g.Go(func() error {
			return idx.runOne(gctx, &progress, t.relPath, func() (int, bool, error) {
				return idx.indexFile(gctx, t)
			})
		})
	}
	for _, sk := range skills {
		g.Go(func() error {
			return idx.runOne(gctx, &progress, sk.SourcePath, func() (int, bool, error) {
				return idx.indexSkill(gctx, sk)
			})
		})
	}

	if err := g.Wait(); err != nil {
		telemetry.IndexRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	progress.fill(stats)
	stats.SkillsDiscovered = len(skills)
	stats.Duration = time.Since(start)
	stats.ElapsedMS = stats.Duration.Milliseconds()

	idx.publishCollectionSizes(ctx)
	telemetry.IndexRunsTotal.WithLabelValues("ok").Inc()

	idx.logger.Info("Indexing run complete",
		zap.Int("indexed", stats.FilesIndexed),
		zap.Int("skipped", stats.FilesSkipped),
		zap.Int("failed", stats.FilesFailed),
		zap.Int("points", stats.PointsUpserted),
		zap.Int("skills", stats.SkillsDiscovered),
		zap.Duration("elapsed", stats.Duration))
	return stats, nil
}

// runProgress tracks counters across the worker pool.
type runProgress struct {
	mu      sync.Mutex
	indexed int
	skipped int
	failed  int
	points  int
	errs    []string
}

func (p *runProgress) fill(stats *Statistics) {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats.FilesIndexed = p.indexed
	stats.FilesSkipped = p.skipped
	stats.FilesFailed = p.failed
	stats.PointsUpserted = p.points
	stats.Errors = append(stats.Errors, p.errs...)
}

// runOne wraps one unit of work with progress accounting. Unit failures are
// recorded and swallowed; only cancellation propagates to stop the pool.
func (idx *Indexer) runOne(ctx context.Context, progress *runProgress, name string, work func() (int, bool, error)) error {
	points, indexed, err := work()

	progress.mu.Lock()
	defer progress.mu.Unlock()
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		progress.failed++
		progress.errs = append(progress.errs, fmt.Sprintf("%s: %v", name, err))
		idx.logger.Warn("Failed to index file", zap.String("path", name), zap.Error(err))
	case indexed:
		progress.indexed++
		progress.points += points
	default:
		progress.skipped++
	}
	return nil
}

func (idx *Indexer) workers() int {
	if idx.cfg.Workers > 0 {
		return idx.cfg.Workers
	}
	return 4
}

// discover walks the corpus roots and classifies every file. Hidden
// directories, vendor, and node_modules are skipped. Protocol roots classify
// their documents as protocol_doc regardless of the force type.
func (idx *Indexer) discover(roots []string, force types.DocType) ([]target, error) {
	var targets []target

	appendRoot := func(root string, classify func(rel string) types.DocType) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != root && (strings.HasPrefix(name, ".") || name == "vendor" || name == "node_modules") {
					return filepath.SkipDir
				}
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			dt := classify(rel)
			if dt == "" {
				return nil
			}
			targets = append(targets, target{absPath: path, relPath: rel, docType: dt})
			return nil
		})
	}

	for _, root := range roots {
		classify := Classify
		if force != "" {
			classify = func(string) types.DocType { return force }
		}
		if err := appendRoot(root, classify); err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	for _, root := range idx.cfg.ProtocolRoots {
		err := appendRoot(root, func(rel string) types.DocType {
			if dt := Classify(rel); dt == types.DocTypeProtocolDoc || dt == types.DocTypeSkill {
				return dt
			}
			return ""
		})
		if err != nil {
			return nil, fmt.Errorf("walk protocol root %s: %w", root, err)
		}
	}

	return targets, nil
}

// indexFile indexes one discovered file. Returns the number of points
// written and whether the file was (re)indexed rather than skipped.
func (idx *Indexer) indexFile(ctx context.Context, t target) (int, bool, error) {
	info, err := os.Stat(t.absPath)
	if err != nil {
		return 0, false, err
	}
	if info.Size() > maxFileBytes {
		idx.logger.Debug("Skipping oversized blob",
			zap.String("path", t.relPath), zap.Int64("bytes", info.Size()))
		return 0, false, nil
	}

	raw, err := os.ReadFile(t.absPath)
	if err != nil {
		return 0, false, err
	}
	if !utf8.Valid(raw) {
		idx.logger.Debug("Skipping non-text file", zap.String("path", t.relPath))
		return 0, false, nil
	}

	hash := sha256.Sum256(raw)
	if unchanged, err := idx.isUnchanged(ctx, t.docType, t.relPath, hash[:]); err != nil {
		return 0, false, err
	} else if unchanged {
		return 0, false, nil
	}

	points, err := idx.buildPoints(ctx, t.relPath, string(raw), nil)
	if err != nil {
		return 0, false, err
	}

	doc := vecstore.Document{
		Collection:  t.docType,
		SourcePath:  t.relPath,
		ContentHash: hash,
		ModTime:     info.ModTime(),
	}
	if err := idx.store.ReplaceDocument(ctx, doc, points); err != nil {
		return 0, false, fmt.Errorf("replace document: %w", err)
	}
	return len(points), true, nil
}

// indexSkill indexes one skill card with its canonical text instead of the
// raw file body, so skill hits surface the name and description first.
func (idx *Indexer) indexSkill(ctx context.Context, sk SkillDoc) (int, bool, error) {
	hash := sha256.Sum256(sk.Raw)
	if unchanged, err := idx.isUnchanged(ctx, types.DocTypeSkill, sk.SourcePath, hash[:]); err != nil {
		return 0, false, err
	} else if unchanged {
		return 0, false, nil
	}

	meta := map[string]string{"skill_id": sk.ID, "skill_name": sk.Name}
	points, err := idx.buildPoints(ctx, sk.SourcePath, sk.CanonicalText(), meta)
	if err != nil {
		return 0, false, err
	}
	// Canonical text is short; pin the line range to the file it cites.
	for i := range points {
		points[i].StartLine = 1
		points[i].EndLine = sk.Lines
		points[i].Key = fmt.Sprintf("%s:1-%d", sk.SourcePath, sk.Lines)
	}

	doc := vecstore.Document{
		Collection:  types.DocTypeSkill,
		SourcePath:  sk.SourcePath,
		ContentHash: hash,
		ModTime:     sk.ModTime,
	}
	if err := idx.store.ReplaceDocument(ctx, doc, points); err != nil {
		return 0, false, fmt.Errorf("replace skill: %w", err)
	}
	return len(points), true, nil
}

func (idx *Indexer) isUnchanged(ctx context.Context, dt types.DocType, relPath string, hash []byte) (bool, error) {
	stored, err := idx.store.DocumentHash(ctx, dt, relPath)
	if errors.Is(err, vecstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("document hash: %w", err)
	}
	return bytes.Equal(stored, hash), nil
}

// buildPoints chunks content and embeds the chunks in provider-sized batches.
func (idx *Indexer) buildPoints(ctx context.Context, relPath, content string, meta map[string]string) ([]vecstore.Point, error) {
	chunks := idx.chunker.ChunkText(content)
	if len(chunks) == 0 {
		return nil, nil
	}

	points := make([]vecstore.Point, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedder.MaxBatchSize {
		end := start + embedder.MaxBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		resp, err := idx.embed.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
		if err != nil {
			return nil, fmt.Errorf("embed batch: %w", err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embed batch: got %d vectors for %d chunks", len(resp.Embeddings), len(batch))
		}

		for i, c := range batch {
			points = append(points, vecstore.Point{
				Key:       fmt.Sprintf("%s:%d-%d", relPath, c.StartLine, c.EndLine),
				Content:   c.Content,
				StartLine: c.StartLine,
				EndLine:   c.EndLine,
				Vector:    resp.Embeddings[i].Vector,
				Metadata:  meta,
			})
		}
	}
	return points, nil
}

// publishCollectionSizes refreshes the per-collection point gauges.
func (idx *Indexer) publishCollectionSizes(ctx context.Context) {
	stats, err := idx.store.Stats(ctx)
	if err != nil {
		idx.logger.Warn("Failed to read store stats", zap.Error(err))
		return
	}
	for dt, n := range stats {
		telemetry.IndexedPoints.WithLabelValues(string(dt)).Set(float64(n))
	}
}
