// Package retriever coordinates per-collection retrieval, normalization,
// scoring, and floor filtering for one query.
//
// Sub-retrievals across doc types are independent and run concurrently, each
// writing to its own result slot. A collection being unreachable degrades to
// zero hits for that type and a note in the result; it never fails the query.
// When the vector backend is unavailable or returns nothing for a type, the
// coordinator falls back to lexical search with the self-normalizing
// similarity estimate.
package retriever

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Foundup/Foundups-Agent-sub010/internal/embedder"
	"github.com/Foundup/Foundups-Agent-sub010/internal/scorer"
	"github.com/Foundup/Foundups-Agent-sub010/internal/vecstore"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// snippetLimit caps the content excerpt carried on a hit.
const snippetLimit = 240

// Result is the outcome of one retrieval phase. Hits are scored, floored,
// sorted, and capped per doc type; zero-hit types still appear in Counts.
type Result struct {
	HitsByType map[types.DocType][]types.ScoredHit
	Counts     map[types.DocType]int
	// Degraded notes subsystems that failed soft: unreachable collections,
	// an unavailable embedder, skipped malformed candidates.
	Degraded  []string
	Malformed int
	ElapsedMS int64
}

// Coordinator fans a query out across collections and assembles scored hits.
type Coordinator struct {
	store  vecstore.Store
	embed  embedder.Embedder
	scorer *scorer.Scorer
	logger *zap.Logger
}

// New creates a retrieval coordinator.
func New(store vecstore.Store, embed embedder.Embedder, sc *scorer.Scorer, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{store: store, embed: embed, scorer: sc, logger: logger}
}

// typeOutcome is the per-collection slot written by one sub-retrieval.
type typeOutcome struct {
	docType   types.DocType
	hits      []types.ScoredHit
	degraded  []string
	malformed int
}

// Retrieve runs the retrieval phase for a validated query. The error return
// covers only invalid input; collaborator failures degrade instead.
func (c *Coordinator) Retrieve(ctx context.Context, q *types.Query) (*Result, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	tokens := scorer.Tokenize(q.RawText)
	limit := q.EffectiveLimit()
	docTypes := q.DocTypes()

	queryVec, degraded := c.embedQuery(ctx, q.RawText)

	outcomes := make([]typeOutcome, len(docTypes))
	g, gctx := errgroup.WithContext(ctx)
	for i, dt := range docTypes {
		g.Go(func() error {
			outcomes[i] = c.retrieveType(gctx, dt, queryVec, tokens, limit)
			return nil
		})
	}
	// Sub-retrievals never return errors; they degrade into their slot.
	_ = g.Wait()

	res := &Result{
		HitsByType: make(map[types.DocType][]types.ScoredHit, len(docTypes)),
		Counts:     make(map[types.DocType]int, len(docTypes)),
		Degraded:   degraded,
	}
	for _, out := range outcomes {
		res.HitsByType[out.docType] = out.hits
		res.Counts[out.docType] = len(out.hits)
		res.Degraded = append(res.Degraded, out.degraded...)
		res.Malformed += out.malformed
	}
	if res.Malformed > 0 {
		res.Degraded = append(res.Degraded,
			fmt.Sprintf("skipped %d malformed candidates", res.Malformed))
	}
	res.ElapsedMS = time.Since(start).Milliseconds()
	return res, nil
}

// embedQuery turns the query text into a vector, degrading to lexical-only
// retrieval when the embedder fails.
func (c *Coordinator) embedQuery(ctx context.Context, text string) ([]float32, []string) {
	if c.embed == nil {
		return nil, []string{"embedding unavailable: no provider"}
	}
	emb, err := c.embed.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
	if err != nil {
		c.logger.Warn("Query embedding failed, falling back to lexical retrieval",
			zap.Error(err))
		return nil, []string{fmt.Sprintf("embedding unavailable: %v", err)}
	}
	return emb.Vector, nil
}

// retrieveType runs one collection's sub-retrieval. All failures are folded
// into the outcome; this function never aborts the batch.
func (c *Coordinator) retrieveType(ctx context.Context, dt types.DocType, queryVec []float32, tokens []string, limit int) typeOutcome {
	out := typeOutcome{docType: dt}

	var candidates []types.RawCandidate
	if queryVec != nil {
		var err error
		candidates, err = c.store.Nearest(ctx, dt, queryVec, limit)
		if err != nil {
			c.logger.Warn("Collection unreachable, recording zero vector hits",
				zap.String("doc_type", string(dt)),
				zap.Error(err))
			out.degraded = append(out.degraded,
				fmt.Sprintf("collection %s unavailable: %v", dt, err))
			candidates = nil
		}
	}

	if len(candidates) > 0 {
		out.hits, out.malformed = c.scoreVectorCandidates(dt, candidates, tokens)
	} else {
		hits, malformed, note := c.lexicalFallback(ctx, dt, tokens, limit)
		out.hits = hits
		out.malformed = malformed
		if note != "" {
			out.degraded = append(out.degraded, note)
		}
	}

	sortHits(out.hits)
	if len(out.hits) > limit {
		out.hits = out.hits[:limit]
	}
	return out
}

// scoreVectorCandidates normalizes and scores vector-backed candidates,
// dropping everything below the similarity floor.
func (c *Coordinator) scoreVectorCandidates(dt types.DocType, candidates []types.RawCandidate, tokens []string) ([]types.ScoredHit, int) {
	hits := make([]types.ScoredHit, 0, len(candidates))
	malformed := 0

	for i := range candidates {
		cand := &candidates[i]
		if cand.Malformed() {
			malformed++
			continue
		}

		sim, clamped := scorer.NormalizeDistance(cand.Distance)
		if clamped {
			c.logger.Warn("Candidate distance clamped to zero",
				zap.String("doc_type", string(dt)),
				zap.String("source_path", cand.SourcePath),
				zap.Float64("distance", cand.Distance))
		}
		if !c.scorer.Passes(sim) {
			continue
		}

		content := cand.PayloadString("content")
		kw := scorer.KeywordScore(tokens, content+" "+cand.SourcePath)

		hits = append(hits, c.newHit(dt, cand, content, sim, kw))
	}
	return hits, malformed
}

// lexicalFallback retrieves and scores candidates by token overlap alone.
// Similarity comes from the self-normalizing estimate, so long queries with
// thin overlap fall below the floor instead of surfacing as near-matches.
func (c *Coordinator) lexicalFallback(ctx context.Context, dt types.DocType, tokens []string, limit int) ([]types.ScoredHit, int, string) {
	if len(tokens) == 0 {
		return nil, 0, ""
	}

	candidates, err := c.store.Lexical(ctx, dt, tokens, limit)
	if err != nil {
		c.logger.Warn("Lexical fallback unreachable",
			zap.String("doc_type", string(dt)),
			zap.Error(err))
		return nil, 0, fmt.Sprintf("lexical fallback for %s unavailable: %v", dt, err)
	}

	hits := make([]types.ScoredHit, 0, len(candidates))
	malformed := 0
	for i := range candidates {
		cand := &candidates[i]
		if cand.Malformed() {
			malformed++
			continue
		}

		content := cand.PayloadString("content")
		matches := scorer.KeywordMatches(tokens, content+" "+cand.SourcePath)
		sim := scorer.FallbackSimilarity(matches, len(tokens))
		if !c.scorer.Passes(sim) {
			continue
		}
		kw := float64(matches) / float64(len(tokens))

		hits = append(hits, c.newHit(dt, cand, content, sim, kw))
	}
	return hits, malformed, ""
}

func (c *Coordinator) newHit(dt types.DocType, cand *types.RawCandidate, content string, sim, kw float64) types.ScoredHit {
	return types.ScoredHit{
		SourcePath:     cand.SourcePath,
		DocType:        dt,
		StartLine:      cand.PayloadInt("start_line"),
		EndLine:        cand.PayloadInt("end_line"),
		Similarity:     sim,
		KeywordScore:   kw,
		PriorityWeight: c.scorer.Weight(dt),
		Score:          c.scorer.Score(dt, sim, kw),
		Snippet:        truncate(content, snippetLimit),
	}
}

// sortHits orders a single type's hits: score descending, ties broken by
// shorter then lexicographically smaller source path.
func sortHits(hits []types.ScoredHit) {
	sort.Slice(hits, func(i, j int) bool {
		return hits[i].Less(&hits[j])
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
