// Package engine orchestrates one query cycle: classify the intent, walk the
// session state machine, retrieve and score hits, run the routed analysis
// routines, and compose the versioned result bundle.
//
// The engine serializes query cycles. The session state machine is process
// wide and single-writer, and a cycle owns the SEARCH_EXECUTING and terminal
// states from submission until its bundle is emitted.
package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub010/internal/composer"
	"github.com/Foundup/Foundups-Agent-sub010/internal/embedder"
	"github.com/Foundup/Foundups-Agent-sub010/internal/intent"
	"github.com/Foundup/Foundups-Agent-sub010/internal/retriever"
	"github.com/Foundup/Foundups-Agent-sub010/internal/router"
	"github.com/Foundup/Foundups-Agent-sub010/internal/routines"
	"github.com/Foundup/Foundups-Agent-sub010/internal/session"
	"github.com/Foundup/Foundups-Agent-sub010/internal/telemetry"
	"github.com/Foundup/Foundups-Agent-sub010/internal/vecstore"
	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

// Retriever runs the retrieval phase of a query cycle.
type Retriever interface {
	Retrieve(ctx context.Context, q *types.Query) (*retriever.Result, error)
}

// Options wires the engine's collaborators.
type Options struct {
	Retriever Retriever
	Router    *router.Router
	Store     vecstore.Store
	Embedder  embedder.Embedder
	Logger    *zap.Logger
	// CacheSize bounds the composed-bundle cache; 0 disables it.
	CacheSize int
	CacheTTL  time.Duration
}

// Engine executes query cycles against process-wide backend handles.
type Engine struct {
	machine   *session.Machine
	retriever Retriever
	router    *router.Router
	store     vecstore.Store
	embed     embedder.Embedder
	logger    *zap.Logger

	// queryMu serializes cycles; the state machine is single-writer.
	queryMu sync.Mutex
	cache   *expirable.LRU[string, *types.ResultBundle]
}

// New builds an engine in BOOTSTRAP state. Call Bootstrap once the backend
// handles are wired; queries before that are rejected.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	e := &Engine{
		machine:   session.NewMachine(),
		retriever: opts.Retriever,
		router:    opts.Router,
		store:     opts.Store,
		embed:     opts.Embedder,
		logger:    opts.Logger,
	}
	if opts.CacheSize > 0 {
		e.cache = expirable.NewLRU[string, *types.ResultBundle](opts.CacheSize, nil, opts.CacheTTL)
	}
	return e
}

// Bootstrap moves the engine to INDEX_READY. Partial backend initialization
// still counts as ready; collection availability is evaluated per query.
func (e *Engine) Bootstrap() error {
	return e.machine.Transition(types.StateIndexReady)
}

// State returns the current session state.
func (e *Engine) State() types.SessionState {
	return e.machine.State()
}

// Ready reports whether the engine accepts queries.
func (e *Engine) Ready() bool {
	return e.machine.State() != types.StateBootstrap
}

// Search runs one full query cycle and returns the composed bundle. The
// error return covers caller misuse (invalid query, engine not bootstrapped);
// retrieval and routine failures degrade inside the bundle instead. An
// unrecoverable cycle failure yields an error bundle with ok=false and resets
// the machine, so the next query is not wedged.
func (e *Engine) Search(ctx context.Context, q *types.Query) (*types.ResultBundle, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	key := cacheKey(q)
	if e.cache != nil {
		if bundle, ok := e.cache.Get(key); ok {
			telemetry.BundleCacheTotal.WithLabelValues("hit").Inc()
			return bundle, nil
		}
		telemetry.BundleCacheTotal.WithLabelValues("miss").Inc()
	}

	e.queryMu.Lock()
	defer e.queryMu.Unlock()

	start := time.Now()
	if err := e.machine.Transition(types.StateSearchExecuting); err != nil {
		return nil, err
	}

	classification := intent.Classify(q.RawText, q.Context)
	bundle := e.runCycle(ctx, q, classification)

	if err := e.machine.Transition(types.StateIndexReady); err != nil {
		return nil, err
	}

	telemetry.ObserveQuery(string(classification.Intent), string(bundle.Metadata.State),
		time.Since(start).Seconds())

	if e.cache != nil && bundle.OK {
		e.cache.Add(key, bundle)
	}
	return bundle, nil
}

// runCycle performs retrieval, routing, and composition, converting panics
// and retrieval errors into the ERROR terminal with its distinct bundle
// shape.
func (e *Engine) runCycle(ctx context.Context, q *types.Query, classification types.IntentClassification) (bundle *types.ResultBundle) {
	defer func() {
		if v := recover(); v != nil {
			e.logger.Error("Query cycle panicked", zap.Any("panic", v))
			bundle = e.errorBundle(q, fmt.Sprintf("query cycle panicked: %v", v))
		}
	}()

	res, err := e.retriever.Retrieve(ctx, q)
	if err != nil {
		e.logger.Error("Retrieval failed unrecoverably", zap.Error(err))
		return e.errorBundle(q, fmt.Sprintf("retrieval failed: %v", err))
	}

	routineResults := e.router.Route(ctx, routines.Input{
		Query:  q,
		Intent: classification,
		Hits:   res.HitsByType,
	})
	for _, rr := range routineResults {
		telemetry.ObserveRoutine(string(rr.Name), rr.Degraded)
	}

	terminal := types.StateResultMissing
	if totalHits(res) > 0 {
		terminal = types.StateResultFound
	}
	if err := e.machine.Transition(terminal); err != nil {
		return e.errorBundle(q, fmt.Sprintf("state machine rejected %s: %v", terminal, err))
	}

	return composer.Compose(composer.Inputs{
		Query:          q,
		Classification: classification,
		Retrieval:      res,
		RoutineResults: routineResults,
		State:          terminal,
	})
}

// errorBundle drives the machine through ERROR and emits the distinct error
// shape. The caller still resets to INDEX_READY afterwards.
func (e *Engine) errorBundle(q *types.Query, diagnostic string) *types.ResultBundle {
	if e.machine.State() == types.StateSearchExecuting {
		if err := e.machine.Transition(types.StateError); err != nil {
			e.logger.Error("Failed to enter ERROR state", zap.Error(err))
		}
	}
	return types.NewErrorBundle(q.RawText, diagnostic)
}

// Invalidate drops all cached bundles. Called after reindexing so stale
// results do not outlive the corpus that produced them.
func (e *Engine) Invalidate() {
	if e.cache != nil {
		e.cache.Purge()
	}
}

// Status describes the engine for health surfaces and the status tool.
type Status struct {
	State             types.SessionState `json:"state"`
	Collections       map[string]int     `json:"collections"`
	Available         map[string]bool    `json:"available"`
	EmbeddingProvider string             `json:"embedding_provider"`
	EmbeddingModel    string             `json:"embedding_model"`
	EmbeddingDim      int                `json:"embedding_dimension"`
	CachedBundles     int                `json:"cached_bundles"`
}

// Status reports current state, per-collection point counts, and
// per-collection availability.
func (e *Engine) Status(ctx context.Context) (*Status, error) {
	st := &Status{
		State:       e.machine.State(),
		Collections: map[string]int{},
		Available:   map[string]bool{},
	}
	if e.embed != nil {
		st.EmbeddingProvider = e.embed.Provider()
		st.EmbeddingModel = e.embed.Model()
		st.EmbeddingDim = e.embed.Dimension()
	}
	if e.cache != nil {
		st.CachedBundles = e.cache.Len()
	}
	if e.store != nil {
		stats, err := e.store.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("store stats: %w", err)
		}
		for dt, n := range stats {
			st.Collections[string(dt)] = n
		}
		for _, dt := range types.AllDocTypes() {
			st.Available[string(dt)] = e.store.Available(ctx, dt)
		}
	}
	return st, nil
}

func totalHits(res *retriever.Result) int {
	n := 0
	for _, hits := range res.HitsByType {
		n += len(hits)
	}
	return n
}

// cacheKey hashes every query field that can change the composed bundle.
func cacheKey(q *types.Query) string {
	h := sha256.New()
	io.WriteString(h, q.RawText)
	h.Write([]byte{0})
	io.WriteString(h, strconv.Itoa(q.EffectiveLimit()))
	h.Write([]byte{0})
	for _, dt := range q.DocTypes() {
		io.WriteString(h, string(dt))
		h.Write([]byte{','})
	}
	h.Write([]byte{0})
	keys := make([]string, 0, len(q.Context))
	for k := range q.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		io.WriteString(h, k)
		h.Write([]byte{'='})
		io.WriteString(h, q.Context[k])
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
