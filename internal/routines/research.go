package routines

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Foundup/Foundups-Agent-sub010/pkg/types"
)

const (
	defaultResearchTimeout = 5 * time.Second
	maxResearchBody        = 64 << 10
	maxResearchGuidance    = 500
)

// Research is the network-bound auxiliary lookup, the only routine with
// RequiresNetwork() true. Every call carries its own timeout; a timeout or
// transport failure downgrades to a local-only note and never fails the
// query.
type Research struct {
	endpoint string
	timeout  time.Duration
	client   *http.Client
	logger   *zap.Logger
}

// NewResearch builds the lookup routine. An empty endpoint is allowed; runs
// then report degraded instead of erroring, so enabling research intent
// without an endpoint stays harmless.
func NewResearch(endpoint string, timeout time.Duration, logger *zap.Logger) *Research {
	if timeout <= 0 {
		timeout = defaultResearchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Research{
		endpoint: endpoint,
		timeout:  timeout,
		client:   &http.Client{},
		logger:   logger,
	}
}

func (*Research) ID() types.RoutineID { return types.RoutineResearch }

func (r *Research) Run(ctx context.Context, in Input) (types.RoutineResult, error) {
	if r.endpoint == "" {
		res := types.DegradedResult(types.RoutineResearch, nil)
		res.Guidance = "research endpoint not configured; local results only"
		return res, nil
	}

	lookupURL, err := r.buildURL(in.Query.RawText)
	if err != nil {
		return types.RoutineResult{}, fmt.Errorf("research endpoint: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return types.RoutineResult{}, fmt.Errorf("research request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warn("Research lookup failed, returning local results only",
			zap.String("endpoint", r.endpoint),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		res := types.DegradedResult(types.RoutineResearch, err)
		if errors.Is(err, context.DeadlineExceeded) {
			res.Guidance = fmt.Sprintf("research lookup timed out after %s; local results only", r.timeout)
		} else {
			res.Guidance = "research lookup unreachable; local results only"
		}
		return res, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResearchBody))
	elapsed := time.Since(start)

	details := map[string]any{
		"endpoint":   r.endpoint,
		"status":     resp.StatusCode,
		"elapsed_ms": elapsed.Milliseconds(),
	}

	if resp.StatusCode != http.StatusOK {
		res := types.DegradedResult(types.RoutineResearch,
			fmt.Errorf("research endpoint returned %d", resp.StatusCode))
		res.Guidance = "research lookup failed upstream; local results only"
		res.Details = details
		return res, nil
	}

	guidance := strings.TrimSpace(string(body))
	if len(guidance) > maxResearchGuidance {
		guidance = guidance[:maxResearchGuidance]
	}
	if guidance == "" {
		guidance = "research endpoint returned no content"
	}

	return types.RoutineResult{
		Name:     types.RoutineResearch,
		OK:       true,
		Guidance: guidance,
		Details:  details,
	}, nil
}

func (r *Research) buildURL(query string) (string, error) {
	u, err := url.Parse(r.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
