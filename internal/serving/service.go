// Package serving exposes the customer query API over the model-serving
// invocation protocol: normalize the request record, compile it to a
// parameterized statement, run one warehouse round-trip, assemble the page.
package serving

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/skyler-myers-db/data-api-serving/internal/audit"
	"github.com/skyler-myers-db/data-api-serving/internal/auth"
	"github.com/skyler-myers-db/data-api-serving/internal/catalog"
	"github.com/skyler-myers-db/data-api-serving/internal/config"
	"github.com/skyler-myers-db/data-api-serving/internal/page"
	"github.com/skyler-myers-db/data-api-serving/internal/query"
	"github.com/skyler-myers-db/data-api-serving/internal/request"
	"github.com/skyler-myers-db/data-api-serving/internal/warehouse"
)

// ErrRateLimited reports that the warehouse call budget is exhausted.
var ErrRateLimited = errors.New("rate limit exceeded")

// auditTimeout bounds the fire-and-forget audit write.
const auditTimeout = 5 * time.Second

// Service serves customer pages from the configured warehouse backend.
type Service struct {
	cfg      *config.Config
	cat      *catalog.Catalog
	executor warehouse.Executor
	recorder audit.Recorder
	limiter  *rate.Limiter
}

// New wires a Service. A nil recorder disables auditing; the rate limiter is
// only armed when RATE_LIMIT_PER_SEC is positive.
func New(cfg *config.Config, executor warehouse.Executor, recorder audit.Recorder) *Service {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	var limiter *rate.Limiter
	if cfg.RateLimitPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	}
	return &Service{
		cfg:      cfg,
		cat:      catalog.Customers(),
		executor: executor,
		recorder: recorder,
		limiter:  limiter,
	}
}

// Catalog returns the column catalog the service serves.
func (s *Service) Catalog() *catalog.Catalog { return s.cat }

// Query serves one request record. Malformed fields degrade to defaults;
// only the warehouse round-trip can fail the request.
func (s *Service) Query(ctx context.Context, record map[string]any) (page.Page, error) {
	start := time.Now()
	n := request.Normalize(record, s.cat, s.cfg.MaxPageSize)
	compiled := query.Compile(s.cat, s.cfg.QualifiedTable(), n)

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return page.Page{}, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
	}

	qctx := ctx
	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		qctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	rs, err := s.executor.Query(qctx, compiled.Statement)
	if err != nil {
		err = fmt.Errorf("execute query: %w", err)
		s.record(ctx, n, page.Page{}, start, err)
		return page.Page{}, err
	}

	p, err := page.Assemble(rs, s.cat, compiled.PublicCols, compiled.InternalCols, compiled.PageSize)
	if err != nil {
		s.record(ctx, n, page.Page{}, start, err)
		return page.Page{}, err
	}

	s.record(ctx, n, p, start, nil)
	return p, nil
}

// record writes the audit entry off the request path. Filter values are
// withheld; only key names are recorded.
func (s *Service) record(ctx context.Context, n request.Normalized, p page.Page, start time.Time, qerr error) {
	e := audit.Entry{
		RequestID:  uuid.New().String(),
		At:         start.UTC(),
		Subject:    auth.FromContext(ctx).Subject,
		Backend:    s.executor.ID(),
		Table:      s.cfg.QualifiedTable(),
		Select:     n.Select,
		FilterKeys: n.Filters.Keys(),
		Limit:      n.Limit,
		HasCursor:  n.Cursor != "",
		RowCount:   p.Count,
		HasMore:    p.HasMore,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if qerr != nil {
		e.Error = qerr.Error()
	}
	go func() {
		rctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
		defer cancel()
		if err := s.recorder.Record(rctx, e); err != nil {
			log.Printf("audit record failed: %v", err)
		}
	}()
}
