package populate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	catalogrepo "github.com/yungbote/edutaxonomy-backend/internal/data/repos/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/observability"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

type Config struct {
	GeneratorTimeout time.Duration
	DefaultLimit     int
	MaxLimit         int
	MaxContextRunes  int
}

func (c Config) withDefaults() Config {
	if c.GeneratorTimeout <= 0 {
		c.GeneratorTimeout = 120 * time.Second
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = 100
	}
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = 25
	}
	if c.DefaultLimit > c.MaxLimit {
		c.DefaultLimit = c.MaxLimit
	}
	if c.MaxContextRunes <= 0 {
		c.MaxContextRunes = 1000
	}
	return c
}

type Request struct {
	Kind  catalog.Kind
	Scope catalog.Scope
	// Names are display names supplied by the caller, keyed by scope column.
	// They save a store lookup when building the generator context.
	Names   map[string]string
	Context string
	Limit   int
}

type Result struct {
	Kind        catalog.Kind
	Records     []catalog.Record
	Generated   int
	Rejected    int
	Inserted    int
	Reactivated int
	Failed      int
}

type Service interface {
	Populate(ctx context.Context, req Request) (*Result, error)
	List(ctx context.Context, kind catalog.Kind, scope catalog.Scope) ([]catalog.Record, error)
}

type service struct {
	log     *logger.Logger
	repo    catalogrepo.CatalogRepo
	gen     Generator
	guard   Guard
	filter  *Filter
	metrics *observability.Metrics
	cfg     Config
}

func NewService(
	baseLog *logger.Logger,
	repo catalogrepo.CatalogRepo,
	gen Generator,
	guard Guard,
	filter *Filter,
	metrics *observability.Metrics,
	cfg Config,
) Service {
	if guard == nil {
		guard = NewMemoryGuard()
	}
	if filter == nil {
		filter = NewFilter(nil)
	}
	return &service{
		log:     baseLog.With("service", "PopulateService"),
		repo:    repo,
		gen:     gen,
		guard:   guard,
		filter:  filter,
		metrics: metrics,
		cfg:     cfg.withDefaults(),
	}
}

func (s *service) Populate(ctx context.Context, req Request) (*Result, error) {
	spec, ok := catalog.Lookup(req.Kind)
	if !ok {
		return nil, fmt.Errorf("%q: %w", req.Kind, ErrUnknownKind)
	}
	kind := string(spec.Kind)
	scope := req.Scope.Only(spec.RequestColumns)
	if !spec.Satisfied(scope) {
		s.metrics.IncPopulate(kind, "missing_context")
		return nil, fmt.Errorf("%s: %w", kind, ErrMissingContext)
	}

	scopeContext, err := s.describeScope(ctx, spec, scope, req)
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrMissingContext) {
			outcome = "missing_context"
		}
		s.metrics.IncPopulate(kind, outcome)
		return nil, err
	}

	key := scope.DedupKey(spec.Kind)
	acquired, err := s.guard.Acquire(ctx, key)
	if err != nil {
		s.metrics.IncPopulate(kind, "error")
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !acquired {
		s.metrics.IncGuardRejection(kind)
		s.metrics.IncPopulate(kind, "in_progress")
		return nil, fmt.Errorf("%s: %w", key, ErrInProgress)
	}
	defer s.guard.Release(context.WithoutCancel(ctx), key)

	limit := s.limit(req.Limit)
	genCtx, cancel := context.WithTimeout(ctx, s.cfg.GeneratorTimeout)
	candidates, err := s.gen.Generate(genCtx, spec.Kind, scopeContext, limit)
	cancel()
	if err != nil {
		s.metrics.IncPopulate(kind, "upstream_error")
		s.log.Error("Generator failed", "kind", kind, "scope", key, "error", err)
		return nil, fmt.Errorf("%s: %w: %v", kind, ErrUpstream, err)
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	res := &Result{Kind: spec.Kind, Generated: len(candidates), Records: []catalog.Record{}}
	kept := s.filter.Apply(spec.Kind, candidates)
	res.Rejected = len(candidates) - len(kept)

	for _, c := range kept {
		rec, outcome, err := s.repo.Apply(ctx, nil, spec, scope, c.Name)
		if err != nil {
			res.Failed++
			s.log.Warn("Skipping candidate that failed to persist", "kind", kind, "name", c.Name, "error", err)
			continue
		}
		switch outcome {
		case catalogrepo.OutcomeInserted:
			res.Inserted++
		default:
			res.Reactivated++
		}
		res.Records = append(res.Records, rec)
	}

	s.metrics.AddPopulateRows(kind, "inserted", res.Inserted)
	s.metrics.AddPopulateRows(kind, "reactivated", res.Reactivated)
	s.metrics.AddPopulateRows(kind, "rejected", res.Rejected)
	s.metrics.AddPopulateRows(kind, "failed", res.Failed)
	s.metrics.IncPopulate(kind, "ok")
	s.log.Info("Population finished",
		"kind", kind,
		"scope", key,
		"generated", res.Generated,
		"rejected", res.Rejected,
		"inserted", res.Inserted,
		"reactivated", res.Reactivated,
		"failed", res.Failed,
	)
	return res, nil
}

func (s *service) List(ctx context.Context, kind catalog.Kind, scope catalog.Scope) ([]catalog.Record, error) {
	spec, ok := catalog.Lookup(kind)
	if !ok {
		return nil, fmt.Errorf("%q: %w", kind, ErrUnknownKind)
	}
	return s.repo.ListActive(ctx, nil, spec, scope.Only(spec.RequestColumns))
}

func (s *service) limit(n int) int {
	if n <= 0 {
		return s.cfg.DefaultLimit
	}
	if n > s.cfg.MaxLimit {
		return s.cfg.MaxLimit
	}
	return n
}

// describeScope renders the scope as "Label: name; ..." for the generator.
func (s *service) describeScope(ctx context.Context, spec catalog.KindSpec, scope catalog.Scope, req Request) (string, error) {
	parts := make([]string, 0, len(spec.RequestColumns)+1)
	for _, col := range spec.RequestColumns {
		id, ok := scope.Get(col)
		if !ok {
			continue
		}
		name := strings.TrimSpace(req.Names[col])
		if name == "" {
			table, ok := catalog.TableForColumn(col)
			if !ok {
				continue
			}
			var err error
			name, err = s.repo.NameByID(ctx, nil, table.Table, id)
			if errors.Is(err, catalogrepo.ErrNotFound) {
				return "", fmt.Errorf("%s %d does not exist: %w", col, id, ErrMissingContext)
			}
			if err != nil {
				return "", fmt.Errorf("resolve %s: %w", col, err)
			}
		}
		parts = append(parts, catalog.ColumnLabel(col)+": "+name)
	}
	if extra := strings.Join(strings.Fields(req.Context), " "); extra != "" {
		parts = append(parts, "Details: "+extra)
	}
	return truncateRunes(strings.Join(parts, "; "), s.cfg.MaxContextRunes), nil
}
