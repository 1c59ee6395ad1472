package populate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/edutaxonomy-backend/internal/data/db"
	catalogrepo "github.com/yungbote/edutaxonomy-backend/internal/data/repos/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/data/repos/testutil"
	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/observability"
)

type staticGen struct {
	names []string
	err   error
	calls int32

	mu      sync.Mutex
	context string
	limit   int
}

func (g *staticGen) Generate(_ context.Context, _ catalog.Kind, scopeContext string, limit int) ([]Candidate, error) {
	atomic.AddInt32(&g.calls, 1)
	g.mu.Lock()
	g.context, g.limit = scopeContext, limit
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	out := make([]Candidate, len(g.names))
	for i, n := range g.names {
		out[i] = Candidate{Name: n}
	}
	return out, nil
}

// blockingGen parks every call until release is closed.
type blockingGen struct {
	staticGen
	startOnce sync.Once
	started   chan struct{}
	release   chan struct{}
}

func newBlockingGen(names ...string) *blockingGen {
	return &blockingGen{
		staticGen: staticGen{names: names},
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
}

func (g *blockingGen) Generate(ctx context.Context, kind catalog.Kind, scopeContext string, limit int) ([]Candidate, error) {
	g.startOnce.Do(func() { close(g.started) })
	select {
	case <-g.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return g.staticGen.Generate(ctx, kind, scopeContext, limit)
}

// failingRepo fails Apply for one name.
type failingRepo struct {
	catalogrepo.CatalogRepo
	bad string
}

func (r failingRepo) Apply(ctx context.Context, tx *gorm.DB, kind catalog.KindSpec, scope catalog.Scope, name string) (catalog.Record, catalogrepo.Outcome, error) {
	if name == r.bad {
		return catalog.Record{}, "", errors.New("disk full")
	}
	return r.CatalogRepo.Apply(ctx, tx, kind, scope, name)
}

type fixture struct {
	db    *gorm.DB
	repo  catalogrepo.CatalogRepo
	guard *MemoryGuard
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	theDB := testutil.DB(t)
	log := testutil.Logger(t)
	for _, rep := range db.NewRepairer(theDB, log, nil).Run(context.Background()) {
		if rep.Err != nil {
			t.Fatalf("install %s index: %v", rep.Table, rep.Err)
		}
	}
	return &fixture{db: theDB, repo: catalogrepo.NewCatalogRepo(theDB, log), guard: NewMemoryGuard()}
}

func (f *fixture) service(t *testing.T, gen Generator) Service {
	t.Helper()
	return f.serviceWith(t, f.repo, gen)
}

func (f *fixture) serviceWith(t *testing.T, repo catalogrepo.CatalogRepo, gen Generator) Service {
	t.Helper()
	return NewService(testutil.Logger(t), repo, gen, f.guard, NewFilter(nil), observability.New(), Config{})
}

func boardsRequest(stateID int64) Request {
	return Request{
		Kind:  catalog.KindBoards,
		Scope: catalog.Scope{"state_id": stateID},
		Names: map[string]string{"state_id": fmt.Sprintf("State %d", stateID)},
	}
}

func TestPopulateRejectsUnknownKind(t *testing.T) {
	f := newFixture(t)
	_, err := f.service(t, &staticGen{}).Populate(context.Background(), Request{Kind: "planets"})
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestPopulateRequiresScope(t *testing.T) {
	f := newFixture(t)
	gen := &staticGen{names: []string{"Physics"}}
	svc := f.service(t, gen)

	cases := []Request{
		{Kind: catalog.KindBoards},
		{Kind: catalog.KindBoards, Scope: catalog.Scope{"category_id": 1}},
		{Kind: catalog.KindSubjects, Scope: catalog.Scope{"board_id": 1}},
		{Kind: catalog.KindStreams, Scope: catalog.Scope{"class_id": 3}},
		{Kind: catalog.KindChapters, Scope: catalog.Scope{"subject_id": -1}},
	}
	for _, req := range cases {
		if _, err := svc.Populate(context.Background(), req); !errors.Is(err, ErrMissingContext) {
			t.Fatalf("%s %v: expected ErrMissingContext, got %v", req.Kind, req.Scope, err)
		}
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not run without scope, ran %d times", gen.calls)
	}
	if f.guard.InFlight() != 0 {
		t.Fatalf("validation failures must not hold the guard")
	}
}

// countingGuard records how often the service tried to claim a scope.
type countingGuard struct {
	*MemoryGuard
	acquires atomic.Int32
}

func (g *countingGuard) Acquire(ctx context.Context, key string) (bool, error) {
	g.acquires.Add(1)
	return g.MemoryGuard.Acquire(ctx, key)
}

func TestPopulateUnknownScopeIDIsMissingContext(t *testing.T) {
	f := newFixture(t)
	gen := &staticGen{names: []string{"Optics"}}
	guard := &countingGuard{MemoryGuard: NewMemoryGuard()}
	svc := NewService(testutil.Logger(t), f.repo, gen, guard, NewFilter(nil), observability.New(), Config{})

	_, err := svc.Populate(context.Background(), Request{
		Kind:  catalog.KindChapters,
		Scope: catalog.Scope{"subject_id": 999},
	})
	if !errors.Is(err, ErrMissingContext) {
		t.Fatalf("expected ErrMissingContext, got %v", err)
	}
	if n := guard.acquires.Load(); n != 0 {
		t.Fatalf("unknown scope ids must fail before the guard is claimed, got %d acquires", n)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not run, ran %d times", gen.calls)
	}
}

func TestPopulateBuildsContextFromStore(t *testing.T) {
	f := newFixture(t)
	state := testutil.SeedState(t, f.db, "Kerala")
	cat := testutil.SeedCategory(t, f.db, "School")
	gen := &staticGen{names: []string{"Kerala State Board"}}

	_, err := f.service(t, gen).Populate(context.Background(), Request{
		Kind:    catalog.KindBoards,
		Scope:   catalog.Scope{"category_id": cat.ID, "state_id": state.ID},
		Context: "  only   government boards ",
	})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	want := "State: Kerala; Category: School; Details: only government boards"
	if gen.context != want {
		t.Fatalf("context = %q, want %q", gen.context, want)
	}
	if gen.limit != 25 {
		t.Fatalf("expected default limit 25, got %d", gen.limit)
	}
}

func TestPopulateIsIdempotent(t *testing.T) {
	f := newFixture(t)
	gen := &staticGen{names: []string{"CBSE", "ICSE", "Kerala State Board"}}
	svc := f.service(t, gen)

	first, err := svc.Populate(context.Background(), boardsRequest(1))
	if err != nil {
		t.Fatalf("first populate: %v", err)
	}
	if first.Inserted != 3 || len(first.Records) != 3 {
		t.Fatalf("unexpected first result %+v", first)
	}

	gen.names = []string{"cbse", "ICSE", "KERALA STATE BOARD"}
	second, err := svc.Populate(context.Background(), boardsRequest(1))
	if err != nil {
		t.Fatalf("second populate: %v", err)
	}
	if second.Inserted != 0 || second.Reactivated != 3 {
		t.Fatalf("unexpected second result %+v", second)
	}
	for i := range first.Records {
		if first.Records[i].ID != second.Records[i].ID {
			t.Fatalf("row %d changed id: %d -> %d", i, first.Records[i].ID, second.Records[i].ID)
		}
	}
	if n := testutil.Count(t, f.db, "boards"); n != 3 {
		t.Fatalf("expected 3 boards, got %d", n)
	}

	listed, err := svc.List(context.Background(), catalog.KindBoards, catalog.Scope{"state_id": 1})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 3 {
		t.Fatalf("expected 3 listed boards, got %d", len(listed))
	}
}

func TestPopulateRejectsConcurrentSameScope(t *testing.T) {
	f := newFixture(t)
	gen := newBlockingGen("CBSE")
	svc := f.service(t, gen)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Populate(ctx, boardsRequest(1))
		done <- err
	}()
	<-gen.started

	if _, err := svc.Populate(ctx, boardsRequest(1)); !errors.Is(err, ErrInProgress) {
		t.Fatalf("expected ErrInProgress, got %v", err)
	}

	close(gen.release)
	if err := <-done; err != nil {
		t.Fatalf("first populate: %v", err)
	}
	if calls := atomic.LoadInt32(&gen.calls); calls != 1 {
		t.Fatalf("expected one generator call, got %d", calls)
	}

	if _, err := svc.Populate(ctx, boardsRequest(1)); err != nil {
		t.Fatalf("populate after release: %v", err)
	}
}

func TestPopulateDifferentScopesRunConcurrently(t *testing.T) {
	f := newFixture(t)
	gen := newBlockingGen("CBSE")
	svc := f.service(t, gen)
	ctx := context.Background()

	done := make(chan error, 2)
	go func() {
		_, err := svc.Populate(ctx, boardsRequest(1))
		done <- err
	}()
	<-gen.started
	go func() {
		_, err := svc.Populate(ctx, boardsRequest(2))
		done <- err
	}()

	close(gen.release)
	for i := 0; i < 2; i++ {
		if err := <-done; err != nil {
			t.Fatalf("populate: %v", err)
		}
	}
	if calls := atomic.LoadInt32(&gen.calls); calls != 2 {
		t.Fatalf("expected two generator calls, got %d", calls)
	}
}

func TestPopulateReleasesGuardOnUpstreamFailure(t *testing.T) {
	f := newFixture(t)
	_, err := f.service(t, &staticGen{err: errors.New("503")}).Populate(context.Background(), boardsRequest(1))
	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if f.guard.InFlight() != 0 {
		t.Fatalf("guard must be released after upstream failure")
	}
	if n := testutil.Count(t, f.db, "boards"); n != 0 {
		t.Fatalf("nothing should be written, found %d", n)
	}

	if _, err := f.service(t, &staticGen{names: []string{"CBSE"}}).Populate(context.Background(), boardsRequest(1)); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestPopulateTruncatesBeforeMatching(t *testing.T) {
	f := newFixture(t)
	subject := testutil.SeedSubject(t, f.db, "Physics", catalog.Scope{"university_id": 1})
	base := strings.Repeat("a", 500)
	gen := &staticGen{names: []string{base + strings.Repeat("x", 100)}}
	svc := f.service(t, gen)
	req := Request{Kind: catalog.KindChapters, Scope: catalog.Scope{"subject_id": subject.ID}}

	first, err := svc.Populate(context.Background(), req)
	if err != nil {
		t.Fatalf("first populate: %v", err)
	}
	gen.names = []string{base + strings.Repeat("y", 100)}
	second, err := svc.Populate(context.Background(), req)
	if err != nil {
		t.Fatalf("second populate: %v", err)
	}
	if len(first.Records) != 1 || len(second.Records) != 1 || first.Records[0].ID != second.Records[0].ID {
		t.Fatalf("expected both long names to resolve to one row: %+v %+v", first.Records, second.Records)
	}
	if got := first.Records[0].Name; got != base {
		t.Fatalf("expected stored name truncated to 500, got %d chars", len(got))
	}
}

func TestPopulateAppliesKindFilter(t *testing.T) {
	f := newFixture(t)
	gen := &staticGen{names: []string{"XYZ Engineering College", "CBSE"}}

	boards, err := f.service(t, gen).Populate(context.Background(), boardsRequest(1))
	if err != nil {
		t.Fatalf("boards: %v", err)
	}
	if len(boards.Records) != 1 || boards.Records[0].Name != "CBSE" || boards.Rejected != 1 {
		t.Fatalf("unexpected boards result %+v", boards)
	}

	unis, err := f.service(t, gen).Populate(context.Background(), Request{
		Kind:  catalog.KindUniversities,
		Scope: catalog.Scope{"state_id": 1},
		Names: map[string]string{"state_id": "Tamil Nadu"},
	})
	if err != nil {
		t.Fatalf("universities: %v", err)
	}
	if len(unis.Records) != 2 || unis.Records[0].Name != "XYZ Engineering College" {
		t.Fatalf("unexpected universities result %+v", unis)
	}
}

func TestPopulateCapsCandidatesToLimit(t *testing.T) {
	f := newFixture(t)
	many := make([]string, 30)
	for i := range many {
		many[i] = fmt.Sprintf("Board %02d", i)
	}
	req := boardsRequest(1)
	req.Limit = 5

	res, err := f.service(t, &staticGen{names: many}).Populate(context.Background(), req)
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if len(res.Records) != 5 || res.Records[4].Name != "Board 04" {
		t.Fatalf("expected the first 5 candidates, got %+v", res.Records)
	}

	req.Limit = 1000
	gen := &staticGen{}
	if _, err := f.service(t, gen).Populate(context.Background(), req); err != nil {
		t.Fatalf("populate: %v", err)
	}
	if gen.limit != 100 {
		t.Fatalf("expected limit clamped to 100, got %d", gen.limit)
	}
}

func TestPopulateSkipsRowsThatFailToPersist(t *testing.T) {
	f := newFixture(t)
	gen := &staticGen{names: []string{"CBSE", "Broken", "ICSE"}}
	svc := f.serviceWith(t, failingRepo{CatalogRepo: f.repo, bad: "Broken"}, gen)

	res, err := svc.Populate(context.Background(), boardsRequest(1))
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	if res.Failed != 1 || len(res.Records) != 2 {
		t.Fatalf("expected partial success, got %+v", res)
	}
	if res.Records[0].Name != "CBSE" || res.Records[1].Name != "ICSE" {
		t.Fatalf("expected candidate order preserved, got %+v", res.Records)
	}
}

func TestPopulateClassesLinksBoard(t *testing.T) {
	f := newFixture(t)
	gen := &staticGen{names: []string{"Class 9", "Class 10"}}
	svc := f.service(t, gen)

	for _, board := range []int64{1, 2} {
		_, err := svc.Populate(context.Background(), Request{
			Kind:  catalog.KindClasses,
			Scope: catalog.Scope{"board_id": board},
			Names: map[string]string{"board_id": "Board"},
		})
		if err != nil {
			t.Fatalf("populate board %d: %v", board, err)
		}
	}
	if n := testutil.Count(t, f.db, "classes"); n != 2 {
		t.Fatalf("expected 2 global classes, got %d", n)
	}
	if n := testutil.Count(t, f.db, "board_classes"); n != 4 {
		t.Fatalf("expected 4 links, got %d", n)
	}
}
