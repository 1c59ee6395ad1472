package populate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
)

type fakeOpenAI struct {
	mu     sync.Mutex
	system string
	user   string
	schema string
	out    map[string]any
	err    error

	active  int32
	maxSeen int32
	delay   time.Duration
}

func (f *fakeOpenAI) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		seen := atomic.LoadInt32(&f.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&f.maxSeen, seen, n) {
			break
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	f.system, f.user, f.schema = system, user, schemaName
	f.mu.Unlock()
	return f.out, f.err
}

func TestOpenAIGeneratorParsesItems(t *testing.T) {
	fake := &fakeOpenAI{out: map[string]any{
		"items": []any{
			map[string]any{"name": "Physics", "description": "core science"},
			map[string]any{"name": "Chemistry"},
			"Biology",
			42,
		},
	}}
	gen := NewOpenAIGenerator(logger.Nop(), fake, nil, 1)

	got, err := gen.Generate(context.Background(), catalog.KindSubjects, "Board: CBSE; Class: 11", 10)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(got) != 3 || got[0].Name != "Physics" || got[0].Description != "core science" || got[2].Name != "Biology" {
		t.Fatalf("unexpected candidates %+v", got)
	}
	if fake.schema != "catalog_subjects" {
		t.Fatalf("unexpected schema name %q", fake.schema)
	}
	if !strings.Contains(fake.user, "Board: CBSE; Class: 11") || !strings.Contains(fake.user, "at most 10") {
		t.Fatalf("prompt missing scope or limit: %q", fake.user)
	}
	if strings.TrimSpace(fake.system) == "" {
		t.Fatalf("expected system prompt")
	}
}

func TestOpenAIGeneratorPropagatesErrors(t *testing.T) {
	boom := errors.New("upstream 503")
	gen := NewOpenAIGenerator(logger.Nop(), &fakeOpenAI{err: boom}, nil, 1)
	if _, err := gen.Generate(context.Background(), catalog.KindBoards, "", 5); !errors.Is(err, boom) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestOpenAIGeneratorBoundsConcurrency(t *testing.T) {
	fake := &fakeOpenAI{out: map[string]any{"items": []any{}}, delay: 20 * time.Millisecond}
	gen := NewOpenAIGenerator(logger.Nop(), fake, nil, 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = gen.Generate(context.Background(), catalog.KindCategories, "", 5)
		}()
	}
	wg.Wait()
	if got := atomic.LoadInt32(&fake.maxSeen); got > 2 {
		t.Fatalf("expected at most 2 concurrent calls, saw %d", got)
	}
}
