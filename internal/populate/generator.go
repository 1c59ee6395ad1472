package populate

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/logger"
	"github.com/yungbote/edutaxonomy-backend/internal/platform/openai"
)

// Generator proposes candidate names for a kind within a described scope.
// Output is untrusted: it is filtered and capped by the caller.
type Generator interface {
	Generate(ctx context.Context, kind catalog.Kind, scopeContext string, limit int) ([]Candidate, error)
}

type openAIGenerator struct {
	log    *logger.Logger
	client openai.Client
	rules  *Rules
	sem    *semaphore.Weighted
}

// NewOpenAIGenerator bounds concurrent upstream calls to maxConcurrent.
func NewOpenAIGenerator(baseLog *logger.Logger, client openai.Client, rules *Rules, maxConcurrent int64) Generator {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	if rules == nil {
		rules = DefaultRules()
	}
	return &openAIGenerator{
		log:    baseLog.With("service", "OpenAIGenerator"),
		client: client,
		rules:  rules,
		sem:    semaphore.NewWeighted(maxConcurrent),
	}
}

func candidateSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":        map[string]any{"type": "string"},
						"description": map[string]any{"type": "string"},
					},
					"required":             []string{"name", "description"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"items"},
		"additionalProperties": false,
	}
}

func (g *openAIGenerator) Generate(ctx context.Context, kind catalog.Kind, scopeContext string, limit int) ([]Candidate, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer g.sem.Release(1)

	obj, err := g.client.GenerateJSON(ctx, g.rules.System, g.userPrompt(kind, scopeContext, limit), "catalog_"+string(kind), candidateSchema())
	if err != nil {
		return nil, err
	}
	out := parseCandidates(obj)
	g.log.Debug("Generator returned candidates", "kind", kind, "count", len(out))
	return out, nil
}

func (g *openAIGenerator) userPrompt(kind catalog.Kind, scopeContext string, limit int) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(g.rules.For(kind).Prompt))
	if scopeContext != "" {
		b.WriteString("\n\nScope: ")
		b.WriteString(scopeContext)
	}
	fmt.Fprintf(&b, "\n\nReturn at most %d entries.", limit)
	return b.String()
}

func parseCandidates(obj map[string]any) []Candidate {
	raw, _ := obj["items"].([]any)
	out := make([]Candidate, 0, len(raw))
	for _, it := range raw {
		switch v := it.(type) {
		case string:
			out = append(out, Candidate{Name: v})
		case map[string]any:
			name, _ := v["name"].(string)
			desc, _ := v["description"].(string)
			out = append(out, Candidate{Name: name, Description: desc})
		}
	}
	return out
}
