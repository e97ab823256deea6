package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
	"github.com/10spoon/ppomppurelaymonitor/pkg/scrapelog"
)

// MaxTitles caps how many post titles a single prompt embeds.
const MaxTitles = 500

// MinPosts is the smallest corpus worth sending to a model.
const MinPosts = 5

// DefaultModels are the free OpenRouter models compared head to head.
var DefaultModels = []string{
	"google/gemma-3-27b-it:free",
	"z-ai/glm-4.5-air:free",
	"openai/gpt-oss-120b:free",
}

// ModelCaller invokes one model with a prompt and returns its raw text.
type ModelCaller interface {
	Invoke(ctx context.Context, model, prompt string) (string, error)
}

// ModelLister discovers the currently available zero-cost models. An empty
// list is a valid answer meaning "fall back to the static priority list".
type ModelLister interface {
	ListFreeModels(ctx context.Context) ([]string, error)
}

// Mode selects how the candidate models are exercised.
type Mode string

const (
	// ModeCompare attempts every configured model and keeps all non-empty
	// results for side-by-side comparison.
	ModeCompare Mode = "compare"
	// ModeFallback walks the candidate list and stops at the first model
	// that answers.
	ModeFallback Mode = "fallback"
)

// Orchestrator runs the analysis stage. A nil Caller means no credential was
// configured; the orchestrator then records an error entry without any
// network calls.
type Orchestrator struct {
	Caller      ModelCaller
	Lister      ModelLister
	Models      []string
	Mode        Mode
	MaxAttempts int
	CallTimeout time.Duration
}

func NewOrchestrator(caller ModelCaller) *Orchestrator {
	return &Orchestrator{
		Caller:      caller,
		Models:      DefaultModels,
		Mode:        ModeCompare,
		MaxAttempts: 5,
		CallTimeout: 30 * time.Second,
	}
}

// Run produces exactly one analysis entry, error or real, and persists it.
// Returns the file path written.
func (o *Orchestrator) Run(ctx context.Context, store *Store, posts []scrapelog.Post) (string, error) {
	results := o.Analyze(ctx, posts)
	return store.Append(results, len(posts))
}

// Analyze returns a non-empty result set for the given corpus. Model failures
// and empty responses are logged and dropped; when nothing succeeds a single
// error result is synthesized so something is always recorded.
func (o *Orchestrator) Analyze(ctx context.Context, posts []scrapelog.Post) []ModelResult {
	if len(posts) < MinPosts {
		utils.Log.Infof("not enough posts to analyze: %d", len(posts))
		return errorResult(fmt.Sprintf("분석 불가: 데이터 부족 (%d개, 최소 %d개 필요)", len(posts), MinPosts))
	}

	if o.Caller == nil {
		return errorResult("Error: OPENROUTER_API_KEY not set")
	}

	prompt := BuildPrompt(posts)

	var results []ModelResult
	for _, model := range o.candidateModels(ctx) {
		utils.Log.Infof("trying model %s", model)
		text, ok := o.invoke(ctx, model, prompt)
		if !ok {
			continue
		}
		results = append(results, ModelResult{Model: model, Analysis: text})
		if o.Mode == ModeFallback {
			break
		}
	}

	if len(results) == 0 {
		return errorResult("분석 실패: 모든 모델 호출 실패 또는 빈 응답")
	}
	return results
}

// candidateModels resolves the ordered model list for this run. Compare mode
// uses the static list as-is. Fallback mode intersects the discovered free
// models with the priority list, degrading to the priority list when
// discovery fails or finds nothing.
func (o *Orchestrator) candidateModels(ctx context.Context) []string {
	static := o.Models
	if len(static) == 0 {
		static = DefaultModels
	}

	if o.Mode != ModeFallback {
		return static
	}

	candidates := static
	if o.Lister != nil {
		free, err := o.Lister.ListFreeModels(ctx)
		if err != nil {
			utils.Log.Warnf("free model discovery failed, using priority list: %v", err)
		} else if len(free) > 0 {
			available := make(map[string]struct{}, len(free))
			for _, id := range free {
				available[id] = struct{}{}
			}
			var intersected []string
			for _, id := range static {
				if _, ok := available[id]; ok {
					intersected = append(intersected, id)
				}
			}
			if len(intersected) > 0 {
				candidates = intersected
			}
		}
	}

	limit := o.MaxAttempts
	if limit <= 0 {
		limit = 5
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// invoke calls one model. An empty or whitespace-only response counts as a
// failure, identical to an error from the capability.
func (o *Orchestrator) invoke(ctx context.Context, model, prompt string) (string, bool) {
	timeout := o.CallTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	text, err := o.Caller.Invoke(callCtx, model, prompt)
	if err != nil {
		utils.Log.Warnf("model %s failed: %v", model, err)
		return "", false
	}
	if strings.TrimSpace(text) == "" {
		utils.Log.Warnf("model %s returned an empty response", model)
		return "", false
	}
	utils.Log.Infof("model %s succeeded", model)
	return text, true
}
