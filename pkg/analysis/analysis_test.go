package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/10spoon/ppomppurelaymonitor/internal/utils"
	"github.com/10spoon/ppomppurelaymonitor/pkg/scrapelog"
)

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, utils.KST)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore(t.TempDir())
	s.Now = func() time.Time { return testNow }
	return s
}

func corpus(n int) []scrapelog.Post {
	posts := make([]scrapelog.Post, n)
	for i := range posts {
		posts[i] = scrapelog.Post{ID: string(rune('a' + i)), Title: "케이뱅크 이벤트"}
	}
	return posts
}

// fakeCaller answers per-model from a fixed map; missing models error.
type fakeCaller struct {
	responses map[string]string
	calls     []string
}

func (f *fakeCaller) Invoke(_ context.Context, model, _ string) (string, error) {
	f.calls = append(f.calls, model)
	text, ok := f.responses[model]
	if !ok {
		return "", errors.New("model unavailable")
	}
	return text, nil
}

type fakeLister struct {
	models []string
	err    error
}

func (f *fakeLister) ListFreeModels(context.Context) ([]string, error) {
	return f.models, f.err
}

func TestStoreAppendAndLatest(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Append([]ModelResult{{Model: "m1", Analysis: "first"}}, 10); err != nil {
		t.Fatal(err)
	}
	path, err := s.Append([]ModelResult{{Model: "m2", Analysis: "second"}}, 12)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	latest, err := s.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || latest.PostCount != 12 || latest.Results[0].Model != "m2" {
		t.Fatalf("unexpected latest entry: %+v", latest)
	}
}

func TestStoreLatestEmpty(t *testing.T) {
	s := newTestStore(t)
	latest, err := s.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest != nil {
		t.Fatalf("expected nil, got %+v", latest)
	}
}

func TestStoreLatestNormalizesLegacyShape(t *testing.T) {
	s := newTestStore(t)
	legacy := `[{"analyzed_at":"2025-03-10T09:00:00+09:00","post_count":7,"model":"old-model","analysis":"legacy text"}]`
	if err := os.WriteFile(filepath.Join(s.Dir, testNow.Format("2006-01-02")+".json"), []byte(legacy), 0o644); err != nil {
		t.Fatal(err)
	}

	latest, err := s.Latest()
	if err != nil {
		t.Fatal(err)
	}
	expected := []ModelResult{{Model: "old-model", Analysis: "legacy text"}}
	if latest == nil || !reflect.DeepEqual(latest.Results, expected) {
		t.Fatalf("legacy entry not normalized: %+v", latest)
	}
}

func TestAnalyzeInputGate(t *testing.T) {
	o := NewOrchestrator(&fakeCaller{responses: map[string]string{"m": "x"}})
	results := o.Analyze(context.Background(), corpus(4))

	if len(results) != 1 || results[0].Model != ErrorModel {
		t.Fatalf("expected a single error result, got %+v", results)
	}
	if !strings.Contains(results[0].Analysis, "4개") {
		t.Fatalf("error message should carry the corpus size: %q", results[0].Analysis)
	}
}

func TestAnalyzeMissingCredential(t *testing.T) {
	o := NewOrchestrator(nil)
	results := o.Analyze(context.Background(), corpus(10))

	if len(results) != 1 || results[0].Model != ErrorModel {
		t.Fatalf("expected a single error result, got %+v", results)
	}
}

func TestAnalyzeCompareMode(t *testing.T) {
	caller := &fakeCaller{responses: map[string]string{
		"m1": "   ", // whitespace counts as failure
		"m2": "Hello",
		"m3": "World",
	}}
	o := NewOrchestrator(caller)
	o.Models = []string{"m1", "m2", "m3", "m4"}

	results := o.Analyze(context.Background(), corpus(6))

	expected := []ModelResult{
		{Model: "m2", Analysis: "Hello"},
		{Model: "m3", Analysis: "World"},
	}
	if !reflect.DeepEqual(results, expected) {
		t.Fatalf("expected %+v, got %+v", expected, results)
	}
	if len(caller.calls) != 4 {
		t.Fatalf("compare mode must attempt every model, called %v", caller.calls)
	}
}

func TestAnalyzeAllModelsFail(t *testing.T) {
	o := NewOrchestrator(&fakeCaller{responses: map[string]string{}})
	o.Models = []string{"m1", "m2"}

	results := o.Analyze(context.Background(), corpus(6))
	if len(results) != 1 || results[0].Model != ErrorModel {
		t.Fatalf("expected a synthesized error result, got %+v", results)
	}
}

func TestAnalyzeFallbackMode(t *testing.T) {
	t.Run("stops at first success", func(t *testing.T) {
		caller := &fakeCaller{responses: map[string]string{"m2": "answer", "m3": "unused"}}
		o := NewOrchestrator(caller)
		o.Mode = ModeFallback
		o.Models = []string{"m1", "m2", "m3"}

		results := o.Analyze(context.Background(), corpus(6))
		expected := []ModelResult{{Model: "m2", Analysis: "answer"}}
		if !reflect.DeepEqual(results, expected) {
			t.Fatalf("expected %+v, got %+v", expected, results)
		}
		if !reflect.DeepEqual(caller.calls, []string{"m1", "m2"}) {
			t.Fatalf("unexpected call order: %v", caller.calls)
		}
	})

	t.Run("discovery intersects priority list in priority order", func(t *testing.T) {
		caller := &fakeCaller{responses: map[string]string{"m3": "late"}}
		o := NewOrchestrator(caller)
		o.Mode = ModeFallback
		o.Models = []string{"m1", "m2", "m3"}
		o.Lister = &fakeLister{models: []string{"m3", "m1", "other"}}

		o.Analyze(context.Background(), corpus(6))
		if !reflect.DeepEqual(caller.calls, []string{"m1", "m3"}) {
			t.Fatalf("expected intersected priority order, got %v", caller.calls)
		}
	})

	t.Run("discovery failure degrades to priority list", func(t *testing.T) {
		caller := &fakeCaller{responses: map[string]string{"m1": "ok"}}
		o := NewOrchestrator(caller)
		o.Mode = ModeFallback
		o.Models = []string{"m1"}
		o.Lister = &fakeLister{err: errors.New("catalog down")}

		results := o.Analyze(context.Background(), corpus(6))
		if len(results) != 1 || results[0].Analysis != "ok" {
			t.Fatalf("expected priority-list fallback, got %+v", results)
		}
	})

	t.Run("attempts are capped", func(t *testing.T) {
		caller := &fakeCaller{responses: map[string]string{}}
		o := NewOrchestrator(caller)
		o.Mode = ModeFallback
		o.Models = []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"}

		o.Analyze(context.Background(), corpus(6))
		if len(caller.calls) != 5 {
			t.Fatalf("expected 5 capped attempts, got %d", len(caller.calls))
		}
	})
}

func TestRunAlwaysPersistsOneEntry(t *testing.T) {
	s := newTestStore(t)
	o := NewOrchestrator(nil)

	if _, err := o.Run(context.Background(), s, corpus(2)); err != nil {
		t.Fatal(err)
	}

	latest, err := s.Latest()
	if err != nil {
		t.Fatal(err)
	}
	if latest == nil || len(latest.Results) != 1 || latest.Results[0].Model != ErrorModel {
		t.Fatalf("expected a persisted error entry, got %+v", latest)
	}
	if latest.PostCount != 2 {
		t.Fatalf("expected post count 2, got %d", latest.PostCount)
	}
}

func TestBuildPromptCapsTitles(t *testing.T) {
	posts := make([]scrapelog.Post, MaxTitles+20)
	for i := range posts {
		posts[i] = scrapelog.Post{Title: "제목"}
	}

	prompt := BuildPrompt(posts)
	if got := strings.Count(prompt, "- 제목"); got != MaxTitles {
		t.Fatalf("expected %d embedded titles, got %d", MaxTitles, got)
	}
	if !strings.Contains(prompt, "외 20개 생략") {
		t.Fatal("expected an overflow marker for the dropped titles")
	}
}

func TestParseFreeModels(t *testing.T) {
	body := `{"data":[
		{"id":"google/gemma-3-27b-it:free","pricing":{"prompt":"0"}},
		{"id":"openai/gpt-4o","pricing":{"prompt":"0.0000025"}},
		{"id":"meta/llama-free-tier","pricing":{"prompt":"0"}},
		{"pricing":{"prompt":"0"}}
	]}`

	got := parseFreeModels(body)
	expected := []string{"google/gemma-3-27b-it:free", "meta/llama-free-tier"}
	if !reflect.DeepEqual(got, expected) {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}
