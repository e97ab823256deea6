// Package notify renders analysis entries into transport-safe chat messages
// and drives their delivery.
package notify

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/10spoon/ppomppurelaymonitor/pkg/analysis"
)

// MaxMessageLen keeps messages under Telegram's 4096-char hard limit with
// headroom for the API's own accounting.
const MaxMessageLen = 4000

// excerptMarkers flag the line that opens the promotional-snippet section of
// a model's output.
var excerptMarkers = []string{"SNS 홍보 문구", "SNS 홍보", "홍보 문구", "X/스레드", "트위터"}

// ExtractExcerpt returns the promotional snippet of a model's free-form
// output: the non-blank lines following a marker line, up to the next
// heading. Without a marker it falls back to the trailing 300 characters, so
// non-empty input always yields something.
func ExtractExcerpt(text string) string {
	var captured []string
	capturing := false

	for _, line := range strings.Split(text, "\n") {
		marked := false
		for _, marker := range excerptMarkers {
			if strings.Contains(line, marker) {
				marked = true
				break
			}
		}
		if marked {
			capturing = true
			continue
		}

		trimmed := strings.TrimSpace(line)
		if capturing && strings.HasPrefix(trimmed, "#") {
			break
		}
		if capturing && trimmed != "" {
			captured = append(captured, line)
		}
	}

	if len(captured) > 0 {
		return strings.TrimSpace(strings.Join(captured, "\n"))
	}

	runes := []rune(text)
	if len(runes) > 300 {
		return strings.TrimSpace(string(runes[len(runes)-300:]))
	}
	return text
}

// markupReplacer strips the markdown tokens models keep emitting despite the
// prompt. Single # survives so hashtags stay intact.
var markupReplacer = strings.NewReplacer(
	"**", "",
	"*", "",
	"`", "",
	"####", "",
	"###", "",
	"##", "",
)

func CleanText(text string) string {
	return markupReplacer.Replace(text)
}

// Segment greedily slices text into chunks of at most maxLen runes,
// preferring to cut at the last newline in range so lines stay whole.
// Empty input yields a single empty chunk, never an empty slice.
func Segment(text string, maxLen int) []string {
	if maxLen < 1 {
		maxLen = 1
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return []string{""}
	}

	var parts []string
	for len(runes) > 0 {
		if len(runes) <= maxLen {
			parts = append(parts, string(runes))
			break
		}

		// prefer the last newline at or before the limit; hard cut otherwise
		cut := -1
		for i := maxLen; i >= 1; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		if cut == -1 {
			cut = maxLen
		}

		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
		for len(runes) > 0 && runes[0] == '\n' {
			runes = runes[1:]
		}
	}

	if len(parts) == 0 {
		parts = []string{""}
	}
	return parts
}

// FormattedResult is the transport-ready rendering of one model result.
type FormattedResult struct {
	Model string
	Parts []string
}

// BuildMessages renders every result of an entry. Each result gets a header
// with its position, model short name, analysis time and corpus size; long
// excerpts are segmented with a part sub-header on each piece.
func BuildMessages(entry *analysis.Entry) []FormattedResult {
	analyzedAt := entry.AnalyzedAt
	if t, err := time.Parse(time.RFC3339, entry.AnalyzedAt); err == nil {
		analyzedAt = t.Format("2006-01-02 15:04")
	}

	total := len(entry.Results)
	out := make([]FormattedResult, 0, total)
	for i, r := range entry.Results {
		header := fmt.Sprintf("📊 뽐뿌 릴레이 트렌드 (%s)\n🤖 %d/%d %s\n📝 분석 게시물: %d개",
			analyzedAt, i+1, total, ShortModelName(r.Model), entry.PostCount)

		budget := MaxMessageLen - utf8.RuneCountInString(header) - 16
		if budget < 1000 {
			budget = 1000
		}
		body := Segment(CleanText(ExtractExcerpt(r.Analysis)), budget)

		fr := FormattedResult{Model: r.Model}
		for p, part := range body {
			msg := header
			if len(body) > 1 {
				msg += fmt.Sprintf("\n📄 %d/%d", p+1, len(body))
			}
			msg += "\n\n" + part
			fr.Parts = append(fr.Parts, msg)
		}
		out = append(out, fr)
	}
	return out
}

// ShortModelName reduces an OpenRouter model id to its display name: the
// segment after the last slash, minus the free-tier suffix.
func ShortModelName(model string) string {
	name := model
	if idx := strings.LastIndex(name, "/"); idx != -1 {
		name = name[idx+1:]
	}
	return strings.TrimSuffix(name, ":free")
}
