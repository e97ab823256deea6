package notify

import (
	"errors"
	"strings"
	"testing"
)

// flakySender fails any message containing one of its poison markers.
type flakySender struct {
	failOn []string
	sent   []string
}

func (f *flakySender) Send(text string) error {
	for _, marker := range f.failOn {
		if strings.Contains(text, marker) {
			return errors.New("transport down")
		}
	}
	f.sent = append(f.sent, text)
	return nil
}

func TestDeliver(t *testing.T) {
	t.Run("one success one failure is a non-fatal run", func(t *testing.T) {
		sender := &flakySender{failOn: []string{"bad"}}
		report := Deliver(sender, []FormattedResult{
			{Model: "m1", Parts: []string{"good message"}},
			{Model: "m2", Parts: []string{"bad message"}},
		})

		if report.Delivered != 1 || report.Total != 2 {
			t.Fatalf("expected 1/2, got %d/%d", report.Delivered, report.Total)
		}
		if !report.OK() {
			t.Fatal("one full delivery must make the run non-fatal")
		}
	})

	t.Run("failed part does not stop later parts or results", func(t *testing.T) {
		sender := &flakySender{failOn: []string{"part-two"}}
		report := Deliver(sender, []FormattedResult{
			{Model: "m1", Parts: []string{"part-one", "part-two", "part-three"}},
			{Model: "m2", Parts: []string{"solo"}},
		})

		if report.Delivered != 1 {
			t.Fatalf("expected only m2 delivered in full, got %d", report.Delivered)
		}
		// best-effort: parts one and three still went out, as did m2
		if len(sender.sent) != 3 {
			t.Fatalf("expected 3 sends despite the failure, got %d", len(sender.sent))
		}
	})

	t.Run("zero full deliveries is fatal", func(t *testing.T) {
		sender := &flakySender{failOn: []string{"msg"}}
		report := Deliver(sender, []FormattedResult{
			{Model: "m1", Parts: []string{"msg a"}},
			{Model: "m2", Parts: []string{"msg b"}},
		})

		if report.OK() {
			t.Fatal("no full delivery must be a fatal outcome")
		}
	})
}

func TestTelegramMissingCredentials(t *testing.T) {
	tg := NewTelegram("", "")
	if err := tg.Send("hello"); err == nil {
		t.Fatal("expected an error before any network call")
	}
}
