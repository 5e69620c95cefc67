package logging_test

import (
	"context"
	"testing"
	"time"

	"cinder-and-brine/engine/logging"
	"cinder-and-brine/engine/logging/sinks"
)

func waitForEvents(t *testing.T, sink *sinks.MemorySink, want int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if events := sink.Events(); len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, have %d", want, len(sink.Events()))
	return nil
}

func TestRouterDeliversToSinks(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	defer router.Close(context.Background())

	router.Publish(context.Background(), logging.Event{
		Type:     "surfaces.created",
		Round:    3,
		Severity: logging.SeverityInfo,
		Category: logging.CategorySurfaces,
	})

	events := waitForEvents(t, memory, 1)
	if events[0].Type != "surfaces.created" || events[0].Round != 3 {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatal("router must stamp events that carry no time")
	}
	stats := router.Stats()
	if stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRouterFiltersBelowMinimumSeverity(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	router.Publish(context.Background(), logging.Event{Type: "surfaces.created", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "surfaces.unknown_id", Severity: logging.SeverityWarn})

	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	events := memory.Events()
	if len(events) != 1 || events[0].Type != "surfaces.unknown_id" {
		t.Fatalf("expected only the warning through, got %+v", events)
	}
}

func TestRouterAppendsConfiguredFields(t *testing.T) {
	memory := sinks.NewMemorySink()
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"match": "m-42"}
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	defer router.Close(context.Background())

	router.Publish(context.Background(), logging.Event{Type: "surfaces.created", Severity: logging.SeverityInfo})

	events := waitForEvents(t, memory, 1)
	if events[0].Extra["match"] != "m-42" {
		t.Fatalf("expected configured field on event, got %+v", events[0].Extra)
	}
}

func TestRouterIgnoresUntypedAndPostCloseEvents(t *testing.T) {
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, logging.DefaultConfig(), []logging.NamedSink{
		{Name: "memory", Sink: memory},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityInfo})
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	router.Publish(context.Background(), logging.Event{Type: "surfaces.created", Severity: logging.SeverityInfo})

	if events := memory.Events(); len(events) != 0 {
		t.Fatalf("expected nothing delivered, got %+v", events)
	}
}

func TestWithFieldsDoesNotOverrideExisting(t *testing.T) {
	var captured logging.Event
	base := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = event
	})
	wrapped := logging.WithFields(base, map[string]any{"match": "m-1", "arena": "pit"})

	wrapped.Publish(context.Background(), logging.Event{
		Type:  "surfaces.created",
		Extra: map[string]any{"match": "m-override"},
	})

	if captured.Extra["match"] != "m-override" {
		t.Fatalf("existing extras must win, got %v", captured.Extra["match"])
	}
	if captured.Extra["arena"] != "pit" {
		t.Fatalf("missing extras must be filled in, got %v", captured.Extra["arena"])
	}
}
