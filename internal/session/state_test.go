package session

import (
	"testing"

	"github.com/datawhisper/datawhisper/internal/table"
)

func sampleRows() []table.Row {
	return []table.Row{table.NewRow(table.Field{Name: "id", Value: table.Int(1)})}
}

func TestReduceSubmitClearsPreviousOutcome(t *testing.T) {
	previous := []State{
		{Input: "old", TranslatedQuery: "SELECT 1", Rows: sampleRows(), Generation: 1},
		{Input: "old", ErrorText: "Invalid API Key", Generation: 1},
		{},
	}
	for _, state := range previous {
		next := Reduce(state, SubmitRequested{Generation: 2, Text: "new question"})
		if !next.Busy {
			t.Fatal("expected busy after submit")
		}
		if next.TranslatedQuery != "" || next.Rows != nil || next.ErrorText != "" {
			t.Fatalf("stale output survived submit: %+v", next)
		}
		if next.Input != "new question" || next.Generation != 2 {
			t.Fatalf("next = %+v", next)
		}
	}
}

func TestReduceTerminalOutcomesAreExclusive(t *testing.T) {
	busy := Reduce(State{}, SubmitRequested{Generation: 1, Text: "q"})

	ok := Reduce(busy, RequestSucceeded{Generation: 1, TranslatedQuery: "SELECT 1", Rows: nil})
	if ok.Busy || ok.HasError() || !ok.HasResult() {
		t.Fatalf("success state = %+v", ok)
	}
	if ok.Rows == nil || len(ok.Rows) != 0 {
		t.Fatalf("empty success should carry empty rows, got %#v", ok.Rows)
	}

	failed := Reduce(busy, RequestFailed{Generation: 1, Message: "Invalid API Key"})
	if failed.Busy || failed.HasResult() || failed.ErrorText != "Invalid API Key" {
		t.Fatalf("failure state = %+v", failed)
	}
	if failed.TranslatedQuery != "" || failed.Rows != nil {
		t.Fatalf("failure carries results: %+v", failed)
	}
}

func TestReduceFailureWithoutMessageUsesFallback(t *testing.T) {
	busy := Reduce(State{}, SubmitRequested{Generation: 1, Text: "q"})
	failed := Reduce(busy, RequestFailed{Generation: 1})
	if failed.ErrorText != unknownFailure {
		t.Fatalf("ErrorText = %q", failed.ErrorText)
	}
}

func TestReduceDropsStaleGenerations(t *testing.T) {
	busy := Reduce(State{}, SubmitRequested{Generation: 2, Text: "second"})

	if got := Reduce(busy, RequestSucceeded{Generation: 1, TranslatedQuery: "SELECT old"}); got.TranslatedQuery != "" || !got.Busy {
		t.Fatalf("stale success applied: %+v", got)
	}
	if got := Reduce(busy, RequestFailed{Generation: 1, Message: "old"}); got.HasError() || !got.Busy {
		t.Fatalf("stale failure applied: %+v", got)
	}

	done := Reduce(busy, RequestSucceeded{Generation: 2, TranslatedQuery: "SELECT new", Rows: sampleRows()})
	if got := Reduce(done, RequestFailed{Generation: 2, Message: "late duplicate"}); got.HasError() {
		t.Fatalf("terminal event applied twice: %+v", got)
	}
}

func TestReduceInputIgnoredWhileBusy(t *testing.T) {
	idle := Reduce(State{}, InputChanged{Text: "Show me"})
	if idle.Input != "Show me" {
		t.Fatalf("Input = %q", idle.Input)
	}
	busy := Reduce(idle, SubmitRequested{Generation: 1, Text: "Show me"})
	if got := Reduce(busy, InputChanged{Text: "typed while loading"}); got.Input != "Show me" {
		t.Fatalf("Input changed while busy: %q", got.Input)
	}
}
