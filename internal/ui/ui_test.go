package ui

import (
	"errors"
	"strings"
	"testing"
)

func TestModelFinishesOnDone(t *testing.T) {
	m := newModel[string]("Ingesting", nil)
	if !strings.Contains(m.View(), "Ingesting") {
		t.Fatalf("view missing title: %q", m.View())
	}

	next, cmd := m.Update(doneMsg[string]{value: "ok"})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	got := next.(model[string])
	if !got.done || got.value != "ok" || got.err != nil {
		t.Fatalf("unexpected model state: %+v", got)
	}
	if !strings.Contains(got.View(), "✓") {
		t.Errorf("success view = %q", got.View())
	}
}

func TestModelReportsFailure(t *testing.T) {
	m := newModel[int]("Uploading", nil)
	next, _ := m.Update(doneMsg[int]{err: errors.New("boom")})
	got := next.(model[int])
	if got.err == nil || !strings.Contains(got.View(), "✗") {
		t.Errorf("failure not rendered: %q", got.View())
	}
}

func TestModelIgnoresUnknownMessages(t *testing.T) {
	m := newModel[int]("x", nil)
	next, cmd := m.Update("noise")
	if cmd != nil || next.(model[int]).done {
		t.Error("unknown message changed state")
	}
}
