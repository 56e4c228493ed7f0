package backend

import (
	"context"
	"testing"

	"github.com/chapterwise/chapterwise"
)

func TestMockBackendScript(t *testing.T) {
	m := NewMockBackend("first", "second")
	ctx := context.Background()

	out, _ := m.Generate(ctx, chapterwise.GenerateRequest{Prompt: "a"})
	if out != "first" {
		t.Errorf("out = %q", out)
	}
	out, _ = m.Generate(ctx, chapterwise.GenerateRequest{Prompt: "b"})
	if out != "second" {
		t.Errorf("out = %q", out)
	}
	// Script exhausted: last response repeats.
	out, _ = m.Generate(ctx, chapterwise.GenerateRequest{Prompt: "c"})
	if out != "second" {
		t.Errorf("out = %q", out)
	}
	if m.Calls() != 3 || len(m.Requests()) != 3 {
		t.Errorf("calls = %d, requests = %d", m.Calls(), len(m.Requests()))
	}
}

func TestMockBackendStream(t *testing.T) {
	m := NewMockBackend("hello world")
	m.ChunkSize = 4

	var deltas []string
	full, err := m.GenerateStream(context.Background(), chapterwise.GenerateRequest{},
		func(delta string) error {
			deltas = append(deltas, delta)
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if full != "hello world" {
		t.Errorf("full = %q", full)
	}
	if len(deltas) != 3 {
		t.Errorf("deltas = %#v", deltas)
	}
}

func TestMockDirect(t *testing.T) {
	m := NewMockDirect()
	m.Translate["hello"] = "hallo"

	out, err := m.TranslateSentence(context.Background(), "hello", "m", "de")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hallo" {
		t.Errorf("out = %q", out)
	}

	out, _ = m.TranslateSentence(context.Background(), "unmapped", "m", "de")
	if out != "[de] unmapped" {
		t.Errorf("fallback = %q", out)
	}
	if len(m.Calls()) != 2 {
		t.Errorf("calls = %#v", m.Calls())
	}
}
