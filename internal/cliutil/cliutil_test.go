package cliutil

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestPrinter_SuccessJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)
	p.Success(map[string]string{"id": "a1"}, func(_ io.Writer, _ interface{}) {
		t.Fatal("render should not be called in JSON mode")
	})

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["success"] != true {
		t.Errorf("expected success=true, got %v", got)
	}
}

func TestPrinter_SuccessHuman(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)
	called := false
	p.Success("data", func(w io.Writer, d interface{}) {
		called = true
		w.Write([]byte("rendered: " + d.(string)))
	})
	if !called {
		t.Fatal("expected render to be called")
	}
	if !strings.Contains(buf.String(), "rendered: data") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestPrinter_ErrorJSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)
	p.Error("NotFound", "agent missing", "corr-1")

	var got map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	errBody, ok := got["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error body, got %v", got)
	}
	if errBody["kind"] != "NotFound" || errBody["correlation_id"] != "corr-1" {
		t.Errorf("unexpected error body: %v", errBody)
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"ID", "STATUS"}, [][]string{
		{"a1", "idle"},
		{"agent-long-name", "working"},
	})
	out := buf.String()
	if !strings.Contains(out, "ID") || !strings.Contains(out, "agent-long-name") {
		t.Errorf("unexpected table output: %q", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), out)
	}
}
