package config

import (
	"testing"
)

func TestDirectoryDocs(t *testing.T) {
	docs := DirectoryDocs()

	if len(docs) == 0 {
		t.Fatal("DirectoryDocs() returned empty slice")
	}

	for i, doc := range docs {
		if doc.Path == "" {
			t.Errorf("DirectoryDocs()[%d].Path is empty", i)
		}
		if doc.Description == "" {
			t.Errorf("DirectoryDocs()[%d].Description is empty for path %q", i, doc.Path)
		}
		if doc.Type != "file" && doc.Type != "directory" {
			t.Errorf("DirectoryDocs()[%d].Type = %q, want 'file' or 'directory' for path %q", i, doc.Type, doc.Path)
		}
	}

	requiredPaths := []string{
		"agents/",
		"agents/<agent-id>.state",
		"work/",
		"work/<work-id>.state",
		"work/<work-id>.state.lock",
		"coord/epoch.lock",
		"events/<YYYY-MM-DD>.log",
	}

	pathSet := make(map[string]bool)
	for _, doc := range docs {
		pathSet[doc.Path] = true
	}

	for _, required := range requiredPaths {
		if !pathSet[required] {
			t.Errorf("DirectoryDocs() missing documentation for required path %q", required)
		}
	}
}

func TestAgentStateDocs(t *testing.T) {
	docs := AgentStateDocs()
	if len(docs) == 0 {
		t.Fatal("AgentStateDocs() returned empty slice")
	}
	for i, doc := range docs {
		if doc.Field == "" || doc.Type == "" || doc.Description == "" {
			t.Errorf("AgentStateDocs()[%d] has an empty field: %+v", i, doc)
		}
	}
}

func TestWorkStateDocs(t *testing.T) {
	docs := WorkStateDocs()
	if len(docs) == 0 {
		t.Fatal("WorkStateDocs() returned empty slice")
	}
	fieldSet := make(map[string]bool)
	for _, doc := range docs {
		fieldSet[doc.Field] = true
	}
	for _, required := range []string{"item.id", "item.priority", "claim.status"} {
		if !fieldSet[required] {
			t.Errorf("WorkStateDocs() missing documentation for required field %q", required)
		}
	}
}

func TestEventDocs(t *testing.T) {
	docs := EventDocs()
	if len(docs) == 0 {
		t.Fatal("EventDocs() returned empty slice")
	}
	fieldSet := make(map[string]bool)
	for _, doc := range docs {
		fieldSet[doc.Field] = true
	}
	for _, required := range []string{"type", "correlation_id", "timestamp"} {
		if !fieldSet[required] {
			t.Errorf("EventDocs() missing documentation for required field %q", required)
		}
	}
}
