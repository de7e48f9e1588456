package store_test

import (
	"testing"

	"github.com/swarmdock-dev/swarmdock/internal/store"
	"github.com/swarmdock-dev/swarmdock/internal/testutil"
)

func TestTemplateVisibility(t *testing.T) {
	st := testutil.TempStore(t)

	if _, err := st.CreateTemplate("", "system-default", store.SwarmQuick, []string{"coordinator", "coder"}, "", ""); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if _, err := st.CreateTemplate("alice", "alice-hive", store.SwarmHiveMind, []string{"queen", "coder"}, "acme", ""); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if _, err := st.CreateTemplate("bob", "bobs-own", store.SwarmQuick, nil, "", ""); err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	templates, err := st.ListTemplates("alice")
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("got %d templates, want system + own = 2", len(templates))
	}
	for _, tmpl := range templates {
		if tmpl.Owner != "" && tmpl.Owner != "alice" {
			t.Errorf("template %q from another owner is visible", tmpl.Name)
		}
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	st := testutil.TempStore(t)

	created, err := st.CreateTemplate("alice", "hive", store.SwarmHiveMind,
		[]string{"queen", "architect", "coder"}, "acme", "Build {{feature}} for {{projectName}}")
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}

	got, err := st.GetTemplate(created.ID)
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetTemplate returned nil for existing template")
	}
	if got.SwarmType != store.SwarmHiveMind || len(got.AgentTypes) != 3 || got.AgentTypes[0] != "queen" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	missing, err := st.GetTemplate("no-such-template")
	if err != nil {
		t.Fatalf("GetTemplate failed: %v", err)
	}
	if missing != nil {
		t.Errorf("GetTemplate returned %+v for missing id", missing)
	}
}

func TestRenderTask(t *testing.T) {
	rendered := store.RenderTask("Build {{feature}} for {{projectName}}", map[string]string{
		"feature":     "auth",
		"projectName": "acme",
	})
	if rendered != "Build auth for acme" {
		t.Errorf("got %q", rendered)
	}

	// Unknown placeholders stay untouched.
	kept := store.RenderTask("do {{unknown}}", map[string]string{"feature": "auth"})
	if kept != "do {{unknown}}" {
		t.Errorf("got %q", kept)
	}
}
