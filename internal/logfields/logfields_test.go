package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    interface{}
	}{
		{"RunID", KeyRunID, "123", RunID("123")},
		{"Document", KeyDocument, "variance.md", Document("variance.md")},
		{"Output", KeyOutput, "variance.compiled.md", Output("variance.compiled.md")},
		{"Stage", KeyStage, "compile", Stage("compile")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "file.md", File("file.md")},
		{"Section", KeySection, "type-theory", Section("type-theory")},
		{"Subject", KeySubject, "litbuilder.events", Subject("litbuilder.events")},
		{"URL", KeyURL, "nats://localhost:4222", URL("nats://localhost:4222")},
	}

	for _, tc := range cases {
		a := tc.attr.(slog.Attr)
		if a.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, a.Key)
		}
		if got := a.Value.String(); got != tc.attrVal { // Value is slog.Value
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestErrorHelper(t *testing.T) {
	a := Error(errors.New("boom"))
	if a.Key != KeyError || a.Value.String() != "boom" {
		t.Fatalf("Error attr mismatch: %s=%s", a.Key, a.Value.String())
	}
	empty := Error(nil)
	if empty.Value.String() != "" {
		t.Fatalf("nil error should produce empty value, got %q", empty.Value.String())
	}
}
