package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestContextFieldsPropagate(t *testing.T) {
	var buf bytes.Buffer
	logg := New(Options{ServiceName: "settlement", Output: &buf})

	ctx := logg.WithRequestID(context.Background(), "req-123")
	ctx = logg.WithPhotographerID(ctx, "ph-9")
	logg.Info(ctx, "credit recorded")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not json: %v", err)
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("missing request id: %v", entry)
	}
	if entry["photographer_id"] != "ph-9" {
		t.Fatalf("missing photographer id: %v", entry)
	}
	if entry["service"] != "settlement" {
		t.Fatalf("missing service field: %v", entry)
	}
	if entry["message"] != "credit recorded" {
		t.Fatalf("unexpected message: %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Fatal("debug should parse")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Fatal("empty defaults to info")
	}
	if ParseLevel("bogus") != zerolog.InfoLevel {
		t.Fatal("unknown defaults to info")
	}
}
