package slack

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/stormwatch/internal/alert"
)

func publishedRecord(id string, typ alert.Type, sev alert.Severity) *alert.Record {
	return &alert.Record{
		ID:          id,
		Type:        typ,
		Description: "Wind alert: 95 km/h (Brussels, BE)",
		Country:     "BE",
		Region:      "Brussels",
		Severity:    sev,
		Certainty:   95,
		Workflow:    alert.WorkflowPublished,
		Trend:       alert.TrendRising,
		LastRunID:   "01JH2M3N4P",
	}
}

func TestNotifyPublished_PostsToWebhook(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("content-type = %q, want application/json", r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(srv.URL, log.Nop())
	records := []*alert.Record{
		publishedRecord("r1", alert.TypeWind, alert.SeverityExtreme),
		publishedRecord("r2", alert.TypeRain, alert.SeverityMedium),
	}

	if err := n.NotifyPublished(context.Background(), records); err != nil {
		t.Fatalf("NotifyPublished: %v", err)
	}

	blocks, ok := got["blocks"].([]any)
	if !ok {
		t.Fatal("expected blocks array in payload")
	}

	// header, divider, 2 record sections, divider, context = 6 blocks
	if len(blocks) != 6 {
		t.Errorf("blocks count = %d, want 6", len(blocks))
	}

	header := blocks[0].(map[string]any)
	headerText := header["text"].(map[string]any)["text"].(string)
	if !strings.Contains(headerText, "2 weather alerts published") {
		t.Errorf("header text = %q, want alert count", headerText)
	}
	if !strings.Contains(headerText, "\U0001f7e3") {
		t.Error("header should carry the purple circle for an extreme record")
	}

	first := blocks[2].(map[string]any)
	firstText := first["text"].(map[string]any)["text"].(string)
	if !strings.Contains(firstText, "WIND") || !strings.Contains(firstText, "Brussels, BE") {
		t.Errorf("record block = %q, want type and location", firstText)
	}

	footer := blocks[5].(map[string]any)
	footerText := footer["elements"].([]any)[0].(map[string]any)["text"].(string)
	if !strings.Contains(footerText, "run 01JH2M3N4P") {
		t.Errorf("context block = %q, want run ID", footerText)
	}
}

func TestNotifyPublished_NoOpWithoutURL(t *testing.T) {
	t.Parallel()

	n := New("", log.Nop())
	records := []*alert.Record{publishedRecord("r1", alert.TypeWind, alert.SeverityHigh)}
	if err := n.NotifyPublished(context.Background(), records); err != nil {
		t.Fatalf("NotifyPublished with empty URL should be no-op, got: %v", err)
	}
}

func TestNotifyPublished_NoOpWithoutRecords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("webhook should not be called for an empty batch")
	}))
	defer srv.Close()

	n := New(srv.URL, log.Nop())
	if err := n.NotifyPublished(context.Background(), nil); err != nil {
		t.Fatalf("NotifyPublished: %v", err)
	}
}

func TestNotifyPublished_TruncatesLargeBatch(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var records []*alert.Record
	for range 25 {
		records = append(records, publishedRecord("r", alert.TypeWind, alert.SeverityLow))
	}

	n := New(srv.URL, log.Nop())
	if err := n.NotifyPublished(context.Background(), records); err != nil {
		t.Fatalf("NotifyPublished: %v", err)
	}

	// header, divider, 20 records, overflow note, divider, context = 25 blocks
	blocks := got["blocks"].([]any)
	if len(blocks) != 25 {
		t.Errorf("blocks count = %d, want 25", len(blocks))
	}
	overflow := blocks[22].(map[string]any)
	text := overflow["text"].(map[string]any)["text"].(string)
	if !strings.Contains(text, "5 more") {
		t.Errorf("overflow note = %q, want remaining count", text)
	}
}

func TestNotifyPublished_NonOKStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	n := New(srv.URL, log.Nop())
	err := n.NotifyPublished(context.Background(), []*alert.Record{
		publishedRecord("r1", alert.TypeWind, alert.SeverityHigh),
	})
	if err == nil {
		t.Fatal("expected error on non-OK status")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %q, want to contain status code 500", err.Error())
	}
}

func TestSeverityEmoji(t *testing.T) {
	t.Parallel()

	tests := []struct {
		severity alert.Severity
		want     string
	}{
		{alert.SeverityExtreme, "\U0001f7e3"},
		{alert.SeverityHigh, "\U0001f534"},
		{alert.SeverityMedium, "\U0001f7e1"},
		{alert.SeverityLow, "\U0001f7e2"},
		{"", "\U0001f7e2"},
	}

	for _, tt := range tests {
		if got := severityEmoji(tt.severity); got != tt.want {
			t.Errorf("severityEmoji(%q) = %q, want %q", tt.severity, got, tt.want)
		}
	}
}

func FuzzSlackBuild(f *testing.F) {
	f.Add("wind", "extreme", "Wind alert: 95 km/h", "Brussels", 95)
	f.Add("", "", "", "", 0)
	f.Add("rain\x00\x01", "sev\nline", "*bold* _italic_", "<@U123>", -5)
	f.Add(strings.Repeat("A", 5000), "high", strings.Repeat("x", 10000), "region", 200)

	f.Fuzz(func(t *testing.T, typ, sev, desc, region string, certainty int) {
		records := []*alert.Record{{
			ID:          "fuzz-id",
			Type:        alert.Type(typ),
			Severity:    alert.Severity(sev),
			Description: desc,
			Country:     "BE",
			Region:      region,
			Certainty:   certainty,
			Workflow:    alert.WorkflowPublished,
		}}

		// Must not panic
		msg := buildMessage(records)

		// Must produce valid JSON
		data, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("buildMessage produced non-marshalable output: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("buildMessage JSON does not round-trip: %v", err)
		}
		if _, ok := decoded["blocks"].([]any); !ok {
			t.Fatal("expected blocks array")
		}
	})
}
