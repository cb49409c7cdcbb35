package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/domain"
)

func sampleReport() domain.DuplicateReport {
	return domain.DuplicateReport{
		Summary: domain.RunSummary{
			Source:         domain.SourceEcayTrade,
			Timestamp:      time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
			TotalProcessed: 2,
			DuplicateCount: 1,
			NewCount:       1,
		},
		Duplicates: []domain.DuplicateEntry{{
			Candidate: domain.NormalizedListing{
				Name:             "Sandscape Residences #19",
				PriceUSD:         330050,
				Link:             "https://ecaytrade.com/ad/1",
				Source:           domain.SourceEcayTrade,
				OriginalCurrency: "CI$",
				OriginalPrice:    "270,641",
			},
			Reference: domain.ReferenceListing{
				ID:       417042,
				Name:     "Sandscape Residences Unit 19",
				PriceUSD: 330000,
				Link:     "https://www.cireba.com/property/417042",
				Source:   domain.SourceCireba,
			},
			Similarity: 92,
		}},
	}
}

func TestReportDuplicatesPayload(t *testing.T) {
	var gotBody []byte
	var gotContentType, gotTraceID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		gotTraceID = r.Header.Get("X-Trace-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewNotifier(server.URL)
	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-123")

	if err := notifier.ReportDuplicates(ctx, sampleReport()); err != nil {
		t.Fatalf("ReportDuplicates returned error: %v", err)
	}

	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q; want application/json", gotContentType)
	}
	if gotTraceID != "trace-123" {
		t.Errorf("X-Trace-ID = %q; want trace-123", gotTraceID)
	}

	var payload struct {
		EventType string `json:"event_type"`
		ScriptRun struct {
			Source         string `json:"source"`
			TotalProcessed int    `json:"total_processed"`
		} `json:"script_run"`
		Duplicates []struct {
			NewListing struct {
				Name             string  `json:"name"`
				PriceUSD         float64 `json:"price_usd"`
				OriginalCurrency string  `json:"original_currency"`
			} `json:"new_listing"`
			Matches []struct {
				ID              int64   `json:"id"`
				SimilarityScore float64 `json:"similarity_score"`
			} `json:"matches"`
		} `json:"duplicates"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("failed to decode delivered payload: %v", err)
	}

	if payload.EventType != "batch_duplicates_detected" {
		t.Errorf("event_type = %q; want batch_duplicates_detected", payload.EventType)
	}
	if payload.ScriptRun.Source != "ecaytrade" || payload.ScriptRun.TotalProcessed != 2 {
		t.Errorf("script_run = %+v; want source=ecaytrade total_processed=2", payload.ScriptRun)
	}
	if len(payload.Duplicates) != 1 {
		t.Fatalf("duplicates count = %d; want 1", len(payload.Duplicates))
	}
	entry := payload.Duplicates[0]
	if entry.NewListing.Name != "Sandscape Residences #19" || entry.NewListing.OriginalCurrency != "CI$" {
		t.Errorf("new_listing = %+v; original candidate fields must be preserved", entry.NewListing)
	}
	if len(entry.Matches) != 1 || entry.Matches[0].ID != 417042 || entry.Matches[0].SimilarityScore != 92 {
		t.Errorf("matches = %+v; want one match with id=417042 similarity=92", entry.Matches)
	}
}

// Не-2xx ответ webhook логируется, но не считается ошибкой прогона.
func TestReportDuplicatesNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewNotifier(server.URL)
	if err := notifier.ReportDuplicates(context.Background(), sampleReport()); err != nil {
		t.Errorf("non-2xx response must not be an error, got: %v", err)
	}
}

func TestReportDuplicatesTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	notifier := NewNotifier(server.URL)
	if err := notifier.ReportDuplicates(context.Background(), sampleReport()); err == nil {
		t.Error("transport failure must surface as an error")
	}
}

func TestReportDuplicatesEmptyURLSkips(t *testing.T) {
	notifier := NewNotifier("")
	if err := notifier.ReportDuplicates(context.Background(), sampleReport()); err != nil {
		t.Errorf("empty webhook URL must be a no-op, got: %v", err)
	}
}
