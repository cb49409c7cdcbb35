package webhook

import (
	"time"

	"cireba-dedup-service/internal/core/domain"
)

// DTO формата webhook-события. Структура повторяет контракт потребителя
// отчетов, менять имена полей без согласования нельзя.

type duplicateReportPayload struct {
	EventType  string              `json:"event_type"`
	ScriptRun  scriptRunDTO        `json:"script_run"`
	Duplicates []duplicateEntryDTO `json:"duplicates"`
}

type scriptRunDTO struct {
	Source           string    `json:"source"`
	Timestamp        time.Time `json:"timestamp"`
	TotalProcessed   int       `json:"total_processed"`
	DuplicatesCount  int       `json:"duplicates_count"`
	NewListingsCount int       `json:"new_listings_count"`
}

type duplicateEntryDTO struct {
	NewListing newListingDTO `json:"new_listing"`
	Matches    []matchDTO    `json:"matches"`
}

type newListingDTO struct {
	Name             string  `json:"name"`
	OriginalCurrency string  `json:"original_currency"`
	OriginalPrice    string  `json:"original_price"`
	PriceUSD         float64 `json:"price_usd"`
	Link             string  `json:"link"`
	Source           string  `json:"source"`
}

type matchDTO struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	PriceUSD        float64 `json:"price_usd"`
	SimilarityScore float64 `json:"similarity_score"`
	Link            string  `json:"link"`
	Source          string  `json:"source"`
}

func toPayload(report domain.DuplicateReport) duplicateReportPayload {
	entries := make([]duplicateEntryDTO, 0, len(report.Duplicates))
	for _, dup := range report.Duplicates {
		entries = append(entries, duplicateEntryDTO{
			NewListing: newListingDTO{
				Name:             dup.Candidate.Name,
				OriginalCurrency: dup.Candidate.OriginalCurrency,
				OriginalPrice:    dup.Candidate.OriginalPrice,
				PriceUSD:         dup.Candidate.PriceUSD,
				Link:             dup.Candidate.Link,
				Source:           string(dup.Candidate.Source),
			},
			Matches: []matchDTO{{
				ID:              dup.Reference.ID,
				Name:            dup.Reference.Name,
				PriceUSD:        dup.Reference.PriceUSD,
				SimilarityScore: dup.Similarity,
				Link:            dup.Reference.Link,
				Source:          string(dup.Reference.Source),
			}},
		})
	}

	return duplicateReportPayload{
		EventType: "batch_duplicates_detected",
		ScriptRun: scriptRunDTO{
			Source:           string(report.Summary.Source),
			Timestamp:        report.Summary.Timestamp,
			TotalProcessed:   report.Summary.TotalProcessed,
			DuplicatesCount:  report.Summary.DuplicateCount,
			NewListingsCount: report.Summary.NewCount,
		},
		Duplicates: entries,
	}
}
