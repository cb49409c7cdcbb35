package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"cireba-dedup-service/internal/contextkeys"
	"cireba-dedup-service/internal/core/domain"
	"cireba-dedup-service/internal/core/port"
	"cireba-dedup-service/internal/core/port/usecases_port"

	"github.com/google/uuid"
)

type DedupHandlers struct {
	filterListingsUC usecases_port.FilterListingsPort
	referenceStatsUC usecases_port.ReferenceStatsPort
}

// NewDedupHandlers - конструктор обработчиков.
func NewDedupHandlers(filterListingsUC usecases_port.FilterListingsPort, referenceStatsUC usecases_port.ReferenceStatsPort) *DedupHandlers {
	return &DedupHandlers{
		filterListingsUC: filterListingsUC,
		referenceStatsUC: referenceStatsUC,
	}
}

// HandleFilterListings - обработчик POST /api/v1/listings/filter.
// Ручной запуск прогона: принимает пачку сырых объявлений и выполняет
// фильтрацию синхронно.
func (h *DedupHandlers) HandleFilterListings(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleFilterListings"})

	var reqDTO FilterRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqDTO); err != nil {
		if err == io.EOF {
			logger.Error("Failed to decode request body", err, nil)
			WriteJSONError(w, http.StatusBadRequest, "Request body is empty")
			return
		}
		WriteJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if reqDTO.SourceURL == "" {
		WriteJSONError(w, http.StatusBadRequest, "Field 'source_url' is required")
		return
	}
	if len(reqDTO.Listings) == 0 {
		WriteJSONError(w, http.StatusBadRequest, "Field 'listings' must not be empty")
		return
	}

	rawListings := make([]domain.RawListing, 0, len(reqDTO.Listings))
	for _, dto := range reqDTO.Listings {
		rawListings = append(rawListings, toDomainRawListing(dto))
	}
	batches := map[string][]domain.RawListing{reqDTO.SourceURL: rawListings}

	taskID := uuid.New()
	runLogger := logger.WithFields(port.Fields{
		"source_url": reqDTO.SourceURL,
		"count":      len(rawListings),
		"task_id":    taskID.String(),
	})
	runLogger.Info("Received request to filter listings batch", nil)

	result, err := h.filterListingsUC.Execute(r.Context(), batches, taskID)
	if err != nil {
		runLogger.Error("Use case execution failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to filter listings batch")
		return
	}

	runLogger.Info("Filter run finished", port.Fields{
		"new":        len(result.New),
		"duplicates": len(result.Duplicates),
	})
	RespondWithJSON(w, http.StatusOK, FilterResponseDTO{
		TaskID:         taskID.String(),
		InputCount:     result.InputCount,
		NewCount:       len(result.New),
		DuplicateCount: len(result.Duplicates),
		SkippedCount:   result.SkippedBelowMinPrice,
	})
}

// HandleReferenceStats - обработчик GET /api/v1/reference/stats.
func (h *DedupHandlers) HandleReferenceStats(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "HandleReferenceStats"})

	stats, err := h.referenceStatsUC.GetReferenceStats(r.Context())
	if err != nil {
		logger.Error("Use case execution failed", err, nil)
		WriteJSONError(w, http.StatusInternalServerError, "Failed to collect reference stats")
		return
	}

	counts := make(map[string]int64, len(stats))
	for source, count := range stats {
		counts[string(source)] = count
	}

	RespondWithJSON(w, http.StatusOK, ReferenceStatsResponseDTO{Counts: counts})
}
