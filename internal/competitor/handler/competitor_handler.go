package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/domain"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/dto"
	"github.com/cuongbtq/pharma-pricing-be/internal/competitor/model"
)

const (
	defaultDrugPageSize = 50
	maxDrugPageSize     = 200
	defaultLogLimit     = 50
	maxLogLimit         = 100
)

// ListCompetitors handles GET /competitors
// Returns every competitor with stored observations, its observation count,
// and its most recent run log.
func (h *CompetitorHandler) ListCompetitors(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.observations.ListCompetitorsWithCounts(ctx)
	if err != nil {
		h.logger.Error("Failed to list competitor counts", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list competitors"})
		return
	}

	latest, err := h.runLogs.FindLatestByCompetitor(ctx)
	if err != nil {
		h.logger.Error("Failed to list latest run logs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list competitors"})
		return
	}

	summaries := make([]dto.CompetitorSummaryDTO, len(counts))
	for i, count := range counts {
		summary := dto.CompetitorSummaryDTO{
			Competitor: count.Competitor,
			Count:      count.Count,
		}
		if log, ok := latest[count.Competitor]; ok {
			logDTO := toRunLogDTO(log)
			summary.LatestRun = &logDTO
		}
		summaries[i] = summary
	}

	c.JSON(http.StatusOK, gin.H{"competitors": summaries})
}

// ListDrugs handles GET /competitors/drugs
// Paged, searchable listing of one competitor's observations.
func (h *CompetitorHandler) ListDrugs(c *gin.Context) {
	var req dto.ListDrugsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "competitor is required"})
		return
	}

	if req.Limit < 1 {
		req.Limit = defaultDrugPageSize
	}
	if req.Limit > maxDrugPageSize {
		req.Limit = maxDrugPageSize
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	observations, total, err := h.observations.FindByCompetitor(
		c.Request.Context(), req.Competitor, req.Limit, req.Offset, req.Search,
	)
	if err != nil {
		h.logger.Error("Failed to list drugs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list drugs"})
		return
	}

	c.JSON(http.StatusOK, dto.ListDrugsResponse{
		Drugs:  h.toObservationDTOs(c, observations),
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}

// ListUnmatched handles GET /competitors/drugs/unmatched
// Returns observations without a catalog match, optionally for one competitor.
func (h *CompetitorHandler) ListUnmatched(c *gin.Context) {
	competitor := c.Query("competitor")

	observations, err := h.observations.FindUnmatched(c.Request.Context(), competitor)
	if err != nil {
		h.logger.Error("Failed to list unmatched drugs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list unmatched drugs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"drugs": h.toObservationDTOs(c, observations)})
}

// GetDrug handles GET /competitors/drugs/:id
func (h *CompetitorHandler) GetDrug(c *gin.Context) {
	obs, err := h.observations.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrObservationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Observation not found"})
			return
		}
		h.logger.Error("Failed to get drug", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get drug"})
		return
	}

	dtos := h.toObservationDTOs(c, []model.Observation{*obs})
	c.JSON(http.StatusOK, dtos[0])
}

// MatchDrug handles PATCH /competitors/drugs/:id/match
// Links an observation to a catalog drug; a null drug_id un-matches it.
func (h *CompetitorHandler) MatchDrug(c *gin.Context) {
	observationID := c.Param("id")

	var req dto.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()

	// Referential check lives here at the boundary, not in the store.
	if req.DrugID != nil {
		if _, err := h.catalog.FindByID(ctx, *req.DrugID); err != nil {
			if errors.Is(err, domain.ErrDrugNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Drug not found"})
				return
			}
			h.logger.Error("Failed to look up drug", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to match drug"})
			return
		}
	}

	if err := h.observations.UpdateMatch(ctx, observationID, req.DrugID); err != nil {
		if errors.Is(err, domain.ErrObservationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Observation not found"})
			return
		}
		h.logger.Error("Failed to update match", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to match drug"})
		return
	}

	obs, err := h.observations.FindByID(ctx, observationID)
	if err != nil {
		h.logger.Error("Failed to reload observation", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to match drug"})
		return
	}

	dtos := h.toObservationDTOs(c, []model.Observation{*obs})
	c.JSON(http.StatusOK, dtos[0])
}

// ListLogs handles GET /competitors/logs
func (h *CompetitorHandler) ListLogs(c *gin.Context) {
	limit := defaultLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}

	var logs []model.RunLog
	var err error
	if competitor := c.Query("competitor"); competitor != "" {
		logs, err = h.runLogs.FindByCompetitor(c.Request.Context(), competitor, limit)
	} else {
		logs, err = h.runLogs.FindRecent(c.Request.Context(), limit)
	}
	if err != nil {
		h.logger.Error("Failed to list run logs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list run logs"})
		return
	}

	logDTOs := make([]dto.RunLogDTO, len(logs))
	for i, log := range logs {
		logDTOs[i] = toRunLogDTO(log)
	}

	c.JSON(http.StatusOK, gin.H{"logs": logDTOs})
}

// DeleteCompetitorDrugs handles DELETE /competitors/drugs/:competitor
// Operator "reset a source" action: purges one competitor's observations and
// its run logs.
func (h *CompetitorHandler) DeleteCompetitorDrugs(c *gin.Context) {
	competitor := strings.ToUpper(c.Param("competitor"))
	ctx := c.Request.Context()

	deleted, err := h.observations.DeleteByCompetitor(ctx, competitor)
	if err != nil {
		h.logger.Error("Failed to delete observations", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete drugs"})
		return
	}

	if _, err := h.runLogs.DeleteByCompetitor(ctx, competitor); err != nil {
		// The observation purge already happened; report it anyway.
		h.logger.Warn("Failed to delete run logs after observation purge",
			slog.String("competitor", competitor),
			slog.String("error", err.Error()),
		)
	}

	h.logger.Info("Purged competitor data",
		slog.String("competitor", competitor),
		slog.Int64("deleted", deleted),
	)

	c.JSON(http.StatusOK, dto.DeleteResponse{Deleted: deleted})
}

// ListScrapers handles GET /competitors/scrapers
func (h *CompetitorHandler) ListScrapers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"scrapers": h.registry.Competitors()})
}

// Scrape handles POST /competitors/scrape/:competitor
// Runs the pipeline synchronously. A failed run is an expected operational
// outcome and still returns 200 with success=false; only an unknown token is
// a client error.
func (h *CompetitorHandler) Scrape(c *gin.Context) {
	competitor := strings.ToUpper(c.Param("competitor"))

	result, err := h.runner.Run(c.Request.Context(), competitor)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownCompetitor) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Unknown competitor: " + competitor,
				"valid": h.registry.Competitors(),
			})
			return
		}
		h.logger.Error("Failed to run scrape", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run scrape"})
		return
	}

	c.JSON(http.StatusOK, dto.ScrapeResultDTO{
		Competitor:        result.Competitor,
		Success:           result.Success,
		ObservationsFound: result.ObservationsFound,
		Error:             result.Error,
		DurationMs:        result.Duration.Milliseconds(),
	})
}

// toObservationDTOs converts rows to DTOs, decorating matched rows with the
// canonical drug name when the catalog lookup succeeds.
func (h *CompetitorHandler) toObservationDTOs(c *gin.Context, observations []model.Observation) []dto.ObservationDTO {
	drugIDs := make([]string, 0, len(observations))
	seen := make(map[string]bool)
	for _, obs := range observations {
		if obs.MatchedDrugID != nil && !seen[*obs.MatchedDrugID] {
			seen[*obs.MatchedDrugID] = true
			drugIDs = append(drugIDs, *obs.MatchedDrugID)
		}
	}

	names := map[string]string{}
	if len(drugIDs) > 0 {
		resolved, err := h.catalog.NamesByIDs(c.Request.Context(), drugIDs)
		if err != nil {
			h.logger.Warn("Failed to resolve drug names", slog.String("error", err.Error()))
		} else {
			names = resolved
		}
	}

	dtos := make([]dto.ObservationDTO, len(observations))
	for i, obs := range observations {
		dtos[i] = toObservationDTO(obs, names)
	}
	return dtos
}

func toObservationDTO(obs model.Observation, names map[string]string) dto.ObservationDTO {
	d := dto.ObservationDTO{
		ObservationID:        obs.ObservationID,
		Competitor:           obs.Competitor,
		ExternalName:         obs.ExternalName,
		URL:                  obs.URL,
		Price:                obs.Price,
		Category:             obs.Category,
		RequiresPrescription: obs.RequiresPrescription,
		RequiresConsultation: obs.RequiresConsultation,
		MatchedDrugID:        obs.MatchedDrugID,
		ScrapedAt:            obs.ScrapedAt.Format(time.RFC3339),
		CreatedAt:            obs.CreatedAt.Format(time.RFC3339),
	}
	if len(obs.RawData) > 0 {
		d.RawData = json.RawMessage(obs.RawData)
	}
	if obs.MatchedDrugID != nil {
		if name, ok := names[*obs.MatchedDrugID]; ok {
			d.MatchedDrugName = &name
		}
	}
	return d
}

func toRunLogDTO(log model.RunLog) dto.RunLogDTO {
	return dto.RunLogDTO{
		RunLogID:          log.RunLogID,
		Competitor:        log.Competitor,
		Status:            log.Status,
		ObservationsFound: log.ObservationsFound,
		ErrorMessage:      log.ErrorMessage,
		DurationMs:        log.DurationMs,
		CreatedAt:         log.CreatedAt.Format(time.RFC3339),
	}
}
