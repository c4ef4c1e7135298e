package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/PancyStudios/PancyLedger/pkg/database"
	"github.com/PancyStudios/PancyLedger/pkg/logger"
	"github.com/PancyStudios/PancyLedger/pkg/models"
	"github.com/PancyStudios/PancyLedger/pkg/violations"
	"github.com/gin-gonic/gin"
)

// Ledgers are the read sources behind the API
type Ledgers struct {
	Warnings *database.WarningLedger
	Licenses *database.LicenseLedger
	Catalog  *violations.Catalog
}

type ledgerAPI struct {
	Ledgers
}

// SetupAPIRoutes sets up the health check and the /api routes
func SetupAPIRoutes(s *Server, ledgers Ledgers) {
	if ledgers.Catalog == nil {
		ledgers.Catalog = violations.Default()
	}
	h := &ledgerAPI{Ledgers: ledgers}

	s.GET("/health", healthHandler)

	api := s.Group("/api")
	{
		api.GET("/violations", h.violations)
		api.GET("/users/:id/points", h.userPoints)
		api.GET("/users/:id/warnings", h.userWarnings)
		api.GET("/warnings/:id", h.warning)
	}

	// License keys are only served to token holders
	licensed := api.Group("", s.RequireToken())
	{
		licensed.GET("/users/:id/license", h.userLicense)
		licensed.GET("/licenses", h.searchLicenses)
		licensed.GET("/licenses/history", h.licenseHistory)
		licensed.GET("/licenses/:key", h.license)
	}
}

// healthHandler returns a simple health check response
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Bad Request",
		"message": message,
		"status":  400,
	})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "Not Found",
		"message": message,
		"status":  404,
	})
}

func unavailable(c *gin.Context, err error) {
	logger.Error("Error leyendo el ledger: "+err.Error(), "WebServer")
	c.JSON(http.StatusServiceUnavailable, gin.H{
		"error":   "Service Unavailable",
		"message": "El almacenamiento no está disponible.",
		"status":  503,
	})
}

func parseID(c *gin.Context, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		badRequest(c, "invalid id: "+raw)
		return 0, false
	}
	return id, true
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid limit: "+raw)
		return 0, false
	}
	return limit, true
}

func (h *ledgerAPI) violations(c *gin.Context) {
	c.JSON(http.StatusOK, h.Catalog.Definitions())
}

func (h *ledgerAPI) userPoints(c *gin.Context) {
	userID, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}

	points, err := h.Warnings.UserActivePoints(c.Request.Context(), userID)
	if err != nil {
		unavailable(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"points":  points,
		"action":  h.Catalog.PunishmentAction(points),
	})
}

func (h *ledgerAPI) userWarnings(c *gin.Context) {
	userID, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}

	var (
		warnings []*models.Warning
		err      error
	)
	if all, _ := strconv.ParseBool(c.DefaultQuery("all", "false")); all {
		warnings, err = h.Warnings.FindAllWarningsForUser(c.Request.Context(), userID, limit)
	} else {
		warnings, err = h.Warnings.UserActiveWarnings(c.Request.Context(), userID)
		if err == nil && limit > 0 && len(warnings) > limit {
			warnings = warnings[:limit]
		}
	}
	if err != nil {
		unavailable(c, err)
		return
	}

	c.JSON(http.StatusOK, warnings)
}

func (h *ledgerAPI) warning(c *gin.Context) {
	w, err := h.Warnings.GetWarning(c.Request.Context(), c.Param("id"))
	if err != nil {
		unavailable(c, err)
		return
	}
	if w == nil {
		notFound(c, "warning not found")
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *ledgerAPI) userLicense(c *gin.Context) {
	userID, ok := parseID(c, c.Param("id"))
	if !ok {
		return
	}

	record, err := h.Licenses.LicenseForUser(c.Request.Context(), userID)
	if err != nil {
		unavailable(c, err)
		return
	}
	if record == nil {
		notFound(c, "user has no license")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *ledgerAPI) license(c *gin.Context) {
	record, err := h.Licenses.UserForLicense(c.Request.Context(), strings.ToLower(c.Param("key")))
	if err != nil {
		unavailable(c, err)
		return
	}
	if record == nil {
		notFound(c, "license not assigned")
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *ledgerAPI) searchLicenses(c *gin.Context) {
	records, err := h.Licenses.SearchLicenses(c.Request.Context(), c.Query("q"))
	if err != nil {
		unavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *ledgerAPI) licenseHistory(c *gin.Context) {
	var filter database.HistoryFilter

	if raw := c.Query("user_id"); raw != "" {
		userID, ok := parseID(c, raw)
		if !ok {
			return
		}
		filter.UserID = &userID
	}
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	filter.Limit = limit
	filter.LicenseKey = strings.ToLower(c.Query("license_key"))

	entries, err := h.Licenses.History(c.Request.Context(), filter)
	if err != nil {
		unavailable(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
