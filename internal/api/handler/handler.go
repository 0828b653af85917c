// Package handler exposes the read-only HTTP surface of the game: the
// live feed websocket, leaderboards, open cases, and a JWT-protected
// admin score endpoint.
package handler

import (
	"net/http"

	"cultgo/backend/internal/gamehub"
	"cultgo/backend/internal/models"
	"cultgo/backend/internal/scoring"

	"github.com/gin-gonic/gin"
)

// CaseLister is the slice of storage the public case route reads from.
type CaseLister interface {
	ListOpenCases() ([]models.Case, error)
}

// Handler carries the services the HTTP routes read from.
type Handler struct {
	Hub     *gamehub.Hub
	Cases   CaseLister
	Scoring *scoring.Service

	jwtSecret []byte
	adminKey  string
}

// NewHandler creates the HTTP handler set.
func NewHandler(hub *gamehub.Hub, cases CaseLister, scores *scoring.Service, jwtSecret, adminKey string) *Handler {
	return &Handler{
		Hub:       hub,
		Cases:     cases,
		Scoring:   scores,
		jwtSecret: []byte(jwtSecret),
		adminKey:  adminKey,
	}
}

// RegisterRoutes mounts all routes on the engine.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Healthz)
	r.GET("/ws", h.ServeFeed)
	r.GET("/leaderboard/:faction", h.GetLeaderboard)
	r.GET("/cases/open", h.GetOpenCases)

	r.POST("/auth/token", h.GetAdminToken)
	r.POST("/admin/score", h.RequireAdmin, h.SetScore)
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetLeaderboard returns the top 10 for one faction.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	faction := c.Param("faction")
	if faction != models.FactionCult && faction != models.FactionBureau {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown faction"})
		return
	}

	entries, err := h.Scoring.Leaderboard(faction, 10)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faction": faction, "entries": entries})
}

// GetOpenCases returns the investigatable cases. Only the public fields
// leave the server; the backing report stays internal.
func (h *Handler) GetOpenCases(c *gin.Context) {
	cases, err := h.Cases.ListOpenCases()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cases"})
		return
	}

	type openCase struct {
		CaseCode string `json:"case_code"`
		Place    string `json:"place"`
		Attempts int    `json:"attempts"`
	}
	out := make([]openCase, 0, len(cases))
	for _, cs := range cases {
		out = append(out, openCase{CaseCode: cs.CaseCode, Place: cs.Place, Attempts: len(cs.Attempts)})
	}
	c.JSON(http.StatusOK, gin.H{"cases": out})
}
