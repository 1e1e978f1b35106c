// Package server exposes the read-only query API over the search index.
package server

import (
	"log/slog"
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oneboxhq/onebox/internal/index"
	"github.com/oneboxhq/onebox/pkg/models"
)

// Handler serves the query endpoints.
type Handler struct {
	store  index.Store
	logger *slog.Logger
}

// NewHandler creates the query handler.
func NewHandler(store index.Store, logger *slog.Logger) *Handler {
	return &Handler{
		store:  store,
		logger: logger.With("component", "query_api"),
	}
}

// NewRouter builds the gin router for the query API.
func NewRouter(h *Handler, corsOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := gincors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	api := router.Group("/api")
	{
		api.GET("/emails", h.searchEmails)
	}
	return router
}

// searchEmails handles GET /api/emails?q=&accountId=&category=. It passes
// the filters straight through to the index; no ingestion error ever
// surfaces here, only the store's own failures, and those only as an opaque
// server error.
func (h *Handler) searchEmails(c *gin.Context) {
	q := index.Query{
		Text:      c.Query("q"),
		AccountID: c.Query("accountId"),
	}

	if raw := c.Query("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		q.Category = category
	}

	docs, err := h.store.Search(c.Request.Context(), q)
	if err != nil {
		h.logger.Error("search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, docs)
}
