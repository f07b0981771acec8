package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/assistant"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/audit"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/models"
	"github.com/gokulwholesaleinc-web/crm-app-sub000/internal/tools"
)

const userKey = "user_id"

// registerRoutes sets up all API routes on the gin router.
func registerRoutes(router *gin.Engine, opts Opts) {
	router.GET("/healthz", handleHealth(opts))
	router.GET("/metrics", gin.WrapH(metricsHandler))

	api := router.Group("/api/ai", requireUser())
	api.POST("/query", handleQuery(opts.Assistant))
	api.POST("/confirm", handleResume(opts.Assistant, true))
	api.POST("/cancel", handleResume(opts.Assistant, false))
	api.GET("/pending", handlePending(opts.Assistant))
	api.GET("/sessions/:id/history", handleHistory(opts))
	api.GET("/tools", handleTools(opts.Assistant))
	api.GET("/audit", handleAudit(opts.Audit))
	api.GET("/preferences", handleGetPreferences(opts))
	api.PUT("/preferences", handlePutPreferences(opts))
}

// requireUser rejects requests without a caller id.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := c.GetHeader(UserHeader)
		if user == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing " + UserHeader + " header"})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func handleHealth(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := opts.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

func handleQuery(orch *assistant.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assistant.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		req.UserID = c.GetString(userKey)
		resp := orch.ProcessQuery(c.Request.Context(), req)
		status := http.StatusOK
		if resp.Error == assistant.ErrOracleUnavailable.Error() {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, resp)
	}
}

func handleResume(orch *assistant.Orchestrator, confirmed bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req assistant.ResumeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		req.UserID = c.GetString(userKey)
		var resp *assistant.ActionResponse
		if confirmed {
			resp = orch.ExecuteConfirmedAction(c.Request.Context(), req)
		} else {
			resp = orch.CancelPendingAction(c.Request.Context(), req)
		}
		status := http.StatusOK
		if resp.Error == assistant.ErrNoPendingAction.Error() {
			status = http.StatusConflict
		}
		c.JSON(status, resp)
	}
}

func handlePending(orch *assistant.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := orch.PendingActions(c.Request.Context(), c.GetString(userKey), c.Query("session_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(pending), "pending_actions": pending})
	}
}

func handleHistory(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		turns, err := opts.Memory.History(c.Request.Context(), c.GetString(userKey), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if turns == nil {
			turns = []models.ConversationTurn{}
		}
		c.JSON(http.StatusOK, gin.H{"session_id": c.Param("id"), "turns": turns})
	}
}

func handleTools(orch *assistant.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version": tools.CatalogVersion,
			"tools":   orch.Catalog().List(),
		})
	}
}

func handleAudit(log *audit.Log) gin.HandlerFunc {
	return func(c *gin.Context) {
		f := audit.Filter{
			UserID:       c.GetString(userKey),
			SessionID:    c.Query("session_id"),
			FunctionName: c.Query("function"),
		}
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				badRequest(c, errors.New("limit must be an integer"))
				return
			}
			f.Limit = n
		}
		entries, err := log.List(c.Request.Context(), f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
	}
}

func handleGetPreferences(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		prefs, err := opts.Learning.Preferences(c.Request.Context(), c.GetString(userKey))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, prefs)
	}
}

type preferencesBody struct {
	CommunicationStyle string `json:"communication_style"`
	CustomInstructions string `json:"custom_instructions"`
}

func handlePutPreferences(opts Opts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body preferencesBody
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
		prefs := &models.UserPreference{
			UserID:             c.GetString(userKey),
			CommunicationStyle: body.CommunicationStyle,
			CustomInstructions: body.CustomInstructions,
		}
		if err := opts.Learning.SavePreferences(c.Request.Context(), prefs); err != nil {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, prefs)
	}
}
