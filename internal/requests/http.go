package requests

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, store *Store, protect gin.HandlerFunc) {
	api := r.Group("/api/requests")
	{
		api.POST("", func(c *gin.Context) {
			var req Request
			if err := c.BindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
				return
			}
			out, err := store.Create(c.Request.Context(), req)
			if errors.Is(err, ErrInvalid) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, out)
		})

		api.GET("", func(c *gin.Context) {
			list, err := store.List(c.Request.Context(), c.QueryArray("status"))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"requests": list, "total": len(list)})
		})

		api.PATCH("/:id/status", wrapProtect(protect, func(c *gin.Context) {
			id, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
				return
			}
			var req struct {
				Status string `json:"status"`
			}
			if err := c.BindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
				return
			}
			err = store.UpdateStatus(c.Request.Context(), id, req.Status)
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			if errors.Is(err, ErrBadStatus) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"ok": true})
		}))
	}

	// CSV export of requests
	r.GET("/api/requests.csv", func(c *gin.Context) {
		list, err := store.List(c.Request.Context(), c.QueryArray("status"))
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}

		filename := fmt.Sprintf("schedule_requests_%s.csv", time.Now().Format("2006-01-02"))
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", "attachment; filename="+filename)

		w := csv.NewWriter(c.Writer)
		_ = w.Write([]string{
			"ID", "Reference", "Email", "Division", "Game", "Type",
			"Reason", "Submitted", "Status",
		})
		for _, req := range list {
			_ = w.Write([]string{
				strconv.FormatInt(req.ID, 10),
				req.Reference, req.Email, req.Division, req.GameDetails,
				req.RequestType, req.Reason,
				req.SubmittedAt.Format("2006-01-02 15:04:05"),
				req.Status,
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
		}
	})
}

func wrapProtect(protect gin.HandlerFunc, h gin.HandlerFunc) gin.HandlerFunc {
	if protect == nil {
		return h
	}
	return func(c *gin.Context) {
		protect(c)
		if c.IsAborted() {
			return
		}
		h(c)
	}
}
