package query

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, db *sql.DB, protect gin.HandlerFunc) {
	api := r.Group("/api")
	if protect != nil {
		api.Use(protect)
	}

	api.POST("/query", func(c *gin.Context) {
		var req struct {
			SQL string `json:"sql"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
			return
		}
		res, err := Run(c.Request.Context(), db, req.SQL)
		if errors.Is(err, ErrRejected) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, res)
	})
}
