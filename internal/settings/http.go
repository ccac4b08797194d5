package settings

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, store *Store, protect gin.HandlerFunc) {
	api := r.Group("/api/settings")
	if protect != nil {
		api.Use(protect)
	}

	api.GET("/:key", func(c *gin.Context) {
		v, err := store.Get(c.Request.Context(), c.Param("key"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": v})
	})

	api.PUT("/:key", func(c *gin.Context) {
		var req struct {
			Value string `json:"value"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
			return
		}
		if err := store.Set(c.Request.Context(), c.Param("key"), req.Value); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": req.Value})
	})
}
