package schedule

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// Notifier receives the applied changes after a successful edit. It is
// fire-and-forget: its outcome never affects the update's result.
type Notifier interface {
	GameEdited(game Game, changes []FieldChange)
}

func RegisterRoutes(r *gin.Engine, store *Store, notifier Notifier, protect gin.HandlerFunc) {
	api := r.Group("/api")
	{
		api.GET("/games", func(c *gin.Context) {
			list, err := store.List(c.Request.Context(), filterFromQuery(c))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"games": list, "total": len(list)})
		})

		// CSV export of the (filtered) schedule
		api.GET("/games.csv", func(c *gin.Context) {
			list, err := store.List(c.Request.Context(), filterFromQuery(c))
			if err != nil {
				c.String(http.StatusInternalServerError, err.Error())
				return
			}

			filename := fmt.Sprintf("wusa_schedule_%s.csv", time.Now().Format("2006-01-02"))
			c.Header("Content-Type", "text/csv; charset=utf-8")
			c.Header("Content-Disposition", "attachment; filename="+filename)

			w := csv.NewWriter(c.Writer)
			_ = w.Write([]string{
				"Game #", "Division", "Week", "Day", "Game Date", "Time",
				"Field", "Home", "Away", "Status", "Comment", "Original Date",
			})
			for _, g := range list {
				_ = w.Write([]string{
					strconv.FormatInt(g.GameNumber, 10),
					g.Division,
					strconv.Itoa(g.Week),
					strconv.Itoa(g.Day),
					g.GameDate, g.Time, g.Field, g.Home, g.Away,
					g.Status, g.Comment, g.OriginalDate,
				})
			}
			w.Flush()
			if err := w.Error(); err != nil {
				c.String(http.StatusInternalServerError, err.Error())
			}
		})

		api.GET("/games/:number", func(c *gin.Context) {
			num, err := strconv.ParseInt(c.Param("number"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad game number"})
				return
			}
			g, err := store.Get(c.Request.Context(), num)
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, g)
		})

		// Admin edit form: full proposed field set, audited
		api.PUT("/games/:number", attachProtect(protect, func(c *gin.Context) {
			num, err := strconv.ParseInt(c.Param("number"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad game number"})
				return
			}
			var p Proposed
			if err := c.BindJSON(&p); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
				return
			}
			res, err := store.UpdateGame(c.Request.Context(), num, p)
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			if notifier != nil && len(res.Changes) > 0 {
				go notifier.GameEdited(res.Game, res.Changes)
			}
			c.JSON(http.StatusOK, res)
		}))

		// Inline comment edit on the schedule grid
		api.PATCH("/games/:number/comment", attachProtect(protect, func(c *gin.Context) {
			num, err := strconv.ParseInt(c.Param("number"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad game number"})
				return
			}
			var req struct {
				Comment string `json:"comment"`
			}
			if err := c.BindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad json"})
				return
			}
			res, err := store.UpdateComment(c.Request.Context(), num, req.Comment)
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, res)
		}))

		api.GET("/games/:number/history", func(c *gin.Context) {
			num, err := strconv.ParseInt(c.Param("number"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "bad game number"})
				return
			}
			entries, err := store.HistoryFor(c.Request.Context(), num)
			if errors.Is(err, ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
				return
			}
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"game_number": num, "entries": entries})
		})

		api.GET("/history", func(c *gin.Context) {
			entries, err := store.HistoryAll(c.Request.Context())
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"entries": entries})
		})

		// Season setup: replace the whole schedule from CSV or XLSX
		api.POST("/games/import", attachProtect(protect, func(c *gin.Context) {
			if err := c.Request.ParseMultipartForm(12 << 20); err != nil { // 12MB
				c.JSON(http.StatusBadRequest, gin.H{"error": "multipart too large"})
				return
			}
			fh, err := c.FormFile("file")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
				return
			}
			games, err := parseImport(fh)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			n, err := store.ReplaceAll(c.Request.Context(), games)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"imported": n})
		}))

		api.GET("/divisions", func(c *gin.Context) {
			listStrings(c, store.Divisions)
		})
		api.GET("/teams", func(c *gin.Context) {
			listStrings(c, store.Teams)
		})

		reports := api.Group("/reports")
		{
			reports.GET("/field-pivot", func(c *gin.Context) {
				week, err := strconv.Atoi(c.Query("week"))
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "bad week"})
					return
				}
				p, err := store.FieldPivot(c.Request.Context(), week)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, p)
			})

			reports.GET("/team/:name", func(c *gin.Context) {
				ts, err := store.TeamSchedule(c.Request.Context(), c.Param("name"))
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, ts)
			})

			reports.GET("/division-stats", func(c *gin.Context) {
				stats, err := store.DivisionStats(c.Request.Context())
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, stats)
			})

			reports.GET("/team-date-matrix", func(c *gin.Context) {
				division := c.Query("division")
				if division == "" {
					c.JSON(http.StatusBadRequest, gin.H{"error": "missing division"})
					return
				}
				m, err := store.TeamDateMatrix(c.Request.Context(), division)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, m)
			})

			reports.GET("/calendar", func(c *gin.Context) {
				year, err := strconv.Atoi(c.Query("year"))
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "bad year"})
					return
				}
				month, err := strconv.Atoi(c.Query("month"))
				if err != nil || month < 1 || month > 12 {
					c.JSON(http.StatusBadRequest, gin.H{"error": "bad month"})
					return
				}
				cal, err := store.Calendar(c.Request.Context(), year, month)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, cal)
			})
		}
	}
}

func filterFromQuery(c *gin.Context) Filter {
	f := Filter{
		Divisions: c.QueryArray("division"),
		Fields:    c.QueryArray("field"),
		Team:      c.Query("team"),
	}
	for _, w := range c.QueryArray("week") {
		if n, err := strconv.Atoi(w); err == nil {
			f.Weeks = append(f.Weeks, n)
		}
	}
	return f
}

func listStrings(c *gin.Context, fn func(context.Context) ([]string, error)) {
	vals, err := fn(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, vals)
}

// attachProtect conditionally wraps handlers with the given protect middleware for mutating routes.
// We keep read routes public.
func attachProtect(protect gin.HandlerFunc, h gin.HandlerFunc) gin.HandlerFunc {
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
