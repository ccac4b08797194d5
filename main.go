package main

import (
	"embed"
	"net/http"

	_ "time/tzdata"

	"github.com/gin-gonic/gin"

	"github.com/jonathancadepowers/wusa-reports/internal/auth"
	"github.com/jonathancadepowers/wusa-reports/internal/config"
	dbpkg "github.com/jonathancadepowers/wusa-reports/internal/db"
	"github.com/jonathancadepowers/wusa-reports/internal/logger"
	"github.com/jonathancadepowers/wusa-reports/internal/notify"
	"github.com/jonathancadepowers/wusa-reports/internal/query"
	"github.com/jonathancadepowers/wusa-reports/internal/requests"
	"github.com/jonathancadepowers/wusa-reports/internal/schedule"
	"github.com/jonathancadepowers/wusa-reports/internal/settings"
)

//go:embed web/*
var webFS embed.FS

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := dbpkg.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := dbpkg.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	gameStore := schedule.NewStore(db, log)
	settingStore := settings.NewStore(db)
	notifier := notify.New(settingStore, cfg.SMTPAddr, cfg.SMTPFrom, log)

	sessionRepo := auth.NewRepository(db)
	authSvc, err := auth.NewService(sessionRepo, cfg.AdminPassword, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("auth: %v", err)
	}
	if cfg.AdminPassword == "" {
		log.Warn("ADMIN_PASSWORD not set; admin login is disabled")
	}
	protect := auth.Protect(authSvc)

	// HTTP
	r := gin.Default()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Fatalf("trusted proxies: %v", err)
	}

	// API
	auth.RegisterRoutes(r, authSvc)
	schedule.RegisterRoutes(r, gameStore, notifier, protect)
	settings.RegisterRoutes(r, settingStore, protect)
	requests.RegisterRoutes(r, requests.NewStore(db), protect)
	query.RegisterRoutes(r, db, protect)

	// Simple frontend
	r.GET("/", func(c *gin.Context) {
		f, err := webFS.ReadFile("web/index.html")
		if err != nil {
			c.String(http.StatusInternalServerError, "missing index")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", f)
	})

	log.Infof("listening on %s", cfg.Addr)
	if err := r.Run(cfg.Addr); err != nil {
		log.Fatal(err)
	}
}
