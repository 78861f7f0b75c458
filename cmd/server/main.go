package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	zerologlog "github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/fundraisely/quizhub/internal/config"
	"github.com/fundraisely/quizhub/internal/entitlements"
	"github.com/fundraisely/quizhub/internal/questionbank"
	"github.com/fundraisely/quizhub/internal/quiz"
	"github.com/fundraisely/quizhub/internal/ws"
)

const version = "v1.0.0-dev"

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showVersion = flag.Bool("version", false, "Show version information")
		portFlag    = flag.String("port", "", "Port to listen on (overrides PORT env var)")
	)
	flag.BoolVar(showHelp, "h", false, "Show help message (shorthand)")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	flag.Parse()

	if *showHelp {
		fmt.Printf(`QuizHub - Live fundraising trivia server

Usage: %s [options]

Options:
  -h, --help      Show this help message
  -v, --version   Show version information
  --port PORT     Port to listen on (default: 8080 or PORT env var)

Environment Variables:
  PORT                  Port to listen on (default: 8080)
  PUBLIC_BASE_URL       Base URL used in join links and QR codes (default: http://localhost:8080)
  ENTITLEMENTS_URL      Entitlements service base URL (optional; default caps apply without it)
  ENTITLEMENTS_API_KEY  Entitlements service API key
  ADMIN_USER            Admin API username for basic auth
  ADMIN_PASS            Admin API password for basic auth

Examples:
  %s                  Start server with default settings
  %s --port 3000      Start server on port 3000
`, os.Args[0], os.Args[0], os.Args[0])
		return
	}

	if *showVersion {
		fmt.Printf("QuizHub %s\n", version)
		return
	}

	cfg := config.FromEnv()
	port := *portFlag
	if port == "" {
		port = cfg.Port
	}

	// zerolog setup (human-friendly console)
	zerolog.TimeFieldFormat = time.RFC3339
	cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	zerologlog.Logger = zerologlog.Output(cw)

	// Gin setup with custom logger (skip /socket.io noise)
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if strings.HasPrefix(path, "/socket.io") {
			return
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		zerologlog.Info().Str("path", path).Int("status", status).Dur("dur", dur).Msg("http")
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	bank, err := questionbank.Load()
	if err != nil {
		log.Fatal(err)
	}

	var ent *entitlements.Client
	if cfg.EntitlementsURL != "" {
		ent = entitlements.New(cfg.EntitlementsURL, cfg.EntitlementsKey)
	}

	registry := quiz.NewRegistry()
	registry.StartSweeper(context.Background())

	sock := ws.New(registry, bank, ent, cfg)
	io := sock.Mount(r)
	defer io.Close()

	// Read API
	r.GET("/api/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": registry.List()})
	})
	r.GET("/api/rooms/:roomId", func(c *gin.Context) {
		room, err := registry.Get(c.Param("roomId"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
			return
		}
		c.JSON(http.StatusOK, room.Summary())
	})
	r.GET("/api/rooms/:roomId/qr", func(c *gin.Context) {
		roomID := c.Param("roomId")
		if _, err := registry.Get(roomID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
			return
		}
		joinURL := fmt.Sprintf("%s/join/%s", strings.TrimRight(cfg.PublicBaseURL, "/"), roomID)
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "qr_failed"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})

	// Admin API behind basic auth
	if cfg.AdminUser != "" && cfg.AdminPass != "" {
		auth := gin.BasicAuth(gin.Accounts{cfg.AdminUser: cfg.AdminPass})
		type createReq struct {
			RoomID string          `json:"roomId"`
			HostID string          `json:"hostId"`
			Config quiz.RoomConfig `json:"config"`
		}
		r.POST("/api/admin/rooms", auth, func(c *gin.Context) {
			var req createReq
			if err := c.BindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_config"})
				return
			}
			if !registry.Create(req.RoomID, req.HostID, req.Config, nil) {
				c.JSON(http.StatusConflict, gin.H{"error": "room_create_failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"roomId": req.RoomID})
		})
		r.DELETE("/api/admin/rooms/:roomId", auth, func(c *gin.Context) {
			if !registry.Remove(c.Param("roomId")) {
				c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
				return
			}
			c.Status(http.StatusNoContent)
		})
	}

	log.Printf("listening on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}
