package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tagcheck/internal/attendance"
	"tagcheck/internal/auth"
	"tagcheck/internal/config"
	"tagcheck/internal/httpmiddleware"
	"tagcheck/internal/propagate"
	"tagcheck/internal/queue"
	"tagcheck/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx := context.Background()

	st, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "tagcheck:changes")
	}

	resolver := attendance.NewResolver(st)
	recorder := attendance.NewRecorder(st, resolver, nil)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		storeHealthy := st.Ping(c.Request.Context()) == nil
		redisHealthy := cfg.QueueBackend == "memory" || redisClient.Healthy(c.Request.Context())
		status := http.StatusOK
		if !storeHealthy || !redisHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "store": storeHealthy, "redis": redisHealthy})
	})

	// Device registration is how the platform identity reaches this service:
	// the issued token's subject is the student's store uid.
	r.POST("/v1/devices/register", func(c *gin.Context) {
		var req struct {
			DeviceUUID string `json:"device_uuid" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		student, err := recorder.Student(c.Request.Context(), req.DeviceUUID)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": messageFor(err)})
			return
		}

		tokens, err := auth.Issue(student.UID, auth.RoleStudent, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.StudentAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.GET("/subjects", func(c *gin.Context) {
		tagUUID := c.Query("tag_uuid")
		if tagUUID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tag_uuid required"})
			return
		}
		dayWeek := mondayWeekday(time.Now().In(attendance.Zone))
		if v := c.Query("day_week"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil || parsed < 0 || parsed > 6 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "day_week must be 0 (Monday) through 6 (Sunday)"})
				return
			}
			dayWeek = parsed
		}

		summaries, err := recorder.AvailableSubjects(c.Request.Context(), tagUUID, dayWeek)
		if err != nil {
			log.Printf("available subjects failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"subjects": summaries})
	})

	authGroup.POST("/attendance", func(c *gin.Context) {
		var req struct {
			DeviceUUID string `json:"device_uuid" binding:"required"`
			TagUUID    string `json:"tag_uuid" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		receipt, err := recorder.CheckIn(c.Request.Context(), req.DeviceUUID, req.TagUUID, auth.CallerUID(c))
		if err != nil {
			checkinsTotal.WithLabelValues(outcomeFor(err)).Inc()
			c.JSON(statusFor(err), gin.H{"error": messageFor(err)})
			return
		}
		checkinsTotal.WithLabelValues("ok").Inc()

		c.JSON(http.StatusCreated, gin.H{
			"record_id": receipt.RecordID,
			"timestamp": receipt.Timestamp.Format(time.RFC3339),
		})
	})

	// The platform's document-update trigger lands here and is relayed to the
	// worker through the queue. Guarded by a shared secret, not user auth.
	r.POST("/internal/hooks/history-updated", func(c *gin.Context) {
		secret := c.GetHeader("X-Hook-Secret")
		if subtle.ConstantTimeCompare([]byte(secret), []byte(cfg.HookSecret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "bad hook secret"})
			return
		}

		var change propagate.Change
		if err := c.ShouldBindJSON(&change); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		body, err := json.Marshal(change)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		if err := q.Publish(c.Request.Context(), queue.Message{Type: queue.TypeHistoryUpdated, Body: body}); err != nil {
			log.Printf("queue publish failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "event not accepted"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// newStore selects the document-store backend from config.
func newStore(ctx context.Context, cfg config.App) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "memory":
		log.Println("using in-memory store (data is not persisted)")
		return store.NewMemory(), func() {}, nil
	case "postgres":
		pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	default:
		app, err := store.NewFirebaseApp(ctx, cfg.FirestoreProjectID, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		fs, err := store.NewFirestore(ctx, app)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() { _ = fs.Close() }, nil
	}
}

// statusFor maps domain errors to HTTP status codes. The mapping is part of
// the API contract: 403 unregistered device, 404 no active session, 409
// duplicate check-in, 500 dangling professor reference or store fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, attendance.ErrStudentNotRegistered):
		return http.StatusForbidden
	case errors.Is(err, attendance.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, attendance.ErrDuplicateAttendance):
		return http.StatusConflict
	case errors.Is(err, attendance.ErrProfessorNotFound):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// messageFor keeps store faults opaque while passing domain errors through.
func messageFor(err error) string {
	for _, domain := range []error{
		attendance.ErrStudentNotRegistered,
		attendance.ErrSessionNotFound,
		attendance.ErrDuplicateAttendance,
		attendance.ErrProfessorNotFound,
	} {
		if errors.Is(err, domain) {
			return domain.Error()
		}
	}
	log.Printf("request failed: %v", err)
	return "internal error"
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, attendance.ErrStudentNotRegistered):
		return "unregistered"
	case errors.Is(err, attendance.ErrSessionNotFound):
		return "no_session"
	case errors.Is(err, attendance.ErrDuplicateAttendance):
		return "duplicate"
	case errors.Is(err, attendance.ErrProfessorNotFound):
		return "bad_reference"
	default:
		return "error"
	}
}

// mondayWeekday maps time.Weekday (Sunday=0) to the stored convention (Monday=0).
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
