package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/xpanvictor/intervox/internal/config"
	"github.com/xpanvictor/intervox/internal/domains/auth"
	"github.com/xpanvictor/intervox/internal/domains/interview"
	"github.com/xpanvictor/intervox/internal/domains/scheduler"
	"github.com/xpanvictor/intervox/internal/handlers/websocket"
	"github.com/xpanvictor/intervox/internal/repository/ratelimit"
	"github.com/xpanvictor/intervox/internal/repository/report"
	"github.com/xpanvictor/intervox/internal/repository/session"
	"github.com/xpanvictor/intervox/internal/server"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/assistant"
	"github.com/xpanvictor/intervox/pkg/io/stt"
	"github.com/xpanvictor/intervox/pkg/io/stt/whisper"
	"github.com/xpanvictor/intervox/pkg/io/tts/piper"
	"github.com/xpanvictor/intervox/pkg/sandbox"
	"gorm.io/gorm"
)

const defaultJWTSecret = "default-secret-key-change-in-production"

// App represents the application with all its dependencies
type App struct {
	Config *config.Settings
	Logger *Logger.Logger
	DB     *gorm.DB
	RC     *redis.Client

	// repos
	Interviews interview.Store
	Reports    interview.ReportRepository

	LLM         assistant.Assistant
	Transcriber stt.Transcriber
	Speech      *interview.SpeechCache
	Executor    sandbox.Executor
	Limiter     ratelimit.Limiter
	Scheduler   scheduler.SchedulerService

	AuthService      auth.AuthService
	InterviewService *interview.Service
	WebSocket        *websocket.WebSocketHandler
	ServerDeps       server.Dependencies

	llmFactory *LLMRouterFactory
}

// NewApp creates a new application instance with all dependencies properly
// wired. db and rc may be nil, in which case in-memory stores are used.
func NewApp(cfg *config.Settings, logger *Logger.Logger, db *gorm.DB, rc *redis.Client) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: Logger.OrNop(logger),
		DB:     db,
		RC:     rc,
	}

	if err := app.setupDependencies(); err != nil {
		return nil, err
	}

	return app, nil
}

// setupDependencies initializes all application dependencies
func (a *App) setupDependencies() error {
	// 1. repositories
	a.setupRepositories()

	// 2. background jobs
	if a.Config.Scheduler.Enabled {
		a.setupScheduler()
	}

	// 3. remote services
	if err := a.setupLLMRouter(); err != nil {
		return err
	}
	if err := a.setupSpeech(); err != nil {
		return err
	}
	if a.Config.Sandbox.URL != "" {
		a.Executor = sandbox.NewJudge0(sandbox.Config{
			URL:     a.Config.Sandbox.URL,
			APIKey:  a.Config.Sandbox.APIKey,
			APIHost: a.Config.Sandbox.APIHost,
			Timeout: a.Config.Sandbox.Timeout,
		}, a.Logger)
	} else {
		a.Logger.Warn("sandbox.url not configured, code execution disabled")
	}

	// 4. services
	a.setupInterviewService()
	a.setupAuth()
	a.setupLimiter()

	ic := a.Config.Interview
	a.WebSocket = websocket.NewWebSocketHandler(
		a.Logger,
		a.InterviewService,
		a.AuthService,
		a.Transcriber,
		a.Speech,
		websocket.HandlerConfig{
			HeartbeatInterval: ic.HeartbeatInterval,
			InactivityTimeout: ic.InactivityTimeout,
			AllowedOrigins:    a.Config.Server.AllowedOrigins,
			Conductor: interview.ConductorConfig{
				SampleRate:        a.Config.Speech.SampleRate,
				ProcessingTimeout: ic.ProcessingTimeout,
				MaxErrors:         ic.MaxErrors,
			},
		},
	)

	a.ServerDeps = server.Dependencies{
		Config:      a.Config,
		Logger:      a.Logger,
		AuthService: a.AuthService,
		Interviews:  a.InterviewService,
		Limiter:     a.Limiter,
		WebSocket:   a.WebSocket,
	}
	return nil
}

func (a *App) setupRepositories() {
	if a.RC != nil {
		a.Interviews = session.NewRedisInterviewRepo(a.RC, a.Config.Redis.SessionTTL)
	} else {
		a.Logger.Warn("redis not configured, interviews are kept in memory")
		a.Interviews = session.NewMemoryInterviewRepo(a.Config.Redis.SessionTTL)
	}

	if a.DB != nil {
		a.Reports = report.NewGormReportRepo(a.DB)
	} else {
		a.Logger.Warn("database not configured, reports are kept in memory")
		a.Reports = report.NewMemoryReportRepo()
	}
}

// setupScheduler queues report writes and abandonment checks on asynq.
func (a *App) setupScheduler() {
	if a.Config.Redis.Addr == "" {
		a.Logger.Warn("scheduler enabled without redis.addr, running without it")
		return
	}
	svc := scheduler.NewAsynqSchedulerService(scheduler.AsynqSchedulerConfig{
		RedisAddr:     a.Config.Redis.Addr,
		RedisPassword: a.Config.Redis.Password,
		RedisDB:       a.Config.Redis.DB,
		Concurrency:   a.Config.Scheduler.Concurrency,
	}, a.Logger, a.Reports)
	a.Scheduler = svc
	a.Reports = scheduler.NewQueuedReports(svc, a.Reports)
}

// setupLLMRouter configures the LLM providers and creates the router
func (a *App) setupLLMRouter() error {
	a.llmFactory = NewLLMRouterFactory(a.Config.Assistant, a.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	mux, err := a.llmFactory.CreateRouter(ctx)
	if err != nil {
		return err
	}

	a.LLM = mux.WithLogger(a.Logger)
	return nil
}

func (a *App) setupSpeech() error {
	sc := a.Config.Speech
	if sc.WhisperURL != "" {
		a.Transcriber = whisper.NewWhisperClient(sc.WhisperURL, sc.Language, a.Logger)
	} else {
		a.Logger.Warn("speech.whisper_url not configured, voice answers cannot be transcribed")
	}

	if sc.PiperURL == "" {
		a.Logger.Warn("speech.piper_url not configured, questions are sent as text only")
		return nil
	}
	cache, err := interview.NewSpeechCache(piper.New(sc.PiperURL, sc.Voice), a.Config.Interview.SpeechCacheSize, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create speech cache: %w", err)
	}
	a.Speech = cache
	return nil
}

func (a *App) setupInterviewService() {
	opts := []interview.Option{interview.WithReports(a.Reports)}
	if a.Executor != nil {
		opts = append(opts, interview.WithExecutor(a.Executor))
	}
	if a.Scheduler != nil && a.Config.Interview.AbandonAfter > 0 {
		opts = append(opts, interview.WithExpiry(a.Scheduler, a.Config.Interview.AbandonAfter))
	}

	a.InterviewService = interview.NewService(
		a.Interviews,
		a.LLM,
		interview.Config{
			MaxQuestions: a.Config.Interview.MaxQuestions,
			CodingAfter:  a.Config.Interview.CodingAfter,
		},
		a.Logger,
		opts...,
	)

	if s, ok := a.Scheduler.(*scheduler.AsynqSchedulerService); ok {
		s.SetExpirer(a.InterviewService)
	}
}

func (a *App) setupAuth() {
	// JWT settings from config
	jwtSecret := a.Config.Auth.JWTSecret
	if jwtSecret == "" {
		jwtSecret = defaultJWTSecret
		a.Logger.Warn("JWT secret not configured, using default (not secure for production)")
	}
	if a.Config.Auth.APIKeyHash == "" {
		a.Logger.Warn("auth.api_key_hash not configured, no access tokens can be issued")
	}
	a.AuthService = auth.NewAuthService(jwtSecret, a.Config.Auth.TokenTTL, a.Config.Auth.APIKeyHash, a.Logger)
}

func (a *App) setupLimiter() {
	ac := a.Config.Auth
	if ac.RateLimit <= 0 {
		return
	}
	window := ac.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	if a.RC != nil {
		a.Limiter = ratelimit.NewRedisLimiter(a.RC, ac.RateLimit, window)
	} else {
		a.Limiter = ratelimit.NewMemoryLimiter(ac.RateLimit, window)
	}
}

// Start launches background workers.
func (a *App) Start(ctx context.Context) error {
	if a.Scheduler != nil {
		if err := a.Scheduler.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}
	return nil
}

// Close stops workers and releases clients.
func (a *App) Close(ctx context.Context) error {
	if a.WebSocket != nil {
		_ = a.WebSocket.Close()
	}
	if a.Scheduler != nil {
		if err := a.Scheduler.Stop(ctx); err != nil {
			a.Logger.Errorf("scheduler stop: %v", err)
		}
	}
	if a.llmFactory != nil {
		if err := a.llmFactory.Close(); err != nil {
			a.Logger.Errorf("llm close: %v", err)
		}
	}
	return nil
}

// GetServerDependencies returns the server dependencies
func (a *App) GetServerDependencies() server.Dependencies {
	return a.ServerDeps
}
