package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/xpanvictor/intervox/internal/domains/interview"
	"github.com/xpanvictor/intervox/pkg/Logger"
)

// AsynqSchedulerService implements SchedulerService using asynq
type AsynqSchedulerService struct {
	client  *asynq.Client
	server  *asynq.Server
	mux     *asynq.ServeMux
	logger  *Logger.Logger
	reports interview.ReportRepository
	expirer Expirer
}

// AsynqSchedulerConfig holds configuration for the scheduler
type AsynqSchedulerConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	Queues        map[string]int
	// retries for report persistence
	MaxRetry int
}

// NewAsynqSchedulerService creates a new scheduler service. Reports are
// written to reports by the worker.
func NewAsynqSchedulerService(config AsynqSchedulerConfig, logger *Logger.Logger, reports interview.ReportRepository) *AsynqSchedulerService {
	logger = Logger.OrNop(logger).Named("scheduler")
	redisOpt := asynq.RedisClientOpt{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.MaxRetry <= 0 {
		config.MaxRetry = 10
	}

	service := &AsynqSchedulerService{
		client: asynq.NewClient(redisOpt),
		server: asynq.NewServer(redisOpt, asynq.Config{
			Concurrency: config.Concurrency,
			Queues:      config.Queues,
			Logger:      NewAsynqLogger(logger),
		}),
		mux:     asynq.NewServeMux(),
		logger:  logger,
		reports: reports,
	}
	service.registerHandlers()
	return service
}

// SetExpirer wires the interview service, which itself needs the
// scheduler and so is built after it.
func (s *AsynqSchedulerService) SetExpirer(e Expirer) {
	s.expirer = e
}

// registerHandlers registers asynq job handlers
func (s *AsynqSchedulerService) registerHandlers() {
	s.mux.HandleFunc(string(JobTypePersistReport), s.handlePersistReport)
	s.mux.HandleFunc(string(JobTypeExpireInterview), s.handleExpireInterview)
}

// ScheduleExpiry implements interview.ExpiryScheduler
func (s *AsynqSchedulerService) ScheduleExpiry(ctx context.Context, interviewID string, at time.Time) error {
	payload, err := json.Marshal(ExpiryPayload{InterviewID: interviewID, ExpireAt: at})
	if err != nil {
		return fmt.Errorf("failed to marshal expiry payload: %w", err)
	}
	task := asynq.NewTask(string(JobTypeExpireInterview), payload)
	info, err := s.client.EnqueueContext(ctx, task, asynq.ProcessAt(at), asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("failed to enqueue expiry: %w", err)
	}
	s.logger.Debugf("scheduled expiry of %s at %s (queue: %s, id: %s)",
		interviewID, at.Format(time.RFC3339), info.Queue, info.ID)
	return nil
}

// EnqueueReport queues a report for persistence with retries
func (s *AsynqSchedulerService) EnqueueReport(ctx context.Context, r interview.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	task := asynq.NewTask(string(JobTypePersistReport), payload)
	// one report job per interview
	_, err = s.client.EnqueueContext(ctx, task, asynq.TaskID("report:"+r.InterviewID), asynq.MaxRetry(10))
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue report: %w", err)
	}
	return nil
}

// Start starts the scheduler server
func (s *AsynqSchedulerService) Start(ctx context.Context) error {
	s.logger.Info("starting asynq scheduler server")
	if err := s.server.Start(s.mux); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Stop stops the scheduler server
func (s *AsynqSchedulerService) Stop(ctx context.Context) error {
	s.logger.Info("stopping asynq scheduler server")
	s.server.Shutdown()
	return s.client.Close()
}

// Job Handlers

func (s *AsynqSchedulerService) handlePersistReport(ctx context.Context, t *asynq.Task) error {
	var r interview.Report
	if err := json.Unmarshal(t.Payload(), &r); err != nil {
		return fmt.Errorf("failed to unmarshal report payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := s.reports.Save(ctx, r); err != nil {
		s.logger.Warnf("persisting report %s failed, will retry: %v", r.InterviewID, err)
		return err
	}
	s.logger.Infof("report %s persisted", r.InterviewID)
	return nil
}

func (s *AsynqSchedulerService) handleExpireInterview(ctx context.Context, t *asynq.Task) error {
	var payload ExpiryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal expiry payload: %v: %w", err, asynq.SkipRetry)
	}
	if s.expirer == nil {
		return fmt.Errorf("no expirer configured: %w", asynq.SkipRetry)
	}
	return s.expirer.Expire(ctx, payload.InterviewID)
}
