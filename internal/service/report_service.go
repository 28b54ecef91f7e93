package service

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oncoward/ward-api/internal/models"
	appErrors "github.com/oncoward/ward-api/pkg/errors"
	"github.com/oncoward/ward-api/pkg/jobs"
	"github.com/oncoward/ward-api/pkg/storage"
)

const reportQueueName = "report-render"

// reportPayload travels through the jobs queue.
type reportPayload struct {
	ReportID string
	Format   models.ReportFormat
}

// ReportService renders exports off the request path: a request enqueues a
// job, a worker renders the file, stores it on disk and signs an expiring
// download token. Finished files are reaped by a cleanup loop.
type ReportService struct {
	patients *PatientService
	exports  *ExportService
	storage  *storage.LocalStorage
	signer   *storage.SignedURLSigner
	queue    *jobs.Queue
	logger   *zap.Logger

	mu   sync.RWMutex
	jobs map[string]*models.ReportJob

	cleanupInterval time.Duration
	cleanupCancel   context.CancelFunc
}

// ReportServiceConfig bundles the report worker knobs.
type ReportServiceConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	CleanupInterval   time.Duration
}

// NewReportService constructs the service and its render queue. Start must
// be called before reports can be requested.
func NewReportService(
	patients *PatientService,
	exports *ExportService,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	cfg ReportServiceConfig,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ReportService{
		patients:        patients,
		exports:         exports,
		storage:         store,
		signer:          signer,
		logger:          logger,
		jobs:            make(map[string]*models.ReportJob),
		cleanupInterval: cfg.CleanupInterval,
	}
	svc.queue = jobs.NewQueue(reportQueueName, svc.handleRender, jobs.QueueConfig{
		Workers:    cfg.WorkerConcurrency,
		MaxRetries: cfg.WorkerRetries,
		Logger:     logger,
	})
	return svc
}

// Start launches the render workers and the cleanup loop.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)

	cleanupCtx, cancel := context.WithCancel(ctx)
	s.cleanupCancel = cancel
	if s.cleanupInterval > 0 {
		go s.cleanupLoop(cleanupCtx)
	}
}

// Stop shuts the workers and the cleanup loop down.
func (s *ReportService) Stop() {
	if s.cleanupCancel != nil {
		s.cleanupCancel()
	}
	s.queue.Stop()
}

// Request registers a new report and enqueues its render job.
func (s *ReportService) Request(format models.ReportFormat) (*models.ReportJob, error) {
	if !format.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, models.MsgInvalidData)
	}

	report := &models.ReportJob{
		ID:        uuid.NewString(),
		Format:    format,
		Status:    models.ReportPending,
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	s.jobs[report.ID] = report
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:      report.ID,
		Type:    string(format),
		Payload: reportPayload{ReportID: report.ID, Format: format},
	})
	if err != nil {
		s.mu.Lock()
		delete(s.jobs, report.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, models.MsgUnknownError)
	}

	return cloneReport(report), nil
}

// Get returns the current state of a report.
func (s *ReportService) Get(id string) (*models.ReportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "")
	}
	return cloneReport(report), nil
}

// OpenDownload validates a signed token and opens the rendered file.
func (s *ReportService) OpenDownload(token string) (*os.File, string, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "liên kết tải xuống không hợp lệ hoặc đã hết hạn")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "")
	}
	return file, relPath, nil
}

// handleRender is the queue worker: render, store, sign.
func (s *ReportService) handleRender(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(reportPayload)
	if !ok {
		s.logger.Error("report job carried unexpected payload", zap.String("jobId", job.ID))
		return nil
	}

	patients, err := s.patients.List(ctx)
	if err != nil {
		s.markFailed(payload.ReportID, err)
		return err
	}

	var data []byte
	var filename string
	stamp := time.Now().Format("20060102-150405")
	switch payload.Format {
	case models.ReportCSV:
		data, err = s.exports.RenderCSV(patients)
		filename = fmt.Sprintf("danh-sach-benh-nhan-%s.csv", stamp)
	case models.ReportPDF:
		data, err = s.exports.RenderPDF(patients, "Danh sách bệnh nhân")
		filename = fmt.Sprintf("danh-sach-benh-nhan-%s.pdf", stamp)
	case models.ReportJSON:
		data, err = s.exports.RenderJSON(patients)
		filename = fmt.Sprintf("danh-sach-benh-nhan-%s.json", stamp)
	default:
		s.markFailed(payload.ReportID, appErrors.Clone(appErrors.ErrValidation, models.MsgInvalidData))
		return nil
	}
	if err != nil {
		s.markFailed(payload.ReportID, err)
		return err
	}

	relPath, err := s.storage.Save(filename, data)
	if err != nil {
		s.markFailed(payload.ReportID, err)
		return err
	}

	token, expiresAt, err := s.signer.Generate(payload.ReportID, relPath)
	if err != nil {
		s.markFailed(payload.ReportID, err)
		return err
	}

	now := time.Now()
	s.mu.Lock()
	if report, ok := s.jobs[payload.ReportID]; ok {
		report.Status = models.ReportCompleted
		report.FileName = filename
		report.DownloadURL = "/api/v1/reports/download/" + token
		report.ExpiresAt = &expiresAt
		report.CompletedAt = &now
		report.Error = ""
	}
	s.mu.Unlock()

	s.logger.Info("report rendered",
		zap.String("reportId", payload.ReportID),
		zap.String("format", string(payload.Format)),
		zap.String("file", filename))
	return nil
}

func (s *ReportService) markFailed(reportID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if report, ok := s.jobs[reportID]; ok {
		report.Status = models.ReportFailed
		report.Error = appErrors.FromError(err).Message
	}
}

func (s *ReportService) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := s.storage.CleanupOlderThan(s.cleanupInterval)
			if err != nil {
				s.logger.Warn("report cleanup failed", zap.Error(err))
				continue
			}
			if len(deleted) > 0 {
				s.logger.Info("expired report files removed", zap.Int("count", len(deleted)))
			}
		}
	}
}

func cloneReport(report *models.ReportJob) *models.ReportJob {
	clone := *report
	return &clone
}
