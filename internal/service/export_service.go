package service

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smallsteps/kindergarten-api/internal/dto"
	"github.com/smallsteps/kindergarten-api/internal/models"
	appErrors "github.com/smallsteps/kindergarten-api/pkg/errors"
	"github.com/smallsteps/kindergarten-api/pkg/export"
	"github.com/smallsteps/kindergarten-api/pkg/jobs"
	"github.com/smallsteps/kindergarten-api/pkg/storage"
)

type templateViewer interface {
	Template(ctx context.Context, className, schoolYear string) (*dto.ClassWeeklySchedule, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	RenderGrid(data export.Dataset, title string) ([]byte, error)
}

// Export job lifecycle statuses.
const (
	ExportStatusQueued    = "queued"
	ExportStatusCompleted = "completed"
	ExportStatusFailed    = "failed"
)

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	Workers   int
	ResultTTL time.Duration
}

// ExportService renders stored weekly templates to CSV or PDF in the
// background and hands out signed download URLs.
type ExportService struct {
	templates templateViewer
	storage   fileStorage
	csv       csvRenderer
	pdf       pdfRenderer
	signer    *storage.SignedURLSigner
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	cfg       ExportConfig

	queue *jobs.Queue
	state sync.Map // jobID -> *dto.ExportJobResponse
}

// NewExportService constructs an ExportService with its worker queue. Call
// Start before enqueueing and Stop on shutdown.
func NewExportService(
	templates templateViewer,
	fileStore fileStorage,
	signer *storage.SignedURLSigner,
	cfg ExportConfig,
	validate *validator.Validate,
	logger *zap.Logger,
	metrics *MetricsService,
) *ExportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	s := &ExportService{
		templates: templates,
		storage:   fileStore,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		signer:    signer,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		cfg:       cfg,
	}
	s.queue = jobs.NewQueue("timetable-export", s.process, jobs.QueueConfig{
		Workers: cfg.Workers,
		Logger:  logger,
	})
	return s
}

// Start launches the export workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the export workers.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Enqueue accepts an export request and returns its queued job handle.
func (s *ExportService) Enqueue(ctx context.Context, req dto.ExportTimetableRequest) (*dto.ExportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}

	// Fail fast on a missing template instead of queueing a doomed job.
	if _, err := s.templates.Template(ctx, req.ClassName, req.SchoolYear); err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	record := &dto.ExportJobResponse{JobID: jobID, Status: ExportStatusQueued}
	s.state.Store(jobID, record)

	if err := s.queue.Enqueue(jobs.Job{ID: jobID, Type: "timetable-export", Payload: req}); err != nil {
		s.state.Delete(jobID)
		return nil, fmt.Errorf("enqueue export: %w", err)
	}
	return record, nil
}

// Status returns the current state of an export job.
func (s *ExportService) Status(jobID string) (*dto.ExportJobResponse, error) {
	value, ok := s.state.Load(jobID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("export job %s not found", jobID))
	}
	return value.(*dto.ExportJobResponse), nil
}

func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.ExportTimetableRequest)
	if !ok {
		s.fail(job.ID, "invalid export payload")
		return nil
	}

	schedule, err := s.templates.Template(ctx, req.ClassName, req.SchoolYear)
	if err != nil {
		s.fail(job.ID, err.Error())
		s.metrics.RecordExport(req.Format, err)
		return err
	}

	dataset := buildWeekDataset(schedule)
	title := fmt.Sprintf("Weekly Timetable %s (%s)", req.ClassName, req.SchoolYear)

	var payload []byte
	switch req.Format {
	case dto.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case dto.ExportFormatPDF:
		payload, err = s.pdf.RenderGrid(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", req.Format)
	}
	if err != nil {
		s.fail(job.ID, err.Error())
		return err
	}

	filename := exportFilename(req)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		s.fail(job.ID, err.Error())
		return err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		s.fail(job.ID, err.Error())
		return err
	}

	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.state.Store(job.ID, &dto.ExportJobResponse{
		JobID:     job.ID,
		Status:    ExportStatusCompleted,
		URL:       fmt.Sprintf("%s/export/%s", prefix, token),
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
	s.metrics.RecordExport(req.Format, nil)
	s.logger.Info("export completed",
		zap.String("job_id", job.ID),
		zap.String("class", req.ClassName),
		zap.String("format", req.Format))
	return nil
}

func (s *ExportService) fail(jobID, reason string) {
	s.state.Store(jobID, &dto.ExportJobResponse{
		JobID:  jobID,
		Status: ExportStatusFailed,
		Error:  reason,
	})
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes rendered files older than the result TTL.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.storage.CleanupOlderThan(s.cfg.ResultTTL)
}

// buildWeekDataset lays a merged week out as a grid: one row per distinct
// time slot, one column per weekday. Fixed activities are marked inline.
func buildWeekDataset(schedule *dto.ClassWeeklySchedule) export.Dataset {
	weekdays := models.WeekdayNames()
	headers := make([]string, 0, len(weekdays)+1)
	headers = append(headers, "Time")
	headers = append(headers, weekdays[:]...)

	cellsByTime := make(map[string]map[string]string)
	for _, weekday := range weekdays {
		for _, slot := range schedule.Days[weekday] {
			cells, ok := cellsByTime[slot.TimeSlot]
			if !ok {
				cells = map[string]string{"Time": slot.TimeSlot}
				cellsByTime[slot.TimeSlot] = cells
			}
			label := slot.Name
			if slot.Fixed {
				label += " *"
			}
			cells[weekday] = label
		}
	}

	times := make([]string, 0, len(cellsByTime))
	for timeSlot := range cellsByTime {
		times = append(times, timeSlot)
	}
	sort.Slice(times, func(i, j int) bool {
		return slotStartKey(times[i]) < slotStartKey(times[j])
	})

	rows := make([]map[string]string, 0, len(times))
	for _, timeSlot := range times {
		rows = append(rows, cellsByTime[timeSlot])
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func exportFilename(req dto.ExportTimetableRequest) string {
	class := strings.ReplaceAll(strings.ToLower(req.ClassName), " ", "-")
	year := strings.ReplaceAll(req.SchoolYear, "/", "-")
	return fmt.Sprintf("timetables/%s-%s-%d.%s", class, year, time.Now().UTC().Unix(), req.Format)
}
