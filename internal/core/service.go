package core

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"
)

// DefaultJobRetention is how long a finished job stays queryable.
const DefaultJobRetention = 5 * time.Minute

// ServiceConfig holds the resource limits of a Service.
// Zero values select the package defaults.
type ServiceConfig struct {
	MaxFileSize   int64         // Upload size limit in bytes
	MaxConcurrent int           // Parallel processing runs
	MaxWaitTime   time.Duration // Wait for a processing slot before ErrTooManyUploads
	JobRetention  time.Duration // Lifetime of a finished job
}

// Service provides the core business logic for departmental file ingestion.
type Service struct {
	registry     *RuleRegistry
	store        *RecordStore
	limiter      *UploadLimiter
	maxFileSize  int64
	jobRetention time.Duration
	now          func() time.Time

	keyMu    sync.Mutex
	keyLocks map[string]*sync.Mutex // "{department}/{project}" -> run lock

	mu   sync.RWMutex
	jobs map[string]*activeJob
}

// NewService creates a Service over registry with an empty record store.
func NewService(registry *RuleRegistry, cfg ServiceConfig) *Service {
	if registry == nil {
		registry = NewRuleRegistry(nil)
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = MaxFileSize
	}
	if cfg.JobRetention <= 0 {
		cfg.JobRetention = DefaultJobRetention
	}

	return &Service{
		registry:     registry,
		store:        NewRecordStore(),
		limiter:      NewUploadLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		maxFileSize:  cfg.MaxFileSize,
		jobRetention: cfg.JobRetention,
		now:          time.Now,
		keyLocks:     make(map[string]*sync.Mutex),
		jobs:         make(map[string]*activeJob),
	}
}

// Registry returns the rule registry the service was built with.
func (s *Service) Registry() *RuleRegistry {
	return s.registry
}

// Limiter exposes the processing limiter for monitoring and shutdown drain.
func (s *Service) Limiter() *UploadLimiter {
	return s.limiter
}

// CategorizeFile guesses a category from the filename alone.
func (s *Service) CategorizeFile(filename string) Categorization {
	return CategorizeFile(filename)
}

// ProcessingRules lists the rules of a department, or all rules when
// department is empty.
func (s *Service) ProcessingRules(department string) []ProcessingRule {
	return s.registry.Rules(department)
}

// Departments lists department names in registration order.
func (s *Service) Departments() []string {
	return s.registry.Departments()
}

// ProcessFile reads, parses, validates and transforms an upload, then stores
// the resulting batch.
//
// Read, parse and rule resolution failures are returned and nothing is
// stored. Row-level problems never fail the file: they are recorded on each
// record and counted in the returned stats. onProgress may be nil.
//
// Waits for a processing slot first; ErrTooManyUploads when none frees up
// within the configured wait time.
func (s *Service) ProcessFile(ctx context.Context, upload Upload, department, project string, onProgress ProgressFunc) (ProcessingStats, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return ProcessingStats{}, err
	}
	defer s.limiter.Release()

	return s.processFile(ctx, upload, department, project, onProgress)
}

func (s *Service) processFile(ctx context.Context, upload Upload, department, project string, onProgress ProgressFunc) (ProcessingStats, error) {
	start := s.now()
	logger := loggerFrom(ctx).With(
		"file", upload.Name,
		"department", department,
		"project", project,
	)

	rule, rows, err := s.prepare(logger, upload, department, false)
	if err != nil {
		return ProcessingStats{}, err
	}

	unlock := s.lockKey(department, project)
	defer unlock()

	meta := RecordMeta{Department: department, Project: project, Source: upload.Name}
	records := make([]DataRecord, 0, len(rows))
	var stats ProcessingStats

	for i, row := range rows {
		if onProgress != nil {
			onProgress(int(math.Round(float64(i) / float64(len(rows)) * 100)))
		}

		rec, err := s.safeProcessRecord(row, rule, meta)
		if err != nil {
			logger.Error("row processing failed", "row", i+1, "error", err)
			stats.InvalidRecords++
			continue
		}

		records = append(records, rec)
		switch rec.ValidationStatus {
		case StatusValid:
			stats.ValidRecords++
		case StatusInvalid:
			stats.InvalidRecords++
		case StatusWarning:
			stats.WarningRecords++
		}
	}

	key := s.store.Put(department, project, s.now(), records)

	stats.TotalRecords = len(rows)
	stats.ProcessingTimeMs = s.now().Sub(start).Milliseconds()

	logger.Info("file processed",
		"rule", rule.ID,
		"batch", key,
		"total", stats.TotalRecords,
		"valid", stats.ValidRecords,
		"invalid", stats.InvalidRecords,
		"warning", stats.WarningRecords,
		"duration_ms", stats.ProcessingTimeMs,
	)

	return stats, nil
}

// prepare reads and parses the upload and selects its rule. With
// requireContent a blank file fails with ErrEmptyFile instead of yielding
// zero rows.
func (s *Service) prepare(logger *slog.Logger, upload Upload, department string, requireContent bool) (ProcessingRule, []*Fields, error) {
	contentType := upload.ContentType
	if contentType == "" {
		contentType = DetectContentType(upload.Name)
	}

	text, err := ReadFileContent(upload.Body, s.maxFileSize)
	if err != nil {
		logger.Warn("file read failed", "error", err)
		return ProcessingRule{}, nil, err
	}
	if requireContent && strings.TrimSpace(text) == "" {
		return ProcessingRule{}, nil, fmt.Errorf("%w: %s", ErrEmptyFile, upload.Name)
	}

	rows, err := ParseFileContent(text, contentType)
	if err != nil {
		logger.Warn("file parse failed", "content_type", contentType, "error", err)
		return ProcessingRule{}, nil, err
	}

	rule, ok := s.registry.FindRule(upload.Name, department)
	if !ok {
		return ProcessingRule{}, nil, fmt.Errorf("%w for file %s in department %s",
			ErrNoProcessingRule, upload.Name, department)
	}
	logger.Debug("processing rule selected", "rule", rule.ID, "rows", len(rows))

	return rule, rows, nil
}

// safeProcessRecord runs ProcessRecord, turning a panic into an error so one
// bad row cannot abort the batch.
func (s *Service) safeProcessRecord(row *Fields, rule ProcessingRule, meta RecordMeta) (rec DataRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()
	return ProcessRecord(row, rule, meta, s.now()), nil
}

// lockKey serializes runs that target the same department and project.
func (s *Service) lockKey(department, project string) func() {
	key := department + "/" + project

	s.keyMu.Lock()
	mu, ok := s.keyLocks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.keyLocks[key] = mu
	}
	s.keyMu.Unlock()

	mu.Lock()
	return mu.Unlock
}
