package payout

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/gigguard/internal/benchmark"
	"github.com/zombor/gigguard/internal/parsing"
	"github.com/zombor/gigguard/internal/report"
	"github.com/zombor/gigguard/internal/scanning"
)

// ErrReportNotFound is returned when an archived evidence pack does not exist
var ErrReportNotFound = errors.New("report not found")

// IDGenerator generates unique IDs for evidence packs
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service analyzes payout receipts and keeps the audit trail
type Service struct {
	auditLog    AuditLog
	extractor   scanning.TextExtractor
	transcriber scanning.Transcriber
	storage     Storage
	registry    *benchmark.Registry
	metrics     *Metrics
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source.
// transcriber may be nil, in which case voice notes are never transcribed.
func NewService(auditLog AuditLog, extractor scanning.TextExtractor, transcriber scanning.Transcriber, storage Storage, registry *benchmark.Registry) *Service {
	return NewServiceWithDeps(auditLog, extractor, transcriber, storage, registry, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(auditLog AuditLog, extractor scanning.TextExtractor, transcriber scanning.Transcriber, storage Storage, registry *benchmark.Registry, idGen IDGenerator, timeSrc TimeSource) *Service {
	if registry == nil {
		registry = benchmark.DefaultRegistry()
	}
	return &Service{
		auditLog:    auditLog,
		extractor:   extractor,
		transcriber: transcriber,
		storage:     storage,
		registry:    registry,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// WithMetrics attaches metrics to the service
func (s *Service) WithMetrics(m *Metrics) *Service {
	s.metrics = m
	return s
}

// Registry returns the region models used for audits
func (s *Service) Registry() *benchmark.Registry {
	return s.registry
}

// ExtractText runs OCR on an image. Failures degrade to empty text.
func (s *Service) ExtractText(ctx context.Context, image Upload) string {
	if s.extractor == nil {
		return ""
	}
	text, err := s.extractor.ExtractText(ctx, image.Data, image.ContentType)
	if err != nil {
		slog.Error("Failed to extract text",
			"filename", image.Filename,
			"content_type", image.ContentType,
			"file_size", len(image.Data),
			"error", err,
		)
		s.metrics.IncrementFailure("ocr")
		return ""
	}
	return text
}

// AnalyzeReceipt extracts and parses the facts on a receipt image
func (s *Service) AnalyzeReceipt(ctx context.Context, image Upload) *Analysis {
	analysis := s.analyze(ctx, image)

	status := StatusSafe
	if analysis.Facts.PenaltyFlag {
		status = StatusUnfairPenalty
	}
	s.record(EventOCRScanComplete, status, analysis.Facts.TotalEarnings)

	return analysis
}

// AuditShadowBan scores a receipt's total earnings against the region's model.
// Unknown regions fall back to the default region.
func (s *Service) AuditShadowBan(ctx context.Context, image Upload, region string) *ShadowBanAudit {
	analysis := s.analyze(ctx, image)
	audit := s.score(analysis.Facts.TotalEarnings, region)

	status := StatusNormalVisibility
	if audit.IsShadowBanned {
		status = StatusHighRisk
	}
	s.record(EventShadowBanAudit, status, audit.YourEarnings)

	return &ShadowBanAudit{
		Analysis: *analysis,
		Audit:    audit,
	}
}

// GenerateEvidencePack builds and archives a PDF from a receipt image and an optional voice note
func (s *Service) GenerateEvidencePack(ctx context.Context, image Upload, audio *Upload) (*EvidencePack, error) {
	var (
		rawText    string
		transcript string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rawText = s.ExtractText(gctx, image)
		return nil
	})
	if audio != nil {
		g.Go(func() error {
			transcript = s.transcribe(gctx, *audio)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generating evidence pack: %w", err)
	}

	now := s.timeSource.Now()
	facts := parsing.ParseAt(rawText, now)
	s.metrics.ObserveParse(facts.PenaltyFlag)
	audit := s.score(facts.TotalEarnings, "")

	pdf, err := report.Render(report.Evidence{
		Facts:       facts,
		Audit:       &audit,
		Transcript:  transcript,
		Image:       image.Data,
		ImageType:   image.ContentType,
		GeneratedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering evidence pack: %w", err)
	}

	id := s.idGenerator.Generate()
	if s.storage != nil {
		if _, err := s.storage.Save(reportName(id), pdf); err != nil {
			// The caller still gets the PDF; only later retrieval is lost
			slog.Error("Failed to archive evidence pack", "id", id, "error", err)
			s.metrics.IncrementFailure("archive")
		}
	}

	status := StatusPDFCompiled
	if audio != nil {
		status = StatusPDFAudioCompiled
	}
	s.record(EventEvidencePackGenerated, status, facts.TotalEarnings)

	return &EvidencePack{
		ID:         id,
		PDF:        pdf,
		Facts:      facts,
		Audit:      audit,
		Transcript: transcript,
	}, nil
}

// GetReport returns an archived evidence pack
func (s *Service) GetReport(id string) ([]byte, error) {
	if _, err := uuid.Parse(id); err != nil || s.storage == nil {
		return nil, ErrReportNotFound
	}
	data, err := s.storage.Get(reportName(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReportNotFound, err)
	}
	return data, nil
}

// DeleteReport removes an archived evidence pack
func (s *Service) DeleteReport(id string) error {
	if _, err := uuid.Parse(id); err != nil || s.storage == nil {
		return ErrReportNotFound
	}
	if err := s.storage.Delete(reportName(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrReportNotFound
		}
		return fmt.Errorf("deleting report: %w", err)
	}
	return nil
}

// RecentLogs returns the newest audit trail entries
func (s *Service) RecentLogs(limit int) ([]*LogEntry, error) {
	entries, err := s.auditLog.Recent(limit)
	if err != nil {
		return nil, fmt.Errorf("listing audit logs: %w", err)
	}
	return entries, nil
}

func (s *Service) analyze(ctx context.Context, image Upload) *Analysis {
	rawText := s.ExtractText(ctx, image)
	facts := parsing.ParseAt(rawText, s.timeSource.Now())
	s.metrics.ObserveParse(facts.PenaltyFlag)
	return &Analysis{
		RawText: rawText,
		Facts:   facts,
	}
}

func (s *Service) score(earnings float64, region string) benchmark.AuditResult {
	if region != "" {
		if _, ok := s.registry.Model(region); !ok {
			slog.Warn("Unknown region, using default model", "region", region, "default", s.registry.Default())
		}
	}
	audit := s.registry.Score(earnings, region)
	s.metrics.ObserveAudit(audit.AuditStatus, audit.PercentileRank)
	return audit
}

// transcribe converts a voice note, replacing failures with a fixed notice
func (s *Service) transcribe(ctx context.Context, audio Upload) string {
	if s.transcriber == nil {
		return TranscriptionFailed
	}
	text, err := s.transcriber.Transcribe(ctx, audio.Data, audio.ContentType)
	if err != nil {
		slog.Error("Failed to transcribe audio",
			"filename", audio.Filename,
			"content_type", audio.ContentType,
			"file_size", len(audio.Data),
			"error", err,
		)
		s.metrics.IncrementFailure("transcription")
		return TranscriptionFailed
	}
	return text
}

// record appends to the audit trail. Failures are logged, never returned.
func (s *Service) record(event, status string, earnings float64) {
	if s.auditLog == nil {
		return
	}
	entry := &LogEntry{
		Timestamp: s.timeSource.Now(),
		Event:     event,
		Status:    status,
		Earnings:  earnings,
	}
	if err := s.auditLog.Append(entry); err != nil {
		slog.Error("Failed to write audit log", "event", event, "error", err)
		s.metrics.IncrementFailure("audit_log")
	}
}

func reportName(id string) string {
	return fmt.Sprintf("%s_evidence_pack.pdf", id)
}
