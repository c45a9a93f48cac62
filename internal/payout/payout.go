package payout

import (
	"time"

	"github.com/zombor/gigguard/internal/benchmark"
	"github.com/zombor/gigguard/internal/parsing"
)

// Audit trail event names
const (
	EventOCRScanComplete       = "OCR_SCAN_COMPLETE"
	EventEvidencePackGenerated = "EVIDENCE_PACK_GENERATED"
	EventShadowBanAudit        = "SHADOW_BAN_AUDIT"
)

// Audit trail status labels
const (
	StatusUnfairPenalty    = "UNFAIR PENALTY"
	StatusSafe             = "SAFE"
	StatusPDFAudioCompiled = "PDF + AUDIO COMPILED"
	StatusPDFCompiled      = "PDF COMPILED"
	StatusHighRisk         = "HIGH RISK DETECTED"
	StatusNormalVisibility = "NORMAL VISIBILITY"
)

// TranscriptionFailed replaces the transcript when a voice note cannot be transcribed
const TranscriptionFailed = "Audio evidence provided but transcription failed (Background noise or unsupported format)."

// LogEntry is one record in the audit trail
type LogEntry struct {
	ID        uint64    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Event     string    `json:"event"`
	Status    string    `json:"status"`
	Earnings  float64   `json:"earnings"`
}

// Upload is a file received from a client
type Upload struct {
	Filename    string
	Data        []byte
	ContentType string
}

// Analysis is the parsed result of one receipt image
type Analysis struct {
	RawText string               `json:"raw_text"`
	Facts   parsing.ReceiptFacts `json:"analysis"`
}

// ShadowBanAudit is a receipt analysis scored against a regional model
type ShadowBanAudit struct {
	Analysis
	Audit benchmark.AuditResult `json:"audit"`
}

// EvidencePack is a generated PDF report and the facts it was built from
type EvidencePack struct {
	ID         string                `json:"id"`
	PDF        []byte                `json:"-"`
	Facts      parsing.ReceiptFacts  `json:"analysis"`
	Audit      benchmark.AuditResult `json:"audit"`
	Transcript string                `json:"transcript,omitempty"`
}
