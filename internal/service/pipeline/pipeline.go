// Package pipeline sequences a conversation upload end-to-end: transcribe,
// extract insight, create the Lead, attach the Note.
package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sales-conversation-service/internal/events"
	"sales-conversation-service/internal/models"
	"sales-conversation-service/internal/observability/logging"
	"sales-conversation-service/internal/observability/metrics"
	"sales-conversation-service/internal/service/insight"
	"sales-conversation-service/internal/service/stt"
)

const (
	noteTitle = "Conversation Suggestions"

	eventTypeIngested = "crm.conversation.ingested"
)

// Pipeline stage names, used for metrics and failure reporting.
const (
	StageTranscribe = "transcribe"
	StageAnalyze    = "analyze"
	StageSuggest    = "suggest"
	StageLead       = "create_lead"
	StageNote       = "create_note"
)

// RecordWriter is the slice of the CRM client the pipeline needs.
type RecordWriter interface {
	Create(ctx context.Context, objectType string, fields map[string]any) (map[string]any, error)
	CreateNote(ctx context.Context, parentID, title, body string) (map[string]any, error)
}

// LeadMapper builds the Lead field map from the extracted insight text.
type LeadMapper func(insightText string) map[string]any

// DefaultLeadMapper fills the CRM-required LastName/Company from configured
// defaults and derives only Description from the conversation.
func DefaultLeadMapper(lastName, company string) LeadMapper {
	return func(insightText string) map[string]any {
		return map[string]any{
			"LastName":    lastName,
			"Company":     company,
			"Description": insightText,
		}
	}
}

// Result is the successful outcome of one upload, carrying the raw CRM
// create responses alongside the generated suggestions.
type Result struct {
	ConversationID     string
	SalesforceResponse map[string]any
	NoteResponse       map[string]any
	Suggestions        string
}

// StageError reports which stage failed. The wrapped error is the stage's
// failure, unmodified.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Pipeline orchestrates the four stages for one uploaded recording.
type Pipeline struct {
	transcriber stt.Transcriber
	extractor   insight.Extractor
	crm         RecordWriter
	leadMapper  LeadMapper
	publisher   *events.Publisher
	metrics     *metrics.Metrics
}

// New creates a pipeline over the given collaborators.
func New(transcriber stt.Transcriber, extractor insight.Extractor, crm RecordWriter, leadMapper LeadMapper, publisher *events.Publisher) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		extractor:   extractor,
		crm:         crm,
		leadMapper:  leadMapper,
		publisher:   publisher,
		metrics:     metrics.DefaultMetrics,
	}
}

// Run processes one uploaded recording. Stages execute strictly in order;
// the first failure short-circuits the rest and propagates as a StageError.
//
// Lead creation commits independently of note creation: if the note create
// fails, the Lead already persists in the CRM and the caller sees only the
// error. An empty transcript is not a failure; it flows into both
// language-model calls as-is.
func (p *Pipeline) Run(ctx context.Context, audio []byte) (*Result, error) {
	conversationID := uuid.NewString()
	logger := logging.WithConversation(conversationID)

	p.metrics.UploadsTotal.Inc()
	p.metrics.UploadsActive.Inc()
	defer p.metrics.UploadsActive.Dec()
	p.metrics.AudioBytesReceived.Add(float64(len(audio)))

	logger.Info().Int("audioBytes", len(audio)).Msg("Conversation received")

	transcript, err := p.timed(StageTranscribe, func() (string, error) {
		return p.transcriber.Transcribe(ctx, audio)
	})
	if err != nil {
		return nil, p.fail(logger, StageTranscribe, err)
	}
	p.metrics.TranscriptionsTotal.Inc()
	if transcript == "" {
		p.metrics.TranscriptionsEmpty.Inc()
		logger.Warn().Msg("Transcription returned no results, continuing with empty transcript")
	}

	insightText, err := p.timed(StageAnalyze, func() (string, error) {
		return p.extractor.AnalyzeConversation(ctx, transcript)
	})
	if err != nil {
		return nil, p.fail(logger, StageAnalyze, err)
	}

	suggestions, err := p.timed(StageSuggest, func() (string, error) {
		return p.extractor.GenerateSuggestions(ctx, transcript)
	})
	if err != nil {
		return nil, p.fail(logger, StageSuggest, err)
	}

	leadStart := time.Now()
	leadResp, err := p.crm.Create(ctx, "Lead", p.leadMapper(insightText))
	p.metrics.PipelineLatency.WithLabelValues(StageLead).Observe(time.Since(leadStart).Seconds())
	if err != nil {
		return nil, p.fail(logger, StageLead, err)
	}
	leadID, _ := leadResp["id"].(string)
	logger.Info().Str("leadId", leadID).Msg("Lead created")

	noteStart := time.Now()
	noteResp, err := p.crm.CreateNote(ctx, leadID, noteTitle, suggestions)
	p.metrics.PipelineLatency.WithLabelValues(StageNote).Observe(time.Since(noteStart).Seconds())
	if err != nil {
		// The Lead above already committed; only the note is absent.
		return nil, p.fail(logger, StageNote, err)
	}
	noteID, _ := noteResp["id"].(string)

	p.metrics.UploadsSuccess.Inc()
	logger.Info().Str("noteId", noteID).Msg("Conversation ingested")

	ev := models.ConversationIngested{
		EventType:       eventTypeIngested,
		ConversationID:  conversationID,
		LeadID:          leadID,
		NoteID:          noteID,
		TranscriptChars: len(transcript),
		Timestamp:       time.Now().UnixMilli(),
	}
	if err := p.publisher.PublishIngested(ctx, conversationID, ev); err != nil {
		// Event delivery is best effort; the CRM writes already happened.
		logger.Error().Err(err).Msg("Failed to publish ingestion event")
	}

	return &Result{
		ConversationID:     conversationID,
		SalesforceResponse: leadResp,
		NoteResponse:       noteResp,
		Suggestions:        suggestions,
	}, nil
}

func (p *Pipeline) timed(stage string, fn func() (string, error)) (string, error) {
	start := time.Now()
	out, err := fn()
	p.metrics.PipelineLatency.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	return out, err
}

func (p *Pipeline) fail(logger zerolog.Logger, stage string, err error) error {
	p.metrics.UploadsFailed.WithLabelValues(stage).Inc()
	logger.Error().Err(err).Str("stage", stage).Msg("Pipeline stage failed")
	return &StageError{Stage: stage, Err: err}
}
