package service

import (
	"context"

	"guest-assistant-be/internal/dto"
	"guest-assistant-be/internal/pkg/logger"
	"guest-assistant-be/pkg/events"
	natsbus "guest-assistant-be/pkg/nats"
	"guest-assistant-be/pkg/retrieval"
	"guest-assistant-be/pkg/retrieval/compose"
)

type IAssistantService interface {
	SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	ResetSession(ctx context.Context, sessionID string) error
}

type assistantService struct {
	pipeline        *retrieval.Pipeline
	composer        *compose.Composer
	publisher       *natsbus.Publisher // nil when the event bus is unavailable
	historyMaxTurns int
	logger          logger.ILogger
}

func NewAssistantService(
	pipeline *retrieval.Pipeline,
	composer *compose.Composer,
	publisher *natsbus.Publisher,
	historyMaxTurns int,
	logger logger.ILogger,
) IAssistantService {
	return &assistantService{
		pipeline:        pipeline,
		composer:        composer,
		publisher:       publisher,
		historyMaxTurns: historyMaxTurns,
		logger:          logger,
	}
}

func (s *assistantService) SendMessage(ctx context.Context, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	result, err := s.pipeline.Answer(ctx, retrieval.AnswerInput{
		Question:         req.Message,
		SessionID:        req.SessionId,
		MaxContextChunks: req.MaxContextChunks,
	})
	if err != nil {
		return nil, err
	}

	// The pipeline already resolved (or minted) the session; the snapshot is
	// taken under the store lock so concurrent requests on the same session
	// cannot race an append.
	history := s.pipeline.Sessions().BoundedHistory(result.SessionID, s.historyMaxTurns)

	degraded := result.Curation.Degraded
	answer, err := s.composer.Compose(ctx, req.Message, &result.Intent, result.Curation, history)
	if err != nil {
		s.logger.Error("assistant", "Answer composition failed, serving fallback", map[string]interface{}{
			"session_id": result.SessionID,
			"error":      err.Error(),
		})
		answer = compose.FallbackAnswer(result.Curation)
		degraded = true
	}

	// The conversation must remember the exchange even when the answer came
	// from the cache or a degraded path.
	if err := s.pipeline.Sessions().AppendTurn(result.SessionID, req.Message, answer); err != nil {
		s.logger.Warn("assistant", "Failed to append conversation turn", map[string]interface{}{
			"session_id": result.SessionID,
			"error":      err.Error(),
		})
	}

	s.archiveTurns(ctx, result, req.Message, answer)

	res := &dto.SendMessageResponse{
		SessionId: result.SessionID,
		Answer:    answer,
		Intent: dto.IntentDTO{
			Type:       result.Intent.Type,
			Confidence: result.Intent.Confidence,
			Reasoning:  result.Intent.Reasoning,
		},
		Sources:            make([]dto.SourceDTO, 0, len(result.Curation.TopResults)),
		PerformanceMetrics: result.PerformanceMetrics,
		CacheHit:           result.CacheHit,
		Degraded:           degraded,
	}
	for _, r := range result.Curation.TopResults {
		res.Sources = append(res.Sources, dto.SourceDTO{
			Domain:      string(r.Result.Domain),
			Identity:    r.Result.IdentityKey,
			Score:       r.Score,
			WhyRelevant: r.WhyRelevant,
		})
	}

	return res, nil
}

func (s *assistantService) ResetSession(ctx context.Context, sessionID string) error {
	s.pipeline.Sessions().Delete(sessionID)
	s.logger.Info("assistant", "Session reset", map[string]interface{}{"session_id": sessionID})
	return nil
}

// archiveTurns emits one event per message of the exchange. Archiving is
// best-effort: the guest already has their answer.
func (s *assistantService) archiveTurns(ctx context.Context, result *retrieval.AnswerResult, question, answer string) {
	if s.publisher == nil {
		return
	}

	userEvent := events.NewChatTurnRecorded(result.SessionID, "user", question, nil)
	assistantEvent := events.NewChatTurnRecorded(result.SessionID, "assistant", answer, map[string]interface{}{
		"intent":    result.Intent.Type,
		"cache_hit": result.CacheHit,
	})

	for _, ev := range []events.BaseEvent{userEvent, assistantEvent} {
		if err := s.publisher.Publish(ctx, ev); err != nil {
			s.logger.Warn("assistant", "Failed to publish turn event", map[string]interface{}{
				"session_id": result.SessionID,
				"error":      err.Error(),
			})
			return
		}
	}
}
