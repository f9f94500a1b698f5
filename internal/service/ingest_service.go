package service

import (
	"context"
	"encoding/json"
	"log"

	"guest-assistant-be/internal/dto"
	"guest-assistant-be/internal/model"
	"guest-assistant-be/pkg/embedding"
	"guest-assistant-be/pkg/store"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type IIngestService interface {
	Enqueue(ctx context.Context, req *dto.IngestContentRequest) error
	Consume(ctx context.Context) error
}

type ingestService struct {
	pubSub            *gochannel.GoChannel
	topicName         string
	db                *gorm.DB
	embeddingProvider embedding.Provider
	dimsByDomain      map[store.Domain]int
}

func NewIngestService(
	pubSub *gochannel.GoChannel,
	topicName string,
	db *gorm.DB,
	embeddingProvider embedding.Provider,
	dimsByDomain map[store.Domain]int,
) IIngestService {
	return &ingestService{
		pubSub:            pubSub,
		topicName:         topicName,
		db:                db,
		embeddingProvider: embeddingProvider,
		dimsByDomain:      dimsByDomain,
	}
}

// Enqueue hands the item to the in-process bus; embedding happens off the
// request path.
func (s *ingestService) Enqueue(ctx context.Context, req *dto.IngestContentRequest) error {
	payload, err := json.Marshal(dto.EmbedContentMessage{
		Domain:   req.Domain,
		Identity: req.Identity,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		return err
	}

	return s.pubSub.Publish(s.topicName, message.NewMessage(watermill.NewUUID(), payload))
}

func (s *ingestService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *ingestService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.EmbedContentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // invalid payloads never become valid, do not retry
		return
	}

	domain := store.Domain(payload.Domain)
	dims, ok := s.dimsByDomain[domain]
	if !ok {
		log.Printf("[ERROR] No embedding tier for domain %q, dropping %s", payload.Domain, payload.Identity)
		msg.Ack()
		return
	}

	log.Printf("[INFO] Embedding %s/%s at %d dimensions", payload.Domain, payload.Identity, dims)

	res, err := s.embeddingProvider.Generate(ctx, payload.Content, embedding.TaskRetrievalDocument, dims)
	if err != nil {
		log.Printf("[ERROR] Failed to embed %s/%s: %v", payload.Domain, payload.Identity, err)
		msg.Nack()
		return
	}

	var metadata datatypes.JSON
	if len(payload.Metadata) > 0 {
		if raw, err := json.Marshal(payload.Metadata); err == nil {
			metadata = raw
		}
	}

	row := model.ContentEmbedding{
		Domain:     payload.Domain,
		Identity:   payload.Identity,
		Content:    payload.Content,
		Metadata:   metadata,
		Embedding:  pgvector.NewVector(res.Values),
		Dimensions: dims,
	}

	// Re-ingesting the same (domain, identity) replaces the previous row so
	// content updates propagate without a separate delete step.
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "domain"}, {Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content", "metadata", "embedding", "dimensions", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		log.Printf("[ERROR] Failed to store embedding for %s/%s: %v", payload.Domain, payload.Identity, err)
		msg.Nack()
		return
	}

	log.Printf("[SUCCESS] Indexed %s/%s", payload.Domain, payload.Identity)
	msg.Ack()
}
