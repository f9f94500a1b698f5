package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// ContentEmbedding is one searchable item of one domain. Dimensions records
// the tier the vector was generated at; the per-domain match_* procedures
// filter on it so a fast-tier query never compares against full-tier rows.
type ContentEmbedding struct {
	Id         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Domain     string          `gorm:"type:varchar(32);not null;index:idx_content_domain_identity,unique"`
	Identity   string          `gorm:"type:varchar(255);not null;index:idx_content_domain_identity,unique"`
	Content    string          `gorm:"type:text"`
	Metadata   datatypes.JSON  `gorm:"type:jsonb"`
	Embedding  pgvector.Vector `gorm:"type:vector"`
	Dimensions int             `gorm:"not null"`
	CreatedAt  time.Time       `gorm:"autoCreateTime"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime"`
}

func (ContentEmbedding) TableName() string {
	return "content_embeddings"
}
