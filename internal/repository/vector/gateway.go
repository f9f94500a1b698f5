package vector

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"guest-assistant-be/pkg/retrieval/search"
	"guest-assistant-be/pkg/store"
)

// One stored procedure per domain. Each procedure encapsulates its domain's
// table, identity scheme and tier filtering; the gateway only routes.
var procedureByDomain = map[store.Domain]string{
	store.DomainAccommodation: "match_accommodation_units",
	store.DomainTourism:       "match_tourism_content",
	store.DomainRegulatory:    "match_regulatory_docs",
}

// GormGateway invokes the per-domain similarity-search procedures through
// gorm. It implements search.Gateway.
type GormGateway struct {
	db *gorm.DB
}

var _ search.Gateway = &GormGateway{}

func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{db: db}
}

type matchRow struct {
	Identity   string
	Content    string
	Metadata   datatypes.JSON
	Similarity float64
}

// Search runs the domain's procedure. A threshold of 0.0 means no similarity
// floor; quality filtering is the curator's job.
func (g *GormGateway) Search(ctx context.Context, domain store.Domain, queryEmbedding []float32, threshold float64, count int) ([]store.CandidateResult, error) {
	procedure, ok := procedureByDomain[domain]
	if !ok {
		return nil, fmt.Errorf("no search procedure for domain %q", domain)
	}
	if count <= 0 {
		count = 4
	}

	var rows []matchRow
	err := g.db.WithContext(ctx).
		Raw(
			fmt.Sprintf("SELECT identity, content, metadata, similarity FROM %s(?, ?, ?)", procedure),
			pgvector.NewVector(queryEmbedding), threshold, count,
		).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", procedure, err)
	}

	candidates := make([]store.CandidateResult, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]interface{}
		if len(row.Metadata) > 0 {
			// Best effort: a malformed metadata blob is not worth losing
			// the candidate over.
			_ = json.Unmarshal(row.Metadata, &metadata)
		}
		candidates = append(candidates, store.CandidateResult{
			Domain:      domain,
			IdentityKey: row.Identity,
			Content:     row.Content,
			Metadata:    metadata,
			Similarity:  row.Similarity,
		})
	}

	return candidates, nil
}
