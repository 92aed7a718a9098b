package badger

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// RelationshipStorage implements the RelationshipStorage interface for Badger
type RelationshipStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRelationshipStorage creates a new RelationshipStorage instance
func NewRelationshipStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RelationshipStorage {
	return &RelationshipStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRelationships replaces the stored relationship document for a company.
func (s *RelationshipStorage) SaveRelationships(cik string, rels []models.Relationship) error {
	if cik == "" {
		return fmt.Errorf("CIK is required")
	}

	doc := models.GroupRelationships(cik, rels)
	if err := s.db.Store().Upsert(cik, doc); err != nil {
		return fmt.Errorf("failed to save relationships: %w", err)
	}

	s.logger.Debug().
		Str("cik", cik).
		Int("relationships", len(rels)).
		Msg("Saved relationship document")
	return nil
}

func (s *RelationshipStorage) GetRelationships(cik string) (*models.CompanyRelationships, error) {
	var doc models.CompanyRelationships
	if err := s.db.Store().Get(cik, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("relationships not found for CIK %s", cik)
		}
		return nil, fmt.Errorf("failed to get relationships: %w", err)
	}
	return &doc, nil
}

// ListByType collects relationships of one type across all companies.
func (s *RelationshipStorage) ListByType(relType models.RelationshipType, limit int) ([]models.Relationship, error) {
	var docs []models.CompanyRelationships
	if err := s.db.Store().Find(&docs, badgerhold.Where("CIK").Ne("")); err != nil {
		return nil, fmt.Errorf("failed to list relationship documents: %w", err)
	}

	var out []models.Relationship
	for _, doc := range docs {
		for _, r := range doc.ByType[relType] {
			out = append(out, r)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

func (s *RelationshipStorage) DeleteRelationships(cik string) error {
	if err := s.db.Store().Delete(cik, &models.CompanyRelationships{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete relationships: %w", err)
	}
	return nil
}
