package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/colligo/internal/models"
)

// ErrKeyNotFound is returned when a key/value pair does not exist.
var ErrKeyNotFound = errors.New("key not found")

// ErrProfileNotFound is returned when no profile exists for a CIK.
var ErrProfileNotFound = errors.New("profile not found")

// KeyValuePair represents a stored key/value setting.
type KeyValuePair struct {
	Key         string    `json:"key" badgerhold:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListOptions controls pagination for list queries.
type ListOptions struct {
	Limit  int
	Offset int
}

// ProfileStorage persists company profile documents keyed by CIK.
type ProfileStorage interface {
	SaveProfile(profile *models.CompanyProfile) error
	GetProfile(cik string) (*models.CompanyProfile, error)
	ListProfiles(opts *ListOptions) ([]*models.CompanyProfile, error)
	DeleteProfile(cik string) error
	CountProfiles() (int, error)
}

// RelationshipStorage persists the per-company relationship documents.
type RelationshipStorage interface {
	SaveRelationships(cik string, rels []models.Relationship) error
	GetRelationships(cik string) (*models.CompanyRelationships, error)
	ListByType(relType models.RelationshipType, limit int) ([]models.Relationship, error)
	DeleteRelationships(cik string) error
}

// KeyValueStorage manages persisted key/value settings.
type KeyValueStorage interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value, description string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]KeyValuePair, error)
	GetAll(ctx context.Context) (map[string]string, error)
}

// StorageManager aggregates all typed storages over one database.
type StorageManager interface {
	ProfileStorage() ProfileStorage
	RelationshipStorage() RelationshipStorage
	KeyValueStorage() KeyValueStorage
	Close() error
}
