package badger

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// ProfileStorage implements the ProfileStorage interface for Badger
type ProfileStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProfileStorage creates a new ProfileStorage instance
func NewProfileStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProfileStorage {
	return &ProfileStorage{
		db:     db,
		logger: logger,
	}
}

// SaveProfile upserts a profile document keyed by CIK.
func (s *ProfileStorage) SaveProfile(profile *models.CompanyProfile) error {
	if profile.CIK == "" {
		return fmt.Errorf("profile CIK is required")
	}

	now := time.Now()
	if profile.CreatedAt.IsZero() {
		var existing models.CompanyProfile
		if err := s.db.Store().Get(profile.CIK, &existing); err == nil {
			profile.CreatedAt = existing.CreatedAt
		} else {
			profile.CreatedAt = now
		}
	}
	profile.UpdatedAt = now

	if err := s.db.Store().Upsert(profile.CIK, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

func (s *ProfileStorage) GetProfile(cik string) (*models.CompanyProfile, error) {
	var profile models.CompanyProfile
	if err := s.db.Store().Get(cik, &profile); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &profile, nil
}

func (s *ProfileStorage) ListProfiles(opts *interfaces.ListOptions) ([]*models.CompanyProfile, error) {
	query := badgerhold.Where("CIK").Ne("") // Select all

	if opts != nil {
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			query = query.Skip(opts.Offset)
		}
	}

	var profiles []models.CompanyProfile
	if err := s.db.Store().Find(&profiles, query); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	result := make([]*models.CompanyProfile, len(profiles))
	for i := range profiles {
		result[i] = &profiles[i]
	}
	return result, nil
}

func (s *ProfileStorage) DeleteProfile(cik string) error {
	if err := s.db.Store().Delete(cik, &models.CompanyProfile{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

func (s *ProfileStorage) CountProfiles() (int, error) {
	count, err := s.db.Store().Count(&models.CompanyProfile{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return int(count), nil
}
