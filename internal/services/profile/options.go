package profile

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/colligo/internal/common"
)

var validate = validator.New()

// GenerateOptions controls one profile generation run.
type GenerateOptions struct {
	// LookbackYears bounds the filing window. Zero means the configured
	// default.
	LookbackYears int `validate:"gte=0,lte=30"`

	// ExtractRelationships enables the relationship task.
	ExtractRelationships bool

	// SkipRelationshipsForSpeed omits the relationship task even when
	// extraction is enabled. It exists so batch runs can trade graph
	// completeness for latency without touching configuration.
	SkipRelationshipsForSpeed bool

	// RelationshipTimeout overrides the configured relationship task
	// timeout for this run. Zero keeps the configured value.
	RelationshipTimeout time.Duration `validate:"gte=0"`
}

// DefaultGenerateOptions builds options from configuration.
func DefaultGenerateOptions(cfg *common.Config) *GenerateOptions {
	return &GenerateOptions{
		LookbackYears:        cfg.Profile.LookbackYears,
		ExtractRelationships: cfg.Profile.ExtractRelationships,
	}
}

// normalize validates the options and fills unset fields from config.
func (o *GenerateOptions) normalize(cfg *common.Config) error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("invalid generate options: %w", err)
	}
	if o.LookbackYears == 0 {
		o.LookbackYears = cfg.Profile.LookbackYears
	}
	return nil
}

// relationshipsEnabled reports whether the relationship task runs.
func (o *GenerateOptions) relationshipsEnabled() bool {
	return o.ExtractRelationships && !o.SkipRelationshipsForSpeed
}
