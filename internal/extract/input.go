// -----------------------------------------------------------------------
// Extraction Input - shared data handed to every extraction task
// -----------------------------------------------------------------------

package extract

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/edgar"
	"github.com/ternarybob/colligo/internal/models"
)

// ContentFunc loads the primary document of a filing, typically through
// the filing cache.
type ContentFunc func(ctx context.Context, filing *models.Filing) (string, error)

// FactsFunc loads the XBRL company facts document for the subject company.
type FactsFunc func(ctx context.Context) (*edgar.CompanyFacts, error)

// Input carries everything an extraction task may need. Tasks read it,
// never mutate it; the filing slice is shared across all tasks of a run.
type Input struct {
	Info          models.CompanyInfo
	Filings       []models.Filing
	LookbackYears int
	Content       ContentFunc
	Facts         FactsFunc
	Logger        arbor.ILogger
}

// OfForm returns the filings whose form type matches one of the given
// prefixes, preserving order (newest first).
func (in *Input) OfForm(prefixes ...string) []models.Filing {
	var out []models.Filing
	for _, f := range in.Filings {
		for _, p := range prefixes {
			if strings.HasPrefix(f.FormType, p) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// OfExactForm returns the filings whose form type equals one of the
// given forms, amendments ("/A") included. Prefix matching would be
// wrong for single-character forms: "4" is a prefix of "424B5".
func (in *Input) OfExactForm(forms ...string) []models.Filing {
	var out []models.Filing
	for _, f := range in.Filings {
		base := strings.TrimSuffix(f.FormType, "/A")
		for _, form := range forms {
			if base == form {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// Latest returns the newest filing matching one of the form prefixes.
func (in *Input) Latest(prefixes ...string) (models.Filing, bool) {
	matches := in.OfForm(prefixes...)
	if len(matches) == 0 {
		return models.Filing{}, false
	}
	return matches[0], true
}

// load fetches filing content, returning "" on any error so callers can
// degrade to metadata-only extraction.
func (in *Input) load(ctx context.Context, filing *models.Filing) string {
	if in.Content == nil {
		return ""
	}
	content, err := in.Content(ctx, filing)
	if err != nil {
		if in.Logger != nil {
			in.Logger.Warn().
				Err(err).
				Str("cik", in.Info.CIK).
				Str("accession", filing.AccessionNumber).
				Msg("Failed to load filing content")
		}
		return ""
	}
	return content
}
