package overview

import (
	"context"
	"fmt"
	"time"

	"github.com/networth-app/networth/internal/common"
	"github.com/networth-app/networth/internal/interfaces"
	"github.com/networth-app/networth/internal/models"
)

// historyYears is how far back the transaction window reaches.
const historyYears = 2

// Service implements OverviewService
type Service struct {
	storage  interfaces.StorageManager
	provider interfaces.ProviderClient
	logger   *common.Logger

	now             func() time.Time
	pageSize        int
	maxReadyRetries int
}

// NewService creates a new overview service
func NewService(storage interfaces.StorageManager, provider interfaces.ProviderClient, logger *common.Logger) *Service {
	return &Service{
		storage:  storage,
		provider: provider,
		logger:   logger,
		now:      time.Now,
		pageSize: 100,
	}
}

// SetMaxReadyRetries caps readiness retries per page fetch. Zero keeps the
// provider's eventual-success contract (unbounded).
func (s *Service) SetMaxReadyRetries(n int) {
	s.maxReadyRetries = n
}

// GetOverview aggregates every institution linked by the user into a
// single overview and derives the net-worth history from the result.
//
// Institutions are aggregated one at a time. A stale credential only
// excludes that institution (its entry carries the reauth error tag); any
// other provider failure aborts the call with no partial result. The
// net-worth series is computed only when at least one institution produced
// usable data.
func (s *Service) GetOverview(ctx context.Context, userID string) (*models.PortfolioOverview, error) {
	institutions, err := s.storage.InstitutionStore().GetInstitutionsByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load linked institutions: %w", err)
	}

	overview := &models.PortfolioOverview{
		Institutions: make([]models.InstitutionOverview, 0, len(institutions)),
		NetWorths:    []models.NetWorthPoint{},
	}

	usable := false
	for _, inst := range institutions {
		result, err := s.aggregateInstitution(ctx, inst)
		if err != nil {
			return nil, err
		}
		if result.Error == "" {
			usable = true
		}
		overview.Institutions = append(overview.Institutions, *result)
	}

	if usable {
		overview.NetWorths = DeriveNetWorth(overview.Institutions, s.today())
	}

	s.logger.Debug().
		Str("user", userID).
		Int("institutions", len(overview.Institutions)).
		Int("points", len(overview.NetWorths)).
		Msg("Overview assembled")

	return overview, nil
}

// today returns the current UTC date as "YYYY-MM-DD".
func (s *Service) today() string {
	return s.now().UTC().Format("2006-01-02")
}

// dateRange returns the transaction window: two years back through today.
func (s *Service) dateRange() (start, end string) {
	now := s.now().UTC()
	return now.AddDate(-historyYears, 0, 0).Format("2006-01-02"), now.Format("2006-01-02")
}

// Ensure Service implements OverviewService
var _ interfaces.OverviewService = (*Service)(nil)
