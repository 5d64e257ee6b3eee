package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/velstore/stockpulse/internal/cache"
	"github.com/velstore/stockpulse/internal/domain"
	"github.com/velstore/stockpulse/internal/repository"
)

type MetricsService struct {
	repo          repository.MetricsRepository
	cache         cache.MetricsCache
	overviewCache cache.OverviewCache
}

func NewMetricsService(repo repository.MetricsRepository, metricsCache cache.MetricsCache, overviewCache cache.OverviewCache) *MetricsService {
	if metricsCache == nil {
		metricsCache = cache.NewNoopMetricsCache()
	}
	if overviewCache == nil {
		overviewCache = cache.NewNoopOverviewCache()
	}
	return &MetricsService{repo: repo, cache: metricsCache, overviewCache: overviewCache}
}

func (s *MetricsService) Scores(ctx context.Context, filter domain.MetricsFilter) (*domain.ScorePage, error) {
	if page, ok, err := s.cache.GetScores(ctx, filter); err == nil && ok {
		return page, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("metrics: cache get scores failed")
	}

	page, err := s.repo.Scores(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetScores(ctx, filter, page); err != nil {
		log.Warn().Err(err).Msg("metrics: cache set scores failed")
	}

	return page, nil
}

func (s *MetricsService) Gaps(ctx context.Context, filter domain.MetricsFilter) (*domain.GapPage, error) {
	if page, ok, err := s.cache.GetGaps(ctx, filter); err == nil && ok {
		return page, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("metrics: cache get gaps failed")
	}

	page, err := s.repo.Gaps(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetGaps(ctx, filter, page); err != nil {
		log.Warn().Err(err).Msg("metrics: cache set gaps failed")
	}

	return page, nil
}

func (s *MetricsService) Coefficients(ctx context.Context, filter domain.MetricsFilter) (*domain.CoefficientPage, error) {
	if page, ok, err := s.cache.GetCoefficients(ctx, filter); err == nil && ok {
		return page, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("metrics: cache get coefficients failed")
	}

	page, err := s.repo.Coefficients(ctx, filter)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetCoefficients(ctx, filter, page); err != nil {
		log.Warn().Err(err).Msg("metrics: cache set coefficients failed")
	}

	return page, nil
}

// Directives projects coefficient rows into the instruction lines the
// planning system executes. Same rows, narrower view, shared cache.
func (s *MetricsService) Directives(ctx context.Context, filter domain.MetricsFilter) (*domain.DirectivePage, error) {
	page, err := s.Coefficients(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]domain.DirectiveRow, len(page.Items))
	for i, c := range page.Items {
		items[i] = domain.DirectiveRow{
			ProductID: c.ProductID,
			K:         c.K,
			Directive: c.Directive,
		}
	}

	return &domain.DirectivePage{
		Items:      items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

func (s *MetricsService) Overview(ctx context.Context) (*domain.MetricsOverview, error) {
	if overview, ok, err := s.overviewCache.GetOverview(ctx); err == nil && ok {
		return overview, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("metrics: cache get overview failed")
	}

	overview, err := s.repo.Overview(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.overviewCache.SetOverview(ctx, overview); err != nil {
		log.Warn().Err(err).Msg("metrics: cache set overview failed")
	}

	return overview, nil
}
