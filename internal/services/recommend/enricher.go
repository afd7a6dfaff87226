package recommend

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tavolo/internal/interfaces"
	"github.com/ternarybob/tavolo/internal/models"
)

// DefaultEnrichWorkers bounds concurrent detail fetches against the
// place source.
const DefaultEnrichWorkers = 6

// Enricher fetches full detail for each candidate concurrently. One
// candidate's failure never aborts the batch; the failed candidate is
// logged and dropped.
type Enricher struct {
	geo     interfaces.GeoService
	logger  arbor.ILogger
	workers int
}

// NewEnricher creates a detail enricher
func NewEnricher(geo interfaces.GeoService, logger arbor.ILogger, workers int) *Enricher {
	if workers <= 0 {
		workers = DefaultEnrichWorkers
	}
	return &Enricher{
		geo:     geo,
		logger:  logger,
		workers: workers,
	}
}

// Enrich fan-outs GetDetail over the candidates with bounded
// parallelism and returns the successful subset in input order. On
// context cancellation it returns ctx.Err() and no partial list.
func (e *Enricher) Enrich(ctx context.Context, stubs []models.PlaceStub) ([]models.PlaceDetail, error) {
	if len(stubs) == 0 {
		return []models.PlaceDetail{}, nil
	}

	// Indexed slots keep the output in input order regardless of
	// completion order.
	slots := make([]*models.PlaceDetail, len(stubs))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)

	for i, stub := range stubs {
		wg.Add(1)
		go func(i int, stub models.PlaceStub) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			detail, err := e.geo.GetDetail(ctx, stub.PlaceID)
			if err != nil {
				if ctx.Err() == nil {
					e.logger.Warn().Err(err).Str("place_id", stub.PlaceID).Str("name", stub.Name).Msg("Detail lookup failed, dropping candidate")
				}
				return
			}
			slots[i] = detail
		}(i, stub)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	details := make([]models.PlaceDetail, 0, len(stubs))
	for _, detail := range slots {
		if detail != nil {
			details = append(details, *detail)
		}
	}

	e.logger.Debug().Int("requested", len(stubs)).Int("enriched", len(details)).Msg("Enrichment complete")
	return details, nil
}
