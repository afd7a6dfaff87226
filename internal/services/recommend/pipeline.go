package recommend

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/tavolo/internal/common"
	"github.com/ternarybob/tavolo/internal/interfaces"
	"github.com/ternarybob/tavolo/internal/models"
)

// Pipeline composes retrieval, enrichment, scoring, and selection into
// the two supported search entry points. Each invocation builds its own
// candidate state; the pipeline itself holds only long-lived service
// handles and is safe for concurrent use.
type Pipeline struct {
	intent      interfaces.IntentService
	retriever   *Retriever
	enricher    *Enricher
	ranker      interfaces.RelevanceRanker
	logger      arbor.ILogger
	outputCap   int
	modelWeight float64
}

// NewPipeline creates the recommendation pipeline
func NewPipeline(
	geo interfaces.GeoService,
	intent interfaces.IntentService,
	ranker interfaces.RelevanceRanker,
	config common.PipelineConfig,
	logger arbor.ILogger,
) interfaces.RecommendService {
	if ranker == nil {
		ranker = DeterministicRanker{}
	}
	outputCap := config.OutputCap
	if outputCap <= 0 {
		outputCap = DefaultOutputCap
	}

	return &Pipeline{
		intent:      intent,
		retriever:   NewRetriever(geo, logger, config.CandidateCap),
		enricher:    NewEnricher(geo, logger, config.EnrichWorkers),
		ranker:      ranker,
		logger:      logger,
		outputCap:   outputCap,
		modelWeight: config.ModelWeight,
	}
}

// SearchByPreferences runs the structured-preference path: retrieve,
// enrich, deterministic scoring, select.
func (p *Pipeline) SearchByPreferences(ctx context.Context, pref models.PreferenceQuery, origin models.Coordinates) ([]models.Recommendation, error) {
	return p.run(ctx, pref.Normalized(), origin, false)
}

// SearchByFreeText runs the natural-language path: parse the text into
// a preference (degrading to defaults on parse failure), then run the
// pipeline with model-assisted ranking over the enriched set.
func (p *Pipeline) SearchByFreeText(ctx context.Context, freeText string, origin models.Coordinates) ([]models.Recommendation, error) {
	pref, parsed := p.intent.ParsePreferences(ctx, freeText)
	if !parsed {
		p.logger.Info().Msg("Free-text parse degraded to defaults, searching with default preferences")
	}
	return p.run(ctx, pref, origin, true)
}

func (p *Pipeline) run(ctx context.Context, pref models.PreferenceQuery, origin models.Coordinates, modelAssisted bool) ([]models.Recommendation, error) {
	requestID := uuid.New().String()
	log := p.logger.WithCorrelationId(requestID)
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stubs, err := p.retriever.Retrieve(ctx, pref, origin)
	if err != nil {
		// Cancellation during retrieval surfaces as the context error,
		// not as a place-source failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Warn().Err(err).Msg("Candidate retrieval failed")
		return nil, err
	}
	if len(stubs) == 0 {
		log.Info().Msg("No candidates near origin")
		return []models.Recommendation{}, nil
	}

	details, err := p.enricher.Enrich(ctx, stubs)
	if err != nil {
		return nil, err
	}

	scorable := details[:0:0]
	for i := range details {
		if details[i].PermanentlyClosed() {
			log.Debug().Str("place_id", details[i].PlaceID).Msg("Excluding permanently closed place")
			continue
		}
		scorable = append(scorable, details[i])
	}
	if len(scorable) == 0 {
		log.Info().Int("candidates", len(stubs)).Msg("No candidates survived enrichment")
		return []models.Recommendation{}, nil
	}

	var judgments map[string]models.ModelJudgment
	if modelAssisted {
		judgments = p.ranker.Rank(ctx, pref, scorable)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	recs := make([]models.Recommendation, 0, len(scorable))
	for i := range scorable {
		var judgment *models.ModelJudgment
		if j, ok := judgments[scorable[i].PlaceID]; ok {
			judgment = &j
		}
		recs = append(recs, Score(&scorable[i], pref, judgment, p.modelWeight))
	}

	selected := Select(recs, p.outputCap)

	log.Info().
		Int("candidates", len(stubs)).
		Int("enriched", len(details)).
		Int("returned", len(selected)).
		Str("duration", time.Since(start).String()).
		Msg("Recommendation search complete")

	return selected, nil
}
