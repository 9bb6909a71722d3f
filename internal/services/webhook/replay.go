package webhook

import (
	"context"
	"time"

	"paybridge/internal/domain/webhook"
	"paybridge/internal/store/repositories"

	"github.com/rs/zerolog/log"
)

// ReplayService refeeds logged authentic deliveries through the processor,
// e.g. after a storage incident dropped transitions. Safe because Handle is
// idempotent: already-terminal orders simply report no-op outcomes.
type ReplayService struct {
	deliveries repositories.DeliveryLog
	processor  *Processor
}

// NewReplayService creates a delivery replay service.
func NewReplayService(deliveries repositories.DeliveryLog, processor *Processor) *ReplayService {
	return &ReplayService{deliveries: deliveries, processor: processor}
}

// ReplayRequest selects which logged deliveries to reprocess.
type ReplayRequest struct {
	Since *time.Time `json:"since,omitempty"`
	Max   int        `json:"max,omitempty"`
}

// ReplayResponse summarises a replay run.
type ReplayResponse struct {
	Replayed int `json:"replayed"`
	Applied  int `json:"applied"`
}

// Replay reprocesses logged deliveries. Raw payloads were only logged after
// their signature verified, so they are replayed straight into the state
// machine with a freshly computed view of the order.
func (s *ReplayService) Replay(ctx context.Context, req ReplayRequest) (*ReplayResponse, error) {
	max := req.Max
	if max <= 0 || max > 1000 {
		max = 200
	}
	since := time.Time{}
	if req.Since != nil {
		since = *req.Since
	}

	list, err := s.deliveries.ListSince(ctx, since, max)
	if err != nil {
		return nil, err
	}

	resp := &ReplayResponse{}
	for _, d := range list {
		out, err := s.processor.replayDelivery(ctx, d)
		if err != nil {
			log.Error().Err(err).Int64("delivery_id", d.ID).Msg("replay: reprocess failed")
			continue
		}
		resp.Replayed++
		if out.Kind == webhook.OutcomeApplied {
			resp.Applied++
		}
	}
	return resp, nil
}
