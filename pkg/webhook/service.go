package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danmuhq/danmuz/pkg/dispatch"
	"github.com/danmuhq/danmuz/pkg/logger"
	"github.com/danmuhq/danmuz/pkg/media"
	"github.com/danmuhq/danmuz/pkg/metadata"
	"github.com/danmuhq/danmuz/pkg/storage"
	"go.uber.org/zap"
)

// ErrMalformedPayload is the only failure a webhook sender ever sees. Senders
// do not retry on handler errors, so everything past JSON parsing degrades
// instead of failing.
var ErrMalformedPayload = errors.New("request body is not valid JSON")

// Enhancer enriches an identity's provider ids via the media-server API.
// Implementations are best-effort and return empty instead of erroring.
type Enhancer interface {
	Enhance(ctx context.Context, itemID, seriesID string) media.ProviderIDs
}

// Service turns webhook deliveries into queued search tasks.
type Service struct {
	enhancer  Enhancer
	submitter dispatch.Submitter
	// deliveries is optional; a nil store disables the delivery log.
	deliveries storage.DeliveryStorage
}

func NewService(enhancer Enhancer, submitter dispatch.Submitter, deliveries storage.DeliveryStorage) Service {
	return Service{
		enhancer:   enhancer,
		submitter:  submitter,
		deliveries: deliveries,
	}
}

// HandleEmby processes one Emby webhook delivery end to end: extract identity,
// enrich, merge, dispatch, record. Only an unparseable body returns an error.
func (s Service) HandleEmby(ctx context.Context, body []byte) error {
	log := logger.FromCtx(ctx)
	receivedAt := time.Now()

	var payload EmbyPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Debug("failed to parse emby webhook body", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	identity, skip := ExtractEmby(payload)
	if skip != "" {
		log.Info("ignoring emby webhook", zap.String("event", payload.Event), zap.String("reason", skip))
		s.record(ctx, storage.Delivery{
			Source:     SourceEmby,
			Event:      payload.Event,
			Outcome:    storage.OutcomeSkipped,
			Detail:     skip,
			ReceivedAt: receivedAt,
		})
		return nil
	}

	switch payload.Event {
	case "playback.start":
		log.Info("playback notification", zap.String("title", identity.Title), zap.String("keyword", identity.SearchKeyword()))
	default:
		log.Info("library notification", zap.String("title", identity.Title), zap.String("keyword", identity.SearchKeyword()))
	}

	enhanced := s.enhancer.Enhance(ctx, identity.ItemID, identity.SeriesID)
	merged := metadata.Merge(enhanced, identity.ProviderIDs)
	if merged.Empty() {
		log.Warn("no provider ids resolved, dispatching on title alone", zap.String("title", identity.Title))
	}

	task := dispatch.NewSearchTask(identity, merged, SourceEmby, payload.Event)

	delivery := storage.Delivery{
		Source:     SourceEmby,
		Event:      payload.Event,
		Outcome:    storage.OutcomeDispatched,
		Title:      identity.Title,
		Season:     identity.Season,
		Episode:    identity.Episode,
		TaskKey:    task.Key(),
		ReceivedAt: receivedAt,
	}

	if err := s.submitter.Submit(ctx, task); err != nil {
		// the sender cannot act on this, so it is absorbed here
		log.Error("failed to submit search task", zap.String("key", task.Key()), zap.Error(err))
		delivery.Outcome = storage.OutcomeFailed
		delivery.Detail = err.Error()
	}

	s.record(ctx, delivery)
	return nil
}

// record writes the delivery log entry. Best-effort: storage problems never
// affect webhook handling.
func (s Service) record(ctx context.Context, delivery storage.Delivery) {
	if s.deliveries == nil {
		return
	}

	if _, err := s.deliveries.CreateDelivery(ctx, delivery); err != nil {
		logger.FromCtx(ctx).Warn("failed to record webhook delivery", zap.Error(err))
	}
}
