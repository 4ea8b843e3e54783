package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/problem-tracker/internal/events"
)

// ActivityService reacts to domain events: authentication activity is written to the log and
// problem changes invalidate the cached dashboard stats.
type ActivityService struct {
	dispatcher events.Dispatcher
	cache      StatsCache
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, cache StatsCache, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		dispatcher: dispatcher,
		cache:      cache,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserSignedUp, a.handleAuthEvent)
	a.dispatcher.Subscribe(events.EventUserLoggedIn, a.handleAuthEvent)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleAuthEvent)
	a.dispatcher.Subscribe(events.EventUserSignedUp, a.handleStatsChange)
	a.dispatcher.Subscribe(events.EventProblemCreated, a.handleStatsChange)
	a.dispatcher.Subscribe(events.EventProblemUpdated, a.handleStatsChange)
	a.dispatcher.Subscribe(events.EventProblemDeleted, a.handleStatsChange)
}

func (a *ActivityService) handleAuthEvent(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event", string(event.Type)),
		zap.String("username", event.Actor.Username),
	}
	if event.Actor.UserID != "" {
		fields = append(fields, zap.String("user_id", event.Actor.UserID))
	}
	if payload, ok := event.Payload.(events.LoginFailedPayload); ok {
		fields = append(fields, zap.String("reason", payload.Reason))
		a.logger.Warn("authentication activity", fields...)
		return nil
	}
	a.logger.Info("authentication activity", fields...)
	return nil
}

func (a *ActivityService) handleStatsChange(ctx context.Context, event events.Event) error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Invalidate(ctx)
}
