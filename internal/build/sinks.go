package build

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/sitebuilder/internal/events"
	"git.home.luguber.info/inful/sitebuilder/internal/history"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// Record converts the report into a history record.
func (r *Report) Record(configHash string) history.Record {
	rec := history.Record{
		BuildID:    r.BuildID,
		StartedAt:  r.StartTime,
		Duration:   r.Duration,
		Outcome:    string(r.Status),
		Resources:  r.Resources,
		Bytes:      r.Bytes,
		ConfigHash: configHash,
	}
	if r.Err != nil {
		rec.Error = r.Err.Error()
	}
	return rec
}

func finishedEvent(r *Report) events.BuildEvent {
	ev := events.BuildEvent{
		Type:       events.TypeBuildFinished,
		BuildID:    r.BuildID,
		Outcome:    string(r.Status),
		Resources:  r.Resources,
		Bytes:      r.Bytes,
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		ev.Error = r.Err.Error()
	}
	return ev
}

func (b *Builder) persist(ctx context.Context, log *slog.Logger, r *Report) {
	if b.History == nil {
		return
	}
	if err := b.History.Append(context.WithoutCancel(ctx), r.Record(b.ConfigHash)); err != nil {
		log.Warn("Failed to record build history", logfields.Error(err))
	}
}

func (b *Builder) publish(ctx context.Context, log *slog.Logger, ev events.BuildEvent) {
	if b.Events == nil {
		return
	}
	if err := b.Events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		log.Warn("Failed to publish build event", "type", ev.Type, logfields.Error(err))
	}
}
