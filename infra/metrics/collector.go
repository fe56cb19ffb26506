package metrics

import (
	"context"

	"github.com/kilianp07/evroute/core/history"
	coremetrics "github.com/kilianp07/evroute/core/metrics"
	"github.com/kilianp07/evroute/infra/logger"
	"github.com/kilianp07/evroute/internal/eventbus"
)

// StartEventCollector subscribes to the history event bus and forwards every
// event to sink. It stops when ctx is canceled or the bus is closed; the
// returned channel is closed once the goroutine has exited. Sink errors are
// logged and never propagated.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[history.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				dispatch(ev, sink, log)
			}
		}
	}()
	return done
}

func dispatch(ev history.Event, sink coremetrics.MetricsSink, log logger.Logger) {
	rec := ev.Record
	switch ev.Kind {
	case history.EventRecorded:
		if err := sink.RecordPrediction(predictionEvent(rec)); err != nil {
			log.Errorw("record prediction", err, map[string]any{"id": rec.ID, "type": rec.Type})
		}
	case history.EventActual:
		if r, ok := sink.(coremetrics.OutcomeRecorder); ok && rec.ActualValue != nil {
			if err := r.RecordOutcome(outcomeEvent(rec)); err != nil {
				log.Errorw("record outcome", err, map[string]any{"id": rec.ID, "type": rec.Type})
			}
		}
	}
	if r, ok := sink.(coremetrics.HistorySizeRecorder); ok {
		if err := r.RecordHistorySize(ev.Size); err != nil {
			log.Errorf("record history size: %v", err)
		}
	}
}

func predictionEvent(r history.Record) coremetrics.PredictionEvent {
	return coremetrics.PredictionEvent{
		ID:             r.ID,
		StationID:      r.Station(),
		Type:           string(r.Type),
		PredictedValue: r.PredictedValue,
		Confidence:     r.Confidence,
		Time:           r.Timestamp,
	}
}

func outcomeEvent(r history.Record) coremetrics.OutcomeEvent {
	return coremetrics.OutcomeEvent{
		ID:             r.ID,
		StationID:      r.Station(),
		Type:           string(r.Type),
		PredictedValue: r.PredictedValue,
		ActualValue:    *r.ActualValue,
		ErrorValue:     r.ErrorValue,
		Time:           r.Timestamp,
	}
}
