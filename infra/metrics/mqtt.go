package metrics

import (
	"context"
	"time"

	coremetrics "github.com/kilianp07/evroute/core/metrics"
	infmqtt "github.com/kilianp07/evroute/infra/mqtt"
)

type mqttPublisher interface {
	Topic(segments ...string) string
	Publish(ctx context.Context, topic, kind string, payload any) error
	Close() error
}

// MQTTSink publishes predictions to <prefix>/predictions/<type> and outcomes
// to <prefix>/outcomes/<type>.
type MQTTSink struct {
	pub     mqttPublisher
	timeout time.Duration
}

// NewMQTTSink connects an MQTT publisher for the sink.
func NewMQTTSink(cfg infmqtt.Config) (*MQTTSink, error) {
	pub, err := infmqtt.NewPublisher(cfg)
	if err != nil {
		return nil, err
	}
	return newMQTTSink(pub), nil
}

func newMQTTSink(pub mqttPublisher) *MQTTSink {
	return &MQTTSink{pub: pub, timeout: 5 * time.Second}
}

type mqttPrediction struct {
	ID             int64     `json:"id"`
	StationID      string    `json:"stationId,omitempty"`
	PredictedValue *float64  `json:"predictedValue"`
	Confidence     *float64  `json:"confidence,omitempty"`
	Time           time.Time `json:"time"`
}

type mqttOutcome struct {
	ID             int64     `json:"id"`
	StationID      string    `json:"stationId,omitempty"`
	PredictedValue *float64  `json:"predictedValue"`
	ActualValue    float64   `json:"actualValue"`
	ErrorValue     *float64  `json:"errorValue"`
	Time           time.Time `json:"time"`
}

func (s *MQTTSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.pub.Publish(ctx, s.pub.Topic("predictions", ev.Type), "prediction", mqttPrediction{
		ID:             ev.ID,
		StationID:      ev.StationID,
		PredictedValue: ev.PredictedValue,
		Confidence:     ev.Confidence,
		Time:           ev.Time,
	})
}

func (s *MQTTSink) RecordOutcome(ev coremetrics.OutcomeEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.pub.Publish(ctx, s.pub.Topic("outcomes", ev.Type), "outcome", mqttOutcome{
		ID:             ev.ID,
		StationID:      ev.StationID,
		PredictedValue: ev.PredictedValue,
		ActualValue:    ev.ActualValue,
		ErrorValue:     ev.ErrorValue,
		Time:           ev.Time,
	})
}

// Close disconnects the publisher.
func (s *MQTTSink) Close() error {
	return s.pub.Close()
}
