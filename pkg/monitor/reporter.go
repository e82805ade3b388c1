package monitor

import (
	"context"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/sim800.go/pkg/framework"
)

// MatchTopic is the topic suffix of match events.
const MatchTopic = "match"

// LogReporter logs events.
type LogReporter struct{}

// Report implements Reporter.
func (LogReporter) Report(ctx context.Context, ev *Event) error {
	glog.Infof("%s: %s at %d (%s)", ev.Stream, ev.Marker, ev.Offset, ev.Time.Format(time.RFC3339Nano))
	return nil
}

// Publisher publishes a payload to a topic.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte) error
}

// MQTTReporter publishes encoded events to <stream>/match.
type MQTTReporter struct {
	Publisher Publisher
	QoS       byte
}

// NewMQTTReporter creates a MQTTReporter.
func NewMQTTReporter(pub Publisher) *MQTTReporter {
	return &MQTTReporter{Publisher: pub}
}

// Topic returns the topic events of stream are published to.
func Topic(stream string) string {
	return stream + "/" + MatchTopic
}

// Report implements Reporter.
func (r *MQTTReporter) Report(ctx context.Context, ev *Event) error {
	payload, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	return r.Publisher.Publish(Topic(ev.Stream), payload, r.QoS)
}

// MultiReporter reports to all reporters.
type MultiReporter []Reporter

// Report implements Reporter.
func (r MultiReporter) Report(ctx context.Context, ev *Event) error {
	var errs fx.AggregatedError
	for _, reporter := range r {
		errs.Add(reporter.Report(ctx, ev))
	}
	return errs.Aggregate()
}
