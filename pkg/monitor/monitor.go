// Package monitor watches a byte stream for named markers and reports
// each occurrence as an Event.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/sim800.go/pkg/framework"
	"github.com/robotalks/sim800.go/pkg/match"
)

// Marker is a named byte pattern.
type Marker struct {
	Name    string
	Pattern []byte
}

func (m Marker) String() string {
	return fmt.Sprintf("%s=%q", m.Name, m.Pattern)
}

// Event is reported when a marker is matched.
type Event struct {
	Stream string
	Marker string
	// Offset is the stream offset of the byte completing the match.
	Offset int64
	Time   time.Time
}

// Reporter delivers events.
type Reporter interface {
	Report(ctx context.Context, ev *Event) error
}

// ReportFunc is the func form of Reporter.
type ReportFunc func(ctx context.Context, ev *Event) error

// Report implements Reporter.
func (f ReportFunc) Report(ctx context.Context, ev *Event) error {
	return f(ctx, ev)
}

// Monitor feeds every byte to one matcher per marker.
// It's not safe for concurrent use.
type Monitor struct {
	Stream   string
	Reporter Reporter

	markers  []Marker
	matchers []*match.Matcher[byte]
	offset   int64
	now      func() time.Time
}

// New creates a Monitor. Marker names must be unique and patterns non-empty.
func New(stream string, reporter Reporter, markers ...Marker) (*Monitor, error) {
	if len(markers) == 0 {
		return nil, errors.New("no markers")
	}
	m := &Monitor{
		Stream:   stream,
		Reporter: reporter,
		markers:  markers,
		matchers: make([]*match.Matcher[byte], len(markers)),
		now:      time.Now,
	}
	names := make(map[string]bool)
	for n, marker := range markers {
		if names[marker.Name] {
			return nil, fmt.Errorf("duplicated marker %q", marker.Name)
		}
		names[marker.Name] = true
		if len(marker.Pattern) == 0 {
			return nil, fmt.Errorf("marker %q: %v", marker.Name, match.ErrEmptyPattern)
		}
		m.matchers[n] = match.NewCopy(marker.Pattern)
	}
	return m, nil
}

// Markers returns the watched markers.
func (m *Monitor) Markers() []Marker {
	return m.markers
}

// Offset returns the number of bytes fed.
func (m *Monitor) Offset() int64 {
	return m.offset
}

// Feed adds one byte to all matchers and reports matched markers.
func (m *Monitor) Feed(ctx context.Context, b byte) error {
	offset := m.offset
	m.offset++
	var errs fx.AggregatedError
	for n, matcher := range m.matchers {
		if matcher.Add(b) != match.ResultMatch {
			continue
		}
		ev := &Event{
			Stream: m.Stream,
			Marker: m.markers[n].Name,
			Offset: offset,
			Time:   m.now(),
		}
		glog.V(2).Infof("matched %s at %d", ev.Marker, ev.Offset)
		if m.Reporter != nil {
			if err := m.Reporter.Report(ctx, ev); err != nil {
				errs.Add(err)
			}
		}
	}
	return errs.Aggregate()
}

// Watch feeds bytes from seq until it ends or ctx is done.
// Report failures are logged without stopping the watch.
func (m *Monitor) Watch(ctx context.Context, seq iter.Seq[byte]) error {
	for b := range seq {
		if err := m.Feed(ctx, b); err != nil {
			glog.Warningf("report: %v", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return ctx.Err()
}
