package monitor

import (
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/robotalks/sim800.go/pkg/comm"
	fx "github.com/robotalks/sim800.go/pkg/framework"
)

// Watcher runs a Monitor over a Source.
type Watcher struct {
	Monitor *Monitor
	Source  comm.Source

	closers []io.Closer
}

// NewWatcher creates a Watcher.
func NewWatcher(mon *Monitor, src comm.Source) *Watcher {
	return &Watcher{Monitor: mon, Source: src}
}

// Name implements Named.
func (w *Watcher) Name() string {
	return "watcher"
}

// Run implements Runnable. The source is closed when ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.closeOthers()
	return fx.RunWithContextCloser(ctx, w.Source, func() error {
		glog.Infof("watching %s for %v", w.Monitor.Stream, w.Monitor.Markers())
		if err := w.Monitor.Watch(ctx, w.Source.Bytes()); err != nil {
			return err
		}
		return w.Source.Err()
	})
}

// Close implements io.Closer.
func (w *Watcher) Close() error {
	var errs fx.AggregatedError
	if w.Source != nil {
		errs.Add(w.Source.Close())
	}
	errs.Add(w.closeOthers())
	return errs.Aggregate()
}

func (w *Watcher) closeOthers() error {
	var errs fx.AggregatedError
	for _, closer := range w.closers {
		errs.Add(closer.Close())
	}
	w.closers = nil
	return errs.Aggregate()
}
