package framework

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/golang/glog"
)

// Runner runs Runnables in background. When one of them stops with an
// error, the others are stopped too.
type Runner struct {
	ctx    context.Context
	cancel context.CancelFunc
	count  int
	errCh  chan error
	exitCh chan struct{}
}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		ctx:    ctx,
		cancel: cancel,
		errCh:  make(chan error),
		exitCh: make(chan struct{}),
	}
}

// Stop requests all Runnables to stop.
func (r *Runner) Stop() {
	r.cancel()
}

// HandleSignals stops on CtrlC or SIGTERM, and forces exit on the second.
func (r *Runner) HandleSignals() *Runner {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		glog.Infof("%v: stopping", sig)
		r.Stop()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go starts Runnables.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		name := strconv.Itoa(r.count)
		if named, ok := runnable.(Named); ok {
			name = named.Name()
		}
		r.count++
		go r.run(name, runnable)
	}
	return r
}

func (r *Runner) run(name string, runnable Runnable) {
	glog.V(4).Infof("Runner[%s] started", name)
	err := runnable.Run(r.ctx)
	glog.V(4).Infof("Runner[%s] stopped: %v", name, err)
	if err != nil && !errors.Is(err, context.Canceled) {
		err = fmt.Errorf("%s: %w", name, err)
		r.Stop()
	} else {
		err = nil
	}
	select {
	case r.errCh <- err:
	case <-r.exitCh:
	}
}

// Wait waits until all Runnables stop and aggregates errors.
// context.Canceled is not considered an error.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for n := 0; n < r.count; n++ {
		select {
		case <-r.exitCh:
			return errors.New("forced exit")
		case err := <-r.errCh:
			errs.Add(err)
		}
	}
	return errs.Aggregate()
}

// WaitOrFail is intended to be used in main to wait for all Runnables.
func (r *Runner) WaitOrFail() {
	if err := r.Wait(); err != nil {
		log.Fatalln(err)
	}
}

// RunWithContextCancel runs a func which doesn't accept a context.
// onCancel is called only when the context is canceled, and fn is
// expected to return after that.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-errCh
		return context.Canceled
	case err := <-errCh:
		return err
	}
}

// RunWithContextCloser runs fn and closes closer exactly once, either on
// cancel to unblock fn, or after fn returns.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var once sync.Once
	closeOnce := func() {
		once.Do(func() { closer.Close() })
	}
	defer closeOnce()
	return RunWithContextCancel(ctx, closeOnce, fn)
}
