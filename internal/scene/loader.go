package scene

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/zeusync/fpnav/internal/core/collision"
	"github.com/zeusync/fpnav/internal/core/observability/log"
	"github.com/zeusync/fpnav/pkg/concurrent"
)

// Sink receives each obstacle as soon as it is fully built.
type Sink func(collision.Obstacle)

// Loader plays the asset loading collaborator: it builds obstacles off the
// simulation goroutine and hands each finished one to a sink.
type Loader struct {
	logger  log.Log
	workers int
}

func NewLoader(logger log.Log) *Loader {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Loader{logger: logger, workers: runtime.GOMAXPROCS(0)}
}

// SetWorkers bounds how many obstacles are built in parallel. Obstacles still
// reach the sink in file order.
func (l *Loader) SetWorkers(n int) {
	l.workers = max(n, 1)
}

func (l *Loader) LoadFile(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scene: %w", err)
	}
	defer f.Close()

	s, err := Parse(f)
	if err != nil {
		return nil, err
	}
	l.logger.Info("scene parsed",
		log.String("path", path),
		log.Int("obstacles", len(s.Obstacles)),
		log.String("digest", fmt.Sprintf("%016x", s.Digest)),
	)
	return s, nil
}

// Stream builds the scene's obstacles in parallel and passes each to sink in
// file order.
// A spec that fails to build is logged and skipped; the count of failures is
// returned as an error at the end.
func (l *Loader) Stream(ctx context.Context, s *Scene, sink Sink) error {
	failed := 0
	build := func(_ context.Context, spec Spec) (collision.Obstacle, error) { return Build(spec) }
	err := concurrent.Ordered(ctx, s.Obstacles, l.workers, build, func(i int, o collision.Obstacle, err error) {
		if err != nil {
			failed++
			l.logger.Error("obstacle skipped", log.String("name", s.Obstacles[i].Name), log.Error(err))
			return
		}
		sink(o)
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("scene: %d of %d obstacles failed to build", failed, len(s.Obstacles))
	}
	return nil
}

// LoadAsync reads and streams a scene file in its own goroutine. The returned
// channel receives the final error (or nil) and is then closed.
func (l *Loader) LoadAsync(ctx context.Context, path string, sink Sink) <-chan error {
	ch := make(chan error, 1)
	go func() {
		defer close(ch)
		s, err := l.LoadFile(path)
		if err != nil {
			ch <- err
			return
		}
		ch <- l.Stream(ctx, s, sink)
	}()
	return ch
}
