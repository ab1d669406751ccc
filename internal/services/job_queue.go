package services

import (
	"context"
	"errors"
	"sync"

	"github.com/Yvann20/Flask/internal/logger"
	"go.uber.org/zap"
)

var (
	ErrJobQueueIsFull = errors.New("job queue is full")
	ErrJobQueueClosed = errors.New("job queue is closed")
)

// Job is a unit of work run by one of the queue workers.
type Job func(ctx context.Context)

// JobQueueService runs jobs on a fixed set of workers. Every worker owns its
// own channel and jobs are routed by key, so jobs sharing a key run one after
// another in submission order while different keys proceed in parallel.
type JobQueueService struct {
	shards  []chan Job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closing bool
}

// NewJobQueueService starts workers goroutines, each buffering up to capacity jobs.
func NewJobQueueService(ctx context.Context, capacity, workers int) *JobQueueService {
	if workers < 1 {
		workers = 1
	}

	service := &JobQueueService{
		shards: make([]chan Job, workers),
	}
	for i := range service.shards {
		service.shards[i] = make(chan Job, capacity)
	}
	service.start(ctx)

	return service
}

func (jqs *JobQueueService) start(ctx context.Context) {
	for i, shard := range jqs.shards {
		jqs.wg.Add(1)

		go func(workerID int, jobs <-chan Job) {
			defer jqs.wg.Done()

			for {
				select {
				case job, ok := <-jobs:
					if !ok {
						return
					}
					jqs.run(ctx, workerID, job)
				case <-ctx.Done():
					return
				}
			}
		}(i+1, shard)
	}
}

func (jqs *JobQueueService) run(ctx context.Context, workerID int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("job panicked", zap.Int("worker", workerID), zap.Any("panic", r))
		}
	}()

	job(ctx)
}

// Enqueue hands job to the worker responsible for key without blocking.
func (jqs *JobQueueService) Enqueue(key int64, job Job) error {
	jqs.mu.RLock()
	defer jqs.mu.RUnlock()

	if jqs.closing {
		return ErrJobQueueClosed
	}

	shard := key % int64(len(jqs.shards))
	if shard < 0 {
		shard = -shard
	}

	select {
	case jqs.shards[shard] <- job:
		return nil
	default:
		return ErrJobQueueIsFull
	}
}

// Shutdown stops accepting jobs, lets the workers drain what is queued and
// waits for them to exit.
func (jqs *JobQueueService) Shutdown() {
	jqs.mu.Lock()
	if jqs.closing {
		jqs.mu.Unlock()
		return
	}
	jqs.closing = true
	for _, shard := range jqs.shards {
		close(shard)
	}
	jqs.mu.Unlock()

	jqs.wg.Wait()
}
