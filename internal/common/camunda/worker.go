// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sync"
	"time"

	"bidbuddy-workers/internal/common/config"
	"bidbuddy-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobRecorder receives one observation per handled job.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType string)
	RecordJobDuration(ctx context.Context, duration time.Duration, taskType string)
}

// Instrument wraps a job handler so every invocation is counted and timed.
func Instrument(taskType string, rec JobRecorder, handler worker.JobHandler) worker.JobHandler {
	if rec == nil {
		return handler
	}
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		handler(client, job)
		ctx := context.Background()
		rec.RecordJobProcessed(ctx, taskType)
		rec.RecordJobDuration(ctx, time.Since(start), taskType)
	}
}

// WorkerPool opens job workers against one broker and closes them together.
type WorkerPool struct {
	client   zbc.Client
	recorder JobRecorder
	log      logger.Logger

	mu        sync.Mutex
	workers   []worker.JobWorker
	taskTypes []string
}

func NewWorkerPool(client zbc.Client, recorder JobRecorder, log logger.Logger) *WorkerPool {
	return &WorkerPool{client: client, recorder: recorder, log: log}
}

// Start opens a job worker for taskType. Disabled workers are skipped and
// Start reports false.
func (p *WorkerPool) Start(taskType string, wcfg config.WorkerConfig, handler worker.JobHandler) bool {
	if !wcfg.Enabled {
		p.log.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return false
	}

	jw := p.client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, p.recorder, handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.Millis(wcfg.Timeout)).
		Open()

	p.mu.Lock()
	p.workers = append(p.workers, jw)
	p.taskTypes = append(p.taskTypes, taskType)
	p.mu.Unlock()

	p.log.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
	return true
}

// TaskTypes lists the task types with an open worker, in start order.
func (p *WorkerPool) TaskTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.taskTypes...)
}

// Close stops every worker and waits for in-flight jobs to finish.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	workers := p.workers
	p.workers = nil
	p.mu.Unlock()

	for _, jw := range workers {
		jw.Close()
		jw.AwaitClose()
	}
	p.log.Info("workers stopped", map[string]interface{}{"count": len(workers)})
}
