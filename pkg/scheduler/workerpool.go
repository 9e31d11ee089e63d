/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package scheduler

import (
	"context"
	"sync"

	"github.com/GERONlMO/pingtower/pkg/logger"
)

// workerPool runs submitted tasks on a fixed number of goroutines fed by a
// bounded queue. Submissions never block: a full queue rejects the task.
type workerPool struct {
	workers int
	queue   chan func()
	logger  logger.Logger

	mu     sync.RWMutex
	closed bool

	startOnce sync.Once
	wg        sync.WaitGroup
}

func newWorkerPool(workers, queueSize int, log logger.Logger) *workerPool {
	if workers <= 0 {
		workers = defaultWorkers
	}

	if queueSize < 0 {
		queueSize = 0
	}

	return &workerPool{
		workers: workers,
		queue:   make(chan func(), queueSize),
		logger:  log,
	}
}

func (p *workerPool) start() {
	p.startOnce.Do(func() {
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)

			go p.work(i)
		}
	})
}

func (p *workerPool) work(id int) {
	defer p.wg.Done()

	for task := range p.queue {
		p.run(id, task)
	}
}

func (p *workerPool) run(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker", id).
				Interface("panic", r).
				Msg("Check task panicked")
		}
	}()

	task()
}

// submit enqueues task and reports whether it was accepted.
func (p *workerPool) submit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return false
	}

	select {
	case p.queue <- task:
		return true
	default:
		return false
	}
}

// pending returns the number of queued, not yet started tasks.
func (p *workerPool) pending() int {
	return len(p.queue)
}

// stop refuses new work, lets queued and in-flight tasks finish and waits for
// the workers until ctx expires.
func (p *workerPool) stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
