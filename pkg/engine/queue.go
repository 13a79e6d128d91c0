package engine

import (
	"sync"

	"github.com/sirupsen/logrus"

	"webscout/pkg/logger"
)

// Queue bounds how many scans run at once with a simple semaphore.
// Requests past the limit block until a slot frees up.
type Queue struct {
	semaphore chan struct{}
	running   int
	queued    int
	mu        sync.Mutex
	logger    *logger.Logger
}

func NewQueue(maxConcurrent int) *Queue {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	q := &Queue{
		semaphore: make(chan struct{}, maxConcurrent),
		logger:    logger.NewLogger(logrus.InfoLevel),
	}
	q.logger.WithFields(logger.Fields{
		"max_concurrent": maxConcurrent,
	}).Info("Scan queue initialized")
	return q
}

// ExecuteWithQueue blocks until a slot is available, then executes fn.
func (q *Queue) ExecuteWithQueue(fn func() error) error {
	q.mu.Lock()
	q.queued++
	q.mu.Unlock()

	q.semaphore <- struct{}{}

	q.mu.Lock()
	q.queued--
	q.running++
	running, queued := q.running, q.queued
	q.mu.Unlock()

	q.logger.WithFields(logger.Fields{
		"running": running,
		"queued":  queued,
	}).Info("Scan execution started")

	defer func() {
		<-q.semaphore
		q.mu.Lock()
		q.running--
		q.mu.Unlock()
	}()

	return fn()
}

// GetStatus returns current queue status
func (q *Queue) GetStatus() (running, queued, maxConcurrent int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running, q.queued, cap(q.semaphore)
}
