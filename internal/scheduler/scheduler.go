// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs eventdesk's housekeeping jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single job run.
const jobTimeout = time.Minute

// Job is a named task run on a cron schedule.
type Job struct {
	Name        string
	Description string
	Schedule    string // standard 5-field cron spec or descriptor such as "@hourly"
	Run         func(ctx context.Context) error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string
	Description string
	Schedule    string
	LastRun     time.Time
	NextRun     time.Time
	LastError   string
}

type registeredJob struct {
	Job
	entryID   cron.EntryID
	lastError string
}

// Scheduler handles housekeeping jobs.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	mu   sync.RWMutex
	jobs map[string]*registeredJob
}

// New creates a new scheduler instance.
func New(logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		logger: logger,
		jobs:   make(map[string]*registeredJob),
	}
}

// Add registers a job. Jobs may be added before or after Start.
func (s *Scheduler) Add(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.Name]; ok {
		return fmt.Errorf("job already registered: %s", job.Name)
	}

	rj := &registeredJob{Job: job}
	id, err := s.cron.AddFunc(job.Schedule, func() { s.run(context.Background(), rj) })
	if err != nil {
		return fmt.Errorf("invalid cron expression %q for %s: %w", job.Schedule, job.Name, err)
	}
	rj.entryID = id
	s.jobs[job.Name] = rj

	s.logger.Debug("registered scheduled job", "name", job.Name, "schedule", job.Schedule)
	return nil
}

// run executes a job with a timeout and records its outcome.
func (s *Scheduler) run(ctx context.Context, rj *registeredJob) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	err := rj.Run(ctx)

	s.mu.Lock()
	rj.lastError = ""
	if err != nil {
		rj.lastError = err.Error()
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "category", "system", "job", rj.Name, "error", err)
		return err
	}
	s.logger.Debug("scheduled job finished", "job", rj.Name, "duration", time.Since(start))
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// TriggerNow runs a job immediately in the caller's goroutine.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) error {
	s.mu.RLock()
	rj, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return fmt.Errorf("job not found: %s", name)
	}

	s.logger.Info("manually triggering job", "name", name)
	return s.run(ctx, rj)
}

// List returns all registered jobs sorted by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, rj := range s.jobs {
		entry := s.cron.Entry(rj.entryID)
		result = append(result, JobInfo{
			Name:        rj.Name,
			Description: rj.Description,
			Schedule:    rj.Schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
			LastError:   rj.lastError,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}
