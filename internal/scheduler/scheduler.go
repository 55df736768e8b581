// Package scheduler triggers command lines on a cron or fixed-interval
// schedule, enqueuing them onto the orchestrator's command queue rather
// than dispatching directly — the frame loop alone drains the queue, once
// per frame, keeping scheduled triggers on the same single-writer path as
// every other transport.
package scheduler

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/freyr-engine/freyr/internal/orchestrator"
)

// Trigger describes one scheduled command.
type Trigger struct {
	Name     string
	Command  string // full command line, e.g. "anim_start solid #ff0000"
	CronExpr string
	Interval time.Duration
	Type     string // "cron" or "interval"
}

// Scheduler owns a cron engine and the set of active triggers. Enqueued
// commands are tagged with source "scheduler:<name>".
type Scheduler struct {
	cron     *cron.Cron
	queue    *orchestrator.CommandQueue
	mu       sync.RWMutex
	triggers map[string]Trigger
	entries  map[string]cron.EntryID
}

// New creates a Scheduler that enqueues triggered commands onto queue.
func New(queue *orchestrator.CommandQueue) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		queue:    queue,
		triggers: make(map[string]Trigger),
		entries:  make(map[string]cron.EntryID),
	}
}

// Start begins running scheduled triggers.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron engine, blocking until any in-flight trigger finishes.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// AddCron schedules command to run on cronExpr (standard five-field cron
// syntax, plus robfig's "@every"/"@hourly" descriptors).
func (s *Scheduler) AddCron(name, cronExpr, command string) error {
	return s.add(Trigger{Name: name, Command: command, CronExpr: cronExpr, Type: "cron"})
}

// AddInterval schedules command to run every interval.
func (s *Scheduler) AddInterval(name string, interval time.Duration, command string) error {
	return s.add(Trigger{
		Name:     name,
		Command:  command,
		CronExpr: fmt.Sprintf("@every %s", interval.String()),
		Interval: interval,
		Type:     "interval",
	})
}

func (s *Scheduler) add(t Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[t.Name]; exists {
		return fmt.Errorf("scheduler: trigger %q already exists", t.Name)
	}

	entryID, err := s.cron.AddFunc(t.CronExpr, func() {
		s.fire(t.Name, t.Command)
	})
	if err != nil {
		return fmt.Errorf("scheduler: invalid cron expression %q: %w", t.CronExpr, err)
	}

	s.triggers[t.Name] = t
	s.entries[t.Name] = entryID
	return nil
}

// Remove cancels a trigger by name.
func (s *Scheduler) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("scheduler: no trigger named %q", name)
	}
	s.cron.Remove(entryID)
	delete(s.entries, name)
	delete(s.triggers, name)
	return nil
}

// List returns every currently registered trigger.
func (s *Scheduler) List() []Trigger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Trigger, 0, len(s.triggers))
	for _, t := range s.triggers {
		out = append(out, t)
	}
	return out
}

func (s *Scheduler) fire(name, command string) {
	s.queue.Enqueue(command, "scheduler:"+name)
}
