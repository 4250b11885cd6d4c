package cron

import (
	"context"
	"fmt"
)

// Result summarizes one job run.
type Result struct {
	Affected int
}

// Job is a unit of scheduled work. Name must be unique within a Registry.
type Job interface {
	Name() string
	Run(ctx context.Context) (Result, error)
}

// Registry holds jobs in registration order.
type Registry struct {
	jobs   []Job
	byName map[string]Job
}

// NewRegistry builds a registry from jobs, skipping nils. Duplicate names are an error.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{byName: map[string]Job{}}
	for _, job := range jobs {
		if err := registry.Register(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	if r.byName == nil {
		r.byName = map[string]Job{}
	}
	name := job.Name()
	if name == "" {
		return fmt.Errorf("cron job name required")
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("cron job %q already registered", name)
	}
	r.byName[name] = job
	r.jobs = append(r.jobs, job)
	return nil
}

// Lookup returns the job registered under name.
func (r *Registry) Lookup(name string) (Job, bool) {
	job, ok := r.byName[name]
	return job, ok
}

// Jobs returns a copy of the registered jobs in order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
