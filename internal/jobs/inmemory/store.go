package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dvloznov/expense-dashboard/internal/jobs"
)

// DefaultMaxJobs bounds how many finished jobs the store remembers.
const DefaultMaxJobs = 200

// Store is an in-memory implementation of JobStore, safe for concurrent use.
// Data is lost on restart; the oldest jobs are dropped past MaxJobs.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*jobs.RefreshJob

	MaxJobs int
}

// NewStore creates a new in-memory job store.
func NewStore() *Store {
	return &Store{
		jobs:    make(map[string]*jobs.RefreshJob),
		MaxJobs: DefaultMaxJobs,
	}
}

func (s *Store) SaveJob(ctx context.Context, job *jobs.RefreshJob) error {
	if job.JobID == "" {
		return fmt.Errorf("job ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.JobID] = copyJob(job)
	s.evict()
	return nil
}

func (s *Store) GetJob(ctx context.Context, jobID string) (*jobs.RefreshJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[jobID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", jobs.ErrJobNotFound, jobID)
	}
	return copyJob(job), nil
}

func (s *Store) ListJobs(ctx context.Context, filter jobs.JobFilter) ([]*jobs.RefreshJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []*jobs.RefreshJob{}
	for _, job := range s.jobs {
		if filter.Trigger != "" && job.Trigger != filter.Trigger {
			continue
		}
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		result = append(result, copyJob(job))
	}

	sortNewestFirst(result)

	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return []*jobs.RefreshJob{}, nil
		}
		result = result[filter.Offset:]
	}

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}

	return result, nil
}

// evict drops the oldest finished jobs beyond MaxJobs. Callers hold mu.
func (s *Store) evict() {
	if s.MaxJobs <= 0 || len(s.jobs) <= s.MaxJobs {
		return
	}

	all := make([]*jobs.RefreshJob, 0, len(s.jobs))
	for _, j := range s.jobs {
		all = append(all, j)
	}
	sortNewestFirst(all)

	for _, j := range all[s.MaxJobs:] {
		if j.Status == jobs.JobStatusCompleted || j.Status == jobs.JobStatusFailed {
			delete(s.jobs, j.JobID)
		}
	}
}

func sortNewestFirst(list []*jobs.RefreshJob) {
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].JobID < list[j].JobID
	})
}

func copyJob(job *jobs.RefreshJob) *jobs.RefreshJob {
	c := *job
	if job.Result != nil {
		r := *job.Result
		c.Result = &r
	}
	return &c
}

// Ensure Store implements JobStore interface.
var _ jobs.JobStore = (*Store)(nil)
