package jobs

import (
	"fmt"
	"sync"

	"contentpilot/internal/api"
)

// ListKey identifies one cached page of the job collection.
type ListKey struct {
	Status   api.Status
	Page     int
	PageSize int
}

func (k ListKey) String() string {
	return fmt.Sprintf("jobs:list:%s:%d:%d", k.Status, k.Page, k.PageSize)
}

func listKeyFor(p api.ListJobsParams) ListKey {
	return ListKey{Status: p.Status, Page: p.Page, PageSize: p.PageSize}
}

type listEntry struct {
	data    api.JobList
	version uint64
}

type jobEntry struct {
	job     api.Job
	version uint64
}

// Cache partitions fetched data by query key: one partition per list page,
// one per job id. Every partition carries a version counter; a mutation
// bumps the versions of the partitions it affects and a read only serves an
// entry bound to the partition's current version. Job entries additionally
// carry their server UpdatedAt as a freshness marker so a response arriving
// out of order can never overwrite newer data for the same id.
type Cache struct {
	mu           sync.Mutex
	lists        map[ListKey]listEntry
	listVersions map[ListKey]uint64
	jobs         map[string]jobEntry
	jobVersions  map[string]uint64
}

// NewCache constructs an empty Cache.
func NewCache() *Cache {
	return &Cache{
		lists:        make(map[ListKey]listEntry),
		listVersions: make(map[ListKey]uint64),
		jobs:         make(map[string]jobEntry),
		jobVersions:  make(map[string]uint64),
	}
}

// GetList serves the cached page if it is bound to the partition's current
// version.
func (c *Cache) GetList(key ListKey) (api.JobList, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lists[key]
	if !ok || entry.version != c.listVersions[key] {
		return api.JobList{}, false
	}
	return entry.data, true
}

// SetList stores a freshly fetched page bound to the partition's current
// version.
func (c *Cache) SetList(key ListKey, data api.JobList) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = listEntry{data: data, version: c.listVersions[key]}
}

// GetJob serves the cached job if its partition version is current.
func (c *Cache) GetJob(id string) (api.Job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.jobs[id]
	if !ok || entry.version != c.jobVersions[id] {
		return api.Job{}, false
	}
	return entry.job, true
}

// SetJob applies a fetched or mutated job, enforcing the freshness rule:
// a job strictly staler than the entry already applied for the same id is
// discarded. It reports whether the job was applied.
func (c *Cache) SetJob(job api.Job) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.jobs[job.ID]; ok && existing.job.UpdatedAt.After(job.UpdatedAt) {
		return false
	}
	c.jobs[job.ID] = jobEntry{job: job, version: c.jobVersions[job.ID]}
	return true
}

// InvalidateLists bumps the version of every list partition so the next
// read of any page misses and refetches.
func (c *Cache) InvalidateLists() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.lists {
		c.listVersions[key]++
	}
}

// InvalidateJob bumps the version of one job partition.
func (c *Cache) InvalidateJob(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.jobs[id]; ok {
		c.jobVersions[id]++
	}
}
