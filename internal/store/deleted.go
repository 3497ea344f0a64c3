package store

import (
	"path/filepath"
	"sync"
	"time"
)

// deletedCap bounds deleted-jobs.json; the newest entries are kept.
const deletedCap = 200

// DeletedJob is the negative-signal log entry written when an operator
// deletes a posting. The learning agent digests these.
type DeletedJob struct {
	ID        string    `json:"id"`
	Company   string    `json:"company"`
	Title     string    `json:"title"`
	Location  string    `json:"location,omitempty"`
	Source    string    `json:"source,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	DeletedAt time.Time `json:"deleted_at"`
}

// DeletedJobs persists the capped deletion log.
type DeletedJobs struct {
	path string
	mu   sync.RWMutex
	now  func() time.Time
}

// NewDeletedJobs creates the deletion log rooted at dataDir.
func NewDeletedJobs(dataDir string) *DeletedJobs {
	return &DeletedJobs{
		path: filepath.Join(dataDir, "deleted-jobs.json"),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Record appends one entry, trimming the oldest past the cap.
func (d *DeletedJobs) Record(entry DeletedJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var log []DeletedJob
	if _, err := readJSON(d.path, &log); err != nil {
		return err
	}
	if entry.DeletedAt.IsZero() {
		entry.DeletedAt = d.now()
	}
	log = append(log, entry)
	if len(log) > deletedCap {
		log = log[len(log)-deletedCap:]
	}
	return writeJSON(d.path, log)
}

// List returns the log, oldest first.
func (d *DeletedJobs) List() ([]DeletedJob, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var log []DeletedJob
	if _, err := readJSON(d.path, &log); err != nil {
		return nil, err
	}
	return log, nil
}
