package store

import (
	"path/filepath"
	"sort"
	"sync"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
)

const pipelineFileName = "pipeline.json"

// pipelineDocument is the on-disk layout of pipeline.json.
type pipelineDocument struct {
	SchemaVersion int                        `json:"schema_version"`
	Applications  map[string]pipeline.Record `json:"applications"`
}

// PipelineFile implements pipeline.Store over <dataDir>/pipeline.json. The
// whole file is rewritten atomically on every save; per-record atomicity
// comes from the tracker's record locks plus the RWMutex here.
type PipelineFile struct {
	path string
	mu   sync.RWMutex
}

// NewPipelineFile creates a pipeline store rooted at dataDir.
func NewPipelineFile(dataDir string) *PipelineFile {
	return &PipelineFile{path: filepath.Join(dataDir, pipelineFileName)}
}

func (p *PipelineFile) read() (pipelineDocument, error) {
	doc := pipelineDocument{
		SchemaVersion: pipeline.SchemaVersion,
		Applications:  make(map[string]pipeline.Record),
	}
	if _, err := readJSON(p.path, &doc); err != nil {
		return pipelineDocument{}, err
	}
	if doc.Applications == nil {
		doc.Applications = make(map[string]pipeline.Record)
	}
	return doc, nil
}

// Load returns one record by ID.
func (p *PipelineFile) Load(id string) (pipeline.Record, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc, err := p.read()
	if err != nil {
		return pipeline.Record{}, err
	}
	rec, ok := doc.Applications[id]
	if !ok {
		return pipeline.Record{}, errors.NotFound("pipeline record", id)
	}
	return rec.Clone(), nil
}

// Save upserts one record and rewrites the file atomically.
func (p *PipelineFile) Save(rec pipeline.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.read()
	if err != nil {
		return err
	}
	doc.Applications[rec.ID] = rec.Clone()
	return writeJSON(p.path, doc)
}

// ListAll returns every record, ordered by creation time then ID so callers
// see a stable sequence.
func (p *PipelineFile) ListAll() ([]pipeline.Record, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	doc, err := p.read()
	if err != nil {
		return nil, err
	}
	out := make([]pipeline.Record, 0, len(doc.Applications))
	for _, rec := range doc.Applications {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Delete removes one record; unknown IDs return not_found.
func (p *PipelineFile) Delete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, err := p.read()
	if err != nil {
		return err
	}
	if _, ok := doc.Applications[id]; !ok {
		return errors.NotFound("pipeline record", id)
	}
	delete(doc.Applications, id)
	return writeJSON(p.path, doc)
}
