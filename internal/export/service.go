// Package export produces XLSX workbooks so the pipeline can be reviewed
// outside the CLI, typically shared with a coach or mentor.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"git.home.luguber.info/inful/talentscout/internal/errors"
	"git.home.luguber.info/inful/talentscout/internal/logfields"
	"git.home.luguber.info/inful/talentscout/internal/pipeline"
	"git.home.luguber.info/inful/talentscout/internal/store"
)

// Service assembles workbook exports from the pipeline and posting stores.
type Service struct {
	records pipeline.Store
	jobs    *store.Jobs
	logger  *slog.Logger
}

// NewService wires the export service.
func NewService(records pipeline.Store, jobs *store.Jobs, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, jobs: jobs, logger: logger}
}

const (
	sheetPipeline = "Pipeline"
	sheetPostings = "Postings"
	sheetStats    = "Stats"
)

// WorkbookBytes builds the three-sheet workbook in memory.
func (s *Service) WorkbookBytes() ([]byte, error) {
	start := time.Now()

	recs, err := s.records.ListAll()
	if err != nil {
		return nil, err
	}
	postings, err := s.jobs.List(store.ListFilter{})
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := s.writePipelineSheet(f, recs); err != nil {
		return nil, err
	}
	if err := s.writePostingsSheet(f, postings); err != nil {
		return nil, err
	}
	if err := s.writeStatsSheet(f, recs); err != nil {
		return nil, err
	}
	// Drop excelize's default sheet so Pipeline opens first.
	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(sheetPipeline); err == nil {
		f.SetActiveSheet(idx)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.InternalError("write workbook", err)
	}
	s.logger.Info("export.xlsx.ok",
		slog.Int("pipeline_rows", len(recs)),
		slog.Int("posting_rows", len(postings)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	return buf.Bytes(), nil
}

// WriteFile writes the workbook to path.
func (s *Service) WriteFile(path string) error {
	data, err := s.WorkbookBytes()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.StorageError("write export file", err).WithContext("path", path)
	}
	return nil
}

func (s *Service) writePipelineSheet(f *excelize.File, recs []pipeline.Record) error {
	if _, err := f.NewSheet(sheetPipeline); err != nil {
		return errors.InternalError("create pipeline sheet", err)
	}
	headers := []string{"ID", "Company", "Title", "Location", "Stage", "Outcome", "Created", "Applied", "Closed", "Last Activity", "Notes"}
	writeHeaderRow(f, sheetPipeline, headers)

	for i, r := range recs {
		row := i + 2
		applied := ""
		if r.AppliedAt != nil {
			applied = r.AppliedAt.Format("2006-01-02")
		}
		closed := ""
		if r.ClosedAt != nil {
			closed = r.ClosedAt.Format("2006-01-02")
		}
		lastNote := ""
		if n := len(r.Notes); n > 0 {
			lastNote = truncate(r.Notes[n-1].Text, 140)
		}
		writeRow(f, sheetPipeline, row,
			r.ID, r.Company, r.Title, r.Location,
			string(r.Stage), string(r.Outcome),
			r.CreatedAt.Format("2006-01-02"), applied, closed,
			r.UpdatedAt.Format("2006-01-02"), lastNote)
	}

	_ = f.SetColWidth(sheetPipeline, "A", "A", 18)
	_ = f.SetColWidth(sheetPipeline, "B", "C", 26)
	_ = f.SetColWidth(sheetPipeline, "D", "F", 14)
	_ = f.SetColWidth(sheetPipeline, "G", "J", 12)
	_ = f.SetColWidth(sheetPipeline, "K", "K", 48)
	return nil
}

func (s *Service) writePostingsSheet(f *excelize.File, postings []store.JobPosting) error {
	if _, err := f.NewSheet(sheetPostings); err != nil {
		return errors.InternalError("create postings sheet", err)
	}
	headers := []string{"ID", "Company", "Title", "Location", "Source", "URL", "Imported"}
	writeHeaderRow(f, sheetPostings, headers)

	for i, p := range postings {
		writeRow(f, sheetPostings, i+2,
			p.ID, p.Company, p.Title, p.Location, p.Source, p.URL,
			p.ImportedAt.Format("2006-01-02"))
	}

	_ = f.SetColWidth(sheetPostings, "A", "A", 18)
	_ = f.SetColWidth(sheetPostings, "B", "C", 26)
	_ = f.SetColWidth(sheetPostings, "D", "E", 14)
	_ = f.SetColWidth(sheetPostings, "F", "F", 50)
	return nil
}

func (s *Service) writeStatsSheet(f *excelize.File, recs []pipeline.Record) error {
	if _, err := f.NewSheet(sheetStats); err != nil {
		return errors.InternalError("create stats sheet", err)
	}
	writeHeaderRow(f, sheetStats, []string{"Metric", "Count"})

	byStage := make(map[pipeline.Stage]int)
	byOutcome := make(map[pipeline.Outcome]int)
	active := 0
	for _, r := range recs {
		byStage[r.Stage]++
		if r.Closed() {
			if r.Outcome != "" {
				byOutcome[r.Outcome]++
			}
		} else {
			active++
		}
	}

	row := 2
	writeRow(f, sheetStats, row, "total", len(recs))
	row++
	writeRow(f, sheetStats, row, "active", active)
	row++
	for _, stage := range pipeline.Stages() {
		writeRow(f, sheetStats, row, "stage:"+string(stage), byStage[stage])
		row++
	}
	for _, outcome := range pipeline.Outcomes() {
		writeRow(f, sheetStats, row, "outcome:"+string(outcome), byOutcome[outcome])
		row++
	}

	_ = f.SetColWidth(sheetStats, "A", "A", 24)
	return nil
}

func writeHeaderRow(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return fmt.Sprintf("%s...", s[:n-3])
}
