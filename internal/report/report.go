// Package report renders pipeline results for downstream consumers: a
// CSV of the scored partition, an optional workbook with the full audit
// trail, and outreach email drafts.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/amosroger91/prospector/internal/domain/model"
)

// csvHeader matches the legacy result format consumed by the outreach
// tooling.
var csvHeader = []string{
	"Company", "Address", "Phone", "Website", "Domain_Verified",
	"Sales_Fit_Score", "Sales_Recommendation", "Has_WordPress",
	"Server_Detected", "Security_Headers_Count",
}

// WriteCSV writes the scored partition to path.
func WriteCSV(path string, result model.PipelineResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range result.Scored() {
		if err := w.Write(scoredRow(e)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func scoredRow(e model.AuditEntry) []string {
	hasWP := "No"
	if e.Fingerprint.IsWordPress() {
		hasWP = "Yes"
	}
	server := e.Fingerprint.ServerBanner
	if server == "" {
		server = "None"
	}
	return []string{
		e.Candidate.Name,
		e.Candidate.Address,
		e.Candidate.Phone,
		e.Candidate.Website,
		e.Verdict.Domain,
		strconv.Itoa(e.Score.TotalScore),
		string(e.Score.Recommendation),
		hasWP,
		server,
		strconv.Itoa(len(e.Fingerprint.SecurityHeaders)),
	}
}

// TopProspects returns up to n scored entries ordered by score
// descending. Ties keep input order so repeated runs rank identically.
func TopProspects(result model.PipelineResult, n int) []model.AuditEntry {
	scored := result.Scored()
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.TotalScore > scored[j].Score.TotalScore
	})
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// Summary aggregates the three-way partition and recommendation tiers.
type Summary struct {
	Total    int
	Filtered int
	Failed   int
	Scored   int
	Contact  int
	Maybe    int
	Exclude  int
}

// Summarize computes run statistics from the audit trail.
func Summarize(result model.PipelineResult) Summary {
	s := Summary{Total: len(result.Trail)}
	for _, e := range result.Trail {
		switch e.Outcome {
		case model.OutcomeFiltered:
			s.Filtered++
		case model.OutcomeFailed:
			s.Failed++
		case model.OutcomeScored:
			s.Scored++
			switch e.Score.Recommendation {
			case model.Contact:
				s.Contact++
			case model.Maybe:
				s.Maybe++
			case model.Exclude:
				s.Exclude++
			}
		}
	}
	return s
}

const (
	prospectsSheet = "Prospects"
	auditSheet     = "Audit"
)

// WriteWorkbook writes an xlsx with the scored partition on one sheet
// and the full audit trail (including filtered and failed candidates
// with their reasons) on another.
func WriteWorkbook(path string, result model.PipelineResult) error {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", prospectsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for col, h := range csvHeader {
		if err := setCell(wb, prospectsSheet, col+1, 1, h); err != nil {
			return err
		}
	}
	for rowIdx, e := range result.Scored() {
		for col, v := range scoredRow(e) {
			if err := setCell(wb, prospectsSheet, col+1, rowIdx+2, v); err != nil {
				return err
			}
		}
	}

	if _, err := wb.NewSheet(auditSheet); err != nil {
		return fmt.Errorf("create audit sheet: %w", err)
	}
	auditHeader := []string{"Index", "Company", "Outcome", "Detail", "Domain", "Score"}
	for col, h := range auditHeader {
		if err := setCell(wb, auditSheet, col+1, 1, h); err != nil {
			return err
		}
	}
	for rowIdx, e := range result.Trail {
		for col, v := range auditRow(e) {
			if err := setCell(wb, auditSheet, col+1, rowIdx+2, v); err != nil {
				return err
			}
		}
	}

	if err := wb.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// auditRow flattens an audit entry. Detail carries the matched keyword
// for filtered entries and the failure reason for failed ones.
func auditRow(e model.AuditEntry) []string {
	detail := ""
	domain := ""
	score := ""
	switch e.Outcome {
	case model.OutcomeFiltered:
		detail = e.MatchedKeyword
	case model.OutcomeFailed:
		if e.Verdict != nil {
			detail = string(e.Verdict.FailureReason)
			domain = e.Verdict.Domain
		}
	case model.OutcomeScored:
		domain = e.Verdict.Domain
		score = strconv.Itoa(e.Score.TotalScore)
	}
	return []string{
		strconv.Itoa(e.Index),
		e.Candidate.Name,
		string(e.Outcome),
		detail,
		domain,
		score,
	}
}

func setCell(wb *excelize.File, sheet string, col, row int, value string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell name: %w", err)
	}
	if err := wb.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("set cell: %w", err)
	}
	return nil
}
