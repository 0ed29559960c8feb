// Package export writes analysed transactions to spreadsheet files.
package export

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/boddenberg/spend-analysis-go/internal/domain"

	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetTransactions = "Transactions"
	SheetDaily        = "Daily"
	SheetCategories   = "Categories"
)

// ContentType is the MIME type of an XLSX workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	headerColor = "#2D3436"
	totalColor  = "#DFE6E9"
	moneyFormat = 4 // #,##0.00
)

// XLSXExporter implements port.WorkbookExporter with excelize.
type XLSXExporter struct{}

// NewXLSXExporter creates an exporter.
func NewXLSXExporter() *XLSXExporter {
	return &XLSXExporter{}
}

type styles struct {
	header int
	money  int
	total  int
}

// Export builds a three-sheet workbook: transactions newest first (undated
// last), the daily series and the category totals, each closed by a total row.
func (e *XLSXExporter) Export(rows []domain.NormalizedRecord, agg *domain.Aggregates) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetName("Sheet1", SheetTransactions); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetDaily, SheetCategories} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	writeTransactions(f, st, newestFirst(rows), agg.TotalAmount)
	writeDaily(f, st, agg.DailySeries)
	writeCategories(f, st, agg.CategoryTotals, agg.TotalAmount)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("cannot create Excel: %w", err)
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (*styles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerColor}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}

	total, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{totalColor}, Pattern: 1},
		NumFmt: moneyFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("total style: %w", err)
	}

	return &styles{header: header, money: money, total: total}, nil
}

func writeHeader(f *excelize.File, st *styles, sheet string, headers ...string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	f.SetCellStyle(sheet, "A1", last, st.header)
}

func writeTransactions(f *excelize.File, st *styles, rows []domain.NormalizedRecord, total float64) {
	sheet := SheetTransactions
	writeHeader(f, st, sheet, "Date", "Category", "Description", "Amount")

	for i, row := range rows {
		r := i + 2
		date := ""
		if row.CreatedAt != nil {
			date = row.CreatedAt.Format("2006-01-02 15:04")
		}
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), date)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), row.CategoryName)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", r), row.Text)
		f.SetCellValue(sheet, fmt.Sprintf("D%d", r), row.Price)
		f.SetCellStyle(sheet, fmt.Sprintf("D%d", r), fmt.Sprintf("D%d", r), st.money)
	}

	writeTotal(f, st, sheet, "D", len(rows)+2, total)

	f.SetColWidth(sheet, "A", "A", 18)
	f.SetColWidth(sheet, "B", "B", 18)
	f.SetColWidth(sheet, "C", "C", 36)
	f.SetColWidth(sheet, "D", "D", 14)
}

func writeDaily(f *excelize.File, st *styles, series []domain.DatedAmount) {
	sheet := SheetDaily
	writeHeader(f, st, sheet, "Date", "Amount")

	sum := 0.0
	for i, p := range series {
		r := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), p.Date)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), p.Amount)
		f.SetCellStyle(sheet, fmt.Sprintf("B%d", r), fmt.Sprintf("B%d", r), st.money)
		sum += p.Amount
	}

	writeTotal(f, st, sheet, "B", len(series)+2, sum)
	f.SetColWidth(sheet, "A", "B", 14)
}

func writeCategories(f *excelize.File, st *styles, totals []domain.NamedAmount, total float64) {
	sheet := SheetCategories
	writeHeader(f, st, sheet, "Category", "Amount")

	for i, c := range totals {
		r := i + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", r), c.Name)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", r), c.Amount)
		f.SetCellStyle(sheet, fmt.Sprintf("B%d", r), fmt.Sprintf("B%d", r), st.money)
	}

	writeTotal(f, st, sheet, "B", len(totals)+2, total)
	f.SetColWidth(sheet, "A", "A", 20)
	f.SetColWidth(sheet, "B", "B", 14)
}

// writeTotal writes "Total" in column A and amount in col on row r.
func writeTotal(f *excelize.File, st *styles, sheet, col string, r int, amount float64) {
	f.SetCellValue(sheet, fmt.Sprintf("A%d", r), "Total")
	f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, r), amount)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", r), fmt.Sprintf("%s%d", col, r), st.total)
}

func newestFirst(rows []domain.NormalizedRecord) []domain.NormalizedRecord {
	out := make([]domain.NormalizedRecord, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	return out
}
