package analysishttp

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/meridian-fin/meridian/internal/analysis"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

// amountPrinter renders monetary figures with Spanish locale digit grouping,
// matching the statements the reports are built from.
var amountPrinter = message.NewPrinter(language.Spanish)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer}
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.pendingLines >= csvFlushEvery {
		return s.flush()
	}
	return nil
}

func (s *csvStreamer) flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func formatAmount(v float64) string {
	return amountPrinter.Sprintf("%.2f", v)
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return formatAmount(*v)
}

func writeHorizontalCSV(w io.Writer, report *analysis.HorizontalReport) error {
	s := newCSVStreamer(w)

	header := []string{"Type", "Code", "Account"}
	for _, year := range report.Years {
		header = append(header, strconv.Itoa(year))
	}
	for _, period := range report.Periods {
		header = append(header, period+" abs", period+" %")
	}
	if err := s.writeRow(header); err != nil {
		return err
	}

	for _, group := range report.Groups {
		for _, acc := range group.Accounts {
			row := []string{string(group.Type), acc.Code, acc.Name}
			for _, year := range report.Years {
				row = append(row, formatOptional(acc.AmountsByYear[year]))
			}
			for _, v := range acc.Variances {
				row = append(row, formatOptional(v.Absolute), formatOptional(v.Percent))
			}
			if err := s.writeRow(row); err != nil {
				return err
			}
		}
	}
	return s.flush()
}

func writeVerticalCSV(w io.Writer, report *analysis.VerticalReport) error {
	s := newCSVStreamer(w)

	header := []string{"Type", "Code", "Account"}
	for _, year := range report.Years {
		y := strconv.Itoa(year)
		header = append(header, y+" amount", y+" %")
	}
	if err := s.writeRow(header); err != nil {
		return err
	}

	for _, group := range report.Groups {
		for _, acc := range group.Accounts {
			row := []string{string(group.Type), acc.Code, acc.Name}
			for _, year := range report.Years {
				cell := acc.CellsByYear[year]
				if cell == nil {
					row = append(row, "", "")
					continue
				}
				row = append(row, formatAmount(cell.Amount), formatAmount(cell.Percent))
			}
			if err := s.writeRow(row); err != nil {
				return err
			}
		}
		totalRow := []string{string(group.Type), "", "Category total"}
		for _, year := range report.Years {
			totalRow = append(totalRow, formatAmount(group.TotalsByYear[year]), "")
		}
		if err := s.writeRow(totalRow); err != nil {
			return err
		}
	}
	return s.flush()
}

func (h *Handler) handleHorizontalExport(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.horizontalReport(r.Context(), params)
	if err != nil {
		h.respondReportError(w, params, err)
		return
	}
	setCSVHeaders(w, fmt.Sprintf("horizontal_%d", params.companyID))
	if err := writeHorizontalCSV(w, report); err != nil {
		h.logger.Error("stream horizontal csv", slog.Any("error", err))
	}
}

func (h *Handler) handleVerticalExport(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseParams(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	report, err := h.verticalReport(r.Context(), params)
	if err != nil {
		h.respondReportError(w, params, err)
		return
	}
	setCSVHeaders(w, fmt.Sprintf("vertical_%d", params.companyID))
	if err := writeVerticalCSV(w, report); err != nil {
		h.logger.Error("stream vertical csv", slog.Any("error", err))
	}
}

func setCSVHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))
}
