package services

import (
	"fmt"
	"io"
	"strings"
	"time"

	"tender-scraper/models"
	"tender-scraper/utils"
)

// ReportService logs and renders per-sweep summaries.
type ReportService struct {
	logger *utils.Logger
	out    io.Writer
}

// NewReportService writes the rendered table to out. A nil out only logs.
func NewReportService(logger *utils.Logger, out io.Writer) *ReportService {
	return &ReportService{logger: logger.Component("report"), out: out}
}

// Log emits one structured line per source.
func (s *ReportService) Log(r *models.SweepReport) {
	for _, src := range r.Sources {
		var counts strings.Builder
		for _, o := range models.Outcomes {
			fmt.Fprintf(&counts, " %s=%d", o, src.Counts[o])
		}
		msg := fmt.Sprintf("%s: pages=%d%s in %v", src.Source, src.Pages, counts.String(),
			src.Duration.Round(time.Millisecond))
		if src.Err != nil {
			s.logger.Warn("%s (stopped: %v)", msg, src.Err)
			continue
		}
		s.logger.Info("%s", msg)
	}
}

// Print renders the sweep as a small table, one column per outcome.
func (s *ReportService) Print(r *models.SweepReport) {
	if s.out == nil {
		return
	}
	sep := strings.Repeat("═", 62)
	thin := strings.Repeat("─", 62)

	fmt.Fprintf(s.out, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(s.out, "\033[1;35m  SWEEP #%d  %s → %s\033[0m\n", r.Number,
		r.StartedAt.Format("15:04:05"), r.FinishedAt.Format("15:04:05"))
	fmt.Fprintf(s.out, "\033[1;35m%s\033[0m\n", sep)

	fmt.Fprintf(s.out, "  %-12s %5s", "Source", "Pages")
	for _, o := range models.Outcomes {
		fmt.Fprintf(s.out, " %9s", titleCase(string(o)))
	}
	fmt.Fprintf(s.out, "\n  %s\n", thin)

	for _, src := range r.Sources {
		fmt.Fprintf(s.out, "  %-12s %5d", truncate(string(src.Source), 12), src.Pages)
		for _, o := range models.Outcomes {
			fmt.Fprintf(s.out, " %9d", src.Counts[o])
		}
		fmt.Fprintln(s.out)
	}
	fmt.Fprintf(s.out, "  %s\n", thin)
	fmt.Fprintf(s.out, "  %-12s %5s", "Total", "")
	for _, o := range models.Outcomes {
		fmt.Fprintf(s.out, " %9d", r.Total(o))
	}
	fmt.Fprintln(s.out)

	for _, src := range r.Sources {
		if src.Err != nil {
			fmt.Fprintf(s.out, "  \033[33m! %s: %v\033[0m\n", src.Source, src.Err)
		}
	}
	fmt.Fprintf(s.out, "\033[1;35m%s\033[0m\n\n", sep)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
