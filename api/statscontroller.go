package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tender-scraper/models"
)

// SourceStats is one row of the stats response.
type SourceStats struct {
	Stored   int    `json:"stored"`
	Pages    int    `json:"pages"`
	Accepted int    `json:"accepted"`
	Known    int    `json:"known"`
	Rejected int    `json:"rejected"`
	Failed   int    `json:"failed"`
	Error    string `json:"error,omitempty"`
}

// StatsResponse combines stored totals with the last sweep.
type StatsResponse struct {
	Sweep    int                    `json:"sweep"`
	Finished *time.Time             `json:"finished_at,omitempty"`
	Sources  map[string]SourceStats `json:"sources"`
}

// RegisterStatsRoutes registers GET /api/stats.
func RegisterStatsRoutes(r *gin.Engine, counter Counter, s Scheduler) {
	r.GET("/api/stats", func(c *gin.Context) {
		counts, err := counter.CountBySource(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count listings: " + err.Error()})
			return
		}

		resp := StatsResponse{Sources: make(map[string]SourceStats)}
		for src, n := range counts {
			resp.Sources[string(src)] = SourceStats{Stored: n}
		}

		var last *models.SweepReport
		if s != nil {
			last = s.LastReport()
		}
		if last != nil {
			resp.Sweep = last.Number
			finished := last.FinishedAt
			resp.Finished = &finished
			for _, rep := range last.Sources {
				st := resp.Sources[string(rep.Source)]
				st.Pages = rep.Pages
				st.Accepted = rep.Counts[models.OutcomeAccepted]
				st.Known = rep.Counts[models.OutcomeKnown]
				st.Rejected = rep.Counts[models.OutcomeRejected]
				st.Failed = rep.Counts[models.OutcomeFailed]
				if rep.Err != nil {
					st.Error = rep.Err.Error()
				}
				resp.Sources[string(rep.Source)] = st
			}
		}

		c.JSON(http.StatusOK, resp)
	})
}
