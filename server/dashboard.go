package server

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/leiwu2020/salesagents/auth"
	"github.com/leiwu2020/salesagents/log"
	"github.com/leiwu2020/salesagents/model"
)

// handleDashboard renders a bar chart of the caller's customers per status
func (s *Server) handleDashboard(c *gin.Context) {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
		return
	}

	counts, err := s.store.CustomersByStatus(identity.UserID)
	if err != nil {
		log.Log.Errorf("dashboard failed for user %d: %v", identity.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build dashboard"})
		return
	}

	statuses := chartStatuses(counts)
	data := make([]opts.BarData, 0, len(statuses))
	for _, status := range statuses {
		data = append(data, opts.BarData{Value: counts[status]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Customer pipeline",
			Subtitle: "Customers per status for " + identity.Username,
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "900px",
			Height: "500px",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
	)
	bar.SetXAxis(statuses)
	bar.AddSeries("customers", data)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := bar.Render(c.Writer); err != nil {
		log.Log.Errorf("dashboard render failed for user %d: %v", identity.UserID, err)
	}
}

// chartStatuses returns the known statuses in pipeline order, followed by any
// other status values present in the data, so no customer is dropped from the
// chart
func chartStatuses(counts map[string]int) []string {
	statuses := []string{model.CustomerStatusLead, model.CustomerStatusActive, model.CustomerStatusChurned}
	known := map[string]bool{
		model.CustomerStatusLead:    true,
		model.CustomerStatusActive:  true,
		model.CustomerStatusChurned: true,
	}

	var extra []string
	for status := range counts {
		if !known[status] {
			extra = append(extra, status)
		}
	}
	sort.Strings(extra)
	return append(statuses, extra...)
}
