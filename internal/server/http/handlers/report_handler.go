package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const dateLayout = "2006-01-02"

// ReportHandler serves sales reports.
type ReportHandler struct {
	facade ReportFacade
	now    func() time.Time
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(facade ReportFacade) *ReportHandler {
	return &ReportHandler{facade: facade, now: time.Now}
}

// Daily handles GET /api/reports/daily. The range is either ?from=&to= in
// RFC 3339, a business day given as ?date=YYYY-MM-DD, or today.
func (h *ReportHandler) Daily(c *gin.Context) {
	from, to, ok := h.reportRange(c)
	if !ok {
		return
	}

	summary, err := h.facade.DailySummary(c.Request.Context(), from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummaryResponse(*summary))
}

func (h *ReportHandler) reportRange(c *gin.Context) (time.Time, time.Time, bool) {
	rawFrom, rawTo := c.Query("from"), c.Query("to")
	if rawFrom != "" || rawTo != "" {
		from, errFrom := time.Parse(time.RFC3339, rawFrom)
		to, errTo := time.Parse(time.RFC3339, rawTo)
		if errFrom != nil || errTo != nil {
			badRequest(c, "from and to must both be RFC 3339 timestamps")
			return time.Time{}, time.Time{}, false
		}
		return from, to, true
	}

	if raw := c.Query("date"); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, h.facade.ReportLocation())
		if err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return time.Time{}, time.Time{}, false
		}
		from, to := h.facade.DayRange(day)
		return from, to, true
	}

	from, to := h.facade.DayRange(h.now())
	return from, to, true
}
