package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/reports"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource answers every query with a fixed table or error and records the
// deadline it was called with.
type stubSource struct {
	table    *reports.Table
	err      error
	deadline time.Time
}

func (s *stubSource) Catalog() reports.Catalog { return reports.DefaultCatalog() }

func (s *stubSource) Run(ctx context.Context, id string) (*reports.Table, error) {
	s.deadline, _ = ctx.Deadline()
	return s.table, s.err
}

func serve(h *Handler, id, query string) *httptest.ResponseRecorder {
	e := echo.New()
	target := "/api/queries/" + id
	if query != "" {
		target += "?" + query
	}
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	_ = h.RunQuery(c)
	return rec
}

func TestRunQueryStoreFailure(t *testing.T) {
	src := &stubSource{err: errors.New("server selection error")}
	rec := serve(New(src, 0, nil), "2", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Failed to run query"}`, rec.Body.String())
}

func TestRunQueryAppliesTimeout(t *testing.T) {
	src := &stubSource{table: &reports.Table{Columns: []string{"payment_type", "count", "total_amount"}, Rows: []reports.Row{}}}
	before := time.Now()
	rec := serve(New(src, 30*time.Second, nil), "6", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, src.deadline.IsZero())
	assert.WithinDuration(t, before.Add(30*time.Second), src.deadline, 5*time.Second)
}

func TestRunQueryFormatsDates(t *testing.T) {
	src := &stubSource{table: &reports.Table{
		Columns: []string{"year", "month", "total_sales", "date"},
		Rows: []reports.Row{{
			"year": int64(2017), "month": int64(1), "total_sales": 120.5,
			"date": time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC),
		}},
	}}
	rec := serve(New(src, 0, nil), "1", "format=csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "year,month,total_sales,date\n2017,1,120.5,2017-01-01\n", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "monthly-sales-trends.csv")
}
