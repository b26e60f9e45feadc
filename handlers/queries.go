package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Madhav-Gupta-28/olist-insights/reports"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type QueryInfo struct {
	Number      int             `json:"number"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Note        string          `json:"note,omitempty"`
	Columns     []string        `json:"columns"`
	Charts      []reports.Chart `json:"charts"`
}

type QueryResult struct {
	QueryInfo
	Rows []reports.Row `json:"rows"`
}

func info(q *reports.Query) QueryInfo {
	return QueryInfo{
		Number:      q.Number,
		Slug:        q.Slug,
		Title:       q.Title,
		Description: q.Description,
		Note:        q.Note,
		Columns:     q.Columns,
		Charts:      q.Charts,
	}
}

// ListQueries returns the menu.
func (h *Handler) ListQueries(c echo.Context) error {
	catalog := h.reports.Catalog()
	out := make([]QueryInfo, 0, len(catalog))
	for _, q := range catalog {
		out = append(out, info(q))
	}
	return c.JSON(http.StatusOK, out)
}

// RunQuery runs one query, selected by number or slug. With ?format=csv the
// table is returned as CSV.
func (h *Handler) RunQuery(c echo.Context) error {
	id := c.Param("id")
	q, err := h.reports.Catalog().Find(id)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Query not found"})
	}

	format := c.QueryParam("format")
	if format != "" && format != "json" && format != "csv" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unsupported format"})
	}

	ctx := c.Request().Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	table, err := h.reports.Run(ctx, q.Slug)
	if err != nil {
		if errors.Is(err, reports.ErrUnknownQuery) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Query not found"})
		}
		h.logger.Error("Failed to run query", zap.String("query", q.Slug), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to run query"})
	}

	if format == "csv" {
		res := c.Response()
		res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
		res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+q.Slug+`.csv"`)
		res.WriteHeader(http.StatusOK)
		return reports.WriteCSV(res, table)
	}

	return c.JSON(http.StatusOK, QueryResult{QueryInfo: info(q), Rows: table.Rows})
}
