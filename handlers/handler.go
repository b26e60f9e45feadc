package handlers

import (
	"time"

	"github.com/Madhav-Gupta-28/olist-insights/reports"
	"go.uber.org/zap"
)

// Handler serves the report menu and query results over HTTP.
type Handler struct {
	reports reports.Source
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Handler. A zero timeout leaves the request context as is.
func New(src reports.Source, timeout time.Duration, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reports: src, timeout: timeout, logger: logger}
}
