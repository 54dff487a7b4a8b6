package dto

import (
	"strings"

	"github.com/psuflow/psuflow-api/internal/models"
)

// ExportQuery captures GET /staff/overview/export.
type ExportQuery struct {
	Format string `form:"format"`
	StaffQuery
}

// ExportFormat normalises the requested format, defaulting to CSV.
func (q ExportQuery) ExportFormat() models.ExportFormat {
	if q.Format == "" {
		return models.ExportFormatCSV
	}
	return models.ExportFormat(strings.ToLower(q.Format))
}
