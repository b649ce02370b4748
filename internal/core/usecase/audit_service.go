package usecase

import (
	"context"

	"github.com/opsenary/apptracker/internal/core/domain"
	"github.com/opsenary/apptracker/internal/core/ports"
)

// AuditService serves change-log queries over the API, reading the same file
// the sink writes.
type AuditService struct {
	reader ports.AuditTrailReader
}

func NewAuditService(reader ports.AuditTrailReader) *AuditService {
	return &AuditService{reader: reader}
}

func (s *AuditService) List(ctx context.Context, filter ports.AuditTrailFilter) ([]domain.AuditEvent, error) {
	if filter.Tail < 0 {
		filter.Tail = 0
	}
	if filter.Tail > 10000 {
		filter.Tail = 10000
	}
	return s.reader.Read(ctx, filter)
}
