package service

import (
	"github.com/99minutos/user-management/internal/core/domain"
	"github.com/99minutos/user-management/internal/core/ports"
)

type discardAudit struct{}

func (discardAudit) Record(domain.AuditEvent) {}

// DiscardAudit is an AuditRecorder that drops every event.
var DiscardAudit ports.AuditRecorder = discardAudit{}

func auditOrDiscard(r ports.AuditRecorder) ports.AuditRecorder {
	if r == nil {
		return DiscardAudit
	}
	return r
}
