package serviceinterfaces

import (
	"context"

	"civicreport/internal/models"
)

// EmailService defines the interface for email functionality
type EmailService interface {
	// SendOverdueDigest sends the authority a digest of overdue open tickets
	SendOverdueDigest(ctx context.Context, tickets []models.Ticket) error

	// IsEnabled returns whether email functionality is enabled
	IsEnabled() bool
}
