package engine

import "time"

// JobClient schedules background follow-ups for transactions. Scheduling is
// best-effort; a failed enqueue never fails the transaction.
type JobClient interface {
	SchedulePrescriptionExpiry(prescriptionID string, validUntil time.Time) error
	ScheduleStaleClaimReminder(claimID string) error
}
