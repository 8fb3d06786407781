package service

import (
	"context"

	"github.com/google/uuid"
)

// StreakService maintains the user-level general streak: the count of
// consecutive local days on which every active, today-scheduled habit
// reached completion.
type StreakService interface {
	// Recompute re-evaluates the user's general streak for the current
	// local day. At most one net increment is attributable to a single day;
	// the increment is reversible within the same day if a habit is
	// un-completed after it was earned.
	Recompute(ctx context.Context, userID uuid.UUID) error

	// AuditMissedDays scans users holding an active streak and zeroes the
	// streak of anyone whose previous local day was not fully completed,
	// reconstructed from the completion ledger. This punishes silent
	// absence, which live recomputes never observe.
	AuditMissedDays(ctx context.Context) error

	// SetVacation toggles vacation mode, which freezes the user's streak:
	// recomputes skip the user and the audit population excludes them
	SetVacation(ctx context.Context, userID uuid.UUID, on bool) error
}
