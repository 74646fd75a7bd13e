// Package workflow governs quote status transitions and edit permissions.
package workflow

import "github.com/mfarias/cotizador/internal/models"

// Approve moves a quote to AP and records the acting approver. A closed
// quote is left untouched: CL is terminal and transition attempts on it are
// silently ignored rather than rejected.
func Approve(q *models.Quote, actor *models.SalesRep) {
	if q.Status == models.StatusClosed {
		return
	}
	q.Status = models.StatusApproved
	q.ApproverID = &actor.ID
}

// Reject moves a quote to RJ and records the acting approver. Ignored on a
// closed quote.
func Reject(q *models.Quote, actor *models.SalesRep) {
	if q.Status == models.StatusClosed {
		return
	}
	q.Status = models.StatusRejected
	q.ApproverID = &actor.ID
}

// Close moves a quote to CL. Terminal; repeated calls are ignored.
func Close(q *models.Quote) {
	if q.Status == models.StatusClosed {
		return
	}
	q.Status = models.StatusClosed
}

// AutoApprove approves a pending quote with no discounted line items,
// recording the owning sales rep as its approver. Quotes carrying any
// discount stay pending for manual review. Returns true if the quote was
// transitioned.
func AutoApprove(q *models.Quote) bool {
	if q.Status != models.StatusPending || q.Discounted() {
		return false
	}
	q.Status = models.StatusApproved
	q.ApproverID = &q.SalesRepID
	return true
}

// Editable reports whether a quote may still be modified: while pending, or
// after a self-approval (approver is the quote's own sales rep). A quote
// approved or rejected by a manager is frozen.
func Editable(q *models.Quote) bool {
	switch q.Status {
	case models.StatusPending:
		return true
	case models.StatusApproved:
		return q.ApproverID != nil && *q.ApproverID == q.SalesRepID
	default:
		return false
	}
}
