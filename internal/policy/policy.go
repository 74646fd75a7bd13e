// Package policy decides what an authenticated sales rep may do with quotes,
// products, and templates. Roles: REP works on their own quotes; MAN and ADM
// see and decide on everyone's; catalog management is ADM only.
package policy

import (
	"github.com/mfarias/cotizador/internal/models"
	"github.com/mfarias/cotizador/internal/workflow"
)

// CanViewQuote: owners see their quotes, managerial roles see all.
func CanViewQuote(rep *models.SalesRep, q *models.Quote) bool {
	if rep == nil {
		return false
	}
	return rep.IsManagerial() || q.SalesRepID == rep.ID
}

// ScopeToOwn reports whether quote listings must be filtered to the rep's
// own quotes.
func ScopeToOwn(rep *models.SalesRep) bool {
	return rep != nil && !rep.IsManagerial()
}

// CanEditQuote combines visibility with the workflow editability rule: a
// pending or self-approved quote may be edited, a manager-approved, rejected
// or closed one may not, regardless of role.
func CanEditQuote(rep *models.SalesRep, q *models.Quote) bool {
	return CanViewQuote(rep, q) && workflow.Editable(q)
}

// CanDeleteQuote matches edit permissions.
func CanDeleteQuote(rep *models.SalesRep, q *models.Quote) bool {
	return CanEditQuote(rep, q)
}

// CanDecideQuote: approving, rejecting, or closing a quote is a managerial
// action. Auto-approval on save is the system acting, so it does not pass
// through here.
func CanDecideQuote(rep *models.SalesRep) bool {
	return rep != nil && rep.IsManagerial()
}

// CanManageCatalog: product and template maintenance is ADM only.
func CanManageCatalog(rep *models.SalesRep) bool {
	return rep != nil && rep.Role == models.RoleAdmin
}
