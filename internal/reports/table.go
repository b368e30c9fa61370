package reports

import (
	"strconv"

	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/util/format"
)

// Table is a report rendered to strings, shared by the CLI, the
// dashboard and the exporters.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// CommitmentsTable renders members-with-commitments rows.
func CommitmentsTable(items []models.MemberCommitment) Table {
	t := Table{Columns: []string{
		"Member", "Business", "Email", "Phone", "Commitments",
		"Quantity", "Amount", "Status", "Supplier", "Last Commitment",
	}}
	for _, m := range items {
		t.Rows = append(t.Rows, []string{
			m.Name,
			m.BusinessName,
			m.Email,
			m.Phone,
			strconv.Itoa(m.TotalCommitments),
			strconv.Itoa(m.TotalQuantity),
			format.FormatAmount(m.TotalAmount),
			m.Status,
			supplierLabel(m.SupplierAssigned),
			format.FormatDate(m.LastCommitmentDate),
		})
	}
	return t
}

// MemberTable renders one member's deal commitments.
func MemberTable(items []models.DealCommitment) Table {
	t := Table{Columns: []string{
		"Deal", "Category", "Quantity", "Amount", "Status", "Supplier", "Committed",
	}}
	for _, d := range items {
		t.Rows = append(t.Rows, []string{
			d.DealName,
			d.Category,
			strconv.Itoa(d.Quantity),
			format.FormatAmount(d.Amount),
			d.Status,
			supplierLabel(d.SupplierAssigned),
			format.FormatDate(d.CommittedAt),
		})
	}
	return t
}

func supplierLabel(assigned bool) string {
	if assigned {
		return "Assigned"
	}
	return "Not assigned"
}

// StatCard is one label/value tile above a report.
type StatCard struct {
	Label string
	Value string
}

// CommitmentStatCards renders the commitments report summary.
func CommitmentStatCards(s models.CommitmentStats) []StatCard {
	return []StatCard{
		{"Members", strconv.Itoa(s.TotalMembers)},
		{"Commitments", strconv.Itoa(s.TotalCommitments)},
		{"Total Amount", format.FormatAmount(s.TotalAmount)},
		{"Pending", strconv.Itoa(s.PendingCommitments)},
		{"Approved", strconv.Itoa(s.ApprovedCommitments)},
	}
}

// MemberStatCards renders the member report summary.
func MemberStatCards(s models.MemberStats) []StatCard {
	return []StatCard{
		{"Commitments", strconv.Itoa(s.TotalCommitments)},
		{"Quantity", strconv.Itoa(s.TotalQuantity)},
		{"Total Amount", format.FormatAmount(s.TotalAmount)},
		{"Approved", strconv.Itoa(s.ApprovedCommitments)},
		{"Pending", strconv.Itoa(s.PendingCommitments)},
	}
}
