package models

import "time"

// MemberCommitment is one row of the members-with-commitments report.
type MemberCommitment struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	BusinessName       string    `json:"businessName"`
	Email              string    `json:"email"`
	Phone              string    `json:"phone"`
	TotalCommitments   int       `json:"totalCommitments"`
	TotalQuantity      int       `json:"totalQuantity"`
	TotalAmount        float64   `json:"totalAmount"`
	Status             string    `json:"status"`
	SupplierAssigned   bool      `json:"supplierAssigned"`
	LastCommitmentDate time.Time `json:"lastCommitmentDate"`
}

// CommitmentStats are the stat cards of the commitments report.
type CommitmentStats struct {
	TotalMembers        int     `json:"totalMembers"`
	TotalCommitments    int     `json:"totalCommitments"`
	TotalAmount         float64 `json:"totalAmount"`
	PendingCommitments  int     `json:"pendingCommitments"`
	ApprovedCommitments int     `json:"approvedCommitments"`
}

// Member is the header block of the member-details report.
type Member struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	BusinessName string `json:"businessName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
}

// DealCommitment is one row of the member-details report.
type DealCommitment struct {
	ID               string    `json:"id"`
	DealName         string    `json:"dealName"`
	Category         string    `json:"category"`
	Quantity         int       `json:"quantity"`
	Amount           float64   `json:"amount"`
	Status           string    `json:"status"`
	SupplierAssigned bool      `json:"supplierAssigned"`
	CommittedAt      time.Time `json:"committedAt"`
}

// MemberStats are the stat cards of the member-details report.
type MemberStats struct {
	TotalCommitments    int     `json:"totalCommitments"`
	TotalQuantity       int     `json:"totalQuantity"`
	TotalAmount         float64 `json:"totalAmount"`
	ApprovedCommitments int     `json:"approvedCommitments"`
	PendingCommitments  int     `json:"pendingCommitments"`
}

// CommitmentPage is one page of the commitments report.
type CommitmentPage = Page[MemberCommitment, CommitmentStats]

// MemberDetails is one page of the member-details report.
type MemberDetails struct {
	Member     Member           `json:"member"`
	Items      []DealCommitment `json:"items"`
	Pagination Pagination       `json:"pagination"`
	Stats      MemberStats      `json:"stats"`
}
