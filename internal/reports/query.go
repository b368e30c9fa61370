// Package reports loads the distributor dashboard reports (members with
// commitments, member details) and exports them as CSV or PDF.
package reports

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/distrohub/mediadesk/internal/constants"
)

// ErrInvalidQuery marks report filters that cannot be sent to the backend.
var ErrInvalidQuery = errors.New("invalid report query")

// DateLayout is the wire and display format of report date filters.
const DateLayout = "2006-01-02"

// Supplier filter values. The backend expects the booleans as strings.
const (
	SupplierAny        = ""
	SupplierAssigned   = "true"
	SupplierUnassigned = "false"
)

// Query filters a report page.
type Query struct {
	Page     int
	Limit    int
	Search   string
	Status   string
	Supplier string
	From     time.Time
	To       time.Time
}

// Normalize clamps paging to sane values.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = constants.DefaultReportPageLimit
	}
	if q.Limit > constants.MaxPageLimit {
		q.Limit = constants.MaxPageLimit
	}
	q.Search = strings.TrimSpace(q.Search)
	q.Status = strings.TrimSpace(q.Status)
	return q
}

// Validate rejects filters the backend would misread.
func (q Query) Validate() error {
	switch q.Supplier {
	case SupplierAny, SupplierAssigned, SupplierUnassigned:
	default:
		return fmt.Errorf("%w: supplier filter %q: use true, false or empty", ErrInvalidQuery, q.Supplier)
	}
	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidQuery, q.To.Format(DateLayout), q.From.Format(DateLayout))
	}
	return nil
}

// Values encodes the query as page, limit, search, status,
// supplierAssigned, startDate and endDate. Empty filters are omitted.
func (q Query) Values() url.Values {
	q = q.Normalize()
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Supplier != SupplierAny {
		v.Set("supplierAssigned", q.Supplier)
	}
	if !q.From.IsZero() {
		v.Set("startDate", q.From.Format(DateLayout))
	}
	if !q.To.IsZero() {
		v.Set("endDate", q.To.Format(DateLayout))
	}
	return v
}

// ParseQuery reads a Query back from request parameters, the inverse of
// Values. Unparseable numbers fall back to defaults.
func ParseQuery(v url.Values) (Query, error) {
	q := Query{
		Search:   v.Get("search"),
		Status:   v.Get("status"),
		Supplier: v.Get("supplierAssigned"),
	}
	q.Page, _ = strconv.Atoi(v.Get("page"))
	q.Limit, _ = strconv.Atoi(v.Get("limit"))

	var err error
	if s := v.Get("startDate"); s != "" {
		if q.From, err = time.Parse(DateLayout, s); err != nil {
			return q, fmt.Errorf("%w: startDate %q: %w", ErrInvalidQuery, s, err)
		}
	}
	if s := v.Get("endDate"); s != "" {
		if q.To, err = time.Parse(DateLayout, s); err != nil {
			return q, fmt.Errorf("%w: endDate %q: %w", ErrInvalidQuery, s, err)
		}
	}
	q = q.Normalize()
	return q, q.Validate()
}

// Filter is one applied filter, as shown above an exported table.
type Filter struct {
	Label string
	Value string
}

// Filters lists the non-empty filters in display form.
func (q Query) Filters() []Filter {
	var out []Filter
	if s := strings.TrimSpace(q.Search); s != "" {
		out = append(out, Filter{"Search", s})
	}
	if s := strings.TrimSpace(q.Status); s != "" {
		out = append(out, Filter{"Status", s})
	}
	switch q.Supplier {
	case SupplierAssigned:
		out = append(out, Filter{"Supplier", "Assigned"})
	case SupplierUnassigned:
		out = append(out, Filter{"Supplier", "Not assigned"})
	}
	if !q.From.IsZero() {
		out = append(out, Filter{"From", q.From.Format(DateLayout)})
	}
	if !q.To.IsZero() {
		out = append(out, Filter{"To", q.To.Format(DateLayout)})
	}
	return out
}

// Scope selects which rows an export contains.
type Scope string

const (
	// ScopePage exports the rows of the loaded page only.
	ScopePage Scope = "page"
	// ScopeAllPages walks every page of the report.
	ScopeAllPages Scope = "all"
)

// ParseScope maps "" and "page" to ScopePage and "all" to ScopeAllPages.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ScopePage):
		return ScopePage, nil
	case string(ScopeAllPages):
		return ScopeAllPages, nil
	}
	return "", fmt.Errorf("invalid export scope %q: use page or all", s)
}
