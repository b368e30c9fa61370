package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/session"
)

func TestQueryValues(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		q    Query
		want url.Values
	}{
		{
			name: "defaults",
			q:    Query{},
			want: url.Values{"page": {"1"}, "limit": {"10"}},
		},
		{
			name: "all filters",
			q:    Query{Page: 2, Limit: 25, Search: " acme ", Status: "approved", Supplier: SupplierUnassigned, From: from, To: to},
			want: url.Values{
				"page": {"2"}, "limit": {"25"}, "search": {"acme"}, "status": {"approved"},
				"supplierAssigned": {"false"}, "startDate": {"2024-01-01"}, "endDate": {"2024-03-31"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.q.Values()
			if got.Encode() != tt.want.Encode() {
				t.Errorf("Values() = %s, want %s", got.Encode(), tt.want.Encode())
			}
		})
	}
}

func TestParseQueryRoundTrip(t *testing.T) {
	in := Query{Page: 3, Limit: 5, Search: "bolt", Supplier: SupplierAssigned, From: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	out, err := ParseQuery(in.Values())
	if err != nil {
		t.Fatal(err)
	}
	if out.Page != 3 || out.Limit != 5 || out.Search != "bolt" || out.Supplier != SupplierAssigned || !out.From.Equal(in.From) {
		t.Errorf("ParseQuery = %+v", out)
	}

	if _, err := ParseQuery(url.Values{"supplierAssigned": {"maybe"}}); err == nil {
		t.Error("invalid supplier accepted")
	}
	if _, err := ParseQuery(url.Values{"startDate": {"2024-05-02"}, "endDate": {"2024-05-01"}}); err == nil {
		t.Error("reversed date range accepted")
	}
}

func TestFilters(t *testing.T) {
	q := Query{Search: "acme", Supplier: SupplierAssigned}
	got := q.Filters()
	if len(got) != 2 || got[0] != (Filter{"Search", "acme"}) || got[1] != (Filter{"Supplier", "Assigned"}) {
		t.Errorf("Filters() = %v", got)
	}
	if len(Query{}.Filters()) != 0 {
		t.Error("empty query has filters")
	}
}

// fakeSource serves total commitments split into pages of q.Limit.
type fakeSource struct {
	total   int
	queries []url.Values
	err     error
}

func (f *fakeSource) MembersWithCommitments(ctx context.Context, sess *session.Session, q url.Values) (*models.CommitmentPage, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	pages := (f.total + limit - 1) / limit
	p := &models.CommitmentPage{Pagination: models.Pagination{CurrentPage: page, TotalPages: pages}}
	for i := (page - 1) * limit; i < page*limit && i < f.total; i++ {
		p.Items = append(p.Items, models.MemberCommitment{ID: strconv.Itoa(i), Name: "Member " + strconv.Itoa(i)})
	}
	p.Stats.TotalMembers = f.total
	return p, nil
}

func (f *fakeSource) MemberDetails(ctx context.Context, sess *session.Session, id string, q url.Values) (*models.MemberDetails, error) {
	f.queries = append(f.queries, q)
	page, _ := strconv.Atoi(q.Get("page"))
	d := &models.MemberDetails{
		Member:     models.Member{ID: id, Name: "Dana", BusinessName: "Acme"},
		Pagination: models.Pagination{CurrentPage: page, TotalPages: 2},
		Items:      []models.DealCommitment{{DealName: "Deal " + strconv.Itoa(page), Quantity: page}},
	}
	return d, nil
}

func testSession(t *testing.T) *session.Session {
	t.Helper()
	sess, err := session.New("dist-1", "", "")
	if err != nil {
		t.Fatal(err)
	}
	return sess
}

func TestPageLimit(t *testing.T) {
	src := &fakeSource{total: 23}
	svc := NewService(src, nil)
	page, err := svc.Commitments(context.Background(), testSession(t), Query{Page: 3, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) > 10 || page.Pagination.CurrentPage != 3 || len(page.Items) != 3 {
		t.Errorf("page 3: %d items, %+v", len(page.Items), page.Pagination)
	}
}

func TestExportScope(t *testing.T) {
	ctx := context.Background()
	sess := testSession(t)

	src := &fakeSource{total: 23}
	svc := NewService(src, nil)
	r, err := svc.CommitmentsReport(ctx, sess, Query{Page: 2, Limit: 10}, ScopePage)
	if err != nil {
		t.Fatal(err)
	}
	if r.Table.Len() != 10 || len(src.queries) != 1 || src.queries[0].Get("page") != "2" {
		t.Errorf("page scope: %d rows, %d requests", r.Table.Len(), len(src.queries))
	}

	src = &fakeSource{total: 23}
	svc = NewService(src, nil)
	r, err = svc.CommitmentsReport(ctx, sess, Query{Page: 2, Limit: 10}, ScopeAllPages)
	if err != nil {
		t.Fatal(err)
	}
	if r.Table.Len() != 23 || len(src.queries) != 3 {
		t.Errorf("all pages: %d rows, %d requests", r.Table.Len(), len(src.queries))
	}
}

func TestMemberReportAllPages(t *testing.T) {
	svc := NewService(&fakeSource{}, nil)
	r, err := svc.MemberReport(context.Background(), testSession(t), "m1", Query{}, ScopeAllPages)
	if err != nil {
		t.Fatal(err)
	}
	if r.Table.Len() != 2 || r.Title != "Member Commitments: Dana (Acme)" {
		t.Errorf("report = %q with %d rows", r.Title, r.Table.Len())
	}
}

func TestServiceError(t *testing.T) {
	svc := NewService(&fakeSource{err: errors.New("502")}, nil)
	if _, err := svc.AllCommitments(context.Background(), testSession(t), Query{}); err == nil {
		t.Error("error swallowed")
	}
}

func TestWriteCSVQuoting(t *testing.T) {
	table := Table{
		Columns: []string{"Name", "Note"},
		Rows: [][]string{
			{"Acme, Inc.", `say "hi"`},
			{"=HYPERLINK()", "line1\nline2"},
			{"short"},
		},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"Acme, Inc.","say ""hi"""`) {
		t.Errorf("quoting wrong:\n%s", out)
	}

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d", len(records))
	}
	if records[2][0] != "'=HYPERLINK()" || records[2][1] != "line1 line2" {
		t.Errorf("row 2 = %q", records[2])
	}
	if records[3][1] != "" {
		t.Errorf("short row not padded: %q", records[3])
	}
}

func TestWritePDF(t *testing.T) {
	rows := make([]models.MemberCommitment, 60)
	for i := range rows {
		rows[i] = models.MemberCommitment{Name: "Member " + strconv.Itoa(i), BusinessName: "Café Ümlaut", TotalAmount: 1234.5}
	}
	var buf bytes.Buffer
	err := WritePDF(&buf, "Members with Commitments", []Filter{{"Status", "approved"}}, CommitmentsTable(rows))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}

	buf.Reset()
	if err := WritePDF(&buf, "Empty", nil, Table{Columns: []string{"A"}}); err != nil {
		t.Fatal(err)
	}
}

func TestParseFormatAndScope(t *testing.T) {
	if f, err := ParseFormat("PDF"); err != nil || f != FormatPDF {
		t.Errorf("ParseFormat(PDF) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("xlsx accepted")
	}
	if s, _ := ParseScope(""); s != ScopePage {
		t.Errorf("default scope = %q", s)
	}
	if s, _ := ParseScope("all"); s != ScopeAllPages {
		t.Errorf("ParseScope(all) = %q", s)
	}
}

func TestStatCards(t *testing.T) {
	cards := CommitmentStatCards(models.CommitmentStats{TotalMembers: 4, TotalAmount: 1500})
	if cards[0] != (StatCard{"Members", "4"}) || cards[2].Value != "$1,500.00" {
		t.Errorf("cards = %v", cards)
	}
}

func TestReportFileName(t *testing.T) {
	r := Report{Name: "commitments"}
	got := r.FileName(FormatCSV, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	if got != "commitments-2024-05-01.csv" {
		t.Errorf("FileName = %q", got)
	}
}
