package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/distrohub/mediadesk/internal/api"
	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/reports"
	"github.com/distrohub/mediadesk/internal/session"
)

type fakeSource struct {
	members []models.MemberCommitment
	err     error
	queries []url.Values
}

func (f *fakeSource) MembersWithCommitments(ctx context.Context, sess *session.Session, q url.Values) (*models.CommitmentPage, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	p := &models.CommitmentPage{
		Pagination: models.Pagination{CurrentPage: page, TotalPages: (len(f.members) + limit - 1) / limit},
		Stats:      models.CommitmentStats{TotalMembers: len(f.members)},
	}
	for i := (page - 1) * limit; i < page*limit && i < len(f.members); i++ {
		p.Items = append(p.Items, f.members[i])
	}
	return p, nil
}

func (f *fakeSource) MemberDetails(ctx context.Context, sess *session.Session, id string, q url.Values) (*models.MemberDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.MemberDetails{
		Member:     models.Member{ID: id, Name: "Dana Reyes", BusinessName: "Reyes Hardware"},
		Items:      []models.DealCommitment{{DealName: "Spring Bolts", Quantity: 4, Amount: 99.5}},
		Pagination: models.Pagination{CurrentPage: 1, TotalPages: 1},
		Stats:      models.MemberStats{TotalCommitments: 1},
	}, nil
}

func newTestServer(t *testing.T, src *fakeSource) *httptest.Server {
	t.Helper()
	sess, err := session.New("dist-1", "", "")
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(reports.NewService(src, nil), sess, Options{
		CORSOrigins: []string{"https://admin.example"},
		Now:         func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func members(n int) []models.MemberCommitment {
	out := make([]models.MemberCommitment, n)
	for i := range out {
		out[i] = models.MemberCommitment{ID: "m" + strconv.Itoa(i), Name: "Member " + strconv.Itoa(i), TotalAmount: 10}
	}
	return out
}

func get(t *testing.T, u string) (*nethttp.Response, string) {
	t.Helper()
	resp, err := nethttp.Get(u)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var b strings.Builder
	buf := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(buf)
		b.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return resp, b.String()
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})
	resp, body := get(t, ts.URL+"/healthz")
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var v map[string]string
	if err := json.Unmarshal([]byte(body), &v); err != nil || v["status"] != "ok" {
		t.Errorf("body = %s", body)
	}
}

func TestCommitmentsPage(t *testing.T) {
	src := &fakeSource{members: members(25)}
	ts := newTestServer(t, src)

	resp, body := get(t, ts.URL+"/reports/commitments?page=2&search=Member")
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	for _, want := range []string{"Member 10", "Member 19", "Filters: Search: Member", "export.csv?", "scope=all"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "Member 9<") {
		t.Error("page 2 shows a page 1 row")
	}
	if got := src.queries[0].Get("search"); got != "Member" {
		t.Errorf("search forwarded as %q", got)
	}
}

func TestExportCSVCurrentPage(t *testing.T) {
	src := &fakeSource{members: members(25)}
	ts := newTestServer(t, src)

	resp, body := get(t, ts.URL+"/reports/commitments/export.csv?page=3")
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "commitments-2024-05-01.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimSpace(body), "\n")
	if len(lines) != 6 {
		t.Errorf("csv lines = %d, want header + 5", len(lines))
	}
}

func TestExportAllPages(t *testing.T) {
	src := &fakeSource{members: members(25)}
	ts := newTestServer(t, src)

	resp, body := get(t, ts.URL+"/reports/commitments/export.csv?scope=all")
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if n := len(strings.Split(strings.TrimSpace(body), "\n")); n != 26 {
		t.Errorf("csv lines = %d, want 26", n)
	}
	if len(src.queries) != 3 {
		t.Errorf("backend pages fetched = %d", len(src.queries))
	}
}

func TestExportPDFMember(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})
	resp, body := get(t, ts.URL+"/reports/members/m1/export.pdf")
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Type") != "application/pdf" || !strings.HasPrefix(body, "%PDF-") {
		t.Errorf("not a PDF: %q", resp.Header.Get("Content-Type"))
	}
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})
	tests := []struct {
		path string
		want int
	}{
		{"/reports/commitments/export.xlsx", nethttp.StatusNotFound},
		{"/reports/commitments/export.csv?scope=everything", nethttp.StatusBadRequest},
		{"/reports/commitments?supplierAssigned=maybe", nethttp.StatusBadRequest},
		{"/reports/commitments?startDate=yesterday", nethttp.StatusBadRequest},
		{"/nope", nethttp.StatusNotFound},
	}
	for _, tt := range tests {
		resp, _ := get(t, ts.URL+tt.path)
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}
}

func TestBackendErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{"backend 404", "/api/reports/members/zzz", &api.APIError{StatusCode: 404, Method: "GET", Path: "/deals"}, nethttp.StatusNotFound},
		{"backend 422", "/reports/commitments", &api.APIError{StatusCode: 422}, nethttp.StatusBadRequest},
		{"backend 500", "/reports/commitments", &api.APIError{StatusCode: 500}, nethttp.StatusBadGateway},
		{"unreachable", "/api/reports/commitments", fmt.Errorf("GET /x failed: %w", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("connection refused")}), nethttp.StatusBadGateway},
		{"undecodable body", "/reports/commitments", fmt.Errorf("%w: members: %w", api.ErrBadResponse, errors.New("unexpected EOF")), nethttp.StatusBadGateway},
		{"timeout", "/reports/commitments", fmt.Errorf("GET /x failed: %w", context.DeadlineExceeded), nethttp.StatusGatewayTimeout},
		{"no signed-in user", "/api/reports/commitments", session.ErrNoUser, nethttp.StatusInternalServerError},
		{"missing member id", "/api/reports/members/x", fmt.Errorf("member details: %w", api.ErrMissingID), nethttp.StatusBadRequest},
		{"local failure", "/reports/commitments/export.csv?scope=all", errors.New("report has more than 500 pages"), nethttp.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, &fakeSource{err: tt.err})
			resp, _ := get(t, ts.URL+tt.path)
			if resp.StatusCode != tt.want {
				t.Errorf("GET %s = %d, want %d", tt.path, resp.StatusCode, tt.want)
			}
		})
	}
}

func TestJSONAPIAndCORS(t *testing.T) {
	ts := newTestServer(t, &fakeSource{members: members(3)})
	req, _ := nethttp.NewRequest(nethttp.MethodGet, ts.URL+"/api/reports/commitments", nil)
	req.Header.Set("Origin", "https://admin.example")
	resp, err := nethttp.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "https://admin.example" {
		t.Errorf("Allow-Origin = %q", got)
	}
	var page models.CommitmentPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 3 || page.Stats.TotalMembers != 3 {
		t.Errorf("page = %+v", page)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeSource{})
	get(t, ts.URL+"/healthz")
	resp, body := get(t, ts.URL+"/metrics")
	if resp.StatusCode != nethttp.StatusOK || !strings.Contains(body, "mediadesk_") {
		t.Errorf("metrics status %d", resp.StatusCode)
	}
}

func TestPageLinks(t *testing.T) {
	u, _ := url.Parse("/reports/commitments?search=a&page=5")
	links := pageLinks(u, models.Pagination{CurrentPage: 5, TotalPages: 9})
	var labels []string
	for _, l := range links {
		labels = append(labels, l.Label)
	}
	if got := strings.Join(labels, ","); got != "Prev,3,4,5,6,7,Next" {
		t.Errorf("labels = %s", got)
	}
	if !links[3].Current || !strings.Contains(links[3].URL, "search=a") {
		t.Errorf("current link = %+v", links[3])
	}
	if pageLinks(u, models.Pagination{CurrentPage: 1, TotalPages: 1}) != nil {
		t.Error("single page has links")
	}
}
