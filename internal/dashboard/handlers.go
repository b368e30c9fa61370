package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	nethttp "net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/distrohub/mediadesk/internal/api"
	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/reports"
	"github.com/distrohub/mediadesk/internal/util/format"
)

var templateFuncs = template.FuncMap{
	"amount": format.FormatAmount,
	"date":   format.FormatDate,
	"statuses": func() []string {
		return []string{"pending", "approved", "rejected"}
	},
	"supplier": func(assigned bool) string {
		if assigned {
			return "Assigned"
		}
		return "Not assigned"
	},
}

// pageLink is a pagination link that keeps the active filters.
type pageLink struct {
	Label   string
	URL     string
	Current bool
}

type reportView struct {
	Title       string
	Query       reports.Query
	Filters     []reports.Filter
	Cards       []reports.StatCard
	Pagination  models.Pagination
	Pages       []pageLink
	Exports     []pageLink
	Commitments []models.MemberCommitment
	Member      *models.MemberDetails
}

type errorView struct {
	Status  int
	Message string
}

func (s *Server) handleCommitmentsPage(w nethttp.ResponseWriter, r *nethttp.Request) {
	q, err := reports.ParseQuery(r.URL.Query())
	if err != nil {
		s.renderError(w, nethttp.StatusBadRequest, err)
		return
	}
	page, err := s.svc.Commitments(r.Context(), s.sess, q)
	if err != nil {
		s.renderError(w, statusFor(err), err)
		return
	}
	s.render(w, "commitments.html", reportView{
		Title:       "Members with Commitments",
		Query:       q,
		Filters:     q.Filters(),
		Cards:       reports.CommitmentStatCards(page.Stats),
		Pagination:  page.Pagination,
		Pages:       pageLinks(r.URL, page.Pagination),
		Exports:     exportLinks(r.URL, "/reports/commitments"),
		Commitments: page.Items,
	})
}

func (s *Server) handleMemberPage(w nethttp.ResponseWriter, r *nethttp.Request) {
	id := mux.Vars(r)["id"]
	q, err := reports.ParseQuery(r.URL.Query())
	if err != nil {
		s.renderError(w, nethttp.StatusBadRequest, err)
		return
	}
	d, err := s.svc.MemberDetails(r.Context(), s.sess, id, q)
	if err != nil {
		s.renderError(w, statusFor(err), err)
		return
	}
	base := "/reports/members/" + url.PathEscape(id)
	title := d.Member.Name
	if title == "" {
		title = id
	}
	s.render(w, "member.html", reportView{
		Title:      title,
		Query:      q,
		Filters:    q.Filters(),
		Cards:      reports.MemberStatCards(d.Stats),
		Pagination: d.Pagination,
		Pages:      pageLinks(r.URL, d.Pagination),
		Exports:    exportLinks(r.URL, base),
		Member:     d,
	})
}

func (s *Server) handleCommitmentsExport(w nethttp.ResponseWriter, r *nethttp.Request) {
	s.export(w, r, func(q reports.Query, scope reports.Scope) (reports.Report, error) {
		return s.svc.CommitmentsReport(r.Context(), s.sess, q, scope)
	})
}

func (s *Server) handleMemberExport(w nethttp.ResponseWriter, r *nethttp.Request) {
	id := mux.Vars(r)["id"]
	s.export(w, r, func(q reports.Query, scope reports.Scope) (reports.Report, error) {
		return s.svc.MemberReport(r.Context(), s.sess, id, q, scope)
	})
}

// export streams a report download. The report is rendered into memory
// first so a failure can still produce an error status.
func (s *Server) export(w nethttp.ResponseWriter, r *nethttp.Request, load func(reports.Query, reports.Scope) (reports.Report, error)) {
	f, err := reports.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		s.renderError(w, nethttp.StatusNotFound, err)
		return
	}
	params := r.URL.Query()
	scope, err := reports.ParseScope(params.Get("scope"))
	if err != nil {
		s.renderError(w, nethttp.StatusBadRequest, err)
		return
	}
	q, err := reports.ParseQuery(params)
	if err != nil {
		s.renderError(w, nethttp.StatusBadRequest, err)
		return
	}

	report, err := load(q, scope)
	if err != nil {
		s.renderError(w, statusFor(err), err)
		return
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, f); err != nil {
		s.renderError(w, nethttp.StatusInternalServerError, err)
		return
	}

	s.logger.Info().Str("report", report.Name).Str("format", string(f)).
		Str("scope", string(scope)).Int("rows", report.Table.Len()).Msg("report exported")
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(f, s.opts.Now())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleCommitmentsJSON(w nethttp.ResponseWriter, r *nethttp.Request) {
	q, err := reports.ParseQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, nethttp.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	page, err := s.svc.Commitments(r.Context(), s.sess, q)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, nethttp.StatusOK, page)
}

func (s *Server) handleMemberJSON(w nethttp.ResponseWriter, r *nethttp.Request) {
	q, err := reports.ParseQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, nethttp.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	d, err := s.svc.MemberDetails(r.Context(), s.sess, mux.Vars(r)["id"], q)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, nethttp.StatusOK, d)
}

func (s *Server) render(w nethttp.ResponseWriter, name string, data interface{}) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error().Err(err).Str("template", name).Msg("template failed")
		nethttp.Error(w, "internal error", nethttp.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) renderError(w nethttp.ResponseWriter, status int, err error) {
	if status >= 500 {
		s.logger.Error().Err(err).Int("status", status).Msg("request failed")
	}
	var buf bytes.Buffer
	if tmplErr := s.tmpl.ExecuteTemplate(&buf, "error.html", errorView{Status: status, Message: err.Error()}); tmplErr != nil {
		nethttp.Error(w, err.Error(), status)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// statusFor maps a report failure onto a dashboard response. Backend 4xx
// and bad filters are the caller's fault, failures reaching or reading the
// backend are a bad gateway, and anything raised locally (such as a server
// started without a user) is an internal error.
func statusFor(err error) int {
	var apiErr *api.APIError
	var urlErr *url.Error
	switch {
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == nethttp.StatusNotFound {
			return nethttp.StatusNotFound
		}
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return nethttp.StatusBadRequest
		}
		return nethttp.StatusBadGateway
	case errors.Is(err, reports.ErrInvalidQuery), errors.Is(err, api.ErrMissingID):
		return nethttp.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return nethttp.StatusGatewayTimeout
	case errors.Is(err, api.ErrBadResponse), errors.As(err, &urlErr):
		return nethttp.StatusBadGateway
	default:
		return nethttp.StatusInternalServerError
	}
}

// pageLinks renders prev, numbered and next links around the current
// page, at most five numbers wide.
func pageLinks(u *url.URL, p models.Pagination) []pageLink {
	if p.TotalPages <= 1 {
		return nil
	}
	link := func(label string, n int) pageLink {
		v := u.Query()
		v.Set("page", strconv.Itoa(n))
		return pageLink{Label: label, URL: u.Path + "?" + v.Encode(), Current: n == p.CurrentPage && label == strconv.Itoa(n)}
	}

	var links []pageLink
	if p.HasPrev() {
		links = append(links, link("Prev", p.CurrentPage-1))
	}
	first := max(1, p.CurrentPage-2)
	last := min(p.TotalPages, first+4)
	first = max(1, last-4)
	for n := first; n <= last; n++ {
		links = append(links, link(strconv.Itoa(n), n))
	}
	if p.HasNext() {
		links = append(links, link("Next", p.CurrentPage+1))
	}
	return links
}

// exportLinks points at the export endpoints under base with the current
// filters: this page first, then every page.
func exportLinks(u *url.URL, base string) []pageLink {
	var links []pageLink
	for _, scope := range []reports.Scope{reports.ScopePage, reports.ScopeAllPages} {
		for _, f := range []reports.Format{reports.FormatCSV, reports.FormatPDF} {
			v := u.Query()
			label := strings.ToUpper(string(f))
			if scope == reports.ScopeAllPages {
				v.Set("scope", string(scope))
				label += " (all pages)"
			}
			path := base + "/export." + string(f)
			if enc := v.Encode(); enc != "" {
				path += "?" + enc
			}
			links = append(links, pageLink{Label: label, URL: path})
		}
	}
	return links
}
