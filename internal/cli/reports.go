package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/distrohub/mediadesk/internal/config"
	"github.com/distrohub/mediadesk/internal/events"
	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/reports"
	"github.com/distrohub/mediadesk/internal/session"
)

// newReportsCmd creates the 'reports' command group.
func newReportsCmd() *cobra.Command {
	reportsCmd := &cobra.Command{
		Use:   "reports",
		Short: "Distributor reports (commitments, member)",
		Long: `Commands for the distributor reports.

Both reports print one page as a table. --export writes the same rows as
CSV or PDF; --scope all exports every page instead of the shown one.`,
	}

	reportsCmd.AddCommand(newReportsCommitmentsCmd())
	reportsCmd.AddCommand(newReportsMemberCmd())

	return reportsCmd
}

// reportFlags are shared by both report commands.
type reportFlags struct {
	page     int
	limit    int
	search   string
	status   string
	supplier string
	from     string
	to       string

	export string
	scope  string
	output string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.page, "page", 1, "Page number")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "Rows per page")
	cmd.Flags().StringVarP(&f.search, "search", "s", "", "Free-text search")
	cmd.Flags().StringVar(&f.status, "status", "", "Commitment status")
	cmd.Flags().StringVar(&f.supplier, "supplier", "", "Supplier assigned: true, false or empty for any")
	cmd.Flags().StringVar(&f.from, "from", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.to, "to", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.export, "export", "", "Export format: csv or pdf")
	cmd.Flags().StringVar(&f.scope, "scope", "page", "Export scope: page or all")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Export directory (default: current directory)")
}

// query parses the filter flags the same way the dashboard parses its
// request parameters.
func (f *reportFlags) query() (reports.Query, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(f.page))
	if f.limit > 0 {
		v.Set("limit", strconv.Itoa(f.limit))
	}
	v.Set("search", f.search)
	v.Set("status", f.status)
	v.Set("supplierAssigned", strings.ToLower(strings.TrimSpace(f.supplier)))
	v.Set("startDate", f.from)
	v.Set("endDate", f.to)
	return reports.ParseQuery(v)
}

// reportContext loads the config and returns a report service and the
// acting session.
func reportContext() (*reports.Service, *session.Session, error) {
	client, cfg, err := getAPIClient()
	if err != nil {
		return nil, nil, err
	}
	sess, err := getSession(cfg)
	if err != nil {
		return nil, nil, err
	}
	return reports.NewService(client, GetLogger()), sess, nil
}

// exportReport writes r to dir and returns the file path.
func exportReport(r reports.Report, f reports.Format, dir string, now time.Time) (string, error) {
	path, err := config.ExportPath(dir, r.FileName(f, now))
	if err != nil {
		return "", fmt.Errorf("failed to prepare export directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := r.Write(file, f); err != nil {
		file.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// runExport handles --export for either report.
func (f *reportFlags) runExport(load func(reports.Query, reports.Scope) (reports.Report, error), q reports.Query) error {
	format, err := reports.ParseFormat(f.export)
	if err != nil {
		return err
	}
	scope, err := reports.ParseScope(f.scope)
	if err != nil {
		return err
	}
	r, err := load(q, scope)
	if err != nil {
		return err
	}
	path, err := exportReport(r, format, f.output, time.Now())
	if err != nil {
		return err
	}
	GetEventBus().Notify(events.InfoLevel, "Report exported", path, nil)
	fmt.Printf("✓ Exported %d rows to %s\n", r.Table.Len(), path)
	return nil
}

// newReportsCommitmentsCmd creates the 'reports commitments' command.
func newReportsCommitmentsCmd() *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "commitments",
		Short: "Members with commitments",
		Long: `Show the members with commitments to the distributor's deals.

Examples:
  mediadesk reports commitments
  mediadesk reports commitments --status pending --supplier false --from 2024-01-01
  mediadesk reports commitments --export pdf --scope all -o ./exports`,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := f.query()
			if err != nil {
				return err
			}
			svc, sess, err := reportContext()
			if err != nil {
				return err
			}
			ctx := GetContext()

			if f.export != "" {
				return f.runExport(func(q reports.Query, scope reports.Scope) (reports.Report, error) {
					return svc.CommitmentsReport(ctx, sess, q, scope)
				}, q)
			}

			page, err := svc.Commitments(ctx, sess, q)
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Members with Commitments")
			printFilters(out, q.Filters())
			printStatCards(out, reports.CommitmentStatCards(page.Stats))
			printTable(out, reports.CommitmentsTable(page.Items))
			printReportPages(out, page.Pagination)
			return nil
		},
	}

	f.register(cmd)

	return cmd
}

// newReportsMemberCmd creates the 'reports member' command.
func newReportsMemberCmd() *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "member <member-id>",
		Short: "One member's deal commitments",
		Long: `Show the deal commitments of one member.

Examples:
  mediadesk reports member 650aa1b2
  mediadesk reports member 650aa1b2 --export csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID := args[0]
			q, err := f.query()
			if err != nil {
				return err
			}
			svc, sess, err := reportContext()
			if err != nil {
				return err
			}
			ctx := GetContext()

			if f.export != "" {
				return f.runExport(func(q reports.Query, scope reports.Scope) (reports.Report, error) {
					return svc.MemberReport(ctx, sess, memberID, q, scope)
				}, q)
			}

			d, err := svc.MemberDetails(ctx, sess, memberID, q)
			if err != nil {
				return fmt.Errorf("failed to load report: %w", err)
			}
			out := cmd.OutOrStdout()
			printMember(out, d.Member)
			printFilters(out, q.Filters())
			printStatCards(out, reports.MemberStatCards(d.Stats))
			printTable(out, reports.MemberTable(d.Items))
			printReportPages(out, d.Pagination)
			return nil
		},
	}

	f.register(cmd)

	return cmd
}

func printMember(w io.Writer, m models.Member) {
	name := m.Name
	if m.BusinessName != "" {
		name += " (" + m.BusinessName + ")"
	}
	fmt.Fprintf(w, "Member: %s\n", strings.TrimSpace(name))
	if m.Email != "" || m.Phone != "" {
		fmt.Fprintf(w, "  %s  %s\n", m.Email, m.Phone)
	}
	if m.Address != "" {
		fmt.Fprintf(w, "  %s\n", m.Address)
	}
}

func printFilters(w io.Writer, filters []reports.Filter) {
	if len(filters) == 0 {
		return
	}
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		parts = append(parts, f.Label+": "+f.Value)
	}
	fmt.Fprintf(w, "Filters: %s\n", strings.Join(parts, ", "))
}

func printStatCards(w io.Writer, cards []reports.StatCard) {
	fmt.Fprintln(w)
	for _, c := range cards {
		fmt.Fprintf(w, "  %s: %s", c.Label, c.Value)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

// printTable pads each column to its widest cell.
func printTable(w io.Writer, t reports.Table) {
	if t.Len() == 0 {
		fmt.Fprintln(w, "No rows.")
		return
	}
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}
	for i := range widths {
		if widths[i] > 32 {
			widths[i] = 32
		}
	}

	line := func(cells []string) {
		parts := make([]string, len(widths))
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			parts[i] = pad(clip(cell, widths[i]), widths[i])
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}
	line(t.Columns)
	sep := make([]string, len(widths))
	for i, n := range widths {
		sep[i] = strings.Repeat("-", n)
	}
	line(sep)
	for _, row := range t.Rows {
		line(row)
	}
}

func printReportPages(w io.Writer, p models.Pagination) {
	total := p.TotalPages
	if total < 1 {
		total = 1
	}
	fmt.Fprintf(w, "\nPage %d of %d", p.CurrentPage, total)
	if p.TotalItems > 0 {
		fmt.Fprintf(w, " (%d rows)", p.TotalItems)
	}
	if p.HasNext() {
		fmt.Fprintf(w, ", next: --page %d", p.CurrentPage+1)
	}
	fmt.Fprintln(w)
}
