package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/distrohub/mediadesk/internal/models"
	"github.com/distrohub/mediadesk/internal/state"
	"github.com/distrohub/mediadesk/internal/util/format"
)

const gridColumns = 3

// renderMedia writes one media page in the given view.
func renderMedia(w io.Writer, items []models.MediaItem, view state.ViewMode) {
	if len(items) == 0 {
		fmt.Fprintln(w, "No media found.")
		return
	}
	if view == state.ViewList {
		renderMediaTable(w, items)
		return
	}
	renderMediaGrid(w, items)
}

func renderMediaTable(w io.Writer, items []models.MediaItem) {
	fmt.Fprintf(w, "%-26s %-36s %-9s %10s  %-10s %s\n", "ID", "NAME", "TYPE", "SIZE", "CREATED", "FLAGS")
	fmt.Fprintln(w, strings.Repeat("-", 104))
	for _, it := range items {
		fmt.Fprintf(w, "%-26s %-36s %-9s %10s  %-10s %s\n",
			it.ID, clip(it.Name, 36), it.Type, format.FormatFileSize(it.Size),
			format.FormatDate(it.CreatedAt), mediaFlags(it))
	}
}

// renderMediaGrid lays items out as fixed-width cards, gridColumns per row.
func renderMediaGrid(w io.Writer, items []models.MediaItem) {
	const width = 30
	for start := 0; start < len(items); start += gridColumns {
		end := start + gridColumns
		if end > len(items) {
			end = len(items)
		}
		row := items[start:end]

		lines := make([][]string, 4)
		for _, it := range row {
			lines[0] = append(lines[0], "+"+strings.Repeat("-", width)+"+")
			lines[1] = append(lines[1], "| "+pad(clip(it.Name, width-2), width-2)+" |")
			lines[2] = append(lines[2], "| "+pad(fmt.Sprintf("%s · %s", typeIcon(it.Type), format.FormatFileSize(it.Size)), width-2)+" |")
			lines[3] = append(lines[3], "| "+pad(clip(it.ID, width-2), width-2)+" |")
		}
		for _, l := range lines {
			fmt.Fprintln(w, strings.Join(l, " "))
		}
		fmt.Fprintln(w, strings.Join(lines[0], " "))
	}
}

// renderMediaItem prints every field of one item.
func renderMediaItem(w io.Writer, it models.MediaItem, folderPath string) {
	fmt.Fprintf(w, "ID:       %s\n", it.ID)
	fmt.Fprintf(w, "Name:     %s\n", it.Name)
	fmt.Fprintf(w, "Type:     %s\n", it.Type)
	fmt.Fprintf(w, "Size:     %s\n", format.FormatFileSize(it.Size))
	if it.Width > 0 && it.Height > 0 {
		fmt.Fprintf(w, "Pixels:   %dx%d\n", it.Width, it.Height)
	}
	if it.Format != "" {
		fmt.Fprintf(w, "Format:   %s\n", it.Format)
	}
	fmt.Fprintf(w, "Folder:   %s\n", folderPath)
	fmt.Fprintf(w, "Pinned:   %s\n", format.YesNo(it.IsPinned))
	fmt.Fprintf(w, "Public:   %s\n", format.YesNo(it.IsPublic))
	tags := "-"
	if len(it.Tags) > 0 {
		tags = strings.Join(it.Tags, ", ")
	}
	fmt.Fprintf(w, "Tags:     %s\n", tags)
	fmt.Fprintf(w, "Created:  %s\n", format.FormatDate(it.CreatedAt))
	fmt.Fprintf(w, "URL:      %s\n", it.URL)
}

// renderPagination prints "Page x of y" with the library totals.
func renderPagination(w io.Writer, p models.Pagination, s models.MediaStats) {
	total := p.TotalPages
	if total < 1 {
		total = 1
	}
	fmt.Fprintf(w, "\nPage %d of %d", p.CurrentPage, total)
	if p.HasNext() {
		fmt.Fprintf(w, " (next: --page %d)", p.CurrentPage+1)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Library: %d %s, %s, %d images, %d videos, %d documents, %d other, %d %s\n",
		s.TotalFiles, format.Pluralize("file", int64(s.TotalFiles)), format.FormatFileSize(s.TotalSize),
		s.Images, s.Videos, s.Documents, s.Others,
		s.TotalFolders, format.Pluralize("folder", int64(s.TotalFolders)))
}

func mediaFlags(it models.MediaItem) string {
	var f []string
	if it.IsPinned {
		f = append(f, "pinned")
	}
	if it.IsPublic {
		f = append(f, "public")
	}
	if len(it.Tags) > 0 {
		f = append(f, "#"+strings.Join(it.Tags, " #"))
	}
	return strings.Join(f, " ")
}

func typeIcon(t models.MediaType) string {
	switch t {
	case models.MediaImage:
		return "[img]"
	case models.MediaVideo:
		return "[vid]"
	case models.MediaDocument:
		return "[doc]"
	}
	return "[file]"
}

// clip shortens s to n runes, marking the cut with "...".
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func pad(s string, n int) string {
	if l := len([]rune(s)); l < n {
		return s + strings.Repeat(" ", n-l)
	}
	return s
}
