package report

import (
	"strconv"
	"strings"
	"time"

	"webframeworks/models"
)

const (
	// ArchivedWarning prefixes the description of archived repositories.
	ArchivedWarning = "⚠️ No longer maintained ⚠️"
	// DateLayout formats the last-commit column and the footer date.
	DateLayout = "January 02, 2006"

	header = `# {lang} Web Frameworks
A list of popular GitHub projects related to {lang} web frameworks (ranked by stars)

| Framework | Stars | Forks | Open Issues | Description | Last Update | License |
| --------- | ----- | ----- | ----------- | ----------- | ----------- | ------- |
`
	footer = "*Last Update*: "
)

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// Rows converts ranked entries into table rows, keeping their order.
func Rows(entries []models.Entry) []models.ReportRow {
	rows := make([]models.ReportRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, rowFromEntry(e))
	}
	return rows
}

func rowFromEntry(e models.Entry) models.ReportRow {
	repo := e.Repository

	description := ""
	if repo.Description != nil {
		description = *repo.Description
	}
	if repo.Archived {
		description = strings.TrimSpace(ArchivedWarning + " " + description)
	}

	license := ""
	if repo.License != nil {
		license = *repo.License
	}

	return models.ReportRow{
		Name:        strings.ToLower(repo.FullName),
		URL:         strings.ToLower(repo.HTMLURL),
		Stars:       repo.Stars,
		Forks:       repo.Forks,
		OpenIssues:  repo.OpenIssues,
		Description: description,
		LastCommit:  e.Commit.Date.UTC().Format(DateLayout),
		License:     license,
	}
}

// FormatRow renders a single table line.
func FormatRow(row models.ReportRow) string {
	cells := []string{
		"[" + cellEscaper.Replace(row.Name) + "](" + row.URL + ")",
		strconv.Itoa(row.Stars),
		strconv.Itoa(row.Forks),
		strconv.Itoa(row.OpenIssues),
		cellEscaper.Replace(row.Description),
		row.LastCommit,
		cellEscaper.Replace(row.License),
	}
	return "| " + strings.Join(cells, " | ") + " |"
}

// FormatTimestamp formats the footer timestamp, always in UTC.
func FormatTimestamp(t time.Time) string {
	return "UTC " + t.UTC().Format("15:04, "+DateLayout)
}

// Render produces the Markdown document. now is the generation time shown in the footer.
func Render(report models.Report, now time.Time) string {
	lines := make([]string, 0, len(report.Rows))
	for _, row := range report.Rows {
		lines = append(lines, FormatRow(row))
	}

	var sb strings.Builder
	sb.WriteString(strings.ReplaceAll(header, "{lang}", report.Language))
	sb.WriteString(strings.Join(lines, "\n"))
	sb.WriteString("\n\n")
	sb.WriteString(footer)
	sb.WriteString(FormatTimestamp(now))
	return sb.String()
}
