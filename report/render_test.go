package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"webframeworks/models"
)

func strPtr(s string) *string { return &s }

func TestRowFromEntry(t *testing.T) {
	commitDate := time.Date(2024, time.March, 5, 23, 30, 0, 0, time.FixedZone("PST", -8*3600))

	testCases := []struct {
		name     string
		repo     models.RepositoryMetadata
		expected models.ReportRow
	}{
		{
			name: "active repository",
			repo: models.RepositoryMetadata{
				FullName:    "Gin-Gonic/Gin",
				HTMLURL:     "https://github.com/Gin-Gonic/Gin",
				Stars:       100,
				Forks:       10,
				OpenIssues:  5,
				Description: strPtr("HTTP web framework"),
				License:     strPtr("MIT License"),
			},
			expected: models.ReportRow{
				Name:        "gin-gonic/gin",
				URL:         "https://github.com/gin-gonic/gin",
				Stars:       100,
				Forks:       10,
				OpenIssues:  5,
				Description: "HTTP web framework",
				LastCommit:  "March 06, 2024",
				License:     "MIT License",
			},
		},
		{
			name: "archived repository",
			repo: models.RepositoryMetadata{
				FullName:    "go-martini/martini",
				HTMLURL:     "https://github.com/go-martini/martini",
				Archived:    true,
				Description: strPtr("classic framework"),
			},
			expected: models.ReportRow{
				Name:        "go-martini/martini",
				URL:         "https://github.com/go-martini/martini",
				Description: ArchivedWarning + " classic framework",
				LastCommit:  "March 06, 2024",
			},
		},
		{
			name: "archived without description",
			repo: models.RepositoryMetadata{
				FullName: "a/b",
				HTMLURL:  "https://github.com/a/b",
				Archived: true,
			},
			expected: models.ReportRow{
				Name:        "a/b",
				URL:         "https://github.com/a/b",
				Description: ArchivedWarning,
				LastCommit:  "March 06, 2024",
			},
		},
		{
			name: "no license and no description",
			repo: models.RepositoryMetadata{
				FullName: "a/b",
				HTMLURL:  "https://github.com/a/b",
			},
			expected: models.ReportRow{
				Name:       "a/b",
				URL:        "https://github.com/a/b",
				LastCommit: "March 06, 2024",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			row := rowFromEntry(models.Entry{Repository: tc.repo, Commit: models.CommitInfo{Date: commitDate}})
			assert.Equal(t, tc.expected, row)
		})
	}
}

func TestArchivedDescriptionStartsWithWarning(t *testing.T) {
	rows := Rows([]models.Entry{{
		Repository: models.RepositoryMetadata{FullName: "a/b", HTMLURL: "u", Archived: true, Description: strPtr("classic framework")},
	}})
	assert.True(t, strings.HasPrefix(rows[0].Description, ArchivedWarning))
	assert.Equal(t, "⚠️ No longer maintained ⚠️ classic framework", rows[0].Description)
}

func TestFormatRow(t *testing.T) {
	row := models.ReportRow{
		Name:        "gin-gonic/gin",
		URL:         "https://github.com/gin-gonic/gin",
		Stars:       100,
		Forks:       10,
		OpenIssues:  5,
		Description: "fast | small\nframework",
		LastCommit:  "March 06, 2024",
	}

	assert.Equal(t,
		`| [gin-gonic/gin](https://github.com/gin-gonic/gin) | 100 | 10 | 5 | fast \| small framework | March 06, 2024 |  |`,
		FormatRow(row))
}

func TestFormatTimestamp(t *testing.T) {
	ts := time.Date(2025, time.January, 7, 9, 5, 0, 0, time.FixedZone("CET", 3600))
	assert.Equal(t, "UTC 08:05, January 07, 2025", FormatTimestamp(ts))
}

func TestRender(t *testing.T) {
	now := time.Date(2025, time.January, 7, 8, 5, 0, 0, time.UTC)

	t.Run("with rows", func(t *testing.T) {
		report := models.Report{
			Language: "Go",
			Rows: []models.ReportRow{
				{Name: "a/one", URL: "https://github.com/a/one", Stars: 2, Forks: 1, OpenIssues: 0, Description: "first {lang}", LastCommit: "May 01, 2024", License: "MIT License"},
				{Name: "b/two", URL: "https://github.com/b/two", Stars: 1, LastCommit: "May 02, 2024"},
			},
		}

		expected := "# Go Web Frameworks\n" +
			"A list of popular GitHub projects related to Go web frameworks (ranked by stars)\n" +
			"\n" +
			"| Framework | Stars | Forks | Open Issues | Description | Last Update | License |\n" +
			"| --------- | ----- | ----- | ----------- | ----------- | ----------- | ------- |\n" +
			"| [a/one](https://github.com/a/one) | 2 | 1 | 0 | first {lang} | May 01, 2024 | MIT License |\n" +
			"| [b/two](https://github.com/b/two) | 1 | 0 | 0 |  | May 02, 2024 |  |\n" +
			"\n" +
			"*Last Update*: UTC 08:05, January 07, 2025"

		assert.Equal(t, expected, Render(report, now))
	})

	t.Run("empty table", func(t *testing.T) {
		doc := Render(models.Report{Language: "Rust"}, now)

		assert.True(t, strings.HasPrefix(doc, "# Rust Web Frameworks\n"))
		assert.True(t, strings.HasSuffix(doc,
			"| --------- | ----- | ----- | ----------- | ----------- | ----------- | ------- |\n\n\n*Last Update*: UTC 08:05, January 07, 2025"))
		assert.NotContains(t, doc, "{lang}")
	})
}
