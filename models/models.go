// Package models defines the core data structures used throughout the application.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidIdentifier is returned when a repository identifier is not of the form owner/name.
var ErrInvalidIdentifier = errors.New("invalid repository identifier")

// RepositoryIdentifier names a tracked framework repository as owner/name.
type RepositoryIdentifier struct {
	Owner string
	Name  string
}

// ParseIdentifier parses an owner/name string.
func ParseIdentifier(s string) (RepositoryIdentifier, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return RepositoryIdentifier{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, s)
	}
	return RepositoryIdentifier{Owner: owner, Name: name}, nil
}

// String returns the owner/name form.
func (id RepositoryIdentifier) String() string {
	return id.Owner + "/" + id.Name
}

// RepositoryMetadata holds the fields of the repository payload the report needs.
type RepositoryMetadata struct {
	FullName      string
	HTMLURL       string
	Stars         int
	Forks         int
	OpenIssues    int
	Archived      bool
	Description   *string
	DefaultBranch string
	License       *string
}

// CommitInfo holds the latest commit on a repository's default branch.
type CommitInfo struct {
	Date time.Time
}

// Entry is the merged result of one successful fetch chain.
type Entry struct {
	Repository RepositoryMetadata
	Commit     CommitInfo
}

// ReportRow is one rendered table row.
type ReportRow struct {
	Name        string
	URL         string
	Stars       int
	Forks       int
	OpenIssues  int
	Description string
	LastCommit  string
	License     string
}

// Report is the ordered result of a build, ranked by stars.
type Report struct {
	Language string
	Rows     []ReportRow
}
