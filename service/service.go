package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"webframeworks/config"
	"webframeworks/github"
	"webframeworks/logger"
	"webframeworks/models"
	"webframeworks/report"

	"go.uber.org/zap"
)

// ReportBuilder abstracts the report builder (for testability)
type ReportBuilder interface {
	Build(ctx context.Context, language string, repos []models.RepositoryIdentifier) (string, error)
}

// Service errors
var (
	ErrServiceInit = fmt.Errorf("service initialization error")
	ErrWriteOutput = fmt.Errorf("failed to write report")
)

// Service generates the README table once and writes it out
type Service struct {
	config  *config.Config
	builder ReportBuilder
	stdout  io.Writer
}

// NewService wires the API client and report builder from cfg
func NewService(cfg *config.Config) (*Service, error) {
	client, err := github.NewClient(cfg.APIURL, cfg.GitHubToken, cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceInit, err)
	}

	builder := report.NewBuilder(client, report.Options{
		APIURL:      client.BaseURL(),
		Concurrency: cfg.Concurrency,
		MaxRetries:  cfg.MaxRetries,
	})

	logger.Info("Service initialized",
		zap.String("language", cfg.Language),
		zap.Int("frameworks", len(cfg.Frameworks)),
		zap.String("api_url", cfg.APIURL),
		zap.String("output", cfg.Output))

	return &Service{
		config:  cfg,
		builder: builder,
		stdout:  os.Stdout,
	}, nil
}

// Run builds the report and writes it to the configured output.
// An empty report is still written; report.ErrNoRows is returned alongside it.
func (s *Service) Run(ctx context.Context) error {
	doc, buildErr := s.builder.Build(ctx, s.config.Language, s.config.Frameworks)
	if buildErr != nil && !errors.Is(buildErr, report.ErrNoRows) {
		return fmt.Errorf("failed to build report: %w", buildErr)
	}
	if buildErr != nil {
		logger.Warn("No repository could be fetched, writing an empty table")
	}

	if err := s.write(doc); err != nil {
		return err
	}

	logger.Info("Report written", zap.String("output", s.config.Output))
	return buildErr
}

func (s *Service) write(doc string) error {
	if s.config.Output == "" || s.config.Output == "-" {
		if _, err := io.WriteString(s.stdout, doc+"\n"); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteOutput, err)
		}
		return nil
	}
	return writeFileAtomic(s.config.Output, []byte(doc+"\n"))
}

// writeFileAtomic writes to a temp file in the destination directory and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
