package handlers

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ersonp/legis/internal/domain/services"
	"github.com/ersonp/legis/internal/infrastructure/parsers"
)

// ImportHandler handles importing variables from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format     string                    // "json", "csv", or "auto"
	DryRun     bool                      // Validate without saving
	OnConflict services.ConflictStrategy // How to handle existing variables
}

// Handle imports variables from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*services.ImportResult, error) {
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	return h.HandleReader(ctx, parser, file, opts)
}

// HandleReader imports variables read from r with parser.
func (h *ImportHandler) HandleReader(ctx context.Context, parser parsers.Parser, r io.Reader, opts ImportOptions) (*services.ImportResult, error) {
	rows, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(rows) == 0 {
		return &services.ImportResult{}, nil
	}

	if opts.OnConflict == "" {
		opts.OnConflict = services.ConflictSkip
	}

	return h.service.Import(ctx, rows, services.ImportOptions{
		DryRun:     opts.DryRun,
		OnConflict: opts.OnConflict,
	})
}
