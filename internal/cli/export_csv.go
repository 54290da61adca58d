package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/lectorflow/server/internal/config"
	"github.com/lectorflow/server/internal/database"
	"github.com/lectorflow/server/internal/database/records"
	"github.com/lectorflow/server/internal/exporter"
)

// ExportCSVCommand writes a user's book records as CSV.
type ExportCSVCommand struct {
	DatabasePath string
	OutputPath   string
	UserID       uint
}

// NewExportCSVCommand creates a new ExportCSVCommand.
func NewExportCSVCommand() *ExportCSVCommand {
	return &ExportCSVCommand{}
}

// ParseFlags parses command line flags.
func (cmd *ExportCSVCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export-csv", flag.ExitOnError)

	var userID uint64
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.OutputPath, "output", "", "Output file (default: stdout)")
	fs.Uint64Var(&userID, "user", 0, "User ID whose records to export")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export-csv [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export book records as CSV. The column vocabulary matches the importer,\n")
		fmt.Fprintf(os.Stderr, "so the file can be imported back without translation.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.UserID = uint(userID)
	return nil
}

// Run executes the export.
func (cmd *ExportCSVCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	result, err := records.NewRepository(db.DB).ListByUser(cmd.UserID)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	csv := exporter.ConvertToCSV(result)

	if cmd.OutputPath == "" {
		fmt.Print(csv)
		return nil
	}

	if err := os.WriteFile(cmd.OutputPath, []byte(csv), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", cmd.OutputPath, err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %d records to %s\n", len(result), cmd.OutputPath)
	return nil
}
