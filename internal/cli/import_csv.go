// Package cli implements the command line entry points that run outside
// the HTTP server: CSV import and export, and local user creation.
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lectorflow/server/internal/catalog"
	"github.com/lectorflow/server/internal/config"
	"github.com/lectorflow/server/internal/database"
	"github.com/lectorflow/server/internal/database/imports"
	"github.com/lectorflow/server/internal/database/records"
	"github.com/lectorflow/server/internal/importer"
)

// ImportCSVCommand ingests a CSV file of book records from the shell.
type ImportCSVCommand struct {
	DatabasePath string
	FilePath     string
	UserID       uint
	APIKey       string
	NoCatalog    bool
	Verbose      bool
}

// NewImportCSVCommand creates a new ImportCSVCommand.
func NewImportCSVCommand() *ImportCSVCommand {
	return &ImportCSVCommand{}
}

// ParseFlags parses command line flags.
func (cmd *ImportCSVCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-csv", flag.ExitOnError)

	var userID uint64
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.FilePath, "file", "", "Path to the CSV file to import (required)")
	fs.Uint64Var(&userID, "user", 0, "User ID to import the records for")
	fs.StringVar(&cmd.APIKey, "api-key", os.Getenv("CATALOG_API_KEY"), "Catalog API key for metadata enrichment")
	fs.BoolVar(&cmd.NoCatalog, "no-catalog", false, "Skip catalog enrichment; import rows as-is")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print every row error")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-csv -file <path> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Import book records from a CSV file. Each row is matched against the\n")
		fmt.Fprintf(os.Stderr, "external catalog unless -no-catalog is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-csv -file library.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-csv -file library.csv -no-catalog -user 2\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	cmd.UserID = uint(userID)

	if cmd.FilePath == "" {
		fs.Usage()
		return fmt.Errorf("-file is required")
	}
	return nil
}

// Run executes the import.
func (cmd *ImportCSVCommand) Run() error {
	file, err := os.Open(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("open %s: %w", cmd.FilePath, err)
	}
	defer file.Close()

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var catalogClient importer.CatalogLookup
	if !cmd.NoCatalog {
		catalogClient = catalog.NewGoogleBooksClient("", cmd.APIKey)
	}

	service := importer.NewService(
		records.NewRepository(db.DB),
		imports.NewRepository(db.DB),
		catalogClient,
	)

	result, err := service.ImportCSV(context.Background(), cmd.UserID, file)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d of %d rows (%d failed), session %d\n",
		result.RecordsCreated, result.RowsProcessed, result.RowsFailed, result.SessionID)

	if cmd.Verbose {
		for _, rowErr := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", rowErr)
		}
	} else if len(result.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "Run with -verbose to see the %d row errors\n", len(result.Errors))
	}

	return nil
}
