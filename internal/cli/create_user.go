package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/lectorflow/server/internal/auth"
	"github.com/lectorflow/server/internal/config"
	"github.com/lectorflow/server/internal/database"
)

// CreateUserCommand creates a local account for password sign-in.
type CreateUserCommand struct {
	DatabasePath  string
	Username      string
	Email         string
	Password      string
	GenerateToken bool
}

// NewCreateUserCommand creates a new CreateUserCommand.
func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

// ParseFlags parses command line flags.
func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.StringVar(&cmd.Username, "username", "", "Username (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address (required)")
	fs.StringVar(&cmd.Password, "password", os.Getenv("LECTORFLOW_PASSWORD"), "Password; prefer the LECTORFLOW_PASSWORD environment variable")
	fs.BoolVar(&cmd.GenerateToken, "token", false, "Also generate an API token for the new user")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> -email <addr> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a local account for AUTH_MODE=local deployments.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" || cmd.Email == "" {
		fs.Usage()
		return fmt.Errorf("-username and -email are required")
	}
	if cmd.Password == "" {
		return fmt.Errorf("no password given; set LECTORFLOW_PASSWORD or use -password")
	}
	return nil
}

// Run executes the command.
func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	service := auth.NewService(db.DB, cfg.Auth)

	user, err := service.CreateUser(cmd.Username, cmd.Email, cmd.Password)
	if err != nil {
		return err
	}
	fmt.Printf("Created user %q (ID %d)\n", user.Username, user.ID)

	if cmd.GenerateToken {
		token, err := service.GenerateToken(user.ID)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		fmt.Printf("API token (shown once): %s\n", token)
	}

	return nil
}
