// Package commands implements the CLI subcommands next to the server.
package commands

import (
	"flag"
	"fmt"
	"os"
	"syscall"

	"tonnenheld/internal/api"

	"golang.org/x/term"
)

// HashPassword handles the hash-password subcommand: it prompts for
// credentials and writes the argon2id auth file guarding the admin API.
func HashPassword(args []string) {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)
	authFile := fs.String("file", "auth.secret", "Path of the credential file to write")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tonnenheld hash-password [OPTIONS]\n\n")
		fmt.Fprintf(os.Stderr, "Creates a credential file with an argon2id password hash.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}
	fs.Parse(args)

	fmt.Print("Enter username: ")
	var username string
	if _, err := fmt.Scanln(&username); err != nil || username == "" {
		fmt.Fprintln(os.Stderr, "Username cannot be empty")
		os.Exit(1)
	}

	password := readPassword("Enter password:   ")
	confirm := readPassword("Confirm password: ")

	if password == "" {
		fmt.Fprintln(os.Stderr, "Password cannot be empty")
		os.Exit(1)
	}
	if password != confirm {
		fmt.Fprintln(os.Stderr, "Passwords do not match")
		os.Exit(1)
	}

	if err := api.CreateAuthFile(*authFile, username, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Auth file created: %s (user: %s)\n", *authFile, username)
}

// readPassword reads a password without echoing it.
func readPassword(prompt string) string {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		os.Exit(1)
	}
	return string(password)
}
