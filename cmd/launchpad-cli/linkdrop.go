package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

var linkdropUsage = subcommandUsage("linkdrop",
	"issue    Issue a linkdrop token funded by the caller",
	"redeem   Redeem a token for a new account",
	"get      Show the state of a token",
)

func runLinkdropCommand(c *client, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, linkdropUsage)
		return 1
	}
	switch args[0] {
	case "issue":
		return runLinkdropIssue(c, args[1:], stdout, stderr)
	case "redeem":
		return runLinkdropRedeem(c, args[1:], stdout, stderr)
	case "get":
		return runLinkdropGet(c, args[1:], stdout, stderr)
	default:
		return unknownSubcommand(stderr, "linkdrop", args[0], linkdropUsage)
	}
}

func runLinkdropIssue(c *client, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("linkdrop issue", flag.ContinueOnError)
	fs.SetOutput(stderr)
	token := fs.String("token", "", "token to issue; a random one is generated when empty")
	funded := fs.String("funded", "0", "amount earmarked for the new account")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	value, err := parseAmount("funded", *funded)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	tok := strings.TrimSpace(*token)
	if tok == "" {
		tok = uuid.NewString()
	}
	if _, err := c.call("linkdrop_issue", map[string]string{"token": tok, "funded": value}); err != nil {
		fmt.Fprintf(stderr, "RPC error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Token:  %s\n", tok)
	fmt.Fprintf(stdout, "Funded: %s\n", value)
	return 0
}

func runLinkdropRedeem(c *client, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("linkdrop redeem", flag.ContinueOnError)
	fs.SetOutput(stderr)
	token := fs.String("token", "", "linkdrop token")
	account := fs.String("account", "", "account to create")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*token) == "" || strings.TrimSpace(*account) == "" {
		fmt.Fprintln(stderr, "--token and --account are required")
		return 1
	}
	return printCall(c, stdout, stderr, "linkdrop_redeem", map[string]string{"token": *token, "account": *account})
}

func runLinkdropGet(c *client, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("linkdrop get", flag.ContinueOnError)
	fs.SetOutput(stderr)
	token := fs.String("token", "", "linkdrop token")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	return printCall(c, stdout, stderr, "linkdrop_get", map[string]string{"token": *token})
}
