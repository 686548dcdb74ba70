package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"launchpad/rpc"
)

var tokenUsage = subcommandUsage("token",
	"sign   Mint an HS256 bearer token for an account",
)

func runTokenCommand(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, tokenUsage)
		return 1
	}
	if args[0] != "sign" {
		return unknownSubcommand(stderr, "token", args[0], tokenUsage)
	}
	fs := flag.NewFlagSet("token sign", flag.ContinueOnError)
	fs.SetOutput(stderr)
	subject := fs.String("subject", "", "account the token authenticates")
	issuer := fs.String("issuer", "", "issuer claim, must match the daemon")
	audience := fs.String("audience", "", "audience claim, must match the daemon")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	secretEnv := fs.String("secret-env", "LAUNCHPAD_HMAC_SECRET", "environment variable holding the HMAC secret")
	if err := fs.Parse(args[1:]); err != nil {
		return 1
	}
	if strings.TrimSpace(*subject) == "" {
		fmt.Fprintln(stderr, "--subject is required")
		return 1
	}
	secret := strings.TrimSpace(os.Getenv(*secretEnv))
	if secret == "" {
		fmt.Fprintf(stderr, "%s is not set\n", *secretEnv)
		return 1
	}
	token, err := rpc.SignToken(secret, *subject, *issuer, *audience, *ttl)
	if err != nil {
		fmt.Fprintf(stderr, "sign token: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, token)
	return 0
}
