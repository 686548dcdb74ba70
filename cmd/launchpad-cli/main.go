package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	client := newClientFromEnv()
	args, err := client.applyGlobalFlags(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if len(args) == 0 {
		fmt.Fprint(stderr, usage())
		return 1
	}
	switch args[0] {
	case "sale":
		return runSaleCommand(client, args[1:], stdout, stderr)
	case "linkdrop":
		return runLinkdropCommand(client, args[1:], stdout, stderr)
	case "referral":
		return runReferralCommand(client, args[1:], stdout, stderr)
	case "fees":
		return runFeesCommand(client, args[1:], stdout, stderr)
	case "params":
		return printCall(client, stdout, stderr, "ledger_params", nil)
	case "token":
		return runTokenCommand(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprint(stderr, usage())
		return 1
	}
}

func usage() string {
	buf := &bytes.Buffer{}
	fmt.Fprintln(buf, "Usage: launchpad-cli [--rpc URL] [--as ACCOUNT] [--token JWT] <command>")
	fmt.Fprintln(buf, "Commands:")
	fmt.Fprintln(buf, "  sale       Create sales, deposit and claim purchases")
	fmt.Fprintln(buf, "  linkdrop   Issue and redeem linkdrops")
	fmt.Fprintln(buf, "  referral   Join the program and inspect referrals")
	fmt.Fprintln(buf, "  fees       Query tier fees and rewards")
	fmt.Fprintln(buf, "  params     Show the ledger parameters")
	fmt.Fprintln(buf, "  token      Sign bearer tokens for the daemon")
	fmt.Fprintln(buf, "Environment: LAUNCHPAD_RPC_URL, LAUNCHPAD_CALLER, LAUNCHPAD_RPC_TOKEN")
	return buf.String()
}

func subcommandUsage(name string, lines ...string) string {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "Usage: launchpad-cli %s <subcommand>\n", name)
	fmt.Fprintln(buf, "Subcommands:")
	for _, line := range lines {
		fmt.Fprintf(buf, "  %s\n", line)
	}
	return buf.String()
}

func unknownSubcommand(stderr io.Writer, name, sub, usage string) int {
	fmt.Fprintf(stderr, "Unknown %s subcommand: %s\n", name, strings.TrimSpace(sub))
	fmt.Fprint(stderr, usage)
	return 1
}
