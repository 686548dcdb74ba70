package main

import (
	"flag"
	"fmt"
	"io"
)

var referralUsage = subcommandUsage("referral",
	"join       Join the program under the owner, paying the join fee",
	"referrer   Show who referred an account",
	"list       List accounts referred by a referrer",
	"count      Count accounts referred by a referrer",
)

var feesUsage = subcommandUsage("fees",
	"tier     Show the fee percentage a referrer earns",
	"reward   Compute the reward a referrer earns on an amount",
)

func runReferralCommand(c *client, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, referralUsage)
		return 1
	}
	switch args[0] {
	case "join":
		fs := flag.NewFlagSet("referral join", flag.ContinueOnError)
		fs.SetOutput(stderr)
		attached := fs.String("attached", "0", "amount attached to cover the join fee")
		if err := fs.Parse(args[1:]); err != nil {
			return 1
		}
		value, err := parseAmount("attached", *attached)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return printCall(c, stdout, stderr, "referral_join", map[string]string{"attached": value})
	case "referrer":
		return runAccountQuery(c, "referral referrer", "referral_referrerOf", args[1:], stdout, stderr, false)
	case "list":
		return runAccountQuery(c, "referral list", "referral_list", args[1:], stdout, stderr, true)
	case "count":
		return runAccountQuery(c, "referral count", "referral_count", args[1:], stdout, stderr, false)
	default:
		return unknownSubcommand(stderr, "referral", args[0], referralUsage)
	}
}

func runFeesCommand(c *client, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, feesUsage)
		return 1
	}
	switch args[0] {
	case "tier":
		return runAccountQuery(c, "fees tier", "fees_tierFee", args[1:], stdout, stderr, false)
	case "reward":
		fs := flag.NewFlagSet("fees reward", flag.ContinueOnError)
		fs.SetOutput(stderr)
		referrer := fs.String("referrer", "", "referrer account")
		amount := fs.String("amount", "0", "amount the reward is taken from")
		if err := fs.Parse(args[1:]); err != nil {
			return 1
		}
		value, err := parseAmount("amount", *amount)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return printCall(c, stdout, stderr, "fees_reward", map[string]string{"referrer": *referrer, "amount": value})
	default:
		return unknownSubcommand(stderr, "fees", args[0], feesUsage)
	}
}

func runAccountQuery(c *client, name, method string, args []string, stdout, stderr io.Writer, paged bool) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	account := fs.String("account", "", "account to inspect")
	from := fs.Uint64("from", 0, "index of the first entry")
	limit := fs.Uint64("limit", 0, "maximum entries")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *account == "" {
		fmt.Fprintln(stderr, "--account is required")
		return 1
	}
	param := map[string]interface{}{"account": *account}
	if paged {
		param["page"] = map[string]uint64{"from": *from, "limit": *limit}
	}
	return printCall(c, stdout, stderr, method, param)
}
