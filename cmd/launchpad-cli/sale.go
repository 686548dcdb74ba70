package main

import (
	"flag"
	"fmt"
	"io"
	"math/big"
	"strings"
	"time"
)

var saleUsage = subcommandUsage("sale",
	"create        Create a sale (owner only)",
	"get           Show a sale and its phase",
	"list          List sales",
	"deposit       Deposit into an active sale",
	"deposit-of    Show an account's cumulative deposit",
	"deposits      List deposits of a sale",
	"distribution  Set the distributed token and decimals (owner only)",
	"claimable     Open or close claims (owner only)",
	"allocation    Show an account's purchased allocation",
	"claim         Claim the purchased allocation",
	"affiliate     Show an account's affiliate rewards in a sale",
	"claim-reward  Claim accrued affiliate rewards",
)

func runSaleCommand(c *client, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, saleUsage)
		return 1
	}
	switch args[0] {
	case "create":
		return runSaleCreate(c, args[1:], stdout, stderr)
	case "get":
		return runSaleByID(c, "sale get", "sale_get", args[1:], stdout, stderr)
	case "list":
		return runPaged(c, "sale list", "sale_list", args[1:], stdout, stderr, false)
	case "deposit":
		return runSaleDeposit(c, args[1:], stdout, stderr)
	case "deposit-of":
		return runSaleAccount(c, "sale deposit-of", "sale_getDeposit", args[1:], stdout, stderr)
	case "deposits":
		return runPaged(c, "sale deposits", "sale_listDeposits", args[1:], stdout, stderr, true)
	case "distribution":
		return runSaleDistribution(c, args[1:], stdout, stderr)
	case "claimable":
		return runSaleClaimable(c, args[1:], stdout, stderr)
	case "allocation":
		return runSaleAccount(c, "sale allocation", "sale_allocation", args[1:], stdout, stderr)
	case "claim":
		return runSaleByID(c, "sale claim", "sale_claim", args[1:], stdout, stderr)
	case "affiliate":
		return runSaleAccount(c, "sale affiliate", "sale_affiliate", args[1:], stdout, stderr)
	case "claim-reward":
		return runSaleByID(c, "sale claim-reward", "sale_claimAffiliate", args[1:], stdout, stderr)
	default:
		return unknownSubcommand(stderr, "sale", args[0], saleUsage)
	}
}

func parseAmount(name, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "0", nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 {
		return "", fmt.Errorf("--%s must be a non-negative integer, got %q", name, raw)
	}
	return value.String(), nil
}

// parseTime accepts RFC3339 or raw nanoseconds since the epoch.
func parseTime(name, raw string) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("--%s is required", name)
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		if ts.Before(time.Unix(0, 0)) {
			return 0, fmt.Errorf("--%s precedes the epoch", name)
		}
		return uint64(ts.UnixNano()), nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok || value.Sign() < 0 || !value.IsUint64() {
		return 0, fmt.Errorf("--%s must be RFC3339 or nanoseconds, got %q", name, raw)
	}
	return value.Uint64(), nil
}

func runSaleCreate(c *client, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sale create", flag.ContinueOnError)
	fs.SetOutput(stderr)
	name := fs.String("name", "", "project name")
	symbol := fs.String("symbol", "", "project token symbol")
	description := fs.String("description", "", "project description")
	logo := fs.String("logo", "", "logo URL")
	info := fs.String("info", "", "info URL")
	depositToken := fs.String("deposit-token", "", "token accepted for deposits")
	start := fs.String("start", "", "sale start (RFC3339 or nanoseconds)")
	end := fs.String("end", "", "sale end (RFC3339 or nanoseconds)")
	amountFlags := map[string]*string{
		"min-native": fs.String("min-native", "0", "minimum native attachment per deposit"),
		"min-buy":    fs.String("min-buy", "0", "minimum first deposit"),
		"max-buy":    fs.String("max-buy", "0", "maximum cumulative deposit per account"),
		"max-amount": fs.String("max-amount", "0", "sale cap, 0 for uncapped"),
		"tx-limit":   fs.String("tx-limit", "0", "maximum single deposit, 0 for unlimited"),
		"price":      fs.String("price", "0", "deposit units per whole distributed token"),
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	startNS, err := parseTime("start", *start)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	endNS, err := parseTime("end", *end)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	amounts := make(map[string]string, len(amountFlags))
	for flagName, raw := range amountFlags {
		value, err := parseAmount(flagName, *raw)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		amounts[flagName] = value
	}
	terms := map[string]interface{}{
		"metadata": map[string]string{
			"name":        *name,
			"symbol":      *symbol,
			"description": *description,
			"logoUrl":     *logo,
			"infoUrl":     *info,
		},
		"depositToken":        *depositToken,
		"minNativeDeposit":    amounts["min-native"],
		"minBuy":              amounts["min-buy"],
		"maxBuy":              amounts["max-buy"],
		"maxAmount":           amounts["max-amount"],
		"limitPerTransaction": amounts["tx-limit"],
		"price":               amounts["price"],
		"startTime":           startNS,
		"endTime":             endNS,
	}
	return printCall(c, stdout, stderr, "sale_create", terms)
}

func runSaleByID(c *client, name, method string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Uint64("id", 0, "sale identifier")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	return printCall(c, stdout, stderr, method, map[string]uint64{"saleId": *id})
}

func runSaleAccount(c *client, name, method string, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Uint64("id", 0, "sale identifier")
	account := fs.String("account", "", "account to inspect")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if strings.TrimSpace(*account) == "" {
		fmt.Fprintln(stderr, "--account is required")
		return 1
	}
	return printCall(c, stdout, stderr, method, map[string]interface{}{"saleId": *id, "account": *account})
}

func runPaged(c *client, name, method string, args []string, stdout, stderr io.Writer, withSale bool) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Uint64("id", 0, "sale identifier")
	from := fs.Uint64("from", 0, "index of the first entry")
	limit := fs.Uint64("limit", 0, "maximum entries, 0 for the server default")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	page := map[string]uint64{"from": *from, "limit": *limit}
	if !withSale {
		return printCall(c, stdout, stderr, method, page)
	}
	return printCall(c, stdout, stderr, method, map[string]interface{}{"saleId": *id, "page": page})
}

func runSaleDeposit(c *client, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sale deposit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Uint64("id", 0, "sale identifier")
	amount := fs.String("amount", "", "deposit amount")
	native := fs.String("native", "0", "native amount attached")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	value, err := parseAmount("amount", *amount)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	nativeValue, err := parseAmount("native", *native)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return printCall(c, stdout, stderr, "sale_deposit", map[string]interface{}{
		"saleId":       *id,
		"amount":       value,
		"nativeAmount": nativeValue,
	})
}

func runSaleDistribution(c *client, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sale distribution", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Uint64("id", 0, "sale identifier")
	token := fs.String("token", "", "distributed token")
	decimals := fs.Uint("decimals", 18, "decimals of the distributed token")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if *decimals > 255 {
		fmt.Fprintln(stderr, "--decimals out of range")
		return 1
	}
	return printCall(c, stdout, stderr, "sale_configureDistribution", map[string]interface{}{
		"saleId":   *id,
		"token":    *token,
		"decimals": *decimals,
	})
}

func runSaleClaimable(c *client, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("sale claimable", flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.Uint64("id", 0, "sale identifier")
	open := fs.Bool("open", true, "whether claims are available")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	return printCall(c, stdout, stderr, "sale_setClaimAvailable", map[string]interface{}{
		"saleId":    *id,
		"available": *open,
	})
}
