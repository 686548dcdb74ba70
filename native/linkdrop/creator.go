package linkdrop

import (
	"context"
	"math/big"
)

// AccountCreator materialises a new account on the host platform, funded with
// the amount earmarked by the linkdrop creator.
//
// CreateAccount runs before the redemption is written. When the ledger write
// or its commit fails afterwards, the host account exists while the token is
// still unspent, so a later redemption of the same token calls CreateAccount
// again for the same account. Implementations must treat an account that
// already exists with the same funding as success.
type AccountCreator interface {
	CreateAccount(ctx context.Context, account string, funded *big.Int) error
}

// FuncCreator adapts a function into an AccountCreator.
type FuncCreator func(ctx context.Context, account string, funded *big.Int) error

func (f FuncCreator) CreateAccount(ctx context.Context, account string, funded *big.Int) error {
	if f == nil {
		return nil
	}
	return f(ctx, account, funded)
}

// NoopCreator accepts every request. It suits hosts where accounts exist as
// soon as they are referenced.
type NoopCreator struct{}

func (NoopCreator) CreateAccount(context.Context, string, *big.Int) error { return nil }
