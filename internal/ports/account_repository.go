package ports

import (
	"context"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
)

// AccountRepository persists the whole account set at once. List returns
// accounts in stored order; SaveAll overwrites everything.
type AccountRepository interface {
	List(ctx context.Context) ([]domain.Account, error)
	SaveAll(ctx context.Context, accounts []domain.Account) error
}
