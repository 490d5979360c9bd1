package ports

import "context"

type VerificationSource interface {
	FetchCode(ctx context.Context, url string) (string, error)
	FetchPassword(ctx context.Context, url string) (string, error)
}

type Prompter interface {
	Code(ctx context.Context, phone string) (string, error)
	Password(ctx context.Context, phone string) (string, error)
}
