package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	ListActiveByDeskID(ctx context.Context, deskID string) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
}
