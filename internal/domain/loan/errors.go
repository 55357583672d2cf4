package loan

import "errors"

var (
	ErrInvalidLoanID       = errors.New("invalid loan id")
	ErrCallerIsNotBorrower = errors.New("caller is not borrower")
	ErrCallerIsNotLender   = errors.New("caller is not lender")

	ErrLoanIsNotActive     = errors.New("loan is not active")
	ErrLoanHasDefaulted    = errors.New("loan has defaulted")
	ErrLoanHasNotDefaulted = errors.New("loan has not defaulted")

	ErrLoanAmountTooLow    = errors.New("loan amount is below the configured minimum")
	ErrLoanAmountTooHigh   = errors.New("loan amount is above the configured maximum")
	ErrLoanDurationTooLow  = errors.New("loan duration is below the configured minimum")
	ErrLoanDurationTooHigh = errors.New("loan duration is above the configured maximum")
	ErrInterestRateTooHigh = errors.New("selected interest rate exceeds accepted maximum")

	ErrLoanPaymentExceedsDebt = errors.New("payment exceeds remaining debt")
	ErrSettlementMismatch     = errors.New("final settlement flag does not match remaining debt")
)
