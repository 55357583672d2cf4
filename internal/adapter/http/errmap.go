package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	deskDomain "desklend-backend/internal/domain/desk"
	"desklend-backend/internal/domain/extern"
	loanDomain "desklend-backend/internal/domain/loan"
)

// statusFor maps the engine's named failure conditions to HTTP statuses:
// identity 404, authorization 403, range/solvency 422, state 409, paused 503.
func statusFor(err error) int {
	switch {
	case errors.Is(err, deskDomain.ErrInvalidLendingDeskID),
		errors.Is(err, loanDomain.ErrInvalidLoanID),
		errors.Is(err, deskDomain.ErrUnsupportedCollateralCollection):
		return http.StatusNotFound
	case errors.Is(err, deskDomain.ErrCallerIsNotLendingDeskOwner),
		errors.Is(err, loanDomain.ErrCallerIsNotBorrower),
		errors.Is(err, loanDomain.ErrCallerIsNotLender):
		return http.StatusForbidden
	case errors.Is(err, deskDomain.ErrLendingDeskIsNotActive),
		errors.Is(err, deskDomain.ErrLendingDeskIsNotFrozen),
		errors.Is(err, deskDomain.ErrLendingDeskIsNotEmpty),
		errors.Is(err, loanDomain.ErrLoanIsNotActive),
		errors.Is(err, loanDomain.ErrLoanHasDefaulted),
		errors.Is(err, loanDomain.ErrLoanHasNotDefaulted):
		return http.StatusConflict
	case errors.Is(err, deskDomain.ErrInvalidCollateralCollection),
		errors.Is(err, deskDomain.ErrMinAmountIsZero),
		errors.Is(err, deskDomain.ErrMaxAmountIsLessThanMin),
		errors.Is(err, deskDomain.ErrMinDurationIsZero),
		errors.Is(err, deskDomain.ErrMaxDurationIsLessThanMin),
		errors.Is(err, deskDomain.ErrMinInterestIsZero),
		errors.Is(err, deskDomain.ErrMaxInterestIsLessThanMin),
		errors.Is(err, deskDomain.ErrInvalidInterest),
		errors.Is(err, deskDomain.ErrAmountIsZero),
		errors.Is(err, deskDomain.ErrInsufficientLendingDeskBalance),
		errors.Is(err, loanDomain.ErrLoanAmountTooLow),
		errors.Is(err, loanDomain.ErrLoanAmountTooHigh),
		errors.Is(err, loanDomain.ErrLoanDurationTooLow),
		errors.Is(err, loanDomain.ErrLoanDurationTooHigh),
		errors.Is(err, loanDomain.ErrInterestRateTooHigh),
		errors.Is(err, loanDomain.ErrLoanPaymentExceedsDebt),
		errors.Is(err, loanDomain.ErrSettlementMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, extern.ErrOperationPaused):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeDomainErr(c echo.Context, err error) error {
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(code, ErrorResponse{Error: msg})
}

// callerID extracts the authenticated caller identity from the Ax-Caller-Id
// header; guarded routes reject requests without a well-formed one.
func callerID(c echo.Context) (string, bool) {
	id := c.Request().Header.Get("Ax-Caller-Id")
	return id, reHex32.MatchString(id)
}
