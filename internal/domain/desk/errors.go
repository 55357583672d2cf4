package desk

import "errors"

// Named failure conditions surfaced to callers verbatim; none are retried or
// swallowed inside the engine.
var (
	ErrInvalidLendingDeskID        = errors.New("invalid lending desk id")
	ErrCallerIsNotLendingDeskOwner = errors.New("caller is not lending desk owner")

	ErrLendingDeskIsNotActive = errors.New("lending desk is not active")
	ErrLendingDeskIsNotFrozen = errors.New("lending desk is not frozen")
	ErrLendingDeskIsNotEmpty  = errors.New("lending desk balance is not zero")

	ErrAmountIsZero                   = errors.New("amount is zero")
	ErrInsufficientLendingDeskBalance = errors.New("insufficient lending desk balance")

	ErrInvalidCollateralCollection     = errors.New("invalid collateral collection")
	ErrUnsupportedCollateralCollection = errors.New("unsupported collateral collection")
	ErrMinAmountIsZero                 = errors.New("min amount is zero")
	ErrMaxAmountIsLessThanMin          = errors.New("max amount is less than min amount")
	ErrMinDurationIsZero               = errors.New("min duration is zero")
	ErrMaxDurationIsLessThanMin        = errors.New("max duration is less than min duration")
	ErrMinInterestIsZero               = errors.New("min interest is zero")
	ErrMaxInterestIsLessThanMin        = errors.New("max interest is less than min interest")
	ErrInvalidInterest                 = errors.New("invalid interest range for fixed amount and duration")
)
