package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	loanuc "desklend-backend/internal/usecase/loan"
)

type LoanHandler struct{ uc *loanuc.Usecase }

func NewLoanHandler(uc *loanuc.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type originateLoanReq struct {
	DeskID                 string `json:"desk_id"                   validate:"required,hex32"`
	CollectionID           string `json:"collection_id"             validate:"required,hex32"`
	CollateralItemID       string `json:"collateral_item_id"        validate:"required"`
	Amount                 string `json:"amount"                    validate:"required,amount"`
	DurationHours          uint64 `json:"duration_hours"`
	MaxInterestBpsAccepted uint64 `json:"max_interest_bps_accepted"`
}

type makePaymentReq struct {
	Amount string `json:"amount" validate:"required,amount"`
	Final  bool   `json:"final"`
}

func (h *LoanHandler) Originate(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Caller-Id"})
	}
	var req originateLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	amount, _ := decimal.NewFromString(req.Amount)
	dto, err := h.uc.Originate(c.Request().Context(), caller, loanuc.OriginateInput{
		DeskID:                 req.DeskID,
		CollectionID:           req.CollectionID,
		CollateralItemID:       req.CollateralItemID,
		Amount:                 amount,
		DurationHours:          req.DurationHours,
		MaxInterestBpsAccepted: req.MaxInterestBpsAccepted,
	})
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) AmountDue(c echo.Context) error {
	dto, err := h.uc.AmountDue(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) MakePayment(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Caller-Id"})
	}
	var req makePaymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	amount, _ := decimal.NewFromString(req.Amount)
	dto, err := h.uc.MakePayment(c.Request().Context(), caller, c.Param("loan_id"), amount, req.Final)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Liquidate(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Caller-Id"})
	}
	dto, err := h.uc.LiquidateDefaulted(c.Request().Context(), caller, c.Param("loan_id"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
