package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	deskuc "desklend-backend/internal/usecase/desk"
)

type DeskHandler struct{ uc *deskuc.Usecase }

func NewDeskHandler(uc *deskuc.Usecase) *DeskHandler { return &DeskHandler{uc: uc} }

type loanConfigReq struct {
	CollectionID     string `json:"collection_id"      validate:"required,hex32"`
	CollateralKind   string `json:"collateral_kind"    validate:"required,collateralkind"`
	MinAmount        string `json:"min_amount"         validate:"required,amount"`
	MaxAmount        string `json:"max_amount"         validate:"required,amount"`
	MinDurationHours uint64 `json:"min_duration_hours"`
	MaxDurationHours uint64 `json:"max_duration_hours"`
	MinInterestBps   uint64 `json:"min_interest_bps"`
	MaxInterestBps   uint64 `json:"max_interest_bps"`
}

type createDeskReq struct {
	ValueAssetID   string          `json:"value_asset_id"  validate:"required"`
	InitialDeposit string          `json:"initial_deposit" validate:"omitempty,amount"`
	LoanConfigs    []loanConfigReq `json:"loan_configs"    validate:"dive"`
}

type amountReq struct {
	Amount string `json:"amount" validate:"required,amount"`
}

type setStateReq struct {
	Freeze *bool `json:"freeze" validate:"required"`
}

type putConfigsReq struct {
	Configs []loanConfigReq `json:"configs" validate:"required,min=1,dive"`
}

func configInput(r loanConfigReq) deskuc.LoanConfigInput {
	minAmount, _ := decimal.NewFromString(r.MinAmount)
	maxAmount, _ := decimal.NewFromString(r.MaxAmount)
	return deskuc.LoanConfigInput{
		CollectionID:     r.CollectionID,
		CollateralKind:   r.CollateralKind,
		MinAmount:        minAmount,
		MaxAmount:        maxAmount,
		MinDurationHours: r.MinDurationHours,
		MaxDurationHours: r.MaxDurationHours,
		MinInterestBps:   r.MinInterestBps,
		MaxInterestBps:   r.MaxInterestBps,
	}
}

func (h *DeskHandler) CreateDesk(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Caller-Id"})
	}
	var req createDeskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}

	deposit := decimal.Zero
	if req.InitialDeposit != "" {
		deposit, _ = decimal.NewFromString(req.InitialDeposit)
	}
	in := deskuc.CreateDeskInput{
		ValueAssetID:   req.ValueAssetID,
		InitialDeposit: deposit,
	}
	for _, cfg := range req.LoanConfigs {
		in.LoanConfigs = append(in.LoanConfigs, configInput(cfg))
	}

	dto, err := h.uc.Create(c.Request().Context(), caller, in)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *DeskHandler) GetDesk(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("desk_id"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *DeskHandler) Deposit(c echo.Context) error {
	return h.moveLiquidity(c, h.uc.Deposit)
}

func (h *DeskHandler) Withdraw(c echo.Context) error {
	return h.moveLiquidity(c, h.uc.Withdraw)
}

type liquidityOp func(ctx context.Context, callerID, deskID string, amount decimal.Decimal) (*deskuc.DeskDTO, error)

func (h *DeskHandler) moveLiquidity(c echo.Context, op liquidityOp) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Caller-Id"})
	}
	var req amountReq
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
	dto, err := op(c.Request().Context(), caller, c.Param("desk_id"), amount)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *DeskHandler) SetState(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Caller-Id"})
	}
	var req setStateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.SetState(c.Request().Context(), caller, c.Param("desk_id"), *req.Freeze)
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *DeskHandler) Dissolve(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Caller-Id"})
	}
	if err := h.uc.Dissolve(c.Request().Context(), caller, c.Param("desk_id")); err != nil {
		return writeDomainErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *DeskHandler) PutLoanConfigs(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Caller-Id"})
	}
	var req putConfigsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	entries := make([]deskuc.LoanConfigInput, 0, len(req.Configs))
	for _, cfg := range req.Configs {
		entries = append(entries, configInput(cfg))
	}
	if err := h.uc.SetLoanConfigs(c.Request().Context(), caller, c.Param("desk_id"), entries); err != nil {
		return writeDomainErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *DeskHandler) ListLoanConfigs(c echo.Context) error {
	out, err := h.uc.ListLoanConfigs(c.Request().Context(), c.Param("desk_id"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *DeskHandler) DeleteLoanConfig(c echo.Context) error {
	caller, ok := callerID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing or invalid Ax-Caller-Id"})
	}
	err := h.uc.RemoveLoanConfig(c.Request().Context(), caller, c.Param("desk_id"), c.Param("collection_id"))
	if err != nil {
		return writeDomainErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
