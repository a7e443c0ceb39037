package http

import (
	"net/http"
	"time"

	"blolend/internal/adapter/middleware"
	loanuc "blolend/internal/usecase/loan"
	requestuc "blolend/internal/usecase/request"

	"github.com/labstack/echo/v4"
)

// RequestHandler serves the funding-request surface. Creation and funding go
// through the loan ledger so activation happens in the same transaction as
// the subscribing contribution.
type RequestHandler struct {
	registry *requestuc.Usecase
	ledger   *loanuc.Usecase
}

func NewRequestHandler(registry *requestuc.Usecase, ledger *loanuc.Usecase) *RequestHandler {
	return &RequestHandler{registry: registry, ledger: ledger}
}

type createRequestReq struct {
	Amount       uint64    `json:"amount" validate:"required,gt=0"`
	Deadline     time.Time `json:"deadline" validate:"required,future"`
	InterestRate uint64    `json:"interest_rate" validate:"lte=1000"`
	DurationDays uint64    `json:"duration_days"`
	Collateral   uint64    `json:"collateral" validate:"required,gt=0"`
	FundingCap   uint64    `json:"funding_cap"`
}

func (h *RequestHandler) Create(c echo.Context) error {
	var req createRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	dto, err := h.ledger.CreateFundingRequest(c.Request().Context(), requestuc.CreateInput{
		Borrower:     middleware.AccountID(c),
		Amount:       req.Amount,
		Deadline:     req.Deadline,
		InterestRate: req.InterestRate,
		DurationDays: req.DurationDays,
		Collateral:   req.Collateral,
		FundingCap:   req.FundingCap,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

type fundRequestReq struct {
	Amount  uint64 `json:"amount" validate:"required,gt=0"`
	Payment uint64 `json:"payment" validate:"required,gt=0"`
}

func (h *RequestHandler) Fund(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badID(c)
	}
	var req fundRequestReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	res, err := h.ledger.FundRequest(c.Request().Context(), id, middleware.AccountID(c), req.Amount, req.Payment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *RequestHandler) Withdraw(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badID(c)
	}
	dto, err := h.registry.Withdraw(c.Request().Context(), id, middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RequestHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badID(c)
	}
	dto, err := h.registry.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Loan resolves the loan a fully subscribed request activated; 404 while the
// request is still open.
func (h *RequestHandler) Loan(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badID(c)
	}
	dto, err := h.ledger.GetByRequest(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// HasContribution answers whether a lender has a stake in the request.
func (h *RequestHandler) HasContribution(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badID(c)
	}
	lender := c.Param("lender")
	ok, err := h.registry.HasContribution(c.Request().Context(), lender, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"exists": ok})
}
