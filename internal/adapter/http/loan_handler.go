package http

import (
	"net/http"
	"time"

	"blolend/internal/adapter/middleware"
	loanuc "blolend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ ledger *loanuc.Usecase }

func NewLoanHandler(ledger *loanuc.Usecase) *LoanHandler { return &LoanHandler{ledger: ledger} }

type repayLoanReq struct {
	Payment uint64 `json:"payment" validate:"required,gt=0"`
}

func (h *LoanHandler) Repay(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badID(c)
	}
	var req repayLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}

	res, err := h.ledger.Repay(c.Request().Context(), id, middleware.AccountID(c), req.Payment)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Withdraw releases the principal of the loan's originating request.
func (h *LoanHandler) Withdraw(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badID(c)
	}
	dto, err := h.ledger.Withdraw(c.Request().Context(), id, middleware.AccountID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badID(c)
	}
	dto, err := h.ledger.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Lenders(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badID(c)
	}
	lenders, err := h.ledger.Lenders(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, lenders)
}

func (h *LoanHandler) Count(c echo.Context) error {
	n, err := h.ledger.Count(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"count": n})
}

type setDeadlineReq struct {
	Deadline time.Time `json:"deadline" validate:"required"`
}

// SetDeadline rewrites a loan's repayment deadline. Registered only when the
// deadline override flag is on; it exists to exercise the time-based repay
// branch deterministically.
func (h *LoanHandler) SetDeadline(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return badID(c)
	}
	var req setDeadlineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	if err := h.ledger.SetDeadline(c.Request().Context(), id, req.Deadline); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
