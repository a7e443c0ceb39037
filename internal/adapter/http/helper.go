package http

import (
	"errors"
	"net/http"
	"strconv"

	creditDomain "blolend/internal/domain/credit"
	loanDomain "blolend/internal/domain/loan"
	reqDomain "blolend/internal/domain/request"
	walletDomain "blolend/internal/domain/wallet"

	"github.com/labstack/echo/v4"
)

// writeError maps domain errors onto the protocol's error taxonomy:
// authorization 403, insufficient funds 402, invalid state 409, not found
// 404, bad input 400.
func writeError(c echo.Context, err error) error {
	var code int
	switch {
	case errors.Is(err, reqDomain.ErrNotFound), errors.Is(err, loanDomain.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, reqDomain.ErrNotBorrower),
		errors.Is(err, loanDomain.ErrNotBorrower),
		errors.Is(err, reqDomain.ErrReservedAccount):
		code = http.StatusForbidden
	case errors.Is(err, creditDomain.ErrInsufficientCredit),
		errors.Is(err, walletDomain.ErrInsufficientFunds),
		errors.Is(err, loanDomain.ErrInsufficientPayment):
		code = http.StatusPaymentRequired
	case errors.Is(err, reqDomain.ErrSelfFunding),
		errors.Is(err, reqDomain.ErrFullyFunded),
		errors.Is(err, reqDomain.ErrOverfunded),
		errors.Is(err, reqDomain.ErrContributionCap),
		errors.Is(err, reqDomain.ErrNotFullyFunded),
		errors.Is(err, reqDomain.ErrAlreadyWithdrawn),
		errors.Is(err, loanDomain.ErrAlreadySettled):
		code = http.StatusConflict
	case errors.Is(err, reqDomain.ErrInvalidAmount),
		errors.Is(err, reqDomain.ErrInvalidRate),
		errors.Is(err, reqDomain.ErrDeadlinePast),
		errors.Is(err, loanDomain.ErrPaymentMismatch):
		code = http.StatusBadRequest
	default:
		code = http.StatusInternalServerError
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

func pathID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

func badID(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
}
