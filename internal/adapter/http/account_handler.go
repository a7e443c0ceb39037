package http

import (
	"net/http"

	"blolend/internal/adapter/middleware"
	credituc "blolend/internal/usecase/credit"
	reputationuc "blolend/internal/usecase/reputation"
	walletuc "blolend/internal/usecase/wallet"

	"github.com/labstack/echo/v4"
)

// AccountHandler serves the money-adjacent surfaces around the core: wallet
// deposits, the credit exchange, and trust-score reads.
type AccountHandler struct {
	wallets    *walletuc.Usecase
	credits    *credituc.Usecase
	reputation *reputationuc.Usecase
}

func NewAccountHandler(wallets *walletuc.Usecase, credits *credituc.Usecase, reputation *reputationuc.Usecase) *AccountHandler {
	return &AccountHandler{wallets: wallets, credits: credits, reputation: reputation}
}

type amountReq struct {
	Amount uint64 `json:"amount" validate:"required,gt=0"`
}

func (h *AccountHandler) Deposit(c echo.Context) error {
	var req amountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.wallets.Deposit(c.Request().Context(), middleware.AccountID(c), req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) WalletBalance(c echo.Context) error {
	account := c.Param("account")
	balance, err := h.wallets.Balance(c.Request().Context(), account)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"account_id": account, "balance": balance})
}

func (h *AccountHandler) Exchange(c echo.Context) error {
	var req amountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	dto, err := h.credits.Exchange(c.Request().Context(), middleware.AccountID(c), req.Amount)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *AccountHandler) CreditBalance(c echo.Context) error {
	account := c.Param("account")
	balance, err := h.credits.Balance(c.Request().Context(), account)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"account_id": account, "balance": balance})
}

func (h *AccountHandler) Reputation(c echo.Context) error {
	dto, err := h.reputation.Get(c.Request().Context(), c.Param("account"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
