package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"monkeybet/models"
	"monkeybet/service"
)

const sessionMaxAge = 30 * 24 * time.Hour

type playRequest struct {
	Game string          `json:"game" binding:"required"`
	Bet  decimal.Decimal `json:"bet" binding:"required,money"`
}

type withdrawalRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required,money"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Redirect string `json:"redirect"`
}

type playResponse struct {
	Game       string  `json:"game"`
	Bet        float64 `json:"bet"`
	Win        bool    `json:"win"`
	Multiplier float64 `json:"multiplier"`
	Payout     float64 `json:"payout"`
	NewBalance float64 `json:"new_balance"`
}

type transactionResponse struct {
	ID           int64     `json:"id"`
	Amount       float64   `json:"amount"`
	Kind         string    `json:"kind"`
	Description  string    `json:"description"`
	BalanceAfter float64   `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}

type profileResponse struct {
	UserID        int64                 `json:"user_id"`
	Username      string                `json:"username"`
	Balance       float64               `json:"balance"`
	ReferralCount int64                 `json:"referral_count"`
	Transactions  []transactionResponse `json:"transactions"`
}

type withdrawalResponse struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Username   string    `json:"username,omitempty"`
	Amount     float64   `json:"amount"`
	Status     string    `json:"status"`
	ReviewedBy *int64    `json:"reviewed_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type requestWithdrawalResponse struct {
	Withdrawal withdrawalResponse `json:"withdrawal"`
	NewBalance float64            `json:"new_balance"`
}

func (h *Handler) setCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", h.config.AllowedOrigins)
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
}

func (h *Handler) loginPreflight(c *gin.Context) {
	h.setCORSHeaders(c)
	c.Status(http.StatusOK)
}

// login verifies the widget's signed form and opens a session
func (h *Handler) login(c *gin.Context) {
	h.setCORSHeaders(c)

	if err := c.Request.ParseForm(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed form"})
		return
	}

	fields := make(map[string]string, len(c.Request.PostForm))
	for key, values := range c.Request.PostForm {
		if len(values) > 0 {
			fields[key] = values[0]
		}
	}

	req := service.LoginRequest{Fields: fields}
	if ref := c.Query("ref"); ref != "" {
		if referrerID, err := strconv.ParseInt(ref, 10, 64); err == nil {
			req.ReferrerID = &referrerID
		}
	}

	result, err := h.session.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.config.SessionCookie, strconv.FormatInt(result.UserID, 10),
		int(sessionMaxAge.Seconds()), "/", "", false, true)

	c.JSON(http.StatusOK, loginResponse{
		Success:  true,
		UserID:   result.UserID,
		Username: result.Username,
		Redirect: result.Redirect,
	})
}

func (h *Handler) logout(c *gin.Context) {
	c.SetCookie(h.config.SessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) me(c *gin.Context) {
	profile, err := h.users.GetProfile(c.Request.Context(), c.GetInt64(userIDKey), service.DefaultHistoryLimit)
	if err != nil {
		respondError(c, err)
		return
	}

	transactions := make([]transactionResponse, 0, len(profile.RecentTransactions))
	for _, txn := range profile.RecentTransactions {
		transactions = append(transactions, transactionResponse{
			ID:           txn.ID,
			Amount:       txn.Amount.InexactFloat64(),
			Kind:         string(txn.Kind),
			Description:  txn.Description,
			BalanceAfter: txn.BalanceAfter.InexactFloat64(),
			CreatedAt:    txn.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, profileResponse{
		UserID:        profile.User.ID,
		Username:      profile.User.Username,
		Balance:       profile.User.Balance.InexactFloat64(),
		ReferralCount: profile.ReferralCount,
		Transactions:  transactions,
	})
}

// play resolves one round for the session user
func (h *Handler) play(c *gin.Context) {
	var req playRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.session.PlaceBet(c.Request.Context(), c.GetInt64(userIDKey), models.GameVariant(req.Game), req.Bet)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, playResponse{
		Game:       string(result.Round.Variant),
		Bet:        result.Round.Bet.InexactFloat64(),
		Win:        result.Round.Win,
		Multiplier: result.Round.Multiplier.InexactFloat64(),
		Payout:     result.Round.Payout.InexactFloat64(),
		NewBalance: result.NewBalance.InexactFloat64(),
	})
}

func (h *Handler) requestWithdrawal(c *gin.Context) {
	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.withdrawals.RequestWithdrawal(c.Request.Context(), c.GetInt64(userIDKey), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, requestWithdrawalResponse{
		Withdrawal: toWithdrawalResponse(result.Withdrawal),
		NewBalance: result.NewBalance.InexactFloat64(),
	})
}

func (h *Handler) listWithdrawals(c *gin.Context) {
	var status *models.WithdrawalStatus
	if raw := c.Query("status"); raw != "" {
		s := models.WithdrawalStatus(raw)
		status = &s
	}

	withdrawals, err := h.withdrawals.ListWithdrawals(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]withdrawalResponse, 0, len(withdrawals))
	for _, w := range withdrawals {
		resp = append(resp, toWithdrawalResponse(w))
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": resp})
}

func (h *Handler) approveWithdrawal(c *gin.Context) {
	h.reviewWithdrawal(c, h.withdrawals.ApproveWithdrawal)
}

func (h *Handler) rejectWithdrawal(c *gin.Context) {
	h.reviewWithdrawal(c, h.withdrawals.RejectWithdrawal)
}

func (h *Handler) reviewWithdrawal(c *gin.Context, review func(context.Context, int64, int64) (*models.Withdrawal, error)) {
	withdrawalID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || withdrawalID <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal id"})
		return
	}

	withdrawal, err := review(c.Request.Context(), withdrawalID, c.GetInt64(userIDKey))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toWithdrawalResponse(withdrawal))
}

func toWithdrawalResponse(w *models.Withdrawal) withdrawalResponse {
	return withdrawalResponse{
		ID:         w.ID,
		UserID:     w.UserID,
		Username:   w.Username,
		Amount:     w.Amount.InexactFloat64(),
		Status:     string(w.Status),
		ReviewedBy: w.ReviewedBy,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}

// respondBindError reports malformed or invalid request bodies
func respondBindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		problems := make([]string, 0, len(validationErrs))
		for _, fe := range validationErrs {
			problems = append(problems, describeFieldError(fe))
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": strings.Join(problems, "; ")})
		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "money":
		return fmt.Sprintf("%s must be positive with at most %d decimal places", field, moneyPlaces)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
