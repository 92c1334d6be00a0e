package credit

import (
	"net/http"
	"strconv"

	midsec "GroupChatAI/middleware/security"
	creditsrv "GroupChatAI/module/credit/service"
	"GroupChatAI/tools/errs"

	"github.com/gin-gonic/gin"
)

func HandlerBalance(c *gin.Context) {
	uid := midsec.UserID(c)
	balance, err := creditsrv.Balance(c.Request.Context(), uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": balance})
}

func HandlerTransactions(c *gin.Context) {
	uid := midsec.UserID(c)
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	txs, err := creditsrv.Transactions(c.Request.Context(), uid, limit, offset)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

type purchaseReq struct {
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	PaymentID string  `json:"payment_id" binding:"required"`
}

// HandlerPurchase records an already-captured payment; the payment flow
// itself is external.
func HandlerPurchase(c *gin.Context) {
	uid := midsec.UserID(c)
	var req purchaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errs.ErrArgs.WithDetail(err.Error()))
		return
	}

	if err := creditsrv.Purchase(c.Request.Context(), uid, req.Amount, req.PaymentID); err != nil {
		writeErr(c, err)
		return
	}
	balance, err := creditsrv.Balance(c.Request.Context(), uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"credits": balance})
}

func writeErr(c *gin.Context, err error) {
	switch {
	case errs.ErrUserNotFound.Is(err):
		c.JSON(http.StatusNotFound, err)
	case errs.ErrInsufficientCredits.Is(err):
		c.JSON(http.StatusPaymentRequired, err)
	default:
		c.JSON(http.StatusInternalServerError, errs.ErrInternal.WithDetail(err.Error()))
	}
}
