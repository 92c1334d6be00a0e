package service

import (
	"context"

	"GroupChatAI/module/credit/model"
	"GroupChatAI/service/storage"
	"GroupChatAI/tools/errs"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Balance returns the user's current credit balance.
func Balance(ctx context.Context, userID int64) (float64, error) {
	var credits float64
	err := storage.PG().QueryRow(ctx,
		`SELECT credits FROM users WHERE id = $1`, userID).Scan(&credits)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, errs.ErrUserNotFound
	}
	if err != nil {
		return 0, errors.Wrap(err, "select credits")
	}
	return credits, nil
}

// Deduct atomically takes amount off the balance and writes the usage
// entry in one transaction. Fails with ErrInsufficientCredits when the
// balance cannot cover it.
func Deduct(ctx context.Context, userID int64, amount float64, aiModel, description string) (int64, error) {
	tx, err := storage.PG().Begin(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE users SET credits = credits - $1, updated_at = now()
		 WHERE id = $2 AND credits >= $1`, amount, userID)
	if err != nil {
		return 0, errors.Wrap(err, "deduct credits")
	}
	if ct.RowsAffected() == 0 {
		return 0, errs.ErrInsufficientCredits
	}

	var txID int64
	err = tx.QueryRow(ctx,
		`INSERT INTO credit_transactions (amount, transaction_type, description, ai_model, user_id)
		 VALUES ($1, $2, $3, NULLIF($4,''), $5) RETURNING id`,
		-amount, model.TxUsage, description, aiModel, userID).Scan(&txID)
	if err != nil {
		return 0, errors.Wrap(err, "insert usage transaction")
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	return txID, nil
}

// Refund gives amount back after a failed model call.
func Refund(ctx context.Context, userID int64, amount float64, aiModel, description string) error {
	return credit(ctx, userID, amount, model.TxRefund, aiModel, description, "", "")
}

// Purchase records a completed payment and credits the balance.
func Purchase(ctx context.Context, userID int64, amount float64, paymentID string) error {
	return credit(ctx, userID, amount, model.TxPurchase, "", "credit purchase", paymentID, "completed")
}

func credit(ctx context.Context, userID int64, amount float64, txType, aiModel, description, paymentID, paymentStatus string) error {
	tx, err := storage.PG().Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE users SET credits = credits + $1, updated_at = now() WHERE id = $2`,
		amount, userID)
	if err != nil {
		return errors.Wrap(err, "add credits")
	}
	if ct.RowsAffected() == 0 {
		return errs.ErrUserNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO credit_transactions
			(amount, transaction_type, description, ai_model, payment_id, payment_status, user_id)
		 VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), $7)`,
		amount, txType, description, aiModel, paymentID, paymentStatus, userID)
	if err != nil {
		return errors.Wrap(err, "insert transaction")
	}
	return errors.Wrap(tx.Commit(ctx), "commit")
}

// AttachMessage links a usage entry to the AI message it paid for.
func AttachMessage(ctx context.Context, txID, messageID int64) error {
	_, err := storage.PG().Exec(ctx,
		`UPDATE credit_transactions SET message_id = $1 WHERE id = $2`, messageID, txID)
	return errors.Wrap(err, "attach message")
}

// Transactions lists the user's ledger, newest first.
func Transactions(ctx context.Context, userID int64, limit, offset int) ([]model.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := storage.PG().Query(ctx,
		`SELECT id, amount, transaction_type, COALESCE(description,''), COALESCE(ai_model,''),
		        message_id, COALESCE(payment_id,''), COALESCE(payment_status,''), user_id, created_at
		 FROM credit_transactions WHERE user_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "select transactions")
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var t model.Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Type, &t.Description, &t.AIModel,
			&t.MessageID, &t.PaymentID, &t.PaymentStatus, &t.UserID, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan transaction")
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
