package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dpyhq/cryptobill/common"
	"github.com/dpyhq/cryptobill/db/models"
	"github.com/dpyhq/cryptobill/lib/service"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

const pgUniqueViolation = "23505"

// Store is the Postgres implementation of service.InvoiceRepository.
type Store struct {
	DB *bun.DB
}

func NewStore(db *bun.DB) *Store {
	return &Store{DB: db}
}

var _ service.InvoiceRepository = (*Store)(nil)

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == pgUniqueViolation
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return service.ErrNotFound
	}
	return err
}

func (s *Store) GetPendingInvoices(ctx context.Context) ([]models.Invoice, error) {
	invoices := []models.Invoice{}
	err := s.DB.NewSelect().
		Model(&invoices).
		Where("status IN (?)", bun.In(models.PollableInvoiceStatuses)).
		Order("due_date ASC", "id ASC").
		Scan(ctx)
	return invoices, err
}

func (s *Store) GetInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	var invoice models.Invoice
	err := s.DB.NewSelect().Model(&invoice).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &invoice, nil
}

// updateInvoiceStatus only touches the row when its current status may move
// to status, so concurrent writers cannot undo a terminal state.
func updateInvoiceStatus(ctx context.Context, db bun.IDB, id int64, status string, paidAt *time.Time) (bool, error) {
	sources := models.SourceStatusesFor(status)
	if len(sources) == 0 {
		return false, nil
	}
	q := db.NewUpdate().
		Model((*models.Invoice)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("status IN (?)", bun.In(sources))
	if paidAt != nil {
		q = q.Set("paid_at = ?", *paidAt)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *Store) UpdateInvoiceStatus(ctx context.Context, id int64, status string, paidAt *time.Time) (bool, error) {
	return updateInvoiceStatus(ctx, s.DB, id, status, paidAt)
}

func (s *Store) MarkOverdue(ctx context.Context, dueBefore time.Time) (int, error) {
	res, err := s.DB.NewUpdate().
		Model((*models.Invoice)(nil)).
		Set("status = ?", common.InvoiceStatusOverdue).
		Set("updated_at = ?", time.Now()).
		Where("status IN (?)", bun.In(models.PollableInvoiceStatuses)).
		Where("due_date < ?", dueBefore).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	return int(rows), err
}

func (s *Store) GetPaymentsForInvoice(ctx context.Context, invoiceID int64) ([]models.PaymentTransaction, error) {
	payments := []models.PaymentTransaction{}
	err := s.DB.NewSelect().
		Model(&payments).
		Where("invoice_id = ?", invoiceID).
		Order("detected_at ASC", "id ASC").
		Scan(ctx)
	return payments, err
}

// GetPaymentByTxHash matches hashes case-insensitively, exchanges are not
// consistent about the casing of hex hashes.
func (s *Store) GetPaymentByTxHash(ctx context.Context, txHash string) (*models.PaymentTransaction, error) {
	var payment models.PaymentTransaction
	err := s.DB.NewSelect().
		Model(&payment).
		Where("lower(transaction_hash) = lower(?)", txHash).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return &payment, nil
}

func insertPayment(ctx context.Context, db bun.IDB, payment *models.PaymentTransaction) error {
	_, err := db.NewInsert().Model(payment).Exec(ctx)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", service.ErrDuplicateTransaction, payment.TransactionHash)
	}
	return err
}

func (s *Store) CreatePaymentTransaction(ctx context.Context, payment *models.PaymentTransaction) (int64, error) {
	if err := insertPayment(ctx, s.DB, payment); err != nil {
		return 0, err
	}
	return payment.ID, nil
}

func (s *Store) UpdatePaymentConfirmations(ctx context.Context, id int64, confirmations int, status string) error {
	q := s.DB.NewUpdate().
		Model((*models.PaymentTransaction)(nil)).
		Set("confirmations = ?", confirmations).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id)
	if status != "" {
		q = q.Set("status = ?", status)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (s *Store) GetUnconfirmedPayments(ctx context.Context) ([]models.PaymentTransaction, error) {
	payments := []models.PaymentTransaction{}
	err := s.DB.NewSelect().
		Model(&payments).
		Where("status IN (?)", bun.In([]string{common.PaymentStatusPending, common.PaymentStatusDetected})).
		Where("confirmations < required_confirmations").
		Order("detected_at ASC").
		Scan(ctx)
	return payments, err
}

func (s *Store) RecordPayment(ctx context.Context, payment *models.PaymentTransaction, invoiceStatus string, paidAt *time.Time) (bool, error) {
	transitioned := false
	err := s.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if err := insertPayment(ctx, tx, payment); err != nil {
			return err
		}
		var err error
		transitioned, err = updateInvoiceStatus(ctx, tx, payment.InvoiceID, invoiceStatus, paidAt)
		return err
	})
	return transitioned, err
}

func (s *Store) ConfirmPayment(ctx context.Context, payment *models.PaymentTransaction, confirmations int, confirmedAt time.Time) (bool, error) {
	transitioned := false
	err := s.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.PaymentTransaction)(nil)).
			Set("confirmations = ?", confirmations).
			Set("status = ?", common.PaymentStatusConfirmed).
			Set("confirmed_at = ?", confirmedAt).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", payment.ID).
			Where("status <> ?", common.PaymentStatusConfirmed).
			Exec(ctx)
		if err != nil {
			return err
		}
		if rows, err := res.RowsAffected(); err != nil {
			return err
		} else if rows == 0 {
			exists, err := tx.NewSelect().Model((*models.PaymentTransaction)(nil)).Where("id = ?", payment.ID).Exists(ctx)
			if err != nil {
				return err
			}
			if exists {
				return service.ErrAlreadyConfirmed
			}
			return service.ErrNotFound
		}
		transitioned, err = updateInvoiceStatus(ctx, tx, payment.InvoiceID, common.InvoiceStatusPaid, &confirmedAt)
		return err
	})
	return transitioned, err
}

func (s *Store) LogPollingEvent(ctx context.Context, event service.PollingEvent) error {
	entry := &models.PollingLog{
		InvoiceID:     event.InvoiceID,
		Status:        event.Status,
		DepositsFound: event.DepositsFound,
		ErrorMessage:  event.ErrorMessage,
		RawResponse:   event.RawResponse,
	}
	_, err := s.DB.NewInsert().Model(entry).Exec(ctx)
	return err
}

// GetPollingLogs returns the most recent polling log entries of an invoice.
func (s *Store) GetPollingLogs(ctx context.Context, invoiceID int64, limit int) ([]models.PollingLog, error) {
	logs := []models.PollingLog{}
	err := s.DB.NewSelect().
		Model(&logs).
		Where("invoice_id = ?", invoiceID).
		Order("timestamp DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	return logs, err
}

func (s *Store) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.DB.NewSelect().
		Model((*models.AppConfig)(nil)).
		Column("value").
		Where("key = ?", key).
		Limit(1).
		Scan(ctx, &value)
	if err != nil {
		return "", notFound(err)
	}
	return value, nil
}

// SetConfig upserts a runtime setting.
func (s *Store) SetConfig(ctx context.Context, key, value string) error {
	entry := &models.AppConfig{Key: key, Value: value, UpdatedAt: time.Now()}
	_, err := s.DB.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
