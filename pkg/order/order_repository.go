package order

import (
	"context"
	"errors"

	"github.com/akgtechceo/pharmarx-sub003/domain"
	"github.com/akgtechceo/pharmarx-sub003/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	OrderRepository interface {
		CreateOrder(ctx context.Context, order *entities.PrescriptionOrder) error
		GetOrderByID(ctx context.Context, id string) (*entities.PrescriptionOrder, error)
		// UpdateOrder persists the order with a compare-and-set on version.
		// A stale version returns domain.ErrConflict; the caller re-reads and retries.
		UpdateOrder(ctx context.Context, order *entities.PrescriptionOrder) error
		GetOrdersByPatient(ctx context.Context, patientID string, page, limit int) ([]*entities.PrescriptionOrder, int64, error)
		GetOrdersByStatus(ctx context.Context, status string, page, limit int) ([]*entities.PrescriptionOrder, int64, error)

		AppendAuditEntry(ctx context.Context, entry *entities.OrderAuditEntry) error
		GetAuditTrail(ctx context.Context, orderID string) ([]*entities.OrderAuditEntry, error)

		// RecordPaymentAttempt inserts the attempt unless a succeeded attempt
		// already exists for the order, in which case the existing attempt is
		// returned together with domain.ErrAlreadyPaid. Check and insert run in
		// one transaction so concurrent charges cannot both succeed.
		RecordPaymentAttempt(ctx context.Context, attempt *entities.PaymentAttempt) (*entities.PaymentAttempt, error)
		// SettlePaymentAttempt moves a pending attempt to its final status
		// under the same succeeded-attempt check as RecordPaymentAttempt.
		SettlePaymentAttempt(ctx context.Context, attempt *entities.PaymentAttempt) (*entities.PaymentAttempt, error)
		GetPaymentAttempts(ctx context.Context, orderID string) ([]*entities.PaymentAttempt, error)
		GetSucceededPaymentAttempt(ctx context.Context, orderID string) (*entities.PaymentAttempt, error)
	}

	orderRepository struct {
		db *gorm.DB
	}
)

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{
		db: db,
	}
}

func (r *orderRepository) CreateOrder(ctx context.Context, order *entities.PrescriptionOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepository) GetOrderByID(ctx context.Context, id string) (*entities.PrescriptionOrder, error) {
	var order entities.PrescriptionOrder
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) UpdateOrder(ctx context.Context, order *entities.PrescriptionOrder) error {
	currentVersion := order.Version
	order.Version = currentVersion + 1

	res := r.db.WithContext(ctx).
		Model(&entities.PrescriptionOrder{}).
		Where("id = ? AND version = ?", order.ID, currentVersion).
		Select("*").
		Omit("id", "created_at").
		Updates(order)
	if res.Error != nil {
		order.Version = currentVersion
		return res.Error
	}
	if res.RowsAffected == 0 {
		order.Version = currentVersion
		return domain.ErrConflict
	}
	return nil
}

func (r *orderRepository) GetOrdersByPatient(ctx context.Context, patientID string, page, limit int) ([]*entities.PrescriptionOrder, int64, error) {
	var orders []*entities.PrescriptionOrder
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.PrescriptionOrder{}).
		Where("patient_profile_id = ?", patientID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("patient_profile_id = ?", patientID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, count, nil
}

func (r *orderRepository) GetOrdersByStatus(ctx context.Context, status string, page, limit int) ([]*entities.PrescriptionOrder, int64, error) {
	var orders []*entities.PrescriptionOrder
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.PrescriptionOrder{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, count, nil
}

func (r *orderRepository) AppendAuditEntry(ctx context.Context, entry *entities.OrderAuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *orderRepository) GetAuditTrail(ctx context.Context, orderID string) ([]*entities.OrderAuditEntry, error) {
	var entries []*entities.OrderAuditEntry
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *orderRepository) RecordPaymentAttempt(ctx context.Context, attempt *entities.PaymentAttempt) (*entities.PaymentAttempt, error) {
	return r.writeAttempt(ctx, attempt, func(tx *gorm.DB) error {
		return tx.Create(attempt).Error
	})
}

func (r *orderRepository) SettlePaymentAttempt(ctx context.Context, attempt *entities.PaymentAttempt) (*entities.PaymentAttempt, error) {
	return r.writeAttempt(ctx, attempt, func(tx *gorm.DB) error {
		return tx.Model(&entities.PaymentAttempt{}).
			Where("id = ?", attempt.ID).
			Updates(map[string]interface{}{
				"status":         attempt.Status,
				"failure_reason": attempt.FailureReason,
			}).Error
	})
}

func (r *orderRepository) writeAttempt(ctx context.Context, attempt *entities.PaymentAttempt, write func(tx *gorm.DB) error) (*entities.PaymentAttempt, error) {
	var existing entities.PaymentAttempt

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("order_id = ? AND status = ?", attempt.OrderID, domain.PaymentStatusSucceeded).
			First(&existing).Error
		if err == nil {
			return domain.ErrAlreadyPaid
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		// FOR UPDATE on zero rows locks nothing, so two racers can both get
		// here; the partial unique index breaks the tie on the write.
		if err := write(tx); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyPaid
			}
			return err
		}
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyPaid) {
		if existing.ID == uuid.Nil {
			// Lost the insert race: the check saw nothing, re-read the winner.
			winner, readErr := r.GetSucceededPaymentAttempt(ctx, attempt.OrderID.String())
			if readErr != nil {
				return nil, readErr
			}
			return winner, domain.ErrAlreadyPaid
		}
		return &existing, domain.ErrAlreadyPaid
	}
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *orderRepository) GetPaymentAttempts(ctx context.Context, orderID string) ([]*entities.PaymentAttempt, error) {
	var attempts []*entities.PaymentAttempt
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *orderRepository) GetSucceededPaymentAttempt(ctx context.Context, orderID string) (*entities.PaymentAttempt, error) {
	var attempt entities.PaymentAttempt
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, domain.PaymentStatusSucceeded).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}
