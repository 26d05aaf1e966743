package repository

import (
	"context"
	"errors"
	"time"

	"paybridge/internal/models"

	"gorm.io/gorm"
)

// BillRepository persists bills and their child intents.
type BillRepository interface {
	// CreateWithIntents writes the bill and every child intent in one
	// transaction; a partial write is never observable.
	CreateWithIntents(ctx context.Context, bill *models.Bill, intents []models.PaymentIntent) error
	GetByID(ctx context.Context, id string) (*models.Bill, error)
	// MarkSettledNotified flips settled_notified_at exactly once; the
	// second caller loses and gets false.
	MarkSettledNotified(ctx context.Context, id string, at time.Time) (bool, error)
}

type billRepository struct {
	db *gorm.DB
}

// NewBillRepository creates the gorm-backed bill repository.
func NewBillRepository(db *gorm.DB) BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) CreateWithIntents(ctx context.Context, bill *models.Bill, intents []models.PaymentIntent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(bill).Error; err != nil {
			return err
		}
		for i := range intents {
			intents[i].BillID = &bill.ID
			if err := tx.Create(&intents[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *billRepository) GetByID(ctx context.Context, id string) (*models.Bill, error) {
	var bill models.Bill
	err := r.db.WithContext(ctx).First(&bill, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bill, nil
}

func (r *billRepository) MarkSettledNotified(ctx context.Context, id string, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Bill{}).
		Where("id = ? AND settled_notified_at IS NULL", id).
		Update("settled_notified_at", at)
	return result.RowsAffected > 0, result.Error
}
