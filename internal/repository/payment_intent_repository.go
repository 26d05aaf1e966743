package repository

import (
	"context"
	"errors"
	"time"

	"paybridge/internal/models"

	"gorm.io/gorm"
)

// PaymentIntentRepository is the CRUD surface of the intent ledger.
// Absent records come back as (nil, nil); storage errors are never
// leaked as raw gorm errors beyond this boundary.
type PaymentIntentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	GetByID(ctx context.Context, id string) (*models.PaymentIntent, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.PaymentIntent, error)
	// CompleteIf applies the completion fields only while the intent is
	// still pending or processing. Returns the rows affected so the
	// caller can distinguish a won write from a lost race.
	CompleteIf(ctx context.Context, id string, fields map[string]interface{}) (int64, error)
	// MarkExpiredIfPending is the inline fast-path expiry for one record.
	MarkExpiredIfPending(ctx context.Context, id string) (bool, error)
	ListByBill(ctx context.Context, billID string) ([]models.PaymentIntent, error)
	// SweepExpired is the authoritative batch cleanup: every pending
	// intent past its deadline becomes expired in one set-based update.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type paymentIntentRepository struct {
	db *gorm.DB
}

// NewPaymentIntentRepository creates the gorm-backed intent repository.
func NewPaymentIntentRepository(db *gorm.DB) PaymentIntentRepository {
	return &paymentIntentRepository{db: db}
}

func (r *paymentIntentRepository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *paymentIntentRepository) GetByID(ctx context.Context, id string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).First(&intent, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &intent, nil
}

func (r *paymentIntentRepository) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.PaymentIntent, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *paymentIntentRepository) CompleteIf(ctx context.Context, id string, fields map[string]interface{}) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ? AND status IN ?", id, []string{
			string(models.IntentStatusPending),
			string(models.IntentStatusProcessing),
		}).
		Updates(fields)
	return result.RowsAffected, result.Error
}

func (r *paymentIntentRepository) MarkExpiredIfPending(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ? AND status = ?", id, models.IntentStatusPending).
		Update("status", models.IntentStatusExpired)
	return result.RowsAffected > 0, result.Error
}

func (r *paymentIntentRepository) ListByBill(ctx context.Context, billID string) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("bill_id = ?", billID).
		Order("participant_index ASC").
		Find(&intents).Error
	return intents, err
}

func (r *paymentIntentRepository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("status = ? AND expires_at < ?", models.IntentStatusPending, now).
		Update("status", models.IntentStatusExpired)
	return result.RowsAffected, result.Error
}
