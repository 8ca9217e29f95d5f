package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

const subscriptionColumns = `id, user_id, meal_plan_id, selected_diet_type, selected_meal_times,
	delivery_address, delivery_instructions, payment_method, payment_status, status, total_amount,
	start_date, end_date, renewal_date, last_reminder_for, last_reminded_at, cancelled_at,
	created_at, updated_at`

// SubscriptionRepository implements ports.SubscriptionRepository.
// Mutations are single conditional UPDATEs; RowsAffected tells whether they applied.
type SubscriptionRepository struct {
	db DBTX
}

// NewSubscriptionRepository creates a repository over db
func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) error {
	amount, err := toNumeric(sub.TotalAmount)
	if err != nil {
		return err
	}
	address, err := toJSON(sub.DeliveryAddress)
	if err != nil {
		return err
	}
	mealTimes := make([]string, len(sub.SelectedMealTimes))
	for i, mt := range sub.SelectedMealTimes {
		mealTimes[i] = string(mt)
	}

	_, err = r.db.Exec(ctx, `INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		sub.ID, sub.UserID, sub.MealPlanID, string(sub.SelectedDietType), mealTimes,
		address, nullText(sub.DeliveryInstructions), string(sub.PaymentMethod), string(sub.PaymentStatus),
		string(sub.Status), amount, sub.StartDate.UTC(), sub.EndDate.UTC(), sub.RenewalDate.UTC(),
		nullTime(sub.LastReminderFor), nullTime(sub.LastRemindedAt), nullTime(sub.CancelledAt),
		sub.CreatedAt.UTC(), sub.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	row := r.db.QueryRow(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id)
	sub, err := scanSubscription(row)
	if isNoRows(err) {
		return nil, domain.ErrSubscriptionNotFound(id)
	}
	return sub, err
}

func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Subscription, error) {
	return r.list(ctx, `WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *SubscriptionRepository) MarkCancelled(ctx context.Context, id string, at time.Time) (bool, error) {
	return r.conditional(ctx, id, `UPDATE subscriptions
		SET status = 'cancelled', cancelled_at = $2, updated_at = $2
		WHERE id = $1 AND status <> 'cancelled'`, id, at.UTC())
}

func (r *SubscriptionRepository) UpdateDetails(ctx context.Context, sub *domain.Subscription, at time.Time) (bool, error) {
	address, err := toJSON(sub.DeliveryAddress)
	if err != nil {
		return false, err
	}
	mealTimes := make([]string, len(sub.SelectedMealTimes))
	for i, mt := range sub.SelectedMealTimes {
		mealTimes[i] = string(mt)
	}
	return r.conditional(ctx, sub.ID, `UPDATE subscriptions
		SET delivery_address = $2, delivery_instructions = $3, selected_meal_times = $4, updated_at = $5
		WHERE id = $1 AND status <> 'cancelled'`,
		sub.ID, address, nullText(sub.DeliveryInstructions), mealTimes, at.UTC())
}

func (r *SubscriptionRepository) ListActiveRenewingBetween(ctx context.Context, from, to time.Time) ([]*domain.Subscription, error) {
	return r.list(ctx, `WHERE status = 'active' AND renewal_date BETWEEN $1 AND $2
		ORDER BY renewal_date, id`, from.UTC(), to.UTC())
}

func (r *SubscriptionRepository) ListActiveDueForRenewal(ctx context.Context, asOf time.Time) ([]*domain.Subscription, error) {
	return r.list(ctx, `WHERE status = 'active' AND renewal_date <= $1
		ORDER BY renewal_date, id`, asOf.UTC())
}

func (r *SubscriptionRepository) ListActiveEndingOnOrAfter(ctx context.Context, t time.Time) ([]*domain.Subscription, error) {
	return r.list(ctx, `WHERE status = 'active' AND end_date >= $1
		ORDER BY renewal_date, id`, t.UTC())
}

func (r *SubscriptionRepository) Renew(ctx context.Context, id string, expectedRenewal, start, end, at time.Time) (bool, error) {
	return r.conditional(ctx, id, `UPDATE subscriptions
		SET start_date = $3, end_date = $4, renewal_date = $4, updated_at = $5
		WHERE id = $1 AND status = 'active' AND renewal_date = $2`,
		id, expectedRenewal.UTC(), start.UTC(), end.UTC(), at.UTC())
}

func (r *SubscriptionRepository) MarkReminderSent(ctx context.Context, id string, renewalDate, at time.Time) (bool, error) {
	return r.conditional(ctx, id, `UPDATE subscriptions
		SET last_reminder_for = $2, last_reminded_at = $3
		WHERE id = $1 AND status = 'active'
		  AND (last_reminder_for IS NULL OR last_reminder_for <> $2)`,
		id, renewalDate.UTC(), at.UTC())
}

// conditional runs a guarded UPDATE. Zero rows means either the guard
// failed or the row is missing; the latter is reported as not found.
func (r *SubscriptionRepository) conditional(ctx context.Context, id, sql string, args ...any) (bool, error) {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var found bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM subscriptions WHERE id = $1)`, id).Scan(&found); err != nil {
		return false, fmt.Errorf("check subscription: %w", err)
	}
	if !found {
		return false, domain.ErrSubscriptionNotFound(id)
	}
	return false, nil
}

func (r *SubscriptionRepository) list(ctx context.Context, where string, args ...any) ([]*domain.Subscription, error) {
	rows, err := r.db.Query(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var (
		sub                                      domain.Subscription
		diet, method, paymentStatus, status      string
		mealTimes                                []string
		address                                  []byte
		instructions                             pgtype.Text
		amount                                   pgtype.Numeric
		lastReminderFor, lastReminded, cancelled pgtype.Timestamptz
	)
	err := row.Scan(&sub.ID, &sub.UserID, &sub.MealPlanID, &diet, &mealTimes,
		&address, &instructions, &method, &paymentStatus, &status, &amount,
		&sub.StartDate, &sub.EndDate, &sub.RenewalDate, &lastReminderFor, &lastReminded, &cancelled,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan subscription: %w", err)
	}

	sub.TotalAmount, err = pgNumericToDecimal(amount)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(address, &sub.DeliveryAddress); err != nil {
		return nil, fmt.Errorf("decode delivery address: %w", err)
	}
	sub.SelectedMealTimes = make([]domain.MealTimeOption, len(mealTimes))
	for i, mt := range mealTimes {
		sub.SelectedMealTimes[i] = domain.MealTimeOption(mt)
	}
	sub.SelectedDietType = domain.DietType(diet)
	sub.PaymentMethod = domain.PaymentMethod(method)
	sub.PaymentStatus = domain.PaymentStatus(paymentStatus)
	sub.Status = domain.SubscriptionStatus(status)
	sub.DeliveryInstructions = instructions.String
	sub.LastReminderFor = timePtr(lastReminderFor)
	sub.LastRemindedAt = timePtr(lastReminded)
	sub.CancelledAt = timePtr(cancelled)
	sub.StartDate = sub.StartDate.UTC()
	sub.EndDate = sub.EndDate.UTC()
	sub.RenewalDate = sub.RenewalDate.UTC()
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	return &sub, nil
}
