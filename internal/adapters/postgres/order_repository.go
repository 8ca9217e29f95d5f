package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/mealplan-service/internal/domain"
	"github.com/kevin07696/mealplan-service/pkg/timeutil"
)

const orderColumns = `id, user_id, restaurant_id, subscription_id, items, total_amount, delivery_address,
	delivery_instructions, payment_method, status, day_of_week, meal_time, diet_type, scheduled_for,
	cancellation_reason, cancelled_at, delivered_at, created_at, updated_at`

// OrderRepository implements ports.OrderRepository. The partial unique index
// uq_orders_subscription_slot enforces one order per subscription slot.
type OrderRepository struct {
	db DBTX
}

// NewOrderRepository creates a repository over db
func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	amount, err := toNumeric(order.TotalAmount)
	if err != nil {
		return err
	}
	items, err := toJSON(order.Items)
	if err != nil {
		return err
	}
	address, err := toJSON(order.DeliveryAddress)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `INSERT INTO orders (`+orderColumns+`, scheduled_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		order.ID, order.UserID, order.RestaurantID, nullTextPtr(order.SubscriptionID), items, amount, address,
		nullText(order.DeliveryInstructions), string(order.PaymentMethod), string(order.Status),
		nullText(string(order.DayOfWeek)), nullText(string(order.MealTime)), nullText(string(order.DietType)),
		order.ScheduledFor.UTC(), nullText(order.CancellationReason), nullTime(order.CancelledAt),
		nullTime(order.DeliveredAt), order.CreatedAt.UTC(), order.UpdatedAt.UTC(),
		timeutil.StartOfDay(order.ScheduledFor),
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateOrderSlot()
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	order, err := scanOrder(row)
	if isNoRows(err) {
		return nil, domain.ErrOrderNotFound(id)
	}
	return order, err
}

func (r *OrderRepository) ExistsForSlot(ctx context.Context, slot domain.OrderSlot) (bool, error) {
	var found bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM orders
		WHERE subscription_id = $1 AND day_of_week = $2 AND meal_time = $3 AND scheduled_day = $4)`,
		slot.SubscriptionID, string(slot.DayOfWeek), string(slot.MealTime), timeutil.StartOfDay(slot.ScheduledFor),
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("check order slot: %w", err)
	}
	return found, nil
}

func (r *OrderRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE subscription_id = $1 ORDER BY scheduled_for, meal_time`, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, order)
	}
	return out, rows.Err()
}

func (r *OrderRepository) CancelBySubscription(ctx context.Context, subscriptionID string, statuses []domain.OrderStatus, reason string, at time.Time) (int, error) {
	match := make([]string, len(statuses))
	for i, st := range statuses {
		match[i] = string(st)
	}

	tag, err := r.db.Exec(ctx, `UPDATE orders
		SET status = 'cancelled', cancellation_reason = $3, cancelled_at = $4, updated_at = $4
		WHERE subscription_id = $1 AND status = ANY($2)`,
		subscriptionID, match, reason, at.UTC())
	if err != nil {
		return 0, fmt.Errorf("cancel subscription orders: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *OrderRepository) Cancel(ctx context.Context, id string, from domain.OrderStatus, reason string, at time.Time) (bool, error) {
	return r.conditional(ctx, id, `UPDATE orders
		SET status = 'cancelled', cancellation_reason = $3, cancelled_at = $4, updated_at = $4
		WHERE id = $1 AND status = $2`,
		id, string(from), reason, at.UTC())
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) (bool, error) {
	return r.conditional(ctx, id, `UPDATE orders
		SET status = $3, updated_at = $4,
		    delivered_at = CASE WHEN $3 = 'delivered' THEN $4 ELSE delivered_at END,
		    cancelled_at = CASE WHEN $3 = 'cancelled' THEN $4 ELSE cancelled_at END
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), at.UTC())
}

// conditional runs a status-guarded UPDATE and tells a lost race from a missing order
func (r *OrderRepository) conditional(ctx context.Context, id, sql string, args ...any) (bool, error) {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var found bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&found); err != nil {
		return false, fmt.Errorf("check order: %w", err)
	}
	if !found {
		return false, domain.ErrOrderNotFound(id)
	}
	return false, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		order                         domain.Order
		subscriptionID                pgtype.Text
		items, address                []byte
		amount                        pgtype.Numeric
		instructions, reason          pgtype.Text
		method, status                string
		dayOfWeek, mealTime, dietType pgtype.Text
		cancelledAt, deliveredAt      pgtype.Timestamptz
	)
	err := row.Scan(&order.ID, &order.UserID, &order.RestaurantID, &subscriptionID, &items, &amount, &address,
		&instructions, &method, &status, &dayOfWeek, &mealTime, &dietType, &order.ScheduledFor,
		&reason, &cancelledAt, &deliveredAt, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	order.TotalAmount, err = pgNumericToDecimal(amount)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	if err := json.Unmarshal(address, &order.DeliveryAddress); err != nil {
		return nil, fmt.Errorf("decode delivery address: %w", err)
	}
	order.SubscriptionID = textPtr(subscriptionID)
	order.DeliveryInstructions = instructions.String
	order.CancellationReason = reason.String
	order.PaymentMethod = domain.PaymentMethod(method)
	order.Status = domain.OrderStatus(status)
	order.DayOfWeek = domain.Weekday(dayOfWeek.String)
	order.MealTime = domain.MealTime(mealTime.String)
	order.DietType = domain.DietType(dietType.String)
	order.CancelledAt = timePtr(cancelledAt)
	order.DeliveredAt = timePtr(deliveredAt)
	order.ScheduledFor = order.ScheduledFor.UTC()
	order.CreatedAt = order.CreatedAt.UTC()
	order.UpdatedAt = order.UpdatedAt.UTC()
	return &order, nil
}
