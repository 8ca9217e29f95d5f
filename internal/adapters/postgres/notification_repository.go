package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// NotificationRepository implements ports.NotificationRepository
type NotificationRepository struct {
	db DBTX
}

// NewNotificationRepository creates a repository over db
func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.db.Exec(ctx, `INSERT INTO notifications
		(id, recipient_id, type, title, message, related_order_id, related_subscription_id, is_read, deliver_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		n.ID, n.RecipientID, string(n.Type), n.Title, n.Message, nullTextPtr(n.RelatedOrderID),
		nullTextPtr(n.RelatedSubscriptionID), n.IsRead, nullTime(n.DeliverAfter), n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID string, visibleAt time.Time, limit int) ([]*domain.Notification, error) {
	rows, err := r.db.Query(ctx, `SELECT id, recipient_id, type, title, message, related_order_id,
			related_subscription_id, is_read, deliver_after, created_at
		FROM notifications
		WHERE recipient_id = $1 AND (deliver_after IS NULL OR deliver_after <= $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`, recipientID, visibleAt.UTC(), limitOrAll(limit))
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		var (
			n                       domain.Notification
			typ                     string
			orderID, subscriptionID pgtype.Text
			deliverAfter            pgtype.Timestamptz
		)
		if err := rows.Scan(&n.ID, &n.RecipientID, &typ, &n.Title, &n.Message, &orderID,
			&subscriptionID, &n.IsRead, &deliverAfter, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = domain.NotificationType(typ)
		n.RelatedOrderID = textPtr(orderID)
		n.RelatedSubscriptionID = textPtr(subscriptionID)
		n.DeliverAfter = timePtr(deliverAfter)
		n.CreatedAt = n.CreatedAt.UTC()
		out = append(out, &n)
	}
	return out, rows.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, recipientID string) error {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2`, id, recipientID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound(id)
	}
	return nil
}

// Directory implements ports.RestaurantDirectory and ports.CustomerDirectory
type Directory struct {
	db DBTX
}

// NewDirectory creates a lookup over db
func NewDirectory(db DBTX) *Directory {
	return &Directory{db: db}
}

func (d *Directory) GetRestaurant(ctx context.Context, id string) (*domain.Restaurant, error) {
	var r domain.Restaurant
	err := d.db.QueryRow(ctx, `SELECT id, name, owner_id FROM restaurants WHERE id = $1`, id).
		Scan(&r.ID, &r.Name, &r.OwnerID)
	if isNoRows(err) {
		return nil, domain.ErrRestaurantNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return &r, nil
}

func (d *Directory) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := d.db.QueryRow(ctx, `SELECT id, name, email FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email)
	if isNoRows(err) {
		return nil, domain.ErrCustomerNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

// PutRestaurant upserts a restaurant
func (d *Directory) PutRestaurant(ctx context.Context, r domain.Restaurant) error {
	_, err := d.db.Exec(ctx, `INSERT INTO restaurants (id, name, owner_id) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, owner_id = EXCLUDED.owner_id`,
		r.ID, r.Name, r.OwnerID)
	if err != nil {
		return fmt.Errorf("upsert restaurant: %w", err)
	}
	return nil
}

// PutCustomer upserts a customer
func (d *Directory) PutCustomer(ctx context.Context, c domain.Customer) error {
	_, err := d.db.Exec(ctx, `INSERT INTO customers (id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`,
		c.ID, c.Name, c.Email)
	if err != nil {
		return fmt.Errorf("upsert customer: %w", err)
	}
	return nil
}

// limitOrAll maps a non-positive limit to SQL NULL, which LIMIT treats as ALL
func limitOrAll(limit int) pgtype.Int4 {
	if limit <= 0 {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(limit), Valid: true}
}
