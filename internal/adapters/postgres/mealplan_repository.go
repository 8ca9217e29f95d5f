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

const mealPlanColumns = `id, restaurant_id, name, description, tier, duration, price, weekly_menu,
	max_subscribers, current_subscribers, custom_for, is_active, is_custom, created_at, updated_at`

// MealPlanRepository implements ports.MealPlanRepository
type MealPlanRepository struct {
	db DBTX
}

// NewMealPlanRepository creates a repository over db
func NewMealPlanRepository(db DBTX) *MealPlanRepository {
	return &MealPlanRepository{db: db}
}

func (r *MealPlanRepository) Create(ctx context.Context, plan *domain.MealPlan) error {
	price, err := toNumeric(plan.Price)
	if err != nil {
		return err
	}
	menu, err := toJSON(plan.WeeklyMenu)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `INSERT INTO meal_plans (`+mealPlanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		plan.ID, plan.RestaurantID, plan.Name, plan.Description, string(plan.Tier), string(plan.Duration),
		price, menu, nullInt(plan.MaxSubscribers), plan.CurrentSubscribers, nullTextPtr(plan.CustomFor),
		plan.IsActive, plan.IsCustom, plan.CreatedAt.UTC(), plan.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert meal plan: %w", err)
	}
	return nil
}

func (r *MealPlanRepository) GetByID(ctx context.Context, id string) (*domain.MealPlan, error) {
	row := r.db.QueryRow(ctx, `SELECT `+mealPlanColumns+` FROM meal_plans WHERE id = $1`, id)
	plan, err := scanMealPlan(row)
	if isNoRows(err) {
		return nil, domain.ErrMealPlanNotFound(id)
	}
	return plan, err
}

func (r *MealPlanRepository) ListActive(ctx context.Context, restaurantID string) ([]*domain.MealPlan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+mealPlanColumns+` FROM meal_plans
		WHERE is_active AND ($1 = '' OR restaurant_id = $1)
		ORDER BY name`, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list meal plans: %w", err)
	}
	defer rows.Close()

	var out []*domain.MealPlan
	for rows.Next() {
		plan, err := scanMealPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, plan)
	}
	return out, rows.Err()
}

// ReserveSubscriberSlot increments the counter in one conditional UPDATE
func (r *MealPlanRepository) ReserveSubscriberSlot(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE meal_plans
		SET current_subscribers = current_subscribers + 1, updated_at = now()
		WHERE id = $1 AND is_active
		  AND (max_subscribers IS NULL OR current_subscribers < max_subscribers)`, id)
	if err != nil {
		return false, fmt.Errorf("reserve subscriber slot: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	if err := r.exists(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r *MealPlanRepository) SetActive(ctx context.Context, id string, active bool, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE meal_plans SET is_active = $2, updated_at = $3 WHERE id = $1`,
		id, active, at.UTC())
	if err != nil {
		return fmt.Errorf("set meal plan active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMealPlanNotFound(id)
	}
	return nil
}

func (r *MealPlanRepository) ReleaseSubscriberSlot(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE meal_plans
		SET current_subscribers = GREATEST(current_subscribers - 1, 0), updated_at = now()
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("release subscriber slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMealPlanNotFound(id)
	}
	return nil
}

func (r *MealPlanRepository) exists(ctx context.Context, id string) error {
	var found bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM meal_plans WHERE id = $1)`, id).Scan(&found); err != nil {
		return fmt.Errorf("check meal plan: %w", err)
	}
	if !found {
		return domain.ErrMealPlanNotFound(id)
	}
	return nil
}

func scanMealPlan(row pgx.Row) (*domain.MealPlan, error) {
	var (
		plan      domain.MealPlan
		tier      string
		duration  string
		price     pgtype.Numeric
		menu      []byte
		maxSubs   pgtype.Int4
		current   int32
		customFor pgtype.Text
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&plan.ID, &plan.RestaurantID, &plan.Name, &plan.Description, &tier, &duration,
		&price, &menu, &maxSubs, &current, &customFor, &plan.IsActive, &plan.IsCustom, &createdAt, &updatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("scan meal plan: %w", err)
	}

	plan.Price, err = pgNumericToDecimal(price)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(menu, &plan.WeeklyMenu); err != nil {
		return nil, fmt.Errorf("decode weekly menu: %w", err)
	}
	plan.Tier = domain.PlanTier(tier)
	plan.Duration = domain.PlanDuration(duration)
	plan.MaxSubscribers = intPtr(maxSubs)
	plan.CurrentSubscribers = int(current)
	plan.CustomFor = textPtr(customFor)
	plan.CreatedAt = createdAt.UTC()
	plan.UpdatedAt = updatedAt.UTC()
	return &plan, nil
}
