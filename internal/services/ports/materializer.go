package ports

import (
	"context"
	"time"

	"github.com/kevin07696/mealplan-service/internal/domain"
)

// UnitFailure is one day and meal time that could not be materialized
type UnitFailure struct {
	Date     time.Time
	MealTime domain.MealTime
	Err      error
}

// MaterializeResult summarizes one expansion run
type MaterializeResult struct {
	Created  []*domain.Order
	Skipped  int
	Failures []UnitFailure
	Warnings []error
}

// Merge folds other into r
func (r *MaterializeResult) Merge(other *MaterializeResult) {
	if other == nil {
		return
	}
	r.Created = append(r.Created, other.Created...)
	r.Skipped += other.Skipped
	r.Failures = append(r.Failures, other.Failures...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// Materializer turns a subscription's weekly intent into dated orders
type Materializer interface {
	// ExpandForWindow materializes the next occurrence of every menu day on or after referenceDate
	ExpandForWindow(ctx context.Context, sub *domain.Subscription, plan *domain.MealPlan, referenceDate time.Time) (*MaterializeResult, error)

	// ExpandForDay materializes the single calendar day date
	ExpandForDay(ctx context.Context, sub *domain.Subscription, plan *domain.MealPlan, date time.Time) (*MaterializeResult, error)
}
