package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoangdanh165/devplanner/internal/model"
)

type PlanRepository struct {
	pool *pgxpool.Pool
}

func NewPlanRepository(pool *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{pool: pool}
}

func (r *PlanRepository) Create(ctx context.Context, p model.PlanRecord) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO plans (id, user_id, name, brief, version, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.UserID, p.Name, p.Brief, p.Version, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create plan: %w", err)
	}
	return nil
}

func (r *PlanRepository) FindByID(ctx context.Context, id string) (model.PlanRecord, error) {
	var p model.PlanRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, brief, version, created_at, updated_at
		 FROM plans WHERE id = $1`, id).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Brief, &p.Version, &p.CreatedAt, &p.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.PlanRecord{}, model.ErrPlanNotFound
	}
	if err != nil {
		return model.PlanRecord{}, fmt.Errorf("find plan by id: %w", err)
	}
	return p, nil
}

// ListByUser returns one page of the user's plans ordered by most recently
// updated, plus the total count for pagination metadata.
func (r *PlanRepository) ListByUser(ctx context.Context, userID string, page int, pageSize int) ([]model.PlanRecord, int, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM plans WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count plans: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, brief, version, created_at, updated_at
		 FROM plans WHERE user_id = $1
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`, userID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	plans := make([]model.PlanRecord, 0)
	for rows.Next() {
		var p model.PlanRecord
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Brief, &p.Version, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	return plans, total, rows.Err()
}

func (r *PlanRepository) SetVersion(ctx context.Context, planID string, version int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE plans SET version = $2, updated_at = now() WHERE id = $1`, planID, version)
	if err != nil {
		return fmt.Errorf("set plan version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepository) StoreVersion(ctx context.Context, v model.PlanVersion) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO plan_versions (plan_id, version, sections, created_at)
		 VALUES ($1, $2, $3, $4)`,
		v.PlanID, v.Version, v.Sections, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("store plan version: %w", err)
	}
	return nil
}

func (r *PlanRepository) FindVersion(ctx context.Context, planID string, version int) (model.PlanVersion, error) {
	var v model.PlanVersion
	err := r.pool.QueryRow(ctx,
		`SELECT plan_id, version, sections, created_at
		 FROM plan_versions WHERE plan_id = $1 AND version = $2`, planID, version).
		Scan(&v.PlanID, &v.Version, &v.Sections, &v.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.PlanVersion{}, model.ErrVersionNotFound
	}
	if err != nil {
		return model.PlanVersion{}, fmt.Errorf("find plan version: %w", err)
	}
	return v, nil
}

func (r *PlanRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPlanNotFound
	}
	return nil
}
