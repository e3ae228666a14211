package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"dealer_reviews/internal/domain"
)

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) ListCarModels(ctx context.Context) ([]domain.CarModelView, error) {
	rows, err := r.db.QueryContext(ctx, listCarModelsSQL)
	if err != nil {
		return nil, fmt.Errorf("list car models: %w", err)
	}
	defer rows.Close()

	out := []domain.CarModelView{}
	for rows.Next() {
		var (
			v   domain.CarModelView
			typ sql.NullString
		)
		if err := rows.Scan(&v.CarModel, &v.CarMake, &typ, &v.Year); err != nil {
			return nil, fmt.Errorf("scan car model: %w", err)
		}
		v.Type = typ.String
		out = append(out, v)
	}
	return out, rows.Err()
}
