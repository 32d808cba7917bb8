package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"notequiz/internal/domain"
)

// ModuleLoader reads the seed catalog of modules from Postgres. The catalog is read once at
// startup; the running process never writes back.
type ModuleLoader struct {
	pool *pgxpool.Pool
}

func NewModuleLoader(pool *pgxpool.Pool) *ModuleLoader {
	return &ModuleLoader{pool: pool}
}

// LoadModules returns the catalog newest first.
func (l *ModuleLoader) LoadModules(ctx context.Context) ([]domain.QuizModule, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, title, content, questions, high_score FROM quiz_modules ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("load modules: %w", err)
	}
	defer rows.Close()

	var modules []domain.QuizModule
	for rows.Next() {
		var (
			m   domain.QuizModule
			raw []byte
		)
		if err := rows.Scan(&m.ID, &m.Title, &m.Content, &raw, &m.HighScore); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		if err := json.Unmarshal(raw, &m.Questions); err != nil {
			return nil, fmt.Errorf("unmarshal questions of module %s: %w", m.ID, err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modules: %w", err)
	}
	return modules, nil
}
