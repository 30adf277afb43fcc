package postgres

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/devlink-notifier/pkg/metrics"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB, m *metrics.Metrics) BaseRepository {
	return BaseRepository{db: db, metrics: m}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// observe records the outcome of a database operation
func (r *BaseRepository) observe(operation string, err error) {
	if r.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	r.metrics.DatabaseOperations.WithLabelValues(operation, status).Inc()
}

// userColumns lists the User projection, optionally aliased under a
// struct prefix so sqlx can scan it into a nested model.User.
func userColumns(table, prefix string) string {
	cols := [][2]string{
		{table + `.id`, "id"},
		{table + `.email`, "email"},
		{table + `.name`, "name"},
		{`lower(` + table + `.role::text)`, "role"},
		{table + `."emailNotifications"`, "email_notifications"},
		{table + `.bio`, "bio"},
		{`COALESCE(` + table + `.skills, '{}')`, "skills"},
		{table + `."githubUrl"`, "github_url"},
		{table + `.location`, "location"},
		{`(SELECT COUNT(*) FROM "Project" p WHERE p."userId" = ` + table + `.id)`, "project_count"},
		{table + `."createdAt"`, "created_at"},
		{table + `."updatedAt"`, "updated_at"},
	}

	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		alias := c[1]
		if prefix != "" {
			alias = `"` + prefix + "." + alias + `"`
		}
		parts = append(parts, c[0]+" AS "+alias)
	}
	return strings.Join(parts, ", ")
}
