package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", pgx5URL("postgres://u:p@h:5432/db?sslmode=disable"))
	assert.Equal(t, "pgx5://u@h/db", pgx5URL("postgresql://u@h/db"))
	assert.Equal(t, "pgx5://h/db", pgx5URL("pgx5://h/db"))
}
