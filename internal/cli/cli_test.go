package cli

import (
	"context"
	"path/filepath"
	"testing"

	"plastikhb/internal/database"
	"plastikhb/internal/repositories"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := NewRootCommand()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "migrate"}, names)
	assert.NotNil(t, root.PersistentFlags().Lookup("dsn"))
}

func TestMigrateCommand_SeedsAdmin(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "plastikhb.db")
	t.Setenv("ADMIN_EMAIL", "admin@plastikhb.test")
	t.Setenv("ADMIN_PASSWORD", "rahasia123")
	t.Setenv("LOG_LEVEL", "error")

	root := NewRootCommand()
	root.SetArgs([]string{"migrate", "--db-driver", "sqlite", "--dsn", dsn})
	require.NoError(t, root.Execute())

	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	user, err := repositories.NewGORMUserRepository(db).GetByEmail(context.Background(), "admin@plastikhb.test")
	require.NoError(t, err)
	assert.Equal(t, "admin", user.Username)
	assert.NotEqual(t, "rahasia123", user.Password)

	// A second run leaves the existing account alone
	root = NewRootCommand()
	root.SetArgs([]string{"migrate", "--db-driver", "sqlite", "--dsn", dsn})
	require.NoError(t, root.Execute())
}

func TestMigrateCommand_RejectsUnknownDriver(t *testing.T) {
	root := NewRootCommand()
	root.SetArgs([]string{"migrate", "--db-driver", "oracle", "--dsn", "x"})
	assert.Error(t, root.Execute())
}

func TestLogCatalogEvent(t *testing.T) {
	err := logCatalogEvent(amqp.Delivery{Body: []byte(`{"type":"product.created","product_id":"p-1","at":"2026-10-16T10:00:00Z"}`)})
	assert.NoError(t, err)

	err = logCatalogEvent(amqp.Delivery{Body: []byte(`not json`)})
	assert.Error(t, err)
}
