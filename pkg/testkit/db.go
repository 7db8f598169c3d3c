// Package testkit builds farmlink fixtures for tests: a migrated in-memory
// database, a fully wired application and a cookie-keeping HTTP client.
package testkit

import (
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/farmlink/database/migrations"
	"github.com/shashiranjanraj/farmlink/pkg/database"
	"github.com/shashiranjanraj/farmlink/pkg/migration"
)

var dbSeq atomic.Int64

// DB returns a private, migrated in-memory SQLite database closed at the
// end of the test.
func DB(t testing.TB) *gorm.DB {
	t.Helper()
	return openDB(t)
}

func openDB(t testing.TB, opt ...database.Option) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	db, err := database.Open("sqlite", dsn, append(opt, database.WithoutPool())...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	_, err = migration.New(db, migrations.All(), io.Discard).Run()
	require.NoError(t, err)
	return db
}
