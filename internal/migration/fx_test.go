package migration

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sitebill/rabill/internal/config"
	organizationdomain "github.com/sitebill/rabill/internal/organization/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func openMigrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return db
}

func runModule(t *testing.T, db *gorm.DB, cfg config.Config) {
	t.Helper()

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(func() *gorm.DB { return db }),
		Module,
	)
	assert.NoError(t, app.Err())
}

func TestMigrateSeedsConfiguredDefaultOrg(t *testing.T) {
	db := openMigrationDB(t)

	runModule(t, db, config.Config{DefaultOrgID: 7285493212345})

	var org organizationdomain.Organization
	assert.NoError(t, db.Where("slug = ?", "main").First(&org).Error)
	assert.Equal(t, int64(7285493212345), int64(org.ID))
	assert.True(t, org.IsDefault)
}

func TestMigrateSeedsGeneratedOrgWhenUnconfigured(t *testing.T) {
	db := openMigrationDB(t)

	runModule(t, db, config.Config{})

	var org organizationdomain.Organization
	assert.NoError(t, db.Where("slug = ?", "main").First(&org).Error)
	assert.NotZero(t, org.ID)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openMigrationDB(t)

	runModule(t, db, config.Config{DefaultOrgID: 42})
	runModule(t, db, config.Config{DefaultOrgID: 42})

	var count int64
	assert.NoError(t, db.Model(&organizationdomain.Organization{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
