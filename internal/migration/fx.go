package migration

import (
	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/sitebill/rabill/internal/client/domain"
	"github.com/sitebill/rabill/internal/config"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
	organizationdomain "github.com/sitebill/rabill/internal/organization/domain"
	projectdomain "github.com/sitebill/rabill/internal/project/domain"
	"github.com/sitebill/rabill/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// SQLite and MySQL are dev conveniences; let gorm shape them.
			if err := conn.AutoMigrate(
				&organizationdomain.Organization{},
				&clientdomain.Client{},
				&projectdomain.Project{},
				&projectdomain.Item{},
				&invoicedomain.Invoice{},
				&invoicedomain.LineAllocation{},
			); err != nil {
				return err
			}
		}

		if cfg.DefaultOrgID != 0 {
			return seed.EnsureMainOrgWithID(conn, snowflake.ID(cfg.DefaultOrgID))
		}
		return seed.EnsureMainOrg(conn)
	}),
)
