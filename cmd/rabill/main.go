package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/sitebill/rabill/internal/config"
	"github.com/sitebill/rabill/internal/migration"
	"github.com/sitebill/rabill/internal/observability"
	"github.com/sitebill/rabill/internal/server"
	"github.com/sitebill/rabill/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// HTTP surface and feature services
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
