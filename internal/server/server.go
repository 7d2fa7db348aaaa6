package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sitebill/rabill/internal/billing"
	billingdomain "github.com/sitebill/rabill/internal/billing/domain"
	"github.com/sitebill/rabill/internal/client"
	clientdomain "github.com/sitebill/rabill/internal/client/domain"
	"github.com/sitebill/rabill/internal/config"
	"github.com/sitebill/rabill/internal/invoice"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
	"github.com/sitebill/rabill/internal/observability"
	obsmiddleware "github.com/sitebill/rabill/internal/observability/logger"
	obsmetrics "github.com/sitebill/rabill/internal/observability/metrics"
	obstracing "github.com/sitebill/rabill/internal/observability/tracing"
	"github.com/sitebill/rabill/internal/project"
	projectdomain "github.com/sitebill/rabill/internal/project/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	client.Module,
	project.Module,
	invoice.Module,
	billing.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	clientSvc  clientdomain.Service
	projectSvc projectdomain.Service
	invoiceSvc invoicedomain.Service
	billingSvc billingdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	ClientSvc  clientdomain.Service
	ProjectSvc projectdomain.Service
	InvoiceSvc invoicedomain.Service
	BillingSvc billingdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		clientSvc:  p.ClientSvc,
		projectSvc: p.ProjectSvc,
		invoiceSvc: p.InvoiceSvc,
		billingSvc: p.BillingSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1", s.OrgContext())

	clients := v1.Group("/clients")
	{
		clients.POST("", s.CreateClient)
		clients.GET("", s.ListClients)
		clients.GET("/:id", s.GetClientByID)
	}

	projects := v1.Group("/projects")
	{
		projects.POST("", s.CreateProject)
		projects.GET("", s.ListProjects)
		projects.GET("/:id", s.GetProjectByID)
		projects.GET("/:id/items", s.ListProjectItems)
		projects.GET("/:id/billing-status", s.GetBillingStatus)
		projects.GET("/:id/invoices", s.ListProjectInvoices)
		projects.POST("/:id/invoices", s.CreateInvoice)
		projects.POST("/:id/allocations/validate", s.ValidateAllocation)
	}

	invoices := v1.Group("/invoices")
	{
		invoices.GET("/:id", s.GetInvoiceByID)
	}
}
