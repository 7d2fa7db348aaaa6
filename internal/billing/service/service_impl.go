package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/sitebill/rabill/internal/billing/domain"
	"github.com/sitebill/rabill/internal/config"
	invoicedomain "github.com/sitebill/rabill/internal/invoice/domain"
	"github.com/sitebill/rabill/internal/orgcontext"
	projectdomain "github.com/sitebill/rabill/internal/project/domain"
	"github.com/sitebill/rabill/pkg/db"
	"github.com/sitebill/rabill/pkg/db/option"
	"github.com/sitebill/rabill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	BillingCfg *config.BillingConfigHolder
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	billingCfg *config.BillingConfigHolder

	itemrepo    repository.Repository[projectdomain.Item]
	invoicerepo repository.Repository[invoicedomain.Invoice]
}

func New(p Params) billingdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("billing.service"),
		genID:       p.GenID,
		billingCfg:  p.BillingCfg,
		itemrepo:    repository.ProvideStore[projectdomain.Item](p.DB),
		invoicerepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
	}
}

func (s *Service) GetBillingStatus(ctx context.Context, req billingdomain.GetBillingStatusRequest) (billingdomain.BillingStatus, error) {
	orgID, projectID, err := s.scope(ctx, req.ProjectID)
	if err != nil {
		return billingdomain.BillingStatus{}, err
	}

	items, invoices, err := s.loadLedger(ctx, s.db, orgID, projectID)
	if err != nil {
		return billingdomain.BillingStatus{}, err
	}

	balances, err := computeBalances(items, invoices)
	if err != nil {
		return billingdomain.BillingStatus{}, err
	}

	taxCount := countTaxInvoices(invoices)
	return billingdomain.BillingStatus{
		ProjectID:       projectID,
		Items:           balances,
		NextSequenceTag: fmt.Sprintf("RA%d", taxCount+1),
		TaxInvoiceCount: taxCount,
	}, nil
}

func (s *Service) ValidateAllocation(ctx context.Context, req billingdomain.ValidateAllocationRequest) (billingdomain.ValidationResult, error) {
	orgID, projectID, err := s.scope(ctx, req.ProjectID)
	if err != nil {
		return billingdomain.ValidationResult{}, err
	}
	if err := validateInvoiceType(req.Type); err != nil {
		return billingdomain.ValidationResult{}, err
	}

	items, invoices, err := s.loadLedger(ctx, s.db, orgID, projectID)
	if err != nil {
		return billingdomain.ValidationResult{}, err
	}

	balances, err := computeBalances(items, invoices)
	if err != nil {
		return billingdomain.ValidationResult{}, err
	}

	index := balanceIndex(balances)
	parsed, err := parseLines(index, req.Lines)
	if err != nil {
		return billingdomain.ValidationResult{}, err
	}

	if err := validateAllocation(index, parsed, s.billingCfg.Get().AllowedGSTRates()); err != nil {
		if allocErr := billingdomain.AsAllocationError(err); allocErr != nil {
			return billingdomain.ValidationResult{Valid: false, Violations: allocErr.Violations}, nil
		}
		return billingdomain.ValidationResult{}, err
	}

	return billingdomain.ValidationResult{Valid: true}, nil
}

// CreateInvoice validates the proposal and appends the invoice in a single
// transaction. The project row is locked first, so for one project at most
// one append can pass the balance check and commit; the unique RA-number
// index backstops the lock on stores that cannot take it.
func (s *Service) CreateInvoice(ctx context.Context, req billingdomain.CreateInvoiceRequest) (invoicedomain.Invoice, error) {
	orgID, projectID, err := s.scope(ctx, req.ProjectID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	if err := validateInvoiceType(req.Type); err != nil {
		return invoicedomain.Invoice{}, err
	}

	var created invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lockProject(ctx, tx, orgID, projectID); err != nil {
			return err
		}

		items, invoices, err := s.loadLedger(ctx, tx, orgID, projectID)
		if err != nil {
			return err
		}

		balances, err := computeBalances(items, invoices)
		if err != nil {
			return err
		}

		index := balanceIndex(balances)
		parsed, err := parseLines(index, req.Lines)
		if err != nil {
			return err
		}
		if err := validateAllocation(index, parsed, s.billingCfg.Get().AllowedGSTRates()); err != nil {
			return err
		}

		sequenceNo := int64(countTaxInvoices(invoices) + 1)
		created = buildInvoice(s.genID, orgID, projectID, req.Type, sequenceNo, index, parsed, req.Metadata, time.Now().UTC())

		if err := s.invoicerepo.WithTrx(tx).Create(ctx, &created); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return billingdomain.ErrConcurrentModification
			}
			return err
		}
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	s.log.Info("invoice created",
		zap.String("project_id", projectID.String()),
		zap.String("invoice_id", created.ID.String()),
		zap.String("sequence_tag", created.SequenceTag),
		zap.String("type", string(created.Type)),
		zap.String("total_amount", created.TotalAmount.String()),
	)
	return created, nil
}

func (s *Service) scope(ctx context.Context, rawProjectID string) (snowflake.ID, snowflake.ID, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return 0, 0, billingdomain.ErrInvalidOrganization
	}

	projectID, err := snowflake.ParseString(strings.TrimSpace(rawProjectID))
	if err != nil {
		return 0, 0, billingdomain.ErrInvalidProject
	}
	return orgID, projectID, nil
}

// loadLedger fetches the item registry and the full invoice ledger for a
// project as one snapshot. Callers fold it; nothing derived is persisted.
func (s *Service) loadLedger(ctx context.Context, tx *gorm.DB, orgID, projectID snowflake.ID) ([]projectdomain.Item, []invoicedomain.Invoice, error) {
	itemRows, err := s.itemrepo.WithTrx(tx).Find(ctx, &projectdomain.Item{OrgID: orgID, ProjectID: projectID},
		option.WithSortBy(option.QuerySortBy{Field: "position", Allow: map[string]bool{"position": true}}),
	)
	if err != nil {
		return nil, nil, err
	}
	if len(itemRows) == 0 {
		// Registry lookup doubles as the project existence check on the
		// read path; projects are never created without BOQ items.
		exists, err := s.projectExists(ctx, tx, orgID, projectID)
		if err != nil {
			return nil, nil, err
		}
		if !exists {
			return nil, nil, billingdomain.ErrProjectNotFound
		}
	}

	invoiceRows, err := s.invoicerepo.WithTrx(tx).Find(ctx, &invoicedomain.Invoice{OrgID: orgID, ProjectID: projectID},
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
		option.WithPreload("Allocations"),
	)
	if err != nil {
		return nil, nil, err
	}

	items := make([]projectdomain.Item, 0, len(itemRows))
	for _, row := range itemRows {
		if row == nil {
			continue
		}
		items = append(items, *row)
	}
	invoices := make([]invoicedomain.Invoice, 0, len(invoiceRows))
	for _, row := range invoiceRows {
		if row == nil {
			continue
		}
		invoices = append(invoices, *row)
	}
	return items, invoices, nil
}

func (s *Service) projectExists(ctx context.Context, tx *gorm.DB, orgID, projectID snowflake.ID) (bool, error) {
	var id snowflake.ID
	err := tx.WithContext(ctx).Raw(
		`SELECT id FROM projects WHERE org_id = ? AND id = ?`,
		orgID, projectID,
	).Scan(&id).Error
	if err != nil {
		return false, err
	}
	return id != 0, nil
}

// lockProject serializes invoice creation per project. SQLite has no row
// locks and serializes writers itself; there the unique sequence index is
// the arbiter.
func (s *Service) lockProject(ctx context.Context, tx *gorm.DB, orgID, projectID snowflake.ID) error {
	query := `SELECT id FROM projects WHERE org_id = ? AND id = ?`
	if tx.Dialector.Name() != "sqlite" {
		query += ` FOR UPDATE`
	}

	var id snowflake.ID
	if err := tx.WithContext(ctx).Raw(query, orgID, projectID).Scan(&id).Error; err != nil {
		return err
	}
	if id == 0 {
		return billingdomain.ErrProjectNotFound
	}
	return nil
}

func validateInvoiceType(invType invoicedomain.InvoiceType) error {
	switch invType {
	case invoicedomain.InvoiceTypeProforma, invoicedomain.InvoiceTypeTaxInvoice:
		return nil
	default:
		return billingdomain.ErrInvalidInvoiceType
	}
}
