package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	clientdomain "github.com/sitebill/rabill/internal/client/domain"
	"github.com/sitebill/rabill/internal/orgcontext"
	"github.com/sitebill/rabill/internal/project/domain"
	"github.com/sitebill/rabill/pkg/db/option"
	"github.com/sitebill/rabill/pkg/db/pagination"
	"github.com/sitebill/rabill/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       repository.Repository[domain.Project]
	itemrepo   repository.Repository[domain.Item]
	clientrepo repository.Repository[clientdomain.Client]
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("project.service"),
		genID:      p.GenID,
		repo:       repository.ProvideStore[domain.Project](p.DB),
		itemrepo:   repository.ProvideStore[domain.Item](p.DB),
		clientrepo: repository.ProvideStore[clientdomain.Client](p.DB),
	}
}

// Create persists a project together with its BOQ item registry in one
// transaction. Items are immutable afterwards.
func (s *Service) Create(ctx context.Context, req domain.CreateProjectRequest) (domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Project{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Project{}, domain.ErrInvalidName
	}

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil {
		return domain.Project{}, domain.ErrInvalidClient
	}
	client, err := s.clientrepo.FindOne(ctx, &clientdomain.Client{ID: clientID, OrgID: orgID})
	if err != nil {
		return domain.Project{}, err
	}
	if client == nil {
		return domain.Project{}, domain.ErrInvalidClient
	}

	if len(req.Items) == 0 {
		return domain.Project{}, domain.ErrEmptyBOQ
	}
	for _, row := range req.Items {
		if strings.TrimSpace(row.Description) == "" {
			return domain.Project{}, domain.ErrInvalidBOQRow
		}
		if row.OriginalQuantity.IsNegative() || row.Rate.IsNegative() || row.DefaultGSTRate.IsNegative() {
			return domain.Project{}, domain.ErrInvalidBOQRow
		}
	}

	now := time.Now().UTC()
	project := domain.Project{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		ClientID:  clientID,
		Name:      name,
		Location:  strings.TrimSpace(req.Location),
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	items := make([]*domain.Item, 0, len(req.Items))
	for i, row := range req.Items {
		items = append(items, &domain.Item{
			ID:               s.genID.Generate(),
			OrgID:            orgID,
			ProjectID:        project.ID,
			Position:         i + 1,
			Description:      strings.TrimSpace(row.Description),
			Unit:             strings.TrimSpace(row.Unit),
			OriginalQuantity: row.OriginalQuantity,
			Rate:             row.Rate,
			DefaultGSTRate:   row.DefaultGSTRate,
			CreatedAt:        now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTrx(tx).Create(ctx, &project); err != nil {
			return err
		}
		return s.itemrepo.WithTrx(tx).BatchCreate(ctx, items)
	})
	if err != nil {
		return domain.Project{}, err
	}

	return project, nil
}

func (s *Service) List(ctx context.Context, req domain.ListProjectRequest) (domain.ListProjectResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListProjectResponse{}, domain.ErrInvalidOrganization
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	filter := &domain.Project{OrgID: orgID}
	if name := strings.TrimSpace(req.Name); name != "" {
		filter.Name = name
	}
	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		clientID, err := snowflake.ParseString(raw)
		if err != nil {
			return domain.ListProjectResponse{}, domain.ErrInvalidClient
		}
		filter.ClientID = clientID
	}

	items, err := s.repo.Find(ctx, filter,
		option.WithSortBy(option.QuerySortBy{Allow: map[string]bool{"created_at": true}}),
		option.WithLimit(pageSize+1),
	)
	if err != nil {
		return domain.ListProjectResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(project *domain.Project) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        project.ID.String(),
			CreatedAt: project.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	if len(items) > pageSize {
		items = items[:pageSize]
	}
	projects := make([]domain.Project, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		projects = append(projects, *item)
	}

	return domain.ListProjectResponse{PageInfo: *pageInfo, Projects: projects}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Project, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Project{}, domain.ErrInvalidOrganization
	}

	projectID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Project{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindOne(ctx, &domain.Project{ID: projectID, OrgID: orgID})
	if err != nil {
		return domain.Project{}, err
	}
	if item == nil {
		return domain.Project{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) ListItems(ctx context.Context, projectID string) ([]domain.Item, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(projectID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	rows, err := s.itemrepo.Find(ctx, &domain.Item{ProjectID: id, OrgID: orgID},
		option.WithSortBy(option.QuerySortBy{Field: "position", Allow: map[string]bool{"position": true}}),
	)
	if err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			continue
		}
		items = append(items, *row)
	}
	return items, nil
}
