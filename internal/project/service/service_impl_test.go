package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	clientdomain "github.com/sitebill/rabill/internal/client/domain"
	"github.com/sitebill/rabill/internal/orgcontext"
	"github.com/sitebill/rabill/internal/project/domain"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func setupProjectService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, snowflake.ID, clientdomain.Client) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&clientdomain.Client{}, &domain.Project{}, &domain.Item{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	orgID := node.Generate()
	client := clientdomain.Client{
		ID:        node.Generate(),
		OrgID:     orgID,
		Name:      "Acme Constructions",
		Email:     "accounts@acme.example",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}

	svc := New(Params{DB: db, Log: zap.NewNop(), GenID: node})
	return svc, db, node, orgID, client
}

func boqRows() []domain.BOQRow {
	return []domain.BOQRow{
		{Description: "Excavation in soil", Unit: "cum", OriginalQuantity: dec("1200"), Rate: dec("180.50"), DefaultGSTRate: dec("18")},
		{Description: "PCC 1:4:8", Unit: "cum", OriginalQuantity: dec("85.25"), Rate: dec("5400"), DefaultGSTRate: dec("18")},
	}
}

func TestProjectCreateWithBOQ(t *testing.T) {
	svc, db, _, orgID, client := setupProjectService(t)
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	project, err := svc.Create(ctx, domain.CreateProjectRequest{
		Name:     "Residential Tower A",
		ClientID: client.ID.String(),
		Location: "Pune",
		Items:    boqRows(),
	})
	assert.NoError(t, err)
	assert.Equal(t, orgID, project.OrgID)
	assert.Equal(t, client.ID, project.ClientID)

	items, err := svc.ListItems(ctx, project.ID.String())
	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Position)
	assert.Equal(t, 2, items[1].Position)
	assert.Equal(t, "Excavation in soil", items[0].Description)
	assert.True(t, items[0].OriginalQuantity.Equal(dec("1200")))

	var count int64
	assert.NoError(t, db.Model(&domain.Item{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestProjectCreateValidation(t *testing.T) {
	svc, _, node, orgID, client := setupProjectService(t)
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	_, err := svc.Create(ctx, domain.CreateProjectRequest{
		Name:     "",
		ClientID: client.ID.String(),
		Items:    boqRows(),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidName))

	_, err = svc.Create(ctx, domain.CreateProjectRequest{
		Name:     "Tower B",
		ClientID: node.Generate().String(),
		Items:    boqRows(),
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidClient))

	_, err = svc.Create(ctx, domain.CreateProjectRequest{
		Name:     "Tower B",
		ClientID: client.ID.String(),
		Items:    nil,
	})
	assert.True(t, errors.Is(err, domain.ErrEmptyBOQ))

	_, err = svc.Create(ctx, domain.CreateProjectRequest{
		Name:     "Tower B",
		ClientID: client.ID.String(),
		Items: []domain.BOQRow{
			{Description: "", OriginalQuantity: dec("1"), Rate: dec("1")},
		},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidBOQRow))

	_, err = svc.Create(ctx, domain.CreateProjectRequest{
		Name:     "Tower B",
		ClientID: client.ID.String(),
		Items: []domain.BOQRow{
			{Description: "Steel", OriginalQuantity: dec("-5"), Rate: dec("1")},
		},
	})
	assert.True(t, errors.Is(err, domain.ErrInvalidBOQRow))
}

func TestProjectGetScopedToOrg(t *testing.T) {
	svc, _, node, orgID, client := setupProjectService(t)
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	project, err := svc.Create(ctx, domain.CreateProjectRequest{
		Name:     "Residential Tower A",
		ClientID: client.ID.String(),
		Items:    boqRows(),
	})
	assert.NoError(t, err)

	otherCtx := orgcontext.WithOrgID(context.Background(), node.Generate())
	_, err = svc.GetByID(otherCtx, project.ID.String())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProjectList(t *testing.T) {
	svc, _, _, orgID, client := setupProjectService(t)
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, domain.CreateProjectRequest{
			Name:     fmt.Sprintf("Site %d", i),
			ClientID: client.ID.String(),
			Items:    boqRows(),
		})
		assert.NoError(t, err)
	}

	resp, err := svc.List(ctx, domain.ListProjectRequest{PageSize: 2})
	assert.NoError(t, err)
	assert.Len(t, resp.Projects, 2)
	assert.True(t, resp.HasMore)

	filtered, err := svc.List(ctx, domain.ListProjectRequest{PageSize: 10, ClientID: client.ID.String()})
	assert.NoError(t, err)
	assert.Len(t, filtered.Projects, 3)
}
