package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/sitebill/rabill/internal/client/domain"
	"github.com/sitebill/rabill/internal/orgcontext"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupClientService(t *testing.T) (domain.Service, *snowflake.Node, snowflake.ID) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&domain.Client{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake: %v", err)
	}

	svc := New(Params{DB: db, Log: zap.NewNop(), GenID: node})
	return svc, node, node.Generate()
}

func TestClientCreateAndGet(t *testing.T) {
	svc, _, orgID := setupClientService(t)
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	created, err := svc.Create(ctx, domain.CreateClientRequest{
		Name:      "Acme Constructions",
		Email:     "accounts@acme.example",
		GSTIN:     "27aapfu0939f1zv",
		State:     "Maharashtra",
		StateCode: "27",
	})
	assert.NoError(t, err)
	assert.Equal(t, orgID, created.OrgID)
	assert.Equal(t, "27AAPFU0939F1ZV", created.GSTIN)

	got, err := svc.GetByID(ctx, created.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Acme Constructions", got.Name)
}

func TestClientCreateValidation(t *testing.T) {
	svc, _, orgID := setupClientService(t)
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	_, err := svc.Create(ctx, domain.CreateClientRequest{Name: "", Email: "a@b.c"})
	assert.True(t, errors.Is(err, domain.ErrInvalidName))

	_, err = svc.Create(ctx, domain.CreateClientRequest{Name: "Acme", Email: "not-an-email"})
	assert.True(t, errors.Is(err, domain.ErrInvalidEmail))

	_, err = svc.Create(context.Background(), domain.CreateClientRequest{Name: "Acme", Email: "a@b.c"})
	assert.True(t, errors.Is(err, domain.ErrInvalidOrganization))
}

func TestClientGetScopedToOrg(t *testing.T) {
	svc, node, orgID := setupClientService(t)
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	created, err := svc.Create(ctx, domain.CreateClientRequest{Name: "Acme", Email: "a@b.c"})
	assert.NoError(t, err)

	otherCtx := orgcontext.WithOrgID(context.Background(), node.Generate())
	_, err = svc.GetByID(otherCtx, created.ID.String())
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestClientListPaginates(t *testing.T) {
	svc, _, orgID := setupClientService(t)
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, domain.CreateClientRequest{
			Name:  fmt.Sprintf("Client %d", i),
			Email: fmt.Sprintf("client%d@example.com", i),
		})
		assert.NoError(t, err)
	}

	resp, err := svc.List(ctx, domain.ListClientRequest{PageSize: 2})
	assert.NoError(t, err)
	assert.Len(t, resp.Clients, 2)
	assert.True(t, resp.HasMore)
	assert.NotEmpty(t, resp.NextPageToken)

	all, err := svc.List(ctx, domain.ListClientRequest{PageSize: 10})
	assert.NoError(t, err)
	assert.Len(t, all.Clients, 3)
	assert.False(t, all.HasMore)
}
