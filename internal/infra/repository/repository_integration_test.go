package repository

import (
	"context"
	"testing"
	"time"

	"lumina/internal/domain/model"
	"lumina/internal/infra/db"
	repo "lumina/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func seedProduct(t *testing.T, gdb *gorm.DB, slug string, price, stock int64) model.Product {
	t.Helper()
	p, err := NewProductGormRepository(gdb).Create(context.Background(), model.Product{
		Slug:     slug,
		Name:     "Product " + slug,
		Price:    price,
		Stock:    stock,
		IsActive: true,
		Variants: []model.VariantAxis{{Name: "Color", Options: []model.VariantOption{{Value: "Red"}}}},
	})
	require.NoError(t, err)
	return p
}

func TestRepositories_Postgres(t *testing.T) {
	gdb := setupTestDB(t)
	ctx := context.Background()

	products := NewProductGormRepository(gdb)
	orders := NewOrderGormRepository(gdb)
	items := NewOrderItemGormRepository(gdb)
	inventory := NewInventoryGormRepository(gdb)
	profiles := NewProfileGormRepository(gdb)

	t.Run("product slug is unique", func(t *testing.T) {
		seedProduct(t, gdb, "phone", 1000, 5)
		_, err := products.Create(ctx, model.Product{Slug: "phone", Name: "dup", Price: 1})
		assert.ErrorIs(t, err, repo.ErrConflict)
	})

	t.Run("stock decreases only when enough", func(t *testing.T) {
		p := seedProduct(t, gdb, "case", 500, 2)

		ok, err := inventory.DecreaseStockIfEnough(ctx, p.ID, 2)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = inventory.DecreaseStockIfEnough(ctx, p.ID, 1)
		require.NoError(t, err)
		assert.False(t, ok)

		got, err := products.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.Stock)
	})

	t.Run("idempotency key conflict keeps transaction usable", func(t *testing.T) {
		err := NewTxManagerGorm(gdb).WithinTx(ctx, func(r repo.TxRepos) error {
			first := model.Order{UserID: 7, Status: model.OrderStatusProcessing, PaymentMethod: model.PaymentBankTransfer,
				FirstName: "A", LastName: "B", IdempotencyKey: "k-1", TotalPrice: 100}
			id, err := r.Orders().Create(ctx, first)
			require.NoError(t, err)

			_, err = r.Orders().Create(ctx, first)
			assert.ErrorIs(t, err, repo.ErrConflict)

			found, ok, err := r.Orders().FindByIdempotencyKey(ctx, 7, "k-1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, id, found.ID)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("return transition only from Delivered", func(t *testing.T) {
		o := model.Order{UserID: 8, Status: model.OrderStatusProcessing, PaymentMethod: model.PaymentBankTransfer,
			FirstName: "A", LastName: "B", IdempotencyKey: "k-2"}
		id, err := orders.Create(ctx, o)
		require.NoError(t, err)

		changed, err := orders.TransitionStatus(ctx, id, model.OrderStatusDelivered, model.OrderStatusReturnRequested)
		require.NoError(t, err)
		assert.False(t, changed)

		require.NoError(t, orders.UpdateStatus(ctx, id, model.OrderStatusDelivered))
		changed, err = orders.TransitionStatus(ctx, id, model.OrderStatusDelivered, model.OrderStatusReturnRequested)
		require.NoError(t, err)
		assert.True(t, changed)

		got, err := orders.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusReturnRequested, got.Status)
	})

	t.Run("order items keep snapshots", func(t *testing.T) {
		p := seedProduct(t, gdb, "cable", 300, 10)
		id, err := orders.Create(ctx, model.Order{UserID: 9, Status: model.OrderStatusProcessing,
			PaymentMethod: model.PaymentCard, FirstName: "A", LastName: "B", IdempotencyKey: "k-3"})
		require.NoError(t, err)

		require.NoError(t, items.CreateBulk(ctx, id, []model.OrderItem{{
			ProductID: p.ID, ProductNameSnapshot: p.Name, UnitPriceSnapshot: 300, Quantity: 2,
			VariantsSnapshot: map[string]string{"Color": "Red"},
		}}))
		require.NoError(t, products.SoftDelete(ctx, p.ID))

		list, err := items.ListByOrderID(ctx, id)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, p.Name, list[0].ProductNameSnapshot)
		assert.Equal(t, "Red", list[0].VariantsSnapshot["Color"])

		live, err := products.FindByIDs(ctx, []int64{p.ID})
		require.NoError(t, err)
		assert.Empty(t, live)
	})

	t.Run("customer summary is aggregated in the database", func(t *testing.T) {
		rows, total, err := orders.SummarizeCustomers(ctx, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, int64(len(rows)), total)
		for _, row := range rows {
			assert.GreaterOrEqual(t, row.OrderCount, int64(1))
		}
	})

	t.Run("profile shipping address upsert", func(t *testing.T) {
		addr := model.Address{Line1: "Jl. Sudirman 1", City: "Jakarta", PostalCode: "10210"}.
			WithCoordinates(model.Coordinates{Lat: -6.2, Lng: 106.8})
		require.NoError(t, profiles.SaveShippingAddress(ctx, 42, addr))

		_, err := profiles.Upsert(ctx, model.UserProfile{UserID: 42, FirstName: "Ayu", Email: "ayu@example.com"})
		require.NoError(t, err)

		got, err := profiles.FindByUserID(ctx, 42)
		require.NoError(t, err)
		assert.Equal(t, "Ayu", got.FirstName)
		assert.Equal(t, "Jakarta", got.ShippingAddress.City)
		require.NotNil(t, got.ShippingAddress.Coordinates())
		assert.InDelta(t, -6.2, got.ShippingAddress.Coordinates().Lat, 1e-9)
	})
}
