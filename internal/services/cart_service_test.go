package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/storefront/internal/database/testutil"
	"github.com/charlesng35/storefront/internal/models"
)

func TestCartAddValidation(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	svc, err := NewCartService(db)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = svc.Add(ctx, AddCartItemInput{ProductID: "p", Quantity: 1})
	require.ErrorContains(t, err, "user id is required")

	_, err = svc.Add(ctx, AddCartItemInput{UserID: "u", Quantity: 1})
	require.ErrorContains(t, err, "product id is required")

	_, err = svc.Add(ctx, AddCartItemInput{UserID: "u", ProductID: "p", Quantity: 0})
	require.ErrorContains(t, err, "quantity must be greater than zero")
}

func TestCartListForUserResolvesProducts(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	product := models.Product{
		Name:          "Mug",
		Price:         decimal.RequireFromString("9.99"),
		StockQuantity: 10,
		ImageURL:      "assets/images/mug.png",
	}
	require.NoError(t, db.Create(&product).Error)

	svc, err := NewCartService(db)
	require.NoError(t, err)

	ctx := context.Background()
	userID := "11111111-1111-1111-1111-111111111111"

	item, err := svc.Add(ctx, AddCartItemInput{UserID: userID, ProductID: product.ID, Quantity: 2})
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)

	items, err := svc.ListForUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Product)
	require.Equal(t, "Mug", items[0].Product.Name)
	require.True(t, items[0].Product.Price.Equal(decimal.RequireFromString("9.99")))
	require.Equal(t, []string{"assets/images/mug.png"}, items[0].Product.ImageURLs())
}

func TestCartUpdateQuantity(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	svc, err := NewCartService(db)
	require.NoError(t, err)

	ctx := context.Background()
	item, err := svc.Add(ctx, AddCartItemInput{UserID: "u1", ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateQuantity(ctx, "u1", item.ID, 5))

	got, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.Quantity)

	// Writing the value already stored still succeeds.
	require.NoError(t, svc.UpdateQuantity(ctx, "u1", item.ID, 5))

	require.ErrorContains(t, svc.UpdateQuantity(ctx, "u1", item.ID, 0), "quantity must be greater than zero")
	require.ErrorContains(t, svc.UpdateQuantity(ctx, "", item.ID, 3), "user id is required")
	require.ErrorIs(t, svc.UpdateQuantity(ctx, "u1", "missing", 3), ErrCartItemNotFound)
}

func TestCartUpdateQuantityScopedToOwner(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	svc, err := NewCartService(db)
	require.NoError(t, err)

	ctx := context.Background()
	item, err := svc.Add(ctx, AddCartItemInput{UserID: "u1", ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	// Another user addressing the line by id must not see or change it.
	require.ErrorIs(t, svc.UpdateQuantity(ctx, "u2", item.ID, 99), ErrCartItemNotFound)

	got, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.Quantity)
}

func TestCartRemoveByUserAndProduct(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	svc, err := NewCartService(db)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = svc.Add(ctx, AddCartItemInput{UserID: "u1", ProductID: "p1", Quantity: 1})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveByUserAndProduct(ctx, "u1", "p1"))
	require.ErrorIs(t, svc.RemoveByUserAndProduct(ctx, "u1", "p1"), ErrCartItemNotFound)
}
