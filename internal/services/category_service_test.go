package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/storefront/internal/database/testutil"
	"github.com/charlesng35/storefront/internal/models"
)

func seedCategories(t *testing.T, db *gorm.DB, names ...string) []models.Category {
	t.Helper()

	categories := make([]models.Category, 0, len(names))
	for _, name := range names {
		category := models.Category{Name: name}
		require.NoError(t, db.Create(&category).Error)
		categories = append(categories, category)
	}
	return categories
}

func assignedCategoryIDs(t *testing.T, db *gorm.DB, productID string) []string {
	t.Helper()

	var rows []models.ProductCategory
	require.NoError(t, db.Where("product_id = ?", productID).Order("category_id").Find(&rows).Error)

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.CategoryID)
	}
	return ids
}

func TestCategoryServiceCRUD(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	svc, err := NewCategoryService(db)
	require.NoError(t, err)

	ctx := context.Background()

	created, err := svc.Create(ctx, CreateCategoryInput{Name: "Shoes", Description: "Footwear"})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	_, err = svc.Create(ctx, CreateCategoryInput{Name: "Shoes"})
	require.ErrorIs(t, err, ErrCategoryNameTaken)

	newName := "Sneakers"
	updated, err := svc.Update(ctx, created.ID, UpdateCategoryInput{Name: &newName})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Sneakers", got.Name)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	require.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestCategoryServiceAssignUnassignIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	svc, err := NewCategoryService(db)
	require.NoError(t, err)

	ctx := context.Background()
	categories := seedCategories(t, db, "Books", "Games")
	productID := "11111111-1111-1111-1111-111111111111"

	// Insert-if-absent: the second call is a no-op.
	require.NoError(t, svc.Assign(ctx, productID, categories[0].ID))
	require.NoError(t, svc.Assign(ctx, productID, categories[0].ID))
	require.Equal(t, []string{categories[0].ID}, assignedCategoryIDs(t, db, productID))

	// Delete-if-present: removing twice does not fail.
	require.NoError(t, svc.Unassign(ctx, productID, categories[0].ID))
	require.NoError(t, svc.Unassign(ctx, productID, categories[0].ID))
	require.Empty(t, assignedCategoryIDs(t, db, productID))
}

func TestSetForProductReplacesAtomically(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	svc, err := NewCategoryService(db)
	require.NoError(t, err)

	ctx := context.Background()
	categories := seedCategories(t, db, "A", "B", "C", "D")
	productID := "22222222-2222-2222-2222-222222222222"

	first := []string{categories[0].ID, categories[1].ID}
	require.NoError(t, svc.SetForProduct(ctx, productID, first))

	// Calling twice with the same set is idempotent: no duplicates, exact membership.
	require.NoError(t, svc.SetForProduct(ctx, productID, first))
	require.ElementsMatch(t, first, assignedCategoryIDs(t, db, productID))

	// Duplicated input ids collapse to a single row each.
	require.NoError(t, svc.SetForProduct(ctx, productID, []string{categories[2].ID, categories[2].ID}))
	require.Equal(t, []string{categories[2].ID}, assignedCategoryIDs(t, db, productID))

	// Empty set clears every assignment.
	require.NoError(t, svc.SetForProduct(ctx, productID, nil))
	require.Empty(t, assignedCategoryIDs(t, db, productID))
}

func TestSetForProductRollsBackOnInsertFailure(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	svc, err := NewCategoryService(db)
	require.NoError(t, err)

	ctx := context.Background()
	categories := seedCategories(t, db, "A", "B", "C", "D")
	productID := "33333333-3333-3333-3333-333333333333"

	prior := []string{categories[0].ID, categories[1].ID}
	require.NoError(t, svc.SetForProduct(ctx, productID, prior))

	// Force the bulk insert step to fail after the delete step has run.
	failInserts := false
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:fail_assignment_inserts", func(tx *gorm.DB) {
		if failInserts && tx.Statement.Table == "product_categories" {
			tx.AddError(errors.New("forced insert failure"))
		}
	}))
	t.Cleanup(func() {
		_ = db.Callback().Create().Remove("test:fail_assignment_inserts")
	})

	failInserts = true
	err = svc.SetForProduct(ctx, productID, []string{categories[2].ID, categories[3].ID})
	require.Error(t, err)
	failInserts = false

	// The delete inside the failed transaction must have been rolled back.
	require.ElementsMatch(t, prior, assignedCategoryIDs(t, db, productID))
}

func TestCategoryDeleteClearsAssignments(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	svc, err := NewCategoryService(db)
	require.NoError(t, err)

	ctx := context.Background()
	categories := seedCategories(t, db, "Outdoor")
	productID := "44444444-4444-4444-4444-444444444444"

	require.NoError(t, svc.Assign(ctx, productID, categories[0].ID))
	require.NoError(t, svc.Delete(ctx, categories[0].ID))

	require.Empty(t, assignedCategoryIDs(t, db, productID))
}

func TestCategoriesForProduct(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	svc, err := NewCategoryService(db)
	require.NoError(t, err)

	ctx := context.Background()
	categories := seedCategories(t, db, "Beta", "Alpha")
	productID := "55555555-5555-5555-5555-555555555555"

	require.NoError(t, svc.SetForProduct(ctx, productID, []string{categories[0].ID, categories[1].ID}))

	assigned, err := svc.CategoriesForProduct(ctx, productID)
	require.NoError(t, err)
	require.Len(t, assigned, 2)
	require.Equal(t, "Alpha", assigned[0].Name)
	require.Equal(t, "Beta", assigned[1].Name)
}
