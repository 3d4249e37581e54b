package handlers_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	iauth "github.com/charlesng35/storefront/internal/auth"
	"github.com/charlesng35/storefront/internal/handlers/testutil"
	"github.com/charlesng35/storefront/internal/models"
)

type categoryPayload struct {
	Category models.Category `json:"category"`
}

type productPayload struct {
	Product struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Price    string `json:"price"`
		ImageURL string `json:"image_url"`
	} `json:"product"`
}

func createCategory(t *testing.T, env *testutil.Env, token, name string) models.Category {
	t.Helper()

	w := env.Request(http.MethodPost, "/api/admin/categories", map[string]string{"name": name}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var payload categoryPayload
	testutil.DecodeInto(t, resp.Data, &payload)
	require.NotEmpty(t, payload.Category.ID)
	return payload.Category
}

func productForm(t *testing.T, fields map[string]string, images map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for field, content := range images {
		part, err := writer.CreateFormFile(field, field+".png")
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func createProduct(t *testing.T, env *testutil.Env, token string, fields map[string]string, images map[string][]byte) productPayload {
	t.Helper()

	body, contentType := productForm(t, fields, images)
	req, err := http.NewRequest(http.MethodPost, "/api/admin/products", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var payload productPayload
	testutil.DecodeInto(t, resp.Data, &payload)
	require.NotEmpty(t, payload.Product.ID)
	return payload
}

func TestAdminRoutesGating(t *testing.T) {
	env := testutil.NewEnv(t)

	// No token -> 401
	w := env.Request(http.MethodPost, "/api/admin/categories", map[string]string{"name": "Kitchen"}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Customer session token -> rejected
	user := env.CreateUser("shopper@example.com", "password-123")
	w = env.Request(http.MethodPost, "/api/admin/categories", map[string]string{"name": "Kitchen"}, env.SessionToken(user))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Admin-signed token lacking the admin role -> 403
	demoted, err := env.AdminJWT.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: user.ID,
		Role:   models.RoleCustomer,
	})
	require.NoError(t, err)
	w = env.Request(http.MethodPost, "/api/admin/categories", map[string]string{"name": "Kitchen"}, demoted)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Admin token -> allowed
	w = env.Request(http.MethodPost, "/api/admin/categories", map[string]string{"name": "Kitchen"}, env.AdminToken())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCategoryCRUDAndPublicListing(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()

	created := createCategory(t, env, token, "Kitchen")

	// Duplicate name conflicts.
	w := env.Request(http.MethodPost, "/api/admin/categories", map[string]string{"name": "Kitchen"}, token)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// Public listing requires no token.
	w = env.Request(http.MethodGet, "/api/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := testutil.DecodeResponse(t, w)
	var listing struct {
		Categories []models.Category `json:"categories"`
	}
	testutil.DecodeInto(t, resp.Data, &listing)
	require.Len(t, listing.Categories, 1)

	// Update and delete round-trip.
	w = env.Request(http.MethodPut, "/api/admin/categories/"+created.ID, map[string]string{"name": "Cookware"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodDelete, "/api/admin/categories/"+created.ID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.Request(http.MethodGet, "/api/categories/"+created.ID, nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductMultipartCreate(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()

	payload := createProduct(t, env, token,
		map[string]string{
			"name":           "Ceramic Mug",
			"description":    "Stoneware mug",
			"price":          "12.50",
			"stock_quantity": "25",
		},
		map[string][]byte{
			"image":  []byte("front"),
			"image1": []byte("side"),
		},
	)
	require.Equal(t, "Ceramic Mug", payload.Product.Name)
	require.NotEmpty(t, payload.Product.ImageURL)

	// Public read returns the stored product.
	w := env.Request(http.MethodGet, "/api/products/"+payload.Product.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Images beyond the five named fields are ignored rather than stored.
	w = env.Request(http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestProductCategoryReplaceSetEndpoint(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()

	kitchen := createCategory(t, env, token, "Kitchen")
	outdoor := createCategory(t, env, token, "Outdoor")
	sale := createCategory(t, env, token, "Sale")

	product := createProduct(t, env, token, map[string]string{
		"name":  "Ceramic Mug",
		"price": "12.50",
	}, nil)

	setCategories := func(ids []string) []models.Category {
		w := env.Request(http.MethodPut, "/api/admin/products/"+product.Product.ID+"/categories",
			map[string][]string{"category_ids": ids}, token)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := testutil.DecodeResponse(t, w)
		var payload struct {
			Categories []models.Category `json:"categories"`
		}
		testutil.DecodeInto(t, resp.Data, &payload)
		return payload.Categories
	}

	got := setCategories([]string{kitchen.ID, outdoor.ID})
	require.Len(t, got, 2)

	// Replacing swaps the whole set.
	got = setCategories([]string{sale.ID})
	require.Len(t, got, 1)
	require.Equal(t, "Sale", got[0].Name)

	// Empty list clears every assignment.
	got = setCategories(nil)
	require.Empty(t, got)

	// Public read of a product's categories.
	w := env.Request(http.MethodGet, "/api/products/"+product.Product.ID+"/categories", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp testutil.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
}

func TestProductListCategoryFilter(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.AdminToken()

	kitchen := createCategory(t, env, token, "Kitchen")

	mug := createProduct(t, env, token, map[string]string{
		"name":  "Ceramic Mug",
		"price": "12.50",
	}, nil)
	createProduct(t, env, token, map[string]string{
		"name":  "Camping Lantern",
		"price": "39.00",
	}, nil)

	w := env.Request(http.MethodPut, "/api/admin/products/"+mug.Product.ID+"/categories",
		map[string][]string{"category_ids": {kitchen.ID}}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.Request(http.MethodGet, "/api/products?category_id="+kitchen.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := testutil.DecodeResponse(t, w)
	var listing struct {
		Products []models.Product `json:"products"`
	}
	testutil.DecodeInto(t, resp.Data, &listing)
	require.Len(t, listing.Products, 1)
	require.Equal(t, "Ceramic Mug", listing.Products[0].Name)

	// Filtering on a category that does not exist is a not-found, not an
	// empty listing.
	w = env.Request(http.MethodGet, "/api/products?category_id=missing", nil, "")
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}
