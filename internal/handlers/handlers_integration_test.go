package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"plastikhb/internal/database"
	"plastikhb/internal/repositories"
	"plastikhb/internal/server"
	"plastikhb/internal/services"
	"plastikhb/pkg/logger"
	"plastikhb/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@plastikhb.test"
	adminPassword = "password123"
)

type testEnv struct {
	app   *fiber.App
	files *storage.FileStore
}

// setupApp builds the full API on a private in-memory sqlite database with one admin account.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	files, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	products := repositories.NewGORMProductRepository(db)
	categories := repositories.NewGORMCategoryRepository(db)
	authService := services.NewAuthService(
		repositories.NewGORMUserRepository(db),
		repositories.NewGORMSessionRepository(db),
		"test_jwt_secret",
		time.Hour,
	)
	_, err = authService.EnsureAdmin(context.Background(), "admin", adminEmail, adminPassword)
	require.NoError(t, err)

	app := server.NewApp(server.Options{
		BodyLimit:      16 * 1024 * 1024,
		MaxUploadFiles: 8,
		MaxUploadSize:  1024 * 1024,
	}, server.Services{
		Products: services.NewProductService(
			services.NewTxRunner(db, files),
			products, categories, repositories.NewGORMAssetRepository(db),
		),
		Categories: services.NewCategoryService(categories, products, nil),
		Auth:       authService,
		Pages:      services.NewPageService(repositories.NewGORMPageRepository(db)),
		Analytics:  services.NewAnalyticsService(repositories.NewGORMAnalyticRepository(db), nil),
		Files:      files,
	})
	return &testEnv{app: app, files: files}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	logger.InitWithWriter("plastikhb-test", "error", io.Discard)
	os.Exit(m.Run())
}

type apiResponse struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
	Token   string            `json:"token"`
	Data    json.RawMessage   `json:"data"`
}

func (e *testEnv) do(t *testing.T, req *http.Request) (int, apiResponse) {
	t.Helper()
	resp, err := e.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()

	var body apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}

func jsonRequest(method, target, token string, payload interface{}) *http.Request {
	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type image struct {
	name, contentType string
}

// multipartRequest sends fields plus one part per image in the "images" field.
func multipartRequest(t *testing.T, method, target, token string, fields map[string]string, images ...image) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, img := range images {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, img.name))
		h.Set("Content-Type", img.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	status, body := e.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    adminEmail,
		"password": adminPassword,
	}))
	require.Equal(t, http.StatusOK, status, body.Error)
	require.NotEmpty(t, body.Token)
	return body.Token
}

func (e *testEnv) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(e.files.Dir())
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

type productBody struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	Category struct {
		ID   string `json:"id"`
		Name string `json:"category"`
	} `json:"category"`
	Assets []struct {
		ID    string `json:"id"`
		URL   string `json:"url"`
		Order int    `json:"order"`
	} `json:"assets"`
}

func decodeProduct(t *testing.T, raw json.RawMessage) productBody {
	t.Helper()
	var p productBody
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

func TestHealthCheck(t *testing.T) {
	env := setupApp(t)
	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), `"status":"healthy"`)
}

func TestAuthLoginVerifyLogout(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": adminEmail}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email and password are required.", body.Error)

	status, body = env.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    adminEmail,
		"password": "wrong",
	}))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password.", body.Error)

	token := env.login(t)

	status, body = env.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/verify-session", "", map[string]string{"token": token}))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Session is valid", body.Message)

	status, body = env.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/verify-session", "", map[string]string{}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Token is required.", body.Error)

	status, _ = env.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/logout", "", map[string]string{"token": token}))
	assert.Equal(t, http.StatusOK, status)

	// A logged out token is rejected everywhere
	status, _ = env.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/verify-session", "", map[string]string{"token": token}))
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.do(t, jsonRequest(http.MethodPost, "/api/v1/categories", token, map[string]string{"category": "Botol"}))
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRegisterRequiresSession(t *testing.T) {
	env := setupApp(t)
	newUser := map[string]string{
		"username": "staff",
		"email":    "staff@plastikhb.test",
		"password": "password123",
	}

	status, body := env.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/register", "", newUser))
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authorization header is required", body.Error)

	token := env.login(t)
	status, body = env.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/register", token, newUser))
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "User registered successfully", body.Message)
	assert.NotContains(t, string(body.Data), "password123")

	// Test Duplicate Registration (username)
	status, _ = env.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/register", token, newUser))
	assert.Equal(t, http.StatusConflict, status)

	status, body = env.do(t, jsonRequest(http.MethodPost, "/api/v1/auth/register", token, map[string]string{"username": "x"}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body.Error)
	assert.Contains(t, body.Errors, "Email")
}

func TestProductEndpointsWithoutAuth(t *testing.T) {
	env := setupApp(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/products", "", map[string]string{
		"name": "Toples", "price": "15000", "category_name": "Kemasan",
	}, image{"a.png", "image/png"})
	status, _ := env.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Empty(t, env.storedFiles(t), "auth runs before anything is saved")

	status, body := env.do(t, jsonRequest(http.MethodGet, "/api/v1/products", "", nil))
	assert.Equal(t, http.StatusOK, status)
	var list []productBody
	require.NoError(t, json.Unmarshal(body.Data, &list))
	assert.Empty(t, list)
}

func TestCreateProductWithImages(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/products", token, map[string]string{
		"name":          "Toples 1L",
		"price":         "15000",
		"category_name": "Kemasan",
		"status":        "aktif",
	}, image{"depan.png", "image/png"}, image{"samping.jpg", "image/jpeg"})
	status, body := env.do(t, req)
	require.Equal(t, http.StatusCreated, status, body.Error)
	assert.Equal(t, "Product created successfully", body.Message)

	p := decodeProduct(t, body.Data)
	assert.Equal(t, "active", p.Status)
	assert.Equal(t, "Kemasan", p.Category.Name)
	require.Len(t, p.Assets, 2)
	assert.Equal(t, 1, p.Assets[0].Order)
	assert.Equal(t, 2, p.Assets[1].Order)
	assert.ElementsMatch(t, []string{p.Assets[0].URL, p.Assets[1].URL}, env.storedFiles(t))

	// Same category name in another case reuses the category
	req = multipartRequest(t, http.MethodPost, "/api/v1/products", token, map[string]string{
		"name": "Toples 2L", "price": "20000", "category_name": "kemasan",
	})
	status, body = env.do(t, req)
	require.Equal(t, http.StatusCreated, status, body.Error)
	assert.Equal(t, p.Category.ID, decodeProduct(t, body.Data).Category.ID)

	status, body = env.do(t, jsonRequest(http.MethodGet, "/api/v1/products/catalog?categoryId="+p.Category.ID, "", nil))
	require.Equal(t, http.StatusOK, status)
	var catalog []productBody
	require.NoError(t, json.Unmarshal(body.Data, &catalog))
	require.Len(t, catalog, 1, "drafts stay out of the catalog")
	assert.Equal(t, p.ID, catalog[0].ID)

	status, _ = env.do(t, jsonRequest(http.MethodGet, "/api/v1/products/catalog?priceMin=abc", "", nil))
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestCreateProductRejectedRemovesUploads(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	req := multipartRequest(t, http.MethodPost, "/api/v1/products", token, map[string]string{
		"price": "15000", "category_name": "Kemasan",
	}, image{"a.png", "image/png"})
	status, body := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Name and price are required.", body.Error)
	assert.Empty(t, env.storedFiles(t))

	req = multipartRequest(t, http.MethodPost, "/api/v1/products", token, map[string]string{
		"name": "Toples", "price": "15000",
	}, image{"a.png", "image/png"})
	status, body = env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Either category_name or category_id is required.", body.Error)
	assert.Empty(t, env.storedFiles(t))

	// Unknown category id fails inside the transaction
	req = multipartRequest(t, http.MethodPost, "/api/v1/products", token, map[string]string{
		"name": "Toples", "price": "15000", "category_id": "missing",
	}, image{"a.png", "image/png"})
	status, _ = env.do(t, req)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Empty(t, env.storedFiles(t))

	req = multipartRequest(t, http.MethodPost, "/api/v1/products", token, map[string]string{
		"name": "Toples", "price": "15000", "category_name": "Kemasan",
	}, image{"notes.txt", "text/plain"})
	status, _ = env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Empty(t, env.storedFiles(t))
}

func createProduct(t *testing.T, env *testEnv, token string, images int) productBody {
	t.Helper()
	var imgs []image
	for i := 0; i < images; i++ {
		imgs = append(imgs, image{fmt.Sprintf("img-%d.png", i), "image/png"})
	}
	req := multipartRequest(t, http.MethodPost, "/api/v1/products", token, map[string]string{
		"name": "Botol 600ml", "price": "3000", "category_name": "Botol", "status": "active",
	}, imgs...)
	status, body := env.do(t, req)
	require.Equal(t, http.StatusCreated, status, body.Error)
	return decodeProduct(t, body.Data)
}

func TestReorderAssets(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)
	p := createProduct(t, env, token, 3)
	target := "/api/v1/products/" + p.ID + "/assets/reorder"

	status, body := env.do(t, jsonRequest(http.MethodPatch, target, token, map[string]interface{}{}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "assetOrderMap is required and must be an array", body.Error)

	// Duplicate positions are refused and nothing changes
	status, _ = env.do(t, jsonRequest(http.MethodPatch, target, token, map[string]interface{}{
		"assetOrderMap": []map[string]interface{}{
			{"assetId": p.Assets[0].ID, "newOrder": 1},
			{"assetId": p.Assets[1].ID, "newOrder": 1},
			{"assetId": p.Assets[2].ID, "newOrder": 3},
		},
	}))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, jsonRequest(http.MethodPatch, target, token, map[string]interface{}{
		"assetOrderMap": []map[string]interface{}{
			{"assetId": p.Assets[0].ID, "newOrder": 3},
			{"assetId": p.Assets[1].ID, "newOrder": 1},
			{"assetId": p.Assets[2].ID, "newOrder": 2},
		},
	}))
	require.Equal(t, http.StatusOK, status, body.Error)
	reordered := decodeProduct(t, body.Data)
	assert.Equal(t, p.Assets[1].ID, reordered.Assets[0].ID)
	assert.Equal(t, p.Assets[2].ID, reordered.Assets[1].ID)
	assert.Equal(t, p.Assets[0].ID, reordered.Assets[2].ID)
}

func TestReplaceAndDeleteAssets(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)
	p := createProduct(t, env, token, 2)

	status, body := env.do(t, multipartRequest(t, http.MethodPut, "/api/v1/products/"+p.ID+"/main-image", token, nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No image file provided", body.Error)

	status, body = env.do(t, multipartRequest(t, http.MethodPut, "/api/v1/products/"+p.ID+"/main-image", token, nil,
		image{"baru.png", "image/png"}))
	require.Equal(t, http.StatusOK, status, body.Error)
	replaced := decodeProduct(t, body.Data)
	require.Len(t, replaced.Assets, 2)
	assert.Equal(t, 1, replaced.Assets[0].Order)
	assert.NotEqual(t, p.Assets[0].URL, replaced.Assets[0].URL)
	assert.NotContains(t, env.storedFiles(t), p.Assets[0].URL, "replaced file removed after commit")

	status, body = env.do(t, jsonRequest(http.MethodDelete, "/api/v1/products/"+p.ID+"/assets/"+replaced.Assets[0].ID, token, nil))
	require.Equal(t, http.StatusOK, status, body.Error)

	status, body = env.do(t, jsonRequest(http.MethodGet, "/api/v1/products/"+p.ID, "", nil))
	require.Equal(t, http.StatusOK, status)
	remaining := decodeProduct(t, body.Data)
	require.Len(t, remaining.Assets, 1)
	assert.Equal(t, 1, remaining.Assets[0].Order)
	assert.Equal(t, []string{remaining.Assets[0].URL}, env.storedFiles(t))

	status, _ = env.do(t, jsonRequest(http.MethodDelete, "/api/v1/products/"+p.ID, token, nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, env.storedFiles(t))

	status, body = env.do(t, jsonRequest(http.MethodGet, "/api/v1/products/"+p.ID, "", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body.Error, "not found")
}

func TestFeaturedProducts(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)
	p := createProduct(t, env, token, 0)

	status, body := env.do(t, jsonRequest(http.MethodPut, "/api/v1/products/featured", token, map[string]interface{}{}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "productIds must be an array", body.Error)

	status, body = env.do(t, jsonRequest(http.MethodPut, "/api/v1/products/featured", token, map[string]interface{}{
		"productIds": []string{p.ID},
	}))
	require.Equal(t, http.StatusOK, status, body.Error)
	assert.Equal(t, "Featured products updated", body.Message)

	status, body = env.do(t, jsonRequest(http.MethodGet, "/api/v1/products/featured", "", nil))
	require.Equal(t, http.StatusOK, status)
	var featured []productBody
	require.NoError(t, json.Unmarshal(body.Data, &featured))
	require.Len(t, featured, 1)
	assert.Equal(t, p.ID, featured[0].ID)
}

func TestCategoryEndpoints(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	status, body := env.do(t, jsonRequest(http.MethodPost, "/api/v1/categories", token, map[string]string{"category": "Galon"}))
	require.Equal(t, http.StatusCreated, status, body.Error)

	status, _ = env.do(t, jsonRequest(http.MethodPost, "/api/v1/categories", token, map[string]string{"category": "GALON"}))
	assert.Equal(t, http.StatusConflict, status)

	status, body = env.do(t, jsonRequest(http.MethodPost, "/api/v1/categories", token, map[string]string{"category": "G"}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body.Error, "between 2 and 50 characters")

	p := createProduct(t, env, token, 0)
	status, body = env.do(t, jsonRequest(http.MethodDelete, "/api/v1/categories/"+p.Category.ID, token, nil))
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, body.Error, "1 product(s)")

	status, body = env.do(t, jsonRequest(http.MethodGet, "/api/v1/categories?withCount=true", "", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"productCount":1`)

	status, body = env.do(t, jsonRequest(http.MethodGet, "/api/v1/categories/search?q=alo", "", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), "Galon")
}

func TestPagesAndContactInfo(t *testing.T) {
	env := setupApp(t)
	token := env.login(t)

	status, _ := env.do(t, jsonRequest(http.MethodGet, "/api/v1/contact-info", "", nil))
	assert.Equal(t, http.StatusNotFound, status)

	status, body := env.do(t, jsonRequest(http.MethodPost, "/api/v1/pages", token, map[string]interface{}{
		"slug":  "kontak",
		"title": "Kontak",
		"sections": []map[string]interface{}{
			{"type": "ADDRESS", "order": 1, "data": map[string]string{"phone": "021-555"}},
		},
	}))
	require.Equal(t, http.StatusCreated, status, body.Error)

	status, _ = env.do(t, jsonRequest(http.MethodPut, "/api/v1/contact-info", token, map[string]interface{}{}))
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, jsonRequest(http.MethodPut, "/api/v1/contact-info", token, map[string]interface{}{
		"data": map[string]string{"phone": "0812"},
	}))
	require.Equal(t, http.StatusOK, status, body.Error)

	status, body = env.do(t, jsonRequest(http.MethodGet, "/api/v1/pages/kontak", "", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body.Data), `"phone":"0812"`)

	status, _ = env.do(t, jsonRequest(http.MethodGet, "/api/v1/pages/tidak-ada", "", nil))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestAnalyticsEndpoints(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, jsonRequest(http.MethodPost, "/api/v1/analytics", "", map[string]string{
		"type": "PAGE", "url": "/",
	}))
	require.Equal(t, http.StatusCreated, status, body.Error)
	assert.Contains(t, string(body.Data), `"location":"Unknown"`)

	status, _ = env.do(t, jsonRequest(http.MethodPost, "/api/v1/analytics", "", map[string]string{"type": "SCROLL", "url": "/"}))
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, jsonRequest(http.MethodGet, "/api/v1/analytics", "", nil))
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = env.do(t, jsonRequest(http.MethodGet, "/api/v1/analytics", env.login(t), nil))
	require.Equal(t, http.StatusOK, status)
	var report services.TrafficReport
	require.NoError(t, json.Unmarshal(body.Data, &report))
	assert.Equal(t, 1, report.PageViews)
	assert.Len(t, report.Timeline, 30)
}
