package books

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LIBRA-backend/internal/platform/auth"
)

var testSecret = []byte("test-secret")

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api")
	RegisterRoutes(api, svc, auth.RequireAuth(testSecret))
	return r
}

func testToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)
	return signed
}

func TestListEndpoint(t *testing.T) {
	conn := newTestDB(t)
	r := newTestRouter(t, NewService(conn, "en"))

	mustInsertBook(t, conn, "Beta", "Bob", "Romance", StatusBorrowed)
	mustInsertBook(t, conn, "Alpha", "Alice", "Romance", StatusAvailable)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var out []BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, "Alpha", out[0].Title)
	assert.Equal(t, "Beta", out[1].Title)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books?status=Borrowed", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "Beta", out[0].Title)
}

func TestCreateEndpointRequiresAuth(t *testing.T) {
	conn := newTestDB(t)
	r := newTestRouter(t, NewService(conn, ""))

	body, _ := json.Marshal(CreateBookRequest{Title: "New Book"})

	req := httptest.NewRequest(http.MethodPost, "/api/books", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/books", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+testToken(t))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created BookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "New Book", created.Title)
	assert.Equal(t, StatusAvailable, created.Status)
}

func TestGetEndpoint(t *testing.T) {
	conn := newTestDB(t)
	r := newTestRouter(t, NewService(conn, ""))

	id := mustInsertBook(t, conn, "Alpha", "Alice", "Romance", StatusAvailable)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/"+strconv.FormatInt(id, 10), nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books/999", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
