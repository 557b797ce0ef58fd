package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jswalia/karigar/internal/auth"
	"github.com/jswalia/karigar/internal/user"
)

func testUser() *user.User {
	return &user.User{
		ID:   uuid.New(),
		Name: "Admin",
		Permissions: user.Permissions{
			CanCreate: true,
			CanEdit:   true,
		},
	}
}

func TestManager_RoundTrip(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	u := testUser()

	token, err := m.Generate(u)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, u.ID.String(), claims.UserID())
	assert.Equal(t, "Admin", claims.Name)
	assert.True(t, claims.Permissions.CanCreate)
	assert.False(t, claims.Permissions.CanDelete)
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	token, err := auth.NewManager("secret-a", time.Hour).Generate(testUser())
	require.NoError(t, err)

	_, err = auth.NewManager("secret-b", time.Hour).Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestManager_RejectsExpired(t *testing.T) {
	m := auth.NewManager("test-secret", -time.Minute)

	token, err := m.Generate(testUser())
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestMiddleware(t *testing.T) {
	m := auth.NewManager("test-secret", time.Hour)
	u := testUser()

	token, err := m.Generate(u)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, u.ID.String(), claims.UserID())
		w.WriteHeader(http.StatusOK)
	})

	type testCase struct {
		name       string
		header     string
		wantStatus int
	}

	tests := []testCase{
		{name: "Valid", header: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "Missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "WrongScheme", header: "Basic " + token, wantStatus: http.StatusUnauthorized},
		{name: "Garbage", header: "Bearer not-a-token", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			m.Middleware(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
