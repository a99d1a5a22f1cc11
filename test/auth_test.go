package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type loginResponse struct {
	Token string `json:"token"`
}

// doLogin logs the suite test user in and returns the session token,
// to be sent via the X-GYMPAL-TOKEN header on subsequent requests
func (s *IntegrationTestSuite) doLogin(ctx context.Context, t *testing.T) string {
	t.Helper()

	loginReqBody := fmt.Sprintf(`{"email": %q, "password": %q}`, testEmail, testPassword)
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		fmt.Sprintf("%s/a/login", serverEndpoint),
		strings.NewReader(loginReqBody),
	)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var loginResp loginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	require.NotEmpty(t, loginResp.Token)

	return loginResp.Token
}
