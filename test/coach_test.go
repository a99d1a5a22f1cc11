package test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The coach chat itself talks to a real LLM provider and is exercised by the
// unit tests with a mocked client; here we only check the route protection.
func (s *IntegrationTestSuite) TestCoachChatUnauthorized() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	t := s.T()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		fmt.Sprintf("%s/coach/chat", serverEndpoint),
		strings.NewReader(`{"message": "how do i bench more"}`),
	)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "no can do\n", string(respBytes))

	// preflight requests pass without a token
	req, err = http.NewRequestWithContext(
		ctx, http.MethodOptions,
		fmt.Sprintf("%s/coach/chat", serverEndpoint),
		nil,
	)
	require.NoError(t, err)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
