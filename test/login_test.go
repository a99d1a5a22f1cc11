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

func (s *IntegrationTestSuite) postJSON(ctx context.Context, path, body string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		serverEndpoint+path,
		strings.NewReader(body),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return http.DefaultClient.Do(req)
}

func (s *IntegrationTestSuite) TestLogin() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	s.Run("wrong password", func() {
		reqBody := fmt.Sprintf(`{"email": %q, "password": "invalid-pass"}`, testEmail)
		resp, err := s.postJSON(ctx, "/a/login", reqBody)
		require.NoError(s.T(), err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
		assert.Contains(s.T(), string(respBytes), "error, wrong credentials")
	})

	s.Run("unknown email", func() {
		resp, err := s.postJSON(ctx, "/a/login", `{"email": "whodis@gympal.app", "password": "testpass"}`)
		require.NoError(s.T(), err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
		assert.Contains(s.T(), string(respBytes), "error, wrong credentials")
	})

	s.Run("register invalid email", func() {
		resp, err := s.postJSON(ctx, "/a/register", `{"email": "not-an-email", "password": "testpass"}`)
		require.NoError(s.T(), err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), http.StatusBadRequest, resp.StatusCode)
		assert.Contains(s.T(), string(respBytes), "error, invalid email")
	})

	s.Run("register existing user", func() {
		reqBody := fmt.Sprintf(`{"email": %q, "password": "whatever"}`, testEmail)
		resp, err := s.postJSON(ctx, "/a/register", reqBody)
		require.NoError(s.T(), err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), http.StatusConflict, resp.StatusCode)
		assert.Contains(s.T(), string(respBytes), "error, user exists")
	})

	s.Run("login and logout", func() {
		token := s.doLogin(ctx, s.T())

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/a/logout", serverEndpoint),
			nil,
		)
		require.NoError(s.T(), err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(s.T(), err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(s.T(), err)
		require.Equal(s.T(), http.StatusOK, resp.StatusCode)
		assert.Equal(s.T(), "logged-out", string(respBytes))

		// the session is gone, the token must not work anymore
		req, err = http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/workouts", serverEndpoint),
			nil,
		)
		require.NoError(s.T(), err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err = http.DefaultClient.Do(req)
		require.NoError(s.T(), err)
		defer resp.Body.Close()

		respBytes, err = io.ReadAll(resp.Body)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(s.T(), "no can do\n", string(respBytes))
	})

	s.Run("login requests rate limited", func() {
		t := s.T()

		// start from a clean budget, previous subtests made auth requests too
		require.NoError(t, s.redisDataCleanup(ctx))

		for i := 1; i <= 15; i++ {
			resp, err := s.postJSON(ctx, "/a/login", `{"email": "whodis@gympal.app", "password": "testpass"}`)
			require.NoError(t, err)

			respBytes, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())

			if i <= 10 {
				require.Equalf(t, http.StatusBadRequest, resp.StatusCode, "request %d", i)
				assert.Contains(t, string(respBytes), "error, wrong credentials")
			} else {
				require.Equalf(t, http.StatusTooEarly, resp.StatusCode, "request %d", i)
				assert.Contains(t, string(respBytes), "retry after")
			}
		}

		// do not starve the tests that come after
		require.NoError(t, s.redisDataCleanup(ctx))
	})
}
