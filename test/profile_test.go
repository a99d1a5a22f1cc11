package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gympal-app/backend/internal/profile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestProfile() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	token := s.doLogin(ctx, s.T())

	s.Run("no profile yet", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/profile", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, string(respBytes), "profile not found")
	})

	s.Run("empty update rejected", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPut,
			fmt.Sprintf("%s/profile", serverEndpoint),
			strings.NewReader(`{}`),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(respBytes), "error, nothing to update")
	})

	s.Run("fill in profile", func() {
		t := s.T()

		reqBody := `{
			"sex": "male",
			"height_cm": 181,
			"weight_kg": 82.5,
			"goals": "bigger bench, healthier shoulders"
		}`
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPut,
			fmt.Sprintf("%s/profile", serverEndpoint),
			strings.NewReader(reqBody),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var savedProfile profile.UserProfile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&savedProfile))
		assert.NotEmpty(t, savedProfile.ID)
		assert.Equal(t, "male", savedProfile.Sex)
		require.NotNil(t, savedProfile.WeightKg)
		assert.InDelta(t, 82.5, *savedProfile.WeightKg, 0.001)
		assert.Equal(t, "bigger bench, healthier shoulders", savedProfile.Goals)
	})

	s.Run("partial update keeps the rest", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPut,
			fmt.Sprintf("%s/profile", serverEndpoint),
			strings.NewReader(`{"weight_kg": 84}`),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updatedProfile profile.UserProfile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&updatedProfile))
		require.NotNil(t, updatedProfile.WeightKg)
		assert.InDelta(t, 84, *updatedProfile.WeightKg, 0.001)
		assert.Equal(t, "male", updatedProfile.Sex)
		assert.Equal(t, "bigger bench, healthier shoulders", updatedProfile.Goals)
	})

	s.Run("get profile", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/profile", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var gottenProfile profile.UserProfile
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&gottenProfile))
		require.NotNil(t, gottenProfile.HeightCm)
		assert.InDelta(t, 181, *gottenProfile.HeightCm, 0.001)
	})

	s.Run("no insights yet", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/profile/insights", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, string(respBytes), "insights not found")
	})
}
