package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gympal-app/backend/internal/kinds"
	"github.com/gympal-app/backend/internal/templates"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestTemplates() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	token := s.doLogin(ctx, s.T())
	benchPress := s.seedAndFindExercise(ctx, s.T(), token, "Barbell Bench Press")

	var pushDay templates.Template
	s.Run("create template", func() {
		t := s.T()

		reqBody := fmt.Sprintf(`{
			"name": "Push Day",
			"notes": "chest focused",
			"exercises": [
				{"exercise_id": %q, "sets": 3, "reps": 8, "weight": 80}
			]
		}`, benchPress.ID)
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/templates", serverEndpoint),
			strings.NewReader(reqBody),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		require.NoError(t, json.NewDecoder(resp.Body).Decode(&pushDay))
		assert.NotEmpty(t, pushDay.ID)
		assert.Equal(t, "Push Day", pushDay.Name)
		assert.Equal(t, "chest focused", pushDay.Notes)

		// the compact spec gets expanded into three normalized sets
		require.Len(t, pushDay.Exercises, 1)
		assert.Equal(t, benchPress.ID, pushDay.Exercises[0].ExerciseID)
		require.Len(t, pushDay.Exercises[0].Sets, 3)
		for _, set := range pushDay.Exercises[0].Sets {
			assert.Equal(t, kinds.SetTypeNormal, set.SetType)
			require.NotNil(t, set.Reps)
			assert.Equal(t, 8, *set.Reps)
			require.NotNil(t, set.Weight)
			assert.InDelta(t, 80, *set.Weight, 0.001)
		}
	})

	s.Run("list templates", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/templates", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var listResp templates.ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listResp))
		require.True(t, listResp.Total >= 1)

		found := false
		for _, template := range listResp.Templates {
			if template.ID == pushDay.ID {
				found = true
				break
			}
		}
		assert.True(t, found)
	})

	s.Run("update template", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPut,
			fmt.Sprintf("%s/templates/%s", serverEndpoint, pushDay.ID),
			strings.NewReader(`{"name": "Push Day B"}`),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updateResp templates.UpdateTemplateResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&updateResp))
		assert.Equal(t, pushDay.ID, updateResp.UpdatedID)

		req, err = http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/templates/%s", serverEndpoint, pushDay.ID),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updatedTemplate templates.Template
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&updatedTemplate))
		assert.Equal(t, "Push Day B", updatedTemplate.Name)
		assert.Equal(t, "chest focused", updatedTemplate.Notes)
	})

	s.Run("update with nothing to update", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPut,
			fmt.Sprintf("%s/templates/%s", serverEndpoint, pushDay.ID),
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

	s.Run("delete template", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodDelete,
			fmt.Sprintf("%s/templates/%s", serverEndpoint, pushDay.ID),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var deleteResp templates.DeleteTemplateResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&deleteResp))
		assert.Equal(t, pushDay.ID, deleteResp.DeletedID)

		// and it is gone
		req, err = http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/templates/%s", serverEndpoint, pushDay.ID),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Contains(t, string(respBytes), "template not found")
	})
}
