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
	"github.com/gympal-app/backend/internal/workouts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) TestWorkouts() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	token := s.doLogin(ctx, s.T())
	benchPress := s.seedAndFindExercise(ctx, s.T(), token, "Barbell Bench Press")

	var workout workouts.Workout
	s.Run("start workout", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/workouts", serverEndpoint),
			strings.NewReader(`{"notes": "monday session"}`),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		require.NoError(t, json.NewDecoder(resp.Body).Decode(&workout))
		assert.NotEmpty(t, workout.ID)
		assert.Equal(t, "Workout", workout.Name)
		assert.Equal(t, "monday session", workout.Notes)
		assert.Nil(t, workout.EndedAt)
		assert.Empty(t, workout.Exercises)
	})

	s.Run("record sets and finish", func() {
		t := s.T()

		reqBody := fmt.Sprintf(`{
			"exercises": [
				{
					"exercise_id": %q,
					"order": 0,
					"sets": [
						{"set_type": "warmup", "reps": 10, "weight": 60},
						{"reps": 5, "weight": 100}
					]
				}
			],
			"ended_at": %q
		}`, benchPress.ID, time.Now().UTC().Format(time.RFC3339))
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPut,
			fmt.Sprintf("%s/workouts/%s", serverEndpoint, workout.ID),
			strings.NewReader(reqBody),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var finishedWorkout workouts.Workout
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&finishedWorkout))
		assert.Equal(t, workout.ID, finishedWorkout.ID)
		require.NotNil(t, finishedWorkout.EndedAt)

		// the set without a type gets normalized to a normal set
		require.Len(t, finishedWorkout.Exercises, 1)
		require.Len(t, finishedWorkout.Exercises[0].Sets, 2)
		assert.Equal(t, kinds.SetTypeWarmup, finishedWorkout.Exercises[0].Sets[0].SetType)
		assert.Equal(t, kinds.SetTypeNormal, finishedWorkout.Exercises[0].Sets[1].SetType)
	})

	s.Run("personal record tracked", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/prs?exercise_id=%s", serverEndpoint, benchPress.ID),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var prsResp workouts.ListPRsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&prsResp))
		require.True(t, prsResp.Total >= 1)

		var benchPR *workouts.PR
		for i := range prsResp.PRs {
			if prsResp.PRs[i].Weight == 100 && prsResp.PRs[i].Reps == 5 {
				benchPR = &prsResp.PRs[i]
				break
			}
		}

		// warmup sets are skipped, the top set makes the record:
		// 100 * 36 / (37 - 5) = 112.5
		require.NotNil(t, benchPR)
		assert.Equal(t, benchPress.ID, benchPR.ExerciseID)
		assert.InDelta(t, 112.5, benchPR.Estimated1RM, 0.001)
	})

	s.Run("list workouts", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/workouts", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var listResp workouts.ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listResp))
		require.True(t, listResp.Total >= 1)

		found := false
		for _, listedWorkout := range listResp.Workouts {
			if listedWorkout.ID == workout.ID {
				found = true
				break
			}
		}
		assert.True(t, found)
	})

	s.Run("get workout", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/workouts/%s", serverEndpoint, workout.ID),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var gottenWorkout workouts.Workout
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&gottenWorkout))
		assert.Equal(t, workout.ID, gottenWorkout.ID)
	})

	s.Run("update with nothing to update", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPut,
			fmt.Sprintf("%s/workouts/%s", serverEndpoint, workout.ID),
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

	s.Run("start workout from template", func() {
		t := s.T()

		templateReqBody := fmt.Sprintf(`{
			"name": "Bench Session",
			"exercises": [{"exercise_id": %q, "sets": 3, "reps": 5, "weight": 90}]
		}`, benchPress.ID)
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/templates", serverEndpoint),
			strings.NewReader(templateReqBody),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var templateResp struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&templateResp))
		require.NoError(t, resp.Body.Close())

		req, err = http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/workouts", serverEndpoint),
			strings.NewReader(fmt.Sprintf(`{"template_id": %q}`, templateResp.ID)),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		// the session takes the template name
		var templateWorkout workouts.Workout
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&templateWorkout))
		assert.Equal(t, "Bench Session", templateWorkout.Name)
		require.NotNil(t, templateWorkout.TemplateID)
		assert.Equal(t, templateResp.ID, *templateWorkout.TemplateID)
	})

	s.Run("no token", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/workouts", serverEndpoint),
			nil,
		)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "no can do\n", string(respBytes))
	})
}
