package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gympal-app/backend/internal/exercises"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedAndFindExercise makes sure the built-in catalogue is present
// (seeding is a no-op when it already is) and returns the catalogue
// exercise with the given name
func (s *IntegrationTestSuite) seedAndFindExercise(
	ctx context.Context, t *testing.T,
	token, name string,
) exercises.Exercise {
	t.Helper()

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		fmt.Sprintf("%s/exercises/seed", serverEndpoint),
		nil,
	)
	require.NoError(t, err)
	req.Header.Set("X-GYMPAL-TOKEN", token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err = http.NewRequestWithContext(
		ctx, http.MethodGet,
		fmt.Sprintf("%s/exercises?query=%s", serverEndpoint, url.QueryEscape(name)),
		nil,
	)
	require.NoError(t, err)
	req.Header.Set("X-GYMPAL-TOKEN", token)

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listResp exercises.ListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listResp))

	for _, exercise := range listResp.Exercises {
		if exercise.Name == name {
			return exercise
		}
	}

	t.Fatalf("exercise %q not found in the catalogue", name)
	return exercises.Exercise{}
}

func (s *IntegrationTestSuite) TestExercises() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	token := s.doLogin(ctx, s.T())

	s.Run("seed catalogue twice", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/exercises/seed", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)

		// either this test run seeded the catalogue, or a previous one did
		firstSeedResp := string(respBytes)
		if !strings.Contains(firstSeedResp, "Seeded") {
			assert.Contains(t, firstSeedResp, "already has")
		}

		// second seed is always a no-op
		req, err = http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/exercises/seed", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err = http.DefaultClient.Do(req)
		require.NoError(t, err)
		respBytes, err = io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(respBytes), "already has")
	})

	var benchPress exercises.Exercise
	s.Run("catalogue has bench press", func() {
		benchPress = s.seedAndFindExercise(ctx, s.T(), token, "Barbell Bench Press")
		assert.Equal(s.T(), "Barbell", benchPress.Kind)
		assert.False(s.T(), benchPress.IsCustom)
		assert.NotEmpty(s.T(), benchPress.PrimaryBodyParts)
	})

	s.Run("get single exercise", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/exercises/%s", serverEndpoint, benchPress.ID),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var exercise exercises.Exercise
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&exercise))
		assert.Equal(t, benchPress.ID, exercise.ID)
		assert.Equal(t, "Barbell Bench Press", exercise.Name)
	})

	s.Run("get unknown exercise", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/exercises/no-such-exercise", serverEndpoint),
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
		assert.Contains(t, string(respBytes), "exercise not found")
	})

	s.Run("add custom exercise", func() {
		t := s.T()

		reqBody := `{
			"name": "Landmine Press",
			"exercise_kind": "Barbell",
			"primary_body_parts": ["Shoulders"],
			"secondary_body_parts": ["Triceps"]
		}`
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/exercises", serverEndpoint),
			strings.NewReader(reqBody),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var addedExercise exercises.Exercise
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&addedExercise))
		assert.NotEmpty(t, addedExercise.ID)
		assert.Equal(t, "Landmine Press", addedExercise.Name)
		assert.Equal(t, "Barbell", addedExercise.Kind)
		assert.Equal(t, "Strength", addedExercise.Category)
		assert.True(t, addedExercise.IsCustom)
		require.NotNil(t, addedExercise.UserID)
	})

	s.Run("add custom exercise with unknown kind", func() {
		t := s.T()

		reqBody := `{
			"name": "Mystery Movement",
			"exercise_kind": "Cybernetic",
			"primary_body_parts": ["Full Body"]
		}`
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/exercises", serverEndpoint),
			strings.NewReader(reqBody),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		// unknown kinds fall back to the default
		var addedExercise exercises.Exercise
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&addedExercise))
		assert.Equal(t, "Machine/Other", addedExercise.Kind)
	})

	s.Run("add custom exercise without name", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/exercises", serverEndpoint),
			strings.NewReader(`{"primary_body_parts": ["Chest"]}`),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
