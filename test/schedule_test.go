package test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gympal-app/backend/internal/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *IntegrationTestSuite) getCalendar(
	ctx context.Context,
	token, startDate, endDate string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet,
		fmt.Sprintf("%s/schedule?start_date=%s&end_date=%s", serverEndpoint, startDate, endDate),
		nil,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-GYMPAL-TOKEN", token)
	return http.DefaultClient.Do(req)
}

func (s *IntegrationTestSuite) TestSchedule() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	token := s.doLogin(ctx, s.T())

	var legDay schedule.PlannedWorkout
	s.Run("plan a workout", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/schedule", serverEndpoint),
			strings.NewReader(`{"date": "2026-09-01", "name": "Leg Day"}`),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		require.NoError(t, json.NewDecoder(resp.Body).Decode(&legDay))
		assert.NotEmpty(t, legDay.ID)
		assert.Equal(t, "2026-09-01", legDay.Date)
		assert.Equal(t, schedule.StatusPlanned, legDay.Status)
	})

	s.Run("same workout on the same date", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/schedule", serverEndpoint),
			strings.NewReader(`{"date": "2026-09-01", "name": "Leg Day"}`),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Contains(t, string(respBytes), "workout already scheduled for that date")
	})

	var morningRun schedule.PlannedWorkout
	s.Run("plan a recurring workout", func() {
		t := s.T()

		// 2026-09-07 is a monday, recur on mondays and wednesdays
		reqBody := `{
			"date": "2026-09-07",
			"name": "Morning Run",
			"is_recurring": true,
			"recurrence_type": "weekly",
			"recurrence_days": [0, 2]
		}`
		req, err := http.NewRequestWithContext(
			ctx, http.MethodPost,
			fmt.Sprintf("%s/schedule", serverEndpoint),
			strings.NewReader(reqBody),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		require.NoError(t, json.NewDecoder(resp.Body).Decode(&morningRun))
		assert.NotEmpty(t, morningRun.ID)
		assert.True(t, morningRun.IsRecurring)
	})

	s.Run("calendar expands recurring workouts", func() {
		t := s.T()

		resp, err := s.getCalendar(ctx, token, "2026-09-01", "2026-09-20")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var listResp schedule.ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listResp))

		var legDays, runs []schedule.CalendarEntry
		for _, entry := range listResp.Entries {
			switch entry.Name {
			case "Leg Day":
				legDays = append(legDays, entry)
			case "Morning Run":
				runs = append(runs, entry)
			}
		}

		require.Len(t, legDays, 1)
		assert.Equal(t, legDay.ID, legDays[0].ID)
		assert.Equal(t, legDay.ID, legDays[0].DeletableID)
		assert.False(t, legDays[0].IsRecurringInstance)

		// two mondays and two wednesdays fall in the range
		require.Len(t, runs, 4)
		runDates := make([]string, 0, len(runs))
		for _, run := range runs {
			runDates = append(runDates, run.Date)
			assert.True(t, run.IsRecurringInstance)
			assert.Equal(t, morningRun.ID, run.DeletableID)
		}
		assert.Equal(t, []string{"2026-09-07", "2026-09-09", "2026-09-14", "2026-09-16"}, runDates)
	})

	s.Run("calendar requires a date range", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodGet,
			fmt.Sprintf("%s/schedule", serverEndpoint),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		respBytes, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, string(respBytes), "error, start_date and end_date required")
	})

	s.Run("mark planned workout completed", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPut,
			fmt.Sprintf("%s/schedule/%s", serverEndpoint, legDay.ID),
			strings.NewReader(`{"status": "completed"}`),
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var updateResp schedule.UpdateWorkoutResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&updateResp))
		assert.Equal(t, legDay.ID, updateResp.UpdatedID)

		resp, err = s.getCalendar(ctx, token, "2026-09-01", "2026-09-01")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var listResp schedule.ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listResp))
		require.Equal(t, 1, listResp.Total)
		assert.Equal(t, schedule.StatusCompleted, listResp.Entries[0].Status)
	})

	s.Run("invalid status rejected", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodPut,
			fmt.Sprintf("%s/schedule/%s", serverEndpoint, legDay.ID),
			strings.NewReader(`{"status": "resting"}`),
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
		assert.Contains(t, string(respBytes), "error, invalid status")
	})

	s.Run("delete recurring workout", func() {
		t := s.T()

		req, err := http.NewRequestWithContext(
			ctx, http.MethodDelete,
			fmt.Sprintf("%s/schedule/%s", serverEndpoint, morningRun.ID),
			nil,
		)
		require.NoError(t, err)
		req.Header.Set("X-GYMPAL-TOKEN", token)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var deleteResp schedule.DeleteWorkoutResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&deleteResp))
		assert.Equal(t, morningRun.ID, deleteResp.DeletedID)

		// all its instances disappear from the calendar
		resp, err = s.getCalendar(ctx, token, "2026-09-01", "2026-09-20")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var listResp schedule.ListResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&listResp))
		for _, entry := range listResp.Entries {
			assert.NotEqual(t, "Morning Run", entry.Name)
		}
	})
}
