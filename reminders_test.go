package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

// setReminderFrequency configures a test goal for reminder generation
func setReminderFrequency(t *testing.T, goal SavingsGoal, freq ReminderFrequency, lastSent *time.Time) SavingsGoal {
	t.Helper()

	goal.ReminderFrequency = freq
	goal.LastReminderSent = lastSent
	updated, err := ledger.UpdateGoal(context.Background(), goal)
	if err != nil {
		t.Fatalf("Failed to update test goal: %v", err)
	}
	return updated
}

func TestReminderEndpoints(t *testing.T) {
	t.Run("FirstReminderIsImmediate", func(t *testing.T) {
		resetTestData()
		goal := createTestGoal(t, "Vacation Fund", 1000)
		setReminderFrequency(t, goal, FrequencyDaily, nil)

		created, err := ledger.GenerateReminders(context.Background())
		assertNoError(t, err)
		if len(created) != 1 {
			t.Fatalf("Expected 1 reminder, got %d", len(created))
		}
		if !created[0].Date.Equal(testNow) {
			t.Errorf("Expected reminder dated now, got %v", created[0].Date)
		}
		want := fmt.Sprintf("Remember to add to your %q goal!", "Vacation Fund")
		if created[0].Message != want {
			t.Errorf("Expected message %q, got %q", want, created[0].Message)
		}

		updated, err := ledger.GoalByID(context.Background(), goal.ID)
		assertNoError(t, err)
		if updated.LastReminderSent == nil || !updated.LastReminderSent.Equal(testNow) {
			t.Errorf("Expected lastReminderSent stamped to now, got %v", updated.LastReminderSent)
		}
	})

	t.Run("CatchUpCreatesOneReminderPerCall", func(t *testing.T) {
		resetTestData()
		goal := createTestGoal(t, "Rainy Day", 1000)
		lastSent := testNow.AddDate(0, 0, -10)
		setReminderFrequency(t, goal, FrequencyDaily, &lastSent)

		created, err := ledger.GenerateReminders(context.Background())
		assertNoError(t, err)
		if len(created) != 1 {
			t.Fatalf("Expected 1 reminder despite 10 missed days, got %d", len(created))
		}

		// Dated at the period boundary, not at now
		wantDue := lastSent.Add(24 * time.Hour)
		if !created[0].Date.Equal(wantDue) {
			t.Errorf("Expected reminder dated %v, got %v", wantDue, created[0].Date)
		}

		updated, err := ledger.GoalByID(context.Background(), goal.ID)
		assertNoError(t, err)
		if updated.LastReminderSent == nil || !updated.LastReminderSent.Equal(wantDue) {
			t.Errorf("Expected lastReminderSent advanced to %v, got %v", wantDue, updated.LastReminderSent)
		}

		// Repeated calls drain the backlog one period at a time
		created, err = ledger.GenerateReminders(context.Background())
		assertNoError(t, err)
		if len(created) != 1 {
			t.Fatalf("Expected 1 reminder on second pass, got %d", len(created))
		}
		if !created[0].Date.Equal(wantDue.Add(24 * time.Hour)) {
			t.Errorf("Expected second reminder one period later, got %v", created[0].Date)
		}
	})

	t.Run("NoReminderBeforePeriodElapses", func(t *testing.T) {
		resetTestData()
		goal := createTestGoal(t, "Fresh", 1000)
		lastSent := testNow.Add(-time.Hour)
		setReminderFrequency(t, goal, FrequencyWeekly, &lastSent)

		created, err := ledger.GenerateReminders(context.Background())
		assertNoError(t, err)
		if len(created) != 0 {
			t.Errorf("Expected no reminders an hour after the last, got %d", len(created))
		}
	})

	t.Run("SkipsInactiveAndUnconfiguredGoals", func(t *testing.T) {
		resetTestData()
		createTestGoal(t, "No Frequency", 1000)
		cancelled := createTestGoal(t, "Cancelled", 1000)
		cancelled.Status = GoalStatusCancelled
		setReminderFrequency(t, cancelled, FrequencyDaily, nil)

		created, err := ledger.GenerateReminders(context.Background())
		assertNoError(t, err)
		if len(created) != 0 {
			t.Errorf("Expected no reminders, got %d", len(created))
		}
	})

	t.Run("PendingExcludesAcknowledged", func(t *testing.T) {
		resetTestData()
		due := createTestGoal(t, "Due Goal", 1000)
		setReminderFrequency(t, due, FrequencyDaily, nil)

		created, err := ledger.GenerateReminders(context.Background())
		assertNoError(t, err)
		if len(created) != 1 {
			t.Fatalf("Expected 1 reminder, got %d", len(created))
		}

		recorder := makeRequest("GET", "/api/reminders/pending", nil)
		assertStatusCode(t, http.StatusOK, recorder.Code)

		var pending []Reminder
		assertNoError(t, parseJSONResponse(recorder, &pending))
		if len(pending) != 1 {
			t.Fatalf("Expected 1 pending reminder, got %d", len(pending))
		}

		recorder = makeRequest("PUT", "/api/reminders/"+created[0].ID+"/acknowledge", nil)
		assertStatusCode(t, http.StatusOK, recorder.Code)

		recorder = makeRequest("GET", "/api/reminders/pending", nil)
		assertNoError(t, parseJSONResponse(recorder, &pending))
		if len(pending) != 0 {
			t.Errorf("Expected no pending reminders after acknowledge, got %d", len(pending))
		}

		// The reminder itself is still listed
		recorder = makeRequest("GET", "/api/reminders", nil)
		var all []Reminder
		assertNoError(t, parseJSONResponse(recorder, &all))
		if len(all) != 1 || !all[0].Acknowledged {
			t.Errorf("Expected 1 acknowledged reminder, got %+v", all)
		}
	})

	t.Run("AcknowledgeIsIdempotent", func(t *testing.T) {
		resetTestData()
		goal := createTestGoal(t, "Twice", 1000)
		setReminderFrequency(t, goal, FrequencyDaily, nil)

		created, err := ledger.GenerateReminders(context.Background())
		assertNoError(t, err)

		for i := 0; i < 2; i++ {
			recorder := makeRequest("PUT", "/api/reminders/"+created[0].ID+"/acknowledge", nil)
			assertStatusCode(t, http.StatusOK, recorder.Code)
		}
	})

	t.Run("AcknowledgeUnknownReminderReturns404", func(t *testing.T) {
		resetTestData()

		recorder := makeRequest("PUT", "/api/reminders/missing/acknowledge", nil)
		assertStatusCode(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("GenerateEndpoint", func(t *testing.T) {
		resetTestData()
		goal := createTestGoal(t, "Via HTTP", 1000)
		setReminderFrequency(t, goal, FrequencyMonthly, nil)

		recorder := makeRequest("POST", "/api/reminders/generate", nil)
		assertStatusCode(t, http.StatusOK, recorder.Code)

		var response map[string]interface{}
		assertNoError(t, parseJSONResponse(recorder, &response))
		reminders, ok := response["reminders"].([]interface{})
		if !ok || len(reminders) != 1 {
			t.Errorf("Expected 1 generated reminder in response, got %v", response["reminders"])
		}
	})
}
