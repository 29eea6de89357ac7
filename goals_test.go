package main

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestGoalEndpoints(t *testing.T) {
	t.Run("CreateGoal", func(t *testing.T) {
		resetTestData()

		body := map[string]interface{}{
			"name":         "Buy Land Property",
			"type":         "land",
			"targetAmount": 50000,
			"startDate":    testNow.Format(time.RFC3339),
			"endDate":      testNow.AddDate(1, 0, 0).Format(time.RFC3339),
			"priority":     "high",
		}
		recorder := makeJSONRequest(t, "POST", "/api/goals", body)
		assertStatusCode(t, http.StatusCreated, recorder.Code)

		var goal SavingsGoal
		assertNoError(t, parseJSONResponse(recorder, &goal))
		if goal.ID == "" {
			t.Error("Expected created goal to have an id")
		}
		if goal.Status != GoalStatusActive {
			t.Errorf("Expected default status active, got %s", goal.Status)
		}
		if goal.CurrentAmount != 0 {
			t.Errorf("Expected currentAmount 0, got %f", goal.CurrentAmount)
		}
	})

	t.Run("CreateGoalRejectsNonPositiveTarget", func(t *testing.T) {
		resetTestData()

		body := map[string]interface{}{
			"name":         "Broken",
			"type":         "savings",
			"targetAmount": 0,
			"startDate":    testNow.Format(time.RFC3339),
			"endDate":      testNow.AddDate(1, 0, 0).Format(time.RFC3339),
		}
		recorder := makeJSONRequest(t, "POST", "/api/goals", body)
		assertStatusCode(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("CreateGoalRejectsEndBeforeStart", func(t *testing.T) {
		resetTestData()

		body := map[string]interface{}{
			"name":         "Backwards",
			"type":         "savings",
			"targetAmount": 100,
			"startDate":    testNow.Format(time.RFC3339),
			"endDate":      testNow.AddDate(0, 0, -1).Format(time.RFC3339),
		}
		recorder := makeJSONRequest(t, "POST", "/api/goals", body)
		assertStatusCode(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("GetGoals", func(t *testing.T) {
		resetTestData()
		createTestGoal(t, "First", 100)
		createTestGoal(t, "Second", 200)

		recorder := makeRequest("GET", "/api/goals", nil)
		assertStatusCode(t, http.StatusOK, recorder.Code)

		var goals []SavingsGoal
		assertNoError(t, parseJSONResponse(recorder, &goals))
		if len(goals) != 2 {
			t.Errorf("Expected 2 goals, got %d", len(goals))
		}
	})

	t.Run("GetGoalNotFound", func(t *testing.T) {
		resetTestData()

		recorder := makeRequest("GET", "/api/goals/nope", nil)
		assertStatusCode(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("UpdateGoal", func(t *testing.T) {
		resetTestData()
		goal := createTestGoal(t, "Rename Me", 100)

		goal.Name = "Renamed"
		goal.Priority = PriorityHigh
		recorder := makeJSONRequest(t, "PUT", "/api/goals/"+goal.ID, goal)
		assertStatusCode(t, http.StatusOK, recorder.Code)

		var updated SavingsGoal
		assertNoError(t, parseJSONResponse(recorder, &updated))
		if updated.Name != "Renamed" {
			t.Errorf("Expected name Renamed, got %s", updated.Name)
		}
	})

	t.Run("UpdateUnknownGoalPersistsNothing", func(t *testing.T) {
		resetTestData()
		createTestGoal(t, "Only Goal", 100)

		ghost := SavingsGoal{
			Name:         "Ghost",
			Type:         GoalTypeSavings,
			TargetAmount: 500,
			StartDate:    testNow,
			EndDate:      testNow.AddDate(1, 0, 0),
			Status:       GoalStatusActive,
			Priority:     PriorityLow,
		}
		recorder := makeJSONRequest(t, "PUT", "/api/goals/does-not-exist", ghost)
		assertStatusCode(t, http.StatusNotFound, recorder.Code)

		goals, err := ledger.Goals(context.Background())
		assertNoError(t, err)
		if len(goals) != 1 || goals[0].Name != "Only Goal" {
			t.Errorf("Expected stored goals unchanged, got %+v", goals)
		}
	})

	t.Run("DeleteGoalCascadesTransactions", func(t *testing.T) {
		resetTestData()
		goal := createTestGoal(t, "Doomed", 1000)
		other := createTestGoal(t, "Survivor", 1000)
		createTestTransaction(t, goal.ID, 50, TypeDeposit)
		createTestTransaction(t, goal.ID, 25, TypeDeposit)
		kept := createTestTransaction(t, other.ID, 10, TypeDeposit)

		recorder := makeRequest("DELETE", "/api/goals/"+goal.ID, nil)
		assertStatusCode(t, http.StatusOK, recorder.Code)

		transactions, err := ledger.Transactions(context.Background())
		assertNoError(t, err)
		if len(transactions) != 1 || transactions[0].ID != kept.ID {
			t.Errorf("Expected only the other goal's transaction to survive, got %+v", transactions)
		}
	})

	t.Run("DeleteGoalNotFound", func(t *testing.T) {
		resetTestData()

		recorder := makeRequest("DELETE", "/api/goals/nope", nil)
		assertStatusCode(t, http.StatusNotFound, recorder.Code)
	})
}
