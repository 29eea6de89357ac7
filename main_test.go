package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	testRouter *gin.Engine
	testNow    = time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
)

// TestMain sets up the test environment
func TestMain(m *testing.M) {
	// Set gin to test mode
	gin.SetMode(gin.TestMode)

	testRouter = gin.New()
	registerRoutes(testRouter)

	os.Exit(m.Run())
}

// resetTestData swaps in a fresh in-memory ledger with a fixed clock
func resetTestData() {
	ledger = newLedger(newMemoryStore())
	ledger.now = func() time.Time { return testNow }
	chainClient = nil
	redisClient = nil
}

// createTestGoal creates a goal through the ledger and returns it
func createTestGoal(t *testing.T, name string, targetAmount float64) SavingsGoal {
	t.Helper()

	goal, err := ledger.CreateGoal(context.Background(), SavingsGoal{
		Name:         name,
		Type:         GoalTypeSavings,
		TargetAmount: targetAmount,
		StartDate:    testNow.AddDate(0, 0, -10),
		EndDate:      testNow.AddDate(0, 0, 20),
		Description:  "test goal",
		Status:       GoalStatusActive,
		Priority:     PriorityMedium,
	})
	if err != nil {
		t.Fatalf("Failed to create test goal: %v", err)
	}
	return goal
}

// createTestTransaction records a transaction against a goal
func createTestTransaction(t *testing.T, goalID string, amount float64, txType TransactionType) Transaction {
	t.Helper()

	tx, err := ledger.CreateTransaction(context.Background(), Transaction{
		GoalID:      goalID,
		Amount:      amount,
		Date:        testNow,
		Type:        txType,
		Description: "test transaction",
	})
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}
	return tx
}

// createTestChallenge creates a challenge through the ledger
func createTestChallenge(t *testing.T, name string, endDate time.Time) Challenge {
	t.Helper()

	ch, err := ledger.CreateChallenge(context.Background(), Challenge{
		Name:        name,
		Description: "test challenge",
		Reward:      "test reward",
		StartDate:   testNow.AddDate(0, 0, -5),
		EndDate:     endDate,
		Status:      ChallengeActive,
	})
	if err != nil {
		t.Fatalf("Failed to create test challenge: %v", err)
	}
	return ch
}

// makeRequest helper function for making HTTP requests
func makeRequest(method, url string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	testRouter.ServeHTTP(recorder, req)

	return recorder
}

// makeJSONRequest marshals a body and sends it
func makeJSONRequest(t *testing.T, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	return makeRequest(method, url, bytes.NewBuffer(raw))
}

// parseJSONResponse helper function to parse JSON response
func parseJSONResponse(recorder *httptest.ResponseRecorder, target interface{}) error {
	return json.Unmarshal(recorder.Body.Bytes(), target)
}

// assertStatusCode helper function to assert HTTP status code
func assertStatusCode(t *testing.T, expected, actual int) {
	t.Helper()
	if expected != actual {
		t.Errorf("Expected status code %d, got %d", expected, actual)
	}
}

// assertNoError helper function to assert no error occurred
func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("ChainDisabled", func(t *testing.T) {
		resetTestData()

		recorder := makeRequest("GET", "/api/health", nil)
		assertStatusCode(t, http.StatusOK, recorder.Code)

		var health map[string]interface{}
		assertNoError(t, parseJSONResponse(recorder, &health))
		if health["status"] != "healthy" {
			t.Errorf("Expected healthy status, got %v", health["status"])
		}
		if health["chain"] != "disabled" {
			t.Errorf("Expected chain disabled, got %v", health["chain"])
		}
	})

	t.Run("ChainConnected", func(t *testing.T) {
		resetTestData()
		chainClient = &fakeChainClient{block: 1}

		recorder := makeRequest("GET", "/api/health", nil)
		assertStatusCode(t, http.StatusOK, recorder.Code)

		var health map[string]interface{}
		assertNoError(t, parseJSONResponse(recorder, &health))
		if health["chain"] != "connected" {
			t.Errorf("Expected chain connected, got %v", health["chain"])
		}
	})
}
