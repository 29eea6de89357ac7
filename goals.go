package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Goal repository

func (l *Ledger) loadGoals(ctx context.Context) ([]SavingsGoal, error) {
	var goals []SavingsGoal
	if err := l.store.Get(ctx, goalsKey, &goals); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return []SavingsGoal{}, nil
		}
		return nil, err
	}
	if goals == nil {
		goals = []SavingsGoal{}
	}
	return goals, nil
}

func (l *Ledger) saveGoals(ctx context.Context, goals []SavingsGoal) error {
	return l.store.Set(ctx, goalsKey, goals)
}

// Goals returns every savings goal
func (l *Ledger) Goals(ctx context.Context) ([]SavingsGoal, error) {
	return l.loadGoals(ctx)
}

// GoalByID returns the goal with the given id, or errNotFound
func (l *Ledger) GoalByID(ctx context.Context, id string) (SavingsGoal, error) {
	goals, err := l.loadGoals(ctx)
	if err != nil {
		return SavingsGoal{}, err
	}
	for _, g := range goals {
		if g.ID == id {
			return g, nil
		}
	}
	return SavingsGoal{}, errNotFound
}

// CreateGoal validates the goal, assigns a fresh id and persists it
func (l *Ledger) CreateGoal(ctx context.Context, goal SavingsGoal) (SavingsGoal, error) {
	if goal.Status == "" {
		goal.Status = GoalStatusActive
	}
	if goal.Priority == "" {
		goal.Priority = PriorityMedium
	}
	if err := validateGoal(goal); err != nil {
		return SavingsGoal{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	goals, err := l.loadGoals(ctx)
	if err != nil {
		return SavingsGoal{}, err
	}

	goal.ID = newID()
	goals = append(goals, goal)
	if err := l.saveGoals(ctx, goals); err != nil {
		return SavingsGoal{}, err
	}
	return goal, nil
}

// UpdateGoal replaces the goal matching its id. An unknown id persists
// nothing and reports errNotFound.
func (l *Ledger) UpdateGoal(ctx context.Context, goal SavingsGoal) (SavingsGoal, error) {
	if err := validateGoal(goal); err != nil {
		return SavingsGoal{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.updateGoalLocked(ctx, goal)
}

// updateGoalLocked is UpdateGoal without the lock, for callers already
// inside a ledger mutation (the transaction recompute path).
func (l *Ledger) updateGoalLocked(ctx context.Context, goal SavingsGoal) (SavingsGoal, error) {
	goals, err := l.loadGoals(ctx)
	if err != nil {
		return SavingsGoal{}, err
	}

	for i, g := range goals {
		if g.ID == goal.ID {
			goals[i] = goal
			if err := l.saveGoals(ctx, goals); err != nil {
				return SavingsGoal{}, err
			}
			return goal, nil
		}
	}
	return goal, errNotFound
}

// DeleteGoal removes a goal and cascades to its transactions. Returns
// true iff a goal was actually removed.
func (l *Ledger) DeleteGoal(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	goals, err := l.loadGoals(ctx)
	if err != nil {
		return false, err
	}

	filtered := make([]SavingsGoal, 0, len(goals))
	for _, g := range goals {
		if g.ID != id {
			filtered = append(filtered, g)
		}
	}
	if len(filtered) == len(goals) {
		return false, nil
	}

	if err := l.saveGoals(ctx, filtered); err != nil {
		return false, err
	}

	// Cascade: the goal owns its transactions
	transactions, err := l.loadTransactions(ctx)
	if err != nil {
		return false, err
	}
	remaining := make([]Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.GoalID != id {
			remaining = append(remaining, tx)
		}
	}
	if err := l.saveTransactions(ctx, remaining); err != nil {
		return false, err
	}

	return true, nil
}

// Goal handler functions

// @Summary List goals
// @Description Get all savings goals
// @Tags goals
// @Produce json
// @Success 200 {array} SavingsGoal
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/goals [get]
func getGoals(c *gin.Context) {
	goals, err := ledger.Goals(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching goals: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching goals"})
		return
	}
	c.JSON(http.StatusOK, goals)
}

// @Summary Get goal
// @Description Get a single savings goal by id
// @Tags goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} SavingsGoal
// @Failure 404 {object} map[string]interface{} "Goal not found"
// @Router /api/goals/{id} [get]
func getGoal(c *gin.Context) {
	goal, err := ledger.GoalByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}
	c.JSON(http.StatusOK, goal)
}

// @Summary Create goal
// @Description Create a new savings goal
// @Tags goals
// @Accept json
// @Produce json
// @Param goal body SavingsGoal true "Goal data"
// @Success 201 {object} SavingsGoal
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /api/goals [post]
func createGoal(c *gin.Context) {
	var goal SavingsGoal
	if err := c.ShouldBindJSON(&goal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := ledger.CreateGoal(c.Request.Context(), goal)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error creating goal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating goal"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary Update goal
// @Description Replace the savings goal matching the id
// @Tags goals
// @Accept json
// @Produce json
// @Param id path string true "Goal ID"
// @Param goal body SavingsGoal true "Goal data"
// @Success 200 {object} SavingsGoal
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Goal not found"
// @Router /api/goals/{id} [put]
func updateGoal(c *gin.Context) {
	var goal SavingsGoal
	if err := c.ShouldBindJSON(&goal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	goal.ID = c.Param("id")

	updated, err := ledger.UpdateGoal(c.Request.Context(), goal)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// @Summary Delete goal
// @Description Delete a savings goal and all of its transactions
// @Tags goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} map[string]interface{} "Deletion confirmation"
// @Failure 404 {object} map[string]interface{} "Goal not found"
// @Router /api/goals/{id} [delete]
func deleteGoal(c *gin.Context) {
	removed, err := ledger.DeleteGoal(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("Error deleting goal: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting goal"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Goal not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Goal deleted successfully"})
}
