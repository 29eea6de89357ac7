package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Transaction ledger. Every mutation re-derives the owning goal's
// current amount; the transaction record is written first, then the
// goal, matching the original two-step ordering.

func (l *Ledger) loadTransactions(ctx context.Context) ([]Transaction, error) {
	var transactions []Transaction
	if err := l.store.Get(ctx, transactionsKey, &transactions); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return []Transaction{}, nil
		}
		return nil, err
	}
	if transactions == nil {
		transactions = []Transaction{}
	}
	return transactions, nil
}

func (l *Ledger) saveTransactions(ctx context.Context, transactions []Transaction) error {
	return l.store.Set(ctx, transactionsKey, transactions)
}

// Transactions returns every transaction across all goals
func (l *Ledger) Transactions(ctx context.Context) ([]Transaction, error) {
	return l.loadTransactions(ctx)
}

// TransactionsByGoal returns the transactions owned by one goal
func (l *Ledger) TransactionsByGoal(ctx context.Context, goalID string) ([]Transaction, error) {
	transactions, err := l.loadTransactions(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]Transaction, 0, len(transactions))
	for _, tx := range transactions {
		if tx.GoalID == goalID {
			owned = append(owned, tx)
		}
	}
	return owned, nil
}

// applyToGoal recomputes a goal after a ledger change. rawAmount is the
// new balance before flooring: completion is decided on the raw value,
// the stored amount is floored at 0. revertCompleted additionally allows
// dropping a completed goal back to active when the balance falls below
// target (delete is the only path that does this).
func (l *Ledger) applyToGoal(ctx context.Context, goal SavingsGoal, rawAmount float64, revertCompleted bool) error {
	goal.CurrentAmount = rawAmount
	if goal.CurrentAmount < 0 {
		goal.CurrentAmount = 0
	}
	if rawAmount >= goal.TargetAmount {
		goal.Status = GoalStatusCompleted
	} else if revertCompleted && goal.Status == GoalStatusCompleted {
		goal.Status = GoalStatusActive
	}

	_, err := l.updateGoalLocked(ctx, goal)
	return err
}

// CreateTransaction validates the transaction, persists it and applies
// its effect to the owning goal. A transaction against a missing goal is
// still persisted; the recompute is skipped.
func (l *Ledger) CreateTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	if err := validateTransaction(tx); err != nil {
		return Transaction{}, err
	}
	if tx.Date.IsZero() {
		tx.Date = l.now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	transactions, err := l.loadTransactions(ctx)
	if err != nil {
		return Transaction{}, err
	}

	tx.ID = newID()
	transactions = append(transactions, tx)
	if err := l.saveTransactions(ctx, transactions); err != nil {
		return Transaction{}, err
	}

	goal, err := l.GoalByID(ctx, tx.GoalID)
	if err != nil {
		if errors.Is(err, errNotFound) {
			log.Printf("Transaction %s references missing goal %s, skipping recompute", tx.ID, tx.GoalID)
			return tx, nil
		}
		return Transaction{}, err
	}

	updated := goal.CurrentAmount
	if tx.Type == TypeDeposit {
		updated += tx.Amount
	} else {
		updated -= tx.Amount
	}
	if err := l.applyToGoal(ctx, goal, updated, false); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// UpdateTransaction replaces the transaction matching its id. The goal
// recompute reverses the old record's effect and applies the new one; it
// is skipped when neither amount nor type changed.
func (l *Ledger) UpdateTransaction(ctx context.Context, tx Transaction) (Transaction, error) {
	if err := validateTransaction(tx); err != nil {
		return Transaction{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	transactions, err := l.loadTransactions(ctx)
	if err != nil {
		return Transaction{}, err
	}

	var old *Transaction
	for i := range transactions {
		if transactions[i].ID == tx.ID {
			old = &transactions[i]
			break
		}
	}
	if old == nil {
		return tx, errNotFound
	}
	oldTx := *old
	*old = tx
	if err := l.saveTransactions(ctx, transactions); err != nil {
		return Transaction{}, err
	}

	if oldTx.Amount == tx.Amount && oldTx.Type == tx.Type {
		return tx, nil
	}

	goal, err := l.GoalByID(ctx, tx.GoalID)
	if err != nil {
		if errors.Is(err, errNotFound) {
			log.Printf("Transaction %s references missing goal %s, skipping recompute", tx.ID, tx.GoalID)
			return tx, nil
		}
		return Transaction{}, err
	}

	updated := goal.CurrentAmount
	// Remove the old effect
	if oldTx.Type == TypeDeposit {
		updated -= oldTx.Amount
	} else {
		updated += oldTx.Amount
	}
	// Apply the new effect
	if tx.Type == TypeDeposit {
		updated += tx.Amount
	} else {
		updated -= tx.Amount
	}
	if err := l.applyToGoal(ctx, goal, updated, false); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// owning goal. Returns true iff a transaction was actually removed. This
// is the one path that can revert a completed goal to active.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	transactions, err := l.loadTransactions(ctx)
	if err != nil {
		return false, err
	}

	var deleted *Transaction
	filtered := make([]Transaction, 0, len(transactions))
	for i := range transactions {
		if transactions[i].ID == id {
			deleted = &transactions[i]
			continue
		}
		filtered = append(filtered, transactions[i])
	}
	if deleted == nil {
		return false, nil
	}

	if err := l.saveTransactions(ctx, filtered); err != nil {
		return false, err
	}

	goal, err := l.GoalByID(ctx, deleted.GoalID)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return true, nil
		}
		return false, err
	}

	updated := goal.CurrentAmount
	if deleted.Type == TypeDeposit {
		updated -= deleted.Amount
	} else {
		updated += deleted.Amount
	}
	if err := l.applyToGoal(ctx, goal, updated, true); err != nil {
		return false, err
	}
	return true, nil
}

// Transaction handler functions

// @Summary List transactions
// @Description Get all transactions, optionally filtered by goal
// @Tags transactions
// @Produce json
// @Param goalId query string false "Filter by goal ID"
// @Success 200 {array} Transaction
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/transactions [get]
func getTransactions(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		transactions []Transaction
		err          error
	)
	if goalID := c.Query("goalId"); goalID != "" {
		transactions, err = ledger.TransactionsByGoal(ctx, goalID)
	} else {
		transactions, err = ledger.Transactions(ctx)
	}
	if err != nil {
		log.Printf("Error fetching transactions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching transactions"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// @Summary List goal transactions
// @Description Get the transactions owned by one goal
// @Tags transactions
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {array} Transaction
// @Router /api/goals/{id}/transactions [get]
func getGoalTransactions(c *gin.Context) {
	transactions, err := ledger.TransactionsByGoal(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("Error fetching transactions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching transactions"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

// @Summary Create transaction
// @Description Record a deposit or withdrawal against a goal and update its balance
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body Transaction true "Transaction data"
// @Success 201 {object} Transaction
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /api/transactions [post]
func createTransaction(c *gin.Context) {
	var tx Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := ledger.CreateTransaction(c.Request.Context(), tx)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error creating transaction: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating transaction"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary Update transaction
// @Description Replace the transaction matching the id and rebalance its goal
// @Tags transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param transaction body Transaction true "Transaction data"
// @Success 200 {object} Transaction
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Transaction not found"
// @Router /api/transactions/{id} [put]
func updateTransaction(c *gin.Context) {
	var tx Transaction
	if err := c.ShouldBindJSON(&tx); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	tx.ID = c.Param("id")

	updated, err := ledger.UpdateTransaction(c.Request.Context(), tx)
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

// @Summary Delete transaction
// @Description Delete a transaction and reverse its effect on the goal balance
// @Tags transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} map[string]interface{} "Deletion confirmation"
// @Failure 404 {object} map[string]interface{} "Transaction not found"
// @Router /api/transactions/{id} [delete]
func deleteTransaction(c *gin.Context) {
	removed, err := ledger.DeleteTransaction(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("Error deleting transaction: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting transaction"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted successfully"})
}
