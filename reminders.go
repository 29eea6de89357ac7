package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Reminder engine. Generation runs on demand (a timer in main, or the
// generate endpoint), not as a daemon.

const reminderMessage = `Remember to add to your %q goal!`

// reminderPeriod is the gap between reminders for each frequency
func reminderPeriod(freq ReminderFrequency) time.Duration {
	switch freq {
	case FrequencyDaily:
		return 24 * time.Hour
	case FrequencyWeekly:
		return 7 * 24 * time.Hour
	case FrequencyMonthly:
		return 30 * 24 * time.Hour
	}
	return 0
}

func (l *Ledger) loadReminders(ctx context.Context) ([]Reminder, error) {
	var reminders []Reminder
	if err := l.store.Get(ctx, remindersKey, &reminders); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return []Reminder{}, nil
		}
		return nil, err
	}
	if reminders == nil {
		reminders = []Reminder{}
	}
	return reminders, nil
}

func (l *Ledger) saveReminders(ctx context.Context, reminders []Reminder) error {
	return l.store.Set(ctx, remindersKey, reminders)
}

// Reminders returns every reminder, acknowledged or not
func (l *Ledger) Reminders(ctx context.Context) ([]Reminder, error) {
	return l.loadReminders(ctx)
}

// PendingReminders returns unacknowledged reminders that are due
func (l *Ledger) PendingReminders(ctx context.Context) ([]Reminder, error) {
	reminders, err := l.loadReminders(ctx)
	if err != nil {
		return nil, err
	}

	now := l.now()
	pending := make([]Reminder, 0, len(reminders))
	for _, r := range reminders {
		if !r.Acknowledged && !r.Date.After(now) {
			pending = append(pending, r)
		}
	}
	return pending, nil
}

// AcknowledgeReminder flips a reminder to acknowledged. Idempotent:
// acknowledging an already-acknowledged reminder succeeds.
func (l *Ledger) AcknowledgeReminder(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	reminders, err := l.loadReminders(ctx)
	if err != nil {
		return err
	}

	for i := range reminders {
		if reminders[i].ID == id {
			reminders[i].Acknowledged = true
			return l.saveReminders(ctx, reminders)
		}
	}
	return errNotFound
}

// GenerateReminders creates due reminders for active goals with a
// reminder frequency and returns the ones it created.
//
// A goal that has never been reminded gets an immediate reminder dated
// now. Otherwise one reminder is created when a full period has elapsed
// since lastReminderSent, dated at that period boundary. At most one
// reminder per goal per call: missed periods are not backfilled.
func (l *Ledger) GenerateReminders(ctx context.Context) ([]Reminder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	goals, err := l.loadGoals(ctx)
	if err != nil {
		return nil, err
	}
	reminders, err := l.loadReminders(ctx)
	if err != nil {
		return nil, err
	}

	now := l.now()
	created := []Reminder{}
	goalsChanged := false

	for i := range goals {
		goal := &goals[i]
		if goal.Status != GoalStatusActive || goal.ReminderFrequency == "" {
			continue
		}

		var due time.Time
		if goal.LastReminderSent == nil {
			due = now
		} else {
			next := goal.LastReminderSent.Add(reminderPeriod(goal.ReminderFrequency))
			if next.After(now) {
				continue
			}
			due = next
		}

		reminder := Reminder{
			ID:      newID(),
			GoalID:  goal.ID,
			Message: fmt.Sprintf(reminderMessage, goal.Name),
			Date:    due,
		}
		reminders = append(reminders, reminder)
		created = append(created, reminder)

		stamp := due
		goal.LastReminderSent = &stamp
		goalsChanged = true
	}

	if len(created) > 0 {
		if err := l.saveReminders(ctx, reminders); err != nil {
			return nil, err
		}
	}
	if goalsChanged {
		if err := l.saveGoals(ctx, goals); err != nil {
			return nil, err
		}
	}
	return created, nil
}

// Reminder handler functions

// @Summary List reminders
// @Description Get all reminders
// @Tags reminders
// @Produce json
// @Success 200 {array} Reminder
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/reminders [get]
func getReminders(c *gin.Context) {
	reminders, err := ledger.Reminders(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching reminders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching reminders"})
		return
	}
	c.JSON(http.StatusOK, reminders)
}

// @Summary List pending reminders
// @Description Get unacknowledged reminders that are due
// @Tags reminders
// @Produce json
// @Success 200 {array} Reminder
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/reminders/pending [get]
func getPendingReminders(c *gin.Context) {
	reminders, err := ledger.PendingReminders(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching pending reminders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching reminders"})
		return
	}
	c.JSON(http.StatusOK, reminders)
}

// @Summary Acknowledge reminder
// @Description Mark a reminder as acknowledged
// @Tags reminders
// @Produce json
// @Param id path string true "Reminder ID"
// @Success 200 {object} map[string]interface{} "Acknowledgement confirmation"
// @Failure 404 {object} map[string]interface{} "Reminder not found"
// @Router /api/reminders/{id}/acknowledge [put]
func acknowledgeReminder(c *gin.Context) {
	if err := ledger.AcknowledgeReminder(c.Request.Context(), c.Param("id")); err != nil {
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reminder acknowledged"})
}

// @Summary Generate reminders
// @Description Create due reminders for active goals with a reminder frequency
// @Tags reminders
// @Produce json
// @Success 200 {object} map[string]interface{} "Created reminders"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/reminders/generate [post]
func generateReminders(c *gin.Context) {
	created, err := ledger.GenerateReminders(c.Request.Context())
	if err != nil {
		log.Printf("Error generating reminders: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error generating reminders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Reminders generated",
		"reminders": created,
	})
}
