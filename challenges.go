package main

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Challenge repository. Plain CRUD with no side effects on other
// collections; status transitions come from the caller.

func (l *Ledger) loadChallenges(ctx context.Context) ([]Challenge, error) {
	var challenges []Challenge
	if err := l.store.Get(ctx, challengesKey, &challenges); err != nil {
		if errors.Is(err, errKeyNotFound) {
			return []Challenge{}, nil
		}
		return nil, err
	}
	if challenges == nil {
		challenges = []Challenge{}
	}
	return challenges, nil
}

func (l *Ledger) saveChallenges(ctx context.Context, challenges []Challenge) error {
	return l.store.Set(ctx, challengesKey, challenges)
}

// Challenges returns every challenge
func (l *Ledger) Challenges(ctx context.Context) ([]Challenge, error) {
	return l.loadChallenges(ctx)
}

// ChallengeByID returns the challenge with the given id, or errNotFound
func (l *Ledger) ChallengeByID(ctx context.Context, id string) (Challenge, error) {
	challenges, err := l.loadChallenges(ctx)
	if err != nil {
		return Challenge{}, err
	}
	for _, ch := range challenges {
		if ch.ID == id {
			return ch, nil
		}
	}
	return Challenge{}, errNotFound
}

// CreateChallenge validates the challenge, assigns an id and persists it
func (l *Ledger) CreateChallenge(ctx context.Context, ch Challenge) (Challenge, error) {
	if ch.Status == "" {
		ch.Status = ChallengeActive
	}
	if err := validateChallenge(ch); err != nil {
		return Challenge{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	challenges, err := l.loadChallenges(ctx)
	if err != nil {
		return Challenge{}, err
	}

	ch.ID = newID()
	challenges = append(challenges, ch)
	if err := l.saveChallenges(ctx, challenges); err != nil {
		return Challenge{}, err
	}
	return ch, nil
}

// UpdateChallenge replaces the challenge matching its id. An unknown id
// persists nothing and reports errNotFound.
func (l *Ledger) UpdateChallenge(ctx context.Context, ch Challenge) (Challenge, error) {
	if err := validateChallenge(ch); err != nil {
		return Challenge{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	challenges, err := l.loadChallenges(ctx)
	if err != nil {
		return Challenge{}, err
	}

	for i, existing := range challenges {
		if existing.ID == ch.ID {
			challenges[i] = ch
			if err := l.saveChallenges(ctx, challenges); err != nil {
				return Challenge{}, err
			}
			return ch, nil
		}
	}
	return ch, errNotFound
}

// DeleteChallenge removes a challenge. Returns true iff one was removed.
func (l *Ledger) DeleteChallenge(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	challenges, err := l.loadChallenges(ctx)
	if err != nil {
		return false, err
	}

	filtered := make([]Challenge, 0, len(challenges))
	for _, ch := range challenges {
		if ch.ID != id {
			filtered = append(filtered, ch)
		}
	}
	if len(filtered) == len(challenges) {
		return false, nil
	}
	if err := l.saveChallenges(ctx, filtered); err != nil {
		return false, err
	}
	return true, nil
}

// challengeView adds the read-time expiry flag the UI uses to offer a
// "mark failed" action
type challengeView struct {
	Challenge
	Expired bool `json:"expired"`
}

// Challenge handler functions

// @Summary List challenges
// @Description Get all challenges with their expiry flag
// @Tags challenges
// @Produce json
// @Success 200 {array} challengeView
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/challenges [get]
func getChallenges(c *gin.Context) {
	challenges, err := ledger.Challenges(c.Request.Context())
	if err != nil {
		log.Printf("Error fetching challenges: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching challenges"})
		return
	}

	now := ledger.now()
	views := make([]challengeView, 0, len(challenges))
	for _, ch := range challenges {
		views = append(views, challengeView{Challenge: ch, Expired: ch.IsExpired(now)})
	}
	c.JSON(http.StatusOK, views)
}

// @Summary Get challenge
// @Description Get a single challenge by id
// @Tags challenges
// @Produce json
// @Param id path string true "Challenge ID"
// @Success 200 {object} challengeView
// @Failure 404 {object} map[string]interface{} "Challenge not found"
// @Router /api/challenges/{id} [get]
func getChallenge(c *gin.Context) {
	ch, err := ledger.ChallengeByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}
	c.JSON(http.StatusOK, challengeView{Challenge: ch, Expired: ch.IsExpired(ledger.now())})
}

// @Summary Create challenge
// @Description Create a new challenge
// @Tags challenges
// @Accept json
// @Produce json
// @Param challenge body Challenge true "Challenge data"
// @Success 201 {object} Challenge
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /api/challenges [post]
func createChallenge(c *gin.Context) {
	var ch Challenge
	if err := c.ShouldBindJSON(&ch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	created, err := ledger.CreateChallenge(c.Request.Context(), ch)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Error creating challenge: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating challenge"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// @Summary Update challenge
// @Description Replace the challenge matching the id (used to mark complete/failed)
// @Tags challenges
// @Accept json
// @Produce json
// @Param id path string true "Challenge ID"
// @Param challenge body Challenge true "Challenge data"
// @Success 200 {object} Challenge
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Failure 404 {object} map[string]interface{} "Challenge not found"
// @Router /api/challenges/{id} [put]
func updateChallenge(c *gin.Context) {
	var ch Challenge
	if err := c.ShouldBindJSON(&ch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	ch.ID = c.Param("id")

	updated, err := ledger.UpdateChallenge(c.Request.Context(), ch)
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

// @Summary Delete challenge
// @Description Delete a challenge
// @Tags challenges
// @Produce json
// @Param id path string true "Challenge ID"
// @Success 200 {object} map[string]interface{} "Deletion confirmation"
// @Failure 404 {object} map[string]interface{} "Challenge not found"
// @Router /api/challenges/{id} [delete]
func deleteChallenge(c *gin.Context) {
	removed, err := ledger.DeleteChallenge(c.Request.Context(), c.Param("id"))
	if err != nil {
		log.Printf("Error deleting challenge: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting challenge"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "Challenge not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Challenge deleted successfully"})
}
