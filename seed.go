package main

import (
	"context"
	"fmt"
)

// seedSampleData creates the demo goals, their initial deposits and two
// demo challenges. Idempotent: it does nothing once any goal exists.
func seedSampleData(ctx context.Context, l *Ledger) error {
	existing, err := l.Goals(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	now := l.now()

	landGoal, err := l.CreateGoal(ctx, SavingsGoal{
		Name:              "Buy Land Property",
		Type:              GoalTypeLand,
		TargetAmount:      50000,
		StartDate:         now,
		EndDate:           now.AddDate(0, 0, 365),
		Description:       "Saving for a small plot of land for future development",
		Status:            GoalStatusActive,
		Priority:          PriorityHigh,
		ReminderFrequency: FrequencyWeekly,
	})
	if err != nil {
		return fmt.Errorf("failed to seed land goal: %w", err)
	}

	businessGoal, err := l.CreateGoal(ctx, SavingsGoal{
		Name:              "Start Online Business",
		Type:              GoalTypeBusiness,
		TargetAmount:      15000,
		StartDate:         now,
		EndDate:           now.AddDate(0, 0, 180),
		Description:       "Capital for starting an e-commerce store",
		Status:            GoalStatusActive,
		Priority:          PriorityMedium,
		ReminderFrequency: FrequencyDaily,
	})
	if err != nil {
		return fmt.Errorf("failed to seed business goal: %w", err)
	}

	savingsGoal, err := l.CreateGoal(ctx, SavingsGoal{
		Name:              "Emergency Fund",
		Type:              GoalTypeSavings,
		TargetAmount:      10000,
		StartDate:         now,
		EndDate:           now.AddDate(0, 0, 120),
		Description:       "Building an emergency fund for unexpected expenses",
		Status:            GoalStatusActive,
		Priority:          PriorityHigh,
		ReminderFrequency: FrequencyWeekly,
	})
	if err != nil {
		return fmt.Errorf("failed to seed savings goal: %w", err)
	}

	deposits := []struct {
		goal   SavingsGoal
		amount float64
	}{
		{landGoal, 5000},
		{businessGoal, 3000},
		{savingsGoal, 1000},
	}
	for _, d := range deposits {
		if _, err := l.CreateTransaction(ctx, Transaction{
			GoalID:      d.goal.ID,
			Amount:      d.amount,
			Date:        now,
			Type:        TypeDeposit,
			Description: "Initial deposit",
		}); err != nil {
			return fmt.Errorf("failed to seed deposit for %s: %w", d.goal.Name, err)
		}
	}

	saverTarget := 1000.0
	saverCurrent := 0.0
	if _, err := l.CreateChallenge(ctx, Challenge{
		Name:          "Monthly Saver",
		Description:   "Save $1000 in the next 30 days",
		Reward:        "10% bonus toward any goal",
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, 30),
		Status:        ChallengeActive,
		TargetAmount:  &saverTarget,
		CurrentAmount: &saverCurrent,
	}); err != nil {
		return fmt.Errorf("failed to seed challenge: %w", err)
	}

	landTarget := landGoal.TargetAmount * 0.2
	landCurrent := landGoal.CurrentAmount
	if _, err := l.CreateChallenge(ctx, Challenge{
		Name:          "Land Investment Master",
		Description:   "Reach 20% of your land investment goal",
		Reward:        "Investment strategy consultation",
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, 60),
		Status:        ChallengeActive,
		GoalID:        landGoal.ID,
		TargetAmount:  &landTarget,
		CurrentAmount: &landCurrent,
	}); err != nil {
		return fmt.Errorf("failed to seed challenge: %w", err)
	}

	return nil
}
