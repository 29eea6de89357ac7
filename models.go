package main

import (
	"strings"
	"time"
)

// GoalType categorizes what a savings goal is for
type GoalType string

const (
	GoalTypeLand     GoalType = "land"
	GoalTypeBusiness GoalType = "business"
	GoalTypeSavings  GoalType = "savings"
	GoalTypeCrypto   GoalType = "crypto"
	GoalTypeOther    GoalType = "other"
)

// GoalStatus is the lifecycle state of a savings goal
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusCancelled GoalStatus = "cancelled"
)

// GoalPriority ranks goals for display
type GoalPriority string

const (
	PriorityLow    GoalPriority = "low"
	PriorityMedium GoalPriority = "medium"
	PriorityHigh   GoalPriority = "high"
)

// ReminderFrequency is how often a goal nudges its owner
type ReminderFrequency string

const (
	FrequencyDaily   ReminderFrequency = "daily"
	FrequencyWeekly  ReminderFrequency = "weekly"
	FrequencyMonthly ReminderFrequency = "monthly"
)

// TransactionType distinguishes money in from money out
type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
)

// ChallengeStatus is the lifecycle state of a challenge
type ChallengeStatus string

const (
	ChallengeActive    ChallengeStatus = "active"
	ChallengeCompleted ChallengeStatus = "completed"
	ChallengeFailed    ChallengeStatus = "failed"
)

// EventType labels chain events from the savings contract
type EventType string

const (
	EventDeposited EventType = "Deposited"
	EventWithdrawn EventType = "Withdrawn"
)

// SavingsGoal represents a named savings target with a deadline.
// CurrentAmount is derived from the transaction ledger and is only
// mutated through it.
type SavingsGoal struct {
	ID                string            `json:"id"`
	Name              string            `json:"name"`
	Type              GoalType          `json:"type"`
	TargetAmount      float64           `json:"targetAmount"`
	CurrentAmount     float64           `json:"currentAmount"`
	StartDate         time.Time         `json:"startDate"`
	EndDate           time.Time         `json:"endDate"`
	Description       string            `json:"description"`
	Status            GoalStatus        `json:"status"`
	Priority          GoalPriority      `json:"priority"`
	ReminderFrequency ReminderFrequency `json:"reminderFrequency,omitempty"`
	LastReminderSent  *time.Time        `json:"lastReminderSent,omitempty"`
}

// Transaction is a deposit or withdrawal against a goal
type Transaction struct {
	ID          string          `json:"id"`
	GoalID      string          `json:"goalId"`
	Amount      float64         `json:"amount"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	TxHash      string          `json:"txHash,omitempty"`
}

// Challenge is a gamified objective, optionally linked to a goal.
// GoalID is a weak reference: the goal may have been deleted.
type Challenge struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Reward        string          `json:"reward"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       time.Time       `json:"endDate"`
	Status        ChallengeStatus `json:"status"`
	GoalID        string          `json:"goalId,omitempty"`
	TargetAmount  *float64        `json:"targetAmount,omitempty"`
	CurrentAmount *float64        `json:"currentAmount,omitempty"`
}

// IsExpired reports whether the challenge window closed while it was
// still active. Presentation-only: the repository never transitions
// status based on it.
func (c Challenge) IsExpired(now time.Time) bool {
	return now.After(c.EndDate) && c.Status == ChallengeActive
}

// Reminder is a scheduled nudge tied to a goal's cadence
type Reminder struct {
	ID           string    `json:"id"`
	GoalID       string    `json:"goalId"`
	Message      string    `json:"message"`
	Date         time.Time `json:"date"`
	Acknowledged bool      `json:"acknowledged"`
}

// ChainEvent is one Deposited/Withdrawn event from the savings contract.
// Amount is a decimal ether string, matching the event feed format.
type ChainEvent struct {
	Type            EventType `json:"type"`
	User            string    `json:"user"`
	Amount          string    `json:"amount"`
	Timestamp       time.Time `json:"timestamp"`
	TransactionHash string    `json:"transactionHash"`
}

// ROIRequest is the input for the compound-interest projection
type ROIRequest struct {
	Principal           float64 `json:"principal"`
	MonthlyContribution float64 `json:"monthlyContribution"`
	AnnualInterestRate  float64 `json:"annualInterestRate"`
	Years               int     `json:"years"`
}

// ROIResult is the projection output, rounded to 2 decimal places
type ROIResult struct {
	FutureValue       float64 `json:"futureValue"`
	TotalContribution float64 `json:"totalContribution"`
	InterestEarned    float64 `json:"interestEarned"`
	ROI               float64 `json:"roi"`
}

// ProgressReport is the derived view of a goal against its time window
type ProgressReport struct {
	Goal                   SavingsGoal   `json:"goal"`
	ProgressPercentage     int           `json:"progressPercentage"`
	TotalDeposits          float64       `json:"totalDeposits"`
	TotalWithdrawals       float64       `json:"totalWithdrawals"`
	ElapsedDays            int           `json:"elapsedDays"`
	RemainingDays          int           `json:"remainingDays"`
	TimeProgressPercentage int           `json:"timeProgressPercentage"`
	IsOnTrack              bool          `json:"isOnTrack"`
	DailyAmountNeeded      float64       `json:"dailyAmountNeeded"`
	Transactions           []Transaction `json:"transactions"`
}

// Validation functions

// validateGoal checks a goal before it is persisted
func validateGoal(g SavingsGoal) error {
	if strings.TrimSpace(g.Name) == "" {
		return invalidf("name cannot be empty")
	}
	switch g.Type {
	case GoalTypeLand, GoalTypeBusiness, GoalTypeSavings, GoalTypeCrypto, GoalTypeOther:
	default:
		return invalidf("invalid goal type %q", g.Type)
	}
	if g.TargetAmount <= 0 {
		return invalidf("target amount must be a positive number")
	}
	if g.CurrentAmount < 0 {
		return invalidf("current amount cannot be negative")
	}
	if !g.EndDate.After(g.StartDate) {
		return invalidf("end date must be after start date")
	}
	switch g.Status {
	case GoalStatusActive, GoalStatusCompleted, GoalStatusCancelled:
	default:
		return invalidf("invalid goal status %q", g.Status)
	}
	switch g.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		return invalidf("invalid goal priority %q", g.Priority)
	}
	switch g.ReminderFrequency {
	case "", FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
	default:
		return invalidf("invalid reminder frequency %q", g.ReminderFrequency)
	}
	return nil
}

// validateTransaction checks a transaction before it is persisted
func validateTransaction(tx Transaction) error {
	if strings.TrimSpace(tx.GoalID) == "" {
		return invalidf("goal id is required")
	}
	if tx.Amount <= 0 {
		return invalidf("amount must be a positive number")
	}
	if tx.Type != TypeDeposit && tx.Type != TypeWithdrawal {
		return invalidf("invalid transaction type %q", tx.Type)
	}
	return nil
}

// validateChallenge checks a challenge before it is persisted
func validateChallenge(ch Challenge) error {
	if strings.TrimSpace(ch.Name) == "" {
		return invalidf("name cannot be empty")
	}
	switch ch.Status {
	case ChallengeActive, ChallengeCompleted, ChallengeFailed:
	default:
		return invalidf("invalid challenge status %q", ch.Status)
	}
	if ch.TargetAmount != nil && *ch.TargetAmount <= 0 {
		return invalidf("target amount must be a positive number")
	}
	return nil
}
