package main

import (
	"context"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Progress and ROI calculations. Pure derivations recomputed on every
// read, never cached.

// round2 rounds to 2 decimal places
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// percentOf returns min(100, round(part/whole*100)), treating a
// non-positive whole as 0%
func percentOf(part, whole float64) int {
	if whole <= 0 {
		return 0
	}
	pct := int(math.Round(part / whole * 100))
	if pct > 100 {
		pct = 100
	}
	return pct
}

// ceilDays is the number of days between two times, rounded up
func ceilDays(from, to time.Time) int {
	return int(math.Ceil(to.Sub(from).Hours() / 24))
}

// ProgressReport derives the progress view for one goal: amount progress
// against target, time progress against the goal window, and the daily
// amount needed to land on target.
func (l *Ledger) ProgressReport(ctx context.Context, goalID string) (ProgressReport, error) {
	goal, err := l.GoalByID(ctx, goalID)
	if err != nil {
		return ProgressReport{}, err
	}
	transactions, err := l.TransactionsByGoal(ctx, goalID)
	if err != nil {
		return ProgressReport{}, err
	}

	var totalDeposits, totalWithdrawals float64
	for _, tx := range transactions {
		if tx.Type == TypeDeposit {
			totalDeposits += tx.Amount
		} else {
			totalWithdrawals += tx.Amount
		}
	}

	now := l.now()
	totalDays := ceilDays(goal.StartDate, goal.EndDate)
	elapsedDays := ceilDays(goal.StartDate, now)
	remainingDays := totalDays - elapsedDays
	if remainingDays < 0 {
		remainingDays = 0
	}

	dailyAmountNeeded := 0.0
	if remainingDays > 0 {
		dailyAmountNeeded = (goal.TargetAmount - goal.CurrentAmount) / float64(remainingDays)
	}

	progressPct := percentOf(goal.CurrentAmount, goal.TargetAmount)
	timePct := percentOf(float64(elapsedDays), float64(totalDays))

	return ProgressReport{
		Goal:                   goal,
		ProgressPercentage:     progressPct,
		TotalDeposits:          totalDeposits,
		TotalWithdrawals:       totalWithdrawals,
		ElapsedDays:            elapsedDays,
		RemainingDays:          remainingDays,
		TimeProgressPercentage: timePct,
		IsOnTrack:              progressPct >= timePct,
		DailyAmountNeeded:      dailyAmountNeeded,
		Transactions:           transactions,
	}, nil
}

// calculateROI projects a savings plan month by month: each month the
// contribution is added, then monthly interest is applied. Results are
// rounded to 2 decimal places.
func calculateROI(principal, monthlyContribution, annualInterestRate float64, years int) ROIResult {
	monthlyRate := annualInterestRate / 12 / 100
	totalMonths := years * 12

	futureValue := principal
	for month := 1; month <= totalMonths; month++ {
		futureValue += monthlyContribution
		futureValue *= 1 + monthlyRate
	}

	totalContribution := principal + monthlyContribution*float64(totalMonths)
	interestEarned := futureValue - totalContribution

	roi := 0.0
	if totalContribution > 0 {
		roi = interestEarned / totalContribution * 100
	}

	return ROIResult{
		FutureValue:       round2(futureValue),
		TotalContribution: round2(totalContribution),
		InterestEarned:    round2(interestEarned),
		ROI:               round2(roi),
	}
}

// Calculator handler functions

// @Summary Goal progress
// @Description Get the derived progress report for a goal
// @Tags goals
// @Produce json
// @Param id path string true "Goal ID"
// @Success 200 {object} ProgressReport
// @Failure 404 {object} map[string]interface{} "Goal not found"
// @Router /api/goals/{id}/progress [get]
func getGoalProgress(c *gin.Context) {
	report, err := ledger.ProgressReport(c.Request.Context(), c.Param("id"))
	if err != nil {
		statusCode, message := handleStoreError(err)
		c.JSON(statusCode, gin.H{"error": message})
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary ROI projection
// @Description Project the future value of a savings plan with monthly compounding
// @Tags calculator
// @Accept json
// @Produce json
// @Param plan body ROIRequest true "Savings plan"
// @Success 200 {object} ROIResult
// @Failure 400 {object} map[string]interface{} "Bad request"
// @Router /api/calculator/roi [post]
func calculateROIHandler(c *gin.Context) {
	var req ROIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Principal < 0 || req.MonthlyContribution < 0 || req.AnnualInterestRate < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amounts must not be negative"})
		return
	}
	if req.Years <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Years must be a positive number"})
		return
	}

	c.JSON(http.StatusOK, calculateROI(req.Principal, req.MonthlyContribution, req.AnnualInterestRate, req.Years))
}
