package account

import (
	"github.com/amirasaad/gastos/pkg/money"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Progress describes how far a balance is from its savings goal.
type Progress struct {
	Goal      decimal.Decimal `json:"goal"`
	Achieved  bool            `json:"achieved"`
	Percent   decimal.Decimal `json:"percent"`
	Remaining decimal.Decimal `json:"remaining"`
}

// GoalProgress computes progress of balance toward goal. It returns nil when
// there is no goal or the goal is zero.
func GoalProgress(balance decimal.Decimal, goal *decimal.Decimal) *Progress {
	if goal == nil || !goal.IsPositive() {
		return nil
	}
	g := *goal
	if balance.GreaterThanOrEqual(g) {
		return &Progress{
			Goal:      g,
			Achieved:  true,
			Percent:   hundred,
			Remaining: decimal.Zero,
		}
	}
	return &Progress{
		Goal:      g,
		Achieved:  false,
		Percent:   balance.Div(g).Mul(hundred).Round(2),
		Remaining: money.Round(g.Sub(balance)),
	}
}

// GoalProgress of the account's own balance.
func (a *Account) GoalProgress() *Progress {
	return GoalProgress(a.Balance, a.Goal)
}
