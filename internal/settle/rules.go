package settle

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"PickTracker/internal/model"
	"PickTracker/internal/results"
)

// resolve applies the bet-type rule for a pick against a completed outcome
// and returns the terminal status. It never mutates the pick; an error means
// the prediction is malformed or ambiguous against this outcome, in which
// case the pick must stay pending.
func resolve(p *model.Pick, out *model.Outcome) (model.Status, error) {
	switch p.BetType {
	case model.BetMoneyline:
		return resolveMoneyline(p.Prediction, out)
	case model.BetSpread:
		return resolveSpread(p.Prediction, out)
	case model.BetTotal:
		return resolveTotal(p.Prediction, out)
	case model.BetWin:
		return resolveWin(p.Prediction, out)
	}
	return "", fmt.Errorf("unknown bet type %q", p.BetType)
}

func resolveMoneyline(prediction string, out *model.Outcome) (model.Status, error) {
	mine, _, err := sides(prediction, out)
	if err != nil {
		return "", err
	}
	// A legitimate draw is not covered by a two-way moneyline: stake back.
	if out.Draw() {
		return model.StatusPush, nil
	}
	winner := declaredWinner(out)
	if winner == "" {
		return "", fmt.Errorf("outcome carries no winner and no score margin")
	}
	if results.SameName(mine.Name, winner) {
		return model.StatusWin, nil
	}
	return model.StatusLoss, nil
}

// resolveSpread settles "Team -3.5" style predictions. The line is signed so
// a negative line favors the predicted side: adjusted margin is
// (own score - opponent score) + line.
func resolveSpread(prediction string, out *model.Outcome) (model.Status, error) {
	team, line, err := splitLine(prediction)
	if err != nil {
		return "", err
	}
	mine, opp, err := sides(team, out)
	if err != nil {
		return "", err
	}
	margin := mine.Score.Sub(opp.Score).Add(line)
	switch margin.Sign() {
	case 1:
		return model.StatusWin, nil
	case -1:
		return model.StatusLoss, nil
	}
	return model.StatusPush, nil
}

// resolveTotal settles "Over 8.5" / "Under 8.5" predictions against the
// combined final score. Landing exactly on the line is a push.
func resolveTotal(prediction string, out *model.Outcome) (model.Status, error) {
	direction, threshold, err := splitLine(prediction)
	if err != nil {
		return "", err
	}
	total := out.Total()
	cmp := total.Cmp(threshold)
	if cmp == 0 {
		return model.StatusPush, nil
	}
	over := cmp > 0
	switch strings.ToLower(direction) {
	case "over":
		if over {
			return model.StatusWin, nil
		}
		return model.StatusLoss, nil
	case "under":
		if !over {
			return model.StatusWin, nil
		}
		return model.StatusLoss, nil
	}
	return "", fmt.Errorf("total prediction %q: direction must be Over or Under", prediction)
}

// resolveWin settles single-selection predictions: the named selection
// either is the result or it is not. There is no push case.
func resolveWin(prediction string, out *model.Outcome) (model.Status, error) {
	winner := declaredWinner(out)
	if winner == "" {
		return "", fmt.Errorf("outcome carries no result selection")
	}
	if results.SameName(prediction, winner) {
		return model.StatusWin, nil
	}
	return model.StatusLoss, nil
}

// sides matches a predicted participant name to the outcome's two sides.
func sides(name string, out *model.Outcome) (mine, opp *model.Participant, err error) {
	switch {
	case results.SameName(name, out.Home.Name):
		return &out.Home, &out.Away, nil
	case results.SameName(name, out.Away.Name):
		return &out.Away, &out.Home, nil
	}
	return nil, nil, fmt.Errorf("prediction side %q matches neither %q nor %q",
		name, out.Home.Name, out.Away.Name)
}

// declaredWinner prefers the provider's winner field and falls back to the
// score margin. Empty means a draw or an unusable outcome.
func declaredWinner(out *model.Outcome) string {
	if out.Winner != "" {
		return out.Winner
	}
	switch out.Home.Score.Cmp(out.Away.Score) {
	case 1:
		return out.Home.Name
	case -1:
		return out.Away.Name
	}
	return ""
}

// splitLine separates a prediction of the form "<side> <number>" into its
// side and its numeric line.
func splitLine(prediction string) (string, decimal.Decimal, error) {
	trimmed := strings.TrimSpace(prediction)
	idx := strings.LastIndex(trimmed, " ")
	if idx < 0 {
		return "", decimal.Zero, fmt.Errorf("prediction %q has no line", prediction)
	}
	side := strings.TrimSpace(trimmed[:idx])
	raw := strings.TrimSpace(trimmed[idx:])
	line, err := decimal.NewFromString(strings.TrimPrefix(raw, "+"))
	if err != nil {
		return "", decimal.Zero, fmt.Errorf("prediction %q: bad line %q", prediction, raw)
	}
	return side, line, nil
}

// profitFor computes the financial settlement for a terminal status.
// Win pays stake*(odds-1), or nothing for confidence-only picks; Loss
// forfeits the stake; Push and Void return the stake untouched.
func profitFor(status model.Status, p *model.Pick) decimal.Decimal {
	switch status {
	case model.StatusWin:
		if p.Odds == nil {
			return decimal.Zero
		}
		return p.Stake.Mul(p.Odds.Sub(decimal.NewFromInt(1)))
	case model.StatusLoss:
		return p.Stake.Neg()
	}
	return decimal.Zero
}
