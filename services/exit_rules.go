package services

import (
	"time"

	"spread-trader/config"
	"spread-trader/models"
)

// Action is the closed set of exit decisions for an open position.
type Action string

const (
	ActionCloseBreach Action = "CLOSE_BREACH"
	ActionStopLoss    Action = "STOP_LOSS"
	ActionTakeProfit  Action = "TAKE_PROFIT"
	ActionCloseDTE    Action = "CLOSE_DTE"
	ActionEvaluate    Action = "EVALUATE"
	ActionHold        Action = "HOLD"
)

// ExitSignal is one threshold check, kept transparent for auditing:
// whether it fired, why, and the numeric boundary that was used.
type ExitSignal struct {
	Triggered bool    `json:"triggered"`
	Reason    string  `json:"reason"`
	Threshold float64 `json:"threshold"`
}

// ExitDetails carries every computed signal alongside the resolved
// action so an audit trail can show the non-deciding checks too.
type ExitDetails struct {
	Signals     map[string]ExitSignal `json:"signals"`
	MissingData []string              `json:"missing_data,omitempty"`
}

// EvaluateBreach triggers when the underlying trades at or below the
// short strike.
func EvaluateBreach(underlyingPrice, shortStrike float64) ExitSignal {
	return ExitSignal{
		Triggered: underlyingPrice <= shortStrike,
		Reason:    "BREACH",
		Threshold: shortStrike,
	}
}

// EvaluateStopLoss triggers when the spread has widened to the stop
// multiple of the credit received.
func EvaluateStopLoss(entryCredit, currentSpreadValue float64) ExitSignal {
	stopValue := entryCredit * config.StopLossMultiple
	return ExitSignal{
		Triggered: currentSpreadValue >= stopValue,
		Reason:    "STOP_LOSS",
		Threshold: stopValue,
	}
}

// EvaluateProfitTarget triggers when the spread can be bought back for
// the target fraction of the credit received.
func EvaluateProfitTarget(entryCredit, currentSpreadValue float64) ExitSignal {
	targetValue := entryCredit * (1 - config.ProfitTargetPct)
	return ExitSignal{
		Triggered: currentSpreadValue <= targetValue,
		Reason:    "PROFIT_TARGET",
		Threshold: targetValue,
	}
}

// EvaluateDTE triggers inside the final-weeks warning window.
func EvaluateDTE(expiration, today time.Time) ExitSignal {
	dte := models.DaysUntil(expiration, today)
	return ExitSignal{
		Triggered: dte <= config.DTEWarningDays,
		Reason:    "DTE_WARNING",
		Threshold: config.DTEWarningDays,
	}
}

// EvaluateNearBreach triggers inside the warning band just above the
// short strike.
func EvaluateNearBreach(underlyingPrice, shortStrike float64) ExitSignal {
	threshold := shortStrike * (1 + config.NearBreachPct)
	return ExitSignal{
		Triggered: underlyingPrice <= threshold,
		Reason:    "NEAR_BREACH",
		Threshold: threshold,
	}
}

// EvaluatePosition resolves the five exit signals into one action with
// a strict priority order, first match wins:
//
//	missing data > breach > stop loss > profit target > DTE > near breach > hold
//
// It is a pure function of its inputs; the returned details payload is
// the only side channel.
func EvaluatePosition(position *models.Position, currentSpreadValue, underlyingPrice *float64, today time.Time) (Action, ExitDetails) {
	details := ExitDetails{Signals: make(map[string]ExitSignal)}

	// DTE depends only on the calendar and is always computable.
	dteSignal := EvaluateDTE(position.Expiration, today)
	details.Signals["dte"] = dteSignal

	if currentSpreadValue == nil {
		details.MissingData = append(details.MissingData, "current_spread_value")
	} else {
		details.Signals["stop_loss"] = EvaluateStopLoss(position.EntryCredit, *currentSpreadValue)
		details.Signals["profit_target"] = EvaluateProfitTarget(position.EntryCredit, *currentSpreadValue)
	}

	if underlyingPrice == nil {
		details.MissingData = append(details.MissingData, "underlying_price")
	} else {
		details.Signals["breach"] = EvaluateBreach(*underlyingPrice, position.ShortStrike)
		details.Signals["near_breach"] = EvaluateNearBreach(*underlyingPrice, position.ShortStrike)
	}

	// Cannot safely decide without both the spread value and the
	// underlying price.
	if len(details.MissingData) > 0 {
		return ActionEvaluate, details
	}

	switch {
	case details.Signals["breach"].Triggered:
		return ActionCloseBreach, details
	case details.Signals["stop_loss"].Triggered:
		return ActionStopLoss, details
	case details.Signals["profit_target"].Triggered:
		return ActionTakeProfit, details
	case dteSignal.Triggered:
		return ActionCloseDTE, details
	case details.Signals["near_breach"].Triggered:
		return ActionEvaluate, details
	default:
		return ActionHold, details
	}
}
