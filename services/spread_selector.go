package services

import (
	"math"
	"sort"

	"spread-trader/interfaces"
)

// Spread selection filters. Width 5 is tried exhaustively before width
// 10; the first passing pair wins, no global optimization.
var spreadWidths = []float64{5, 10}

const (
	minCreditRatio  = 3.0 // required credit > width / minCreditRatio
	maxBidAskSpread = 0.10
	minOpenInterest = 500
	strikeTolerance = 1e-9
)

// SpreadCandidate is a selected short/long strike pair with its
// computed credit.
type SpreadCandidate struct {
	ShortStrike float64
	LongStrike  float64
	Credit      float64
}

// SelectSpread picks a put credit spread from a chain given a support
// level: the short leg sits strictly below support, the long leg at
// exactly width points lower, and the pair must clear credit and
// liquidity gates.
func SelectSpread(chain []*interfaces.OptionContract, support float64) *SpreadCandidate {
	puts := make([]*interfaces.OptionContract, 0, len(chain))
	for _, contract := range chain {
		if contract != nil && contract.OptionType == "put" {
			puts = append(puts, contract)
		}
	}

	sort.SliceStable(puts, func(i, j int) bool {
		return puts[i].Strike < puts[j].Strike
	})

	for _, width := range spreadWidths {
		for _, contract := range puts {
			if contract.Strike >= support {
				continue
			}

			longStrike := contract.Strike - width
			longContract := findStrike(puts, longStrike)
			if longContract == nil {
				continue
			}

			shortPrice := usablePrice(contract)
			longPrice := usablePrice(longContract)
			if shortPrice == nil || longPrice == nil {
				continue
			}

			credit := *shortPrice - *longPrice
			if credit <= width/minCreditRatio {
				continue
			}

			// Illiquid quote: the short leg's bid-ask spread is too wide.
			if contract.Bid != nil && contract.Ask != nil {
				if math.Round((*contract.Ask-*contract.Bid)*100)/100 > maxBidAskSpread {
					continue
				}
			}

			// Illiquid contract: not enough open interest on the short leg.
			if contract.OpenInterest != nil && *contract.OpenInterest < minOpenInterest {
				continue
			}

			return &SpreadCandidate{
				ShortStrike: contract.Strike,
				LongStrike:  longStrike,
				Credit:      credit,
			}
		}
	}

	return nil
}

// usablePrice prefers the bid/ask midpoint and falls back to the last
// trade.
func usablePrice(contract *interfaces.OptionContract) *float64 {
	if mid := GetMidPrice(contract.Bid, contract.Ask); mid != nil {
		return mid
	}
	return contract.Last
}

func findStrike(puts []*interfaces.OptionContract, strike float64) *interfaces.OptionContract {
	for _, contract := range puts {
		if math.Abs(contract.Strike-strike) < strikeTolerance {
			return contract
		}
	}
	return nil
}
