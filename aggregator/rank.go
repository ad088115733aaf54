package aggregator

import (
	"math/big"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/stablehop/stablehop/types"
)

type rankedQuote struct {
	quote  *types.BridgeQuote
	amount *big.Int
	order  int
}

// rank sorts quotes by exact output, highest first, keeping registration
// order among equal outputs.
func rank(quotes []rankedQuote) []*types.BridgeQuote {
	sort.SliceStable(quotes, func(i, j int) bool {
		if c := quotes[i].amount.Cmp(quotes[j].amount); c != 0 {
			return c > 0
		}
		return quotes[i].order < quotes[j].order
	})
	out := make([]*types.BridgeQuote, len(quotes))
	for i, q := range quotes {
		out[i] = q.quote
	}
	return out
}

// pickBest anchors on the highest output. Among the quotes within threshold
// of that top output the cheapest gas wins, then the larger output, then
// registration order. The tie band never chains off a lower quote.
func pickBest(quotes []rankedQuote, threshold decimal.Decimal) *types.BridgeQuote {
	if len(quotes) == 0 {
		return nil
	}
	top := quotes[0]
	for _, q := range quotes[1:] {
		if c := q.amount.Cmp(top.amount); c > 0 || (c == 0 && q.order < top.order) {
			top = q
		}
	}

	best := top
	for _, q := range quotes {
		if !withinThreshold(top.amount, q.amount, threshold) {
			continue
		}
		if betterCandidate(q, best) {
			best = q
		}
	}
	return best.quote
}

func betterCandidate(q, best rankedQuote) bool {
	if c := q.quote.GasUSD.Cmp(best.quote.GasUSD); c != 0 {
		return c < 0
	}
	if c := q.amount.Cmp(best.amount); c != 0 {
		return c > 0
	}
	return q.order < best.order
}

// withinThreshold reports |a-b| / max(a,b) < threshold using exact rationals.
func withinThreshold(a, b *big.Int, threshold decimal.Decimal) bool {
	max := a
	if b.Cmp(a) > 0 {
		max = b
	}
	if max.Sign() == 0 {
		return true
	}
	diff := new(big.Int).Sub(a, b)
	diff.Abs(diff)
	rel := new(big.Rat).SetFrac(diff, max)
	return rel.Cmp(threshold.Rat()) < 0
}
