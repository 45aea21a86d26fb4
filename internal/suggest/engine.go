// Package suggest picks one upsell candidate for the open cart,
// scored on co-occurrence in the day's ledger, stock health and time
// of day.
package suggest

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"restopos/internal/domain"
)

type Suggestion struct {
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	ReasonCode string          `json:"reasonCode"`
	Confidence float64         `json:"confidence"`
}

type Engine struct {
	minConfidence float64
}

func NewEngine() *Engine {
	return &Engine{minConfidence: 0.35}
}

// Suggest scores every in-catalog product that is not already in the
// cart and returns the best candidate, if any clears the confidence
// floor. An empty cart or an empty ledger yields nothing; the engine
// never suggests a tracked product that is out of stock.
func (e *Engine) Suggest(
	cart []domain.CartLine,
	products []domain.Product,
	orders []domain.Order,
	now time.Time,
) (Suggestion, bool) {
	if len(cart) == 0 || len(orders) == 0 {
		return Suggestion{}, false
	}

	inCart := make(map[string]struct{}, len(cart))
	for _, line := range cart {
		inCart[line.ProductID] = struct{}{}
	}

	affinity := pairAffinity(cart, orders)

	best := Suggestion{}
	bestScore := 0.0
	for _, product := range products {
		if _, ok := inCart[product.ID]; ok {
			continue
		}
		if product.Tracked() && *product.Stock <= 0 {
			continue
		}

		pairScore := clamp(affinity[product.ID], 0, 1)
		stockScore := 1.0
		if product.Tracked() {
			stockScore = clamp(float64(*product.Stock)/20.0, 0, 1)
		}
		timeScore := categoryHourRelevance(product.Category.Label(), now.Hour())

		score := 0.55*pairScore + 0.25*stockScore + 0.20*timeScore
		confidence := clamp(score, 0, 1)
		if confidence < e.minConfidence || confidence <= bestScore {
			continue
		}

		bestScore = confidence
		best = Suggestion{
			ProductID:  product.ID,
			Name:       product.Name,
			Price:      product.Price,
			ReasonCode: deriveReason(pairScore, stockScore, timeScore),
			Confidence: math.Round(confidence*100) / 100,
		}
	}

	return best, best.ProductID != ""
}

// pairAffinity counts, per candidate product, the share of ledger
// orders containing any cart item that also contain the candidate.
func pairAffinity(cart []domain.CartLine, orders []domain.Order) map[string]float64 {
	inCart := make(map[string]struct{}, len(cart))
	for _, line := range cart {
		inCart[line.ProductID] = struct{}{}
	}

	relevant := 0
	cooccur := make(map[string]int)
	for _, order := range orders {
		matched := false
		for _, line := range order.Items {
			if _, ok := inCart[line.ProductID]; ok {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		relevant++
		for _, line := range order.Items {
			if _, ok := inCart[line.ProductID]; !ok {
				cooccur[line.ProductID]++
			}
		}
	}

	affinity := make(map[string]float64, len(cooccur))
	if relevant == 0 {
		return affinity
	}
	for id, count := range cooccur {
		affinity[id] = float64(count) / float64(relevant)
	}
	return affinity
}

func deriveReason(pairScore, stockScore, timeScore float64) string {
	reasons := []struct {
		code  string
		value float64
	}{
		{"often_ordered_together", pairScore},
		{"healthy_stock", stockScore},
		{"time_slot_match", timeScore},
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i].value > reasons[j].value })
	return reasons[0].code
}

func categoryHourRelevance(label string, hour int) float64 {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "beverage") || strings.Contains(l, "drink"):
		if hour >= 11 && hour <= 16 {
			return 0.95
		}
		return 0.70
	case strings.Contains(l, "dessert") || strings.Contains(l, "sweet"):
		if hour >= 17 && hour <= 22 {
			return 0.90
		}
		return 0.60
	}
	return 0.55
}

func clamp(val, minVal, maxVal float64) float64 {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}
