package service

import "restopos/internal/suggest"

// SuggestUpsell proposes one add-on for the open cart based on what
// the day's other orders paired with it.
func (s *Service) SuggestUpsell() (suggest.Suggestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upsell.Suggest(s.cart, s.products, s.orders, s.now())
}
