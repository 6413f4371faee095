package portal

import (
	"fmt"
	"strings"

	"portal-go/internal/ratelimit"
)

// SubmitSuggestion records free-text feedback, subject to the escalating
// cooldown held in state. A denied decision is returned with a nil error;
// nothing is recorded in that case.
func (s *PortalService) SubmitSuggestion(actor Actor, state *ratelimit.CooldownState, text string) (ratelimit.Decision, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ratelimit.Decision{}, fmt.Errorf("empty suggestion: %w", ErrInvalid)
	}

	d := s.quota.TryConsume(state, s.clock.Now())
	if !d.Allowed {
		s.logger.Debug("suggestion throttled", "by", actor.Identity, "remaining_minutes", d.RemainingMinutes)
		return d, nil
	}
	if err := s.record(LogSuggestion, actor.Identity, ActionSuggestion, text, ""); err != nil {
		return d, err
	}
	return d, nil
}
