// Package model contains domain models passed between layers.
package model

import (
	"math/big"
	"time"
)

// SkillDescriptor is the canonical record for a registered skill.
// The ID is derived from (RepositoryURL, Name), so re-registering the
// same source always resolves to the same descriptor. Keywords and
// Stars may be refreshed on re-scan; all other fields are immutable
// after creation.
type SkillDescriptor struct {
	SkillID       string    `json:"skill_id"`
	Name          string    `json:"name"`
	Platform      string    `json:"platform"`
	Description   string    `json:"description,omitempty"`
	RepositoryURL string    `json:"repository_url"`
	CreatorWallet string    `json:"creator_wallet"`
	Keywords      []string  `json:"keywords,omitempty"`
	Stars         int       `json:"stars"`
	CreatedAt     time.Time `json:"created_at"`
}

// UsageEvent records one invocation of a skill by a user or agent.
// Events are append-only and form the audit trail for payouts.
type UsageEvent struct {
	EventID   string    `json:"event_id"`
	SkillID   string    `json:"skill_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// DistributionRecord is the payout instruction for one closed period.
// Amounts are arbitrary-precision token units; they serialize as JSON
// integers and never pass through floating point.
type DistributionRecord struct {
	DistributionID   string              `json:"distribution_id"`
	PeriodStart      time.Time           `json:"period_start"`
	PeriodEnd        time.Time           `json:"period_end"`
	PerCreatorAmount map[string]*big.Int `json:"per_creator_amount"`
	ComputedAt       time.Time           `json:"computed_at"`
}

// TotalAmount sums the per-creator payouts.
func (r *DistributionRecord) TotalAmount() *big.Int {
	total := new(big.Int)
	for _, amount := range r.PerCreatorAmount {
		total.Add(total, amount)
	}
	return total
}

// BountyStatus enumerates the bounty lifecycle states.
type BountyStatus string

const (
	BountyOpen      BountyStatus = "open"
	BountyAssigned  BountyStatus = "assigned"
	BountyCompleted BountyStatus = "completed"
	BountyCancelled BountyStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s BountyStatus) Valid() bool {
	switch s {
	case BountyOpen, BountyAssigned, BountyCompleted, BountyCancelled:
		return true
	}
	return false
}

// BountyRecord is a posted task with a fixed reward. Reward is set at
// creation and never changes across status transitions; AssigneeWallet
// is set once on the open->assigned transition.
type BountyRecord struct {
	BountyID       string       `json:"bounty_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	Reward         *big.Int     `json:"reward"`
	Category       string       `json:"category,omitempty"`
	CreatorWallet  string       `json:"creator_wallet"`
	Status         BountyStatus `json:"status"`
	AssigneeWallet string       `json:"assignee_wallet,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	Deadline       time.Time    `json:"deadline"`
}

// LeaderboardEntry is one row of the derived ranking view.
type LeaderboardEntry struct {
	SkillID       string   `json:"skill_id"`
	CreatorWallet string   `json:"creator_wallet"`
	TotalEarnings *big.Int `json:"total_earnings"`
	TotalStars    int      `json:"total_stars"`
}
