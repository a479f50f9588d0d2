// Package leaderboard derives the creator-earnings ranking.
//
// The view holds no state of its own: every call recomputes the
// ranking from the current skill set and the full history of
// distribution records.
package leaderboard

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"time"

	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/internal/domain/registry"
)

// ErrInvalidLimit rejects non-positive ranking limits.
var ErrInvalidLimit = errors.New("invalid leaderboard limit")

// SkillSource lists the currently registered skills.
type SkillSource interface {
	List(ctx context.Context, f registry.Filter) []model.SkillDescriptor
}

// RecordSource returns all distribution records.
type RecordSource interface {
	Records(ctx context.Context) []model.DistributionRecord
}

// View computes rankings from a skill source and a record source.
type View struct {
	skills  SkillSource
	records RecordSource
}

// New creates a leaderboard view.
func New(skills SkillSource, records RecordSource) *View {
	return &View{skills: skills, records: records}
}

// Rank returns up to limit entries ordered by total creator earnings
// descending, then stars descending, then skill ID ascending.
func (v *View) Rank(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	return v.RankSince(ctx, limit, time.Time{})
}

// RankSince ranks like Rank but only counts earnings from distribution
// records whose period ended after since. A zero since counts all
// history.
func (v *View) RankSince(ctx context.Context, limit int, since time.Time) ([]model.LeaderboardEntry, error) {
	if limit < 1 {
		return nil, ErrInvalidLimit
	}

	earnings := make(map[string]*big.Int)
	for _, record := range v.records.Records(ctx) {
		if !since.IsZero() && !record.PeriodEnd.After(since) {
			continue
		}
		for wallet, amount := range record.PerCreatorAmount {
			if total, ok := earnings[wallet]; ok {
				total.Add(total, amount)
			} else {
				earnings[wallet] = new(big.Int).Set(amount)
			}
		}
	}

	skills := v.skills.List(ctx, registry.Filter{})
	entries := make([]model.LeaderboardEntry, 0, len(skills))
	for _, skill := range skills {
		total, ok := earnings[skill.CreatorWallet]
		if !ok {
			total = new(big.Int)
		}
		entries = append(entries, model.LeaderboardEntry{
			SkillID:       skill.SkillID,
			CreatorWallet: skill.CreatorWallet,
			TotalEarnings: new(big.Int).Set(total),
			TotalStars:    skill.Stars,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if c := entries[i].TotalEarnings.Cmp(entries[j].TotalEarnings); c != 0 {
			return c > 0
		}
		if entries[i].TotalStars != entries[j].TotalStars {
			return entries[i].TotalStars > entries[j].TotalStars
		}
		return entries[i].SkillID < entries[j].SkillID
	})

	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
