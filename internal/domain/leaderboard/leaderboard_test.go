package leaderboard_test

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/myskills/skillhub/internal/domain/leaderboard"
	"github.com/myskills/skillhub/internal/domain/model"
	"github.com/myskills/skillhub/internal/domain/registry"
	. "github.com/smartystreets/goconvey/convey"
)

type stubSkills []model.SkillDescriptor

func (s stubSkills) List(ctx context.Context, f registry.Filter) []model.SkillDescriptor {
	return s
}

type stubRecords []model.DistributionRecord

func (s stubRecords) Records(ctx context.Context) []model.DistributionRecord {
	return s
}

func TestRank(t *testing.T) {
	walletA := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	walletB := "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	walletC := "0xcccccccccccccccccccccccccccccccccccccccc"
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	skills := stubSkills{
		{SkillID: "0x01", CreatorWallet: walletA, Stars: 10},
		{SkillID: "0x02", CreatorWallet: walletB, Stars: 50},
		{SkillID: "0x03", CreatorWallet: walletC, Stars: 50},
		{SkillID: "0x04", CreatorWallet: walletC, Stars: 7},
	}

	records := stubRecords{
		{
			PeriodStart: base, PeriodEnd: base.Add(time.Hour),
			PerCreatorAmount: map[string]*big.Int{
				walletA: big.NewInt(200),
				walletB: big.NewInt(40),
			},
		},
		{
			PeriodStart: base.Add(time.Hour), PeriodEnd: base.Add(2 * time.Hour),
			PerCreatorAmount: map[string]*big.Int{
				walletB: big.NewInt(60),
				walletC: big.NewInt(100),
			},
		},
	}

	Convey("Given a view over skills and distribution history", t, func() {
		view := leaderboard.New(skills, records)
		ctx := context.Background()

		Convey("When ranking with a generous limit", func() {
			entries, err := view.Rank(ctx, 10)

			Convey("Then earnings aggregate across all records", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 4)
			})

			Convey("Then ordering is earnings desc, stars desc, skill ID asc", func() {
				So(err, ShouldBeNil)
				// walletB and walletC both earned 100 total; stars break the
				// tie between their skills, then skill ID.
				So(entries[0].SkillID, ShouldEqual, "0x01")
				So(entries[0].TotalEarnings.Int64(), ShouldEqual, 200)
				So(entries[1].SkillID, ShouldEqual, "0x02")
				So(entries[2].SkillID, ShouldEqual, "0x03")
				So(entries[3].SkillID, ShouldEqual, "0x04")
			})
		})

		Convey("When the limit truncates the ranking", func() {
			entries, err := view.Rank(ctx, 2)

			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].SkillID, ShouldEqual, "0x01")
		})

		Convey("When the limit is not positive", func() {
			_, err := view.Rank(ctx, 0)

			So(err, ShouldEqual, leaderboard.ErrInvalidLimit)
		})

		Convey("When ranking since a cutoff", func() {
			entries, err := view.RankSince(ctx, 10, base.Add(time.Hour))

			Convey("Then only later periods count", func() {
				So(err, ShouldBeNil)
				// Second record only: walletC 100, walletB 60, walletA 0.
				So(entries[0].CreatorWallet, ShouldEqual, walletC)
				So(entries[0].TotalEarnings.Int64(), ShouldEqual, 100)
				So(entries[len(entries)-1].CreatorWallet, ShouldEqual, walletA)
				So(entries[len(entries)-1].TotalEarnings.Sign(), ShouldEqual, 0)
			})
		})

		Convey("When ranking twice", func() {
			first, err := view.Rank(ctx, 10)
			So(err, ShouldBeNil)
			second, err := view.Rank(ctx, 10)
			So(err, ShouldBeNil)

			Convey("Then the ranking is deterministic", func() {
				So(second, ShouldResemble, first)
			})
		})
	})

	Convey("Given no distribution history", t, func() {
		view := leaderboard.New(skills, stubRecords{})

		Convey("When ranking", func() {
			entries, err := view.Rank(context.Background(), 10)

			Convey("Then all earnings are zero and stars order the board", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 4)
				So(entries[0].SkillID, ShouldEqual, "0x02")
				So(entries[1].SkillID, ShouldEqual, "0x03")
				So(entries[0].TotalEarnings.Sign(), ShouldEqual, 0)
			})
		})
	})
}
