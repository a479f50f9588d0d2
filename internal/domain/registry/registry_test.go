package registry_test

import (
	"context"
	"testing"

	"github.com/myskills/skillhub/internal/adapters/repository"
	"github.com/myskills/skillhub/internal/domain/metadata"
	"github.com/myskills/skillhub/internal/domain/registry"
	"github.com/myskills/skillhub/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

const (
	walletA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	walletB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func rawSkill(name, repo, wallet string) metadata.Raw {
	return metadata.Raw{
		Name:          name,
		Repository:    repo,
		WalletAddress: wallet,
		Platform:      "github",
		Keywords:      []string{"tools"},
		Stars:         5,
	}
}

func newRegistry(t *testing.T) (*registry.Registry, repository.Store) {
	t.Helper()
	store, err := repository.NewFileStore(t.TempDir())
	So(err, ShouldBeNil)
	r, err := registry.New(context.Background(), store)
	So(err, ShouldBeNil)
	return r, store
}

func TestRegister(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		r, store := newRegistry(t)
		ctx := context.Background()

		Convey("When registering a skill", func() {
			desc, err := r.Register(ctx, rawSkill("PDF Tools", "acme/pdf-tools", walletA))

			Convey("Then the descriptor is normalized and persisted", func() {
				So(err, ShouldBeNil)
				So(desc.SkillID, ShouldStartWith, "0x")
				So(desc.RepositoryURL, ShouldEqual, "https://github.com/acme/pdf-tools")
				So(desc.CreatorWallet, ShouldEqual, walletA)
				So(desc.CreatedAt.IsZero(), ShouldBeFalse)
				So(r.Count(ctx), ShouldEqual, 1)
			})

			Convey("And registering the same source again", func() {
				again, err := r.Register(ctx, rawSkill("pdf tools", "github:acme/pdf-tools", walletB))

				Convey("Then the existing descriptor comes back unchanged", func() {
					So(err, ShouldBeNil)
					So(again.SkillID, ShouldEqual, desc.SkillID)
					So(again.CreatorWallet, ShouldEqual, walletA)
					So(again.CreatedAt.Equal(desc.CreatedAt), ShouldBeTrue)
					So(r.Count(ctx), ShouldEqual, 1)
				})
			})

			Convey("And a fresh registry loads from the same store", func() {
				reloaded, err := registry.New(ctx, store)

				Convey("Then the descriptor survives the restart", func() {
					So(err, ShouldBeNil)
					got, err := reloaded.Get(ctx, desc.SkillID)
					So(err, ShouldBeNil)
					So(got.Name, ShouldEqual, desc.Name)
				})
			})
		})

		Convey("When registering with invalid metadata", func() {
			_, err := r.Register(ctx, rawSkill("", "acme/x", walletA))

			Convey("Then validation fails and nothing is stored", func() {
				So(err, ShouldWrap, metadata.ErrValidation)
				So(r.Count(ctx), ShouldEqual, 0)
			})
		})

		Convey("When registering with a malformed wallet", func() {
			_, err := r.Register(ctx, rawSkill("x", "acme/x", "0xnope"))

			So(err, ShouldWrap, metadata.ErrInvalidWallet)
		})
	})
}

func TestGetAndList(t *testing.T) {
	Convey("Given a registry with a few skills", t, func() {
		r, _ := newRegistry(t)
		ctx := context.Background()

		first, err := r.Register(ctx, metadata.Raw{
			Name: "alpha", Repository: "acme/alpha", WalletAddress: walletA,
			Platform: "github", Keywords: []string{"cli"},
		})
		So(err, ShouldBeNil)
		second, err := r.Register(ctx, metadata.Raw{
			Name: "beta", Repository: "acme/beta", WalletAddress: walletB,
			Platform: "npm", Keywords: []string{"web", "cli"},
		})
		So(err, ShouldBeNil)

		Convey("When fetching by ID", func() {
			got, err := r.Get(ctx, first.SkillID)

			So(err, ShouldBeNil)
			So(got.Name, ShouldEqual, "alpha")
		})

		Convey("When fetching an unknown ID", func() {
			_, err := r.Get(ctx, "0xmissing")

			So(err, ShouldWrap, registry.ErrNotFound)
		})

		Convey("When listing without a filter", func() {
			out := r.List(ctx, registry.Filter{})

			Convey("Then all skills come back", func() {
				So(out, ShouldHaveLength, 2)
			})
		})

		Convey("When filtering by platform", func() {
			out := r.List(ctx, registry.Filter{Platform: "npm"})

			So(out, ShouldHaveLength, 1)
			So(out[0].SkillID, ShouldEqual, second.SkillID)
		})

		Convey("When filtering by keyword", func() {
			out := r.List(ctx, registry.Filter{Keyword: "cli"})

			So(out, ShouldHaveLength, 2)
		})

		Convey("When filtering matches nothing", func() {
			out := r.List(ctx, registry.Filter{Platform: "pypi"})

			So(out, ShouldBeEmpty)
		})
	})
}

func TestRescanAndRemove(t *testing.T) {
	Convey("Given a registry with one skill", t, func() {
		r, _ := newRegistry(t)
		ctx := context.Background()

		desc, err := r.Register(ctx, rawSkill("gamma", "acme/gamma", walletA))
		So(err, ShouldBeNil)

		Convey("When rescanning with fresh metadata", func() {
			fresh := rawSkill("gamma", "acme/gamma", walletA)
			fresh.Stars = 99
			fresh.Keywords = []string{"new", "shiny"}
			updated, err := r.Rescan(ctx, desc.SkillID, fresh)

			Convey("Then only keywords and stars change", func() {
				So(err, ShouldBeNil)
				So(updated.Stars, ShouldEqual, 99)
				So(updated.Keywords, ShouldResemble, []string{"new", "shiny"})
				So(updated.CreatedAt.Equal(desc.CreatedAt), ShouldBeTrue)
				So(updated.CreatorWallet, ShouldEqual, desc.CreatorWallet)
			})
		})

		Convey("When rescanning an unknown skill", func() {
			_, err := r.Rescan(ctx, "0xmissing", rawSkill("gamma", "acme/gamma", walletA))

			So(err, ShouldWrap, registry.ErrNotFound)
		})

		Convey("When removing the skill", func() {
			So(r.Remove(ctx, desc.SkillID), ShouldBeNil)

			Convey("Then it is gone", func() {
				_, err := r.Get(ctx, desc.SkillID)
				So(err, ShouldWrap, registry.ErrNotFound)
				So(r.Count(ctx), ShouldEqual, 0)
			})

			Convey("And removing it again fails", func() {
				So(r.Remove(ctx, desc.SkillID), ShouldWrap, registry.ErrNotFound)
			})
		})
	})
}
