package metadata_test

import (
	"strings"
	"testing"

	"github.com/myskills/skillhub/internal/domain/metadata"
	. "github.com/smartystreets/goconvey/convey"
)

const wallet = "0x00112233445566778899aabbccddeeff00112233"

func TestParseRepositoryURL(t *testing.T) {
	Convey("Given repository locations in provider shorthand", t, func() {
		cases := map[string]string{
			"https://github.com/acme/tools":     "https://github.com/acme/tools",
			"https://github.com/acme/tools.git": "https://github.com/acme/tools",
			"github.com/acme/tools":             "https://github.com/acme/tools",
			"github:acme/tools":                 "https://github.com/acme/tools",
			"gh:acme/tools":                     "https://github.com/acme/tools",
			"acme/tools":                        "https://github.com/acme/tools",
			"https://gitlab.com/acme/tools":     "https://gitlab.com/acme/tools",
		}

		for in, want := range cases {
			Convey("When parsing "+in, func() {
				got, err := metadata.ParseRepositoryURL(in)

				Convey("Then it canonicalizes to "+want, func() {
					So(err, ShouldBeNil)
					So(got, ShouldEqual, want)
				})
			})
		}

		Convey("When the location is unparseable", func() {
			_, err := metadata.ParseRepositoryURL("not a repository")

			Convey("Then it fails with the repository sentinel", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "repository")
			})
		})
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given raw provider metadata", t, func() {
		raw := metadata.Raw{
			Name:          "  PDF Tools  ",
			Description:   " extracts text ",
			Repository:    "acme/pdf-tools",
			WalletAddress: strings.ToUpper(wallet[:2]) + wallet[2:],
			Keywords:      []string{"PDF", "pdf", " Text ", ""},
			Stars:         42,
		}

		Convey("When normalizing", func() {
			desc, err := metadata.Normalize(raw)

			Convey("Then fields are trimmed and canonicalized", func() {
				So(err, ShouldBeNil)
				So(desc.Name, ShouldEqual, "PDF Tools")
				So(desc.Description, ShouldEqual, "extracts text")
				So(desc.RepositoryURL, ShouldEqual, "https://github.com/acme/pdf-tools")
				So(desc.CreatorWallet, ShouldEqual, wallet)
				So(desc.Keywords, ShouldResemble, []string{"pdf", "text"})
				So(desc.Stars, ShouldEqual, 42)
				So(desc.Platform, ShouldNotBeEmpty)
			})
		})

		Convey("When the name is missing", func() {
			raw.Name = "   "
			_, err := metadata.Normalize(raw)

			So(err, ShouldWrap, metadata.ErrValidation)
			So(err, ShouldWrap, metadata.ErrMissingName)
		})

		Convey("When the repository is missing", func() {
			raw.Repository = ""
			_, err := metadata.Normalize(raw)

			So(err, ShouldWrap, metadata.ErrMissingRepository)
		})

		Convey("When the wallet is missing", func() {
			raw.WalletAddress = ""
			_, err := metadata.Normalize(raw)

			So(err, ShouldWrap, metadata.ErrMissingWallet)
		})

		Convey("When the wallet is malformed", func() {
			raw.WalletAddress = "0x123"
			_, err := metadata.Normalize(raw)

			So(err, ShouldWrap, metadata.ErrInvalidWallet)
		})

		Convey("When stars are negative", func() {
			raw.Stars = -3
			desc, err := metadata.Normalize(raw)

			So(err, ShouldBeNil)
			So(desc.Stars, ShouldEqual, 0)
		})
	})
}

func TestSkillID(t *testing.T) {
	Convey("Given the skill ID derivation", t, func() {
		Convey("When deriving twice from the same source", func() {
			a := metadata.SkillID("https://github.com/acme/tools", "PDF Tools")
			b := metadata.SkillID("https://github.com/acme/tools", "PDF Tools")

			Convey("Then the IDs are identical and well formed", func() {
				So(a, ShouldEqual, b)
				So(a, ShouldStartWith, "0x")
				So(len(a), ShouldEqual, 66)
			})
		})

		Convey("When names differ only in casing or spacing", func() {
			a := metadata.SkillID("https://github.com/acme/tools", "PDF Tools")
			b := metadata.SkillID("https://github.com/acme/tools", "pdf tools")

			Convey("Then slugging makes them the same skill", func() {
				So(a, ShouldEqual, b)
			})
		})

		Convey("When the repository differs", func() {
			a := metadata.SkillID("https://github.com/acme/tools", "PDF Tools")
			b := metadata.SkillID("https://github.com/other/tools", "PDF Tools")

			So(a, ShouldNotEqual, b)
		})
	})
}

func TestValidWallet(t *testing.T) {
	Convey("Given wallet address candidates", t, func() {
		So(metadata.ValidWallet(wallet), ShouldBeTrue)
		So(metadata.ValidWallet(strings.ToUpper(wallet[2:])), ShouldBeFalse)
		So(metadata.ValidWallet("0x"+strings.Repeat("g", 40)), ShouldBeFalse)
		So(metadata.ValidWallet("0x"+strings.Repeat("a", 39)), ShouldBeFalse)
		So(metadata.ValidWallet("0x"+strings.Repeat("A", 40)), ShouldBeTrue)
	})
}
