package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/myskills/skillhub/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given no configuration sources", t, func() {
		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then defaults apply", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":9080")
				So(cfg.DataDir, ShouldEqual, "data")
				So(cfg.LogLevel, ShouldEqual, "info")
				So(cfg.MaxLeaderboardLimit, ShouldEqual, 100)
				So(cfg.DistributionInterval(), ShouldEqual, 24*time.Hour)

				pool, err := cfg.PoolAmount()
				So(err, ShouldBeNil)
				So(pool.String(), ShouldEqual, "1000000")

				poolCap, err := cfg.PoolCap()
				So(err, ShouldBeNil)
				So(poolCap, ShouldBeNil)
			})
		})
	})
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("SKILLHUB_ADDR", ":7000")
	t.Setenv("SKILLHUB_DATA_DIR", "/tmp/skillhub")
	t.Setenv("SKILLHUB_LOG_LEVEL", "debug")
	t.Setenv("SKILLHUB_REWARD_POOL", "42")
	t.Setenv("SKILLHUB_REWARD_POOL_CAP", "100")
	t.Setenv("SKILLHUB_DISTRIBUTION_INTERVAL_MIN", "60")

	Convey("Given environment overrides", t, func() {
		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then env wins over defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":7000")
				So(cfg.DataDir, ShouldEqual, "/tmp/skillhub")
				So(cfg.LogLevel, ShouldEqual, "debug")
				So(cfg.DistributionInterval(), ShouldEqual, time.Hour)

				pool, err := cfg.PoolAmount()
				So(err, ShouldBeNil)
				So(pool.Int64(), ShouldEqual, 42)

				poolCap, err := cfg.PoolCap()
				So(err, ShouldBeNil)
				So(poolCap.Int64(), ShouldEqual, 100)
			})
		})
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "addr: \":8123\"\nmax_leaderboard_limit: 25\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SKILLHUB_CONFIG", path)

	Convey("Given a YAML config file", t, func() {
		Convey("When loading", func() {
			cfg, err := config.Load(context.Background())

			Convey("Then file values override defaults", func() {
				So(err, ShouldBeNil)
				So(cfg.Addr, ShouldEqual, ":8123")
				So(cfg.MaxLeaderboardLimit, ShouldEqual, 25)
			})
		})

		Convey("When env overrides the file too", func() {
			t.Setenv("SKILLHUB_ADDR", ":8999")
			cfg, err := config.Load(context.Background())

			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":8999")
		})
	})
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("SKILLHUB_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	Convey("Given a config path that does not exist", t, func() {
		_, err := config.Load(context.Background())

		So(err, ShouldWrap, config.ErrInvalidConfig)
	})
}

func TestLoadInvalidPool(t *testing.T) {
	t.Setenv("SKILLHUB_REWARD_POOL", "lots")

	Convey("Given a reward pool that is not a number", t, func() {
		_, err := config.Load(context.Background())

		So(err, ShouldWrap, config.ErrInvalidConfig)
	})
}

func TestLoadNegativePool(t *testing.T) {
	t.Setenv("SKILLHUB_REWARD_POOL", "-5")

	Convey("Given a negative reward pool", t, func() {
		_, err := config.Load(context.Background())

		So(err, ShouldWrap, config.ErrInvalidConfig)
	})
}

func TestLoadBlankAddr(t *testing.T) {
	t.Setenv("SKILLHUB_ADDR", "")

	Convey("Given a blanked-out listen address", t, func() {
		_, err := config.Load(context.Background())

		So(err, ShouldWrap, config.ErrInvalidConfig)
	})
}
