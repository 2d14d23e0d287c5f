package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/pedalsmith/fitlink/config"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"FITLINK_CONFIG",
		"FITLINK_LOG_LEVEL",
		"FITLINK_ADDR",
		"FITLINK_WATCH_DIR",
		"FITLINK_SCAN_INTERVAL",
		"FITLINK_USER_ID",
		"FITLINK_SOURCE",
		"FITLINK_SUMMARY_TTL",
	} {
		_ = os.Unsetenv(key)
	}
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		convey.Convey("When loading with defaults only", func() {
			clearConfigEnvVars()
			_ = os.Setenv("FITLINK_USER_ID", "u1")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then defaults are applied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9110")
				convey.So(cfg.WatchDir, convey.ShouldEqual, "incoming")
				convey.So(cfg.ScanInterval, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.Source, convey.ShouldEqual, "garmin")
				convey.So(cfg.SummaryTTL, convey.ShouldEqual, 48*time.Hour)
			})
		})

		convey.Convey("When environment variables are set", func() {
			clearConfigEnvVars()
			_ = os.Setenv("FITLINK_USER_ID", "u2")
			_ = os.Setenv("FITLINK_ADDR", ":7000")
			_ = os.Setenv("FITLINK_SOURCE", "wahoo")
			_ = os.Setenv("FITLINK_SCAN_INTERVAL", "5s")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.UserID, convey.ShouldEqual, "u2")
				convey.So(cfg.Addr, convey.ShouldEqual, ":7000")
				convey.So(cfg.Source, convey.ShouldEqual, "wahoo")
				convey.So(cfg.ScanInterval, convey.ShouldEqual, 5*time.Second)
			})
		})

		convey.Convey("When a YAML file is provided", func() {
			clearConfigEnvVars()
			dir := t.TempDir()
			path := filepath.Join(dir, "fitlink.yaml")
			yamlBody := "addr: \":7700\"\nwatch_dir: /var/fit\nuser_id: u3\nsource: wahoo\n"
			convey.So(os.WriteFile(path, []byte(yamlBody), 0o644), convey.ShouldBeNil)
			_ = os.Setenv("FITLINK_CONFIG", path)
			// Env still wins over the file.
			_ = os.Setenv("FITLINK_ADDR", ":7701")
			defer clearConfigEnvVars()

			cfg, err := config.Load()

			convey.Convey("Then file values load and env takes precedence", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7701")
				convey.So(cfg.WatchDir, convey.ShouldEqual, "/var/fit")
				convey.So(cfg.UserID, convey.ShouldEqual, "u3")
				convey.So(cfg.Source, convey.ShouldEqual, "wahoo")
			})
		})

		convey.Convey("When required values are missing or invalid", func() {
			clearConfigEnvVars()

			convey.Convey("Then a missing user id fails", func() {
				_, err := config.Load()
				convey.So(err, convey.ShouldNotBeNil)
			})

			convey.Convey("Then an unknown source fails", func() {
				_ = os.Setenv("FITLINK_USER_ID", "u4")
				_ = os.Setenv("FITLINK_SOURCE", "polar")
				defer clearConfigEnvVars()
				_, err := config.Load()
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
