package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	gobreaker "github.com/sony/gobreaker/v2"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/scoutlab/pkg/logger"
)

func ptr[T any](v T) *T { return &v }

// seed writes a small football database to a temp file and returns its path.
func seed(t *testing.T, withAttributes bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "database.sqlite")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	models := []any{&playerRow{}}
	if withAttributes {
		models = append(models, &attributeRow{})
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	players := []playerRow{
		{ID: 1, PlayerAPIID: 505942, PlayerName: "Aaron Appindangoye"},
		{ID: 2, PlayerAPIID: 155782, PlayerName: "Aaron Cresswell"},
	}
	if err := db.Create(&players).Error; err != nil {
		t.Fatalf("insert players: %v", err)
	}
	if withAttributes {
		attrs := []attributeRow{
			{ID: 1, PlayerAPIID: 505942, Date: "2016-02-18 00:00:00", PreferredFoot: ptr("right"), OverallRating: ptr(67.0), Potential: ptr(71.0)},
			{ID: 2, PlayerAPIID: 505942, Date: "2015-11-19 00:00:00", PreferredFoot: ptr("right"), OverallRating: ptr(62.0)},
			{ID: 3, PlayerAPIID: 155782, Date: "2016-04-21 00:00:00", OverallRating: ptr(74.0), ShortPassing: ptr(70.0)},
		}
		if err := db.Create(&attrs).Error; err != nil {
			t.Fatalf("insert attributes: %v", err)
		}
	}
	sqlDB, _ := db.DB()
	_ = sqlDB.Close()
	return path
}

func TestOpen(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	ctx := context.Background()

	Convey("Given no database file", t, func() {
		_, err := Open(ctx, filepath.Join(t.TempDir(), "missing.sqlite"))

		Convey("Then the source is reported unavailable", func() {
			So(errors.Is(err, ErrUnavailable), ShouldBeTrue)
		})
	})

	Convey("Given a database without the attribute table", t, func() {
		_, err := Open(ctx, seed(t, false))
		So(errors.Is(err, ErrUnavailable), ShouldBeTrue)
		So(err.Error(), ShouldContainSubstring, "Player_Attributes")
	})
}

func TestSQLiteStore(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}
	ctx := context.Background()

	Convey("Given a seeded database", t, func() {
		store, err := Open(ctx, seed(t, true))
		So(err, ShouldBeNil)
		defer func() { _ = store.Close() }()

		Convey("When reading players", func() {
			players, err := store.Players(ctx)
			So(err, ShouldBeNil)

			Convey("Then rows map to api ids and names in table order", func() {
				So(len(players), ShouldEqual, 2)
				So(players[0].ID, ShouldEqual, 505942)
				So(players[1].Name, ShouldEqual, "Aaron Cresswell")
			})
		})

		Convey("When reading snapshots", func() {
			snaps, err := store.Snapshots(ctx)
			So(err, ShouldBeNil)

			Convey("Then NULL skills are absent and present ones kept", func() {
				So(len(snaps), ShouldEqual, 3)
				So(snaps[0].PreferredFoot, ShouldEqual, "right")
				So(snaps[0].Skills["overall_rating"], ShouldEqual, 67)
				_, ok := snaps[1].Skills["potential"]
				So(ok, ShouldBeFalse)
				So(snaps[2].PreferredFoot, ShouldEqual, "")
				So(snaps[2].Skills["short_passing"], ShouldEqual, 70)
			})
		})
	})

	Convey("Given a store whose connection died", t, func() {
		store, err := Open(ctx, seed(t, true), WithBreakerThreshold(2), WithBreakerTimeout(time.Minute))
		So(err, ShouldBeNil)
		So(store.Close(), ShouldBeNil)

		Convey("Then failures are unavailable errors and the breaker opens", func() {
			for i := 0; i < 2; i++ {
				_, err := store.Players(ctx)
				So(errors.Is(err, ErrUnavailable), ShouldBeTrue)
				So(errors.Is(err, gobreaker.ErrOpenState), ShouldBeFalse)
			}
			_, err := store.Snapshots(ctx)
			So(errors.Is(err, ErrUnavailable), ShouldBeTrue)
			So(errors.Is(err, gobreaker.ErrOpenState), ShouldBeTrue)
		})
	})
}
