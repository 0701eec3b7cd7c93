package recommend_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/okian/scoutlab/internal/domain/recommend"
	. "github.com/smartystreets/goconvey/convey"
)

// skills builds a full raw skill set whose values depend on seed.
func skills(seed int) map[string]float64 {
	m := make(map[string]float64, len(recommend.Features))
	for f, name := range recommend.Features {
		if name == recommend.FeaturePassing {
			continue
		}
		m[name] = float64(40 + (seed*(f+3)+f*f)%55)
	}
	return m
}

func league(n int) ([]recommend.Player, []recommend.Snapshot) {
	players := make([]recommend.Player, 0, n)
	snaps := make([]recommend.Snapshot, 0, 2*n)
	for i := 0; i < n; i++ {
		id := int64(100 + i)
		players = append(players, recommend.Player{ID: id, Name: fmt.Sprintf("Player %d", id)})
		foot := "right"
		if i%4 == 0 {
			foot = "left"
		}
		snaps = append(snaps,
			recommend.Snapshot{PlayerID: id, Date: "2014-09-18 00:00:00", PreferredFoot: foot, Skills: skills(i + 1)},
			recommend.Snapshot{PlayerID: id, Date: "2010-02-22 00:00:00", PreferredFoot: foot, Skills: skills(1000 + i)},
		)
	}
	return players, snaps
}

func TestBuildCatalog(t *testing.T) {
	Convey("Given players with several snapshots each", t, func() {
		players, snaps := league(5)
		players = append(players, recommend.Player{ID: 999, Name: "No Attributes"})

		cat, err := recommend.BuildCatalog(players, snaps)
		So(err, ShouldBeNil)

		Convey("Then players without a snapshot are excluded", func() {
			So(cat.Len(), ShouldEqual, 5)
			_, ok := cat.Player(999)
			So(ok, ShouldBeFalse)
		})

		Convey("Then every feature is standardized over the joined set", func() {
			for f := range recommend.Features {
				var sum, sq float64
				for id := int64(100); id < 105; id++ {
					v, _ := cat.Vector(id)
					So(len(v), ShouldEqual, 31)
					sum += v[f]
					sq += v[f] * v[f]
				}
				So(sum/5, ShouldAlmostEqual, 0, 1e-9)
				if sq > 0 {
					So(sq/5, ShouldAlmostEqual, 1, 1e-9)
				}
			}
		})
	})

	Convey("Given snapshots dated differently", t, func() {
		players := []recommend.Player{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}
		old := skills(1)
		old["overall_rating"] = 50
		newer := skills(1)
		newer["overall_rating"] = 80
		same := skills(1)
		same["overall_rating"] = 90
		snaps := []recommend.Snapshot{
			{PlayerID: 1, Date: "2015-01-01", Skills: newer},
			{PlayerID: 1, Date: "2012-01-01", Skills: old},
			{PlayerID: 2, Date: "2013-01-01", Skills: skills(2)},
			{PlayerID: 3, Date: "2013-01-01", Skills: old},
			{PlayerID: 3, Date: "2013-01-01", Skills: same},
		}
		cat, err := recommend.BuildCatalog(players, snaps)
		So(err, ShouldBeNil)

		Convey("Then only the latest snapshot is kept and equal dates keep the later row", func() {
			recs, err := cat.Recommend(2, 2)
			So(err, ShouldBeNil)
			ratings := map[int64]float64{}
			for _, r := range recs {
				ratings[r.PlayerID] = r.OverallRating
			}
			So(ratings[1], ShouldEqual, 80)
			So(ratings[3], ShouldEqual, 90)
		})
	})

	Convey("Given gaps in the skills", t, func() {
		players := []recommend.Player{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}
		a, b, c := skills(1), skills(2), skills(3)
		a["potential"] = 60
		b["potential"] = 70
		delete(c, "potential")
		c["short_passing"] = math.NaN()
		cat, err := recommend.BuildCatalog(players, []recommend.Snapshot{
			{PlayerID: 1, Date: "2015", Skills: a},
			{PlayerID: 2, Date: "2015", Skills: b},
			{PlayerID: 3, Date: "2015", Skills: c},
		})
		So(err, ShouldBeNil)

		Convey("Then missing values take the column median", func() {
			recs, err := cat.Recommend(1, 5)
			So(err, ShouldBeNil)
			for _, r := range recs {
				if r.PlayerID == 3 {
					So(r.Potential, ShouldEqual, 65)
				}
			}
		})

		Convey("Then a player missing half of passing still gets a finite vector", func() {
			v, ok := cat.Vector(3)
			So(ok, ShouldBeTrue)
			for _, x := range v {
				So(math.IsNaN(x), ShouldBeFalse)
			}
		})
	})

	Convey("Given no usable snapshot", t, func() {
		_, err := recommend.BuildCatalog([]recommend.Player{{ID: 1}}, nil)
		So(errors.Is(err, recommend.ErrEmptyCatalog), ShouldBeTrue)
	})
}

func TestRecommend(t *testing.T) {
	Convey("Given a catalog of forty players", t, func() {
		players, snaps := league(40)
		cat, err := recommend.BuildCatalog(players, snaps)
		So(err, ShouldBeNil)

		Convey("When asking for five players like 123", func() {
			recs, err := cat.Recommend(123, 5)
			So(err, ShouldBeNil)

			Convey("Then exactly five ranked players are returned without the anchor", func() {
				self, err := cat.Similarity(123, 123)
				So(err, ShouldBeNil)
				So(self, ShouldAlmostEqual, 1.0, 1e-12)

				So(len(recs), ShouldEqual, 5)
				for i, r := range recs {
					So(r.PlayerID, ShouldNotEqual, 123)
					So(r.Score, ShouldBeLessThanOrEqualTo, self+1e-12)
					if i > 0 {
						So(r.Score, ShouldBeLessThanOrEqualTo, recs[i-1].Score)
					}
				}
			})

			Convey("Then repeated calls return the identical list", func() {
				again, err := cat.Recommend(123, 5)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, recs)
			})
		})

		Convey("When k exceeds the catalog", func() {
			recs, err := cat.Recommend(100, 500)
			So(err, ShouldBeNil)
			So(len(recs), ShouldEqual, 39)
		})

		Convey("When k is not positive", func() {
			_, err := cat.Recommend(100, 0)
			So(errors.Is(err, recommend.ErrInvalidK), ShouldBeTrue)
		})

		Convey("When the anchor is unknown", func() {
			_, err := cat.Recommend(1, 5)
			So(errors.Is(err, recommend.ErrPlayerNotFound), ShouldBeTrue)
		})
	})

	Convey("Given players with identical skills", t, func() {
		players := []recommend.Player{{ID: 7, Name: "Anchor"}, {ID: 3, Name: "Twin B"}, {ID: 5, Name: "Twin A"}, {ID: 9, Name: "Other"}}
		snaps := []recommend.Snapshot{
			{PlayerID: 7, Date: "2015", Skills: skills(1)},
			{PlayerID: 5, Date: "2015", Skills: skills(2)},
			{PlayerID: 3, Date: "2015", Skills: skills(2)},
			{PlayerID: 9, Date: "2015", Skills: skills(3)},
		}
		cat, err := recommend.BuildCatalog(players, snaps)
		So(err, ShouldBeNil)

		Convey("Then equal scores keep catalog order", func() {
			recs, err := cat.Recommend(7, 3)
			So(err, ShouldBeNil)
			pos := map[int64]int{}
			for i, r := range recs {
				pos[r.PlayerID] = i
			}
			So(recs[pos[3]].Score, ShouldEqual, recs[pos[5]].Score)
			So(pos[3], ShouldBeLessThan, pos[5])
		})
	})
}

func TestSearch(t *testing.T) {
	Convey("Given a catalog", t, func() {
		players, snaps := league(30)
		cat, err := recommend.BuildCatalog(players, snaps)
		So(err, ShouldBeNil)

		Convey("Then the label matches name or id case-insensitively", func() {
			found := cat.Search("player 12", 0)
			So(len(found), ShouldEqual, 10)
			So(found[0].Label(), ShouldEqual, "Player 120 - 120")

			So(cat.Search("- 105", 0), ShouldResemble, []recommend.Player{{ID: 105, Name: "Player 105"}})
		})

		Convey("Then the limit caps the result", func() {
			So(len(cat.Search("", 4)), ShouldEqual, 4)
		})
	})
}
