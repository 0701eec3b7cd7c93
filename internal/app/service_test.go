package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/okian/scoutlab/internal/adapters/repository"
	service "github.com/okian/scoutlab/internal/app"
	"github.com/okian/scoutlab/internal/domain/dataset"
	"github.com/okian/scoutlab/internal/domain/forest"
	"github.com/okian/scoutlab/internal/domain/recommend"
	"github.com/okian/scoutlab/internal/domain/trainer"
	"github.com/okian/scoutlab/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// fakeStore serves a fixed league and can be told to fail.
type fakeStore struct {
	mu    sync.Mutex
	fail  bool
	loads int
}

func (f *fakeStore) Players(context.Context) ([]recommend.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.fail {
		return nil, fmt.Errorf("%w: connection refused", repository.ErrUnavailable)
	}
	out := make([]recommend.Player, 0, 30)
	for i := 0; i < 30; i++ {
		out = append(out, recommend.Player{ID: int64(100 + i), Name: fmt.Sprintf("Player %d", 100+i)})
	}
	return out, nil
}

func (f *fakeStore) Snapshots(context.Context) ([]recommend.Snapshot, error) {
	out := make([]recommend.Snapshot, 0, 30)
	for i := 0; i < 30; i++ {
		skills := map[string]float64{}
		for j, name := range recommend.Features {
			skills[name] = float64(30 + (i*(j+5)+j)%60)
		}
		out = append(out, recommend.Snapshot{PlayerID: int64(100 + i), Date: "2016-01-01", PreferredFoot: "left", Skills: skills})
	}
	return out, nil
}

func (f *fakeStore) Close() error { return nil }

func (f *fakeStore) setFail(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail = v
}

func titanic(n int) []byte {
	var b strings.Builder
	b.WriteString("PassengerId,Pclass,Sex,Age,Survived\n")
	for i := 0; i < n; i++ {
		sex, survived := "male", "0"
		if i%2 == 0 {
			sex, survived = "female", "1"
		}
		fmt.Fprintf(&b, "%d,%d,%s,%d,%s\n", i+1, 1+i%3, sex, 18+i%40, survived)
	}
	return []byte(b.String())
}

func started(opts ...service.Option) *service.Service {
	svc := service.New(append([]service.Option{service.WithForest(10, 42)}, opts...)...)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithSessionCacheSize(8), service.WithMemoCacheSize(4))

		Convey("When it is not started", func() {
			_, err := svc.CreateSession(ctx)
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When starting the service", func() {
			So(svc.Start(ctx), ShouldBeNil)
			defer svc.Stop()

			Convey("Then stats reflect the configuration", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["sessionCacheSize"], ShouldEqual, 8)
				So(stats["memoCacheSize"], ShouldEqual, 4)
				So(stats["activeSessions"], ShouldEqual, 0)
				So(stats["catalogLoaded"], ShouldEqual, false)
			})

			Convey("Then starting twice is harmless", func() {
				So(svc.Start(ctx), ShouldBeNil)
			})
		})
	})
}

func TestService_Sessions(t *testing.T) {
	Convey("Given a started service with room for two sessions", t, func() {
		ctx := context.Background()
		svc := started(service.WithSessionCacheSize(2))
		defer svc.Stop()

		a, err := svc.CreateSession(ctx)
		So(err, ShouldBeNil)
		So(a.ID, ShouldNotBeEmpty)

		Convey("When ending it", func() {
			So(svc.EndSession(ctx, a.ID), ShouldBeNil)

			Convey("Then it is gone", func() {
				err := svc.EndSession(ctx, a.ID)
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				So(service.ErrorKind(err), ShouldEqual, service.KindNotFound)
			})
		})

		Convey("When more sessions than the table holds are created", func() {
			_, _ = svc.CreateSession(ctx)
			_, _ = svc.CreateSession(ctx)

			Convey("Then the least recently used one is ended", func() {
				_, err := svc.Inspect(ctx, a.ID, service.Upload{Filename: "a.csv", Content: titanic(3)})
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
				So(svc.GetStats()["activeSessions"], ShouldEqual, 2)
			})
		})
	})
}

func TestService_Trainer(t *testing.T) {
	Convey("Given a session", t, func() {
		ctx := context.Background()
		svc := started()
		defer svc.Stop()
		sess, err := svc.CreateSession(ctx)
		So(err, ShouldBeNil)
		up := service.Upload{Filename: "titanic.csv", Content: titanic(40)}

		Convey("When inspecting an upload", func() {
			ins, err := svc.Inspect(ctx, sess.ID, up)
			So(err, ShouldBeNil)

			Convey("Then columns, kinds and a preview are reported", func() {
				So(ins.Rows, ShouldEqual, 40)
				So(len(ins.Columns), ShouldEqual, 5)
				So(ins.Columns[2], ShouldResemble, service.ColumnInfo{Name: "Sex", Kind: "categorical", Missing: 0})
				So(ins.Header[0], ShouldEqual, "PassengerId")
				So(len(ins.Preview), ShouldEqual, 5)
			})
		})

		Convey("When the upload has an unsupported format", func() {
			_, err := svc.Inspect(ctx, sess.ID, service.Upload{Filename: "titanic.json", Content: []byte("{}")})
			So(errors.Is(err, dataset.ErrUnsupportedFormat), ShouldBeTrue)
			So(service.ErrorKind(err), ShouldEqual, service.KindInputFormat)
		})

		Convey("When a regression target holds infinities", func() {
			inf := service.Upload{Filename: "inf.csv", Content: []byte("x,y\n1,2\n2,inf\n3,4\n4,5\n")}
			_, err := svc.Train(ctx, sess.ID, inf, service.TrainRequest{Target: "y", Problem: trainer.Regression})

			Convey("Then it is a schema error the caller can correct", func() {
				So(errors.Is(err, trainer.ErrTargetNotNumeric), ShouldBeTrue)
				So(service.ErrorKind(err), ShouldEqual, service.KindSchema)
			})
		})

		Convey("When fitting rejects non-finite data", func() {
			err := fmt.Errorf("fit: %w", forest.ErrNonFinite)
			So(service.ErrorKind(err), ShouldEqual, service.KindSchema)
		})

		Convey("When the declared target is missing", func() {
			res, err := svc.Train(ctx, sess.ID, up, service.TrainRequest{Target: "Survivors", Problem: trainer.Classification})

			Convey("Then a schema error names it and no model is kept", func() {
				So(res, ShouldBeNil)
				So(errors.Is(err, dataset.ErrMissingColumn), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "Survivors")
				So(service.ErrorKind(err), ShouldEqual, service.KindSchema)

				_, err = svc.Predict(ctx, sess.ID, up)
				So(errors.Is(err, service.ErrNoModel), ShouldBeTrue)
			})
		})

		Convey("When training a classifier", func() {
			req := service.TrainRequest{Target: "Survived", Problem: trainer.Classification}
			res, err := svc.Train(ctx, sess.ID, up, req)
			So(err, ShouldBeNil)

			Convey("Then training-set metrics are reported", func() {
				So(res.Rows, ShouldEqual, 40)
				So(res.Features, ShouldResemble, []string{"PassengerId", "Pclass", "Sex", "Age"})
				So(res.Metrics.Classification, ShouldNotBeNil)
				So(res.Cached, ShouldBeFalse)
			})

			Convey("Then an identical request reuses the memoized run", func() {
				again, err := svc.Train(ctx, sess.ID, up, req)
				So(err, ShouldBeNil)
				So(again.Cached, ShouldBeTrue)
				So(again.Metrics, ShouldResemble, res.Metrics)
			})

			Convey("Then predictions are appended to a new upload", func() {
				out, err := svc.Predict(ctx, sess.ID, service.Upload{Filename: "new.csv", Content: titanic(6)})
				So(err, ShouldBeNil)
				So(out.Len(), ShouldEqual, 6)
				So(out.Has(trainer.PredictionColumn), ShouldBeTrue)
			})

			Convey("Then a prediction upload missing a feature is rejected", func() {
				_, err := svc.Predict(ctx, sess.ID, service.Upload{Filename: "new.csv", Content: []byte("Pclass,Sex\n1,male\n")})
				So(errors.Is(err, dataset.ErrMissingColumn), ShouldBeTrue)
			})

			Convey("Then ending the session drops the model", func() {
				So(svc.EndSession(ctx, sess.ID), ShouldBeNil)
				_, err := svc.Predict(ctx, sess.ID, up)
				So(errors.Is(err, service.ErrSessionNotFound), ShouldBeTrue)
			})
		})

		Convey("When training a regressor on a categorical target", func() {
			_, err := svc.Train(ctx, sess.ID, up, service.TrainRequest{Target: "Sex", Problem: trainer.Regression})
			So(errors.Is(err, trainer.ErrTargetNotNumeric), ShouldBeTrue)
		})
	})
}

func TestService_Recommender(t *testing.T) {
	Convey("Given a service over a player store", t, func() {
		ctx := context.Background()
		store := &fakeStore{}
		svc := started(service.WithPlayerStore(store), service.WithMaxRecommendations(10))
		defer svc.Stop()

		Convey("When asking for similar players", func() {
			recs, err := svc.Recommend(ctx, 110, 5)
			So(err, ShouldBeNil)

			Convey("Then the anchor is excluded and the catalog is loaded once", func() {
				So(len(recs), ShouldEqual, 5)
				for _, r := range recs {
					So(r.PlayerID, ShouldNotEqual, 110)
				}
				_, err := svc.Recommend(ctx, 111, 3)
				So(err, ShouldBeNil)
				So(store.loads, ShouldEqual, 1)
				So(svc.GetStats()["catalogPlayers"], ShouldEqual, 30)
			})
		})

		Convey("When k exceeds the configured maximum", func() {
			_, err := svc.Recommend(ctx, 110, 11)
			So(errors.Is(err, recommend.ErrInvalidK), ShouldBeTrue)
		})

		Convey("When the anchor is unknown", func() {
			_, err := svc.Recommend(ctx, 1, 5)
			So(service.ErrorKind(err), ShouldEqual, service.KindNotFound)
		})

		Convey("When searching players", func() {
			found, err := svc.Players(ctx, "player 12", 3)
			So(err, ShouldBeNil)
			So(len(found), ShouldEqual, 3)
		})

		Convey("When the store is down", func() {
			store.setFail(true)
			_, err := svc.Recommend(ctx, 110, 5)

			Convey("Then a data source error is returned and not remembered", func() {
				So(errors.Is(err, repository.ErrUnavailable), ShouldBeTrue)
				So(service.ErrorKind(err), ShouldEqual, service.KindDataSource)

				store.setFail(false)
				recs, err := svc.Recommend(ctx, 110, 5)
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 5)
			})
		})
	})

	Convey("Given a service whose database file does not exist", t, func() {
		svc := started(service.WithPlayerDB("/nonexistent/database.sqlite", 0))
		defer svc.Stop()

		_, err := svc.Players(context.Background(), "", 5)
		So(errors.Is(err, repository.ErrUnavailable), ShouldBeTrue)
	})
}
