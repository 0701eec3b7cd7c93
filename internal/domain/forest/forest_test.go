package forest_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/scoutlab/internal/domain/forest"
	. "github.com/smartystreets/goconvey/convey"
)

func separable() ([][]float64, []float64) {
	x := make([][]float64, 0, 40)
	y := make([]float64, 0, 40)
	for i := 0; i < 40; i++ {
		x = append(x, []float64{float64(i)})
		if i >= 20 {
			y = append(y, 1)
		} else {
			y = append(y, 0)
		}
	}
	return x, y
}

func TestFitClassifier(t *testing.T) {
	Convey("Given a separable two-class problem", t, func() {
		x, y := separable()

		clf, err := forest.FitClassifier(x, y, forest.WithTrees(25))
		So(err, ShouldBeNil)

		Convey("Then classes are the sorted distinct targets", func() {
			So(clf.Classes(), ShouldResemble, []float64{0, 1})
		})

		Convey("Then training predictions have one entry per row and fit the data", func() {
			pred := clf.PredictBatch(x)
			So(len(pred), ShouldEqual, len(x))
			So(pred, ShouldResemble, y)
		})

		Convey("Then class probabilities sum to one", func() {
			p := clf.PredictProba([]float64{3})
			So(p[0]+p[1], ShouldAlmostEqual, 1.0, 1e-9)
			So(p[0], ShouldBeGreaterThan, p[1])
		})
	})

	Convey("Given non-contiguous class values", t, func() {
		x := [][]float64{{1}, {2}, {3}, {10}, {11}, {12}}
		y := []float64{7, 7, 7, -3, -3, -3}
		clf, err := forest.FitClassifier(x, y, forest.WithTrees(10))
		So(err, ShouldBeNil)
		So(clf.Classes(), ShouldResemble, []float64{-3, 7})
		So(clf.Predict([]float64{1.5}), ShouldEqual, 7)
		So(clf.Predict([]float64{11.5}), ShouldEqual, -3)
	})
}

func TestFitIsReproducible(t *testing.T) {
	Convey("Given the same data and seed", t, func() {
		x, y := separable()
		probe := [][]float64{{19.5}, {20.2}, {5}, {33}}

		a, err := forest.FitClassifier(x, y, forest.WithTrees(15), forest.WithSeed(7))
		So(err, ShouldBeNil)
		b, err := forest.FitClassifier(x, y, forest.WithTrees(15), forest.WithSeed(7), forest.WithWorkers(4))
		So(err, ShouldBeNil)

		Convey("Then worker count does not change the model", func() {
			for _, p := range probe {
				So(a.PredictProba(p), ShouldResemble, b.PredictProba(p))
			}
		})
	})

	Convey("Given a progress callback", t, func() {
		x, y := separable()
		var calls, last, reported int
		_, err := forest.FitRegressor(x, y, forest.WithTrees(6), forest.WithProgress(func(done, total int) {
			calls++
			last = done
			reported = total
		}))
		So(err, ShouldBeNil)
		So(calls, ShouldEqual, 6)
		So(last, ShouldEqual, 6)
		So(reported, ShouldEqual, 6)
	})
}

func TestFitRegressor(t *testing.T) {
	Convey("Given a linear target", t, func() {
		x := make([][]float64, 0, 50)
		y := make([]float64, 0, 50)
		for i := 0; i < 50; i++ {
			x = append(x, []float64{float64(i)})
			y = append(y, 2*float64(i)+1)
		}
		reg, err := forest.FitRegressor(x, y, forest.WithTrees(30))
		So(err, ShouldBeNil)

		Convey("Then training predictions stay close to the target", func() {
			pred := reg.PredictBatch(x)
			So(len(pred), ShouldEqual, len(y))
			var worst float64
			for i := range pred {
				worst = math.Max(worst, math.Abs(pred[i]-y[i]))
			}
			So(worst, ShouldBeLessThan, 4)
		})

		Convey("Then a depth limit of one yields at most two distinct outputs per tree", func() {
			stump, err := forest.FitRegressor(x, y, forest.WithTrees(1), forest.WithMaxDepth(1))
			So(err, ShouldBeNil)
			seen := map[float64]struct{}{}
			for _, row := range x {
				seen[stump.Predict(row)] = struct{}{}
			}
			So(len(seen), ShouldBeLessThanOrEqualTo, 2)
		})
	})
}

func TestFitValidation(t *testing.T) {
	Convey("Given invalid training input", t, func() {
		Convey("When nothing is supplied", func() {
			_, err := forest.FitClassifier(nil, nil)
			So(errors.Is(err, forest.ErrEmptyTrainingSet), ShouldBeTrue)
		})

		Convey("When rows and targets disagree", func() {
			_, err := forest.FitRegressor([][]float64{{1}, {2}}, []float64{1})
			So(errors.Is(err, forest.ErrShapeMismatch), ShouldBeTrue)
		})

		Convey("When rows are ragged", func() {
			_, err := forest.FitRegressor([][]float64{{1, 2}, {2}}, []float64{1, 2})
			So(errors.Is(err, forest.ErrRaggedMatrix), ShouldBeTrue)
		})

		Convey("When a value is NaN", func() {
			_, err := forest.FitClassifier([][]float64{{1}, {math.NaN()}}, []float64{0, 1})
			So(errors.Is(err, forest.ErrNonFinite), ShouldBeTrue)
		})
	})
}
