package evaluation_test

import (
	"errors"
	"testing"

	"github.com/okian/scoutlab/internal/domain/evaluation"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassificationMetrics(t *testing.T) {
	Convey("Given three-class predictions", t, func() {
		truth := []float64{0, 0, 1, 1, 2, 2, 2}
		pred := []float64{0, 1, 1, 1, 2, 0, 2}

		m, err := evaluation.Classify(truth, pred)
		So(err, ShouldBeNil)

		Convey("Then accuracy is the share of matches", func() {
			So(m.Accuracy, ShouldAlmostEqual, 5.0/7.0, 1e-12)
		})

		Convey("Then the matrix is square over the observed classes", func() {
			So(m.Confusion.Labels, ShouldResemble, []float64{0, 1, 2})
			So(m.Confusion.Counts, ShouldResemble, [][]int{
				{1, 1, 0},
				{0, 2, 0},
				{1, 0, 2},
			})
		})

		Convey("Then row sums equal per-class actual counts", func() {
			actual := map[float64]int{}
			for _, v := range truth {
				actual[v]++
			}
			for i, row := range m.Confusion.Counts {
				sum := 0
				for _, c := range row {
					sum += c
				}
				So(sum, ShouldEqual, actual[m.Confusion.Labels[i]])
			}
		})

		Convey("Then trace over total equals accuracy", func() {
			So(float64(m.Confusion.Trace())/float64(m.Confusion.Total()), ShouldAlmostEqual, m.Accuracy, 1e-12)
		})

		Convey("Then macro precision and recall average per class", func() {
			// precision: 1/2, 2/3, 2/2 ; recall: 1/2, 2/2, 2/3
			So(m.Precision, ShouldAlmostEqual, (0.5+2.0/3.0+1)/3, 1e-12)
			So(m.Recall, ShouldAlmostEqual, (0.5+1+2.0/3.0)/3, 1e-12)
			So(m.F1, ShouldBeBetween, 0, 1)
		})
	})

	Convey("Given mismatched lengths", t, func() {
		_, err := evaluation.Accuracy([]float64{1}, nil)
		So(errors.Is(err, evaluation.ErrLengthMismatch), ShouldBeTrue)
	})
}

func TestRegressionMetrics(t *testing.T) {
	Convey("Given regression predictions", t, func() {
		truth := []float64{3, -0.5, 2, 7}
		pred := []float64{2.5, 0.0, 2, 8}

		m, err := evaluation.Regress(truth, pred)
		So(err, ShouldBeNil)

		Convey("Then MSE and R2 match the closed forms", func() {
			So(m.MSE, ShouldAlmostEqual, 0.375, 1e-12)
			So(m.R2, ShouldAlmostEqual, 0.9486081370449679, 1e-12)
		})
	})

	Convey("Given a constant truth", t, func() {
		r2, err := evaluation.R2([]float64{1, 1}, []float64{1, 1})
		So(err, ShouldBeNil)
		So(r2, ShouldEqual, 1)

		r2, err = evaluation.R2([]float64{1, 1}, []float64{1, 2})
		So(err, ShouldBeNil)
		So(r2, ShouldEqual, 0)
	})
}
