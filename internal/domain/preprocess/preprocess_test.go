package preprocess_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/scoutlab/internal/domain/preprocess"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMedian(t *testing.T) {
	Convey("Given numeric columns with gaps", t, func() {
		nan := math.NaN()

		Convey("Then the median ignores missing values", func() {
			So(preprocess.Median([]float64{3, nan, 1, 2}), ShouldEqual, 2)
			So(preprocess.Median([]float64{4, 1, nan, 3, 2}), ShouldEqual, 2.5)
		})

		Convey("Then a column without observations yields zero", func() {
			So(preprocess.Median([]float64{nan, nan}), ShouldEqual, 0)
			So(preprocess.Median(nil), ShouldEqual, 0)
		})
	})
}

func TestNumericImputer(t *testing.T) {
	Convey("Given a column with k missing entries", t, func() {
		nan := math.NaN()
		values := []float64{22, nan, 38, 26, nan, 35}
		imp := preprocess.FitNumeric(values)

		Convey("When transforming", func() {
			out, err := imp.Transform(values)
			So(err, ShouldBeNil)

			Convey("Then no entry is missing and the filled ones equal the median", func() {
				So(imp.Fill, ShouldEqual, 30.5)
				for i, v := range out {
					So(math.IsNaN(v), ShouldBeFalse)
					if math.IsNaN(values[i]) {
						So(v, ShouldEqual, 30.5)
					} else {
						So(v, ShouldEqual, values[i])
					}
				}
			})

			Convey("Then the input slice is not modified", func() {
				So(math.IsNaN(values[1]), ShouldBeTrue)
			})
		})

		Convey("When applied to another table it reuses the learned median", func() {
			out, err := imp.Transform([]float64{nan, 100, 100})
			So(err, ShouldBeNil)
			So(out[0], ShouldEqual, 30.5)
		})
	})

	Convey("Given an unfitted imputer", t, func() {
		var imp *preprocess.NumericImputer
		_, err := imp.Transform([]float64{1})
		So(errors.Is(err, preprocess.ErrNotFitted), ShouldBeTrue)
	})
}

func TestMode(t *testing.T) {
	Convey("Given categorical labels", t, func() {
		Convey("Then the most frequent present label wins", func() {
			m, ok := preprocess.Mode([]string{"S", "C", "S", "", "Q"}, []bool{false, false, false, true, false})
			So(ok, ShouldBeTrue)
			So(m, ShouldEqual, "S")
		})

		Convey("Then ties go to the smallest label", func() {
			m, _ := preprocess.Mode([]string{"b", "a", "b", "a"}, nil)
			So(m, ShouldEqual, "a")
		})

		Convey("Then nothing present reports not ok", func() {
			_, ok := preprocess.Mode([]string{""}, []bool{true})
			So(ok, ShouldBeFalse)
		})
	})
}

func TestModeFloat(t *testing.T) {
	Convey("Given a numeric class column with gaps", t, func() {
		m, ok := preprocess.ModeFloat([]float64{1, 0, math.NaN(), 1, 0})
		So(ok, ShouldBeTrue)
		So(m, ShouldEqual, 0)

		_, ok = preprocess.ModeFloat([]float64{math.NaN()})
		So(ok, ShouldBeFalse)
	})
}

func TestCategoricalImputer(t *testing.T) {
	Convey("Given a feature column with missing labels", t, func() {
		imp := preprocess.CategoricalImputer{Fill: preprocess.MissingLabel}
		out := imp.Transform([]string{"a", "", "b"}, []bool{false, true, false})
		So(out, ShouldResemble, []string{"a", "missing", "b"})
	})
}

func TestLabelEncoder(t *testing.T) {
	Convey("Given a fitted label encoder", t, func() {
		labels := []string{"No", "Yes", "No", "Maybe", "Yes"}
		enc := preprocess.FitLabels("Churn", labels)

		Convey("Then codes follow first-seen order", func() {
			So(enc.Classes(), ShouldResemble, []string{"No", "Yes", "Maybe"})
			codes, err := enc.Encode(labels)
			So(err, ShouldBeNil)
			So(codes, ShouldResemble, []float64{0, 1, 0, 2, 1})
		})

		Convey("Then decoding an encoding returns the original labels", func() {
			codes, err := enc.Encode(labels)
			So(err, ShouldBeNil)
			back, err := enc.Decode(codes)
			So(err, ShouldBeNil)
			So(back, ShouldResemble, labels)
		})

		Convey("Then an unseen label is an error naming column and value", func() {
			_, err := enc.Encode([]string{"No", "Perhaps"})
			So(errors.Is(err, preprocess.ErrUnseenCategory), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, `"Churn"`)
			So(err.Error(), ShouldContainSubstring, `"Perhaps"`)
		})

		Convey("Then decoding an unknown code fails", func() {
			_, err := enc.Decode([]float64{7})
			So(errors.Is(err, preprocess.ErrUnknownCode), ShouldBeTrue)
			_, err = enc.Decode([]float64{0.5})
			So(errors.Is(err, preprocess.ErrUnknownCode), ShouldBeTrue)
		})
	})
}
