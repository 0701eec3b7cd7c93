package trainer

import (
	"fmt"

	"github.com/okian/scoutlab/internal/domain/dataset"
	"github.com/okian/scoutlab/internal/domain/preprocess"
)

// Feature is the learned treatment of one input column.
type Feature struct {
	Name    string
	Kind    dataset.Kind
	Imputer *preprocess.NumericImputer // numeric features
	Encoder *preprocess.LabelEncoder   // categorical features
}

// Schema captures everything a run learned about its training table and
// reapplies verbatim to prediction tables.
type Schema struct {
	Target     string
	TargetKind dataset.Kind
	TargetFill string
	Problem    ProblemType
	Features   []Feature
	// Labels decodes class codes; nil unless the target was categorical.
	Labels *preprocess.LabelEncoder
}

// FeatureNames lists the feature columns in matrix order.
func (s *Schema) FeatureNames() []string {
	out := make([]string, len(s.Features))
	for i, f := range s.Features {
		out[i] = f.Name
	}
	return out
}

// Prepared is an imputed, encoded training matrix.
type Prepared struct {
	Schema *Schema
	X      [][]float64
	Y      []float64
}

// Rows returns the number of training rows.
func (p *Prepared) Rows() int { return len(p.Y) }

// Prepare imputes and encodes every column of t. The target column is
// required; every other column becomes a feature.
func Prepare(t *dataset.Table, target string, problem ProblemType) (*Prepared, error) {
	if problem != Classification && problem != Regression {
		return nil, fmt.Errorf("%w: %d", ErrUnknownProblemType, problem)
	}
	tc, err := t.Column(target)
	if err != nil {
		return nil, err
	}
	schema := &Schema{Target: target, TargetKind: tc.Kind(), Problem: problem}

	y, err := prepareTarget(schema, tc)
	if err != nil {
		return nil, err
	}

	features := t.Drop(target).Columns()
	if len(features) == 0 {
		return nil, ErrNoFeatures
	}
	cols := make([][]float64, 0, len(features))
	for _, c := range features {
		f := Feature{Name: c.Name(), Kind: c.Kind()}
		var values []float64
		if c.Kind() == dataset.KindNumeric {
			f.Imputer = preprocess.FitNumeric(c.Floats())
			values, err = f.Imputer.Transform(c.Floats())
		} else {
			labels := fillLabels(c)
			f.Encoder = preprocess.FitLabels(c.Name(), labels)
			values, err = f.Encoder.Encode(labels)
		}
		if err != nil {
			return nil, err
		}
		schema.Features = append(schema.Features, f)
		cols = append(cols, values)
	}

	return &Prepared{Schema: schema, X: rows(cols, t.Len()), Y: y}, nil
}

func prepareTarget(s *Schema, c *dataset.Column) ([]float64, error) {
	switch {
	case s.Problem == Regression && c.Kind() != dataset.KindNumeric:
		return nil, &dataset.ColumnError{Column: c.Name(), Err: ErrTargetNotNumeric}
	case s.Problem == Regression:
		if c.MissingCount() == c.Len() {
			return nil, &dataset.ColumnError{Column: c.Name(), Err: ErrTargetEmpty}
		}
		fill := preprocess.Median(c.Floats())
		s.TargetFill = fmt.Sprint(fill)
		return preprocess.FillNaN(c.Floats(), fill), nil
	case c.Kind() == dataset.KindNumeric:
		fill, ok := preprocess.ModeFloat(c.Floats())
		if !ok {
			return nil, &dataset.ColumnError{Column: c.Name(), Err: ErrTargetEmpty}
		}
		s.TargetFill = fmt.Sprint(fill)
		return preprocess.FillNaN(c.Floats(), fill), nil
	default:
		mask := missingMask(c)
		fill, ok := preprocess.Mode(c.Cells(), mask)
		if !ok {
			return nil, &dataset.ColumnError{Column: c.Name(), Err: ErrTargetEmpty}
		}
		s.TargetFill = fill
		labels := preprocess.CategoricalImputer{Fill: fill}.Transform(c.Cells(), mask)
		s.Labels = preprocess.FitLabels(c.Name(), labels)
		return s.Labels.Encode(labels)
	}
}

// transform applies the learned feature treatment to a prediction table.
// Only column names are checked; a present column is treated by its training
// kind regardless of what was inferred for the new table.
func (s *Schema) transform(t *dataset.Table) ([][]float64, error) {
	for _, f := range s.Features {
		if !t.Has(f.Name) {
			return nil, dataset.MissingColumn(f.Name)
		}
	}
	cols := make([][]float64, 0, len(s.Features))
	for _, f := range s.Features {
		c, err := t.Column(f.Name)
		if err != nil {
			return nil, err
		}
		var values []float64
		if f.Kind == dataset.KindNumeric {
			raw, perr := c.ParseFloats()
			if perr != nil {
				return nil, perr
			}
			values, err = f.Imputer.Transform(raw)
		} else {
			values, err = f.Encoder.Encode(fillLabels(c))
		}
		if err != nil {
			return nil, err
		}
		cols = append(cols, values)
	}
	return rows(cols, t.Len()), nil
}

func fillLabels(c *dataset.Column) []string {
	return preprocess.CategoricalImputer{Fill: preprocess.MissingLabel}.Transform(c.Cells(), missingMask(c))
}

func missingMask(c *dataset.Column) []bool {
	mask := make([]bool, c.Len())
	for i := range mask {
		mask[i] = c.Missing(i)
	}
	return mask
}

// rows transposes column vectors into a row-major matrix.
func rows(cols [][]float64, n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		row := make([]float64, len(cols))
		for j, col := range cols {
			row[j] = col[i]
		}
		out[i] = row
	}
	return out
}
