package loadtest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"
)

// Target is the generated label column.
const Target = "Survived"

// Generated column layout. Survival follows the passenger's sex; age and
// fare carry noise and gaps so the service has something to impute.
var header = []string{"PassengerId", "Pclass", "Sex", "Age", "Fare", "Embarked", Target} //nolint:gochecknoglobals // fixed layout

const (
	missingAgeEvery = 7
	minAge          = 1
	ageRange        = 70
	baseFare        = 5.0
	fareRange       = 80.0
	classes         = 3
)

var ports = []string{"S", "C", "Q"} //nolint:gochecknoglobals // fixed choices

// Dataset is a generated table whose labels follow a known rule.
type Dataset struct {
	Header []string
	Rows   [][]string
}

// GenerateDataset builds rows deterministic in seed.
func GenerateDataset(rows int, seed int64) *Dataset {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible test data
	d := &Dataset{Header: append([]string(nil), header...), Rows: make([][]string, rows)}
	for i := 0; i < rows; i++ {
		sex := "male"
		if rng.Intn(2) == 0 {
			sex = "female"
		}
		age := strconv.Itoa(minAge + rng.Intn(ageRange))
		if i%missingAgeEvery == 0 {
			age = ""
		}
		d.Rows[i] = []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(1 + rng.Intn(classes)),
			sex,
			age,
			strconv.FormatFloat(baseFare+rng.Float64()*fareRange, 'f', 2, 64),
			ports[rng.Intn(len(ports))],
			expected(sex),
		}
	}
	return d
}

// expected is the generating rule.
func expected(sex string) string {
	if sex == "female" {
		return "yes"
	}
	return "no"
}

// Expected returns the rule's label for row i.
func (d *Dataset) Expected(i int) string {
	return d.Rows[i][len(d.Header)-1]
}

// CSV encodes the full dataset.
func (d *Dataset) CSV() []byte {
	return encode(d.Header, d.Rows)
}

// Features encodes the dataset without its label column.
func (d *Dataset) Features() []byte {
	n := len(d.Header) - 1
	rows := make([][]string, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = r[:n]
	}
	return encode(d.Header[:n], rows)
}

func encode(h []string, rows [][]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(h)
	_ = w.WriteAll(rows)
	return buf.Bytes()
}

func (d *Dataset) String() string {
	return fmt.Sprintf("%d rows x %d columns", len(d.Rows), len(d.Header))
}
