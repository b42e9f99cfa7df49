// Package classify separates samples into two groups, without and with the
// target substance, using a standardised RBF support vector classifier.
//
// Samples carry their own label, so the feature rows and the label vector
// cannot drift out of step. The reported accuracy is measured on the
// training samples themselves; there is no held-out set.
package classify

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/spectro.report/internal/monitoring"
	"github.com/banshee-data/spectro.report/internal/normalize"
	"github.com/banshee-data/spectro.report/internal/svm"
)

// Label is the group a sample belongs to.
type Label int

const (
	Without Label = 0
	With    Label = 1
)

func (l Label) String() string {
	switch l {
	case Without:
		return "without"
	case With:
		return "with"
	}
	return fmt.Sprintf("Label(%d)", int(l))
}

// ParseLabel converts "without"/"with" (or "0"/"1") into a Label.
func ParseLabel(s string) (Label, error) {
	switch s {
	case "without", "0":
		return Without, nil
	case "with", "1":
		return With, nil
	}
	return 0, fmt.Errorf("unknown label %q", s)
}

// Sample is one feature vector and the group it belongs to.
type Sample struct {
	ID       string
	Label    Label
	Features []float64
}

// Labels returns a zeros followed by b ones.
func Labels(a, b int) []float64 {
	y := make([]float64, a+b)
	for i := a; i < a+b; i++ {
		y[i] = float64(With)
	}
	return y
}

// Pair zips feature rows with their labels. Every label must be 0 or 1.
func Pair(x [][]float64, y []float64) ([]Sample, error) {
	if len(x) != len(y) {
		return nil, &svm.DimensionError{Reason: fmt.Sprintf("%d rows but %d labels", len(x), len(y))}
	}
	out := make([]Sample, len(x))
	for i := range x {
		l := Label(y[i])
		if (l != Without && l != With) || float64(l) != y[i] {
			return nil, &svm.DimensionError{Reason: fmt.Sprintf("label %g at row %d is not 0 or 1", y[i], i)}
		}
		out[i] = Sample{ID: fmt.Sprint(i), Label: l, Features: x[i]}
	}
	return out, nil
}

// GroupSamples labels the without group 0 and the with group 1, keeping the
// without group first.
func GroupSamples(without, with []Sample) []Sample {
	out := make([]Sample, 0, len(without)+len(with))
	for _, s := range without {
		s.Label = Without
		out = append(out, s)
	}
	for _, s := range with {
		s.Label = With
		out = append(out, s)
	}
	return out
}

// Split returns the feature rows and label vector of samples.
func Split(samples []Sample) ([][]float64, []float64) {
	x := make([][]float64, len(samples))
	y := make([]float64, len(samples))
	for i, s := range samples {
		x[i] = s.Features
		y[i] = float64(s.Label)
	}
	return x, y
}

// Classifier is a fitted scaler and model pair.
type Classifier struct {
	Scaler *svm.Scaler
	Model  *svm.Model
}

// Decision scales one feature vector and returns its decision value.
func (c *Classifier) Decision(row []float64) (float64, error) {
	z, err := c.Scaler.TransformRow(row)
	if err != nil {
		return 0, err
	}
	return c.Model.Decision(z), nil
}

// DecisionFunction returns the decision value of every row of x.
func (c *Classifier) DecisionFunction(x [][]float64) ([]float64, error) {
	out := make([]float64, len(x))
	for i, row := range x {
		d, err := c.Decision(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = d
	}
	return out, nil
}

// Fit is the outcome of FitAndScore.
type Fit struct {
	Classifier       *Classifier
	TrainingAccuracy float64
	DecisionScores   []float64
	Predicted        []float64
}

// FitAndScore standardises x with its own column statistics, fits the
// classifier against y, and scores it on the same rows.
func FitAndScore(x [][]float64, y []float64, p svm.Params) (*Fit, error) {
	if len(x) != len(y) {
		return nil, &svm.DimensionError{Reason: fmt.Sprintf("%d rows but %d labels", len(x), len(y))}
	}
	m, err := dense(x)
	if err != nil {
		return nil, err
	}

	scaler, err := svm.FitScaler(m)
	if err != nil {
		return nil, err
	}
	z, err := scaler.Transform(m)
	if err != nil {
		return nil, err
	}
	model, err := svm.Fit(z, y, p)
	if err != nil {
		return nil, fmt.Errorf("fit: %w", err)
	}

	scores, err := model.DecisionFunction(z)
	if err != nil {
		return nil, err
	}
	pred, err := model.Predict(z)
	if err != nil {
		return nil, err
	}

	return &Fit{
		Classifier:       &Classifier{Scaler: scaler, Model: model},
		TrainingAccuracy: svm.Accuracy(pred, y),
		DecisionScores:   scores,
		Predicted:        pred,
	}, nil
}

// dense copies rectangular rows into a matrix.
func dense(x [][]float64) (*mat.Dense, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, &svm.DimensionError{Reason: "no features to fit"}
	}
	c := len(x[0])
	data := make([]float64, 0, len(x)*c)
	for i, row := range x {
		if len(row) != c {
			return nil, &svm.DimensionError{Reason: fmt.Sprintf("row %d has %d features, want %d", i, len(row), c)}
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(x), c, data), nil
}

// Score is the outcome for one sample.
type Score struct {
	ID        string  `json:"id"`
	Label     Label   `json:"label"`
	Decision  float64 `json:"decision"`
	Predicted Label   `json:"predicted"`
}

// Report summarises a classification run.
type Report struct {
	Without          int     `json:"without"`
	With             int     `json:"with"`
	TargetLength     int     `json:"target_length"`
	TrainingAccuracy float64 `json:"training_accuracy"`
	Gamma            float64 `json:"gamma"`
	SupportVectors   int     `json:"support_vectors"`
	Iterations       int     `json:"iterations"`
	Scores           []Score `json:"scores"`
}

// Run brings every sample to target features (zero or less picks the
// shortest sample), fits, and scores. Scores follow sample order.
func Run(samples []Sample, target int, p svm.Params) (*Report, error) {
	x, y := Split(samples)
	x, err := normalize.Length(x, target)
	if err != nil {
		return nil, err
	}

	rep := &Report{TargetLength: len(x[0])}
	for _, s := range samples {
		if s.Label == With {
			rep.With++
		} else {
			rep.Without++
		}
	}
	monitoring.Logf("classifying %d samples without and %d with, %d features each", rep.Without, rep.With, rep.TargetLength)

	fit, err := FitAndScore(x, y, p)
	if err != nil {
		return nil, err
	}

	rep.TrainingAccuracy = fit.TrainingAccuracy
	rep.Gamma = fit.Classifier.Model.Kernel.Gamma
	rep.SupportVectors = fit.Classifier.Model.SupportVectors()
	rep.Iterations = fit.Classifier.Model.Iterations()
	rep.Scores = make([]Score, len(samples))
	for i, s := range samples {
		rep.Scores[i] = Score{
			ID:        s.ID,
			Label:     s.Label,
			Decision:  fit.DecisionScores[i],
			Predicted: Label(fit.Predicted[i]),
		}
	}
	return rep, nil
}
