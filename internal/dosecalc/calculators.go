// Package dosecalc implements the textbook exposure formulas offered to
// learners: inverse-square law, mAs, exposure time and exponential
// attenuation through shielding.
package dosecalc

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/jgirmay/radlearn/internal/common/errors"
	"github.com/jgirmay/radlearn/internal/common/validation"
)

type Kind string

const (
	KindInverseSquare Kind = "inverse_square"
	KindMAs           Kind = "mas"
	KindExposureTime  Kind = "exposure_time"
	KindShielding     Kind = "shielding"
)

// Kinds lists the supported formulas.
var Kinds = []Kind{KindInverseSquare, KindMAs, KindExposureTime, KindShielding}

// Calculation is implemented only by the four variants in this package.
type Calculation interface {
	Kind() Kind
	Compute() (Result, error)
	sealed()
}

type Result struct {
	Kind  Kind               `json:"kind"`
	Value float64            `json:"value"`
	Unit  string             `json:"unit"`
	Extra map[string]float64 `json:"extra,omitempty"`
}

// InverseSquare: I2 = I1 × (d1 / d2)².
type InverseSquare struct {
	InitialIntensity float64 `json:"initialIntensity" validate:"gte=0"`
	InitialDistance  float64 `json:"initialDistance" validate:"gt=0"`
	NewDistance      float64 `json:"newDistance" validate:"gt=0"`
}

// MAs: tube current × exposure time.
type MAs struct {
	MilliAmperes float64 `json:"milliAmperes" validate:"gt=0"`
	Seconds      float64 `json:"seconds" validate:"gt=0"`
}

// ExposureTime: mAs / mA.
type ExposureTime struct {
	MAs          float64 `json:"mAs" validate:"gt=0"`
	MilliAmperes float64 `json:"milliAmperes" validate:"gt=0"`
}

// Shielding: I = I0 × e^(−μx). Also reports the half-value layer ln2/μ.
type Shielding struct {
	InitialIntensity       float64 `json:"initialIntensity" validate:"gte=0"`
	AttenuationCoefficient float64 `json:"attenuationCoefficient" validate:"gt=0"` // per cm
	Thickness              float64 `json:"thickness" validate:"gte=0"`             // cm
}

func (InverseSquare) Kind() Kind { return KindInverseSquare }
func (MAs) Kind() Kind           { return KindMAs }
func (ExposureTime) Kind() Kind  { return KindExposureTime }
func (Shielding) Kind() Kind     { return KindShielding }

func (InverseSquare) sealed() {}
func (MAs) sealed()           {}
func (ExposureTime) sealed()  {}
func (Shielding) sealed()     {}

func (c InverseSquare) Compute() (Result, error) {
	if err := check(c); err != nil {
		return Result{}, err
	}
	ratio := c.InitialDistance / c.NewDistance
	return finite(Result{Kind: c.Kind(), Value: round(c.InitialIntensity * ratio * ratio), Unit: "same as input intensity"})
}

func (c MAs) Compute() (Result, error) {
	if err := check(c); err != nil {
		return Result{}, err
	}
	return finite(Result{Kind: c.Kind(), Value: round(c.MilliAmperes * c.Seconds), Unit: "mAs"})
}

func (c ExposureTime) Compute() (Result, error) {
	if err := check(c); err != nil {
		return Result{}, err
	}
	return finite(Result{Kind: c.Kind(), Value: round(c.MAs / c.MilliAmperes), Unit: "s"})
}

func (c Shielding) Compute() (Result, error) {
	if err := check(c); err != nil {
		return Result{}, err
	}
	transmitted := c.InitialIntensity * math.Exp(-c.AttenuationCoefficient*c.Thickness)
	return finite(Result{
		Kind:  c.Kind(),
		Value: round(transmitted),
		Unit:  "same as input intensity",
		Extra: map[string]float64{
			"halfValueLayer": round(math.Ln2 / c.AttenuationCoefficient),
			"transmission":   round(math.Exp(-c.AttenuationCoefficient * c.Thickness)),
		},
	})
}

// Decode builds the variant named by kind from its JSON parameters.
func Decode(kind Kind, params json.RawMessage) (Calculation, error) {
	var calc Calculation
	var err error
	switch kind {
	case KindInverseSquare:
		var c InverseSquare
		err = json.Unmarshal(params, &c)
		calc = c
	case KindMAs:
		var c MAs
		err = json.Unmarshal(params, &c)
		calc = c
	case KindExposureTime:
		var c ExposureTime
		err = json.Unmarshal(params, &c)
		calc = c
	case KindShielding:
		var c Shielding
		err = json.Unmarshal(params, &c)
		calc = c
	default:
		return nil, errors.Validation("unknown calculator", string(kind))
	}
	if err != nil {
		return nil, errors.Validation("invalid calculator parameters", err.Error())
	}
	return calc, nil
}

// Formula returns the human-readable formula of c.
func Formula(c Calculation) string {
	switch c.(type) {
	case InverseSquare:
		return "I2 = I1 × (d1 / d2)²"
	case MAs:
		return "mAs = mA × s"
	case ExposureTime:
		return "s = mAs / mA"
	case Shielding:
		return "I = I0 × e^(−μx)"
	default:
		panic(fmt.Sprintf("dosecalc: unhandled calculation %T", c))
	}
}

func check(v interface{}) error {
	if errs := validation.Validate(v); len(errs) > 0 {
		return errors.Validation("invalid calculator parameters", validation.Summary(errs))
	}
	return nil
}

// finite rejects results that cannot be represented in JSON.
func finite(r Result) (Result, error) {
	bad := math.IsInf(r.Value, 0) || math.IsNaN(r.Value)
	for _, v := range r.Extra {
		bad = bad || math.IsInf(v, 0) || math.IsNaN(v)
	}
	if bad {
		return Result{}, errors.Validation("invalid calculator parameters",
			fmt.Sprintf("%s result is out of range", r.Kind))
	}
	return r, nil
}

// round keeps four decimal places. Values too large to carry a fraction are
// returned as is.
func round(v float64) float64 {
	if math.Abs(v) >= 1e15 {
		return v
	}
	return math.Round(v*1e4) / 1e4
}
