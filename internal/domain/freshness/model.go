// Package freshness discounts signal scores by how stale their inputs are.
// Staleness never deletes information, it only shrinks how loudly the signal
// is allowed to speak.
package freshness

import (
	"fmt"
	"math"
	"time"

	"github.com/alphascore/alphascore/internal/domain"
)

// Class groups signals by how quickly they go stale.
type Class string

const (
	ClassRealTime    Class = "REAL_TIME"    // quotes, trades
	ClassIntraday    Class = "INTRADAY"     // technicals, sentiment
	ClassDaily       Class = "DAILY"        // macro, alternative feeds
	ClassFundamental Class = "FUNDAMENTAL"  // statement-derived, quarterly cadence
	ClassStatic      Class = "STATIC"       // sector membership, profile facts
)

// Classes returns every freshness class.
func Classes() []Class {
	return []Class{ClassRealTime, ClassIntraday, ClassDaily, ClassFundamental, ClassStatic}
}

// ClassForCategory maps a factor category to the freshness class of the
// signal group feeding it.
func ClassForCategory(c domain.Category) Class {
	switch c {
	case domain.CategoryValuation, domain.CategoryQuality, domain.CategoryGrowth:
		return ClassFundamental
	case domain.CategoryMomentum, domain.CategorySentiment:
		return ClassIntraday
	case domain.CategoryMacro, domain.CategoryAlternative:
		return ClassDaily
	default:
		return ClassDaily
	}
}

// DecayCurve holds the knots of the staleness discount. The multiplier stays
// at 1.0 through the first part of a signal's expected life, eases to the
// knee values at one and two times the max age, then drifts down to a hard
// floor so even ancient data keeps a whisper of influence.
type DecayCurve struct {
	FullUntilFraction float64 `yaml:"full_until_fraction" default:"0.5" validate:"gt=0,lt=1"`
	AtMaxAge          float64 `yaml:"at_max_age" default:"0.8" validate:"gt=0,lte=1"`
	AtDoubleMaxAge    float64 `yaml:"at_double_max_age" default:"0.5" validate:"gt=0,lte=1"`
	Floor             float64 `yaml:"floor" default:"0.3" validate:"gt=0,lte=1"`
	FloorAtMultiple   float64 `yaml:"floor_at_multiple" default:"4" validate:"gt=2"`
}

// Config is the on-disk freshness tuning.
type Config struct {
	Curve       DecayCurve         `yaml:"curve"`
	MaxAgeHours map[string]float64 `yaml:"max_age_hours" validate:"dive,gt=0"` // keyed by class name
}

// DefaultConfig returns the production freshness tuning.
func DefaultConfig() *Config {
	return &Config{
		Curve: DecayCurve{
			FullUntilFraction: 0.5,
			AtMaxAge:          0.8,
			AtDoubleMaxAge:    0.5,
			Floor:             0.3,
			FloorAtMultiple:   4,
		},
		MaxAgeHours: map[string]float64{
			string(ClassRealTime):    5.0 / 60.0,
			string(ClassIntraday):    1,
			string(ClassDaily):       24,
			string(ClassFundamental): 24 * 90,
			string(ClassStatic):      24 * 365,
		},
	}
}

// Model computes staleness multipliers. Immutable once built.
type Model struct {
	curve  DecayCurve
	maxAge map[Class]time.Duration
}

// NewModel validates cfg and builds the model. Nil loads the defaults.
func NewModel(cfg *Config) (*Model, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	c := cfg.Curve
	if c.FullUntilFraction <= 0 || c.FullUntilFraction >= 1 {
		return nil, fmt.Errorf("full_until_fraction %.3f outside (0,1)", c.FullUntilFraction)
	}
	if !(1.0 >= c.AtMaxAge && c.AtMaxAge >= c.AtDoubleMaxAge && c.AtDoubleMaxAge >= c.Floor && c.Floor > 0) {
		return nil, fmt.Errorf("decay knots must satisfy 1.0 >= at_max_age >= at_double_max_age >= floor > 0, got %.2f/%.2f/%.2f",
			c.AtMaxAge, c.AtDoubleMaxAge, c.Floor)
	}
	if c.FloorAtMultiple <= 2 {
		return nil, fmt.Errorf("floor_at_multiple %.2f must exceed 2", c.FloorAtMultiple)
	}

	maxAge := make(map[Class]time.Duration, len(Classes()))
	for _, class := range Classes() {
		hours, ok := cfg.MaxAgeHours[string(class)]
		if !ok {
			return nil, fmt.Errorf("max_age_hours missing class %s", class)
		}
		if hours <= 0 {
			return nil, fmt.Errorf("max_age_hours for %s must be positive, got %.4f", class, hours)
		}
		// Round to whole seconds so fractional-hour configs stay exact.
		maxAge[class] = time.Duration(math.Round(hours*3600)) * time.Second
	}

	return &Model{curve: c, maxAge: maxAge}, nil
}

// MaxAge returns the expected useful life of a class.
func (m *Model) MaxAge(class Class) time.Duration {
	return m.maxAge[class]
}

// Multiplier returns the staleness discount for a signal of the given class
// observed age ago. Future-dated signals clamp to fully fresh.
func (m *Model) Multiplier(class Class, age time.Duration) float64 {
	max := m.maxAge[class].Hours()
	if max == 0 {
		return m.curve.Floor
	}

	a := age.Hours()
	c := m.curve
	switch {
	case a <= c.FullUntilFraction*max:
		return 1.0
	case a <= max:
		return interpolate(a, c.FullUntilFraction*max, max, 1.0, c.AtMaxAge)
	case a <= 2*max:
		return interpolate(a, max, 2*max, c.AtMaxAge, c.AtDoubleMaxAge)
	case a <= c.FloorAtMultiple*max:
		return interpolate(a, 2*max, c.FloorAtMultiple*max, c.AtDoubleMaxAge, c.Floor)
	default:
		return c.Floor
	}
}

// MultiplierAt is Multiplier with the age computed from a timestamp and the
// evaluation instant.
func (m *Model) MultiplierAt(class Class, observed, asOf time.Time) float64 {
	age := asOf.Sub(observed)
	if age < 0 {
		age = 0
	}
	return m.Multiplier(class, age)
}

func interpolate(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y0
	}
	return y0 + (x-x0)*(y1-y0)/(x1-x0)
}
