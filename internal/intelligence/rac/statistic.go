package rac

import (
	"errors"
	"fmt"
	"math"
	"strings"

	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistic is a reduction over a sequence of reals. The set is closed.
type Statistic int

const (
	StatSum Statistic = iota
	StatStdDev
	StatMin
	StatMax
)

var statisticNames = [...]string{
	StatSum:    "sum",
	StatStdDev: "std",
	StatMin:    "min",
	StatMax:    "max",
}

// ErrInvalidStatistic is matched by *InvalidStatisticError.
var ErrInvalidStatistic = errors.New("invalid statistic")

// InvalidStatisticError reports an unknown statistic name.
type InvalidStatisticError struct {
	Name string
}

func (e *InvalidStatisticError) Error() string {
	return fmt.Sprintf("Invalid statistic: %s. Valid statistics are: [%s]", e.Name, strings.Join(statisticNames[:], ", "))
}

// Is matches ErrInvalidStatistic.
func (e *InvalidStatisticError) Is(target error) bool { return target == ErrInvalidStatistic }

// ErrorCode implements apperrors.Coder.
func (e *InvalidStatisticError) ErrorCode() apperrors.ErrorCode {
	return apperrors.ErrCodeInvalidStatistic
}

// String returns the name used in feature labels.
func (s Statistic) String() string {
	if s < 0 || int(s) >= len(statisticNames) {
		return fmt.Sprintf("Statistic(%d)", int(s))
	}
	return statisticNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s Statistic) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Statistic) UnmarshalText(text []byte) error {
	parsed, err := ParseStatistic(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatistic maps a name to a Statistic. "standard_deviation" is accepted
// as an alias of "std"; matching is case-insensitive.
func ParseStatistic(name string) (Statistic, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sum":
		return StatSum, nil
	case "std", "standard_deviation":
		return StatStdDev, nil
	case "min":
		return StatMin, nil
	case "max":
		return StatMax, nil
	}
	return 0, &InvalidStatisticError{Name: name}
}

// ParseStatistics parses names in order.
func ParseStatistics(names []string) ([]Statistic, error) {
	out := make([]Statistic, 0, len(names))
	for _, n := range names {
		s, err := ParseStatistic(n)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// StatisticNames renders stats as label names.
func StatisticNames(stats []Statistic) []string {
	out := make([]string, len(stats))
	for i, s := range stats {
		out[i] = s.String()
	}
	return out
}

// Apply reduces x. An empty x yields 0 for every statistic. Any NaN in x
// yields NaN.
func (s Statistic) Apply(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	switch s {
	case StatSum:
		return floats.Sum(x)
	case StatStdDev:
		// population form: one value gives 0
		return stat.PopStdDev(x, nil)
	case StatMin:
		if floats.HasNaN(x) {
			return math.NaN()
		}
		return floats.Min(x)
	case StatMax:
		if floats.HasNaN(x) {
			return math.NaN()
		}
		return floats.Max(x)
	}
	panic(fmt.Sprintf("rac: unhandled statistic %d", int(s)))
}
