package fivethreeone

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// LiftSpec names a barbell lift and the training max it is loaded from.
type LiftSpec struct {
	Lift LiftType `yaml:"lift"`
	Name string   `yaml:"name"`
}

// SupplementarySpec is a lighter volume lift performed after the main lift.
type SupplementarySpec struct {
	Lift           LiftType `yaml:"lift"`
	Name           string   `yaml:"name"`
	RepScheme      []int    `yaml:"rep_scheme"`
	PercentageOfTM float64  `yaml:"percentage_of_tm"`
}

// AssistanceSpec is a fixed sets x reps prescription.
type AssistanceSpec struct {
	Name       string `yaml:"name"`
	Sets       int    `yaml:"sets"`
	Reps       int    `yaml:"reps"`
	Bodyweight bool   `yaml:"bodyweight"`
}

// Template is a training day of the program.
type Template struct {
	Day           int               `yaml:"day"`
	Name          string            `yaml:"name"`
	Main          LiftSpec          `yaml:"main"`
	Supplementary SupplementarySpec `yaml:"supplementary"`
	Assistance    []AssistanceSpec  `yaml:"assistance"`
}

// Catalog lists the training days in order.
type Catalog []Template

// Template looks up a training day.
func (c Catalog) Template(day int) (Template, bool) {
	for _, t := range c {
		if t.Day == day {
			return t, true
		}
	}
	return Template{}, false
}

// ParseCatalog decodes and validates a YAML catalog.
func ParseCatalog(data []byte) (Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}
	return c, nil
}

func (c Catalog) validate() error {
	if len(c) == 0 {
		return errors.New("no training days")
	}
	days := make([]int, 0, len(c))
	for _, t := range c {
		if slices.Contains(days, t.Day) {
			return fmt.Errorf("duplicate day %d", t.Day)
		}
		days = append(days, t.Day)
		if !t.Main.Lift.IsMain() {
			return fmt.Errorf("day %d: main lift %q has no training max", t.Day, t.Main.Lift)
		}
		if !t.Supplementary.Lift.IsMain() {
			return fmt.Errorf("day %d: supplementary lift %q has no training max", t.Day, t.Supplementary.Lift)
		}
		if len(t.Supplementary.RepScheme) == 0 {
			return fmt.Errorf("day %d: empty supplementary rep scheme", t.Day)
		}
		for _, a := range t.Assistance {
			if a.Sets <= 0 || a.Reps <= 0 {
				return fmt.Errorf("day %d: %s needs positive sets and reps", t.Day, a.Name)
			}
		}
	}
	return nil
}

//nolint:gochecknoglobals // parsed once from embedded data.
var defaultCatalog = sync.OnceValue(func() Catalog {
	c, err := ParseCatalog(catalogYAML)
	if err != nil {
		panic(err)
	}
	return c
})

// DefaultCatalog returns the four day wrestling strength program. The returned value is a copy.
func DefaultCatalog() Catalog {
	src := defaultCatalog()
	out := make(Catalog, len(src))
	for i, t := range src {
		t.Supplementary.RepScheme = slices.Clone(t.Supplementary.RepScheme)
		t.Assistance = slices.Clone(t.Assistance)
		out[i] = t
	}
	return out
}

// assistanceClass picks the training max an assistance exercise is loaded from.
type assistanceClass struct {
	lift   LiftType
	factor float64
}

//nolint:gochecknoglobals,mnd // lookup table.
var assistanceClasses = map[string]assistanceClass{
	// Lower body
	"Bulgarian Split Squat":   {lift: LiftSquat, factor: 0.3},
	"GHD or Back Extension":   {lift: LiftSquat, factor: 0.3},
	"Single-Leg Glute Bridge": {lift: LiftSquat, factor: 0.3},
	// Upper body
	"Dumbbell Row":      {lift: LiftBenchPress, factor: 0.25},
	"Face Pulls":        {lift: LiftBenchPress, factor: 0.25},
	"Tricep Extension":  {lift: LiftBenchPress, factor: 0.25},
	"Weighted Pull-ups": {lift: LiftBenchPress, factor: 0.25},
	// Explosive
	"Clean High Pull":     {lift: LiftPowerClean, factor: 0.4},
	"Kettlebell Swing":    {lift: LiftPowerClean, factor: 0.4},
	"Medicine Ball Throw": {lift: LiftPowerClean, factor: 0.4},
	// Carries
	"Farmer's Carry": {lift: LiftDeadlift, factor: 0.5},
}

//nolint:gochecknoglobals,mnd // fallback for unclassified assistance work.
var defaultAssistanceClass = assistanceClass{lift: LiftBenchPress, factor: 0.2}

// AssistanceWeight suggests a starting weight for an assistance exercise from the training maxes.
func AssistanceWeight(name string, trainingMaxes Lifts) float64 {
	class, ok := assistanceClasses[name]
	if !ok {
		class = defaultAssistanceClass
	}
	return RoundToNearest5(trainingMaxes.Get(class.lift) * class.factor)
}

// IsClassifiedAssistance reports whether the exercise has a dedicated weight heuristic.
func IsClassifiedAssistance(name string) bool {
	_, ok := assistanceClasses[name]
	return ok
}
