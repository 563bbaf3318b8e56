package fivethreeone

import "math"

const (
	// DefaultBarWeight is the weight of an empty Olympic barbell in pounds.
	DefaultBarWeight = 45.0

	trainingMaxFactor     = 0.9
	upperBodyIncrement    = 5.0
	lowerBodyIncrement    = 10.0
	plateIncrement        = 5.0
	epleyRepsDenominator  = 30.0
	deloadWeek            = 4
	weeksPerCycle         = 4
	warmUpReps            = 5
	warmUpSetsPerMainLift = 2
)

// TrainingMax is 90% of a one-rep max rounded to the nearest whole pound, halves away from zero.
func TrainingMax(oneRepMax float64) float64 {
	return math.Round(oneRepMax * trainingMaxFactor)
}

// OneRepMaxFromTrainingMax inverts TrainingMax closely enough to pre-fill forms.
func OneRepMaxFromTrainingMax(trainingMax float64) float64 {
	return math.Round(trainingMax / trainingMaxFactor)
}

// NextCycleTrainingMax progresses a training max at the end of a cycle.
func NextCycleTrainingMax(current float64, lift LiftType) float64 {
	if lift.IsUpperBody() {
		return current + upperBodyIncrement
	}
	return current + lowerBodyIncrement
}

// NextCycleTrainingMaxes progresses all training maxes at once.
func NextCycleTrainingMaxes(current Lifts) Lifts {
	return current.Map(func(lift LiftType, trainingMax float64) float64 {
		return NextCycleTrainingMax(trainingMax, lift)
	})
}

// RoundToNearest5 rounds to the nearest loadable weight. Exact midpoints go up.
func RoundToNearest5(weight float64) float64 {
	return math.Round(weight/plateIncrement) * plateIncrement
}

// EstimatedOneRepMax uses the Epley formula and rounds to the nearest whole pound.
func EstimatedOneRepMax(weight float64, reps int) float64 {
	return math.Round(weight * (1 + float64(reps)/epleyRepsDenominator))
}
