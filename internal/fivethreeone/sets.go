package fivethreeone

import (
	"strings"

	"github.com/myrjola/wrestlestrong/internal/ptr"
)

// setScheme is one working set of the weekly percentage table.
type setScheme struct {
	reps       Reps
	percentage float64
}

// weekScheme returns the three working sets of a week. Unknown weeks fall back to week 1.
func weekScheme(week int) [3]setScheme {
	switch week {
	case 2: //nolint:mnd // 3s week
		return [3]setScheme{
			{reps: FixedReps(3), percentage: 0.70},
			{reps: FixedReps(3), percentage: 0.80},
			{reps: AMRAPReps(3), percentage: 0.90},
		}
	case 3: //nolint:mnd // 5/3/1 week
		return [3]setScheme{
			{reps: FixedReps(5), percentage: 0.75},
			{reps: FixedReps(3), percentage: 0.85},
			{reps: AMRAPReps(1), percentage: 0.95},
		}
	case deloadWeek:
		return [3]setScheme{
			{reps: FixedReps(5), percentage: 0.40},
			{reps: FixedReps(5), percentage: 0.50},
			{reps: FixedReps(5), percentage: 0.60},
		}
	default:
		return [3]setScheme{
			{reps: FixedReps(5), percentage: 0.65},
			{reps: FixedReps(5), percentage: 0.75},
			{reps: AMRAPReps(5), percentage: 0.85},
		}
	}
}

// WeekLabel names the week the way lifters talk about it.
func WeekLabel(week int) string {
	switch week {
	case 1:
		return "5s week"
	case 2: //nolint:mnd // 3s week
		return "3s week"
	case 3: //nolint:mnd // 5/3/1 week
		return "5/3/1 week"
	case deloadWeek:
		return "Deload week"
	default:
		return "5s week"
	}
}

// WeekScheme is the rep scheme of the working sets, such as "5/3/1+".
func WeekScheme(week int) string {
	if week == deloadWeek {
		return "Deload"
	}
	scheme := weekScheme(week)
	reps := make([]string, 0, len(scheme))
	for _, s := range scheme {
		reps = append(reps, s.reps.String())
	}
	return strings.Join(reps, "/")
}

// WeekPercentages returns the working set prescription of a week for display.
func WeekPercentages(week int) []Set {
	scheme := weekScheme(week)
	sets := make([]Set, 0, len(scheme))
	for i, s := range scheme {
		sets = append(sets, Set{
			Number:     i + 1,
			Kind:       SetKindWorking,
			Reps:       s.reps,
			Percentage: ptr.Ref(s.percentage),
			AMRAP:      s.reps.AMRAP,
		})
	}
	return sets
}

// MainLiftSets prescribes the working sets of a main lift with a standard bar.
func MainLiftSets(trainingMax float64, week int) []Set {
	return MainLiftSetsWithBar(trainingMax, week, DefaultBarWeight)
}

// MainLiftSetsWithBar prescribes two warm-up sets followed by the three working sets of the week.
//
// The first warm-up is the empty bar and the second sits halfway between the bar and the first working set.
// Working sets are numbered after the warm-ups.
func MainLiftSetsWithBar(trainingMax float64, week int, barWeight float64) []Set {
	scheme := weekScheme(week)
	working := make([]Set, 0, len(scheme))
	for i, s := range scheme {
		working = append(working, Set{
			Number:     warmUpSetsPerMainLift + i + 1,
			Kind:       SetKindWorking,
			Reps:       s.reps,
			Weight:     RoundToNearest5(trainingMax * s.percentage),
			Percentage: ptr.Ref(s.percentage),
			AMRAP:      s.reps.AMRAP,
		})
	}
	return append(WarmUpSets(working[0].Weight, barWeight), working...)
}

// WarmUpSets returns the bar set and the halfway set leading to firstWorkingWeight.
func WarmUpSets(firstWorkingWeight, barWeight float64) []Set {
	halfway := RoundToNearest5((firstWorkingWeight-barWeight)/2 + barWeight) //nolint:mnd // halfway
	return []Set{
		{Number: 1, Kind: SetKindWarmUp, Reps: FixedReps(warmUpReps), Weight: barWeight},
		{Number: 2, Kind: SetKindWarmUp, Reps: FixedReps(warmUpReps), Weight: halfway}, //nolint:mnd // second
	}
}

// SupplementarySets prescribes one set per entry of repScheme at a fixed percentage of the training max.
func SupplementarySets(trainingMax float64, repScheme []int, percentage float64) []Set {
	weight := RoundToNearest5(trainingMax * percentage)
	sets := make([]Set, 0, len(repScheme))
	for i, reps := range repScheme {
		sets = append(sets, Set{
			Number:     i + 1,
			Kind:       SetKindSupplementary,
			Reps:       FixedReps(reps),
			Weight:     weight,
			Percentage: ptr.Ref(percentage),
		})
	}
	return sets
}
