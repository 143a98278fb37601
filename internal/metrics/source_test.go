package metrics

import (
	"testing"

	"github.com/julianstephens/stride/internal/models"
)

func TestKindForHabit_ExplicitKindWins(t *testing.T) {
	h := models.Habit{
		Name:       "Morning run", // name says exercise
		GoalUnit:   models.UnitMinutes,
		MetricKind: string(KindMindfulMinutes),
	}

	kind, ok := KindForHabit(h)
	if !ok || kind != KindMindfulMinutes {
		t.Errorf("KindForHabit = %q/%v, want explicit %q", kind, ok, KindMindfulMinutes)
	}
}

func TestKindForHabit_FallbackByUnitAndName(t *testing.T) {
	cases := []struct {
		name string
		unit models.GoalUnit
		want Kind
		ok   bool
	}{
		{"Walk", models.UnitSteps, KindSteps, true},
		{"Gym", models.UnitMinutes, KindExerciseMinutes, true},
		{"Meditate", models.UnitMinutes, KindMindfulMinutes, true},
		{"Mindful breathing", models.UnitHours, KindMindfulMinutes, true},
		{"Hydrate", models.UnitLiters, KindWaterLiters, true},
		{"Water", models.UnitGlasses, KindWaterLiters, true},
		{"Protein", models.UnitGrams, "", false},
		{"Read", models.UnitNone, "", false},
	}

	for _, c := range cases {
		kind, ok := KindForHabit(models.Habit{Name: c.name, GoalUnit: c.unit})
		if ok != c.ok || kind != c.want {
			t.Errorf("KindForHabit(%q, %s) = %q/%v, want %q/%v", c.name, c.unit, kind, ok, c.want, c.ok)
		}
	}
}

func TestConvertValue(t *testing.T) {
	cases := []struct {
		unit  models.GoalUnit
		kind  Kind
		in    float64
		want  float64
		label string
	}{
		{models.UnitSteps, KindSteps, 8214, 8214, "steps pass through"},
		{models.UnitMinutes, KindExerciseMinutes, 45, 45, "minutes pass through"},
		{models.UnitHours, KindExerciseMinutes, 90, 1.5, "minutes to hours"},
		{models.UnitHours, KindMindfulMinutes, 30, 0.5, "mindful minutes to hours"},
		{models.UnitLiters, KindWaterLiters, 1.5, 1.5, "liters pass through"},
		{models.UnitGlasses, KindWaterLiters, 1.5, 6, "liters to glasses"},
	}

	for _, c := range cases {
		if got := ConvertValue(c.unit, c.kind, c.in); got != c.want {
			t.Errorf("%s: ConvertValue = %.4g, want %.4g", c.label, got, c.want)
		}
	}
}
