package models

import "time"

// HabitType distinguishes building a positive behavior from quitting a
// negative one.
type HabitType string

const (
	HabitTypeBuild HabitType = "build"
	HabitTypeQuit  HabitType = "quit"
)

// QuitHabitType refines quit habits: total abstinence, or staying under a
// daily limit.
type QuitHabitType string

const (
	QuitTypeNone       QuitHabitType = ""
	QuitTypeAbstinence QuitHabitType = "abstinence"
	QuitTypeLimit      QuitHabitType = "limit"
)

// GoalUnit is the unit of a habit's daily goal. UnitNone means the habit is
// a binary complete/incomplete check-off.
type GoalUnit string

const (
	UnitNone    GoalUnit = "none"
	UnitSteps   GoalUnit = "steps"
	UnitMinutes GoalUnit = "minutes"
	UnitHours   GoalUnit = "hours"
	UnitLiters  GoalUnit = "liters"
	UnitGlasses GoalUnit = "glasses"
	UnitGrams   GoalUnit = "grams"
	UnitCount   GoalUnit = "count"
)

// TrackingMode selects whether progress comes from user actions or from an
// external metric source.
type TrackingMode string

const (
	TrackingManual    TrackingMode = "manual"
	TrackingAutomatic TrackingMode = "automatic"
)

// Habit represents a tracked behavior.
//
// CurrentProgress, IsCompleted and LastCompletionDate are live daily state,
// reconstructed from entries on every reconciliation. Streak and
// LongestStreak are derived counters owned by the streak calculator; no
// other code may hand-increment them.
type Habit struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         HabitType     `json:"type"`
	QuitType     QuitHabitType `json:"quit_type,omitempty"`
	GoalTarget   float64       `json:"goal_target"`
	GoalUnit     GoalUnit      `json:"goal_unit"`
	TrackingMode TrackingMode  `json:"tracking_mode"`
	// MetricKind names the external metric backing an automatic habit.
	// Habits persisted before this field existed fall back to name-keyword
	// inference (see metrics.KindForHabit).
	MetricKind string `json:"metric_kind,omitempty"`

	CurrentProgress    float64 `json:"current_progress"`
	IsCompleted        bool    `json:"is_completed"`
	LastCompletionDate string  `json:"last_completion_date,omitempty"` // YYYY-MM-DD

	Streak        int `json:"streak"`
	LongestStreak int `json:"longest_streak"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// IsGoalBased reports whether the habit tracks a numeric daily goal rather
// than a binary check-off.
func (h Habit) IsGoalBased() bool {
	return h.GoalUnit != UnitNone && h.GoalUnit != ""
}

// HabitEntry records the outcome of one (habit, calendar day) pair. The
// goal parameters are frozen at recording time so later edits to the habit
// do not retroactively change history's meaning. At most one entry exists
// per habit and day.
type HabitEntry struct {
	ID       string        `json:"id"`
	HabitID  string        `json:"habit_id"`
	Day      string        `json:"day"` // YYYY-MM-DD
	Progress float64       `json:"progress"`
	Target   float64       `json:"target"`
	Unit     GoalUnit      `json:"unit"`
	Type     HabitType     `json:"type"`
	QuitType QuitHabitType `json:"quit_type,omitempty"`
	// IsCompleted marks an explicit success. For quit habits it is the only
	// success signal; absence of failure never counts as success.
	IsCompleted bool `json:"is_completed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsSuccessful reports whether the entry's day counts toward a streak.
// Build habits with a goal succeed by reaching the target or by an explicit
// completion; binary build habits and all quit habits succeed only by
// explicit completion.
func (e HabitEntry) IsSuccessful() bool {
	if e.Type == HabitTypeBuild && e.Unit != UnitNone && e.Unit != "" {
		return e.IsCompleted || e.Progress >= e.Target
	}
	return e.IsCompleted
}
