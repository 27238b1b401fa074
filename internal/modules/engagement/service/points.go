package service

const (
	ActionFriendAdd     = "friend_add"
	ActionEventJoin     = "event_join"
	ActionAppOpen       = "app_open"
	ActionStreak7Days   = "streak_7_days"
	ActionStreak30Days  = "streak_30_days"
	PointsFriendAdd     = 50
	PointsEventJoin     = 20
	PointsAppOpen       = 5
	PointsStreak7Days   = 100
	PointsStreak30Days  = 500
	streakBonusShortRun = 7
	streakBonusLongRun  = 30
)

var pointTable = map[string]int{
	ActionFriendAdd:    PointsFriendAdd,
	ActionEventJoin:    PointsEventJoin,
	ActionAppOpen:      PointsAppOpen,
	ActionStreak7Days:  PointsStreak7Days,
	ActionStreak30Days: PointsStreak30Days,
}

// PointsFor returns the fixed reward for action.
func PointsFor(action string) (int, bool) {
	points, ok := pointTable[action]
	return points, ok
}

// streakAction picks the ledger action earned by reaching streak days.
// An empty string means nothing is earned.
func streakAction(streak int) string {
	switch {
	case streak == streakBonusShortRun:
		return ActionStreak7Days
	case streak == streakBonusLongRun:
		return ActionStreak30Days
	case streak > 1:
		return ActionAppOpen
	default:
		return ""
	}
}

// isOneTimeBonus reports whether action may appear at most once in a user's ledger.
func isOneTimeBonus(action string) bool {
	return action == ActionStreak7Days || action == ActionStreak30Days
}
