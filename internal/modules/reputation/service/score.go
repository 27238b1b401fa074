package service

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/himTresor1/celia-sub001/internal/entity"
	"github.com/himTresor1/celia-sub001/internal/modules/reputation/repository"
)

type Counts = repository.Counts

const (
	MaxScore = 100

	weightCompleteness = 25.0
	weightFriends      = 20.0
	weightAttended     = 15.0
	weightAcceptance   = 15.0
	weightEngagement   = 15.0
	weightStreak       = 10.0

	profileChecks  = 7
	minBioLength   = 50
	minInterests   = 3
	pointsCeiling  = 1000.0
	streakCeiling  = 30.0
	friendsFactor  = 6.0
	attendedFactor = 5.0
)

// Breakdown is the per-signal contribution before rounding.
type Breakdown struct {
	Completeness float64 `json:"completeness"`
	Friends      float64 `json:"friends"`
	Attended     float64 `json:"attended"`
	Acceptance   float64 `json:"acceptance"`
	Engagement   float64 `json:"engagement"`
	Streak       float64 `json:"streak"`
}

func (b Breakdown) Total() float64 {
	return b.Completeness + b.Friends + b.Attended + b.Acceptance + b.Engagement + b.Streak
}

// Calculate returns the reputation score in [0, 100]. It has no side effects.
func Calculate(user *entity.User, counts Counts) int {
	return clamp(int(math.Round(Explain(user, counts).Total())))
}

// Explain computes the contribution of each signal.
func Explain(user *entity.User, counts Counts) Breakdown {
	var b Breakdown

	b.Completeness = float64(CompletedProfileChecks(user)) / profileChecks * weightCompleteness
	b.Friends = math.Min(weightFriends, math.Log10(float64(nonNegative(counts.Friends))+1)*friendsFactor)
	b.Attended = math.Min(weightAttended, math.Log10(float64(nonNegative(counts.EventsAttended))+1)*attendedFactor)

	if counts.InvitationsReceived > 0 {
		ratio := float64(nonNegative(counts.InvitationsAccepted)) / float64(counts.InvitationsReceived)
		b.Acceptance = math.Min(1, ratio) * weightAcceptance
	}

	if user != nil {
		b.Engagement = math.Min(weightEngagement, math.Max(0, float64(user.EngagementPoints))/pointsCeiling*weightEngagement)
		b.Streak = math.Min(weightStreak, math.Max(0, float64(user.StreakDays))/streakCeiling*weightStreak)
	}

	return b
}

// CompletedProfileChecks counts the satisfied profile completeness checks, 0 to 7.
func CompletedProfileChecks(user *entity.User) int {
	if user == nil {
		return 0
	}

	checks := []bool{
		strings.TrimSpace(user.FullName) != "",
		utf8.RuneCountInString(strings.TrimSpace(user.Bio)) >= minBioLength,
		strings.TrimSpace(user.College) != "",
		strings.TrimSpace(user.Major) != "",
		len(user.Interests) >= minInterests,
		len(user.Photos) >= 1,
		len(user.PreferredLocations) >= 1,
	}

	completed := 0
	for _, ok := range checks {
		if ok {
			completed++
		}
	}
	return completed
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
