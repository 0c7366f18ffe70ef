package config

const (
	// Transparency points awarded per action
	ComplaintReward = 10
	CommentReward   = 10
	StatReward      = 10

	// DefaultUserID is the seeded row that stands in for the current user
	// when a request carries no session.
	DefaultUserID = "1"

	// Leaderboard
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100

	// Feed
	MaxPageSize         = 100
	MaxSuggestions      = 5
	TrendingTopicsMax   = 4
	DefaultTimelineDays = 7
)

// Gamification counters accepted by IncrementUserStat.
const (
	StatComplaintsSubmitted = "complaintsSubmitted"
	StatCommentsGiven       = "commentsGiven"
	StatHelpfulVotes        = "helpfulVotes"
)

// StatColumns maps gamification counters to their user columns.
var StatColumns = map[string]string{
	StatComplaintsSubmitted: "complaints_submitted",
	StatCommentsGiven:       "comments_given",
	StatHelpfulVotes:        "helpful_votes",
}
