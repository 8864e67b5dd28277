package models

import "time"

// Failure categories reported in CrawlResult.FailuresByCategory.
const (
	FailureUpstreamFetch   = "upstream_fetch"
	FailureMalformedRecord = "malformed_player_record"
	FailureStorageWrite    = "storage_write"
	FailureCheckpoint      = "checkpoint"
	FailureDuplicateKey    = "duplicate_key"
	FailureUnclassified    = "unclassified"
)

// CrawlResult holds the overall result of one crawl window.
type CrawlResult struct {
	StartDate     time.Time
	EndDate       time.Time
	SchemaVersion string
	StartTime     time.Time
	EndTime       time.Time

	// EmptyWindow is set when the schedule listed no games.
	EmptyWindow    bool
	GamesAttempted int
	GamesSucceeded int
	GamesSkipped   int
	GamesFailed    int
	PlayersStored  int
	PlayersFailed  int
	// PlayersDuplicate counts players whose key was already written in this
	// run, e.g. listed on both sides of a game.
	PlayersDuplicate int

	FailuresByCategory map[string]int
	FailedGames        []GameID
}

// NewCrawlResult returns a result with its maps initialised.
func NewCrawlResult(start, end time.Time, version string) *CrawlResult {
	return &CrawlResult{
		StartDate:          start,
		EndDate:            end,
		SchemaVersion:      version,
		StartTime:          time.Now(),
		FailuresByCategory: make(map[string]int),
	}
}

// TotalFailures sums the per-category failure counts.
func (r *CrawlResult) TotalFailures() int {
	total := 0
	for _, n := range r.FailuresByCategory {
		total += n
	}
	return total
}
