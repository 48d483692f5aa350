package services

import (
	"fmt"
	"strings"

	"welcomebook-credits/internal/models"
)

// Score buckets for reward sizing. A heavily personalized post diverges more
// from the template and earns more.
const (
	BucketLow    = "low"    // 0-39
	BucketMedium = "medium" // 40-69
	BucketHigh   = "high"   // 70-100
)

type rewardKey struct {
	Platform string
	PostType string
	Bucket   string
}

// rewardTable is the deterministic lookup keyed by (platform, post_type,
// score bucket). Same inputs always yield the same reward.
var rewardTable = map[rewardKey]int64{
	{"facebook", "feed", BucketLow}:     10,
	{"facebook", "feed", BucketMedium}:  20,
	{"facebook", "feed", BucketHigh}:    30,
	{"facebook", "story", BucketLow}:    5,
	{"facebook", "story", BucketMedium}: 10,
	{"facebook", "story", BucketHigh}:   15,

	{"instagram", "feed", BucketLow}:     10,
	{"instagram", "feed", BucketMedium}:  25,
	{"instagram", "feed", BucketHigh}:    40,
	{"instagram", "story", BucketLow}:    5,
	{"instagram", "story", BucketMedium}: 15,
	{"instagram", "story", BucketHigh}:   20,

	{"linkedin", "feed", BucketLow}:    15,
	{"linkedin", "feed", BucketMedium}: 30,
	{"linkedin", "feed", BucketHigh}:   50,

	{"x", "feed", BucketLow}:    10,
	{"x", "feed", BucketMedium}: 20,
	{"x", "feed", BucketHigh}:   30,
}

// ScoreBucket maps a personalization score to its reward bucket
func ScoreBucket(score int) string {
	switch {
	case score < 40:
		return BucketLow
	case score < 70:
		return BucketMedium
	default:
		return BucketHigh
	}
}

// RewardForScore returns the credit reward for a scored custom post
func RewardForScore(platform, postType string, score int) (int64, error) {
	if score < 0 || score > 100 {
		return 0, fmt.Errorf("%w: personalization score %d out of range", models.ErrValidation, score)
	}

	key := rewardKey{
		Platform: strings.ToLower(platform),
		PostType: strings.ToLower(postType),
		Bucket:   ScoreBucket(score),
	}

	reward, ok := rewardTable[key]
	if !ok {
		return 0, fmt.Errorf("%w: unsupported platform/post type %s/%s", models.ErrValidation, platform, postType)
	}
	return reward, nil
}
