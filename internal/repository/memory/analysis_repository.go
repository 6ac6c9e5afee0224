package memory

import (
	"time"

	"github.com/patrickmn/go-cache"

	"cyclone-bot/pkg/store"
)

// Key namespaces inside the shared cache.
const (
	analysisPrefix   = "analysis:"
	recordPrefix     = "record:"
	claimPrefix      = "claim:"
	processingPrefix = "processing:"
)

// claimTTL bounds how long a button resolution can hold its message
// claim before a retry is allowed again.
const claimTTL = 5 * time.Minute

const processingTTL = 60 * time.Second

type AnalysisRepository struct {
	cache     *cache.Cache
	recordTTL time.Duration
}

func NewAnalysisRepository(defaultTTL, cleanupInterval, recordTTL time.Duration) *AnalysisRepository {
	// Pending analyses live for the default TTL (1 hour in production)
	// and expired entries are purged every cleanup interval.
	c := cache.New(defaultTTL, cleanupInterval)
	return &AnalysisRepository{
		cache:     c,
		recordTTL: recordTTL,
	}
}

// SaveAnalysis stores a pending analysis keyed by the preview message id.
func (r *AnalysisRepository) SaveAnalysis(messageID string, a *store.Analysis) {
	r.cache.Set(analysisPrefix+messageID, a, cache.DefaultExpiration)
}

func (r *AnalysisRepository) GetAnalysis(messageID string) (*store.Analysis, bool) {
	if x, found := r.cache.Get(analysisPrefix + messageID); found {
		return x.(*store.Analysis), true
	}
	return nil, false
}

// DeleteAnalysis removes a pending analysis. Deleting an absent key is
// a no-op.
func (r *AnalysisRepository) DeleteAnalysis(messageID string) {
	r.cache.Delete(analysisPrefix + messageID)
}

// SaveRecord keeps the resolved outcome around after the buttons are
// gone, so late clicks can report what already happened.
func (r *AnalysisRepository) SaveRecord(messageID string, rec *store.Record) {
	r.cache.Set(recordPrefix+messageID, rec, r.recordTTL)
}

func (r *AnalysisRepository) GetRecord(messageID string) (*store.Record, bool) {
	if x, found := r.cache.Get(recordPrefix + messageID); found {
		return x.(*store.Record), true
	}
	return nil, false
}

// ClaimResolution atomically claims the message for one resolver. The
// second concurrent click loses and must back off.
func (r *AnalysisRepository) ClaimResolution(messageID string) bool {
	return r.cache.Add(claimPrefix+messageID, true, claimTTL) == nil
}

// ReleaseClaim frees the claim so the action can be retried after a
// recoverable failure.
func (r *AnalysisRepository) ReleaseClaim(messageID string) {
	r.cache.Delete(claimPrefix + messageID)
}

// MarkURLProcessing dedupes rapid re-posts of the same URL. Returns
// false when the URL is already being processed.
func (r *AnalysisRepository) MarkURLProcessing(url string) bool {
	return r.cache.Add(processingPrefix+url, true, processingTTL) == nil
}

func (r *AnalysisRepository) MarkURLDone(url string) {
	r.cache.Delete(processingPrefix + url)
}
