package memory

import (
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"

	"cyclone-bot/pkg/store"
)

func newTestRepository() *AnalysisRepository {
	return NewAnalysisRepository(time.Hour, 10*time.Minute, 24*time.Hour)
}

func newShortLivedCache(t *testing.T, ttl time.Duration) *cache.Cache {
	t.Helper()
	return cache.New(ttl, time.Minute)
}

func TestAnalysisRoundTrip(t *testing.T) {
	repo := newTestRepository()
	a := &store.Analysis{Title: "牙醫預約", Kind: store.KindEvent, StartDate: "2025-06-11", Confidence: 0.9}

	repo.SaveAnalysis("msg-1", a)

	got, found := repo.GetAnalysis("msg-1")
	if !found {
		t.Fatal("analysis not found after save")
	}
	if got != a {
		t.Error("expected the same analysis pointer back")
	}

	if _, found := repo.GetAnalysis("msg-2"); found {
		t.Error("unexpected hit for unknown message id")
	}
}

func TestDeleteAnalysisIsIdempotent(t *testing.T) {
	repo := newTestRepository()
	repo.SaveAnalysis("msg-1", &store.Analysis{Title: "t"})

	repo.DeleteAnalysis("msg-1")
	repo.DeleteAnalysis("msg-1")
	repo.DeleteAnalysis("never-existed")

	if _, found := repo.GetAnalysis("msg-1"); found {
		t.Error("analysis still present after delete")
	}
}

func TestAnalysisExpires(t *testing.T) {
	repo := &AnalysisRepository{
		cache:     newShortLivedCache(t, 20*time.Millisecond),
		recordTTL: time.Hour,
	}
	repo.SaveAnalysis("msg-1", &store.Analysis{Title: "t"})

	if _, found := repo.GetAnalysis("msg-1"); !found {
		t.Fatal("analysis should be readable before the TTL")
	}

	time.Sleep(50 * time.Millisecond)

	if _, found := repo.GetAnalysis("msg-1"); found {
		t.Error("analysis should have expired")
	}
}

func TestRecordRoundTripAndSeparateNamespace(t *testing.T) {
	repo := newTestRepository()
	repo.SaveRecord("msg-1", &store.Record{Action: store.ActionEvent, Title: "開會"})

	rec, found := repo.GetRecord("msg-1")
	if !found || rec.Action != store.ActionEvent {
		t.Fatalf("record = %+v, found = %v", rec, found)
	}

	// A record never satisfies an analysis lookup for the same id.
	if _, found := repo.GetAnalysis("msg-1"); found {
		t.Error("record leaked into the analysis namespace")
	}
}

func TestClaimResolutionIsExclusive(t *testing.T) {
	repo := newTestRepository()

	if !repo.ClaimResolution("msg-1") {
		t.Fatal("first claim should succeed")
	}
	if repo.ClaimResolution("msg-1") {
		t.Error("second claim on the same message should fail")
	}
	if !repo.ClaimResolution("msg-2") {
		t.Error("claims on different messages are independent")
	}

	repo.ReleaseClaim("msg-1")
	if !repo.ClaimResolution("msg-1") {
		t.Error("claim should succeed again after release")
	}
}

func TestConcurrentClaimsAdmitExactlyOne(t *testing.T) {
	repo := newTestRepository()

	const clickers = 16
	var wg sync.WaitGroup
	winners := make(chan struct{}, clickers)
	for i := 0; i < clickers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.ClaimResolution("msg-1") {
				winners <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(winners)

	count := 0
	for range winners {
		count++
	}
	if count != 1 {
		t.Errorf("expected exactly one winning claim, got %d", count)
	}
}

func TestMarkURLProcessing(t *testing.T) {
	repo := newTestRepository()
	url := "https://example.com/article"

	if !repo.MarkURLProcessing(url) {
		t.Fatal("first mark should succeed")
	}
	if repo.MarkURLProcessing(url) {
		t.Error("duplicate mark should be rejected while processing")
	}

	repo.MarkURLDone(url)
	if !repo.MarkURLProcessing(url) {
		t.Error("mark should succeed again after done")
	}
}
