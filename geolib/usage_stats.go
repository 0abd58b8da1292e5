package geolib

import (
	"encoding/json"
	"sync"
	"time"
)

// UsageStats tracks how a provider is used by orchestrator.
type UsageStats struct {
	Name string

	mutex        sync.Mutex
	lastUsed     time.Time
	lastFailed   time.Time
	successCount uint64
	failureCount uint64
}

// UsageStatsSnapshot is a consistent copy of UsageStats.
type UsageStatsSnapshot struct {
	Name         string
	LastUsed     time.Time
	LastFailed   time.Time
	SuccessCount uint64
	FailureCount uint64
}

func (u *UsageStats) Used(err error) {
	now := time.Now()

	u.mutex.Lock()
	defer u.mutex.Unlock()

	u.lastUsed = now

	if err == nil {
		u.successCount++
	} else {
		u.failureCount++
		u.lastFailed = now
	}
}

func (u *UsageStats) Snapshot() UsageStatsSnapshot {
	u.mutex.Lock()
	defer u.mutex.Unlock()

	return UsageStatsSnapshot{
		Name:         u.Name,
		LastUsed:     u.lastUsed,
		LastFailed:   u.lastFailed,
		SuccessCount: u.successCount,
		FailureCount: u.failureCount,
	}
}

func (u *UsageStats) MarshalJSON() ([]byte, error) {
	snapshot := u.Snapshot()

	var lastUsedTime, lastFailedTime int64

	if !snapshot.LastUsed.IsZero() {
		lastUsedTime = snapshot.LastUsed.Unix()
	}

	if !snapshot.LastFailed.IsZero() {
		lastFailedTime = snapshot.LastFailed.Unix()
	}

	rawStruct := struct {
		Name         string `json:"name"`
		LastUsed     int64  `json:"last_used"`
		LastFailed   int64  `json:"last_failed"`
		SuccessCount uint64 `json:"success_count"`
		FailureCount uint64 `json:"failure_count"`
	}{
		Name:         snapshot.Name,
		LastUsed:     lastUsedTime,
		LastFailed:   lastFailedTime,
		SuccessCount: snapshot.SuccessCount,
		FailureCount: snapshot.FailureCount,
	}

	return json.Marshal(&rawStruct)
}
