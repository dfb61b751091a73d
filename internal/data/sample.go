// Package data holds the persisted shapes shared by repo and API layers.
package data

import "time"

// Sample is one point-in-time snapshot of the daemon's global statistics,
// recorded once per poll cycle.
type Sample struct {
	ID            string    `json:"id"`
	TakenAt       time.Time `json:"takenAt"`
	DownloadSpeed int64     `json:"downloadSpeed"` // bytes/sec
	UploadSpeed   int64     `json:"uploadSpeed"`   // bytes/sec
	NumActive     int       `json:"numActive"`
	NumWaiting    int       `json:"numWaiting"`
	NumStopped    int       `json:"numStopped"`
}

// Unfinished is the number of tasks not yet complete at sample time.
func (s Sample) Unfinished() int {
	return s.NumActive + s.NumWaiting
}

// Samples is a list of samples, newest first.
type Samples []Sample
