package services

import "github.com/prometheus/client_golang/prometheus"

var (
	activitiesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "activities_recorded_total",
			Help: "Total number of durably recorded activities",
		},
	)
	recordingFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_recording_failures_total",
			Help: "Recording pipeline failures by stage",
		},
		[]string{"stage"},
	)
	badgesAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Total number of newly awarded badges",
		},
	)
	leaderboardQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_queries_total",
			Help: "Leaderboard queries by scope",
		},
		[]string{"scope"},
	)
)

// InitPrometheus registers the pipeline metrics. Call this from main.go
func InitPrometheus() {
	prometheus.MustRegister(activitiesRecorded)
	prometheus.MustRegister(recordingFailures)
	prometheus.MustRegister(badgesAwarded)
	prometheus.MustRegister(leaderboardQueries)
}
