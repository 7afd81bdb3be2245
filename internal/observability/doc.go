// Package observability records board activity to an append-only JSON Lines
// event log, derives progress metrics from it on demand, and delivers
// celebration notifications to the terminal and to Slack.
package observability
