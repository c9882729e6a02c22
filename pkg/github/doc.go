// Package github provides the GitHub REST API access used by ghtool.
//
// The package includes:
// - Client, a go-github backed Requester that classifies every response into an Outcome
// - Fetcher, an order-preserving bounded worker pool for repository lookups
// - RepositorySummary and the projection from raw API objects
package github
