// Package launchmock holds go.uber.org/mock test doubles for
// internal/launch's TrustPool and Downloader interfaces, in the shape of
// claircore's test/mock/indexer package.
package launchmock

//go:generate -command mockgen go run go.uber.org/mock/mockgen -destination=./mocks.go github.com/kayyagari/ballista/internal/launch
//go:generate mockgen TrustPool,Downloader
