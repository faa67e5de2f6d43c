package barcode

import (
	"context"
	"math/rand"
	"regexp"
	"time"

	"github.com/tair/stock-ledger/pkg/logger"
)

var formatPattern = regexp.MustCompile(`^[A-Za-z0-9]{3,20}$`)

// ValidateFormat reports whether a scanned code looks like a valid item code
func ValidateFormat(code string) bool {
	return formatPattern.MatchString(code)
}

// Scanner resolves a physical scan to an item code
type Scanner interface {
	Scan(ctx context.Context) (string, error)
}

// MockScanner simulates a hardware scanner by picking one of a fixed set of
// sample codes after a short delay. Randomness and delay are injected so
// tests stay deterministic.
type MockScanner struct {
	codes []string
	rng   *rand.Rand
	delay time.Duration
}

// Option configures a MockScanner
type Option func(*MockScanner)

// WithRand injects the random source
func WithRand(rng *rand.Rand) Option {
	return func(s *MockScanner) { s.rng = rng }
}

// WithDelay sets the simulated scan latency
func WithDelay(d time.Duration) Option {
	return func(s *MockScanner) { s.delay = d }
}

// WithCodes replaces the sample code set
func WithCodes(codes []string) Option {
	return func(s *MockScanner) { s.codes = codes }
}

// NewMockScanner creates a mock scanner
func NewMockScanner(opts ...Option) *MockScanner {
	s := &MockScanner{
		codes: []string{"ITEM001", "ITEM002", "ITEM003", "ITEM004", "ITEM005"},
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		delay: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan simulates a camera scan and returns one of the sample codes
func (s *MockScanner) Scan(ctx context.Context) (string, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	code := s.codes[s.rng.Intn(len(s.codes))]
	logger.Debug(ctx).Str("code", code).Msg("Mock barcode scanned")
	return code, nil
}
