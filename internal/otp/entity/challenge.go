package entity

import "time"

// MaxAttempts is the number of verification attempts a challenge accepts.
const MaxAttempts = 5

// Code bounds. Codes are uniform over [CodeMin, CodeMax].
const (
	CodeMin = 100000
	CodeMax = 999999
)

// Key addresses the single active challenge of a destination and purpose.
// SubjectID is zero for purposes without a subject.
type Key struct {
	Destination string
	Purpose     Purpose
	SubjectID   int64
}

// Challenge is a stored one-time code. CodeDigest is the HMAC of the code;
// the code itself is never kept.
type Challenge struct {
	ID          string
	Destination string
	CodeDigest  string
	Purpose     Purpose
	OwnerID     int64
	SubjectID   int64
	IssuedAt    time.Time
	ExpiresAt   time.Time
	Attempts    int
	Consumed    bool
	ConsumedAt  time.Time
}

func (c Challenge) Key() Key {
	return Key{Destination: c.Destination, Purpose: c.Purpose, SubjectID: c.SubjectID}
}

func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Issued is returned to the caller after a code was delivered.
type Issued struct {
	ChallengeRef string
	ExpiresAt    time.Time
}

// Status is the caller visible state of a challenge.
type Status struct {
	Pending   bool
	ExpiresAt time.Time
	Attempts  int
}

// Counter names a per-purpose statistic.
type Counter string

const (
	CounterIssued         Counter = "issued"
	CounterVerified       Counter = "verified"
	CounterExpired        Counter = "expired"
	CounterExhausted      Counter = "exhausted"
	CounterInvalid        Counter = "invalid"
	CounterDeliveryFailed Counter = "delivery_failed"
)

// PurposeStats holds the counters of one purpose.
type PurposeStats struct {
	Purpose        Purpose `json:"purpose"`
	Issued         int64   `json:"issued"`
	Verified       int64   `json:"verified"`
	Expired        int64   `json:"expired"`
	Exhausted      int64   `json:"exhausted"`
	Invalid        int64   `json:"invalid"`
	DeliveryFailed int64   `json:"delivery_failed"`
}

// Stats is a snapshot of every purpose.
type Stats struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Purposes    []PurposeStats `json:"purposes"`
}

// AttemptQuery carries what a verification attempt asserts about the
// challenge before its attempt counter is incremented.
type AttemptQuery struct {
	ChallengeRef string
	// CodeDigest is the digest of the presented code. Without a ChallengeRef,
	// a digest that belongs to a superseded challenge of the key is reported
	// as not found and costs no attempt.
	CodeDigest  string
	OwnerID     int64
	Now         time.Time
	MaxAttempts int
}

// MaxSuperseded is how many superseded code digests a challenge remembers.
const MaxSuperseded = 5

// AttemptResult is the outcome of an atomic attempt increment.
type AttemptResult int

const (
	AttemptAccepted AttemptResult = iota
	AttemptNotFound
	AttemptExpired
	AttemptExhausted
)

// Delivery is handed to the notifier. It is the only place the plain code
// travels.
type Delivery struct {
	Destination string
	Purpose     Purpose
	Code        string
	ExpiresAt   time.Time
}
