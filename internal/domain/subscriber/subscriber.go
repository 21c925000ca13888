// Package subscriber holds the Subscriber and Plan aggregates plus the
// repository contracts the cycle engine persists through. Subscribers are
// created and destroyed elsewhere; this engine only mutates their temporal
// and usage fields.
package subscriber

import (
	"fmt"
	"time"
)

// Subscriber is the aggregate the cycle engine operates on. The two temporal
// fields it keeps consistent are expiredAt (nil = never expires) and
// nextResetAt (nil = no scheduled auto-reset).
type Subscriber struct {
	id           uint
	planID       *uint
	expiredAt    *time.Time
	nextResetAt  *time.Time
	lastResetAt  *time.Time
	usedUpload   uint64
	usedDownload uint64
	trafficQuota uint64
	suspended    bool
	version      int
	createdAt    time.Time
	updatedAt    time.Time
}

// ReconstructSubscriber rebuilds a subscriber from persistence.
func ReconstructSubscriber(
	id uint,
	planID *uint,
	expiredAt, nextResetAt, lastResetAt *time.Time,
	usedUpload, usedDownload, trafficQuota uint64,
	suspended bool,
	version int,
	createdAt, updatedAt time.Time,
) (*Subscriber, error) {
	if id == 0 {
		return nil, fmt.Errorf("subscriber ID cannot be zero")
	}
	if planID != nil && *planID == 0 {
		return nil, fmt.Errorf("plan ID cannot be zero when set")
	}
	return &Subscriber{
		id:           id,
		planID:       planID,
		expiredAt:    expiredAt,
		nextResetAt:  nextResetAt,
		lastResetAt:  lastResetAt,
		usedUpload:   usedUpload,
		usedDownload: usedDownload,
		trafficQuota: trafficQuota,
		suspended:    suspended,
		version:      version,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (s *Subscriber) ID() uint {
	return s.id
}

func (s *Subscriber) PlanID() *uint {
	return s.planID
}

func (s *Subscriber) HasPlan() bool {
	return s.planID != nil
}

func (s *Subscriber) ExpiredAt() *time.Time {
	return s.expiredAt
}

func (s *Subscriber) NextResetAt() *time.Time {
	return s.nextResetAt
}

func (s *Subscriber) LastResetAt() *time.Time {
	return s.lastResetAt
}

func (s *Subscriber) UsedUpload() uint64 {
	return s.usedUpload
}

func (s *Subscriber) UsedDownload() uint64 {
	return s.usedDownload
}

// TotalUsed returns combined upload and download usage.
func (s *Subscriber) TotalUsed() uint64 {
	return s.usedUpload + s.usedDownload
}

func (s *Subscriber) TrafficQuota() uint64 {
	return s.trafficQuota
}

// IsUnmetered reports whether the subscriber has no byte ceiling.
func (s *Subscriber) IsUnmetered() bool {
	return s.trafficQuota == 0
}

func (s *Subscriber) Suspended() bool {
	return s.suspended
}

func (s *Subscriber) Version() int {
	return s.version
}

func (s *Subscriber) CreatedAt() time.Time {
	return s.createdAt
}

func (s *Subscriber) UpdatedAt() time.Time {
	return s.updatedAt
}

// IsExpired reports whether the subscriber's term has lapsed at the given
// instant. A nil expiration never expires.
func (s *Subscriber) IsExpired(now time.Time) bool {
	return s.expiredAt != nil && !s.expiredAt.After(now)
}

// TrafficExhausted reports whether combined usage has crossed the given
// fraction of the quota. Unmetered subscribers never exhaust.
func (s *Subscriber) TrafficExhausted(threshold float64) bool {
	if s.trafficQuota == 0 {
		return false
	}
	return float64(s.TotalUsed()) >= float64(s.trafficQuota)*threshold
}

// ChangePlan moves the subscriber onto a different plan. Applying an order
// for the plan the subscriber already has is a no-op.
func (s *Subscriber) ChangePlan(planID uint) error {
	if planID == 0 {
		return fmt.Errorf("plan ID is required")
	}
	if s.planID != nil && *s.planID == planID {
		return nil
	}
	s.planID = &planID
	s.touch()
	return nil
}

// SetExpiration overwrites the expiration instant.
func (s *Subscriber) SetExpiration(expiredAt *time.Time) {
	s.expiredAt = cloneTime(expiredAt)
	s.touch()
}

// ScheduleReset overwrites the next scheduled traffic reset.
func (s *Subscriber) ScheduleReset(nextResetAt *time.Time) {
	s.nextResetAt = cloneTime(nextResetAt)
	s.touch()
}

// ApplyCycle sets both temporal fields in one mutation. It enforces the
// ordering invariant: a scheduled reset may never land after expiration.
func (s *Subscriber) ApplyCycle(expiredAt, nextResetAt *time.Time) error {
	if expiredAt != nil && nextResetAt != nil && nextResetAt.After(*expiredAt) {
		return fmt.Errorf("next reset %s is after expiration %s", nextResetAt, expiredAt)
	}
	s.expiredAt = cloneTime(expiredAt)
	s.nextResetAt = cloneTime(nextResetAt)
	s.touch()
	return nil
}

// RecordReset zeroes the usage counters and stamps the reset instant. Called
// by the traffic-reset primitive, not by the cycle engine directly.
func (s *Subscriber) RecordReset(now time.Time) {
	s.usedUpload = 0
	s.usedDownload = 0
	t := now
	s.lastResetAt = &t
	s.touch()
}

// ExpirationMatches reports whether the stored expiration equals the given
// value. Used for change detection before persisting.
func (s *Subscriber) ExpirationMatches(expiredAt *time.Time) bool {
	return timesEqual(s.expiredAt, expiredAt)
}

// NextResetMatches reports whether the stored schedule equals the given
// value. Used for change detection before persisting.
func (s *Subscriber) NextResetMatches(nextResetAt *time.Time) bool {
	return timesEqual(s.nextResetAt, nextResetAt)
}

func (s *Subscriber) touch() {
	s.updatedAt = time.Now().UTC()
	s.version++
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
