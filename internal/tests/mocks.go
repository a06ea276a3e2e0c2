package tests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"evrental/internal/domain"
	"evrental/internal/redis"
	"evrental/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
// Transition keeps the status-guard semantics of the real store so
// race-sensitive tests behave like production.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	events   map[string][]*domain.BookingEvent

	// Counters for verification
	CreateCallCount     int32
	TransitionCallCount int32

	// Error injection
	CreateError     error
	TransitionError error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
		events:   make(map[string][]*domain.BookingEvent),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

// GetBooking returns the stored booking for test assertions.
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// CountBookings returns the number of stored bookings.
func (m *MockBookingRepository) CountBookings() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bookings)
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *booking
	m.bookings[booking.ID] = &copy
	m.events[booking.ID] = append(m.events[booking.ID], &domain.BookingEvent{
		BookingID: booking.ID,
		ToStatus:  booking.Status,
		Event:     "booking_created",
		Actor:     booking.RenterID,
		CreatedAt: booking.CreatedAt,
	})
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) GetByNumber(ctx context.Context, number string) (*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, b := range m.bookings {
		if b.Number == number {
			copy := *b
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockBookingRepository) GetAll(ctx context.Context) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Booking, 0, len(m.bookings))
	for _, b := range m.bookings {
		copy := *b
		result = append(result, &copy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *MockBookingRepository) FindActiveOverlapping(ctx context.Context, vehicleID string, start, end time.Time) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.VehicleID != vehicleID {
			continue
		}
		if !isActiveStatus(b.Status) {
			continue
		}
		if b.Overlaps(start, end) {
			copy := *b
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockBookingRepository) FindExpiredHolds(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Booking
	for _, b := range m.bookings {
		if b.Status != domain.BookingStatusReserved && b.Status != domain.BookingStatusPending {
			continue
		}
		if b.ReservedUntil.IsZero() || !b.ReservedUntil.Before(now) {
			continue
		}
		copy := *b
		result = append(result, &copy)
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *MockBookingRepository) Transition(ctx context.Context, booking *domain.Booking, from domain.BookingStatus, event, actor string) error {
	atomic.AddInt32(&m.TransitionCallCount, 1)
	if m.TransitionError != nil {
		return m.TransitionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.bookings[booking.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != from {
		return fmt.Errorf("%w: have %s, want %s", repository.ErrStaleStatus, stored.Status, from)
	}

	copy := *booking
	m.bookings[booking.ID] = &copy
	m.events[booking.ID] = append(m.events[booking.ID], &domain.BookingEvent{
		BookingID:  booking.ID,
		FromStatus: from,
		ToStatus:   booking.Status,
		Event:      event,
		Actor:      actor,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (m *MockBookingRepository) ListEvents(ctx context.Context, bookingID string) ([]*domain.BookingEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	events := m.events[bookingID]
	result := make([]*domain.BookingEvent, 0, len(events))
	for _, e := range events {
		copy := *e
		result = append(result, &copy)
	}
	return result, nil
}

// Events returns the recorded audit trail for test assertions.
func (m *MockBookingRepository) Events(bookingID string) []*domain.BookingEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.events[bookingID]
}

func isActiveStatus(s domain.BookingStatus) bool {
	for _, active := range domain.ActiveStatuses() {
		if s == active {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	mu       sync.RWMutex
	vehicles map[string]*domain.Vehicle

	UpdateAvailabilityCallCount int32
	UpdateAvailabilityError     error
}

// NewMockVehicleRepository creates a new mock vehicle repository.
func NewMockVehicleRepository() *MockVehicleRepository {
	return &MockVehicleRepository{
		vehicles: make(map[string]*domain.Vehicle),
	}
}

// AddVehicle adds a vehicle to the mock repository.
func (m *MockVehicleRepository) AddVehicle(vehicle *domain.Vehicle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
}

// GetVehicle returns the stored vehicle for test assertions.
func (m *MockVehicleRepository) GetVehicle(id string) *domain.Vehicle {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vehicles[id]
}

func (m *MockVehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vehicles[vehicle.ID] = vehicle
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *vehicle
	return &copy, nil
}

func (m *MockVehicleRepository) GetAll(ctx context.Context) ([]*domain.Vehicle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Vehicle, 0, len(m.vehicles))
	for _, v := range m.vehicles {
		copy := *v
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockVehicleRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	atomic.AddInt32(&m.UpdateAvailabilityCallCount, 1)
	if m.UpdateAvailabilityError != nil {
		return m.UpdateAvailabilityError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	vehicle, ok := m.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	vehicle.Available = available
	return nil
}

// ──────────────────────────────────────────────
// MOCK STATION REPOSITORY
// ──────────────────────────────────────────────

// MockStationRepository is a mock implementation of StationRepository.
type MockStationRepository struct {
	mu       sync.RWMutex
	stations map[string]*domain.Station
}

// NewMockStationRepository creates a new mock station repository.
func NewMockStationRepository() *MockStationRepository {
	return &MockStationRepository{
		stations: make(map[string]*domain.Station),
	}
}

// AddStation adds a station to the mock repository.
func (m *MockStationRepository) AddStation(station *domain.Station) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stations[station.ID] = station
}

func (m *MockStationRepository) Create(ctx context.Context, station *domain.Station) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stations[station.ID] = station
	return nil
}

func (m *MockStationRepository) GetByID(ctx context.Context, id string) (*domain.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	station, ok := m.stations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *station
	return &copy, nil
}

func (m *MockStationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Station, 0, len(m.stations))
	for _, s := range m.stations {
		copy := *s
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-memory implementation of the lock store.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// FailVehicleAcquire simulates a lock already held by another request.
	FailVehicleAcquire bool
	// FailBookingAcquire simulates a booking lock already held.
	FailBookingAcquire bool

	AcquireVehicleCallCount int32
	AcquireBookingCallCount int32
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]bool),
	}
}

func (m *MockLockStore) AcquireVehicleLock(ctx context.Context, vehicleID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireVehicleCallCount, 1)
	if m.FailVehicleAcquire {
		return false, nil
	}
	return m.acquire("vehicle:" + vehicleID), nil
}

func (m *MockLockStore) ReleaseVehicleLock(ctx context.Context, vehicleID string) error {
	m.release("vehicle:" + vehicleID)
	return nil
}

func (m *MockLockStore) AcquireBookingLock(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireBookingCallCount, 1)
	if m.FailBookingAcquire {
		return false, nil
	}
	return m.acquire("booking:" + bookingID), nil
}

func (m *MockLockStore) ReleaseBookingLock(ctx context.Context, bookingID string) error {
	m.release("booking:" + bookingID)
	return nil
}

func (m *MockLockStore) acquire(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false
	}
	m.locks[key] = true
	return true
}

func (m *MockLockStore) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
}

// Ensure the mock satisfies the interface.
var _ redis.LockStoreInterface = (*MockLockStore)(nil)

// ──────────────────────────────────────────────
// MOCK NUMBER STORE
// ──────────────────────────────────────────────

// MockNumberStore issues deterministic booking sequence numbers.
type MockNumberStore struct {
	seq int64

	// SequenceError simulates an unavailable sequence store.
	SequenceError error
}

// NewMockNumberStore creates a new mock number store.
func NewMockNumberStore() *MockNumberStore {
	return &MockNumberStore{}
}

func (m *MockNumberStore) NextBookingSequence(ctx context.Context, day time.Time) (int64, error) {
	if m.SequenceError != nil {
		return 0, m.SequenceError
	}
	return atomic.AddInt64(&m.seq, 1), nil
}

var _ redis.NumberStoreInterface = (*MockNumberStore)(nil)
