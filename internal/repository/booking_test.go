package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/Payamsoltanzadeh/Telegram-Medical-bot/internal/models"
)

// openTestDB connects to the database named by TEST_DATABASE_DSN, skipping
// the test when the variable is not set.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set, skipping database test")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("ping test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type bookingFixture struct {
	userID   int
	doctorID int
	slotTime time.Time
}

// newBookingFixture creates a user, a specialization, a doctor and one free
// slot, and registers cleanup that removes everything again.
func newBookingFixture(t *testing.T, db *sql.DB) bookingFixture {
	t.Helper()
	repo := New(db)

	suffix := time.Now().UnixNano()
	user, _, err := repo.User.Upsert(suffix, "Test Patient",
		fmt.Sprintf("patient%d@example.com", suffix), "+49123456789")
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}

	specID, err := repo.Specialization.Create(fmt.Sprintf("testspec-%d", suffix))
	if err != nil {
		t.Fatalf("create test specialization: %v", err)
	}

	doctorID, err := repo.Doctor.Create(fmt.Sprintf("Dr. Test %d", suffix), specID, true, true)
	if err != nil {
		t.Fatalf("create test doctor: %v", err)
	}

	slotTime := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	if _, err := repo.Slot.Create(doctorID, slotTime); err != nil {
		t.Fatalf("create test slot: %v", err)
	}

	t.Cleanup(func() {
		db.Exec("DELETE FROM appointments WHERE doctor_id = $1", doctorID)
		db.Exec("DELETE FROM available_slots WHERE doctor_id = $1", doctorID)
		db.Exec("DELETE FROM doctors WHERE id = $1", doctorID)
		db.Exec("DELETE FROM specializations WHERE id = $1", specID)
		db.Exec("DELETE FROM users WHERE id = $1", user.ID)
	})

	return bookingFixture{userID: user.ID, doctorID: doctorID, slotTime: slotTime}
}

func countSlots(t *testing.T, db *sql.DB, doctorID int, slotTime time.Time) int {
	t.Helper()
	var n int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM available_slots WHERE doctor_id = $1 AND start_time = $2",
		doctorID, slotTime).Scan(&n)
	if err != nil {
		t.Fatalf("count slots: %v", err)
	}
	return n
}

func TestConcurrentBookingSingleWinner(t *testing.T) {
	db := openTestDB(t)
	fx := newBookingFixture(t, db)
	repo := New(db)

	const contenders = 8
	var wg sync.WaitGroup
	results := make(chan error, contenders)

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Appointment.Book(fx.userID, fx.doctorID, fx.slotTime,
				models.ContactOnline, "concurrent booking test")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var won, lost, failed int
	for err := range results {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrSlotTaken):
			lost++
		default:
			failed++
			t.Errorf("unexpected booking error: %v", err)
		}
	}

	if won != 1 {
		t.Errorf("winners = %d, want exactly 1", won)
	}
	if lost != contenders-1 {
		t.Errorf("losers = %d, want %d", lost, contenders-1)
	}
	if failed != 0 {
		t.Errorf("unexpected errors = %d, want 0", failed)
	}
	if got := countSlots(t, db, fx.doctorID, fx.slotTime); got != 0 {
		t.Errorf("remaining slots = %d, want 0 after booking", got)
	}
}

func TestCancelConfirmedRestoresSlotOnce(t *testing.T) {
	db := openTestDB(t)
	fx := newBookingFixture(t, db)
	repo := New(db)

	id, err := repo.Appointment.Book(fx.userID, fx.doctorID, fx.slotTime,
		models.ContactInPerson, "cancellation test")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := repo.Appointment.Transition(id, models.StatusConfirmed); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got := countSlots(t, db, fx.doctorID, fx.slotTime); got != 0 {
		t.Fatalf("slots after confirm = %d, want 0", got)
	}

	if _, err := repo.Appointment.Transition(id, models.StatusCanceled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := countSlots(t, db, fx.doctorID, fx.slotTime); got != 1 {
		t.Errorf("slots after cancel = %d, want exactly 1", got)
	}

	// Cancelling again must be refused and must not duplicate the slot.
	if _, err := repo.Appointment.Transition(id, models.StatusCanceled); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("second cancel error = %v, want ErrAlreadyProcessed", err)
	}
	if got := countSlots(t, db, fx.doctorID, fx.slotTime); got != 1 {
		t.Errorf("slots after second cancel = %d, want still 1", got)
	}
}

func TestRejectPendingRestoresSlot(t *testing.T) {
	db := openTestDB(t)
	fx := newBookingFixture(t, db)
	repo := New(db)

	id, err := repo.Appointment.Book(fx.userID, fx.doctorID, fx.slotTime,
		models.ContactOnline, "rejection test")
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	details, err := repo.Appointment.Transition(id, models.StatusRejected)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if details.Status != models.StatusRejected {
		t.Errorf("status = %q, want %q", details.Status, models.StatusRejected)
	}
	if got := countSlots(t, db, fx.doctorID, fx.slotTime); got != 1 {
		t.Errorf("slots after reject = %d, want 1", got)
	}

	// Terminal states accept no further transitions.
	if _, err := repo.Appointment.Transition(id, models.StatusConfirmed); !errors.Is(err, ErrAlreadyProcessed) {
		t.Errorf("confirm after reject error = %v, want ErrAlreadyProcessed", err)
	}
}

func TestCancelPastAppointmentKeepsSlotGone(t *testing.T) {
	db := openTestDB(t)
	fx := newBookingFixture(t, db)
	repo := New(db)

	pastTime := time.Now().Add(-24 * time.Hour).Truncate(time.Second)
	if _, err := repo.Slot.Create(fx.doctorID, pastTime); err != nil {
		t.Fatalf("create past slot: %v", err)
	}
	id, err := repo.Appointment.Book(fx.userID, fx.doctorID, pastTime,
		models.ContactInPerson, "past appointment test")
	if err != nil {
		t.Fatalf("book past: %v", err)
	}
	if _, err := repo.Appointment.Transition(id, models.StatusCanceled); err != nil {
		t.Fatalf("cancel past: %v", err)
	}
	if got := countSlots(t, db, fx.doctorID, pastTime); got != 0 {
		t.Errorf("slots for past time = %d, want 0 (expired times are not re-offered)", got)
	}
}

func TestDeleteBookingRestoresSlot(t *testing.T) {
	db := openTestDB(t)
	fx := newBookingFixture(t, db)
	repo := New(db)

	id, err := repo.Appointment.Book(fx.userID, fx.doctorID, fx.slotTime,
		models.ContactOnline, "compensation test")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if err := repo.Appointment.Delete(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := countSlots(t, db, fx.doctorID, fx.slotTime); got != 1 {
		t.Errorf("slots after delete = %d, want 1", got)
	}
	if _, err := repo.Appointment.GetByID(id); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("get deleted appointment error = %v, want sql.ErrNoRows", err)
	}
}
