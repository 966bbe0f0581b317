package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sarthakjain/careslot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockRegistry(t *testing.T) (*Registry, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	return NewRegistry(gdb, zap.NewNop(), DefaultSlotDuration), mock
}

func reservationRows(id, availabilityID, patientID, professionalID uint, slot time.Time, status models.ReservationStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "deleted_at",
		"availability_id", "patient_id", "professional_id",
		"slot_start_time", "status", "requested_at", "price", "payment_ref",
	}).AddRow(id, time.Now(), time.Now(), nil,
		availabilityID, patientID, professionalID,
		slot, string(status), time.Now(), 60.0, "")
}

// futureWindow returns a window two days out so its slots are never elapsed.
func futureWindow(availabilityID, professionalID uint) (models.AvailabilityWindow, time.Time) {
	day := time.Now().UTC().AddDate(0, 0, 2).Truncate(24 * time.Hour)
	w := models.AvailabilityWindow{
		ProfessionalID: professionalID,
		Date:           day,
		StartTime:      "09:00",
		EndTime:        "10:30",
	}
	w.ID = availabilityID
	slot, _ := w.WindowStart()
	return w, slot
}

func windowRows(w models.AvailabilityWindow) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "deleted_at",
		"professional_id", "date", "start_time", "end_time",
	}).AddRow(w.ID, time.Now(), time.Now(), nil,
		w.ProfessionalID, w.Date, w.StartTime, w.EndTime)
}

func TestCreateInsertsPendingReservation(t *testing.T) {
	reg, mock := newMockRegistry(t)
	window, slot := futureWindow(7, 42)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM availability_windows`).WillReturnRows(windowRows(window))
	mock.ExpectQuery(`SELECT \* FROM "reservations"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "name", "email", "role_id", "consultation_rate"}).
			AddRow(42, "Dr. Leclerc", "leclerc@example.com", 2, 80.0))
	mock.ExpectQuery(`INSERT INTO "reservations"`).WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(101))
	mock.ExpectCommit()

	res, err := reg.Create(context.Background(), 9, 7, slot)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, res.Status)
	assert.Equal(t, uint(9), res.PatientID)
	assert.Equal(t, uint(42), res.ProfessionalID)
	assert.Equal(t, 80.0, res.Price)
	assert.True(t, res.SlotStartTime.Equal(slot))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateMapsUniqueViolationToConflict(t *testing.T) {
	reg, mock := newMockRegistry(t)
	window, slot := futureWindow(7, 42)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM availability_windows`).WillReturnRows(windowRows(window))
	mock.ExpectQuery(`SELECT \* FROM "reservations"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "consultation_rate"}).AddRow(42, 80.0))
	// A concurrent create committed first; the partial unique index fires.
	mock.ExpectQuery(`INSERT INTO "reservations"`).WillReturnError(
		&pgconn.PgError{Code: "23505", ConstraintName: "idx_reservations_active_slot"})
	mock.ExpectRollback()

	_, err := reg.Create(context.Background(), 9, 7, slot)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsOccupiedSlot(t *testing.T) {
	reg, mock := newMockRegistry(t)
	window, slot := futureWindow(7, 42)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM availability_windows`).WillReturnRows(windowRows(window))
	mock.ExpectQuery(`SELECT \* FROM "reservations"`).WillReturnRows(
		reservationRows(55, 7, 3, 42, slot, models.StatusPending))
	mock.ExpectRollback()

	_, err := reg.Create(context.Background(), 9, 7, slot)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsUnknownWindow(t *testing.T) {
	reg, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM availability_windows`).WillReturnRows(
		sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := reg.Create(context.Background(), 9, 999, time.Now().Add(48*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRejectsSlotOffTheGrid(t *testing.T) {
	reg, mock := newMockRegistry(t)
	window, slot := futureWindow(7, 42)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM availability_windows`).WillReturnRows(windowRows(window))
	mock.ExpectRollback()

	// 20 minutes past the window opening is not a slot boundary.
	_, err := reg.Create(context.Background(), 9, 7, slot.Add(20*time.Minute))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideAcceptMaterializesConsultation(t *testing.T) {
	reg, mock := newMockRegistry(t)
	slot := time.Now().Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations`).WillReturnRows(
		reservationRows(11, 7, 9, 42, slot, models.StatusPending))
	mock.ExpectExec(`UPDATE "reservations" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "consultations"`).WillReturnRows(
		sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`INSERT INTO "consultations"`).WillReturnRows(
		sqlmock.NewRows([]string{"id"}).AddRow(5))
	mock.ExpectCommit()

	res, consultation, err := reg.Decide(context.Background(), 11, 42, OutcomeAccept)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, res.Status)
	require.NotNil(t, consultation)
	assert.Equal(t, uint(11), consultation.ReservationID)
	assert.Equal(t, 45, consultation.DurationMinutes)
	assert.True(t, consultation.ScheduledAt.Equal(slot))
	assert.Contains(t, consultation.AccessLink, "https://meet.careslot.app/c/")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRefuse(t *testing.T) {
	reg, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations`).WillReturnRows(
		reservationRows(11, 7, 9, 42, time.Now().Add(48*time.Hour), models.StatusPending))
	mock.ExpectExec(`UPDATE "reservations" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, consultation, err := reg.Decide(context.Background(), 11, 42, OutcomeRefuse)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRefused, res.Status)
	assert.Nil(t, consultation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideByNonOwnerIsForbidden(t *testing.T) {
	reg, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations`).WillReturnRows(
		reservationRows(11, 7, 9, 42, time.Now().Add(48*time.Hour), models.StatusPending))
	mock.ExpectRollback()

	_, _, err := reg.Decide(context.Background(), 11, 77, OutcomeAccept)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideTwiceIsInvalidTransition(t *testing.T) {
	reg, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations`).WillReturnRows(
		reservationRows(11, 7, 9, 42, time.Now().Add(48*time.Hour), models.StatusAccepted))
	mock.ExpectRollback()

	_, _, err := reg.Decide(context.Background(), 11, 42, OutcomeAccept)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideRejectsUnknownOutcome(t *testing.T) {
	reg, _ := newMockRegistry(t)

	_, _, err := reg.Decide(context.Background(), 11, 42, Outcome("postpone"))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConfirmPaymentFromAccepted(t *testing.T) {
	reg, mock := newMockRegistry(t)
	slot := time.Now().Add(48 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations`).WillReturnRows(
		reservationRows(11, 7, 9, 42, slot, models.StatusAccepted))
	mock.ExpectExec(`UPDATE "reservations" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "reservations" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "consultations"`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "reservation_id", "scheduled_at", "duration_minutes", "price", "access_link"}).
			AddRow(5, 11, slot, 45, 60.0, "https://meet.careslot.app/c/abc"))
	mock.ExpectCommit()

	res, consultation, err := reg.ConfirmPayment(context.Background(), 11, "pi_3Nv0")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, res.Status)
	assert.Equal(t, "pi_3Nv0", res.PaymentRef)
	require.NotNil(t, consultation)
	assert.Equal(t, uint(5), consultation.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmPaymentFromPendingIsInvalid(t *testing.T) {
	reg, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations`).WillReturnRows(
		reservationRows(11, 7, 9, 42, time.Now().Add(48*time.Hour), models.StatusPending))
	mock.ExpectRollback()

	_, _, err := reg.ConfirmPayment(context.Background(), 11, "pi_3Nv0")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelPendingByOwner(t *testing.T) {
	reg, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations`).WillReturnRows(
		reservationRows(11, 7, 9, 42, time.Now().Add(48*time.Hour), models.StatusPending))
	mock.ExpectExec(`UPDATE "reservations" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := reg.Cancel(context.Background(), 11, 9)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelByNonOwnerIsForbidden(t *testing.T) {
	reg, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations`).WillReturnRows(
		reservationRows(11, 7, 9, 42, time.Now().Add(48*time.Hour), models.StatusPending))
	mock.ExpectRollback()

	_, err := reg.Cancel(context.Background(), 11, 1000)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelAcceptedIsInvalidTransition(t *testing.T) {
	reg, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations`).WillReturnRows(
		reservationRows(11, 7, 9, 42, time.Now().Add(48*time.Hour), models.StatusAccepted))
	mock.ExpectRollback()

	_, err := reg.Cancel(context.Background(), 11, 9)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelUnknownReservation(t *testing.T) {
	reg, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM reservations`).WillReturnRows(
		sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := reg.Cancel(context.Background(), 404, 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAutoRefuseStale(t *testing.T) {
	reg, mock := newMockRegistry(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "reservations" SET`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := reg.AutoRefuseStale(context.Background(), 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
