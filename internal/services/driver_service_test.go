package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"backend/internal/clients/maps"
	"backend/internal/domain"
	"backend/internal/domain/models"
	"backend/internal/repositories"
)

func newDriverService(t *testing.T, routes maps.RouteLookup) (DriverService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	mock.MatchExpectationsInOrder(false)
	svc := DriverService{
		BookingRepo: repositories.BookingRepository{DB: db},
		UserRepo:    repositories.UserRepository{DB: db},
		Routes:      routes,
	}
	return svc, mock, func() { db.Close() }
}

func expectDriver(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("FROM drivers WHERE user_id").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "vehicle_model", "vehicle_plate", "created_at"}).
			AddRow(2, 10, "Volvo V90", "ABC123", fixedNow()))
}

func availableBookingRow(id int64, pickupAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(bookingTestColumns).AddRow(
		id, int64(3), nil, nil, nil, nil,
		pickupAt, "Drottninggatan 1, Stockholm", 59.33, 18.06,
		nil, nil, nil, nil, nil, nil,
		"Uppsala Centralstation", 59.86, 17.65,
		42.5, 35.0, nil, nil, int64(54500),
		string(models.StatusConfirmed), nil, nil, true, true,
		nil, fixedNow(), fixedNow(),
	)
}

func TestAssignWithNoPreviousJob(t *testing.T) {
	routes := &fakeRoutes{}
	svc, mock, closeDB := newDriverService(t, routes)
	defer closeDB()

	expectDriver(mock)
	mock.ExpectQuery("FROM bookings WHERE id").
		WillReturnRows(availableBookingRow(20, fixedNow().Add(48*time.Hour)))
	mock.ExpectQuery("FROM bookings\\s+WHERE driver_id").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := svc.Assign(context.Background(), 20, domain.RequestContext{UserID: 10, Role: domain.RoleDriver})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if routes.calls != 0 {
		t.Fatalf("no transfer route lookup expected without a previous job")
	}
}

func TestAssignInfeasibleTransfer(t *testing.T) {
	// Transfer takes 90 minutes; previous job ends too close to the next pickup.
	routes := &fakeRoutes{info: maps.RouteInfo{
		DistanceKm:  80,
		DurationMin: 90,
		Legs:        []maps.Leg{{DistanceKm: 80, DurationMin: 90}},
	}}
	svc, mock, closeDB := newDriverService(t, routes)
	defer closeDB()

	nextPickup := fixedNow().Add(48 * time.Hour)
	expectDriver(mock)
	mock.ExpectQuery("FROM bookings WHERE id").
		WillReturnRows(availableBookingRow(21, nextPickup))
	// Previous job picks up one hour earlier and itself takes 35 minutes,
	// leaving 25 minutes for a 90 minute transfer.
	mock.ExpectQuery("FROM bookings\\s+WHERE driver_id").
		WillReturnRows(availableBookingRow(19, nextPickup.Add(-time.Hour)))

	err := svc.Assign(context.Background(), 21, domain.RequestContext{UserID: 10, Role: domain.RoleDriver})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict for infeasible transfer, got %v", err)
	}
}

func TestAssignLostRaceIsConflict(t *testing.T) {
	routes := &fakeRoutes{}
	svc, mock, closeDB := newDriverService(t, routes)
	defer closeDB()

	expectDriver(mock)
	mock.ExpectQuery("FROM bookings WHERE id").
		WillReturnRows(availableBookingRow(22, fixedNow().Add(48*time.Hour)))
	mock.ExpectQuery("FROM bookings\\s+WHERE driver_id").
		WillReturnError(sql.ErrNoRows)
	// Another driver claimed the booking first.
	mock.ExpectExec("UPDATE bookings").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.Assign(context.Background(), 22, domain.RequestContext{UserID: 10, Role: domain.RoleDriver})
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict when losing the claim race, got %v", err)
	}
}

func TestAssignWithoutDriverProfile(t *testing.T) {
	routes := &fakeRoutes{}
	svc, mock, closeDB := newDriverService(t, routes)
	defer closeDB()

	mock.ExpectQuery("FROM drivers WHERE user_id").
		WillReturnError(sql.ErrNoRows)

	err := svc.Assign(context.Background(), 23, domain.RequestContext{UserID: 10, Role: domain.RoleDriver})
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden without a driver profile, got %v", err)
	}
}
