package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"backend/internal/domain/models"
)

type BookingRepository struct {
	DB *sql.DB
}

const bookingColumns = `
	id, user_id, guest_email, guest_first_name, guest_last_name, guest_phone,
	pickup_at, pickup_address, pickup_lat, pickup_lng,
	stop1_address, stop1_lat, stop1_lng,
	stop2_address, stop2_lat, stop2_lng,
	dropoff_address, dropoff_lat, dropoff_lng,
	distance_km, duration_min, flight_number, comment, price_ore,
	status, confirmation_token, token_expires_at, is_confirmed, is_available,
	driver_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var b models.Booking
	err := row.Scan(
		&b.ID, &b.UserID, &b.GuestEmail, &b.GuestFirstName, &b.GuestLastName, &b.GuestPhone,
		&b.PickupAt, &b.PickupAddress, &b.PickupLat, &b.PickupLng,
		&b.Stop1Address, &b.Stop1Lat, &b.Stop1Lng,
		&b.Stop2Address, &b.Stop2Lat, &b.Stop2Lng,
		&b.DropoffAddress, &b.DropoffLat, &b.DropoffLng,
		&b.DistanceKm, &b.DurationMin, &b.FlightNumber, &b.Comment, &b.PriceOre,
		&b.Status, &b.ConfirmationToken, &b.TokenExpiresAt, &b.IsConfirmed, &b.IsAvailable,
		&b.DriverID, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (r BookingRepository) Create(b *models.Booking) error {
	res, err := r.DB.Exec(`
		INSERT INTO bookings (
			user_id, guest_email, guest_first_name, guest_last_name, guest_phone,
			pickup_at, pickup_address, pickup_lat, pickup_lng,
			stop1_address, stop1_lat, stop1_lng,
			stop2_address, stop2_lat, stop2_lng,
			dropoff_address, dropoff_lat, dropoff_lng,
			distance_km, duration_min, flight_number, comment, price_ore,
			status, confirmation_token, token_expires_at, is_confirmed, is_available,
			created_at, updated_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,NOW(),NOW())`,
		b.UserID, b.GuestEmail, b.GuestFirstName, b.GuestLastName, b.GuestPhone,
		b.PickupAt, b.PickupAddress, b.PickupLat, b.PickupLng,
		b.Stop1Address, b.Stop1Lat, b.Stop1Lng,
		b.Stop2Address, b.Stop2Lat, b.Stop2Lng,
		b.DropoffAddress, b.DropoffLat, b.DropoffLng,
		b.DistanceKm, b.DurationMin, b.FlightNumber, b.Comment, b.PriceOre,
		b.Status, b.ConfirmationToken, b.TokenExpiresAt, b.IsConfirmed, b.IsAvailable,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

func (r BookingRepository) GetByID(id int64) (models.Booking, error) {
	if id <= 0 {
		return models.Booking{}, fmt.Errorf("invalid id")
	}
	row := r.DB.QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE id=? LIMIT 1`, id)
	return scanBooking(row)
}

func (r BookingRepository) GetByToken(token string) (models.Booking, error) {
	row := r.DB.QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE confirmation_token=? LIMIT 1`, token)
	return scanBooking(row)
}

func (r BookingRepository) GetGuest(id int64, email string) (models.Booking, error) {
	row := r.DB.QueryRow(`SELECT `+bookingColumns+` FROM bookings WHERE id=? AND guest_email=? LIMIT 1`, id, email)
	return scanBooking(row)
}

func (r BookingRepository) ListByUser(userID int64, limit, offset int) ([]models.Booking, error) {
	rows, err := r.DB.Query(`SELECT `+bookingColumns+` FROM bookings WHERE user_id=? ORDER BY pickup_at DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r BookingRepository) CountByUser(userID int64) (int, error) {
	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM bookings WHERE user_id=?`, userID).Scan(&n)
	return n, err
}

func (r BookingRepository) ListAvailable(limit, offset int) ([]models.Booking, error) {
	rows, err := r.DB.Query(`SELECT `+bookingColumns+` FROM bookings WHERE is_available=1 AND status='confirmed' AND driver_id IS NULL ORDER BY pickup_at ASC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBookings(rows)
}

func (r BookingRepository) CountAvailable() (int, error) {
	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM bookings WHERE is_available=1 AND status='confirmed' AND driver_id IS NULL`).Scan(&n)
	return n, err
}

func collectBookings(rows *sql.Rows) ([]models.Booking, error) {
	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Confirm flips an unconfirmed booking to confirmed and clears the token.
// The conditional update keeps two concurrent confirms of the same token from
// both succeeding; the loser sees zero rows affected.
func (r BookingRepository) Confirm(id int64) (bool, error) {
	res, err := r.DB.Exec(`
		UPDATE bookings
		SET status='confirmed', is_confirmed=1, is_available=1,
		    confirmation_token=NULL, token_expires_at=NULL, updated_at=NOW()
		WHERE id=? AND is_confirmed=0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r BookingRepository) Cancel(id int64) (bool, error) {
	res, err := r.DB.Exec(`
		UPDATE bookings
		SET status='cancelled', is_available=0, updated_at=NOW()
		WHERE id=? AND status IN ('confirmed','pending_email_confirmation')`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r BookingRepository) Complete(id int64) (bool, error) {
	res, err := r.DB.Exec(`
		UPDATE bookings
		SET status='completed', is_available=0, updated_at=NOW()
		WHERE id=? AND status='confirmed'`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// AssignDriver claims an available booking. The WHERE clause is the
// concurrency control: the second driver racing for the same booking
// affects zero rows.
func (r BookingRepository) AssignDriver(id, driverID int64) (bool, error) {
	res, err := r.DB.Exec(`
		UPDATE bookings
		SET driver_id=?, is_available=0, updated_at=NOW()
		WHERE id=? AND is_available=1 AND status='confirmed' AND driver_id IS NULL`,
		driverID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Delete removes a booking outright. Used for expired unconfirmed bookings,
// which are deleted rather than marked.
func (r BookingRepository) Delete(id int64) error {
	_, err := r.DB.Exec(`DELETE FROM bookings WHERE id=?`, id)
	return err
}

// LatestForDriverBefore returns the driver's most recent assigned booking
// with a pickup before t, for travel-feasibility checks between jobs.
func (r BookingRepository) LatestForDriverBefore(driverID int64, t time.Time) (models.Booking, error) {
	row := r.DB.QueryRow(`
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE driver_id=? AND status='confirmed' AND pickup_at < ?
		ORDER BY pickup_at DESC LIMIT 1`, driverID, t)
	return scanBooking(row)
}
