package repositories

import (
	"database/sql"

	"backend/internal/domain/models"
)

type UserRepository struct {
	DB *sql.DB
}

const userColumns = `id, first_name, last_name, email, phone, password_hash, role, created_at, updated_at`

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByEmail returns (user, found, error); absence is not an error because
// guest bookings hinge on the lookup missing.
func (r UserRepository) GetByEmail(email string) (models.User, bool, error) {
	row := r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE email=? LIMIT 1`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return models.User{}, false, nil
	}
	if err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}

func (r UserRepository) GetByID(id int64) (models.User, error) {
	row := r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE id=? LIMIT 1`, id)
	return scanUser(row)
}

func (r UserRepository) EmailExists(email string) (bool, error) {
	var n int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE email=?`, email).Scan(&n)
	return n > 0, err
}

func (r UserRepository) Create(u *models.User) error {
	res, err := r.DB.Exec(`
		INSERT INTO users (first_name, last_name, email, phone, password_hash, role, created_at, updated_at)
		VALUES (?,?,?,?,?,?,NOW(),NOW())`,
		u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, u.Role)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

// GetDriverByUserID resolves the driver row for an authenticated driver user.
func (r UserRepository) GetDriverByUserID(userID int64) (models.Driver, error) {
	var d models.Driver
	err := r.DB.QueryRow(`
		SELECT id, user_id, vehicle_model, vehicle_plate, created_at
		FROM drivers WHERE user_id=? LIMIT 1`, userID).
		Scan(&d.ID, &d.UserID, &d.VehicleModel, &d.VehiclePlate, &d.CreatedAt)
	return d, err
}
