package user

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/shopcart-backend/internal/apperr"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL user repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, date_of_birth, avatar,
	preferences, loyalty_points, loyalty_tier, lifetime_spent, status, reset_token,
	last_login, login_count, created_at, updated_at`

func (r *postgresRepository) CreateUser(ctx context.Context, u *User) error {
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO users
		  (id, email, password_hash, first_name, last_name, phone, preferences,
		   loyalty_points, loyalty_tier, lifetime_spent, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		u.ID, u.Email, u.PasswordHash, u.Profile.FirstName, u.Profile.LastName,
		u.Profile.Phone, prefs, u.Loyalty.Points, u.Loyalty.Tier,
		u.Loyalty.LifetimeSpent, u.Status)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresRepository) GetUserByID(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("User not found")
	}
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, uid)
}

func (r *postgresRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email)
}

func (r *postgresRepository) getUser(ctx context.Context, query string, arg interface{}) (*User, error) {
	u := &User{}
	var phone, avatar, resetToken sql.NullString
	var dob, lastLogin sql.NullTime
	var prefs []byte
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Profile.FirstName, &u.Profile.LastName,
		&phone, &dob, &avatar, &prefs, &u.Loyalty.Points, &u.Loyalty.Tier,
		&u.Loyalty.LifetimeSpent, &u.Status, &resetToken, &lastLogin,
		&u.LoginCount, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	u.Profile.Phone = phone.String
	u.Profile.Avatar = avatar.String
	u.ResetToken = resetToken.String
	if dob.Valid {
		u.Profile.DateOfBirth = &dob.Time
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &u.Preferences); err != nil {
			return nil, fmt.Errorf("decode preferences: %w", err)
		}
	}

	if u.Addresses, err = r.listAddresses(ctx, u.ID); err != nil {
		return nil, err
	}
	if u.PaymentMethods, err = r.listPaymentMethods(ctx, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *postgresRepository) UpdateProfile(ctx context.Context, u *User) error {
	prefs, err := json.Marshal(u.Preferences)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		UPDATE users
		SET first_name=$1, last_name=$2, phone=$3, avatar=$4, preferences=$5, updated_at=$6
		WHERE id=$7`,
		u.Profile.FirstName, u.Profile.LastName, u.Profile.Phone,
		u.Profile.Avatar, prefs, time.Now().UTC(), u.ID)
	return err
}

func (r *postgresRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash=$1, reset_token=NULL, updated_at=$2 WHERE id=$3`,
		passwordHash, time.Now().UTC(), userID)
	return err
}

func (r *postgresRepository) SetResetToken(ctx context.Context, userID, token string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET reset_token=$1, updated_at=$2 WHERE id=$3`,
		token, time.Now().UTC(), userID)
	return err
}

func (r *postgresRepository) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE users SET last_login=$1, login_count=login_count+1 WHERE id=$2`,
		at, userID)
	return err
}

// ── Addresses ────────────────────────────────────────────────────────────────

func (r *postgresRepository) AddAddress(ctx context.Context, userID string, addr *Address) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_addresses
		  (address_id, user_id, type, is_default, recipient_name, street, city,
		   state, postal_code, country, longitude, latitude)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		addr.AddressID, userID, addr.Type, addr.IsDefault, addr.RecipientName,
		addr.Street, addr.City, addr.State, addr.PostalCode, addr.Country,
		addr.Longitude, addr.Latitude)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *postgresRepository) ClearDefaultAddresses(ctx context.Context, userID, addrType string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_addresses SET is_default=FALSE
		WHERE user_id=$1 AND type=$2 AND is_default`,
		userID, addrType)
	return err
}

func (r *postgresRepository) RemoveAddress(ctx context.Context, userID, addressID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM user_addresses WHERE user_id=$1 AND address_id=$2`,
		userID, addressID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Address not found")
	}
	return nil
}

func (r *postgresRepository) listAddresses(ctx context.Context, userID uuid.UUID) ([]Address, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT address_id, type, is_default, recipient_name, street, city, state,
		       postal_code, country, longitude, latitude
		FROM user_addresses WHERE user_id=$1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var addrs []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.AddressID, &a.Type, &a.IsDefault, &a.RecipientName,
			&a.Street, &a.City, &a.State, &a.PostalCode, &a.Country,
			&a.Longitude, &a.Latitude); err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, rows.Err()
}

// ── Payment methods ──────────────────────────────────────────────────────────

func (r *postgresRepository) AddPaymentMethod(ctx context.Context, userID string, pm *PaymentMethod) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_payment_methods
		  (method_id, user_id, type, is_default, last_four, brand, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		pm.MethodID, userID, pm.Type, pm.IsDefault, pm.LastFour, pm.Brand, pm.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert payment method: %w", err)
	}
	return nil
}

func (r *postgresRepository) ClearDefaultPaymentMethods(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_payment_methods SET is_default=FALSE
		WHERE user_id=$1 AND is_default`, userID)
	return err
}

func (r *postgresRepository) RemovePaymentMethod(ctx context.Context, userID, methodID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM user_payment_methods WHERE user_id=$1 AND method_id=$2`,
		userID, methodID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("Payment method not found")
	}
	return nil
}

func (r *postgresRepository) listPaymentMethods(ctx context.Context, userID uuid.UUID) ([]PaymentMethod, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT method_id, type, is_default, last_four, brand, expires_at
		FROM user_payment_methods WHERE user_id=$1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var methods []PaymentMethod
	for rows.Next() {
		var pm PaymentMethod
		if err := rows.Scan(&pm.MethodID, &pm.Type, &pm.IsDefault, &pm.LastFour,
			&pm.Brand, &pm.ExpiresAt); err != nil {
			return nil, err
		}
		methods = append(methods, pm)
	}
	return methods, rows.Err()
}

// ── Loyalty ──────────────────────────────────────────────────────────────────

func (r *postgresRepository) AddLoyaltyPoints(ctx context.Context, userID string, points int, amountSpent float64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var lifetime float64
	err = tx.QueryRowContext(ctx, `
		UPDATE users
		SET loyalty_points = loyalty_points + $1,
		    lifetime_spent = lifetime_spent + $2,
		    updated_at = $3
		WHERE id=$4
		RETURNING lifetime_spent`,
		points, amountSpent, time.Now().UTC(), userID).Scan(&lifetime)
	if err == sql.ErrNoRows {
		return apperr.NotFound("User not found")
	}
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET loyalty_tier=$1 WHERE id=$2`,
		TierFor(lifetime), userID)
	if err != nil {
		return err
	}
	return tx.Commit()
}
