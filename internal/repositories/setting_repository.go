package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cafe_order_backend/internal/models"
)

// SettingRepository defines the interface for application settings storage.
type SettingRepository interface {
	GetSettings() ([]models.ApplicationSetting, error)
	GetSettingByKey(key string) (*models.ApplicationSetting, error)
	UpsertSetting(setting *models.ApplicationSetting) error
	DeleteSettingByKey(key string) error
}

type settingRepository struct {
	db *sql.DB
}

// NewSettingRepository creates a new instance of SettingRepository.
func NewSettingRepository(db *sql.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) GetSettings() ([]models.ApplicationSetting, error) {
	rows, err := r.db.Query(`SELECT id, setting_key, setting_value, description, created_at, updated_at
	                         FROM application_settings ORDER BY setting_key`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying application settings: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	settings := []models.ApplicationSetting{}
	for rows.Next() {
		var s models.ApplicationSetting
		if err := rows.Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.Description, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning application setting: %v", ErrDatabaseError, err)
		}
		settings = append(settings, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating application setting rows: %v", ErrDatabaseError, err)
	}
	return settings, nil
}

func (r *settingRepository) GetSettingByKey(key string) (*models.ApplicationSetting, error) {
	var s models.ApplicationSetting
	query := `SELECT id, setting_key, setting_value, description, created_at, updated_at
	          FROM application_settings WHERE setting_key = $1`
	err := r.db.QueryRow(query, key).Scan(&s.ID, &s.SettingKey, &s.SettingValue, &s.Description, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting application setting %q: %v", ErrDatabaseError, key, err)
	}
	return &s, nil
}

func (r *settingRepository) UpsertSetting(setting *models.ApplicationSetting) error {
	now := time.Now()
	query := `
	    INSERT INTO application_settings (setting_key, setting_value, description, created_at, updated_at)
	    VALUES ($1, $2, $3, $4, $5)
	    ON CONFLICT (setting_key)
	    DO UPDATE SET setting_value = EXCLUDED.setting_value, description = EXCLUDED.description, updated_at = EXCLUDED.updated_at
	    RETURNING id, setting_key, setting_value, description, created_at, updated_at`

	err := r.db.QueryRow(query, setting.SettingKey, setting.SettingValue, setting.Description, now, now).
		Scan(&setting.ID, &setting.SettingKey, &setting.SettingValue, &setting.Description, &setting.CreatedAt, &setting.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%w: upserting application setting %q: %v", ErrDatabaseError, setting.SettingKey, err)
	}
	return nil
}

func (r *settingRepository) DeleteSettingByKey(key string) error {
	result, err := r.db.Exec(`DELETE FROM application_settings WHERE setting_key = $1`, key)
	if err != nil {
		return fmt.Errorf("%w: deleting application setting %q: %v", ErrDatabaseError, key, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deleting setting %q: %v", ErrDatabaseError, key, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
