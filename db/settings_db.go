package db

import (
	"database/sql"

	"github.com/georgmuntingh/sheet-music-tutor/models"
	"github.com/georgmuntingh/sheet-music-tutor/utils"
)

// GetSettings returns the stored settings for a user, creating a default
// row on first access.
func (db *DB) GetSettings(userID int) (*models.Settings, error) {
	settings := &models.Settings{UserID: userID}

	err := db.QueryRow(`
		SELECT box0_interval_ms, box1_interval_ms, box2_interval_ms,
		       box3_interval_ms, box4_interval_ms,
		       enable_harmonic_ratio, harmonic_ratio_threshold,
		       timeout_seconds, silent_timeout, locale
		FROM settings
		WHERE user_id = ?`, userID).Scan(
		&settings.Box0IntervalMs, &settings.Box1IntervalMs, &settings.Box2IntervalMs,
		&settings.Box3IntervalMs, &settings.Box4IntervalMs,
		&settings.EnableHarmonicRatio, &settings.HarmonicRatioThreshold,
		&settings.TimeoutSeconds, &settings.SilentTimeout, &settings.Locale)

	if err == sql.ErrNoRows {
		utils.LogDB("No settings for user %d, creating defaults", userID)
		return db.createDefaultSettings(userID)
	}
	if err != nil {
		utils.LogError("Failed to load settings for user %d: %v", userID, err)
		return nil, err
	}

	return settings, nil
}

func (db *DB) createDefaultSettings(userID int) (*models.Settings, error) {
	settings := models.GetDefaultSettings(userID)
	if err := db.SaveSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SaveSettings upserts the settings row for the user.
func (db *DB) SaveSettings(settings *models.Settings) error {
	utils.LogDB("Saving settings for user %d", settings.UserID)

	_, err := db.Exec(`
		INSERT INTO settings (user_id, box0_interval_ms, box1_interval_ms,
		                      box2_interval_ms, box3_interval_ms, box4_interval_ms,
		                      enable_harmonic_ratio, harmonic_ratio_threshold,
		                      timeout_seconds, silent_timeout, locale, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO UPDATE SET
			box0_interval_ms = excluded.box0_interval_ms,
			box1_interval_ms = excluded.box1_interval_ms,
			box2_interval_ms = excluded.box2_interval_ms,
			box3_interval_ms = excluded.box3_interval_ms,
			box4_interval_ms = excluded.box4_interval_ms,
			enable_harmonic_ratio = excluded.enable_harmonic_ratio,
			harmonic_ratio_threshold = excluded.harmonic_ratio_threshold,
			timeout_seconds = excluded.timeout_seconds,
			silent_timeout = excluded.silent_timeout,
			locale = excluded.locale,
			updated_at = CURRENT_TIMESTAMP`,
		settings.UserID,
		settings.Box0IntervalMs, settings.Box1IntervalMs, settings.Box2IntervalMs,
		settings.Box3IntervalMs, settings.Box4IntervalMs,
		settings.EnableHarmonicRatio, settings.HarmonicRatioThreshold,
		settings.TimeoutSeconds, settings.SilentTimeout, settings.Locale)
	if err != nil {
		utils.LogError("Failed to save settings for user %d: %v", settings.UserID, err)
		return err
	}
	return nil
}
