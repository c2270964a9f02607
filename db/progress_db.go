package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgmuntingh/sheet-music-tutor/models"
	"github.com/georgmuntingh/sheet-music-tutor/utils"
)

// LoadProgress returns the stored learning state for a user. A user with
// no rows gets a fresh empty progress. Malformed card rows are skipped
// with a log line rather than failing the whole load, so one bad payload
// cannot lock a user out of their deck.
func (db *DB) LoadProgress(userID int) (*models.LearningProgress, error) {
	utils.LogDB("Loading progress for user %d", userID)

	progress := &models.LearningProgress{
		UserID:          userID,
		Cards:           []models.FlashCard{},
		InjectedLessons: []string{},
	}

	rows, err := db.Query(`
		SELECT id, lesson_id, kind, payload, box_number,
		       last_review, next_review,
		       review_count, correct_count, incorrect_count
		FROM cards
		WHERE user_id = ?
		ORDER BY position ASC`, userID)
	if err != nil {
		utils.LogError("Failed to query cards for user %d: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	skipped := 0
	for rows.Next() {
		var card models.FlashCard
		var kind string
		var payload string
		var lessonID sql.NullString
		var lastReview, nextReview sql.NullTime

		err := rows.Scan(&card.ID, &lessonID, &kind, &payload, &card.BoxNumber,
			&lastReview, &nextReview,
			&card.ReviewCount, &card.CorrectCount, &card.IncorrectCount)
		if err != nil {
			utils.LogError("Failed to scan card row for user %d: %v", userID, err)
			skipped++
			continue
		}

		if card.BoxNumber < models.BoxNew || card.BoxNumber > models.MaxBox {
			utils.LogDB("Skipping card %s with box number %d outside %d..%d",
				card.ID, card.BoxNumber, models.BoxNew, models.MaxBox)
			skipped++
			continue
		}

		decoded, err := models.DecodePayload(models.CardKind(kind), []byte(payload))
		if err != nil {
			utils.LogDB("Skipping card %s with unreadable payload: %v", card.ID, err)
			skipped++
			continue
		}
		card.Payload = decoded
		card.LessonID = lessonID.String
		if lastReview.Valid {
			card.LastReviewDate = lastReview.Time
		}
		if nextReview.Valid {
			card.NextReviewDate = nextReview.Time
		}

		progress.Cards = append(progress.Cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lessonRows, err := db.Query(
		"SELECT lesson_id FROM injected_lessons WHERE user_id = ?", userID)
	if err != nil {
		utils.LogError("Failed to query injected lessons for user %d: %v", userID, err)
		return nil, err
	}
	defer lessonRows.Close()

	for lessonRows.Next() {
		var lessonID string
		if err := lessonRows.Scan(&lessonID); err != nil {
			return nil, err
		}
		progress.InjectedLessons = append(progress.InjectedLessons, lessonID)
	}
	if err := lessonRows.Err(); err != nil {
		return nil, err
	}

	if skipped > 0 {
		utils.LogDB("Loaded progress for user %d with %d unreadable rows skipped", userID, skipped)
	}
	utils.LogDB("Loaded %d cards and %d injected lessons for user %d",
		len(progress.Cards), len(progress.InjectedLessons), userID)
	return progress, nil
}

// SaveProgress replaces the stored state with the in-memory state in a
// single transaction. Card order is preserved through the position
// column so new cards come back in insertion order.
func (db *DB) SaveProgress(progress *models.LearningProgress) error {
	utils.LogDB("Saving progress for user %d (%d cards)", progress.UserID, len(progress.Cards))

	tx, err := db.Begin()
	if err != nil {
		utils.LogError("Failed to begin save transaction: %v", err)
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cards WHERE user_id = ?", progress.UserID); err != nil {
		return fmt.Errorf("failed to clear cards: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM injected_lessons WHERE user_id = ?", progress.UserID); err != nil {
		return fmt.Errorf("failed to clear injected lessons: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO cards (id, user_id, lesson_id, kind, payload, box_number,
		                   last_review, next_review,
		                   review_count, correct_count, incorrect_count, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare card insert: %w", err)
	}
	defer stmt.Close()

	for i, card := range progress.Cards {
		payload, err := json.Marshal(card.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode payload for card %s: %w", card.ID, err)
		}
		_, err = stmt.Exec(card.ID, progress.UserID, card.LessonID,
			string(card.Kind()), string(payload), card.BoxNumber,
			nullTime(card.LastReviewDate), nullTime(card.NextReviewDate),
			card.ReviewCount, card.CorrectCount, card.IncorrectCount, i)
		if err != nil {
			return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
		}
	}

	for _, lessonID := range progress.InjectedLessons {
		_, err := tx.Exec(
			"INSERT INTO injected_lessons (user_id, lesson_id) VALUES (?, ?)",
			progress.UserID, lessonID)
		if err != nil {
			return fmt.Errorf("failed to insert injected lesson %s: %w", lessonID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		utils.LogError("Failed to commit progress for user %d: %v", progress.UserID, err)
		return err
	}
	return nil
}

// SaveCard updates a single card in place without rewriting the deck.
func (db *DB) SaveCard(userID int, card models.FlashCard) error {
	payload, err := json.Marshal(card.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for card %s: %w", card.ID, err)
	}

	result, err := db.Exec(`
		UPDATE cards
		SET payload = ?, box_number = ?, last_review = ?, next_review = ?,
		    review_count = ?, correct_count = ?, incorrect_count = ?
		WHERE id = ? AND user_id = ?`,
		string(payload), card.BoxNumber,
		nullTime(card.LastReviewDate), nullTime(card.NextReviewDate),
		card.ReviewCount, card.CorrectCount, card.IncorrectCount,
		card.ID, userID)
	if err != nil {
		utils.LogError("Failed to update card %s: %v", card.ID, err)
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("card %s not found for user %d", card.ID, userID)
	}
	return nil
}

// ResetProgress wipes all cards and injected lessons for a user.
// Settings are kept.
func (db *DB) ResetProgress(userID int) error {
	utils.LogDB("Resetting progress for user %d", userID)

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cards WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete cards: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM injected_lessons WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete injected lessons: %w", err)
	}

	return tx.Commit()
}

// nullTime maps the zero time to NULL so never-reviewed cards do not get
// a bogus year-one timestamp in the database.
func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
