package lesson

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimasfr/learnmarket/database"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("lesson does not exist")

func Create(ctx context.Context, db sqlx.ExtContext, lesson Lesson) error {
	const q = `
	INSERT INTO lessons
		(lesson_id, course_id, index, name, description, free, url, image_url, created_at, updated_at)
	VALUES
		(:lesson_id, :course_id, :index, :name, :description, :free, :url, :image_url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, lesson); err != nil {
		return fmt.Errorf("inserting lesson: %w", err)
	}

	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, lesson Lesson) error {
	const q = `
	UPDATE lessons
	SET
		index = :index,
		name = :name,
		description = :description,
		free = :free,
		url = :url,
		image_url = :image_url,
		updated_at = :updated_at,
		version = version + 1
	WHERE lesson_id = :lesson_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, lesson)
	if err != nil {
		return fmt.Errorf("updating lesson[%s]: %w", lesson.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating lesson[%s]: stale version", lesson.ID)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Lesson, error) {
	in := struct {
		ID string `db:"lesson_id"`
	}{ID: id}

	const q = `
	SELECT * FROM lessons
	WHERE lesson_id = :lesson_id`

	var l Lesson
	if err := database.NamedQueryStruct(ctx, db, q, in, &l); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Lesson{}, ErrNotFound
		}
		return Lesson{}, fmt.Errorf("selecting lesson[%s]: %w", id, err)
	}

	return l, nil
}

func FetchByCourse(ctx context.Context, db sqlx.ExtContext, courseID string) ([]Lesson, error) {
	in := struct {
		CourseID string `db:"course_id"`
	}{CourseID: courseID}

	const q = `
	SELECT * FROM lessons
	WHERE course_id = :course_id
	ORDER BY index`

	lessons := []Lesson{}
	if err := database.NamedQuerySlice(ctx, db, q, in, &lessons); err != nil {
		return nil, fmt.Errorf("selecting lessons of course[%s]: %w", courseID, err)
	}

	return lessons, nil
}

func UpsertProgress(ctx context.Context, db sqlx.ExtContext, p Progress) error {
	const q = `
	INSERT INTO lessons_progress
		(lesson_id, user_id, progress, created_at, updated_at)
	VALUES
		(:lesson_id, :user_id, :progress, :created_at, :updated_at)
	ON CONFLICT (lesson_id, user_id) DO UPDATE
	SET
		progress = EXCLUDED.progress,
		updated_at = EXCLUDED.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("upserting progress: %w", err)
	}

	return nil
}

func FetchProgressByCourse(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) ([]Progress, error) {
	in := struct {
		UserID   string `db:"user_id"`
		CourseID string `db:"course_id"`
	}{UserID: userID, CourseID: courseID}

	const q = `
	SELECT p.* FROM lessons_progress AS p
	JOIN lessons AS l ON l.lesson_id = p.lesson_id
	WHERE p.user_id = :user_id AND l.course_id = :course_id`

	progress := []Progress{}
	if err := database.NamedQuerySlice(ctx, db, q, in, &progress); err != nil {
		return nil, fmt.Errorf("selecting progress of user[%s] on course[%s]: %w", userID, courseID, err)
	}

	return progress, nil
}
