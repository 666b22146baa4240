package course

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimasfr/learnmarket/database"
	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("course does not exist")

func Create(ctx context.Context, db sqlx.ExtContext, course Course) error {
	const q = `
	INSERT INTO courses
		(course_id, owner_id, name, description, price, discount, image_url, created_at, updated_at)
	VALUES
		(:course_id, :owner_id, :name, :description, :price, :discount, :image_url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, course); err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}

	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, course Course) error {
	const q = `
	UPDATE courses
	SET
		name = :name,
		description = :description,
		price = :price,
		discount = :discount,
		image_url = :image_url,
		updated_at = :updated_at,
		version = version + 1
	WHERE course_id = :course_id AND version = :version`

	res, err := sqlx.NamedExecContext(ctx, db, q, course)
	if err != nil {
		return fmt.Errorf("updating course[%s]: %w", course.ID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating course[%s]: stale version", course.ID)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Course, error) {
	in := struct {
		ID string `db:"course_id"`
	}{ID: id}

	const q = `
	SELECT * FROM courses
	WHERE course_id = :course_id`

	var c Course
	if err := database.NamedQueryStruct(ctx, db, q, in, &c); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return Course{}, ErrNotFound
		}
		return Course{}, fmt.Errorf("selecting course[%s]: %w", id, err)
	}

	return c, nil
}

func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Course, error) {
	const q = `
	SELECT * FROM courses
	ORDER BY created_at DESC`

	courses := []Course{}
	if err := database.NamedQuerySlice(ctx, db, q, struct{}{}, &courses); err != nil {
		return nil, fmt.Errorf("selecting courses: %w", err)
	}

	return courses, nil
}

// FetchOwned lists the courses a user has bought, that is courses
// appearing in one of their successfully paid orders.
func FetchOwned(ctx context.Context, db sqlx.ExtContext, userID string) ([]Course, error) {
	in := struct {
		UserID string `db:"user_id"`
	}{UserID: userID}

	const q = `
	SELECT DISTINCT c.* FROM courses AS c
	JOIN order_items AS i ON i.course_id = c.course_id
	JOIN orders AS o ON o.order_id = i.order_id
	WHERE o.user_id = :user_id AND o.status = 'success'`

	courses := []Course{}
	if err := database.NamedQuerySlice(ctx, db, q, in, &courses); err != nil {
		return nil, fmt.Errorf("selecting courses owned by user[%s]: %w", userID, err)
	}

	return courses, nil
}

// IsOwned reports whether a user has paid for a course.
func IsOwned(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) (bool, error) {
	courses, err := FetchOwned(ctx, db, userID)
	if err != nil {
		return false, err
	}

	for _, c := range courses {
		if c.ID == courseID {
			return true, nil
		}
	}

	return false, nil
}

// FetchCreated lists the courses a teacher has authored.
func FetchCreated(ctx context.Context, db sqlx.ExtContext, ownerID string) ([]Course, error) {
	in := struct {
		OwnerID string `db:"owner_id"`
	}{OwnerID: ownerID}

	const q = `
	SELECT * FROM courses
	WHERE owner_id = :owner_id
	ORDER BY created_at DESC`

	courses := []Course{}
	if err := database.NamedQuerySlice(ctx, db, q, in, &courses); err != nil {
		return nil, fmt.Errorf("selecting courses created by user[%s]: %w", ownerID, err)
	}

	return courses, nil
}
