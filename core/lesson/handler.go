package lesson

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dimasfr/learnmarket/api/web"
	"github.com/dimasfr/learnmarket/api/weberr"
	"github.com/dimasfr/learnmarket/core/claims"
	"github.com/dimasfr/learnmarket/core/course"
	"github.com/dimasfr/learnmarket/validate"
	"github.com/jmoiron/sqlx"
)

func HandleListByCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		lessons, err := FetchByCourse(ctx, db, courseID)
		if err != nil {
			return fmt.Errorf("fetching lessons: %w", err)
		}

		return web.Respond(ctx, w, lessons, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		l, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching lesson[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, l, http.StatusOK)
	}
}

// HandleShowFree serves a preview lesson with its URL, but only when
// the lesson is flagged free.
func HandleShowFree(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		l, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching lesson[%s]: %w", id, err)
		}

		if !l.Free {
			return weberr.Forbidden(fmt.Errorf("lesson[%s] is not a free preview", id))
		}

		return web.Respond(ctx, w, FullLesson{Lesson: l, FullURL: l.URL}, http.StatusOK)
	}
}

// HandleShowFull serves a lesson with its URL to users who own the
// course. This is where a paid order actually unlocks content.
func HandleShowFull(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		l, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching lesson[%s]: %w", id, err)
		}

		owned, err := course.IsOwned(ctx, db, clm.UserID, l.CourseID)
		if err != nil {
			return fmt.Errorf("checking ownership of course[%s]: %w", l.CourseID, err)
		}

		if !owned && !l.Free {
			return weberr.Forbidden(fmt.Errorf("user[%s] does not own course[%s]", clm.UserID, l.CourseID))
		}

		return web.Respond(ctx, w, FullLesson{Lesson: l, FullURL: l.URL}, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var ln LessonNew
		if err := web.Decode(w, r, &ln); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(ln); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := course.Fetch(ctx, db, ln.CourseID)
		if err != nil {
			if errors.Is(err, course.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching course[%s]: %w", ln.CourseID, err)
		}

		if c.OwnerID != clm.UserID && !claims.IsAdmin(ctx) {
			return weberr.Forbidden(fmt.Errorf("user[%s] does not own course[%s]", clm.UserID, c.ID))
		}

		now := time.Now().UTC()
		l := Lesson{
			ID:          validate.GenerateID(),
			CourseID:    ln.CourseID,
			Index:       ln.Index,
			Name:        ln.Name,
			Description: ln.Description,
			Free:        ln.Free,
			URL:         ln.URL,
			ImageURL:    ln.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := Create(ctx, db, l); err != nil {
			return fmt.Errorf("creating lesson: %w", err)
		}

		return web.Respond(ctx, w, l, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var lu LessonUp
		if err := web.Decode(w, r, &lu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(lu); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		l, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching lesson[%s]: %w", id, err)
		}

		c, err := course.Fetch(ctx, db, l.CourseID)
		if err != nil {
			return fmt.Errorf("fetching course[%s]: %w", l.CourseID, err)
		}

		if c.OwnerID != clm.UserID && !claims.IsAdmin(ctx) {
			return weberr.Forbidden(fmt.Errorf("user[%s] does not own course[%s]", clm.UserID, c.ID))
		}

		if lu.Index != nil {
			l.Index = *lu.Index
		}
		if lu.Name != nil {
			l.Name = *lu.Name
		}
		if lu.Description != nil {
			l.Description = *lu.Description
		}
		if lu.Free != nil {
			l.Free = *lu.Free
		}
		if lu.URL != nil {
			l.URL = *lu.URL
		}
		if lu.ImageURL != nil {
			l.ImageURL = *lu.ImageURL
		}

		l.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, l); err != nil {
			return fmt.Errorf("updating lesson[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, l, http.StatusOK)
	}
}

func HandleUpdateProgress(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		var pu ProgressUp
		if err := web.Decode(w, r, &pu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(pu); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		p := Progress{
			LessonID:  id,
			UserID:    clm.UserID,
			Progress:  pu.Progress,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := UpsertProgress(ctx, db, p); err != nil {
			return fmt.Errorf("updating progress on lesson[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleListProgressByCourse(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		progress, err := FetchProgressByCourse(ctx, db, clm.UserID, courseID)
		if err != nil {
			return fmt.Errorf("fetching progress: %w", err)
		}

		return web.Respond(ctx, w, progress, http.StatusOK)
	}
}
