package course

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dimasfr/learnmarket/api/web"
	"github.com/dimasfr/learnmarket/api/weberr"
	"github.com/dimasfr/learnmarket/core/claims"
	"github.com/dimasfr/learnmarket/validate"
	"github.com/jmoiron/sqlx"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courses, err := FetchAll(ctx, db)
		if err != nil {
			return fmt.Errorf("fetching courses: %w", err)
		}

		return web.Respond(ctx, w, courses, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching course[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleListOwned(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courses, err := FetchOwned(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching owned courses: %w", err)
		}

		return web.Respond(ctx, w, courses, http.StatusOK)
	}
}

func HandleListCreated(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courses, err := FetchCreated(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching created courses: %w", err)
		}

		return web.Respond(ctx, w, courses, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var cn CourseNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		now := time.Now().UTC()
		c := Course{
			ID:          validate.GenerateID(),
			OwnerID:     clm.UserID,
			Name:        cn.Name,
			Description: cn.Description,
			Price:       cn.Price,
			Discount:    cn.Discount,
			ImageURL:    cn.ImageURL,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := Create(ctx, db, c); err != nil {
			return fmt.Errorf("creating course: %w", err)
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

// HandleUpdate modifies a course. Teachers may only touch their own
// courses; admins may touch any.
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

		var cu CourseUp
		if err := web.Decode(w, r, &cu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cu); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching course[%s]: %w", id, err)
		}

		if c.OwnerID != clm.UserID && !claims.IsAdmin(ctx) {
			return weberr.Forbidden(fmt.Errorf("user[%s] does not own course[%s]", clm.UserID, id))
		}

		if cu.Name != nil {
			c.Name = *cu.Name
		}
		if cu.Description != nil {
			c.Description = *cu.Description
		}
		if cu.Price != nil {
			c.Price = *cu.Price
		}
		if cu.Discount != nil {
			c.Discount = *cu.Discount
		}
		if cu.ImageURL != nil {
			c.ImageURL = *cu.ImageURL
		}

		if c.Discount > c.Price {
			err := errors.New("discount cannot exceed the price")
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		c.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, c); err != nil {
			return fmt.Errorf("updating course[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}
