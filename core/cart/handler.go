package cart

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dimasfr/learnmarket/api/web"
	"github.com/dimasfr/learnmarket/api/weberr"
	"github.com/dimasfr/learnmarket/core/claims"
	"github.com/dimasfr/learnmarket/validate"
	"github.com/jmoiron/sqlx"
)

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		crt, err := Fetch(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("fetching cart: %w", err)
		}

		return web.Respond(ctx, w, crt, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if err := Delete(ctx, db, clm.UserID); err != nil {
			return fmt.Errorf("deleting cart: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleCreateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		it, err := AddItem(ctx, db, clm.UserID, in.CourseID, in.Quantity)
		if err != nil {
			switch {
			case errors.Is(err, ErrCourseNotFound), errors.Is(err, ErrUserNotFound):
				return weberr.NotFound(err)
			case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidDiscount):
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
			return fmt.Errorf("adding item to cart: %w", err)
		}

		return web.Respond(ctx, w, it, http.StatusOK)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		courseID := web.Param(r, "course_id")
		if err := validate.CheckID(courseID); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := DeleteItem(ctx, db, clm.UserID, courseID); err != nil {
			return fmt.Errorf("deleting cart item: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
