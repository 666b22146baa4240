package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dimasfr/learnmarket/core/course"
	"github.com/dimasfr/learnmarket/core/user"
	"github.com/dimasfr/learnmarket/database"
	"github.com/jmoiron/sqlx"
)

var (
	ErrUserNotFound    = errors.New("user does not exist")
	ErrCourseNotFound  = errors.New("course does not exist")
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidDiscount = errors.New("discount exceeds the course price")
)

type Cart struct {
	UserID    string    `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Version   int       `json:"-" db:"version"`
	Items     []Item    `json:"items" db:"-"`
	Total     int       `json:"total" db:"-"`
}

// Item is a cart line. Price is the per-unit snapshot taken when the
// course entered the cart: later catalog changes never touch it.
type Item struct {
	UserID    string    `json:"-" db:"user_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	Quantity  int       `json:"quantity" db:"quantity"`
	Price     int       `json:"price" db:"price"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type ItemNew struct {
	CourseID string `json:"courseId" db:"course_id" validate:"required,uuid"`
	Quantity int    `json:"quantity" db:"quantity" validate:"required,gte=1"`
}

// UnitPrice computes what one unit of a course costs right now:
// the listed price minus its discount. A discount larger than the
// price is a catalog invariant violation and is rejected instead of
// producing a negative price.
func UnitPrice(c course.Course) (int, error) {
	if c.Discount < 0 || c.Discount > c.Price {
		return 0, ErrInvalidDiscount
	}

	return c.Price - c.Discount, nil
}

// AddItem puts quantity units of a course in a user's cart.
//
// Adding a course already in the cart merges: the quantity is bumped
// atomically in the upsert and the original price snapshot is kept, so
// one line always carries one price and concurrent adds for the same
// (user, course) pair can never lose an update.
func AddItem(ctx context.Context, db *sqlx.DB, userID string, courseID string, quantity int) (Item, error) {
	if quantity <= 0 {
		return Item{}, ErrInvalidQuantity
	}

	if _, err := user.Fetch(ctx, db, userID); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return Item{}, ErrUserNotFound
		}
		return Item{}, fmt.Errorf("fetching user[%s]: %w", userID, err)
	}

	c, err := course.Fetch(ctx, db, courseID)
	if err != nil {
		if errors.Is(err, course.ErrNotFound) {
			return Item{}, ErrCourseNotFound
		}
		return Item{}, fmt.Errorf("fetching course[%s]: %w", courseID, err)
	}

	price, err := UnitPrice(c)
	if err != nil {
		return Item{}, err
	}

	now := time.Now().UTC()
	it := Item{
		UserID:    userID,
		CourseID:  courseID,
		Quantity:  quantity,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := Upsert(ctx, tx, Cart{UserID: userID, CreatedAt: now, UpdatedAt: now}); err != nil {
			return fmt.Errorf("upserting cart: %w", err)
		}

		merged, err := UpsertItem(ctx, tx, it)
		if err != nil {
			return fmt.Errorf("upserting cart item: %w", err)
		}

		it = merged
		return nil
	})
	if err != nil {
		return Item{}, fmt.Errorf("adding course[%s] to cart of user[%s]: %w", courseID, userID, err)
	}

	return it, nil
}
