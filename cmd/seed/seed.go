// Demo-data seeder. Development only: it fills the database with fake
// users, courses, lessons and carts so the frontend has something to
// show. It is a separate binary and is never linked into the server.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/dimasfr/learnmarket/config"
	"github.com/dimasfr/learnmarket/core/cart"
	"github.com/dimasfr/learnmarket/core/claims"
	"github.com/dimasfr/learnmarket/core/course"
	"github.com/dimasfr/learnmarket/core/lesson"
	"github.com/dimasfr/learnmarket/core/user"
	"github.com/dimasfr/learnmarket/database"
	"github.com/dimasfr/learnmarket/random"
	"github.com/dimasfr/learnmarket/validate"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

type seedConfig struct {
	DB       config.DB
	Seed     int64 `conf:"default:42"`
	Students int   `conf:"default:8"`
	Teachers int   `conf:"default:2"`
	Courses  int   `conf:"default:6"`
}

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run(logger *logrus.Logger) error {
	_ = godotenv.Load()

	var cfg seedConfig
	if _, err := conf.Parse("MARKET", &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	db, err := database.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to open db connection: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate the database: %w", err)
	}

	ctx := context.Background()

	// A fixed seed makes every run reproducible: same users, same
	// courses, same carts.
	rng := random.Seeded(cfg.Seed)

	teachers, err := seedUsers(ctx, db, claims.RoleTeacher, cfg.Teachers)
	if err != nil {
		return fmt.Errorf("seeding teachers: %w", err)
	}

	students, err := seedUsers(ctx, db, claims.RoleStudent, cfg.Students)
	if err != nil {
		return fmt.Errorf("seeding students: %w", err)
	}

	courses, err := seedCourses(ctx, db, teachers, cfg.Courses, rng)
	if err != nil {
		return fmt.Errorf("seeding courses: %w", err)
	}

	if err := seedCartsForUsers(ctx, db, students, courses, rng); err != nil {
		return fmt.Errorf("seeding carts: %w", err)
	}

	logger.Infof("seeded %d teachers, %d students, %d courses", len(teachers), len(students), len(courses))
	return nil
}

func seedUsers(ctx context.Context, db *sqlx.DB, role claims.Role, n int) ([]user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("gocourse!1"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	users := make([]user.User, 0, n)
	for i := 0; i < n; i++ {
		usr := user.User{
			ID:           validate.GenerateID(),
			Name:         fmt.Sprintf("Demo %s %d", role, i+1),
			Email:        fmt.Sprintf("%s%d@learnmarket.dev", role, i+1),
			Role:         role,
			PasswordHash: hash,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, usr); err != nil {
			return nil, err
		}
		users = append(users, usr)
	}

	return users, nil
}

func seedCourses(ctx context.Context, db *sqlx.DB, teachers []user.User, n int, rng *rand.Rand) ([]course.Course, error) {
	now := time.Now().UTC()

	courses := make([]course.Course, 0, n)
	for i := 0; i < n; i++ {
		price := 10 + rng.Intn(90)
		c := course.Course{
			ID:          validate.GenerateID(),
			OwnerID:     teachers[i%len(teachers)].ID,
			Name:        fmt.Sprintf("Course %d", i+1),
			Description: fmt.Sprintf("Demo course number %d", i+1),
			Price:       price,
			Discount:    rng.Intn(price),
			ImageURL:    fmt.Sprintf("https://images.learnmarket.dev/course-%d.png", i+1),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := course.Create(ctx, db, c); err != nil {
			return nil, err
		}
		courses = append(courses, c)

		if err := seedLessons(ctx, db, c, 3+rng.Intn(3), rng); err != nil {
			return nil, err
		}
	}

	return courses, nil
}

func seedLessons(ctx context.Context, db *sqlx.DB, c course.Course, n int, rng *rand.Rand) error {
	now := time.Now().UTC()

	for i := 0; i < n; i++ {
		l := lesson.Lesson{
			ID:          validate.GenerateID(),
			CourseID:    c.ID,
			Index:       i,
			Name:        fmt.Sprintf("%s - lesson %d", c.Name, i+1),
			Description: fmt.Sprintf("Demo lesson %d of %s", i+1, c.Name),
			Free:        i == 0,
			URL:         demoVideoURL(rng),
			ImageURL:    fmt.Sprintf("https://images.learnmarket.dev/lesson-%d.png", i+1),
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := lesson.Create(ctx, db, l); err != nil {
			return err
		}
	}

	return nil
}

// demoVideoURL is deterministic for a given rng state.
func demoVideoURL(rng *rand.Rand) string {
	return fmt.Sprintf("https://videos.learnmarket.dev/%010d.mp4", rng.Intn(1_000_000_000))
}

// seedCartsForUsers drops 1 to 3 distinct courses in each user's cart
// with a quantity of 1 or 2, through the production pricing path.
func seedCartsForUsers(ctx context.Context, db *sqlx.DB, users []user.User, courses []course.Course, rng *rand.Rand) error {
	for _, usr := range users {
		for _, c := range pickCourses(courses, rng) {
			qty := 1 + rng.Intn(2)

			if _, err := cart.AddItem(ctx, db, usr.ID, c.ID, qty); err != nil {
				return fmt.Errorf("filling cart of user[%s]: %w", usr.ID, err)
			}
		}
	}

	return nil
}

// pickCourses samples 1 to 3 courses without replacement.
func pickCourses(courses []course.Course, rng *rand.Rand) []course.Course {
	n := 1 + rng.Intn(3)
	if n > len(courses) {
		n = len(courses)
	}

	picked := make([]course.Course, 0, n)
	for _, i := range rng.Perm(len(courses))[:n] {
		picked = append(picked, courses[i])
	}

	return picked
}
