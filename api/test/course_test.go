package test

import (
	"fmt"
	"net/http"
	"sort"
	"testing"

	"github.com/dimasfr/learnmarket/core/course"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

type courseTest struct {
	*TestEnv
	counter int
}

// createCourseOK makes a course as the test teacher and restores the
// previous session state by logging out.
func (ct *courseTest) createCourseOK(t *testing.T, price int, discount int) course.Course {
	if err := ct.Login(ct.TeacherEmail, TeacherPass); err != nil {
		t.Fatal(err)
	}
	defer ct.Logout()

	ct.counter++
	cn := course.CourseNew{
		Name:        fmt.Sprintf("Course %d", ct.counter),
		Description: fmt.Sprintf("Description of course %d", ct.counter),
		Price:       price,
		Discount:    discount,
		ImageURL:    "https://images.test.dev/course.png",
	}

	var c course.Course
	code, err := ct.doJSON(http.MethodPost, "/courses", cn, &c)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusCreated {
		t.Fatalf("can't create course: status code %d", code)
	}

	return c
}

func (ct *courseTest) updateCourseOK(t *testing.T, id string, up course.CourseUp) course.Course {
	if err := ct.Login(ct.TeacherEmail, TeacherPass); err != nil {
		t.Fatal(err)
	}
	defer ct.Logout()

	var c course.Course
	code, err := ct.doJSON(http.MethodPut, "/courses/"+id, up, &c)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't update course[%s]: status code %d", id, code)
	}

	return c
}

func (ct *courseTest) listCoursesOwnedOK(t *testing.T, expected []course.Course) {
	if err := ct.Login(ct.UserEmail, UserPass); err != nil {
		t.Fatal(err)
	}
	defer ct.Logout()

	var got []course.Course
	code, err := ct.doJSON(http.MethodGet, "/courses/owned", nil, &got)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't list owned courses: status code %d", code)
	}

	sort.Slice(got, func(i, j int) bool { return got[i].ID < got[j].ID })
	sort.Slice(expected, func(i, j int) bool { return expected[i].ID < expected[j].ID })

	ignore := cmpopts.IgnoreFields(course.Course{}, "CreatedAt", "UpdatedAt", "Version")
	if diff := cmp.Diff(expected, got, ignore); diff != "" {
		t.Fatalf("owned courses mismatch (-want +got):\n%s", diff)
	}
}

func TestCourse(t *testing.T) {
	env, err := NewTestEnv(t, "course_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{TestEnv: env}

	c := ct.createCourseOK(t, 100, 30)
	if c.Price != 100 || c.Discount != 30 {
		t.Fatalf("unexpected course pricing: price %d, discount %d", c.Price, c.Discount)
	}
	if c.OwnerID != env.TeacherID {
		t.Fatalf("expected owner %s, got %s", env.TeacherID, c.OwnerID)
	}

	// Catalog is public.
	var listed []course.Course
	code, err := env.doJSON(http.MethodGet, "/courses", nil, &listed)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't list courses anonymously: status code %d", code)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 course listed, got %d", len(listed))
	}

	// A discount above the price must never be stored.
	bad := course.CourseUp{Discount: intp(200)}
	if err := env.Login(env.TeacherEmail, TeacherPass); err != nil {
		t.Fatal(err)
	}
	code, err = env.doJSON(http.MethodPut, "/courses/"+c.ID, bad, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("discount above price: expected 422, got %d", code)
	}
	env.Logout()
}

func TestCourseGate(t *testing.T) {
	env, err := NewTestEnv(t, "course_gate_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	cn := course.CourseNew{
		Name:        "Gated",
		Description: "Gated",
		Price:       10,
		ImageURL:    "https://images.test.dev/course.png",
	}

	// Anonymous: authentication is checked before any role logic.
	code, err := env.doJSON(http.MethodPost, "/courses", cn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous course creation: expected 401, got %d", code)
	}

	// Student is authenticated but not in {teacher, admin}.
	if err := env.Login(env.UserEmail, UserPass); err != nil {
		t.Fatal(err)
	}
	code, err = env.doJSON(http.MethodPost, "/courses", cn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusForbidden {
		t.Fatalf("student course creation: expected 403, got %d", code)
	}
	env.Logout()

	// Admin is explicitly listed on the route.
	if err := env.Login(env.AdminEmail, AdminPass); err != nil {
		t.Fatal(err)
	}
	code, err = env.doJSON(http.MethodPost, "/courses", cn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusCreated {
		t.Fatalf("admin course creation: expected 201, got %d", code)
	}
	env.Logout()
}

func intp(v int) *int { return &v }
