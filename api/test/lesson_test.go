package test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/dimasfr/learnmarket/core/lesson"
)

type lessonTest struct {
	*TestEnv
}

// createLessonOK makes a lesson as the test teacher and restores the
// previous session state by logging out.
func (lt *lessonTest) createLessonOK(t *testing.T, courseID string, index int, free bool, url string) lesson.Lesson {
	if err := lt.Login(lt.TeacherEmail, TeacherPass); err != nil {
		t.Fatal(err)
	}
	defer lt.Logout()

	ln := lesson.LessonNew{
		CourseID:    courseID,
		Index:       index,
		Name:        fmt.Sprintf("Lesson %d", index+1),
		Description: fmt.Sprintf("Lesson %d of course %s", index+1, courseID),
		Free:        free,
		URL:         url,
		ImageURL:    "https://images.test.dev/lesson.png",
	}

	var l lesson.Lesson
	code, err := lt.doJSON(http.MethodPost, "/lessons", ln, &l)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusCreated {
		t.Fatalf("can't create lesson: status code %d", code)
	}

	return l
}

// The full video URL is handed out only to owners of the course; a
// paid order is what unlocks it. Free previews stay open to everyone.
func TestLessonGate(t *testing.T) {
	env, err := NewTestEnv(t, "lesson_gate_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{TestEnv: env}
	lt := &lessonTest{env}
	rt := &cartTest{env}
	ot := &orderTest{env}

	const (
		paidURL = "https://videos.test.dev/paid.mp4"
		freeURL = "https://videos.test.dev/free.mp4"
	)

	c := ct.createCourseOK(t, 100, 30)
	paid := lt.createLessonOK(t, c.ID, 0, false, paidURL)
	free := lt.createLessonOK(t, c.ID, 1, true, freeURL)

	// The lesson listing never carries video URLs.
	var listed []map[string]any
	code, err := env.doJSON(http.MethodGet, "/courses/"+c.ID+"/lessons", nil, &listed)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't list lessons: status code %d", code)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 lessons listed, got %d", len(listed))
	}
	for _, l := range listed {
		if _, ok := l["url"]; ok {
			t.Fatalf("lesson listing leaked a video URL: %v", l)
		}
	}

	// Anonymous: authentication is checked before ownership.
	code, err = env.doJSON(http.MethodGet, "/lessons/"+paid.ID+"/full", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusUnauthorized {
		t.Fatalf("anonymous full lesson: expected 401, got %d", code)
	}

	// Free previews are open even without a session.
	var fl struct {
		URL string `json:"url"`
	}
	code, err = env.doJSON(http.MethodGet, "/lessons/"+free.ID+"/free", nil, &fl)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("free preview: status code %d", code)
	}
	if fl.URL != freeURL {
		t.Fatalf("expected free preview URL %s, got %s", freeURL, fl.URL)
	}

	code, err = env.doJSON(http.MethodGet, "/lessons/"+paid.ID+"/free", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusForbidden {
		t.Fatalf("paid lesson via preview route: expected 403, got %d", code)
	}

	// A signed-in student without the course is refused the same way.
	if err := env.Login(env.UserEmail, UserPass); err != nil {
		t.Fatal(err)
	}
	code, err = env.doJSON(http.MethodGet, "/lessons/"+paid.ID+"/full", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusForbidden {
		t.Fatalf("non-owner full lesson: expected 403, got %d", code)
	}

	fl.URL = ""
	code, err = env.doJSON(http.MethodGet, "/lessons/"+free.ID+"/full", nil, &fl)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("free lesson on full route: status code %d", code)
	}
	if fl.URL != freeURL {
		t.Fatalf("expected free lesson URL %s, got %s", freeURL, fl.URL)
	}

	rt.createItemOK(t, c.ID, 1)
	env.Logout()

	// Buying the course is what unlocks the paid lesson.
	ot.Paypal.expectedCart = []expectedLine{{Price: 70, Quantity: 1}}
	ot.testPaypal(t)

	if err := env.Login(env.UserEmail, UserPass); err != nil {
		t.Fatal(err)
	}
	defer env.Logout()

	fl.URL = ""
	code, err = env.doJSON(http.MethodGet, "/lessons/"+paid.ID+"/full", nil, &fl)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("owner full lesson: status code %d", code)
	}
	if fl.URL != paidURL {
		t.Fatalf("expected full URL %s after purchase, got %s", paidURL, fl.URL)
	}
}
