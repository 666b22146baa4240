package test

import (
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/dimasfr/learnmarket/core/cart"
	"github.com/dimasfr/learnmarket/core/course"
)

type cartTest struct {
	*TestEnv
}

// createItemOK adds a course to the logged-in user's cart.
func (rt *cartTest) createItemOK(t *testing.T, courseID string, quantity int) cart.Item {
	in := cart.ItemNew{CourseID: courseID, Quantity: quantity}

	var it cart.Item
	code, err := rt.doJSON(http.MethodPut, "/cart/items", in, &it)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't add course[%s] to cart: status code %d", courseID, code)
	}

	return it
}

func (rt *cartTest) fetchCartOK(t *testing.T) cart.Cart {
	var crt cart.Cart
	code, err := rt.doJSON(http.MethodGet, "/cart", nil, &crt)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusOK {
		t.Fatalf("can't fetch cart: status code %d", code)
	}

	return crt
}

func TestCartPricing(t *testing.T) {
	env, err := NewTestEnv(t, "cart_pricing_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{TestEnv: env}
	rt := &cartTest{env}

	c := ct.createCourseOK(t, 100, 30)

	if err := env.Login(env.UserEmail, UserPass); err != nil {
		t.Fatal(err)
	}
	defer env.Logout()

	it := rt.createItemOK(t, c.ID, 1)
	if it.Price != 70 {
		t.Fatalf("expected snapshot price 70, got %d", it.Price)
	}

	crt := rt.fetchCartOK(t)
	if crt.Total != 70 {
		t.Fatalf("expected cart total 70, got %d", crt.Total)
	}

	// Zero quantity never reaches the pricing engine.
	code, err := env.doJSON(http.MethodPut, "/cart/items", cart.ItemNew{CourseID: c.ID, Quantity: 0}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("zero quantity: expected 422, got %d", code)
	}

	// Unknown course is a 404, not a silent no-op.
	ghost := "3b8f8a1e-0000-4000-8000-000000000000"
	code, err = env.doJSON(http.MethodPut, "/cart/items", cart.ItemNew{CourseID: ghost, Quantity: 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if code != http.StatusNotFound {
		t.Fatalf("unknown course: expected 404, got %d", code)
	}
}

func TestCartMerge(t *testing.T) {
	env, err := NewTestEnv(t, "cart_merge_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{TestEnv: env}
	rt := &cartTest{env}

	c := ct.createCourseOK(t, 50, 10)

	if err := env.Login(env.UserEmail, UserPass); err != nil {
		t.Fatal(err)
	}
	defer env.Logout()

	rt.createItemOK(t, c.ID, 1)
	merged := rt.createItemOK(t, c.ID, 2)

	if merged.Quantity != 3 {
		t.Fatalf("expected merged quantity 3, got %d", merged.Quantity)
	}
	if merged.Price != 40 {
		t.Fatalf("expected original snapshot 40 after merge, got %d", merged.Price)
	}

	crt := rt.fetchCartOK(t)
	if len(crt.Items) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(crt.Items))
	}
	if crt.Total != 120 {
		t.Fatalf("expected cart total 120, got %d", crt.Total)
	}
}

func TestCartSnapshot(t *testing.T) {
	env, err := NewTestEnv(t, "cart_snapshot_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{TestEnv: env}
	rt := &cartTest{env}

	c := ct.createCourseOK(t, 100, 30)

	if err := env.Login(env.UserEmail, UserPass); err != nil {
		t.Fatal(err)
	}
	it := rt.createItemOK(t, c.ID, 1)
	if it.Price != 70 {
		t.Fatalf("expected snapshot price 70, got %d", it.Price)
	}
	env.Logout()

	// A later catalog change must not rewrite the stored snapshot.
	ct.updateCourseOK(t, c.ID, course.CourseUp{Price: intp(500), Discount: intp(0)})

	if err := env.Login(env.UserEmail, UserPass); err != nil {
		t.Fatal(err)
	}
	defer env.Logout()

	crt := rt.fetchCartOK(t)
	if len(crt.Items) != 1 {
		t.Fatalf("expected 1 cart line, got %d", len(crt.Items))
	}
	if crt.Items[0].Price != 70 {
		t.Fatalf("snapshot changed after catalog update: got %d", crt.Items[0].Price)
	}
}

// Two concurrent adds of the same course must merge into one line
// with both quantities accounted for, never a lost update.
func TestCartConcurrentAdd(t *testing.T) {
	env, err := NewTestEnv(t, "cart_concurrent_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	ct := &courseTest{TestEnv: env}
	rt := &cartTest{env}

	c := ct.createCourseOK(t, 80, 0)

	if err := env.Login(env.UserEmail, UserPass); err != nil {
		t.Fatal(err)
	}
	defer env.Logout()

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := env.doJSON(http.MethodPut, "/cart/items", cart.ItemNew{CourseID: c.ID, Quantity: 1}, nil)
			if err != nil {
				errs <- err
				return
			}
			if code != http.StatusOK {
				errs <- fmt.Errorf("concurrent add: status code %d", code)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	crt := rt.fetchCartOK(t)
	if len(crt.Items) != 1 {
		t.Fatalf("expected a single line after concurrent adds, got %d", len(crt.Items))
	}
	if crt.Items[0].Quantity != 2 {
		t.Fatalf("lost update: expected quantity 2, got %d", crt.Items[0].Quantity)
	}
}
