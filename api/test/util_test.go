package test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/dimasfr/learnmarket/api"
	"github.com/dimasfr/learnmarket/api/background"
	"github.com/dimasfr/learnmarket/config"
	"github.com/dimasfr/learnmarket/core/claims"
	"github.com/dimasfr/learnmarket/core/user"
	"github.com/dimasfr/learnmarket/database"
	"github.com/dimasfr/learnmarket/validate"
	"github.com/jmoiron/sqlx"
	"github.com/plutov/paypal/v4"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"golang.org/x/crypto/bcrypt"
)

const (
	UserPass    = "student-pass-1!"
	TeacherPass = "teacher-pass-1!"
	AdminPass   = "admin-pass-1!"

	webhookSecret = "whsec_test_learnmarket"
)

type TestEnv struct {
	DB     *sqlx.DB
	Server *httptest.Server
	URL    string

	UserEmail    string
	UserID       string
	TeacherEmail string
	TeacherID    string
	AdminEmail   string
	AdminID      string

	WebhookSecret string

	Paypal *mockPaypal
	Stripe *mockStripe
	Mail   *mailRecorder

	client *http.Client
}

// NewTestEnv builds a fully wired API backed by a fresh database in
// the shared postgres container, with the payment providers mocked.
func NewTestEnv(t *testing.T, name string) (*TestEnv, error) {
	db, err := openTestDB(name)
	if err != nil {
		return nil, fmt.Errorf("opening test database: %w", err)
	}
	t.Cleanup(func() { db.Close() })

	pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := database.StatusCheck(pingCtx, db); err != nil {
		return nil, fmt.Errorf("waiting for test database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating test database: %w", err)
	}

	env := &TestEnv{
		DB:            db,
		WebhookSecret: webhookSecret,
		Paypal:        &mockPaypal{},
		Stripe:        &mockStripe{},
		Mail:          &mailRecorder{},
	}

	ppSrv := httptest.NewServer(env.Paypal.handle())
	t.Cleanup(ppSrv.Close)

	strpSrv := httptest.NewServer(env.Stripe.handle())
	t.Cleanup(strpSrv.Close)

	pp, err := paypal.NewClient("test-client", "test-secret", ppSrv.URL)
	if err != nil {
		return nil, fmt.Errorf("building paypal client: %w", err)
	}
	if _, err := pp.GetAccessToken(context.Background()); err != nil {
		return nil, fmt.Errorf("fetching mock paypal token: %w", err)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		URL: stripe.String(strpSrv.URL),
	})
	strp := &stripecl.API{}
	strp.Init("sk_test_learnmarket", &stripe.Backends{API: backend, Connect: backend, Uploads: backend})

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	session := scs.New()
	session.Lifetime = time.Hour

	mux := api.APIMux(api.APIConfig{
		Log:          log,
		DB:           db,
		Session:      session,
		Mailer:       env.Mail,
		TokenTimeout: time.Minute,
		Background:   background.New(log),
		Paypal:       pp,
		Stripe:       strp,
		StripeCfg: config.Stripe{
			WebhookSecret: webhookSecret,
			SuccessURL:    "http://localhost/success",
			CancelURL:     "http://localhost/cancel",
		},
	})

	env.Server = httptest.NewServer(mux)
	t.Cleanup(env.Server.Close)
	env.URL = env.Server.URL

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	env.client = &http.Client{Jar: jar}

	if err := env.seedAccounts(); err != nil {
		return nil, fmt.Errorf("seeding test accounts: %w", err)
	}

	return env, nil
}

func (te *TestEnv) Client() *http.Client {
	return te.client
}

func (te *TestEnv) seedAccounts() error {
	accounts := []struct {
		email *string
		id    *string
		pass  string
		role  claims.Role
	}{
		{&te.UserEmail, &te.UserID, UserPass, claims.RoleStudent},
		{&te.TeacherEmail, &te.TeacherID, TeacherPass, claims.RoleTeacher},
		{&te.AdminEmail, &te.AdminID, AdminPass, claims.RoleAdmin},
	}

	now := time.Now().UTC()
	for _, a := range accounts {
		hash, err := bcrypt.GenerateFromPassword([]byte(a.pass), bcrypt.MinCost)
		if err != nil {
			return err
		}

		usr := user.User{
			ID:           validate.GenerateID(),
			Name:         fmt.Sprintf("Test %s", a.role),
			Email:        fmt.Sprintf("%s@test.dev", a.role),
			Role:         a.role,
			PasswordHash: hash,
			Active:       true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(context.Background(), te.DB, usr); err != nil {
			return err
		}

		*a.email = usr.Email
		*a.id = usr.ID
	}

	return nil
}

// Login authenticates the shared client, replacing whatever session
// it held before.
func (te *TestEnv) Login(email string, pass string) error {
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, pass)

	w, err := te.client.Post(te.URL+"/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusOK {
		return fmt.Errorf("login as %s: status code %s", email, w.Status)
	}
	return nil
}

func (te *TestEnv) Logout() error {
	w, err := te.client.Post(te.URL+"/auth/logout", "application/json", nil)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode != http.StatusNoContent {
		return fmt.Errorf("logout: status code %s", w.Status)
	}
	return nil
}

// doJSON runs a request with an optional JSON body and decodes the
// response into out when a pointer is given.
func (te *TestEnv) doJSON(method string, path string, body any, out any) (int, error) {
	var reader *strings.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = strings.NewReader(string(b))
	} else {
		reader = strings.NewReader("")
	}

	r, err := http.NewRequest(method, te.URL+path, reader)
	if err != nil {
		return 0, err
	}
	r.Header.Set("Content-Type", "application/json")

	w, err := te.client.Do(r)
	if err != nil {
		return 0, err
	}
	defer w.Body.Close()

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil && w.StatusCode < 300 {
			return w.StatusCode, fmt.Errorf("decoding response: %w", err)
		}
	}

	return w.StatusCode, nil
}

// mailRecorder satisfies token.Mailer without sending anything. Sends
// happen on background goroutines, so access is locked.
type mailRecorder struct {
	mu          sync.Mutex
	welcomes    []string
	activations []string
	recoveries  []string
}

func (m *mailRecorder) SendWelcome(to string, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.welcomes = append(m.welcomes, to)
	return nil
}

func (m *mailRecorder) SendActivation(to string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activations = append(m.activations, token)
	return nil
}

func (m *mailRecorder) SendRecovery(to string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoveries = append(m.recoveries, token)
	return nil
}

func (m *mailRecorder) Welcomes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.welcomes...)
}

func (m *mailRecorder) Activations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.activations...)
}

func (m *mailRecorder) Recoveries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.recoveries...)
}
