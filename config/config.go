package config

import "time"

type Config struct {
	Web    Web
	Cors   Cors
	DB     DB
	Email  Email
	Auth   Auth
	Oauth  Oauth
	Paypal Paypal
	Stripe Stripe
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:8000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

type Cors struct {
	Origin string `conf:"default:http://localhost:3000"`
}

type DB struct {
	User         string        `conf:"default:postgres"`
	Password     string        `conf:"default:postgres,mask"`
	Host         string        `conf:"default:localhost:5432"`
	Name         string        `conf:"default:learnmarket"`
	MaxOpen      int           `conf:"default:25"`
	DisableTLS   bool          `conf:"default:true"`
	ReadyTimeout time.Duration `conf:"default:30s"`
}

type Email struct {
	Host          string        `conf:"default:localhost"`
	Port          string        `conf:"default:1025"`
	Address       string        `conf:"default:noreply@learnmarket.dev"`
	Password      string        `conf:"mask"`
	ActivationURL string        `conf:"default:http://localhost:3000/activate"`
	RecoveryURL   string        `conf:"default:http://localhost:3000/recover"`
	TokenTimeout  time.Duration `conf:"default:15m"`
}

type Auth struct {
	ActivationRequired bool `conf:"default:false"`
}

type Oauth struct {
	DiscoveryTimeout time.Duration `conf:"default:30s"`
	LoginRedirectURL string        `conf:"default:http://localhost:3000/login/done"`
	Google           OauthProvider
}

type OauthProvider struct {
	Client      string
	Secret      string `conf:"mask"`
	URL         string `conf:"default:https://accounts.google.com"`
	RedirectURL string `conf:"default:http://localhost:8000/auth/oauth-callback/google"`
}

type Paypal struct {
	ClientID string
	Secret   string `conf:"mask"`
	URL      string `conf:"default:https://api.sandbox.paypal.com"`
}

type Stripe struct {
	APISecret     string `conf:"mask"`
	WebhookSecret string `conf:"mask"`
	SuccessURL    string `conf:"default:http://localhost:3000/checkout/success"`
	CancelURL     string `conf:"default:http://localhost:3000/cart"`
}
