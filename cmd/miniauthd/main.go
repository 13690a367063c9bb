// Command miniauthd hosts the authentication endpoints on a gorilla/mux
// router, backed by Postgres through GORM.
package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/webak/miniauth"
	moauth2 "github.com/webak/miniauth/oauth2"
	gormstores "github.com/webak/miniauth/stores/gorm"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := miniauth.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := gormstores.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	hasher := miniauth.NewHasher(cfg.Salt, cfg.PBKDF2Iterations)
	users := gormstores.NewUserStore(db)
	sessions := gormstores.NewSessionStore(db)

	auth := &miniauth.Authenticator{
		Hasher:   hasher,
		Users:    users,
		Sessions: sessions,
		Logger:   logger,
	}

	sessionCookie := miniauth.SessionCookie{
		Insecure: cfg.CookieInsecure,
		TTL:      cfg.SessionTTL,
	}

	var sender miniauth.EmailSender = &miniauth.ConsoleEmailSender{}
	if cfg.SMTPHost != "" {
		sender = &miniauth.SMTPEmailSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}
	}

	google := moauth2.NewGoogle(
		cfg.GoogleClientID,
		cfg.GoogleClientSecret,
		cfg.GoogleRedirectURL,
		auth.OAuthUserHandler(sessionCookie, "/dashboard", "/login"),
	)
	google.CookieInsecure = cfg.CookieInsecure
	google.Logger = logger

	local := &miniauth.LocalAuth{
		Auth:       auth,
		Cookie:     sessionCookie,
		SuccessURL: "/dashboard",
		AuthURL:    google.AuthURL,
	}

	otp := &miniauth.OTPChallenge{
		Hasher:         hasher,
		Email:          sender,
		CookieTTL:      cfg.OTPTTL,
		CookieInsecure: cfg.CookieInsecure,
		Logger:         logger,
	}

	signup := &miniauth.Signup{
		Hasher: hasher,
		Users:  users,
		Logger: logger,
	}

	tokens := &miniauth.TokenIssuer{
		Auth:      auth,
		SecretKey: cfg.JWTSecretKey,
		Issuer:    cfg.JWTIssuer,
		Cookie:    sessionCookie,
	}

	mw := &miniauth.Middleware{
		Auth:        auth,
		Cookie:      sessionCookie,
		VerifyToken: tokens.Verify,
	}

	r := mux.NewRouter()
	r.Handle("/login", local).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/logout", local.HandleLogout).Methods(http.MethodGet)
	r.HandleFunc("/auth/google", google.HandleCallback).Methods(http.MethodGet)
	r.Handle("/auth/otp", otp).Methods(http.MethodGet, http.MethodPost)
	r.Handle("/signup", signup).Methods(http.MethodPost)
	r.Handle("/api/token", tokens).Methods(http.MethodPost)

	r.Handle("/dashboard", mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		user, _ := miniauth.UserFromContext(req.Context())
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("Welcome, " + user.Username + "\n"))
	}))).Methods(http.MethodGet)

	logger.Info("listening", "addr", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, r); err != nil {
		log.Fatal(err)
	}
}
