package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/erazemk/lostfound/internal/events"
	"github.com/erazemk/lostfound/internal/media"
)

// Deps are the services the API handlers need.
type Deps struct {
	DB        *sql.DB
	JWTSecret string
	Media     *media.Store
	Events    events.Publisher
	// CORSOrigins enables CORS for the listed origins when non-empty.
	CORSOrigins []string
	// LoginLimiter throttles token requests per client address. A default
	// limiter is used when nil.
	LoginLimiter *IPLimiter
}

// NewRouter creates the HTTP handler with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.LoginLimiter == nil {
		d.LoginLimiter = NewIPLimiter(DefaultLoginRate, DefaultLoginBurst)
	}

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, Limiter: d.LoginLimiter}
	usersHandler := &UsersHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{DB: d.DB, Media: d.Media}
	tagsHandler := &TagsHandler{DB: d.DB}
	claimsHandler := &ClaimsHandler{DB: d.DB, Events: d.Events}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	superuser := func(h http.HandlerFunc) http.Handler { return authMW(RequireSuperuser(h)) }

	// Public: registration and token.
	mux.HandleFunc("POST /api/user/create/{$}", authHandler.Register)
	mux.HandleFunc("POST /api/user/token/{$}", authHandler.Token)

	// Own profile.
	mux.Handle("GET /api/user/me/{$}", authed(authHandler.Me))
	mux.Handle("PUT /api/user/me/{$}", authed(authHandler.UpdateMe))
	mux.Handle("PATCH /api/user/me/{$}", authed(authHandler.UpdateMe))
	mux.Handle("POST /api/user/logout/{$}", authed(authHandler.Logout))

	// Account administration.
	mux.Handle("GET /api/users/{$}", superuser(usersHandler.List))
	mux.Handle("PATCH /api/users/{id}/{$}", superuser(usersHandler.Update))
	mux.Handle("DELETE /api/users/{id}/{$}", superuser(usersHandler.Delete))

	// Items.
	mux.Handle("GET /api/items/{$}", authed(itemsHandler.List))
	mux.Handle("POST /api/items/{$}", authed(itemsHandler.Create))
	mux.Handle("GET /api/items/{id}/{$}", authed(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}/{$}", authed(itemsHandler.Update))
	mux.Handle("PATCH /api/items/{id}/{$}", authed(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}/{$}", authed(itemsHandler.Delete))
	mux.Handle("POST /api/items/{id}/upload-image/{$}", authed(itemsHandler.UploadImage))

	// Tags.
	mux.Handle("GET /api/tags/{$}", authed(tagsHandler.List))
	mux.Handle("POST /api/tags/{$}", authed(tagsHandler.Create))
	mux.Handle("GET /api/tags/{id}/{$}", authed(tagsHandler.Get))
	mux.Handle("PUT /api/tags/{id}/{$}", authed(tagsHandler.Update))
	mux.Handle("PATCH /api/tags/{id}/{$}", authed(tagsHandler.Update))
	mux.Handle("DELETE /api/tags/{id}/{$}", authed(tagsHandler.Delete))

	// Claims.
	mux.Handle("GET /api/claims/{$}", authed(claimsHandler.List))
	mux.Handle("POST /api/claims/{$}", authed(claimsHandler.Create))
	mux.Handle("GET /api/claims/{id}/{$}", authed(claimsHandler.Get))
	mux.Handle("PUT /api/claims/{id}/{$}", authed(claimsHandler.Update))
	mux.Handle("PATCH /api/claims/{id}/{$}", authed(claimsHandler.Update))
	mux.Handle("DELETE /api/claims/{id}/{$}", authed(claimsHandler.Delete))

	if d.Media != nil {
		mux.Handle("GET "+media.URLPrefix, d.Media.Handler())
	}

	var handler http.Handler = mux
	if len(d.CORSOrigins) > 0 {
		handler = cors.Handler(cors.Options{
			AllowedOrigins:   d.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		})(handler)
	}
	handler = middleware.Recoverer(handler)
	handler = LoggingMiddleware(handler)
	return middleware.RequestID(handler)
}
