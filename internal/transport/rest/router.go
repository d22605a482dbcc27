package rest

import (
	"net/http"

	"livepoll/internal/cache"
	"livepoll/internal/model"
	"livepoll/internal/service"
	"livepoll/internal/transport/rest/handler"
	"livepoll/internal/transport/rest/middleware"
	"livepoll/internal/transport/ws"

	_ "livepoll/docs"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService      *service.AuthService
	SessionService   *service.SessionService
	QuestionService  *service.QuestionService
	AnonymousService *service.AnonymousService
	Tokens           *cache.TokenCache
	WSHub            *ws.Hub
	CORSOrigin       string
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	questionHandler := handler.NewQuestionHandler(c.QuestionService)
	anonymousHandler := handler.NewAnonymousHandler(c.SessionService, c.AnonymousService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Tokens, c.CORSOrigin)

	authMW := middleware.NewAuthMiddleware(c.AuthService, c.Tokens)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.CORSOrigin))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")
	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/register", authHandler.Register).Methods("POST", "OPTIONS")
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/anonymous/session/{code}", anonymousHandler.Session).Methods("GET", "OPTIONS")
	v1.HandleFunc("/anonymous/join", anonymousHandler.Join).Methods("POST", "OPTIONS")

	// WebSocket routes (token in query param or Authorization header)
	v1.HandleFunc("/ws/staff", wsHandler.StaffWS).Methods("GET")
	v1.HandleFunc("/ws/audience", wsHandler.AudienceWS).Methods("GET")

	// Staff routes
	staff := v1.NewRoute().Subrouter()
	staff.Use(authMW.RequireStaff, middleware.RequireRole(model.RolePresenter, model.RoleAdmin))

	staff.HandleFunc("/auth/profile", authHandler.Profile).Methods("GET", "OPTIONS")
	staff.HandleFunc("/auth/change-password", authHandler.ChangePassword).Methods("POST", "OPTIONS")

	staff.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	staff.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	staff.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	staff.HandleFunc("/sessions/{id}", sessionHandler.Update).Methods("PUT", "OPTIONS")
	staff.HandleFunc("/sessions/{id}/select-question", sessionHandler.SelectQuestion).Methods("PUT", "OPTIONS")

	staff.HandleFunc("/questions", questionHandler.Create).Methods("POST", "OPTIONS")
	staff.HandleFunc("/questions/session/{sessionId}", questionHandler.ListBySession).Methods("GET", "OPTIONS")
	staff.HandleFunc("/questions/{id}", questionHandler.Get).Methods("GET", "OPTIONS")
	staff.HandleFunc("/questions/{id}", questionHandler.Update).Methods("PUT", "OPTIONS")
	staff.HandleFunc("/questions/{id}", questionHandler.Delete).Methods("DELETE", "OPTIONS")
	staff.HandleFunc("/questions/{id}/close", questionHandler.Close).Methods("PUT", "OPTIONS")
	staff.HandleFunc("/questions/{id}/cancel-close", questionHandler.CancelClose).Methods("PUT", "OPTIONS")
	staff.HandleFunc("/questions/{id}/reopen", questionHandler.Reopen).Methods("PUT", "OPTIONS")

	staff.HandleFunc("/responses/question/{questionId}", questionHandler.ListResponses).Methods("GET", "OPTIONS")

	// Anonymous participant routes
	audience := v1.NewRoute().Subrouter()
	audience.Use(authMW.RequireAnonymous)

	audience.HandleFunc("/anonymous/response", anonymousHandler.Respond).Methods("POST", "OPTIONS")
	audience.HandleFunc("/anonymous/my-response/{questionId}", anonymousHandler.MyResponse).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(origin string) mux.MiddlewareFunc {
	if origin == "" {
		origin = "*"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.AnonymousTokenHeader)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
