package httpx

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"net/http"
	"time"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// NewServer mounts the full route tree: public menu reads, user routes
// behind bearer auth, staff routes behind the role gate on top of that.
func NewServer(jwtSecret string, mh *MenuHandler, ch *CartHandler, oh *OrdersHandler) *chi.Mux {
	r := NewRouter()
	mh.Register(r)
	r.Group(func(pr chi.Router) {
		pr.Use(RequireUser(jwtSecret))
		ch.Register(pr)
		oh.Register(pr)
		pr.Group(func(sr chi.Router) {
			sr.Use(RequireStaff)
			mh.RegisterStaff(sr)
			oh.RegisterStaff(sr)
		})
	})
	return r
}
