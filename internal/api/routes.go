// Package api binds the HTTP route surface of the restaurant service to its
// guards and handlers.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/restaurant/internal/authz"
	"github.com/vyrodovalexey/restaurant/internal/health"
	"github.com/vyrodovalexey/restaurant/internal/observability"
	"github.com/vyrodovalexey/restaurant/internal/payment"
	"github.com/vyrodovalexey/restaurant/internal/resource"
)

// Banner is the body of GET /.
const Banner = "LIGHT TEST RESTAURANTS IS RUNNING! "

// Route is one entry of the route table.
type Route struct {
	Method string
	Path   string

	// Authenticated routes pass through the gate, which verifies the bearer
	// token and then runs Guards in order. Guards are ignored on open routes.
	Authenticated bool
	Guards        []authz.Guard

	Handler gin.HandlerFunc
}

// Deps are the components the routes dispatch to.
type Deps struct {
	Gate      *authz.Gate
	Issuer    *authz.Issuer
	Resources *resource.Handler
	Payments  *payment.Facade
}

// Routes returns the route table.
//
// Promote-to-admin, delete-account, menu update and delete and payment
// intent creation are open access. Gating them changes who can call them,
// so it is left to deployment policy rather than decided here.
func Routes(d Deps) []Route {
	gate := d.Gate
	res := d.Resources

	return []Route{
		{Method: http.MethodPost, Path: "/jwt", Handler: d.Issuer.Handle},

		{Method: http.MethodGet, Path: "/users", Authenticated: true, Guards: []authz.Guard{gate.RequireAdmin()}, Handler: res.ListAccounts},
		{Method: http.MethodGet, Path: "/user/admin/:email", Authenticated: true, Guards: []authz.Guard{gate.RequireSelf("email")}, Handler: res.AdminStatus},
		{Method: http.MethodPost, Path: "/create-users", Handler: res.CreateAccount},
		// open access
		{Method: http.MethodPatch, Path: "/user/admin/:id", Handler: res.PromoteAccount},
		// open access
		{Method: http.MethodDelete, Path: "/users/:id", Handler: res.DeleteAccount},

		{Method: http.MethodGet, Path: "/carts", Handler: res.ListCarts},
		{Method: http.MethodPost, Path: "/carts", Handler: res.CreateCartItem},
		{Method: http.MethodDelete, Path: "/carts/:id", Handler: res.DeleteCartItem},

		{Method: http.MethodGet, Path: "/api/v1/menu-read", Handler: res.ListMenu},
		{Method: http.MethodGet, Path: "/menu/:id", Handler: res.GetMenuItem},
		{Method: http.MethodPost, Path: "/menu", Authenticated: true, Guards: []authz.Guard{gate.RequireAdmin()}, Handler: res.CreateMenuItem},
		// open access
		{Method: http.MethodPatch, Path: "/menu/:id", Handler: res.UpdateMenuItem},
		// open access
		{Method: http.MethodDelete, Path: "/menu/:id", Handler: res.DeleteMenuItem},

		{Method: http.MethodGet, Path: "/reviews", Handler: res.ListReviews},

		// open access
		{Method: http.MethodPost, Path: "/create-payment-intent", Handler: payment.Handler(d.Payments)},
	}
}

// Register adds routes to r. Authenticated routes are prefixed with the
// gate's Protect handler.
func Register(r gin.IRoutes, gate *authz.Gate, routes []Route) {
	for _, rt := range routes {
		handlers := make([]gin.HandlerFunc, 0, 2)
		if rt.Authenticated {
			handlers = append(handlers, gate.Protect(rt.Guards...))
		}
		handlers = append(handlers, rt.Handler)
		r.Handle(rt.Method, rt.Path, handlers...)
	}
}

// Options configures the service endpoints mounted next to the route table.
type Options struct {
	Health      *health.Checker
	Metrics     *observability.Metrics
	MetricsPath string
}

// Mount registers the banner, the route table and, when configured, the
// health and metrics endpoints.
func Mount(r gin.IRoutes, d Deps, opts Options) {
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, Banner)
	})

	Register(r, d.Gate, Routes(d))

	if opts.Health != nil {
		opts.Health.RegisterRoutes(r)
	}
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(opts.Metrics.Handler()))
	}
}
