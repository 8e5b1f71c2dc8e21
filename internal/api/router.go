package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/erazemk/carehub/internal/imaging"
	"github.com/erazemk/carehub/internal/model"
)

// Options configure NewRouter.
type Options struct {
	DB               *sql.DB
	JWTSecret        string
	TokenExpiry      time.Duration
	AllocationPolicy model.AllocationPolicy
	Photo            imaging.Options
	Logger           zerolog.Logger
}

// NewRouter creates the HTTP handler with all endpoints registered.
func NewRouter(opts Options) http.Handler {
	db := opts.DB
	if opts.AllocationPolicy == "" {
		opts.AllocationPolicy = model.AllocationReassign
	}

	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: opts.JWTSecret, TokenExpiry: opts.TokenExpiry}
	usersHandler := &UsersHandler{DB: db}
	volunteersHandler := &VolunteersHandler{DB: db}
	patientsHandler := &PatientsHandler{DB: db}
	proceduresHandler := &ProceduresHandler{DB: db}
	consumablesHandler := &ConsumablesHandler{DB: db}
	equipmentHandler := &EquipmentHandler{DB: db, Policy: opts.AllocationPolicy, Photo: opts.Photo}
	visitsHandler := &VisitsHandler{DB: db}
	meHandler := &MeHandler{DB: db}
	reportsHandler := &ReportsHandler{DB: db}

	authMW := AuthMiddleware(opts.JWTSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireCoordinator := RequireRole(model.RoleCoordinator)

	// authed is reachable by every logged-in user, staff by coordinators and admins.
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	staff := func(h http.HandlerFunc) http.Handler { return authMW(requireCoordinator(h)) }
	admin := func(h http.HandlerFunc) http.Handler { return authMW(requireAdmin(h)) }
	volunteer := func(h http.HandlerFunc) http.Handler { return authMW(RequireVolunteer(h)) }

	// Public.
	mux.HandleFunc("GET /healthz", healthz(db))
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Own account.
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Staff accounts (admin only).
	mux.Handle("GET /api/users", admin(usersHandler.List))
	mux.Handle("POST /api/users", admin(usersHandler.Create))
	mux.Handle("DELETE /api/users/{id}", admin(usersHandler.Delete))

	// Volunteers.
	mux.Handle("GET /api/volunteers", staff(volunteersHandler.List))
	mux.Handle("POST /api/volunteers", staff(volunteersHandler.Create))
	mux.Handle("GET /api/volunteers/{id}", staff(volunteersHandler.Get))
	mux.Handle("DELETE /api/volunteers/{id}", staff(volunteersHandler.Delete))

	// Patients: read (all roles), write (coordinator+).
	mux.Handle("GET /api/patients", authed(patientsHandler.List))
	mux.Handle("POST /api/patients", staff(patientsHandler.Create))
	mux.Handle("GET /api/patients/{id}", authed(patientsHandler.Get))
	mux.Handle("DELETE /api/patients/{id}", staff(patientsHandler.MarkDeceased))
	mux.Handle("PUT /api/patients/{id}/location", staff(patientsHandler.UpdateLocation))

	// Procedures: read (all roles), write (coordinator+).
	mux.Handle("GET /api/procedures", authed(proceduresHandler.List))
	mux.Handle("POST /api/procedures", staff(proceduresHandler.Create))
	mux.Handle("DELETE /api/procedures/{id}", staff(proceduresHandler.Delete))

	// Consumables: read (all roles), stock changes (coordinator+).
	mux.Handle("GET /api/consumables", authed(consumablesHandler.List))
	mux.Handle("POST /api/consumables", staff(consumablesHandler.Create))
	mux.Handle("GET /api/consumables/{id}", authed(consumablesHandler.Get))
	mux.Handle("DELETE /api/consumables/{id}", staff(consumablesHandler.Delete))
	mux.Handle("POST /api/consumables/{id}/debit", staff(consumablesHandler.Debit))
	mux.Handle("POST /api/consumables/{id}/credit", staff(consumablesHandler.Credit))

	// Equipment.
	mux.Handle("GET /api/equipment-types", staff(equipmentHandler.ListTypes))
	mux.Handle("POST /api/equipment-types", staff(equipmentHandler.CreateType))
	mux.Handle("GET /api/equipment", staff(equipmentHandler.List))
	mux.Handle("POST /api/equipment", staff(equipmentHandler.Create))
	mux.Handle("GET /api/equipment/{id}", staff(equipmentHandler.Get))
	mux.Handle("DELETE /api/equipment/{id}", staff(equipmentHandler.Delete))
	mux.Handle("POST /api/equipment/{id}/allocate", staff(equipmentHandler.Allocate))
	mux.Handle("POST /api/equipment/{id}/deallocate", staff(equipmentHandler.Deallocate))
	mux.Handle("PUT /api/equipment/{id}/image", staff(equipmentHandler.UploadImage))
	mux.Handle("GET /api/equipment/{id}/image", authed(equipmentHandler.GetImage))

	// Visits. Reports may come from staff or from the assigned volunteer.
	mux.Handle("POST /api/visits/assign", staff(visitsHandler.Assign))
	mux.Handle("GET /api/visits", staff(visitsHandler.List))
	mux.Handle("GET /api/visits/{id}", authed(visitsHandler.Get))
	mux.Handle("POST /api/visits/{id}/report", authed(visitsHandler.SubmitReport))

	// The calling volunteer's own view.
	mux.Handle("GET /api/me/visits/today", volunteer(meHandler.Today))
	mux.Handle("GET /api/me/visits/history", volunteer(meHandler.History))
	mux.Handle("GET /api/me/dashboard", volunteer(meHandler.Dashboard))

	// Aggregates.
	mux.Handle("GET /api/dashboard", staff(reportsHandler.Dashboard))
	mux.Handle("GET /api/reports/consumable-usage", staff(reportsHandler.ConsumableUsage))
	mux.Handle("GET /api/reports/new-patients", staff(reportsHandler.NewPatients))

	return LoggingMiddleware(opts.Logger)(Recoverer(mux))
}

func healthz(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
