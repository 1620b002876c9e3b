package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router thin wrapper over http.ServeMux
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
	r.Handle("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok("ok"))
	})
	return r
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) RegisterResidentRoutes(h *ResidentHandler) {
	r.HandleHandler(residentsPath, h)
	r.HandleHandler(residentsPath+"/", h)
}

func (r *Router) RegisterActivityLogRoutes(h *ActivityLogHandler) {
	r.HandleHandler(activityLogsPath, h)
	r.HandleHandler(activityLogsPath+"/", h)
}

func (r *Router) RegisterBenefitRoutes(h *BenefitHandler) {
	r.Handle(benefitsPath, h.ServeBenefits)
	r.Handle(benefitsPath+"/", h.ServeBenefits)
	r.Handle(programsPath+"/", h.ServePrograms)
}

func (r *Router) RegisterNotificationRoutes(h *NotificationHandler) {
	r.Handle("/api/v1/notifications", h.Feed)
	r.Handle("/api/v1/notices", h.Notices)
}
