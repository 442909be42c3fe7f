package controllers

import (
	"net/http"

	"go.uber.org/zap"

	"go-grocery/services"
)

// AdminController serves the admin dashboard
type AdminController struct {
	stats  *services.StatsService
	admin  *services.AdminService
	logger *zap.Logger
}

func NewAdminController(stats *services.StatsService, admin *services.AdminService, logger *zap.Logger) *AdminController {
	return &AdminController{stats: stats, admin: admin, logger: logger}
}

// GetStats returns store-wide counts and paid sales
func (ac *AdminController) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := ac.stats.Stats(r.Context())
	if err != nil {
		writeError(ac.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetUsers lists all accounts, newest first
func (ac *AdminController) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := ac.admin.Users(r.Context())
	if err != nil {
		writeError(ac.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetRecentOrders returns the latest orders with their customers
func (ac *AdminController) GetRecentOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := ac.admin.RecentOrders(r.Context())
	if err != nil {
		writeError(ac.logger, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// DeleteUser removes an account with its cart and orders
func (ac *AdminController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := ac.admin.DeleteUser(r.Context(), actor, id); err != nil {
		writeError(ac.logger, w, r, err)
		return
	}
	ac.logger.Info("user deleted", zap.String("user_id", id.Hex()), zap.String("by", actor.UserID.Hex()))
	writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
