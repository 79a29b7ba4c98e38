package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"academic-erp/pkg/database"
	"academic-erp/pkg/models"
	"academic-erp/pkg/utils"
)

// ContextKey is the type for values stored in the request context.
type ContextKey string

const (
	// EmployeeContextKey holds the authenticated *models.Employee.
	EmployeeContextKey ContextKey = "employee"
)

// Fixed denial messages surfaced to clients.
const (
	MsgNotEmployee = "Access denied. Only registered employees can access this system."
	MsgNotOutreach = "Access denied. Only Outreach department employees can access Organisation operations."
)

// Auth validates the bearer token, resolves the employee record and stores it
// in the request context. Requests without a registered employee are rejected.
func Auth(jwtService *utils.JWTService, store database.Store, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.WriteUnauthorized(w, "Missing authorization header")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				utils.WriteUnauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtService.ValidateToken(tokenString)
			if err != nil {
				log.Debug("token rejected", zap.Error(err))
				utils.WriteUnauthorized(w, "Invalid token")
				return
			}

			employee, err := store.GetEmployeeByEmail(claims.Email)
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					utils.WriteForbidden(w, MsgNotEmployee)
					return
				}
				log.Error("employee lookup failed", zap.String("email", claims.Email), zap.Error(err))
				utils.WriteInternalServerError(w, "Failed to resolve employee")
				return
			}

			ctx := context.WithValue(r.Context(), EmployeeContextKey, employee)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOutreach gates a route group on Outreach department membership. It
// must run after Auth.
func RequireOutreach(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		employee, err := RequireEmployee(r.Context())
		if err != nil {
			utils.WriteUnauthorized(w, "Authentication required")
			return
		}
		if !employee.IsOutreach() {
			utils.WriteForbidden(w, MsgNotOutreach)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetEmployeeFromContext returns the authenticated employee, if any.
func GetEmployeeFromContext(ctx context.Context) (*models.Employee, bool) {
	employee, ok := ctx.Value(EmployeeContextKey).(*models.Employee)
	return employee, ok
}

// RequireEmployee returns the authenticated employee or an error.
func RequireEmployee(ctx context.Context) (*models.Employee, error) {
	employee, ok := GetEmployeeFromContext(ctx)
	if !ok || employee == nil {
		return nil, fmt.Errorf("employee not authenticated")
	}
	return employee, nil
}
