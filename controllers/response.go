// Package controllers holds the HTTP handlers. They decode and validate
// requests, call the services and translate their errors.
package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"go-grocery/middleware"
	"go-grocery/models"
	"go-grocery/services"
	"go-grocery/utils"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

var kindStatus = map[services.Kind]int{
	services.KindNotFound:          http.StatusNotFound,
	services.KindInvalidArgument:   http.StatusBadRequest,
	services.KindInsufficientStock: http.StatusBadRequest,
	services.KindEmptyCart:         http.StatusBadRequest,
	services.KindUnauthorized:      http.StatusUnauthorized,
	services.KindForbidden:         http.StatusForbidden,
	services.KindConflict:          http.StatusConflict,
	services.KindInternal:          http.StatusInternalServerError,
}

func statusFor(kind services.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	utils.WriteJSON(w, status, v)
}

// writeError maps a service error onto a status and body. Internal
// errors are logged with their cause and answered generically.
func writeError(logger *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = &services.Error{Kind: services.KindInternal, Message: "internal error", Err: err}
	}

	body := utils.ErrorBody{Error: string(svcErr.Kind), Message: svcErr.Message}
	switch svcErr.Kind {
	case services.KindInternal:
		logger.Error("request failed",
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		body.Message = "internal error"
	case services.KindInsufficientStock:
		available := svcErr.Available
		body.Available = &available
	}
	utils.WriteError(w, statusFor(svcErr.Kind), body)
}

func badRequest(w http.ResponseWriter, message string, details ...utils.FieldDetail) {
	utils.WriteError(w, http.StatusBadRequest, utils.ErrorBody{
		Error:   string(services.KindInvalidArgument),
		Message: message,
		Details: details,
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be " + fe.Param() + " or more"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "email":
		return "must be a valid email"
	case "hexadecimal", "len":
		return "must be a valid id"
	default:
		return "is invalid"
	}
}

// decode reads a JSON body into dst and validates it. It writes the 400
// response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		badRequest(w, "Invalid input")
		return false
	}

	err := validate.Struct(dst)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		badRequest(w, "Invalid input")
		return false
	}
	details := make([]utils.FieldDetail, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.SplitN(fe.Namespace(), ".", 2)
		name := fe.Field()
		if len(field) == 2 {
			name = field[1]
		}
		details = append(details, utils.FieldDetail{Field: name, Message: fieldMessage(fe)})
	}
	badRequest(w, "Validation failed", details...)
	return false
}

// pathID parses the named route variable as an ObjectID.
func pathID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)[name])
	if err != nil {
		badRequest(w, "Invalid "+name)
		return primitive.NilObjectID, false
	}
	return id, true
}

// currentUser returns the authenticated caller.
func currentUser(w http.ResponseWriter, r *http.Request) (services.Actor, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, utils.ErrorBody{Error: string(services.KindUnauthorized), Message: "Unauthorized"})
		return services.Actor{}, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		utils.WriteError(w, http.StatusUnauthorized, utils.ErrorBody{Error: string(services.KindUnauthorized), Message: "Invalid token"})
		return services.Actor{}, false
	}
	return services.Actor{UserID: id, Admin: claims.Role == string(models.RoleAdmin)}, true
}
