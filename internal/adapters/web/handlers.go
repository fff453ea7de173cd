package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"billing-service/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	log       *zap.Logger
	validate  *validator.Validate
	jwtSecret string
}

// Options configures NewHandler.
type Options struct {
	AllowedOrigins []string
	JWTSecret      string
	Logger         *zap.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	h := &Handler{
		svc:       svc,
		log:       log.Named("web"),
		validate:  newValidator(),
		jwtSecret: opts.JWTSecret,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(h.log))
	r.Use(Recoverer(h.log))
	r.Use(CORS(opts.AllowedOrigins))

	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(maxBodyBytes))

		r.Post("/api/totals/preview", h.previewTotals)

		r.Get("/api/documents", h.listDocuments)
		r.Post("/api/documents", h.createDocument)
		r.Get("/api/documents/export", h.exportDocuments)
		r.Get("/api/documents/{id}", h.getDocument)
		r.Put("/api/documents/{id}", h.updateDocument)
		r.Delete("/api/documents/{id}", h.deleteDocument)
		r.Post("/api/documents/{id}/finalize", h.finalizeDocument)
		r.Post("/api/documents/{id}/transition", h.transitionDocument)
		r.Post("/api/documents/{id}/payments", h.recordPayment)
		r.Post("/api/documents/{id}/events", h.recordDelivery)

		r.Get("/api/sync", h.pendingCount)
		r.Post("/api/sync", h.reconcile)

		r.Get("/api/clients", h.listClients)
		r.Post("/api/clients", h.createClient)
		r.Put("/api/clients/{id}", h.updateClient)
		r.Delete("/api/clients/{id}", h.deleteClient)

		r.Post("/api/ai/price", h.suggestPrice)
		r.Post("/api/ai/description", h.suggestDescription)
		r.Post("/api/ai/discount", h.suggestDiscount)

		r.Get("/api/audit", h.listAudit)
	})

	h.router = r
	return r
}

// health reports liveness; it never touches storage.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// newValidator registers decimal.Decimal as a numeric type so tags like gt=0
// work on money fields.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON decodes and validates the request body into v. It returns false
// after writing the error response: 413 when the body exceeds the limit, 400
// for malformed JSON or failed field validation.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, r, validationMessage(err), "VALIDATION", http.StatusBadRequest)
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		// Namespace is "body.items[0].quantity"; drop the struct name.
		_, field, ok := strings.Cut(fe.Namespace(), ".")
		if !ok {
			field = fe.Field()
		}
		if fe.Param() != "" {
			parts = append(parts, field+": "+fe.Tag()+"="+fe.Param())
		} else {
			parts = append(parts, field+": "+fe.Tag())
		}
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

// queryLimit parses ?limit=, falling back to def.
func queryLimit(r *http.Request, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
