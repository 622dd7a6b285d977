package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"billingDesk/models"
	"billingDesk/services"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	ps     services.ProductService
	bs     services.BillingService
	cs     services.CustomerService
	rs     services.ReportService
	logger *zap.Logger
}

type HandlerParams struct {
	PrdService services.ProductService
	BilService services.BillingService
	CusService services.CustomerService
	RepService services.ReportService
	Logger     *zap.Logger
}

func NewHandler(params HandlerParams) *Handler {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		ps:     params.PrdService,
		bs:     params.BilService,
		cs:     params.CusService,
		rs:     params.RepService,
		logger: logger,
	}
}

// Register mounts every billing route on router.
func (h *Handler) Register(router *mux.Router) {
	router.Use(h.ErrorHandleMiddleware)
	router.Use(h.CSRFMiddleware)

	router.HandleFunc("/ping", h.Ping)
	router.HandleFunc("/search/products/", h.SearchProducts).Methods("GET")

	router.HandleFunc("/billing/", h.BillingPage).Methods("GET")
	router.HandleFunc("/billing/", h.CreateInvoice).Methods("POST")
	router.HandleFunc("/invoice/{id:[0-9]+}/print/", h.PrintInvoice).Methods("GET")

	router.HandleFunc("/products/", h.ListProducts).Methods("GET")
	router.HandleFunc("/products/", h.CreateProduct).Methods("POST")
	router.HandleFunc("/products/{id:[0-9]+}/", h.GetProduct).Methods("GET")
	router.HandleFunc("/products/{id:[0-9]+}/edit/", h.UpdateProduct).Methods("POST", "PUT")

	router.HandleFunc("/customers/", h.ListCustomers).Methods("GET")
	router.HandleFunc("/customers/", h.CreateCustomer).Methods("POST")
	router.HandleFunc("/customers/{id:[0-9]+}/history/", h.CustomerHistory).Methods("GET")

	router.HandleFunc("/", h.Dashboard).Methods("GET")
	router.HandleFunc("/dashboard/", h.Dashboard).Methods("GET")
	router.HandleFunc("/reports/", h.Reports).Methods("GET")
	router.HandleFunc("/reports/export/", h.ExportSalesReport).Methods("GET")
}

func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("pong"))
}

func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	res, err := h.ps.Search(r.Context(), query)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.SearchResponse{Results: res})
}

func (h *Handler) BillingPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.bs.BillingPage(r.Context())
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// CreateInvoice always answers with an InvoiceResponse so the billing page
// can show the server's message.
func (h *Handler) CreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req models.InvoiceRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.logger.Info("Unmarshal err", zap.Error(err))
		h.writeJSON(w, http.StatusBadRequest, models.InvoiceResponse{Success: false, Error: "invalid invoice payload"})
		return
	}

	saleId, err := h.bs.CreateSale(r.Context(), req)
	if err != nil {
		status, msg := errorStatus(err)
		if status == http.StatusBadRequest || status == http.StatusNotAcceptable {
			msg = err.Error()
		}
		h.writeJSON(w, status, models.InvoiceResponse{Success: false, Error: msg})
		return
	}
	h.writeJSON(w, http.StatusOK, models.InvoiceResponse{Success: true, SaleId: models.SaleID(strconv.FormatInt(saleId, 10))})
}

func (h *Handler) PrintInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathId(w, r)
	if !ok {
		return
	}

	invoice, err := h.bs.GetInvoice(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err = invoiceTemplate.Execute(w, invoice); err != nil {
		h.logger.Error("render invoice", zap.Int64("sale_id", id), zap.Error(err))
	}
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	prods, err := h.ps.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, prods)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req models.ProductRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.logger.Info("Unmarshal err", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id, err := h.ps.CreateProduct(r.Context(), req)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathId(w, r)
	if !ok {
		return
	}
	prod, err := h.ps.GetProduct(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, prod)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathId(w, r)
	if !ok {
		return
	}
	var req models.ProductRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.logger.Info("Unmarshal err", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err = h.ps.UpdateProduct(r.Context(), id, req); err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.cs.List(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.InvoiceCustomer
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.logger.Info("Unmarshal err", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	id, err := h.cs.CreateCustomer(r.Context(), req)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *Handler) CustomerHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathId(w, r)
	if !ok {
		return
	}
	history, err := h.cs.History(r.Context(), id)
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, history)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.rs.Dashboard(r.Context())
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, dash)
}

func (h *Handler) Reports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rep, err := h.rs.Reports(r.Context(), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		WriteErrorResponse(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rep)
}

// ExportSalesReport answers with the sales report as an xlsx attachment.
func (h *Handler) ExportSalesReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, end := q.Get("start_date"), q.Get("end_date")
	var buf bytes.Buffer
	if err := h.rs.ExportSales(r.Context(), start, end, &buf); err != nil {
		WriteErrorResponse(w, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+services.ExportFileName)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write sales report", zap.Error(err))
	}
}

func (h *Handler) pathId(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.logger.Info("bad id", zap.String("id", raw), zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Marshal err", zap.Error(err))
	}
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest, models.ErrBadRequest.Error()
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden, models.ErrForbidden.Error()
	case errors.Is(err, models.ErrNotFoundError):
		return http.StatusNotFound, models.ErrNotFoundError.Error()
	case errors.Is(err, models.ErrNotAllowed):
		return http.StatusNotAcceptable, models.ErrNotAllowed.Error()
	default:
		return http.StatusInternalServerError, models.ErrServerError.Error()
	}
}

func WriteErrorResponse(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	http.Error(w, msg, status)
}
