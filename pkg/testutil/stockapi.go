package testutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mattressworks/stockboard/internal/stock/domain"
	"github.com/mattressworks/stockboard/pkg/errors"
	"github.com/mattressworks/stockboard/pkg/httputil"
)

// RecordedRequest is a request received by the fake stock API
type RecordedRequest struct {
	Method         string
	Path           string
	Authorization  string
	RequestID      string
	IdempotencyKey string
	Body           []byte
}

// FakeStockAPI is an in-memory stand-in for the remote stock API, served over httptest.
// It speaks the same {"success","data","error"} envelope as the real service.
type FakeStockAPI struct {
	Server *httptest.Server

	mu           sync.Mutex
	materials    []domain.Material
	products     []domain.Product
	groups       []domain.StockGroup
	transactions []domain.Transaction
	failures     []int
	requests     []RecordedRequest
	seq          int
}

// NewFakeStockAPI starts a fake stock API that is closed when the test ends
func NewFakeStockAPI(t *testing.T) *FakeStockAPI {
	t.Helper()

	f := &FakeStockAPI{}

	r := chi.NewRouter()
	r.Use(f.record)
	r.Use(f.injectFailures)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stock", f.listMaterials)
		r.Post("/stock", f.createMaterial)
		r.Post("/stock/{id}/add", f.adjust(domain.TransactionAdd))
		r.Post("/stock/{id}/subtract", f.adjust(domain.TransactionSubtract))
		r.Post("/stock/{id}/defects", f.adjust(domain.TransactionDefect))
		r.Delete("/stock/{id}", f.deleteMaterial)
		r.Get("/groups", f.listGroups)
		r.Get("/products", f.listProducts)
		r.Post("/products", f.createProduct)
		r.Put("/products/{id}/materials", f.alterMaterials)
		r.Post("/products/{id}/produce", f.produce)
		r.Get("/transactions", f.listTransactions)
	})

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)

	return f
}

// URL returns the base URL of the fake
func (f *FakeStockAPI) URL() string {
	return f.Server.URL
}

// Load replaces the fake's catalogue
func (f *FakeStockAPI) Load(materials []domain.Material, products []domain.Product, groups []domain.StockGroup) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.materials = append([]domain.Material(nil), materials...)
	f.products = append([]domain.Product(nil), products...)
	f.groups = append([]domain.StockGroup(nil), groups...)
}

// LoadScenario loads a MattressScenario
func (f *FakeStockAPI) LoadScenario(s MattressScenario) {
	f.Load(s.Materials(), s.Products(), s.Groups())
}

// SetTransactions replaces the transaction history
func (f *FakeStockAPI) SetTransactions(txs []domain.Transaction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions = append([]domain.Transaction(nil), txs...)
}

// Material returns the current state of a material
func (f *FakeStockAPI) Material(id string) (domain.Material, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.materialIndex(id)
	if i < 0 {
		return domain.Material{}, false
	}
	return f.materials[i], true
}

// FailNext makes the next len(statuses) requests fail with the given status codes
func (f *FakeStockAPI) FailNext(statuses ...int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, statuses...)
}

// Requests returns every request received so far
func (f *FakeStockAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// RequestCount returns how many requests matched method and path
func (f *FakeStockAPI) RequestCount(method, path string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *FakeStockAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:         r.Method,
			Path:           r.URL.Path,
			Authorization:  r.Header.Get("Authorization"),
			RequestID:      r.Header.Get(httputil.RequestIDHeader),
			IdempotencyKey: r.Header.Get("Idempotency-Key"),
			Body:           body,
		})
		f.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (f *FakeStockAPI) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		status := 0
		if len(f.failures) > 0 {
			status = f.failures[0]
			f.failures = f.failures[1:]
		}
		f.mu.Unlock()

		if status != 0 {
			httputil.Error(w, errors.New("INJECTED", fmt.Sprintf("injected failure %d", status), status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeStockAPI) listMaterials(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	httputil.JSON(w, http.StatusOK, append([]domain.Material{}, f.materials...))
}

func (f *FakeStockAPI) createMaterial(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMaterialRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.materials {
		if m.Name == req.Name {
			httputil.Error(w, errors.Conflict("material "+req.Name+" already exists"))
			return
		}
	}

	material := domain.Material{
		ID:            f.nextID("m"),
		Name:          req.Name,
		Unit:          req.Unit,
		CostPerUnit:   req.CostPerUnit,
		Available:     req.Available,
		MinStockLimit: req.MinStockLimit,
		GroupID:       req.GroupID,
	}
	f.materials = append(f.materials, material)
	f.appendTransaction(material, domain.TransactionCreate, req.Available, "")

	httputil.Created(w, material)
}

func (f *FakeStockAPI) adjust(kind domain.TransactionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.QuantityRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		i := f.materialIndex(chi.URLParam(r, "id"))
		if i < 0 {
			httputil.Error(w, errors.NotFound("material"))
			return
		}

		m := &f.materials[i]
		switch kind {
		case domain.TransactionAdd:
			m.Available += req.Quantity
		case domain.TransactionSubtract, domain.TransactionDefect:
			if req.Quantity > m.Available {
				httputil.Error(w, errors.Conflict("insufficient stock"))
				return
			}
			m.Available -= req.Quantity
			if kind == domain.TransactionDefect {
				defective := m.Defective() + req.Quantity
				m.DefectiveQuantity = &defective
			}
		}
		f.appendTransaction(*m, kind, req.Quantity, req.Note)

		httputil.JSON(w, http.StatusOK, *m)
	}
}

func (f *FakeStockAPI) deleteMaterial(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.materialIndex(chi.URLParam(r, "id"))
	if i < 0 {
		httputil.Error(w, errors.NotFound("material"))
		return
	}
	removed := f.materials[i]
	f.materials = append(f.materials[:i], f.materials[i+1:]...)
	f.appendTransaction(removed, domain.TransactionDelete, removed.Available, "")

	httputil.NoContent(w)
}

func (f *FakeStockAPI) listGroups(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	httputil.JSON(w, http.StatusOK, append([]domain.StockGroup{}, f.groups...))
}

func (f *FakeStockAPI) listProducts(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	httputil.JSON(w, http.StatusOK, append([]domain.Product{}, f.products...))
}

func (f *FakeStockAPI) createProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	product := domain.Product{
		ID:         f.nextID("p"),
		Name:       req.Name,
		Dimensions: req.Dimensions,
		Materials:  f.requirements(req.Materials),
	}
	f.products = append(f.products, product)

	httputil.Created(w, product)
}

func (f *FakeStockAPI) alterMaterials(w http.ResponseWriter, r *http.Request) {
	var req domain.AlterMaterialsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.productIndex(chi.URLParam(r, "id"))
	if i < 0 {
		httputil.Error(w, errors.NotFound("product"))
		return
	}
	f.products[i].Materials = f.requirements(req.Materials)

	httputil.JSON(w, http.StatusOK, f.products[i])
}

func (f *FakeStockAPI) produce(w http.ResponseWriter, r *http.Request) {
	var req domain.ProduceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.productIndex(chi.URLParam(r, "id"))
	if i < 0 {
		httputil.Error(w, errors.NotFound("product"))
		return
	}

	product := f.products[i]
	for _, line := range product.Materials {
		j := f.materialIndex(line.MaterialID)
		if j < 0 || f.materials[j].Available < line.Quantity*float64(req.Units) {
			httputil.Error(w, errors.Conflict("insufficient stock for "+line.MaterialID))
			return
		}
	}
	for _, line := range product.Materials {
		j := f.materialIndex(line.MaterialID)
		used := line.Quantity * float64(req.Units)
		f.materials[j].Available -= used
		f.appendTransaction(f.materials[j], domain.TransactionProduce, used, product.Name)
	}

	httputil.JSON(w, http.StatusOK, map[string]interface{}{"product_id": product.ID, "units": req.Units})
}

func (f *FakeStockAPI) listTransactions(w http.ResponseWriter, r *http.Request) {
	materialID := r.URL.Query().Get("material_id")

	f.mu.Lock()
	defer f.mu.Unlock()

	txs := make([]domain.Transaction, 0, len(f.transactions))
	for _, tx := range f.transactions {
		if materialID != "" && tx.MaterialID != materialID {
			continue
		}
		txs = append(txs, tx)
	}
	httputil.JSON(w, http.StatusOK, txs)
}

func (f *FakeStockAPI) requirements(inputs []domain.RequirementInput) []domain.Requirement {
	reqs := make([]domain.Requirement, 0, len(inputs))
	for _, in := range inputs {
		name := ""
		if j := f.materialIndex(in.MaterialID); j >= 0 {
			name = f.materials[j].Name
		}
		reqs = append(reqs, domain.Requirement{MaterialID: in.MaterialID, Name: name, Quantity: in.Quantity})
	}
	return reqs
}

func (f *FakeStockAPI) appendTransaction(m domain.Material, kind domain.TransactionKind, quantity float64, note string) {
	f.transactions = append(f.transactions, domain.Transaction{
		ID:           f.nextID("t"),
		MaterialID:   m.ID,
		MaterialName: m.Name,
		Kind:         kind,
		Quantity:     quantity,
		Note:         note,
		CreatedAt:    time.Now().UTC(),
	})
}

func (f *FakeStockAPI) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *FakeStockAPI) materialIndex(id string) int {
	for i, m := range f.materials {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (f *FakeStockAPI) productIndex(id string) int {
	for i, p := range f.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
