package mockapi

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type envelope struct {
	Data    json.RawMessage     `json:"data"`
	Errors  map[string][]string `json:"errors"`
	Message string              `json:"message"`
	Success bool                `json:"success"`
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var env envelope
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v body=%s", err, w.Body.String())
		}
	}
	return w, env
}

func TestCreateComputesTotals(t *testing.T) {
	h := New(nil).Handler()
	w, env := do(t, h, http.MethodPost, "/rfqs",
		`{"vendor_id":2,"state":1,"items":[{"id":2,"type":"component","description":"Oak","qty":2,"unit_price":1000,"tax":10}]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var doc struct {
		ID        int     `json:"id"`
		Name      string  `json:"name"`
		PartyName string  `json:"party_name"`
		Untaxed   float64 `json:"untaxed"`
		Tax       float64 `json:"tax"`
		Total     float64 `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &doc); err != nil {
		t.Fatalf("decode doc: %v", err)
	}
	if doc.Untaxed != 2000 || doc.Tax != 200 || doc.Total != 2200 {
		t.Fatalf("expected 2000/200/2200 got %v/%v/%v", doc.Untaxed, doc.Tax, doc.Total)
	}
	if doc.PartyName != "Wood Corner" {
		t.Fatalf("expected party name Wood Corner got %q", doc.PartyName)
	}
	if doc.Name == "" {
		t.Fatalf("expected a reference")
	}
}

func TestUpdateMissingComponentIs422(t *testing.T) {
	h := New(nil).Handler()
	w, env := do(t, h, http.MethodPut, "/rfqs/1",
		`{"vendor_id":1,"state":1,"items":[{"id":null,"type":"component","qty":1,"unit_price":5,"tax":0}]}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d body=%s", w.Code, w.Body.String())
	}
	if got := env.Errors["items.0.id"]; len(got) != 1 || got[0] != "required" {
		t.Fatalf("expected items.0.id required got %v", env.Errors)
	}

	// the stored document is untouched
	_, env = do(t, h, http.MethodGet, "/rfqs/1", "")
	if !bytes.Contains(env.Data, []byte(`"Steel bolt M8"`)) {
		t.Fatalf("expected original lines kept, got %s", env.Data)
	}
}

func TestListFiltersByState(t *testing.T) {
	h := New(nil).Handler()
	w, _ := do(t, h, http.MethodPut, "/rfqs/1", `{"state":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	_, env := do(t, h, http.MethodGet, "/rfqs?state=1,2,4", "")
	var drafts []map[string]interface{}
	_ = json.Unmarshal(env.Data, &drafts)
	if len(drafts) != 0 {
		t.Fatalf("expected no RFQs got %d", len(drafts))
	}

	_, env = do(t, h, http.MethodGet, "/rfqs?state=3", "")
	var orders []map[string]interface{}
	_ = json.Unmarshal(env.Data, &orders)
	if len(orders) != 1 {
		t.Fatalf("expected 1 purchase order got %d", len(orders))
	}

	_, env = do(t, h, http.MethodGet, "/receipts?rfq_id=1", "")
	var receipts []receipt
	_ = json.Unmarshal(env.Data, &receipts)
	if len(receipts) != 1 {
		t.Fatalf("expected a receipt after confirmation got %d", len(receipts))
	}
}

func TestDeleteOnlyDrafts(t *testing.T) {
	h := New(nil).Handler()
	do(t, h, http.MethodPut, "/rfqs/1", `{"state":3}`)
	w, _ := do(t, h, http.MethodDelete, "/rfqs/1", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", w.Code)
	}
	w, _ = do(t, h, http.MethodDelete, "/rfqs/99", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", w.Code)
	}
}

func TestPaymentMarksInvoicePaid(t *testing.T) {
	h := New(nil).Handler()
	w, env := do(t, h, http.MethodPost, "/invoices",
		`{"type":"invoice","customer_id":1,"state":1,"items":[{"id":1,"type":"component","qty":1,"unit_price":100,"tax":0}]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	var created struct {
		ID int `json:"id"`
	}
	_ = json.Unmarshal(env.Data, &created)

	w, env = do(t, h, http.MethodPost, "/register-payments", `{"invoice_id":1,"amount":100,"payment_date":"2026-01-01"}`)
	if w.Code != http.StatusUnprocessableEntity || len(env.Errors["invoice_id"]) == 0 {
		t.Fatalf("expected draft invoice rejected got %d %v", w.Code, env.Errors)
	}

	do(t, h, http.MethodPut, "/invoices/1", `{"state":2}`)
	w, env = do(t, h, http.MethodPost, "/register-payments", `{"invoice_id":1,"amount":40,"payment_date":"2026-01-01"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
	if !bytes.Contains(env.Data, []byte(`"payment_status":1`)) {
		t.Fatalf("expected partial payment to keep invoice unpaid, got %s", env.Data)
	}
	_, env = do(t, h, http.MethodPost, "/register-payments", `{"invoice_id":1,"amount":60,"payment_date":"2026-01-02"}`)
	if !bytes.Contains(env.Data, []byte(`"payment_status":2`)) {
		t.Fatalf("expected invoice paid, got %s", env.Data)
	}
}

func TestUploadImage(t *testing.T) {
	s := New(nil)
	h := s.Handler()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var pngData bytes.Buffer
	if err := png.Encode(&pngData, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("image", "dot.png")
	part.Write(pngData.Bytes())
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload-images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", w.Code, w.Body.String())
	}
	if s.ImageCount() != 1 {
		t.Fatalf("expected 1 stored image got %d", s.ImageCount())
	}
	if !strings.Contains(w.Body.String(), "/images/") {
		t.Fatalf("expected image url in %s", w.Body.String())
	}
}
