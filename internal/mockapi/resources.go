package mockapi

import (
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleParties(list func() []party) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		ok(c, http.StatusOK, list())
	}
}

func renderComponent(m *component) gin.H {
	return gin.H{
		"id":          m.ID,
		"name":        m.Name,
		"description": m.Description,
		"price":       m.Price.InexactFloat64(),
		"image_url":   m.ImageURL,
	}
}

func (s *Server) handleComponents(set map[int]*component) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		ids := make([]int, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		rows := make([]gin.H, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, renderComponent(set[id]))
		}
		ok(c, http.StatusOK, rows)
	}
}

func (s *Server) handleComponent(set map[int]*component) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		id, _ := strconv.Atoi(c.Param("id"))
		m, found := set[id]
		if !found {
			fail(c, http.StatusNotFound, "component not found", nil)
			return
		}
		ok(c, http.StatusOK, renderComponent(m))
	}
}

func (s *Server) handleUpdateProduct(c *gin.Context) {
	var body struct {
		ImageURL *string `json:"image_url"`
		Name     *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := strconv.Atoi(c.Param("id"))
	p, found := s.products[id]
	if !found {
		fail(c, http.StatusNotFound, "product not found", nil)
		return
	}
	if body.ImageURL != nil {
		p.ImageURL = *body.ImageURL
	}
	if body.Name != nil && *body.Name != "" {
		p.Name = *body.Name
	}
	ok(c, http.StatusOK, renderComponent(p))
}

func (s *Server) handleUploadImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, "validation failed", map[string][]string{"image": {"required"}})
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if ct := http.DetectContentType(data); ct != "image/jpeg" && ct != "image/png" {
		fail(c, http.StatusUnprocessableEntity, "validation failed", map[string][]string{"image": {"unsupported image type"}})
		return
	}

	name := uuid.NewString() + ".jpg"
	s.mu.Lock()
	s.images[name] = data
	s.mu.Unlock()

	ok(c, http.StatusCreated, gin.H{"url": "http://" + c.Request.Host + "/images/" + name})
}

func (s *Server) handleImage(c *gin.Context) {
	s.mu.Lock()
	data, found := s.images[c.Param("name")]
	s.mu.Unlock()
	if !found {
		fail(c, http.StatusNotFound, "image not found", nil)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

func (s *Server) handleReceipts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rfqID, _ := strconv.Atoi(c.Query("rfq_id"))
	rows := make([]receipt, 0)
	for _, r := range s.receipts {
		if rfqID == 0 || r.RFQID == rfqID {
			rows = append(rows, r)
		}
	}
	ok(c, http.StatusOK, rows)
}

// ImageCount reports how many images were uploaded
func (s *Server) ImageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}
