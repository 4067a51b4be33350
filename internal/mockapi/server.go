// Package mockapi is an in-memory stand in for the ERP REST API. It
// mirrors the endpoints and envelopes the front end talks to so the TUI
// and the client can run without the real server.
package mockapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type party struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type component struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"-"`
	ImageURL    string          `json:"image_url"`
}

type receipt struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	RFQID         int    `json:"rfq_id"`
	ScheduledDate string `json:"scheduled_date"`
	State         string `json:"state"`
}

// Server holds the in-memory records
type Server struct {
	mu        sync.Mutex
	log       *logrus.Logger
	nextID    map[string]int
	vendors   []party
	customers []party
	materials map[int]*component
	products  map[int]*component
	documents map[string]map[int]*document // resource -> id -> document
	receipts  []receipt
	images    map[string][]byte
	paid      map[int]decimal.Decimal
	now       func() time.Time
}

// New returns a server seeded with a few parties, components and one draft RFQ
func New(logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	s := &Server{
		log:       logger,
		nextID:    make(map[string]int),
		materials: make(map[int]*component),
		products:  make(map[int]*component),
		documents: map[string]map[int]*document{
			resourceRFQs:     {},
			resourceSales:    {},
			resourceInvoices: {},
		},
		images: make(map[string][]byte),
		paid:   make(map[int]decimal.Decimal),
		now:    time.Now,
	}
	s.seed()
	return s
}

func (s *Server) seed() {
	s.vendors = []party{
		{ID: 1, Name: "Azure Interior", Email: "azure@example.com"},
		{ID: 2, Name: "Wood Corner", Email: "sales@woodcorner.example.com"},
	}
	s.customers = []party{
		{ID: 1, Name: "Deco Addict", Email: "deco@example.com"},
		{ID: 2, Name: "Gemini Furniture", Email: "gemini@example.com"},
	}
	for _, m := range []component{
		{ID: 1, Name: "Steel bolt M8", Price: decimal.RequireFromString("0.35")},
		{ID: 2, Name: "Oak plank", Description: "Oak plank 200x20cm", Price: decimal.RequireFromString("12.50")},
		{ID: 3, Name: "Wood glue", Price: decimal.RequireFromString("7.90")},
	} {
		m := m
		s.materials[m.ID] = &m
	}
	for _, p := range []component{
		{ID: 1, Name: "Office chair", Price: decimal.NewFromInt(1000)},
		{ID: 2, Name: "Desk", Description: "Standing desk, oak top", Price: decimal.NewFromInt(450)},
		{ID: 3, Name: "Cabinet", Price: decimal.NewFromInt(320)},
	} {
		p := p
		s.products[p.ID] = &p
	}

	one := 1
	s.insert(resourceRFQs, &document{
		State:  1,
		Header: map[string]interface{}{"vendor_id": float64(1), "vendor_reference": "AZ-2231"},
		Items: []item{
			{ID: &one, Type: "component", Description: "Steel bolt M8", Qty: decimal.NewFromInt(200), UnitPrice: decimal.RequireFromString("0.35"), Tax: decimal.NewFromInt(10)},
		},
	})
}

// Router builds the gin engine serving every endpoint
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	r.Use(cors.New(corsConfig))

	r.GET("/init", s.handleInit)
	r.GET("/vendors", s.handleParties(func() []party { return s.vendors }))
	r.GET("/customers", s.handleParties(func() []party { return s.customers }))
	r.GET("/materials", s.handleComponents(s.materials))
	r.GET("/materials/:id", s.handleComponent(s.materials))
	r.GET("/products", s.handleComponents(s.products))
	r.GET("/products/:id", s.handleComponent(s.products))
	r.PUT("/products/:id", s.handleUpdateProduct)

	for _, resource := range []string{resourceRFQs, resourceSales, resourceInvoices} {
		group := r.Group("/" + resource)
		group.GET("", s.handleList(resource))
		group.POST("", s.handleCreate(resource))
		group.GET("/:id", s.handleGet(resource))
		group.PUT("/:id", s.handleUpdate(resource))
		group.DELETE("/:id", s.handleDelete(resource))
	}

	r.POST("/register-payments", s.handleRegisterPayment)
	r.POST("/upload-images", s.handleUploadImage)
	r.GET("/images/:name", s.handleImage)
	r.GET("/receipts", s.handleReceipts)
	return r
}

// Handler is the router as a plain http.Handler
func (s *Server) Handler() http.Handler {
	return s.Router()
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("mock api")
	}
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data, "success": true})
}

func fail(c *gin.Context, status int, message string, errs map[string][]string) {
	body := gin.H{"message": message, "success": false}
	if len(errs) > 0 {
		body["errors"] = errs
	}
	c.JSON(status, body)
}

func (s *Server) handleInit(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"company": "Demo Company", "currency": "USD", "version": "mock-1"})
}
