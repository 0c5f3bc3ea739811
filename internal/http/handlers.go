package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"mithai/internal/backend"
	"mithai/internal/catalog"
	"mithai/internal/domain"
	"mithai/internal/repository"
	"mithai/internal/service"
)

const sessionKey = "sessionID"

type Server struct {
	engine   *gin.Engine
	sessions *service.SessionService
	auth     *service.AuthService
	cart     *service.CartService
	checkout *service.CheckoutService
	catalog  catalog.Provider
}

func NewServer(sessions *service.SessionService, auth *service.AuthService, cart *service.CartService, checkout *service.CheckoutService, products catalog.Provider) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	s := &Server{
		engine:   r,
		sessions: sessions,
		auth:     auth,
		cart:     cart,
		checkout: checkout,
		catalog:  products,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerRoutes() {
	// Swagger UI
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := s.engine.Group("/api/v1")
	v1.Use(s.sessionMiddleware)
	{
		auth := v1.Group("/auth")
		auth.POST("/login", s.login)
		auth.POST("/logout", s.logout)

		v1.PUT("/profile", s.updateProfile)
		v1.POST("/onboarding/complete", s.completeOnboarding)

		products := v1.Group("/products")
		products.GET("", s.listProducts)
		products.GET(":id", s.getProduct)
		v1.GET("/categories", s.listCategories)

		cart := v1.Group("/cart")
		cart.GET("", s.getCart)
		cart.POST("/items", s.addCartItem)
		cart.PUT("/items/:productId", s.updateCartItem)
		cart.DELETE("/items/:productId", s.removeCartItem)
		cart.DELETE("", s.clearCart)

		checkout := v1.Group("/checkout")
		checkout.GET("/quote", s.quote)
		checkout.GET("/slots", s.deliverySlots)
		checkout.GET("/addresses", s.addresses)
		checkout.GET("/coupons", s.listCoupons)
		checkout.POST("/coupon", s.applyCoupon)
		checkout.DELETE("/coupon", s.removeCoupon)

		orders := v1.Group("/orders")
		orders.POST("", s.placeOrder)
		orders.GET("", s.listOrders)
	}
}

// sessionMiddleware лениво создаёт сессию и возвращает её id в заголовке
func (s *Server) sessionMiddleware(c *gin.Context) {
	sess, err := s.sessions.Ensure(c, c.GetHeader("X-Session-ID"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to initialize session"})
		return
	}
	c.Set(sessionKey, sess.ID)
	c.Header("X-Session-ID", sess.ID)
	c.Next()
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

// Auth handlers
type loginReq struct {
	MobileNumber string `json:"mobileNumber"`
	Password     string `json:"password"`
}

// @Summary Login with mobile number and password
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} domain.Session
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess, err := s.auth.Login(c, sessionID(c), req.MobileNumber, req.Password)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

// @Summary Logout and clear session state
// @Tags auth
// @Produce json
// @Success 200 {object} domain.Session
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	sess, err := s.auth.Logout(c, sessionID(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

type updateProfileReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// @Summary Update contact information
// @Tags auth
// @Accept json
// @Produce json
// @Param input body updateProfileReq true "Profile"
// @Success 200 {object} domain.Session
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /profile [put]
func (s *Server) updateProfile(c *gin.Context) {
	var req updateProfileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess, err := s.auth.UpdateProfile(c, sessionID(c), req.Name, req.Email)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

// @Summary Mark onboarding as completed
// @Tags session
// @Produce json
// @Success 200 {object} domain.Session
// @Router /onboarding/complete [post]
func (s *Server) completeOnboarding(c *gin.Context) {
	sess, err := s.sessions.CompleteOnboarding(c, sessionID(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sessionView(sess))
}

// Catalog handlers

// @Summary List products
// @Tags catalog
// @Produce json
// @Param category query string false "Category id"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	products, err := s.catalog.Products(c, c.Query("category"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, products)
}

// @Summary Get product by id
// @Tags catalog
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} domain.Product
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	p, err := s.catalog.ProductByID(c, c.Param("id"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Category
// @Router /categories [get]
func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.catalog.Categories(c)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cats)
}

// Cart handlers
type cartResponse struct {
	Items      []domain.CartItem `json:"items"`
	Total      float64           `json:"total"`
	ItemsCount int               `json:"itemsCount"`
}

func cartView(sess *domain.Session) cartResponse {
	items := sess.Cart
	if items == nil {
		items = []domain.CartItem{}
	}
	return cartResponse{
		Items:      items,
		Total:      service.CartTotal(sess.Cart),
		ItemsCount: service.CartItemsCount(sess.Cart),
	}
}

// @Summary Get cart contents
// @Tags cart
// @Produce json
// @Success 200 {object} cartResponse
// @Router /cart [get]
func (s *Server) getCart(c *gin.Context) {
	sess, err := s.sessions.Ensure(c, sessionID(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cartView(sess))
}

type addCartItemReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// @Summary Add product to cart
// @Tags cart
// @Accept json
// @Produce json
// @Param input body addCartItemReq true "Item"
// @Success 200 {object} cartResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /cart/items [post]
func (s *Server) addCartItem(c *gin.Context) {
	var req addCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	p, err := s.catalog.ProductByID(c, req.ProductID)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	sess, err := s.cart.AddToCart(c, sessionID(c), *p, req.Quantity)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cartView(sess))
}

type updateCartItemReq struct {
	Quantity int `json:"quantity"`
}

// @Summary Set cart item quantity
// @Tags cart
// @Accept json
// @Produce json
// @Param productId path string true "Product ID"
// @Param input body updateCartItemReq true "Quantity"
// @Success 200 {object} cartResponse
// @Failure 400 {object} map[string]string
// @Router /cart/items/{productId} [put]
func (s *Server) updateCartItem(c *gin.Context) {
	var req updateCartItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess, err := s.cart.UpdateQuantity(c, sessionID(c), c.Param("productId"), req.Quantity)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cartView(sess))
}

// @Summary Remove item from cart
// @Tags cart
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} cartResponse
// @Router /cart/items/{productId} [delete]
func (s *Server) removeCartItem(c *gin.Context) {
	sess, err := s.cart.RemoveFromCart(c, sessionID(c), c.Param("productId"))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cartView(sess))
}

// @Summary Clear cart
// @Tags cart
// @Produce json
// @Success 200 {object} cartResponse
// @Router /cart [delete]
func (s *Server) clearCart(c *gin.Context) {
	sess, err := s.cart.ClearCart(c, sessionID(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cartView(sess))
}

// Checkout handlers

// @Summary Pricing breakdown for the current cart
// @Tags checkout
// @Produce json
// @Success 200 {object} domain.PricingBreakdown
// @Router /checkout/quote [get]
func (s *Server) quote(c *gin.Context) {
	b, err := s.checkout.Quote(c, sessionID(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, b)
}

// @Summary List active delivery slots
// @Tags checkout
// @Produce json
// @Success 200 {array} domain.DeliverySlot
// @Failure 401 {object} map[string]string
// @Router /checkout/slots [get]
func (s *Server) deliverySlots(c *gin.Context) {
	slots, err := s.checkout.DeliverySlots(c, sessionID(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	if slots == nil {
		slots = []domain.DeliverySlot{}
	}
	c.JSON(http.StatusOK, slots)
}

// @Summary List delivery addresses of the current user
// @Tags checkout
// @Produce json
// @Success 200 {array} domain.Address
// @Failure 401 {object} map[string]string
// @Router /checkout/addresses [get]
func (s *Server) addresses(c *gin.Context) {
	addrs, err := s.checkout.Addresses(c, sessionID(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	if addrs == nil {
		addrs = []domain.Address{}
	}
	c.JSON(http.StatusOK, addrs)
}

// @Summary List available coupons
// @Tags checkout
// @Produce json
// @Success 200 {array} backend.CouponListing
// @Failure 401 {object} map[string]string
// @Router /checkout/coupons [get]
func (s *Server) listCoupons(c *gin.Context) {
	coupons, err := s.checkout.ListCoupons(c, sessionID(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	if coupons == nil {
		coupons = []backend.CouponListing{}
	}
	c.JSON(http.StatusOK, coupons)
}

type applyCouponReq struct {
	Code string `json:"code"`
}

// @Summary Apply a coupon code
// @Tags checkout
// @Accept json
// @Produce json
// @Param input body applyCouponReq true "Coupon code"
// @Success 200 {object} domain.AppliedCoupon
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /checkout/coupon [post]
func (s *Server) applyCoupon(c *gin.Context) {
	var req applyCouponReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	sess, err := s.checkout.ApplyCoupon(c, sessionID(c), req.Code)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess.AppliedCoupon)
}

// @Summary Remove the applied coupon
// @Tags checkout
// @Produce json
// @Success 204
// @Router /checkout/coupon [delete]
func (s *Server) removeCoupon(c *gin.Context) {
	if _, err := s.checkout.RemoveCoupon(c, sessionID(c)); err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// Order handlers

// @Summary Place an order from the current cart
// @Tags orders
// @Accept json
// @Produce json
// @Param input body service.PlaceOrderInput true "Checkout selections"
// @Success 201 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /orders [post]
func (s *Server) placeOrder(c *gin.Context) {
	var req service.PlaceOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	order, err := s.checkout.PlaceOrder(c, sessionID(c), req)
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, order)
}

// @Summary Local order history
// @Tags orders
// @Produce json
// @Success 200 {array} domain.Order
// @Router /orders [get]
func (s *Server) listOrders(c *gin.Context) {
	orders, err := s.checkout.Orders(c, sessionID(c))
	if err != nil {
		c.JSON(mapErrorToStatus(err), gin.H{"error": err.Error()})
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// sessionView не отдаёт наружу токен
func sessionView(sess *domain.Session) *domain.Session {
	cp := *sess
	cp.Token = ""
	return &cp
}

func mapErrorToStatus(err error) int {
	var pruned *service.PrunedItemsError
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, backend.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrOrderInFlight):
		return http.StatusConflict
	case errors.Is(err, service.ErrNoValidItems), errors.As(err, &pruned):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
