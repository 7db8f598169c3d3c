package kernel_test

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/farmlink/pkg/mail"
	"github.com/shashiranjanraj/farmlink/pkg/middleware"
	"github.com/shashiranjanraj/farmlink/pkg/testkit"
)

type product struct {
	ID                uint            `json:"id"`
	Name              string          `json:"name"`
	Price             decimal.Decimal `json:"price"`
	QuantityAvailable int             `json:"quantity_available"`
}

type order struct {
	ID         uint            `json:"id"`
	Reference  string          `json:"reference"`
	Status     string          `json:"status"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

func registerFarmer(t *testing.T, c *testkit.Client, name string) {
	t.Helper()
	res := c.PostJSON("/register", map[string]any{
		"username":         name,
		"email":            name + "@example.com",
		"password":         "secret1",
		"confirm_password": "secret1",
		"role":             "farmer",
		"county":           "kiambu",
		"sub_county":       "Limuru",
		"town":             "Limuru",
		"farm_name":        "Green Acres",
		"location":         "Limuru",
	})
	testkit.AssertStatus(t, res, http.StatusCreated)
	assert.Equal(t, "/login", res.Envelope.Redirect)
}

func registerVendor(t *testing.T, c *testkit.Client, name string) {
	t.Helper()
	res := c.PostJSON("/register", map[string]any{
		"username":         name,
		"email":            name + "@example.com",
		"password":         "secret1",
		"confirm_password": "secret1",
		"role":             "vendor",
		"county":           "nairobi",
		"sub_county":       "Westlands",
		"town":             "Nairobi",
		"full_name":        "Bob Mwangi",
		"shipping_address": "12 Market Road, Nairobi",
	})
	testkit.AssertStatus(t, res, http.StatusCreated)
}

func login(t *testing.T, c *testkit.Client, name string) *testkit.Response {
	t.Helper()
	res := c.PostJSON("/login", map[string]string{"email": name + "@example.com", "password": "secret1"})
	testkit.AssertStatus(t, res, http.StatusOK)
	return res
}

func farmerClient(t *testing.T, app *testkit.App, name string) *testkit.Client {
	t.Helper()
	c := app.Client(t)
	registerFarmer(t, c, name)
	login(t, c, name)
	return c
}

func vendorClient(t *testing.T, app *testkit.App, name string) *testkit.Client {
	t.Helper()
	c := app.Client(t)
	registerVendor(t, c, name)
	login(t, c, name)
	return c
}

func createProduct(t *testing.T, c *testkit.Client, name string, price float64, qty int) product {
	t.Helper()
	res := c.PostJSON("/product/new", map[string]any{
		"name":               name,
		"description":        "Fresh from the farm this morning.",
		"price":              price,
		"quantity_available": qty,
	})
	testkit.AssertStatus(t, res, http.StatusCreated)
	var out struct {
		Product product `json:"product"`
	}
	res.Data(t, &out)
	return out.Product
}

func getProduct(t *testing.T, c *testkit.Client, id uint) product {
	t.Helper()
	res := c.Get(fmt.Sprintf("/product/%d", id))
	testkit.AssertStatus(t, res, http.StatusOK)
	var out struct {
		Product product `json:"product"`
	}
	res.Data(t, &out)
	return out.Product
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	for x := 0; x < 40; x++ {
		img.Set(x, 5, color.RGBA{G: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestRegisterLoginAndRoleHome(t *testing.T) {
	app := testkit.NewApp(t)
	c := app.Client(t)

	registerFarmer(t, c, "alice")
	res := login(t, c, "alice")
	assert.Equal(t, "/farmer/dashboard", res.Envelope.Redirect)
	assert.Equal(t, "You have been logged in!", res.Envelope.Message)

	// The redirect message is flashed onto the next response.
	home := c.Get("/")
	testkit.AssertStatus(t, home, http.StatusOK)
	require.Len(t, home.Envelope.Flashes, 1)
	assert.Equal(t, "You have been logged in!", home.Envelope.Flashes[0].Message)
	testkit.AssertJSONSubset(t, `{"data":{"logged_in":true,"role":"farmer"}}`, home.Body)

	// Guests only.
	again := c.Get("/login")
	assert.Equal(t, "/", again.Envelope.Redirect)

	out := c.Get("/logout")
	testkit.AssertStatus(t, out, http.StatusOK)
	assert.Equal(t, "/", out.Envelope.Redirect)
	testkit.AssertJSONSubset(t, `{"data":{"logged_in":false}}`, c.Get("/").Body)
}

func TestWelcomeMailIsDelivered(t *testing.T) {
	app := testkit.NewApp(t)
	registerFarmer(t, app.Client(t), "alice")

	require.Eventually(t, func() bool {
		return len(app.Mail.Sent()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	sent := app.Mail.Sent()[0]
	assert.Equal(t, []string{"alice@example.com"}, sent.To)
	assert.Equal(t, "Welcome to FarmLink", sent.Subject)
}

func TestRegisterValidation(t *testing.T) {
	app := testkit.NewApp(t)
	c := app.Client(t)

	res := c.PostJSON("/register", map[string]any{
		"username":         "alice",
		"email":            "not-an-email",
		"password":         "secret1",
		"confirm_password": "other",
		"role":             "farmer",
	})
	testkit.AssertFieldError(t, res, "email")
	assert.Contains(t, res.Envelope.Errors, "confirm_password")
	assert.Contains(t, res.Envelope.Errors, "farm_name")

	registerFarmer(t, c, "alice")
	dup := c.PostJSON("/register", map[string]any{
		"username":         "alice",
		"email":            "other@example.com",
		"password":         "secret1",
		"confirm_password": "secret1",
		"role":             "farmer",
		"county":           "kiambu",
		"sub_county":       "Limuru",
		"town":             "Limuru",
		"farm_name":        "Green Acres",
		"location":         "Limuru",
	})
	testkit.AssertFieldError(t, dup, "username")
}

func TestLoginFailureIsUniform(t *testing.T) {
	app := testkit.NewApp(t)
	c := app.Client(t)
	registerFarmer(t, c, "alice")

	unknown := c.PostJSON("/login", map[string]string{"email": "nobody@example.com", "password": "secret1"})
	wrong := c.PostJSON("/login", map[string]string{"email": "alice@example.com", "password": "secret2"})
	testkit.AssertStatus(t, unknown, http.StatusUnauthorized)
	testkit.AssertStatus(t, wrong, http.StatusUnauthorized)
	assert.Equal(t, unknown.Envelope.Message, wrong.Envelope.Message)
}

var resetLink = regexp.MustCompile(`/reset_password/(\S+)`)

func TestPasswordResetFlow(t *testing.T) {
	app := testkit.NewApp(t)
	c := app.Client(t)
	registerFarmer(t, c, "alice")

	res := c.PostJSON("/reset_password", map[string]string{"email": "alice@example.com"})
	testkit.AssertStatus(t, res, http.StatusOK)
	// Unknown addresses look the same.
	other := c.PostJSON("/reset_password", map[string]string{"email": "nobody@example.com"})
	assert.Equal(t, res.Envelope.Message, other.Envelope.Message)

	var reset mail.Message
	require.Eventually(t, func() bool {
		for _, m := range app.Mail.Sent() {
			if m.Subject == "Password Reset Request" {
				reset = m
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, reset.Body, "http://farmlink.test/reset_password/")
	m := resetLink.FindStringSubmatch(reset.Body)
	require.Len(t, m, 2)

	bad := c.PostJSON("/reset_password/garbage", map[string]string{"password": "newpass", "confirm_password": "newpass"})
	testkit.AssertFieldError(t, bad, "token")

	ok := c.PostJSON("/reset_password/"+m[1], map[string]string{"password": "newpass", "confirm_password": "newpass"})
	testkit.AssertStatus(t, ok, http.StatusOK)
	assert.Equal(t, "/login", ok.Envelope.Redirect)

	res = c.PostJSON("/login", map[string]string{"email": "alice@example.com", "password": "newpass"})
	testkit.AssertStatus(t, res, http.StatusOK)
}

func TestGuards(t *testing.T) {
	app := testkit.NewApp(t)
	anon := app.Client(t)

	res := anon.Get("/farmer/dashboard")
	testkit.AssertStatus(t, res, http.StatusUnauthorized)
	assert.Equal(t, middleware.LoginRequiredMessage, res.Envelope.Message)
	assert.Equal(t, "/login", res.Envelope.Redirect)

	v := vendorClient(t, app, "bob")
	res = v.PostJSON("/product/new", map[string]any{"name": "Kale"})
	testkit.AssertStatus(t, res, http.StatusForbidden)
	assert.Equal(t, middleware.ForbiddenMessage, res.Envelope.Message)

	f := farmerClient(t, app, "alice")
	testkit.AssertStatus(t, f.Get("/vendor/dashboard"), http.StatusForbidden)
	testkit.AssertStatus(t, f.PostJSON("/cart/items", map[string]any{"product_id": 1}), http.StatusForbidden)
}

func TestCatalogueAndImages(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")

	res := f.PostMultipart("/product/new", map[string]string{
		"name":               "Tomatoes",
		"description":        "Ripe red tomatoes, picked today.",
		"price":              "120.50",
		"quantity_available": "10",
	}, testkit.File{Field: "image", Name: "tomatoes.png", Data: pngBytes(t)})
	testkit.AssertStatus(t, res, http.StatusCreated)
	assert.Equal(t, "/products", res.Envelope.Redirect)
	var created struct {
		Product  product `json:"product"`
		ImageURL string  `json:"image_url"`
	}
	res.Data(t, &created)
	require.True(t, strings.HasPrefix(created.ImageURL, "/media/"), created.ImageURL)

	img := f.Get(created.ImageURL)
	testkit.AssertStatus(t, img, http.StatusOK)
	decoded, err := png.Decode(bytes.NewReader(img.Body))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 300), decoded.Bounds())

	anon := app.Client(t)
	list := anon.Get("/products")
	testkit.AssertStatus(t, list, http.StatusOK)
	testkit.AssertJSONSubset(t, `{"data":{"products":[{"name":"Tomatoes","quantity_available":10}]}}`, list.Body)

	detail := anon.Get(fmt.Sprintf("/product/%d", created.Product.ID))
	testkit.AssertJSONSubset(t, `{"data":{"product":{"name":"Tomatoes","farmer":{"farm_name":"Green Acres"}}}}`, detail.Body)

	missing := anon.Get("/product/9999")
	testkit.AssertStatus(t, missing, http.StatusNotFound)

	bad := f.PostMultipart("/product/new", map[string]string{
		"name":               "Beans",
		"description":        "Dry beans from last season.",
		"price":              "80",
		"quantity_available": "3",
	}, testkit.File{Field: "image", Name: "beans.png", Data: []byte("not an image")})
	testkit.AssertFieldError(t, bad, "image")
}

func TestPlaceOrderAndStatusMachine(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")
	p := createProduct(t, f, "Tomatoes", 120.5, 5)

	v := vendorClient(t, app, "bob")
	res := v.PostJSON(fmt.Sprintf("/product/%d/order", p.ID), map[string]int{"quantity": 2})
	testkit.AssertStatus(t, res, http.StatusCreated)
	var o order
	res.Data(t, &o)
	assert.Regexp(t, `^ORD\d{14}[0-9a-f]{8}$`, o.Reference)
	assert.Equal(t, "241.00", o.TotalPrice.StringFixed(2))
	assert.Equal(t, "Pending", o.Status)
	assert.Equal(t, 3, getProduct(t, v, p.ID).QuantityAvailable)

	over := v.PostJSON(fmt.Sprintf("/product/%d/order", p.ID), map[string]int{"quantity": 4})
	testkit.AssertStatus(t, over, http.StatusUnprocessableEntity)
	assert.Equal(t, "Only 3 of Tomatoes left in stock.", over.Envelope.Errors["quantity"])

	orders := f.Get("/farmer/orders")
	testkit.AssertStatus(t, orders, http.StatusOK)
	testkit.AssertJSONSubset(t, fmt.Sprintf(`{"data":{"has_products":true,"orders":[{"reference":%q}]}}`, o.Reference), orders.Body)

	skip := f.PostJSON(fmt.Sprintf("/farmer/orders/%d/status", o.ID), map[string]string{"status": "Delivered"})
	testkit.AssertFieldError(t, skip, "status")

	for _, next := range []string{"Shipped", "Delivered"} {
		res := f.PostJSON(fmt.Sprintf("/farmer/orders/%d/status", o.ID), map[string]string{"status": next})
		testkit.AssertStatus(t, res, http.StatusOK)
		testkit.AssertJSONSubset(t, fmt.Sprintf(`{"data":{"status":%q}}`, next), res.Body)
	}

	late := v.PostJSON(fmt.Sprintf("/vendor/orders/%d/cancel", o.ID), nil)
	testkit.AssertFieldError(t, late, "status")

	// Order mail to the admin.
	require.Eventually(t, func() bool {
		for _, m := range app.Mail.Sent() {
			if m.Subject == "New order "+o.Reference {
				return true
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCancelRestoresStock(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")
	p := createProduct(t, f, "Kale", 40, 4)

	v := vendorClient(t, app, "bob")
	res := v.PostJSON(fmt.Sprintf("/product/%d/order", p.ID), map[string]int{"quantity": 3})
	testkit.AssertStatus(t, res, http.StatusCreated)
	var o order
	res.Data(t, &o)

	other := vendorClient(t, app, "carol")
	testkit.AssertStatus(t, other.PostJSON(fmt.Sprintf("/vendor/orders/%d/cancel", o.ID), nil), http.StatusForbidden)

	res = v.PostJSON(fmt.Sprintf("/vendor/orders/%d/cancel", o.ID), nil)
	testkit.AssertStatus(t, res, http.StatusOK)
	assert.Equal(t, "/vendor/dashboard", res.Envelope.Redirect)
	assert.Equal(t, 4, getProduct(t, v, p.ID).QuantityAvailable)

	dash := v.Get("/vendor/dashboard")
	testkit.AssertStatus(t, dash, http.StatusOK)
	testkit.AssertJSONSubset(t, `{"data":{"orders":[{"status":"Cancelled"}]}}`, dash.Body)
}

func TestCartCheckout(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")
	tomatoes := createProduct(t, f, "Tomatoes", 120.5, 5)
	kale := createProduct(t, f, "Kale", 110, 2)

	v := vendorClient(t, app, "bob")
	testkit.AssertStatus(t, v.PostJSON("/cart/items", map[string]any{"product_id": tomatoes.ID, "quantity": 2}), http.StatusOK)
	testkit.AssertStatus(t, v.PostJSON("/cart/items", map[string]any{"product_id": kale.ID}), http.StatusOK)
	testkit.AssertStatus(t, v.PostJSON("/cart/items", map[string]any{"product_id": 9999}), http.StatusNotFound)

	cart := v.Get("/cart")
	testkit.AssertStatus(t, cart, http.StatusOK)
	var summary struct {
		Items []struct{} `json:"items"`
		Total decimal.Decimal `json:"total"`
	}
	cart.Data(t, &summary)
	assert.Len(t, summary.Items, 2)
	assert.Equal(t, "351.00", summary.Total.StringFixed(2))

	form := v.Get("/checkout")
	testkit.AssertJSONSubset(t, `{"data":{"address":"12 Market Road, Nairobi"}}`, form.Body)

	res := v.PostJSON("/checkout", map[string]string{"address": "12 Market Road, Nairobi", "payment_method": "mpesa"})
	testkit.AssertStatus(t, res, http.StatusCreated)
	var o order
	res.Data(t, &o)
	assert.Equal(t, "351.00", o.TotalPrice.StringFixed(2))
	assert.Equal(t, 3, getProduct(t, v, tomatoes.ID).QuantityAvailable)
	assert.Equal(t, 1, getProduct(t, v, kale.ID).QuantityAvailable)

	cart = v.Get("/cart")
	cart.Data(t, &summary)
	assert.Empty(t, summary.Items)

	empty := v.PostJSON("/checkout", map[string]string{"address": "12 Market Road, Nairobi", "payment_method": "mpesa"})
	testkit.AssertFieldError(t, empty, "cart")
}

func TestRemoveFromCart(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")
	p := createProduct(t, f, "Tomatoes", 10, 5)

	v := vendorClient(t, app, "bob")
	testkit.AssertStatus(t, v.PostJSON("/cart/items", map[string]any{"product_id": p.ID}), http.StatusOK)
	res := v.Delete(fmt.Sprintf("/cart/items/%d", p.ID))
	testkit.AssertStatus(t, res, http.StatusOK)
	testkit.AssertJSONSubset(t, `{"data":{"items":[]}}`, res.Body)
}

func TestFeedbackAndFarmerRating(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")
	p := createProduct(t, f, "Tomatoes", 10, 5)

	v := vendorClient(t, app, "bob")
	res := v.PostJSON(fmt.Sprintf("/product/%d/feedback", p.ID), map[string]any{"rating": 4, "comment": "Very fresh."})
	testkit.AssertStatus(t, res, http.StatusCreated)
	assert.Equal(t, fmt.Sprintf("/product/%d", p.ID), res.Envelope.Redirect)

	testkit.AssertFieldError(t, v.PostJSON(fmt.Sprintf("/product/%d/feedback", p.ID), map[string]any{"rating": 9}), "rating")
	testkit.AssertStatus(t, f.PostJSON(fmt.Sprintf("/product/%d/feedback", p.ID), map[string]any{"rating": 5}), http.StatusForbidden)

	detail := v.Get(fmt.Sprintf("/product/%d", p.ID))
	testkit.AssertJSONSubset(t, `{"data":{"farmer_rating":{"average":4,"count":1}}}`, detail.Body)
}

func TestFarmerWithoutProducts(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")

	res := f.Get("/farmer/orders")
	testkit.AssertStatus(t, res, http.StatusOK)
	assert.Equal(t, "/farmer/dashboard", res.Envelope.Redirect)
	testkit.AssertJSONSubset(t, `{"data":{"has_products":false}}`, res.Body)

	dash := f.Get("/farmer/dashboard")
	testkit.AssertStatus(t, dash, http.StatusOK)
	testkit.AssertJSONSubset(t, `{"data":{"farmer":{"farm_name":"Green Acres"}}}`, dash.Body)
}

func TestProfiles(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")

	res := f.PostJSON("/farmer/profile", map[string]string{"farm_name": "Sunny Fields", "location": "Thika"})
	testkit.AssertStatus(t, res, http.StatusOK)
	assert.Equal(t, "/farmer/profile", res.Envelope.Redirect)
	testkit.AssertJSONSubset(t, `{"data":{"farm_name":"Sunny Fields"}}`, f.Get("/farmer/profile").Body)

	v := vendorClient(t, app, "bob")
	testkit.AssertFieldError(t, v.PostJSON("/vendor/profile", map[string]string{"full_name": "Bob", "shipping_address": "short"}), "shipping_address")
}

func TestGraphQLCatalog(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")
	p := createProduct(t, f, "Tomatoes", 120.5, 5)

	anon := app.Client(t)
	res := anon.PostJSON("/graphql", map[string]any{
		"query":     `query($id: Int!) { product(id: $id) { name price farmer { farmName } } }`,
		"variables": map[string]any{"id": p.ID},
	})
	testkit.AssertStatus(t, res, http.StatusOK)
	testkit.AssertJSONSubset(t,
		`{"data":{"product":{"name":"Tomatoes","price":"120.50","farmer":{"farmName":"Green Acres"}}}}`, res.Body)
}

func TestLiveFeedReceivesNewProducts(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")

	feedURL := "ws" + strings.TrimPrefix(app.Server.URL, "http") + "/ws/feed"
	conn, _, err := websocket.DefaultDialer.Dial(feedURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return app.Hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	createProduct(t, f, "Tomatoes", 120.5, 5)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame struct {
		Type string `json:"type"`
		Data struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "product.created", frame.Type)
	assert.Equal(t, "Tomatoes", frame.Data.Name)
}

func TestHealthMetricsAndFallbacks(t *testing.T) {
	app := testkit.NewApp(t)
	c := app.Client(t)

	health := c.Get("/health")
	testkit.AssertStatus(t, health, http.StatusOK)
	assert.JSONEq(t, `{"status":"ok"}`, string(health.Body))

	metrics := c.Get("/metrics")
	testkit.AssertStatus(t, metrics, http.StatusOK)
	assert.Contains(t, string(metrics.Body), "farmlink_requests_total")

	missing := c.Get("/no/such/page")
	testkit.AssertStatus(t, missing, http.StatusNotFound)
	assert.Equal(t, "Page not found.", missing.Envelope.Message)
}

func TestEventStreamReceivesOrders(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")
	p := createProduct(t, f, "Tomatoes", 10, 5)

	resp, err := http.Get(app.Server.URL + "/events/feed")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return app.Stream.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	v := vendorClient(t, app, "bob")
	testkit.AssertStatus(t, v.PostJSON(fmt.Sprintf("/product/%d/order", p.ID), map[string]int{"quantity": 1}), http.StatusCreated)

	rd := bufio.NewReader(resp.Body)
	line, err := rd.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: order.placed", strings.TrimSpace(line))
}

func TestHousekeepingTasksAreScheduled(t *testing.T) {
	app := testkit.NewApp(t)
	var names []string
	for _, e := range app.Tasks.List() {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"ratelimit.evict", "sessions.purge"}, names)
}

func TestNonFinitePriceIsAFieldError(t *testing.T) {
	app := testkit.NewApp(t)
	f := farmerClient(t, app, "alice")

	for _, price := range []string{"NaN", "Inf", "-Inf", "10000000000"} {
		res := f.PostForm("/product/new", url.Values{
			"name":               {"Tomatoes"},
			"description":        {"Ripe red tomatoes, picked today."},
			"price":              {price},
			"quantity_available": {"3"},
		})
		testkit.AssertFieldError(t, res, "price")
	}

	list := f.Get("/products")
	testkit.AssertJSONSubset(t, `{"data":{"products":[]}}`, list.Body)
}
