package validate_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shashiranjanraj/farmlink/pkg/validate"
)

type signupInput struct {
	Username        string `json:"username"         validate:"required,min=2,max=50"`
	Email           string `json:"email"            validate:"required,email"`
	Password        string `json:"password"         validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=password"`
	Role            string `json:"role"             validate:"required,in=farmer|vendor"`
	FarmName        string `json:"farm_name"        validate:"required_if=role:farmer,max=100"`
	Nickname        string `json:"nickname"         validate:"nullable,min=3"`
}

func validSignup() signupInput {
	return signupInput{
		Username:        "alice",
		Email:           "a@x.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Role:            "farmer",
		FarmName:        "Green Acres",
	}
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(validSignup())
	assert.False(t, validate.HasErrors(errs), "unexpected errors: %v", errs)
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(signupInput{})
	assert.Equal(t, "The username field is required.", errs["username"])
	assert.Equal(t, "The email field is required.", errs["email"])
	assert.Contains(t, errs, "role")
	// required_if only applies once role is farmer.
	assert.NotContains(t, errs, "farm_name")
}

func TestRequiredIf(t *testing.T) {
	in := validSignup()
	in.FarmName = ""
	errs := validate.Struct(in)
	assert.Equal(t, "The farm_name field is required.", errs["farm_name"])

	in.Role = "vendor"
	errs = validate.Struct(in)
	assert.NotContains(t, errs, "farm_name")
}

func TestEqField(t *testing.T) {
	in := validSignup()
	in.ConfirmPassword = "different"
	errs := validate.Struct(in)
	assert.Equal(t, "The confirm_password must be equal to password.", errs["confirm_password"])
}

func TestInRule(t *testing.T) {
	in := validSignup()
	in.Role = "admin"
	errs := validate.Struct(in)
	assert.Equal(t, "The selected role is invalid.", errs["role"])
}

func TestStringLengths(t *testing.T) {
	in := validSignup()
	in.Username = "a"
	in.Password = "12345"
	errs := validate.Struct(in)
	assert.Equal(t, "The username must be at least 2 characters.", errs["username"])
	assert.Equal(t, "The password must be at least 6 characters.", errs["password"])
}

func TestNullableSkipsEmpty(t *testing.T) {
	in := validSignup()
	in.Nickname = ""
	assert.NotContains(t, validate.Struct(in), "nickname")

	in.Nickname = "ab"
	assert.Contains(t, validate.Struct(in), "nickname")
}

type productInput struct {
	Price    *float64 `json:"price"              validate:"required,gte=0"`
	Quantity int      `json:"quantity_available" validate:"min=1"`
	Rating   int      `json:"rating"             validate:"required,gte=1,lte=5"`
}

func TestNumericBounds(t *testing.T) {
	zero := 0.0
	errs := validate.Struct(productInput{Price: &zero, Quantity: 1, Rating: 5})
	assert.Empty(t, errs, "zero price through a pointer is present and allowed")

	neg := -1.0
	errs = validate.Struct(productInput{Price: &neg, Quantity: 0, Rating: 6})
	assert.Equal(t, "The price must be greater than or equal to 0.", errs["price"])
	assert.Equal(t, "The quantity_available must be at least 1.", errs["quantity_available"])
	assert.Equal(t, "The rating must be less than or equal to 5.", errs["rating"])

	errs = validate.Struct(productInput{Quantity: 1, Rating: 3})
	assert.Equal(t, "The price field is required.", errs["price"])
}

func TestNonFiniteNumbersFail(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		price := v
		errs := validate.Struct(productInput{Price: &price, Quantity: 1, Rating: 3})
		assert.Equal(t, "The price must be a valid number.", errs["price"], "price %v", v)
	}

	type bounded struct {
		Weight float64 `json:"weight" validate:"min=1,max=10"`
	}
	errs := validate.Struct(bounded{Weight: math.NaN()})
	assert.Equal(t, "The weight must be a valid number.", errs["weight"])
}

func TestEmailRule(t *testing.T) {
	in := validSignup()
	in.Email = "not-an-email"
	assert.Equal(t, "The email must be a valid email address.", validate.Struct(in)["email"])
}

func TestUnknownRulePanics(t *testing.T) {
	type bad struct {
		X string `json:"x" validate:"bogus"`
	}
	assert.Panics(t, func() { validate.Struct(bad{X: "y"}) })
}

func TestNonStructIsValid(t *testing.T) {
	assert.Empty(t, validate.Struct(42))
	var p *signupInput
	assert.Empty(t, validate.Struct(p))
}
