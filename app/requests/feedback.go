package requests

type FeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=200"`
}

type FarmerProfileRequest struct {
	FarmName string `json:"farm_name" validate:"required,min=2,max=100"`
	Location string `json:"location" validate:"required,min=2,max=100"`
}

type VendorProfileRequest struct {
	FullName        string `json:"full_name" validate:"required,min=2,max=100"`
	ShippingAddress string `json:"shipping_address" validate:"required,min=10,max=200"`
}
