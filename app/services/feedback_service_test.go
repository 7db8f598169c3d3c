package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/farmlink/app/requests"
	"github.com/shashiranjanraj/farmlink/pkg/apperr"
)

func TestFeedbackLinksVendorAndFarmer(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, farmerRequest("alice"))
	bob := e.register(t, vendorRequest("bob"))
	p := e.listProduct(t, alice, "Tomatoes", 100, 10)

	target, err := e.feedback.Target(context.Background(), bob.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, target.ID)

	fb, err := e.feedback.Submit(context.Background(), bob.ID, p.ID, requests.FeedbackRequest{Rating: 4, Comment: "Very fresh"})
	require.NoError(t, err)
	assert.Equal(t, bob.Vendor.ID, fb.VendorID)
	assert.Equal(t, alice.Farmer.ID, fb.FarmerID)
	require.NotNil(t, fb.ProductID)
	assert.Equal(t, p.ID, *fb.ProductID)

	_, err = e.feedback.Submit(context.Background(), bob.ID, p.ID, requests.FeedbackRequest{Rating: 2})
	require.NoError(t, err)

	detail, err := e.products.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), detail.Rating.Count)
	assert.InDelta(t, 3.0, detail.Rating.Average, 0.001)
}

func TestFeedbackGuards(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, farmerRequest("alice"))
	bob := e.register(t, vendorRequest("bob"))
	p := e.listProduct(t, alice, "Tomatoes", 100, 10)

	_, err := e.feedback.Submit(context.Background(), alice.ID, p.ID, requests.FeedbackRequest{Rating: 5})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	_, err = e.feedback.Target(context.Background(), bob.ID, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestProfileUpdates(t *testing.T) {
	e := newEnv(t)
	alice := e.register(t, farmerRequest("alice"))
	bob := e.register(t, vendorRequest("bob"))

	f, err := e.profiles.UpdateFarmerProfile(context.Background(), alice.ID, requests.FarmerProfileRequest{FarmName: "Sunrise Farm", Location: "Limuru"})
	require.NoError(t, err)
	assert.Equal(t, alice.Farmer.ID, f.ID)

	reloaded, err := e.profiles.FarmerProfile(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sunrise Farm", reloaded.FarmName)
	assert.Equal(t, "Limuru", reloaded.Location)

	_, err = e.profiles.UpdateFarmerProfile(context.Background(), bob.ID, requests.FarmerProfileRequest{FarmName: "Nope", Location: "Nope"})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	v, err := e.profiles.UpdateVendorProfile(context.Background(), bob.ID, requests.VendorProfileRequest{FullName: "Robert Mwangi", ShippingAddress: "40 Moi Avenue, Nairobi"})
	require.NoError(t, err)
	assert.Equal(t, "Robert Mwangi", v.FullName)

	u, err := e.profiles.Profile(context.Background(), bob.ID)
	require.NoError(t, err)
	require.NotNil(t, u.Vendor)
	assert.Equal(t, "40 Moi Avenue, Nairobi", u.Vendor.ShippingAddress)
	assert.Nil(t, u.Farmer)
}
