package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	Repository
	user *User
}

func (f *fakeRepo) GetUserByID(ctx context.Context, id string) (*User, error) {
	return f.user, nil
}

func (f *fakeRepo) AddAddress(ctx context.Context, userID string, addr *Address) error {
	f.user.Addresses = append(f.user.Addresses, *addr)
	return nil
}

func (f *fakeRepo) ClearDefaultAddresses(ctx context.Context, userID, addrType string) error {
	for i := range f.user.Addresses {
		if f.user.Addresses[i].Type == addrType {
			f.user.Addresses[i].IsDefault = false
		}
	}
	return nil
}

func (f *fakeRepo) AddPaymentMethod(ctx context.Context, userID string, pm *PaymentMethod) error {
	f.user.PaymentMethods = append(f.user.PaymentMethods, *pm)
	return nil
}

func (f *fakeRepo) ClearDefaultPaymentMethods(ctx context.Context, userID string) error {
	for i := range f.user.PaymentMethods {
		f.user.PaymentMethods[i].IsDefault = false
	}
	return nil
}

func TestTierFor(t *testing.T) {
	cases := []struct {
		spent float64
		tier  string
	}{
		{0, TierBronze},
		{999.99, TierBronze},
		{1000, TierSilver},
		{2499.99, TierSilver},
		{2500, TierGold},
		{4999.99, TierGold},
		{5000, TierPlatinum},
		{123456.78, TierPlatinum},
	}
	for _, c := range cases {
		assert.Equal(t, c.tier, TierFor(c.spent), "lifetime spent %.2f", c.spent)
	}
}

func TestAddressLookup(t *testing.T) {
	u := &User{
		Addresses: []Address{
			{AddressID: "addr_1", Type: "shipping"},
			{AddressID: "addr_2", Type: "billing"},
		},
		PaymentMethods: []PaymentMethod{
			{MethodID: "pm_1", Type: "credit_card"},
		},
	}

	assert.Equal(t, "shipping", u.AddressByID("addr_1").Type)
	assert.Nil(t, u.AddressByID("addr_9"))
	assert.Equal(t, "credit_card", u.PaymentMethodByID("pm_1").Type)
	assert.Nil(t, u.PaymentMethodByID("pm_9"))
}

func defaultsOfType(addrs []Address, addrType string) []string {
	var ids []string
	for _, a := range addrs {
		if a.Type == addrType && a.IsDefault {
			ids = append(ids, a.AddressID)
		}
	}
	return ids
}

func TestAddDefaultAddressUnsetsPrevious(t *testing.T) {
	repo := &fakeRepo{user: &User{
		Addresses: []Address{
			{AddressID: "addr_ship", Type: "shipping", IsDefault: true},
			{AddressID: "addr_bill", Type: "billing", IsDefault: true},
		},
	}}
	svc := NewService(repo)

	u, err := svc.AddAddress(context.Background(), "u1", AddAddressRequest{
		Type:          "shipping",
		IsDefault:     true,
		RecipientName: "Jane Doe",
		Street:        "1 Elm St",
		City:          "Springfield",
		Country:       "us",
	})
	require.NoError(t, err)
	require.Len(t, u.Addresses, 3)

	shipping := defaultsOfType(u.Addresses, "shipping")
	require.Len(t, shipping, 1)
	assert.NotEqual(t, "addr_ship", shipping[0])

	// The other type keeps its default.
	assert.Equal(t, []string{"addr_bill"}, defaultsOfType(u.Addresses, "billing"))
}

func TestAddNonDefaultAddressKeepsExistingDefault(t *testing.T) {
	repo := &fakeRepo{user: &User{
		Addresses: []Address{
			{AddressID: "addr_ship", Type: "shipping", IsDefault: true},
		},
	}}
	svc := NewService(repo)

	u, err := svc.AddAddress(context.Background(), "u1", AddAddressRequest{
		Type:          "shipping",
		RecipientName: "Jane Doe",
		Street:        "1 Elm St",
		City:          "Springfield",
		Country:       "US",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"addr_ship"}, defaultsOfType(u.Addresses, "shipping"))
}

func TestAddDefaultPaymentMethodUnsetsPrevious(t *testing.T) {
	repo := &fakeRepo{user: &User{
		PaymentMethods: []PaymentMethod{
			{MethodID: "pm_old", Type: "credit_card", IsDefault: true},
		},
	}}
	svc := NewService(repo)

	u, err := svc.AddPaymentMethod(context.Background(), "u1", AddPaymentMethodRequest{
		Type:      "credit_card",
		IsDefault: true,
		LastFour:  "4242",
	})
	require.NoError(t, err)
	require.Len(t, u.PaymentMethods, 2)

	var defaults []string
	for _, pm := range u.PaymentMethods {
		if pm.IsDefault {
			defaults = append(defaults, pm.MethodID)
		}
	}
	require.Len(t, defaults, 1)
	assert.NotEqual(t, "pm_old", defaults[0])
}
