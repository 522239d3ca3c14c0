package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDetails() ClientDetails {
	return ClientDetails{
		FirstName: "Ana",
		LastName:  "Lima",
		Email:     "ana@example.com",
		Phone:     "(555) 123-4567",
	}
}

func TestClientDetailsValid(t *testing.T) {
	assert.Nil(t, validDetails().Validate())
}

func TestClientDetailsFieldErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*ClientDetails)
		field  string
	}{
		{"missing first name", func(d *ClientDetails) { d.FirstName = "  " }, "firstName"},
		{"missing last name", func(d *ClientDetails) { d.LastName = "" }, "lastName"},
		{"bad email", func(d *ClientDetails) { d.Email = "not-an-email" }, "email"},
		{"email without domain dot", func(d *ClientDetails) { d.Email = "a@b" }, "email"},
		{"short phone", func(d *ClientDetails) { d.Phone = "555-1234" }, "phone"},
		{"empty phone", func(d *ClientDetails) { d.Phone = "" }, "phone"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := validDetails()
			tc.mutate(&d)
			errs := d.Validate()
			require.NotNil(t, errs)
			assert.Contains(t, errs, tc.field)
		})
	}
}

func TestClientDetailsMultipleErrors(t *testing.T) {
	errs := ClientDetails{}.Validate()
	require.Len(t, errs, 4)
	assert.Equal(t, "booking: invalid details: email, firstName, lastName, phone", errs.Error())
}

func TestClientDetailsNotesOptional(t *testing.T) {
	d := validDetails()
	d.Notes = ""
	assert.Nil(t, d.Validate())
}
