package dusk

import (
	"testing"

	"github.com/go-playground/assert/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
)

func testApplicationToken(t *testing.T, claims gojwt.MapClaims) string {
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test"))
	assert.Equal(t, err, nil)
	return signed
}

func TestParseApplicationJwt(t *testing.T) {
	token := testApplicationToken(t, gojwt.MapClaims{
		"application_id": "app1",
		"bot_name":       "counter",
	})

	applicationJwt, err := ParseApplicationJwtUnverified(token)
	assert.Equal(t, err, nil)
	assert.Equal(t, applicationJwt.ApplicationId, "app1")
	assert.Equal(t, applicationJwt.BotName, "counter")

	auth := &GatewayAuth{
		Token: token,
	}
	applicationId, err := auth.ApplicationId()
	assert.Equal(t, err, nil)
	assert.Equal(t, applicationId, "app1")

	token = testApplicationToken(t, gojwt.MapClaims{
		"bot_name": "counter",
	})
	_, err = ParseApplicationJwtUnverified(token)
	assert.NotEqual(t, err, nil)

	_, err = ParseApplicationJwtUnverified("not a token")
	assert.NotEqual(t, err, nil)
}
