package dusk

import (
	"fmt"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// claims of the application token used by the gateway and api.
// The messaging service verifies the token; the client only reads it.
type ApplicationJwt struct {
	ApplicationId string
	BotName       string
}

func ParseApplicationJwtUnverified(jwt string) (*ApplicationJwt, error) {
	parser := gojwt.NewParser()
	token, _, err := parser.ParseUnverified(jwt, gojwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(gojwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("Unexpected claims type %T.", token.Claims)
	}

	applicationJwt := &ApplicationJwt{}

	if applicationId, ok := claims["application_id"].(string); ok {
		applicationJwt.ApplicationId = applicationId
	} else {
		return nil, fmt.Errorf("Token missing application_id.")
	}
	if botName, ok := claims["bot_name"].(string); ok {
		applicationJwt.BotName = botName
	}

	return applicationJwt, nil
}
