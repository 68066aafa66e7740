package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAPIGatewayEvent(t *testing.T) {
	raw := `{"requestContext":{"stage":"prod","identity":{"cognitoIdentityId":"us-east-1:abc-123","sourceIp":"10.0.0.1"}}}`

	event, err := ParseAPIGatewayEvent(url.PathEscape(raw))
	assert.NoError(t, err)
	assert.Equal(t, "us-east-1:abc-123", event.RequestContext.Identity.CognitoIdentityID)
	assert.Equal(t, "prod", event.RequestContext.Stage)

	event, err = ParseAPIGatewayEvent(raw)
	assert.NoError(t, err)
	assert.Equal(t, "10.0.0.1", event.RequestContext.Identity.SourceIP)
}

func TestParseAPIGatewayEventWithoutIdentity(t *testing.T) {
	event, err := ParseAPIGatewayEvent(url.PathEscape(`{"requestContext":{"identity":{"cognitoIdentityId":null}}}`))
	assert.NoError(t, err)
	assert.Equal(t, "", event.RequestContext.Identity.CognitoIdentityID)
}

func TestParseAPIGatewayEventErrors(t *testing.T) {
	_, err := ParseAPIGatewayEvent("%zz")
	assert.Error(t, err)

	_, err = ParseAPIGatewayEvent("not-json")
	assert.Error(t, err)
}
