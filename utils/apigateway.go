package utils

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// APIGatewayEventHeader carries the URL-encoded API Gateway proxy event
// forwarded by serverless-express style adapters.
const APIGatewayEventHeader = "x-apigateway-event"

type APIGatewayEvent struct {
	RequestContext APIGatewayRequestContext `json:"requestContext"`
}

type APIGatewayRequestContext struct {
	RequestID string             `json:"requestId,omitempty"`
	Stage     string             `json:"stage,omitempty"`
	Identity  APIGatewayIdentity `json:"identity"`
}

type APIGatewayIdentity struct {
	CognitoIdentityID     string `json:"cognitoIdentityId,omitempty"`
	CognitoIdentityPoolID string `json:"cognitoIdentityPoolId,omitempty"`
	SourceIP              string `json:"sourceIp,omitempty"`
}

// ParseAPIGatewayEvent decodes the header value set by the gateway adapter.
func ParseAPIGatewayEvent(headerValue string) (*APIGatewayEvent, error) {
	decoded, err := url.PathUnescape(headerValue)
	if err != nil {
		return nil, fmt.Errorf("invalid event encoding: %w", err)
	}

	var event APIGatewayEvent
	if err := json.Unmarshal([]byte(decoded), &event); err != nil {
		return nil, fmt.Errorf("invalid event payload: %w", err)
	}
	return &event, nil
}
