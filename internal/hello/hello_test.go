package hello

import (
	"context"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle(t *testing.T) {
	tests := []struct {
		name       string
		authorizer map[string]interface{}
		expected   string
	}{
		{"authorized", map[string]interface{}{"principalId": "user-42"}, `{"message":"hello","principalId":"user-42"}`},
		{"no authorizer", nil, `{"message":"hello","principalId":""}`},
		{"non-string principal", map[string]interface{}{"principalId": 7}, `{"message":"hello","principalId":""}`},
	}

	h := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := events.APIGatewayProxyRequest{
				HTTPMethod:     "GET",
				Path:           "/hello",
				RequestContext: events.APIGatewayProxyRequestContext{Authorizer: tt.authorizer},
			}

			resp, err := h.Handle(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Headers["Content-Type"])
			assert.JSONEq(t, tt.expected, resp.Body)
		})
	}
}
