// Package hello is the backend behind GET /hello.
package hello

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/lex00/wetwire-jwt-gateway/internal/logging"
)

// Message is the fixed greeting.
const Message = "hello"

// Response is the JSON body returned to the caller.
type Response struct {
	Message     string `json:"message"`
	PrincipalID string `json:"principalId"`
}

// Handler answers proxy requests.
type Handler struct {
	log logging.Sugared
}

// New returns a Handler.
func New(log logging.Sugared) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{log: log}
}

// Handle returns the greeting along with the principal the authorizer
// attached to the request.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	principal := PrincipalID(req)
	h.log.Infow("hello", "principalId", principal, "requestId", req.RequestContext.RequestID)

	body, err := json.Marshal(Response{Message: Message, PrincipalID: principal})
	if err != nil {
		return events.APIGatewayProxyResponse{}, fmt.Errorf("encoding response: %w", err)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}, nil
}

// PrincipalID reads the principal passed through by the authorizer, or ""
// when the request was not authorized.
func PrincipalID(req events.APIGatewayProxyRequest) string {
	v, ok := req.RequestContext.Authorizer["principalId"]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
