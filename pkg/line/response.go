package line

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

const contentTypeJson = "application/json"

type MessageBody struct {
	Message string `json:"message"`
}

type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details string `json:"details,omitempty"`
}

var (
	OKResponse = MessageBody{Message: "OK"}

	OKResponseJson []byte
)

// Marshal JSON for common responses
func init() {
	var err error

	OKResponseJson, err = json.Marshal(OKResponse)
	if err != nil {
		panic(err)
	}
}

// JSONResponse builds an API Gateway response carrying body as JSON.
func JSONResponse(statusCode int, body any) events.APIGatewayV2HTTPResponse {
	rsp := events.APIGatewayV2HTTPResponse{
		StatusCode: statusCode,
		Headers:    map[string]string{"Content-Type": contentTypeJson},
	}
	if body == nil {
		return rsp
	}

	raw, err := json.Marshal(body)
	if err != nil {
		rsp.StatusCode = http.StatusInternalServerError
		raw, _ = json.Marshal(ErrorBody{Error: "Internal server error"})
	}
	rsp.Body = string(raw)
	return rsp
}

func ErrorResponse(statusCode int, errMsg string) events.APIGatewayV2HTTPResponse {
	return JSONResponse(statusCode, ErrorBody{Error: errMsg})
}

// RequestBody returns the raw request body, decoding it when API Gateway
// delivered it base64 encoded.
func RequestBody(req events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	return base64.StdEncoding.DecodeString(req.Body)
}
