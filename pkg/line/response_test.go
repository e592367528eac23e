package line

import (
	"encoding/base64"
	"math"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_JSONResponse(t *testing.T) {
	rsp := JSONResponse(http.StatusOK, OKResponse)
	assert.Equal(t, http.StatusOK, rsp.StatusCode)
	assert.Equal(t, contentTypeJson, rsp.Headers["Content-Type"])
	assert.JSONEq(t, `{"message":"OK"}`, rsp.Body)
	assert.JSONEq(t, string(OKResponseJson), rsp.Body)

	rsp = JSONResponse(http.StatusOK, nil)
	assert.Empty(t, rsp.Body)
	assert.Equal(t, contentTypeJson, rsp.Headers["Content-Type"])

	rsp = JSONResponse(http.StatusOK, math.NaN())
	assert.Equal(t, http.StatusInternalServerError, rsp.StatusCode)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rsp.Body)
}

func Test_ErrorResponse(t *testing.T) {
	rsp := ErrorResponse(http.StatusUnauthorized, "Invalid signature")
	assert.Equal(t, http.StatusUnauthorized, rsp.StatusCode)
	assert.JSONEq(t, `{"error":"Invalid signature"}`, rsp.Body)
}

func Test_RequestBody(t *testing.T) {
	body, err := RequestBody(events.APIGatewayV2HTTPRequest{Body: `{"events":[]}`})
	require.NoError(t, err)
	assert.Equal(t, `{"events":[]}`, string(body))

	body, err = RequestBody(events.APIGatewayV2HTTPRequest{
		Body:            base64.StdEncoding.EncodeToString([]byte(`{"events":[]}`)),
		IsBase64Encoded: true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"events":[]}`, string(body))

	_, err = RequestBody(events.APIGatewayV2HTTPRequest{Body: "!!!", IsBase64Encoded: true})
	require.Error(t, err)
}
