// Defines methods/functions to encode/decode messages between client
// and server. Currently this module supports JSON marshal/unmarshal only.

package application

import (
	"encoding/json"

	"github.com/aa8y/scrypto/protocol"
)

// MarshalRequest returns a JSON encoding of the client's request.
func MarshalRequest(reqType int, request interface{}) ([]byte, error) {
	return json.Marshal(&protocol.Request{
		Type:    reqType,
		Request: request,
	})
}

// UnmarshalRequest parses a JSON-encoded request msg and
// creates the corresponding protocol.Request, which will be handled
// by the server.
func UnmarshalRequest(msg []byte) (*protocol.Request, error) {
	var content json.RawMessage
	req := protocol.Request{
		Request: &content,
	}
	if err := json.Unmarshal(msg, &req); err != nil {
		return nil, err
	}
	var request interface{}
	switch req.Type {
	case protocol.DigestType:
		request = new(protocol.DigestRequest)
	case protocol.LookupType:
		request = new(protocol.LookupRequest)
	case protocol.ModifyType:
		request = new(protocol.ModifyRequest)
	}
	if err := json.Unmarshal(content, &request); err != nil {
		return nil, err
	}
	req.Request = request
	return &req, nil
}

// MarshalResponse returns a JSON encoding of the server's response.
func MarshalResponse(response *protocol.Response) ([]byte, error) {
	return json.Marshal(response)
}

// UnmarshalResponse decodes the given message into a protocol.Response
// according to the given request type t. The request types are integer
// constants defined in the protocol package.
func UnmarshalResponse(t int, msg []byte) *protocol.Response {
	type Response struct {
		Error        protocol.ErrorCode
		TreeResponse json.RawMessage
	}
	var res Response
	if err := json.Unmarshal(msg, &res); err != nil {
		return protocol.NewErrorResponse(protocol.ErrMalformedMessage)
	}

	// TreeResponse is omitempty for error responses.
	if res.TreeResponse == nil {
		return protocol.NewErrorResponse(res.Error)
	}

	var response interface{}
	switch t {
	case protocol.DigestType:
		response = new(protocol.DigestResponse)
	case protocol.LookupType:
		response = new(protocol.LookupResponse)
	case protocol.ModifyType:
		response = new(protocol.ModifyResponse)
	default:
		return protocol.NewErrorResponse(protocol.ErrMalformedMessage)
	}
	if err := json.Unmarshal(res.TreeResponse, response); err != nil {
		return protocol.NewErrorResponse(protocol.ErrMalformedMessage)
	}
	return &protocol.Response{
		Error:        res.Error,
		TreeResponse: response,
	}
}

func malformedClientMsg(err error) *protocol.Response {
	return protocol.NewErrorResponse(protocol.ErrMalformedMessage)
}
