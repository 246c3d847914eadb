package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// DefaultResponseMapper is the default implementation of ResponseMapper.
type DefaultResponseMapper struct{}

// NewResponseMapper creates a new instance of DefaultResponseMapper.
func NewResponseMapper() ResponseMapper {
	return &DefaultResponseMapper{}
}

// MapToToolResponse converts a tool result to MCP format: the JSON text in a
// single content block plus the same value as structured content.
func (m *DefaultResponseMapper) MapToToolResponse(result interface{}) (*ToolResponse, error) {
	if result == nil {
		return &ToolResponse{
			Content: []ContentBlock{
				{
					Type: "text",
					Text: "{}",
				},
			},
		}, nil
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}

	return &ToolResponse{
		Content: []ContentBlock{
			{
				Type: "text",
				Text: string(jsonBytes),
			},
		},
		StructuredContent: result,
	}, nil
}

// MapError converts a failure to a JSON-RPC error object.
// *Error values pass through unchanged; *CatalogError values are mapped by
// kind; anything else becomes an internal error.
func (m *DefaultResponseMapper) MapError(err error) *Error {
	if err == nil {
		return nil
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	var catalogErr *CatalogError
	if errors.As(err, &catalogErr) {
		return mapCatalogError(catalogErr)
	}

	return &Error{
		Code:    InternalError,
		Message: "Internal error",
		Data: map[string]interface{}{
			"kind": KindInternal,
		},
	}
}

// mapCatalogError maps the failure taxonomy to JSON-RPC error codes.
func mapCatalogError(catalogErr *CatalogError) *Error {
	var code int
	var message string

	switch catalogErr.Kind {
	case KindValidation:
		code = InvalidParams
		message = catalogErr.Message
	case KindNotFound:
		code = NotFoundErrorCode
		message = catalogErr.Message
	case KindTimeout:
		code = TimeoutErrorCode
		message = "RAWG API request timed out"
	case KindNetwork:
		code = NetworkErrorCode
		message = "Network error contacting RAWG API"
	case KindUpstream:
		code = APIError
		message = fmt.Sprintf("RAWG API error (status %d): %s", catalogErr.StatusCode, catalogErr.Message)
		if catalogErr.StatusCode == http.StatusTooManyRequests {
			code = RateLimitError
			message = "RAWG API rate limit exceeded"
		}
	case KindMalformed:
		code = MalformedResponseCode
		message = "Malformed response from RAWG API"
	case KindConfiguration:
		code = ConfigurationErrorCode
		message = catalogErr.Message
	default:
		code = InternalError
		message = "Internal error"
	}

	data := map[string]interface{}{
		"kind":   catalogErr.Kind,
		"detail": catalogErr.Error(),
	}
	if catalogErr.StatusCode != 0 {
		data["statusCode"] = catalogErr.StatusCode
	}

	return &Error{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
